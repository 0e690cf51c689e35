package services

import "errors"

// Sentinel errors returned by domain services. Handlers translate these
// into the response envelope; nothing here is fatal to the process.
var (
	ErrNotFound        = errors.New("record not found")
	ErrAlreadyEnrolled = errors.New("already enrolled")
	ErrNoSections      = errors.New("course has no sections")
	ErrNotTeacher      = errors.New("not a teacher for this course")
	ErrAttemptLimit    = errors.New("allowed attempts exhausted")
	ErrFrontPageExists = errors.New("course already has a front page")
	ErrUnknownContent  = errors.New("unknown content kind")
	ErrInvalidInput    = errors.New("invalid input")
)
