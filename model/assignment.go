package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// GradingType represents how an assignment score is presented
type GradingType string

const (
	GradingPassFail    GradingType = "pass_fail"
	GradingPercent     GradingType = "percent"
	GradingLetterGrade GradingType = "letter_grade"
	GradingPoints      GradingType = "points"
)

// Valid reports whether g is a known grading type.
func (g GradingType) Valid() bool {
	switch g {
	case GradingPassFail, GradingPercent, GradingLetterGrade, GradingPoints:
		return true
	}
	return false
}

// Assignment represents gradable work within a course
type Assignment struct {
	ID              uint                       `gorm:"primaryKey" json:"id"`
	CreatedAt       time.Time                  `json:"created_at"`
	UpdatedAt       time.Time                  `json:"updated_at"`
	DeletedAt       gorm.DeletedAt             `gorm:"index" json:"-"`
	CourseID        uint                       `gorm:"not null;index" json:"course_id"`
	Title           string                     `gorm:"not null" json:"title"`
	Description     string                     `gorm:"type:text" json:"description"` // Sanitized HTML
	PointsPossible  float64                    `gorm:"type:numeric(7,2);default:0" json:"points_possible"`
	DueAt           *time.Time                 `json:"due_at,omitempty"`
	UnlockAt        *time.Time                 `json:"unlock_at,omitempty"`
	LockAt          *time.Time                 `json:"lock_at,omitempty"`
	SubmissionTypes datatypes.JSONSlice[string] `gorm:"type:jsonb" json:"submission_types"` // online_text_entry, online_url, online_upload, online_quiz, none
	GradingType     GradingType                `gorm:"type:varchar(20);not null;default:'points'" json:"grading_type"`
	Published       bool                       `gorm:"default:false" json:"published"`

	// Relationships
	Course      Course       `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"course,omitempty"`
	Submissions []Submission `gorm:"foreignKey:AssignmentID;constraint:OnDelete:CASCADE" json:"-"`
	Quiz        *Quiz        `gorm:"foreignKey:AssignmentID;constraint:OnDelete:CASCADE" json:"quiz,omitempty"`
}

// WorkflowState represents where a submission sits in the grading pipeline
type WorkflowState string

const (
	SubmissionSubmitted   WorkflowState = "submitted"
	SubmissionGraded      WorkflowState = "graded"
	SubmissionUnsubmitted WorkflowState = "unsubmitted"
	SubmissionLate        WorkflowState = "late"
	SubmissionMissing     WorkflowState = "missing"
)

// Submission represents one attempt by one user at one assignment.
// (AssignmentID, UserID, Attempt) is unique; new hand-ins create the next
// attempt number rather than overwriting earlier ones.
type Submission struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
	AssignmentID  uint           `gorm:"not null;uniqueIndex:uniq_submission_attempt,where:deleted_at IS NULL" json:"assignment_id"`
	UserID        uint           `gorm:"not null;uniqueIndex:uniq_submission_attempt,where:deleted_at IS NULL" json:"user_id"`
	Attempt       int            `gorm:"not null;default:1;uniqueIndex:uniq_submission_attempt,where:deleted_at IS NULL" json:"attempt"`
	Body          *string        `gorm:"type:text" json:"body,omitempty"`
	URL           *string        `gorm:"type:varchar(500)" json:"url,omitempty"`
	AttachmentKey *string        `gorm:"type:varchar(500)" json:"-"` // Object storage key
	AttachmentURL *string        `gorm:"type:varchar(500)" json:"attachment_url,omitempty"`
	Score         *float64       `gorm:"type:numeric(7,2)" json:"score,omitempty"`
	Grade         *string        `gorm:"type:varchar(20)" json:"grade,omitempty"` // Rendered per grading type
	Feedback      *string        `gorm:"type:text" json:"feedback,omitempty"`
	SubmittedAt   *time.Time     `json:"submitted_at,omitempty"`
	WorkflowState WorkflowState  `gorm:"type:varchar(20);not null;default:'unsubmitted'" json:"workflow_state"`

	// Relationships
	Assignment  Assignment   `gorm:"foreignKey:AssignmentID;constraint:OnDelete:CASCADE" json:"assignment,omitempty"`
	User        User         `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
	QuizAttempt *QuizAttempt `gorm:"foreignKey:SubmissionID;constraint:OnDelete:CASCADE" json:"quiz_attempt,omitempty"`
}
