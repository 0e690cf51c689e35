package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/canvaslite/backend/model"
)

// SubmissionService handles assignment hand-ins and SpeedGrader-style
// grading
type SubmissionService struct {
	db            *gorm.DB
	enrollments   *EnrollmentService
	notifications *NotificationService
}

// NewSubmissionService creates a new submission service
func NewSubmissionService(db *gorm.DB, enrollments *EnrollmentService, notifications *NotificationService) *SubmissionService {
	return &SubmissionService{
		db:            db,
		enrollments:   enrollments,
		notifications: notifications,
	}
}

// SubmitInput carries the student-provided parts of a hand-in. At least
// one of Body, URL or Attachment should be set; the handler validates
// against the assignment's submission types.
type SubmitInput struct {
	Body          *string
	URL           *string
	AttachmentKey *string
	AttachmentURL *string
}

// Submit records a new attempt for (assignmentID, userID). The attempt
// number is max(existing)+1 inside a transaction; if a concurrent submit
// takes the same number, the unique index rejects it and we retry once
// with the next number before giving up.
func (s *SubmissionService) Submit(ctx context.Context, assignmentID, userID uint, input SubmitInput) (*model.Submission, error) {
	var assignment model.Assignment
	if err := s.db.WithContext(ctx).First(&assignment, assignmentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	submission, err := s.createAttempt(ctx, &assignment, userID, input)
	if isUniqueViolation(err) {
		submission, err = s.createAttempt(ctx, &assignment, userID, input)
	}
	if err != nil {
		return nil, err
	}
	return submission, nil
}

func (s *SubmissionService) createAttempt(ctx context.Context, assignment *model.Assignment, userID uint, input SubmitInput) (*model.Submission, error) {
	var submission model.Submission

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var last model.Submission
		nextAttempt := 1
		err := tx.Where("assignment_id = ? AND user_id = ?", assignment.ID, userID).
			Order("attempt DESC").
			First(&last).Error
		if err == nil {
			nextAttempt = last.Attempt + 1
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		now := time.Now()
		submission = model.Submission{
			AssignmentID:  assignment.ID,
			UserID:        userID,
			Attempt:       nextAttempt,
			Body:          input.Body,
			URL:           input.URL,
			AttachmentKey: input.AttachmentKey,
			AttachmentURL: input.AttachmentURL,
			SubmittedAt:   &now,
			WorkflowState: model.SubmissionSubmitted,
		}
		return tx.Create(&submission).Error
	})
	if err != nil {
		return nil, err
	}

	return &submission, nil
}

// LatestForUser returns the user's most recent submission for an
// assignment, or nil when they have not submitted
func (s *SubmissionService) LatestForUser(ctx context.Context, assignmentID, userID uint) (*model.Submission, error) {
	var submission model.Submission
	err := s.db.WithContext(ctx).
		Where("assignment_id = ? AND user_id = ?", assignmentID, userID).
		Order("attempt DESC, submitted_at DESC, id DESC").
		First(&submission).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &submission, nil
}

// ListForAssignment returns every submission for an assignment ordered
// for the teacher roster view: by student email, then attempt
func (s *SubmissionService) ListForAssignment(ctx context.Context, assignmentID uint) ([]model.Submission, error) {
	var submissions []model.Submission
	err := s.db.WithContext(ctx).
		Joins("JOIN users ON users.id = submissions.user_id").
		Where("submissions.assignment_id = ?", assignmentID).
		Order("users.email ASC, submissions.attempt ASC").
		Preload("User").
		Find(&submissions).Error
	if err != nil {
		return nil, err
	}
	return submissions, nil
}

// GradeInput carries the teacher's grading decision
type GradeInput struct {
	Score    *float64
	Feedback *string
}

// Grade saves a score and feedback on a submission and moves it to the
// graded state. graderID must hold an active teacher enrollment on the
// assignment's course or the call fails with ErrNotTeacher and no state
// changes. The student gets a notification once the grade lands.
func (s *SubmissionService) Grade(ctx context.Context, assignmentID, submissionID, graderID uint, input GradeInput) (*model.Submission, error) {
	var assignment model.Assignment
	if err := s.db.WithContext(ctx).First(&assignment, assignmentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	isTeacher, err := s.enrollments.IsTeacherForCourse(ctx, graderID, assignment.CourseID)
	if err != nil {
		return nil, err
	}
	if !isTeacher {
		return nil, ErrNotTeacher
	}

	return s.grade(ctx, &assignment, submissionID, input)
}

// GradeAsStaff grades on behalf of a site admin who holds no teacher
// enrollment on the course. Apart from skipping the enrollment check it
// behaves exactly like Grade, including the grade-posted notification.
func (s *SubmissionService) GradeAsStaff(ctx context.Context, assignmentID, submissionID uint, input GradeInput) (*model.Submission, error) {
	var assignment model.Assignment
	if err := s.db.WithContext(ctx).First(&assignment, assignmentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return s.grade(ctx, &assignment, submissionID, input)
}

func (s *SubmissionService) grade(ctx context.Context, assignment *model.Assignment, submissionID uint, input GradeInput) (*model.Submission, error) {
	var submission model.Submission
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("assignment_id = ?", assignment.ID).First(&submission, submissionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		submission.Score = input.Score
		submission.Feedback = input.Feedback
		submission.WorkflowState = model.SubmissionGraded
		if input.Score != nil {
			grade := RenderGrade(assignment.GradingType, *input.Score, assignment.PointsPossible)
			submission.Grade = &grade
		} else {
			submission.Grade = nil
		}

		return tx.Save(&submission).Error
	})
	if err != nil {
		return nil, err
	}

	if s.notifications != nil {
		s.notifications.NotifyGradePosted(ctx, &submission, assignment)
	}

	return &submission, nil
}

// GradeNeighbors returns the submissions before and after the given one
// in the SpeedGrader walk order: student email, then submission id
func (s *SubmissionService) GradeNeighbors(ctx context.Context, assignmentID, submissionID uint) (*model.Submission, *model.Submission, error) {
	var submissions []model.Submission
	err := s.db.WithContext(ctx).
		Joins("JOIN users ON users.id = submissions.user_id").
		Where("submissions.assignment_id = ?", assignmentID).
		Order("users.email ASC, submissions.id ASC").
		Find(&submissions).Error
	if err != nil {
		return nil, nil, err
	}

	index := -1
	for i := range submissions {
		if submissions[i].ID == submissionID {
			index = i
			break
		}
	}
	if index < 0 {
		return nil, nil, nil
	}

	var prev, next *model.Submission
	if index > 0 {
		prev = &submissions[index-1]
	}
	if index < len(submissions)-1 {
		next = &submissions[index+1]
	}
	return prev, next, nil
}

// RenderGrade formats a numeric score the way the assignment's grading
// type displays it in the gradebook.
func RenderGrade(gradingType model.GradingType, score, pointsPossible float64) string {
	switch gradingType {
	case model.GradingPassFail:
		if score > 0 {
			return "complete"
		}
		return "incomplete"
	case model.GradingPercent:
		if pointsPossible <= 0 {
			return "0%"
		}
		return fmt.Sprintf("%d%%", int(score/pointsPossible*100))
	case model.GradingLetterGrade:
		if pointsPossible <= 0 {
			return "F"
		}
		return letterFor(score / pointsPossible * 100)
	default:
		return formatPoints(score)
	}
}

func letterFor(percent float64) string {
	switch {
	case percent >= 90:
		return "A"
	case percent >= 80:
		return "B"
	case percent >= 70:
		return "C"
	case percent >= 60:
		return "D"
	}
	return "F"
}

// formatPoints renders a score without trailing zeros (9.5 not 9.50,
// 10 not 10.00)
func formatPoints(score float64) string {
	if score == float64(int64(score)) {
		return fmt.Sprintf("%d", int64(score))
	}
	return fmt.Sprintf("%g", score)
}

// isUniqueViolation reports whether err is a PostgreSQL unique-constraint
// failure (SQLSTATE 23505)
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
