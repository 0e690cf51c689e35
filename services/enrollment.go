package services

import (
	"context"
	"errors"

	"github.com/canvaslite/backend/model"
	"gorm.io/gorm"
)

// EnrollmentService handles course admission and enrollment role checks
type EnrollmentService struct {
	db *gorm.DB
}

// NewEnrollmentService creates a new enrollment service
func NewEnrollmentService(db *gorm.DB) *EnrollmentService {
	return &EnrollmentService{db: db}
}

// IsTeacherForCourse reports whether the user holds an active teacher
// enrollment on any section of the course. Anonymous principals (zero
// user id) are never teachers. A site-wide staff flag is deliberately
// not consulted here; handlers check that separately.
func (s *EnrollmentService) IsTeacherForCourse(ctx context.Context, userID, courseID uint) (bool, error) {
	if userID == 0 {
		return false, nil
	}

	var count int64
	err := s.db.WithContext(ctx).Model(&model.Enrollment{}).
		Joins("JOIN sections ON sections.id = enrollments.section_id").
		Where("enrollments.user_id = ? AND sections.course_id = ? AND enrollments.role = ? AND enrollments.state = ?",
			userID, courseID, model.RoleTeacher, model.EnrollmentActive).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// EnrollInCourse self-enrolls a user into the first section of a course
// as an active student.
//
// The whole admission runs in one transaction. A course without sections
// cannot admit anyone (ErrNoSections). Re-enrolling is an idempotent
// no-op reported as ErrAlreadyEnrolled so the caller can answer "already
// enrolled" instead of failing; the unique (user_id, section_id) index
// backs this up when two requests race.
func (s *EnrollmentService) EnrollInCourse(ctx context.Context, userID, courseID uint) (*model.Enrollment, error) {
	var enrollment model.Enrollment

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var course model.Course
		if err := tx.First(&course, courseID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		// First section by id; arbitrary but stable
		var section model.Section
		err := tx.Where("course_id = ?", courseID).Order("id ASC").First(&section).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNoSections
		}
		if err != nil {
			return err
		}

		var existing model.Enrollment
		err = tx.Where("user_id = ? AND section_id = ?", userID, section.ID).First(&existing).Error
		if err == nil {
			return ErrAlreadyEnrolled
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		enrollment = model.Enrollment{
			UserID:    userID,
			SectionID: section.ID,
			Role:      model.RoleStudent,
			State:     model.EnrollmentActive,
		}
		if err := tx.Create(&enrollment).Error; err != nil {
			// Lost the race against a concurrent enroll; same
			// idempotent outcome as finding the row up front
			if isUniqueViolation(err) {
				return ErrAlreadyEnrolled
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &enrollment, nil
}

// EnrolledCourseIDs returns the ids of every course the user has an
// enrollment in, regardless of state
func (s *EnrollmentService) EnrolledCourseIDs(ctx context.Context, userID uint) (map[uint]bool, error) {
	if userID == 0 {
		return map[uint]bool{}, nil
	}

	var courseIDs []uint
	err := s.db.WithContext(ctx).Model(&model.Enrollment{}).
		Joins("JOIN sections ON sections.id = enrollments.section_id").
		Where("enrollments.user_id = ?", userID).
		Distinct().
		Pluck("sections.course_id", &courseIDs).Error
	if err != nil {
		return nil, err
	}

	enrolled := make(map[uint]bool, len(courseIDs))
	for _, id := range courseIDs {
		enrolled[id] = true
	}
	return enrolled, nil
}

// TeacherName returns the display name of the first teacher enrolled in
// the course, or "-" when the course has no teacher yet
func (s *EnrollmentService) TeacherName(ctx context.Context, courseID uint) (string, error) {
	var enrollment model.Enrollment
	err := s.db.WithContext(ctx).
		Joins("JOIN sections ON sections.id = enrollments.section_id").
		Where("sections.course_id = ? AND enrollments.role = ?", courseID, model.RoleTeacher).
		Order("enrollments.id ASC").
		Preload("User").
		First(&enrollment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "-", nil
	}
	if err != nil {
		return "", err
	}
	return enrollment.User.DisplayName(), nil
}
