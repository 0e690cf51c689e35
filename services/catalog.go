package services

import (
	"context"

	"gorm.io/gorm"

	"github.com/canvaslite/backend/model"
)

// CatalogService assembles the course-catalog and dashboard listings
type CatalogService struct {
	db          *gorm.DB
	enrollments *EnrollmentService
}

// NewCatalogService creates a new catalog service
func NewCatalogService(db *gorm.DB, enrollments *EnrollmentService) *CatalogService {
	return &CatalogService{db: db, enrollments: enrollments}
}

// CourseCard is one entry in the catalog or dashboard listing
type CourseCard struct {
	Course     model.Course `json:"course"`
	Teacher    string       `json:"teacher"`
	IsEnrolled bool         `json:"is_enrolled"`
}

// Catalog lists every course with its term, the name of its first
// teacher, and whether the caller is already enrolled. userID may be
// zero for anonymous browsing; everything then shows as not enrolled.
func (s *CatalogService) Catalog(ctx context.Context, userID uint) ([]CourseCard, error) {
	var courses []model.Course
	if err := s.db.WithContext(ctx).Preload("Term").Order("id ASC").Find(&courses).Error; err != nil {
		return nil, err
	}

	enrolled, err := s.enrollments.EnrolledCourseIDs(ctx, userID)
	if err != nil {
		return nil, err
	}

	cards := make([]CourseCard, 0, len(courses))
	for _, course := range courses {
		teacher, err := s.enrollments.TeacherName(ctx, course.ID)
		if err != nil {
			return nil, err
		}
		cards = append(cards, CourseCard{
			Course:     course,
			Teacher:    teacher,
			IsEnrolled: enrolled[course.ID],
		})
	}
	return cards, nil
}

// Dashboard lists the caller's enrolled courses as cards
func (s *CatalogService) Dashboard(ctx context.Context, userID uint) ([]CourseCard, error) {
	enrolled, err := s.enrollments.EnrolledCourseIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(enrolled) == 0 {
		return []CourseCard{}, nil
	}

	ids := make([]uint, 0, len(enrolled))
	for id := range enrolled {
		ids = append(ids, id)
	}

	var courses []model.Course
	if err := s.db.WithContext(ctx).Preload("Term").Where("id IN ?", ids).Order("id ASC").Find(&courses).Error; err != nil {
		return nil, err
	}

	cards := make([]CourseCard, 0, len(courses))
	for _, course := range courses {
		teacher, err := s.enrollments.TeacherName(ctx, course.ID)
		if err != nil {
			return nil, err
		}
		cards = append(cards, CourseCard{Course: course, Teacher: teacher, IsEnrolled: true})
	}
	return cards, nil
}
