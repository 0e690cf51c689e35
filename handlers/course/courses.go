package course

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/canvaslite/backend/model"
	"github.com/canvaslite/backend/services"
	"github.com/canvaslite/backend/utils/middleware"
	"github.com/canvaslite/backend/utils/response"
	"github.com/canvaslite/backend/utils/validation"
)

// CourseHandler handles course catalog, dashboard and course CRUD
type CourseHandler struct {
	db            *gorm.DB
	validator     *validation.Validator
	catalog       *services.CatalogService
	enrollments   *services.EnrollmentService
	notifications *services.NotificationService
}

// NewCourseHandler creates a new course handler
func NewCourseHandler(db *gorm.DB, catalog *services.CatalogService, enrollments *services.EnrollmentService, notifications *services.NotificationService) *CourseHandler {
	return &CourseHandler{
		db:            db,
		validator:     validation.NewValidator(),
		catalog:       catalog,
		enrollments:   enrollments,
		notifications: notifications,
	}
}

// CreateCourseRequest represents the request body for creating a course
type CreateCourseRequest struct {
	AccountID  uint   `json:"account_id" validate:"required,min=1"`
	TermID     uint   `json:"term_id" validate:"required,min=1"`
	Name       string `json:"name" validate:"required,min=2,max=255"`
	CourseCode string `json:"course_code" validate:"required,min=2,max=50"`
	IsPublic   *bool  `json:"is_public"`
}

// UpdateCourseRequest represents the request body for updating a course
type UpdateCourseRequest struct {
	AccountID  *uint  `json:"account_id" validate:"omitempty,min=1"`
	TermID     *uint  `json:"term_id" validate:"omitempty,min=1"`
	Name       string `json:"name" validate:"omitempty,min=2,max=255"`
	CourseCode string `json:"course_code" validate:"omitempty,min=2,max=50"`
	IsPublic   *bool  `json:"is_public"`
}

// ListCourses handles GET /api/v1/courses
// The catalog view: every course with term, teacher name, and whether
// the caller is already enrolled. Works anonymously too.
func (h *CourseHandler) ListCourses(c *fiber.Ctx) error {
	userID, _ := middleware.GetUserID(c)

	cards, err := h.catalog.Catalog(c.Context(), userID)
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch course catalog")
	}

	return response.Success(c, cards)
}

// Dashboard handles GET /api/v1/courses/dashboard
// Course cards for the authenticated caller's enrollments.
func (h *CourseHandler) Dashboard(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	cards, err := h.catalog.Dashboard(c.Context(), userID)
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch dashboard")
	}

	return response.Success(c, cards)
}

// GetCourse handles GET /api/v1/courses/:id
// Course home: the course with its ordered modules and their items.
func (h *CourseHandler) GetCourse(c *fiber.Ctx) error {
	var course model.Course
	err := h.db.Preload("Account").
		Preload("Term").
		Preload("Sections").
		First(&course, c.Params("id")).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "Course not found")
		}
		return response.InternalServerError(c, "Failed to fetch course")
	}

	var modules []model.Module
	err = h.db.Where("course_id = ?", course.ID).
		Order("position ASC, id ASC").
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("module_items.position ASC, module_items.id ASC")
		}).
		Preload("Prerequisites").
		Find(&modules).Error
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch modules")
	}
	course.Modules = modules

	return response.Success(c, course)
}

// CreateCourse handles POST /api/v1/courses
func (h *CourseHandler) CreateCourse(c *fiber.Ctx) error {
	var req CreateCourseRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	var account model.Account
	if err := h.db.First(&account, req.AccountID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "Account not found")
		}
		return response.InternalServerError(c, "Failed to verify account")
	}

	var term model.Term
	if err := h.db.First(&term, req.TermID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "Term not found")
		}
		return response.InternalServerError(c, "Failed to verify term")
	}

	course := model.Course{
		AccountID:  req.AccountID,
		TermID:     req.TermID,
		Name:       validation.SanitizeString(req.Name),
		CourseCode: validation.SanitizeString(req.CourseCode),
	}
	if req.IsPublic != nil {
		course.IsPublic = *req.IsPublic
	}

	if err := h.db.Create(&course).Error; err != nil {
		return response.InternalServerError(c, "Failed to create course")
	}

	h.db.Preload("Account").Preload("Term").First(&course, course.ID)

	return response.Created(c, course)
}

// UpdateCourse handles PUT /api/v1/courses/:id
func (h *CourseHandler) UpdateCourse(c *fiber.Ctx) error {
	var req UpdateCourseRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	var course model.Course
	if err := h.db.First(&course, c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "Course not found")
		}
		return response.InternalServerError(c, "Failed to fetch course")
	}

	if req.AccountID != nil {
		var account model.Account
		if err := h.db.First(&account, *req.AccountID).Error; err != nil {
			return response.NotFound(c, "Account not found")
		}
		course.AccountID = *req.AccountID
	}
	if req.TermID != nil {
		var term model.Term
		if err := h.db.First(&term, *req.TermID).Error; err != nil {
			return response.NotFound(c, "Term not found")
		}
		course.TermID = *req.TermID
	}
	if req.Name != "" {
		course.Name = validation.SanitizeString(req.Name)
	}
	if req.CourseCode != "" {
		course.CourseCode = validation.SanitizeString(req.CourseCode)
	}
	if req.IsPublic != nil {
		course.IsPublic = *req.IsPublic
	}

	if err := h.db.Save(&course).Error; err != nil {
		return response.InternalServerError(c, "Failed to update course")
	}

	h.db.Preload("Account").Preload("Term").First(&course, course.ID)

	return response.SuccessWithMessage(c, "Course updated successfully", course)
}

// DeleteCourse handles DELETE /api/v1/courses/:id
// Cascade deletes sections, enrollments, modules, items, pages,
// assignments (with submissions and quiz data) and videos.
func (h *CourseHandler) DeleteCourse(c *fiber.Ctx) error {
	var course model.Course
	if err := h.db.First(&course, c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "Course not found")
		}
		return response.InternalServerError(c, "Failed to fetch course")
	}

	// Rows use soft deletes, so the cascade is spelled out instead of
	// relying on the FK constraints
	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("attempt_id IN (SELECT qa.id FROM quiz_attempts qa JOIN submissions s ON s.id = qa.submission_id JOIN assignments a ON a.id = s.assignment_id WHERE a.course_id = ?)", course.ID).
			Delete(&model.StudentAnswer{}).Error; err != nil {
			return err
		}
		if err := tx.Where("submission_id IN (SELECT s.id FROM submissions s JOIN assignments a ON a.id = s.assignment_id WHERE a.course_id = ?)", course.ID).
			Delete(&model.QuizAttempt{}).Error; err != nil {
			return err
		}
		if err := tx.Where("assignment_id IN (SELECT id FROM assignments WHERE course_id = ?)", course.ID).
			Delete(&model.Submission{}).Error; err != nil {
			return err
		}
		if err := tx.Where("question_id IN (SELECT q.id FROM questions q JOIN quizzes z ON z.id = q.quiz_id JOIN assignments a ON a.id = z.assignment_id WHERE a.course_id = ?)", course.ID).
			Delete(&model.Choice{}).Error; err != nil {
			return err
		}
		if err := tx.Where("quiz_id IN (SELECT z.id FROM quizzes z JOIN assignments a ON a.id = z.assignment_id WHERE a.course_id = ?)", course.ID).
			Delete(&model.Question{}).Error; err != nil {
			return err
		}
		if err := tx.Where("assignment_id IN (SELECT id FROM assignments WHERE course_id = ?)", course.ID).
			Delete(&model.Quiz{}).Error; err != nil {
			return err
		}
		if err := tx.Where("course_id = ?", course.ID).Delete(&model.Assignment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("module_id IN (SELECT id FROM modules WHERE course_id = ?)", course.ID).
			Delete(&model.ModuleItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("module_id IN (SELECT id FROM modules WHERE course_id = ?)", course.ID).
			Delete(&model.ModulePrerequisite{}).Error; err != nil {
			return err
		}
		if err := tx.Where("course_id = ?", course.ID).Delete(&model.Module{}).Error; err != nil {
			return err
		}
		if err := tx.Where("course_id = ?", course.ID).Delete(&model.Page{}).Error; err != nil {
			return err
		}
		if err := tx.Where("video_id IN (SELECT id FROM videos WHERE course_id = ?)", course.ID).
			Delete(&model.VideoProgress{}).Error; err != nil {
			return err
		}
		if err := tx.Where("course_id = ?", course.ID).Delete(&model.Video{}).Error; err != nil {
			return err
		}
		if err := tx.Where("section_id IN (SELECT id FROM sections WHERE course_id = ?)", course.ID).
			Delete(&model.Enrollment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("course_id = ?", course.ID).Delete(&model.Section{}).Error; err != nil {
			return err
		}
		return tx.Delete(&course).Error
	})
	if err != nil {
		return response.InternalServerError(c, "Failed to delete course: "+err.Error())
	}

	return response.SuccessWithMessage(c, "Course and all related data deleted successfully", nil)
}

// Enroll handles POST /api/v1/courses/:id/enroll
// Self-enrollment: the caller joins the course's first section as an
// active student. Enrolling twice is a no-op reported as such.
func (h *CourseHandler) Enroll(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	courseID, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return response.BadRequest(c, "Invalid course ID")
	}

	enrollment, err := h.enrollments.EnrollInCourse(c.Context(), userID, uint(courseID))
	switch {
	case errors.Is(err, services.ErrNotFound):
		return response.NotFound(c, "Course not found")
	case errors.Is(err, services.ErrNoSections):
		return response.Conflict(c, "This course has no sections open for enrollment")
	case errors.Is(err, services.ErrAlreadyEnrolled):
		return response.SuccessWithMessage(c, "Already enrolled in this course", nil)
	case err != nil:
		return response.InternalServerError(c, "Failed to enroll in course")
	}

	if h.notifications != nil {
		var course model.Course
		if err := h.db.First(&course, uint(courseID)).Error; err == nil {
			h.notifications.NotifyEnrolled(c.Context(), userID, &course)
		}
	}

	return response.Created(c, enrollment)
}
