package assignment

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/canvaslite/backend/model"
	"github.com/canvaslite/backend/services"
	"github.com/canvaslite/backend/utils/htmlutil"
	"github.com/canvaslite/backend/utils/middleware"
	"github.com/canvaslite/backend/utils/response"
	"github.com/canvaslite/backend/utils/storage"
	"github.com/canvaslite/backend/utils/validation"
)

// AssignmentHandler handles assignments and their submissions
type AssignmentHandler struct {
	db          *gorm.DB
	validator   *validation.Validator
	enrollments *services.EnrollmentService
	submissions *services.SubmissionService
	objectStore *storage.ObjectStore
}

// NewAssignmentHandler creates a new assignment handler. objectStore may be
// nil; file uploads are rejected when no store is configured.
func NewAssignmentHandler(db *gorm.DB, enrollments *services.EnrollmentService, submissions *services.SubmissionService, objectStore *storage.ObjectStore) *AssignmentHandler {
	return &AssignmentHandler{
		db:          db,
		validator:   validation.NewValidator(),
		enrollments: enrollments,
		submissions: submissions,
		objectStore: objectStore,
	}
}

func (h *AssignmentHandler) canManage(c *fiber.Ctx, courseID uint) (bool, error) {
	if middleware.IsStaff(c) {
		return true, nil
	}
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return false, nil
	}
	return h.enrollments.IsTeacherForCourse(c.Context(), userID, courseID)
}

// CreateAssignmentRequest represents the request body for creating an assignment
type CreateAssignmentRequest struct {
	Title           string     `json:"title" validate:"required,min=1,max=255"`
	Description     string     `json:"description"`
	PointsPossible  float64    `json:"points_possible" validate:"omitempty,min=0"`
	DueAt           *time.Time `json:"due_at"`
	UnlockAt        *time.Time `json:"unlock_at"`
	LockAt          *time.Time `json:"lock_at"`
	SubmissionTypes []string   `json:"submission_types" validate:"omitempty,dive,oneof=online_text_entry online_url online_upload online_quiz none"`
	GradingType     string     `json:"grading_type" validate:"omitempty,oneof=pass_fail percent letter_grade points"`
	Published       *bool      `json:"published"`
}

// UpdateAssignmentRequest represents the request body for updating an assignment
type UpdateAssignmentRequest struct {
	Title           string     `json:"title" validate:"omitempty,min=1,max=255"`
	Description     *string    `json:"description"`
	PointsPossible  *float64   `json:"points_possible" validate:"omitempty,min=0"`
	DueAt           *time.Time `json:"due_at"`
	UnlockAt        *time.Time `json:"unlock_at"`
	LockAt          *time.Time `json:"lock_at"`
	SubmissionTypes []string   `json:"submission_types" validate:"omitempty,dive,oneof=online_text_entry online_url online_upload online_quiz none"`
	GradingType     string     `json:"grading_type" validate:"omitempty,oneof=pass_fail percent letter_grade points"`
	Published       *bool      `json:"published"`
}

// ListAssignments handles GET /api/v1/courses/:course_id/assignments
func (h *AssignmentHandler) ListAssignments(c *fiber.Ctx) error {
	courseID := c.Params("course_id")

	var course model.Course
	if err := h.db.First(&course, courseID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Course not found")
		}
		return response.InternalServerError(c, "Failed to fetch course")
	}

	query := h.db.Where("course_id = ?", courseID)

	allowed, err := h.canManage(c, course.ID)
	if err != nil {
		return response.InternalServerError(c, "Failed to check permissions")
	}
	if !allowed {
		query = query.Where("published = ?", true)
	}

	var assignments []model.Assignment
	if err := query.Order("due_at ASC NULLS LAST, id ASC").Find(&assignments).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch assignments")
	}

	return response.Success(c, assignments)
}

// GetAssignment handles GET /api/v1/assignments/:id
func (h *AssignmentHandler) GetAssignment(c *fiber.Ctx) error {
	var assignment model.Assignment
	if err := h.db.Preload("Quiz").First(&assignment, c.Params("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Assignment not found")
		}
		return response.InternalServerError(c, "Failed to fetch assignment")
	}

	if !assignment.Published {
		allowed, err := h.canManage(c, assignment.CourseID)
		if err != nil {
			return response.InternalServerError(c, "Failed to check permissions")
		}
		if !allowed {
			return response.NotFound(c, "Assignment not found")
		}
	}

	return response.Success(c, assignment)
}

// CreateAssignment handles POST /api/v1/courses/:course_id/assignments
func (h *AssignmentHandler) CreateAssignment(c *fiber.Ctx) error {
	courseID, err := strconv.ParseUint(c.Params("course_id"), 10, 64)
	if err != nil {
		return response.BadRequest(c, "Invalid course ID")
	}

	var req CreateAssignmentRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	var course model.Course
	if err := h.db.First(&course, uint(courseID)).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Course not found")
		}
		return response.InternalServerError(c, "Failed to verify course")
	}

	allowed, err := h.canManage(c, course.ID)
	if err != nil {
		return response.InternalServerError(c, "Failed to check permissions")
	}
	if !allowed {
		return response.Forbidden(c, "Only teachers can manage assignments")
	}

	description, err := htmlutil.Sanitize(req.Description)
	if err != nil {
		return response.BadRequest(c, "Invalid assignment description")
	}

	assignment := model.Assignment{
		CourseID:       course.ID,
		Title:          validation.SanitizeString(req.Title),
		Description:    description,
		PointsPossible: req.PointsPossible,
		DueAt:          req.DueAt,
		UnlockAt:       req.UnlockAt,
		LockAt:         req.LockAt,
		GradingType:    model.GradingPoints,
	}
	if len(req.SubmissionTypes) > 0 {
		assignment.SubmissionTypes = datatypes.NewJSONSlice(req.SubmissionTypes)
	} else {
		assignment.SubmissionTypes = datatypes.NewJSONSlice([]string{"online_text_entry"})
	}
	if req.GradingType != "" {
		assignment.GradingType = model.GradingType(req.GradingType)
	}
	if req.Published != nil {
		assignment.Published = *req.Published
	}

	if err := h.db.Create(&assignment).Error; err != nil {
		return response.InternalServerError(c, "Failed to create assignment")
	}

	return response.Created(c, assignment)
}

// UpdateAssignment handles PUT /api/v1/assignments/:id
func (h *AssignmentHandler) UpdateAssignment(c *fiber.Ctx) error {
	var req UpdateAssignmentRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	var assignment model.Assignment
	if err := h.db.First(&assignment, c.Params("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Assignment not found")
		}
		return response.InternalServerError(c, "Failed to fetch assignment")
	}

	allowed, err := h.canManage(c, assignment.CourseID)
	if err != nil {
		return response.InternalServerError(c, "Failed to check permissions")
	}
	if !allowed {
		return response.Forbidden(c, "Only teachers can manage assignments")
	}

	if req.Title != "" {
		assignment.Title = validation.SanitizeString(req.Title)
	}
	if req.Description != nil {
		description, err := htmlutil.Sanitize(*req.Description)
		if err != nil {
			return response.BadRequest(c, "Invalid assignment description")
		}
		assignment.Description = description
	}
	if req.PointsPossible != nil {
		assignment.PointsPossible = *req.PointsPossible
	}
	if req.DueAt != nil {
		assignment.DueAt = req.DueAt
	}
	if req.UnlockAt != nil {
		assignment.UnlockAt = req.UnlockAt
	}
	if req.LockAt != nil {
		assignment.LockAt = req.LockAt
	}
	if len(req.SubmissionTypes) > 0 {
		assignment.SubmissionTypes = datatypes.NewJSONSlice(req.SubmissionTypes)
	}
	if req.GradingType != "" {
		assignment.GradingType = model.GradingType(req.GradingType)
	}
	if req.Published != nil {
		assignment.Published = *req.Published
	}

	if err := h.db.Save(&assignment).Error; err != nil {
		return response.InternalServerError(c, "Failed to update assignment")
	}

	return response.SuccessWithMessage(c, "Assignment updated successfully", assignment)
}

// DeleteAssignment handles DELETE /api/v1/assignments/:id
// Cascade deletes the quiz config, submissions and module items pointing
// at the assignment.
func (h *AssignmentHandler) DeleteAssignment(c *fiber.Ctx) error {
	var assignment model.Assignment
	if err := h.db.First(&assignment, c.Params("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Assignment not found")
		}
		return response.InternalServerError(c, "Failed to fetch assignment")
	}

	allowed, err := h.canManage(c, assignment.CourseID)
	if err != nil {
		return response.InternalServerError(c, "Failed to check permissions")
	}
	if !allowed {
		return response.Forbidden(c, "Only teachers can manage assignments")
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		quizIDs := tx.Model(&model.Quiz{}).Select("id").Where("assignment_id = ?", assignment.ID)
		questionIDs := tx.Model(&model.Question{}).Select("id").Where("quiz_id IN (?)", quizIDs)
		submissionIDs := tx.Model(&model.Submission{}).Select("id").Where("assignment_id = ?", assignment.ID)
		attemptIDs := tx.Model(&model.QuizAttempt{}).Select("id").Where("submission_id IN (?)", submissionIDs)

		if err := tx.Where("attempt_id IN (?)", attemptIDs).Delete(&model.StudentAnswer{}).Error; err != nil {
			return err
		}
		if err := tx.Where("submission_id IN (?)", submissionIDs).Delete(&model.QuizAttempt{}).Error; err != nil {
			return err
		}
		if err := tx.Where("question_id IN (?)", questionIDs).Delete(&model.Choice{}).Error; err != nil {
			return err
		}
		if err := tx.Where("quiz_id IN (?)", quizIDs).Delete(&model.Question{}).Error; err != nil {
			return err
		}
		if err := tx.Where("assignment_id = ?", assignment.ID).Delete(&model.Quiz{}).Error; err != nil {
			return err
		}
		if err := tx.Where("assignment_id = ?", assignment.ID).Delete(&model.Submission{}).Error; err != nil {
			return err
		}
		if err := tx.Where("content_type = ? AND content_id = ?", model.ContentAssignment, assignment.ID).
			Delete(&model.ModuleItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&assignment).Error
	})
	if err != nil {
		return response.InternalServerError(c, "Failed to delete assignment")
	}

	return response.SuccessWithMessage(c, "Assignment deleted successfully", nil)
}
