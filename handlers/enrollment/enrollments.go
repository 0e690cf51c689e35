package enrollment

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/canvaslite/backend/model"
	"github.com/canvaslite/backend/utils/response"
	"github.com/canvaslite/backend/utils/validation"
)

// EnrollmentHandler handles staff-side enrollment management. Student
// self-enrollment lives on the course handler.
type EnrollmentHandler struct {
	db        *gorm.DB
	validator *validation.Validator
}

// NewEnrollmentHandler creates a new enrollment handler
func NewEnrollmentHandler(db *gorm.DB) *EnrollmentHandler {
	return &EnrollmentHandler{
		db:        db,
		validator: validation.NewValidator(),
	}
}

// CreateEnrollmentRequest represents the request body for creating an
// enrollment
type CreateEnrollmentRequest struct {
	UserID uint   `json:"user_id" validate:"required,min=1"`
	Role   string `json:"role" validate:"required,oneof=student teacher ta observer designer"`
	State  string `json:"state" validate:"omitempty,oneof=active inactive concluded pending"`
}

// UpdateEnrollmentRequest represents the request body for updating an
// enrollment
type UpdateEnrollmentRequest struct {
	Role  string   `json:"role" validate:"omitempty,oneof=student teacher ta observer designer"`
	State string   `json:"state" validate:"omitempty,oneof=active inactive concluded pending"`
	Grade *float64 `json:"grade" validate:"omitempty,min=0,max=100"`
}

// ListEnrollments handles GET /api/v1/sections/:section_id/enrollments
func (h *EnrollmentHandler) ListEnrollments(c *fiber.Ctx) error {
	sectionID := c.Params("section_id")

	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "50"))

	var section model.Section
	if err := h.db.First(&section, sectionID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Section not found")
		}
		return response.InternalServerError(c, "Failed to fetch section")
	}

	query := h.db.Model(&model.Enrollment{}).Where("section_id = ?", sectionID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return response.InternalServerError(c, "Failed to count enrollments")
	}

	offset := (page - 1) * limit
	pagination := response.CalculatePagination(page, limit, total)

	var enrollments []model.Enrollment
	if err := query.Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Preload("User").
		Find(&enrollments).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch enrollments")
	}

	return response.Paginated(c, enrollments, pagination)
}

// CreateEnrollment handles POST /api/v1/sections/:section_id/enrollments
// Staff-side placement of a user into a section with an arbitrary role.
func (h *EnrollmentHandler) CreateEnrollment(c *fiber.Ctx) error {
	sectionID, err := strconv.ParseUint(c.Params("section_id"), 10, 64)
	if err != nil {
		return response.BadRequest(c, "Invalid section ID")
	}

	var req CreateEnrollmentRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	var section model.Section
	if err := h.db.First(&section, uint(sectionID)).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Section not found")
		}
		return response.InternalServerError(c, "Failed to verify section")
	}

	var user model.User
	if err := h.db.First(&user, req.UserID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "User not found")
		}
		return response.InternalServerError(c, "Failed to verify user")
	}

	// One enrollment per (user, section)
	var existing model.Enrollment
	if err := h.db.Where("user_id = ? AND section_id = ?", req.UserID, sectionID).
		First(&existing).Error; err == nil {
		return response.Conflict(c, "User is already enrolled in this section")
	}

	state := model.EnrollmentState(req.State)
	if req.State == "" {
		state = model.EnrollmentPending
	}

	enrollment := model.Enrollment{
		UserID:    req.UserID,
		SectionID: uint(sectionID),
		Role:      model.EnrollmentRole(req.Role),
		State:     state,
	}

	if err := h.db.Create(&enrollment).Error; err != nil {
		return response.InternalServerError(c, "Failed to create enrollment")
	}

	h.db.Preload("User").First(&enrollment, enrollment.ID)

	return response.Created(c, enrollment)
}

// UpdateEnrollment handles PUT /api/v1/enrollments/:id
func (h *EnrollmentHandler) UpdateEnrollment(c *fiber.Ctx) error {
	var req UpdateEnrollmentRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	var enrollment model.Enrollment
	if err := h.db.First(&enrollment, c.Params("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Enrollment not found")
		}
		return response.InternalServerError(c, "Failed to fetch enrollment")
	}

	if req.Role != "" {
		enrollment.Role = model.EnrollmentRole(req.Role)
	}
	if req.State != "" {
		enrollment.State = model.EnrollmentState(req.State)
	}
	if req.Grade != nil {
		enrollment.Grade = req.Grade
	}

	if err := h.db.Save(&enrollment).Error; err != nil {
		return response.InternalServerError(c, "Failed to update enrollment")
	}

	return response.SuccessWithMessage(c, "Enrollment updated successfully", enrollment)
}

// DeleteEnrollment handles DELETE /api/v1/enrollments/:id
func (h *EnrollmentHandler) DeleteEnrollment(c *fiber.Ctx) error {
	var enrollment model.Enrollment
	if err := h.db.First(&enrollment, c.Params("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Enrollment not found")
		}
		return response.InternalServerError(c, "Failed to fetch enrollment")
	}

	if err := h.db.Delete(&enrollment).Error; err != nil {
		return response.InternalServerError(c, "Failed to delete enrollment")
	}

	return response.SuccessWithMessage(c, "Enrollment deleted successfully", nil)
}
