package section

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/canvaslite/backend/model"
	"github.com/canvaslite/backend/utils/response"
	"github.com/canvaslite/backend/utils/validation"
)

// SectionHandler handles section-related requests
type SectionHandler struct {
	db        *gorm.DB
	validator *validation.Validator
}

// NewSectionHandler creates a new section handler
func NewSectionHandler(db *gorm.DB) *SectionHandler {
	return &SectionHandler{
		db:        db,
		validator: validation.NewValidator(),
	}
}

// CreateSectionRequest represents the request body for creating a section
type CreateSectionRequest struct {
	Name string `json:"name" validate:"required,min=1,max=255"`
}

// UpdateSectionRequest represents the request body for updating a section
type UpdateSectionRequest struct {
	Name string `json:"name" validate:"required,min=1,max=255"`
}

// ListSections handles GET /api/v1/courses/:course_id/sections
func (h *SectionHandler) ListSections(c *fiber.Ctx) error {
	courseID := c.Params("course_id")

	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))

	// Check if course exists
	var course model.Course
	if err := h.db.First(&course, courseID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Course not found")
		}
		return response.InternalServerError(c, "Failed to fetch course")
	}

	query := h.db.Model(&model.Section{}).Where("course_id = ?", courseID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return response.InternalServerError(c, "Failed to count sections")
	}

	offset := (page - 1) * limit
	pagination := response.CalculatePagination(page, limit, total)

	var sections []model.Section
	if err := query.Order("id ASC").
		Limit(limit).
		Offset(offset).
		Find(&sections).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch sections")
	}

	return response.Paginated(c, sections, pagination)
}

// GetSection handles GET /api/v1/sections/:id
func (h *SectionHandler) GetSection(c *fiber.Ctx) error {
	var section model.Section
	err := h.db.Preload("Course").
		Preload("Enrollments.User").
		First(&section, c.Params("id")).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Section not found")
		}
		return response.InternalServerError(c, "Failed to fetch section")
	}

	return response.Success(c, section)
}

// CreateSection handles POST /api/v1/courses/:course_id/sections
func (h *SectionHandler) CreateSection(c *fiber.Ctx) error {
	courseID, err := strconv.ParseUint(c.Params("course_id"), 10, 64)
	if err != nil {
		return response.BadRequest(c, "Invalid course ID")
	}

	var req CreateSectionRequest
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

	section := model.Section{
		CourseID: uint(courseID),
		Name:     validation.SanitizeString(req.Name),
	}

	if err := h.db.Create(&section).Error; err != nil {
		return response.InternalServerError(c, "Failed to create section")
	}

	return response.Created(c, section)
}

// UpdateSection handles PUT /api/v1/sections/:id
func (h *SectionHandler) UpdateSection(c *fiber.Ctx) error {
	var req UpdateSectionRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	var section model.Section
	if err := h.db.First(&section, c.Params("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Section not found")
		}
		return response.InternalServerError(c, "Failed to fetch section")
	}

	section.Name = validation.SanitizeString(req.Name)

	if err := h.db.Save(&section).Error; err != nil {
		return response.InternalServerError(c, "Failed to update section")
	}

	return response.SuccessWithMessage(c, "Section updated successfully", section)
}

// DeleteSection handles DELETE /api/v1/sections/:id
// Cascade deletes its enrollments.
func (h *SectionHandler) DeleteSection(c *fiber.Ctx) error {
	var section model.Section
	if err := h.db.First(&section, c.Params("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Section not found")
		}
		return response.InternalServerError(c, "Failed to fetch section")
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("section_id = ?", section.ID).Delete(&model.Enrollment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&section).Error
	})
	if err != nil {
		return response.InternalServerError(c, "Failed to delete section")
	}

	return response.SuccessWithMessage(c, "Section deleted successfully", nil)
}
