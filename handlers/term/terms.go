package term

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/canvaslite/backend/model"
	"github.com/canvaslite/backend/utils/response"
	"github.com/canvaslite/backend/utils/validation"
)

// TermHandler handles academic-term requests
type TermHandler struct {
	db        *gorm.DB
	validator *validation.Validator
}

// NewTermHandler creates a new term handler
func NewTermHandler(db *gorm.DB) *TermHandler {
	return &TermHandler{
		db:        db,
		validator: validation.NewValidator(),
	}
}

// CreateTermRequest represents the request body for creating a term
type CreateTermRequest struct {
	Name      string `json:"name" validate:"required,min=2,max=255"`
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"required,datetime=2006-01-02"`
}

// UpdateTermRequest represents the request body for updating a term
type UpdateTermRequest struct {
	Name      string `json:"name" validate:"omitempty,min=2,max=255"`
	StartDate string `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
}

// ListTerms handles GET /api/v1/terms
func (h *TermHandler) ListTerms(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))

	query := h.db.Model(&model.Term{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return response.InternalServerError(c, "Failed to count terms")
	}

	offset := (page - 1) * limit
	pagination := response.CalculatePagination(page, limit, total)

	var terms []model.Term
	if err := query.Order("start_date ASC, end_date ASC").
		Limit(limit).
		Offset(offset).
		Find(&terms).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch terms")
	}

	return response.Paginated(c, terms, pagination)
}

// GetTerm handles GET /api/v1/terms/:id
func (h *TermHandler) GetTerm(c *fiber.Ctx) error {
	var term model.Term
	if err := h.db.First(&term, c.Params("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Term not found")
		}
		return response.InternalServerError(c, "Failed to fetch term")
	}

	return response.Success(c, term)
}

// CreateTerm handles POST /api/v1/terms
func (h *TermHandler) CreateTerm(c *fiber.Ctx) error {
	var req CreateTermRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	start, _ := time.Parse("2006-01-02", req.StartDate)
	end, _ := time.Parse("2006-01-02", req.EndDate)
	if end.Before(start) {
		return response.BadRequest(c, "End date must not be before start date")
	}

	term := model.Term{
		Name:      validation.SanitizeString(req.Name),
		StartDate: start,
		EndDate:   end,
	}

	if err := h.db.Create(&term).Error; err != nil {
		return response.InternalServerError(c, "Failed to create term")
	}

	return response.Created(c, term)
}

// UpdateTerm handles PUT /api/v1/terms/:id
func (h *TermHandler) UpdateTerm(c *fiber.Ctx) error {
	var req UpdateTermRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	var term model.Term
	if err := h.db.First(&term, c.Params("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Term not found")
		}
		return response.InternalServerError(c, "Failed to fetch term")
	}

	if req.Name != "" {
		term.Name = validation.SanitizeString(req.Name)
	}
	if req.StartDate != "" {
		term.StartDate, _ = time.Parse("2006-01-02", req.StartDate)
	}
	if req.EndDate != "" {
		term.EndDate, _ = time.Parse("2006-01-02", req.EndDate)
	}
	if term.EndDate.Before(term.StartDate) {
		return response.BadRequest(c, "End date must not be before start date")
	}

	if err := h.db.Save(&term).Error; err != nil {
		return response.InternalServerError(c, "Failed to update term")
	}

	return response.SuccessWithMessage(c, "Term updated successfully", term)
}

// DeleteTerm handles DELETE /api/v1/terms/:id
// A term still referenced by courses cannot be deleted.
func (h *TermHandler) DeleteTerm(c *fiber.Ctx) error {
	var term model.Term
	if err := h.db.First(&term, c.Params("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Term not found")
		}
		return response.InternalServerError(c, "Failed to fetch term")
	}

	// Check the RESTRICT rule up front for a clean error; the FK
	// constraint still backs this up against races
	var courseCount int64
	if err := h.db.Model(&model.Course{}).Where("term_id = ?", term.ID).Count(&courseCount).Error; err != nil {
		return response.InternalServerError(c, "Failed to check term usage")
	}
	if courseCount > 0 {
		return response.Conflict(c, "Term is still referenced by courses and cannot be deleted")
	}

	if err := h.db.Delete(&term).Error; err != nil {
		return response.Conflict(c, "Term is still referenced by courses and cannot be deleted")
	}

	return response.SuccessWithMessage(c, "Term deleted successfully", nil)
}
