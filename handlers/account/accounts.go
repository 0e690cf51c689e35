package account

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/canvaslite/backend/model"
	"github.com/canvaslite/backend/utils/response"
	"github.com/canvaslite/backend/utils/validation"
)

// AccountHandler handles account-related requests
type AccountHandler struct {
	db        *gorm.DB
	validator *validation.Validator
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(db *gorm.DB) *AccountHandler {
	return &AccountHandler{
		db:        db,
		validator: validation.NewValidator(),
	}
}

// CreateAccountRequest represents the request body for creating an account
type CreateAccountRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=255"`
	ParentID *uint  `json:"parent_id" validate:"omitempty,min=1"`
}

// UpdateAccountRequest represents the request body for updating an account
type UpdateAccountRequest struct {
	Name     string `json:"name" validate:"omitempty,min=2,max=255"`
	ParentID *uint  `json:"parent_id" validate:"omitempty,min=1"`
}

// ListAccounts handles GET /api/v1/accounts
func (h *AccountHandler) ListAccounts(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))

	query := h.db.Model(&model.Account{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return response.InternalServerError(c, "Failed to count accounts")
	}

	offset := (page - 1) * limit
	pagination := response.CalculatePagination(page, limit, total)

	var accounts []model.Account
	if err := query.Order("id ASC").
		Limit(limit).
		Offset(offset).
		Find(&accounts).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch accounts")
	}

	return response.Paginated(c, accounts, pagination)
}

// GetAccount handles GET /api/v1/accounts/:id
func (h *AccountHandler) GetAccount(c *fiber.Ctx) error {
	var account model.Account
	if err := h.db.Preload("SubAccounts").First(&account, c.Params("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Account not found")
		}
		return response.InternalServerError(c, "Failed to fetch account")
	}

	return response.Success(c, account)
}

// CreateAccount handles POST /api/v1/accounts
func (h *AccountHandler) CreateAccount(c *fiber.Ctx) error {
	var req CreateAccountRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	// Verify the parent exists when given
	if req.ParentID != nil {
		var parent model.Account
		if err := h.db.First(&parent, *req.ParentID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return response.NotFound(c, "Parent account not found")
			}
			return response.InternalServerError(c, "Failed to verify parent account")
		}
	}

	account := model.Account{
		Name:     validation.SanitizeString(req.Name),
		ParentID: req.ParentID,
	}

	if err := h.db.Create(&account).Error; err != nil {
		return response.InternalServerError(c, "Failed to create account")
	}

	return response.Created(c, account)
}

// UpdateAccount handles PUT /api/v1/accounts/:id
func (h *AccountHandler) UpdateAccount(c *fiber.Ctx) error {
	var req UpdateAccountRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	var account model.Account
	if err := h.db.First(&account, c.Params("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Account not found")
		}
		return response.InternalServerError(c, "Failed to fetch account")
	}

	if req.Name != "" {
		account.Name = validation.SanitizeString(req.Name)
	}
	if req.ParentID != nil {
		if *req.ParentID == account.ID {
			return response.BadRequest(c, "An account cannot be its own parent")
		}
		var parent model.Account
		if err := h.db.First(&parent, *req.ParentID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return response.NotFound(c, "Parent account not found")
			}
			return response.InternalServerError(c, "Failed to verify parent account")
		}
		account.ParentID = req.ParentID
	}

	if err := h.db.Save(&account).Error; err != nil {
		return response.InternalServerError(c, "Failed to update account")
	}

	return response.SuccessWithMessage(c, "Account updated successfully", account)
}

// DeleteAccount handles DELETE /api/v1/accounts/:id
// Deleting an account cascades to its sub-accounts and courses.
func (h *AccountHandler) DeleteAccount(c *fiber.Ctx) error {
	var account model.Account
	if err := h.db.First(&account, c.Params("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Account not found")
		}
		return response.InternalServerError(c, "Failed to fetch account")
	}

	if err := h.db.Delete(&account).Error; err != nil {
		return response.InternalServerError(c, "Failed to delete account")
	}

	return response.SuccessWithMessage(c, "Account deleted successfully", nil)
}
