package user

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/canvaslite/backend/model"
	authutil "github.com/canvaslite/backend/utils/auth"
	"github.com/canvaslite/backend/utils/response"
	"github.com/canvaslite/backend/utils/validation"
)

// UserHandler handles staff-side user administration
type UserHandler struct {
	db        *gorm.DB
	validator *validation.Validator
}

// NewUserHandler creates a new user handler
func NewUserHandler(db *gorm.DB) *UserHandler {
	return &UserHandler{
		db:        db,
		validator: validation.NewValidator(),
	}
}

// ListUsersRequest represents the query parameters for listing users
type ListUsersRequest struct {
	Page   int    `query:"page"`
	Limit  int    `query:"limit"`
	Search string `query:"search"`
	Staff  string `query:"staff"` // "true" or "false"
}

// CreateUserRequest represents the request body for creating a user
type CreateUserRequest struct {
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required,min=8"`
	FullName string  `json:"full_name" validate:"required,min=1,max=255"`
	SISID    *string `json:"sis_id" validate:"omitempty,max=100"`
	TimeZone string  `json:"time_zone" validate:"omitempty,max=50"`
	IsStaff  bool    `json:"is_staff"`
}

// UpdateUserRequest represents the request body for updating a user
type UpdateUserRequest struct {
	FullName string  `json:"full_name" validate:"omitempty,min=1,max=255"`
	SISID    *string `json:"sis_id" validate:"omitempty,max=100"`
	TimeZone string  `json:"time_zone" validate:"omitempty,max=50"`
	IsStaff  *bool   `json:"is_staff"`
}

// ResetPasswordRequest represents the request body for a staff password
// reset
type ResetPasswordRequest struct {
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

// ListUsers handles GET /api/v1/users
func (h *UserHandler) ListUsers(c *fiber.Ctx) error {
	var req ListUsersRequest
	if err := c.QueryParser(&req); err != nil {
		return response.BadRequest(c, "Invalid query parameters")
	}

	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit < 1 || req.Limit > 100 {
		req.Limit = 20
	}

	query := h.db.Model(&model.User{})

	if req.Search != "" {
		term := "%" + strings.ToLower(req.Search) + "%"
		query = query.Where("LOWER(full_name) LIKE ? OR LOWER(email) LIKE ?", term, term)
	}
	if req.Staff == "true" {
		query = query.Where("is_staff = ?", true)
	} else if req.Staff == "false" {
		query = query.Where("is_staff = ?", false)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return response.InternalServerError(c, "Failed to count users")
	}

	var users []model.User
	offset := (req.Page - 1) * req.Limit
	if err := query.Offset(offset).Limit(req.Limit).Order("created_at DESC, id DESC").Find(&users).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch users")
	}

	return response.Paginated(c, users, response.CalculatePagination(req.Page, req.Limit, total))
}

// GetUser handles GET /api/v1/users/:id
func (h *UserHandler) GetUser(c *fiber.Ctx) error {
	var user model.User
	err := h.db.Preload("Enrollments.Section.Course").First(&user, c.Params("id")).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "User not found")
		}
		return response.InternalServerError(c, "Failed to fetch user")
	}

	return response.Success(c, user)
}

// CreateUser handles POST /api/v1/users
func (h *UserHandler) CreateUser(c *fiber.Ctx) error {
	var req CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	email := validation.NormalizeEmail(req.Email)

	var count int64
	h.db.Model(&model.User{}).Where("email = ?", email).Count(&count)
	if count > 0 {
		return response.Conflict(c, "Email is already registered")
	}

	if ok, problems := validation.ValidatePassword(req.Password); !ok {
		return response.ErrorWithDetails(c, fiber.StatusBadRequest,
			"Password does not meet requirements", "WEAK_PASSWORD", problems)
	}

	hash, err := authutil.HashPassword(req.Password)
	if err != nil {
		return response.InternalServerError(c, "Failed to process password")
	}

	user := model.User{
		Email:        email,
		PasswordHash: hash,
		FullName:     validation.SanitizeString(req.FullName),
		SISID:        req.SISID,
		TimeZone:     "UTC",
		IsStaff:      req.IsStaff,
	}
	if req.TimeZone != "" {
		user.TimeZone = req.TimeZone
	}

	if err := h.db.Create(&user).Error; err != nil {
		return response.Conflict(c, "Email or SIS ID is already registered")
	}

	return response.Created(c, user)
}

// UpdateUser handles PUT /api/v1/users/:id
func (h *UserHandler) UpdateUser(c *fiber.Ctx) error {
	var req UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	var user model.User
	if err := h.db.First(&user, c.Params("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "User not found")
		}
		return response.InternalServerError(c, "Failed to fetch user")
	}

	if req.FullName != "" {
		user.FullName = validation.SanitizeString(req.FullName)
	}
	if req.SISID != nil {
		user.SISID = req.SISID
	}
	if req.TimeZone != "" {
		user.TimeZone = req.TimeZone
	}
	if req.IsStaff != nil {
		user.IsStaff = *req.IsStaff
	}

	if err := h.db.Save(&user).Error; err != nil {
		return response.Conflict(c, "SIS ID is already registered")
	}

	return response.SuccessWithMessage(c, "User updated successfully", user)
}

// ResetPassword handles POST /api/v1/users/:id/reset-password
// Bumping the token version invalidates every token the user holds.
func (h *UserHandler) ResetPassword(c *fiber.Ctx) error {
	var req ResetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	var user model.User
	if err := h.db.First(&user, c.Params("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "User not found")
		}
		return response.InternalServerError(c, "Failed to fetch user")
	}

	if ok, problems := validation.ValidatePassword(req.NewPassword); !ok {
		return response.ErrorWithDetails(c, fiber.StatusBadRequest,
			"Password does not meet requirements", "WEAK_PASSWORD", problems)
	}

	hash, err := authutil.HashPassword(req.NewPassword)
	if err != nil {
		return response.InternalServerError(c, "Failed to process password")
	}

	user.PasswordHash = hash
	user.TokenVersion++
	if err := h.db.Save(&user).Error; err != nil {
		return response.InternalServerError(c, "Failed to reset password")
	}

	return response.SuccessWithMessage(c, "Password reset successfully", nil)
}

// DeleteUser handles DELETE /api/v1/users/:id
// Cascade deletes the user's enrollments, submissions, quiz attempts,
// watch progress and notifications.
func (h *UserHandler) DeleteUser(c *fiber.Ctx) error {
	var user model.User
	if err := h.db.First(&user, c.Params("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "User not found")
		}
		return response.InternalServerError(c, "Failed to fetch user")
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		submissionIDs := tx.Model(&model.Submission{}).Select("id").Where("user_id = ?", user.ID)
		attemptIDs := tx.Model(&model.QuizAttempt{}).Select("id").Where("submission_id IN (?)", submissionIDs)

		if err := tx.Where("attempt_id IN (?)", attemptIDs).Delete(&model.StudentAnswer{}).Error; err != nil {
			return err
		}
		if err := tx.Where("submission_id IN (?)", submissionIDs).Delete(&model.QuizAttempt{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", user.ID).Delete(&model.Submission{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", user.ID).Delete(&model.Enrollment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", user.ID).Delete(&model.VideoProgress{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", user.ID).Delete(&model.UserNotification{}).Error; err != nil {
			return err
		}
		return tx.Delete(&user).Error
	})
	if err != nil {
		return response.InternalServerError(c, "Failed to delete user")
	}

	return response.SuccessWithMessage(c, "User deleted successfully", nil)
}
