package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/canvaslite/backend/model"
	authutil "github.com/canvaslite/backend/utils/auth"
	"github.com/canvaslite/backend/utils/middleware"
	"github.com/canvaslite/backend/utils/response"
	"github.com/canvaslite/backend/utils/validation"
)

// ChangePasswordRequest represents a password change request
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

// ChangePassword handles POST /api/v1/auth/change-password
// Bumping the token version invalidates every token the user holds, so
// other sessions have to log in again.
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	var req ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	var user model.User
	if err := h.db.First(&user, userID).Error; err != nil {
		return response.Unauthorized(c, "User not found")
	}

	if err := authutil.VerifyPassword(user.PasswordHash, req.OldPassword); err != nil {
		return response.BadRequest(c, "Current password is incorrect")
	}

	if ok, problems := validation.ValidatePassword(req.NewPassword); !ok {
		return response.ErrorWithDetails(c, fiber.StatusBadRequest,
			"Password does not meet requirements", "WEAK_PASSWORD", problems)
	}

	hashedPassword, err := authutil.HashPassword(req.NewPassword)
	if err != nil {
		return response.InternalServerError(c, "Failed to process password")
	}

	if err := h.db.Model(&user).Updates(map[string]interface{}{
		"password_hash": hashedPassword,
		"token_version": user.TokenVersion + 1,
	}).Error; err != nil {
		return response.InternalServerError(c, "Failed to update password")
	}

	return response.SuccessWithMessage(c, "Password changed successfully. Please login again with your new password", nil)
}
