package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/canvaslite/backend/model"
	"github.com/canvaslite/backend/utils/middleware"
	"github.com/canvaslite/backend/utils/response"
	"github.com/canvaslite/backend/utils/validation"
)

// UpdateProfileRequest represents a profile update request
type UpdateProfileRequest struct {
	FullName  string `json:"full_name,omitempty" validate:"omitempty,min=2,max=150"`
	TimeZone  string `json:"time_zone,omitempty" validate:"omitempty,max=50"`
	AvatarURL string `json:"avatar_url,omitempty" validate:"omitempty,url,max=500"`
}

// GetProfile retrieves the current user's profile
func (h *AuthHandler) GetProfile(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	// Get user from database
	var user model.User
	if err := h.db.First(&user, userID).Error; err != nil {
		return response.NotFound(c, "User not found")
	}

	return response.Success(c, userResponseFrom(&user))
}

// UpdateProfile updates the current user's profile
func (h *AuthHandler) UpdateProfile(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	var req UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	// Get user from database
	var user model.User
	if err := h.db.First(&user, userID).Error; err != nil {
		return response.NotFound(c, "User not found")
	}

	// Update fields if provided
	if req.FullName != "" {
		user.FullName = validation.SanitizeString(req.FullName)
	}
	if req.TimeZone != "" {
		user.TimeZone = req.TimeZone
	}
	if req.AvatarURL != "" {
		user.AvatarURL = req.AvatarURL
	}

	// Save updates
	if err := h.db.Save(&user).Error; err != nil {
		return response.InternalServerError(c, "Failed to update profile")
	}

	return response.Success(c, userResponseFrom(&user))
}
