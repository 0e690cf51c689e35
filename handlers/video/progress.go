package video

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/canvaslite/backend/services"
	"github.com/canvaslite/backend/utils/middleware"
)

// ProgressRequest is the payload the player posts while a video plays
type ProgressRequest struct {
	VideoID     uint    `json:"video_id"`
	WatchedTime float64 `json:"watched_time"`
	Duration    float64 `json:"duration"`
}

// UpdateProgress handles POST /api/v1/videos/progress
//
// The player fires this on a timer, so the wire format stays flat instead
// of using the standard response envelope:
//
//	{"status": "success", "progress": ..., "percent": ..., "watched_time": ..., "is_completed": ...}
//
// and `{"error": "..."}` with a 400 on malformed input.
func (h *VideoHandler) UpdateProgress(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "authentication required"})
	}

	var req ProgressRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON body"})
	}
	if req.VideoID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "video_id is required"})
	}

	result, err := h.progress.RecordProgress(c.Context(), userID, req.VideoID, req.WatchedTime, req.Duration)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "video not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to record progress"})
	}

	return c.JSON(fiber.Map{
		"status":       "success",
		"progress":     result.Percent,
		"percent":      result.Percent,
		"watched_time": result.WatchedTime,
		"is_completed": result.IsCompleted,
	})
}
