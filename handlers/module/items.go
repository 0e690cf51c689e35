package module

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

// CreateItemRequest represents the request body for adding an item to a module
type CreateItemRequest struct {
	Position    int    `json:"position" validate:"omitempty,min=0"`
	Indent      int    `json:"indent" validate:"omitempty,min=0,max=5"`
	ContentType string `json:"content_type" validate:"required,oneof=page assignment"`
	ContentID   uint   `json:"content_id" validate:"required,min=1"`
	Requirement string `json:"completion_requirement" validate:"omitempty,oneof=must_view must_submit min_score"`
}

// UpdateItemRequest represents the request body for updating a module item
type UpdateItemRequest struct {
	Position    *int    `json:"position" validate:"omitempty,min=0"`
	Indent      *int    `json:"indent" validate:"omitempty,min=0,max=5"`
	Requirement *string `json:"completion_requirement" validate:"omitempty,oneof=must_view must_submit min_score"`
}

// ItemDetail is the payload for the item detail view: the item, its resolved
// content, sequence neighbors within the course, and the caller's standing.
type ItemDetail struct {
	Item       model.ModuleItem  `json:"item"`
	Content    services.Content  `json:"content"`
	Previous   *model.ModuleItem `json:"previous,omitempty"`
	Next       *model.ModuleItem `json:"next,omitempty"`
	IsTeacher  bool              `json:"is_teacher"`
	Submission *model.Submission `json:"submission,omitempty"`
}

// CreateItem handles POST /api/v1/modules/:id/items
func (h *ModuleHandler) CreateItem(c *fiber.Ctx) error {
	moduleID, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return response.BadRequest(c, "Invalid module ID")
	}

	var req CreateItemRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	var module model.Module
	if err := h.db.First(&module, uint(moduleID)).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Module not found")
		}
		return response.InternalServerError(c, "Failed to fetch module")
	}

	allowed, err := h.canManage(c, module.CourseID)
	if err != nil {
		return response.InternalServerError(c, "Failed to check permissions")
	}
	if !allowed {
		return response.Forbidden(c, "Only teachers can manage module items")
	}

	kind := model.ContentKind(req.ContentType)
	content, err := h.resolver.Resolve(c.Context(), kind, req.ContentID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return response.NotFound(c, "Content not found")
		}
		return response.InternalServerError(c, "Failed to resolve content")
	}
	if !h.contentBelongsToCourse(content, module.CourseID) {
		return response.BadRequest(c, "Content must belong to the module's course")
	}

	item := model.ModuleItem{
		ModuleID:    module.ID,
		Position:    req.Position,
		Indent:      req.Indent,
		ContentType: kind,
		ContentID:   req.ContentID,
	}
	if req.Requirement != "" {
		requirement := model.CompletionRequirement(req.Requirement)
		item.Requirement = &requirement
	}

	if err := h.db.Create(&item).Error; err != nil {
		return response.InternalServerError(c, "Failed to create module item")
	}

	return response.Created(c, item)
}

func (h *ModuleHandler) contentBelongsToCourse(content services.Content, courseID uint) bool {
	switch {
	case content.Page != nil:
		return content.Page.CourseID == courseID
	case content.Assignment != nil:
		return content.Assignment.CourseID == courseID
	}
	return false
}

// UpdateItem handles PUT /api/v1/module-items/:id
func (h *ModuleHandler) UpdateItem(c *fiber.Ctx) error {
	var req UpdateItemRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	var item model.ModuleItem
	if err := h.db.Preload("Module").First(&item, c.Params("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Module item not found")
		}
		return response.InternalServerError(c, "Failed to fetch module item")
	}

	allowed, err := h.canManage(c, item.Module.CourseID)
	if err != nil {
		return response.InternalServerError(c, "Failed to check permissions")
	}
	if !allowed {
		return response.Forbidden(c, "Only teachers can manage module items")
	}

	if req.Position != nil {
		item.Position = *req.Position
	}
	if req.Indent != nil {
		item.Indent = *req.Indent
	}
	if req.Requirement != nil {
		if *req.Requirement == "" {
			item.Requirement = nil
		} else {
			requirement := model.CompletionRequirement(*req.Requirement)
			item.Requirement = &requirement
		}
	}

	if err := h.db.Save(&item).Error; err != nil {
		return response.InternalServerError(c, "Failed to update module item")
	}

	return response.SuccessWithMessage(c, "Module item updated successfully", item)
}

// DeleteItem handles DELETE /api/v1/module-items/:id
func (h *ModuleHandler) DeleteItem(c *fiber.Ctx) error {
	var item model.ModuleItem
	if err := h.db.Preload("Module").First(&item, c.Params("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Module item not found")
		}
		return response.InternalServerError(c, "Failed to fetch module item")
	}

	allowed, err := h.canManage(c, item.Module.CourseID)
	if err != nil {
		return response.InternalServerError(c, "Failed to check permissions")
	}
	if !allowed {
		return response.Forbidden(c, "Only teachers can manage module items")
	}

	if err := h.db.Delete(&item).Error; err != nil {
		return response.InternalServerError(c, "Failed to delete module item")
	}

	return response.SuccessWithMessage(c, "Module item deleted successfully", nil)
}

// GetItem handles GET /api/v1/module-items/:id
// Returns the item with its resolved content, the previous and next items
// in the course-wide sequence, and the caller's latest submission when the
// item points at an assignment.
func (h *ModuleHandler) GetItem(c *fiber.Ctx) error {
	var item model.ModuleItem
	if err := h.db.Preload("Module").First(&item, c.Params("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Module item not found")
		}
		return response.InternalServerError(c, "Failed to fetch module item")
	}
	courseID := item.Module.CourseID

	content, err := h.resolver.ResolveItem(c.Context(), &item)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return response.NotFound(c, "Content not found")
		}
		return response.InternalServerError(c, "Failed to resolve content")
	}

	prev, next, err := h.sequence.Neighbors(c.Context(), courseID, item.ID)
	if err != nil {
		return response.InternalServerError(c, "Failed to compute sequence")
	}

	detail := ItemDetail{
		Item:     item,
		Content:  content,
		Previous: prev,
		Next:     next,
	}

	if userID, ok := middleware.GetUserID(c); ok {
		isTeacher, err := h.enrollments.IsTeacherForCourse(c.Context(), userID, courseID)
		if err != nil {
			return response.InternalServerError(c, "Failed to check permissions")
		}
		detail.IsTeacher = middleware.IsStaff(c) || isTeacher

		if content.Assignment != nil {
			submission, err := h.submissions.LatestForUser(c.Context(), content.Assignment.ID, userID)
			if err != nil {
				return response.InternalServerError(c, "Failed to fetch submission")
			}
			detail.Submission = submission
		}
	}

	return response.Success(c, detail)
}
