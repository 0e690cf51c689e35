package module

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/canvaslite/backend/model"
	"github.com/canvaslite/backend/services"
	"github.com/canvaslite/backend/utils/middleware"
	"github.com/canvaslite/backend/utils/response"
	"github.com/canvaslite/backend/utils/validation"
)

// ModuleHandler handles course modules and their items
type ModuleHandler struct {
	db          *gorm.DB
	validator   *validation.Validator
	sequence    *services.SequenceService
	resolver    *services.ContentResolver
	enrollments *services.EnrollmentService
	submissions *services.SubmissionService
}

// NewModuleHandler creates a new module handler
func NewModuleHandler(db *gorm.DB, sequence *services.SequenceService, resolver *services.ContentResolver, enrollments *services.EnrollmentService, submissions *services.SubmissionService) *ModuleHandler {
	return &ModuleHandler{
		db:          db,
		validator:   validation.NewValidator(),
		sequence:    sequence,
		resolver:    resolver,
		enrollments: enrollments,
		submissions: submissions,
	}
}

// canManage reports whether the caller may edit content in the course:
// site staff, or an active teacher on the course
func (h *ModuleHandler) canManage(c *fiber.Ctx, courseID uint) (bool, error) {
	if middleware.IsStaff(c) {
		return true, nil
	}
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return false, nil
	}
	return h.enrollments.IsTeacherForCourse(c.Context(), userID, courseID)
}

// CreateModuleRequest represents the request body for creating a module
type CreateModuleRequest struct {
	Name                      string     `json:"name" validate:"required,min=1,max=255"`
	Position                  int        `json:"position" validate:"omitempty,min=0"`
	UnlockAt                  *time.Time `json:"unlock_at"`
	RequireSequentialProgress *bool      `json:"require_sequential_progress"`
	PrerequisiteIDs           []uint     `json:"prerequisite_ids" validate:"omitempty,dive,min=1"`
}

// UpdateModuleRequest represents the request body for updating a module
type UpdateModuleRequest struct {
	Name                      string     `json:"name" validate:"omitempty,min=1,max=255"`
	Position                  *int       `json:"position" validate:"omitempty,min=0"`
	UnlockAt                  *time.Time `json:"unlock_at"`
	RequireSequentialProgress *bool      `json:"require_sequential_progress"`
	PrerequisiteIDs           []uint     `json:"prerequisite_ids" validate:"omitempty,dive,min=1"`
}

// ListModules handles GET /api/v1/courses/:course_id/modules
func (h *ModuleHandler) ListModules(c *fiber.Ctx) error {
	courseID := c.Params("course_id")

	var course model.Course
	if err := h.db.First(&course, courseID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Course not found")
		}
		return response.InternalServerError(c, "Failed to fetch course")
	}

	var modules []model.Module
	err := h.db.Where("course_id = ?", courseID).
		Order("position ASC, id ASC").
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("module_items.position ASC, module_items.id ASC")
		}).
		Preload("Prerequisites").
		Find(&modules).Error
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch modules")
	}

	return response.Success(c, modules)
}

// GetModule handles GET /api/v1/modules/:id
func (h *ModuleHandler) GetModule(c *fiber.Ctx) error {
	var module model.Module
	err := h.db.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("module_items.position ASC, module_items.id ASC")
	}).
		Preload("Prerequisites.Prerequisite").
		First(&module, c.Params("id")).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Module not found")
		}
		return response.InternalServerError(c, "Failed to fetch module")
	}

	return response.Success(c, module)
}

// CreateModule handles POST /api/v1/courses/:course_id/modules
func (h *ModuleHandler) CreateModule(c *fiber.Ctx) error {
	courseID, err := strconv.ParseUint(c.Params("course_id"), 10, 64)
	if err != nil {
		return response.BadRequest(c, "Invalid course ID")
	}

	var req CreateModuleRequest
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
		return response.Forbidden(c, "Only teachers can manage course modules")
	}

	module := model.Module{
		CourseID: course.ID,
		Name:     validation.SanitizeString(req.Name),
		Position: req.Position,
		UnlockAt: req.UnlockAt,
	}
	if req.RequireSequentialProgress != nil {
		module.RequireSequentialProgress = *req.RequireSequentialProgress
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&module).Error; err != nil {
			return err
		}
		return h.replacePrerequisites(tx, &module, req.PrerequisiteIDs)
	})
	if err != nil {
		if err == services.ErrInvalidInput {
			return response.BadRequest(c, "Prerequisites must be other modules of the same course")
		}
		return response.InternalServerError(c, "Failed to create module")
	}

	h.db.Preload("Prerequisites").First(&module, module.ID)

	return response.Created(c, module)
}

// UpdateModule handles PUT /api/v1/modules/:id
func (h *ModuleHandler) UpdateModule(c *fiber.Ctx) error {
	var req UpdateModuleRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	var module model.Module
	if err := h.db.First(&module, c.Params("id")).Error; err != nil {
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
		return response.Forbidden(c, "Only teachers can manage course modules")
	}

	if req.Name != "" {
		module.Name = validation.SanitizeString(req.Name)
	}
	if req.Position != nil {
		module.Position = *req.Position
	}
	if req.UnlockAt != nil {
		module.UnlockAt = req.UnlockAt
	}
	if req.RequireSequentialProgress != nil {
		module.RequireSequentialProgress = *req.RequireSequentialProgress
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&module).Error; err != nil {
			return err
		}
		if req.PrerequisiteIDs != nil {
			return h.replacePrerequisites(tx, &module, req.PrerequisiteIDs)
		}
		return nil
	})
	if err != nil {
		if err == services.ErrInvalidInput {
			return response.BadRequest(c, "Prerequisites must be other modules of the same course")
		}
		return response.InternalServerError(c, "Failed to update module")
	}

	h.db.Preload("Prerequisites").First(&module, module.ID)

	return response.SuccessWithMessage(c, "Module updated successfully", module)
}

// replacePrerequisites swaps the module's prerequisite adjacency rows for
// the given set. Prerequisites must be sibling modules; the chain is not
// checked for cycles and is not evaluated when students open content.
func (h *ModuleHandler) replacePrerequisites(tx *gorm.DB, module *model.Module, prerequisiteIDs []uint) error {
	if err := tx.Where("module_id = ?", module.ID).Delete(&model.ModulePrerequisite{}).Error; err != nil {
		return err
	}

	for _, prereqID := range prerequisiteIDs {
		if prereqID == module.ID {
			return services.ErrInvalidInput
		}
		var prereq model.Module
		if err := tx.Where("course_id = ?", module.CourseID).First(&prereq, prereqID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return services.ErrInvalidInput
			}
			return err
		}
		row := model.ModulePrerequisite{ModuleID: module.ID, PrerequisiteID: prereqID}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
	}
	return nil
}

// DeleteModule handles DELETE /api/v1/modules/:id
// Cascade deletes the module's items and prerequisite links.
func (h *ModuleHandler) DeleteModule(c *fiber.Ctx) error {
	var module model.Module
	if err := h.db.First(&module, c.Params("id")).Error; err != nil {
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
		return response.Forbidden(c, "Only teachers can manage course modules")
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("module_id = ?", module.ID).Delete(&model.ModuleItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("module_id = ? OR prerequisite_id = ?", module.ID, module.ID).
			Delete(&model.ModulePrerequisite{}).Error; err != nil {
			return err
		}
		return tx.Delete(&module).Error
	})
	if err != nil {
		return response.InternalServerError(c, "Failed to delete module")
	}

	return response.SuccessWithMessage(c, "Module deleted successfully", nil)
}
