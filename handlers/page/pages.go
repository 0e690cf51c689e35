package page

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/canvaslite/backend/model"
	"github.com/canvaslite/backend/services"
	"github.com/canvaslite/backend/utils/htmlutil"
	"github.com/canvaslite/backend/utils/middleware"
	"github.com/canvaslite/backend/utils/response"
	"github.com/canvaslite/backend/utils/validation"
)

// PageHandler handles course wiki pages
type PageHandler struct {
	db          *gorm.DB
	validator   *validation.Validator
	enrollments *services.EnrollmentService
}

// NewPageHandler creates a new page handler
func NewPageHandler(db *gorm.DB, enrollments *services.EnrollmentService) *PageHandler {
	return &PageHandler{
		db:          db,
		validator:   validation.NewValidator(),
		enrollments: enrollments,
	}
}

func (h *PageHandler) canManage(c *fiber.Ctx, courseID uint) (bool, error) {
	if middleware.IsStaff(c) {
		return true, nil
	}
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return false, nil
	}
	return h.enrollments.IsTeacherForCourse(c.Context(), userID, courseID)
}

// CreatePageRequest represents the request body for creating a page
type CreatePageRequest struct {
	Title       string `json:"title" validate:"required,min=1,max=255"`
	Body        string `json:"body"`
	IsPublished *bool  `json:"is_published"`
	IsFrontPage *bool  `json:"is_front_page"`
}

// UpdatePageRequest represents the request body for updating a page
type UpdatePageRequest struct {
	Title       string  `json:"title" validate:"omitempty,min=1,max=255"`
	Body        *string `json:"body"`
	IsPublished *bool   `json:"is_published"`
	IsFrontPage *bool   `json:"is_front_page"`
}

// ListPages handles GET /api/v1/courses/:course_id/pages
func (h *PageHandler) ListPages(c *fiber.Ctx) error {
	courseID := c.Params("course_id")

	var course model.Course
	if err := h.db.First(&course, courseID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Course not found")
		}
		return response.InternalServerError(c, "Failed to fetch course")
	}

	query := h.db.Where("course_id = ?", courseID)

	// Students only see published pages
	allowed, err := h.canManage(c, course.ID)
	if err != nil {
		return response.InternalServerError(c, "Failed to check permissions")
	}
	if !allowed {
		query = query.Where("is_published = ?", true)
	}

	var pages []model.Page
	if err := query.Order("title ASC, id ASC").Find(&pages).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch pages")
	}

	return response.Success(c, pages)
}

// GetPage handles GET /api/v1/pages/:id
func (h *PageHandler) GetPage(c *fiber.Ctx) error {
	var page model.Page
	if err := h.db.First(&page, c.Params("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Page not found")
		}
		return response.InternalServerError(c, "Failed to fetch page")
	}

	if !page.IsPublished {
		allowed, err := h.canManage(c, page.CourseID)
		if err != nil {
			return response.InternalServerError(c, "Failed to check permissions")
		}
		if !allowed {
			return response.NotFound(c, "Page not found")
		}
	}

	return response.Success(c, page)
}

// GetFrontPage handles GET /api/v1/courses/:course_id/front-page
func (h *PageHandler) GetFrontPage(c *fiber.Ctx) error {
	var page model.Page
	err := h.db.Where("course_id = ? AND is_front_page = ?", c.Params("course_id"), true).
		First(&page).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Course has no front page")
		}
		return response.InternalServerError(c, "Failed to fetch front page")
	}

	return response.Success(c, page)
}

// CreatePage handles POST /api/v1/courses/:course_id/pages
func (h *PageHandler) CreatePage(c *fiber.Ctx) error {
	courseID, err := strconv.ParseUint(c.Params("course_id"), 10, 64)
	if err != nil {
		return response.BadRequest(c, "Invalid course ID")
	}

	var req CreatePageRequest
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
		return response.Forbidden(c, "Only teachers can manage course pages")
	}

	body, err := htmlutil.Sanitize(req.Body)
	if err != nil {
		return response.BadRequest(c, "Invalid page body")
	}

	page := model.Page{
		CourseID: course.ID,
		Title:    validation.SanitizeString(req.Title),
		Body:     body,
	}
	if req.IsPublished != nil {
		page.IsPublished = *req.IsPublished
	}
	if req.IsFrontPage != nil {
		page.IsFrontPage = *req.IsFrontPage
	}

	if page.IsFrontPage {
		if err := h.checkFrontPageFree(course.ID, 0); err != nil {
			if err == services.ErrFrontPageExists {
				return response.Conflict(c, "Course already has a front page")
			}
			return response.InternalServerError(c, "Failed to verify front page")
		}
	}

	if err := h.db.Create(&page).Error; err != nil {
		// Partial unique index backstops the pre-check under races
		return response.Conflict(c, "Course already has a front page")
	}

	return response.Created(c, page)
}

// UpdatePage handles PUT /api/v1/pages/:id
func (h *PageHandler) UpdatePage(c *fiber.Ctx) error {
	var req UpdatePageRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	var page model.Page
	if err := h.db.First(&page, c.Params("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Page not found")
		}
		return response.InternalServerError(c, "Failed to fetch page")
	}

	allowed, err := h.canManage(c, page.CourseID)
	if err != nil {
		return response.InternalServerError(c, "Failed to check permissions")
	}
	if !allowed {
		return response.Forbidden(c, "Only teachers can manage course pages")
	}

	if req.Title != "" {
		page.Title = validation.SanitizeString(req.Title)
	}
	if req.Body != nil {
		body, err := htmlutil.Sanitize(*req.Body)
		if err != nil {
			return response.BadRequest(c, "Invalid page body")
		}
		page.Body = body
	}
	if req.IsPublished != nil {
		page.IsPublished = *req.IsPublished
	}
	if req.IsFrontPage != nil {
		if *req.IsFrontPage && !page.IsFrontPage {
			if err := h.checkFrontPageFree(page.CourseID, page.ID); err != nil {
				if err == services.ErrFrontPageExists {
					return response.Conflict(c, "Course already has a front page")
				}
				return response.InternalServerError(c, "Failed to verify front page")
			}
		}
		page.IsFrontPage = *req.IsFrontPage
	}

	if err := h.db.Save(&page).Error; err != nil {
		return response.Conflict(c, "Course already has a front page")
	}

	return response.SuccessWithMessage(c, "Page updated successfully", page)
}

// checkFrontPageFree returns ErrFrontPageExists when another page of the
// course already holds the front-page flag.
func (h *PageHandler) checkFrontPageFree(courseID, excludeID uint) error {
	var count int64
	err := h.db.Model(&model.Page{}).
		Where("course_id = ? AND is_front_page = ? AND id <> ?", courseID, true, excludeID).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return services.ErrFrontPageExists
	}
	return nil
}

// DeletePage handles DELETE /api/v1/pages/:id
// Module items pointing at the page are removed with it.
func (h *PageHandler) DeletePage(c *fiber.Ctx) error {
	var page model.Page
	if err := h.db.First(&page, c.Params("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Page not found")
		}
		return response.InternalServerError(c, "Failed to fetch page")
	}

	allowed, err := h.canManage(c, page.CourseID)
	if err != nil {
		return response.InternalServerError(c, "Failed to check permissions")
	}
	if !allowed {
		return response.Forbidden(c, "Only teachers can manage course pages")
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("content_type = ? AND content_id = ?", model.ContentPage, page.ID).
			Delete(&model.ModuleItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&page).Error
	})
	if err != nil {
		return response.InternalServerError(c, "Failed to delete page")
	}

	return response.SuccessWithMessage(c, "Page deleted successfully", nil)
}
