package video

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/canvaslite/backend/model"
	"github.com/canvaslite/backend/services"
	"github.com/canvaslite/backend/utils/middleware"
	"github.com/canvaslite/backend/utils/response"
	"github.com/canvaslite/backend/utils/storage"
	"github.com/canvaslite/backend/utils/validation"
)

// VideoHandler handles course videos and watch progress
type VideoHandler struct {
	db          *gorm.DB
	validator   *validation.Validator
	progress    *services.ProgressService
	enrollments *services.EnrollmentService
	objectStore *storage.ObjectStore
}

// NewVideoHandler creates a new video handler. objectStore may be nil;
// file uploads are rejected when no store is configured.
func NewVideoHandler(db *gorm.DB, progress *services.ProgressService, enrollments *services.EnrollmentService, objectStore *storage.ObjectStore) *VideoHandler {
	return &VideoHandler{
		db:          db,
		validator:   validation.NewValidator(),
		progress:    progress,
		enrollments: enrollments,
		objectStore: objectStore,
	}
}

func (h *VideoHandler) canManage(c *fiber.Ctx, courseID uint) (bool, error) {
	if middleware.IsStaff(c) {
		return true, nil
	}
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return false, nil
	}
	return h.enrollments.IsTeacherForCourse(c.Context(), userID, courseID)
}

// CreateVideoRequest represents the request body for adding a video by URL.
// File-backed videos come in as multipart form data with title and duration
// fields alongside the file.
type CreateVideoRequest struct {
	Title    string `json:"title" validate:"required,min=1,max=255"`
	VideoURL string `json:"video_url" validate:"omitempty,url,max=500"`
	Duration uint   `json:"duration"`
}

// UpdateVideoRequest represents the request body for updating a video
type UpdateVideoRequest struct {
	Title    string  `json:"title" validate:"omitempty,min=1,max=255"`
	VideoURL *string `json:"video_url" validate:"omitempty,max=500"`
	Duration *uint   `json:"duration"`
}

// VideoDetail is a video together with the caller's watch standing
type VideoDetail struct {
	Video       model.Video `json:"video"`
	SrcURL      string      `json:"src_url"`
	Percent     int         `json:"percent"`
	WatchedTime float64     `json:"watched_time"`
	IsCompleted bool        `json:"is_completed"`
}

// ListVideos handles GET /api/v1/courses/:course_id/videos
func (h *VideoHandler) ListVideos(c *fiber.Ctx) error {
	courseID := c.Params("course_id")

	var course model.Course
	if err := h.db.First(&course, courseID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Course not found")
		}
		return response.InternalServerError(c, "Failed to fetch course")
	}

	var videos []model.Video
	if err := h.db.Where("course_id = ?", courseID).Order("id ASC").Find(&videos).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch videos")
	}

	return response.Success(c, videos)
}

// GetVideo handles GET /api/v1/videos/:id
// Includes the caller's progress when authenticated.
func (h *VideoHandler) GetVideo(c *fiber.Ctx) error {
	var video model.Video
	if err := h.db.First(&video, c.Params("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Video not found")
		}
		return response.InternalServerError(c, "Failed to fetch video")
	}

	detail := VideoDetail{
		Video:  video,
		SrcURL: video.SrcURL(),
	}

	if userID, ok := middleware.GetUserID(c); ok {
		progress, err := h.progress.GetProgress(c.Context(), userID, video.ID)
		if err != nil {
			return response.InternalServerError(c, "Failed to fetch progress")
		}
		if progress != nil {
			duration := services.EffectiveDuration(0, video.Duration)
			detail.Percent = services.ProgressPercent(progress.WatchedTime, duration)
			detail.WatchedTime = progress.WatchedTime
			detail.IsCompleted = progress.IsCompleted
		}
	}

	return response.Success(c, detail)
}

// CreateVideo handles POST /api/v1/courses/:course_id/videos
// Accepts either a JSON body with an external URL or a multipart upload.
func (h *VideoHandler) CreateVideo(c *fiber.Ctx) error {
	courseID, err := strconv.ParseUint(c.Params("course_id"), 10, 64)
	if err != nil {
		return response.BadRequest(c, "Invalid course ID")
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
		return response.Forbidden(c, "Only teachers can manage course videos")
	}

	if file, err := c.FormFile("file"); err == nil && file != nil {
		return h.createFromUpload(c, course.ID, file.Filename)
	}

	var req CreateVideoRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}
	if req.VideoURL == "" {
		return response.BadRequest(c, "Video needs a URL or a file")
	}

	video := model.Video{
		CourseID: course.ID,
		Title:    validation.SanitizeString(req.Title),
		VideoURL: &req.VideoURL,
		Duration: req.Duration,
	}
	if err := h.db.Create(&video).Error; err != nil {
		return response.InternalServerError(c, "Failed to create video")
	}

	return response.Created(c, video)
}

func (h *VideoHandler) createFromUpload(c *fiber.Ctx, courseID uint, filename string) error {
	if h.objectStore == nil {
		return response.BadRequest(c, "File uploads are not configured")
	}

	title := validation.SanitizeString(c.FormValue("title"))
	if title == "" {
		return response.BadRequest(c, "Title is required")
	}
	duration, _ := strconv.ParseUint(c.FormValue("duration", "0"), 10, 32)

	file, err := c.FormFile("file")
	if err != nil {
		return response.BadRequest(c, "Missing file")
	}
	src, err := file.Open()
	if err != nil {
		return response.BadRequest(c, "Failed to read uploaded file")
	}
	defer src.Close()

	key := storage.GenerateKey("videos", filename)
	url, err := h.objectStore.UploadFile(c.Context(), key, src, storage.GetContentType(filename))
	if err != nil {
		return response.InternalServerError(c, "Failed to store uploaded file")
	}

	video := model.Video{
		CourseID: courseID,
		Title:    title,
		FileKey:  &key,
		FileURL:  &url,
		Duration: uint(duration),
	}
	if err := h.db.Create(&video).Error; err != nil {
		return response.InternalServerError(c, "Failed to create video")
	}

	return response.Created(c, video)
}

// UpdateVideo handles PUT /api/v1/videos/:id
func (h *VideoHandler) UpdateVideo(c *fiber.Ctx) error {
	var req UpdateVideoRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	var video model.Video
	if err := h.db.First(&video, c.Params("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Video not found")
		}
		return response.InternalServerError(c, "Failed to fetch video")
	}

	allowed, err := h.canManage(c, video.CourseID)
	if err != nil {
		return response.InternalServerError(c, "Failed to check permissions")
	}
	if !allowed {
		return response.Forbidden(c, "Only teachers can manage course videos")
	}

	if req.Title != "" {
		video.Title = validation.SanitizeString(req.Title)
	}
	if req.VideoURL != nil {
		if *req.VideoURL == "" {
			video.VideoURL = nil
		} else {
			video.VideoURL = req.VideoURL
		}
	}
	if req.Duration != nil {
		video.Duration = *req.Duration
	}

	if err := h.db.Save(&video).Error; err != nil {
		return response.InternalServerError(c, "Failed to update video")
	}

	return response.SuccessWithMessage(c, "Video updated successfully", video)
}

// DeleteVideo handles DELETE /api/v1/videos/:id
func (h *VideoHandler) DeleteVideo(c *fiber.Ctx) error {
	var video model.Video
	if err := h.db.First(&video, c.Params("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Video not found")
		}
		return response.InternalServerError(c, "Failed to fetch video")
	}

	allowed, err := h.canManage(c, video.CourseID)
	if err != nil {
		return response.InternalServerError(c, "Failed to check permissions")
	}
	if !allowed {
		return response.Forbidden(c, "Only teachers can manage course videos")
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("video_id = ?", video.ID).Delete(&model.VideoProgress{}).Error; err != nil {
			return err
		}
		return tx.Delete(&video).Error
	})
	if err != nil {
		return response.InternalServerError(c, "Failed to delete video")
	}

	if video.FileKey != nil && h.objectStore != nil {
		// Stored file is removed after the row commit; a failed removal
		// leaves an orphan object, not a broken record
		_ = h.objectStore.DeleteFile(c.Context(), *video.FileKey)
	}

	return response.SuccessWithMessage(c, "Video deleted successfully", nil)
}
