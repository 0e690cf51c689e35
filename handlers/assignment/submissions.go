package assignment

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/canvaslite/backend/model"
	"github.com/canvaslite/backend/services"
	"github.com/canvaslite/backend/utils/middleware"
	"github.com/canvaslite/backend/utils/response"
	"github.com/canvaslite/backend/utils/storage"
	"github.com/canvaslite/backend/utils/upload"
)

// SubmitRequest represents the JSON request body for handing in work.
// File uploads come in as multipart form data instead.
type SubmitRequest struct {
	Body string `json:"body"`
	URL  string `json:"url" validate:"omitempty,url,max=500"`
}

// GradeRequest represents the request body for grading a submission
type GradeRequest struct {
	Score    *float64 `json:"score" validate:"omitempty,min=0"`
	Feedback *string  `json:"feedback"`
}

// GradeResponse is the SpeedGrader payload: the graded submission plus the
// previous and next submissions in the walk order.
type GradeResponse struct {
	Submission *model.Submission `json:"submission"`
	Previous   *model.Submission `json:"previous,omitempty"`
	Next       *model.Submission `json:"next,omitempty"`
}

// Submit handles POST /api/v1/assignments/:id/submissions
// Each hand-in creates a new attempt; earlier attempts are kept.
func (h *AssignmentHandler) Submit(c *fiber.Ctx) error {
	assignmentID, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return response.BadRequest(c, "Invalid assignment ID")
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	var assignment model.Assignment
	if err := h.db.First(&assignment, uint(assignmentID)).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Assignment not found")
		}
		return response.InternalServerError(c, "Failed to fetch assignment")
	}

	input, errMsg := h.buildSubmitInput(c, &assignment)
	if errMsg != "" {
		return response.BadRequest(c, errMsg)
	}

	submission, err := h.submissions.Submit(c.Context(), assignment.ID, userID, *input)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return response.NotFound(c, "Assignment not found")
		}
		return response.InternalServerError(c, "Failed to record submission")
	}

	return response.Created(c, submission)
}

// buildSubmitInput assembles the hand-in from either a multipart upload or
// a JSON body, checked against the assignment's allowed submission types.
func (h *AssignmentHandler) buildSubmitInput(c *fiber.Ctx, assignment *model.Assignment) (*services.SubmitInput, string) {
	allows := func(kind string) bool {
		for _, t := range assignment.SubmissionTypes {
			if t == kind {
				return true
			}
		}
		return false
	}

	if file, err := c.FormFile("file"); err == nil && file != nil {
		if !allows("online_upload") {
			return nil, "This assignment does not accept file uploads"
		}
		if h.objectStore == nil {
			return nil, "File uploads are not configured"
		}

		result, err := upload.ValidatePDFFile(file, upload.SubmissionLimits)
		if err != nil {
			return nil, "Failed to read uploaded file"
		}
		if !result.Valid {
			return nil, result.Error
		}

		src, err := file.Open()
		if err != nil {
			return nil, "Failed to read uploaded file"
		}
		defer src.Close()

		key := storage.GenerateKey("submissions", file.Filename)
		url, err := h.objectStore.UploadFile(c.Context(), key, src, storage.GetContentType(file.Filename))
		if err != nil {
			return nil, "Failed to store uploaded file"
		}
		return &services.SubmitInput{AttachmentKey: &key, AttachmentURL: &url}, ""
	}

	var req SubmitRequest
	if err := c.BodyParser(&req); err != nil {
		return nil, "Invalid request body"
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return nil, "Invalid submission URL"
	}

	input := services.SubmitInput{}
	switch {
	case strings.TrimSpace(req.Body) != "":
		if !allows("online_text_entry") {
			return nil, "This assignment does not accept text entries"
		}
		body := req.Body
		input.Body = &body
	case req.URL != "":
		if !allows("online_url") {
			return nil, "This assignment does not accept URL submissions"
		}
		url := req.URL
		input.URL = &url
	default:
		return nil, "Submission must include a body, a URL or a file"
	}
	return &input, ""
}

// GetMySubmission handles GET /api/v1/assignments/:id/submissions/mine
// Returns the caller's latest attempt, or an empty success when they have
// not submitted yet.
func (h *AssignmentHandler) GetMySubmission(c *fiber.Ctx) error {
	assignmentID, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return response.BadRequest(c, "Invalid assignment ID")
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	submission, err := h.submissions.LatestForUser(c.Context(), uint(assignmentID), userID)
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch submission")
	}

	return response.Success(c, submission)
}

// ListSubmissions handles GET /api/v1/assignments/:id/submissions
// Teacher roster view; students use the /mine endpoint.
func (h *AssignmentHandler) ListSubmissions(c *fiber.Ctx) error {
	var assignment model.Assignment
	if err := h.db.First(&assignment, c.Params("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Assignment not found")
		}
		return response.InternalServerError(c, "Failed to fetch assignment")
	}

	allowed, err := h.canManage(c, assignment.CourseID)
	if err != nil {
		return response.InternalServerError(c, "Failed to check permissions")
	}
	if !allowed {
		return response.Forbidden(c, "Only teachers can view the submission list")
	}

	submissions, err := h.submissions.ListForAssignment(c.Context(), assignment.ID)
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch submissions")
	}

	return response.Success(c, submissions)
}

// GradeSubmission handles POST /api/v1/assignments/:id/submissions/:submission_id/grade
func (h *AssignmentHandler) GradeSubmission(c *fiber.Ctx) error {
	assignmentID, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return response.BadRequest(c, "Invalid assignment ID")
	}
	submissionID, err := strconv.ParseUint(c.Params("submission_id"), 10, 64)
	if err != nil {
		return response.BadRequest(c, "Invalid submission ID")
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	var req GradeRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	input := services.GradeInput{
		Score:    req.Score,
		Feedback: req.Feedback,
	}

	// Site admins grade without holding a teacher enrollment
	var submission *model.Submission
	if middleware.IsStaff(c) {
		submission, err = h.submissions.GradeAsStaff(c.Context(), uint(assignmentID), uint(submissionID), input)
	} else {
		submission, err = h.submissions.Grade(c.Context(), uint(assignmentID), uint(submissionID), userID, input)
	}
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotTeacher):
			return response.Forbidden(c, "Only teachers can grade submissions")
		case errors.Is(err, services.ErrNotFound):
			return response.NotFound(c, "Submission not found")
		}
		return response.InternalServerError(c, "Failed to grade submission")
	}

	return h.respondWithNeighbors(c, uint(assignmentID), submission)
}

func (h *AssignmentHandler) respondWithNeighbors(c *fiber.Ctx, assignmentID uint, submission *model.Submission) error {
	prev, next, err := h.submissions.GradeNeighbors(c.Context(), assignmentID, submission.ID)
	if err != nil {
		return response.InternalServerError(c, "Failed to compute grading order")
	}

	return response.Success(c, GradeResponse{
		Submission: submission,
		Previous:   prev,
		Next:       next,
	})
}
