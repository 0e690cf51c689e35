package quiz

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/canvaslite/backend/model"
	"github.com/canvaslite/backend/services"
	"github.com/canvaslite/backend/utils/middleware"
	"github.com/canvaslite/backend/utils/response"
	"github.com/canvaslite/backend/utils/validation"
)

// QuizHandler handles quiz configuration, authoring and student attempts
type QuizHandler struct {
	db          *gorm.DB
	validator   *validation.Validator
	quizzes     *services.QuizService
	enrollments *services.EnrollmentService
}

// NewQuizHandler creates a new quiz handler
func NewQuizHandler(db *gorm.DB, quizzes *services.QuizService, enrollments *services.EnrollmentService) *QuizHandler {
	return &QuizHandler{
		db:          db,
		validator:   validation.NewValidator(),
		quizzes:     quizzes,
		enrollments: enrollments,
	}
}

func (h *QuizHandler) canManage(c *fiber.Ctx, courseID uint) (bool, error) {
	if middleware.IsStaff(c) {
		return true, nil
	}
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return false, nil
	}
	return h.enrollments.IsTeacherForCourse(c.Context(), userID, courseID)
}

// courseOfQuiz resolves the course a quiz belongs to through its assignment
func (h *QuizHandler) courseOfQuiz(quiz *model.Quiz) (uint, error) {
	var assignment model.Assignment
	if err := h.db.First(&assignment, quiz.AssignmentID).Error; err != nil {
		return 0, err
	}
	return assignment.CourseID, nil
}

// CreateQuizRequest represents the request body for attaching quiz behavior
// to an assignment
type CreateQuizRequest struct {
	QuizType         string `json:"quiz_type" validate:"omitempty,oneof=graded_quiz practice_quiz graded_survey ungraded_survey"`
	TimeLimitMinutes *int   `json:"time_limit_minutes" validate:"omitempty,min=1"`
	AllowedAttempts  *int   `json:"allowed_attempts" validate:"omitempty,min=-1"`
	ShuffleAnswers   *bool  `json:"shuffle_answers"`
}

// UpdateQuizRequest represents the request body for updating quiz settings
type UpdateQuizRequest = CreateQuizRequest

// CreateQuiz handles POST /api/v1/assignments/:assignment_id/quiz
// An assignment carries at most one quiz.
func (h *QuizHandler) CreateQuiz(c *fiber.Ctx) error {
	assignmentID, err := strconv.ParseUint(c.Params("assignment_id"), 10, 64)
	if err != nil {
		return response.BadRequest(c, "Invalid assignment ID")
	}

	var req CreateQuizRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	var assignment model.Assignment
	if err := h.db.First(&assignment, uint(assignmentID)).Error; err != nil {
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
		return response.Forbidden(c, "Only teachers can manage quizzes")
	}

	var existing model.Quiz
	if err := h.db.Where("assignment_id = ?", assignment.ID).First(&existing).Error; err == nil {
		return response.Conflict(c, "Assignment already has a quiz")
	} else if err != gorm.ErrRecordNotFound {
		return response.InternalServerError(c, "Failed to check existing quiz")
	}

	quiz := model.Quiz{
		AssignmentID:     assignment.ID,
		QuizType:         model.QuizGraded,
		TimeLimitMinutes: req.TimeLimitMinutes,
		AllowedAttempts:  -1,
	}
	if req.QuizType != "" {
		quiz.QuizType = model.QuizType(req.QuizType)
	}
	if req.AllowedAttempts != nil {
		quiz.AllowedAttempts = *req.AllowedAttempts
	}
	if req.ShuffleAnswers != nil {
		quiz.ShuffleAnswers = *req.ShuffleAnswers
	}

	if err := h.db.Create(&quiz).Error; err != nil {
		return response.Conflict(c, "Assignment already has a quiz")
	}

	return response.Created(c, quiz)
}

// GetQuiz handles GET /api/v1/quizzes/:id
func (h *QuizHandler) GetQuiz(c *fiber.Ctx) error {
	var quiz model.Quiz
	if err := h.db.Preload("Assignment").First(&quiz, c.Params("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Quiz not found")
		}
		return response.InternalServerError(c, "Failed to fetch quiz")
	}

	return response.Success(c, quiz)
}

// UpdateQuiz handles PUT /api/v1/quizzes/:id
func (h *QuizHandler) UpdateQuiz(c *fiber.Ctx) error {
	var req UpdateQuizRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	var quiz model.Quiz
	if err := h.db.First(&quiz, c.Params("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Quiz not found")
		}
		return response.InternalServerError(c, "Failed to fetch quiz")
	}

	courseID, err := h.courseOfQuiz(&quiz)
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch assignment")
	}
	allowed, err := h.canManage(c, courseID)
	if err != nil {
		return response.InternalServerError(c, "Failed to check permissions")
	}
	if !allowed {
		return response.Forbidden(c, "Only teachers can manage quizzes")
	}

	if req.QuizType != "" {
		quiz.QuizType = model.QuizType(req.QuizType)
	}
	if req.TimeLimitMinutes != nil {
		quiz.TimeLimitMinutes = req.TimeLimitMinutes
	}
	if req.AllowedAttempts != nil {
		quiz.AllowedAttempts = *req.AllowedAttempts
	}
	if req.ShuffleAnswers != nil {
		quiz.ShuffleAnswers = *req.ShuffleAnswers
	}

	if err := h.db.Save(&quiz).Error; err != nil {
		return response.InternalServerError(c, "Failed to update quiz")
	}

	return response.SuccessWithMessage(c, "Quiz updated successfully", quiz)
}

// DeleteQuiz handles DELETE /api/v1/quizzes/:id
// Removes the quiz behavior with its questions, choices and attempt data;
// the assignment and its submissions remain.
func (h *QuizHandler) DeleteQuiz(c *fiber.Ctx) error {
	var quiz model.Quiz
	if err := h.db.First(&quiz, c.Params("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Quiz not found")
		}
		return response.InternalServerError(c, "Failed to fetch quiz")
	}

	courseID, err := h.courseOfQuiz(&quiz)
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch assignment")
	}
	allowed, err := h.canManage(c, courseID)
	if err != nil {
		return response.InternalServerError(c, "Failed to check permissions")
	}
	if !allowed {
		return response.Forbidden(c, "Only teachers can manage quizzes")
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		questionIDs := tx.Model(&model.Question{}).Select("id").Where("quiz_id = ?", quiz.ID)
		submissionIDs := tx.Model(&model.Submission{}).Select("id").Where("assignment_id = ?", quiz.AssignmentID)
		attemptIDs := tx.Model(&model.QuizAttempt{}).Select("id").Where("submission_id IN (?)", submissionIDs)

		if err := tx.Where("attempt_id IN (?)", attemptIDs).Delete(&model.StudentAnswer{}).Error; err != nil {
			return err
		}
		if err := tx.Where("submission_id IN (?)", submissionIDs).Delete(&model.QuizAttempt{}).Error; err != nil {
			return err
		}
		if err := tx.Where("question_id IN (?)", questionIDs).Delete(&model.Choice{}).Error; err != nil {
			return err
		}
		if err := tx.Where("quiz_id = ?", quiz.ID).Delete(&model.Question{}).Error; err != nil {
			return err
		}
		return tx.Delete(&quiz).Error
	})
	if err != nil {
		return response.InternalServerError(c, "Failed to delete quiz")
	}

	return response.SuccessWithMessage(c, "Quiz deleted successfully", nil)
}
