package quiz

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/canvaslite/backend/model"
	"github.com/canvaslite/backend/utils/response"
	"github.com/canvaslite/backend/utils/validation"
)

// ChoiceInput represents one answer option when authoring a question
type ChoiceInput struct {
	Text      string `json:"text" validate:"required,min=1"`
	IsCorrect bool   `json:"is_correct"`
}

// CreateQuestionRequest represents the request body for adding a question
type CreateQuestionRequest struct {
	Text     string        `json:"text" validate:"required,min=1"`
	Type     string        `json:"type" validate:"omitempty,oneof=multiple_choice true_false short_answer essay"`
	Points   *float64      `json:"points" validate:"omitempty,min=0"`
	Position int           `json:"position" validate:"omitempty,min=0"`
	Choices  []ChoiceInput `json:"choices" validate:"omitempty,dive"`
}

// UpdateQuestionRequest represents the request body for updating a question.
// When Choices is present the existing options are replaced wholesale.
type UpdateQuestionRequest struct {
	Text     string        `json:"text" validate:"omitempty,min=1"`
	Points   *float64      `json:"points" validate:"omitempty,min=0"`
	Position *int          `json:"position" validate:"omitempty,min=0"`
	Choices  []ChoiceInput `json:"choices" validate:"omitempty,dive"`
}

// ListQuestions handles GET /api/v1/quizzes/:id/questions
// Teacher view with correct answers; students see questions through the
// attempt endpoints instead.
func (h *QuizHandler) ListQuestions(c *fiber.Ctx) error {
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
		return response.Forbidden(c, "Only teachers can view question keys")
	}

	var questions []model.Question
	err = h.db.Where("quiz_id = ?", quiz.ID).
		Order("position ASC, id ASC").
		Preload("Choices", func(db *gorm.DB) *gorm.DB {
			return db.Order("choices.id ASC")
		}).
		Find(&questions).Error
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch questions")
	}

	return response.Success(c, questions)
}

// CreateQuestion handles POST /api/v1/quizzes/:id/questions
func (h *QuizHandler) CreateQuestion(c *fiber.Ctx) error {
	quizID, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return response.BadRequest(c, "Invalid quiz ID")
	}

	var req CreateQuestionRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	var quiz model.Quiz
	if err := h.db.First(&quiz, uint(quizID)).Error; err != nil {
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
		return response.Forbidden(c, "Only teachers can manage questions")
	}

	questionType := model.QuestionMultipleChoice
	if req.Type != "" {
		questionType = model.QuestionType(req.Type)
	}
	if questionType.AutoGradable() && !hasCorrectChoice(req.Choices) {
		return response.BadRequest(c, "Auto-graded questions need at least one correct choice")
	}

	question := model.Question{
		QuizID:   quiz.ID,
		Text:     req.Text,
		Type:     questionType,
		Points:   1,
		Position: req.Position,
	}
	if req.Points != nil {
		question.Points = *req.Points
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&question).Error; err != nil {
			return err
		}
		return createChoices(tx, question.ID, req.Choices)
	})
	if err != nil {
		return response.InternalServerError(c, "Failed to create question")
	}

	h.db.Preload("Choices").First(&question, question.ID)

	return response.Created(c, question)
}

// UpdateQuestion handles PUT /api/v1/questions/:id
func (h *QuizHandler) UpdateQuestion(c *fiber.Ctx) error {
	var req UpdateQuestionRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	var question model.Question
	if err := h.db.Preload("Quiz").First(&question, c.Params("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Question not found")
		}
		return response.InternalServerError(c, "Failed to fetch question")
	}

	courseID, err := h.courseOfQuiz(&question.Quiz)
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch assignment")
	}
	allowed, err := h.canManage(c, courseID)
	if err != nil {
		return response.InternalServerError(c, "Failed to check permissions")
	}
	if !allowed {
		return response.Forbidden(c, "Only teachers can manage questions")
	}

	if req.Text != "" {
		question.Text = req.Text
	}
	if req.Points != nil {
		question.Points = *req.Points
	}
	if req.Position != nil {
		question.Position = *req.Position
	}
	if req.Choices != nil && question.Type.AutoGradable() && !hasCorrectChoice(req.Choices) {
		return response.BadRequest(c, "Auto-graded questions need at least one correct choice")
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&question).Error; err != nil {
			return err
		}
		if req.Choices != nil {
			if err := tx.Where("question_id = ?", question.ID).Delete(&model.Choice{}).Error; err != nil {
				return err
			}
			return createChoices(tx, question.ID, req.Choices)
		}
		return nil
	})
	if err != nil {
		return response.InternalServerError(c, "Failed to update question")
	}

	h.db.Preload("Choices").First(&question, question.ID)
	question.Quiz = model.Quiz{}

	return response.SuccessWithMessage(c, "Question updated successfully", question)
}

// DeleteQuestion handles DELETE /api/v1/questions/:id
func (h *QuizHandler) DeleteQuestion(c *fiber.Ctx) error {
	var question model.Question
	if err := h.db.Preload("Quiz").First(&question, c.Params("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Question not found")
		}
		return response.InternalServerError(c, "Failed to fetch question")
	}

	courseID, err := h.courseOfQuiz(&question.Quiz)
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch assignment")
	}
	allowed, err := h.canManage(c, courseID)
	if err != nil {
		return response.InternalServerError(c, "Failed to check permissions")
	}
	if !allowed {
		return response.Forbidden(c, "Only teachers can manage questions")
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("question_id = ?", question.ID).Delete(&model.Choice{}).Error; err != nil {
			return err
		}
		if err := tx.Where("question_id = ?", question.ID).Delete(&model.StudentAnswer{}).Error; err != nil {
			return err
		}
		return tx.Delete(&question).Error
	})
	if err != nil {
		return response.InternalServerError(c, "Failed to delete question")
	}

	return response.SuccessWithMessage(c, "Question deleted successfully", nil)
}

func hasCorrectChoice(choices []ChoiceInput) bool {
	for _, choice := range choices {
		if choice.IsCorrect {
			return true
		}
	}
	return false
}

func createChoices(tx *gorm.DB, questionID uint, inputs []ChoiceInput) error {
	for _, input := range inputs {
		choice := model.Choice{
			QuestionID: questionID,
			Text:       validation.SanitizeString(input.Text),
			IsCorrect:  input.IsCorrect,
		}
		if err := tx.Create(&choice).Error; err != nil {
			return err
		}
	}
	return nil
}
