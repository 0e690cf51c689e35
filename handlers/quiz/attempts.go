package quiz

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/canvaslite/backend/model"
	"github.com/canvaslite/backend/services"
	"github.com/canvaslite/backend/utils/middleware"
	"github.com/canvaslite/backend/utils/response"
)

// StudentChoice is a choice as shown to a quiz taker, with the answer key
// stripped
type StudentChoice struct {
	ID   uint   `json:"id"`
	Text string `json:"text"`
}

// StudentQuestion is a question as shown to a quiz taker
type StudentQuestion struct {
	ID       uint               `json:"id"`
	Text     string             `json:"text"`
	Type     model.QuestionType `json:"type"`
	Points   float64            `json:"points"`
	Position int                `json:"position"`
	Choices  []StudentChoice    `json:"choices"`
}

func studentQuestions(questions []model.Question) []StudentQuestion {
	out := make([]StudentQuestion, 0, len(questions))
	for _, q := range questions {
		sq := StudentQuestion{
			ID:       q.ID,
			Text:     q.Text,
			Type:     q.Type,
			Points:   q.Points,
			Position: q.Position,
			Choices:  make([]StudentChoice, 0, len(q.Choices)),
		}
		for _, choice := range q.Choices {
			sq.Choices = append(sq.Choices, StudentChoice{ID: choice.ID, Text: choice.Text})
		}
		out = append(out, sq)
	}
	return out
}

// AnswerRequest represents the request body for answering one question
type AnswerRequest struct {
	QuestionID       uint    `json:"question_id" validate:"required,min=1"`
	SelectedChoiceID *uint   `json:"selected_choice_id"`
	TextResponse     *string `json:"text_response"`
}

// TakeQuiz handles GET /api/v1/quizzes/:id/take
// Returns the questions without the answer key, shuffled per the quiz
// settings.
func (h *QuizHandler) TakeQuiz(c *fiber.Ctx) error {
	quizID, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return response.BadRequest(c, "Invalid quiz ID")
	}

	var quiz model.Quiz
	if err := h.db.First(&quiz, uint(quizID)).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Quiz not found")
		}
		return response.InternalServerError(c, "Failed to fetch quiz")
	}

	questions, err := h.quizzes.QuestionsForQuiz(c.Context(), quiz.ID)
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch questions")
	}

	return response.Success(c, fiber.Map{
		"quiz":      quiz,
		"questions": studentQuestions(questions),
	})
}

// BeginAttempt handles POST /api/v1/quizzes/:id/attempts
func (h *QuizHandler) BeginAttempt(c *fiber.Ctx) error {
	quizID, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return response.BadRequest(c, "Invalid quiz ID")
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	attempt, err := h.quizzes.BeginAttempt(c.Context(), uint(quizID), userID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotFound):
			return response.NotFound(c, "Quiz not found")
		case errors.Is(err, services.ErrAttemptLimit):
			return response.Conflict(c, "No attempts remaining for this quiz")
		}
		return response.InternalServerError(c, "Failed to start attempt")
	}

	return response.Created(c, attempt)
}

// GetAttempt handles GET /api/v1/quiz-attempts/:id
func (h *QuizHandler) GetAttempt(c *fiber.Ctx) error {
	attemptID, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return response.BadRequest(c, "Invalid attempt ID")
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	attempt, err := h.quizzes.GetAttempt(c.Context(), uint(attemptID), userID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return response.NotFound(c, "Attempt not found")
		}
		return response.InternalServerError(c, "Failed to fetch attempt")
	}

	return response.Success(c, attempt)
}

// AnswerQuestion handles POST /api/v1/quiz-attempts/:id/answers
// Re-answering a question within an open attempt replaces the earlier
// answer.
func (h *QuizHandler) AnswerQuestion(c *fiber.Ctx) error {
	attemptID, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return response.BadRequest(c, "Invalid attempt ID")
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	var req AnswerRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	answer, err := h.quizzes.AnswerQuestion(c.Context(), uint(attemptID), userID, services.AnswerInput{
		QuestionID:       req.QuestionID,
		SelectedChoiceID: req.SelectedChoiceID,
		TextResponse:     req.TextResponse,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotFound):
			return response.NotFound(c, "Attempt or question not found")
		case errors.Is(err, services.ErrInvalidInput):
			return response.BadRequest(c, "Selected choice does not belong to the question")
		}
		return response.InternalServerError(c, "Failed to record answer")
	}

	return response.Success(c, answer)
}

// FinishAttempt handles POST /api/v1/quiz-attempts/:id/finish
// Closes the attempt and auto-scores the choice questions; essay and
// short-answer questions wait for manual grading.
func (h *QuizHandler) FinishAttempt(c *fiber.Ctx) error {
	attemptID, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return response.BadRequest(c, "Invalid attempt ID")
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	submission, err := h.quizzes.FinishAttempt(c.Context(), uint(attemptID), userID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return response.NotFound(c, "Attempt not found")
		}
		return response.InternalServerError(c, "Failed to finish attempt")
	}

	return response.SuccessWithMessage(c, "Quiz submitted", submission)
}
