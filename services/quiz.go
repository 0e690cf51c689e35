package services

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"gorm.io/gorm"

	"github.com/canvaslite/backend/model"
)

// QuizService runs the student-facing quiz flow: begin an attempt, record
// answers, finish and auto-score
type QuizService struct {
	db *gorm.DB
}

// NewQuizService creates a new quiz service
func NewQuizService(db *gorm.DB) *QuizService {
	return &QuizService{db: db}
}

// QuestionsForQuiz returns the quiz's questions with their choices in
// presentation order. When the quiz shuffles answers, each question's
// choices are reshuffled per call; question order itself is stable.
func (s *QuizService) QuestionsForQuiz(ctx context.Context, quizID uint) ([]model.Question, error) {
	var quiz model.Quiz
	if err := s.db.WithContext(ctx).First(&quiz, quizID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var questions []model.Question
	err := s.db.WithContext(ctx).
		Where("quiz_id = ?", quizID).
		Order("position ASC, id ASC").
		Preload("Choices", func(db *gorm.DB) *gorm.DB {
			return db.Order("choices.id ASC")
		}).
		Find(&questions).Error
	if err != nil {
		return nil, err
	}

	if quiz.ShuffleAnswers {
		for i := range questions {
			shuffleChoices(questions[i].Choices)
		}
	}
	return questions, nil
}

func shuffleChoices(choices []model.Choice) {
	rand.Shuffle(len(choices), func(i, j int) {
		choices[i], choices[j] = choices[j], choices[i]
	})
}

// BeginAttempt opens a new quiz attempt for the user. It creates the
// backing Submission plus the 1:1 QuizAttempt in one transaction. The
// attempt number is max(existing)+1 so it stays unique next to attempts
// created by direct assignment submits; if a concurrent begin takes the
// same number, the unique index rejects it and we retry once. A quiz with
// a positive allowed_attempts limit stops admitting once the user has
// that many submissions; -1 is unlimited.
func (s *QuizService) BeginAttempt(ctx context.Context, quizID, userID uint) (*model.QuizAttempt, error) {
	attempt, err := s.beginAttempt(ctx, quizID, userID)
	if isUniqueViolation(err) {
		attempt, err = s.beginAttempt(ctx, quizID, userID)
	}
	if err != nil {
		return nil, err
	}
	return attempt, nil
}

func (s *QuizService) beginAttempt(ctx context.Context, quizID, userID uint) (*model.QuizAttempt, error) {
	var attempt model.QuizAttempt

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var quiz model.Quiz
		if err := tx.First(&quiz, quizID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		var taken int64
		if err := tx.Model(&model.Submission{}).
			Where("assignment_id = ? AND user_id = ?", quiz.AssignmentID, userID).
			Count(&taken).Error; err != nil {
			return err
		}
		if quiz.AllowedAttempts >= 0 && taken >= int64(quiz.AllowedAttempts) {
			return ErrAttemptLimit
		}

		var last model.Submission
		nextAttempt := 1
		err := tx.Where("assignment_id = ? AND user_id = ?", quiz.AssignmentID, userID).
			Order("attempt DESC").
			First(&last).Error
		if err == nil {
			nextAttempt = last.Attempt + 1
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		now := time.Now()
		submission := model.Submission{
			AssignmentID:  quiz.AssignmentID,
			UserID:        userID,
			Attempt:       nextAttempt,
			WorkflowState: model.SubmissionUnsubmitted,
		}
		if err := tx.Create(&submission).Error; err != nil {
			return err
		}

		attempt = model.QuizAttempt{
			SubmissionID: submission.ID,
			StartedAt:    &now,
		}
		if err := tx.Create(&attempt).Error; err != nil {
			return err
		}
		attempt.Submission = submission
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &attempt, nil
}

// AnswerInput carries one answer to one question
type AnswerInput struct {
	QuestionID       uint
	SelectedChoiceID *uint
	TextResponse     *string
}

// AnswerQuestion records (or replaces) the user's answer to a question
// within an open attempt. Answering after the attempt finished is
// rejected, and the question and any selected choice must belong to the
// attempt's quiz.
func (s *QuizService) AnswerQuestion(ctx context.Context, attemptID, userID uint, input AnswerInput) (*model.StudentAnswer, error) {
	var answer model.StudentAnswer

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		attempt, quiz, err := s.openAttempt(tx, attemptID, userID)
		if err != nil {
			return err
		}

		var question model.Question
		if err := tx.Where("quiz_id = ?", quiz.ID).First(&question, input.QuestionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		if input.SelectedChoiceID != nil {
			var choice model.Choice
			if err := tx.Where("question_id = ?", question.ID).First(&choice, *input.SelectedChoiceID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrInvalidInput
				}
				return err
			}
		}

		err = tx.Where("attempt_id = ? AND question_id = ?", attempt.ID, question.ID).First(&answer).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			answer = model.StudentAnswer{
				AttemptID:  attempt.ID,
				QuestionID: question.ID,
			}
		} else if err != nil {
			return err
		}

		answer.SelectedChoiceID = input.SelectedChoiceID
		answer.TextResponse = input.TextResponse
		return tx.Save(&answer).Error
	})
	if err != nil {
		return nil, err
	}

	return &answer, nil
}

// FinishAttempt closes an open attempt, auto-scores what can be scored
// and marks the backing submission as submitted.
//
// Multiple-choice and true/false questions are graded by correct-choice
// match; essays and short answers stay for the teacher, so the stored
// score is a floor until manual grading tops it up.
func (s *QuizService) FinishAttempt(ctx context.Context, attemptID, userID uint) (*model.Submission, error) {
	var submission model.Submission

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		attempt, quiz, err := s.openAttempt(tx, attemptID, userID)
		if err != nil {
			return err
		}

		var questions []model.Question
		if err := tx.Where("quiz_id = ?", quiz.ID).
			Preload("Choices").
			Find(&questions).Error; err != nil {
			return err
		}

		var answers []model.StudentAnswer
		if err := tx.Where("attempt_id = ?", attempt.ID).Find(&answers).Error; err != nil {
			return err
		}

		score := ScoreAttempt(questions, answers)
		now := time.Now()

		attempt.FinishedAt = &now
		if err := tx.Save(attempt).Error; err != nil {
			return err
		}

		if err := tx.First(&submission, attempt.SubmissionID).Error; err != nil {
			return err
		}
		submission.Score = &score
		submission.SubmittedAt = &now
		submission.WorkflowState = model.SubmissionSubmitted
		return tx.Save(&submission).Error
	})
	if err != nil {
		return nil, err
	}

	return &submission, nil
}

// GetAttempt returns an attempt with its answers, scoped to the owning
// user
func (s *QuizService) GetAttempt(ctx context.Context, attemptID, userID uint) (*model.QuizAttempt, error) {
	var attempt model.QuizAttempt
	err := s.db.WithContext(ctx).
		Joins("JOIN submissions ON submissions.id = quiz_attempts.submission_id").
		Where("quiz_attempts.id = ? AND submissions.user_id = ?", attemptID, userID).
		Preload("Answers").
		Preload("Submission").
		First(&attempt).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}

// openAttempt loads an unfinished attempt owned by userID together with
// its quiz
func (s *QuizService) openAttempt(tx *gorm.DB, attemptID, userID uint) (*model.QuizAttempt, *model.Quiz, error) {
	var attempt model.QuizAttempt
	err := tx.Joins("JOIN submissions ON submissions.id = quiz_attempts.submission_id").
		Where("quiz_attempts.id = ? AND submissions.user_id = ?", attemptID, userID).
		First(&attempt).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, err
	}
	if attempt.FinishedAt != nil {
		return nil, nil, ErrInvalidInput
	}

	var submission model.Submission
	if err := tx.First(&submission, attempt.SubmissionID).Error; err != nil {
		return nil, nil, err
	}

	var quiz model.Quiz
	err = tx.Where("assignment_id = ?", submission.AssignmentID).First(&quiz).Error
	if err != nil {
		return nil, nil, err
	}
	return &attempt, &quiz, nil
}

// ScoreAttempt sums the points earned across auto-gradable questions: a
// question scores its full points when the selected choice is the correct
// one, zero otherwise. Questions a machine cannot grade contribute
// nothing here.
func ScoreAttempt(questions []model.Question, answers []model.StudentAnswer) float64 {
	answerFor := make(map[uint]*model.StudentAnswer, len(answers))
	for i := range answers {
		answerFor[answers[i].QuestionID] = &answers[i]
	}

	var score float64
	for i := range questions {
		q := &questions[i]
		if !q.Type.AutoGradable() {
			continue
		}
		answer := answerFor[q.ID]
		if answer == nil || answer.SelectedChoiceID == nil {
			continue
		}
		for j := range q.Choices {
			if q.Choices[j].ID == *answer.SelectedChoiceID && q.Choices[j].IsCorrect {
				score += q.Points
				break
			}
		}
	}
	return score
}
