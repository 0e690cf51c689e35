package model

import (
	"time"

	"gorm.io/gorm"
)

// QuizType represents how a quiz counts toward the gradebook
type QuizType string

const (
	QuizGraded         QuizType = "graded_quiz"
	QuizPractice       QuizType = "practice_quiz"
	QuizGradedSurvey   QuizType = "graded_survey"
	QuizUngradedSurvey QuizType = "ungraded_survey"
)

// Valid reports whether q is a known quiz type.
func (q QuizType) Valid() bool {
	switch q {
	case QuizGraded, QuizPractice, QuizGradedSurvey, QuizUngradedSurvey:
		return true
	}
	return false
}

// Quiz decorates exactly one assignment with quiz behavior
type Quiz struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
	AssignmentID     uint           `gorm:"uniqueIndex;not null" json:"assignment_id"`
	QuizType         QuizType       `gorm:"type:varchar(20);not null;default:'graded_quiz'" json:"quiz_type"`
	TimeLimitMinutes *int           `json:"time_limit_minutes,omitempty"`
	AllowedAttempts  int            `gorm:"not null;default:-1" json:"allowed_attempts"` // -1 means unlimited
	ShuffleAnswers   bool           `gorm:"default:false" json:"shuffle_answers"`

	// Relationships
	Assignment Assignment `gorm:"foreignKey:AssignmentID;constraint:OnDelete:CASCADE" json:"assignment,omitempty"`
	Questions  []Question `gorm:"foreignKey:QuizID;constraint:OnDelete:CASCADE" json:"questions,omitempty"`
}

// TableName specifies the table name for Quiz
func (Quiz) TableName() string {
	return "quizzes"
}

// QuestionType represents the kind of answer a question accepts
type QuestionType string

const (
	QuestionMultipleChoice QuestionType = "multiple_choice"
	QuestionTrueFalse      QuestionType = "true_false"
	QuestionShortAnswer    QuestionType = "short_answer"
	QuestionEssay          QuestionType = "essay"
)

// Valid reports whether t is a known question type.
func (t QuestionType) Valid() bool {
	switch t {
	case QuestionMultipleChoice, QuestionTrueFalse, QuestionShortAnswer, QuestionEssay:
		return true
	}
	return false
}

// AutoGradable reports whether answers of this type can be scored without
// a human reading them.
func (t QuestionType) AutoGradable() bool {
	return t == QuestionMultipleChoice || t == QuestionTrueFalse
}

// Question represents one prompt within a quiz, ordered by Position then ID
type Question struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	QuizID    uint           `gorm:"not null;index" json:"quiz_id"`
	Text      string         `gorm:"type:text;not null" json:"text"`
	Type      QuestionType   `gorm:"type:varchar(20);not null;default:'multiple_choice'" json:"type"`
	Points    float64        `gorm:"type:numeric(7,2);default:1" json:"points"`
	Position  int            `gorm:"not null;default:0" json:"position"`

	// Relationships
	Quiz    Quiz     `gorm:"foreignKey:QuizID;constraint:OnDelete:CASCADE" json:"-"`
	Choices []Choice `gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE" json:"choices,omitempty"`
}

// Choice represents one selectable answer for a question
type Choice struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
	QuestionID uint           `gorm:"not null;index" json:"question_id"`
	Text       string         `gorm:"type:text;not null" json:"text"`
	IsCorrect  bool           `gorm:"default:false" json:"is_correct"`

	// Relationships
	Question Question `gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE" json:"-"`
}

// QuizAttempt records the timing window of one quiz submission
type QuizAttempt struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	SubmissionID uint       `gorm:"uniqueIndex;not null" json:"submission_id"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`

	// Relationships
	Submission Submission      `gorm:"foreignKey:SubmissionID;constraint:OnDelete:CASCADE" json:"-"`
	Answers    []StudentAnswer `gorm:"foreignKey:AttemptID;constraint:OnDelete:CASCADE" json:"answers,omitempty"`
}

// StudentAnswer records what a student answered for one question in one
// attempt. Choice answers keep SelectedChoiceID; free-text answers keep
// TextResponse. Deleting a choice nulls the reference instead of losing
// the answer row.
type StudentAnswer struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
	AttemptID        uint      `gorm:"not null;uniqueIndex:uniq_answer_per_question" json:"attempt_id"`
	QuestionID       uint      `gorm:"not null;uniqueIndex:uniq_answer_per_question" json:"question_id"`
	SelectedChoiceID *uint     `json:"selected_choice_id,omitempty"`
	TextResponse     *string   `gorm:"type:text" json:"text_response,omitempty"`

	// Relationships
	Attempt        QuizAttempt `gorm:"foreignKey:AttemptID;constraint:OnDelete:CASCADE" json:"-"`
	Question       Question    `gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE" json:"question,omitempty"`
	SelectedChoice *Choice     `gorm:"foreignKey:SelectedChoiceID;constraint:OnDelete:SET NULL" json:"selected_choice,omitempty"`
}
