package services

import (
	"testing"

	"github.com/canvaslite/backend/model"
)

func choicePtr(id uint) *uint { return &id }

func TestScoreAttempt(t *testing.T) {
	questions := []model.Question{
		{
			ID: 1, Type: model.QuestionMultipleChoice, Points: 4,
			Choices: []model.Choice{
				{ID: 11, IsCorrect: false},
				{ID: 12, IsCorrect: true},
			},
		},
		{
			ID: 2, Type: model.QuestionTrueFalse, Points: 2,
			Choices: []model.Choice{
				{ID: 21, IsCorrect: true},
				{ID: 22, IsCorrect: false},
			},
		},
		{
			ID: 3, Type: model.QuestionEssay, Points: 10,
		},
	}

	tests := []struct {
		name    string
		answers []model.StudentAnswer
		want    float64
	}{
		{
			name:    "no answers scores zero",
			answers: nil,
			want:    0,
		},
		{
			name: "all correct choices",
			answers: []model.StudentAnswer{
				{QuestionID: 1, SelectedChoiceID: choicePtr(12)},
				{QuestionID: 2, SelectedChoiceID: choicePtr(21)},
			},
			want: 6,
		},
		{
			name: "wrong choice earns nothing",
			answers: []model.StudentAnswer{
				{QuestionID: 1, SelectedChoiceID: choicePtr(11)},
				{QuestionID: 2, SelectedChoiceID: choicePtr(21)},
			},
			want: 2,
		},
		{
			name: "essay answers are not auto-scored",
			answers: []model.StudentAnswer{
				{QuestionID: 1, SelectedChoiceID: choicePtr(12)},
				{QuestionID: 3, TextResponse: strPtr("The revolution began in 1775.")},
			},
			want: 4,
		},
		{
			name: "answer without a selection is skipped",
			answers: []model.StudentAnswer{
				{QuestionID: 1},
				{QuestionID: 2, SelectedChoiceID: choicePtr(21)},
			},
			want: 2,
		},
		{
			name: "choice from another question earns nothing",
			answers: []model.StudentAnswer{
				{QuestionID: 1, SelectedChoiceID: choicePtr(21)},
			},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ScoreAttempt(questions, tt.answers); got != tt.want {
				t.Errorf("ScoreAttempt() = %v, want %v", got, tt.want)
			}
		})
	}
}

func strPtr(s string) *string { return &s }
