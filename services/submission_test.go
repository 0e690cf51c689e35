package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/canvaslite/backend/model"
)

func TestRenderGrade(t *testing.T) {
	tests := []struct {
		name           string
		gradingType    model.GradingType
		score          float64
		pointsPossible float64
		want           string
	}{
		{"pass_fail with points is complete", model.GradingPassFail, 7, 10, "complete"},
		{"pass_fail with zero is incomplete", model.GradingPassFail, 0, 10, "incomplete"},
		{"percent", model.GradingPercent, 8, 10, "80%"},
		{"percent with zero possible", model.GradingPercent, 8, 0, "0%"},
		{"letter A at 90", model.GradingLetterGrade, 9, 10, "A"},
		{"letter B at 80", model.GradingLetterGrade, 8, 10, "B"},
		{"letter C at 70", model.GradingLetterGrade, 7, 10, "C"},
		{"letter D at 60", model.GradingLetterGrade, 6, 10, "D"},
		{"letter F below 60", model.GradingLetterGrade, 5.9, 10, "F"},
		{"letter with zero possible", model.GradingLetterGrade, 5, 0, "F"},
		{"points drops trailing zeros", model.GradingPoints, 10, 10, "10"},
		{"fractional points keep the fraction", model.GradingPoints, 9.5, 10, "9.5"},
		{"zero points", model.GradingPoints, 0, 10, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RenderGrade(tt.gradingType, tt.score, tt.pointsPossible)
			if got != tt.want {
				t.Errorf("RenderGrade(%s, %v, %v) = %q, want %q",
					tt.gradingType, tt.score, tt.pointsPossible, got, tt.want)
			}
		})
	}
}

// A lost insert race surfaces as SQLSTATE 23505; the services translate
// that into their idempotent outcomes (retry the attempt number, report
// "already enrolled") instead of failing.
func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"postgres duplicate key", &pq.Error{Code: "23505"}, true},
		{"wrapped postgres duplicate key", fmt.Errorf("create enrollment: %w", &pq.Error{Code: "23505"}), true},
		{"gorm duplicated key sentinel", gorm.ErrDuplicatedKey, true},
		{"other postgres error", &pq.Error{Code: "23503"}, false},
		{"unrelated error", errors.New("connection reset"), false},
		{"nil error", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isUniqueViolation(tt.err); got != tt.want {
				t.Errorf("isUniqueViolation(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
