package validator

import (
	"math"
	"strings"
	"testing"
)

func TestValidateGradePoints(t *testing.T) {
	v := New()

	tests := []struct {
		name          string
		points        []float64
		questionCount int
		wantErr       bool
		wantRule      string
	}{
		{name: "exact 100", points: []float64{60, 40}, questionCount: 2},
		{name: "partial scale allowed", points: []float64{40, 50}, questionCount: 2},
		{name: "zero total allowed", points: []float64{0, 0}, questionCount: 2},
		{name: "wrong length", points: []float64{100}, questionCount: 2, wantErr: true, wantRule: "length"},
		{name: "negative entry", points: []float64{-5, 50}, questionCount: 2, wantErr: true, wantRule: "non_negative"},
		{name: "nan entry", points: []float64{math.NaN(), 50}, questionCount: 2, wantErr: true, wantRule: "finite"},
		{name: "infinite entry", points: []float64{math.Inf(1), 0}, questionCount: 2, wantErr: true, wantRule: "finite"},
		{name: "total above 100", points: []float64{60, 50}, questionCount: 2, wantErr: true, wantRule: "total_range"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateGradePoints(tt.points, tt.questionCount)
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("ValidateGradePoints() error = %v, want nil", err)
				}
				return
			}
			errs, ok := err.(ValidationErrors)
			if !ok || len(errs) == 0 {
				t.Fatalf("expected ValidationErrors, got %v", err)
			}
			if errs[0].Rule != tt.wantRule {
				t.Errorf("rule = %s, want %s", errs[0].Rule, tt.wantRule)
			}
		})
	}
}

func TestGradeSumWarning(t *testing.T) {
	if warning := GradeSumWarning([]float64{60, 40}); warning != "" {
		t.Errorf("no warning expected for an exact 100, got %q", warning)
	}

	warning := GradeSumWarning([]float64{40, 50})
	if !strings.Contains(warning, "do not equal 100") {
		t.Errorf("warning should mention the 100 mismatch, got %q", warning)
	}
}

func TestValidatorStructTags(t *testing.T) {
	v := New()

	type payload struct {
		Limit  int       `validate:"required,quiz_time_limit"`
		Points []float64 `validate:"omitempty,dive,grade_range"`
	}

	if err := v.Validate(payload{Limit: 60, Points: []float64{0, 55.5, 100}}); err != nil {
		t.Fatalf("valid payload rejected: %v", err)
	}
	if err := v.Validate(payload{Limit: 500}); err == nil {
		t.Fatal("out-of-range time limit accepted")
	}
	if err := v.Validate(payload{Limit: 60, Points: []float64{150}}); err == nil {
		t.Fatal("point above 100 accepted")
	}
	if err := v.Validate(payload{Limit: 60, Points: []float64{-1}}); err == nil {
		t.Fatal("negative point accepted")
	}
}
