package validator

import (
	"fmt"
	"math"
)

// ValidateGradePoints checks a per-question point vector against the
// quiz's question count. The vector must align by index, every entry must
// be a finite non-negative number, and the total must stay within the
// 0-100 scale. A total below 100 is allowed here; GradeSumWarning covers
// that case.
func (v *Validator) ValidateGradePoints(points []float64, questionCount int) error {
	var errs ValidationErrors

	if len(points) != questionCount {
		errs = append(errs, ValidationError{
			Field:   "points",
			Message: fmt.Sprintf("must contain exactly %d entries, one per question, got %d", questionCount, len(points)),
			Value:   len(points),
			Rule:    "length",
		})
		return errs
	}

	total := 0.0
	for i, p := range points {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("points[%d]", i),
				Message: "must be a finite number",
				Rule:    "finite",
			})
			continue
		}
		if p < 0 {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("points[%d]", i),
				Message: "must be non-negative",
				Value:   p,
				Rule:    "non_negative",
			})
			continue
		}
		total += p
	}
	if len(errs) > 0 {
		return errs
	}

	if total > 100 {
		errs = append(errs, ValidationError{
			Field:   "points",
			Message: fmt.Sprintf("total %.2f exceeds the maximum of 100", total),
			Value:   total,
			Rule:    "total_range",
		})
		return errs
	}

	return nil
}

// GradePointsTotal sums a point vector. Callers validate first.
func GradePointsTotal(points []float64) float64 {
	total := 0.0
	for _, p := range points {
		total += p
	}
	return total
}

// GradeSumWarning returns a non-blocking advisory when the assigned
// points do not add up to 100, or "" when they do. Teachers may grade on
// a partial scale on purpose, so this never blocks the grade.
func GradeSumWarning(points []float64) string {
	total := GradePointsTotal(points)
	if total == 100 {
		return ""
	}
	return fmt.Sprintf("assigned points sum to %g and do not equal 100; the grade was applied as entered", total)
}
