package validator

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator wraps go-playground validation with the business rules of the
// quiz domain.
type Validator struct {
	validate *validator.Validate
}

// ValidationError represents one failed field rule.
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
	Rule    string      `json:"rule,omitempty"`
}

type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "validation failed"
	}
	if len(ve) == 1 {
		return fmt.Sprintf("validation failed: %s %s", ve[0].Field, ve[0].Message)
	}
	return fmt.Sprintf("validation failed: %d field errors", len(ve))
}

// New creates a validator with all business rules registered.
func New() *Validator {
	validate := validator.New()

	v := &Validator{validate: validate}
	v.registerBusinessRules()

	return v
}

// Validate validates a struct's tags; returns ValidationErrors or nil.
func (v *Validator) Validate(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var errs ValidationErrors
	for _, fieldErr := range err.(validator.ValidationErrors) {
		errs = append(errs, ValidationError{
			Field:   fieldErr.Field(),
			Message: v.errorMessage(fieldErr),
			Value:   fieldErr.Value(),
			Rule:    fieldErr.Tag(),
		})
	}
	return errs
}

func (v *Validator) registerBusinessRules() {
	// Quiz time limits are whole minutes, 1 to 480.
	v.validate.RegisterValidation("quiz_time_limit", func(fl validator.FieldLevel) bool {
		limit := fl.Field().Int()
		return limit >= 1 && limit <= 480
	})

	// Grades live on a 0-100 scale.
	v.validate.RegisterValidation("grade_range", func(fl validator.FieldLevel) bool {
		grade := fl.Field().Float()
		return grade >= 0 && grade <= 100
	})

	// Answer question indexes are non-negative.
	v.validate.RegisterValidation("question_index", func(fl validator.FieldLevel) bool {
		return fl.Field().Int() >= 0
	})
}

func (v *Validator) errorMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", err.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", err.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", strings.ReplaceAll(err.Param(), " ", ", "))
	case "quiz_time_limit":
		return "must be between 1 and 480 minutes"
	case "grade_range":
		return "must be between 0 and 100"
	case "question_index":
		return "must be a non-negative question index"
	default:
		return fmt.Sprintf("failed %s validation", err.Tag())
	}
}
