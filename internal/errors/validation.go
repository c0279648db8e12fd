package errors

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/SAP-F-2025/fill-blank-service/internal/fillblank"
)

// ValidationError represents a single validation error
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
	Rule    string      `json:"rule,omitempty"`
	BlankID *int        `json:"blank_id,omitempty"`
}

// ValidationErrors is a collection of validation errors
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

func (pe *ValidationError) Error() string {
	if pe.BlankID != nil {
		return fmt.Sprintf("validation error on field '%s' (blank %d): %s", pe.Field, *pe.BlankID, pe.Message)
	}
	return fmt.Sprintf("validation error on field '%s': %s", pe.Field, pe.Message)
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Value:   value,
	}
}

// NewBlankError creates a validation error scoped to one blank
func NewBlankError(field string, blankID int, message, rule string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Rule:    rule,
		BlankID: &blankID,
	}
}

// FromReport converts the blocking issues of a fill-blank report. Warnings are
// not errors and are dropped. Returns nil when the report is ready.
func FromReport(report fillblank.Report) ValidationErrors {
	var out ValidationErrors
	for _, issue := range report.Errors() {
		out = append(out, ValidationError{
			Field:   issue.Field,
			Message: issue.Message,
			Rule:    issue.Code,
			BlankID: issue.BlankID,
		})
	}
	return out
}

// ToValidationErrors converts validator.ValidationErrors to our custom type
func ToValidationErrors(err error) ValidationErrors {
	var out ValidationErrors

	var validatorErr validator.ValidationErrors
	if errors.As(err, &validatorErr) {
		for _, fe := range validatorErr {
			out = append(out, ValidationError{
				Field:   fe.Field(),
				Message: getErrorMessage(fe),
				Value:   fe.Value(),
				Rule:    fe.Tag(),
			})
		}
	}

	return out
}

// getErrorMessage returns user-friendly error messages
func getErrorMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", err.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", err.Param())
	case "len":
		return fmt.Sprintf("must be exactly %s characters", err.Param())
	case "numeric":
		return "must be a number"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", err.Param())

	// Custom validators
	case "fill_blank_type":
		return "must be a valid question type (fill_blank_text, fill_blank_dropdown)"
	case "blank_id":
		return "must be a non-negative blank number"
	case "question_status":
		return "must be a valid question status (draft, ready)"

	default:
		return fmt.Sprintf("validation failed for rule '%s'", err.Tag())
	}
}
