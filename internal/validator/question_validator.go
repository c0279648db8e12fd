package validator

import (
	"fmt"

	"github.com/SAP-F-2025/fill-blank-service/internal/errors"
	"github.com/SAP-F-2025/fill-blank-service/internal/fillblank"
	"github.com/SAP-F-2025/fill-blank-service/internal/models"
)

// QuestionValidator runs fill-blank authoring rules against stored questions
type QuestionValidator struct {
	// RequireContiguous adds a warning when blank ids are not 1..n
	RequireContiguous bool
}

// NewQuestionValidator creates a new question validator
func NewQuestionValidator() *QuestionValidator {
	return &QuestionValidator{}
}

// Report validates the question with its correct answers or options loaded.
func (v *QuestionValidator) Report(q *models.Question) fillblank.Report {
	tmpl := q.Template()
	opts := fillblank.ValidateOptions{
		RequireBlanks:      true,
		DeclaredBlankCount: q.DeclaredBlankCount(),
		RequireContiguous:  v.RequireContiguous,
	}

	switch q.Type {
	case models.FillBlankDropdown:
		return fillblank.ValidateDropdown(tmpl, q.DropdownSettings().Blanks, q.EngineOptions(), opts)
	default:
		return fillblank.ValidateText(tmpl, q.TextSettings().Blanks, q.EngineAnswers(), opts)
	}
}

// ValidateForPublish returns the blocking issues of the question as
// ValidationErrors, nil when the question may be published.
func (v *QuestionValidator) ValidateForPublish(q *models.Question) error {
	if errs := errors.FromReport(v.Report(q)); len(errs) > 0 {
		return errs
	}
	return nil
}

// ValidateText checks raw question text before it is stored. A fill-blank
// question must contain at least one blank.
func (v *QuestionValidator) ValidateText(text string) error {
	report := fillblank.ValidateText(fillblank.Parse(text), nil, nil, fillblank.ValidateOptions{RequireBlanks: true})

	var errs errors.ValidationErrors
	for _, issue := range report.Errors() {
		// configs are rebuilt from the text, so only text issues matter here
		if issue.Code == fillblank.CodeEmptyText || issue.Code == fillblank.CodeNoBlanks {
			errs = append(errs, errors.ValidationError{Field: "text", Message: issue.Message, Rule: issue.Code})
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ValidateBlankRefs rejects child records pointing at blanks the template does
// not contain.
func (v *QuestionValidator) ValidateBlankRefs(tmpl fillblank.Template, field string, refs []int) error {
	var errs errors.ValidationErrors
	for _, id := range fillblank.OrphanedBlankIDs(tmpl, refs) {
		errs = append(errs, *errors.NewBlankError(field, id,
			fmt.Sprintf("blank %d does not exist in the question text", id), "unknown_blank"))
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ValidateOptionIDs rejects an option list naming the same stored option twice.
// Zero ids mark new options and may repeat.
func (v *QuestionValidator) ValidateOptionIDs(ids []uint) error {
	var errs errors.ValidationErrors
	seen := make(map[uint]bool, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if seen[id] {
			errs = append(errs, errors.ValidationError{
				Field:   "answer_options",
				Message: fmt.Sprintf("option %d is listed more than once", id),
				Value:   id,
				Rule:    "duplicate_option_id",
			})
			continue
		}
		seen[id] = true
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}
