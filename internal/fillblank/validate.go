package fillblank

import (
	"fmt"
	"strings"
)

type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue codes, stable for API clients.
const (
	CodeEmptyText          = "empty_text"
	CodeNoBlanks           = "no_blanks"
	CodeBlankCountMismatch = "blank_count_mismatch"
	CodeConfigMismatch     = "config_mismatch"
	CodeMissingAnswer      = "missing_correct_answer"
	CodeTooFewOptions      = "too_few_options"
	CodeNoCorrectOption    = "no_correct_option"
	CodeAmbiguousOption    = "ambiguous_correct_option"
	CodeEmptyOptionText    = "empty_option_text"
	CodeOrphanedAnswer     = "orphaned_correct_answer"
	CodeOrphanedOption     = "orphaned_option"
	CodeNonContiguous      = "non_contiguous_blank_ids"
)

// MinDropdownOptions is the smallest number of choices a dropdown blank may offer.
const MinDropdownOptions = 2

// Issue is one finding of author-time validation.
type Issue struct {
	Field    string   `json:"field"`
	Code     string   `json:"code"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
	BlankID  *int     `json:"blank_id,omitempty"`
}

// Report collects validation issues for one question.
type Report struct {
	BlankIDs []int   `json:"blank_ids"`
	Issues   []Issue `json:"issues"`
}

// Ready reports whether the question may be published: no error-severity issues.
func (r Report) Ready() bool {
	return len(r.Errors()) == 0
}

// Errors returns the blocking issues.
func (r Report) Errors() []Issue { return r.filter(SeverityError) }

// Warnings returns the advisory issues.
func (r Report) Warnings() []Issue { return r.filter(SeverityWarning) }

func (r Report) filter(s Severity) []Issue {
	var out []Issue
	for _, is := range r.Issues {
		if is.Severity == s {
			out = append(out, is)
		}
	}
	return out
}

func (r *Report) add(sev Severity, field, code, msg string, blankID *int) {
	r.Issues = append(r.Issues, Issue{
		Field:    field,
		Code:     code,
		Message:  msg,
		Severity: sev,
		BlankID:  blankID,
	})
}

// ValidateOptions tunes validation.
type ValidateOptions struct {
	// RequireBlanks marks the question as declared fill-blank: zero blanks is an error.
	RequireBlanks bool
	// DeclaredBlankCount is the stored blank_count, checked against the template when set.
	DeclaredBlankCount *int
	// RequireContiguous warns when blank ids are not exactly 1..n.
	RequireContiguous bool
}

// ValidateText checks a free-text question before publishing.
func ValidateText(t Template, configs []TextBlankConfig, answers []CorrectAnswer, opts ValidateOptions) Report {
	cfgIDs := make([]int, len(configs))
	for i, c := range configs {
		cfgIDs[i] = c.BlankID
	}

	r, ids := validateCommon(t, cfgIDs, opts)
	for _, id := range ids {
		if len(AnswersFor(id, answers)) == 0 {
			r.add(SeverityError, "correct_answers", CodeMissingAnswer,
				fmt.Sprintf("blank %d has no correct answer", id), ptr(id))
		}
	}

	refs := make([]int, len(answers))
	for i, a := range answers {
		refs[i] = a.BlankID
	}
	for _, id := range OrphanedBlankIDs(t, refs) {
		r.add(SeverityWarning, "correct_answers", CodeOrphanedAnswer,
			fmt.Sprintf("correct answers reference blank %d which is not in the question text", id), ptr(id))
	}
	return r
}

// ValidateDropdown checks a dropdown question before publishing. More than one
// correct option for a blank is an error: the key would be ambiguous.
func ValidateDropdown(t Template, configs []DropdownBlankConfig, options []Option, opts ValidateOptions) Report {
	cfgIDs := make([]int, len(configs))
	for i, c := range configs {
		cfgIDs[i] = c.BlankID
	}

	r, ids := validateCommon(t, cfgIDs, opts)
	for _, id := range ids {
		own := OptionsFor(id, options)
		if len(own) < MinDropdownOptions {
			r.add(SeverityError, "answer_options", CodeTooFewOptions,
				fmt.Sprintf("blank %d needs at least %d options, has %d", id, MinDropdownOptions, len(own)), ptr(id))
		}

		correct := 0
		for i, o := range own {
			if o.IsCorrect {
				correct++
			}
			if strings.TrimSpace(o.OptionText) == "" {
				r.add(SeverityError, "answer_options", CodeEmptyOptionText,
					fmt.Sprintf("option %d of blank %d has no text", i+1, id), ptr(id))
			}
		}
		switch {
		case correct == 0:
			r.add(SeverityError, "answer_options", CodeNoCorrectOption,
				fmt.Sprintf("blank %d has no correct option", id), ptr(id))
		case correct > 1:
			r.add(SeverityError, "answer_options", CodeAmbiguousOption,
				fmt.Sprintf("blank %d must have exactly one correct option, has %d", id, correct), ptr(id))
		}
	}

	refs := make([]int, len(options))
	for i, o := range options {
		refs[i] = o.BlankID
	}
	for _, id := range OrphanedBlankIDs(t, refs) {
		r.add(SeverityWarning, "answer_options", CodeOrphanedOption,
			fmt.Sprintf("options reference blank %d which is not in the question text", id), ptr(id))
	}
	return r
}

func validateCommon(t Template, cfgIDs []int, opts ValidateOptions) (Report, []int) {
	ids := BlankIDs(t)
	r := Report{BlankIDs: ids, Issues: []Issue{}}

	if strings.TrimSpace(t.RawText) == "" {
		r.add(SeverityError, "question_text", CodeEmptyText, "question text must not be empty", nil)
	}

	if len(ids) == 0 {
		if opts.RequireBlanks {
			r.add(SeverityError, "question_text", CodeNoBlanks,
				"question must contain at least one blank, e.g. "+Token(1), nil)
		}
		return r, ids
	}

	if opts.DeclaredBlankCount != nil && *opts.DeclaredBlankCount != len(ids) {
		r.add(SeverityError, "settings.blank_count", CodeBlankCountMismatch,
			fmt.Sprintf("blank count mismatch: detected %d, declared %d", len(ids), *opts.DeclaredBlankCount), nil)
	}

	if !sameIDs(ids, cfgIDs) {
		r.add(SeverityError, "settings.blanks", CodeConfigMismatch,
			fmt.Sprintf("blank settings out of sync: need %d entries matching the question text, have %d", len(ids), len(cfgIDs)), nil)
	}

	if opts.RequireContiguous {
		for i, id := range ids {
			if id != i+1 {
				r.add(SeverityWarning, "question_text", CodeNonContiguous,
					fmt.Sprintf("blank ids should run 1..%d without gaps", len(ids)), nil)
				break
			}
		}
	}
	return r, ids
}

// sameIDs compares the sorted template ids with config ids in any order.
func sameIDs(ids, cfgIDs []int) bool {
	if len(ids) != len(cfgIDs) {
		return false
	}
	want := make(map[int]int, len(ids))
	for _, id := range ids {
		want[id]++
	}
	for _, id := range cfgIDs {
		if want[id] == 0 {
			return false
		}
		want[id]--
	}
	return true
}

func ptr(v int) *int {
	return &v
}
