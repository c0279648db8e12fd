package fillblank

import "sort"

// Option is one choice offered for a dropdown blank. ID is assigned by storage;
// zero means the option has not been persisted and cannot be selected.
type Option struct {
	ID         uint   `json:"id,omitempty"`
	BlankID    int    `json:"blank_id"`
	OptionText string `json:"option_text"`
	IsCorrect  bool   `json:"is_correct"`
	OrderIndex int    `json:"order_index"`
}

// DropdownSubmission maps blank id to the selected option id, nil when unanswered.
type DropdownSubmission map[int]*uint

// OptionsFor returns the options of blankID ordered by OrderIndex.
func OptionsFor(blankID int, options []Option) []Option {
	var out []Option
	for _, o := range options {
		if o.BlankID == blankID {
			out = append(out, o)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].OrderIndex < out[j].OrderIndex
	})
	return out
}

// CorrectOptionFor returns the first option of blankID flagged correct.
func CorrectOptionFor(blankID int, options []Option) (Option, bool) {
	for _, o := range OptionsFor(blankID, options) {
		if o.IsCorrect {
			return o, true
		}
	}
	return Option{}, false
}

// EvaluateDropdown grades one dropdown blank. It returns Ungraded when nothing is
// selected or when no option of blankID is flagged correct. A selected id that
// belongs to another blank, or that does not exist, is Incorrect.
func EvaluateDropdown(blankID int, selected *uint, options []Option) Verdict {
	if selected == nil {
		return Ungraded
	}
	if _, ok := CorrectOptionFor(blankID, options); !ok {
		return Ungraded
	}

	for _, o := range options {
		if o.ID == 0 || o.ID != *selected {
			continue
		}
		if o.BlankID == blankID && o.IsCorrect {
			return Correct
		}
		return Incorrect
	}
	return Incorrect
}

// GradeDropdown evaluates every blank of t against the submission.
func GradeDropdown(t Template, submission DropdownSubmission, options []Option) Result {
	ids := BlankIDs(t)
	blanks := make(map[int]Verdict, len(ids))
	for _, id := range ids {
		blanks[id] = EvaluateDropdown(id, submission[id], options)
	}
	return newResult(blanks)
}
