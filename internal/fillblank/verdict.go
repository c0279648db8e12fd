package fillblank

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Verdict is the tri-state grading outcome of a single blank.
type Verdict int8

const (
	// Ungraded means the blank cannot be graded because the author has not
	// configured it. It is never treated as correct.
	Ungraded Verdict = iota
	Incorrect
	Correct
)

func (v Verdict) String() string {
	switch v {
	case Correct:
		return "correct"
	case Incorrect:
		return "incorrect"
	default:
		return "ungraded"
	}
}

// Bool converts the verdict to a nullable bool, nil for Ungraded.
func (v Verdict) Bool() *bool {
	switch v {
	case Correct:
		b := true
		return &b
	case Incorrect:
		b := false
		return &b
	default:
		return nil
	}
}

// VerdictOf is the inverse of Verdict.Bool.
func VerdictOf(b *bool) Verdict {
	switch {
	case b == nil:
		return Ungraded
	case *b:
		return Correct
	default:
		return Incorrect
	}
}

// MarshalJSON encodes a verdict as true, false or null.
func (v Verdict) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Bool())
}

// UnmarshalJSON accepts true, false or null.
func (v *Verdict) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*v = Ungraded
		return nil
	}
	var b bool
	if err := json.Unmarshal(data, &b); err != nil {
		return fmt.Errorf("verdict must be true, false or null: %w", err)
	}
	*v = VerdictOf(&b)
	return nil
}

// Result is the evaluation of one submission against one question.
type Result struct {
	Blanks     map[int]Verdict `json:"blanks"`
	AllCorrect bool            `json:"all_correct"`
}

// newResult builds a Result and derives AllCorrect. A question without blanks is
// never all-correct: there is nothing to have answered.
// newResult ANDs the verdicts. A template without blanks is vacuously all correct.
func newResult(blanks map[int]Verdict) Result {
	all := true
	for _, v := range blanks {
		if v != Correct {
			all = false
			break
		}
	}
	return Result{Blanks: blanks, AllCorrect: all}
}

// Correct returns the ids graded correct, ascending.
func (r Result) Correct() []int { return r.with(Correct) }

// Incorrect returns the ids graded incorrect, ascending.
func (r Result) Incorrect() []int { return r.with(Incorrect) }

// Ungraded returns the ids that need author attention, ascending.
func (r Result) Ungraded() []int { return r.with(Ungraded) }

// NeedsAttention reports whether any blank could not be graded.
func (r Result) NeedsAttention() bool {
	return len(r.Ungraded()) > 0
}

func (r Result) with(want Verdict) []int {
	ids := make([]int, 0)
	for id, v := range r.Blanks {
		if v == want {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	return ids
}
