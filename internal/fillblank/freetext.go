package fillblank

import (
	"strings"

	"golang.org/x/text/cases"
)

// CorrectAnswer is one accepted answer for a free-text blank. A blank may carry
// several; a submission matching any of them is correct.
type CorrectAnswer struct {
	BlankID       int    `json:"blank_id"`
	AnswerText    string `json:"answer_text"`
	CaseSensitive bool   `json:"case_sensitive"`
	ExactMatch    bool   `json:"exact_match"`
	BlankPosition *int   `json:"blank_position,omitempty"`
}

// usable reports whether the answer can take part in grading. Whitespace-only
// answers are authoring leftovers and would match everything under containment.
func (a CorrectAnswer) usable() bool {
	return strings.TrimSpace(a.AnswerText) != ""
}

// Matches applies the answer's own matching rule to an already trimmed submission.
func (a CorrectAnswer) Matches(submitted string) bool {
	want := strings.TrimSpace(a.AnswerText)
	got := submitted
	if !a.CaseSensitive {
		fold := cases.Fold()
		want = fold.String(want)
		got = fold.String(got)
	}
	if a.ExactMatch {
		return got == want
	}
	return strings.Contains(got, want) || strings.Contains(want, got)
}

// TextSubmission maps blank id to the raw text a student typed.
type TextSubmission map[int]string

// AnswersFor returns the usable candidates that belong to blankID.
func AnswersFor(blankID int, candidates []CorrectAnswer) []CorrectAnswer {
	var out []CorrectAnswer
	for _, c := range candidates {
		if c.BlankID == blankID && c.usable() {
			out = append(out, c)
		}
	}
	return out
}

// EvaluateText grades one free-text blank. It returns Ungraded when no usable
// candidate exists for blankID, Incorrect for an empty submission, and Correct when
// the trimmed submission matches any candidate. Candidates of other blanks are ignored.
func EvaluateText(blankID int, submitted string, candidates []CorrectAnswer) Verdict {
	own := AnswersFor(blankID, candidates)
	if len(own) == 0 {
		return Ungraded
	}

	trimmed := strings.TrimSpace(submitted)
	if trimmed == "" {
		return Incorrect
	}

	for _, c := range own {
		if c.Matches(trimmed) {
			return Correct
		}
	}
	return Incorrect
}

// GradeText evaluates every blank of t. Blanks missing from the submission are
// graded as empty answers.
func GradeText(t Template, submission TextSubmission, candidates []CorrectAnswer) Result {
	ids := BlankIDs(t)
	blanks := make(map[int]Verdict, len(ids))
	for _, id := range ids {
		blanks[id] = EvaluateText(id, submission[id], candidates)
	}
	return newResult(blanks)
}
