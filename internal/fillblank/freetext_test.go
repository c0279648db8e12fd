package fillblank

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluateText(t *testing.T) {
	exact := []CorrectAnswer{{BlankID: 1, AnswerText: "Paris", CaseSensitive: false, ExactMatch: true}}
	loose := []CorrectAnswer{{BlankID: 1, AnswerText: "Paris", CaseSensitive: false, ExactMatch: false}}
	sensitive := []CorrectAnswer{{BlankID: 1, AnswerText: "Paris", CaseSensitive: true, ExactMatch: true}}

	tests := []struct {
		name       string
		blankID    int
		submitted  string
		candidates []CorrectAnswer
		want       Verdict
	}{
		{"exact case-folded match", 1, "paris", exact, Correct},
		{"exact rejects partial", 1, "Pariss", exact, Incorrect},
		{"exact trims submission", 1, "  Paris \t", exact, Correct},
		{"exact keeps internal whitespace", 1, "Pa ris", exact, Incorrect},
		{"loose containment submission contains answer", 1, "Paris, France", loose, Correct},
		{"loose containment answer contains submission", 1, "Par", loose, Correct},
		{"loose unrelated", 1, "London", loose, Incorrect},
		{"case sensitive rejects other case", 1, "paris", sensitive, Incorrect},
		{"case sensitive accepts same case", 1, "Paris", sensitive, Correct},
		{"empty submission is incorrect", 1, "", exact, Incorrect},
		{"whitespace submission is incorrect under loose", 1, "   ", loose, Incorrect},
		{"no candidates is ungraded", 1, "Paris", nil, Ungraded},
		{"other blank's answers do not grade this blank", 2, "Paris", exact, Ungraded},
		{"whitespace-only candidates are ignored", 1, "x", []CorrectAnswer{{BlankID: 1, AnswerText: "  "}}, Ungraded},
		{"empty submission on ungraded blank stays ungraded", 1, "", nil, Ungraded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EvaluateText(tt.blankID, tt.submitted, tt.candidates))
		})
	}
}

func TestEvaluateText_AnyCandidateMatches(t *testing.T) {
	candidates := []CorrectAnswer{
		{BlankID: 1, AnswerText: "colour", ExactMatch: true},
		{BlankID: 1, AnswerText: "color", ExactMatch: true},
		{BlankID: 1, AnswerText: "Hue", CaseSensitive: true, ExactMatch: true},
	}

	assert.Equal(t, Correct, EvaluateText(1, "Color", candidates))
	assert.Equal(t, Correct, EvaluateText(1, "COLOUR", candidates))
	assert.Equal(t, Correct, EvaluateText(1, "Hue", candidates))
	assert.Equal(t, Incorrect, EvaluateText(1, "hue", candidates))
}

func TestEvaluateText_CaseFolding(t *testing.T) {
	candidates := []CorrectAnswer{{BlankID: 1, AnswerText: "STRASSE", ExactMatch: true}}
	assert.Equal(t, Correct, EvaluateText(1, "straße", candidates))
}

func TestGradeText(t *testing.T) {
	tmpl := Parse("{BLANK_1} is in {BLANK_2}; {BLANK_3}")
	candidates := []CorrectAnswer{
		{BlankID: 1, AnswerText: "Paris", ExactMatch: true},
		{BlankID: 2, AnswerText: "France", ExactMatch: true},
	}

	t.Run("ungraded blank fails aggregate but is reported distinctly", func(t *testing.T) {
		res := GradeText(tmpl, TextSubmission{1: "paris", 2: "france", 3: "anything"}, candidates)

		assert.Equal(t, Correct, res.Blanks[1])
		assert.Equal(t, Correct, res.Blanks[2])
		assert.Equal(t, Ungraded, res.Blanks[3])
		assert.False(t, res.AllCorrect)
		assert.Equal(t, []int{3}, res.Ungraded())
		assert.True(t, res.NeedsAttention())
	})

	t.Run("all correct", func(t *testing.T) {
		full := append(candidates, CorrectAnswer{BlankID: 3, AnswerText: "yes"})
		res := GradeText(tmpl, TextSubmission{1: "Paris", 2: "France", 3: "yes"}, full)
		assert.True(t, res.AllCorrect)
		assert.Equal(t, []int{1, 2, 3}, res.Correct())
	})

	t.Run("missing entry is graded as empty", func(t *testing.T) {
		res := GradeText(tmpl, TextSubmission{1: "Paris"}, candidates)
		assert.Equal(t, Incorrect, res.Blanks[2])
		assert.Equal(t, []int{2}, res.Incorrect())
	})

	t.Run("extra entries for unknown blanks are ignored", func(t *testing.T) {
		res := GradeText(tmpl, TextSubmission{42: "Paris"}, candidates)
		_, ok := res.Blanks[42]
		assert.False(t, ok)
		assert.Len(t, res.Blanks, 3)
	})
}

func TestGrade_NoBlanksIsAllCorrect(t *testing.T) {
	res := GradeText(Parse("no blanks here"), TextSubmission{}, nil)
	assert.Empty(t, res.Blanks)
	assert.True(t, res.AllCorrect)
	assert.False(t, res.NeedsAttention())

	dd := GradeDropdown(Parse(""), DropdownSubmission{}, nil)
	assert.Empty(t, dd.Blanks)
	assert.True(t, dd.AllCorrect)
}
