package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/SAP-F-2025/fill-blank-service/internal/errors"
	"github.com/SAP-F-2025/fill-blank-service/internal/fillblank"
	"github.com/SAP-F-2025/fill-blank-service/internal/models"
)

func TestValidator_CustomTags(t *testing.T) {
	v := New()

	tests := []struct {
		name    string
		input   interface{}
		wantErr bool
		rule    string
	}{
		{
			name:  "valid question",
			input: &models.Question{Type: models.FillBlankText, Text: "{BLANK_1}", Points: 5},
		},
		{
			name:    "unknown question type",
			input:   &models.Question{Type: "essay", Text: "x", Points: 5},
			wantErr: true,
			rule:    "fill_blank_type",
		},
		{
			name:    "negative blank id",
			input:   &models.QuestionCorrectAnswer{BlankID: -1, AnswerText: "x"},
			wantErr: true,
			rule:    "blank_id",
		},
		{
			name:  "zero blank id",
			input: &models.QuestionCorrectAnswer{BlankID: 0, AnswerText: "x"},
		},
		{
			name:  "positive blank id",
			input: &models.AnswerOption{BlankID: 3, OptionText: "x"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.input)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var errs errors.ValidationErrors
			require.ErrorAs(t, err, &errs)
			require.NotEmpty(t, errs)
			assert.Equal(t, tt.rule, errs[0].Rule)
		})
	}
}

func TestValidator_FieldNamesFromJSONTags(t *testing.T) {
	err := New().Validate(&models.QuestionCorrectAnswer{BlankID: 1})

	var errs errors.ValidationErrors
	require.ErrorAs(t, err, &errs)
	assert.Equal(t, "answer_text", errs[0].Field)
	assert.Equal(t, "is required", errs[0].Message)
}

func TestQuestionValidator_ValidateForPublish(t *testing.T) {
	qv := NewQuestionValidator()

	q := &models.Question{
		Type:     models.FillBlankDropdown,
		Text:     "Water boils at {BLANK_1} degrees",
		Settings: datatypes.JSON(`{"blank_count":1,"blanks":[{"blank_id":1}]}`),
		Options: []models.AnswerOption{
			{ID: 1, BlankID: 1, OptionText: "100", IsCorrect: true},
			{ID: 2, BlankID: 1, OptionText: "90", IsCorrect: true},
		},
	}

	err := qv.ValidateForPublish(q)
	var errs errors.ValidationErrors
	require.ErrorAs(t, err, &errs)
	require.Len(t, errs, 1)
	assert.Equal(t, fillblank.CodeAmbiguousOption, errs[0].Rule)

	q.Options[1].IsCorrect = false
	assert.NoError(t, qv.ValidateForPublish(q))
}

func TestQuestionValidator_DeclaredCountMismatch(t *testing.T) {
	q := &models.Question{
		Type:           models.FillBlankText,
		Text:           "{BLANK_1}",
		Settings:       datatypes.JSON(`{"blank_count":2,"blanks":[{"blank_id":1}]}`),
		CorrectAnswers: []models.QuestionCorrectAnswer{{BlankID: 1, AnswerText: "x"}},
	}

	report := NewQuestionValidator().Report(q)
	require.Len(t, report.Errors(), 1)
	assert.Equal(t, fillblank.CodeBlankCountMismatch, report.Errors()[0].Code)
}

func TestQuestionValidator_ValidateText(t *testing.T) {
	qv := NewQuestionValidator()

	assert.NoError(t, qv.ValidateText("Paris is in {BLANK_1}"))
	assert.Error(t, qv.ValidateText("no blanks at all"))
	assert.Error(t, qv.ValidateText("   "))
}

func TestQuestionValidator_ValidateBlankRefs(t *testing.T) {
	qv := NewQuestionValidator()
	tmpl := fillblank.Parse("{BLANK_1} {BLANK_2}")

	assert.NoError(t, qv.ValidateBlankRefs(tmpl, "correct_answers", []int{1, 2, 2}))

	err := qv.ValidateBlankRefs(tmpl, "correct_answers", []int{1, 7})
	var errs errors.ValidationErrors
	require.ErrorAs(t, err, &errs)
	require.Len(t, errs, 1)
	assert.Equal(t, 7, *errs[0].BlankID)
}

func TestQuestionValidator_ValidateOptionIDs(t *testing.T) {
	v := New().Question()

	assert.NoError(t, v.ValidateOptionIDs([]uint{0, 0, 4, 5}))

	err := v.ValidateOptionIDs([]uint{4, 0, 4, 4})
	var errs errors.ValidationErrors
	require.ErrorAs(t, err, &errs)
	require.Len(t, errs, 2)
	assert.Equal(t, "duplicate_option_id", errs[0].Rule)
	assert.Equal(t, uint(4), errs[0].Value)
}
