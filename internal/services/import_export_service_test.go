package services

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/SAP-F-2025/fill-blank-service/internal/models"
)

const importCSV = `question_type,question_text,points,explanation,blank_id,answer_text,case_sensitive,exact_match,option_text,is_correct,order_index
fill_blank_text,{BLANK_1} is the capital of {BLANK_2}.,5,Geography,1,Paris,false,true,,,
fill_blank_text,{BLANK_1} is the capital of {BLANK_2}.,5,Geography,2,France,,false,,,
fill_blank_dropdown,The sky is {BLANK_1}.,2,,1,,,,blue,true,0
fill_blank_dropdown,The sky is {BLANK_1}.,2,,1,,,,red,false,1
fill_blank_text,Only {BLANK_1},3,,4,four,,,,,
essay,Write something,1,,,,,,,,
`

func TestImportExportService_ImportCSV(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	summary, err := env.manager.ImportExport().ImportQuestionsFromFile(ctx, strings.NewReader(importCSV), "questions.csv", author)
	require.NoError(t, err)

	assert.Equal(t, 6, summary.TotalRows)
	assert.Equal(t, 2, summary.SuccessCount)
	assert.Equal(t, 2, summary.ErrorCount)
	require.Len(t, summary.CreatedQuestions, 2)

	columns := map[string]bool{}
	for _, e := range summary.Errors {
		columns[e.Column] = true
	}
	assert.True(t, columns["correct_answers"], "answer for a missing blank is reported")
	assert.True(t, columns["question_type"], "unsupported type is reported")

	text, err := env.manager.Question().GetByID(ctx, summary.CreatedQuestions[0], author)
	require.NoError(t, err)
	assert.Equal(t, models.FillBlankText, text.Type)
	assert.Equal(t, 5, text.Points)
	assert.Equal(t, "Geography", *text.Explanation)
	require.Len(t, text.CorrectAnswers, 2)
	assert.False(t, text.CorrectAnswers[1].ExactMatch)

	dropdown, err := env.manager.Question().GetByID(ctx, summary.CreatedQuestions[1], author)
	require.NoError(t, err)
	require.Len(t, dropdown.Options, 2)
	assert.True(t, dropdown.Options[0].IsCorrect)
}

func TestImportExportService_ImportRejects(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	_, err := env.manager.ImportExport().ImportQuestionsFromFile(ctx, strings.NewReader(""), "questions.pdf", author)
	assert.ErrorIs(t, err, ErrImportFormatUnsupported)

	_, err = env.manager.ImportExport().ImportQuestionsFromCSV(ctx, strings.NewReader("question_text\nx\n"), author)
	assert.True(t, IsValidation(err))

	_, err = env.manager.ImportExport().ImportQuestionsFromCSV(ctx, strings.NewReader("question_type,question_text\n"), author)
	assert.True(t, IsValidation(err))
}

func TestImportExportService_CSVRoundTrip(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	text := env.createCapitals(t)
	dropdown := env.createColors(t)

	data, err := env.manager.ImportExport().ExportQuestionsToCSV(ctx, []uint{text.ID, dropdown.ID}, author)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Len(t, lines, 1+2+4)
	assert.True(t, strings.HasPrefix(lines[0], "question_type,question_text"))

	summary, err := env.manager.ImportExport().ImportQuestionsFromCSV(ctx, bytes.NewReader(data), "teacher-2")
	require.NoError(t, err)
	assert.Equal(t, 2, summary.SuccessCount)
	assert.Zero(t, summary.ErrorCount)

	imported, err := env.manager.Question().GetByID(ctx, summary.CreatedQuestions[1], "teacher-2")
	require.NoError(t, err)
	assert.Equal(t, dropdown.Text, imported.Text)
	assert.Len(t, imported.Options, 4)
}

func TestImportExportService_ExcelRoundTrip(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	q := env.createCapitals(t)

	data, err := env.manager.ImportExport().ExportQuestionsToExcel(ctx, []uint{q.ID}, author)
	require.NoError(t, err)

	summary, err := env.manager.ImportExport().ImportQuestionsFromFile(ctx, bytes.NewReader(data), "export.xlsx", author)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.SuccessCount)

	_, err = env.manager.ImportExport().ExportQuestionsToExcel(ctx, []uint{q.ID}, student)
	assert.True(t, IsUnauthorized(err))
}

func TestImportExportService_ExportAnswersToExcel(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	q := env.createCapitals(t)
	env.publish(t, q.ID)

	_, err := env.manager.Grading().SubmitAnswer(ctx, q.ID, textSubmission("Paris", "Spain"), student)
	require.NoError(t, err)

	data, err := env.manager.ImportExport().ExportAnswersToExcel(ctx, q.ID, author)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Answers")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"Blank 1", "Blank 2"}, rows[0][8:])
	assert.Equal(t, student, rows[1][1])
	assert.Equal(t, []string{"correct", "incorrect"}, rows[1][8:])

	_, err = env.manager.ImportExport().ExportAnswersToExcel(ctx, q.ID, student)
	assert.True(t, IsUnauthorized(err))
}
