package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/SAP-F-2025/fill-blank-service/internal/models"
	"github.com/SAP-F-2025/fill-blank-service/internal/repositories"
)

func TestAnswerPostgreSQL(t *testing.T) {
	db := setupDB(t)
	questions := NewQuestionPostgreSQL(db)
	answers := NewAnswerPostgreSQL(db)
	ctx := context.Background()

	q := &models.Question{Type: models.FillBlankText, Text: "{BLANK_1}", CreatedBy: "author"}
	require.NoError(t, questions.Create(ctx, nil, q))

	for _, student := range []string{"s1", "s2", "s1"} {
		correct := student == "s2"
		require.NoError(t, answers.Create(ctx, nil, &models.StudentAnswer{
			QuestionID:   q.ID,
			StudentID:    student,
			AnswerData:   datatypes.JSON(`{"blanks":[]}`),
			BlankResults: datatypes.JSON(`{"1":null}`),
			IsCorrect:    &correct,
			NeedsReview:  !correct,
		}))
	}

	count, err := answers.CountByQuestion(ctx, nil, q.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	s1 := "s1"
	list, total, err := answers.ListByQuestion(ctx, nil, q.ID, models.AnswerFilters{StudentID: &s1})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, list, 2)

	review := true
	_, total, err = answers.ListByQuestion(ctx, nil, q.ID, models.AnswerFilters{NeedsReview: &review})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	first := list[0]
	first.NeedsReview = false
	require.NoError(t, answers.Update(ctx, nil, first))

	got, err := answers.GetByID(ctx, nil, first.ID)
	require.NoError(t, err)
	assert.False(t, got.NeedsReview)
	assert.JSONEq(t, `{"1":null}`, string(got.BlankResults))

	_, err = answers.GetByID(ctx, nil, 999)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}
