package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/fill-blank-service/internal/fillblank"
)

func TestMessageRoundTrip(t *testing.T) {
	event, err := NewAnswerGradedEvent(AnswerGradedEvent{
		AnswerID:   7,
		QuestionID: 3,
		StudentID:  "student-1",
		Blanks:     map[int]fillblank.Verdict{1: fillblank.Correct, 2: fillblank.Ungraded},
	})
	require.NoError(t, err)

	msg, err := ToMessage(event)
	require.NoError(t, err)
	assert.Equal(t, event.ID, msg.UUID)
	assert.Equal(t, string(EventAnswerGraded), msg.Metadata.Get("event_type"))
	assert.Equal(t, "fill-blank-service", msg.Metadata.Get("source"))

	decoded, err := FromMessage(msg)
	require.NoError(t, err)
	assert.Equal(t, EventAnswerGraded, decoded.Type)

	var payload AnswerGradedEvent
	require.NoError(t, decoded.Decode(&payload))
	assert.Equal(t, uint(7), payload.AnswerID)
	assert.Equal(t, fillblank.Ungraded, payload.Blanks[2])
	assert.JSONEq(t, `{"1":true,"2":null}`, string(mustMarshalBlanks(t, payload.Blanks)))
}

func TestMockEventPublisher(t *testing.T) {
	pub := NewMockEventPublisher(slog.Default())

	first, err := NewQuestionRegradedEvent(QuestionRegradedEvent{QuestionID: 1})
	require.NoError(t, err)
	second, err := NewBlanksSyncedEvent(BlanksSyncedEvent{QuestionID: 1, BlankIDs: []int{1}})
	require.NoError(t, err)

	require.NoError(t, pub.Publish(context.Background(), first))
	require.NoError(t, pub.Publish(context.Background(), second))

	assert.Len(t, pub.GetPublishedEvents(), 2)
	assert.Len(t, pub.EventsOfType(EventQuestionBlanksSynced), 1)
	assert.NotEqual(t, first.ID, second.ID)

	pub.ClearEvents()
	assert.Empty(t, pub.GetPublishedEvents())
}

func mustMarshalBlanks(t *testing.T, blanks map[int]fillblank.Verdict) []byte {
	t.Helper()
	data, err := json.Marshal(blanks)
	require.NoError(t, err)
	return data
}
