package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/SAP-F-2025/fill-blank-service/internal/fillblank"
	"github.com/SAP-F-2025/fill-blank-service/internal/models"
)

const (
	eventSource  = "fill-blank-service"
	eventVersion = "1.0"
)

// EventType represents the kinds of question lifecycle events
type EventType string

const (
	// Authoring events
	EventQuestionPublished    EventType = "question.published"
	EventQuestionBlanksSynced EventType = "question.blanks_synced"

	// Grading events
	EventAnswerGraded     EventType = "answer.graded"
	EventQuestionRegraded EventType = "question.regraded"
)

// Event is the envelope for every event emitted by the service
type Event struct {
	ID        string          `json:"id"`
	Type      EventType       `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Source    string          `json:"source"`
	Version   string          `json:"version"`
	Data      json.RawMessage `json:"data"`
}

// Decode unmarshals the event payload into dest
func (e *Event) Decode(dest interface{}) error {
	if err := json.Unmarshal(e.Data, dest); err != nil {
		return fmt.Errorf("failed to decode %s payload: %w", e.Type, err)
	}
	return nil
}

// Event payloads

type QuestionPublishedEvent struct {
	QuestionID  uint                `json:"question_id"`
	Type        models.QuestionType `json:"type"`
	BlankIDs    []int               `json:"blank_ids"`
	Points      int                 `json:"points"`
	PublishedBy string              `json:"published_by"`
}

type BlanksSyncedEvent struct {
	QuestionID      uint  `json:"question_id"`
	BlankIDs        []int `json:"blank_ids"`
	AddedBlankIDs   []int `json:"added_blank_ids"`
	RemovedBlankIDs []int `json:"removed_blank_ids"`
	PrunedAnswers   int64 `json:"pruned_answers"`
	PrunedOptions   int64 `json:"pruned_options"`
}

type AnswerGradedEvent struct {
	AnswerID     uint                      `json:"answer_id"`
	QuestionID   uint                      `json:"question_id"`
	StudentID    string                    `json:"student_id"`
	Blanks       map[int]fillblank.Verdict `json:"blanks"`
	AllCorrect   bool                      `json:"all_correct"`
	NeedsReview  bool                      `json:"needs_review"`
	PointsEarned float64                   `json:"points_earned"`
	MaxPoints    int                       `json:"max_points"`
	GradedAt     time.Time                 `json:"graded_at"`
}

type QuestionRegradedEvent struct {
	QuestionID   uint      `json:"question_id"`
	AnswerCount  int       `json:"answer_count"`
	ChangedCount int       `json:"changed_count"`
	RegradedBy   string    `json:"regraded_by"`
	RegradedAt   time.Time `json:"regraded_at"`
}

// Event factory functions

func NewQuestionPublishedEvent(q *models.Question, publishedBy string) (*Event, error) {
	return newEvent(EventQuestionPublished, QuestionPublishedEvent{
		QuestionID:  q.ID,
		Type:        q.Type,
		BlankIDs:    fillblank.BlankIDs(q.Template()),
		Points:      q.Points,
		PublishedBy: publishedBy,
	})
}

func NewBlanksSyncedEvent(payload BlanksSyncedEvent) (*Event, error) {
	return newEvent(EventQuestionBlanksSynced, payload)
}

func NewAnswerGradedEvent(payload AnswerGradedEvent) (*Event, error) {
	return newEvent(EventAnswerGraded, payload)
}

func NewQuestionRegradedEvent(payload QuestionRegradedEvent) (*Event, error) {
	return newEvent(EventQuestionRegraded, payload)
}

func newEvent(eventType EventType, payload interface{}) (*Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", eventType, err)
	}
	return &Event{
		ID:        GenerateEventID(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Source:    eventSource,
		Version:   eventVersion,
		Data:      data,
	}, nil
}

// GenerateEventID returns a random UUID for a new event
func GenerateEventID() string {
	return uuid.NewString()
}
