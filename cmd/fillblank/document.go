package main

import (
	"encoding/json"
	"fmt"
	"io"

	"gorm.io/datatypes"

	"github.com/SAP-F-2025/fill-blank-service/internal/models"
)

// questionDocument is the on-disk form of a question, using the same field
// names as the HTTP API.
type questionDocument struct {
	Type           models.QuestionType `json:"question_type"`
	Text           string              `json:"question_text"`
	Points         int                 `json:"points"`
	Settings       json.RawMessage     `json:"settings,omitempty"`
	CorrectAnswers []documentAnswer    `json:"correct_answers,omitempty"`
	Options        []documentOption    `json:"answer_options,omitempty"`
	Submission     json.RawMessage     `json:"submission,omitempty"`
}

type documentAnswer struct {
	BlankID       int    `json:"blank_id"`
	AnswerText    string `json:"answer_text"`
	CaseSensitive bool   `json:"case_sensitive"`
	// nil means exact
	ExactMatch *bool `json:"exact_match"`
}

type documentOption struct {
	ID         uint   `json:"id"`
	BlankID    int    `json:"blank_id"`
	OptionText string `json:"option_text"`
	IsCorrect  bool   `json:"is_correct"`
	OrderIndex int    `json:"order_index"`
}

func readDocument(r io.Reader) (*questionDocument, error) {
	var doc questionDocument
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode question document: %w", err)
	}
	if doc.Type == "" {
		doc.Type = models.FillBlankText
	}
	if !doc.Type.Valid() {
		return nil, fmt.Errorf("unsupported question_type %q", doc.Type)
	}
	return &doc, nil
}

// question builds an unsaved question. Options without an id get one from
// their position so selections can refer to them.
func (d *questionDocument) question() *models.Question {
	q := &models.Question{
		Type:     d.Type,
		Text:     d.Text,
		Points:   d.Points,
		Settings: datatypes.JSON(d.Settings),
	}
	for _, a := range d.CorrectAnswers {
		exact := true
		if a.ExactMatch != nil {
			exact = *a.ExactMatch
		}
		q.CorrectAnswers = append(q.CorrectAnswers, models.QuestionCorrectAnswer{
			BlankID:       a.BlankID,
			AnswerText:    a.AnswerText,
			CaseSensitive: a.CaseSensitive,
			ExactMatch:    exact,
		})
	}
	for i, o := range d.Options {
		id := o.ID
		if id == 0 {
			id = uint(i + 1)
		}
		q.Options = append(q.Options, models.AnswerOption{
			ID:         id,
			BlankID:    o.BlankID,
			OptionText: o.OptionText,
			IsCorrect:  o.IsCorrect,
			OrderIndex: o.OrderIndex,
		})
	}
	return q
}
