package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/SAP-F-2025/fill-blank-service/internal/fillblank"
)

type QuestionType string

const (
	FillBlankText     QuestionType = "fill_blank_text"
	FillBlankDropdown QuestionType = "fill_blank_dropdown"
)

func (t QuestionType) Valid() bool {
	return t == FillBlankText || t == FillBlankDropdown
}

type QuestionStatus string

const (
	QuestionDraft QuestionStatus = "draft"
	QuestionReady QuestionStatus = "ready"
)

type Question struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	Type        QuestionType   `json:"type" gorm:"not null;index;size:32" validate:"required,fill_blank_type"`
	Text        string         `json:"text" gorm:"type:text;not null" validate:"required"`
	Points      int            `json:"points" gorm:"not null" validate:"min=0,max=100"`
	Explanation *string        `json:"explanation" gorm:"type:text"`
	Status      QuestionStatus `json:"status" gorm:"default:draft;index;size:16"`

	// Settings holds FillBlankTextSettings or FillBlankDropdownSettings depending on Type
	Settings datatypes.JSON `json:"settings"`

	// Metadata
	CreatedBy string         `json:"created_by" gorm:"not null;index;size:255"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	CorrectAnswers []QuestionCorrectAnswer `json:"correct_answers,omitempty" gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE"`
	Options        []AnswerOption          `json:"answer_options,omitempty" gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE"`
}

// QuestionCorrectAnswer is one accepted answer for a free-text blank.
type QuestionCorrectAnswer struct {
	ID            uint   `json:"id" gorm:"primaryKey"`
	QuestionID    uint   `json:"question_id" gorm:"not null;index"`
	BlankID       int    `json:"blank_id" gorm:"not null;index" validate:"blank_id"`
	AnswerText    string `json:"answer_text" gorm:"type:text;not null" validate:"required"`
	CaseSensitive bool   `json:"case_sensitive" gorm:"not null"`
	ExactMatch    bool   `json:"exact_match" gorm:"not null"`
	BlankPosition *int   `json:"blank_position"`

	CreatedAt time.Time `json:"created_at"`
}

// AnswerOption is one choice of a dropdown blank.
type AnswerOption struct {
	ID         uint   `json:"id" gorm:"primaryKey"`
	QuestionID uint   `json:"question_id" gorm:"not null;index"`
	BlankID    int    `json:"blank_id" gorm:"not null;index" validate:"blank_id"`
	OptionText string `json:"option_text" gorm:"type:text;not null" validate:"required"`
	IsCorrect  bool   `json:"is_correct" gorm:"not null"`
	OrderIndex int    `json:"order_index" gorm:"default:0"`

	CreatedAt time.Time `json:"created_at"`
}

// ===== SETTINGS SCHEMAS =====

type FillBlankTextSettings struct {
	BlankCount int                         `json:"blank_count"`
	Blanks     []fillblank.TextBlankConfig `json:"blanks"`
}

type FillBlankDropdownSettings struct {
	BlankCount int                             `json:"blank_count"`
	Blanks     []fillblank.DropdownBlankConfig `json:"blanks"`
}

// Template parses the question text.
func (q *Question) Template() fillblank.Template {
	return fillblank.Parse(q.Text)
}

// TextSettings decodes Settings for a free-text question. Empty or malformed
// settings decode to the zero value so the registry can rebuild them.
func (q *Question) TextSettings() FillBlankTextSettings {
	var s FillBlankTextSettings
	if len(q.Settings) > 0 {
		_ = json.Unmarshal(q.Settings, &s)
	}
	return s
}

// DropdownSettings decodes Settings for a dropdown question.
func (q *Question) DropdownSettings() FillBlankDropdownSettings {
	var s FillBlankDropdownSettings
	if len(q.Settings) > 0 {
		_ = json.Unmarshal(q.Settings, &s)
	}
	return s
}

// SetTextConfigs stores blanks as the free-text settings of the question.
func (q *Question) SetTextConfigs(blanks []fillblank.TextBlankConfig) error {
	return q.storeSettings(FillBlankTextSettings{BlankCount: len(blanks), Blanks: blanks})
}

// SetDropdownConfigs stores blanks as the dropdown settings of the question.
func (q *Question) SetDropdownConfigs(blanks []fillblank.DropdownBlankConfig) error {
	return q.storeSettings(FillBlankDropdownSettings{BlankCount: len(blanks), Blanks: blanks})
}

func (q *Question) storeSettings(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	q.Settings = datatypes.JSON(data)
	return nil
}

// SyncSettings reconciles the stored blank configs with the current text and
// stores the result. It reports whether anything changed.
func (q *Question) SyncSettings() (bool, error) {
	tmpl := q.Template()
	before := string(q.Settings)

	var err error
	switch q.Type {
	case FillBlankDropdown:
		err = q.SetDropdownConfigs(fillblank.SyncDropdownConfigs(tmpl, q.DropdownSettings().Blanks))
	default:
		err = q.SetTextConfigs(fillblank.SyncTextConfigs(tmpl, q.TextSettings().Blanks))
	}
	if err != nil {
		return false, err
	}
	return before != string(q.Settings), nil
}

// DeclaredBlankCount returns the blank_count stored in Settings, nil when absent.
func (q *Question) DeclaredBlankCount() *int {
	if len(q.Settings) == 0 {
		return nil
	}
	var shape struct {
		BlankCount *int `json:"blank_count"`
	}
	if err := json.Unmarshal(q.Settings, &shape); err != nil {
		return nil
	}
	return shape.BlankCount
}

// EngineAnswers converts stored correct answers to engine values.
func (q *Question) EngineAnswers() []fillblank.CorrectAnswer {
	out := make([]fillblank.CorrectAnswer, 0, len(q.CorrectAnswers))
	for _, a := range q.CorrectAnswers {
		out = append(out, a.ToEngine())
	}
	return out
}

// EngineOptions converts stored dropdown options to engine values.
func (q *Question) EngineOptions() []fillblank.Option {
	out := make([]fillblank.Option, 0, len(q.Options))
	for _, o := range q.Options {
		out = append(out, o.ToEngine())
	}
	return out
}

func (a QuestionCorrectAnswer) ToEngine() fillblank.CorrectAnswer {
	return fillblank.CorrectAnswer{
		BlankID:       a.BlankID,
		AnswerText:    a.AnswerText,
		CaseSensitive: a.CaseSensitive,
		ExactMatch:    a.ExactMatch,
		BlankPosition: a.BlankPosition,
	}
}

func (o AnswerOption) ToEngine() fillblank.Option {
	return fillblank.Option{
		ID:         o.ID,
		BlankID:    o.BlankID,
		OptionText: o.OptionText,
		IsCorrect:  o.IsCorrect,
		OrderIndex: o.OrderIndex,
	}
}

// ===== STUDENT VIEW =====

// StudentOption is an answer option with its correctness flag stripped.
type StudentOption struct {
	ID         uint   `json:"id"`
	OptionText string `json:"option_text"`
	OrderIndex int    `json:"order_index"`
}

type StudentBlank struct {
	BlankID     int             `json:"blank_id"`
	Label       *string         `json:"label,omitempty"`
	Placeholder *string         `json:"placeholder,omitempty"`
	Options     []StudentOption `json:"options,omitempty"`
}

// StudentView is everything a presentation layer needs to render a question
// to a student. It never carries the answer key.
type StudentView struct {
	QuestionID uint                `json:"question_id"`
	Type       QuestionType        `json:"type"`
	Points     int                 `json:"points"`
	Segments   []fillblank.Segment `json:"segments"`
	Blanks     []StudentBlank      `json:"blanks"`
}

// StudentView renders the question for a student. Blank configs are synced
// against the text so the view never disagrees with the segments.
func (q *Question) StudentView() StudentView {
	tmpl := q.Template()
	view := StudentView{
		QuestionID: q.ID,
		Type:       q.Type,
		Points:     q.Points,
		Segments:   tmpl.Segments,
	}

	switch q.Type {
	case FillBlankDropdown:
		options := q.EngineOptions()
		for _, cfg := range fillblank.SyncDropdownConfigs(tmpl, q.DropdownSettings().Blanks) {
			blank := StudentBlank{BlankID: cfg.BlankID, Label: cfg.Label, Options: []StudentOption{}}
			for _, o := range fillblank.OptionsFor(cfg.BlankID, options) {
				blank.Options = append(blank.Options, StudentOption{ID: o.ID, OptionText: o.OptionText, OrderIndex: o.OrderIndex})
			}
			view.Blanks = append(view.Blanks, blank)
		}
	default:
		for _, cfg := range fillblank.SyncTextConfigs(tmpl, q.TextSettings().Blanks) {
			view.Blanks = append(view.Blanks, StudentBlank{BlankID: cfg.BlankID, Label: cfg.Label, Placeholder: cfg.Placeholder})
		}
	}
	if view.Blanks == nil {
		view.Blanks = []StudentBlank{}
	}
	return view
}
