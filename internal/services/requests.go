package services

import (
	"encoding/json"

	"github.com/SAP-F-2025/fill-blank-service/internal/fillblank"
	"github.com/SAP-F-2025/fill-blank-service/internal/models"
)

// ===== AUTHORING REQUESTS =====

// BlankConfigInput carries author metadata for one blank. Placeholder is
// ignored for dropdown questions.
type BlankConfigInput struct {
	BlankID     int     `json:"blank_id" validate:"blank_id"`
	Placeholder *string `json:"placeholder" validate:"omitempty,max=255"`
	Label       *string `json:"label" validate:"omitempty,max=255"`
}

type CorrectAnswerInput struct {
	BlankID       int    `json:"blank_id" validate:"blank_id"`
	AnswerText    string `json:"answer_text" validate:"required,max=1000"`
	CaseSensitive bool   `json:"case_sensitive"`
	// ExactMatch defaults to true when omitted
	ExactMatch    *bool `json:"exact_match"`
	BlankPosition *int  `json:"blank_position"`
}

type OptionInput struct {
	// ID of an existing option to keep, zero for a new one
	ID         uint   `json:"id"`
	BlankID    int    `json:"blank_id" validate:"blank_id"`
	OptionText string `json:"option_text" validate:"required,max=500"`
	IsCorrect  bool   `json:"is_correct"`
	OrderIndex int    `json:"order_index" validate:"min=0"`
}

type CreateQuestionRequest struct {
	Type           models.QuestionType  `json:"type" validate:"required,fill_blank_type"`
	Text           string               `json:"text" validate:"required"`
	Points         int                  `json:"points" validate:"min=0,max=100"`
	Explanation    *string              `json:"explanation"`
	Blanks         []BlankConfigInput   `json:"blanks" validate:"omitempty,dive"`
	CorrectAnswers []CorrectAnswerInput `json:"correct_answers" validate:"omitempty,dive"`
	Options        []OptionInput        `json:"answer_options" validate:"omitempty,dive"`
}

type UpdateTextRequest struct {
	Text string `json:"text" validate:"required"`
}

type UpdateBlankConfigsRequest struct {
	Blanks []BlankConfigInput `json:"blanks" validate:"required,dive"`
}

type SetCorrectAnswersRequest struct {
	CorrectAnswers []CorrectAnswerInput `json:"correct_answers" validate:"dive"`
}

type SetOptionsRequest struct {
	Options []OptionInput `json:"answer_options" validate:"dive"`
}

type PreviewRequest struct {
	Type   models.QuestionType `json:"type" validate:"required,fill_blank_type"`
	Text   string              `json:"text"`
	Blanks []BlankConfigInput  `json:"blanks" validate:"omitempty,dive"`
}

// ===== AUTHORING RESPONSES =====

// SyncResult reports what a text edit did to the blank registry
type SyncResult struct {
	Question        *models.Question `json:"question"`
	BlankIDs        []int            `json:"blank_ids"`
	AddedBlankIDs   []int            `json:"added_blank_ids"`
	RemovedBlankIDs []int            `json:"removed_blank_ids"`
	PrunedAnswers   int64            `json:"pruned_answers"`
	PrunedOptions   int64            `json:"pruned_options"`
	Report          fillblank.Report `json:"report"`
}

// PreviewResult is the editor view of unsaved question text
type PreviewResult struct {
	Template    fillblank.Template        `json:"template"`
	BlankIDs    []int                     `json:"blank_ids"`
	Occurrences int                       `json:"occurrences"`
	Positions   []fillblank.BlankPosition `json:"positions"`
	Blanks      interface{}               `json:"blanks"`
	Rendered    string                    `json:"rendered"`
}

// ===== GRADING REQUESTS =====

// SubmitAnswerRequest carries {"blanks":[...]}; the element shape depends on
// the question type.
type SubmitAnswerRequest struct {
	Blanks    json.RawMessage `json:"blanks" validate:"required"`
	TimeSpent int             `json:"time_spent" validate:"min=0"`
}

// GradeResult is the outcome of evaluating one submission
type GradeResult struct {
	AnswerID     uint                      `json:"answer_id,omitempty"`
	QuestionID   uint                      `json:"question_id"`
	Blanks       map[int]fillblank.Verdict `json:"blanks"`
	AllCorrect   bool                      `json:"all_correct"`
	NeedsReview  bool                      `json:"needs_review"`
	PointsEarned float64                   `json:"points_earned"`
	MaxPoints    int                       `json:"max_points"`
}

type RegradeResult struct {
	QuestionID   uint `json:"question_id"`
	AnswerCount  int  `json:"answer_count"`
	ChangedCount int  `json:"changed_count"`
	NeedsReview  int  `json:"needs_review"`
}

// ===== CONVERSIONS =====

func textConfigs(in []BlankConfigInput) []fillblank.TextBlankConfig {
	out := make([]fillblank.TextBlankConfig, 0, len(in))
	for _, b := range in {
		out = append(out, fillblank.TextBlankConfig{BlankID: b.BlankID, Placeholder: b.Placeholder, Label: b.Label})
	}
	return out
}

func dropdownConfigs(in []BlankConfigInput) []fillblank.DropdownBlankConfig {
	out := make([]fillblank.DropdownBlankConfig, 0, len(in))
	for _, b := range in {
		out = append(out, fillblank.DropdownBlankConfig{BlankID: b.BlankID, Label: b.Label})
	}
	return out
}

func (in CorrectAnswerInput) toModel() models.QuestionCorrectAnswer {
	exact := true
	if in.ExactMatch != nil {
		exact = *in.ExactMatch
	}
	return models.QuestionCorrectAnswer{
		BlankID:       in.BlankID,
		AnswerText:    in.AnswerText,
		CaseSensitive: in.CaseSensitive,
		ExactMatch:    exact,
		BlankPosition: in.BlankPosition,
	}
}

func (in OptionInput) toModel() models.AnswerOption {
	return models.AnswerOption{
		ID:         in.ID,
		BlankID:    in.BlankID,
		OptionText: in.OptionText,
		IsCorrect:  in.IsCorrect,
		OrderIndex: in.OrderIndex,
	}
}

func answerModels(in []CorrectAnswerInput) []models.QuestionCorrectAnswer {
	out := make([]models.QuestionCorrectAnswer, 0, len(in))
	for _, a := range in {
		out = append(out, a.toModel())
	}
	return out
}

func optionModels(in []OptionInput) []models.AnswerOption {
	out := make([]models.AnswerOption, 0, len(in))
	for _, o := range in {
		out = append(out, o.toModel())
	}
	return out
}

func answerBlankIDs(in []CorrectAnswerInput) []int {
	ids := make([]int, len(in))
	for i, a := range in {
		ids[i] = a.BlankID
	}
	return ids
}

func optionBlankIDs(in []OptionInput) []int {
	ids := make([]int, len(in))
	for i, o := range in {
		ids[i] = o.BlankID
	}
	return ids
}

func configBlankIDs(in []BlankConfigInput) []int {
	ids := make([]int, len(in))
	for i, b := range in {
		ids[i] = b.BlankID
	}
	return ids
}
