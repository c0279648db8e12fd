package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/SAP-F-2025/fill-blank-service/internal/fillblank"
)

// StudentAnswer is one graded submission of a student for a question.
type StudentAnswer struct {
	ID         uint   `json:"id" gorm:"primaryKey"`
	QuestionID uint   `json:"question_id" gorm:"not null;index"`
	StudentID  string `json:"student_id" gorm:"not null;index;size:255"`

	// AnswerData holds FillBlankTextAnswer or FillBlankDropdownAnswer
	AnswerData datatypes.JSON `json:"answer_data"`
	// BlankResults holds map[blank_id]true|false|null
	BlankResults datatypes.JSON `json:"blank_results"`

	IsCorrect    *bool      `json:"is_correct"`
	PointsEarned *float64   `json:"points_earned"`
	NeedsReview  bool       `json:"needs_review" gorm:"default:false;index"`
	GradedAt     *time.Time `json:"graded_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Question *Question `json:"question,omitempty" gorm:"foreignKey:QuestionID"`
}

type TextBlankAnswer struct {
	BlankID int    `json:"blank_id"`
	Answer  string `json:"answer"`
}

type FillBlankTextAnswer struct {
	Blanks    []TextBlankAnswer `json:"blanks"`
	TimeSpent int               `json:"time_spent"`
}

type DropdownBlankAnswer struct {
	BlankID          int   `json:"blank_id"`
	SelectedOptionID *uint `json:"selected_option_id"`
}

type FillBlankDropdownAnswer struct {
	Blanks    []DropdownBlankAnswer `json:"blanks"`
	TimeSpent int                   `json:"time_spent"`
}

// Submission converts the wire payload into an engine submission. A later entry
// for the same blank overrides an earlier one. Entries for ids the template
// does not carry are dropped by the grader.
func (a FillBlankTextAnswer) Submission() fillblank.TextSubmission {
	sub := make(fillblank.TextSubmission, len(a.Blanks))
	for _, b := range a.Blanks {
		sub[b.BlankID] = b.Answer
	}
	return sub
}

func (a FillBlankDropdownAnswer) Submission() fillblank.DropdownSubmission {
	sub := make(fillblank.DropdownSubmission, len(a.Blanks))
	for _, b := range a.Blanks {
		sub[b.BlankID] = b.SelectedOptionID
	}
	return sub
}

// BlankReview pairs the verdict of one blank with the key it was graded against.
type BlankReview struct {
	BlankID          int               `json:"blank_id"`
	Verdict          fillblank.Verdict `json:"is_correct"`
	Submitted        *string           `json:"submitted,omitempty"`
	SelectedOptionID *uint             `json:"selected_option_id,omitempty"`
	AcceptedAnswers  []string          `json:"accepted_answers,omitempty"`
	CorrectOptionID  *uint             `json:"correct_option_id,omitempty"`
	CorrectOption    *string           `json:"correct_option,omitempty"`
}

type AnswerReview struct {
	AnswerID     uint          `json:"answer_id"`
	QuestionID   uint          `json:"question_id"`
	StudentID    string        `json:"student_id"`
	AllCorrect   bool          `json:"all_correct"`
	PointsEarned *float64      `json:"points_earned"`
	Explanation  *string       `json:"explanation,omitempty"`
	Blanks       []BlankReview `json:"blanks"`
}
