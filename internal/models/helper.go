package models

// QuestionFilters narrows question listings.
type QuestionFilters struct {
	Type      *QuestionType   `form:"type"`
	Status    *QuestionStatus `form:"status"`
	CreatedBy *string         `form:"created_by"`
	Search    *string         `form:"search"`
	Limit     int             `form:"size"`
	Offset    int             `form:"-"`
	Page      int             `form:"page"`
}

// Normalize fills paging defaults and derives Offset from Page.
func (f *QuestionFilters) Normalize() {
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 20
	}
	if f.Page <= 0 {
		f.Page = 1
	}
	f.Offset = (f.Page - 1) * f.Limit
}

// AnswerFilters narrows student answer listings.
type AnswerFilters struct {
	StudentID   *string `form:"student_id"`
	NeedsReview *bool   `form:"needs_review"`
	Limit       int     `form:"size"`
	Offset      int     `form:"offset"`
}
