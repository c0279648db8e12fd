package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/SAP-F-2025/fill-blank-service/internal/fillblank"
	"github.com/SAP-F-2025/fill-blank-service/internal/models"
	"github.com/SAP-F-2025/fill-blank-service/internal/validator"
)

var errNotReady = errors.New("question has blocking issues")

func newParseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse [file|-]",
		Short: "Split question text into text and blank segments",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := loadDocument(cmd, args)
			if err != nil {
				return err
			}
			tmpl := fillblank.Parse(doc.Text)
			return printJSON(cmd, map[string]interface{}{
				"template":    tmpl,
				"blank_ids":   fillblank.BlankIDs(tmpl),
				"occurrences": fillblank.CountBlanks(doc.Text),
				"positions":   fillblank.Positions(doc.Text),
				"rendered":    fillblank.Fill(tmpl, nil),
			})
		},
	}
}

func newSyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync [file|-]",
		Short: "Rebuild the blank settings from the question text",
		Long: `Reconcile the settings of the document with the blanks in its text.
Configs of blanks still present keep their label and placeholder, new blanks
get defaults and blanks that left the text are dropped. Correct answers and
options pointing at dropped blanks are listed as orphaned.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := loadDocument(cmd, args)
			if err != nil {
				return err
			}
			q := doc.question()
			if kind, _ := cmd.Flags().GetString("kind"); kind != "" {
				switch kind {
				case "text":
					q.Type = models.FillBlankText
				case "dropdown":
					q.Type = models.FillBlankDropdown
				default:
					return fmt.Errorf("invalid kind %q: must be text or dropdown", kind)
				}
			}

			changed, err := q.SyncSettings()
			if err != nil {
				return err
			}
			tmpl := q.Template()
			return printJSON(cmd, map[string]interface{}{
				"question_type":      q.Type,
				"settings":           json.RawMessage(q.Settings),
				"changed":            changed,
				"orphaned_blank_ids": orphanedRefs(tmpl, q),
			})
		},
	}
	cmd.Flags().String("kind", "", "Question kind: text or dropdown (defaults to question_type)")
	return cmd
}

func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [file|-]",
		Short: "Report what blocks a question from being published",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := loadDocument(cmd, args)
			if err != nil {
				return err
			}
			q := doc.question()
			if len(doc.Settings) == 0 {
				if _, err := q.SyncSettings(); err != nil {
					return err
				}
			}

			qv := validator.New().Question()
			qv.RequireContiguous, _ = cmd.Flags().GetBool("contiguous")
			report := qv.Report(q)

			if err := printJSON(cmd, map[string]interface{}{
				"ready":  report.Ready(),
				"report": report,
			}); err != nil {
				return err
			}
			if strict, _ := cmd.Flags().GetBool("strict"); strict && !report.Ready() {
				return fmt.Errorf("%w: %d error(s)", errNotReady, len(report.Errors()))
			}
			return nil
		},
	}
	cmd.Flags().Bool("contiguous", false, "Warn when blank ids are not numbered 1..n")
	cmd.Flags().Bool("strict", false, "Exit non-zero when the question is not ready")
	return cmd
}

func newGradeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "grade [file|-]",
		Short: "Grade the submission embedded in a question document",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := loadDocument(cmd, args)
			if err != nil {
				return err
			}
			if len(doc.Submission) == 0 {
				return errors.New("document has no submission")
			}
			q := doc.question()
			out, err := grade(q, doc.Submission)
			if err != nil {
				return err
			}
			return printJSON(cmd, out)
		},
	}
}

type gradeOutput struct {
	Blanks       map[int]fillblank.Verdict `json:"blanks"`
	AllCorrect   bool                      `json:"all_correct"`
	NeedsReview  bool                      `json:"needs_review"`
	PointsEarned float64                   `json:"points_earned"`
	MaxPoints    int                       `json:"max_points"`
	Rendered     string                    `json:"rendered"`
}

func grade(q *models.Question, submission json.RawMessage) (*gradeOutput, error) {
	tmpl := q.Template()

	var (
		result fillblank.Result
		filled map[int]string
	)
	switch q.Type {
	case models.FillBlankDropdown:
		var answer models.FillBlankDropdownAnswer
		if err := json.Unmarshal(submission, &answer); err != nil {
			return nil, fmt.Errorf("decode submission: %w", err)
		}
		sub := answer.Submission()
		options := q.EngineOptions()
		result = fillblank.GradeDropdown(tmpl, sub, options)
		filled = selectedTexts(sub, options)
	default:
		var answer models.FillBlankTextAnswer
		if err := json.Unmarshal(submission, &answer); err != nil {
			return nil, fmt.Errorf("decode submission: %w", err)
		}
		sub := answer.Submission()
		result = fillblank.GradeText(tmpl, sub, q.EngineAnswers())
		filled = sub
	}

	out := &gradeOutput{
		Blanks:      result.Blanks,
		AllCorrect:  result.AllCorrect,
		NeedsReview: result.NeedsAttention(),
		MaxPoints:   q.Points,
		Rendered:    fillblank.Fill(tmpl, filled),
	}
	if result.AllCorrect {
		out.PointsEarned = float64(q.Points)
	}
	return out, nil
}

func selectedTexts(sub fillblank.DropdownSubmission, options []fillblank.Option) map[int]string {
	texts := make(map[int]string, len(sub))
	for blankID, selected := range sub {
		if selected == nil {
			continue
		}
		for _, o := range fillblank.OptionsFor(blankID, options) {
			if o.ID == *selected {
				texts[blankID] = o.OptionText
				break
			}
		}
	}
	return texts
}

func orphanedRefs(tmpl fillblank.Template, q *models.Question) []int {
	refs := make([]int, 0, len(q.CorrectAnswers)+len(q.Options))
	for _, a := range q.CorrectAnswers {
		refs = append(refs, a.BlankID)
	}
	for _, o := range q.Options {
		refs = append(refs, o.BlankID)
	}
	return fillblank.OrphanedBlankIDs(tmpl, refs)
}
