package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/SAP-F-2025/fill-blank-service/internal/fillblank"
	"github.com/SAP-F-2025/fill-blank-service/internal/models"
	"github.com/SAP-F-2025/fill-blank-service/internal/repositories"
)

// ImportExportService handles spreadsheet import and export of fill-blank
// questions and their graded answers
type ImportExportService interface {
	// Import operations
	ImportQuestionsFromFile(ctx context.Context, file io.Reader, filename string, creatorID string) (*models.ImportSummary, error)
	ImportQuestionsFromCSV(ctx context.Context, reader io.Reader, creatorID string) (*models.ImportSummary, error)
	ImportQuestionsFromExcel(ctx context.Context, reader io.Reader, creatorID string) (*models.ImportSummary, error)

	// Export operations
	ExportQuestionsToCSV(ctx context.Context, questionIDs []uint, userID string) ([]byte, error)
	ExportQuestionsToExcel(ctx context.Context, questionIDs []uint, userID string) ([]byte, error)
	ExportAnswersToExcel(ctx context.Context, questionID uint, userID string) ([]byte, error)
}

// Spreadsheet layout: one row per correct answer or option. Consecutive rows
// with the same type and text belong to one question.
var questionColumns = []string{
	"question_type", "question_text", "points", "explanation",
	"blank_id", "answer_text", "case_sensitive", "exact_match",
	"option_text", "is_correct", "order_index",
}

type importExportService struct {
	repo      repositories.Repository
	questions QuestionService
	logger    *slog.Logger
}

func NewImportExportService(repo repositories.Repository, questions QuestionService, logger *slog.Logger) ImportExportService {
	return &importExportService{
		repo:      repo,
		questions: questions,
		logger:    logger,
	}
}

// ===== IMPORT OPERATIONS =====

func (s *importExportService) ImportQuestionsFromFile(ctx context.Context, file io.Reader, filename string, creatorID string) (*models.ImportSummary, error) {
	s.logger.Info("Starting file import", "filename", filename, "creator_id", creatorID)

	ext := strings.ToLower(filepath.Ext(filename))

	switch ext {
	case ".csv":
		return s.ImportQuestionsFromCSV(ctx, file, creatorID)
	case ".xlsx":
		return s.ImportQuestionsFromExcel(ctx, file, creatorID)
	default:
		return nil, fmt.Errorf("%w: %q", ErrImportFormatUnsupported, ext)
	}
}

func (s *importExportService) ImportQuestionsFromCSV(ctx context.Context, reader io.Reader, creatorID string) (*models.ImportSummary, error) {
	csvReader := csv.NewReader(reader)
	csvReader.TrimLeadingSpace = true
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read CSV: %v", ErrImportFormatUnsupported, err)
	}
	return s.importRows(ctx, records, creatorID, "CSV")
}

func (s *importExportService) ImportQuestionsFromExcel(ctx context.Context, reader io.Reader, creatorID string) (*models.ImportSummary, error) {
	f, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open Excel file: %v", ErrImportFormatUnsupported, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ValidationErrors{*NewValidationError("file", "Excel file has no sheets", nil)}
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read Excel rows: %w", err)
	}
	return s.importRows(ctx, rows, creatorID, "Excel")
}

// importGroup is the rows of one question being imported
type importGroup struct {
	firstRow int
	req      CreateQuestionRequest
	failed   bool
}

func (s *importExportService) importRows(ctx context.Context, records [][]string, creatorID, format string) (*models.ImportSummary, error) {
	start := time.Now()

	if len(records) < 2 {
		return nil, ValidationErrors{*NewValidationError("file", "file must have header row and at least one data row", len(records))}
	}

	headerMap := make(map[string]int)
	for i, header := range records[0] {
		headerMap[strings.ToLower(strings.TrimSpace(header))] = i
	}
	for _, col := range []string{"question_type", "question_text"} {
		if _, exists := headerMap[col]; !exists {
			return nil, ValidationErrors{*NewValidationError("headers", fmt.Sprintf("missing required column: %s", col), col)}
		}
	}

	summary := &models.ImportSummary{
		TotalRows:        len(records) - 1,
		CreatedQuestions: []uint{},
		Errors:           []models.ImportValidationError{},
	}

	var groups []*importGroup
	var current *importGroup
	for i, record := range records[1:] {
		rowNum := i + 2
		summary.ProcessedRows++

		row := rowReader{record: record, headers: headerMap}
		if row.empty() {
			continue
		}

		qType := models.QuestionType(strings.ToLower(row.get("question_type")))
		text := row.get("question_text")
		if current == nil || current.req.Type != qType || current.req.Text != text {
			current = &importGroup{firstRow: rowNum, req: CreateQuestionRequest{Type: qType, Text: text}}
			groups = append(groups, current)
			if errs := current.readHeader(row, rowNum); len(errs) > 0 {
				summary.Errors = append(summary.Errors, errs...)
				current.failed = true
			}
		}
		if errs := current.readKey(row, rowNum); len(errs) > 0 {
			summary.Errors = append(summary.Errors, errs...)
			current.failed = true
		}
	}

	for _, g := range groups {
		if g.failed {
			summary.ErrorCount++
			continue
		}
		q, err := s.questions.Create(ctx, &g.req, creatorID)
		if err != nil {
			summary.ErrorCount++
			summary.Errors = append(summary.Errors, importErrors(g.firstRow, err)...)
			continue
		}
		summary.SuccessCount++
		summary.CreatedQuestions = append(summary.CreatedQuestions, q.ID)
	}
	summary.ProcessingTime = time.Since(start)

	s.logger.Info(format+" import completed",
		"total_rows", summary.TotalRows,
		"success_count", summary.SuccessCount,
		"error_count", summary.ErrorCount)

	return summary, nil
}

func (g *importGroup) readHeader(row rowReader, rowNum int) []models.ImportValidationError {
	var errs []models.ImportValidationError
	if !g.req.Type.Valid() {
		errs = append(errs, models.ImportValidationError{
			Row: rowNum, Column: "question_type", Message: "unsupported question type", Value: string(g.req.Type), Code: "fill_blank_type",
		})
	}
	if strings.TrimSpace(g.req.Text) == "" {
		errs = append(errs, models.ImportValidationError{
			Row: rowNum, Column: "question_text", Message: "required field", Code: "required",
		})
	}

	g.req.Points = 10
	if v := row.get("points"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, models.ImportValidationError{Row: rowNum, Column: "points", Message: "must be an integer", Value: v, Code: "numeric"})
		} else {
			g.req.Points = p
		}
	}
	if v := row.get("explanation"); v != "" {
		g.req.Explanation = &v
	}
	return errs
}

// readKey adds the correct answer or option carried by row, if any
func (g *importGroup) readKey(row rowReader, rowNum int) []models.ImportValidationError {
	raw := row.get("blank_id")
	if raw == "" {
		return nil
	}

	var errs []models.ImportValidationError
	blankID, err := strconv.Atoi(raw)
	if err != nil || blankID < 0 {
		return append(errs, models.ImportValidationError{Row: rowNum, Column: "blank_id", Message: "must be a non-negative integer", Value: raw, Code: "blank_id"})
	}

	parseBool := func(col string, def bool) bool {
		v := row.get(col)
		if v == "" {
			return def
		}
		b, err := strconv.ParseBool(strings.ToLower(v))
		if err != nil {
			errs = append(errs, models.ImportValidationError{Row: rowNum, Column: col, Message: "must be true or false", Value: v, Code: "boolean"})
		}
		return b
	}

	switch g.req.Type {
	case models.FillBlankDropdown:
		order := 0
		if v := row.get("order_index"); v != "" {
			if order, err = strconv.Atoi(v); err != nil {
				errs = append(errs, models.ImportValidationError{Row: rowNum, Column: "order_index", Message: "must be an integer", Value: v, Code: "numeric"})
			}
		}
		g.req.Options = append(g.req.Options, OptionInput{
			BlankID:    blankID,
			OptionText: row.get("option_text"),
			IsCorrect:  parseBool("is_correct", false),
			OrderIndex: order,
		})
	default:
		exact := parseBool("exact_match", true)
		g.req.CorrectAnswers = append(g.req.CorrectAnswers, CorrectAnswerInput{
			BlankID:       blankID,
			AnswerText:    row.get("answer_text"),
			CaseSensitive: parseBool("case_sensitive", false),
			ExactMatch:    &exact,
		})
	}
	return errs
}

// importErrors flattens a create failure into row-level errors
func importErrors(rowNum int, err error) []models.ImportValidationError {
	var ve ValidationErrors
	if errors.As(err, &ve) {
		out := make([]models.ImportValidationError, 0, len(ve))
		for _, e := range ve {
			value := ""
			if e.Value != nil {
				value = fmt.Sprint(e.Value)
			}
			out = append(out, models.ImportValidationError{
				Row: rowNum, Column: e.Field, Message: e.Message, Value: value, Code: e.Rule,
			})
		}
		return out
	}
	return []models.ImportValidationError{{Row: rowNum, Message: err.Error(), Code: "rejected"}}
}

type rowReader struct {
	record  []string
	headers map[string]int
}

func (r rowReader) get(name string) string {
	if index, exists := r.headers[name]; exists && index < len(r.record) {
		return strings.TrimSpace(r.record[index])
	}
	return ""
}

func (r rowReader) empty() bool {
	for _, v := range r.record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// ===== EXPORT OPERATIONS =====

func (s *importExportService) ExportQuestionsToCSV(ctx context.Context, questionIDs []uint, userID string) ([]byte, error) {
	questions, err := s.getQuestionsForExport(ctx, questionIDs, userID)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(questionColumns); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, question := range questions {
		for _, row := range questionRows(question) {
			if err := writer.Write(row); err != nil {
				return nil, fmt.Errorf("failed to write CSV row: %w", err)
			}
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *importExportService) ExportQuestionsToExcel(ctx context.Context, questionIDs []uint, userID string) ([]byte, error) {
	questions, err := s.getQuestionsForExport(ctx, questionIDs, userID)
	if err != nil {
		return nil, err
	}

	rows := [][]string{questionColumns}
	for _, question := range questions {
		rows = append(rows, questionRows(question)...)
	}

	f, sheetName, err := newWorkbook("Questions")
	if err != nil {
		return nil, err
	}
	defer f.Close()

	for i, row := range rows {
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := writeRow(f, sheetName, i+1, values); err != nil {
			return nil, err
		}
	}
	return workbookBytes(f)
}

// ExportAnswersToExcel writes one row per graded answer with a verdict column
// per blank
func (s *importExportService) ExportAnswersToExcel(ctx context.Context, questionID uint, userID string) ([]byte, error) {
	q, err := s.repo.Question().GetByID(ctx, nil, questionID)
	if err != nil {
		return nil, mapNotFound(err, ErrQuestionNotFound)
	}
	if q.CreatedBy != userID {
		return nil, NewPermissionError(userID, questionID, "question", "export_answers", "not the question author")
	}

	answers, _, err := s.repo.Answer().ListByQuestion(ctx, nil, questionID, models.AnswerFilters{})
	if err != nil {
		return nil, fmt.Errorf("failed to get answers: %w", err)
	}

	f, sheetName, err := newWorkbook("Answers")
	if err != nil {
		return nil, err
	}
	defer f.Close()

	blankIDs := q.Template().BlankIDs()
	headers := []interface{}{"Answer ID", "Student ID", "Submitted At", "Graded At", "All Correct", "Points Earned", "Max Points", "Needs Review"}
	for _, id := range blankIDs {
		headers = append(headers, fmt.Sprintf("Blank %d", id))
	}
	if err := writeRow(f, sheetName, 1, headers); err != nil {
		return nil, err
	}

	for i, answer := range answers {
		verdicts := map[int]fillblank.Verdict{}
		if len(answer.BlankResults) > 0 {
			if err := json.Unmarshal(answer.BlankResults, &verdicts); err != nil {
				s.logger.Warn("Unreadable blank results", "answer_id", answer.ID, "error", err)
			}
		}

		row := []interface{}{
			answer.ID,
			answer.StudentID,
			answer.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		if answer.GradedAt != nil {
			row = append(row, answer.GradedAt.Format("2006-01-02 15:04:05"))
		} else {
			row = append(row, "")
		}
		row = append(row, answer.IsCorrect != nil && *answer.IsCorrect)
		if answer.PointsEarned != nil {
			row = append(row, *answer.PointsEarned)
		} else {
			row = append(row, "")
		}
		row = append(row, q.Points, answer.NeedsReview)
		for _, id := range blankIDs {
			row = append(row, verdicts[id].String())
		}

		if err := writeRow(f, sheetName, i+2, row); err != nil {
			return nil, err
		}
	}
	return workbookBytes(f)
}

// ===== HELPER FUNCTIONS =====

func (s *importExportService) getQuestionsForExport(ctx context.Context, questionIDs []uint, userID string) ([]*models.Question, error) {
	if len(questionIDs) == 0 {
		return nil, ValidationErrors{*NewValidationError("ids", "at least one question id is required", nil)}
	}
	questions, err := s.repo.Question().GetByIDs(ctx, nil, questionIDs)
	if err != nil {
		return nil, err
	}
	for _, q := range questions {
		if q.CreatedBy != userID {
			return nil, NewPermissionError(userID, q.ID, "question", "export", "not the question author")
		}
	}
	return questions, nil
}

// questionRows renders a question as spreadsheet rows, one per key entry
func questionRows(q *models.Question) [][]string {
	base := func() []string {
		row := make([]string, len(questionColumns))
		row[0] = string(q.Type)
		row[1] = q.Text
		row[2] = strconv.Itoa(q.Points)
		if q.Explanation != nil {
			row[3] = *q.Explanation
		}
		return row
	}

	var rows [][]string
	switch q.Type {
	case models.FillBlankDropdown:
		for _, o := range q.Options {
			row := base()
			row[4] = strconv.Itoa(o.BlankID)
			row[8] = o.OptionText
			row[9] = strconv.FormatBool(o.IsCorrect)
			row[10] = strconv.Itoa(o.OrderIndex)
			rows = append(rows, row)
		}
	default:
		for _, a := range q.CorrectAnswers {
			row := base()
			row[4] = strconv.Itoa(a.BlankID)
			row[5] = a.AnswerText
			row[6] = strconv.FormatBool(a.CaseSensitive)
			row[7] = strconv.FormatBool(a.ExactMatch)
			rows = append(rows, row)
		}
	}
	if len(rows) == 0 {
		rows = append(rows, base())
	}
	return rows
}

func newWorkbook(sheetName string) (*excelize.File, string, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		f.Close()
		return nil, "", fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	return f, sheetName, nil
}

func writeRow(f *excelize.File, sheetName string, rowNum int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
		return fmt.Errorf("failed to write Excel row %d: %w", rowNum, err)
	}
	return nil
}

func workbookBytes(f *excelize.File) ([]byte, error) {
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}
	return buf.Bytes(), nil
}
