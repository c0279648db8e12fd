package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/SAP-F-2025/fill-blank-service/internal/events"
	"github.com/SAP-F-2025/fill-blank-service/internal/fillblank"
	"github.com/SAP-F-2025/fill-blank-service/internal/models"
	"github.com/SAP-F-2025/fill-blank-service/internal/repositories"
	"github.com/SAP-F-2025/fill-blank-service/internal/validator"
)

type GradingService interface {
	// Check evaluates a submission without storing it
	Check(ctx context.Context, questionID uint, req *SubmitAnswerRequest, userID string) (*GradeResult, error)
	SubmitAnswer(ctx context.Context, questionID uint, req *SubmitAnswerRequest, studentID string) (*GradeResult, error)
	GetAnswerReview(ctx context.Context, answerID uint, userID string) (*models.AnswerReview, error)
	ListAnswers(ctx context.Context, questionID uint, filters models.AnswerFilters, userID string) (*AnswerListResponse, error)

	// RegradeQuestion re-evaluates every stored answer against the current key
	RegradeQuestion(ctx context.Context, questionID uint, userID string) (*RegradeResult, error)
}

type AnswerListResponse struct {
	Answers []*models.StudentAnswer `json:"answers"`
	Total   int64                   `json:"total"`
}

type gradingService struct {
	repo      repositories.Repository
	publisher events.EventPublisher
	validator *validator.Validator
	logger    *ServiceLogger
}

func NewGradingService(repo repositories.Repository, publisher events.EventPublisher, validator *validator.Validator, logger *slog.Logger) GradingService {
	return &gradingService{
		repo:      repo,
		publisher: publisher,
		validator: validator,
		logger:    NewServiceLogger(logger, LogConfig{Service: "fill-blank-service", Component: "grading"}),
	}
}

// ===== EVALUATION =====

// Check grades against the stored key. Authors may check drafts.
func (s *gradingService) Check(ctx context.Context, questionID uint, req *SubmitAnswerRequest, userID string) (*GradeResult, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	q, err := s.getQuestion(ctx, nil, questionID)
	if err != nil {
		return nil, err
	}
	if q.Status != models.QuestionReady && q.CreatedBy != userID {
		return nil, ErrQuestionNotReady
	}

	result, _, err := s.evaluate(q, req.Blanks, req.TimeSpent)
	if err != nil {
		return nil, err
	}
	return newGradeResult(q, result), nil
}

// SubmitAnswer grades a student submission and stores it with its verdicts
func (s *gradingService) SubmitAnswer(ctx context.Context, questionID uint, req *SubmitAnswerRequest, studentID string) (res *GradeResult, err error) {
	op := s.logger.WithOperation(ctx, "submit_answer", studentID)
	defer func() { op.LogResult(questionID, err) }()

	if err = s.validator.Validate(req); err != nil {
		return nil, err
	}
	q, err := s.getQuestion(ctx, nil, questionID)
	if err != nil {
		return nil, err
	}
	if q.Status != models.QuestionReady {
		return nil, ErrQuestionNotReady
	}

	result, data, err := s.evaluate(q, req.Blanks, req.TimeSpent)
	if err != nil {
		return nil, err
	}

	answer := &models.StudentAnswer{
		QuestionID: q.ID,
		StudentID:  studentID,
		AnswerData: datatypes.JSON(data),
	}
	if err = applyResult(answer, q, result); err != nil {
		return nil, err
	}
	if err = s.repo.Answer().Create(ctx, nil, answer); err != nil {
		return nil, err
	}

	s.logger.LogGrading(ctx, q.ID, studentID, result)
	res = newGradeResult(q, result)
	res.AnswerID = answer.ID

	publishEvent(ctx, s.publisher, s.logger, func() (*events.Event, error) {
		return events.NewAnswerGradedEvent(events.AnswerGradedEvent{
			AnswerID:     answer.ID,
			QuestionID:   q.ID,
			StudentID:    studentID,
			Blanks:       result.Blanks,
			AllCorrect:   result.AllCorrect,
			NeedsReview:  answer.NeedsReview,
			PointsEarned: res.PointsEarned,
			MaxPoints:    q.Points,
			GradedAt:     *answer.GradedAt,
		})
	})
	return res, nil
}

// ===== REVIEW =====

// GetAnswerReview is visible to the student who answered and to the author
func (s *gradingService) GetAnswerReview(ctx context.Context, answerID uint, userID string) (*models.AnswerReview, error) {
	answer, err := s.repo.Answer().GetByID(ctx, nil, answerID)
	if err != nil {
		return nil, mapNotFound(err, ErrAnswerNotFound)
	}
	q, err := s.getQuestion(ctx, nil, answer.QuestionID)
	if err != nil {
		return nil, err
	}
	if answer.StudentID != userID && q.CreatedBy != userID {
		return nil, NewPermissionError(userID, answerID, "answer", "read", "not the answering student or the question author")
	}

	verdicts := map[int]fillblank.Verdict{}
	if len(answer.BlankResults) > 0 {
		if err := json.Unmarshal(answer.BlankResults, &verdicts); err != nil {
			return nil, fmt.Errorf("failed to decode blank results: %w", err)
		}
	}

	review := &models.AnswerReview{
		AnswerID:     answer.ID,
		QuestionID:   q.ID,
		StudentID:    answer.StudentID,
		AllCorrect:   answer.IsCorrect != nil && *answer.IsCorrect,
		PointsEarned: answer.PointsEarned,
		Explanation:  q.Explanation,
		Blanks:       []models.BlankReview{},
	}

	tmpl := q.Template()
	switch q.Type {
	case models.FillBlankDropdown:
		var payload models.FillBlankDropdownAnswer
		if err := json.Unmarshal(answer.AnswerData, &payload); err != nil {
			return nil, fmt.Errorf("failed to decode answer data: %w", err)
		}
		sub := payload.Submission()
		options := q.EngineOptions()
		for _, id := range tmpl.BlankIDs() {
			br := models.BlankReview{BlankID: id, Verdict: verdicts[id], SelectedOptionID: sub[id]}
			if opt, ok := fillblank.CorrectOptionFor(id, options); ok {
				optID, text := opt.ID, opt.OptionText
				br.CorrectOptionID = &optID
				br.CorrectOption = &text
			}
			review.Blanks = append(review.Blanks, br)
		}
	default:
		var payload models.FillBlankTextAnswer
		if err := json.Unmarshal(answer.AnswerData, &payload); err != nil {
			return nil, fmt.Errorf("failed to decode answer data: %w", err)
		}
		sub := payload.Submission()
		answers := q.EngineAnswers()
		for _, id := range tmpl.BlankIDs() {
			br := models.BlankReview{BlankID: id, Verdict: verdicts[id]}
			if text, ok := sub[id]; ok {
				br.Submitted = &text
			}
			for _, a := range fillblank.AnswersFor(id, answers) {
				br.AcceptedAnswers = append(br.AcceptedAnswers, a.AnswerText)
			}
			review.Blanks = append(review.Blanks, br)
		}
	}
	return review, nil
}

func (s *gradingService) ListAnswers(ctx context.Context, questionID uint, filters models.AnswerFilters, userID string) (*AnswerListResponse, error) {
	if _, err := s.getOwnedQuestion(ctx, nil, questionID, userID, "list_answers"); err != nil {
		return nil, err
	}
	if filters.Limit <= 0 || filters.Limit > 100 {
		filters.Limit = 50
	}
	answers, total, err := s.repo.Answer().ListByQuestion(ctx, nil, questionID, filters)
	if err != nil {
		return nil, err
	}
	return &AnswerListResponse{Answers: answers, Total: total}, nil
}

// ===== REGRADE =====

func (s *gradingService) RegradeQuestion(ctx context.Context, questionID uint, userID string) (res *RegradeResult, err error) {
	op := s.logger.WithOperation(ctx, "regrade_question", userID)
	defer func() { op.LogResult(questionID, err) }()

	res = &RegradeResult{QuestionID: questionID}
	err = s.repo.Transaction(ctx, func(tx *gorm.DB) error {
		q, err := s.getOwnedQuestion(ctx, tx, questionID, userID, "regrade")
		if err != nil {
			return err
		}

		answers, _, err := s.repo.Answer().ListByQuestion(ctx, tx, questionID, models.AnswerFilters{})
		if err != nil {
			return err
		}
		res.AnswerCount = len(answers)

		for _, answer := range answers {
			result, _, err := s.evaluate(q, blanksOf(answer.AnswerData), 0)
			if err != nil {
				// stored payloads were valid when submitted; skip ones the key can no longer read
				s.logger.logger.Warn("Skipping unreadable answer", "answer_id", answer.ID, "error", err)
				continue
			}
			unchanged := sameGrade(answer, result, q.Points)
			if err := applyResult(answer, q, result); err != nil {
				return err
			}
			if answer.NeedsReview {
				res.NeedsReview++
			}
			if unchanged {
				continue
			}
			if err := s.repo.Answer().Update(ctx, tx, answer); err != nil {
				return err
			}
			res.ChangedCount++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	publishEvent(ctx, s.publisher, s.logger, func() (*events.Event, error) {
		return events.NewQuestionRegradedEvent(events.QuestionRegradedEvent{
			QuestionID:   questionID,
			AnswerCount:  res.AnswerCount,
			ChangedCount: res.ChangedCount,
			RegradedBy:   userID,
			RegradedAt:   time.Now().UTC(),
		})
	})
	return res, nil
}

// ===== HELPERS =====

// evaluate decodes blanks for the question type and grades it. The returned
// bytes are the normalized payload to store.
func (s *gradingService) evaluate(q *models.Question, blanks json.RawMessage, timeSpent int) (fillblank.Result, []byte, error) {
	tmpl := q.Template()

	var (
		payload interface{}
		result  fillblank.Result
	)
	switch q.Type {
	case models.FillBlankText:
		answer := models.FillBlankTextAnswer{TimeSpent: timeSpent}
		if err := json.Unmarshal(blanks, &answer.Blanks); err != nil {
			return result, nil, fmt.Errorf("%w: %v", ErrInvalidSubmission, err)
		}
		result = fillblank.GradeText(tmpl, answer.Submission(), q.EngineAnswers())
		payload = answer
	case models.FillBlankDropdown:
		answer := models.FillBlankDropdownAnswer{TimeSpent: timeSpent}
		if err := json.Unmarshal(blanks, &answer.Blanks); err != nil {
			return result, nil, fmt.Errorf("%w: %v", ErrInvalidSubmission, err)
		}
		result = fillblank.GradeDropdown(tmpl, answer.Submission(), q.EngineOptions())
		payload = answer
	default:
		return result, nil, ErrQuestionInvalidType
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return result, nil, fmt.Errorf("failed to encode answer data: %w", err)
	}
	return result, data, nil
}

// applyResult stores verdicts and points on answer. Full points are awarded
// only when every blank is correct.
func applyResult(answer *models.StudentAnswer, q *models.Question, result fillblank.Result) error {
	verdicts, err := json.Marshal(result.Blanks)
	if err != nil {
		return fmt.Errorf("failed to encode blank results: %w", err)
	}

	allCorrect := result.AllCorrect
	points := 0.0
	if allCorrect {
		points = float64(q.Points)
	}
	now := time.Now().UTC()

	answer.BlankResults = datatypes.JSON(verdicts)
	answer.IsCorrect = &allCorrect
	answer.PointsEarned = &points
	answer.NeedsReview = result.NeedsAttention()
	answer.GradedAt = &now
	return nil
}

func newGradeResult(q *models.Question, result fillblank.Result) *GradeResult {
	points := 0.0
	if result.AllCorrect {
		points = float64(q.Points)
	}
	return &GradeResult{
		QuestionID:   q.ID,
		Blanks:       result.Blanks,
		AllCorrect:   result.AllCorrect,
		NeedsReview:  result.NeedsAttention(),
		PointsEarned: points,
		MaxPoints:    q.Points,
	}
}

// sameGrade reports whether answer already carries result. Stored verdicts are
// decoded because the database may reformat JSON columns.
func sameGrade(answer *models.StudentAnswer, result fillblank.Result, points int) bool {
	var previous map[int]fillblank.Verdict
	if err := json.Unmarshal(answer.BlankResults, &previous); err != nil {
		return false
	}
	if !maps.Equal(previous, result.Blanks) || answer.PointsEarned == nil {
		return false
	}
	want := 0.0
	if result.AllCorrect {
		want = float64(points)
	}
	return *answer.PointsEarned == want
}

// blanksOf extracts the blanks array of a stored answer payload
func blanksOf(data datatypes.JSON) json.RawMessage {
	var shape struct {
		Blanks json.RawMessage `json:"blanks"`
	}
	if err := json.Unmarshal(data, &shape); err != nil || len(shape.Blanks) == 0 {
		return json.RawMessage("[]")
	}
	return shape.Blanks
}

func (s *gradingService) getQuestion(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error) {
	q, err := s.repo.Question().GetByID(ctx, tx, id)
	if err != nil {
		return nil, mapNotFound(err, ErrQuestionNotFound)
	}
	return q, nil
}

func (s *gradingService) getOwnedQuestion(ctx context.Context, tx *gorm.DB, id uint, userID, action string) (*models.Question, error) {
	q, err := s.getQuestion(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if q.CreatedBy != userID {
		return nil, NewPermissionError(userID, id, "question", action, "not the question author")
	}
	return q, nil
}
