package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/fill-blank-service/internal/cache"
	"github.com/SAP-F-2025/fill-blank-service/internal/events"
	"github.com/SAP-F-2025/fill-blank-service/internal/fillblank"
	"github.com/SAP-F-2025/fill-blank-service/internal/models"
	"github.com/SAP-F-2025/fill-blank-service/internal/repositories"
	"github.com/SAP-F-2025/fill-blank-service/internal/validator"
)

type QuestionService interface {
	// Core CRUD
	Create(ctx context.Context, req *CreateQuestionRequest, userID string) (*models.Question, error)
	GetByID(ctx context.Context, id uint, userID string) (*models.Question, error)
	List(ctx context.Context, filters models.QuestionFilters, userID string) (*QuestionListResponse, error)
	Delete(ctx context.Context, id uint, userID string) error

	// Blank registry
	UpdateText(ctx context.Context, id uint, req *UpdateTextRequest, userID string) (*SyncResult, error)
	UpdateBlankConfigs(ctx context.Context, id uint, req *UpdateBlankConfigsRequest, userID string) (*models.Question, error)
	Preview(ctx context.Context, req *PreviewRequest) (*PreviewResult, error)

	// Answer key
	SetCorrectAnswers(ctx context.Context, id uint, req *SetCorrectAnswersRequest, userID string) (*models.Question, error)
	SetOptions(ctx context.Context, id uint, req *SetOptionsRequest, userID string) (*models.Question, error)

	// Lifecycle
	Validate(ctx context.Context, id uint, userID string) (*fillblank.Report, error)
	Publish(ctx context.Context, id uint, userID string) (*models.Question, error)
	GetStudentView(ctx context.Context, id uint, userID string) (*models.StudentView, error)
}

type QuestionListResponse struct {
	Questions []*models.Question `json:"questions"`
	Total     int64              `json:"total"`
	Page      int                `json:"page"`
	Size      int                `json:"size"`
}

type questionService struct {
	repo      repositories.Repository
	cache     cache.CacheService
	publisher events.EventPublisher
	validator *validator.Validator
	logger    *ServiceLogger
	cacheTTL  time.Duration
}

func NewQuestionService(repo repositories.Repository, cacheService cache.CacheService, publisher events.EventPublisher,
	validator *validator.Validator, logger *slog.Logger, cacheTTL time.Duration) QuestionService {
	return &questionService{
		repo:      repo,
		cache:     cacheService,
		publisher: publisher,
		validator: validator,
		logger:    NewServiceLogger(logger, LogConfig{Service: "fill-blank-service", Component: "question"}),
		cacheTTL:  cacheTTL,
	}
}

// ===== CORE CRUD OPERATIONS =====

func (s *questionService) Create(ctx context.Context, req *CreateQuestionRequest, userID string) (q *models.Question, err error) {
	op := s.logger.WithOperation(ctx, "create_question", userID)
	defer func() { op.LogResult(questionID(q), err) }()

	if err = s.validator.Validate(req); err != nil {
		return nil, err
	}
	if err = s.validator.Question().ValidateText(req.Text); err != nil {
		return nil, err
	}

	question := &models.Question{
		Type:        req.Type,
		Text:        req.Text,
		Points:      req.Points,
		Explanation: req.Explanation,
		Status:      models.QuestionDraft,
		CreatedBy:   userID,
	}
	tmpl := question.Template()
	qv := s.validator.Question()

	if err = qv.ValidateBlankRefs(tmpl, "blanks", configBlankIDs(req.Blanks)); err != nil {
		return nil, err
	}

	switch req.Type {
	case models.FillBlankText:
		if len(req.Options) > 0 {
			return nil, fmt.Errorf("%w: free-text questions have no answer options", ErrQuestionWrongKind)
		}
		if err = qv.ValidateBlankRefs(tmpl, "correct_answers", answerBlankIDs(req.CorrectAnswers)); err != nil {
			return nil, err
		}
		err = question.SetTextConfigs(fillblank.SyncTextConfigs(tmpl, textConfigs(req.Blanks)))
		question.CorrectAnswers = answerModels(req.CorrectAnswers)
	case models.FillBlankDropdown:
		if len(req.CorrectAnswers) > 0 {
			return nil, fmt.Errorf("%w: dropdown questions are graded by their options", ErrQuestionWrongKind)
		}
		if err = qv.ValidateBlankRefs(tmpl, "answer_options", optionBlankIDs(req.Options)); err != nil {
			return nil, err
		}
		err = question.SetDropdownConfigs(fillblank.SyncDropdownConfigs(tmpl, dropdownConfigs(req.Blanks)))
		question.Options = optionModels(req.Options)
		for i := range question.Options {
			question.Options[i].ID = 0
		}
	default:
		return nil, ErrQuestionInvalidType
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode settings: %w", err)
	}

	if err = s.repo.Question().Create(ctx, nil, question); err != nil {
		return nil, err
	}
	return question, nil
}

// GetByID returns the author view including the answer key
func (s *questionService) GetByID(ctx context.Context, id uint, userID string) (*models.Question, error) {
	return s.loadOwned(ctx, nil, id, userID, "read")
}

// List returns the caller's questions, or only ready questions when listing
// another author.
func (s *questionService) List(ctx context.Context, filters models.QuestionFilters, userID string) (*QuestionListResponse, error) {
	filters.Normalize()
	if filters.CreatedBy == nil || *filters.CreatedBy != userID {
		ready := models.QuestionReady
		filters.Status = &ready
	}

	questions, total, err := s.repo.Question().List(ctx, nil, filters)
	if err != nil {
		return nil, err
	}
	return &QuestionListResponse{
		Questions: questions,
		Total:     total,
		Page:      filters.Page,
		Size:      filters.Limit,
	}, nil
}

func (s *questionService) Delete(ctx context.Context, id uint, userID string) (err error) {
	op := s.logger.WithOperation(ctx, "delete_question", userID)
	defer func() { op.LogResult(id, err) }()

	if _, err = s.loadOwned(ctx, nil, id, userID, "delete"); err != nil {
		return err
	}
	answers, err := s.repo.Answer().CountByQuestion(ctx, nil, id)
	if err != nil {
		return err
	}
	if answers > 0 {
		return NewBusinessRuleError("question_has_answers",
			"question has graded answers and cannot be deleted",
			map[string]interface{}{"question_id": id, "answer_count": answers})
	}
	if err = s.repo.Question().Delete(ctx, nil, id); err != nil {
		return mapNotFound(err, ErrQuestionNotFound)
	}
	s.invalidate(ctx, id)
	return nil
}

// ===== BLANK REGISTRY =====

// UpdateText stores new question text, syncs the blank configs and removes
// correct answers and options of blanks that no longer exist.
func (s *questionService) UpdateText(ctx context.Context, id uint, req *UpdateTextRequest, userID string) (res *SyncResult, err error) {
	op := s.logger.WithOperation(ctx, "update_question_text", userID)
	defer func() { op.LogResult(id, err) }()

	if err = s.validator.Validate(req); err != nil {
		return nil, err
	}
	if err = s.validator.Question().ValidateText(req.Text); err != nil {
		return nil, err
	}

	res = &SyncResult{}
	err = s.repo.Transaction(ctx, func(tx *gorm.DB) error {
		q, err := s.loadOwned(ctx, tx, id, userID, "update")
		if err != nil {
			return err
		}

		before := fillblank.BlankIDs(q.Template())
		q.Text = req.Text
		if _, err := q.SyncSettings(); err != nil {
			return fmt.Errorf("failed to encode settings: %w", err)
		}
		tmpl := q.Template()
		after := fillblank.BlankIDs(tmpl)

		answerRefs := make([]int, len(q.CorrectAnswers))
		for i, a := range q.CorrectAnswers {
			answerRefs[i] = a.BlankID
		}
		optionRefs := make([]int, len(q.Options))
		for i, o := range q.Options {
			optionRefs[i] = o.BlankID
		}

		if res.PrunedAnswers, err = s.repo.Question().DeleteCorrectAnswersByBlank(ctx, tx, q.ID, fillblank.OrphanedBlankIDs(tmpl, answerRefs)); err != nil {
			return err
		}
		if res.PrunedOptions, err = s.repo.Question().DeleteOptionsByBlank(ctx, tx, q.ID, fillblank.OrphanedBlankIDs(tmpl, optionRefs)); err != nil {
			return err
		}
		q.CorrectAnswers, _ = fillblank.Prune(tmpl, q.CorrectAnswers, func(a models.QuestionCorrectAnswer) int { return a.BlankID })
		q.Options, _ = fillblank.Prune(tmpl, q.Options, func(o models.AnswerOption) int { return o.BlankID })

		res.Report = s.refreshStatus(q)
		if err := s.repo.Question().Update(ctx, tx, q); err != nil {
			return err
		}

		res.Question = q
		res.BlankIDs = after
		res.AddedBlankIDs = difference(after, before)
		res.RemovedBlankIDs = difference(before, after)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, id)
	s.logger.LogBlankSync(ctx, id, res.AddedBlankIDs, res.RemovedBlankIDs, res.PrunedAnswers, res.PrunedOptions)
	s.publish(ctx, func() (*events.Event, error) {
		return events.NewBlanksSyncedEvent(events.BlanksSyncedEvent{
			QuestionID:      id,
			BlankIDs:        res.BlankIDs,
			AddedBlankIDs:   res.AddedBlankIDs,
			RemovedBlankIDs: res.RemovedBlankIDs,
			PrunedAnswers:   res.PrunedAnswers,
			PrunedOptions:   res.PrunedOptions,
		})
	})
	return res, nil
}

// UpdateBlankConfigs overwrites the label and placeholder of existing blanks.
// Fields left nil keep their current value.
func (s *questionService) UpdateBlankConfigs(ctx context.Context, id uint, req *UpdateBlankConfigsRequest, userID string) (q *models.Question, err error) {
	op := s.logger.WithOperation(ctx, "update_blank_configs", userID)
	defer func() { op.LogResult(id, err) }()

	if err = s.validator.Validate(req); err != nil {
		return nil, err
	}
	if q, err = s.loadOwned(ctx, nil, id, userID, "update"); err != nil {
		return nil, err
	}
	tmpl := q.Template()
	if err = s.validator.Question().ValidateBlankRefs(tmpl, "blanks", configBlankIDs(req.Blanks)); err != nil {
		return nil, err
	}

	updates := make(map[int]BlankConfigInput, len(req.Blanks))
	for _, b := range req.Blanks {
		updates[b.BlankID] = b
	}

	switch q.Type {
	case models.FillBlankDropdown:
		blanks := fillblank.SyncDropdownConfigs(tmpl, q.DropdownSettings().Blanks)
		for i := range blanks {
			if u, ok := updates[blanks[i].BlankID]; ok && u.Label != nil {
				blanks[i].Label = u.Label
			}
		}
		err = q.SetDropdownConfigs(blanks)
	default:
		blanks := fillblank.SyncTextConfigs(tmpl, q.TextSettings().Blanks)
		for i := range blanks {
			u, ok := updates[blanks[i].BlankID]
			if !ok {
				continue
			}
			if u.Label != nil {
				blanks[i].Label = u.Label
			}
			if u.Placeholder != nil {
				blanks[i].Placeholder = u.Placeholder
			}
		}
		err = q.SetTextConfigs(blanks)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode settings: %w", err)
	}

	if err = s.repo.Question().Update(ctx, nil, q); err != nil {
		return nil, err
	}
	s.invalidate(ctx, id)
	return q, nil
}

// Preview parses unsaved text and syncs the given configs against it
func (s *questionService) Preview(ctx context.Context, req *PreviewRequest) (*PreviewResult, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	tmpl := fillblank.Parse(req.Text)
	res := &PreviewResult{
		Template:    tmpl,
		BlankIDs:    fillblank.BlankIDs(tmpl),
		Occurrences: fillblank.CountBlanks(req.Text),
		Positions:   fillblank.Positions(req.Text),
		Rendered:    fillblank.Fill(tmpl, nil),
	}
	if req.Type == models.FillBlankDropdown {
		res.Blanks = fillblank.SyncDropdownConfigs(tmpl, dropdownConfigs(req.Blanks))
	} else {
		res.Blanks = fillblank.SyncTextConfigs(tmpl, textConfigs(req.Blanks))
	}
	return res, nil
}

// ===== ANSWER KEY =====

func (s *questionService) SetCorrectAnswers(ctx context.Context, id uint, req *SetCorrectAnswersRequest, userID string) (q *models.Question, err error) {
	op := s.logger.WithOperation(ctx, "set_correct_answers", userID)
	defer func() { op.LogResult(id, err) }()

	if err = s.validator.Validate(req); err != nil {
		return nil, err
	}

	err = s.repo.Transaction(ctx, func(tx *gorm.DB) error {
		current, err := s.loadOwned(ctx, tx, id, userID, "update")
		if err != nil {
			return err
		}
		if current.Type != models.FillBlankText {
			return fmt.Errorf("%w: correct answers apply to free-text questions", ErrQuestionWrongKind)
		}
		if err := s.validator.Question().ValidateBlankRefs(current.Template(), "correct_answers", answerBlankIDs(req.CorrectAnswers)); err != nil {
			return err
		}
		if err := s.repo.Question().ReplaceCorrectAnswers(ctx, tx, id, answerModels(req.CorrectAnswers)); err != nil {
			return err
		}
		q, err = s.reloadWithStatus(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, id)
	return q, nil
}

// SetOptions replaces the dropdown options. Options sent back with their id
// keep it, so stored selections stay valid.
func (s *questionService) SetOptions(ctx context.Context, id uint, req *SetOptionsRequest, userID string) (q *models.Question, err error) {
	op := s.logger.WithOperation(ctx, "set_options", userID)
	defer func() { op.LogResult(id, err) }()

	if err = s.validator.Validate(req); err != nil {
		return nil, err
	}

	err = s.repo.Transaction(ctx, func(tx *gorm.DB) error {
		current, err := s.loadOwned(ctx, tx, id, userID, "update")
		if err != nil {
			return err
		}
		if current.Type != models.FillBlankDropdown {
			return fmt.Errorf("%w: answer options apply to dropdown questions", ErrQuestionWrongKind)
		}
		if err := s.validator.Question().ValidateBlankRefs(current.Template(), "answer_options", optionBlankIDs(req.Options)); err != nil {
			return err
		}
		ids := make([]uint, len(req.Options))
		for i, o := range req.Options {
			ids[i] = o.ID
		}
		if err := s.validator.Question().ValidateOptionIDs(ids); err != nil {
			return err
		}
		if err := s.repo.Question().ReplaceOptions(ctx, tx, id, optionModels(req.Options)); err != nil {
			return err
		}
		q, err = s.reloadWithStatus(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, id)
	return q, nil
}

// ===== LIFECYCLE =====

func (s *questionService) Validate(ctx context.Context, id uint, userID string) (*fillblank.Report, error) {
	q, err := s.loadOwned(ctx, nil, id, userID, "validate")
	if err != nil {
		return nil, err
	}
	report := s.validator.Question().Report(q)
	return &report, nil
}

// Publish marks the question ready. Any error-level issue blocks it.
func (s *questionService) Publish(ctx context.Context, id uint, userID string) (q *models.Question, err error) {
	op := s.logger.WithOperation(ctx, "publish_question", userID)
	defer func() { op.LogResult(id, err) }()

	if q, err = s.loadOwned(ctx, nil, id, userID, "publish"); err != nil {
		return nil, err
	}
	if err = s.validator.Question().ValidateForPublish(q); err != nil {
		return nil, err
	}

	q.Status = models.QuestionReady
	if err = s.repo.Question().Update(ctx, nil, q); err != nil {
		return nil, err
	}

	s.invalidate(ctx, id)
	s.publish(ctx, func() (*events.Event, error) {
		return events.NewQuestionPublishedEvent(q, userID)
	})
	return q, nil
}

// GetStudentView returns the render model without the answer key. Authors may
// preview their drafts; everyone else only sees ready questions.
func (s *questionService) GetStudentView(ctx context.Context, id uint, userID string) (*models.StudentView, error) {
	key := cache.StudentViewKey(id)

	var cached models.StudentView
	if err := s.cache.Get(ctx, key, &cached); err == nil {
		return &cached, nil
	}

	q, err := s.repo.Question().GetByID(ctx, nil, id)
	if err != nil {
		return nil, mapNotFound(err, ErrQuestionNotFound)
	}
	if q.Status != models.QuestionReady && q.CreatedBy != userID {
		return nil, ErrQuestionNotReady
	}

	view := q.StudentView()
	if q.Status == models.QuestionReady {
		if err := s.cache.Set(ctx, key, view, s.cacheTTL); err != nil {
			s.logger.logger.Warn("Failed to cache student view", "question_id", id, "error", err)
		}
	}
	return &view, nil
}

// ===== HELPERS =====

func (s *questionService) loadOwned(ctx context.Context, tx *gorm.DB, id uint, userID, action string) (*models.Question, error) {
	q, err := s.repo.Question().GetByID(ctx, tx, id)
	if err != nil {
		return nil, mapNotFound(err, ErrQuestionNotFound)
	}
	if q.CreatedBy != userID {
		return nil, NewPermissionError(userID, id, "question", action, "not the question author")
	}
	return q, nil
}

// reloadWithStatus reloads a question after its key changed and demotes it to
// draft when the key no longer validates.
func (s *questionService) reloadWithStatus(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error) {
	q, err := s.repo.Question().GetByID(ctx, tx, id)
	if err != nil {
		return nil, mapNotFound(err, ErrQuestionNotFound)
	}
	if q.Status == models.QuestionReady {
		s.refreshStatus(q)
		if q.Status != models.QuestionReady {
			if err := s.repo.Question().Update(ctx, tx, q); err != nil {
				return nil, err
			}
		}
	}
	return q, nil
}

// refreshStatus demotes a ready question that no longer validates
func (s *questionService) refreshStatus(q *models.Question) fillblank.Report {
	report := s.validator.Question().Report(q)
	if q.Status == models.QuestionReady && !report.Ready() {
		q.Status = models.QuestionDraft
	}
	return report
}

func (s *questionService) invalidate(ctx context.Context, id uint) {
	if err := s.cache.DeletePattern(ctx, cache.QuestionPattern(id)); err != nil {
		s.logger.logger.Warn("Failed to invalidate question cache", "question_id", id, "error", err)
	}
}

// publish emits an event built by build. Failures are logged and never fail
// the operation that already committed.
func (s *questionService) publish(ctx context.Context, build func() (*events.Event, error)) {
	publishEvent(ctx, s.publisher, s.logger, build)
}

func publishEvent(ctx context.Context, publisher events.EventPublisher, logger *ServiceLogger, build func() (*events.Event, error)) {
	if publisher == nil {
		return
	}
	event, err := build()
	if err == nil {
		err = publisher.Publish(ctx, event)
	}
	if err != nil {
		logger.logger.Error("Failed to publish event", "error", err)
	}
}

// difference returns the ids of a missing from b, both sorted
func difference(a, b []int) []int {
	in := make(map[int]bool, len(b))
	for _, id := range b {
		in[id] = true
	}
	out := []int{}
	for _, id := range a {
		if !in[id] {
			out = append(out, id)
		}
	}
	return out
}

func questionID(q *models.Question) uint {
	if q == nil {
		return 0
	}
	return q.ID
}
