package services

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"github.com/SAP-F-2025/fill-blank-service/internal/cache"
	"github.com/SAP-F-2025/fill-blank-service/internal/events"
	"github.com/SAP-F-2025/fill-blank-service/internal/models"
	"github.com/SAP-F-2025/fill-blank-service/internal/repositories"
	"github.com/SAP-F-2025/fill-blank-service/internal/repositories/postgres"
	"github.com/SAP-F-2025/fill-blank-service/internal/validator"
	"github.com/SAP-F-2025/fill-blank-service/pkg"
)

const (
	author  = "teacher-1"
	student = "student-1"
)

// MockCache is a mock implementation of cache.CacheService
type MockCache struct {
	mock.Mock
}

func (m *MockCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

func (m *MockCache) Get(ctx context.Context, key string, dest interface{}) error {
	args := m.Called(ctx, key, dest)
	return args.Error(0)
}

func (m *MockCache) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockCache) DeletePattern(ctx context.Context, pattern string) error {
	args := m.Called(ctx, pattern)
	return args.Error(0)
}

type testEnv struct {
	repo      repositories.Repository
	publisher *events.MockEventPublisher
	manager   ServiceManager
}

func newTestEnv(t *testing.T, cacheService cache.CacheService) *testEnv {
	t.Helper()

	db, err := pkg.OpenDatabase("sqlite", ":memory:", logger.Silent)
	require.NoError(t, err)
	require.NoError(t, pkg.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := postgres.NewRepository(db)
	publisher := events.NewMockEventPublisher(nil)

	return &testEnv{
		repo:      repo,
		publisher: publisher,
		manager:   NewServiceManager(repo, cacheService, publisher, validator.New(), log, ManagerConfig{CacheTTL: time.Minute}),
	}
}

func boolPtr(b bool) *bool { return &b }

func strPtr(s string) *string { return &s }

// createCapitals stores a ready-to-publish free-text question
func (e *testEnv) createCapitals(t *testing.T) *models.Question {
	t.Helper()
	q, err := e.manager.Question().Create(context.Background(), &CreateQuestionRequest{
		Type:   models.FillBlankText,
		Text:   "{BLANK_1} is the capital of {BLANK_2}.",
		Points: 4,
		CorrectAnswers: []CorrectAnswerInput{
			{BlankID: 1, AnswerText: "Paris"},
			{BlankID: 2, AnswerText: "France"},
		},
	}, author)
	require.NoError(t, err)
	return q
}

// createColors stores a ready-to-publish dropdown question
func (e *testEnv) createColors(t *testing.T) *models.Question {
	t.Helper()
	q, err := e.manager.Question().Create(context.Background(), &CreateQuestionRequest{
		Type:   models.FillBlankDropdown,
		Text:   "The sky is {BLANK_1} and grass is {BLANK_2}.",
		Points: 2,
		Options: []OptionInput{
			{BlankID: 1, OptionText: "blue", IsCorrect: true, OrderIndex: 0},
			{BlankID: 1, OptionText: "green", OrderIndex: 1},
			{BlankID: 2, OptionText: "blue", OrderIndex: 0},
			{BlankID: 2, OptionText: "green", IsCorrect: true, OrderIndex: 1},
		},
	}, author)
	require.NoError(t, err)
	return q
}

func (e *testEnv) publish(t *testing.T, id uint) {
	t.Helper()
	_, err := e.manager.Question().Publish(context.Background(), id, author)
	require.NoError(t, err)
}

// optionID finds the stored id of an option by blank and text
func optionID(t *testing.T, q *models.Question, blankID int, text string) uint {
	t.Helper()
	for _, o := range q.Options {
		if o.BlankID == blankID && o.OptionText == text {
			return o.ID
		}
	}
	t.Fatalf("option %q of blank %d not found", text, blankID)
	return 0
}
