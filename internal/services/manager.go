package services

import (
	"log/slog"
	"time"

	"github.com/SAP-F-2025/fill-blank-service/internal/cache"
	"github.com/SAP-F-2025/fill-blank-service/internal/events"
	"github.com/SAP-F-2025/fill-blank-service/internal/repositories"
	"github.com/SAP-F-2025/fill-blank-service/internal/validator"
)

// ServiceManager gives handlers access to every service
type ServiceManager interface {
	Question() QuestionService
	Grading() GradingService
	ImportExport() ImportExportService
}

type ManagerConfig struct {
	// CacheTTL bounds how long a rendered student view is cached
	CacheTTL time.Duration
}

type serviceManager struct {
	question     QuestionService
	grading      GradingService
	importExport ImportExportService
}

func NewServiceManager(
	repo repositories.Repository,
	cacheService cache.CacheService,
	publisher events.EventPublisher,
	validator *validator.Validator,
	logger *slog.Logger,
	config ManagerConfig,
) ServiceManager {
	if cacheService == nil {
		cacheService = cache.NewNoopCache()
	}
	if config.CacheTTL <= 0 {
		config.CacheTTL = 10 * time.Minute
	}

	question := NewQuestionService(repo, cacheService, publisher, validator, logger, config.CacheTTL)
	return &serviceManager{
		question:     question,
		grading:      NewGradingService(repo, publisher, validator, logger),
		importExport: NewImportExportService(repo, question, logger),
	}
}

func (m *serviceManager) Question() QuestionService         { return m.question }
func (m *serviceManager) Grading() GradingService           { return m.grading }
func (m *serviceManager) ImportExport() ImportExportService { return m.importExport }
