package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/fill-blank-service/internal/fillblank"
)

// ServiceLogger provides structured logging for service layer operations
type ServiceLogger struct {
	logger *slog.Logger
	config LogConfig
}

type LogConfig struct {
	Service     string
	Component   string
	EnableDebug bool
}

func NewServiceLogger(logger *slog.Logger, config LogConfig) *ServiceLogger {
	return &ServiceLogger{
		logger: logger.With("service", config.Service, "component", config.Component),
		config: config,
	}
}

// ===== OPERATION LOGGING =====

func (l *ServiceLogger) LogOperation(ctx context.Context, operation, userID string, resourceID uint, duration time.Duration, err error) {
	level := slog.LevelInfo
	status := "success"

	if err != nil {
		level = slog.LevelError
		status = "error"

		switch {
		case IsValidation(err) || IsBusinessRule(err):
			level = slog.LevelWarn
			status = "validation_error"
		case IsUnauthorized(err):
			level = slog.LevelWarn
			status = "unauthorized"
		case IsNotFound(err):
			level = slog.LevelInfo
			status = "not_found"
		}
	}

	attrs := []slog.Attr{
		slog.String("operation", operation),
		slog.String("user_id", userID),
		slog.Uint64("resource_id", uint64(resourceID)),
		slog.String("status", status),
		slog.Duration("duration", duration),
	}

	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))

		var ve ValidationErrors
		var bre *BusinessRuleError
		var pe *PermissionError
		switch {
		case errors.As(err, &ve):
			attrs = append(attrs, slog.Int("validation_errors_count", len(ve)))
		case errors.As(err, &bre):
			attrs = append(attrs, slog.String("business_rule", bre.Rule))
		case errors.As(err, &pe):
			attrs = append(attrs, slog.String("permission_action", pe.Action))
		}
	}

	l.logger.LogAttrs(ctx, level, fmt.Sprintf("%s operation %s", operation, status), attrs...)
}

func (l *ServiceLogger) LogValidationError(ctx context.Context, operation, userID string, validationErrors ValidationErrors) {
	attrs := []slog.Attr{
		slog.String("operation", operation),
		slog.String("user_id", userID),
		slog.Int("error_count", len(validationErrors)),
	}

	for i, err := range validationErrors {
		if i >= 5 {
			break
		}
		group := []any{
			slog.String("field", err.Field),
			slog.String("message", err.Message),
			slog.String("rule", err.Rule),
		}
		if err.BlankID != nil {
			group = append(group, slog.Int("blank_id", *err.BlankID))
		}
		attrs = append(attrs, slog.Group(fmt.Sprintf("error_%d", i+1), group...))
	}

	l.logger.LogAttrs(ctx, slog.LevelWarn, "Validation failed", attrs...)
}

func (l *ServiceLogger) LogBusinessRuleViolation(ctx context.Context, operation, userID string, rule *BusinessRuleError) {
	attrs := []slog.Attr{
		slog.String("operation", operation),
		slog.String("user_id", userID),
		slog.String("rule", rule.Rule),
		slog.String("message", rule.Message),
	}
	for key, value := range rule.Context {
		attrs = append(attrs, slog.Any("context_"+key, value))
	}

	l.logger.LogAttrs(ctx, slog.LevelWarn, "Business rule violation", attrs...)
}

func (l *ServiceLogger) LogPermissionDenied(ctx context.Context, operation string, permError *PermissionError) {
	l.logger.LogAttrs(ctx, slog.LevelWarn, "Permission denied",
		slog.String("operation", operation),
		slog.String("user_id", permError.UserID),
		slog.Uint64("resource_id", uint64(permError.ResourceID)),
		slog.String("resource_type", permError.Resource),
		slog.String("action", permError.Action),
		slog.String("reason", permError.Reason),
	)
}

// ===== DOMAIN LOGGING =====

// LogGrading records the outcome of one evaluation. Ungraded blanks are logged
// at warn level because they point at an incomplete answer key.
func (l *ServiceLogger) LogGrading(ctx context.Context, questionID uint, studentID string, result fillblank.Result) {
	level := slog.LevelInfo
	if result.NeedsAttention() {
		level = slog.LevelWarn
	}
	l.logger.LogAttrs(ctx, level, "Answer evaluated",
		slog.Uint64("question_id", uint64(questionID)),
		slog.String("student_id", studentID),
		slog.Bool("all_correct", result.AllCorrect),
		slog.Any("correct", result.Correct()),
		slog.Any("incorrect", result.Incorrect()),
		slog.Any("ungraded", result.Ungraded()),
	)
}

// LogBlankSync records how a text edit changed the blank registry
func (l *ServiceLogger) LogBlankSync(ctx context.Context, questionID uint, added, removed []int, prunedAnswers, prunedOptions int64) {
	if !l.config.EnableDebug && len(added) == 0 && len(removed) == 0 {
		return
	}
	l.logger.LogAttrs(ctx, slog.LevelInfo, "Blank registry synced",
		slog.Uint64("question_id", uint64(questionID)),
		slog.Any("added", added),
		slog.Any("removed", removed),
		slog.Int64("pruned_answers", prunedAnswers),
		slog.Int64("pruned_options", prunedOptions),
	)
}

// ===== HELPERS =====

// ContextualLogger times one operation and logs its result
type ContextualLogger struct {
	logger    *ServiceLogger
	operation string
	userID    string
	startTime time.Time
	ctx       context.Context
}

func (l *ServiceLogger) WithOperation(ctx context.Context, operation, userID string) *ContextualLogger {
	return &ContextualLogger{
		logger:    l,
		operation: operation,
		userID:    userID,
		startTime: time.Now(),
		ctx:       ctx,
	}
}

func (cl *ContextualLogger) LogResult(resourceID uint, err error) {
	cl.logger.LogOperation(cl.ctx, cl.operation, cl.userID, resourceID, time.Since(cl.startTime), err)

	if err == nil {
		return
	}
	var ve ValidationErrors
	var bre *BusinessRuleError
	var pe *PermissionError
	switch {
	case errors.As(err, &ve):
		cl.logger.LogValidationError(cl.ctx, cl.operation, cl.userID, ve)
	case errors.As(err, &bre):
		cl.logger.LogBusinessRuleViolation(cl.ctx, cl.operation, cl.userID, bre)
	case errors.As(err, &pe):
		cl.logger.LogPermissionDenied(cl.ctx, cl.operation, pe)
	}
}
