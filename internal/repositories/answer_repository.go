package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/fill-blank-service/internal/models"
)

// AnswerRepository persists graded student answers
type AnswerRepository interface {
	Create(ctx context.Context, tx *gorm.DB, answer *models.StudentAnswer) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.StudentAnswer, error)
	Update(ctx context.Context, tx *gorm.DB, answer *models.StudentAnswer) error
	ListByQuestion(ctx context.Context, tx *gorm.DB, questionID uint, filters models.AnswerFilters) ([]*models.StudentAnswer, int64, error)
	CountByQuestion(ctx context.Context, tx *gorm.DB, questionID uint) (int64, error)
}
