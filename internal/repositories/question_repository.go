package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/fill-blank-service/internal/models"
)

// QuestionRepository persists fill-blank questions with their answer keys
type QuestionRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, tx *gorm.DB, question *models.Question) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error) // includes correct answers and options
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uint) ([]*models.Question, error)
	Update(ctx context.Context, tx *gorm.DB, question *models.Question) error // question row only
	Delete(ctx context.Context, tx *gorm.DB, id uint) error

	// Query operations
	List(ctx context.Context, tx *gorm.DB, filters models.QuestionFilters) ([]*models.Question, int64, error)

	// Answer key management
	ReplaceCorrectAnswers(ctx context.Context, tx *gorm.DB, questionID uint, answers []models.QuestionCorrectAnswer) error
	ReplaceOptions(ctx context.Context, tx *gorm.DB, questionID uint, options []models.AnswerOption) error
	DeleteCorrectAnswersByBlank(ctx context.Context, tx *gorm.DB, questionID uint, blankIDs []int) (int64, error)
	DeleteOptionsByBlank(ctx context.Context, tx *gorm.DB, questionID uint, blankIDs []int) (int64, error)
}
