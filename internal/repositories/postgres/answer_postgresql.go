package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/SAP-F-2025/fill-blank-service/internal/models"
	"github.com/SAP-F-2025/fill-blank-service/internal/repositories"
)

type AnswerPostgreSQL struct {
	db *gorm.DB
}

func NewAnswerPostgreSQL(db *gorm.DB) repositories.AnswerRepository {
	return &AnswerPostgreSQL{db: db}
}

func (a *AnswerPostgreSQL) Create(ctx context.Context, tx *gorm.DB, answer *models.StudentAnswer) error {
	db := a.getDB(tx)
	if err := db.WithContext(ctx).Omit(clause.Associations).Create(answer).Error; err != nil {
		return fmt.Errorf("failed to create answer: %w", err)
	}
	return nil
}

func (a *AnswerPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.StudentAnswer, error) {
	db := a.getDB(tx)
	var answer models.StudentAnswer
	if err := db.WithContext(ctx).First(&answer, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("answer %d: %w", id, repositories.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get answer: %w", err)
	}
	return &answer, nil
}

func (a *AnswerPostgreSQL) Update(ctx context.Context, tx *gorm.DB, answer *models.StudentAnswer) error {
	db := a.getDB(tx)
	if err := db.WithContext(ctx).Omit(clause.Associations).Save(answer).Error; err != nil {
		return fmt.Errorf("failed to update answer: %w", err)
	}
	return nil
}

func (a *AnswerPostgreSQL) ListByQuestion(ctx context.Context, tx *gorm.DB, questionID uint, filters models.AnswerFilters) ([]*models.StudentAnswer, int64, error) {
	db := a.getDB(tx)
	var answers []*models.StudentAnswer
	var total int64

	query := db.WithContext(ctx).Model(&models.StudentAnswer{}).Where("question_id = ?", questionID)
	if filters.StudentID != nil {
		query = query.Where("student_id = ?", *filters.StudentID)
	}
	if filters.NeedsReview != nil {
		query = query.Where("needs_review = ?", *filters.NeedsReview)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count answers: %w", err)
	}

	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}
	if err := query.Order("id").Find(&answers).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list answers: %w", err)
	}
	return answers, total, nil
}

func (a *AnswerPostgreSQL) CountByQuestion(ctx context.Context, tx *gorm.DB, questionID uint) (int64, error) {
	db := a.getDB(tx)
	var count int64
	if err := db.WithContext(ctx).Model(&models.StudentAnswer{}).Where("question_id = ?", questionID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count answers: %w", err)
	}
	return count, nil
}

func (a *AnswerPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return a.db
}
