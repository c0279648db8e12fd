package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/SAP-F-2025/fill-blank-service/internal/models"
	"github.com/SAP-F-2025/fill-blank-service/internal/repositories"
)

type QuestionPostgreSQL struct {
	db *gorm.DB
}

func NewQuestionPostgreSQL(db *gorm.DB) repositories.QuestionRepository {
	return &QuestionPostgreSQL{db: db}
}

// Create inserts the question together with any correct answers or options it carries
func (q *QuestionPostgreSQL) Create(ctx context.Context, tx *gorm.DB, question *models.Question) error {
	db := q.getDB(tx)
	if err := db.WithContext(ctx).Create(question).Error; err != nil {
		return fmt.Errorf("failed to create question: %w", err)
	}
	return nil
}

func (q *QuestionPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error) {
	db := q.getDB(tx)
	var question models.Question
	if err := q.withKey(db.WithContext(ctx)).First(&question, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("question %d: %w", id, repositories.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get question: %w", err)
	}
	return &question, nil
}

func (q *QuestionPostgreSQL) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uint) ([]*models.Question, error) {
	if len(ids) == 0 {
		return []*models.Question{}, nil
	}
	db := q.getDB(tx)
	var questions []*models.Question
	if err := q.withKey(db.WithContext(ctx)).Where("id IN ?", ids).Order("id").Find(&questions).Error; err != nil {
		return nil, fmt.Errorf("failed to get questions: %w", err)
	}
	return questions, nil
}

// Update saves the question row. Correct answers and options are managed by
// ReplaceCorrectAnswers and ReplaceOptions.
func (q *QuestionPostgreSQL) Update(ctx context.Context, tx *gorm.DB, question *models.Question) error {
	db := q.getDB(tx)
	if err := db.WithContext(ctx).Omit(clause.Associations).Save(question).Error; err != nil {
		return fmt.Errorf("failed to update question: %w", err)
	}
	return nil
}

func (q *QuestionPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	db := q.getDB(tx)
	result := db.WithContext(ctx).Delete(&models.Question{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete question: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("question %d: %w", id, repositories.ErrNotFound)
	}
	return nil
}

func (q *QuestionPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters models.QuestionFilters) ([]*models.Question, int64, error) {
	db := q.getDB(tx)
	var questions []*models.Question
	var total int64

	// apply filter first
	query := db.WithContext(ctx).Model(&models.Question{})
	query = q.applyFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count questions: %w", err)
	}

	// then apply pagination and sorting
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}
	if err := query.Order("id DESC").Find(&questions).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list questions: %w", err)
	}

	return questions, total, nil
}

// ReplaceCorrectAnswers swaps the whole free-text key of a question
func (q *QuestionPostgreSQL) ReplaceCorrectAnswers(ctx context.Context, tx *gorm.DB, questionID uint, answers []models.QuestionCorrectAnswer) error {
	return q.inTx(ctx, tx, func(db *gorm.DB) error {
		if err := db.Where("question_id = ?", questionID).Delete(&models.QuestionCorrectAnswer{}).Error; err != nil {
			return fmt.Errorf("failed to clear correct answers: %w", err)
		}
		if len(answers) == 0 {
			return nil
		}
		rows := make([]models.QuestionCorrectAnswer, len(answers))
		for i, a := range answers {
			a.ID = 0
			a.QuestionID = questionID
			rows[i] = a
		}
		if err := db.Create(&rows).Error; err != nil {
			return fmt.Errorf("failed to create correct answers: %w", err)
		}
		return nil
	})
}

// ReplaceOptions makes the stored options of a question equal to options.
// Options carrying the id of an existing option of the same question are
// updated in place so stored selections keep pointing at them. Others are
// inserted, and stored options not listed are removed.
func (q *QuestionPostgreSQL) ReplaceOptions(ctx context.Context, tx *gorm.DB, questionID uint, options []models.AnswerOption) error {
	return q.inTx(ctx, tx, func(db *gorm.DB) error {
		var existing []uint
		if err := db.Model(&models.AnswerOption{}).Where("question_id = ?", questionID).Pluck("id", &existing).Error; err != nil {
			return fmt.Errorf("failed to load options: %w", err)
		}
		owned := make(map[uint]bool, len(existing))
		for _, id := range existing {
			owned[id] = true
		}

		keep := make([]uint, 0, len(options))
		for i := range options {
			opt := &options[i]
			opt.QuestionID = questionID
			if opt.ID != 0 && owned[opt.ID] {
				err := db.Model(&models.AnswerOption{}).Where("id = ?", opt.ID).Updates(map[string]interface{}{
					"blank_id":    opt.BlankID,
					"option_text": opt.OptionText,
					"is_correct":  opt.IsCorrect,
					"order_index": opt.OrderIndex,
				}).Error
				if err != nil {
					return fmt.Errorf("failed to update option %d: %w", opt.ID, err)
				}
				keep = append(keep, opt.ID)
				continue
			}
			opt.ID = 0
			if err := db.Create(opt).Error; err != nil {
				return fmt.Errorf("failed to create option: %w", err)
			}
			keep = append(keep, opt.ID)
		}

		del := db.Where("question_id = ?", questionID)
		if len(keep) > 0 {
			del = del.Where("id NOT IN ?", keep)
		}
		if err := del.Delete(&models.AnswerOption{}).Error; err != nil {
			return fmt.Errorf("failed to remove options: %w", err)
		}
		return nil
	})
}

func (q *QuestionPostgreSQL) DeleteCorrectAnswersByBlank(ctx context.Context, tx *gorm.DB, questionID uint, blankIDs []int) (int64, error) {
	if len(blankIDs) == 0 {
		return 0, nil
	}
	db := q.getDB(tx)
	result := db.WithContext(ctx).
		Where("question_id = ? AND blank_id IN ?", questionID, blankIDs).
		Delete(&models.QuestionCorrectAnswer{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete correct answers: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (q *QuestionPostgreSQL) DeleteOptionsByBlank(ctx context.Context, tx *gorm.DB, questionID uint, blankIDs []int) (int64, error) {
	if len(blankIDs) == 0 {
		return 0, nil
	}
	db := q.getDB(tx)
	result := db.WithContext(ctx).
		Where("question_id = ? AND blank_id IN ?", questionID, blankIDs).
		Delete(&models.AnswerOption{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete options: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// ===== HELPERS =====

func (q *QuestionPostgreSQL) withKey(db *gorm.DB) *gorm.DB {
	return db.
		Preload("CorrectAnswers", func(db *gorm.DB) *gorm.DB {
			return db.Order("blank_id, id")
		}).
		Preload("Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("blank_id, order_index, id")
		})
}

func (q *QuestionPostgreSQL) applyFilters(query *gorm.DB, filters models.QuestionFilters) *gorm.DB {
	if filters.Type != nil {
		query = query.Where("type = ?", *filters.Type)
	}
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.CreatedBy != nil {
		query = query.Where("created_by = ?", *filters.CreatedBy)
	}
	if filters.Search != nil && *filters.Search != "" {
		query = query.Where("LOWER(text) LIKE ?", "%"+strings.ToLower(*filters.Search)+"%")
	}
	return query
}

// inTx runs fn on tx when given, otherwise in a fresh transaction
func (q *QuestionPostgreSQL) inTx(ctx context.Context, tx *gorm.DB, fn func(db *gorm.DB) error) error {
	if tx != nil {
		return fn(tx.WithContext(ctx))
	}
	return q.db.WithContext(ctx).Transaction(fn)
}

func (q *QuestionPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return q.db
}
