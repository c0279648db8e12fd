package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/fill-blank-service/internal/repositories"
)

type repository struct {
	db       *gorm.DB
	question repositories.QuestionRepository
	answer   repositories.AnswerRepository
}

// NewRepository wires the gorm repositories on one database handle
func NewRepository(db *gorm.DB) repositories.Repository {
	return &repository{
		db:       db,
		question: NewQuestionPostgreSQL(db),
		answer:   NewAnswerPostgreSQL(db),
	}
}

func (r *repository) Question() repositories.QuestionRepository { return r.question }
func (r *repository) Answer() repositories.AnswerRepository     { return r.answer }
func (r *repository) DB() *gorm.DB                              { return r.db }

func (r *repository) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}
