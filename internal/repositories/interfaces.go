package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// ErrNotFound is wrapped by repositories when a lookup matches no row
var ErrNotFound = errors.New("record not found")

// Repository aggregates the repositories sharing one database handle.
// Every repository method accepts an optional transaction; nil runs on the
// root handle.
type Repository interface {
	Question() QuestionRepository
	Answer() AnswerRepository

	// Transaction runs fn inside a database transaction
	Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error
	DB() *gorm.DB
}
