// Package repo holds the small amount of plumbing the domain repositories
// share on top of GORM.
package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base carries a GORM handle that may be swapped for a transaction.
type Base struct {
	db *gorm.DB
}

func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// DB returns the handle bound to ctx.
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}

// WithTx rebinds to tx; nil keeps the current handle.
func (b Base) WithTx(tx *gorm.DB) Base {
	if tx == nil {
		return b
	}
	return Base{db: tx}
}

// First loads the first T matching query. A miss surfaces as
// gorm.ErrRecordNotFound so services can map it to their own not-found code.
func First[T any](q *gorm.DB, query string, args ...any) (*T, error) {
	var row T
	if err := q.Where(query, args...).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// ByID is First keyed on the primary key column.
func ByID[T any](q *gorm.DB, id uuid.UUID) (*T, error) {
	return First[T](q, "id = ?", id)
}

// DeleteIn removes every T whose column is in values and reports how many
// rows went. An empty set is a no-op.
func DeleteIn[T any, V any](q *gorm.DB, column string, values []V) (int64, error) {
	if len(values) == 0 {
		return 0, nil
	}
	res := q.Where(column+" IN ?", values).Delete(new(T))
	return res.RowsAffected, res.Error
}
