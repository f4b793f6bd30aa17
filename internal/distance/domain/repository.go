package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type Repository interface {
	ListPending(ctx context.Context, db *gorm.DB, limit int) ([]Lookup, error)
	SaveResolved(ctx context.Context, db *gorm.DB, expenseID int64, km float64, now time.Time) error
	MarkInvalid(ctx context.Context, db *gorm.DB, expenseID int64, now time.Time) error
}
