package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	ListPending(ctx context.Context, db *gorm.DB, limit int) ([]PendingRoute, error)
	Upsert(ctx context.Context, db *gorm.DB, carbon *Carbon) error
	DeleteByExpenseID(ctx context.Context, db *gorm.DB, expenseID int64) error
}
