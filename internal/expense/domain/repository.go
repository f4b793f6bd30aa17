package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	UpsertReport(ctx context.Context, db *gorm.DB, report *Report) error
	UpsertExpense(ctx context.Context, db *gorm.DB, expense *Expense) error
	FindByID(ctx context.Context, db *gorm.DB, expenseID int64) (*Expense, error)
	ListPendingRoutes(ctx context.Context, db *gorm.DB, limit int) ([]Expense, error)
}
