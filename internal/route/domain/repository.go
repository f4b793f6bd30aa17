package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, route *Route) error
	FindByExpenseID(ctx context.Context, db *gorm.DB, expenseID int64) (*Route, error)
	// FindOwner returns the user who filed the expense, or 0 when it does not exist.
	FindOwner(ctx context.Context, db *gorm.DB, expenseID int64) (snowflake.ID, error)
	ExistsPair(ctx context.Context, db *gorm.DB, origin, destination string) (bool, error)
	ListForCleaning(ctx context.Context, db *gorm.DB, filter CleanerFilter) ([]CleanerRow, error)
	UpdateEndpoints(ctx context.Context, db *gorm.DB, route *Route) error
	DeleteCarbon(ctx context.Context, db *gorm.DB, expenseID int64) error
}
