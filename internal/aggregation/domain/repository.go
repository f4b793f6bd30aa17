package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	SumEmissions(ctx context.Context, db *gorm.DB, userIDs []snowflake.ID, window Window) (Totals, error)
	SumCost(ctx context.Context, db *gorm.DB, userIDs []snowflake.ID, window Window) (float64, error)
	ListJourneys(ctx context.Context, db *gorm.DB, userIDs []snowflake.ID, window Window) ([]Journey, error)
	GroupByTransport(ctx context.Context, db *gorm.DB, userIDs []snowflake.ID, window Window) ([]GroupRow, error)
	GroupByRoute(ctx context.Context, db *gorm.DB, userIDs []snowflake.ID, window Window) ([]GroupRow, error)
}
