package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	FindUser(ctx context.Context, db *gorm.DB, userID snowflake.ID) (*User, error)
	FindCompany(ctx context.Context, db *gorm.DB, companyID snowflake.ID) (*Company, error)
	ListMemberIDs(ctx context.Context, db *gorm.DB, companyID snowflake.ID) ([]snowflake.ID, error)
	ListIngestionAccounts(ctx context.Context, db *gorm.DB) ([]IngestionAccount, error)
	ExpireTrials(ctx context.Context, db *gorm.DB, now time.Time) (int64, error)
}
