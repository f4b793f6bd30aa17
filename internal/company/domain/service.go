package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

// Service is the identity and subscription boundary the carbon pipeline reads from.
type Service interface {
	GetUser(ctx context.Context, userID snowflake.ID) (*User, error)
	MemberIDs(ctx context.Context, companyID snowflake.ID) ([]snowflake.ID, error)
	ListIngestionAccounts(ctx context.Context) ([]IngestionAccount, error)
	TrialActive(ctx context.Context, companyID snowflake.ID) (bool, error)
	ExpireTrials(ctx context.Context, now time.Time) (int64, error)
}

var (
	ErrInvalidUser    = errors.New("invalid_user")
	ErrInvalidCompany = errors.New("invalid_company")
	ErrUserNotFound   = errors.New("user_not_found")
	ErrNotFound       = errors.New("not_found")
)
