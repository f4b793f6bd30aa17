package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	companydomain "github.com/smallbiznis/canopact/internal/company/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() companydomain.Repository {
	return &repo{}
}

func (r *repo) FindUser(ctx context.Context, db *gorm.DB, userID snowflake.ID) (*companydomain.User, error) {
	var user companydomain.User
	err := db.WithContext(ctx).Raw(
		`SELECT id, company_id, email, expensify_partner_user_id, expensify_partner_user_secret, created_at, updated_at
		 FROM users WHERE id = ?`,
		userID,
	).Scan(&user).Error
	if err != nil {
		return nil, err
	}
	if user.ID == 0 {
		return nil, nil
	}
	return &user, nil
}

func (r *repo) FindCompany(ctx context.Context, db *gorm.DB, companyID snowflake.ID) (*companydomain.Company, error) {
	var company companydomain.Company
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, trial_active, trial_expires_at, subscribed, created_at, updated_at
		 FROM companies WHERE id = ?`,
		companyID,
	).Scan(&company).Error
	if err != nil {
		return nil, err
	}
	if company.ID == 0 {
		return nil, nil
	}
	return &company, nil
}

func (r *repo) ListMemberIDs(ctx context.Context, db *gorm.DB, companyID snowflake.ID) ([]snowflake.ID, error) {
	var ids []snowflake.ID
	err := db.WithContext(ctx).Raw(
		`SELECT id FROM users WHERE company_id = ? ORDER BY id ASC`,
		companyID,
	).Scan(&ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *repo) ListIngestionAccounts(ctx context.Context, db *gorm.DB) ([]companydomain.IngestionAccount, error) {
	var accounts []companydomain.IngestionAccount
	err := db.WithContext(ctx).Raw(
		`SELECT id AS user_id, company_id,
		        COALESCE(expensify_partner_user_id, '') AS partner_user_id,
		        COALESCE(expensify_partner_user_secret, '') AS partner_user_secret
		 FROM users
		 ORDER BY id ASC`,
	).Scan(&accounts).Error
	if err != nil {
		return nil, err
	}
	return accounts, nil
}

func (r *repo) ExpireTrials(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE companies
		 SET trial_active = ?, updated_at = ?
		 WHERE trial_active = ? AND trial_expires_at IS NOT NULL AND trial_expires_at <= ?`,
		false,
		now,
		true,
		now,
	)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
