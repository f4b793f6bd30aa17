package seed

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	companydomain "github.com/smallbiznis/canopact/internal/company/domain"
	"github.com/smallbiznis/canopact/internal/config"
	"gorm.io/gorm"
)

const defaultCompanyName = "Demo"

// EnsureDemoCompany seeds a trial company with one user for local runs. Existing rows
// are kept; only missing Expensify credentials are filled in.
func EnsureDemoCompany(ctx context.Context, db *gorm.DB, node *snowflake.Node, now time.Time, cfg config.Config) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}
	if node == nil {
		return errors.New("seed id generator is required")
	}

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		company, err := ensureCompanyTx(ctx, tx, node, now, cfg.TrialPeriodDays)
		if err != nil {
			return err
		}
		return ensureUserTx(ctx, tx, node, now, company.ID, cfg.Bootstrap)
	})
}

func ensureCompanyTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, now time.Time, trialDays int) (companydomain.Company, error) {
	var company companydomain.Company
	err := tx.WithContext(ctx).Where("name = ?", defaultCompanyName).First(&company).Error
	if err == nil {
		return company, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return company, err
	}

	now = now.UTC()
	expires := now.AddDate(0, 0, trialDays)
	company = companydomain.Company{
		ID:             node.Generate(),
		Name:           defaultCompanyName,
		TrialActive:    true,
		TrialExpiresAt: &expires,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := tx.WithContext(ctx).Create(&company).Error; err != nil {
		return company, err
	}
	return company, nil
}

func ensureUserTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, now time.Time, companyID snowflake.ID, cfg config.BootstrapConfig) error {
	email := strings.ToLower(strings.TrimSpace(cfg.DemoEmail))
	if email == "" {
		return errors.New("seed email is required")
	}

	var user companydomain.User
	err := tx.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		now = now.UTC()
		user = companydomain.User{
			ID:                         node.Generate(),
			CompanyID:                  companyID,
			Email:                      email,
			ExpensifyPartnerUserID:     strings.TrimSpace(cfg.DemoPartnerUserID),
			ExpensifyPartnerUserSecret: strings.TrimSpace(cfg.DemoPartnerUserSecret),
			CreatedAt:                  now,
			UpdatedAt:                  now,
		}
		return tx.WithContext(ctx).Create(&user).Error
	}

	if user.ExpensifyPartnerUserID != "" || cfg.DemoPartnerUserID == "" {
		return nil
	}
	return tx.WithContext(ctx).Model(&user).Updates(map[string]any{
		"expensify_partner_user_id":     strings.TrimSpace(cfg.DemoPartnerUserID),
		"expensify_partner_user_secret": strings.TrimSpace(cfg.DemoPartnerUserSecret),
		"updated_at":                    now.UTC(),
	}).Error
}
