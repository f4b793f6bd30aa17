package repository

import (
	"context"

	emissionsdomain "github.com/smallbiznis/canopact/internal/emissions/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() emissionsdomain.Repository {
	return &repo{}
}

func (r *repo) ListPending(ctx context.Context, db *gorm.DB, limit int) ([]emissionsdomain.PendingRoute, error) {
	var rows []emissionsdomain.PendingRoute
	err := db.WithContext(ctx).Raw(
		`SELECT r.expense_id, r.origin, r.destination, r.category, r.distance
		 FROM routes r
		 WHERE r.distance IS NOT NULL
		   AND NOT EXISTS (SELECT 1 FROM carbon c WHERE c.expense_id = r.expense_id)
		 ORDER BY r.expense_id ASC
		 LIMIT ?`,
		limit,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repo) Upsert(ctx context.Context, db *gorm.DB, carbon *emissionsdomain.Carbon) error {
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "expense_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"origin", "destination", "category", "distance", "co2e", "co2", "ch4", "n2o",
		}),
	}).Create(carbon).Error
}

func (r *repo) DeleteByExpenseID(ctx context.Context, db *gorm.DB, expenseID int64) error {
	return db.WithContext(ctx).Exec(`DELETE FROM carbon WHERE expense_id = ?`, expenseID).Error
}
