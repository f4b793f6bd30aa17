package repository

import (
	"context"
	"time"

	distancedomain "github.com/smallbiznis/canopact/internal/distance/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() distancedomain.Repository {
	return &repo{}
}

// ListPending returns routes that were never resolved. Rows already marked invalid
// wait for the cleaner.
func (r *repo) ListPending(ctx context.Context, db *gorm.DB, limit int) ([]distancedomain.Lookup, error) {
	var rows []distancedomain.Lookup
	err := db.WithContext(ctx).Raw(
		`SELECT r.expense_id, r.category, r.route_category, r.origin, r.destination,
		        r.return_type, e.unit_count, e.unit
		 FROM routes r
		 JOIN expenses e ON e.expense_id = r.expense_id
		 WHERE r.distance IS NULL
		   AND r.invalid = ?
		 ORDER BY r.expense_id ASC
		 LIMIT ?`,
		false,
		limit,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repo) SaveResolved(ctx context.Context, db *gorm.DB, expenseID int64, km float64, now time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE routes SET distance = ?, invalid = ?, updated_at = ? WHERE expense_id = ?`,
		km, false, now, expenseID,
	).Error
}

func (r *repo) MarkInvalid(ctx context.Context, db *gorm.DB, expenseID int64, now time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE routes SET distance = NULL, invalid = ?, updated_at = ? WHERE expense_id = ?`,
		true, now, expenseID,
	).Error
}
