package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	routedomain "github.com/smallbiznis/canopact/internal/route/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() routedomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, route *routedomain.Route) error {
	return db.WithContext(ctx).Create(route).Error
}

func (r *repo) FindByExpenseID(ctx context.Context, db *gorm.DB, expenseID int64) (*routedomain.Route, error) {
	var route routedomain.Route
	err := db.WithContext(ctx).Raw(
		`SELECT id, expense_id, category, route_category, origin, destination, return_type,
		        distance, invalid, created_at, updated_at
		 FROM routes WHERE expense_id = ?`,
		expenseID,
	).Scan(&route).Error
	if err != nil {
		return nil, err
	}
	if route.ID == 0 {
		return nil, nil
	}
	return &route, nil
}

func (r *repo) FindOwner(ctx context.Context, db *gorm.DB, expenseID int64) (snowflake.ID, error) {
	var owners []int64
	err := db.WithContext(ctx).Raw(
		`SELECT user_id FROM expenses WHERE expense_id = ?`,
		expenseID,
	).Scan(&owners).Error
	if err != nil || len(owners) == 0 {
		return 0, err
	}
	return snowflake.ID(owners[0]), nil
}

func (r *repo) ExistsPair(ctx context.Context, db *gorm.DB, origin, destination string) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM routes WHERE origin = ? AND destination = ?`,
		origin,
		destination,
	).Scan(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repo) ListForCleaning(ctx context.Context, db *gorm.DB, filter routedomain.CleanerFilter) ([]routedomain.CleanerRow, error) {
	column, ok := routedomain.SortableColumns[filter.Sort]
	if !ok {
		return nil, routedomain.ErrInvalidSort
	}
	direction := "DESC"
	if filter.Direction == routedomain.SortAsc {
		direction = "ASC"
	}

	query := strings.Builder{}
	query.WriteString(`SELECT r.id AS route_id, r.expense_id, r.category, p.report_name,
		        e.merchant, e.comment, e.created_date, r.origin, r.destination,
		        r.invalid, r.created_at
		 FROM routes r
		 JOIN expenses e ON e.expense_id = r.expense_id
		 LEFT JOIN reports p ON p.report_id = e.report_id
		 WHERE e.user_id IN ?
		   AND r.route_category <> ?
		   AND (r.origin IS NULL OR r.destination IS NULL OR r.invalid = ?)`)
	args := []any{filter.UserIDs, string(routedomain.RouteCategoryUnit), true}

	if filter.Query != "" {
		like := "%" + strings.ToLower(filter.Query) + "%"
		query.WriteString(`
		   AND (LOWER(COALESCE(r.origin, '')) LIKE ?
		        OR LOWER(COALESCE(r.destination, '')) LIKE ?
		        OR LOWER(COALESCE(e.merchant, '')) LIKE ?
		        OR LOWER(COALESCE(e.comment, '')) LIKE ?)`)
		args = append(args, like, like, like, like)
	}
	query.WriteString(fmt.Sprintf("\n\t\t ORDER BY %s %s, r.expense_id ASC", column, direction))

	var rows []routedomain.CleanerRow
	if err := db.WithContext(ctx).Raw(query.String(), args...).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repo) UpdateEndpoints(ctx context.Context, db *gorm.DB, route *routedomain.Route) error {
	return db.WithContext(ctx).Exec(
		`UPDATE routes
		 SET origin = ?, destination = ?, return_type = ?, distance = NULL, invalid = ?, updated_at = ?
		 WHERE expense_id = ?`,
		route.Origin,
		route.Destination,
		route.ReturnType,
		route.Invalid,
		route.UpdatedAt,
		route.ExpenseID,
	).Error
}

func (r *repo) DeleteCarbon(ctx context.Context, db *gorm.DB, expenseID int64) error {
	return db.WithContext(ctx).Exec(`DELETE FROM carbon WHERE expense_id = ?`, expenseID).Error
}
