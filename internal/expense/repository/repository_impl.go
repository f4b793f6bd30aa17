package repository

import (
	"context"

	expensedomain "github.com/smallbiznis/canopact/internal/expense/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() expensedomain.Repository {
	return &repo{}
}

func (r *repo) UpsertReport(ctx context.Context, db *gorm.DB, report *expensedomain.Report) error {
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "report_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"user_id", "report_name", "raw", "updated_at"}),
	}).Create(report).Error
}

func (r *repo) UpsertExpense(ctx context.Context, db *gorm.DB, e *expensedomain.Expense) error {
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "expense_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"user_id",
			"report_id",
			"expense_type",
			"category",
			"amount",
			"currency",
			"converted_amount",
			"comment",
			"merchant",
			"unit_count",
			"unit_rate",
			"unit",
			"created_date",
			"travel_expense",
			"updated_at",
		}),
	}).Create(e).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, expenseID int64) (*expensedomain.Expense, error) {
	var expense expensedomain.Expense
	err := db.WithContext(ctx).Raw(
		`SELECT expense_id, user_id, report_id, expense_type, category, amount, currency,
		        converted_amount, comment, merchant, unit_count, unit_rate, unit,
		        created_date, travel_expense, created_at, updated_at
		 FROM expenses WHERE expense_id = ?`,
		expenseID,
	).Scan(&expense).Error
	if err != nil {
		return nil, err
	}
	if expense.ExpenseID == 0 {
		return nil, nil
	}
	return &expense, nil
}

// ListPendingRoutes returns travel expenses that have no route yet.
func (r *repo) ListPendingRoutes(ctx context.Context, db *gorm.DB, limit int) ([]expensedomain.Expense, error) {
	var expenses []expensedomain.Expense
	err := db.WithContext(ctx).Raw(
		`SELECT e.expense_id, e.user_id, e.report_id, e.expense_type, e.category, e.amount,
		        e.currency, e.converted_amount, e.comment, e.merchant, e.unit_count,
		        e.unit_rate, e.unit, e.created_date, e.travel_expense, e.created_at, e.updated_at
		 FROM expenses e
		 WHERE e.travel_expense = ?
		   AND NOT EXISTS (SELECT 1 FROM routes r WHERE r.expense_id = e.expense_id)
		 ORDER BY e.expense_id ASC
		 LIMIT ?`,
		true,
		limit,
	).Scan(&expenses).Error
	if err != nil {
		return nil, err
	}
	return expenses, nil
}
