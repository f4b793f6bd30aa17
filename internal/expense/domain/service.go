package domain

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	UpsertReport(ctx context.Context, req UpsertReportRequest) (UpsertReportResponse, error)
	GetByID(ctx context.Context, expenseID int64) (*Expense, error)
	ListPendingRoutes(ctx context.Context, limit int) ([]Expense, error)
}

type UpsertReportRequest struct {
	UserID     snowflake.ID
	ReportID   int64
	ReportName *string
	Raw        json.RawMessage
	Expenses   []ExpenseInput
}

type UpsertReportResponse struct {
	ReportID       int64 `json:"report_id"`
	ExpenseCount   int   `json:"expense_count"`
	TravelExpenses int   `json:"travel_expenses"`
}

var (
	ErrInvalidReportID  = errors.New("invalid_report_id")
	ErrInvalidExpenseID = errors.New("invalid_expense_id")
	ErrInvalidUser      = errors.New("invalid_user")
	ErrNotFound         = errors.New("not_found")
)
