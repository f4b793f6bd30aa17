package service

import (
	"context"
	"time"

	"github.com/smallbiznis/canopact/internal/clock"
	expensedomain "github.com/smallbiznis/canopact/internal/expense/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Clock clock.Clock
	Repo  expensedomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	clock clock.Clock
	repo  expensedomain.Repository
}

func New(p Params) expensedomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("expense.service"),
		clock: p.Clock,
		repo:  p.Repo,
	}
}

// UpsertReport stores the report and every expense in it. Rows are upserted one at a
// time so a failing row does not roll back the rows already written.
func (s *Service) UpsertReport(ctx context.Context, req expensedomain.UpsertReportRequest) (expensedomain.UpsertReportResponse, error) {
	if req.ReportID <= 0 {
		return expensedomain.UpsertReportResponse{}, expensedomain.ErrInvalidReportID
	}
	if req.UserID == 0 {
		return expensedomain.UpsertReportResponse{}, expensedomain.ErrInvalidUser
	}

	now := s.now()
	report := &expensedomain.Report{
		ReportID:   req.ReportID,
		UserID:     req.UserID,
		ReportName: req.ReportName,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if len(req.Raw) > 0 {
		report.Raw = datatypes.JSON(req.Raw)
	}
	if err := s.repo.UpsertReport(ctx, s.db, report); err != nil {
		return expensedomain.UpsertReportResponse{}, err
	}

	resp := expensedomain.UpsertReportResponse{ReportID: req.ReportID}
	for _, in := range req.Expenses {
		if in.ExpenseID <= 0 {
			s.log.Warn("skipping expense without id",
				zap.Int64("report_id", req.ReportID),
			)
			continue
		}
		e := expensedomain.NewExpense(req.UserID, req.ReportID, in)
		e.CreatedAt = now
		e.UpdatedAt = now
		if err := s.repo.UpsertExpense(ctx, s.db, &e); err != nil {
			return resp, err
		}
		resp.ExpenseCount++
		if e.TravelExpense {
			resp.TravelExpenses++
		}
	}

	return resp, nil
}

func (s *Service) GetByID(ctx context.Context, expenseID int64) (*expensedomain.Expense, error) {
	if expenseID <= 0 {
		return nil, expensedomain.ErrInvalidExpenseID
	}
	expense, err := s.repo.FindByID(ctx, s.db, expenseID)
	if err != nil {
		return nil, err
	}
	if expense == nil {
		return nil, expensedomain.ErrNotFound
	}
	return expense, nil
}

func (s *Service) ListPendingRoutes(ctx context.Context, limit int) ([]expensedomain.Expense, error) {
	if limit <= 0 {
		limit = 100
	}
	return s.repo.ListPendingRoutes(ctx, s.db, limit)
}

func (s *Service) now() time.Time {
	if s.clock == nil {
		return time.Now().UTC()
	}
	return s.clock.Now()
}
