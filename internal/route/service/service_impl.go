package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/canopact/internal/clock"
	expensedomain "github.com/smallbiznis/canopact/internal/expense/domain"
	obslogger "github.com/smallbiznis/canopact/internal/observability/logger"
	"github.com/smallbiznis/canopact/internal/observability/metrics"
	routedomain "github.com/smallbiznis/canopact/internal/route/domain"
	"github.com/smallbiznis/canopact/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	outcomeParsed    = "parsed"
	outcomeUnit      = "unit"
	outcomeMalformed = "malformed"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	Repo       routedomain.Repository
	ExpenseSvc expensedomain.Service
	Metrics    *metrics.Metrics `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	repo       routedomain.Repository
	expenseSvc expensedomain.Service
	metrics    *metrics.Metrics
}

func New(p Params) routedomain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("route.service"),
		genID:      p.GenID,
		clock:      p.Clock,
		repo:       p.Repo,
		expenseSvc: p.ExpenseSvc,
		metrics:    p.Metrics,
	}
}

// CreatePending creates one route per travel expense that has none yet.
// A comment that cannot be split still produces a route with empty endpoints so
// the cleaner can pick it up; an unknown category aborts the run.
func (s *Service) CreatePending(ctx context.Context, limit int) (routedomain.CreateResult, error) {
	pending, err := s.expenseSvc.ListPendingRoutes(ctx, limit)
	if err != nil {
		return routedomain.CreateResult{}, err
	}
	result := routedomain.CreateResult{Selected: len(pending)}
	log := obslogger.WithContext(ctx, s.log)

	for _, expense := range pending {
		rowLog := obslogger.WithExpense(log, expense.ExpenseID)

		routeCategory, err := routedomain.Classify(expense.ExpenseType, expense.Category)
		if err != nil {
			rowLog.Error("route classification failed",
				zap.String("category", string(expense.Category)),
				zap.Error(err),
			)
			return result, fmt.Errorf("expense %d: %w", expense.ExpenseID, err)
		}

		now := s.clock.Now()
		route := &routedomain.Route{
			ID:            s.genID.Generate(),
			ExpenseID:     expense.ExpenseID,
			Category:      expense.Category,
			RouteCategory: routeCategory,
			CreatedAt:     now,
			UpdatedAt:     now,
		}

		outcome := outcomeUnit
		if routeCategory != routedomain.RouteCategoryUnit {
			outcome = s.applyComment(ctx, rowLog, route, expense.Comment)
			if outcome == outcomeMalformed {
				result.Malformed++
			}
		}

		if err := s.repo.Insert(ctx, s.db, route); err != nil {
			if db.IsDuplicateKeyErr(err) {
				rowLog.Debug("route already created by a concurrent run")
				continue
			}
			return result, fmt.Errorf("insert route for expense %d: %w", expense.ExpenseID, err)
		}
		result.Created++
		s.metrics.RecordRouteResolved(ctx, string(routeCategory), outcome)
	}

	return result, nil
}

func (s *Service) applyComment(ctx context.Context, log *zap.Logger, route *routedomain.Route, comment *string) string {
	origin, destination, marker, err := routedomain.SplitRoute(comment)
	if err != nil {
		var malformed *routedomain.MalformedRouteError
		switch {
		case errors.Is(err, routedomain.ErrMissingComment):
			log.Warn("route comment missing")
		case errors.As(err, &malformed):
			log.Warn("route comment malformed", zap.String("comment", malformed.Comment))
		default:
			log.Warn("route comment rejected", zap.Error(err))
		}
		return outcomeMalformed
	}

	route.Origin = &origin
	route.Destination = &destination
	if marker != "" {
		route.ReturnType = &marker
	}

	if known, err := s.repo.ExistsPair(ctx, s.db, origin, destination); err == nil && known {
		log.Debug("route pair already known",
			zap.String("origin", origin),
			zap.String("destination", destination),
		)
	}
	return outcomeParsed
}

func (s *Service) Exists(ctx context.Context, origin, destination string) (bool, error) {
	return s.repo.ExistsPair(ctx, s.db, origin, destination)
}

func (s *Service) ListForCleaning(ctx context.Context, filter routedomain.CleanerFilter) ([]routedomain.CleanerRow, error) {
	if len(filter.UserIDs) == 0 {
		return nil, routedomain.ErrNoMembers
	}
	normalized, err := filter.Normalize()
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.ListForCleaning(ctx, s.db, normalized)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []routedomain.CleanerRow{}
	}
	return rows, nil
}

// Edit applies a cleaner correction. The distance is cleared and any footprint
// is dropped so the next calculation run recomputes both.
func (s *Service) Edit(ctx context.Context, req routedomain.EditRequest) (*routedomain.Route, error) {
	if req.ExpenseID <= 0 {
		return nil, routedomain.ErrInvalidExpenseID
	}
	if len(req.UserIDs) == 0 {
		return nil, routedomain.ErrNoMembers
	}
	origin := strings.TrimSpace(req.Origin)
	destination := strings.TrimSpace(req.Destination)
	if origin == "" || destination == "" {
		return nil, routedomain.ErrIncompleteRoute
	}

	var updated *routedomain.Route
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		route, err := s.repo.FindByExpenseID(ctx, tx, req.ExpenseID)
		if err != nil {
			return err
		}
		if route == nil {
			return routedomain.ErrNotFound
		}
		// Another company's route reads as missing.
		owner, err := s.repo.FindOwner(ctx, tx, req.ExpenseID)
		if err != nil {
			return err
		}
		if !slices.Contains(req.UserIDs, owner) {
			return routedomain.ErrNotFound
		}
		if route.RouteCategory == routedomain.RouteCategoryUnit {
			return routedomain.ErrUnitRoute
		}

		route.Origin = &origin
		route.Destination = &destination
		route.ReturnType = nil
		if req.Return {
			returnType := routedomain.ReturnTypeReturn
			route.ReturnType = &returnType
		}
		route.Distance = nil
		route.Invalid = false
		route.UpdatedAt = s.clock.Now()

		if err := s.repo.UpdateEndpoints(ctx, tx, route); err != nil {
			return err
		}
		if err := s.repo.DeleteCarbon(ctx, tx, route.ExpenseID); err != nil {
			return err
		}
		updated = route
		return nil
	})
	if err != nil {
		return nil, err
	}

	obslogger.WithExpense(obslogger.WithContext(ctx, s.log), req.ExpenseID).Info("route edited",
		zap.Bool("return", req.Return),
	)
	return updated, nil
}
