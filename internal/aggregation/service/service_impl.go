package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	aggregationdomain "github.com/smallbiznis/canopact/internal/aggregation/domain"
	"github.com/smallbiznis/canopact/internal/clock"
	companydomain "github.com/smallbiznis/canopact/internal/company/domain"
	"github.com/smallbiznis/canopact/internal/config"
	emissionsdomain "github.com/smallbiznis/canopact/internal/emissions/domain"
	expensedomain "github.com/smallbiznis/canopact/internal/expense/domain"
	obslogger "github.com/smallbiznis/canopact/internal/observability/logger"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const shareDecimals = 1

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	Clock      clock.Clock
	Config     config.Config
	Repo       aggregationdomain.Repository
	CompanySvc companydomain.Service
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	clock       clock.Clock
	repo        aggregationdomain.Repository
	companySvc  companydomain.Service
	kpiMonths   int
	chartMonths int
	sigFigs     int
}

func New(p Params) aggregationdomain.Service {
	agg := p.Config.Aggregation
	if agg.KPIMonths <= 0 {
		agg.KPIMonths = 6
	}
	if agg.ChartMonths <= 0 {
		agg.ChartMonths = 8
	}
	if agg.SigFigs <= 0 {
		agg.SigFigs = 2
	}
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("aggregation.service"),
		clock:       p.Clock,
		repo:        p.Repo,
		companySvc:  p.CompanySvc,
		kpiMonths:   agg.KPIMonths,
		chartMonths: agg.ChartMonths,
		sigFigs:     agg.SigFigs,
	}
}

// ResolveScope expands a company subject into its members.
func (s *Service) ResolveScope(ctx context.Context, subject aggregationdomain.Subject, granularity aggregationdomain.Granularity) (aggregationdomain.Scope, error) {
	if subject.UserID == 0 {
		return aggregationdomain.Scope{}, aggregationdomain.ErrInvalidUser
	}
	switch granularity {
	case aggregationdomain.GranularityEmployee:
		return aggregationdomain.Scope{
			Granularity: granularity,
			UserIDs:     []snowflake.ID{subject.UserID},
		}, nil
	case aggregationdomain.GranularityCompany:
		companyID := subject.CompanyID
		if companyID == 0 {
			user, err := s.companySvc.GetUser(ctx, subject.UserID)
			if err != nil {
				return aggregationdomain.Scope{}, err
			}
			companyID = user.CompanyID
		}
		members, err := s.companySvc.MemberIDs(ctx, companyID)
		if err != nil {
			return aggregationdomain.Scope{}, err
		}
		scope := aggregationdomain.Scope{Granularity: granularity, UserIDs: members}
		if err := scope.Validate(); err != nil {
			return aggregationdomain.Scope{}, err
		}
		return scope, nil
	default:
		return aggregationdomain.Scope{}, aggregationdomain.ErrInvalidGranularity
	}
}

// Totals returns the unrounded sums over one window.
func (s *Service) Totals(ctx context.Context, scope aggregationdomain.Scope, window aggregationdomain.Window) (aggregationdomain.Totals, error) {
	if err := scope.Validate(); err != nil {
		return aggregationdomain.Totals{}, err
	}
	totals, err := s.repo.SumEmissions(ctx, s.db, scope.UserIDs, window)
	if err != nil {
		return aggregationdomain.Totals{}, err
	}
	cost, err := s.repo.SumCost(ctx, s.db, scope.UserIDs, window)
	if err != nil {
		return aggregationdomain.Totals{}, err
	}
	totals.Cost = cost
	return totals, nil
}

func (s *Service) Dashboard(ctx context.Context, req aggregationdomain.DashboardRequest) (aggregationdomain.Dashboard, error) {
	scope, err := s.ResolveScope(ctx, req.Subject, req.Granularity)
	if err != nil {
		return aggregationdomain.Dashboard{}, err
	}
	ref := req.Date
	if ref.IsZero() {
		ref = s.clock.Now()
	}

	current, err := s.Totals(ctx, scope, aggregationdomain.TrailingWindow(ref, s.kpiMonths, false))
	if err != nil {
		return aggregationdomain.Dashboard{}, err
	}
	previous, err := s.Totals(ctx, scope, aggregationdomain.TrailingWindow(ref, s.kpiMonths, true))
	if err != nil {
		return aggregationdomain.Dashboard{}, err
	}

	chartWindow := aggregationdomain.MonthlyWindow(ref, s.chartMonths)
	journeys, err := s.repo.ListJourneys(ctx, s.db, scope.UserIDs, chartWindow)
	if err != nil {
		return aggregationdomain.Dashboard{}, err
	}
	monthly := aggregationdomain.Reindex(aggregationdomain.TrailingMonths(ref, s.chartMonths), journeys)

	tableWindow := aggregationdomain.TrailingWindow(ref, s.kpiMonths, false)
	transport, err := s.transportTable(ctx, scope, tableWindow)
	if err != nil {
		return aggregationdomain.Dashboard{}, err
	}
	routes, err := s.routeTable(ctx, scope, tableWindow)
	if err != nil {
		return aggregationdomain.Dashboard{}, err
	}

	dashboard := aggregationdomain.Dashboard{
		Granularity: scope.Granularity,
		Date:        ref.UTC().Format(time.DateOnly),
		KPIs:        s.kpis(current, previous),
		Charts: aggregationdomain.Charts{
			Journeys:  aggregationdomain.JourneysMonthly(monthly),
			Emissions: aggregationdomain.EmissionsMonthly(monthly, s.sigFigs),
			Distance:  aggregationdomain.DistanceMonthly(monthly, s.sigFigs),
			Lines:     aggregationdomain.Lines(monthly, s.sigFigs),
		},
		Tables: aggregationdomain.Tables{Transport: transport, Routes: routes},
	}

	obslogger.WithContext(ctx, s.log).Debug("dashboard built",
		zap.String("granularity", string(scope.Granularity)),
		zap.Int("members", len(scope.UserIDs)),
		zap.Int64("journeys", current.Journeys),
	)
	return dashboard, nil
}

func (s *Service) kpis(current, previous aggregationdomain.Totals) aggregationdomain.KPIs {
	perJourney := aggregationdomain.EmissionsPerJourney(current.Emissions, current.Journeys)
	prevPerJourney := aggregationdomain.EmissionsPerJourney(previous.Emissions, previous.Journeys)
	costPerJourney := costPer(current)
	prevCostPerJourney := costPer(previous)

	return aggregationdomain.KPIs{
		Emissions:           s.gasesCard(current.Emissions, previous.Emissions),
		EmissionsPerJourney: s.gasesCard(perJourney, prevPerJourney),
		Cost:                s.valueCard(current.Cost, previous.Cost),
		CostPerJourney:      s.valueCard(costPerJourney, prevCostPerJourney),
	}
}

// gasesCard compares the rounded values, which is what the card shows.
func (s *Service) gasesCard(cur, prev emissionsdomain.Gases) aggregationdomain.GasesCard {
	cur = aggregationdomain.RoundGases(cur, s.sigFigs)
	prev = aggregationdomain.RoundGases(prev, s.sigFigs)
	return aggregationdomain.GasesCard{
		Current:  cur,
		Previous: prev,
		Change:   aggregationdomain.RoundGases(aggregationdomain.EmissionsPercentageDiff(cur, prev), s.sigFigs),
	}
}

func (s *Service) valueCard(cur, prev float64) aggregationdomain.ValueCard {
	cur = aggregationdomain.RoundToN(cur, s.sigFigs)
	prev = aggregationdomain.RoundToN(prev, s.sigFigs)
	return aggregationdomain.ValueCard{
		Current:  cur,
		Previous: prev,
		Change:   aggregationdomain.RoundToN(aggregationdomain.PercentChange(cur, prev), s.sigFigs),
	}
}

func costPer(t aggregationdomain.Totals) float64 {
	if t.Journeys == 0 {
		return 0
	}
	return t.Cost / float64(t.Journeys)
}

func (s *Service) transportTable(ctx context.Context, scope aggregationdomain.Scope, window aggregationdomain.Window) ([]aggregationdomain.GroupRow, error) {
	rows, err := s.repo.GroupByTransport(ctx, s.db, scope.UserIDs, window)
	if err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].Label = expensedomain.Category(rows[i].Label).Label()
		rows[i].CO2e = aggregationdomain.RoundToN(rows[i].CO2e, s.sigFigs)
	}
	return aggregationdomain.WithShares(rows, shareDecimals), nil
}

func (s *Service) routeTable(ctx context.Context, scope aggregationdomain.Scope, window aggregationdomain.Window) ([]aggregationdomain.GroupRow, error) {
	rows, err := s.repo.GroupByRoute(ctx, s.db, scope.UserIDs, window)
	if err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].Label = routeLabel(rows[i].Origin, rows[i].Destination)
		rows[i].CO2e = aggregationdomain.RoundToN(rows[i].CO2e, s.sigFigs)
	}
	return aggregationdomain.WithShares(rows, shareDecimals), nil
}

func routeLabel(origin, destination *string) string {
	parts := make([]string, 0, 2)
	for _, p := range []*string{origin, destination} {
		if p == nil || strings.TrimSpace(*p) == "" {
			parts = append(parts, "Unknown")
			continue
		}
		parts = append(parts, strings.TrimSpace(*p))
	}
	return strings.Join(parts, " to ")
}

// IsScopeError reports errors caused by the caller's subject rather than the store.
func IsScopeError(err error) bool {
	return errors.Is(err, aggregationdomain.ErrInvalidUser) ||
		errors.Is(err, aggregationdomain.ErrInvalidGranularity) ||
		errors.Is(err, aggregationdomain.ErrEmptyScope) ||
		errors.Is(err, companydomain.ErrUserNotFound)
}
