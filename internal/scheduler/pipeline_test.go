package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/smallbiznis/canopact/internal/cache"
	"github.com/smallbiznis/canopact/internal/clock"
	"github.com/smallbiznis/canopact/internal/config"
	distancedomain "github.com/smallbiznis/canopact/internal/distance/domain"
	distancerepo "github.com/smallbiznis/canopact/internal/distance/repository"
	distanceservice "github.com/smallbiznis/canopact/internal/distance/service"
	emissionsdomain "github.com/smallbiznis/canopact/internal/emissions/domain"
	emissionsrepo "github.com/smallbiznis/canopact/internal/emissions/repository"
	emissionsservice "github.com/smallbiznis/canopact/internal/emissions/service"
	expensedomain "github.com/smallbiznis/canopact/internal/expense/domain"
	expenserepo "github.com/smallbiznis/canopact/internal/expense/repository"
	expenseservice "github.com/smallbiznis/canopact/internal/expense/service"
	obsmetrics "github.com/smallbiznis/canopact/internal/observability/metrics"
	routedomain "github.com/smallbiznis/canopact/internal/route/domain"
	routerepo "github.com/smallbiznis/canopact/internal/route/repository"
	routeservice "github.com/smallbiznis/canopact/internal/route/service"
	"github.com/smallbiznis/canopact/pkg/db/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// airLookup answers every air lookup with km, or fails while km is zero.
type airLookup struct {
	km    float64
	calls int
}

func (a *airLookup) Name() string                        { return "distance24" }
func (a *airLookup) Category() routedomain.RouteCategory { return routedomain.RouteCategoryAir }

func (a *airLookup) Resolve(_ context.Context, lookup distancedomain.Lookup) (float64, error) {
	a.calls++
	if _, _, err := lookup.Endpoints(); err != nil {
		return 0, err
	}
	if a.km <= 0 {
		return 0, distancedomain.Unresolvable(a.Name(), "no distances", nil)
	}
	return a.km, nil
}

type pipeline struct {
	db       *gorm.DB
	sched    *Scheduler
	expenses expensedomain.Service
	routes   routedomain.Service
	air      *airLookup
}

func newPipeline(t *testing.T) *pipeline {
	t.Helper()
	t.Cleanup(swapPrometheusRegistry(prometheus.NewRegistry()))
	obsmetrics.ResetSchedulerMetricsForTest()

	conn := dbtest.Open(t,
		&expensedomain.Report{},
		&expensedomain.Expense{},
		&routedomain.Route{},
		&emissionsdomain.Carbon{},
	)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	clk := clock.NewFakeClock(testNow)
	log := zap.NewNop()

	cfg := config.Config{}
	cfg.Distance.Concurrency = 1
	cfg.Distance.CacheTTL = time.Hour

	expenses := expenseservice.New(expenseservice.Params{
		DB: conn, Log: log, Clock: clk, Repo: expenserepo.Provide(),
	})
	routes := routeservice.New(routeservice.Params{
		DB: conn, Log: log, GenID: node, Clock: clk, Repo: routerepo.Provide(), ExpenseSvc: expenses,
	})
	air := &airLookup{}
	distances := distanceservice.New(distanceservice.Params{
		DB:        conn,
		Log:       log,
		Clock:     clk,
		Config:    cfg,
		Repo:      distancerepo.Provide(),
		Resolvers: []distancedomain.Resolver{air},
		Cache:     cache.NewDistanceCache(nil, clk),
	})
	emissions := emissionsservice.New(emissionsservice.Params{
		DB:      conn,
		Log:     log,
		GenID:   node,
		Clock:   clk,
		Repo:    emissionsrepo.Provide(),
		Factors: emissionsdomain.StaticFactors(emissionsdomain.DefaultFactors()),
	})

	rec := &recorder{}
	sched, err := New(Params{
		Log:          log,
		IngestionSvc: &fakeIngestion{rec: rec},
		RouteSvc:     routes,
		DistanceSvc:  distances,
		EmissionsSvc: emissions,
		CompanySvc:   &fakeCompanies{rec: rec},
		GenID:        node,
		Clock:        clk,
	})
	require.NoError(t, err)

	return &pipeline{db: conn, sched: sched, expenses: expenses, routes: routes, air: air}
}

func (p *pipeline) route(t *testing.T, expenseID int64) routedomain.Route {
	t.Helper()
	var route routedomain.Route
	require.NoError(t, p.db.Where("expense_id = ?", expenseID).First(&route).Error)
	return route
}

func (p *pipeline) count(t *testing.T, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, p.db.Model(model).Count(&n).Error)
	return n
}

func TestCarbonPipelineUnresolvableThenResolvedFlight(t *testing.T) {
	p := newPipeline(t)
	ctx := context.Background()

	expenseType := expensedomain.ExpenseTypeExpense
	comment := "Blackfriars, London; Shoreditch, London;"
	created := time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC)
	_, err := p.expenses.UpsertReport(ctx, expensedomain.UpsertReportRequest{
		UserID:   7,
		ReportID: 700,
		Expenses: []expensedomain.ExpenseInput{{
			ExpenseID:   1,
			ExpenseType: &expenseType,
			Category:    string(expensedomain.CategoryAir),
			Comment:     &comment,
			CreatedDate: &created,
		}},
	})
	require.NoError(t, err)

	require.NoError(t, p.sched.CalculateCarbonJob(ctx))

	failed := p.route(t, 1)
	assert.Equal(t, routedomain.RouteCategoryAir, failed.RouteCategory)
	require.NotNil(t, failed.Origin)
	assert.Equal(t, "Blackfriars, London", *failed.Origin)
	assert.True(t, failed.Invalid)
	assert.Nil(t, failed.Distance)
	assert.Equal(t, int64(0), p.count(t, &emissionsdomain.Carbon{}))
	assert.Equal(t, 1, p.air.calls)

	// An invalid route stays out of the queue until someone corrects it.
	require.NoError(t, p.sched.CalculateCarbonJob(ctx))
	assert.Equal(t, 1, p.air.calls)

	p.air.km = 550
	_, err = p.routes.Edit(ctx, routedomain.EditRequest{
		UserIDs:     []snowflake.ID{7},
		ExpenseID:   1,
		Origin:      *failed.Origin,
		Destination: *failed.Destination,
	})
	require.NoError(t, err)
	require.NoError(t, p.sched.CalculateCarbonJob(ctx))

	resolved := p.route(t, 1)
	assert.False(t, resolved.Invalid)
	require.NotNil(t, resolved.Distance)
	assert.Equal(t, 550.0, *resolved.Distance)

	var carbon emissionsdomain.Carbon
	require.NoError(t, p.db.Where("expense_id = ?", 1).First(&carbon).Error)
	factors := emissionsdomain.DefaultFactors()
	assert.InDelta(t, 550*factors[emissionsdomain.GasCO2].Air[emissionsdomain.BandShort], carbon.CO2, 1e-9)
	assert.InDelta(t, 550*factors[emissionsdomain.GasCO2e].Air[emissionsdomain.BandShort], carbon.CO2e, 1e-9)
	assert.Equal(t, 550.0, carbon.Distance)
}

func TestCarbonPipelineRerunsAreIdempotent(t *testing.T) {
	p := newPipeline(t)
	ctx := context.Background()
	p.air.km = 550

	expenseType := expensedomain.ExpenseTypeExpense
	first := "Leeds; Paris;"
	second := "Leeds; Rome; R"
	_, err := p.expenses.UpsertReport(ctx, expensedomain.UpsertReportRequest{
		UserID:   7,
		ReportID: 701,
		Expenses: []expensedomain.ExpenseInput{
			{ExpenseID: 1, ExpenseType: &expenseType, Category: string(expensedomain.CategoryAir), Comment: &first},
			{ExpenseID: 2, ExpenseType: &expenseType, Category: string(expensedomain.CategoryAir), Comment: &second},
		},
	})
	require.NoError(t, err)

	require.NoError(t, p.sched.CalculateCarbonJob(ctx))
	assert.Equal(t, int64(2), p.count(t, &routedomain.Route{}))
	assert.Equal(t, int64(2), p.count(t, &emissionsdomain.Carbon{}))

	var before []emissionsdomain.Carbon
	require.NoError(t, p.db.Order("expense_id").Find(&before).Error)
	assert.Equal(t, 550.0, before[0].Distance)
	assert.Equal(t, 1100.0, before[1].Distance)
	calls := p.air.calls

	for i := 0; i < 2; i++ {
		require.NoError(t, p.sched.CalculateCarbonJob(ctx))
	}
	assert.Equal(t, int64(2), p.count(t, &routedomain.Route{}))
	assert.Equal(t, int64(2), p.count(t, &emissionsdomain.Carbon{}))
	assert.Equal(t, calls, p.air.calls)

	var after []emissionsdomain.Carbon
	require.NoError(t, p.db.Order("expense_id").Find(&after).Error)
	assert.Equal(t, before, after)
}
