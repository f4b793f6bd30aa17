package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	aggregationdomain "github.com/smallbiznis/canopact/internal/aggregation/domain"
	"github.com/smallbiznis/canopact/internal/aggregation/repository"
	"github.com/smallbiznis/canopact/internal/clock"
	companydomain "github.com/smallbiznis/canopact/internal/company/domain"
	companyrepo "github.com/smallbiznis/canopact/internal/company/repository"
	companyservice "github.com/smallbiznis/canopact/internal/company/service"
	"github.com/smallbiznis/canopact/internal/config"
	emissionsdomain "github.com/smallbiznis/canopact/internal/emissions/domain"
	expensedomain "github.com/smallbiznis/canopact/internal/expense/domain"
	routedomain "github.com/smallbiznis/canopact/internal/route/domain"
	"github.com/smallbiznis/canopact/pkg/db/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type journeySeed struct {
	expenseID   int64
	userID      snowflake.ID
	date        time.Time
	category    expensedomain.Category
	origin      string
	destination string
	distance    float64
	co2e        float64
	amount      float64
	invalid     bool
}

func newService(t *testing.T) (aggregationdomain.Service, *gorm.DB) {
	t.Helper()
	conn := dbtest.Open(t,
		&companydomain.Company{},
		&companydomain.User{},
		&expensedomain.Expense{},
		&routedomain.Route{},
		&emissionsdomain.Carbon{},
	)
	cfg := config.Config{}
	cfg.Aggregation = config.AggregationConfig{KPIMonths: 6, ChartMonths: 8, SigFigs: 2}

	svc := New(Params{
		DB:     conn,
		Log:    zap.NewNop(),
		Clock:  clock.NewFakeClock(time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)),
		Config: cfg,
		Repo:   repository.Provide(),
		CompanySvc: companyservice.New(companyservice.Params{
			DB:   conn,
			Log:  zap.NewNop(),
			Repo: companyrepo.Provide(),
		}),
	})
	return svc, conn
}

func seed(t *testing.T, conn *gorm.DB, journeys ...journeySeed) {
	t.Helper()
	now := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	for _, c := range []companydomain.Company{
		{ID: 1, Name: "Acme", TrialActive: true, CreatedAt: now, UpdatedAt: now},
		{ID: 2, Name: "Other", TrialActive: true, CreatedAt: now, UpdatedAt: now},
	} {
		require.NoError(t, conn.Create(&c).Error)
	}
	for _, u := range []companydomain.User{
		{ID: 10, CompanyID: 1, Email: "a@acme.test", CreatedAt: now, UpdatedAt: now},
		{ID: 11, CompanyID: 1, Email: "b@acme.test", CreatedAt: now, UpdatedAt: now},
		{ID: 12, CompanyID: 2, Email: "c@other.test", CreatedAt: now, UpdatedAt: now},
	} {
		require.NoError(t, conn.Create(&u).Error)
	}

	for _, j := range journeys {
		date := datatypes.Date(j.date)
		amount := j.amount
		origin, destination := j.origin, j.destination
		require.NoError(t, conn.Create(&expensedomain.Expense{
			ExpenseID: j.expenseID, UserID: j.userID, ReportID: 1, Category: j.category,
			Amount: &amount, CreatedDate: &date, TravelExpense: true, CreatedAt: now, UpdatedAt: now,
		}).Error)
		require.NoError(t, conn.Create(&routedomain.Route{
			ID: snowflake.ID(j.expenseID), ExpenseID: j.expenseID, Category: j.category,
			RouteCategory: routedomain.RouteCategoryGround, Origin: &origin, Destination: &destination,
			Distance: &j.distance, Invalid: j.invalid, CreatedAt: now, UpdatedAt: now,
		}).Error)
		require.NoError(t, conn.Create(&emissionsdomain.Carbon{
			ID: snowflake.ID(j.expenseID), ExpenseID: j.expenseID, Origin: &origin, Destination: &destination,
			Category: j.category, Distance: j.distance, CO2e: j.co2e, CO2: j.co2e, CreatedAt: now,
		}).Error)
	}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func fixtures() []journeySeed {
	return []journeySeed{
		{1, 10, day(2024, 6, 10), expensedomain.CategoryTrain, "London", "Leeds", 300, 10, 50, false},
		{2, 10, day(2024, 5, 10), expensedomain.CategoryTaxi, "A", "B", 10, 2, 20, false},
		{3, 11, day(2024, 6, 1), expensedomain.CategoryTrain, "London", "Leeds", 300, 10, 50, false},
		{4, 10, day(2024, 6, 5), expensedomain.CategoryAir, "X", "Y", 600, 100, 300, true},
		{5, 12, day(2024, 6, 1), expensedomain.CategoryTrain, "London", "Leeds", 300, 10, 50, false},
	}
}

func TestDashboardEmployee(t *testing.T) {
	svc, conn := newService(t)
	seed(t, conn, fixtures()...)

	dash, err := svc.Dashboard(context.Background(), aggregationdomain.DashboardRequest{
		Subject:     aggregationdomain.Subject{UserID: 10},
		Granularity: aggregationdomain.GranularityEmployee,
		Date:        day(2024, 6, 30),
	})
	require.NoError(t, err)

	assert.Equal(t, "2024-06-30", dash.Date)
	assert.Equal(t, 12.0, dash.KPIs.Emissions.Current.CO2e)
	assert.Equal(t, 2.0, dash.KPIs.Emissions.Previous.CO2e)
	assert.Equal(t, 83.0, dash.KPIs.Emissions.Change.CO2e)
	assert.Equal(t, 0.0, dash.KPIs.Emissions.Change.CH4)
	assert.Equal(t, 6.0, dash.KPIs.EmissionsPerJourney.Current.CO2e)
	assert.Equal(t, 70.0, dash.KPIs.Cost.Current)
	assert.Equal(t, 20.0, dash.KPIs.Cost.Previous)
	assert.Equal(t, 35.0, dash.KPIs.CostPerJourney.Current)

	require.Len(t, dash.Charts.Journeys, 8)
	assert.Equal(t, "Nov", dash.Charts.Journeys[0].Month)
	assert.Equal(t, "Jun", dash.Charts.Journeys[7].Month)
	assert.Equal(t, 1.0, dash.Charts.Journeys[7].Value)
	assert.Equal(t, 1.0, dash.Charts.Journeys[6].Value)
	assert.Equal(t, 0.0, dash.Charts.Journeys[5].Value)
}

func TestDashboardCompany(t *testing.T) {
	svc, conn := newService(t)
	seed(t, conn, fixtures()...)

	dash, err := svc.Dashboard(context.Background(), aggregationdomain.DashboardRequest{
		Subject:     aggregationdomain.Subject{UserID: 10},
		Granularity: aggregationdomain.GranularityCompany,
		Date:        day(2024, 6, 30),
	})
	require.NoError(t, err)

	assert.Equal(t, 22.0, dash.KPIs.Emissions.Current.CO2e)
	assert.Equal(t, 2.0, dash.Charts.Journeys[7].Value)

	require.Len(t, dash.Tables.Transport, 2)
	assert.Equal(t, "Train", dash.Tables.Transport[0].Label)
	assert.Equal(t, int64(2), dash.Tables.Transport[0].Count)
	assert.Equal(t, 66.7, dash.Tables.Transport[0].Percentage)
	assert.Equal(t, "Taxi", dash.Tables.Transport[1].Label)

	require.Len(t, dash.Tables.Routes, 2)
	assert.Equal(t, "London to Leeds", dash.Tables.Routes[0].Label)
	assert.Equal(t, 20.0, dash.Tables.Routes[0].CO2e)
}

func TestDashboardWithoutJourneys(t *testing.T) {
	svc, conn := newService(t)
	seed(t, conn)

	dash, err := svc.Dashboard(context.Background(), aggregationdomain.DashboardRequest{
		Subject:     aggregationdomain.Subject{UserID: 11},
		Granularity: aggregationdomain.GranularityEmployee,
	})
	require.NoError(t, err)
	assert.Equal(t, emissionsdomain.Gases{}, dash.KPIs.Emissions.Current)
	assert.Equal(t, emissionsdomain.Gases{}, dash.KPIs.EmissionsPerJourney.Change)
	assert.Equal(t, 0.0, dash.KPIs.CostPerJourney.Current)
	assert.Len(t, dash.Charts.Emissions, 8)
	assert.Empty(t, dash.Tables.Transport)
}

func TestResolveScope(t *testing.T) {
	svc, conn := newService(t)
	seed(t, conn)
	ctx := context.Background()

	scope, err := svc.ResolveScope(ctx, aggregationdomain.Subject{UserID: 11}, aggregationdomain.GranularityCompany)
	require.NoError(t, err)
	assert.Equal(t, []snowflake.ID{10, 11}, scope.UserIDs)

	_, err = svc.ResolveScope(ctx, aggregationdomain.Subject{UserID: 99}, aggregationdomain.GranularityCompany)
	assert.ErrorIs(t, err, companydomain.ErrUserNotFound)
	assert.True(t, IsScopeError(err))

	_, err = svc.ResolveScope(ctx, aggregationdomain.Subject{}, aggregationdomain.GranularityEmployee)
	assert.ErrorIs(t, err, aggregationdomain.ErrInvalidUser)
}
