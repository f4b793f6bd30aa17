package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	aggregationdomain "github.com/smallbiznis/canopact/internal/aggregation/domain"
	"github.com/smallbiznis/canopact/internal/clock"
	companydomain "github.com/smallbiznis/canopact/internal/company/domain"
	"github.com/smallbiznis/canopact/internal/config"
	"github.com/smallbiznis/canopact/internal/observability"
	obscontext "github.com/smallbiznis/canopact/internal/observability/context"
	routedomain "github.com/smallbiznis/canopact/internal/route/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeCompanyService struct {
	companydomain.Service
	users   map[snowflake.ID]*companydomain.User
	active  bool
	members []snowflake.ID
}

func (f *fakeCompanyService) GetUser(_ context.Context, userID snowflake.ID) (*companydomain.User, error) {
	user, ok := f.users[userID]
	if !ok {
		return nil, companydomain.ErrUserNotFound
	}
	return user, nil
}

func (f *fakeCompanyService) TrialActive(context.Context, snowflake.ID) (bool, error) {
	return f.active, nil
}

func (f *fakeCompanyService) MemberIDs(context.Context, snowflake.ID) ([]snowflake.ID, error) {
	return f.members, nil
}

type fakeAggregationService struct {
	aggregationdomain.Service
	last      aggregationdomain.DashboardRequest
	companyID string
}

func (f *fakeAggregationService) Dashboard(ctx context.Context, req aggregationdomain.DashboardRequest) (aggregationdomain.Dashboard, error) {
	f.last = req
	f.companyID = obscontext.CompanyIDFromContext(ctx)
	return aggregationdomain.Dashboard{
		Granularity: req.Granularity,
		Date:        req.Date.Format(dateOnlyLayout),
	}, nil
}

type fakeRouteService struct {
	routedomain.Service
	filter    routedomain.CleanerFilter
	edit      routedomain.EditRequest
	companyID string
}

func (f *fakeRouteService) ListForCleaning(_ context.Context, filter routedomain.CleanerFilter) ([]routedomain.CleanerRow, error) {
	f.filter = filter
	if _, err := filter.Normalize(); err != nil {
		return nil, err
	}
	return []routedomain.CleanerRow{{ExpenseID: 11}}, nil
}

func (f *fakeRouteService) Edit(ctx context.Context, req routedomain.EditRequest) (*routedomain.Route, error) {
	f.edit = req
	f.companyID = obscontext.CompanyIDFromContext(ctx)
	if req.Origin == "" || req.Destination == "" {
		return nil, routedomain.ErrIncompleteRoute
	}
	switch req.ExpenseID {
	case 404:
		return nil, routedomain.ErrNotFound
	case 13:
		return nil, routedomain.ErrUnitRoute
	}
	return &routedomain.Route{ExpenseID: req.ExpenseID, Origin: &req.Origin, Destination: &req.Destination}, nil
}

var testNow = time.Date(2024, 3, 20, 15, 0, 0, 0, time.UTC)

type testServer struct {
	router      *gin.Engine
	companies   *fakeCompanyService
	aggregation *fakeAggregationService
	routes      *fakeRouteService
}

func newTestServer(t *testing.T, environment string) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Config{Environment: environment, CORSOrigins: []string{"http://localhost:3000"}}
	ts := &testServer{
		companies: &fakeCompanyService{
			users: map[snowflake.ID]*companydomain.User{
				7: {ID: 7, CompanyID: 70},
			},
			active:  true,
			members: []snowflake.ID{7, 8},
		},
		aggregation: &fakeAggregationService{},
		routes:      &fakeRouteService{},
	}
	router := NewEngine(observability.Config{}, cfg, nil)
	NewServer(ServerParams{
		Gin:            router,
		Cfg:            cfg,
		Clock:          clock.NewFakeClock(testNow),
		Log:            zap.NewNop(),
		CompanySvc:     ts.companies,
		AggregationSvc: ts.aggregation,
		RouteSvc:       ts.routes,
	})
	ts.router = router
	return ts
}

func (ts *testServer) do(method, path string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp := httptest.NewRecorder()
	ts.router.ServeHTTP(resp, req)
	return resp
}

func decodeError(t *testing.T, resp *httptest.ResponseRecorder) errorPayload {
	t.Helper()
	var body errorResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	return body.Error
}

func TestDashboardReturnsData(t *testing.T) {
	ts := newTestServer(t, "development")

	resp := ts.do(http.MethodGet, "/api/users/7/dashboard/company?date=2024-01-31", nil)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var body struct {
		Data aggregationdomain.Dashboard `json:"data"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, aggregationdomain.GranularityCompany, body.Data.Granularity)
	assert.Equal(t, "2024-01-31", body.Data.Date)
	assert.Equal(t, aggregationdomain.Subject{UserID: 7, CompanyID: 70}, ts.aggregation.last.Subject)
	assert.Equal(t, "70", ts.aggregation.companyID)
}

func TestDashboardDefaultsDateToNow(t *testing.T) {
	ts := newTestServer(t, "development")

	resp := ts.do(http.MethodGet, "/api/users/7/dashboard/employee", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, testNow, ts.aggregation.last.Date)
}

func TestDashboardRejectsExpiredTrial(t *testing.T) {
	ts := newTestServer(t, "development")
	ts.companies.active = false

	resp := ts.do(http.MethodGet, "/api/users/7/dashboard/employee", nil)
	require.Equal(t, http.StatusPaymentRequired, resp.Code)
	assert.Equal(t, "trial_expired", decodeError(t, resp).Type)
}

func TestDashboardValidation(t *testing.T) {
	ts := newTestServer(t, "development")

	cases := []struct {
		path   string
		status int
		code   string
	}{
		{"/api/users/abc/dashboard/employee", http.StatusBadRequest, "invalid_user_id"},
		{"/api/users/7/dashboard/team", http.StatusBadRequest, "invalid_granularity"},
		{"/api/users/7/dashboard/employee?date=31-01-2024", http.StatusBadRequest, "invalid_date"},
		{"/api/users/9/dashboard/employee", http.StatusNotFound, ""},
	}
	for _, tc := range cases {
		resp := ts.do(http.MethodGet, tc.path, nil)
		require.Equal(t, tc.status, resp.Code, tc.path)
		payload := decodeError(t, resp)
		if tc.code != "" {
			require.Len(t, payload.Errors, 1, tc.path)
			assert.Equal(t, tc.code, payload.Errors[0].Code, tc.path)
		}
	}
}

func TestListCleanerRoutesScopesToCompany(t *testing.T) {
	ts := newTestServer(t, "development")

	resp := ts.do(http.MethodGet, "/api/users/7/routes/cleaner?sort=origin&direction=asc&q=lon", nil)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, []snowflake.ID{7, 8}, ts.routes.filter.UserIDs)
	assert.Equal(t, "origin", ts.routes.filter.Sort)
	assert.Equal(t, routedomain.SortAsc, ts.routes.filter.Direction)
	assert.Equal(t, "lon", ts.routes.filter.Query)
}

func TestListCleanerRoutesRejectsUnknownSort(t *testing.T) {
	ts := newTestServer(t, "development")

	resp := ts.do(http.MethodGet, "/api/users/7/routes/cleaner?sort=amount", nil)
	require.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "invalid_sort", decodeError(t, resp).Errors[0].Code)
}

func TestEditRoute(t *testing.T) {
	ts := newTestServer(t, "development")

	resp := ts.do(http.MethodPatch, "/api/users/7/routes/42", []byte(`{"origin":"Leeds","destination":"York","return":true}`))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, routedomain.EditRequest{
		UserIDs:     []snowflake.ID{7, 8},
		ExpenseID:   42,
		Origin:      "Leeds",
		Destination: "York",
		Return:      true,
	}, ts.routes.edit)
	assert.Equal(t, "70", ts.routes.companyID)

	resp = ts.do(http.MethodPatch, "/api/users/7/routes/42", []byte(`{"origin":"Leeds"}`))
	require.Equal(t, http.StatusBadRequest, resp.Code)
	payload := decodeError(t, resp)
	assert.Equal(t, "incomplete_route", payload.Errors[0].Code)
	assert.Equal(t, "route", payload.Errors[0].Field)

	resp = ts.do(http.MethodPatch, "/api/users/7/routes/13", []byte(`{"origin":"Leeds","destination":"York"}`))
	require.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "unit_route_not_editable", decodeError(t, resp).Errors[0].Code)

	resp = ts.do(http.MethodPatch, "/api/users/7/routes/404", []byte(`{"origin":"Leeds","destination":"York"}`))
	assert.Equal(t, http.StatusNotFound, resp.Code)

	resp = ts.do(http.MethodPatch, "/api/users/7/routes/0", []byte(`{}`))
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = ts.do(http.MethodPatch, "/api/users/7/routes/42", []byte(`{`))
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestEditRouteRequiresKnownUser(t *testing.T) {
	ts := newTestServer(t, "development")

	resp := ts.do(http.MethodPatch, "/api/users/9/routes/42", []byte(`{"origin":"Leeds","destination":"York"}`))
	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.Zero(t, ts.routes.edit.ExpenseID)
}

func TestSchedulerRouteOnlyOutsideProduction(t *testing.T) {
	dev := newTestServer(t, "development")
	resp := dev.do(http.MethodPost, "/api/admin/scheduler/run", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.Code)

	prod := newTestServer(t, "production")
	resp = prod.do(http.MethodPost, "/api/admin/scheduler/run", nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestCORSPreflight(t *testing.T) {
	ts := newTestServer(t, "development")

	req := httptest.NewRequest(http.MethodOptions, "/api/users/7/routes/42", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPatch)
	resp := httptest.NewRecorder()
	ts.router.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusNoContent, resp.Code)
	assert.Equal(t, "http://localhost:3000", resp.Header().Get("Access-Control-Allow-Origin"))
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, "development")
	resp := ts.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, resp.Code)
}
