package domain

import "context"

type Service interface {
	ResolveScope(ctx context.Context, subject Subject, granularity Granularity) (Scope, error)
	Totals(ctx context.Context, scope Scope, window Window) (Totals, error)
	Dashboard(ctx context.Context, req DashboardRequest) (Dashboard, error)
}
