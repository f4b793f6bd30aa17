package domain

import "context"

type Service interface {
	ResolvePending(ctx context.Context, limit int) (ResolveResult, error)
}

type ResolveResult struct {
	Selected int
	Resolved int
	Invalid  int
}
