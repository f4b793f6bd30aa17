package domain

import "context"

type Service interface {
	CalculatePending(ctx context.Context, limit int) (CalculateResult, error)
}

type CalculateResult struct {
	Selected int
	Created  int
}
