package domain

import "context"

type Service interface {
	Ingest(ctx context.Context) (IngestResult, error)
}

// IngestResult summarises one sync run across every account.
type IngestResult struct {
	RunID    string `json:"run_id"`
	Accounts int    `json:"accounts"`
	Skipped  int    `json:"skipped"`
	Failed   int    `json:"failed"`
	Reports  int    `json:"reports"`
	Expenses int    `json:"expenses"`
}
