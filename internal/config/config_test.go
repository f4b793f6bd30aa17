package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("AGG_KPI_MONTHS", "")
	t.Setenv("SCHEDULER_JOBS", "ingest_reports, calculate_carbon,,")
	t.Setenv("DISTANCE_TIMEOUT", "15")

	cfg := Load()
	if cfg.Aggregation.KPIMonths != 6 || cfg.Aggregation.ChartMonths != 8 || cfg.Aggregation.SigFigs != 2 {
		t.Fatalf("unexpected aggregation defaults: %+v", cfg.Aggregation)
	}
	if cfg.TrialPeriodDays != 14 {
		t.Fatalf("expected 14 day trial, got %d", cfg.TrialPeriodDays)
	}
	if len(cfg.Scheduler.Jobs) != 2 || cfg.Scheduler.Jobs[1] != "calculate_carbon" {
		t.Fatalf("unexpected jobs: %v", cfg.Scheduler.Jobs)
	}
	if cfg.Distance.Timeout != 15*time.Second {
		t.Fatalf("expected bare seconds to parse, got %v", cfg.Distance.Timeout)
	}
}

func TestIsProduction(t *testing.T) {
	if !(Config{Environment: "Production"}).IsProduction() {
		t.Fatalf("expected production")
	}
	if (Config{Environment: "staging"}).IsProduction() {
		t.Fatalf("expected non-production")
	}
}
