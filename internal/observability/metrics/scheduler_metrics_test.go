package metrics

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	emissionsdomain "github.com/smallbiznis/canopact/internal/emissions/domain"
	expensedomain "github.com/smallbiznis/canopact/internal/expense/domain"
	"gorm.io/gorm"
)

func TestClassifySchedulerJobReason(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "deadline",
			err:  context.DeadlineExceeded,
			want: SchedulerJobReasonDeadlineExceeded,
		},
		{
			name: "invalid_category",
			err:  fmt.Errorf("compute: %w", expensedomain.NewInvalidCategoryError("Meals")),
			want: SchedulerJobReasonInvalidCategory,
		},
		{
			name: "missing_factor",
			err:  emissionsdomain.ErrMissingFactor,
			want: SchedulerJobReasonMissingFactor,
		},
		{
			name: "db_lock_timeout",
			err:  &pgconn.PgError{Code: "55P03"},
			want: SchedulerJobReasonDBLockTimeout,
		},
		{
			name: "serialization_failure",
			err:  &pgconn.PgError{Code: "40001"},
			want: SchedulerJobReasonSerializationFailure,
		},
		{
			name: "unique_violation",
			err:  gorm.ErrDuplicatedKey,
			want: SchedulerJobReasonUniqueViolation,
		},
		{
			name: "unknown",
			err:  errors.New("boom"),
			want: SchedulerJobReasonUnknown,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ClassifySchedulerJobReason(tc.err); got != tc.want {
				t.Fatalf("expected reason %q, got %q", tc.want, got)
			}
		})
	}
}

func TestConfigurationErrorsAreNotRetryable(t *testing.T) {
	err := fmt.Errorf("calculate_carbon: %w", emissionsdomain.ErrMissingFactor)
	if IsSchedulerErrorRetryable(err) {
		t.Fatalf("expected missing factor to be non-retryable")
	}
	if got := ClassifySchedulerErrorType(err); got != SchedulerErrorTypeConfiguration {
		t.Fatalf("expected configuration error type, got %q", got)
	}
	if !IsSchedulerErrorRetryable(&pgconn.PgError{Code: "40001"}) {
		t.Fatalf("expected serialization failure to be retryable")
	}
}

func TestAddBatchProcessed(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := newSchedulerMetrics(registry, Config{
		ServiceName: "canopact",
		Environment: "test",
	})

	metrics.AddBatchProcessed("calculate_carbon", ResourceCarbon, 3)
	metrics.AddBatchProcessed("calculate_carbon", ResourceCarbon, 0)

	got := testutil.ToFloat64(metrics.batchProcessed.WithLabelValues("calculate_carbon", ResourceCarbon))
	if got != 3 {
		t.Fatalf("expected processed count 3, got %v", got)
	}
}
