package scheduler

import (
	"context"
	"sort"
	"time"

	obscontext "github.com/smallbiznis/canopact/internal/observability/context"
	obslogger "github.com/smallbiznis/canopact/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/canopact/internal/observability/metrics"
	"go.uber.org/zap"
)

// jobRun tracks one execution of a job for its start/finish log lines.
type jobRun struct {
	job       string
	runID     string
	batchSize int
	startedAt time.Time
	passes    int
	failures  int
	counts    map[string]int
}

type jobRunKey struct{}

// Add records count rows of the given resource as handled in this run.
func (r *jobRun) Add(resource string, count int) {
	if r == nil || count <= 0 {
		return
	}
	if r.counts == nil {
		r.counts = make(map[string]int)
	}
	r.counts[resource] += count
}

func (r *jobRun) total() int {
	n := 0
	for _, c := range r.counts {
		n += c
	}
	return n
}

func (s *Scheduler) ensureJobRun(ctx context.Context, job string, batchSize int) (context.Context, *jobRun, bool) {
	if ctx == nil {
		ctx = context.Background()
	}
	if run, ok := ctx.Value(jobRunKey{}).(*jobRun); ok && run != nil {
		return ctx, run, false
	}
	run := &jobRun{
		job:       job,
		runID:     s.genID.Generate().String(),
		batchSize: batchSize,
		startedAt: s.clock.Now(),
	}
	ctx = context.WithValue(ctx, jobRunKey{}, run)
	return obscontext.WithJob(ctx, job), run, true
}

func (s *Scheduler) logger(ctx context.Context) *zap.Logger {
	return obslogger.WithContext(ctx, s.log)
}

func (s *Scheduler) logJobStart(ctx context.Context, run *jobRun) {
	s.logger(ctx).Info("scheduler job started",
		zap.String("run_id", run.runID),
		zap.Int("batch_size", run.batchSize),
	)
}

func (s *Scheduler) logJobFinish(ctx context.Context, run *jobRun) {
	fields := []zap.Field{
		zap.String("run_id", run.runID),
		zap.Duration("elapsed", s.clock.Now().Sub(run.startedAt)),
		zap.Int("processed", run.total()),
		zap.Int("failures", run.failures),
	}
	if run.passes > 0 {
		fields = append(fields, zap.Int("passes", run.passes))
	}
	resources := make([]string, 0, len(run.counts))
	for resource := range run.counts {
		resources = append(resources, resource)
	}
	sort.Strings(resources)
	for _, resource := range resources {
		fields = append(fields, zap.Int(resource, run.counts[resource]))
	}

	if run.failures > 0 {
		s.logger(ctx).Warn("scheduler job finished with failures", fields...)
		return
	}
	s.logger(ctx).Info("scheduler job finished", fields...)
}

// logStageError logs a failed pipeline stage with its classification and counts it
// against the run.
func (s *Scheduler) logStageError(ctx context.Context, run *jobRun, stage string, err error, fields ...zap.Field) {
	if err == nil {
		return
	}
	if run != nil {
		run.failures++
	}
	s.logger(ctx).Error("scheduler stage failed", append([]zap.Field{
		zap.String("stage", stage),
		zap.String("error_type", obsmetrics.ClassifySchedulerErrorType(err)),
		zap.Bool("retryable", obsmetrics.IsSchedulerErrorRetryable(err)),
		zap.Error(err),
	}, fields...)...)
}
