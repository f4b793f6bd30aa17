package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/canopact/internal/clock"
	companydomain "github.com/smallbiznis/canopact/internal/company/domain"
	distancedomain "github.com/smallbiznis/canopact/internal/distance/domain"
	emissionsdomain "github.com/smallbiznis/canopact/internal/emissions/domain"
	ingestiondomain "github.com/smallbiznis/canopact/internal/ingestion/domain"
	obsmetrics "github.com/smallbiznis/canopact/internal/observability/metrics"
	"github.com/smallbiznis/canopact/internal/ratelimit"
	routedomain "github.com/smallbiznis/canopact/internal/route/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	JobIngestReports   = "ingest_reports"
	JobCalculateCarbon = "calculate_carbon"
	JobExpireTrials    = "expire_trials"
)

var ErrInvalidConfig = errors.New("invalid_scheduler_config")

// JobLease keeps a job on a single instance at a time.
type JobLease interface {
	TryLockJob(ctx context.Context, job string) (string, bool, error)
	ReleaseJob(ctx context.Context, job, token string) error
}

type Params struct {
	fx.In

	Log          *zap.Logger
	IngestionSvc ingestiondomain.Service
	RouteSvc     routedomain.Service
	DistanceSvc  distancedomain.Service
	EmissionsSvc emissionsdomain.Service
	CompanySvc   companydomain.Service
	Limiter      *ratelimit.Limiter `optional:"true"`
	GenID        *snowflake.Node
	Clock        clock.Clock
	Config       Config `optional:"true"`
}

type Scheduler struct {
	log          *zap.Logger
	cfg          Config
	genID        *snowflake.Node
	clock        clock.Clock
	lease        JobLease
	ingestionSvc ingestiondomain.Service
	routeSvc     routedomain.Service
	distanceSvc  distancedomain.Service
	emissionsSvc emissionsdomain.Service
	companySvc   companydomain.Service
}

func New(p Params) (*Scheduler, error) {
	if p.Log == nil || p.IngestionSvc == nil || p.RouteSvc == nil || p.DistanceSvc == nil || p.EmissionsSvc == nil || p.CompanySvc == nil || p.GenID == nil || p.Clock == nil {
		return nil, ErrInvalidConfig
	}
	return &Scheduler{
		log:          p.Log.Named("scheduler").With(zap.String("component", "scheduler")),
		cfg:          p.Config.withDefaults(),
		genID:        p.GenID,
		clock:        p.Clock,
		lease:        p.Limiter,
		ingestionSvc: p.IngestionSvc,
		routeSvc:     p.RouteSvc,
		distanceSvc:  p.DistanceSvc,
		emissionsSvc: p.EmissionsSvc,
		companySvc:   p.CompanySvc,
	}, nil
}

func (s *Scheduler) runJob(
	parent context.Context,
	name string,
	batchSize int,
	timeout time.Duration,
	fn func(ctx context.Context) error,
) error {
	start := s.clock.Now()
	schedMetrics := obsmetrics.Scheduler()

	token, acquired, err := s.acquireLease(parent, name)
	if err != nil {
		s.log.Warn("job lease unavailable", zap.String("job", name), zap.Error(err))
		schedMetrics.IncJobError(name, err)
		return nil
	}
	if !acquired {
		schedMetrics.IncBatchDeferred(name, obsmetrics.SchedulerBatchDeferredReasonLeaseHeld)
		s.log.Debug("job lease held by another instance", zap.String("job", name))
		return nil
	}
	defer s.releaseLease(name, token)

	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	ctx, run, owner := s.ensureJobRun(ctx, name, batchSize)
	if owner {
		s.logJobStart(ctx, run)
	}
	log := s.logger(ctx).With(zap.String("run_id", run.runID))
	schedMetrics.IncJobRun(name)

	err = fn(ctx)
	schedMetrics.ObserveJobDuration(name, s.clock.Now().Sub(start))
	if owner {
		if err != nil && run.failures == 0 {
			run.failures++
		}
		s.logJobFinish(ctx, run)
	}
	if err == nil {
		return nil
	}

	isTimeout := errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
	if isTimeout {
		schedMetrics.IncJobTimeout(name)
	}
	schedMetrics.IncJobError(name, err)
	if isTimeout {
		log.Warn("job timed out",
			zap.Duration("timeout", timeout),
			zap.Error(err),
		)
		return nil
	}

	return fmt.Errorf("%s: %w", name, err)
}

func (s *Scheduler) acquireLease(ctx context.Context, job string) (string, bool, error) {
	if s.lease == nil {
		return "", true, nil
	}
	start := time.Now()
	token, ok, err := s.lease.TryLockJob(ctx, job)
	obsmetrics.Scheduler().ObserveLeaseWait(job, time.Since(start))
	return token, ok, err
}

func (s *Scheduler) releaseLease(job, token string) {
	if s.lease == nil || token == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.lease.ReleaseJob(ctx, job, token); err != nil {
		s.log.Warn("release job lease failed", zap.String("job", job), zap.Error(err))
	}
}

// RunOnce runs every enabled job in pipeline order. Job errors do not stop later jobs.
func (s *Scheduler) RunOnce(parent context.Context) error {
	var err error

	jobs := []struct {
		Name      string
		BatchSize int
		Timeout   time.Duration
		Run       func(context.Context) error
	}{
		{JobExpireTrials, 0, s.cfg.ExpireTrialTimeout, s.ExpireTrialsJob},
		{JobIngestReports, 0, s.cfg.IngestTimeout, s.IngestReportsJob},
		{JobCalculateCarbon, s.cfg.BatchSize, s.cfg.CarbonTimeout, s.CalculateCarbonJob},
	}

	for _, job := range jobs {
		if !s.isJobEnabled(job.Name) {
			continue
		}
		err = errors.Join(err, s.runJob(parent, job.Name, job.BatchSize, job.Timeout, job.Run))
	}
	return err
}

func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()
	nextRun := s.clock.Now().Add(s.cfg.RunInterval)
	schedMetrics := obsmetrics.Scheduler()

	for {
		runLag := s.clock.Now().Sub(nextRun)
		if runLag > 0 {
			schedMetrics.ObserveRunLoopLag(runLag)
		}
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("scheduler run failed", zap.Error(err))
		}
		nextRun = nextRun.Add(s.cfg.RunInterval)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Scheduler) isJobEnabled(jobName string) bool {
	// No explicit list means every job runs.
	if len(s.cfg.EnabledJobs) == 0 {
		return true
	}
	for _, enabled := range s.cfg.EnabledJobs {
		if strings.EqualFold(strings.TrimSpace(enabled), jobName) {
			return true
		}
	}
	return false
}

func (s *Scheduler) IngestReportsJob(ctx context.Context) error {
	ctx, run, owner := s.ensureJobRun(ctx, JobIngestReports, 0)
	if owner {
		s.logJobStart(ctx, run)
		defer s.logJobFinish(ctx, run)
	}

	result, err := s.ingestionSvc.Ingest(ctx)
	schedMetrics := obsmetrics.Scheduler()
	schedMetrics.AddBatchProcessed(JobIngestReports, obsmetrics.ResourceAccounts, result.Accounts-result.Skipped)
	schedMetrics.AddBatchProcessed(JobIngestReports, obsmetrics.ResourceReports, result.Reports)
	schedMetrics.AddBatchProcessed(JobIngestReports, obsmetrics.ResourceExpenses, result.Expenses)
	run.Add(obsmetrics.ResourceReports, result.Reports)
	run.Add(obsmetrics.ResourceExpenses, result.Expenses)
	if err != nil {
		s.logStageError(ctx, run, "ingest", err,
			zap.String("sync_run_id", result.RunID),
			zap.Int("failed_accounts", result.Failed),
		)
		// Per-account failures are retried on the next tick.
		return ctx.Err()
	}
	return nil
}

// CalculateCarbonJob drives expenses through routes, distances and emissions until a
// pass makes no progress.
func (s *Scheduler) CalculateCarbonJob(ctx context.Context) error {
	ctx, run, owner := s.ensureJobRun(ctx, JobCalculateCarbon, s.cfg.BatchSize)
	if owner {
		s.logJobStart(ctx, run)
		defer s.logJobFinish(ctx, run)
	}
	schedMetrics := obsmetrics.Scheduler()

	for pass := 0; pass < s.cfg.MaxCarbonPasses; pass++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		run.passes++

		routes, err := s.routeSvc.CreatePending(ctx, s.cfg.BatchSize)
		if err != nil {
			s.logStageError(ctx, run, "routes", err)
			return err
		}
		schedMetrics.AddBatchProcessed(JobCalculateCarbon, obsmetrics.ResourceRoutes, routes.Created)

		distances, err := s.distanceSvc.ResolvePending(ctx, s.cfg.BatchSize)
		if err != nil {
			s.logStageError(ctx, run, "distances", err)
			return err
		}
		schedMetrics.AddBatchProcessed(JobCalculateCarbon, obsmetrics.ResourceDistance, distances.Resolved)

		carbon, err := s.emissionsSvc.CalculatePending(ctx, s.cfg.BatchSize)
		if err != nil {
			s.logStageError(ctx, run, "emissions", err)
			return err
		}
		schedMetrics.AddBatchProcessed(JobCalculateCarbon, obsmetrics.ResourceCarbon, carbon.Created)

		progress := routes.Created + routes.Malformed + distances.Resolved + distances.Invalid + carbon.Created
		run.Add(obsmetrics.ResourceRoutes, routes.Created)
		run.Add(obsmetrics.ResourceDistance, distances.Resolved+distances.Invalid)
		run.Add(obsmetrics.ResourceCarbon, carbon.Created)
		if progress == 0 {
			return nil
		}
	}

	s.logger(ctx).Warn("carbon pipeline pass limit reached", zap.Int("passes", s.cfg.MaxCarbonPasses))
	return nil
}

func (s *Scheduler) ExpireTrialsJob(ctx context.Context) error {
	ctx, run, owner := s.ensureJobRun(ctx, JobExpireTrials, 0)
	if owner {
		s.logJobStart(ctx, run)
		defer s.logJobFinish(ctx, run)
	}

	expired, err := s.companySvc.ExpireTrials(ctx, s.clock.Now())
	if err != nil {
		s.logStageError(ctx, run, "trials", err)
		return err
	}
	obsmetrics.Scheduler().AddBatchProcessed(JobExpireTrials, obsmetrics.ResourceTrials, int(expired))
	run.Add(obsmetrics.ResourceTrials, int(expired))
	return nil
}
