package scheduler

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("scheduler",
	fx.Provide(ProvideConfig),
	fx.Provide(New),
	fx.Invoke(startPipeline),
)

// startPipeline ties the ticker loop to the application lifecycle. Stop waits for
// the in-flight tick to observe cancellation.
func startPipeline(lc fx.Lifecycle, cfg Config, sched *Scheduler) {
	if cfg.Disabled {
		sched.log.Info("carbon pipeline scheduler disabled")
		return
	}

	var (
		cancel context.CancelFunc
		done   = make(chan struct{})
	)
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			var ctx context.Context
			ctx, cancel = context.WithCancel(context.Background())
			sched.log.Info("carbon pipeline scheduler started",
				zap.Duration("interval", cfg.RunInterval),
				zap.Strings("jobs", cfg.EnabledJobs),
			)
			go func() {
				defer close(done)
				sched.RunForever(ctx)
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if cancel == nil {
				return nil
			}
			cancel()
			select {
			case <-done:
			case <-ctx.Done():
				return ctx.Err()
			}
			return nil
		},
	})
}
