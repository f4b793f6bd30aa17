package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/smallbiznis/canopact/internal/cache"
	"github.com/smallbiznis/canopact/internal/clock"
	"github.com/smallbiznis/canopact/internal/config"
	distancedomain "github.com/smallbiznis/canopact/internal/distance/domain"
	obslogger "github.com/smallbiznis/canopact/internal/observability/logger"
	"github.com/smallbiznis/canopact/internal/observability/metrics"
	"github.com/smallbiznis/canopact/internal/ratelimit"
	routedomain "github.com/smallbiznis/canopact/internal/route/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const (
	outcomeResolved = "resolved"
	outcomeCached   = "cached"
	outcomeFailed   = "failed"

	defaultConcurrency = 8
	minThrottleWait    = 50 * time.Millisecond
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	Clock     clock.Clock
	Config    config.Config
	Repo      distancedomain.Repository
	Resolvers []distancedomain.Resolver `group:"distance_resolvers"`
	Cache     distancedomain.Cache      `optional:"true"`
	Limiter   *ratelimit.Limiter        `optional:"true"`
	Metrics   *metrics.Metrics          `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	clock       clock.Clock
	repo        distancedomain.Repository
	resolvers   map[routedomain.RouteCategory]distancedomain.Resolver
	cache       distancedomain.Cache
	cacheTTL    time.Duration
	limiter     *ratelimit.Limiter
	metrics     *metrics.Metrics
	concurrency int
}

func New(p Params) distancedomain.Service {
	resolvers := make(map[routedomain.RouteCategory]distancedomain.Resolver, len(p.Resolvers))
	for _, r := range p.Resolvers {
		if r == nil {
			continue
		}
		resolvers[r.Category()] = r
	}
	concurrency := p.Config.Distance.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("distance.service"),
		clock:       p.Clock,
		repo:        p.Repo,
		resolvers:   resolvers,
		cache:       p.Cache,
		cacheTTL:    p.Config.Distance.CacheTTL,
		limiter:     p.Limiter,
		metrics:     p.Metrics,
		concurrency: concurrency,
	}
}

type outcome struct {
	lookup distancedomain.Lookup
	km     float64
	err    error
}

// ResolvePending fills in the distance of every unresolved route. Lookups run in
// parallel and never fail the batch: a row that cannot be resolved is marked invalid
// for the cleaner. Only store errors are returned.
func (s *Service) ResolvePending(ctx context.Context, limit int) (distancedomain.ResolveResult, error) {
	if limit <= 0 {
		limit = 100
	}
	pending, err := s.repo.ListPending(ctx, s.db, limit)
	if err != nil {
		return distancedomain.ResolveResult{}, err
	}
	result := distancedomain.ResolveResult{Selected: len(pending)}
	if len(pending) == 0 {
		return result, nil
	}

	outcomes := make([]outcome, len(pending))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, lookup := range pending {
		i, lookup := i, lookup
		g.Go(func() error {
			km, err := s.resolve(gctx, lookup)
			outcomes[i] = outcome{lookup: lookup, km: km, err: err}
			return nil
		})
	}
	_ = g.Wait()

	log := obslogger.WithContext(ctx, s.log)
	var errs []error
	for _, o := range outcomes {
		rowLog := obslogger.WithExpense(log, o.lookup.ExpenseID)
		now := s.clock.Now()

		if o.err != nil {
			// A cancelled run says nothing about the route; leave it for the next run.
			if ctx.Err() != nil {
				continue
			}
			rowLog.Warn("distance unresolved",
				zap.String("route_category", string(o.lookup.RouteCategory)),
				zap.Error(o.err),
			)
			if err := s.repo.MarkInvalid(ctx, s.db, o.lookup.ExpenseID, now); err != nil {
				errs = append(errs, fmt.Errorf("mark route %d invalid: %w", o.lookup.ExpenseID, err))
				continue
			}
			result.Invalid++
			continue
		}

		km := o.km
		if o.lookup.IsRoundTrip() {
			km *= 2
		}
		if err := s.repo.SaveResolved(ctx, s.db, o.lookup.ExpenseID, km, now); err != nil {
			errs = append(errs, fmt.Errorf("save distance for route %d: %w", o.lookup.ExpenseID, err))
			continue
		}
		result.Resolved++
	}

	if ctx.Err() != nil {
		errs = append(errs, ctx.Err())
	}
	log.Debug("distances resolved",
		zap.Int("selected", result.Selected),
		zap.Int("resolved", result.Resolved),
		zap.Int("invalid", result.Invalid),
	)
	return result, errors.Join(errs...)
}

// resolve returns the one-way distance for a lookup.
func (s *Service) resolve(ctx context.Context, lookup distancedomain.Lookup) (float64, error) {
	resolver, ok := s.resolvers[lookup.RouteCategory]
	if !ok {
		return 0, fmt.Errorf("%w: %s", distancedomain.ErrNoResolver, lookup.RouteCategory)
	}
	provider := resolver.Name()

	// Declared distances are free; only remote lookups are cached and throttled.
	if lookup.RouteCategory == routedomain.RouteCategoryUnit {
		km, err := resolver.Resolve(ctx, lookup)
		s.metrics.RecordDistanceLookup(ctx, provider, outcomeLabel(err))
		return km, err
	}

	origin, destination, err := lookup.Endpoints()
	if err != nil {
		s.metrics.RecordDistanceLookup(ctx, provider, outcomeFailed)
		return 0, err
	}

	key := cache.DistanceKey(provider, origin, destination)
	if s.cache != nil {
		km, hit, err := s.cache.Get(ctx, key)
		if err != nil {
			s.log.Debug("distance cache read failed", zap.Error(err))
		}
		if hit {
			s.metrics.RecordDistanceLookup(ctx, provider, outcomeCached)
			return km, nil
		}
	}

	if err := s.throttle(ctx, provider); err != nil {
		return 0, err
	}

	km, err := resolver.Resolve(ctx, lookup)
	s.metrics.RecordDistanceLookup(ctx, provider, outcomeLabel(err))
	if err != nil {
		return 0, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, km, s.cacheTTL); err != nil {
			s.log.Debug("distance cache write failed", zap.Error(err))
		}
	}
	return km, nil
}

// throttle waits for a provider token. Limiter errors let the call through.
func (s *Service) throttle(ctx context.Context, provider string) error {
	for {
		res, err := s.limiter.AllowProvider(ctx, provider)
		if err != nil {
			s.log.Debug("distance rate limiter unavailable", zap.String("provider", provider), zap.Error(err))
			return nil
		}
		if res.Allowed {
			return nil
		}
		wait := res.RetryAfter
		if wait < minThrottleWait {
			wait = minThrottleWait
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func outcomeLabel(err error) string {
	if err != nil {
		return outcomeFailed
	}
	return outcomeResolved
}
