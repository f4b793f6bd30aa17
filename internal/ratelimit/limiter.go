package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/canopact/internal/config"
)

const (
	keyDistanceProvider = "canopact:ratelimit:distance:%s"
	keySchedulerJob     = "canopact:lease:scheduler:%s"
)

// Limiter throttles calls to external distance providers and leases scheduler jobs
// across instances. A nil *Limiter allows everything.
type Limiter struct {
	bucket *TokenBucket
	locker *Locker

	providerRate  float64
	providerBurst int
	leaseTTL      time.Duration
}

func NewLimiter(cfg config.Config, client *redis.Client) *Limiter {
	if client == nil {
		return nil
	}
	return &Limiter{
		bucket:        NewTokenBucket(client),
		locker:        NewLocker(client),
		providerRate:  cfg.Distance.RateLimit,
		providerBurst: cfg.Distance.RateBurst,
		leaseTTL:      cfg.Scheduler.LeaseTTL,
	}
}

func (l *Limiter) Enabled() bool {
	return l != nil && l.bucket != nil
}

// AllowProvider takes one token for the named provider. Throttling is off when no
// rate is configured.
func (l *Limiter) AllowProvider(ctx context.Context, provider string) (RateLimitResult, error) {
	if !l.Enabled() || l.providerRate <= 0 || l.providerBurst <= 0 {
		return RateLimitResult{Allowed: true}, nil
	}
	return l.bucket.Allow(ctx, fmt.Sprintf(keyDistanceProvider, strings.TrimSpace(provider)), l.providerRate, l.providerBurst)
}

// TryLockJob acquires the job lease. Without redis every caller gets the lease.
func (l *Limiter) TryLockJob(ctx context.Context, job string) (string, bool, error) {
	if !l.Enabled() {
		return "", true, nil
	}
	return l.locker.TryLock(ctx, fmt.Sprintf(keySchedulerJob, strings.TrimSpace(job)), l.leaseTTL)
}

func (l *Limiter) ReleaseJob(ctx context.Context, job, token string) error {
	if !l.Enabled() {
		return nil
	}
	return l.locker.Release(ctx, fmt.Sprintf(keySchedulerJob, strings.TrimSpace(job)), token)
}
