package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/smallbiznis/canopact/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilLimiterAllowsEverything(t *testing.T) {
	limiter := NewLimiter(config.Config{}, nil)
	require.Nil(t, limiter)
	assert.False(t, limiter.Enabled())

	res, err := limiter.AllowProvider(context.Background(), "google")
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	token, ok, err := limiter.TryLockJob(context.Background(), "calculate_carbon")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, token)
	assert.NoError(t, limiter.ReleaseJob(context.Background(), "calculate_carbon", token))
}

func TestNilLockerAndBucket(t *testing.T) {
	var locker *Locker
	_, ok, err := locker.TryLock(context.Background(), "k", time.Second)
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrLockNotConfigured)
	assert.NoError(t, locker.Release(context.Background(), "k", "t"))

	var bucket *TokenBucket
	_, err = bucket.Allow(context.Background(), "k", 1, 1)
	assert.ErrorIs(t, err, ErrBucketNotConfigured)
}

func TestBucketTTL(t *testing.T) {
	assert.Equal(t, time.Second, bucketTTL(0, 10))
	assert.Equal(t, 4*time.Second, bucketTTL(10, 20))
	assert.Equal(t, time.Second, bucketTTL(1000, 1))
}

func TestScriptValueParsing(t *testing.T) {
	assert.Equal(t, int64(1), toInt(int64(1)))
	assert.Equal(t, int64(7), toInt("7"))
	assert.Equal(t, 2.5, toFloat("2.5"))
	assert.Equal(t, float64(3), toFloat(int64(3)))
	assert.Equal(t, float64(0), toFloat(nil))
}
