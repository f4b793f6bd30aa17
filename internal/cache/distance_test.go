package cache

import (
	"context"
	"testing"
	"time"

	"github.com/smallbiznis/canopact/internal/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistanceKeyNormalizesPlaces(t *testing.T) {
	assert.Equal(t, DistanceKey("google", "London Bridge", " Leeds"), DistanceKey("google", "london bridge", "LEEDS "))
	assert.NotEqual(t, DistanceKey("google", "A", "B"), DistanceKey("distance24", "A", "B"))
	assert.NotEqual(t, DistanceKey("google", "A", "B"), DistanceKey("google", "B", "A"))
}

func TestMemoryDistanceCache(t *testing.T) {
	fake := clock.NewFakeClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	c := NewDistanceCache(nil, fake)
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "k", 42.5, time.Hour))
	km, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 42.5, km)

	fake.Advance(2 * time.Hour)
	_, ok, _ = c.Get(ctx, "k")
	assert.False(t, ok)
}
