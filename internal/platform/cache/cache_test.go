package cache

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return New(client, time.Minute)
}

func TestFetchJSONPopulatesOnMiss(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	calls := 0
	loader := func(context.Context) (any, error) {
		calls++
		return map[string]string{"total": "110.00"}, nil
	}

	key, err := c.BuildKey(ctx, "reports", "tb", "20260831")
	require.NoError(t, err)

	var first map[string]string
	require.NoError(t, c.FetchJSON(ctx, key, &first, loader))
	assert.Equal(t, "110.00", first["total"])
	assert.Equal(t, 1, calls)

	var second map[string]string
	require.NoError(t, c.FetchJSON(ctx, key, &second, loader))
	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls, "second fetch must hit the cache")
}

func TestBumpChangesKeys(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	before, err := c.BuildKey(ctx, "reports", "bs", "20260831")
	require.NoError(t, err)

	require.NoError(t, c.Bump(ctx))

	after, err := c.BuildKey(ctx, "reports", "bs", "20260831")
	require.NoError(t, err)
	assert.NotEqual(t, before, after)
}

func TestInvalidateReportsForcesReload(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	calls := 0
	loader := func(context.Context) (any, error) {
		calls++
		return calls, nil
	}

	fetch := func() int {
		key, err := c.BuildKey(ctx, "reports", "is")
		require.NoError(t, err)
		var got int
		require.NoError(t, c.FetchJSON(ctx, key, &got, loader))
		return got
	}

	assert.Equal(t, 1, fetch())
	assert.Equal(t, 1, fetch())

	c.InvalidateReports(ctx)
	assert.Equal(t, 2, fetch())
}

func TestNilCacheDegradesToLoader(t *testing.T) {
	var c *Cache
	ctx := context.Background()

	key, err := c.BuildKey(ctx, "reports", "tb")
	require.NoError(t, err)

	calls := 0
	var got int
	for i := 0; i < 2; i++ {
		require.NoError(t, c.FetchJSON(ctx, key, &got, func(context.Context) (any, error) {
			calls++
			return calls, nil
		}))
	}
	assert.Equal(t, 2, calls, "every fetch reloads without a backing client")
	require.NoError(t, c.Bump(ctx))
}
