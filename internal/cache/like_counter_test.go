package cache_test

import (
	"testing"

	"github.com/sitwithme/sitwithme/internal/cache"
	"github.com/sitwithme/sitwithme/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupCounter(t *testing.T) *cache.RedisLikeCounter {
	testRedis := testutil.SetupTestRedis(t)
	t.Cleanup(func() { testRedis.Teardown(t) })

	counter, err := cache.NewRedisLikeCounter(testRedis.URL)
	require.NoError(t, err)
	t.Cleanup(func() { counter.Close() })

	return counter
}

func TestLikeCounterMiss(t *testing.T) {
	counter := setupCounter(t)

	count, ok, err := counter.Get("post-1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, int64(0), count)
}

func TestLikeCounterSetGet(t *testing.T) {
	counter := setupCounter(t)

	require.NoError(t, counter.Set("post-1", 7))

	count, ok, err := counter.Get("post-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(7), count)
}

func TestLikeCounterIncrementDecrement(t *testing.T) {
	counter := setupCounter(t)

	require.NoError(t, counter.Set("post-1", 3))
	require.NoError(t, counter.Increment("post-1"))
	require.NoError(t, counter.Increment("post-1"))
	require.NoError(t, counter.Decrement("post-1"))

	count, ok, err := counter.Get("post-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(4), count)
}

func TestLikeCounterKeysIsolatedPerPost(t *testing.T) {
	counter := setupCounter(t)

	require.NoError(t, counter.Set("post-1", 5))
	require.NoError(t, counter.Increment("post-2"))

	count1, _, err := counter.Get("post-1")
	require.NoError(t, err)
	count2, _, err := counter.Get("post-2")
	require.NoError(t, err)

	assert.Equal(t, int64(5), count1)
	assert.Equal(t, int64(1), count2)
}
