package query

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func counter(calls *atomic.Int32, value string) func(context.Context) (string, error) {
	return func(context.Context) (string, error) {
		calls.Add(1)
		return value, nil
	}
}

func TestFetch_CachesUntilTTL(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	cache := NewCache(30 * time.Second)
	cache.now = func() time.Time { return now }

	var calls atomic.Int32
	key := Key{"user", "tournament", "42"}

	v, err := Fetch(context.Background(), cache, key, counter(&calls, "first"))
	require.NoError(t, err)
	assert.Equal(t, "first", v)

	v, err = Fetch(context.Background(), cache, key, counter(&calls, "second"))
	require.NoError(t, err)
	assert.Equal(t, "first", v)
	assert.Equal(t, int32(1), calls.Load())

	now = now.Add(30 * time.Second)
	v, err = Fetch(context.Background(), cache, key, counter(&calls, "third"))
	require.NoError(t, err)
	assert.Equal(t, "third", v)
	assert.Equal(t, int32(2), calls.Load())
}

func TestFetch_DoesNotCacheErrors(t *testing.T) {
	cache := NewCache(time.Minute)
	boom := errors.New("boom")

	_, err := Fetch(context.Background(), cache, Key{"roles"}, func(context.Context) (int, error) {
		return 0, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, cache.Len())

	v, err := Fetch(context.Background(), cache, Key{"roles"}, func(context.Context) (int, error) {
		return 7, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestFetch_CollapsesConcurrentCalls(t *testing.T) {
	cache := NewCache(time.Minute)
	release := make(chan struct{})
	var calls atomic.Int32

	fn := func(context.Context) (string, error) {
		calls.Add(1)
		<-release
		return "guild", nil
	}

	var wg sync.WaitGroup
	results := make([]string, 5)
	for i := range results {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := Fetch(context.Background(), cache, Key{"guild", "1"}, fn)
			assert.NoError(t, err)
			results[i] = v
		}()
	}

	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, v := range results {
		assert.Equal(t, "guild", v)
	}
}

func TestFetch_CallerCancellation(t *testing.T) {
	cache := NewCache(time.Minute)
	release := make(chan struct{})
	done := make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		defer close(done)
		_, err := Fetch(ctx, cache, Key{"channels", "1"}, func(context.Context) (string, error) {
			<-release
			return "late", nil
		})
		assert.ErrorIs(t, err, context.Canceled)
	}()

	cancel()
	<-done
	close(release)

	// The shared fetch still completes and fills the cache.
	require.Eventually(t, func() bool { return cache.Len() == 1 }, time.Second, time.Millisecond)
}

func TestInvalidate_ByPrefix(t *testing.T) {
	cache := NewCache(time.Minute)
	ctx := context.Background()

	for _, key := range []Key{
		{"u1", "tournament", "1"},
		{"u1", "tournament", "2"},
		{"u1", "guild", "1"},
		{"u2", "tournament", "1"},
	} {
		_, err := Fetch(ctx, cache, key, func(context.Context) (bool, error) { return true, nil })
		require.NoError(t, err)
	}
	require.Equal(t, 4, cache.Len())

	cache.Invalidate(Key{"u1", "tournament"})
	assert.Equal(t, 2, cache.Len())

	cache.Invalidate(Key{"u1"})
	assert.Equal(t, 1, cache.Len())
}

func TestInvalidate_DuringFetch(t *testing.T) {
	cache := NewCache(time.Minute)
	ctx := context.Background()
	key := Key{"u", "tournament", "1"}

	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan string)
	go func() {
		v, err := Fetch(ctx, cache, key, func(context.Context) (string, error) {
			close(started)
			<-release
			return "before-write", nil
		})
		assert.NoError(t, err)
		done <- v
	}()
	<-started

	cache.Invalidate(Key{"u", "tournament"})

	v, err := Fetch(ctx, cache, key, func(context.Context) (string, error) { return "after-write", nil })
	require.NoError(t, err)
	assert.Equal(t, "after-write", v)

	close(release)
	assert.Equal(t, "before-write", <-done)

	v, err = Fetch(ctx, cache, key, func(context.Context) (string, error) { return "refetched", nil })
	require.NoError(t, err)
	assert.Equal(t, "after-write", v)
	assert.Equal(t, 1, cache.Len())
}

func TestFetch_SweepsExpiredEntries(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	cache := NewCache(time.Millisecond)
	cache.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 1000; i++ {
		i := i
		_, err := Fetch(ctx, cache, Key{"u", "guild", strconv.Itoa(i)}, func(context.Context) (int, error) { return i, nil })
		require.NoError(t, err)
	}
	require.Equal(t, 1000, cache.Len())

	now = now.Add(time.Second)
	_, err := Fetch(ctx, cache, Key{"u", "guild", "new"}, func(context.Context) (int, error) { return 0, nil })
	require.NoError(t, err)
	assert.Equal(t, 1, cache.Len())
}

func TestKey_HasPrefix(t *testing.T) {
	assert.True(t, Key{"a", "b"}.HasPrefix(Key{"a"}))
	assert.True(t, Key{"a", "b"}.HasPrefix(Key{}))
	assert.False(t, Key{"a"}.HasPrefix(Key{"a", "b"}))
	assert.False(t, Key{"ab"}.HasPrefix(Key{"a"}))
}
