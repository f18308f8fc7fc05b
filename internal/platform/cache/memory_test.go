package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counting(calls *atomic.Int32, value string) ComputeFunc {
	return func(context.Context) ([]byte, error) {
		calls.Add(1)
		return []byte(value), nil
	}
}

func TestMemoryGet(t *testing.T) {
	ctx := context.Background()

	t.Run("computes once within ttl", func(t *testing.T) {
		c := NewMemory()
		var calls atomic.Int32
		for i := 0; i < 3; i++ {
			v, err := c.Get(ctx, "k", counting(&calls, "v"), time.Minute)
			require.NoError(t, err)
			assert.Equal(t, "v", string(v))
		}
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("recomputes after expiry", func(t *testing.T) {
		now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		c := NewMemory(WithClock(func() time.Time { return now }))
		var calls atomic.Int32

		_, err := c.Get(ctx, "k", counting(&calls, "v"), time.Second)
		require.NoError(t, err)
		now = now.Add(2 * time.Second)
		_, err = c.Get(ctx, "k", counting(&calls, "v"), time.Second)
		require.NoError(t, err)

		assert.Equal(t, int32(2), calls.Load())
	})

	t.Run("compute errors are not cached", func(t *testing.T) {
		c := NewMemory()
		boom := errors.New("boom")
		_, err := c.Get(ctx, "k", func(context.Context) ([]byte, error) { return nil, boom }, time.Minute)
		require.ErrorIs(t, err, boom)

		var calls atomic.Int32
		v, err := c.Get(ctx, "k", counting(&calls, "ok"), time.Minute)
		require.NoError(t, err)
		assert.Equal(t, "ok", string(v))
	})

	t.Run("concurrent misses share one compute", func(t *testing.T) {
		c := NewMemory()
		var calls atomic.Int32
		release := make(chan struct{})
		compute := func(context.Context) ([]byte, error) {
			calls.Add(1)
			<-release
			return []byte("v"), nil
		}

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, _ = c.Get(ctx, "shared", compute, time.Minute)
			}()
		}
		time.Sleep(20 * time.Millisecond)
		close(release)
		wg.Wait()

		assert.Equal(t, int32(1), calls.Load())
	})
}

func TestMemoryInvalidate(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()
	var calls atomic.Int32

	for _, key := range []string{"registry:creditor:a", "registry:creditor:b", "registry:court:a"} {
		_, err := c.Get(ctx, key, counting(&calls, key), time.Minute)
		require.NoError(t, err)
	}
	require.Equal(t, int32(3), calls.Load())

	require.NoError(t, c.InvalidatePrefix(ctx, "registry:creditor:"))
	require.NoError(t, c.Invalidate(ctx, "registry:court:a"))

	for _, key := range []string{"registry:creditor:a", "registry:creditor:b", "registry:court:a"} {
		_, err := c.Get(ctx, key, counting(&calls, key), time.Minute)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(6), calls.Load())
}

func TestGetJSON(t *testing.T) {
	c := NewMemory()
	type payload struct {
		Names []string `json:"names"`
	}
	got, err := GetJSON(context.Background(), c, "k", time.Minute, func(context.Context) (payload, error) {
		return payload{Names: []string{"a", "b"}}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got.Names)
}
