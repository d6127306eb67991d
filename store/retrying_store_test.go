/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/acronis/go-ratelimit/log/logtest"
	"github.com/acronis/go-ratelimit/retry"
)

var errConnectionLost = errors.New("connection lost")

// flakyStore fails the first failures calls and then delegates to the memory store.
type flakyStore struct {
	Store
	failures int
	calls    int
}

func (s *flakyStore) fail() error {
	s.calls++
	if s.calls <= s.failures {
		return errConnectionLost
	}
	return nil
}

func (s *flakyStore) Increment(ctx context.Context, key string, delta int64, ttl time.Duration) (int64, error) {
	if err := s.fail(); err != nil {
		return 0, err
	}
	return s.Store.Increment(ctx, key, delta, ttl)
}

func (s *flakyStore) Get(ctx context.Context, key string) (int64, error) {
	if err := s.fail(); err != nil {
		return 0, err
	}
	return s.Store.Get(ctx, key)
}

func TestRetryingStore(t *testing.T) {
	mem := NewMemoryStore()
	defer func() { require.NoError(t, mem.Close()) }()
	ctx := context.Background()

	t.Run("recovers from transient failures", func(t *testing.T) {
		recorder := logtest.NewRecorder()
		flaky := &flakyStore{Store: mem, failures: 2}
		s := NewRetryingStoreWithOpts(flaky, retry.NewConstantBackoffPolicy(time.Millisecond, 3),
			RetryingStoreOpts{Logger: recorder, RetryIncrement: true})

		v, err := s.Increment(ctx, "k", 1, time.Minute)
		require.NoError(t, err)
		require.Equal(t, int64(1), v)
		require.Equal(t, 3, flaky.calls)
		require.Len(t, recorder.Entries(), 2)
	})

	t.Run("surfaces the last error when retries are exhausted", func(t *testing.T) {
		flaky := &flakyStore{Store: mem, failures: 10}
		s := NewRetryingStore(flaky, retry.NewConstantBackoffPolicy(time.Millisecond, 2))
		_, err := s.Get(ctx, "k")
		require.ErrorIs(t, err, errConnectionLost)
		require.Equal(t, 3, flaky.calls)
	})

	t.Run("does not retry persistent errors", func(t *testing.T) {
		flaky := &flakyStore{Store: mem, failures: 10}
		s := NewRetryingStoreWithOpts(flaky, retry.NewConstantBackoffPolicy(time.Millisecond, 5),
			RetryingStoreOpts{IsRetryable: func(err error) bool { return false }})
		_, err := s.Get(ctx, "k")
		require.ErrorIs(t, err, errConnectionLost)
		require.Equal(t, 1, flaky.calls)
	})

	t.Run("does not retry increment by default", func(t *testing.T) {
		recorder := logtest.NewRecorder()
		flaky := &flakyStore{Store: mem, failures: 1}
		s := NewRetryingStoreWithOpts(flaky, retry.NewConstantBackoffPolicy(time.Millisecond, 3),
			RetryingStoreOpts{Logger: recorder})
		_, err := s.Increment(ctx, "once", 1, time.Minute)
		require.ErrorIs(t, err, errConnectionLost)
		require.Equal(t, 1, flaky.calls)
		require.Empty(t, recorder.Entries())

		v, err := s.Get(ctx, "once")
		require.NoError(t, err)
		require.Zero(t, v)
	})

	t.Run("passes through successful calls", func(t *testing.T) {
		s := NewRetryingStore(mem, retry.NewConstantBackoffPolicy(time.Millisecond, 1))
		require.NoError(t, s.Set(ctx, "x", 5, time.Minute))
		exists, err := s.Exists(ctx, "x")
		require.NoError(t, err)
		require.True(t, exists)
		require.NoError(t, s.Delete(ctx, "x"))
		v, err := s.Get(ctx, "x")
		require.NoError(t, err)
		require.Zero(t, v)
	})
}
