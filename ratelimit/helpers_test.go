/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package ratelimit

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"

	"github.com/acronis/go-ratelimit/store"
)

var testStartTime = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

var errStoreUnavailable = errors.New("store unavailable")

// newTestStore returns a memory store driven by the returned clock.
func newTestStore(t *testing.T) (*store.MemoryStore, *atomic.Time) {
	t.Helper()
	clock := atomic.NewTime(testStartTime)
	s, err := store.NewMemoryStoreWithOpts(store.MemoryStoreOpts{SweepInterval: time.Hour, NowFunc: clock.Load})
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, s.Close()) })
	return s, clock
}

// faultyStore fails operations on keys with the given prefix while the corresponding flag is set.
type faultyStore struct {
	store.Store
	prefix     string
	failReads  atomic.Bool
	failWrites atomic.Bool
}

func (s *faultyStore) check(key string, flag *atomic.Bool) error {
	if flag.Load() && strings.HasPrefix(key, s.prefix) {
		return errStoreUnavailable
	}
	return nil
}

func (s *faultyStore) Get(ctx context.Context, key string) (int64, error) {
	if err := s.check(key, &s.failReads); err != nil {
		return 0, err
	}
	return s.Store.Get(ctx, key)
}

func (s *faultyStore) Set(ctx context.Context, key string, value int64, ttl time.Duration) error {
	if err := s.check(key, &s.failWrites); err != nil {
		return err
	}
	return s.Store.Set(ctx, key, value, ttl)
}

func (s *faultyStore) Increment(ctx context.Context, key string, delta int64, ttl time.Duration) (int64, error) {
	if err := s.check(key, &s.failWrites); err != nil {
		return 0, err
	}
	return s.Store.Increment(ctx, key, delta, ttl)
}

func (s *faultyStore) Delete(ctx context.Context, key string) error {
	if err := s.check(key, &s.failWrites); err != nil {
		return err
	}
	return s.Store.Delete(ctx, key)
}
