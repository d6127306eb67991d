/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"

	"github.com/acronis/go-ratelimit/log"
	"github.com/acronis/go-ratelimit/log/logtest"
)

func TestPeriodicWorker(t *testing.T) {
	t.Run("runs until context is canceled", func(t *testing.T) {
		runs := atomic.NewInt32(0)
		pw := NewPeriodicWorker(WorkerFunc(func(ctx context.Context) error {
			runs.Inc()
			return nil
		}), 10*time.Millisecond, log.NewDisabledLogger())

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error)
		go func() { done <- pw.Run(ctx) }()

		require.Eventually(t, func() bool { return runs.Load() >= 3 }, time.Second, 5*time.Millisecond)
		cancel()
		require.NoError(t, <-done)
	})

	t.Run("waits for initial delay", func(t *testing.T) {
		runs := atomic.NewInt32(0)
		pw := NewPeriodicWorkerWithOpts(WorkerFunc(func(ctx context.Context) error {
			runs.Inc()
			return nil
		}), 10*time.Millisecond, nil, PeriodicWorkerOpts{InitialDelay: time.Hour})

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		require.NoError(t, pw.Run(ctx))
		require.Zero(t, runs.Load())
	})

	t.Run("failed iterations are logged and don't stop the loop", func(t *testing.T) {
		recorder := logtest.NewRecorder()
		runs := atomic.NewInt32(0)
		pw := NewPeriodicWorkerWithOpts(WorkerFunc(func(ctx context.Context) error {
			if runs.Inc() < 3 {
				return errors.New("sweep failed")
			}
			return ErrPeriodicWorkerStop
		}), time.Millisecond, recorder, PeriodicWorkerOpts{Name: "sweeper"})

		require.NoError(t, pw.Run(context.Background()))
		require.Equal(t, int32(3), runs.Load())

		failures := recorder.FindAllEntries(func(e logtest.RecordedEntry) bool {
			return e.Text == "periodic worker iteration failed"
		})
		require.Len(t, failures, 2)
		field, found := failures[0].FindField("worker")
		require.True(t, found)
		require.Equal(t, "sweeper", string(field.Bytes))
	})
}
