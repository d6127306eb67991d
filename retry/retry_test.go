/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var errTemporary = errors.New("temporary")

func TestDoWithRetry(t *testing.T) {
	t.Run("succeeds after retries", func(t *testing.T) {
		attempts := 0
		var notified int
		err := DoWithRetry(context.Background(), NewConstantBackoffPolicy(time.Millisecond, 5), nil,
			func(error, time.Duration) { notified++ },
			func(ctx context.Context) error {
				attempts++
				if attempts < 3 {
					return errTemporary
				}
				return nil
			})
		require.NoError(t, err)
		require.Equal(t, 3, attempts)
		require.Equal(t, 2, notified)
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		attempts := 0
		err := DoWithRetry(context.Background(), NewExponentialBackoffPolicy(time.Millisecond, 2), nil, nil,
			func(ctx context.Context) error {
				attempts++
				return errTemporary
			})
		require.ErrorIs(t, err, errTemporary)
		require.Equal(t, 3, attempts)
	})

	t.Run("does not retry persistent errors", func(t *testing.T) {
		errPersistent := errors.New("persistent")
		attempts := 0
		err := DoWithRetry(context.Background(), NewConstantBackoffPolicy(time.Millisecond, 5),
			func(err error) bool { return errors.Is(err, errTemporary) }, nil,
			func(ctx context.Context) error {
				attempts++
				return errPersistent
			})
		require.ErrorIs(t, err, errPersistent)
		require.Equal(t, 1, attempts)
	})

	t.Run("stops on canceled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := DoWithRetry(ctx, NewConstantBackoffPolicy(time.Millisecond, 0), nil, nil,
			func(ctx context.Context) error { return errTemporary })
		require.Error(t, err)
	})
}

func TestDoWithRetryAndResult(t *testing.T) {
	attempts := 0
	res, err := DoWithRetryAndResult(context.Background(), NewConstantBackoffPolicy(time.Millisecond, 3), nil, nil,
		func(ctx context.Context) (int64, error) {
			attempts++
			if attempts == 1 {
				return 0, errTemporary
			}
			return 42, nil
		})
	require.NoError(t, err)
	require.Equal(t, int64(42), res)
	require.Equal(t, 2, attempts)
}
