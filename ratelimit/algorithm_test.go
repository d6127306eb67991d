/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewAlgorithm(t *testing.T) {
	s, _ := newTestStore(t)

	for _, kind := range []AlgorithmKind{AlgorithmTokenBucket, AlgorithmSlidingWindowLog, AlgorithmSlidingWindowCounter} {
		alg, err := NewAlgorithm(MustRule(10, time.Second, kind), s, AlgorithmOpts{})
		require.NoError(t, err, kind.String())
		require.Equal(t, kind, alg.Kind())
	}

	alg, err := NewAlgorithm(MustRule(10, time.Second, AlgorithmTokenBucket), s, AlgorithmOpts{})
	require.NoError(t, err)
	require.IsType(t, &TokenBucket{}, alg)
	_, isCleaner := alg.(Cleaner)
	require.False(t, isCleaner)

	alg, err = NewAlgorithm(MustRule(10, time.Second, AlgorithmSlidingWindowLog), nil, AlgorithmOpts{})
	require.NoError(t, err)
	_, isCleaner = alg.(Cleaner)
	require.True(t, isCleaner)

	t.Run("nil store", func(t *testing.T) {
		for _, kind := range []AlgorithmKind{AlgorithmTokenBucket, AlgorithmSlidingWindowCounter} {
			_, err := NewAlgorithm(MustRule(10, time.Second, kind), nil, AlgorithmOpts{})
			require.ErrorIs(t, err, ErrNilStore)
		}
	})

	t.Run("invalid rule", func(t *testing.T) {
		_, err := NewAlgorithm(Rule{}, s, AlgorithmOpts{})
		require.ErrorIs(t, err, ErrInvalidQuota)
	})

	t.Run("invalid options", func(t *testing.T) {
		alg, err := NewAlgorithm(MustRule(10, time.Second, AlgorithmSlidingWindowLog), nil, AlgorithmOpts{MaxLogKeys: -1})
		require.Error(t, err)
		require.Nil(t, alg)
	})
}
