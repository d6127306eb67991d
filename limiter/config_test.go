/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package limiter

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/acronis/go-ratelimit/config"
	"github.com/acronis/go-ratelimit/ratelimit"
	"github.com/acronis/go-ratelimit/store"
)

func loadTestConfig(data string) (*Config, error) {
	cfg := NewConfig()
	err := config.NewLoader(config.NewViperAdapter()).LoadFromReader(bytes.NewBufferString(data), config.DataTypeYAML, cfg)
	return cfg, err
}

func TestConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := loadTestConfig("")
		require.NoError(t, err)
		require.Equal(t, NewDefaultConfig(), cfg)
	})

	t.Run("rules", func(t *testing.T) {
		cfg, err := loadTestConfig(`
rateLimiter:
  cleanupInterval: 30s
  rules:
    - key: login
      quota: 5
      window: 1m
      algorithm: token_bucket
    - key: search
      quota: 100
      window: 10s
      algorithm: SLIDING_WINDOW_COUNTER
`)
		require.NoError(t, err)
		require.Equal(t, config.TimeDuration(30*time.Second), cfg.CleanupInterval)
		require.Equal(t, []RuleConfig{
			{Key: "login", Quota: 5, Window: config.TimeDuration(time.Minute), Algorithm: ratelimit.AlgorithmTokenBucket},
			{Key: "search", Quota: 100, Window: config.TimeDuration(10 * time.Second), Algorithm: ratelimit.AlgorithmSlidingWindowCounter},
		}, cfg.Rules)

		rules, err := cfg.BuildRules()
		require.NoError(t, err)
		require.Equal(t, map[string]ratelimit.Rule{
			"login":  ratelimit.MustRule(5, time.Minute, ratelimit.AlgorithmTokenBucket),
			"search": ratelimit.MustRule(100, 10*time.Second, ratelimit.AlgorithmSlidingWindowCounter),
		}, rules)
	})

	tests := []struct {
		name    string
		data    string
		wantErr string
	}{
		{
			name:    "negative cleanup interval",
			data:    "rateLimiter:\n  cleanupInterval: -1s\n",
			wantErr: "rateLimiter.cleanupInterval: must not be negative",
		},
		{
			name:    "zero quota",
			data:    "rateLimiter:\n  rules:\n    - {key: a, quota: 0, window: 1s, algorithm: token_bucket}\n",
			wantErr: `rateLimiter.rules: rule #1 (key "a"): quota must be positive`,
		},
		{
			name:    "zero window",
			data:    "rateLimiter:\n  rules:\n    - {key: a, quota: 1, window: 0s, algorithm: token_bucket}\n",
			wantErr: `rateLimiter.rules: rule #1 (key "a"): window must be positive`,
		},
		{
			name:    "missing algorithm",
			data:    "rateLimiter:\n  rules:\n    - {key: a, quota: 1, window: 1s}\n",
			wantErr: "unknown rate-limiting algorithm",
		},
		{
			name:    "unknown algorithm",
			data:    "rateLimiter:\n  rules:\n    - {key: a, quota: 1, window: 1s, algorithm: leaky_bucket}\n",
			wantErr: "unknown rate-limiting algorithm",
		},
		{
			name:    "empty key",
			data:    "rateLimiter:\n  rules:\n    - {quota: 1, window: 1s, algorithm: token_bucket}\n",
			wantErr: "rateLimiter.rules: rule #1: key must not be empty",
		},
		{
			name: "duplicate key",
			data: "rateLimiter:\n  rules:\n    - {key: a, quota: 1, window: 1s, algorithm: token_bucket}\n" +
				"    - {key: a, quota: 2, window: 1s, algorithm: sliding_window_log}\n",
			wantErr: `rateLimiter.rules: rule #2: duplicate key "a"`,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadTestConfig(tt.data)
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestNewFromConfig(t *testing.T) {
	s, err := store.NewMemoryStoreWithOpts(store.MemoryStoreOpts{})
	require.NoError(t, err)
	defer func() { require.NoError(t, s.Close()) }()

	cfg := &Config{Rules: []RuleConfig{{Key: "k", Quota: 1, Window: config.TimeDuration(time.Minute), Algorithm: ratelimit.AlgorithmTokenBucket}}}
	l, err := NewFromConfig(cfg, s, Opts{})
	require.NoError(t, err)
	defer func() { require.NoError(t, l.Close()) }()
	require.Nil(t, l.maintenance)
	require.Equal(t, []string{"k"}, l.Keys())

	resp, err := l.CheckLimit(context.Background(), "k")
	require.NoError(t, err)
	require.True(t, resp.Allowed)
	resp, err = l.CheckLimit(context.Background(), "k")
	require.NoError(t, err)
	require.False(t, resp.Allowed)

	cfg.CleanupInterval = config.TimeDuration(time.Hour)
	l2, err := NewFromConfig(cfg, s, Opts{})
	require.NoError(t, err)
	require.NotNil(t, l2.maintenance)
	require.NoError(t, l2.Close())

	cfg.Rules = append(cfg.Rules, cfg.Rules[0])
	_, err = NewFromConfig(cfg, s, Opts{})
	require.ErrorContains(t, err, `duplicate key "k"`)
}
