/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package store

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/acronis/go-ratelimit/config"
)

func TestConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfgData string
		want    *Config
		wantErr error
		wantMsg string
	}{
		{
			name:    "defaults",
			cfgData: `{}`,
			want:    NewDefaultConfig(),
		},
		{
			name:    "custom values",
			cfgData: "store:\n  backend: memory\n  sweepInterval: 10s\n  shutdownTimeout: 1s\n  shards: 8\n",
			want: &Config{
				keyPrefix:       cfgDefaultKeyPrefix,
				Backend:         BackendMemory,
				SweepInterval:   config.TimeDuration(10 * time.Second),
				ShutdownTimeout: config.TimeDuration(time.Second),
				Shards:          8,
			},
		},
		{
			name:    "unknown backend",
			cfgData: "store:\n  backend: mongo\n",
			wantMsg: `store.backend: unknown value "mongo", should be one of [MEMORY REDIS DATABASE]`,
		},
		{
			name:    "not implemented backend",
			cfgData: "store:\n  backend: redis\n",
			wantErr: ErrBackendNotImplemented,
		},
		{
			name:    "non-positive sweep interval",
			cfgData: "store:\n  sweepInterval: 0s\n",
			wantMsg: "store.sweepInterval: must be positive",
		},
		{
			name:    "non-positive shards",
			cfgData: "store:\n  shards: 0\n",
			wantMsg: "store.shards: must be positive",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			err := config.NewLoader(config.NewViperAdapter()).LoadFromReader(
				bytes.NewBufferString(tt.cfgData), config.DataTypeYAML, cfg)
			switch {
			case tt.wantErr != nil:
				require.ErrorIs(t, err, tt.wantErr)
			case tt.wantMsg != "":
				require.EqualError(t, err, tt.wantMsg)
			default:
				require.NoError(t, err)
				require.Equal(t, tt.want, cfg)
			}
		})
	}
}

func TestNewFromConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Shards = 3
	backend, err := NewFromConfig(cfg, MemoryStoreOpts{})
	require.NoError(t, err)
	require.Len(t, backend.(*MemoryStore).shards, 3)
	require.NoError(t, backend.Close())
}
