/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package store

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewByName(t *testing.T) {
	for _, name := range []string{"MEMORY", "memory", "Memory"} {
		backend, err := NewByName(name, MemoryStoreOpts{})
		require.NoError(t, err)
		require.IsType(t, &MemoryStore{}, backend)
		require.NoError(t, backend.Close())
	}

	for _, name := range []string{"REDIS", "database"} {
		backend, err := NewByName(name, MemoryStoreOpts{})
		require.Nil(t, backend)
		require.ErrorIs(t, err, ErrBackendNotImplemented)
		require.False(t, errors.Is(err, ErrUnknownBackend))
	}

	backend, err := NewByName("mongo", MemoryStoreOpts{})
	require.Nil(t, backend)
	require.ErrorIs(t, err, ErrUnknownBackend)
	require.False(t, errors.Is(err, ErrBackendNotImplemented))
	require.EqualError(t, err, `unknown storage backend: "mongo" (supported: MEMORY, REDIS, DATABASE)`)

	_, err = NewByName("memory", MemoryStoreOpts{Shards: -1})
	require.Error(t, err)
}

func TestIsImplemented(t *testing.T) {
	require.Equal(t, []string{BackendMemory, BackendRedis, BackendDatabase}, SupportedBackends())
	require.True(t, IsImplemented("memory"))
	require.False(t, IsImplemented(BackendRedis))
	require.False(t, IsImplemented(BackendDatabase))
	require.False(t, IsImplemented("unknown"))
}
