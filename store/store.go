/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

// Store is a concurrent mapping from string key to a 64-bit counter with a per-entry expiry.
// An expired entry behaves exactly as an absent one. Non-positive ttl means the entry never expires.
type Store interface {
	// Increment atomically adds delta to the key's value and returns the new value.
	// If the entry is absent or expired, it is replaced by a fresh one holding delta and expiring after ttl.
	// The expiry of a live entry is left unchanged.
	Increment(ctx context.Context, key string, delta int64, ttl time.Duration) (int64, error)

	// Get returns the key's value or 0 if the entry is absent or expired.
	Get(ctx context.Context, key string) (int64, error)

	// Set overwrites the key's value and expiry.
	Set(ctx context.Context, key string, value int64, ttl time.Duration) error

	// Delete removes the key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Exists reports whether the key holds a live entry.
	Exists(ctx context.Context, key string) (bool, error)
}

// Backend is a Store that owns resources (background tasks, connections) released by Close.
type Backend interface {
	Store
	io.Closer
}

// Backend names.
const (
	BackendMemory   = "MEMORY"
	BackendRedis    = "REDIS"
	BackendDatabase = "DATABASE"
)

// ErrUnknownBackend is returned when a backend name is not recognized.
var ErrUnknownBackend = errors.New("unknown storage backend")

// ErrBackendNotImplemented is returned for recognized backend names that have no implementation yet.
var ErrBackendNotImplemented = errors.New("storage backend is not implemented")

var backends = []struct {
	name    string
	factory func(opts MemoryStoreOpts) (Backend, error)
}{
	{BackendMemory, newMemoryBackend},
	{BackendRedis, nil},
	{BackendDatabase, nil},
}

func newMemoryBackend(opts MemoryStoreOpts) (Backend, error) {
	s, err := NewMemoryStoreWithOpts(opts)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// SupportedBackends returns names of all recognized backends (including not implemented ones).
func SupportedBackends() []string {
	names := make([]string, 0, len(backends))
	for _, b := range backends {
		names = append(names, b.name)
	}
	return names
}

// IsImplemented reports whether the backend name (case-insensitive) is recognized and can be constructed.
func IsImplemented(name string) bool {
	for _, b := range backends {
		if strings.EqualFold(b.name, name) {
			return b.factory != nil
		}
	}
	return false
}

// NewByName creates a backend by its name (case-insensitive).
// Options are used by the in-memory backend.
func NewByName(name string, opts MemoryStoreOpts) (Backend, error) {
	for _, b := range backends {
		if !strings.EqualFold(b.name, name) {
			continue
		}
		if b.factory == nil {
			return nil, fmt.Errorf("%w: %s", ErrBackendNotImplemented, b.name)
		}
		return b.factory(opts)
	}
	return nil, fmt.Errorf("%w: %q (supported: %s)", ErrUnknownBackend, name, strings.Join(SupportedBackends(), ", "))
}
