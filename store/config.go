/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package store

import (
	"fmt"
	"strings"
	"time"

	"github.com/acronis/go-ratelimit/config"
)

const cfgDefaultKeyPrefix = "store"

const (
	cfgKeyBackend         = "backend"
	cfgKeySweepInterval   = "sweepInterval"
	cfgKeyShutdownTimeout = "shutdownTimeout"
	cfgKeyShards          = "shards"
)

// Config represents a set of configuration parameters for the store.
type Config struct {
	Backend         string              `mapstructure:"backend" yaml:"backend" json:"backend"`
	SweepInterval   config.TimeDuration `mapstructure:"sweepInterval" yaml:"sweepInterval" json:"sweepInterval"`
	ShutdownTimeout config.TimeDuration `mapstructure:"shutdownTimeout" yaml:"shutdownTimeout" json:"shutdownTimeout"`
	Shards          int                 `mapstructure:"shards" yaml:"shards" json:"shards"`

	keyPrefix string
}

var _ config.Config = (*Config)(nil)
var _ config.KeyPrefixProvider = (*Config)(nil)

// NewConfig creates a new instance of the Config with the "store" key prefix.
func NewConfig() *Config {
	return &Config{keyPrefix: cfgDefaultKeyPrefix}
}

// NewConfigWithKeyPrefix creates a new instance of the Config with a custom key prefix.
func NewConfigWithKeyPrefix(keyPrefix string) *Config {
	return &Config{keyPrefix: keyPrefix}
}

// NewDefaultConfig creates a new instance of the Config with default values.
func NewDefaultConfig() *Config {
	return &Config{
		keyPrefix:       cfgDefaultKeyPrefix,
		Backend:         BackendMemory,
		SweepInterval:   config.TimeDuration(DefaultSweepInterval),
		ShutdownTimeout: config.TimeDuration(DefaultShutdownTimeout),
		Shards:          DefaultShards,
	}
}

// KeyPrefix returns a key prefix with which all configuration parameters should be presented.
// Implements config.KeyPrefixProvider interface.
func (c *Config) KeyPrefix() string {
	if c.keyPrefix == "" {
		return cfgDefaultKeyPrefix
	}
	return c.keyPrefix
}

// SetProviderDefaults sets default configuration values for the store in config.DataProvider.
// Implements config.Config interface.
func (c *Config) SetProviderDefaults(dp config.DataProvider) {
	dp.SetDefault(cfgKeyBackend, BackendMemory)
	dp.SetDefault(cfgKeySweepInterval, DefaultSweepInterval.String())
	dp.SetDefault(cfgKeyShutdownTimeout, DefaultShutdownTimeout.String())
	dp.SetDefault(cfgKeyShards, DefaultShards)
}

// Set sets store configuration values from config.DataProvider.
// Both unknown and not implemented backends are rejected here, so misconfiguration is reported at load time.
// Implements config.Config interface.
func (c *Config) Set(dp config.DataProvider) error {
	backend, err := dp.GetStringFromSet(cfgKeyBackend, SupportedBackends(), true)
	if err != nil {
		return err
	}
	c.Backend = strings.ToUpper(backend)
	if !IsImplemented(c.Backend) {
		return dp.WrapKeyErr(cfgKeyBackend, fmt.Errorf("%w: %s", ErrBackendNotImplemented, c.Backend))
	}

	var d time.Duration
	if d, err = getPositiveDuration(dp, cfgKeySweepInterval); err != nil {
		return err
	}
	c.SweepInterval = config.TimeDuration(d)
	if d, err = getPositiveDuration(dp, cfgKeyShutdownTimeout); err != nil {
		return err
	}
	c.ShutdownTimeout = config.TimeDuration(d)

	if c.Shards, err = dp.GetInt(cfgKeyShards); err != nil {
		return err
	}
	if c.Shards <= 0 {
		return dp.WrapKeyErr(cfgKeyShards, fmt.Errorf("must be positive"))
	}
	return nil
}

func getPositiveDuration(dp config.DataProvider, key string) (time.Duration, error) {
	d, err := dp.GetDuration(key)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, dp.WrapKeyErr(key, fmt.Errorf("must be positive"))
	}
	return d, nil
}

// NewFromConfig creates a backend described by cfg.
// Timing and sharding parameters of cfg override the corresponding fields of opts.
func NewFromConfig(cfg *Config, opts MemoryStoreOpts) (Backend, error) {
	opts.SweepInterval = time.Duration(cfg.SweepInterval)
	opts.ShutdownTimeout = time.Duration(cfg.ShutdownTimeout)
	opts.Shards = cfg.Shards
	return NewByName(cfg.Backend, opts)
}
