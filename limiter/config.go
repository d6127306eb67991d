/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package limiter

import (
	"fmt"
	"time"

	"github.com/acronis/go-ratelimit/config"
	"github.com/acronis/go-ratelimit/ratelimit"
	"github.com/acronis/go-ratelimit/store"
)

const cfgDefaultKeyPrefix = "rateLimiter"

const (
	cfgKeyCleanupInterval = "cleanupInterval"
	cfgKeyRules           = "rules"
)

// RuleConfig represents a rule bound to a key in the configuration.
type RuleConfig struct {
	Key       string                  `mapstructure:"key" yaml:"key" json:"key"`
	Quota     int64                   `mapstructure:"quota" yaml:"quota" json:"quota"`
	Window    config.TimeDuration     `mapstructure:"window" yaml:"window" json:"window"`
	Algorithm ratelimit.AlgorithmKind `mapstructure:"algorithm" yaml:"algorithm" json:"algorithm"`
}

// Config represents a set of configuration parameters for the RateLimiter.
// Configuration can be loaded in different formats (YAML, JSON) using config.Loader, viper,
// or with json.Unmarshal/yaml.Unmarshal functions directly.
type Config struct {
	// CleanupInterval is an interval of the maintenance of algorithms' private per-key state. Zero disables it.
	CleanupInterval config.TimeDuration `mapstructure:"cleanupInterval" yaml:"cleanupInterval" json:"cleanupInterval"`
	Rules           []RuleConfig        `mapstructure:"rules" yaml:"rules" json:"rules"`

	keyPrefix string
}

var _ config.Config = (*Config)(nil)
var _ config.KeyPrefixProvider = (*Config)(nil)

// NewConfig creates a new instance of the Config with the "rateLimiter" key prefix.
func NewConfig() *Config {
	return &Config{keyPrefix: cfgDefaultKeyPrefix}
}

// NewConfigWithKeyPrefix creates a new instance of the Config with a custom key prefix.
func NewConfigWithKeyPrefix(keyPrefix string) *Config {
	return &Config{keyPrefix: keyPrefix}
}

// NewDefaultConfig creates a new instance of the Config with default values and no rules.
func NewDefaultConfig() *Config {
	return &Config{keyPrefix: cfgDefaultKeyPrefix, CleanupInterval: config.TimeDuration(DefaultCleanupInterval)}
}

// KeyPrefix returns a key prefix with which all configuration parameters should be presented.
// Implements config.KeyPrefixProvider interface.
func (c *Config) KeyPrefix() string {
	if c.keyPrefix == "" {
		return cfgDefaultKeyPrefix
	}
	return c.keyPrefix
}

// SetProviderDefaults sets default configuration values for the rate limiter in config.DataProvider.
// Implements config.Config interface.
func (c *Config) SetProviderDefaults(dp config.DataProvider) {
	dp.SetDefault(cfgKeyCleanupInterval, DefaultCleanupInterval.String())
}

// Set sets rate limiter configuration values from config.DataProvider.
// Every rule is validated, so an invalid quota, window or algorithm aborts loading.
// Implements config.Config interface.
func (c *Config) Set(dp config.DataProvider) error {
	cleanupInterval, err := dp.GetDuration(cfgKeyCleanupInterval)
	if err != nil {
		return err
	}
	if cleanupInterval < 0 {
		return dp.WrapKeyErr(cfgKeyCleanupInterval, fmt.Errorf("must not be negative"))
	}
	c.CleanupInterval = config.TimeDuration(cleanupInterval)

	var rules []RuleConfig
	if err = dp.UnmarshalKey(cfgKeyRules, &rules, config.WithTextUnmarshalerHook()); err != nil {
		return err
	}
	c.Rules = rules
	if _, err = c.BuildRules(); err != nil {
		return dp.WrapKeyErr(cfgKeyRules, err)
	}
	return nil
}

// BuildRules validates configured rules and returns them by key.
func (c *Config) BuildRules() (map[string]ratelimit.Rule, error) {
	rules := make(map[string]ratelimit.Rule, len(c.Rules))
	for i, rc := range c.Rules {
		if rc.Key == "" {
			return nil, fmt.Errorf("rule #%d: %w", i+1, ErrEmptyKey)
		}
		if _, ok := rules[rc.Key]; ok {
			return nil, fmt.Errorf("rule #%d: duplicate key %q", i+1, rc.Key)
		}
		rule, err := ratelimit.NewRule(rc.Quota, time.Duration(rc.Window), rc.Algorithm)
		if err != nil {
			return nil, fmt.Errorf("rule #%d (key %q): %w", i+1, rc.Key, err)
		}
		rules[rc.Key] = rule
	}
	return rules, nil
}

// NewFromConfig creates a RateLimiter with rules and cleanup interval from cfg.
// They override Rules and CleanupInterval of opts.
func NewFromConfig(cfg *Config, s store.Store, opts Opts) (*RateLimiter, error) {
	rules, err := cfg.BuildRules()
	if err != nil {
		return nil, err
	}
	opts.Rules = rules
	opts.CleanupInterval = time.Duration(cfg.CleanupInterval)
	if opts.CleanupInterval == 0 {
		opts.CleanupInterval = -1
	}
	return New(s, opts)
}
