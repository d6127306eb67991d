/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package limiter

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/acronis/go-ratelimit/log"
	"github.com/acronis/go-ratelimit/ratelimit"
	"github.com/acronis/go-ratelimit/service"
	"github.com/acronis/go-ratelimit/store"
)

// DefaultCleanupInterval is a default interval of the maintenance of algorithms' private per-key state.
const DefaultCleanupInterval = time.Minute

// Configuration errors.
var (
	ErrEmptyKey    = errors.New("key must not be empty")
	ErrInvalidRule = errors.New("rule is invalid")
	ErrNilStore    = ratelimit.ErrNilStore
)

// Opts represents options for the RateLimiter.
type Opts struct {
	// Rules are installed on construction. Every rule must be created by ratelimit.NewRule.
	Rules map[string]ratelimit.Rule

	// NowFunc returns the current time. Default is time.Now.
	NowFunc func() time.Time

	// Logger is used by the maintenance task. Default is a disabled logger.
	Logger log.FieldLogger

	// CleanupInterval is an interval at which private per-key state of algorithms (e.g. request logs) is pruned.
	// Zero means DefaultCleanupInterval, negative value disables the maintenance.
	CleanupInterval time.Duration

	// AlgorithmOpts are passed to every algorithm. NowFunc is set to Opts.NowFunc if empty.
	AlgorithmOpts ratelimit.AlgorithmOpts
}

// RateLimiter decides whether requests are allowed according to per-key rules.
// Keys without a rule are never limited. RateLimiter is safe for concurrent use.
type RateLimiter struct {
	store   store.Store
	now     func() time.Time
	logger  log.FieldLogger
	algOpts ratelimit.AlgorithmOpts

	mu         sync.RWMutex
	rules      map[string]ratelimit.Rule
	algorithms map[string]ratelimit.Algorithm

	maintenance *service.WorkerUnit
	closeOnce   sync.Once
	closeErr    error
}

var _ Checker = (*RateLimiter)(nil)

// New creates a new RateLimiter that keeps algorithms' state in s.
// All rules are validated and their algorithms are constructed, so any invalid entry fails the construction as a whole.
func New(s store.Store, opts Opts) (*RateLimiter, error) {
	if s == nil {
		return nil, ErrNilStore
	}
	if opts.NowFunc == nil {
		opts.NowFunc = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = log.NewDisabledLogger()
	}
	if opts.CleanupInterval == 0 {
		opts.CleanupInterval = DefaultCleanupInterval
	}
	if opts.AlgorithmOpts.NowFunc == nil {
		opts.AlgorithmOpts.NowFunc = opts.NowFunc
	}

	l := &RateLimiter{
		store:      s,
		now:        opts.NowFunc,
		logger:     opts.Logger,
		algOpts:    opts.AlgorithmOpts,
		rules:      make(map[string]ratelimit.Rule, len(opts.Rules)),
		algorithms: make(map[string]ratelimit.Algorithm, len(opts.Rules)),
	}
	for key, rule := range opts.Rules {
		if err := validateRule(key, rule); err != nil {
			return nil, err
		}
		alg, err := ratelimit.NewAlgorithm(rule, s, l.algOpts)
		if err != nil {
			return nil, fmt.Errorf("create algorithm for key %q: %w", key, err)
		}
		l.rules[key] = rule
		l.algorithms[key] = alg
	}

	if opts.CleanupInterval > 0 {
		cleanupWorker := service.NewPeriodicWorkerWithOpts(
			service.WorkerFunc(func(ctx context.Context) error {
				l.cleanup(l.now())
				return nil
			}),
			opts.CleanupInterval,
			opts.Logger,
			service.PeriodicWorkerOpts{InitialDelay: opts.CleanupInterval, Name: "limiter-cleanup"},
		)
		l.maintenance = service.NewWorkerUnit(cleanupWorker)
		go l.maintenance.Start(make(chan error, 1))
	}

	return l, nil
}

func validateRule(key string, rule ratelimit.Rule) error {
	if key == "" {
		return ErrEmptyKey
	}
	if rule.IsZero() {
		return fmt.Errorf("%w for key %q: rule must be created by ratelimit.NewRule", ErrInvalidRule, key)
	}
	return nil
}

// CheckLimit decides whether a request for the key is allowed at the current time.
// An error means no decision was made (e.g. the store failed), the key's state is left consistent.
func (l *RateLimiter) CheckLimit(ctx context.Context, key string) (Response, error) {
	rule, alg := l.algorithmFor(key)
	now := l.now()
	if alg == nil {
		return allowedResponse(Unlimited, now), nil
	}

	allowed, err := alg.Allow(ctx, key, now)
	if err != nil {
		return Response{}, fmt.Errorf("check rate limit for key %q: %w", key, err)
	}
	resetTime := now.Add(rule.Window())
	if !allowed {
		return deniedResponse(rule.Window(), resetTime), nil
	}
	remaining := rule.Quota() - 1
	if remaining < 0 {
		remaining = 0
	}
	return allowedResponse(remaining, resetTime), nil
}

// algorithmFor returns the key's rule and algorithm.
// The returned algorithm is nil if the key has no rule.
func (l *RateLimiter) algorithmFor(key string) (ratelimit.Rule, ratelimit.Algorithm) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.rules[key], l.algorithms[key]
}

// AddRule binds the rule to the key and constructs its algorithm.
// If the key already has a rule, it is replaced. The state the previous algorithm keeps in the store
// is inherited by the new one (capped by the new quota), use UpdateRule to discard it.
func (l *RateLimiter) AddRule(key string, rule ratelimit.Rule) error {
	if err := validateRule(key, rule); err != nil {
		return err
	}
	alg, err := ratelimit.NewAlgorithm(rule, l.store, l.algOpts)
	if err != nil {
		return fmt.Errorf("create algorithm for key %q: %w", key, err)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rules[key] = rule
	l.algorithms[key] = alg
	return nil
}

// UpdateRule resets the key's state and binds the new rule to it.
func (l *RateLimiter) UpdateRule(ctx context.Context, key string, rule ratelimit.Rule) error {
	if err := validateRule(key, rule); err != nil {
		return err
	}
	if err := l.RemoveRule(ctx, key); err != nil {
		return err
	}
	return l.AddRule(key, rule)
}

// RemoveRule resets the key's state and removes its rule, so the key is no longer limited.
// Removing an unknown key is not an error.
// If the reset fails, the rule is kept and the error is returned.
func (l *RateLimiter) RemoveRule(ctx context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if alg, ok := l.algorithms[key]; ok {
		if err := alg.Reset(ctx, key); err != nil {
			return fmt.Errorf("reset state of key %q: %w", key, err)
		}
	}
	delete(l.rules, key)
	delete(l.algorithms, key)
	return nil
}

// ResetKey discards the key's state keeping its rule. The next check behaves as if the key was never seen.
func (l *RateLimiter) ResetKey(ctx context.Context, key string) error {
	l.mu.RLock()
	alg := l.algorithms[key]
	l.mu.RUnlock()
	if alg == nil {
		return nil
	}
	if err := alg.Reset(ctx, key); err != nil {
		return fmt.Errorf("reset state of key %q: %w", key, err)
	}
	return nil
}

// Rule returns the rule bound to the key.
func (l *RateLimiter) Rule(key string) (ratelimit.Rule, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	rule, ok := l.rules[key]
	return rule, ok
}

// Keys returns all keys that have a rule in ascending order.
func (l *RateLimiter) Keys() []string {
	l.mu.RLock()
	keys := make([]string, 0, len(l.rules))
	for key := range l.rules {
		keys = append(keys, key)
	}
	l.mu.RUnlock()
	sort.Strings(keys)
	return keys
}

// Store returns the store shared by all algorithms.
func (l *RateLimiter) Store() store.Store {
	return l.store
}

// Cleanup prunes private per-key state of algorithms that no longer affects decisions at the given instant.
// It returns the number of keys whose state was removed. Normally it's called by the maintenance task.
func (l *RateLimiter) Cleanup(now time.Time) int {
	return l.cleanup(now)
}

func (l *RateLimiter) cleanup(now time.Time) int {
	l.mu.RLock()
	cleaners := make([]ratelimit.Cleaner, 0, len(l.algorithms))
	for _, alg := range l.algorithms {
		if c, ok := alg.(ratelimit.Cleaner); ok {
			cleaners = append(cleaners, c)
		}
	}
	l.mu.RUnlock()

	removed := 0
	for _, c := range cleaners {
		removed += c.Cleanup(now)
	}
	if removed > 0 {
		l.logger.Debug("stale rate limit state removed", log.Int("removed", removed))
	}
	return removed
}

// Close stops the maintenance task. It doesn't close the store.
func (l *RateLimiter) Close() error {
	l.closeOnce.Do(func() {
		if l.maintenance != nil {
			l.closeErr = l.maintenance.Stop(true)
		}
	})
	return l.closeErr
}
