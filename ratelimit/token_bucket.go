/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/acronis/go-ratelimit/internal/keymutex"
	"github.com/acronis/go-ratelimit/store"
)

// microTokensPerToken is the fixed-point scale of persisted token amounts.
const microTokensPerToken = 1_000_000

// TokenBucket implements the Token Bucket algorithm.
// The bucket holds up to quota tokens and is refilled at quota/window tokens per second; every allowed request takes one token.
type TokenBucket struct {
	store      store.Store
	capacity   int64   // in micro-tokens
	refillRate float64 // micro-tokens per millisecond
	stateTTL   time.Duration
	locks      keymutex.KeyMutex
}

var _ Algorithm = (*TokenBucket)(nil)

// NewTokenBucket creates a new TokenBucket for the rule created by NewRule.
func NewTokenBucket(rule Rule, s store.Store, opts AlgorithmOpts) *TokenBucket {
	opts = opts.withDefaults()
	tokensPerSecond := float64(rule.Quota()) / rule.Window().Seconds()
	return &TokenBucket{
		store:      s,
		capacity:   rule.Quota() * microTokensPerToken,
		refillRate: tokensPerSecond * microTokensPerToken / 1000,
		stateTTL:   opts.TokenBucketStateTTL,
	}
}

func tokensKey(key string) string     { return "tokens:" + key }
func lastRefillKey(key string) string { return "lastRefill:" + key }

type tokenBucketState struct {
	tokens     int64 // micro-tokens
	lastRefill int64 // Unix milliseconds, 0 if the key was never seen
}

// Kind implements Algorithm.
func (tb *TokenBucket) Kind() AlgorithmKind {
	return AlgorithmTokenBucket
}

// Allow implements Algorithm.
func (tb *TokenBucket) Allow(ctx context.Context, key string, now time.Time) (bool, error) {
	unlock := tb.locks.Lock(key)
	defer unlock()

	stored, err := tb.load(ctx, key)
	if err != nil {
		return false, err
	}
	refilled := tb.refill(stored, now)
	if refilled.tokens < microTokensPerToken {
		return false, nil
	}
	refilled.tokens -= microTokensPerToken
	if err = tb.save(ctx, key, stored, refilled); err != nil {
		return false, err
	}
	return true, nil
}

// Tokens returns the number of tokens available for the key at the given instant without consuming any.
func (tb *TokenBucket) Tokens(ctx context.Context, key string, now time.Time) (float64, error) {
	unlock := tb.locks.Lock(key)
	defer unlock()

	stored, err := tb.load(ctx, key)
	if err != nil {
		return 0, err
	}
	return float64(tb.refill(stored, now).tokens) / microTokensPerToken, nil
}

// Reset implements Algorithm.
func (tb *TokenBucket) Reset(ctx context.Context, key string) error {
	unlock := tb.locks.Lock(key)
	defer unlock()

	if err := tb.store.Delete(ctx, tokensKey(key)); err != nil {
		return fmt.Errorf("delete tokens: %w", err)
	}
	if err := tb.store.Delete(ctx, lastRefillKey(key)); err != nil {
		return fmt.Errorf("delete last refill time: %w", err)
	}
	return nil
}

func (tb *TokenBucket) load(ctx context.Context, key string) (tokenBucketState, error) {
	tokens, err := tb.store.Get(ctx, tokensKey(key))
	if err != nil {
		return tokenBucketState{}, fmt.Errorf("get tokens: %w", err)
	}
	lastRefill, err := tb.store.Get(ctx, lastRefillKey(key))
	if err != nil {
		return tokenBucketState{}, fmt.Errorf("get last refill time: %w", err)
	}
	return tokenBucketState{tokens: tokens, lastRefill: lastRefill}, nil
}

// refill never moves lastRefill backwards, so an out-of-order instant adds no tokens.
// The result never exceeds the capacity even if the stored amount does
// (e.g. it was left by a rule with a larger quota).
func (tb *TokenBucket) refill(st tokenBucketState, now time.Time) tokenBucketState {
	nowMs := now.UnixMilli()
	if st.lastRefill == 0 {
		return tokenBucketState{tokens: tb.capacity, lastRefill: nowMs}
	}
	elapsedMs := nowMs - st.lastRefill
	if elapsedMs <= 0 {
		if st.tokens > tb.capacity {
			st.tokens = tb.capacity
		}
		return st
	}
	tokens := float64(st.tokens) + math.Floor(float64(elapsedMs)*tb.refillRate)
	if tokens >= float64(tb.capacity) {
		return tokenBucketState{tokens: tb.capacity, lastRefill: nowMs}
	}
	return tokenBucketState{tokens: int64(tokens), lastRefill: nowMs}
}

// save persists the new state. If the second write fails, the first one is rolled back
// so the next call observes the previous consistent state.
func (tb *TokenBucket) save(ctx context.Context, key string, prev, next tokenBucketState) error {
	if err := tb.store.Set(ctx, tokensKey(key), next.tokens, tb.stateTTL); err != nil {
		return fmt.Errorf("set tokens: %w", err)
	}
	err := tb.store.Set(ctx, lastRefillKey(key), next.lastRefill, tb.stateTTL)
	if err == nil {
		return nil
	}
	err = fmt.Errorf("set last refill time: %w", err)

	var rollbackErr error
	if prev.lastRefill == 0 {
		rollbackErr = tb.store.Delete(ctx, tokensKey(key))
	} else {
		rollbackErr = tb.store.Set(ctx, tokensKey(key), prev.tokens, tb.stateTTL)
	}
	if rollbackErr != nil {
		return errors.Join(err, fmt.Errorf("roll back tokens: %w", rollbackErr))
	}
	return err
}
