/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package ratelimit

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Rule validation errors.
var (
	ErrInvalidQuota     = errors.New("quota must be positive")
	ErrInvalidWindow    = errors.New("window must be positive")
	ErrUnknownAlgorithm = errors.New("unknown rate-limiting algorithm")
)

// AlgorithmKind selects a rate-limiting algorithm.
type AlgorithmKind int

// Rate-limiting algorithms.
const (
	AlgorithmTokenBucket AlgorithmKind = iota + 1
	AlgorithmSlidingWindowLog
	AlgorithmSlidingWindowCounter
)

var algorithmNames = map[AlgorithmKind]string{
	AlgorithmTokenBucket:          "TOKEN_BUCKET",
	AlgorithmSlidingWindowLog:     "SLIDING_WINDOW_LOG",
	AlgorithmSlidingWindowCounter: "SLIDING_WINDOW_COUNTER",
}

// SupportedAlgorithms returns names of all algorithms.
func SupportedAlgorithms() []string {
	return []string{
		algorithmNames[AlgorithmTokenBucket],
		algorithmNames[AlgorithmSlidingWindowLog],
		algorithmNames[AlgorithmSlidingWindowCounter],
	}
}

// ParseAlgorithmKind parses an algorithm name (case-insensitive).
func ParseAlgorithmKind(name string) (AlgorithmKind, error) {
	for kind, kindName := range algorithmNames {
		if strings.EqualFold(kindName, strings.TrimSpace(name)) {
			return kind, nil
		}
	}
	return 0, fmt.Errorf("%w: %q (supported: %s)", ErrUnknownAlgorithm, name, strings.Join(SupportedAlgorithms(), ", "))
}

// IsValid reports whether k is one of the known algorithms.
func (k AlgorithmKind) IsValid() bool {
	_, ok := algorithmNames[k]
	return ok
}

// String returns the algorithm name.
func (k AlgorithmKind) String() string {
	if name, ok := algorithmNames[k]; ok {
		return name
	}
	return fmt.Sprintf("AlgorithmKind(%d)", int(k))
}

// MarshalText implements encoding.TextMarshaler interface (used by JSON and YAML encoders as well).
func (k AlgorithmKind) MarshalText() ([]byte, error) {
	if !k.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownAlgorithm, int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler interface (used by JSON, YAML and mapstructure decoders as well).
func (k *AlgorithmKind) UnmarshalText(text []byte) error {
	parsed, err := ParseAlgorithmKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Rule is an immutable rate-limiting configuration: at most quota requests per window, counted by the algorithm.
// The zero value is not a valid rule, use NewRule.
type Rule struct {
	quota     int64
	window    time.Duration
	algorithm AlgorithmKind
}

// NewRule validates parameters and creates a new Rule.
func NewRule(quota int64, window time.Duration, algorithm AlgorithmKind) (Rule, error) {
	if quota <= 0 {
		return Rule{}, fmt.Errorf("%w, got %d", ErrInvalidQuota, quota)
	}
	if window <= 0 {
		return Rule{}, fmt.Errorf("%w, got %s", ErrInvalidWindow, window)
	}
	if !algorithm.IsValid() {
		return Rule{}, fmt.Errorf("%w: %s", ErrUnknownAlgorithm, algorithm)
	}
	return Rule{quota: quota, window: window, algorithm: algorithm}, nil
}

// MustRule is like NewRule but panics if parameters are invalid.
// It's intended for static initialization.
func MustRule(quota int64, window time.Duration, algorithm AlgorithmKind) Rule {
	r, err := NewRule(quota, window, algorithm)
	if err != nil {
		panic(err)
	}
	return r
}

// Quota returns the maximum number of requests per window.
func (r Rule) Quota() int64 { return r.quota }

// Window returns the window duration.
func (r Rule) Window() time.Duration { return r.window }

// Algorithm returns the algorithm that enforces the rule.
func (r Rule) Algorithm() AlgorithmKind { return r.algorithm }

// IsZero reports whether r is the zero (unset) Rule.
func (r Rule) IsZero() bool { return r == Rule{} }

// String implements fmt.Stringer interface.
func (r Rule) String() string {
	return fmt.Sprintf("%d per %s (%s)", r.quota, r.window, r.algorithm)
}
