/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package limiter

import (
	"math"
	"time"
)

// Unlimited is a Remaining value reported for keys without a rule.
const Unlimited int64 = math.MaxInt64

// Response is a result of a rate limit check.
type Response struct {
	// Allowed is true if the request may proceed.
	Allowed bool

	// Remaining is an estimate of requests left in the current window. It's meaningful only if Allowed is true.
	Remaining int64

	// RetryAfter is how long the caller should wait before retrying. It's meaningful only if Allowed is false.
	RetryAfter time.Duration

	// ResetTime is the instant when the limit is expected to be restored.
	ResetTime time.Time
}

func allowedResponse(remaining int64, resetTime time.Time) Response {
	return Response{Allowed: true, Remaining: remaining, ResetTime: resetTime}
}

func deniedResponse(retryAfter time.Duration, resetTime time.Time) Response {
	return Response{RetryAfter: retryAfter, ResetTime: resetTime}
}
