/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package limiter

import (
	"time"

	"github.com/acronis/go-ratelimit/log"
)

// KeyLogFieldKey is the name of the logged field that contains a key of the checked request.
const KeyLogFieldKey = "rate_limit_key"

// LoggingOpts represents options for the logging middleware.
type LoggingOpts struct {
	// LogAllowed enables logging of allowed requests (at info level).
	LogAllowed bool

	// LogDenied enables logging of denied requests (at warn level).
	LogDenied bool
}

// WithLogging returns a middleware that logs checks according to opts. Failed checks are always logged.
func WithLogging(logger log.FieldLogger, opts LoggingOpts) Middleware {
	return WithObserver(func(key string, resp Response, elapsed time.Duration, err error) {
		fields := []log.Field{log.String(KeyLogFieldKey, key), log.Int64("duration_ms", elapsed.Milliseconds())}
		switch {
		case err != nil:
			logger.Error("rate limit check failed", append(fields, log.Error(err))...)
		case resp.Allowed && opts.LogAllowed:
			logger.Info("request allowed by rate limiter", append(fields, log.Int64("remaining", resp.Remaining))...)
		case !resp.Allowed && opts.LogDenied:
			logger.Warn("request denied by rate limiter", append(fields, log.Duration("retry_after", resp.RetryAfter))...)
		}
	})
}
