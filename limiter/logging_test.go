/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package limiter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/acronis/go-ratelimit/log"
	"github.com/acronis/go-ratelimit/log/logtest"
)

func TestWithLogging(t *testing.T) {
	allowed := Response{Allowed: true, Remaining: 9, ResetTime: testStartTime}
	denied := Response{RetryAfter: 30 * time.Second, ResetTime: testStartTime}

	tests := []struct {
		name      string
		opts      LoggingOpts
		resp      Response
		err       error
		wantLevel log.Level
		wantText  string
	}{
		{name: "allowed, logging of allowed is disabled", opts: LoggingOpts{LogDenied: true}, resp: allowed},
		{
			name: "allowed", opts: LoggingOpts{LogAllowed: true}, resp: allowed,
			wantLevel: log.LevelInfo, wantText: "request allowed by rate limiter",
		},
		{name: "denied, logging of denied is disabled", opts: LoggingOpts{LogAllowed: true}, resp: denied},
		{
			name: "denied", opts: LoggingOpts{LogDenied: true}, resp: denied,
			wantLevel: log.LevelWarn, wantText: "request denied by rate limiter",
		},
		{
			name: "failed", opts: LoggingOpts{}, err: errStoreUnavailable,
			wantLevel: log.LevelError, wantText: "rate limit check failed",
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			logRecorder := logtest.NewRecorder()
			checker := Chain(staticChecker(tt.resp, tt.err), WithLogging(logRecorder, tt.opts))

			resp, err := checker.CheckLimit(context.Background(), "client-42")
			require.Equal(t, tt.resp, resp)
			require.ErrorIs(t, err, tt.err)

			if tt.wantText == "" {
				require.Empty(t, logRecorder.Entries())
				return
			}
			require.Len(t, logRecorder.Entries(), 1)
			entry := logRecorder.Entries()[0]
			require.Equal(t, tt.wantText, entry.Text)
			require.Equal(t, tt.wantLevel, entry.Level)

			keyField, found := entry.FindField(KeyLogFieldKey)
			require.True(t, found)
			require.Equal(t, "client-42", string(keyField.Bytes))
			_, found = entry.FindField("duration_ms")
			require.True(t, found)

			switch tt.wantLevel {
			case log.LevelInfo:
				remainingField, ok := entry.FindField("remaining")
				require.True(t, ok)
				require.Equal(t, int64(9), remainingField.Int)
			case log.LevelWarn:
				retryAfterField, ok := entry.FindField("retry_after")
				require.True(t, ok)
				require.Equal(t, int64(30*time.Second), retryAfterField.Int)
			}
		})
	}
}
