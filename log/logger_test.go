/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewLoggerWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	cfg := NewDefaultConfig()
	cfg.Level = LevelWarn
	logger := NewLoggerWithWriter(cfg, &buf)

	logger.Info("dropped")
	logger.With(String("key", "user:1")).Warn("rate limit exceeded", Int64("remaining", 0))
	logger.Errorf("store failed: %s", "timeout")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	require.Equal(t, "warn", entry["level"])
	require.Equal(t, "rate limit exceeded", entry["msg"])
	require.Equal(t, "user:1", entry["key"])
	require.EqualValues(t, 0, entry["remaining"])
	require.Contains(t, entry, "time")

	require.NoError(t, json.Unmarshal([]byte(lines[1]), &entry))
	require.Equal(t, "store failed: timeout", entry["msg"])
}

func TestNewLoggerWithWriter_Text(t *testing.T) {
	var buf bytes.Buffer
	cfg := NewDefaultConfig()
	cfg.Format = FormatText
	cfg.NoColor = true
	logger := NewLoggerWithWriter(cfg, &buf)

	logger.Info("sweep finished", Int("reclaimed", 3), Error(errors.New("partial")))
	require.Contains(t, buf.String(), "sweep finished")
	require.Contains(t, buf.String(), "reclaimed")
	require.Contains(t, buf.String(), "partial")
}

func TestLogfAdapter_WithLevel(t *testing.T) {
	var buf bytes.Buffer
	cfg := NewDefaultConfig()
	cfg.Level = LevelDebug
	logger := NewLoggerWithWriter(cfg, &buf).WithLevel(LevelError)

	logger.Debug("debug")
	logger.Warnf("warn %d", 1)
	require.Empty(t, buf.String())

	var called bool
	logger.AtLevel(LevelError, func(logFunc LogFunc) {
		called = true
		logFunc("error via AtLevel")
	})
	require.True(t, called)
	require.Contains(t, buf.String(), "error via AtLevel")
}

func TestNewDisabledLogger(t *testing.T) {
	logger := NewDisabledLogger()
	logger.AtLevel(LevelError, func(LogFunc) {
		t.Fatal("must not be called for a disabled logger")
	})
	logger.With(String("k", "v")).Error("nothing happens")
}

func TestResolvePlaceholders(t *testing.T) {
	got := resolvePlaceholders("/var/log/ratelimit-{{pid}}.log")
	require.NotContains(t, got, "{{pid}}")
	require.True(t, strings.HasPrefix(got, "/var/log/ratelimit-"))
	require.Equal(t, "/plain.log", resolvePlaceholders("/plain.log"))
}
