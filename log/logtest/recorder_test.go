/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package logtest

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/acronis/go-ratelimit/log"
)

func TestRecorder(t *testing.T) {
	recorder := NewRecorder()
	logger := recorder.With(log.String("component", "limiter"))

	logger.Info("request allowed", log.String("key", "a"))
	logger.WithLevel(log.LevelWarn).Info("dropped")
	logger.Warnf("request denied for %q", "b")

	require.Len(t, recorder.Entries(), 2)

	entry, found := recorder.FindEntry("request allowed")
	require.True(t, found)
	require.Equal(t, log.LevelInfo, entry.Level)
	field, found := entry.FindField("key")
	require.True(t, found)
	require.Equal(t, "a", string(field.Bytes))
	_, found = entry.FindField("component")
	require.True(t, found)

	warns := recorder.FindAllEntries(func(e RecordedEntry) bool { return e.Level == log.LevelWarn })
	require.Len(t, warns, 1)
	require.Equal(t, `request denied for "b"`, warns[0].Text)

	recorder.Reset()
	require.Empty(t, recorder.Entries())
}
