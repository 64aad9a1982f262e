package console

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConsole() (*Console, *bytes.Buffer) {
	var buf bytes.Buffer
	return New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})), &buf
}

func TestConsole_PassesThroughWhenNotSuppressed(t *testing.T) {
	c, buf := newTestConsole()

	c.Logger().Error("render failed", "component", "Counter")

	assert.Contains(t, buf.String(), "render failed")
	assert.Contains(t, buf.String(), "component=Counter")
}

func TestConsole_SuppressCapturesWarnings(t *testing.T) {
	c, buf := newTestConsole()

	s := c.Suppress()
	c.Logger().With("component", "List").Warn("duplicate key", "key", "a")
	c.Logger().Info("still visible")
	entries := s.Restore()

	require.Len(t, entries, 1)
	assert.Equal(t, slog.LevelWarn, entries[0].Level)
	assert.Equal(t, "duplicate key", entries[0].Message)
	assert.Equal(t, map[string]any{"component": "List", "key": "a"}, entries[0].Attrs)
	assert.NotContains(t, buf.String(), "duplicate key")
	assert.Contains(t, buf.String(), "still visible")

	c.Logger().Warn("after restore")
	assert.Contains(t, buf.String(), "after restore")
}

func TestConsole_RestoreIsIdempotent(t *testing.T) {
	c, _ := newTestConsole()

	s := c.Suppress()
	c.Logger().Error("one")
	first := s.Restore()
	second := s.Restore()

	assert.Equal(t, first, second)
	assert.False(t, c.Suppressed())
}

func TestConsole_NestedSuppressions(t *testing.T) {
	c, _ := newTestConsole()

	outer := c.Suppress()
	c.Logger().Error("outer-1")
	inner := c.Suppress()
	c.Logger().Error("inner-1")
	innerEntries := inner.Restore()
	c.Logger().Error("outer-2")
	outerEntries := outer.Restore()

	require.Len(t, innerEntries, 1)
	assert.Equal(t, "inner-1", innerEntries[0].Message)
	require.Len(t, outerEntries, 2)
	assert.Equal(t, "outer-1", outerEntries[0].Message)
	assert.Equal(t, "outer-2", outerEntries[1].Message)
}

func TestConsole_OutOfOrderRestoreDropsInner(t *testing.T) {
	c, _ := newTestConsole()

	outer := c.Suppress()
	inner := c.Suppress()
	outer.Restore()

	assert.False(t, c.Suppressed())
	assert.Empty(t, inner.Restore())
}

func TestEntry_String(t *testing.T) {
	assert.Equal(t, "WARN slow", Entry{Level: slog.LevelWarn, Message: "slow"}.String())
}
