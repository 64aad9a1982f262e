package journal

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/acttest/internal/act"
	"github.com/roach88/acttest/internal/async"
	"github.com/roach88/acttest/internal/console"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

func TestOpen_AppliesPragmasAndSchema(t *testing.T) {
	j := openTestJournal(t)

	var mode string
	require.NoError(t, j.DB().QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)

	var fk int
	require.NoError(t, j.DB().QueryRow("PRAGMA foreign_keys").Scan(&fk))
	assert.Equal(t, 1, fk)

	version, err := j.SchemaVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, currentSchemaVersion, version)
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	for i := 0; i < 2; i++ {
		j, err := Open(path)
		require.NoError(t, err)
		require.NoError(t, j.Close())
	}
}

func TestRecordCommit_RoundTrip(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	in := act.Report{
		Seq:          1,
		Label:        "session-a",
		Op:           "mount",
		Mode:         act.ModeAsync,
		Rounds:       3,
		Captured:     4,
		Pending:      1,
		BoundReached: true,
		Started:      10 * time.Millisecond,
		Finished:     60 * time.Millisecond,
		Suppressed: []console.Entry{
			{Level: slog.LevelError, Message: "each child in a list should have a unique \"key\" prop", Attrs: map[string]any{"component": "List"}},
			{Level: slog.LevelWarn, Message: "second"},
		},
		Err: "boom",
	}
	require.NoError(t, j.RecordCommit(ctx, in))

	out, err := j.Commits(ctx, "session-a")
	require.NoError(t, err)
	require.Len(t, out, 1)

	got := out[0]
	assert.Equal(t, in.Seq, got.Seq)
	assert.Equal(t, in.Label, got.Label)
	assert.Equal(t, in.Op, got.Op)
	assert.Equal(t, in.Mode, got.Mode)
	assert.Equal(t, in.Rounds, got.Rounds)
	assert.Equal(t, in.Captured, got.Captured)
	assert.Equal(t, in.Pending, got.Pending)
	assert.True(t, got.BoundReached)
	assert.False(t, got.Stalled)
	assert.Equal(t, in.Started, got.Started)
	assert.Equal(t, in.Finished, got.Finished)
	assert.Equal(t, "boom", got.Err)

	require.Len(t, got.Suppressed, 2)
	assert.Equal(t, slog.LevelError, got.Suppressed[0].Level)
	assert.Equal(t, in.Suppressed[0].Message, got.Suppressed[0].Message)
	assert.Equal(t, map[string]any{"component": "List"}, got.Suppressed[0].Attrs)
	assert.Equal(t, "second", got.Suppressed[1].Message)
	assert.Nil(t, got.Suppressed[1].Attrs)
}

func TestRecordCommit_DuplicateIsNoop(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()
	r := act.Report{Seq: 1, Label: "s", Op: "mount", Mode: act.ModeSync,
		Suppressed: []console.Entry{{Level: slog.LevelWarn, Message: "w"}}}

	require.NoError(t, j.RecordCommit(ctx, r))
	require.NoError(t, j.RecordCommit(ctx, r))

	out, err := j.Commits(ctx, "s")
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Len(t, out[0].Suppressed, 1)
}

func TestCommits_OrderedBySeqAndEmpty(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	for _, seq := range []int64{3, 1, 2} {
		require.NoError(t, j.RecordCommit(ctx, act.Report{Seq: seq, Label: "s", Op: "update", Mode: act.ModeSync}))
	}

	out, err := j.Commits(ctx, "s")
	require.NoError(t, err)
	seqs := make([]int64, 0, len(out))
	for _, r := range out {
		seqs = append(seqs, r.Seq)
	}
	assert.Equal(t, []int64{1, 2, 3}, seqs)

	none, err := j.Commits(ctx, "unknown")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestSessionsAndSummary(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	require.NoError(t, j.RecordCommit(ctx, act.Report{Seq: 1, Label: "b", Op: "mount", Mode: act.ModeSync}))
	require.NoError(t, j.RecordCommit(ctx, act.Report{Seq: 1, Label: "a", Op: "mount", Mode: act.ModeAsync, BoundReached: true}))
	require.NoError(t, j.RecordCommit(ctx, act.Report{Seq: 2, Label: "a", Op: "update", Mode: act.ModeSync, Err: "x",
		Suppressed: []console.Entry{{Level: slog.LevelWarn, Message: "w"}}}))

	sessions, err := j.Sessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, sessions)

	sum, err := j.Summarize(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, Summary{Session: "a", Commits: 2, Async: 1, Failed: 1, BoundReached: 1, Suppressed: 1}, sum)
}

func TestJournal_AsSchedulerRecorder(t *testing.T) {
	j := openTestJournal(t)
	loop := async.NewLoop()
	c := console.New(slog.NewTextHandler(io.Discard, nil))
	s := act.NewScheduler(act.WithLoop(loop), act.WithConsole(c), act.WithRecorder(j), act.WithLabel("sched"))

	require.NoError(t, s.RunSync("mount", func() error {
		c.Logger().Warn("legacy lifecycle method")
		return nil
	}))
	require.NoError(t, s.RunAsync(context.Background(), "load", func() error {
		loop.SetTimeout(func() {}, 25*time.Millisecond)
		return nil
	}))

	out, err := j.Commits(context.Background(), "sched")
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "mount", out[0].Op)
	require.Len(t, out[0].Suppressed, 1)
	assert.Equal(t, "legacy lifecycle method", out[0].Suppressed[0].Message)
	assert.Equal(t, act.ModeAsync, out[1].Mode)
	assert.Equal(t, 25*time.Millisecond, out[1].Finished)
	assert.Equal(t, 1, out[1].Captured)
}

func TestMarshalAttrs_UnencodableValues(t *testing.T) {
	s, err := marshalAttrs(map[string]any{"fn": func() {}, "n": 1, "html": "<b>"})
	require.NoError(t, err)
	assert.Contains(t, s, `"html":"<b>"`)
	assert.Contains(t, s, `"n":1`)
	assert.Contains(t, s, `"fn":"0x`)
}

func TestLastSeq_ResumesSchedulerClock(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	last, err := j.LastSeq(ctx, "resumed")
	require.NoError(t, err)
	assert.Equal(t, int64(0), last)

	for _, seq := range []int64{1, 2} {
		require.NoError(t, j.RecordCommit(ctx, act.Report{Seq: seq, Label: "resumed", Op: "update", Mode: act.ModeSync}))
	}
	last, err = j.LastSeq(ctx, "resumed")
	require.NoError(t, err)
	assert.Equal(t, int64(2), last)

	s := act.NewScheduler(act.WithLoop(async.NewLoop()), act.WithRecorder(j), act.WithLabel("resumed"),
		act.WithClock(act.NewClockAt(last)))
	require.NoError(t, s.RunSync("mount", func() error { return nil }))
	assert.Equal(t, int64(3), s.Seq())

	out, err := j.Commits(ctx, "resumed")
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, "mount", out[2].Op)
}
