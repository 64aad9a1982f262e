package journal

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/acttest/internal/act"
	"github.com/roach88/acttest/internal/console"
)

// Commits returns every report recorded for session, ordered by seq, with
// suppressed entries attached in capture order.
//
// Returns an empty slice (not nil) when nothing was recorded.
func (j *Journal) Commits(ctx context.Context, session string) ([]act.Report, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT seq, op, mode, rounds, captured, pending, bound_reached, stalled, started_ns, finished_ns, error
		FROM commits
		WHERE session = ?
		ORDER BY seq ASC
	`, session)
	if err != nil {
		return nil, fmt.Errorf("query commits: %w", err)
	}
	defer rows.Close()

	reports := []act.Report{}
	index := make(map[int64]int)
	for rows.Next() {
		var (
			r                   act.Report
			mode                string
			bound, stalled      int
			startedNS, finishNS int64
		)
		if err := rows.Scan(&r.Seq, &r.Op, &mode, &r.Rounds, &r.Captured, &r.Pending,
			&bound, &stalled, &startedNS, &finishNS, &r.Err); err != nil {
			return nil, fmt.Errorf("scan commit: %w", err)
		}
		r.Label = session
		r.Mode = act.Mode(mode)
		r.BoundReached = bound != 0
		r.Stalled = stalled != 0
		r.Started = time.Duration(startedNS)
		r.Finished = time.Duration(finishNS)
		index[r.Seq] = len(reports)
		reports = append(reports, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate commits: %w", err)
	}
	rows.Close()

	if err := j.attachSuppressed(ctx, session, reports, index); err != nil {
		return nil, err
	}
	return reports, nil
}

func (j *Journal) attachSuppressed(ctx context.Context, session string, reports []act.Report, index map[int64]int) error {
	rows, err := j.db.QueryContext(ctx, `
		SELECT seq, level, message, attrs
		FROM suppressed_entries
		WHERE session = ?
		ORDER BY seq ASC, idx ASC
	`, session)
	if err != nil {
		return fmt.Errorf("query suppressed entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			seq       int64
			level     int
			entry     console.Entry
			attrsJSON string
		)
		if err := rows.Scan(&seq, &level, &entry.Message, &attrsJSON); err != nil {
			return fmt.Errorf("scan suppressed entry: %w", err)
		}
		entry.Level = slog.Level(level)
		entry.Attrs, err = unmarshalAttrs(attrsJSON)
		if err != nil {
			return err
		}
		i, ok := index[seq]
		if !ok {
			continue
		}
		reports[i].Suppressed = append(reports[i].Suppressed, entry)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate suppressed entries: %w", err)
	}
	return nil
}

// Sessions lists the recorded session labels in first-recorded order,
// breaking ties by label.
func (j *Journal) Sessions(ctx context.Context) ([]string, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT session
		FROM commits
		GROUP BY session
		ORDER BY MIN(rowid) ASC, session COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []string{}
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

// LastSeq returns the highest seq recorded for session, or 0 when the
// session has no commits.
func (j *Journal) LastSeq(ctx context.Context, session string) (int64, error) {
	var seq int64
	err := j.db.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(seq), 0)
		FROM commits
		WHERE session = ?
	`, session).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("query last seq: %w", err)
	}
	return seq, nil
}

// Summary aggregates the commits of one session.
type Summary struct {
	Session      string `json:"session"`
	Commits      int    `json:"commits"`
	Async        int    `json:"async"`
	Failed       int    `json:"failed"`
	BoundReached int    `json:"bound_reached"`
	Suppressed   int    `json:"suppressed"`
}

// Summarize returns commit counts for session.
func (j *Journal) Summarize(ctx context.Context, session string) (Summary, error) {
	s := Summary{Session: session}
	err := j.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(mode = 'async'), 0),
			COALESCE(SUM(error <> ''), 0),
			COALESCE(SUM(bound_reached), 0)
		FROM commits
		WHERE session = ?
	`, session).Scan(&s.Commits, &s.Async, &s.Failed, &s.BoundReached)
	if err != nil {
		return Summary{}, fmt.Errorf("summarize commits: %w", err)
	}
	err = j.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM suppressed_entries WHERE session = ?`, session).Scan(&s.Suppressed)
	if err != nil {
		return Summary{}, fmt.Errorf("summarize suppressed entries: %w", err)
	}
	return s, nil
}
