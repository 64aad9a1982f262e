package journal

import (
	"context"
	"fmt"

	"github.com/roach88/acttest/internal/act"
)

// RecordCommit writes a commit report and its suppressed console entries in
// one transaction. Writing the same (label, seq) twice is a no-op.
func (j *Journal) RecordCommit(ctx context.Context, r act.Report) error {
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("record commit: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO commits
		(session, seq, op, mode, rounds, captured, pending, bound_reached, stalled, started_ns, finished_ns, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session, seq) DO NOTHING
	`,
		r.Label,
		r.Seq,
		r.Op,
		string(r.Mode),
		r.Rounds,
		r.Captured,
		r.Pending,
		boolInt(r.BoundReached),
		boolInt(r.Stalled),
		int64(r.Started),
		int64(r.Finished),
		r.Err,
	)
	if err != nil {
		return fmt.Errorf("record commit %d: %w", r.Seq, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil
	}

	for i, entry := range r.Suppressed {
		attrs, err := marshalAttrs(entry.Attrs)
		if err != nil {
			return fmt.Errorf("record commit %d: %w", r.Seq, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO suppressed_entries (session, seq, idx, level, message, attrs)
			VALUES (?, ?, ?, ?, ?, ?)
		`, r.Label, r.Seq, i, int(entry.Level), entry.Message, attrs)
		if err != nil {
			return fmt.Errorf("record suppressed entry %d of commit %d: %w", i, r.Seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("record commit %d: %w", r.Seq, err)
	}
	return nil
}

var (
	_ act.Recorder = (*Journal)(nil)
	_ act.Resumer  = (*Journal)(nil)
)
