package act

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/acttest/internal/console"
)

// ReentrantCommitError is returned when a commit is opened while another
// commit on the same scheduler is still running.
type ReentrantCommitError struct {
	Op   string // the commit that was refused
	Open string // the commit already running
}

// Error implements the error interface.
func (e *ReentrantCommitError) Error() string {
	return fmt.Sprintf("cannot open commit %q: commit %q is still open", e.Op, e.Open)
}

// IsReentrantCommitError returns true if err is a ReentrantCommitError.
// Uses errors.As to handle wrapped errors.
func IsReentrantCommitError(err error) bool {
	var re *ReentrantCommitError
	return errors.As(err, &re)
}

// CommitError wraps a mutation failure together with the console output
// that was suppressed while it ran.
type CommitError struct {
	Op         string
	Mode       Mode
	Err        error
	Suppressed []console.Entry
}

// Error implements the error interface.
func (e *CommitError) Error() string {
	if len(e.Suppressed) == 0 {
		return fmt.Sprintf("%s commit %q failed: %v", e.Mode, e.Op, e.Err)
	}
	var buf strings.Builder
	fmt.Fprintf(&buf, "%s commit %q failed: %v\n", e.Mode, e.Op, e.Err)
	fmt.Fprintf(&buf, "suppressed console output (%d):", len(e.Suppressed))
	for _, entry := range e.Suppressed {
		fmt.Fprintf(&buf, "\n  %s", entry)
	}
	return buf.String()
}

// Unwrap returns the mutation error.
func (e *CommitError) Unwrap() error {
	return e.Err
}

// IsCommitError returns true if err is a CommitError.
// Uses errors.As to handle wrapped errors.
func IsCommitError(err error) bool {
	var ce *CommitError
	return errors.As(err, &ce)
}
