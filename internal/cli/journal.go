package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/acttest/internal/act"
	"github.com/roach88/acttest/internal/journal"
)

// JournalOptions holds flags for the journal command.
type JournalOptions struct {
	*RootOptions
	Session string
}

// JournalResult is the JSON payload of the journal command.
type JournalResult struct {
	Summaries []journal.Summary       `json:"summaries"`
	Commits   map[string][]act.Report `json:"commits,omitempty"`
}

// NewJournalCommand creates the journal command.
func NewJournalCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &JournalOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "journal <db>",
		Short: "Summarize a commit journal",
		Long: `Print per-session commit counts from a journal written by "acttest test --db".
With --session, list that session's commits in order.

Examples:
  acttest journal journal.db
  acttest journal journal.db --session test-session-default -v`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJournal(cmd.Context(), opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Session, "session", "", "list the commits of one session")

	return cmd
}

func runJournal(ctx context.Context, opts *JournalOptions, path string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, err := os.Stat(path); err != nil {
		return NewExitError(ExitCommandError, fmt.Sprintf("journal not found: %s", path))
	}
	j, err := journal.Open(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	defer j.Close()

	sessions, err := j.Sessions(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read journal", err)
	}
	if opts.Session != "" {
		sessions = []string{opts.Session}
	}

	result := JournalResult{Summaries: make([]journal.Summary, 0, len(sessions))}
	for _, s := range sessions {
		sum, err := j.Summarize(ctx, s)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read journal", err)
		}
		result.Summaries = append(result.Summaries, sum)
	}
	if opts.Session != "" {
		commits, err := j.Commits(ctx, opts.Session)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read journal", err)
		}
		result.Commits = map[string][]act.Report{opts.Session: commits}
	}

	if opts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), CLIResponse{Status: "ok", Data: result})
	}

	w := cmd.OutOrStdout()
	for _, sum := range result.Summaries {
		fmt.Fprintf(w, "%s: %d commits (%d async, %d failed, %d bound reached), %d suppressed\n",
			sum.Session, sum.Commits, sum.Async, sum.Failed, sum.BoundReached, sum.Suppressed)
	}
	for _, r := range result.Commits[opts.Session] {
		line := fmt.Sprintf("  #%d %s %s rounds=%d captured=%d pending=%d %s..%s",
			r.Seq, r.Mode, r.Op, r.Rounds, r.Captured, r.Pending, r.Started, r.Finished)
		if r.Err != "" {
			line += " error=" + r.Err
		}
		fmt.Fprintln(w, line)
		if opts.Verbose {
			for _, e := range r.Suppressed {
				fmt.Fprintf(w, "    %s\n", strings.TrimSpace(e.String()))
			}
		}
	}
	return nil
}
