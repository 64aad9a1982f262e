package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/acttest/internal/session"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	Config  string // session config file
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the acttest CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "acttest",
		Short: "acttest - deterministic render scenarios",
		Long:  "Mount fixture trees, drive them inside commit boundaries on a virtual clock, and check what they render.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Config, "config", "", "session config file (YAML)")

	cmd.AddCommand(NewRenderCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))
	cmd.AddCommand(NewJournalCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// loadConfig returns the session config named by --config, or the defaults.
func (o *RootOptions) loadConfig() (session.Config, error) {
	if o.Config == "" {
		return session.DefaultConfig(), nil
	}
	cfg, err := session.LoadConfig(o.Config)
	if err != nil {
		return session.Config{}, WrapExitError(ExitCommandError, "invalid config", err)
	}
	return cfg, nil
}
