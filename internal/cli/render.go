package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/acttest/internal/harness"
)

// RenderOptions holds flags for the render command.
type RenderOptions struct {
	*RootOptions
	Width       int
	PassThrough bool
	KeyAndRef   bool
}

// RenderResult is the JSON payload of the render command.
type RenderResult struct {
	Name string `json:"name"`
	Tree string `json:"tree"`
}

// NewRenderCommand creates the render command.
func NewRenderCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RenderOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "render <scenario>",
		Short: "Print the debug tree of a scenario's fixture",
		Long: `Mount a scenario's fixture tree and print its debug serialization.
Steps and assertions are not run.

The width defaults to the terminal width, or the configured width (80
unless set) when output is not a terminal.

Examples:
  acttest render ./scenarios/toggle.yaml
  acttest render ./scenarios/toggle.cue --pass-through --key-and-ref
  acttest render ./scenarios/toggle.yaml --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd.Context(), opts, args[0], cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Width, "width", 0, "line width (default: terminal width)")
	cmd.Flags().BoolVar(&opts.PassThrough, "pass-through", false, "show Fragment and StrictMode nodes")
	cmd.Flags().BoolVar(&opts.KeyAndRef, "key-and-ref", false, "show key and ref props")

	return cmd
}

func runRender(ctx context.Context, opts *RenderOptions, path string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}

	scenario, err := harness.LoadScenario(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}

	debugOpts := cfg.Debug
	if scenario.Debug != nil {
		debugOpts = *scenario.Debug
	}
	if opts.Width > 0 {
		debugOpts.Width = opts.Width
	} else {
		debugOpts.Width = terminalWidth(cmd.OutOrStdout(), debugOpts.Width)
	}
	if opts.PassThrough {
		debugOpts.PassThrough = true
	}
	if opts.KeyAndRef {
		debugOpts.KeyAndRef = true
	}
	scenario.Debug = &debugOpts

	out, err := harness.Render(ctx, scenario,
		harness.WithConfig(cfg),
		harness.WithLogger(NewCommandLogger(opts.Verbose)),
	)
	if err != nil {
		return WrapExitError(ExitFailure, "render failed", err)
	}

	if opts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), CLIResponse{
			Status: "ok",
			Data:   RenderResult{Name: scenario.Name, Tree: out},
		})
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}
