package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/roach88/acttest/internal/act"
	"github.com/roach88/acttest/internal/async"
	"github.com/roach88/acttest/internal/console"
	"github.com/roach88/acttest/internal/debug"
	"github.com/roach88/acttest/internal/memrender"
	"github.com/roach88/acttest/internal/session"
	"github.com/roach88/acttest/internal/testutil"
)

type options struct {
	journal act.Recorder
	logger  *slog.Logger
	config  session.Config
	update  bool
}

// Option configures Run.
type Option func(*options)

// WithJournal records every commit of the run.
func WithJournal(r act.Recorder) Option {
	return func(o *options) { o.journal = r }
}

// WithLogger sets the diagnostic logger. Console output that is not
// suppressed is written to the same handler.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithConfig sets the session defaults a scenario's own fields override.
func WithConfig(cfg session.Config) Option {
	return func(o *options) { o.config = cfg }
}

// WithUpdate rewrites snapshot files instead of comparing against them.
func WithUpdate(update bool) Option {
	return func(o *options) { o.update = update }
}

// Harness holds the state of one scenario run. Each run gets a fresh loop,
// console and renderer, so runs never share virtual time or handles.
type Harness struct {
	scenario *Scenario
	opts     options
	loop     *async.Loop
	recorder *Recorder
	builder  *builder
	session  *session.Session
	fixture  Fixture
	logger   *slog.Logger
}

// Run mounts the scenario's tree, executes its steps and evaluates its
// assertions.
//
// Step failures are reported in the result and stop the remaining steps;
// assertions are still evaluated. The returned error is reserved for
// failures to mount the tree at all.
func Run(ctx context.Context, scenario *Scenario, opts ...Option) (*Result, error) {
	h := newHarness(scenario, opts)
	if err := h.mount(ctx); err != nil {
		return nil, fmt.Errorf("scenario %q: %w", scenario.Name, err)
	}
	defer h.unmount()

	result := NewResult(scenario.Name)
	result.SessionID = h.session.ID()
	h.collect(result)

	for i, step := range scenario.Steps {
		if err := h.execute(ctx, step); err != nil {
			result.AddError(fmt.Sprintf("steps[%d] (%s): %v", i, step.Name(), err))
			h.collect(result)
			break
		}
		h.collect(result)
	}

	result.Recorded = h.recorder.Labels()
	tree, err := h.session.Debug(h.debugOptions())
	if err != nil {
		return nil, fmt.Errorf("scenario %q: %w", scenario.Name, err)
	}
	result.Tree = tree

	for _, msg := range h.evaluate(result) {
		result.AddError(msg)
	}
	h.logger.Debug("scenario finished", "pass", result.Pass, "commits", len(result.Commits))
	return result, nil
}

// Render mounts the scenario's tree and returns its debug serialization,
// without running steps or assertions.
func Render(ctx context.Context, scenario *Scenario, opts ...Option) (string, error) {
	h := newHarness(scenario, opts)
	if err := h.mount(ctx); err != nil {
		return "", fmt.Errorf("scenario %q: %w", scenario.Name, err)
	}
	defer h.unmount()
	return h.session.Debug(h.debugOptions())
}

func newHarness(scenario *Scenario, opts []Option) *Harness {
	o := options{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		config: session.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	h := &Harness{
		scenario: scenario,
		opts:     o,
		loop:     async.NewLoop(async.WithLogger(o.logger)),
		recorder: &Recorder{},
		fixture:  scenario.Tree,
		logger:   o.logger.With("scenario", scenario.Name),
	}
	h.builder = newBuilder(h.loop, h.recorder)
	return h
}

func (h *Harness) unmount() {
	if err := h.session.Unmount(); err != nil {
		h.logger.Warn("unmount failed", "error", err)
	}
}

func (h *Harness) mount(ctx context.Context) error {
	cfg := h.opts.config
	if h.scenario.Strict {
		cfg.Strict = true
	}
	if h.scenario.MaxRounds > 0 {
		cfg.MaxRounds = h.scenario.MaxRounds
	}
	if h.scenario.Debug != nil {
		cfg.Debug = *h.scenario.Debug
	}

	sessOpts := []session.Option{
		session.WithConfig(cfg),
		session.WithLoop(h.loop),
		session.WithConsole(console.New(h.opts.logger.Handler())),
		session.WithLogger(h.opts.logger),
		session.WithIDGenerator(testutil.NewFixedIDGenerator(h.scenario.SessionID)),
	}
	if h.opts.journal != nil {
		sessOpts = append(sessOpts, session.WithJournal(h.opts.journal))
	}

	renderer := memrender.New(memrender.WithLogger(h.opts.logger))
	el := h.builder.Element(h.fixture)

	var err error
	if h.scenario.AsyncMount {
		h.session, err = session.RenderAsync(ctx, renderer, el, sessOpts...)
	} else {
		h.session, err = session.Render(renderer, el, sessOpts...)
	}
	return err
}

func (h *Harness) debugOptions() debug.Options {
	if h.scenario.Debug != nil {
		return *h.scenario.Debug
	}
	return h.opts.config.Debug
}

// collect appends the session's latest report if it is new.
func (h *Harness) collect(result *Result) {
	r, ok := h.session.Report()
	if !ok {
		return
	}
	if n := len(result.Commits); n > 0 && result.Commits[n-1].Seq == r.Seq {
		return
	}
	result.Commits = append(result.Commits, r)
}

func (h *Harness) execute(ctx context.Context, step Step) error {
	switch {
	case step.Dispatch != nil:
		return h.dispatch(ctx, step.Dispatch, false)
	case step.DispatchAsync != nil:
		return h.dispatch(ctx, step.DispatchAsync, true)
	case step.UpdateText != nil:
		u := step.UpdateText
		updated, err := replaceText(h.fixture, u.Target, u.Index, u.Text)
		if err != nil {
			return err
		}
		h.fixture = updated
		return h.session.Update(h.builder.Element(updated))
	case step.Advance > 0:
		delay := time.Duration(step.Advance) * time.Millisecond
		return h.session.ActAsync(ctx, func() error {
			h.loop.SetTimeout(func() {}, delay)
			return nil
		})
	}
	return fmt.Errorf("empty step")
}

func (h *Harness) dispatch(ctx context.Context, d *DispatchStep, wait bool) error {
	root, err := h.session.Root()
	if err != nil {
		return err
	}
	matches := root.Find(d.Target)
	if d.Index >= len(matches) {
		return fmt.Errorf("%s[%d] not found, tree has %d", d.Target, d.Index, len(matches))
	}
	node := matches[d.Index]
	if wait {
		_, err = node.DispatchAsync(ctx, d.Prop, d.Descriptor(), d.Args...)
	} else {
		_, err = node.Dispatch(d.Prop, d.Descriptor(), d.Args...)
	}
	return err
}
