// Package session mounts an element through a renderer and keeps every
// later mutation inside the commit boundary.
//
// A Session is the entry point tests use:
//
//	s, err := session.Render(renderer, element.H("button", nil, "Go"))
//	root, err := s.Root()
//	btn, err := root.FindOne("button")
//	_, err = btn.Dispatch("onClick", event.Descriptor{})
//
// Render, Update, Unmount and Act run synchronous commits; their Async
// variants also drain the async work the mutation spawned.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"

	"github.com/roach88/acttest/internal/act"
	"github.com/roach88/acttest/internal/async"
	"github.com/roach88/acttest/internal/console"
	"github.com/roach88/acttest/internal/debug"
	"github.com/roach88/acttest/internal/element"
	"github.com/roach88/acttest/internal/event"
	"github.com/roach88/acttest/internal/tree"
)

// ErrSessionClosed is returned by every operation after Unmount.
var ErrSessionClosed = errors.New("session closed")

// Handle identifies a mounted tree inside a renderer.
type Handle any

// CreateOptions is passed to Renderer.Create.
type CreateOptions struct {
	// MockRef produces the value attached to refs of host elements. Nil
	// leaves host refs unset.
	MockRef func(el *element.Element) any
	// Loop is the event loop the mounted tree schedules async work on.
	Loop *async.Loop
	// Console receives renderer warnings.
	Console *console.Console
}

// Renderer mounts element trees and exposes their committed native tree.
type Renderer interface {
	Create(el *element.Element, opts CreateOptions) (Handle, error)
	Update(h Handle, el *element.Element) error
	Unmount(h Handle) error
	Root(h Handle) (tree.Native, error)
}

// Flusher is implemented by renderers that queue effects; FlushSync runs
// them and is called at the end of every commit.
type Flusher interface {
	FlushSync()
}

// WrapFunc builds the element mounted around the root, for context
// injection.
type WrapFunc func(root *element.Element) *element.Element

type options struct {
	strict    bool
	wrapper   WrapFunc
	mockRef   func(*element.Element) any
	debug     debug.Options
	loop      *async.Loop
	logger    *slog.Logger
	console   *console.Console
	maxRounds int
	journal   act.Recorder
	ids       IDGenerator
}

// Option configures a Session.
type Option func(*options)

// WithStrict wraps the root in element.StrictMode.
func WithStrict(strict bool) Option {
	return func(o *options) {
		o.strict = strict
	}
}

// WithWrapper mounts fn(root) instead of root.
func WithWrapper(fn WrapFunc) Option {
	return func(o *options) {
		o.wrapper = fn
	}
}

// WithMockRef sets the factory for host ref stand-ins.
func WithMockRef(fn func(*element.Element) any) Option {
	return func(o *options) {
		o.mockRef = fn
	}
}

// WithDebug sets the default options of Session.Debug.
func WithDebug(opts debug.Options) Option {
	return func(o *options) {
		o.debug = opts
	}
}

// WithLoop sets the event loop. Default: async.Default().
func WithLoop(l *async.Loop) Option {
	return func(o *options) {
		o.loop = l
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithConsole sets the console suppressed during commits. Default:
// console.Default().
func WithConsole(c *console.Console) Option {
	return func(o *options) {
		o.console = c
	}
}

// WithMaxRounds sets the drain round budget of async commits.
func WithMaxRounds(n int) Option {
	return func(o *options) {
		o.maxRounds = n
	}
}

// WithJournal records every commit report.
func WithJournal(r act.Recorder) Option {
	return func(o *options) {
		o.journal = r
	}
}

// WithIDGenerator sets the session ID source. Default: UUIDv7Generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(o *options) {
		o.ids = g
	}
}

// WithConfig applies a loaded Config.
func WithConfig(cfg Config) Option {
	return func(o *options) {
		o.strict = cfg.Strict
		o.debug = cfg.Debug
		if cfg.MaxRounds > 0 {
			o.maxRounds = cfg.MaxRounds
		}
	}
}

// Session is one mounted tree.
type Session struct {
	id        string
	renderer  Renderer
	scheduler *act.Scheduler
	opts      options
	logger    *slog.Logger
	binding   *tree.Binding

	handle     Handle
	element    *element.Element
	active     bool
	generation atomic.Uint64
}

func newSession(ctx context.Context, r Renderer, opts []Option) *Session {
	o := options{
		debug:     debug.DefaultOptions(),
		loop:      async.Default(),
		console:   console.Default(),
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		maxRounds: act.DefaultMaxRounds,
		ids:       UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(&o)
	}

	s := &Session{
		id:       o.ids.Generate(),
		renderer: r,
		opts:     o,
	}
	s.logger = o.logger.With("session", s.id)

	schedOpts := []act.Option{
		act.WithLoop(o.loop),
		act.WithConsole(o.console),
		act.WithLogger(s.logger),
		act.WithMaxRounds(o.maxRounds),
		act.WithLabel(s.id),
	}
	if f, ok := r.(Flusher); ok {
		schedOpts = append(schedOpts, act.WithFlusher(f.FlushSync))
	}
	if o.journal != nil {
		schedOpts = append(schedOpts, act.WithRecorder(o.journal))
		if clock := s.resume(ctx, o.journal); clock != nil {
			schedOpts = append(schedOpts, act.WithClock(clock))
		}
	}
	s.scheduler = act.NewScheduler(schedOpts...)
	s.binding = &tree.Binding{
		Committer:  committer{s},
		Events:     event.NewFactory(event.WithClock(o.loop.Now)),
		Generation: s.generation.Load,
		Check:      s.check,
	}
	return s
}

// resume continues the commit sequence of a session ID the journal already
// holds, so re-running a fixed-ID session appends instead of colliding.
func (s *Session) resume(ctx context.Context, journal act.Recorder) *act.Clock {
	resumer, ok := journal.(act.Resumer)
	if !ok {
		return nil
	}
	last, err := resumer.LastSeq(ctx, s.id)
	if err != nil {
		s.logger.Warn("journal resume failed; numbering commits from 1", "error", err)
		return nil
	}
	if last == 0 {
		return nil
	}
	clock := act.NewClockAt(last)
	s.logger.Debug("resuming journal", "seq", clock.Current())
	return clock
}

// Render mounts el in a synchronous commit.
func Render(r Renderer, el *element.Element, opts ...Option) (*Session, error) {
	s := newSession(context.Background(), r, opts)
	err := s.commitSync("mount", func() error { return s.mount(el) })
	if err != nil {
		return nil, err
	}
	return s, nil
}

// RenderAsync mounts el in an asynchronous commit, draining the work the
// first render spawns.
func RenderAsync(ctx context.Context, r Renderer, el *element.Element, opts ...Option) (*Session, error) {
	s := newSession(ctx, r, opts)
	err := s.commitAsync(ctx, "mount", func() error { return s.mount(el) })
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Session) mount(el *element.Element) error {
	h, err := s.renderer.Create(s.wrap(el), CreateOptions{
		MockRef: s.opts.mockRef,
		Loop:    s.opts.loop,
		Console: s.opts.console,
	})
	if err != nil {
		return fmt.Errorf("create: %w", err)
	}
	s.handle = h
	s.element = el
	s.active = true
	s.logger.Debug("mounted", "root", el.Name())
	return nil
}

func (s *Session) wrap(el *element.Element) *element.Element {
	if s.opts.wrapper != nil {
		el = s.opts.wrapper(el)
	}
	if s.opts.strict {
		el = element.New(element.StrictMode, nil, el)
	}
	return el
}

// ID returns the session ID.
func (s *Session) ID() string { return s.id }

// Scheduler returns the session's commit scheduler.
func (s *Session) Scheduler() *act.Scheduler { return s.scheduler }

// Element returns the element last mounted or updated, without wrappers.
func (s *Session) Element() *element.Element { return s.element }

// Active reports whether the session is still mounted.
func (s *Session) Active() bool { return s.active }

// Generation returns the number of commits since the session was created.
func (s *Session) Generation() uint64 { return s.generation.Load() }

// Report returns the report of the most recent commit.
func (s *Session) Report() (act.Report, bool) { return s.scheduler.LastReport() }

// Update re-renders with el in a synchronous commit.
func (s *Session) Update(el *element.Element) error {
	if err := s.check("update"); err != nil {
		return err
	}
	return s.commitSync("update", func() error { return s.update(el) })
}

// UpdateAsync re-renders with el in an asynchronous commit.
func (s *Session) UpdateAsync(ctx context.Context, el *element.Element) error {
	if err := s.check("update"); err != nil {
		return err
	}
	return s.commitAsync(ctx, "update", func() error { return s.update(el) })
}

func (s *Session) update(el *element.Element) error {
	if err := s.renderer.Update(s.handle, s.wrap(el)); err != nil {
		return fmt.Errorf("update: %w", err)
	}
	s.element = el
	return nil
}

// Unmount tears the tree down in a synchronous commit. Every later call
// returns ErrSessionClosed.
func (s *Session) Unmount() error {
	if err := s.check("unmount"); err != nil {
		return err
	}
	return s.commitSync("unmount", s.unmount)
}

// UnmountAsync tears the tree down in an asynchronous commit, draining
// cleanup work.
func (s *Session) UnmountAsync(ctx context.Context) error {
	if err := s.check("unmount"); err != nil {
		return err
	}
	return s.commitAsync(ctx, "unmount", s.unmount)
}

func (s *Session) unmount() error {
	s.active = false
	if err := s.renderer.Unmount(s.handle); err != nil {
		return fmt.Errorf("unmount: %w", err)
	}
	s.logger.Debug("unmounted")
	return nil
}

// Act runs fn in a synchronous commit. Use it for mutations that do not go
// through Update or Dispatch, such as resolving a pending request by hand.
func (s *Session) Act(fn func() error) error {
	if err := s.check("act"); err != nil {
		return err
	}
	return s.commitSync("act", fn)
}

// ActAsync runs fn in an asynchronous commit.
func (s *Session) ActAsync(ctx context.Context, fn func() error) error {
	if err := s.check("act"); err != nil {
		return err
	}
	return s.commitAsync(ctx, "act", fn)
}

// Root returns a view of the current committed tree.
func (s *Session) Root() (*tree.Node, error) {
	if err := s.check("root"); err != nil {
		return nil, err
	}
	native, err := s.renderer.Root(s.handle)
	if err != nil {
		return nil, fmt.Errorf("root: %w", err)
	}
	return tree.Wrap(native, s.binding), nil
}

// Debug serializes the current tree. Without arguments it uses the
// session's debug options.
func (s *Session) Debug(opts ...debug.Options) (string, error) {
	if err := s.check("debug"); err != nil {
		return "", err
	}
	native, err := s.renderer.Root(s.handle)
	if err != nil {
		return "", fmt.Errorf("debug: %w", err)
	}
	o := s.opts.debug
	if len(opts) > 0 {
		o = opts[0]
	}
	return debug.Serialize(native, o), nil
}

func (s *Session) check(op string) error {
	if !s.active {
		return fmt.Errorf("%s: %w", op, ErrSessionClosed)
	}
	return nil
}

func (s *Session) commitSync(op string, mutation func() error) error {
	defer s.generation.Add(1)
	return s.scheduler.RunSync(op, mutation)
}

func (s *Session) commitAsync(ctx context.Context, op string, mutation func() error) error {
	defer s.generation.Add(1)
	return s.scheduler.RunAsync(ctx, op, mutation)
}

// committer routes node dispatches through the session so each one advances
// the snapshot generation.
type committer struct {
	s *Session
}

func (c committer) RunSync(op string, mutation func() error) error {
	if err := c.s.check(op); err != nil {
		return err
	}
	return c.s.commitSync(op, mutation)
}

func (c committer) RunAsync(ctx context.Context, op string, mutation func() error) error {
	if err := c.s.check(op); err != nil {
		return err
	}
	return c.s.commitAsync(ctx, op, mutation)
}
