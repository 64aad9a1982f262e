package act

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/roach88/acttest/internal/async"
	"github.com/roach88/acttest/internal/console"
)

// DefaultMaxRounds is the default drain round budget for RunAsync.
const DefaultMaxRounds = 10

// Mode distinguishes synchronous and asynchronous commits.
type Mode string

const (
	// ModeSync commits run the mutation and flush, without draining.
	ModeSync Mode = "sync"
	// ModeAsync commits capture and drain async work.
	ModeAsync Mode = "async"
)

// Report describes one finished commit.
type Report struct {
	Seq          int64           `json:"seq"`
	Label        string          `json:"label,omitempty"`
	Op           string          `json:"op"`
	Mode         Mode            `json:"mode"`
	Rounds       int             `json:"rounds"`
	Captured     int             `json:"captured"`
	Pending      int             `json:"pending"`
	BoundReached bool            `json:"bound_reached"`
	Stalled      bool            `json:"stalled"`
	Started      time.Duration   `json:"started"`
	Finished     time.Duration   `json:"finished"`
	Suppressed   []console.Entry `json:"suppressed,omitempty"`
	Err          string          `json:"error,omitempty"`
}

// Recorder persists commit reports. Recording errors are logged, never
// returned to the committer.
type Recorder interface {
	RecordCommit(ctx context.Context, r Report) error
}

// Resumer is implemented by recorders that already hold commits. LastSeq
// returns the highest seq recorded under label, or 0.
type Resumer interface {
	LastSeq(ctx context.Context, label string) (int64, error)
}

// Scheduler opens commit boundaries around tree mutations.
//
// Thread-safety model: a Scheduler is used from the goroutine that drives its
// loop. The open-commit flag is atomic so a re-entrant commit is refused
// rather than corrupting state.
type Scheduler struct {
	loop      *async.Loop
	console   *console.Console
	logger    *slog.Logger
	maxRounds int
	flushers  []func()
	recorder  Recorder
	clock     *Clock
	label     string

	open   atomic.Bool
	openOp atomic.Value // string

	mu   sync.Mutex
	last *Report
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLoop sets the event loop the scheduler captures and drains.
func WithLoop(l *async.Loop) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.loop = l
		}
	}
}

// WithConsole sets the console suppressed during commits.
func WithConsole(c *console.Console) Option {
	return func(s *Scheduler) {
		if c != nil {
			s.console = c
		}
	}
}

// WithLogger sets the scheduler's diagnostic logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMaxRounds sets the drain round budget.
//
// Default: 10 rounds (DefaultMaxRounds).
// Use WithMaxRounds(1) to test bound handling.
func WithMaxRounds(n int) Option {
	return func(s *Scheduler) {
		if n > 0 {
			s.maxRounds = n
		}
	}
}

// WithFlusher adds a hook run after the mutation and after each drain round,
// inside the boundary. Renderers use it to flush queued effects.
func WithFlusher(fn func()) Option {
	return func(s *Scheduler) {
		if fn != nil {
			s.flushers = append(s.flushers, fn)
		}
	}
}

// WithRecorder persists a Report for every commit.
func WithRecorder(r Recorder) Option {
	return func(s *Scheduler) {
		s.recorder = r
	}
}

// WithLabel tags every report, e.g. with a session ID.
func WithLabel(label string) Option {
	return func(s *Scheduler) {
		s.label = label
	}
}

// WithClock sets the commit sequence clock.
func WithClock(c *Clock) Option {
	return func(s *Scheduler) {
		if c != nil {
			s.clock = c
		}
	}
}

// NewScheduler creates a scheduler. Without options it drives async.Default()
// and suppresses console.Default().
func NewScheduler(opts ...Option) *Scheduler {
	s := &Scheduler{
		loop:      async.Default(),
		console:   console.Default(),
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		maxRounds: DefaultMaxRounds,
		clock:     NewClock(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Loop returns the scheduler's event loop.
func (s *Scheduler) Loop() *async.Loop { return s.loop }

// Console returns the console suppressed during commits.
func (s *Scheduler) Console() *console.Console { return s.console }

// MaxRounds returns the drain round budget.
func (s *Scheduler) MaxRounds() int { return s.maxRounds }

// Seq returns the seq of the latest commit.
func (s *Scheduler) Seq() int64 { return s.clock.Current() }

// Open reports whether a commit is currently running.
func (s *Scheduler) Open() bool { return s.open.Load() }

// LastReport returns the report of the most recent finished commit.
func (s *Scheduler) LastReport() (Report, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return Report{}, false
	}
	return *s.last, true
}

func (s *Scheduler) acquire(op string) error {
	if !s.open.CompareAndSwap(false, true) {
		open, _ := s.openOp.Load().(string)
		return &ReentrantCommitError{Op: op, Open: open}
	}
	s.openOp.Store(op)
	return nil
}

func (s *Scheduler) release() {
	s.openOp.Store("")
	s.open.Store(false)
}

// RunSync runs mutation inside a synchronous commit boundary.
func (s *Scheduler) RunSync(op string, mutation func() error) error {
	if err := s.acquire(op); err != nil {
		return err
	}
	defer s.release()

	report := s.begin(op, ModeSync)
	sup := s.console.Suppress()
	err := func() error {
		defer func() { report.Suppressed = sup.Restore() }()
		if err := mutation(); err != nil {
			return err
		}
		s.flush()
		return nil
	}()
	return s.finish(context.Background(), report, err)
}

// RunAsync runs mutation inside an asynchronous commit boundary and drains
// the async work it spawns. See the package documentation for the bound.
func (s *Scheduler) RunAsync(ctx context.Context, op string, mutation func() error) error {
	if err := s.acquire(op); err != nil {
		return err
	}
	defer s.release()

	report := s.begin(op, ModeAsync)
	queue := async.NewQueue()
	drain, err := async.Install(s.loop, queue)
	if err != nil {
		return fmt.Errorf("%s commit %q: %w", ModeAsync, op, err)
	}

	sup := s.console.Suppress()
	err = func() error {
		defer func() {
			drain()
			report.Suppressed = sup.Restore()
			report.Captured = queue.Total()
			report.Pending = queue.Prune()
		}()
		if err := mutation(); err != nil {
			return err
		}
		s.flush()
		return s.drainLoop(ctx, queue, report)
	}()
	return s.finish(ctx, report, err)
}

// drainLoop flushes rounds and awaits captured promises until the queue is
// quiescent, the loop stalls, or the round budget runs out.
func (s *Scheduler) drainLoop(ctx context.Context, queue *async.Queue, report *Report) error {
	budget := NewRoundBudget(s.maxRounds)
	if err := s.loop.RunMicrotasks(); err != nil {
		return err
	}
	for queue.Prune() > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		if budget.Exhausted() {
			report.BoundReached = true
			s.logger.Warn("drain round budget exhausted; remaining async work is not awaited",
				"op", report.Op,
				"max_rounds", budget.MaxRounds(),
				"pending", queue.Len(),
			)
			break
		}
		budget.Next()
		if _, err := s.loop.FlushRound(); err != nil {
			return err
		}
		settled := s.loop.SettleAll(queue.Snapshot())
		err := s.loop.Await(ctx, settled)
		report.Rounds = budget.Used()
		s.flush()
		if errors.Is(err, async.ErrLoopIdle) {
			report.Stalled = true
			s.logger.Warn("captured promises can never settle; loop is idle",
				"op", report.Op,
				"rounds", budget.Used(),
				"pending", queue.Prune(),
			)
			break
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Scheduler) flush() {
	for _, fn := range s.flushers {
		fn()
	}
}

func (s *Scheduler) begin(op string, mode Mode) *Report {
	return &Report{
		Seq:     s.clock.Next(),
		Label:   s.label,
		Op:      op,
		Mode:    mode,
		Started: s.loop.Now(),
	}
}

func (s *Scheduler) finish(ctx context.Context, report *Report, err error) error {
	report.Finished = s.loop.Now()
	if err != nil {
		report.Err = err.Error()
	}

	s.mu.Lock()
	s.last = report
	s.mu.Unlock()

	s.logger.Debug("commit finished",
		"seq", report.Seq,
		"op", report.Op,
		"mode", report.Mode,
		"rounds", report.Rounds,
		"captured", report.Captured,
		"suppressed", len(report.Suppressed),
	)

	if s.recorder != nil {
		if recErr := s.recorder.RecordCommit(ctx, *report); recErr != nil {
			s.logger.Error("failed to record commit", "seq", report.Seq, "op", report.Op, "error", recErr)
		}
	}

	if err != nil {
		return &CommitError{
			Op:         report.Op,
			Mode:       report.Mode,
			Err:        err,
			Suppressed: report.Suppressed,
		}
	}
	return nil
}
