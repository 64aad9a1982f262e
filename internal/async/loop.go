package async

import (
	"container/heap"
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// ErrLoopIdle is returned by Await when the awaited promise is still pending
// but the loop has no runnable work left, so it can never settle.
var ErrLoopIdle = errors.New("async: loop is idle with the awaited promise still pending")

// ErrReentrantDrive is returned when the loop is driven from inside one of its
// own callbacks.
var ErrReentrantDrive = errors.New("async: cannot drive the loop from within a loop callback")

// Task is a unit of work run by the loop.
type Task func()

// TimerID identifies a scheduled timer for ClearTimeout.
type TimerID uint64

type timer struct {
	id   TimerID
	when time.Duration
	seq  uint64
	task Task
	done *Promise // completion promise, set only while captured
}

// timerHeap is a min-heap of timers ordered by due time then scheduling order.
type timerHeap []*timer

func (h timerHeap) Len() int { return len(h) }
func (h timerHeap) Less(i, j int) bool {
	if h[i].when != h[j].when {
		return h[i].when < h[j].when
	}
	return h[i].seq < h[j].seq
}
func (h timerHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *timerHeap) Push(x any) { *h = append(*h, x.(*timer)) }

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return x
}

// macrotask is an immediate or tick callback plus its capture promise.
type macrotask struct {
	seq  uint64
	task Task
	done *Promise
}

// Loop is a deterministic single-threaded event loop with a virtual clock.
//
// Thread-safety: a Loop must be driven from one goroutine. The only state
// touched atomically is the capture interceptor, which enforces the
// single-owner invariant of Install.
type Loop struct {
	now     time.Duration
	seq     uint64
	driving bool

	ticks      []macrotask
	microtasks []Task
	immediates []macrotask
	timers     timerHeap
	timerIndex map[TimerID]*timer

	interceptor atomic.Pointer[Queue]

	logger *slog.Logger
}

// LoopOption configures a Loop.
type LoopOption func(*Loop)

// WithLogger sets the logger used for loop diagnostics.
func WithLogger(logger *slog.Logger) LoopOption {
	return func(l *Loop) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithStartTime sets the initial virtual clock reading.
func WithStartTime(t time.Duration) LoopOption {
	return func(l *Loop) {
		l.now = t
	}
}

// NewLoop creates an idle loop with its virtual clock at zero.
func NewLoop(opts ...LoopOption) *Loop {
	l := &Loop{
		microtasks: make([]Task, 0, 64),
		timerIndex: make(map[TimerID]*timer),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

var (
	defaultOnce sync.Once
	defaultLoop *Loop
)

// Default returns the process-wide loop used when a session is not given one.
func Default() *Loop {
	defaultOnce.Do(func() {
		defaultLoop = NewLoop()
	})
	return defaultLoop
}

// Now returns the virtual clock reading.
func (l *Loop) Now() time.Duration { return l.now }

// Pending returns the number of queued callbacks of every kind.
func (l *Loop) Pending() int {
	return len(l.ticks) + len(l.microtasks) + len(l.immediates) + len(l.timers)
}

func (l *Loop) nextSeq() uint64 {
	l.seq++
	return l.seq
}

// capture records p in the installed queue, if any.
func (l *Loop) capture(p *Promise) {
	if q := l.interceptor.Load(); q != nil {
		q.Add(p)
	}
}

// capturing reports whether an interceptor is installed.
func (l *Loop) capturing() bool {
	return l.interceptor.Load() != nil
}

func (l *Loop) newPromise(captured bool) *Promise {
	p := &Promise{loop: l, id: l.nextSeq()}
	if captured {
		l.capture(p)
	}
	return p
}

// NewPromise creates a promise and runs executor synchronously.
func (l *Loop) NewPromise(executor Executor) *Promise {
	p := l.newPromise(true)
	if executor != nil {
		executor(p.resolve, p.reject)
	}
	return p
}

// Resolve returns a promise fulfilled with value (or adopting it, if value is
// a *Promise).
func (l *Loop) Resolve(value any) *Promise {
	p := l.newPromise(true)
	p.resolve(value)
	return p
}

// Reject returns a promise rejected with err.
func (l *Loop) Reject(err error) *Promise {
	p := l.newPromise(true)
	p.reject(err)
	return p
}

// All fulfils with the values of ps in order once every one fulfils, and
// rejects with the first rejection.
func (l *Loop) All(ps ...*Promise) *Promise {
	return l.combine(true, ps, false)
}

// AllSettled fulfils once every promise in ps has settled. Its value is the
// input slice.
func (l *Loop) AllSettled(ps ...*Promise) *Promise {
	return l.combine(true, ps, true)
}

// SettleAll is AllSettled for loop bookkeeping: the returned promise and its
// reactions are never captured.
func (l *Loop) SettleAll(ps []*Promise) *Promise {
	return l.combine(false, ps, true)
}

func (l *Loop) combine(captured bool, ps []*Promise, settledOnly bool) *Promise {
	out := l.newPromise(captured)
	if len(ps) == 0 {
		if settledOnly {
			out.resolve([]*Promise{})
		} else {
			out.resolve([]any{})
		}
		return out
	}
	values := make([]any, len(ps))
	remaining := len(ps)
	for i, p := range ps {
		if p == nil {
			if !settledOnly {
				out.reject(ErrNilPromise)
				return out
			}
			remaining--
			continue
		}
		i := i
		l.observe(p, captured, func() {
			if p.state == Rejected && !settledOnly {
				out.reject(p.err)
				return
			}
			values[i] = p.value
			remaining--
			if remaining == 0 {
				if settledOnly {
					out.resolve(ps)
				} else {
					out.resolve(values)
				}
			}
		})
	}
	if remaining == 0 {
		out.resolve(ps)
	}
	return out
}

// Race settles like the first of ps to settle.
func (l *Loop) Race(ps ...*Promise) *Promise {
	out := l.newPromise(true)
	for _, p := range ps {
		if p == nil {
			continue
		}
		p := p
		l.observe(p, true, func() {
			if p.state == Rejected {
				out.reject(p.err)
				return
			}
			out.resolve(p.value)
		})
	}
	return out
}

// observe runs fn as a microtask once p settles.
func (l *Loop) observe(p *Promise, captured bool, fn func()) {
	child := l.newPromise(captured)
	r := reaction{
		onFulfilled: func(any) (any, error) { fn(); return nil, nil },
		onRejected:  func(error) (any, error) { fn(); return nil, nil },
		child:       child,
	}
	if p.state == Pending {
		p.reactions = append(p.reactions, r)
	} else {
		l.enqueueReaction(p, r)
	}
}

func (l *Loop) enqueueReaction(parent *Promise, r reaction) {
	l.microtasks = append(l.microtasks, func() { r.run(parent) })
}

// QueueMicrotask schedules fn to run at the next microtask checkpoint.
func (l *Loop) QueueMicrotask(fn Task) {
	if !l.capturing() {
		l.microtasks = append(l.microtasks, fn)
		return
	}
	done := l.newPromise(true)
	l.microtasks = append(l.microtasks, func() {
		defer done.resolve(nil)
		fn()
	})
}

// NextTick schedules fn ahead of every pending promise reaction.
func (l *Loop) NextTick(fn Task) {
	t := macrotask{seq: l.nextSeq(), task: fn}
	if l.capturing() {
		t.done = l.newPromise(true)
	}
	l.ticks = append(l.ticks, t)
}

// SetImmediate schedules fn as a macrotask that runs before any timer.
func (l *Loop) SetImmediate(fn Task) {
	t := macrotask{seq: l.nextSeq(), task: fn}
	if l.capturing() {
		t.done = l.newPromise(true)
	}
	l.immediates = append(l.immediates, t)
}

// SetTimeout schedules fn to run once the virtual clock reaches now+delay.
// Negative delays are treated as zero.
func (l *Loop) SetTimeout(fn Task, delay time.Duration) TimerID {
	if delay < 0 {
		delay = 0
	}
	seq := l.nextSeq()
	t := &timer{
		id:   TimerID(seq),
		when: l.now + delay,
		seq:  seq,
		task: fn,
	}
	if l.capturing() {
		t.done = l.newPromise(true)
	}
	heap.Push(&l.timers, t)
	l.timerIndex[t.id] = t
	return t.id
}

// ClearTimeout cancels a pending timer. A captured timer's completion promise
// is resolved so a cancelled timer never holds up a drain.
func (l *Loop) ClearTimeout(id TimerID) bool {
	t, ok := l.timerIndex[id]
	if !ok {
		return false
	}
	delete(l.timerIndex, id)
	for i, candidate := range l.timers {
		if candidate == t {
			heap.Remove(&l.timers, i)
			break
		}
	}
	if t.done != nil {
		t.done.resolve(nil)
	}
	return true
}

// RunMicrotasks drains next-tick callbacks and microtasks until both queues
// are empty. Ticks always run before promise reactions.
func (l *Loop) RunMicrotasks() error {
	if l.driving {
		return ErrReentrantDrive
	}
	l.driving = true
	defer func() { l.driving = false }()
	l.checkpoint()
	return nil
}

func (l *Loop) checkpoint() {
	for len(l.ticks) > 0 || len(l.microtasks) > 0 {
		for len(l.ticks) > 0 {
			t := l.ticks[0]
			l.ticks[0] = macrotask{}
			l.ticks = l.ticks[1:]
			l.runMacrotask(t)
		}
		if len(l.microtasks) > 0 {
			task := l.microtasks[0]
			l.microtasks[0] = nil
			l.microtasks = l.microtasks[1:]
			task()
		}
	}
}

func (l *Loop) runMacrotask(t macrotask) {
	if t.done != nil {
		defer t.done.resolve(nil)
	}
	t.task()
}

func (l *Loop) runTimer(t *timer) {
	delete(l.timerIndex, t.id)
	if t.when > l.now {
		l.now = t.when
	}
	if t.done != nil {
		defer t.done.resolve(nil)
	}
	t.task()
}

// FlushRound runs one round of scheduled work: every tick, immediate and
// timer pending when the round starts, in that order, advancing the virtual
// clock to each timer's due time. Work scheduled during the round waits for
// the next one. A microtask checkpoint follows every callback.
//
// Returns the number of callbacks run.
func (l *Loop) FlushRound() (int, error) {
	if l.driving {
		return 0, ErrReentrantDrive
	}
	l.driving = true
	defer func() { l.driving = false }()

	l.checkpoint()

	ran := 0
	immediates := l.immediates
	l.immediates = nil
	for _, t := range immediates {
		l.runMacrotask(t)
		l.checkpoint()
		ran++
	}

	due := make([]*timer, 0, len(l.timers))
	for len(l.timers) > 0 {
		due = append(due, heap.Pop(&l.timers).(*timer))
	}
	for _, t := range due {
		if _, live := l.timerIndex[t.id]; !live {
			continue
		}
		l.runTimer(t)
		l.checkpoint()
		ran++
	}
	l.logger.Debug("loop round flushed", "callbacks", ran, "now", l.now, "pending", l.Pending())
	return ran, nil
}

// step runs the next macrotask: an immediate if one is queued, otherwise the
// earliest timer. Returns false if there was nothing to run.
func (l *Loop) step() bool {
	if len(l.immediates) > 0 {
		t := l.immediates[0]
		l.immediates[0] = macrotask{}
		l.immediates = l.immediates[1:]
		l.runMacrotask(t)
		l.checkpoint()
		return true
	}
	if len(l.timers) > 0 {
		t := heap.Pop(&l.timers).(*timer)
		l.runTimer(t)
		l.checkpoint()
		return true
	}
	return false
}

// Await drives the loop until p settles. It returns ErrLoopIdle if the loop
// runs out of work first, and ctx.Err() if ctx is cancelled between steps.
// The settlement outcome itself is read from p.
func (l *Loop) Await(ctx context.Context, p *Promise) error {
	if l.driving {
		return ErrReentrantDrive
	}
	l.driving = true
	defer func() { l.driving = false }()

	l.checkpoint()
	for !p.Settled() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !l.step() {
			return ErrLoopIdle
		}
	}
	return nil
}
