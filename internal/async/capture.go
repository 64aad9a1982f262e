package async

import (
	"sync"
)

// Queue is the identity set of promises captured during an instrumented
// window. Adding the same promise twice is a no-op.
//
// Members are kept in capture order so drains are reproducible.
type Queue struct {
	mu      sync.Mutex
	members []*Promise
	index   map[*Promise]struct{}
	total   int
}

// NewQueue creates an empty capture queue.
func NewQueue() *Queue {
	return &Queue{index: make(map[*Promise]struct{})}
}

// Add records p. Returns false if p was already a member.
func (q *Queue) Add(p *Promise) bool {
	if p == nil {
		return false
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, ok := q.index[p]; ok {
		return false
	}
	q.index[p] = struct{}{}
	q.members = append(q.members, p)
	q.total++
	return true
}

// Len returns the number of current members.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.members)
}

// Total returns how many distinct promises were ever captured, including
// pruned ones.
func (q *Queue) Total() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.total
}

// Snapshot returns the current members in capture order.
func (q *Queue) Snapshot() []*Promise {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]*Promise, len(q.members))
	copy(out, q.members)
	return out
}

// Prune drops settled members and returns how many remain.
func (q *Queue) Prune() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	kept := q.members[:0]
	for _, p := range q.members {
		if p.Settled() {
			delete(q.index, p)
			continue
		}
		kept = append(kept, p)
	}
	for i := len(kept); i < len(q.members); i++ {
		q.members[i] = nil
	}
	q.members = kept
	return len(q.members)
}

// DrainFn uninstalls the capture it was returned from and returns a promise
// that fulfils once every promise captured so far has settled.
type DrainFn func() *Promise

// Install starts capturing the async work created on l into q.
//
// Only one capture may be installed on a loop at a time: installing while
// another capture is active fails with *ReentrantCaptureError. Calling the
// returned DrainFn more than once uninstalls only once; every call returns a
// fresh settle-all over the queue's current snapshot.
func Install(l *Loop, q *Queue) (DrainFn, error) {
	for !l.interceptor.CompareAndSwap(nil, q) {
		// The active capture may be released between the swap and the load.
		if active := l.interceptor.Load(); active != nil {
			return nil, &ReentrantCaptureError{Captured: active.Total()}
		}
	}
	l.logger.Debug("async capture installed")

	var once sync.Once
	return func() *Promise {
		once.Do(func() {
			l.interceptor.CompareAndSwap(q, nil)
			l.logger.Debug("async capture uninstalled", "captured", q.Total())
		})
		return l.SettleAll(q.Snapshot())
	}, nil
}

// Capturing reports whether a capture is installed on l.
func (l *Loop) Capturing() bool {
	return l.capturing()
}
