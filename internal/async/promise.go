package async

import (
	"errors"
	"fmt"
)

// State is the settlement state of a Promise.
type State int

const (
	// Pending means the promise has not settled yet.
	Pending State = iota
	// Fulfilled means the promise settled with a value.
	Fulfilled
	// Rejected means the promise settled with an error.
	Rejected
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Fulfilled:
		return "fulfilled"
	case Rejected:
		return "rejected"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// ResolveFunc settles a promise with a value. Passing a *Promise adopts its
// eventual state.
type ResolveFunc func(value any)

// RejectFunc settles a promise with an error.
type RejectFunc func(err error)

// Executor starts the work behind a promise. It runs synchronously inside
// NewPromise, exactly like a JavaScript promise executor.
type Executor func(resolve ResolveFunc, reject RejectFunc)

// Promise is a single-assignment result produced on a Loop.
//
// Promises are not safe for concurrent use; they belong to the loop's
// goroutine like every other piece of loop state.
type Promise struct {
	loop      *Loop
	id        uint64
	state     State
	value     any
	err       error
	reactions []reaction
}

type reaction struct {
	onFulfilled func(any) (any, error)
	onRejected  func(error) (any, error)
	child       *Promise
}

// ErrNilPromise is the rejection reason used when a nil promise is combined.
var ErrNilPromise = errors.New("async: nil promise")

// ID returns the loop-unique identifier of the promise.
func (p *Promise) ID() uint64 { return p.id }

// State returns the current settlement state.
func (p *Promise) State() State { return p.state }

// Settled reports whether the promise is fulfilled or rejected.
func (p *Promise) Settled() bool { return p.state != Pending }

// Value returns the fulfilment value (nil unless Fulfilled).
func (p *Promise) Value() any { return p.value }

// Err returns the rejection reason (nil unless Rejected).
func (p *Promise) Err() error { return p.err }

// Then registers a fulfilment reaction. Rejections pass through to the
// returned promise unchanged. A reaction returning a *Promise makes the
// returned promise adopt it.
func (p *Promise) Then(onFulfilled func(any) (any, error)) *Promise {
	return p.then(onFulfilled, nil)
}

// Catch registers a rejection reaction. Fulfilment values pass through.
func (p *Promise) Catch(onRejected func(error) (any, error)) *Promise {
	return p.then(nil, onRejected)
}

// Finally runs fn once the promise settles and forwards the original outcome.
func (p *Promise) Finally(fn func()) *Promise {
	return p.then(
		func(v any) (any, error) {
			fn()
			return v, nil
		},
		func(err error) (any, error) {
			fn()
			return nil, err
		},
	)
}

func (p *Promise) then(onFulfilled func(any) (any, error), onRejected func(error) (any, error)) *Promise {
	child := p.loop.newPromise(true)
	r := reaction{onFulfilled: onFulfilled, onRejected: onRejected, child: child}
	if p.state == Pending {
		p.reactions = append(p.reactions, r)
	} else {
		p.loop.enqueueReaction(p, r)
	}
	return child
}

// resolve settles the promise with value, adopting it if it is a *Promise.
func (p *Promise) resolve(value any) {
	if p.state != Pending {
		return
	}
	if other, ok := value.(*Promise); ok && other != nil {
		if other == p {
			p.reject(fmt.Errorf("async: promise %d resolved with itself", p.id))
			return
		}
		other.then(
			func(v any) (any, error) {
				p.resolve(v)
				return nil, nil
			},
			func(err error) (any, error) {
				p.reject(err)
				return nil, nil
			},
		)
		return
	}
	p.settle(Fulfilled, value, nil)
}

func (p *Promise) reject(err error) {
	if p.state != Pending {
		return
	}
	if err == nil {
		err = fmt.Errorf("async: promise %d rejected without a reason", p.id)
	}
	p.settle(Rejected, nil, err)
}

func (p *Promise) settle(state State, value any, err error) {
	p.state = state
	p.value = value
	p.err = err
	reactions := p.reactions
	p.reactions = nil
	for _, r := range reactions {
		p.loop.enqueueReaction(p, r)
	}
}

// run executes one reaction against the settled parent and settles the child.
func (r reaction) run(parent *Promise) {
	var (
		out any
		err error
	)
	switch parent.state {
	case Fulfilled:
		if r.onFulfilled == nil {
			out = parent.value
		} else {
			out, err = r.onFulfilled(parent.value)
		}
	case Rejected:
		if r.onRejected == nil {
			err = parent.err
		} else {
			out, err = r.onRejected(parent.err)
		}
	}
	if err != nil {
		r.child.reject(err)
		return
	}
	r.child.resolve(out)
}
