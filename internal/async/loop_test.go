package async

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoop_ThenChainsValues(t *testing.T) {
	l := NewLoop()
	var got any

	l.Resolve(1).
		Then(func(v any) (any, error) { return v.(int) + 1, nil }).
		Then(func(v any) (any, error) { return l.Resolve(v.(int) * 10), nil }).
		Then(func(v any) (any, error) {
			got = v
			return nil, nil
		})

	assert.Nil(t, got, "reactions must not run before a checkpoint")
	require.NoError(t, l.RunMicrotasks())
	assert.Equal(t, 20, got)
}

func TestLoop_CatchRecoversRejection(t *testing.T) {
	l := NewLoop()
	boom := errors.New("boom")

	p := l.Reject(boom).
		Then(func(v any) (any, error) { return "unreachable", nil }).
		Catch(func(err error) (any, error) { return "recovered: " + err.Error(), nil })

	require.NoError(t, l.RunMicrotasks())
	assert.Equal(t, Fulfilled, p.State())
	assert.Equal(t, "recovered: boom", p.Value())
}

func TestLoop_FinallyForwardsOutcome(t *testing.T) {
	l := NewLoop()
	boom := errors.New("boom")
	calls := 0

	p := l.Reject(boom).Finally(func() { calls++ })

	require.NoError(t, l.RunMicrotasks())
	assert.Equal(t, 1, calls)
	assert.Equal(t, Rejected, p.State())
	assert.ErrorIs(t, p.Err(), boom)
}

func TestLoop_TicksRunBeforeMicrotasks(t *testing.T) {
	l := NewLoop()
	var order []string

	l.QueueMicrotask(func() { order = append(order, "micro") })
	l.NextTick(func() { order = append(order, "tick") })

	require.NoError(t, l.RunMicrotasks())
	assert.Equal(t, []string{"tick", "micro"}, order)
}

func TestLoop_TimersRunInDueOrder(t *testing.T) {
	l := NewLoop()
	var order []string

	l.SetTimeout(func() { order = append(order, "b") }, 20*time.Millisecond)
	l.SetTimeout(func() { order = append(order, "a") }, 10*time.Millisecond)
	l.SetTimeout(func() { order = append(order, "c") }, 20*time.Millisecond)

	ran, err := l.FlushRound()
	require.NoError(t, err)
	assert.Equal(t, 3, ran)
	assert.Equal(t, []string{"a", "b", "c"}, order)
	assert.Equal(t, 20*time.Millisecond, l.Now())
}

func TestLoop_FlushRoundLeavesNewWorkForNextRound(t *testing.T) {
	l := NewLoop()
	var order []string

	l.SetTimeout(func() {
		order = append(order, "outer")
		l.SetTimeout(func() { order = append(order, "inner") }, 0)
	}, 0)

	ran, err := l.FlushRound()
	require.NoError(t, err)
	assert.Equal(t, 1, ran)
	assert.Equal(t, []string{"outer"}, order)

	ran, err = l.FlushRound()
	require.NoError(t, err)
	assert.Equal(t, 1, ran)
	assert.Equal(t, []string{"outer", "inner"}, order)
}

func TestLoop_ImmediatesRunBeforeTimers(t *testing.T) {
	l := NewLoop()
	var order []string

	l.SetTimeout(func() { order = append(order, "timer") }, 0)
	l.SetImmediate(func() { order = append(order, "immediate") })

	_, err := l.FlushRound()
	require.NoError(t, err)
	assert.Equal(t, []string{"immediate", "timer"}, order)
}

func TestLoop_ClearTimeout(t *testing.T) {
	l := NewLoop()
	fired := false

	id := l.SetTimeout(func() { fired = true }, time.Second)
	assert.True(t, l.ClearTimeout(id))
	assert.False(t, l.ClearTimeout(id), "second clear is a no-op")

	ran, err := l.FlushRound()
	require.NoError(t, err)
	assert.Zero(t, ran)
	assert.False(t, fired)
}

func TestLoop_AwaitAdvancesVirtualClock(t *testing.T) {
	l := NewLoop()
	p := l.NewPromise(func(resolve ResolveFunc, _ RejectFunc) {
		l.SetTimeout(func() { resolve("done") }, 5*time.Second)
	})

	require.NoError(t, l.Await(context.Background(), p))
	assert.Equal(t, Fulfilled, p.State())
	assert.Equal(t, "done", p.Value())
	assert.Equal(t, 5*time.Second, l.Now())
}

func TestLoop_AwaitIdle(t *testing.T) {
	l := NewLoop()
	never := l.NewPromise(nil)

	err := l.Await(context.Background(), never)
	assert.ErrorIs(t, err, ErrLoopIdle)
	assert.Equal(t, Pending, never.State())
}

func TestLoop_AwaitHonoursContext(t *testing.T) {
	l := NewLoop()
	p := l.NewPromise(func(resolve ResolveFunc, _ RejectFunc) {
		l.SetTimeout(func() { resolve(nil) }, time.Second)
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := l.Await(ctx, p)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoop_DriveFromCallbackIsRejected(t *testing.T) {
	l := NewLoop()
	var inner error

	l.SetImmediate(func() { inner = l.RunMicrotasks() })
	_, err := l.FlushRound()
	require.NoError(t, err)
	assert.ErrorIs(t, inner, ErrReentrantDrive)
}

func TestLoop_All(t *testing.T) {
	l := NewLoop()
	a := l.Resolve(1)
	b := l.NewPromise(func(resolve ResolveFunc, _ RejectFunc) {
		l.SetImmediate(func() { resolve(2) })
	})

	all := l.All(a, b)
	require.NoError(t, l.Await(context.Background(), all))
	assert.Equal(t, []any{1, 2}, all.Value())
}

func TestLoop_AllRejectsWithFirstError(t *testing.T) {
	l := NewLoop()
	boom := errors.New("boom")

	all := l.All(l.Reject(boom), l.NewPromise(nil))
	require.NoError(t, l.Await(context.Background(), all))
	assert.Equal(t, Rejected, all.State())
	assert.ErrorIs(t, all.Err(), boom)
}

func TestLoop_AllSettledWaitsForRejections(t *testing.T) {
	l := NewLoop()
	boom := errors.New("boom")
	rejected := l.NewPromise(func(_ ResolveFunc, reject RejectFunc) {
		l.SetTimeout(func() { reject(boom) }, time.Millisecond)
	})

	settled := l.AllSettled(l.Resolve("ok"), rejected)
	require.NoError(t, l.Await(context.Background(), settled))
	assert.Equal(t, Fulfilled, settled.State())
	assert.Equal(t, Rejected, rejected.State())
}

func TestLoop_Race(t *testing.T) {
	l := NewLoop()
	slow := l.NewPromise(func(resolve ResolveFunc, _ RejectFunc) {
		l.SetTimeout(func() { resolve("slow") }, time.Second)
	})
	fast := l.NewPromise(func(resolve ResolveFunc, _ RejectFunc) {
		l.SetTimeout(func() { resolve("fast") }, time.Millisecond)
	})

	race := l.Race(slow, fast)
	require.NoError(t, l.Await(context.Background(), race))
	assert.Equal(t, "fast", race.Value())
}

func TestLoop_ResolveWithItselfRejects(t *testing.T) {
	l := NewLoop()
	var resolveSelf ResolveFunc
	p := l.NewPromise(func(resolve ResolveFunc, _ RejectFunc) { resolveSelf = resolve })

	resolveSelf(p)
	assert.Equal(t, Rejected, p.State())
}
