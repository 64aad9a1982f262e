// Package act implements the commit boundary scheduler.
//
// Every tree mutation (mount, update, unmount, event dispatch) runs inside a
// commit boundary so that its synchronous effects are flushed before control
// returns to the test.
//
// RunSync executes the mutation immediately. Framework warnings and errors
// written to the console during the mutation are captured rather than printed
// and come back in the commit Report (and in CommitError when the mutation
// fails).
//
// RunAsync additionally installs an async capture on the loop, runs the
// mutation, then drains: while captured work is still pending and the round
// budget allows, it flushes one round of ticks, immediates and timers and
// awaits every captured promise. The capture is uninstalled and the console
// restored on every exit path, including panics.
//
// BOUNDED DRAINING:
// The round budget (DefaultMaxRounds, WithMaxRounds) is the only
// cancellation mechanism besides ctx. Async chains that keep spawning new
// work for more rounds than the budget are not awaited; the Report marks
// BoundReached and a warning is logged. A test that needs more rounds than
// the default is doing too much inside one commit.
//
// At most one commit may be open per Scheduler. Opening a second one from
// inside a mutation returns ReentrantCommitError.
package act
