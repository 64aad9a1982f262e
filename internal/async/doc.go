// Package async implements the deterministic event loop that components under
// test use to spawn asynchronous work, and the capture queue the act scheduler
// uses to wait that work out.
//
// ARCHITECTURE:
//
// Single-Threaded Loop:
// A Loop owns a virtual clock and four queues. Nothing runs until the loop is
// driven (RunMicrotasks, FlushRound, Await), so a test observes every side
// effect in a reproducible order:
//   - next-tick callbacks (drained before promise reactions)
//   - microtasks (promise reactions, QueueMicrotask)
//   - immediates (SetImmediate), one macrotask each
//   - timers (SetTimeout), ordered by due time then scheduling order
//
// Virtual Time:
// Timers never consult the wall clock. Running a timer advances the loop's
// clock to the timer's due time, so a 5s timeout completes instantly and always
// in the same position relative to other work.
//
// Capture:
// Install places an interceptor on the loop. While installed, every promise,
// timer, immediate, tick and microtask created through the loop is recorded in
// a Queue (identity set). Work created before Install or after the DrainFn is
// called is invisible. Only one interceptor may be installed on a loop at a
// time; a second Install fails with ReentrantCaptureError.
package async
