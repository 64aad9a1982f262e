package testutil

import (
	"sync"
	"time"
)

// StepClock is a virtual clock for tests that advances by a fixed step on
// every reading.
//
// Unlike async.Loop's clock, StepClock can be reset for test reuse, so the
// same scenario produces identical event timestamps on every run.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type StepClock struct {
	mu   sync.Mutex
	now  time.Duration
	step time.Duration
}

// NewStepClock creates a clock starting at 0. A step <= 0 means one
// millisecond.
//
// The first call to Now() returns step.
func NewStepClock(step time.Duration) *StepClock {
	if step <= 0 {
		step = time.Millisecond
	}
	return &StepClock{step: step}
}

// Now advances the clock by one step and returns the new time.
func (c *StepClock) Now() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now += c.step
	return c.now
}

// Current returns the current time without advancing.
func (c *StepClock) Current() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Reset rewinds the clock to 0.
func (c *StepClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = 0
}
