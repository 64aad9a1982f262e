package act

import "sync/atomic"

// Clock hands out commit sequence numbers. A session's reports are numbered
// 1, 2, 3, ... in commit order, so journal rows sort by seq alone.
type Clock struct {
	seq atomic.Int64
}

// NewClock returns a clock whose first commit is seq 1.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt returns a clock whose first commit is seq last+1. Sessions that
// continue in an existing journal start from the last recorded seq.
func NewClockAt(last int64) *Clock {
	c := &Clock{}
	c.seq.Store(last)
	return c
}

// Next stamps a new commit.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current is the seq of the latest commit, or the starting point when none
// has run yet.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
