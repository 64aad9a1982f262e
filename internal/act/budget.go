package act

// RoundBudget counts drain rounds against a fixed limit.
//
// Each RunAsync call gets its own budget. The budget is what guarantees a
// drain terminates even when the code under test schedules new async work
// from every callback.
type RoundBudget struct {
	maxRounds int
	current   int
}

// NewRoundBudget creates a budget allowing maxRounds rounds.
// Values below 1 are raised to 1.
func NewRoundBudget(maxRounds int) *RoundBudget {
	if maxRounds < 1 {
		maxRounds = 1
	}
	return &RoundBudget{maxRounds: maxRounds}
}

// Next claims one round. Returns false once the budget is spent.
func (b *RoundBudget) Next() bool {
	if b.current >= b.maxRounds {
		return false
	}
	b.current++
	return true
}

// Used returns the number of rounds claimed.
func (b *RoundBudget) Used() int {
	return b.current
}

// MaxRounds returns the limit.
func (b *RoundBudget) MaxRounds() int {
	return b.maxRounds
}

// Exhausted reports whether every round has been claimed.
func (b *RoundBudget) Exhausted() bool {
	return b.current >= b.maxRounds
}
