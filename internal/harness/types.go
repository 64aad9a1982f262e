package harness

import "github.com/roach88/acttest/internal/act"

// Result is the outcome of running one scenario.
type Result struct {
	// Name is the scenario name.
	Name string `json:"name"`

	// Pass is true when every step ran and every assertion held.
	Pass bool `json:"pass"`

	// SessionID labels the session's commit reports.
	SessionID string `json:"session_id"`

	// Recorded lists the labels handler props recorded, in call order.
	Recorded []string `json:"recorded"`

	// Commits holds one report per commit: the mount, then each step.
	Commits []act.Report `json:"commits"`

	// Tree is the debug serialization of the final tree.
	Tree string `json:"tree"`

	// Errors contains step and assertion failures.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult(name string) *Result {
	return &Result{
		Name:     name,
		Pass:     true,
		Recorded: []string{},
		Commits:  []act.Report{},
		Errors:   []string{},
	}
}

// AddError adds a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Suppressed counts the console entries suppressed across all commits.
func (r *Result) Suppressed() int {
	n := 0
	for _, c := range r.Commits {
		n += len(c.Suppressed)
	}
	return n
}
