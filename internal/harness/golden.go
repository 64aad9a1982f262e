package harness

import (
	"context"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// RunWithGolden runs a scenario and compares its final tree against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./... -update
//
// Step and assertion failures are reported through t.
func RunWithGolden(t *testing.T, scenario *Scenario, opts ...Option) *Result {
	t.Helper()

	result, err := Run(context.Background(), scenario, opts...)
	if err != nil {
		t.Fatalf("run scenario %q: %v", scenario.Name, err)
	}
	for _, msg := range result.Errors {
		t.Error(msg)
	}
	AssertSnapshot(t, scenario.Name, result)
	return result
}

// AssertSnapshot compares an existing result's tree against a golden file
// without re-running the scenario.
func AssertSnapshot(t *testing.T, name string, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, []byte(result.Tree))
}
