package harness

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/roach88/acttest/internal/tree"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
	Tree     string // Final tree for context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)
	if e.Tree != "" {
		fmt.Fprintf(&buf, "\nTree:\n")
		for _, line := range strings.Split(e.Tree, "\n") {
			fmt.Fprintf(&buf, "  %s\n", line)
		}
	}
	return buf.String()
}

// IsAssertionError reports whether err is an *AssertionError.
func IsAssertionError(err error) bool {
	var ae *AssertionError
	return errors.As(err, &ae)
}

// evaluate checks every assertion against the final tree and returns the
// failure messages.
func (h *Harness) evaluate(result *Result) []string {
	root, err := h.session.Root()
	if err != nil {
		return []string{fmt.Sprintf("assertions: %v", err)}
	}

	var failures []string
	for i, a := range h.scenario.Assertions {
		var err error
		switch a.Type {
		case AssertCount:
			err = assertCount(root, a, result.Tree)
		case AssertFindOne:
			err = assertFindOne(root, a, result.Tree)
		case AssertRecorded:
			err = assertRecorded(result.Recorded, a)
		case AssertText:
			err = assertText(root, a, result.Tree)
		case AssertSnapshotType:
			err = h.assertSnapshot(result.Tree, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			failures = append(failures, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return failures
}

// matches returns the nodes of type a.Target whose props deep-equal a.Props.
func matches(root *tree.Node, a Assertion) []*tree.Node {
	if len(a.Props) == 0 {
		return root.Find(a.Target)
	}
	var out []*tree.Node
	for _, n := range root.FindByProps(a.Props) {
		if n.Name() == a.Target {
			out = append(out, n)
		}
	}
	return out
}

func describe(a Assertion) string {
	if len(a.Props) == 0 {
		return a.Target
	}
	return fmt.Sprintf("%s with props %v", a.Target, a.Props)
}

func assertCount(root *tree.Node, a Assertion, snapshot string) error {
	got := len(matches(root, a))
	if got == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertCount,
		Expected: fmt.Sprintf("%d x %s", a.Count, describe(a)),
		Actual:   fmt.Sprintf("%d found", got),
		Tree:     snapshot,
	}
}

func assertFindOne(root *tree.Node, a Assertion, snapshot string) error {
	if len(a.Props) == 0 {
		if _, err := root.FindOne(a.Target); err != nil {
			return &AssertionError{Type: AssertFindOne, Expected: "exactly one " + a.Target, Actual: err.Error(), Tree: snapshot}
		}
		return nil
	}
	if got := len(matches(root, a)); got != 1 {
		return &AssertionError{
			Type:     AssertFindOne,
			Expected: "exactly one " + describe(a),
			Actual:   fmt.Sprintf("%d found", got),
			Tree:     snapshot,
		}
	}
	return nil
}

func assertRecorded(recorded []string, a Assertion) error {
	want := a.Labels
	if want == nil {
		want = []string{}
	}
	if len(recorded) == len(want) {
		same := true
		for i := range want {
			if recorded[i] != want[i] {
				same = false
				break
			}
		}
		if same {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertRecorded,
		Expected: fmt.Sprintf("%q", want),
		Actual:   fmt.Sprintf("%q", recorded),
	}
}

func assertText(root *tree.Node, a Assertion, snapshot string) error {
	found := matches(root, a)
	if a.Index >= len(found) {
		return &AssertionError{
			Type:     AssertText,
			Expected: fmt.Sprintf("%s[%d] with text %q", a.Target, a.Index, a.Text),
			Actual:   fmt.Sprintf("%d %s found", len(found), a.Target),
			Tree:     snapshot,
		}
	}
	if got := found[a.Index].Text(); got != a.Text {
		return &AssertionError{
			Type:     AssertText,
			Expected: fmt.Sprintf("%q", a.Text),
			Actual:   fmt.Sprintf("%q", got),
			Tree:     snapshot,
		}
	}
	return nil
}

// GoldenPath returns the snapshot file for name, relative to the scenario's
// directory, in the layout goldie uses: testdata/golden/<name>.golden.
func (s *Scenario) GoldenPath(name string) string {
	if name == "" {
		name = s.Name
	}
	return filepath.Join(s.dir, "testdata", "golden", name+".golden")
}

func (h *Harness) assertSnapshot(actual string, a Assertion) error {
	if a.Expect != "" {
		if strings.TrimRight(a.Expect, "\n") == actual {
			return nil
		}
		return &AssertionError{Type: AssertSnapshotType, Expected: a.Expect, Actual: actual}
	}

	path := h.scenario.GoldenPath(a.Golden)
	if h.opts.update {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("update snapshot: %w", err)
		}
		if err := os.WriteFile(path, []byte(actual), 0o644); err != nil {
			return fmt.Errorf("update snapshot: %w", err)
		}
		h.logger.Info("snapshot updated", "path", path)
		return nil
	}

	want, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("snapshot %s does not exist; run with --update to create it", path)
	}
	if err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}
	if string(want) != actual {
		return &AssertionError{Type: AssertSnapshotType, Expected: string(want), Actual: actual}
	}
	return nil
}
