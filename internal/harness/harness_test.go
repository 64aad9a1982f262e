package harness

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/acttest/internal/act"
	"github.com/roach88/acttest/internal/journal"
)

const toggleTree = `<Form>
  <button label="Save" onClick={[Function]}>
    Save
  </button>
  <p>saved</p>
</Form>`

func TestLoadScenario_YAMLAndCUEAgree(t *testing.T) {
	fromYAML, err := LoadScenario("testdata/scenarios/toggle.yaml")
	require.NoError(t, err)
	fromCUE, err := LoadScenario("testdata/scenarios/toggle.cue")
	require.NoError(t, err)

	assert.Equal(t, "toggle", fromYAML.Name)
	assert.Equal(t, filepath.Join("testdata", "scenarios"), fromYAML.Dir())
	require.Len(t, fromYAML.Steps, 3)
	assert.Equal(t, StepDispatchAsync, fromYAML.Steps[1].Name())
	assert.Equal(t, fromYAML, fromCUE)
}

func TestLoadDir(t *testing.T) {
	scenarios, err := LoadDir("testdata/scenarios")
	require.NoError(t, err)
	require.Len(t, scenarios, 2)
	assert.Equal(t, "toggle", scenarios[0].Name)
}

func TestParseScenario_Validation(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "missing name",
			yaml:    "tree: {type: div}\nassertions: [{type: snapshot}]",
			wantErr: "name is required",
		},
		{
			name:    "unknown field",
			yaml:    "name: x\ntree: {type: div}\nassertion: []",
			wantErr: "field assertion not found",
		},
		{
			name:    "missing tree",
			yaml:    "name: x\nassertions: [{type: snapshot}]",
			wantErr: "tree.type is required",
		},
		{
			name:    "no assertions",
			yaml:    "name: x\ntree: {type: div}",
			wantErr: "assertions list is required",
		},
		{
			name:    "two step kinds",
			yaml:    "name: x\ntree: {type: div}\nsteps: [{dispatch: {target: a, prop: onClick}, advance: 5}]\nassertions: [{type: snapshot}]",
			wantErr: "steps[0]: exactly one of",
		},
		{
			name:    "dispatch without prop",
			yaml:    "name: x\ntree: {type: div}\nsteps: [{dispatch: {target: a}}]\nassertions: [{type: snapshot}]",
			wantErr: "target and prop are required",
		},
		{
			name:    "unknown assertion",
			yaml:    "name: x\ntree: {type: div}\nassertions: [{type: trace_order}]",
			wantErr: `unknown assertion type "trace_order"`,
		},
		{
			name:    "bad handler",
			yaml:    "name: x\ntree: {type: div, props: {onClick: {record: a, wait: 3}}}\nassertions: [{type: snapshot}]",
			wantErr: "tree.props.onClick",
		},
		{
			name:    "text fixture with props",
			yaml:    "name: x\ntree: {type: div, children: [{text: a, props: {x: 1}}]}\nassertions: [{type: snapshot}]",
			wantErr: "tree.children[0]: text fixtures",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRun_Toggle(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/toggle.yaml")
	require.NoError(t, err)

	result, err := Run(context.Background(), scenario)
	require.NoError(t, err)

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, "test-session-default", result.SessionID)
	assert.Equal(t, []string{"save", "save"}, result.Recorded)
	assert.Equal(t, toggleTree, result.Tree)

	require.Len(t, result.Commits, 4)
	ops := make([]string, 0, len(result.Commits))
	for _, c := range result.Commits {
		ops = append(ops, c.Op)
	}
	assert.Equal(t, []string{"mount", "dispatch onClick", "dispatch onClick", "update"}, ops)
	assert.Equal(t, act.ModeAsync, result.Commits[2].Mode)
	assert.Zero(t, result.Suppressed())
}

func TestRunWithGolden(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/toggle.cue")
	require.NoError(t, err)

	result := RunWithGolden(t, scenario)
	assert.True(t, result.Pass)
}

func TestRun_DelayedHandlerDrainedByAsyncDispatch(t *testing.T) {
	scenario, err := ParseScenario([]byte(`
name: delayed
tree:
  type: button
  props:
    onClick: {record: late, delay: 50, prevent_default: true}
steps:
  - dispatch_async: {target: button, prop: onClick}
assertions:
  - {type: recorded, labels: [late]}
`))
	require.NoError(t, err)

	result, err := Run(context.Background(), scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)

	require.Len(t, result.Commits, 2)
	dispatch := result.Commits[1]
	assert.Equal(t, 50*time.Millisecond, dispatch.Finished)
	assert.Equal(t, 1, dispatch.Captured)
	assert.Zero(t, dispatch.Pending)
}

func TestRun_AdvanceRunsPendingTimers(t *testing.T) {
	scenario, err := ParseScenario([]byte(`
name: advance
tree:
  type: button
  props:
    onClick: {record: later, delay: 20}
steps:
  - dispatch: {target: button, prop: onClick}
  - advance: 30
assertions:
  - {type: recorded, labels: [later]}
`))
	require.NoError(t, err)

	result, err := Run(context.Background(), scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, "act", result.Commits[2].Op)
}

func TestRun_AssertionFailures(t *testing.T) {
	scenario, err := ParseScenario([]byte(`
name: failing
tree:
  type: ul
  children:
    - {type: li, text: a}
    - {type: li, text: b}
assertions:
  - {type: count, target: li, count: 3}
  - {type: find_one, target: li}
  - {type: recorded, labels: [x]}
  - {type: text, target: li, index: 1, text: c}
  - {type: text, target: li, index: 5, text: c}
  - {type: snapshot, expect: "<ul />"}
`))
	require.NoError(t, err)

	result, err := Run(context.Background(), scenario)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 6)
	assert.Contains(t, result.Errors[0], "assertions[0]: Assertion failed: count")
	assert.Contains(t, result.Errors[0], "2 found")
	assert.Contains(t, result.Errors[1], `expected 1 node of type "li", found 2`)
	assert.Contains(t, result.Errors[2], `Actual: []`)
	assert.Contains(t, result.Errors[3], `Actual: "b"`)
	assert.Contains(t, result.Errors[4], "2 li found")
	assert.Contains(t, result.Errors[5], "Assertion failed: snapshot")
}

func TestRun_StepFailureStopsRemainingSteps(t *testing.T) {
	scenario, err := ParseScenario([]byte(`
name: broken-step
tree:
  type: div
  children:
    - {type: p, text: idle}
steps:
  - dispatch: {target: button, prop: onClick}
  - update_text: {target: p, text: changed}
assertions:
  - {type: text, target: p, text: idle}
`))
	require.NoError(t, err)

	result, err := Run(context.Background(), scenario)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "steps[0] (dispatch): button[0] not found, tree has 0", result.Errors[0])
	assert.Len(t, result.Commits, 1, "only the mount committed")
}

func TestRun_StrictComponentTree(t *testing.T) {
	scenario, err := ParseScenario([]byte(`
name: strict
strict: true
tree:
  type: Panel
  props: {title: Hi}
  children:
    - type: Fragment
      children:
        - {type: span, key: a, text: one}
        - {type: span, key: b, text: two}
assertions:
  - {type: find_one, target: Panel}
  - {type: count, target: span, count: 2}
  - type: snapshot
    expect: |
      <Panel title="Hi">
        <span>one</span>
        <span>two</span>
      </Panel>
`))
	require.NoError(t, err)

	result, err := Run(context.Background(), scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_RecordsToJournal(t *testing.T) {
	j, err := journal.Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	defer j.Close()

	scenario, err := LoadScenario("testdata/scenarios/toggle.yaml")
	require.NoError(t, err)
	scenario.SessionID = "journal-run"

	result, err := Run(context.Background(), scenario, WithJournal(j))
	require.NoError(t, err)

	commits, err := j.Commits(context.Background(), "journal-run")
	require.NoError(t, err)
	// The journal also holds the unmount that closes the run.
	require.Len(t, commits, len(result.Commits)+1)
	assert.Equal(t, "unmount", commits[len(commits)-1].Op)

	again, err := Run(context.Background(), scenario, WithJournal(j))
	require.NoError(t, err)
	assert.Equal(t, int64(len(commits)+1), again.Commits[0].Seq)
	all, err := j.Commits(context.Background(), "journal-run")
	require.NoError(t, err)
	assert.Len(t, all, 2*len(commits))
}

func TestRun_SnapshotFiles(t *testing.T) {
	scenario, err := ParseScenario([]byte(`
name: snap
tree: {type: p, text: hello}
assertions:
  - {type: snapshot, golden: para}
`))
	require.NoError(t, err)
	scenario.dir = t.TempDir()
	path := scenario.GoldenPath("para")

	result, err := Run(context.Background(), scenario)
	require.NoError(t, err)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "run with --update")

	result, err = Run(context.Background(), scenario, WithUpdate(true))
	require.NoError(t, err)
	assert.True(t, result.Pass)
	written, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "<p>hello</p>", string(written))

	result, err = Run(context.Background(), scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass)

	require.NoError(t, os.WriteFile(path, []byte("<p>bye</p>"), 0o644))
	result, err = Run(context.Background(), scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
}

func TestRender(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/toggle.yaml")
	require.NoError(t, err)

	out, err := Render(context.Background(), scenario)
	require.NoError(t, err)
	assert.Contains(t, out, "<p>idle</p>")
}

func TestReplaceText(t *testing.T) {
	root := Fixture{Type: "div", Children: []Fixture{
		{Type: "p", Text: "a"},
		{Type: "p", Children: []Fixture{{Text: "b"}, {Type: "em", Text: "keep"}}},
	}}

	updated, err := replaceText(root, "p", 1, "c")
	require.NoError(t, err)
	assert.Equal(t, "a", updated.Children[0].Text)
	assert.Equal(t, "c", updated.Children[1].Text)
	assert.Equal(t, []Fixture{{Type: "em", Text: "keep"}}, updated.Children[1].Children)
	assert.Equal(t, "b", root.Children[1].Children[0].Text, "input is not modified")

	_, err = replaceText(root, "p", 2, "x")
	assert.EqualError(t, err, "update_text: p[2] not found, tree has 2")
}
