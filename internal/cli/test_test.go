package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTestCommandMissingArgs(t *testing.T) {
	cmd := NewTestCommand(&RootOptions{Format: "text"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestTestCommandNonExistentDir(t *testing.T) {
	_, err := execute(t, "test", "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scenarios directory not found")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTestCommandEmptyDir(t *testing.T) {
	out, err := execute(t, "test", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found")
}

func TestTestCommandEmptyDirJSON(t *testing.T) {
	out, err := execute(t, "test", t.TempDir(), "--format", "json")
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestTestCommand_UpdateThenPass(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "greet.yaml", passingScenario)

	out, err := execute(t, "test", dir)
	require.Error(t, err, "snapshot file does not exist yet")
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ greet")
	assert.Contains(t, out, "run with --update")

	out, err = execute(t, "test", dir, "--update")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ greet")
	assert.FileExists(t, filepath.Join(dir, "testdata", "golden", "greet.golden"))

	out, err = execute(t, "test", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Test Summary: 1 passed, 0 failed, 1 total")
	assert.Contains(t, out, "✓ All scenarios passed")
}

func TestTestCommand_FailureAndFilter(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "greet.yaml", passingScenario)
	writeFile(t, dir, "nested/broken.yaml", failingScenario)

	out, err := execute(t, "test", dir, "--update")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ broken")
	assert.Contains(t, out, "Assertion failed: count")
	assert.Contains(t, out, "1 passed, 1 failed, 2 total")

	out, err = execute(t, "test", dir, "--filter", "gr*")
	require.NoError(t, err)
	assert.Contains(t, out, "1 total")
}

func TestTestCommand_JSONFailure(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "broken.yaml", failingScenario)

	out, err := execute(t, "test", dir, "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
		Error  *CLIError  `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "E_TEST_FAILED", resp.Error.Code)
	require.Len(t, resp.Data.Scenarios, 1)
	assert.False(t, resp.Data.Scenarios[0].Pass)
	assert.Equal(t, 1, resp.Data.Scenarios[0].Commits)
}

func TestTestCommand_LoadErrorIsScenarioFailure(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "typo.yaml", "name: typo\ntree: {type: div}\nassertion: []\n")

	out, err := execute(t, "test", dir)
	require.Error(t, err)
	assert.Contains(t, out, "failed to load scenario")
}

func TestFindScenarioFiles_SkipsTestdata(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.yaml", "")
	writeFile(t, dir, "b.cue", "")
	writeFile(t, dir, "notes.md", "")
	writeFile(t, dir, "testdata/fixture.yaml", "")

	files, err := findScenarioFiles(dir, "")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.yaml"), filepath.Join(dir, "b.cue")}, files)

	_, err = findScenarioFiles(dir, "[")
	assert.Error(t, err)
}

func TestTestCommand_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "scenarios/greet.yaml", passingScenario)
	cfg := writeFile(t, dir, "acttest.yaml", "strict: true\nmax_rounds: 3\n")

	_, err := execute(t, "test", filepath.Join(dir, "scenarios"), "--update", "--config", cfg)
	require.NoError(t, err)

	golden, err := os.ReadFile(filepath.Join(dir, "scenarios", "testdata", "golden", "greet.golden"))
	require.NoError(t, err)
	assert.NotContains(t, string(golden), "StrictMode", "pass-through nodes stay hidden")
}
