package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderCommand(t *testing.T) {
	path := writeFile(t, t.TempDir(), "greet.yaml", passingScenario)

	out, err := execute(t, "render", path, "--width", "80")
	require.NoError(t, err)
	assert.Equal(t, "<div>\n  <button onClick={[Function]}>\n    Hi\n  </button>\n  <p>hello</p>\n</div>\n", out)
}

func TestRenderCommand_NarrowWidthBreaksProps(t *testing.T) {
	path := writeFile(t, t.TempDir(), "greet.yaml", passingScenario)

	out, err := execute(t, "render", path, "--width", "10")
	require.NoError(t, err)
	assert.Contains(t, out, "<button\n    onClick={[Function]}\n  >")
}

func TestRenderCommand_JSON(t *testing.T) {
	path := writeFile(t, t.TempDir(), "greet.yaml", passingScenario)

	out, err := execute(t, "render", path, "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Status string       `json:"status"`
		Data   RenderResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "greet", resp.Data.Name)
	assert.Contains(t, resp.Data.Tree, "<p>hello</p>")
}

func TestRenderCommand_LoadError(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bad.yaml", "name: x\n")

	_, err := execute(t, "render", path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "failed to load scenario")
}
