package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const passingScenario = `name: greet
tree:
  type: div
  children:
    - type: button
      props:
        onClick: {record: hi}
      text: Hi
    - {type: p, text: hello}
steps:
  - dispatch: {target: button, prop: onClick}
assertions:
  - {type: recorded, labels: [hi]}
  - {type: text, target: p, text: hello}
  - {type: snapshot}
`

const failingScenario = `name: broken
tree:
  type: ul
  children:
    - {type: li, text: a}
assertions:
  - {type: count, target: li, count: 2}
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}
