package cli

import (
	"archive/tar"
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"

	"github.com/roach88/mirc/internal/mir"
	"github.com/roach88/mirc/internal/testutil"
)

// execute runs the root command with args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append([]string{"--no-color"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

// envelope mirrors CLIResponse with a raw payload.
type envelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	Error  *CLIError       `json:"error"`
}

func decodeEnvelope(t *testing.T, out string, data any) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal([]byte(out), &env), "output: %s", out)
	if data != nil && len(env.Data) > 0 {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env
}

func cardDoc() *mir.Document {
	return testutil.Doc(
		testutil.Node("root", "div").Children(
			testutil.Node("title", "h1").Text(testutil.Param("title")),
			testutil.Node("rows", "ul").
				List(mir.ListConfig{Source: testutil.Param("items"), KeyBy: "id"}).
				Children(testutil.Node("row", "li").Text(testutil.Item("name"))),
		),
		testutil.WithName("Card"),
		testutil.WithParam("title", "string", "Hello"),
		testutil.WithParam("items", "array", nil),
	)
}

// writeFile writes content under dir and returns its path.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// archiveConfig writes a config whose archive lives in dir.
func archiveConfig(t *testing.T, dir string) string {
	t.Helper()
	return writeFile(t, dir, "mirc.yaml", "archive:\n  path: archive/bundles.db\n")
}

const usersManifest = `{
  "version": "1",
  "root": {
    "id": "root",
    "layoutDocId": "shell",
    "outletNodeId": "outlet",
    "children": [
      {"id": "users", "segment": "users/:id", "pageDocId": "user"},
      {"id": "home", "index": true, "pageDocId": "home"}
    ]
  }
}`

// readTarXZ returns the files of a bundle archive.
func readTarXZ(t *testing.T, path string) map[string]string {
	t.Helper()
	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	xzr, err := xz.NewReader(file)
	require.NoError(t, err)

	files := map[string]string{}
	tr := tar.NewReader(xzr)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			return files
		}
		require.NoError(t, err)
		data, err := io.ReadAll(tr)
		require.NoError(t, err)
		files[header.Name] = string(data)
	}
}
