package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServe_StopsWhenContextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cmd := NewRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--no-color", "serve", "--addr", "127.0.0.1:0", "--no-archive"})

	require.NoError(t, cmd.ExecuteContext(ctx))
	assert.Contains(t, out.String(), "Serving preview on http://127.0.0.1:0")
}

func TestServe_ArchiveAndManifest(t *testing.T) {
	dir := t.TempDir()
	cfg := archiveConfig(t, dir)
	manifest := writeFile(t, dir, "routes.json", usersManifest)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cmd := NewRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--config", cfg, "--format", "json", "serve", "--addr", "127.0.0.1:0", "--manifest", manifest})

	require.NoError(t, cmd.ExecuteContext(ctx))
	assert.FileExists(t, dir+"/archive/bundles.db")

	env := decodeEnvelope(t, out.String(), nil)
	assert.Equal(t, "ok", env.Status)
}

func TestServe_MissingManifest(t *testing.T) {
	_, err := execute(t, "serve", "--no-archive", "--manifest", "/nonexistent/routes.json")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
