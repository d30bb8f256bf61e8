package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mirc/internal/codegen"
)

func sampleBundle() *codegen.Bundle {
	return &codegen.Bundle{
		ID:            "b1",
		Type:          codegen.BundleProject,
		EntryFilePath: "src/main.tsx",
		Files: []codegen.File{
			{Path: "package.json", Language: "json", Content: "{}\n"},
			{Path: "src/main.tsx", Language: "tsx", Content: "import App from './App';\n"},
			{Path: "src/styles/theme.css", Language: "css", Content: "body {}\n"},
		},
	}
}

func TestWriteBundle_Directory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	require.NoError(t, writeBundle(sampleBundle(), dir))

	data, err := os.ReadFile(filepath.Join(dir, "src", "styles", "theme.css"))
	require.NoError(t, err)
	assert.Equal(t, "body {}\n", string(data))
}

func TestWriteBundle_TarXZ(t *testing.T) {
	for _, name := range []string{"bundle.tar.xz", "bundle.txz"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			require.NoError(t, writeBundle(sampleBundle(), path))

			files := readTarXZ(t, path)
			assert.Equal(t, map[string]string{
				"package.json":         "{}\n",
				"src/main.tsx":         "import App from './App';\n",
				"src/styles/theme.css": "body {}\n",
			}, files)
		})
	}
}

func TestWriteBundle_RejectsEscapingPaths(t *testing.T) {
	for _, p := range []string{"../evil.js", "/etc/passwd", "src/../../x"} {
		t.Run(p, func(t *testing.T) {
			b := sampleBundle()
			b.Files = append(b.Files, codegen.File{Path: p, Content: "x"})
			err := writeBundle(b, filepath.Join(t.TempDir(), "out"))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "escapes the output root")
		})
	}
}

func TestIsArchivePath(t *testing.T) {
	assert.True(t, isArchivePath("dist/app.tar.xz"))
	assert.True(t, isArchivePath("app.txz"))
	assert.False(t, isArchivePath("dist"))
	assert.False(t, isArchivePath("app.tar.gz"))
}
