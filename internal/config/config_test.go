package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mirc/internal/adapter"
	"github.com/roach88/mirc/internal/codegen"
	"github.com/roach88/mirc/internal/ir"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.False(t, cfg.Render.Preview)
	assert.Equal(t, 12, cfg.Render.MaxDepth)
	assert.Equal(t, "project", cfg.Codegen.BundleType)
	assert.Equal(t, "127.0.0.1:7420", cfg.Server.Addr)
	assert.Equal(t, ".mirc/archive.db", cfg.Archive.Path)
	assert.Empty(t, cfg.File)
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeFile(t, dir, "mirc.yaml", `
render:
  preview: true
  require_selection: true
  max_depth: 4
codegen:
  bundle_type: component
  component_name: CounterCard
adapters:
  project:
    - tag: CounterCard
      source: ./components/CounterCard
    - tag: Chart
      source: recharts
      kind: named
      imported: LineChart
server:
  addr: ":9000"
`)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.True(t, cfg.Render.Preview)
	assert.True(t, cfg.Render.RequireSelection)
	assert.Equal(t, 4, cfg.Render.MaxDepth)
	assert.Equal(t, "component", cfg.Codegen.BundleType)
	assert.Equal(t, "CounterCard", cfg.Codegen.ComponentName)
	assert.Equal(t, ":9000", cfg.Server.Addr)
	require.Len(t, cfg.Adapters.Project, 2)
	assert.Equal(t, "CounterCard", cfg.Adapters.Project[0].Tag)
	assert.NotEmpty(t, cfg.File)
}

func TestLoad_ExplicitPathMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_EnvOverride(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("MIRC_SERVER_ADDR", "0.0.0.0:8080")
	t.Setenv("MIRC_RENDER_PREVIEW", "true")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr)
	assert.True(t, cfg.Render.Preview)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errMsg  string
	}{
		{
			name:    "bundle type",
			content: "codegen:\n  bundle_type: zip\n",
			errMsg:  "codegen.bundle_type",
		},
		{
			name:    "max depth",
			content: "render:\n  max_depth: 0\n",
			errMsg:  "render.max_depth",
		},
		{
			name:    "adapter without tag",
			content: "adapters:\n  project:\n    - element: div\n",
			errMsg:  "tag is required",
		},
		{
			name:    "adapter duplicate tag",
			content: "adapters:\n  project:\n    - {tag: A, element: div}\n    - {tag: A, element: span}\n",
			errMsg:  "duplicate tag",
		},
		{
			name:    "adapter without target",
			content: "adapters:\n  project:\n    - tag: A\n",
			errMsg:  "element or source is required",
		},
		{
			name:    "adapter import kind",
			content: "adapters:\n  project:\n    - {tag: A, source: a, kind: star}\n",
			errMsg:  "unknown import kind",
		},
		{
			name:    "icon provider without manifest",
			content: "icons:\n  providers:\n    - id: lucide\n",
			errMsg:  "manifest is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "mirc.yaml", tt.content)

			_, err := Load(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestProjectGroup(t *testing.T) {
	cfg := Default()
	cfg.Adapters.Project = []AdapterEntry{
		{Tag: "CounterCard", Source: "./components/CounterCard"},
		{Tag: "Chart", Source: "recharts", Kind: "named", Imported: "LineChart"},
		{Tag: "Shell", Element: "section"},
	}

	reg := adapter.NewReactRegistry(cfg.ProjectGroup())

	res := reg.Resolve(&ir.Node{ID: "c", Type: "CounterCard"})
	assert.Equal(t, "CounterCard", res.Element)
	assert.Equal(t, []adapter.Import{{Source: "./components/CounterCard", Kind: adapter.ImportDefault, Local: "CounterCard"}}, res.Imports)

	res = reg.Resolve(&ir.Node{ID: "chart", Type: "Chart"})
	assert.Equal(t, "LineChart", res.Element)
	assert.Equal(t, []adapter.Import{{Source: "recharts", Kind: adapter.ImportNamed, Imported: "LineChart"}}, res.Imports)

	res = reg.Resolve(&ir.Node{ID: "s", Type: "Shell"})
	assert.Equal(t, "section", res.Element)
	assert.Empty(t, res.Imports)
	assert.Empty(t, res.Diagnostics)
}

func TestIconRegistry_LoadsManifestOnEnsure(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "lucide.yaml", `
source: lucide-react
icons:
  arrow-right: ArrowRight
  heart: Heart
  heart/filled: HeartFilled
  heart/outline: HeartOutline
`)
	cfg := Default()
	cfg.Dir = dir
	cfg.Icons.Providers = []IconProvider{{ID: "lucide", Manifest: "lucide.yaml", Variants: []string{"filled"}}}

	reg := cfg.IconRegistry(nil)
	state, ok := reg.State("lucide")
	require.True(t, ok)
	assert.Equal(t, adapter.StateIdle, state)

	require.NoError(t, reg.Ensure(context.Background(), "lucide"))

	res := reg.Resolve(adapter.IconRef{Provider: "lucide", Name: "heart", Variant: "filled"})
	assert.Equal(t, "HeartFilled", res.Element)
	assert.Equal(t, "lucide-react", res.Imports[0].Source)

	// outline is filtered out, so the plain name is used.
	res = reg.Resolve(adapter.IconRef{Provider: "lucide", Name: "heart", Variant: "outline"})
	assert.Equal(t, "Heart", res.Element)
}

func TestIconRegistry_ManifestErrors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "nosource.json", `{"icons": {"a": "A"}}`)
	cfg := Default()
	cfg.Dir = dir
	cfg.Icons.Providers = []IconProvider{
		{ID: "missing", Manifest: "missing.json"},
		{ID: "nosource", Manifest: "nosource.json"},
	}
	reg := cfg.IconRegistry(nil)

	assert.Error(t, reg.Ensure(context.Background(), "missing"))
	assert.Error(t, reg.Ensure(context.Background(), "nosource"))

	state, _ := reg.State("nosource")
	assert.Equal(t, adapter.StateError, state)
}

func TestCodegenOptions(t *testing.T) {
	cfg := Default()
	cfg.Codegen = CodegenConfig{BundleType: "nodegraph", ComponentName: "Card"}

	opts := cfg.CodegenOptions(nil)
	assert.Equal(t, codegen.BundleNodeGraph, opts.Type)
	assert.Equal(t, "Card", opts.ComponentName)
}

func TestRenderOptions(t *testing.T) {
	cfg := Default()
	cfg.Render = RenderConfig{Preview: true, RequireSelection: true, MaxDepth: 3}

	opts := cfg.RenderOptions(nil)
	assert.True(t, opts.Preview)
	assert.True(t, opts.RequireSelection)
	assert.Equal(t, 3, opts.MaxDepth)
}

func TestResolve(t *testing.T) {
	cfg := &Config{Dir: "/proj"}
	assert.Equal(t, filepath.Join("/proj", "a/b.db"), cfg.Resolve("a/b.db"))
	assert.Equal(t, "/abs/x.db", cfg.Resolve("/abs/x.db"))
	assert.Equal(t, "", cfg.Resolve(""))
}
