package codegen

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/roach88/mirc/internal/adapter"
	"github.com/roach88/mirc/internal/ir"
	"github.com/roach88/mirc/internal/mir"
)

// BundleType selects the shape of the generated output.
type BundleType string

const (
	BundleProject   BundleType = "project"
	BundleComponent BundleType = "component"
	BundleNodeGraph BundleType = "nodegraph"
)

// ParseBundleType validates a bundle type name.
func ParseBundleType(s string) (BundleType, error) {
	switch t := BundleType(s); t {
	case BundleProject, BundleComponent, BundleNodeGraph:
		return t, nil
	}
	return "", fmt.Errorf("unknown bundle type %q (want project, component or nodegraph)", s)
}

// File is one generated file.
type File struct {
	Path     string `json:"path"`
	Language string `json:"language"`
	Content  string `json:"content"`
}

// Bundle is the compile-mode output.
type Bundle struct {
	ID            string           `json:"id"`
	Type          BundleType       `json:"type"`
	EntryFilePath string           `json:"entryFilePath"`
	Files         []File           `json:"files"`
	Diagnostics   []mir.Diagnostic `json:"diagnostics,omitempty"`
}

// File returns the file at path.
func (b *Bundle) File(path string) (File, bool) {
	for _, f := range b.Files {
		if f.Path == path {
			return f, true
		}
	}
	return File{}, false
}

// Paths returns the file paths in bundle order.
func (b *Bundle) Paths() []string {
	paths := make([]string, len(b.Files))
	for i, f := range b.Files {
		paths[i] = f.Path
	}
	return paths
}

// bundleNamespace scopes bundle ids.
var bundleNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/roach88/mirc/bundle"))

// Options configure a Generator.
type Options struct {
	Type BundleType
	// ComponentName overrides the name taken from metadata.name.
	ComponentName string
	Registry      *adapter.Registry
	Logger        *slog.Logger
}

// Generator compiles documents into bundles. It is safe for concurrent use.
type Generator struct {
	opts     Options
	registry *adapter.Registry
	logger   *slog.Logger
}

// New creates a generator. Zero options produce a project bundle using the
// standard React registry.
func New(opts Options) *Generator {
	registry := opts.Registry
	if registry == nil {
		registry = adapter.NewReactRegistry(nil)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Type == "" {
		opts.Type = BundleProject
	}
	return &Generator{opts: opts, registry: registry, logger: logger}
}

// Generate compiles doc. It never fails; problems are reported in the
// bundle's diagnostics.
func (g *Generator) Generate(doc *mir.Document) *Bundle {
	tree, diags := ir.Normalize(doc)
	name := g.componentName(doc)
	u := newUnit(g.registry, doc, tree)
	u.report(diags...)

	typ := g.opts.Type
	if _, err := ParseBundleType(string(typ)); err != nil {
		u.warn(CodeBundleTypeUnknown, "", err.Error(), "use project, component or nodegraph")
		typ = BundleProject
	}

	b := &Bundle{Type: typ}
	switch typ {
	case BundleComponent:
		path := "src/" + name + ".tsx"
		b.EntryFilePath = path
		b.Files = []File{{Path: path, Language: "tsx", Content: u.component(name)}}
	case BundleNodeGraph:
		b.EntryFilePath = "src/nodegraph.json"
		b.Files = []File{{Path: b.EntryFilePath, Language: "json", Content: nodeGraph(doc, tree, name)}}
	default:
		b.EntryFilePath = "src/main.tsx"
		b.Files = g.project(doc, u, name)
	}

	b.Diagnostics = u.diags
	b.ID = bundleID(tree, typ, name)

	g.logger.Debug("generated bundle",
		"type", typ,
		"component", name,
		"files", len(b.Files),
		"diagnostics", len(b.Diagnostics))
	return b
}

func (g *Generator) componentName(doc *mir.Document) string {
	if g.opts.ComponentName != "" {
		return ComponentName(g.opts.ComponentName)
	}
	if doc != nil {
		if s, ok := doc.Metadata["name"].(string); ok {
			return ComponentName(s)
		}
	}
	return "App"
}

func bundleID(tree *ir.Tree, typ BundleType, name string) string {
	fp, err := tree.Fingerprint()
	if err != nil {
		fp = ""
	}
	return uuid.NewSHA1(bundleNamespace, []byte(string(typ)+"\x00"+name+"\x00"+fp)).String()
}

func (g *Generator) project(doc *mir.Document, u *unit, name string) []File {
	u.externalize = true
	app := u.component(name)
	slices.SortFunc(u.styles, func(a, b File) int { return strings.Compare(a.Path, b.Path) })

	title := name
	if doc != nil {
		if s, ok := doc.Metadata["title"].(string); ok && s != "" {
			title = s
		}
	}

	files := []File{
		{Path: "package.json", Language: "json", Content: packageJSON(name, adapter.MergeImports(u.imports...))},
		{Path: "index.html", Language: "html", Content: indexHTML(title)},
		{Path: "src/main.tsx", Language: "tsx", Content: mainModule(u.styles)},
		{Path: "src/App.tsx", Language: "tsx", Content: app},
	}
	return append(files, u.styles...)
}

var packageVersions = map[string]string{
	"react":           "^18.3.1",
	"react-dom":       "^18.3.1",
	"antd":            "^5.21.0",
	"@mui/material":   "^6.1.0",
	"@emotion/react":  "^11.13.3",
	"@emotion/styled": "^11.13.0",
	"lucide-react":    "^0.452.0",
}

var devDependencies = map[string]string{
	"@types/react":         "^18.3.11",
	"@types/react-dom":     "^18.3.0",
	"@vitejs/plugin-react": "^4.3.2",
	"typescript":           "^5.6.2",
	"vite":                 "^5.4.8",
}

// npmPackage returns the package an import source belongs to, or "" for
// project-local sources.
func npmPackage(source string) string {
	if source == "" || strings.HasPrefix(source, ".") || strings.HasPrefix(source, "/") || strings.HasPrefix(source, "@/") {
		return ""
	}
	parts := strings.Split(source, "/")
	if strings.HasPrefix(source, "@") && len(parts) >= 2 {
		return parts[0] + "/" + parts[1]
	}
	return parts[0]
}

func packageJSON(name string, imports []adapter.Import) string {
	deps := map[string]string{"react": packageVersions["react"], "react-dom": packageVersions["react-dom"]}
	for _, imp := range imports {
		pkg := npmPackage(imp.Source)
		if pkg == "" {
			continue
		}
		v, ok := packageVersions[pkg]
		if !ok {
			v = "latest"
		}
		deps[pkg] = v
		if pkg == "@mui/material" {
			deps["@emotion/react"] = packageVersions["@emotion/react"]
			deps["@emotion/styled"] = packageVersions["@emotion/styled"]
		}
	}

	manifest := struct {
		Name            string            `json:"name"`
		Private         bool              `json:"private"`
		Version         string            `json:"version"`
		Type            string            `json:"type"`
		Scripts         map[string]string `json:"scripts"`
		Dependencies    map[string]string `json:"dependencies"`
		DevDependencies map[string]string `json:"devDependencies"`
	}{
		Name:    packageName(name),
		Private: true,
		Version: "0.0.0",
		Type:    "module",
		Scripts: map[string]string{
			"dev":     "vite",
			"build":   "tsc && vite build",
			"preview": "vite preview",
		},
		Dependencies:    deps,
		DevDependencies: devDependencies,
	}
	return indentJSON(manifest)
}

func indentJSON(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "{}\n"
	}
	return buf.String()
}

func indexHTML(title string) string {
	var w writer
	w.line(0, "<!doctype html>")
	w.line(0, `<html lang="en">`)
	w.line(1, "<head>")
	w.line(2, `<meta charset="UTF-8" />`)
	w.line(2, `<meta name="viewport" content="width=device-width, initial-scale=1.0" />`)
	w.line(2, "<title>"+html.EscapeString(title)+"</title>")
	w.line(1, "</head>")
	w.line(1, "<body>")
	w.line(2, `<div id="root"></div>`)
	w.line(2, `<script type="module" src="/src/main.tsx"></script>`)
	w.line(1, "</body>")
	w.line(0, "</html>")
	return w.b.String()
}

func mainModule(styles []File) string {
	var w writer
	w.line(0, "import React from 'react';")
	w.line(0, "import ReactDOM from 'react-dom/client';")
	w.line(0, "import App from './App';")
	for _, s := range styles {
		w.line(0, "import './"+strings.TrimPrefix(s.Path, "src/")+"';")
	}
	w.blank()
	w.line(0, "ReactDOM.createRoot(document.getElementById('root')!).render(")
	w.line(1, "<React.StrictMode>")
	w.line(2, "<App />")
	w.line(1, "</React.StrictMode>,")
	w.line(0, ");")
	return w.b.String()
}

func nodeGraph(doc *mir.Document, tree *ir.Tree, name string) string {
	fp, _ := tree.Fingerprint()
	graph := struct {
		Version     string         `json:"version"`
		Component   string         `json:"component"`
		Fingerprint string         `json:"fingerprint"`
		Root        map[string]any `json:"root"`
		Logic       *mir.Logic     `json:"logic,omitempty"`
	}{
		Version:     mir.CurrentVersion,
		Component:   name,
		Fingerprint: fp,
		Root:        tree.Map(),
	}
	if doc != nil {
		graph.Logic = doc.Logic
	}
	return indentJSON(graph)
}
