package route

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/mirc/internal/mir"
)

// RootID is the fixed id of a manifest's root route.
const RootID = "root"

// Manifest diagnostic codes.
const (
	CodeManifestRootMissing = "ROUTE_MANIFEST_ROOT_MISSING"
	CodeManifestRootID      = "ROUTE_MANIFEST_ROOT_ID"
	CodeDuplicateRouteID    = "ROUTE_DUPLICATE_ID"
	CodeIndexWithSegment    = "ROUTE_INDEX_WITH_SEGMENT"
	CodeWildcardNotLast     = "ROUTE_WILDCARD_NOT_LAST"
)

// Manifest is a tree of routes with a single root.
type Manifest struct {
	Version string `json:"version" yaml:"version"`
	Root    *Node  `json:"root" yaml:"root"`
}

// Node is one route.
type Node struct {
	ID           string  `json:"id" yaml:"id"`
	Segment      string  `json:"segment,omitempty" yaml:"segment,omitempty"`
	Index        bool    `json:"index,omitempty" yaml:"index,omitempty"`
	LayoutDocID  string  `json:"layoutDocId,omitempty" yaml:"layoutDocId,omitempty"`
	PageDocID    string  `json:"pageDocId,omitempty" yaml:"pageDocId,omitempty"`
	OutletNodeID string  `json:"outletNodeId,omitempty" yaml:"outletNodeId,omitempty"`
	Children     []*Node `json:"children,omitempty" yaml:"children,omitempty"`
}

// Find returns the route with the given id, searching depth-first.
func (m *Manifest) Find(id string) (*Node, bool) {
	if m == nil {
		return nil, false
	}
	var found *Node
	walk(m.Root, func(n *Node) bool {
		if n.ID == id {
			found = n
			return false
		}
		return true
	})
	return found, found != nil
}

func walk(n *Node, fn func(*Node) bool) bool {
	if n == nil {
		return true
	}
	if !fn(n) {
		return false
	}
	for _, c := range n.Children {
		if !walk(c, fn) {
			return false
		}
	}
	return true
}

// Check reports structural problems in a manifest. Matching still works on
// a manifest with warnings.
func (m *Manifest) Check() []mir.Diagnostic {
	var diags []mir.Diagnostic
	add := func(sev mir.Severity, code, path, msg string) {
		diags = append(diags, mir.Diagnostic{
			Code: code, Severity: sev, Source: mir.SourceCanonicalIR, Message: msg, Path: path,
		})
	}

	if m == nil || m.Root == nil {
		add(mir.SeverityError, CodeManifestRootMissing, "root", "route manifest has no root")
		return diags
	}
	if m.Root.ID != RootID {
		add(mir.SeverityWarning, CodeManifestRootID, "root",
			fmt.Sprintf("root route id is %q, expected %q", m.Root.ID, RootID))
	}

	seen := map[string]bool{}
	var visit func(n *Node, path string)
	visit = func(n *Node, path string) {
		if n == nil {
			return
		}
		if seen[n.ID] {
			add(mir.SeverityWarning, CodeDuplicateRouteID, path, fmt.Sprintf("route id %q is used more than once", n.ID))
		}
		seen[n.ID] = true
		if n.Index && strings.Trim(n.Segment, "/") != "" {
			add(mir.SeverityWarning, CodeIndexWithSegment, path, fmt.Sprintf("index route %q also declares segment %q", n.ID, n.Segment))
		}
		parts := parsePattern(n.Segment)
		for i, p := range parts {
			if p.kind == partWildcard && i != len(parts)-1 {
				add(mir.SeverityWarning, CodeWildcardNotLast, path, fmt.Sprintf("wildcard in %q is not the last part", n.Segment))
			}
		}
		for i, c := range n.Children {
			visit(c, fmt.Sprintf("%s.children[%d]", path, i))
		}
	}
	visit(m.Root, "root")
	return diags
}

// DecodeManifest parses a manifest in JSON or YAML.
func DecodeManifest(data []byte, format mir.Format) (*Manifest, error) {
	var m Manifest
	switch format {
	case mir.FormatYAML:
		if err := yaml.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("parse yaml manifest: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("parse json manifest: %w", err)
		}
	}
	return &m, nil
}

// LoadManifest reads a manifest file; the extension picks the format.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest %s: %w", path, err)
	}
	m, err := DecodeManifest(data, mir.FormatFromPath(filepath.Base(path)))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}
