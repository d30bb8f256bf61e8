package adapter

import (
	"fmt"
	"strings"
	"sync"

	"github.com/roach88/mirc/internal/ir"
	"github.com/roach88/mirc/internal/mir"
)

// Diagnostic codes.
const (
	CodeUnknownComponent = "REACT_ADAPTER_UNKNOWN_COMPONENT"
)

// PassthroughElement is the element used for anything that cannot be mapped.
const PassthroughElement = "div"

// ImportKind is how a binding is imported from its module.
type ImportKind string

const (
	ImportDefault   ImportKind = "default"
	ImportNamed     ImportKind = "named"
	ImportNamespace ImportKind = "namespace"
)

// Import describes one binding the element needs.
type Import struct {
	Source   string     `json:"source"`
	Kind     ImportKind `json:"kind"`
	Imported string     `json:"imported,omitempty"`
	Local    string     `json:"local,omitempty"`
}

// LocalName is the identifier the binding is visible as.
func (i Import) LocalName() string {
	if i.Local != "" {
		return i.Local
	}
	return i.Imported
}

// Resolution is the outcome of resolving one node.
type Resolution struct {
	Element     string           `json:"element"`
	Imports     []Import         `json:"imports,omitempty"`
	Diagnostics []mir.Diagnostic `json:"diagnostics,omitempty"`
	// Deferred marks a placeholder standing in for content that is still
	// loading. Callers re-resolve once notified.
	Deferred bool `json:"deferred,omitempty"`
}

// Descriptor describes a registered tag.
type Descriptor struct {
	Tag     string
	Element string
	Import  *Import
}

// Resolution returns the static resolution for the descriptor.
func (d Descriptor) Resolution() Resolution {
	res := Resolution{Element: d.Element}
	if d.Import != nil {
		res.Imports = []Import{*d.Import}
	}
	return res
}

// Adapter resolves a node for a registered descriptor. ok=false means the
// adapter declines and the next group is consulted.
type Adapter interface {
	Resolve(n *ir.Node, d Descriptor) (res Resolution, ok bool)
}

// AdapterFunc adapts a function to Adapter.
type AdapterFunc func(n *ir.Node, d Descriptor) (Resolution, bool)

func (f AdapterFunc) Resolve(n *ir.Node, d Descriptor) (Resolution, bool) { return f(n, d) }

// Static always returns the descriptor's resolution.
var Static Adapter = AdapterFunc(func(_ *ir.Node, d Descriptor) (Resolution, bool) {
	return d.Resolution(), true
})

type entry struct {
	desc    Descriptor
	adapter Adapter
}

// Group is a named set of tag mappings.
//
// A group with a Prefix owns every tag starting with it: a prefixed tag
// that is not registered resolves to the group's fallback with its
// UnknownCode, instead of falling through to later groups.
type Group struct {
	Name        string
	Prefix      string
	UnknownCode string
	Fallback    string

	mu      sync.RWMutex
	entries map[string]entry
}

// NewGroup creates an empty group.
func NewGroup(name string) *Group {
	return &Group{Name: name, entries: make(map[string]entry)}
}

// Register adds or replaces a tag mapping using the static adapter.
func (g *Group) Register(d Descriptor) *Group {
	return g.RegisterAdapter(d, Static)
}

// RegisterAdapter adds or replaces a tag mapping.
func (g *Group) RegisterAdapter(d Descriptor, a Adapter) *Group {
	if a == nil {
		a = Static
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.entries[d.Tag] = entry{desc: d, adapter: a}
	return g
}

// Lookup returns the descriptor registered for tag.
func (g *Group) Lookup(tag string) (Descriptor, bool) {
	e, ok := g.lookup(tag)
	return e.desc, ok
}

func (g *Group) lookup(tag string) (entry, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	e, ok := g.entries[tag]
	return e, ok
}

// Owns reports whether the group claims tag by prefix.
func (g *Group) Owns(tag string) bool {
	return g.Prefix != "" && strings.HasPrefix(tag, g.Prefix)
}

// Len returns the number of registered tags.
func (g *Group) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.entries)
}

// Registry resolves nodes through its groups in order.
type Registry struct {
	groups []*Group
	icons  *IconRegistry
}

// NewRegistry builds a registry; earlier groups take priority.
func NewRegistry(groups ...*Group) *Registry {
	r := &Registry{}
	for _, g := range groups {
		if g != nil {
			r.groups = append(r.groups, g)
		}
	}
	return r
}

// WithIcons attaches an icon provider registry for Icon nodes.
func (r *Registry) WithIcons(icons *IconRegistry) *Registry {
	r.icons = icons
	return r
}

// Icons returns the attached icon registry, if any.
func (r *Registry) Icons() *IconRegistry {
	return r.icons
}

// Groups returns the group names in priority order.
func (r *Registry) Groups() []string {
	names := make([]string, len(r.groups))
	for i, g := range r.groups {
		names[i] = g.Name
	}
	return names
}

// Resolve selects the element for a canonical node.
func (r *Registry) Resolve(n *ir.Node) Resolution {
	if n == nil {
		return Resolution{Element: PassthroughElement}
	}
	if n.Type == IconTag && r.icons != nil {
		ref, diag := IconRefFromProps(n.Props, n.Path)
		if diag != nil {
			return Resolution{Element: IconPlaceholder, Diagnostics: []mir.Diagnostic{*diag}}
		}
		res := r.icons.Resolve(ref)
		for i := range res.Diagnostics {
			res.Diagnostics[i].Path = n.Path
		}
		return res
	}

	for _, g := range r.groups {
		e, ok := g.lookup(n.Type)
		if !ok {
			continue
		}
		if res, ok := e.adapter.Resolve(n, e.desc); ok {
			return res
		}
	}

	for _, g := range r.groups {
		if g.Owns(n.Type) {
			return unknown(n, g.UnknownCode, g.Fallback, fmt.Sprintf("%s has no component %q", g.Name, n.Type))
		}
	}
	return unknown(n, CodeUnknownComponent, PassthroughElement, fmt.Sprintf("no adapter maps node type %q", n.Type))
}

func unknown(n *ir.Node, code, fallback, msg string) Resolution {
	if code == "" {
		code = CodeUnknownComponent
	}
	if fallback == "" {
		fallback = PassthroughElement
	}
	return Resolution{
		Element: fallback,
		Diagnostics: []mir.Diagnostic{{
			Code:       code,
			Severity:   mir.SeverityWarning,
			Source:     mir.SourceAdapter,
			Message:    msg,
			Path:       n.Path,
			Suggestion: fmt.Sprintf("register %q under adapters.project in mirc.yaml", n.Type),
		}},
	}
}
