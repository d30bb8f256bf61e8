package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/roach88/mirc/internal/mir"
)

// DocOption customizes a document built by Doc.
type DocOption func(*mir.Document)

// Doc builds a current-version document around root.
func Doc(root *NodeBuilder, opts ...DocOption) *mir.Document {
	d := &mir.Document{Version: mir.CurrentVersion}
	if root != nil {
		d.UI.Root = root.Build()
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// WithName sets metadata.name.
func WithName(name string) DocOption {
	return func(d *mir.Document) {
		if d.Metadata == nil {
			d.Metadata = map[string]any{}
		}
		d.Metadata["name"] = name
	}
}

// WithParam declares a caller-supplied parameter. A nil def declares no
// default.
func WithParam(name, typ string, def any) DocOption {
	return func(d *mir.Document) {
		logic(d).Props[name] = mir.ParamDef{Type: typ, Default: def}
	}
}

// WithState declares a local state field.
func WithState(name, typ string, initial any) DocOption {
	return func(d *mir.Document) {
		logic(d).State[name] = mir.StateDef{Type: typ, Initial: initial}
	}
}

func logic(d *mir.Document) *mir.Logic {
	if d.Logic == nil {
		d.Logic = &mir.Logic{}
	}
	if d.Logic.Props == nil {
		d.Logic.Props = map[string]mir.ParamDef{}
	}
	if d.Logic.State == nil {
		d.Logic.State = map[string]mir.StateDef{}
	}
	return d.Logic
}

// NodeBuilder builds a component node.
type NodeBuilder struct {
	n *mir.ComponentNode
}

// Node starts a node with an id and type.
func Node(id, typ string) *NodeBuilder {
	return &NodeBuilder{n: &mir.ComponentNode{ID: id, Type: typ}}
}

// Text sets the node text: a literal or a reference.
func (b *NodeBuilder) Text(v any) *NodeBuilder {
	b.n.Text = v
	return b
}

// Prop sets one prop.
func (b *NodeBuilder) Prop(key string, v any) *NodeBuilder {
	if b.n.Props == nil {
		b.n.Props = map[string]any{}
	}
	b.n.Props[key] = v
	return b
}

// Style sets one style property.
func (b *NodeBuilder) Style(key string, v any) *NodeBuilder {
	if b.n.Style == nil {
		b.n.Style = map[string]any{}
	}
	b.n.Style[key] = v
	return b
}

// On declares an event keyed by its trigger.
func (b *NodeBuilder) On(trigger, action string, params map[string]any) *NodeBuilder {
	if b.n.Events == nil {
		b.n.Events = map[string]any{}
	}
	ev := map[string]any{"trigger": trigger}
	if action != "" {
		ev["action"] = action
	}
	if params != nil {
		ev["params"] = params
	}
	b.n.Events[trigger] = ev
	return b
}

// Data sets the node's data scope.
func (b *NodeBuilder) Data(cfg mir.DataConfig) *NodeBuilder {
	b.n.Data = &cfg
	return b
}

// List makes the node a list.
func (b *NodeBuilder) List(cfg mir.ListConfig) *NodeBuilder {
	b.n.List = &cfg
	return b
}

// Children appends child nodes.
func (b *NodeBuilder) Children(children ...*NodeBuilder) *NodeBuilder {
	for _, c := range children {
		b.n.Children = append(b.n.Children, c.Build())
	}
	return b
}

// Build returns the node.
func (b *NodeBuilder) Build() *mir.ComponentNode {
	return b.n
}

// Param references a caller-supplied parameter.
func Param(path string) map[string]any { return ref(mir.RefParam, path) }

// State references local state.
func State(path string) map[string]any { return ref(mir.RefState, path) }

// DataRef references the current data scope.
func DataRef(path string) map[string]any { return ref(mir.RefData, path) }

// Item references the current list item.
func Item(path string) map[string]any { return ref(mir.RefItem, path) }

// Index references the current list index.
func Index() map[string]any { return ref(mir.RefIndex, "") }

func ref(kind mir.RefKind, path string) map[string]any {
	return mir.Ref{Kind: kind, Path: path}.Literal()
}

// WriteDoc writes doc as JSON under dir and returns its path.
func WriteDoc(t testing.TB, dir, name string, doc *mir.Document) string {
	t.Helper()
	data, err := mir.MarshalJSON(doc)
	if err != nil {
		t.Fatalf("marshal document: %v", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write document: %v", err)
	}
	return path
}
