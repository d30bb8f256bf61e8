package ir

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/roach88/mirc/internal/mir"
)

// DefaultContainerType is used when a node declares no type.
const DefaultContainerType = "div"

// RootPath is the structural path of the document root.
const RootPath = "ui.root"

// Canonicalization diagnostic codes.
const (
	CodeNodeMissingID   = "CANONICAL_NODE_MISSING_ID"
	CodeNodeMissingType = "CANONICAL_NODE_MISSING_TYPE"
	CodeEventInvalid    = "CANONICAL_EVENT_INVALID"
	CodeDuplicateID     = "CANONICAL_NODE_DUPLICATE_ID"
	CodeRootMissing     = "CANONICAL_ROOT_MISSING"
	CodeNodeNull        = "CANONICAL_NODE_NULL"
)

var nonIdentChars = regexp.MustCompile(`[^A-Za-z0-9_]`)

// FallbackID derives a deterministic id from a structural path.
//
// Example: FallbackID("ui.root.children[2]") == "ui_root_children_2_"
func FallbackID(path string) string {
	return nonIdentChars.ReplaceAllString(path, "_")
}

// ChildPath returns the structural path of the i-th child of parent.
func ChildPath(parent string, i int) string {
	return fmt.Sprintf("%s.children[%d]", parent, i)
}

// Normalize canonicalizes a document. It never fails: a nil document or a
// missing root yields an empty container root plus an error diagnostic.
func Normalize(doc *mir.Document) (*Tree, []mir.Diagnostic) {
	b := &builder{
		tree: &Tree{index: make(map[string]*Node)},
	}

	b.diags = append(b.diags, doc.DecodeDiagnostics()...)

	var root *mir.ComponentNode
	if doc != nil {
		root = doc.UI.Root
	}
	if root == nil {
		b.warn(mir.SeverityError, CodeRootMissing, RootPath,
			"document has no ui.root node",
			"add a root node under ui.root")
		root = &mir.ComponentNode{ID: "root", Type: DefaultContainerType}
	}

	b.tree.Root = b.node(root, RootPath)
	return b.tree, b.diags
}

type builder struct {
	tree  *Tree
	diags []mir.Diagnostic
}

func (b *builder) warn(sev mir.Severity, code, path, msg, suggestion string) {
	b.diags = append(b.diags, mir.Diagnostic{
		Code:       code,
		Severity:   sev,
		Source:     mir.SourceCanonicalIR,
		Message:    msg,
		Path:       path,
		Suggestion: suggestion,
	})
}

func (b *builder) node(src *mir.ComponentNode, path string) *Node {
	id := src.ID
	if strings.TrimSpace(id) == "" {
		id = FallbackID(path)
		b.warn(mir.SeverityWarning, CodeNodeMissingID, path,
			fmt.Sprintf("node has no id; using fallback %q", id),
			"give every node a stable, unique id")
	}

	typ := src.Type
	if strings.TrimSpace(typ) == "" {
		typ = DefaultContainerType
		b.warn(mir.SeverityWarning, CodeNodeMissingType, path,
			fmt.Sprintf("node %q has no type; defaulting to %q", id, DefaultContainerType),
			"set the node type explicitly")
	}

	n := &Node{
		ID:    id,
		Type:  typ,
		Path:  path,
		Text:  mir.CloneValue(src.Text),
		Style: mir.CloneMap(src.Style),
		Props: mir.CloneMap(src.Props),
		Data:  cloneData(src.Data),
		List:  cloneList(src.List),
	}

	if _, dup := b.tree.index[id]; dup {
		b.warn(mir.SeverityWarning, CodeDuplicateID, path,
			fmt.Sprintf("node id %q is already used; lookups resolve to the first occurrence", id),
			"rename one of the nodes")
	} else {
		b.tree.index[id] = n
		b.tree.order = append(b.tree.order, id)
	}

	n.Events = b.events(src.Events, path)

	for i, child := range src.Children {
		childPath := ChildPath(path, i)
		if child == nil {
			b.warn(mir.SeverityWarning, CodeNodeNull, childPath,
				"child entry is null and was skipped", "remove the empty child entry")
			continue
		}
		n.Children = append(n.Children, b.node(child, childPath))
	}

	return n
}

func (b *builder) events(raw map[string]any, path string) map[string]Event {
	if len(raw) == 0 {
		return nil
	}
	events := make(map[string]Event, len(raw))
	for _, key := range sortedKeys(raw) {
		ev, ok := normalizeEvent(key, raw[key])
		if !ok {
			b.warn(mir.SeverityWarning, CodeEventInvalid, path+".events."+key,
				fmt.Sprintf("event %q is not shaped {trigger, action?, params?} and was dropped", key),
				"use an object with string trigger/action and an object params")
			continue
		}
		events[key] = ev
	}
	if len(events) == 0 {
		return nil
	}
	return events
}

// normalizeEvent validates the {trigger, action?, params?} shape. Extra keys
// are ignored; wrongly typed known keys invalidate the entry.
func normalizeEvent(key string, raw any) (Event, bool) {
	m, ok := raw.(map[string]any)
	if !ok {
		return Event{}, false
	}

	ev := Event{Key: key, Trigger: key}
	if t, has := m["trigger"]; has && t != nil {
		s, isString := t.(string)
		if !isString {
			return Event{}, false
		}
		if s != "" {
			ev.Trigger = s
		}
	}
	if a, has := m["action"]; has && a != nil {
		s, isString := a.(string)
		if !isString {
			return Event{}, false
		}
		ev.Action = s
	}
	if p, has := m["params"]; has && p != nil {
		params, isMap := p.(map[string]any)
		if !isMap {
			return Event{}, false
		}
		ev.Params = mir.CloneMap(params)
	}
	return ev, true
}

func cloneData(d *mir.DataConfig) *mir.DataConfig {
	if d == nil {
		return nil
	}
	return &mir.DataConfig{
		Source: mir.CloneValue(d.Source),
		Pick:   mir.CloneValue(d.Pick),
		Value:  mir.CloneValue(d.Value),
		Mock:   mir.CloneValue(d.Mock),
		Extend: mir.CloneValue(d.Extend),
	}
}

func cloneList(l *mir.ListConfig) *mir.ListConfig {
	if l == nil {
		return nil
	}
	return &mir.ListConfig{
		Source:      mir.CloneValue(l.Source),
		ArrayField:  mir.CloneValue(l.ArrayField),
		ItemAs:      mir.CloneValue(l.ItemAs),
		IndexAs:     mir.CloneValue(l.IndexAs),
		KeyBy:       mir.CloneValue(l.KeyBy),
		EmptyNodeID: mir.CloneValue(l.EmptyNodeID),
	}
}
