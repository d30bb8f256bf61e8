package ir

import (
	"slices"

	"github.com/roach88/mirc/internal/mir"
)

// Node is a canonical node.
type Node struct {
	ID       string
	Type     string
	Path     string // structural breadcrumb, e.g. ui.root.children[2]
	Text     any
	Style    map[string]any
	Props    map[string]any
	Data     *mir.DataConfig
	List     *mir.ListConfig
	Events   map[string]Event
	Children []*Node
}

// Event is a normalized event entry. Trigger defaults to the entry key.
type Event struct {
	Key     string         `json:"key"`
	Trigger string         `json:"trigger"`
	Action  string         `json:"action,omitempty"`
	Params  map[string]any `json:"params,omitempty"`
}

// EventKeys returns the node's event keys in sorted order.
func (n *Node) EventKeys() []string {
	keys := make([]string, 0, len(n.Events))
	for k := range n.Events {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// EventFor returns the event whose trigger matches, if any.
// Lookup is by key first, then by trigger in key order.
func (n *Node) EventFor(trigger string) (Event, bool) {
	if ev, ok := n.Events[trigger]; ok && ev.Trigger == trigger {
		return ev, true
	}
	for _, k := range n.EventKeys() {
		if ev := n.Events[k]; ev.Trigger == trigger {
			return ev, true
		}
	}
	return Event{}, false
}

// Tree is the result of one canonicalization pass.
type Tree struct {
	Root  *Node
	index map[string]*Node
	order []string
}

// Lookup finds a node by id. The first node seen with a given id wins.
func (t *Tree) Lookup(id string) (*Node, bool) {
	if t == nil {
		return nil, false
	}
	n, ok := t.index[id]
	return n, ok
}

// Len returns the number of distinct ids in the tree.
func (t *Tree) Len() int {
	if t == nil {
		return 0
	}
	return len(t.order)
}

// IDs returns node ids in depth-first order.
func (t *Tree) IDs() []string {
	if t == nil {
		return nil
	}
	return slices.Clone(t.order)
}

// Walk visits nodes depth-first, parents before children.
func Walk(n *Node, fn func(*Node)) {
	if n == nil {
		return
	}
	fn(n)
	for _, c := range n.Children {
		Walk(c, fn)
	}
}
