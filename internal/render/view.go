package render

import (
	"slices"

	"github.com/roach88/mirc/internal/ir"
	"github.com/roach88/mirc/internal/mir"
)

// TriggerClick is the trigger that also drives selection.
const TriggerClick = "click"

// ViewNode is one rendered element.
//
// Key is unique within a View: the node id, prefixed by the enclosing route
// document and suffixed with the list keys of every enclosing list item.
type ViewNode struct {
	Key      string              `json:"key"`
	NodeID   string              `json:"nodeId"`
	Type     string              `json:"type"`
	Element  string              `json:"element"`
	Props    map[string]any      `json:"props,omitempty"`
	Style    map[string]any      `json:"style,omitempty"`
	Text     any                 `json:"text,omitempty"`
	Events   map[string]ir.Event `json:"events,omitempty"`
	Deferred bool                `json:"deferred,omitempty"`
	Children []*ViewNode         `json:"children,omitempty"`
}

// EventFor returns the event whose trigger matches, in event key order.
func (n *ViewNode) EventFor(trigger string) (ir.Event, bool) {
	keys := make([]string, 0, len(n.Events))
	for k := range n.Events {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		if ev := n.Events[k]; ev.Trigger == trigger {
			return ev, true
		}
	}
	return ir.Event{}, false
}

// ActionEvent is emitted when a dispatched trigger reaches a node that
// declares it.
type ActionEvent struct {
	Key     string         `json:"key"`
	NodeID  string         `json:"nodeId"`
	Trigger string         `json:"trigger"`
	Action  string         `json:"action,omitempty"`
	Params  map[string]any `json:"params,omitempty"`
}

// DispatchResult reports what a dispatch did.
type DispatchResult struct {
	Selected bool        `json:"selected"`
	Fired    bool        `json:"fired"`
	Event    ActionEvent `json:"event"`
}

// View is a rendered tree plus the diagnostics of the pass that built it.
//
// A View is owned by one UI thread and is not safe for concurrent Dispatch.
type View struct {
	Root        *ViewNode        `json:"root"`
	Diagnostics []mir.Diagnostic `json:"diagnostics,omitempty"`

	OnSelect func(*ViewNode)   `json:"-"`
	OnAction func(ActionEvent) `json:"-"`

	requireSelection bool
	index            map[string]*ViewNode
	parent           map[string]string
	order            []string
	selected         string
}

func (v *View) reindex() {
	v.index = make(map[string]*ViewNode)
	v.parent = make(map[string]string)
	v.order = nil
	var visit func(n *ViewNode, parent string)
	visit = func(n *ViewNode, parent string) {
		if n == nil {
			return
		}
		if _, dup := v.index[n.Key]; !dup {
			v.order = append(v.order, n.Key)
		}
		v.index[n.Key] = n
		v.parent[n.Key] = parent
		for _, c := range n.Children {
			visit(c, n.Key)
		}
	}
	visit(v.Root, "")
}

// Lookup finds a rendered node by key.
func (v *View) Lookup(key string) (*ViewNode, bool) {
	n, ok := v.index[key]
	return n, ok
}

// Keys returns rendered keys in depth-first order.
func (v *View) Keys() []string {
	return slices.Clone(v.order)
}

// Parent returns the key of the node's parent, "" for the root.
func (v *View) Parent(key string) string {
	return v.parent[key]
}

// Selected returns the selected key, "" when nothing is selected.
func (v *View) Selected() string {
	return v.selected
}

// Select marks key as selected and notifies OnSelect.
func (v *View) Select(key string) bool {
	n, ok := v.index[key]
	if !ok {
		return false
	}
	if v.selected != key {
		v.selected = key
		if v.OnSelect != nil {
			v.OnSelect(n)
		}
	}
	return true
}

// Dispatch delivers a trigger raised on the node with the given key.
//
// The trigger bubbles to the nearest ancestor-or-self that declares it, so
// one listener per region covers elements that do not forward handlers.
// A click selects its target. With selection required, a trigger on an
// unselected target only selects (for click) and fires nothing.
func (v *View) Dispatch(key, trigger string) DispatchResult {
	var res DispatchResult
	if _, ok := v.index[key]; !ok {
		return res
	}

	wasSelected := v.selected == key
	if trigger == TriggerClick && !wasSelected {
		v.Select(key)
		res.Selected = true
	}
	if v.requireSelection && !wasSelected {
		return res
	}

	for k := key; k != ""; k = v.parent[k] {
		n := v.index[k]
		ev, ok := n.EventFor(trigger)
		if !ok {
			continue
		}
		res.Fired = true
		res.Event = ActionEvent{
			Key: n.Key, NodeID: n.NodeID, Trigger: ev.Trigger, Action: ev.Action, Params: ev.Params,
		}
		if v.OnAction != nil {
			v.OnAction(res.Event)
		}
		return res
	}
	return res
}
