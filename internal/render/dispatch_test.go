package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mirc/internal/mir"
)

func clickDoc() *mir.Document {
	return doc(&mir.ComponentNode{
		ID: "root", Type: "div",
		Children: []*mir.ComponentNode{{
			ID: "card", Type: "AntdCard",
			Events: map[string]any{
				"click": map[string]any{"action": "openDetails", "params": map[string]any{"id": map[string]any{"$param": "id"}}},
			},
			Children: []*mir.ComponentNode{{ID: "label", Type: "span", Text: "Open"}},
		}},
	})
}

func TestDispatch_BubblesToNearestDeclaringAncestor(t *testing.T) {
	view := New(nil, Options{}).Render(clickDoc(), Input{Params: map[string]any{"id": "42"}})

	var fired []ActionEvent
	var selected []string
	view.OnAction = func(ev ActionEvent) { fired = append(fired, ev) }
	view.OnSelect = func(n *ViewNode) { selected = append(selected, n.Key) }

	res := view.Dispatch("label", TriggerClick)

	assert.True(t, res.Selected)
	assert.True(t, res.Fired)
	require.Len(t, fired, 1)
	assert.Equal(t, "card", fired[0].NodeID)
	assert.Equal(t, "openDetails", fired[0].Action)
	assert.Equal(t, map[string]any{"id": "42"}, fired[0].Params)
	assert.Equal(t, []string{"label"}, selected)
	assert.Equal(t, "label", view.Selected())
}

func TestDispatch_NoDeclaringAncestor(t *testing.T) {
	view := New(nil, Options{}).Render(clickDoc(), Input{})

	res := view.Dispatch("label", "hover")
	assert.False(t, res.Fired)
	assert.False(t, res.Selected)

	assert.Equal(t, DispatchResult{}, view.Dispatch("missing", TriggerClick))
}

func TestDispatch_RequireSelection(t *testing.T) {
	view := New(nil, Options{RequireSelection: true}).Render(clickDoc(), Input{})
	actions := 0
	view.OnAction = func(ActionEvent) { actions++ }

	first := view.Dispatch("label", TriggerClick)
	assert.True(t, first.Selected)
	assert.False(t, first.Fired)
	assert.Equal(t, 0, actions)

	second := view.Dispatch("label", TriggerClick)
	assert.False(t, second.Selected)
	assert.True(t, second.Fired)
	assert.Equal(t, 1, actions)

	// Selecting elsewhere re-arms the gate.
	require.True(t, view.Select("card"))
	third := view.Dispatch("label", TriggerClick)
	assert.False(t, third.Fired)
}

func TestDispatch_RequireSelectionIgnoresOtherTriggersUntilSelected(t *testing.T) {
	d := clickDoc()
	d.UI.Root.Children[0].Events["focus"] = map[string]any{"action": "focusCard"}
	view := New(nil, Options{RequireSelection: true}).Render(d, Input{})

	res := view.Dispatch("card", "focus")
	assert.False(t, res.Fired)
	assert.False(t, res.Selected)

	view.Select("card")
	res = view.Dispatch("card", "focus")
	assert.True(t, res.Fired)
	assert.Equal(t, "focusCard", res.Event.Action)
}
