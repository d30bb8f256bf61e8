package mir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrate_UnversionedDocumentUpgradesToCurrent(t *testing.T) {
	raw := map[string]any{
		"ui": map[string]any{
			"root": map[string]any{
				"id":   "root",
				"type": "div",
				"events": []any{
					map[string]any{"trigger": "onClick", "action": "navigate"},
					map[string]any{"action": "noop"},
				},
				"children": []any{
					map[string]any{
						"id":   "rows",
						"type": "ul",
						"list": map[string]any{"as": "row"},
					},
				},
			},
		},
	}

	migrated, from := Migrate(raw)
	assert.Equal(t, Version10, from)
	assert.Equal(t, CurrentVersion, migrated["version"])

	root := rawRoot(migrated)
	events, ok := root["events"].(map[string]any)
	require.True(t, ok, "events should be converted to a map")
	assert.Contains(t, events, "onClick")
	assert.Contains(t, events, "event_1")

	child := root["children"].([]any)[0].(map[string]any)
	list := child["list"].(map[string]any)
	assert.Equal(t, "row", list["itemAs"])
	assert.NotContains(t, list, "as")
}

func TestMigrate_DoesNotMutateInput(t *testing.T) {
	raw := map[string]any{
		"version": "1.1",
		"ui": map[string]any{"root": map[string]any{
			"id": "r", "type": "ul", "list": map[string]any{"as": "row"},
		}},
	}

	_, _ = Migrate(raw)

	list := rawRoot(raw)["list"].(map[string]any)
	assert.Equal(t, "row", list["as"])
	assert.Equal(t, "1.1", raw["version"])
}

func TestMigrate_UnknownVersionUntouched(t *testing.T) {
	raw := map[string]any{"version": "9.0", "ui": map[string]any{}}
	migrated, from := Migrate(raw)
	assert.Equal(t, "9.0", from)
	assert.Equal(t, "9.0", migrated["version"])
}
