package mir

import "fmt"

// Migrate upgrades a raw decoded document to CurrentVersion.
//
// The input is never modified; a deep copy is migrated and returned together
// with the version the document declared (Version10 when it declared none).
// Unknown (newer) versions are returned unchanged.
//
// Steps:
//   - 1.0 -> 1.1: node "events" arrays become maps keyed by trigger
//   - 1.1 -> 1.2: list "as" is renamed to "itemAs"
func Migrate(raw map[string]any) (map[string]any, string) {
	doc := CloneMap(raw)
	if doc == nil {
		doc = map[string]any{}
	}

	from, _ := doc["version"].(string)
	if from == "" {
		from = Version10
	}

	idx := versionIndex(from)
	if idx < 0 {
		return doc, from
	}

	if idx < versionIndex(Version11) {
		walkRawNodes(rawRoot(doc), migrateEventsArray)
	}
	if idx < versionIndex(Version12) {
		walkRawNodes(rawRoot(doc), migrateListAs)
	}

	doc["version"] = CurrentVersion
	return doc, from
}

func rawRoot(doc map[string]any) map[string]any {
	ui, _ := doc["ui"].(map[string]any)
	if ui == nil {
		return nil
	}
	root, _ := ui["root"].(map[string]any)
	return root
}

func walkRawNodes(node map[string]any, fn func(map[string]any)) {
	if node == nil {
		return
	}
	fn(node)
	children, _ := node["children"].([]any)
	for _, c := range children {
		child, _ := c.(map[string]any)
		walkRawNodes(child, fn)
	}
}

func migrateEventsArray(node map[string]any) {
	list, ok := node["events"].([]any)
	if !ok {
		return
	}
	events := make(map[string]any, len(list))
	for i, entry := range list {
		key := fmt.Sprintf("event_%d", i)
		if m, isMap := entry.(map[string]any); isMap {
			if trigger, _ := m["trigger"].(string); trigger != "" {
				key = trigger
			}
		}
		if _, dup := events[key]; dup {
			key = fmt.Sprintf("%s_%d", key, i)
		}
		events[key] = entry
	}
	node["events"] = events
}

func migrateListAs(node map[string]any) {
	list, ok := node["list"].(map[string]any)
	if !ok {
		return
	}
	as, has := list["as"]
	if !has {
		return
	}
	if _, exists := list["itemAs"]; !exists {
		list["itemAs"] = as
	}
	delete(list, "as")
}
