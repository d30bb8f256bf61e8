package mir

import (
	"fmt"
	"strconv"
)

// Decode diagnostic codes. Mistyped fields are coerced or dropped; the rest
// of the document still decodes.
const (
	CodeNodeFieldInvalid     = "MIR_NODE_FIELD_INVALID"
	CodeDocumentFieldInvalid = "MIR_DOCUMENT_FIELD_INVALID"
)

// lenient converts the JSON value model into the typed document, one field
// at a time, recording what it had to coerce or drop.
type lenient struct {
	diags []Diagnostic
}

func (l *lenient) report(code, path, msg, suggestion string) {
	l.diags = append(l.diags, Diagnostic{
		Code:       code,
		Severity:   SeverityWarning,
		Source:     SourceDocument,
		Message:    msg,
		Path:       path,
		Suggestion: suggestion,
	})
}

func (l *lenient) dropped(code, path, want string, got any) {
	l.report(code, path,
		fmt.Sprintf("expected %s, got %s; field ignored", want, kindName(got)),
		"fix the field type")
}

func (l *lenient) document(raw map[string]any) *Document {
	doc := &Document{}
	doc.Version = l.docString(raw, "version")
	doc.Metadata = l.docMap(raw, "metadata")
	doc.Animation = l.docMap(raw, "animation")

	if v, ok := raw["ui"]; ok && v != nil {
		if ui, ok := v.(map[string]any); ok {
			if r, ok := ui["root"]; ok && r != nil {
				if _, isMap := r.(map[string]any); isMap {
					doc.UI.Root = l.node(r, "ui.root")
				} else {
					l.dropped(CodeDocumentFieldInvalid, "ui.root", "an object", r)
				}
			}
		} else {
			l.dropped(CodeDocumentFieldInvalid, "ui", "an object", v)
		}
	}

	if v, ok := raw["logic"]; ok && v != nil {
		if m, ok := v.(map[string]any); ok {
			doc.Logic = l.logic(m)
		} else {
			l.dropped(CodeDocumentFieldInvalid, "logic", "an object", v)
		}
	}
	return doc
}

func (l *lenient) docString(raw map[string]any, key string) string {
	v, ok := raw[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	l.dropped(CodeDocumentFieldInvalid, key, "a string", v)
	return ""
}

func (l *lenient) docMap(raw map[string]any, key string) map[string]any {
	v, ok := raw[key]
	if !ok || v == nil {
		return nil
	}
	if m, ok := v.(map[string]any); ok {
		return m
	}
	l.dropped(CodeDocumentFieldInvalid, key, "an object", v)
	return nil
}

func (l *lenient) logic(raw map[string]any) *Logic {
	lg := &Logic{}
	if props := l.docMapAt(raw, "props", "logic.props"); props != nil {
		lg.Props = make(map[string]ParamDef, len(props))
		for name, v := range props {
			path := "logic.props." + name
			m, ok := v.(map[string]any)
			if !ok {
				l.dropped(CodeDocumentFieldInvalid, path, "an object", v)
				continue
			}
			lg.Props[name] = ParamDef{
				Type:        l.optString(m, "type", path),
				Default:     m["defaultValue"],
				Description: l.optString(m, "description", path),
			}
		}
	}
	if state := l.docMapAt(raw, "state", "logic.state"); state != nil {
		lg.State = make(map[string]StateDef, len(state))
		for name, v := range state {
			path := "logic.state." + name
			m, ok := v.(map[string]any)
			if !ok {
				l.dropped(CodeDocumentFieldInvalid, path, "an object", v)
				continue
			}
			lg.State[name] = StateDef{Type: l.optString(m, "type", path), Initial: m["initial"]}
		}
	}
	if v, ok := raw["graphs"]; ok && v != nil {
		if g, ok := v.([]any); ok {
			lg.Graphs = g
		} else {
			l.dropped(CodeDocumentFieldInvalid, "logic.graphs", "an array", v)
		}
	}
	return lg
}

func (l *lenient) docMapAt(raw map[string]any, key, path string) map[string]any {
	v, ok := raw[key]
	if !ok || v == nil {
		return nil
	}
	if m, ok := v.(map[string]any); ok {
		return m
	}
	l.dropped(CodeDocumentFieldInvalid, path, "an object", v)
	return nil
}

func (l *lenient) optString(m map[string]any, key, path string) string {
	v, ok := m[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	l.dropped(CodeDocumentFieldInvalid, path+"."+key, "a string", v)
	return ""
}

// node decodes one component node. Anything that is not an object becomes a
// nil entry, which canonicalization skips, so sibling paths stay aligned.
func (l *lenient) node(raw any, path string) *ComponentNode {
	m, ok := raw.(map[string]any)
	if !ok {
		if raw != nil {
			l.dropped(CodeNodeFieldInvalid, path, "a node object", raw)
		}
		return nil
	}

	n := &ComponentNode{
		ID:   l.scalar(m, "id", path),
		Type: l.scalar(m, "type", path),
		Text: m["text"],
	}
	n.Style = l.nodeMap(m, "style", path)
	n.Props = l.nodeMap(m, "props", path)
	n.Events = l.nodeMap(m, "events", path)

	if d := l.nodeMap(m, "data", path); d != nil {
		n.Data = &DataConfig{
			Source: d["source"],
			Pick:   d["pick"],
			Value:  d["value"],
			Mock:   d["mock"],
			Extend: d["extend"],
		}
	}
	if ls := l.nodeMap(m, "list", path); ls != nil {
		n.List = &ListConfig{
			Source:      ls["source"],
			ArrayField:  ls["arrayField"],
			ItemAs:      ls["itemAs"],
			IndexAs:     ls["indexAs"],
			KeyBy:       ls["keyBy"],
			EmptyNodeID: ls["emptyNodeId"],
		}
	}

	if v, ok := m["children"]; ok && v != nil {
		children, ok := v.([]any)
		if !ok {
			l.dropped(CodeNodeFieldInvalid, path+".children", "an array", v)
		}
		for i, c := range children {
			n.Children = append(n.Children, l.node(c, fmt.Sprintf("%s.children[%d]", path, i)))
		}
	}
	return n
}

// scalar reads id or type. Numbers and booleans are coerced to their text
// form; other kinds are dropped.
func (l *lenient) scalar(m map[string]any, key, path string) string {
	v, ok := m[key]
	if !ok || v == nil {
		return ""
	}
	var s string
	switch x := v.(type) {
	case string:
		return x
	case float64:
		s = strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		s = strconv.FormatBool(x)
	default:
		l.dropped(CodeNodeFieldInvalid, path+"."+key, "a string", v)
		return ""
	}
	l.report(CodeNodeFieldInvalid, path+"."+key,
		fmt.Sprintf("expected a string, got %s; using %q", kindName(v), s),
		"quote the "+key)
	return s
}

func (l *lenient) nodeMap(m map[string]any, key, path string) map[string]any {
	v, ok := m[key]
	if !ok || v == nil {
		return nil
	}
	if mm, ok := v.(map[string]any); ok {
		return mm
	}
	l.dropped(CodeNodeFieldInvalid, path+"."+key, "an object", v)
	return nil
}

func kindName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "boolean"
	default:
		return fmt.Sprintf("%T", v)
	}
}
