package mir

// Document is a MIR document snapshot as supplied by the editing layer.
type Document struct {
	Version   string         `json:"version"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	UI        UI             `json:"ui"`
	Logic     *Logic         `json:"logic,omitempty"`
	Animation map[string]any `json:"animation,omitempty"` // opaque to this core

	decodeDiags []Diagnostic
}

// DecodeDiagnostics returns what FromRaw coerced or dropped while decoding.
func (d *Document) DecodeDiagnostics() []Diagnostic {
	if d == nil {
		return nil
	}
	return d.decodeDiags
}

// UI holds the component tree.
type UI struct {
	Root *ComponentNode `json:"root"`
}

// Logic declares parameters and local state. Graphs are opaque.
type Logic struct {
	Props  map[string]ParamDef `json:"props,omitempty"`
	State  map[string]StateDef `json:"state,omitempty"`
	Graphs []any               `json:"graphs,omitempty"`
}

// ParamDef declares a caller-supplied parameter.
type ParamDef struct {
	Type        string `json:"type,omitempty"` // "string", "number", "boolean", "function", ...
	Default     any    `json:"defaultValue,omitempty"`
	Description string `json:"description,omitempty"`
}

// IsFunction reports whether the parameter is a caller-declared callback.
func (p ParamDef) IsFunction() bool {
	return p.Type == "function"
}

// StateDef declares a local state field.
type StateDef struct {
	Type    string `json:"type,omitempty"`
	Initial any    `json:"initial,omitempty"`
}

// ComponentNode is one node of the authored tree.
//
// Text, Style and Props values are literals or value references. Data and
// List keep loosely typed fields because authors can put anything there; the
// validator reports contract violations and the renderer degrades.
type ComponentNode struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"`
	Text     any              `json:"text,omitempty"`
	Style    map[string]any   `json:"style,omitempty"`
	Props    map[string]any   `json:"props,omitempty"`
	Data     *DataConfig      `json:"data,omitempty"`
	List     *ListConfig      `json:"list,omitempty"`
	Children []*ComponentNode `json:"children,omitempty"`
	Events   map[string]any   `json:"events,omitempty"` // trigger key -> {trigger, action?, params?}
}

// DataConfig declares a node's data scope.
type DataConfig struct {
	Source any `json:"source,omitempty"` // value reference
	Pick   any `json:"pick,omitempty"`   // path string
	Value  any `json:"value,omitempty"`
	Mock   any `json:"mock,omitempty"`
	Extend any `json:"extend,omitempty"` // map
}

// PickPath returns the pick path, or "" when absent or not a string.
func (d *DataConfig) PickPath() string {
	if d == nil {
		return ""
	}
	s, _ := d.Pick.(string)
	return s
}

// ExtendMap returns the extend map, or nil when absent or not a map.
func (d *DataConfig) ExtendMap() map[string]any {
	if d == nil {
		return nil
	}
	m, _ := d.Extend.(map[string]any)
	return m
}

// ListConfig declares array-template iteration for a node.
type ListConfig struct {
	Source      any `json:"source,omitempty"`
	ArrayField  any `json:"arrayField,omitempty"`
	ItemAs      any `json:"itemAs,omitempty"`
	IndexAs     any `json:"indexAs,omitempty"`
	KeyBy       any `json:"keyBy,omitempty"`
	EmptyNodeID any `json:"emptyNodeId,omitempty"`
}

// stringField returns v when it is a string, else "".
func stringField(v any) string {
	s, _ := v.(string)
	return s
}

// ArrayFieldPath returns arrayField when it is a string.
func (l *ListConfig) ArrayFieldPath() string {
	if l == nil {
		return ""
	}
	return stringField(l.ArrayField)
}

// ItemAlias returns the declared item alias, "" when absent or invalid.
func (l *ListConfig) ItemAlias() string {
	if l == nil {
		return ""
	}
	s := stringField(l.ItemAs)
	if !IsIdentifier(s) {
		return ""
	}
	return s
}

// IndexAlias returns the declared index alias, "" when absent or invalid.
func (l *ListConfig) IndexAlias() string {
	if l == nil {
		return ""
	}
	s := stringField(l.IndexAs)
	if !IsIdentifier(s) {
		return ""
	}
	return s
}

// KeyPath returns keyBy when it is a string.
func (l *ListConfig) KeyPath() string {
	if l == nil {
		return ""
	}
	return stringField(l.KeyBy)
}

// EmptyNode returns emptyNodeId when it is a string.
func (l *ListConfig) EmptyNode() string {
	if l == nil {
		return ""
	}
	return stringField(l.EmptyNodeID)
}

// IsIdentifier reports whether s is a valid JS-style identifier.
func IsIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || r == '$':
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

// Walk visits every node depth-first, parents before children.
// Nil nodes are skipped.
func Walk(n *ComponentNode, fn func(*ComponentNode)) {
	if n == nil {
		return
	}
	fn(n)
	for _, c := range n.Children {
		Walk(c, fn)
	}
}

// DefaultParams returns the declared parameter defaults, overlaid by given.
func (d *Document) DefaultParams(given map[string]any) map[string]any {
	out := make(map[string]any)
	if d != nil && d.Logic != nil {
		for name, p := range d.Logic.Props {
			if p.Default != nil {
				out[name] = CloneValue(p.Default)
			}
		}
	}
	for k, v := range given {
		out[k] = v
	}
	return out
}

// InitialState returns the declared initial state, overlaid by given.
func (d *Document) InitialState(given map[string]any) map[string]any {
	out := make(map[string]any)
	if d != nil && d.Logic != nil {
		for name, s := range d.Logic.State {
			out[name] = CloneValue(s.Initial)
		}
	}
	for k, v := range given {
		out[k] = v
	}
	return out
}
