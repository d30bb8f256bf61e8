package codegen

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/mirc/internal/adapter"
	"github.com/roach88/mirc/internal/ir"
	"github.com/roach88/mirc/internal/mir"
	"github.com/roach88/mirc/internal/resolve"
)

// Codegen diagnostic codes.
const (
	CodeParamUndeclared      = "CODEGEN_PARAM_UNDECLARED"
	CodeStateUndeclared      = "CODEGEN_STATE_UNDECLARED"
	CodeStateNameInvalid     = "CODEGEN_STATE_NAME_INVALID"
	CodeItemOutsideList      = "CODEGEN_ITEM_OUTSIDE_LIST"
	CodeIndexOutsideList     = "CODEGEN_INDEX_OUTSIDE_LIST"
	CodeRefPathInvalid       = "CODEGEN_REF_PATH_INVALID"
	CodeNavigateTarget       = "CODEGEN_NAVIGATE_TARGET_MISSING"
	CodeRouteUnsupported     = "CODEGEN_ROUTE_UNSUPPORTED"
	CodeIconDeferred         = "CODEGEN_ICON_DEFERRED"
	CodeListEmptyNodeMissing = "CODEGEN_LIST_EMPTY_NODE_MISSING"
	CodeListEmptyNodeCycle   = "CODEGEN_LIST_EMPTY_NODE_CYCLE"
	CodeBundleTypeUnknown    = "CODEGEN_BUNDLE_TYPE_UNKNOWN"
)

// Built-in event actions.
const (
	ActionNavigate = "navigate"
	ActionSetState = "setState"
)

// CustomActionEvent is the DOM event custom actions are broadcast as.
const CustomActionEvent = "mir:action"

// unit is the state of one module compilation.
type unit struct {
	registry *adapter.Registry
	tree     *ir.Tree
	params   map[string]mir.ParamDef
	state    map[string]mir.StateDef

	imports     [][]adapter.Import
	diags       []mir.Diagnostic
	seen        map[string]bool
	usesList    bool
	externalize bool
	styles      []File
	styled      map[*ir.Node]bool
	stylePaths  map[string]bool
	// expanding holds the nodes on the current emission path.
	expanding map[*ir.Node]bool
}

func newUnit(registry *adapter.Registry, doc *mir.Document, tree *ir.Tree) *unit {
	u := &unit{
		registry: registry,
		tree:     tree,
		params:   map[string]mir.ParamDef{},
		state:    map[string]mir.StateDef{},
		seen:     map[string]bool{},

		styled:     map[*ir.Node]bool{},
		stylePaths: map[string]bool{},
		expanding:  map[*ir.Node]bool{},
	}
	if doc != nil && doc.Logic != nil {
		if doc.Logic.Props != nil {
			u.params = doc.Logic.Props
		}
		if doc.Logic.State != nil {
			u.state = doc.Logic.State
		}
	}
	return u
}

func (u *unit) report(diags ...mir.Diagnostic) {
	for _, d := range diags {
		id := d.Code + "\x00" + d.Path + "\x00" + d.Message
		if u.seen[id] {
			continue
		}
		u.seen[id] = true
		u.diags = append(u.diags, d)
	}
}

func (u *unit) warn(code, path, msg, suggestion string) {
	u.report(mir.Diagnostic{
		Code: code, Severity: mir.SeverityWarning, Source: mir.SourceCodegen,
		Message: msg, Path: path, Suggestion: suggestion,
	})
}

type writer struct {
	b strings.Builder
}

func (w *writer) line(indent int, s string) {
	w.b.WriteString(strings.Repeat("  ", indent))
	w.b.WriteString(s)
	w.b.WriteByte('\n')
}

func (w *writer) blank() {
	w.b.WriteByte('\n')
}

// component compiles the document into one TSX module exporting name.
func (u *unit) component(name string) string {
	body := &writer{}
	u.node(body, u.tree.Root, scope{}, 2)

	var w writer
	w.line(0, "import React from 'react';")
	for _, line := range importLines(adapter.MergeImports(u.imports...)) {
		w.line(0, line)
	}
	w.blank()

	if u.usesList {
		w.line(0, "function asList(value: unknown): any[] {")
		w.line(1, "return Array.isArray(value) ? value : [];")
		w.line(0, "}")
		w.blank()
	}

	paramNames := sortedKeys(u.params)
	propsType := name + "Props"
	if len(paramNames) > 0 {
		w.line(0, "export interface "+propsType+" {")
		for _, p := range paramNames {
			w.line(1, fmt.Sprintf("%s?: %s;", propertyKey(p), tsType(u.params[p])))
		}
		w.line(0, "}")
		w.blank()
	}

	var prelude []string
	var defaults []string
	for _, p := range paramNames {
		if def := u.params[p].Default; def != nil {
			defaults = append(defaults, propertyKey(p)+": "+jsonLiteral(def))
		}
	}
	switch {
	case len(paramNames) == 0:
		w.line(0, fmt.Sprintf("export default function %s() {", name))
	case len(defaults) > 0:
		w.line(0, fmt.Sprintf("export default function %s(input: %s) {", name, propsType))
		prelude = append(prelude, "const props = { "+strings.Join(defaults, ", ")+", ...input };")
	default:
		w.line(0, fmt.Sprintf("export default function %s(props: %s) {", name, propsType))
	}

	for _, s := range sortedKeys(u.state) {
		if !isIdentifier(s) {
			u.warn(CodeStateNameInvalid, "logic.state."+s,
				fmt.Sprintf("state field %q is not a valid identifier and was skipped", s), "rename the state field")
			continue
		}
		def := u.state[s]
		init := "undefined"
		typ := tsStateType(def.Type)
		if def.Initial != nil {
			init = jsonLiteral(def.Initial)
		} else {
			typ += " | undefined"
		}
		prelude = append(prelude, fmt.Sprintf("const [%s, %s] = React.useState<%s>(%s);", s, setterName(s), typ, init))
	}
	for _, l := range prelude {
		w.line(1, l)
	}
	if len(prelude) > 0 {
		w.blank()
	}

	w.line(1, "return (")
	w.b.WriteString(body.b.String())
	w.line(1, ");")
	w.line(0, "}")
	return w.b.String()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func setterName(state string) string {
	return "set" + PascalCase(state)
}

func tsType(p mir.ParamDef) string {
	if p.IsFunction() {
		return "(payload?: unknown) => void"
	}
	return tsStateType(p.Type)
}

func tsStateType(t string) string {
	switch t {
	case "string", "number", "boolean":
		return t
	case "array":
		return "unknown[]"
	case "object":
		return "Record<string, unknown>"
	default:
		return "unknown"
	}
}

func importLines(imports []adapter.Import) []string {
	var lines []string
	named := map[string][]string{}
	var namedOrder []string
	for _, imp := range imports {
		switch imp.Kind {
		case adapter.ImportDefault:
			lines = append(lines, fmt.Sprintf("import %s from '%s';", imp.LocalName(), imp.Source))
		case adapter.ImportNamespace:
			lines = append(lines, fmt.Sprintf("import * as %s from '%s';", imp.LocalName(), imp.Source))
		default:
			spec := imp.Imported
			if imp.Local != "" && imp.Local != imp.Imported {
				spec += " as " + imp.Local
			}
			if _, ok := named[imp.Source]; !ok {
				namedOrder = append(namedOrder, imp.Source)
			}
			named[imp.Source] = append(named[imp.Source], spec)
		}
	}
	for _, src := range namedOrder {
		lines = append(lines, fmt.Sprintf("import { %s } from '%s';", strings.Join(named[src], ", "), src))
	}
	return lines
}

// node writes the JSX for n at the given indent.
func (u *unit) node(w *writer, n *ir.Node, s scope, indent int) {
	u.expanding[n] = true
	defer delete(u.expanding, n)
	s = u.dataScope(n.Data, s, n.Path)

	if n.Type == "Route" {
		routeID, _ := n.Props["routeId"].(string)
		if routeID == "" {
			routeID = "root"
		}
		u.warn(CodeRouteUnsupported, n.Path,
			"Route nodes are rendered live only; compiled output keeps a placeholder",
			"compile the routed page documents separately")
		w.line(indent, fmt.Sprintf("<div data-mir-route=%s />", jsString(routeID)))
		return
	}

	if u.externalize && n.Type == "style" {
		if css, ok := n.Text.(string); ok {
			if !u.styled[n] {
				u.styled[n] = true
				u.styles = append(u.styles, File{
					Path:     u.stylePath(n.ID),
					Language: "css",
					Content:  strings.TrimRight(css, "\n") + "\n",
				})
			}
			return
		}
	}

	res := u.registry.Resolve(n)
	u.report(res.Diagnostics...)
	u.imports = append(u.imports, res.Imports)
	if res.Deferred {
		u.warn(CodeIconDeferred, n.Path, "icon provider was not ready; emitted a placeholder",
			"ensure the icon provider is loaded before compiling")
	}

	open := "<" + res.Element + u.attrs(n, s) + ">"
	closeTag := "</" + res.Element + ">"

	text := u.text(n, s)
	hasBody := text != "" || len(n.Children) > 0 || n.List != nil
	if !hasBody {
		w.line(indent, strings.TrimSuffix(open, ">")+" />")
		return
	}

	w.line(indent, open)
	if text != "" {
		w.line(indent+1, text)
	}
	if n.List != nil {
		u.list(w, n, s, indent+1)
	} else {
		for _, c := range n.Children {
			u.node(w, c, s, indent+1)
		}
	}
	w.line(indent, closeTag)
}

// stylePath names the stylesheet for a style node. Ids that collide after
// sanitizing get a numeric suffix.
func (u *unit) stylePath(id string) string {
	base := "src/styles/" + ir.FallbackID(id)
	path := base + ".css"
	for i := 2; u.stylePaths[path]; i++ {
		path = fmt.Sprintf("%s-%d.css", base, i)
	}
	u.stylePaths[path] = true
	return path
}

var iconRefProps = []string{"icon", "provider", "name", "variant"}

func (u *unit) attrs(n *ir.Node, s scope) string {
	var parts []string
	for _, k := range sortedKeys(n.Props) {
		if n.Type == adapter.IconTag && slices.Contains(iconRefProps, k) {
			continue
		}
		parts = append(parts, u.attr(k, n.Props[k], s, n.Path))
	}
	if len(n.Style) > 0 {
		parts = append(parts, "style={"+u.expr(n.Style, s, n.Path)+"}")
	}
	for _, k := range n.EventKeys() {
		if h := u.handler(n, n.Events[k], s); h != "" {
			parts = append(parts, h)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return " " + strings.Join(parts, " ")
}

func (u *unit) attr(name string, v any, s scope, path string) string {
	if !isAttrName(name) {
		return "{..." + "{ " + jsString(name) + ": " + u.expr(v, s, path) + " }}"
	}
	// JSX decodes entities in bare attribute strings.
	if str, ok := v.(string); ok && !strings.ContainsAny(str, "\"\\\n{}&") {
		return name + "=\"" + str + "\""
	}
	return name + "={" + u.expr(v, s, path) + "}"
}

func (u *unit) text(n *ir.Node, s scope) string {
	if n.Text == nil {
		return ""
	}
	if str, ok := n.Text.(string); ok {
		if str == "" {
			return ""
		}
		if !strings.ContainsAny(str, "{}<>&\n") && strings.TrimSpace(str) == str {
			return str
		}
		return "{" + jsString(str) + "}"
	}
	return "{" + u.expr(n.Text, s, n.Path) + "}"
}

// handler compiles one event into a JSX handler attribute, or "" when the
// event has no action.
func (u *unit) handler(n *ir.Node, ev ir.Event, s scope) string {
	if ev.Action == "" || ev.Trigger == "" {
		return ""
	}
	attr := "on" + PascalCase(ev.Trigger)
	params := ""
	if len(ev.Params) > 0 {
		params = u.expr(ev.Params, s, n.Path)
	}

	if p, ok := u.params[ev.Action]; ok && p.IsFunction() {
		if params == "" {
			return attr + "={" + member("props", []resolve.Segment{{Key: ev.Action}}) + "}"
		}
		return attr + "={() => " + member("props", []resolve.Segment{{Key: ev.Action}}) + "?.(" + params + ")}"
	}

	switch ev.Action {
	case ActionNavigate:
		to := firstPresent(ev.Params, "to", "url", "href")
		if to == nil {
			u.warn(CodeNavigateTarget, n.Path, "navigate action has no to/url/href parameter", `add params.to`)
			return ""
		}
		dest := u.expr(to, s, n.Path)
		switch {
		case ev.Params["target"] == "_blank":
			return attr + "={() => window.open(" + dest + ", \"_blank\")}"
		case ev.Params["replace"] == true:
			return attr + "={() => window.history.replaceState(null, \"\", " + dest + ")}"
		default:
			return attr + "={() => window.history.pushState(null, \"\", " + dest + ")}"
		}

	case ActionSetState:
		key, _ := ev.Params["key"].(string)
		if _, declared := u.state[key]; declared && isIdentifier(key) {
			return attr + "={() => " + setterName(key) + "(" + u.expr(ev.Params["value"], s, n.Path) + ")}"
		}
		u.warn(CodeStateUndeclared, n.Path,
			fmt.Sprintf("setState targets undeclared state field %q; emitted as a custom action", key),
			"declare the field under logic.state")
	}

	detail := []string{
		"action: " + jsString(ev.Action),
		"nodeId: " + jsString(n.ID),
		"trigger: " + jsString(ev.Trigger),
	}
	if params != "" {
		detail = append(detail, "params: "+params)
	}
	return attr + "={() => window.dispatchEvent(new CustomEvent(" + jsString(CustomActionEvent) +
		", { detail: { " + strings.Join(detail, ", ") + " } }))}"
}

func firstPresent(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

// list writes the item template once inside a map over the source array.
// A non-array source maps over nothing; the empty node renders instead.
func (u *unit) list(w *writer, n *ir.Node, s scope, indent int) {
	u.usesList = true
	l := n.List

	src := s.data
	if ref, ok := mir.ParseRef(l.Source); ok {
		src = u.refExpr(ref, s, n.Path)
	} else if field := l.ArrayFieldPath(); field != "" {
		src = u.expr(map[string]any{"$data": field}, s, n.Path)
	}
	if src == "" {
		src = "undefined"
	}
	items := "asList(" + src + ")"

	emptyID := l.EmptyNode()
	if emptyID != "" {
		empty, ok := u.tree.Lookup(emptyID)
		switch {
		case !ok:
			u.warn(CodeListEmptyNodeMissing, n.Path, fmt.Sprintf("emptyNodeId %q does not name a node", emptyID), "")
		case u.expanding[empty]:
			u.warn(CodeListEmptyNodeCycle, n.Path,
				fmt.Sprintf("emptyNodeId %q names the list or one of its ancestors; no empty state emitted", emptyID),
				"point emptyNodeId at a child of the list")
		default:
			w.line(indent, "{"+items+".length === 0 && (")
			u.node(w, empty, s, indent+1)
			w.line(indent, ")}")
		}
	}

	itemVar := l.ItemAlias()
	if itemVar == "" {
		itemVar = "item"
	}
	indexVar := l.IndexAlias()
	if indexVar == "" {
		indexVar = "index"
	}
	inner := s
	inner.item = itemVar
	inner.index = indexVar
	if a := l.ItemAlias(); a != "" {
		inner = inner.withAlias(a, itemVar)
	}
	if a := l.IndexAlias(); a != "" {
		inner = inner.withAlias(a, indexVar)
	}

	key := indexVar
	if kp := l.KeyPath(); kp != "" {
		key = "String(" + u.expr(map[string]any{"$item": kp}, inner, n.Path) + " ?? " + indexVar + ")"
	}

	w.line(indent, fmt.Sprintf("{%s.map((%s: any, %s: number) => (", items, itemVar, indexVar))
	w.line(indent+1, "<React.Fragment key={"+key+"}>")
	for _, c := range n.Children {
		if c.ID == emptyID {
			continue
		}
		u.node(w, c, inner, indent+2)
	}
	w.line(indent+1, "</React.Fragment>")
	w.line(indent, "))}")
}
