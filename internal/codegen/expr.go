package codegen

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/mirc/internal/mir"
	"github.com/roach88/mirc/internal/resolve"
)

// scope is the static counterpart of resolve.Context: each field is the
// expression that yields the value at runtime.
type scope struct {
	data    string // "" when no data scope is bound
	aliases map[string]string
	item    string // "" outside lists
	index   string
}

func (s scope) withAlias(name, expr string) scope {
	next := s
	next.aliases = make(map[string]string, len(s.aliases)+1)
	for k, v := range s.aliases {
		next.aliases[k] = v
	}
	next.aliases[name] = expr
	return next
}

// jsonLiteral encodes v as JSON without HTML escaping.
func jsonLiteral(v any) string {
	data, err := mir.MarshalJSON(v)
	if err != nil {
		return "undefined"
	}
	return string(data)
}

func jsString(s string) string {
	return jsonLiteral(s)
}

// containsRef reports whether v holds a value reference at any depth.
func containsRef(v any) bool {
	if mir.IsRef(v) {
		return true
	}
	switch val := v.(type) {
	case map[string]any:
		for _, e := range val {
			if containsRef(e) {
				return true
			}
		}
	case []any:
		for _, e := range val {
			if containsRef(e) {
				return true
			}
		}
	}
	return false
}

// accessor renders path segments as optional member accesses.
func accessor(segs []resolve.Segment) string {
	var b strings.Builder
	for _, seg := range segs {
		switch {
		case seg.IsIndex:
			fmt.Fprintf(&b, "?.[%d]", seg.Index)
		case isIdentifier(seg.Key):
			b.WriteString("?." + seg.Key)
		default:
			b.WriteString("?.[" + jsString(seg.Key) + "]")
		}
	}
	return b.String()
}

// member renders the first segment as a plain access and the rest as
// optional accesses.
func member(base string, segs []resolve.Segment) string {
	if len(segs) == 0 {
		return base
	}
	first := segs[0]
	switch {
	case first.IsIndex:
		base += fmt.Sprintf("[%d]", first.Index)
	case isIdentifier(first.Key):
		base += "." + first.Key
	default:
		base += "[" + jsString(first.Key) + "]"
	}
	return base + accessor(segs[1:])
}

func wrap(expr string) string {
	if strings.ContainsAny(expr, " ({") {
		return "(" + expr + ")"
	}
	return expr
}

// expr renders a literal-or-reference value as a JS expression.
func (u *unit) expr(v any, s scope, path string) string {
	if ref, ok := mir.ParseRef(v); ok {
		return u.refExpr(ref, s, path)
	}
	if !containsRef(v) {
		if v == nil {
			return "null"
		}
		return jsonLiteral(v)
	}
	switch val := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = propertyKey(k) + ": " + u.expr(val[k], s, path)
		}
		return "{ " + strings.Join(parts, ", ") + " }"
	case []any:
		parts := make([]string, len(val))
		for i, e := range val {
			parts[i] = u.expr(e, s, path)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	}
	return jsonLiteral(v)
}

// refExpr renders one reference. References that cannot be bound in the
// generated module become undefined with a diagnostic.
func (u *unit) refExpr(ref mir.Ref, s scope, path string) string {
	if ref.Kind == mir.RefIndex {
		if s.index == "" {
			u.warn(CodeIndexOutsideList, path, "$index used outside a list", "")
			return "undefined"
		}
		return s.index
	}

	segs, ok := resolve.ParsePath(ref.Path)
	if !ok {
		u.warn(CodeRefPathInvalid, path, fmt.Sprintf("reference path %q cannot be parsed", ref.Path), "")
		return "undefined"
	}

	switch ref.Kind {
	case mir.RefParam:
		if len(segs) == 0 || segs[0].IsIndex {
			u.warn(CodeParamUndeclared, path, "$param needs a parameter name", "")
			return "undefined"
		}
		if _, declared := u.params[segs[0].Key]; !declared {
			u.warn(CodeParamUndeclared, path,
				fmt.Sprintf("parameter %q is not declared in logic.props", segs[0].Key),
				"declare the parameter under logic.props")
			return "undefined"
		}
		return member("props", segs)

	case mir.RefState:
		if len(segs) == 0 || segs[0].IsIndex {
			u.warn(CodeStateUndeclared, path, "$state needs a state field name", "")
			return "undefined"
		}
		name := segs[0].Key
		if _, declared := u.state[name]; !declared || !isIdentifier(name) {
			u.warn(CodeStateUndeclared, path,
				fmt.Sprintf("state field %q is not declared in logic.state", name),
				"declare the field under logic.state")
			return "undefined"
		}
		return name + accessor(segs[1:])

	case mir.RefItem:
		if s.item == "" {
			u.warn(CodeItemOutsideList, path, "$item used outside a list", "")
			return "undefined"
		}
		return s.item + accessor(segs)

	case mir.RefData:
		if len(segs) > 0 && !segs[0].IsIndex {
			if alias, ok := s.aliases[segs[0].Key]; ok {
				return alias + accessor(segs[1:])
			}
		}
		if s.data == "" {
			return "undefined"
		}
		return wrap(s.data) + accessor(segs)
	}
	return "undefined"
}

// dataScope layers a node's data declaration onto s, mirroring scope.Merge:
// source (falling back to value), then extend, then pick. Mock values are
// preview-only and never compiled.
func (u *unit) dataScope(cfg *mir.DataConfig, s scope, path string) scope {
	if cfg == nil {
		return s
	}
	next := s
	expr := s.data
	replaced := false

	if ref, ok := mir.ParseRef(cfg.Source); ok {
		expr = u.refExpr(ref, s, path)
		if cfg.Value != nil {
			expr = wrap(expr) + " ?? " + u.expr(cfg.Value, s, path)
		}
		replaced = true
	} else if cfg.Value != nil {
		expr = u.expr(cfg.Value, s, path)
		replaced = true
	}

	if extend := cfg.ExtendMap(); extend != nil {
		keys := make([]string, 0, len(extend))
		for k := range extend {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		parts := make([]string, 0, len(keys)+1)
		if expr != "" {
			parts = append(parts, "..."+wrap(expr))
		}
		for _, k := range keys {
			parts = append(parts, propertyKey(k)+": "+u.expr(extend[k], s, path))
		}
		expr = "{ " + strings.Join(parts, ", ") + " }"
	}

	if pick := cfg.PickPath(); pick != "" {
		segs, ok := resolve.ParsePath(pick)
		if expr == "" || !ok {
			expr = "undefined"
		} else {
			expr = wrap(expr) + accessor(segs)
		}
		replaced = true
	}

	next.data = expr
	if replaced {
		next.aliases = nil
	}
	return next
}
