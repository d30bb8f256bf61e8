package resolve

import "github.com/roach88/mirc/internal/mir"

// DefaultMaxDepth bounds ResolveDeep recursion.
const DefaultMaxDepth = 12

// ResolveOne resolves exactly one level: if v is a value reference it is
// looked up in ctx, otherwise v is returned unchanged. Unresolvable
// references yield nil.
func ResolveOne(v any, ctx *Context) any {
	ref, ok := mir.ParseRef(v)
	if !ok {
		return v
	}
	return Ref(ref, ctx)
}

// Ref looks up a parsed reference. "$index" ignores its path.
func Ref(ref mir.Ref, ctx *Context) any {
	if ctx == nil {
		ctx = &Context{}
	}
	var root any
	switch ref.Kind {
	case mir.RefParam:
		root = ctx.Params
	case mir.RefState:
		root = ctx.State
	case mir.RefData:
		root = ctx.Data
	case mir.RefItem:
		root = ctx.Item
	case mir.RefIndex:
		return ctx.Index
	default:
		return nil
	}
	v, _ := Lookup(root, ref.Path)
	return v
}

// ResolveDeep resolves references inside nested maps and slices, returning
// new containers and leaving literals untouched. Values nested deeper than
// maxDepth are returned unresolved. maxDepth <= 0 means DefaultMaxDepth.
//
// A reference's resolved value is not resolved again.
func ResolveDeep(v any, ctx *Context, maxDepth int) any {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return resolveDeep(v, ctx, 0, maxDepth)
}

func resolveDeep(v any, ctx *Context, depth, maxDepth int) any {
	if depth > maxDepth {
		return v
	}
	if ref, ok := mir.ParseRef(v); ok {
		return Ref(ref, ctx)
	}
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			out[k] = resolveDeep(elem, ctx, depth+1, maxDepth)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = resolveDeep(elem, ctx, depth+1, maxDepth)
		}
		return out
	default:
		return v
	}
}

// ResolveMap resolves every value of m. The map itself is never treated as a
// reference. A nil map stays nil.
func ResolveMap(m map[string]any, ctx *Context, maxDepth int) map[string]any {
	if m == nil {
		return nil
	}
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = resolveDeep(v, ctx, 1, maxDepth)
	}
	return out
}
