package resolve

import "maps"

// Context is the layered scope a reference resolves against.
//
// Index is nil outside list iteration and an int inside it.
type Context struct {
	Params map[string]any
	State  map[string]any
	Data   any
	Item   any
	Index  any
}

// WithData returns a copy of c with scoped data replaced.
func (c *Context) WithData(data any) *Context {
	next := c.clone()
	next.Data = data
	return next
}

// WithItem returns a copy of c for one list iteration. When aliases are
// declared they are layered onto the scoped data so "$data" paths can use
// them; a non-map scope becomes a fresh map holding only the aliases.
func (c *Context) WithItem(item any, index int, itemAs, indexAs string) *Context {
	next := c.clone()
	next.Item = item
	next.Index = index
	if itemAs == "" && indexAs == "" {
		return next
	}
	scoped := map[string]any{}
	if m, ok := next.Data.(map[string]any); ok && m != nil {
		scoped = maps.Clone(m)
	}
	if itemAs != "" {
		scoped[itemAs] = item
	}
	if indexAs != "" {
		scoped[indexAs] = index
	}
	next.Data = scoped
	return next
}

func (c *Context) clone() *Context {
	if c == nil {
		return &Context{}
	}
	cp := *c
	return &cp
}
