package route

import (
	"slices"
	"strings"
)

type partKind int

const (
	partWildcard partKind = iota + 1
	partDynamic
	partLiteral
)

// WildcardParam is the params key that holds the suffix consumed by "*".
const WildcardParam = "*"

type part struct {
	kind  partKind
	value string // literal text or parameter name
}

func parsePattern(segment string) []part {
	raw := splitPath(segment)
	parts := make([]part, 0, len(raw))
	for _, s := range raw {
		switch {
		case s == "*":
			parts = append(parts, part{kind: partWildcard})
		case strings.HasPrefix(s, ":") && len(s) > 1:
			parts = append(parts, part{kind: partDynamic, value: s[1:]})
		default:
			parts = append(parts, part{kind: partLiteral, value: s})
		}
	}
	return parts
}

// splitPath drops query, fragment and empty segments.
func splitPath(p string) []string {
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	var out []string
	for _, s := range strings.Split(p, "/") {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Match is the result of matching a path.
type Match struct {
	// Chain holds the matched routes from the manifest root down to the leaf.
	Chain []*Node
	// Params holds dynamic bindings; a wildcard suffix is under WildcardParam.
	Params map[string]string
	// Remainder is the unconsumed suffix ("" when the path was fully consumed).
	Remainder string
}

// Leaf returns the deepest matched route.
func (m *Match) Leaf() *Node {
	if m == nil || len(m.Chain) == 0 {
		return nil
	}
	return m.Chain[len(m.Chain)-1]
}

// Page returns the page document of the deepest route that declares one.
func (m *Match) Page() string {
	if m == nil {
		return ""
	}
	for i := len(m.Chain) - 1; i >= 0; i-- {
		if m.Chain[i].PageDocID != "" {
			return m.Chain[i].PageDocID
		}
	}
	return ""
}

// Layouts returns the layout routes of the chain, outermost first.
func (m *Match) Layouts() []*Node {
	if m == nil {
		return nil
	}
	var out []*Node
	for _, n := range m.Chain {
		if n.LayoutDocID != "" {
			out = append(out, n)
		}
	}
	return out
}

// IDs returns the route ids of the chain.
func (m *Match) IDs() []string {
	if m == nil {
		return nil
	}
	ids := make([]string, len(m.Chain))
	for i, n := range m.Chain {
		ids[i] = n.ID
	}
	return ids
}

// Match matches path against the subtree rooted at root. The whole path must
// be consumed.
func (root *Node) Match(path string) (*Match, bool) {
	return matchTree(root, path, false)
}

// MatchPrefix matches the longest prefix of path it can and reports the rest
// in Remainder. Nested routes use the remainder as their own path.
func (root *Node) MatchPrefix(path string) (*Match, bool) {
	return matchTree(root, path, true)
}

// Match matches path against the whole manifest.
func (m *Manifest) Match(path string) (*Match, bool) {
	if m == nil || m.Root == nil {
		return nil, false
	}
	return m.Root.Match(path)
}

func matchTree(root *Node, path string, prefix bool) (*Match, bool) {
	if root == nil {
		return nil, false
	}
	mt := matcher{prefix: prefix}
	res, ok := mt.match(root, splitPath(path), map[string]string{})
	if !ok {
		return nil, false
	}
	out := &Match{Chain: res.chain, Params: res.params}
	if len(res.rest) > 0 {
		out.Remainder = "/" + strings.Join(res.rest, "/")
	}
	return out, true
}

type matcher struct {
	prefix bool
}

type result struct {
	chain  []*Node
	params map[string]string
	rest   []string
}

func (mt matcher) match(n *Node, segs []string, params map[string]string) (result, bool) {
	if n == nil {
		return result{}, false
	}
	rest, bound, wildcard, ok := consume(n, segs, params)
	if !ok {
		return result{}, false
	}
	if wildcard {
		return result{chain: []*Node{n}, params: bound}, true
	}
	if n.Index {
		if len(rest) != 0 {
			return result{}, false
		}
		return result{chain: []*Node{n}, params: bound}, true
	}

	for _, c := range rankChildren(n.Children) {
		if c.Index && len(rest) != 0 {
			continue
		}
		sub, ok := mt.match(c, rest, bound)
		if !ok {
			continue
		}
		sub.chain = append([]*Node{n}, sub.chain...)
		return sub, true
	}

	if len(rest) == 0 || mt.prefix {
		return result{chain: []*Node{n}, params: bound, rest: rest}, true
	}
	return result{}, false
}

// consume matches the node's own segment parts against the front of segs.
func consume(n *Node, segs []string, params map[string]string) ([]string, map[string]string, bool, bool) {
	parts := parsePattern(n.Segment)
	if len(parts) == 0 {
		return segs, params, false, true
	}
	bound := params
	cloned := false
	bind := func(k, v string) {
		if !cloned {
			bound = make(map[string]string, len(params)+1)
			for pk, pv := range params {
				bound[pk] = pv
			}
			cloned = true
		}
		bound[k] = v
	}
	for i, p := range parts {
		if p.kind == partWildcard {
			bind(WildcardParam, strings.Join(segs[min(i, len(segs)):], "/"))
			return nil, bound, true, true
		}
		if i >= len(segs) {
			return nil, nil, false, false
		}
		switch p.kind {
		case partLiteral:
			if segs[i] != p.value {
				return nil, nil, false, false
			}
		case partDynamic:
			bind(p.value, segs[i])
		}
	}
	return segs[len(parts):], bound, false, true
}

// rankChildren orders siblings for matching: index routes first (they only
// apply to an empty remainder), then by part specificity, then pathless
// groups. Declaration order breaks ties.
func rankChildren(children []*Node) []*Node {
	ranked := make([]*Node, 0, len(children))
	for _, c := range children {
		if c != nil {
			ranked = append(ranked, c)
		}
	}
	slices.SortStableFunc(ranked, func(a, b *Node) int {
		ca, cb := class(a), class(b)
		if ca != cb {
			return cb - ca
		}
		return compareSpecificity(parsePattern(b.Segment), parsePattern(a.Segment))
	})
	return ranked
}

func class(n *Node) int {
	switch {
	case n.Index:
		return 3
	case len(parsePattern(n.Segment)) > 0:
		return 2
	default:
		return 1
	}
}

// compareSpecificity compares part kinds position by position; when one
// pattern is a prefix of the other the longer one is more specific.
func compareSpecificity(a, b []part) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i].kind != b[i].kind {
			return int(a[i].kind) - int(b[i].kind)
		}
	}
	return len(a) - len(b)
}

// Outcome summarizes a match for callers that report it.
type Outcome struct {
	Matched   bool              `json:"matched"`
	Routes    []string          `json:"routes,omitempty"`
	Params    map[string]string `json:"params,omitempty"`
	Page      string            `json:"page,omitempty"`
	Layouts   []string          `json:"layouts,omitempty"`
	Remainder string            `json:"remainder,omitempty"`
}

// Resolve matches path against the manifest and summarizes the result.
// With prefix set the unconsumed suffix is reported as Remainder instead of
// failing the match.
func (m *Manifest) Resolve(path string, prefix bool) Outcome {
	if m == nil || m.Root == nil {
		return Outcome{}
	}
	var (
		match *Match
		ok    bool
	)
	if prefix {
		match, ok = m.Root.MatchPrefix(path)
	} else {
		match, ok = m.Root.Match(path)
	}
	if !ok {
		return Outcome{}
	}
	out := Outcome{
		Matched:   true,
		Routes:    match.IDs(),
		Params:    match.Params,
		Page:      match.Page(),
		Remainder: match.Remainder,
	}
	for _, l := range match.Layouts() {
		out.Layouts = append(out.Layouts, l.LayoutDocID)
	}
	return out
}
