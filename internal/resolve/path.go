package resolve

import (
	"strconv"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// Path grammar:
//
//	path  = step*
//	step  = "."? name | "[" name "]"
//
// e.g. "items[0].name", "user.address.city", "rows.2".
var pathLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Punct", Pattern: `[.\[\]]`},
	{Name: "Name", Pattern: `[^.\[\]]+`},
})

type refPath struct {
	Steps []*pathStep `parser:"@@*"`
}

type pathStep struct {
	Field *string `parser:"  '.'? @Name"`
	Index *string `parser:"| '[' @Name ']'"`
}

var pathParser = participle.MustBuild[refPath](
	participle.Lexer(pathLexer),
)

// Segment is one parsed path step.
type Segment struct {
	Key     string
	Index   int
	IsIndex bool // bracketed numeric index
}

// ParsePath splits a reference path into segments. The empty path has no
// segments. Malformed paths return ok=false.
func ParsePath(path string) ([]Segment, bool) {
	if path == "" {
		return nil, true
	}
	parsed, err := pathParser.ParseString("", path)
	if err != nil {
		return nil, false
	}
	segs := make([]Segment, 0, len(parsed.Steps))
	for _, step := range parsed.Steps {
		switch {
		case step.Field != nil:
			segs = append(segs, Segment{Key: *step.Field})
		case step.Index != nil:
			n, err := strconv.Atoi(*step.Index)
			if err != nil {
				segs = append(segs, Segment{Key: *step.Index})
				continue
			}
			segs = append(segs, Segment{Key: *step.Index, Index: n, IsIndex: true})
		}
	}
	return segs, true
}

// Lookup walks path from root. Missing keys, out-of-range indices, malformed
// paths and non-container intermediates yield (nil, false).
//
// Dot segments that are numeric also index arrays, so "rows.0" and "rows[0]"
// are equivalent.
func Lookup(root any, path string) (any, bool) {
	segs, ok := ParsePath(path)
	if !ok {
		return nil, false
	}
	cur := root
	for _, seg := range segs {
		next, found := step(cur, seg)
		if !found {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

func step(cur any, seg Segment) (any, bool) {
	switch val := cur.(type) {
	case map[string]any:
		v, ok := val[seg.Key]
		return v, ok
	case []any:
		idx := seg.Index
		if !seg.IsIndex {
			n, err := strconv.Atoi(seg.Key)
			if err != nil {
				return nil, false
			}
			idx = n
		}
		if idx < 0 || idx >= len(val) {
			return nil, false
		}
		return val[idx], true
	default:
		return nil, false
	}
}
