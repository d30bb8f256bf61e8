package mir

import "fmt"

// RefKind identifies which scope a value reference reads from.
type RefKind uint8

const (
	RefParam RefKind = iota + 1 // $param -> context params
	RefState                    // $state -> context state
	RefData                     // $data  -> scoped data
	RefItem                     // $item  -> current list item
	RefIndex                    // $index -> current list index (path ignored)
)

// refKeys maps tag keys to kinds. The set is closed.
var refKeys = map[string]RefKind{
	"$param": RefParam,
	"$state": RefState,
	"$data":  RefData,
	"$item":  RefItem,
	"$index": RefIndex,
}

// Key returns the tag key for the kind, e.g. "$param".
func (k RefKind) Key() string {
	switch k {
	case RefParam:
		return "$param"
	case RefState:
		return "$state"
	case RefData:
		return "$data"
	case RefItem:
		return "$item"
	case RefIndex:
		return "$index"
	default:
		return ""
	}
}

func (k RefKind) String() string {
	if key := k.Key(); key != "" {
		return key
	}
	return fmt.Sprintf("RefKind(%d)", uint8(k))
}

// Ref is a parsed value reference. Path is empty for RefIndex.
type Ref struct {
	Kind RefKind
	Path string
}

// ParseRef recognizes a single-key tagged object.
//
// Anything else (non-maps, maps with zero or several keys, unknown keys, or a
// non-string path) is a literal and returns false.
func ParseRef(v any) (Ref, bool) {
	m, ok := v.(map[string]any)
	if !ok || len(m) != 1 {
		return Ref{}, false
	}
	for key, raw := range m {
		kind, known := refKeys[key]
		if !known {
			return Ref{}, false
		}
		if kind == RefIndex {
			return Ref{Kind: RefIndex}, true
		}
		path, isString := raw.(string)
		if !isString {
			return Ref{}, false
		}
		return Ref{Kind: kind, Path: path}, true
	}
	return Ref{}, false
}

// IsRef reports whether v parses as a value reference.
func IsRef(v any) bool {
	_, ok := ParseRef(v)
	return ok
}

// RefTagCount returns how many recognized tag keys v carries. Objects with
// more than one are ambiguous and flagged by the validator.
func RefTagCount(v any) int {
	m, ok := v.(map[string]any)
	if !ok {
		return 0
	}
	n := 0
	for key := range m {
		if _, known := refKeys[key]; known {
			n++
		}
	}
	return n
}

// Literal returns the reference in its document form.
func (r Ref) Literal() map[string]any {
	if r.Kind == RefIndex {
		return map[string]any{r.Kind.Key(): true}
	}
	return map[string]any{r.Kind.Key(): r.Path}
}

func (r Ref) String() string {
	if r.Kind == RefIndex {
		return r.Kind.Key()
	}
	return r.Kind.Key() + ":" + r.Path
}
