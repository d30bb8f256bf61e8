package scope

import (
	"fmt"
	"strconv"

	"github.com/roach88/mirc/internal/mir"
	"github.com/roach88/mirc/internal/resolve"
)

// SourceKind records where a list's source value came from.
type SourceKind string

const (
	SourceRef       SourceKind = "source"
	SourceField     SourceKind = "arrayField"
	SourceInherited SourceKind = "inherited"
)

// ListSource resolves the value a list iterates over, by priority:
// explicit list.source reference, list.arrayField against the scoped data,
// then the scoped data itself (the parent's already-resolved array).
//
// The value is returned as found; callers use Items to test for an array.
func ListSource(list *mir.ListConfig, scoped any, ctx *resolve.Context) (any, SourceKind) {
	if list == nil {
		return nil, SourceInherited
	}
	if ref, ok := mir.ParseRef(list.Source); ok {
		return resolve.Ref(ref, ctx), SourceRef
	}
	if field := list.ArrayFieldPath(); field != "" {
		v, _ := resolve.Lookup(scoped, field)
		return v, SourceField
	}
	return scoped, SourceInherited
}

// Items returns v as a slice. Anything that is not an array is an empty list.
func Items(v any) ([]any, bool) {
	items, ok := v.([]any)
	return items, ok
}

// Entry is one list iteration.
type Entry struct {
	Key     string
	Index   int
	Item    any
	Context *resolve.Context
}

// Iterate builds one child context per item, exposing $item/$index and the
// declared itemAs/indexAs aliases.
//
// Keys come from the keyBy path when it yields a value, else from the index.
// Index keys are not stable when items are reordered; that is the current,
// documented behavior.
func Iterate(list *mir.ListConfig, items []any, ctx *resolve.Context) []Entry {
	if len(items) == 0 {
		return nil
	}
	keyPath := list.KeyPath()
	itemAs := list.ItemAlias()
	indexAs := list.IndexAlias()

	entries := make([]Entry, len(items))
	for i, item := range items {
		key := strconv.Itoa(i)
		if keyPath != "" {
			if v, ok := resolve.Lookup(item, keyPath); ok && v != nil {
				key = FormatKey(v)
			}
		}
		entries[i] = Entry{
			Key:     key,
			Index:   i,
			Item:    item,
			Context: ctx.WithItem(item, i, itemAs, indexAs),
		}
	}
	return entries
}

// FormatKey renders a key value as a string. Integral numbers drop the
// fractional part so 1.0 keys as "1".
func FormatKey(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		if val == float64(int64(val)) {
			return strconv.FormatInt(int64(val), 10)
		}
		return strconv.FormatFloat(val, 'g', -1, 64)
	case int:
		return strconv.Itoa(val)
	default:
		return fmt.Sprint(val)
	}
}
