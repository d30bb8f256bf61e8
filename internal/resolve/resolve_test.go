package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mirc/internal/mir"
)

func TestResolveOne_Tags(t *testing.T) {
	ctx := &Context{
		Params: map[string]any{"title": "Dashboard"},
		State:  map[string]any{"count": 3.0},
		Data:   map[string]any{"user": map[string]any{"name": "Ada"}},
		Item:   map[string]any{"name": "Alpha"},
		Index:  2,
	}

	assert.Equal(t, "Dashboard", ResolveOne(map[string]any{"$param": "title"}, ctx))
	assert.Equal(t, 3.0, ResolveOne(map[string]any{"$state": "count"}, ctx))
	assert.Equal(t, "Ada", ResolveOne(map[string]any{"$data": "user.name"}, ctx))
	assert.Equal(t, "Alpha", ResolveOne(map[string]any{"$item": "name"}, ctx))
	assert.Equal(t, 2, ResolveOne(map[string]any{"$index": true}, ctx))
	assert.Equal(t, 2, ResolveOne(map[string]any{"$index": "ignored.path"}, ctx))
}

func TestResolveOne_ItemName(t *testing.T) {
	got := ResolveOne(map[string]any{"$item": "name"}, &Context{Item: map[string]any{"name": "Alpha"}})
	assert.Equal(t, "Alpha", got)
}

func TestResolveOne_MissingPathIsNil(t *testing.T) {
	ctx := &Context{Data: map[string]any{"user": "flat"}}

	assert.NotPanics(t, func() {
		assert.Nil(t, ResolveOne(map[string]any{"$data": "user.name.first"}, ctx))
		assert.Nil(t, ResolveOne(map[string]any{"$data": "missing"}, ctx))
		assert.Nil(t, ResolveOne(map[string]any{"$param": "x"}, nil))
		assert.Nil(t, ResolveOne(map[string]any{"$item": "a[3]"}, &Context{Item: []any{}}))
		assert.Nil(t, ResolveOne(map[string]any{"$index": true}, &Context{}))
	})
}

func TestResolveOne_LiteralsUntouched(t *testing.T) {
	ambiguous := map[string]any{"$param": "a", "$state": "b"}
	assert.Equal(t, ambiguous, ResolveOne(ambiguous, &Context{}))
	assert.Equal(t, "plain", ResolveOne("plain", &Context{}))
	assert.Equal(t, 1.0, ResolveOne(1.0, &Context{}))
}

func TestResolveDeep_NestedStructures(t *testing.T) {
	ctx := &Context{Params: map[string]any{"a": "A"}, Item: map[string]any{"b": "B"}}
	input := map[string]any{
		"x":    map[string]any{"$param": "a"},
		"list": []any{map[string]any{"$item": "b"}, "lit"},
		"deep": map[string]any{"y": map[string]any{"$param": "a"}},
	}

	got := ResolveDeep(input, ctx, 0)
	assert.Equal(t, map[string]any{
		"x":    "A",
		"list": []any{"B", "lit"},
		"deep": map[string]any{"y": "A"},
	}, got)

	// input untouched
	assert.Equal(t, map[string]any{"$param": "a"}, input["x"])
}

func TestResolveDeep_DepthCapLeavesValuesUnresolved(t *testing.T) {
	ref := map[string]any{"$param": "a"}
	input := map[string]any{"l1": map[string]any{"l2": map[string]any{"l3": ref}}}
	ctx := &Context{Params: map[string]any{"a": "A"}}

	got := ResolveDeep(input, ctx, 2).(map[string]any)
	l3 := got["l1"].(map[string]any)["l2"].(map[string]any)["l3"]
	assert.Equal(t, ref, l3, "values beyond the cap are kept, not erased")

	got = ResolveDeep(input, ctx, 3).(map[string]any)
	l3 = got["l1"].(map[string]any)["l2"].(map[string]any)["l3"]
	assert.Equal(t, "A", l3)
}

func TestResolveDeep_ResolvedValueNotReResolved(t *testing.T) {
	ctx := &Context{Params: map[string]any{"a": map[string]any{"$param": "b"}, "b": "B"}}
	got := ResolveDeep(map[string]any{"$param": "a"}, ctx, 0)
	assert.Equal(t, map[string]any{"$param": "b"}, got)
}

func TestResolveMap_SingleTagKeyMapIsNotARef(t *testing.T) {
	props := map[string]any{"$param": "title"}
	got := ResolveMap(props, &Context{Params: map[string]any{"title": "T"}}, 0)
	assert.Equal(t, map[string]any{"$param": "title"}, got)
	assert.Nil(t, ResolveMap(nil, nil, 0))
}

func TestLookup_PathSyntax(t *testing.T) {
	root := map[string]any{
		"items": []any{
			map[string]any{"name": "first"},
			map[string]any{"name": "second", "tags": []any{"x", "y"}},
		},
	}

	testCases := []struct {
		path  string
		want  any
		found bool
	}{
		{"items[0].name", "first", true},
		{"items.1.name", "second", true},
		{"items[1].tags[1]", "y", true},
		{"items[2].name", nil, false},
		{"items[-1]", nil, false},
		{"items.name", nil, false},
		{"items..name", nil, false},
		{"items[0", nil, false},
		{".items[0].name", "first", true},
	}

	for _, tc := range testCases {
		t.Run(tc.path, func(t *testing.T) {
			got, found := Lookup(root, tc.path)
			assert.Equal(t, tc.found, found)
			assert.Equal(t, tc.want, got)
		})
	}

	whole, found := Lookup(root, "")
	assert.True(t, found)
	assert.Equal(t, root, whole)
}

func TestParsePath_Segments(t *testing.T) {
	segs, ok := ParsePath("a.b[3].c")
	require.True(t, ok)
	assert.Equal(t, []Segment{
		{Key: "a"},
		{Key: "b"},
		{Key: "3", Index: 3, IsIndex: true},
		{Key: "c"},
	}, segs)

	segs, ok = ParsePath("map[key]")
	require.True(t, ok)
	assert.Equal(t, []Segment{{Key: "map"}, {Key: "key"}}, segs)
}

func TestContext_WithItemAliases(t *testing.T) {
	base := &Context{Data: map[string]any{"title": "T"}}
	child := base.WithItem(map[string]any{"id": "a"}, 4, "row", "i")

	assert.Equal(t, 4, child.Index)
	assert.Equal(t, "a", ResolveOne(map[string]any{"$data": "row.id"}, child))
	assert.Equal(t, 4, ResolveOne(map[string]any{"$data": "i"}, child))
	assert.Equal(t, "T", ResolveOne(map[string]any{"$data": "title"}, child))

	// parent scope is not modified
	assert.NotContains(t, base.Data.(map[string]any), "row")
	assert.Nil(t, base.Index)
}

func TestRef_UnknownKind(t *testing.T) {
	assert.Nil(t, Ref(mir.Ref{}, &Context{}))
}
