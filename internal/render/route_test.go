package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mirc/internal/mir"
	"github.com/roach88/mirc/internal/route"
)

func appManifest() *route.Manifest {
	return &route.Manifest{
		Version: "1",
		Root: &route.Node{
			ID:           route.RootID,
			LayoutDocID:  "shell",
			OutletNodeID: "main",
			Children: []*route.Node{
				{ID: "home", Index: true, PageDocID: "home"},
				{ID: "user", Segment: "users/:id", PageDocID: "user"},
			},
		},
	}
}

func appPages() PageMap {
	return PageMap{
		"shell": doc(&mir.ComponentNode{
			ID: "frame", Type: "div",
			Children: []*mir.ComponentNode{
				{ID: "nav", Type: "nav"},
				{ID: "main", Type: "main"},
			},
		}),
		"home": doc(&mir.ComponentNode{ID: "welcome", Type: "h1", Text: "Home"}),
		"user": doc(&mir.ComponentNode{
			ID: "profile", Type: "section",
			Text: map[string]any{"$param": "id"},
			Children: []*mir.ComponentNode{{
				ID: "tabs", Type: RouteTag,
				Props: map[string]any{"routeId": "tabs"},
			}},
		}),
	}
}

func hostDoc() *mir.Document {
	return doc(&mir.ComponentNode{
		ID: "app", Type: "div",
		Children: []*mir.ComponentNode{
			{ID: "banner", Type: "header"},
			{ID: "router", Type: RouteTag},
		},
	})
}

func TestRender_RouteWrapsPageInLayout(t *testing.T) {
	r := New(nil, Options{Manifest: appManifest(), Pages: appPages()})

	view := r.Render(hostDoc(), Input{CurrentPath: "/users/7"})

	router, ok := view.Lookup("router")
	require.True(t, ok)
	assert.Equal(t, "user", router.Props["data-route-id"])

	main, ok := view.Lookup("router/shell/main")
	require.True(t, ok)
	require.Len(t, main.Children, 1)
	profile := main.Children[0]
	assert.Equal(t, "router/user/profile", profile.Key)
	assert.Equal(t, "7", profile.Text)

	_, ok = view.Lookup("banner")
	assert.True(t, ok, "content outside Route nodes always renders")
}

func TestRender_RouteIndex(t *testing.T) {
	r := New(nil, Options{Manifest: appManifest(), Pages: appPages(), CurrentPath: "/"})

	view := r.Render(hostDoc(), Input{})

	welcome, ok := view.Lookup("router/home/welcome")
	require.True(t, ok)
	assert.Equal(t, "Home", welcome.Text)
}

func TestRender_RouteNoMatchRendersNothing(t *testing.T) {
	r := New(nil, Options{Manifest: appManifest(), Pages: appPages()})

	view := r.Render(hostDoc(), Input{CurrentPath: "/settings"})

	assert.Equal(t, []string{"app", "banner"}, view.Keys())
	assert.Empty(t, view.Diagnostics)
}

func TestRender_NestedRouteUsesRemainder(t *testing.T) {
	m := appManifest()
	m.Root.Children = append(m.Root.Children, &route.Node{
		ID: "tabs",
		Children: []*route.Node{
			{ID: "tab-posts", Segment: "posts", PageDocID: "posts"},
		},
	})
	pages := appPages()
	pages["posts"] = doc(&mir.ComponentNode{ID: "list", Type: "ul"})

	view := New(nil, Options{Manifest: m, Pages: pages}).Render(hostDoc(), Input{CurrentPath: "/users/7/posts"})

	tabs, ok := view.Lookup("router/user/tabs")
	require.True(t, ok)
	assert.Equal(t, "/posts", tabs.Props["data-route-path"])
	_, ok = view.Lookup("router/user/tabs/posts/list")
	assert.True(t, ok)
}

func TestRender_ExplicitCurrentPath(t *testing.T) {
	d := doc(&mir.ComponentNode{
		ID: "router", Type: RouteTag,
		Props: map[string]any{"currentPath": map[string]any{"$param": "path"}},
	})
	r := New(nil, Options{Manifest: appManifest(), Pages: appPages(), CurrentPath: "/"})

	view := r.Render(d, Input{Params: map[string]any{"path": "/users/9"}})

	profile, ok := view.Lookup("router/user/profile")
	require.True(t, ok)
	assert.Equal(t, "9", profile.Text)
}

func TestRender_RouteDiagnostics(t *testing.T) {
	view := New(nil, Options{}).Render(hostDoc(), Input{})
	assert.Equal(t, []string{CodeRouteNoManifest}, mir.Codes(view.Diagnostics))

	d := hostDoc()
	d.UI.Root.Children[1].Props = map[string]any{"routeId": "ghost"}
	view = New(nil, Options{Manifest: appManifest()}).Render(d, Input{})
	assert.Equal(t, []string{CodeRouteNotFound}, mir.Codes(view.Diagnostics))

	view = New(nil, Options{Manifest: appManifest(), Pages: PageMap{}}).Render(hostDoc(), Input{CurrentPath: "/users/1"})
	assert.Equal(t, []string{CodePageNotFound, CodePageNotFound}, mir.Codes(view.Diagnostics))
}
