package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mirc/internal/adapter"
	"github.com/roach88/mirc/internal/codegen"
	"github.com/roach88/mirc/internal/compiler"
	"github.com/roach88/mirc/internal/mir"
	"github.com/roach88/mirc/internal/store"
)

const cardDoc = `{
	"version": "1.2",
	"metadata": {"name": "Card"},
	"ui": {"root": {"id": "root", "type": "div", "text": {"$param": "title"}}},
	"logic": {"props": {"title": {"type": "string", "defaultValue": "Hello"}}}
}`

type envelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	Error  *APIError       `json:"error"`
}

func newTestServer(t *testing.T, opts Options) (*Server, *httptest.Server) {
	t.Helper()
	s := New(opts)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		ts.Close()
		s.Close()
	})
	return s, ts
}

func post(t *testing.T, ts *httptest.Server, path, body string) (int, envelope) {
	t.Helper()
	resp, err := http.Post(ts.URL+path, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func get(t *testing.T, ts *httptest.Server, path string) (int, envelope) {
	t.Helper()
	resp, err := http.Get(ts.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func TestRender(t *testing.T) {
	_, ts := newTestServer(t, Options{})

	status, env := post(t, ts, "/api/render", `{"document": `+cardDoc+`, "params": {"title": "Hi"}}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", env.Status)

	var view struct {
		Root struct {
			Key     string `json:"key"`
			Element string `json:"element"`
			Text    string `json:"text"`
		} `json:"root"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.Equal(t, "root", view.Root.Key)
	assert.Equal(t, "div", view.Root.Element)
	assert.Equal(t, "Hi", view.Root.Text)
}

func TestRender_MistypedFieldsDegrade(t *testing.T) {
	_, ts := newTestServer(t, Options{})

	body := `{"document": {"version": "1.2", "ui": {"root": {"id": 3, "type": "div", "text": "Hi", "style": "color:red"}}}}`
	status, env := post(t, ts, "/api/render", body)
	require.Equal(t, http.StatusOK, status)

	var view struct {
		Root struct {
			Key  string `json:"key"`
			Text string `json:"text"`
		} `json:"root"`
		Diagnostics []mir.Diagnostic `json:"diagnostics"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.Equal(t, "3", view.Root.Key)
	assert.Equal(t, "Hi", view.Root.Text)
	assert.Equal(t, []string{mir.CodeNodeFieldInvalid, mir.CodeNodeFieldInvalid}, mir.Codes(view.Diagnostics))
}

func TestRender_BadRequests(t *testing.T) {
	_, ts := newTestServer(t, Options{})

	tests := []struct {
		name string
		body string
		code string
	}{
		{name: "not json", body: `{`, code: errBadRequest},
		{name: "missing document", body: `{}`, code: errInvalidDocument},
		{name: "document is not an object", body: `{"document": ["ui"]}`, code: errInvalidDocument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, env := post(t, ts, "/api/render", tt.body)
			assert.Equal(t, http.StatusBadRequest, status)
			assert.Equal(t, "error", env.Status)
			require.NotNil(t, env.Error)
			assert.Equal(t, tt.code, env.Error.Code)
		})
	}
}

func TestCompile(t *testing.T) {
	_, ts := newTestServer(t, Options{Codegen: codegen.Options{Type: codegen.BundleProject}})

	status, env := post(t, ts, "/api/compile", `{"document": `+cardDoc+`, "type": "component"}`)
	require.Equal(t, http.StatusOK, status)

	var resp compileResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	assert.Equal(t, codegen.BundleComponent, resp.Bundle.Type)
	assert.Equal(t, "src/Card.tsx", resp.Bundle.EntryFilePath)
	assert.False(t, resp.Archived)

	status, env = post(t, ts, "/api/compile", `{"document": `+cardDoc+`, "type": "zip"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, errBadRequest, env.Error.Code)

	status, env = post(t, ts, "/api/compile", `{"document": `+cardDoc+`, "archive": true}`)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, errNotFound, env.Error.Code)
}

func TestCompile_Archive(t *testing.T) {
	archive, err := store.Open(filepath.Join(t.TempDir(), "archive.db"))
	require.NoError(t, err)
	t.Cleanup(func() { archive.Close() })
	_, ts := newTestServer(t, Options{Archive: archive})

	status, env := post(t, ts, "/api/compile", `{"document": `+cardDoc+`, "archive": true}`)
	require.Equal(t, http.StatusOK, status)
	var resp compileResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	assert.True(t, resp.Archived)

	status, env = get(t, ts, "/api/bundles")
	require.Equal(t, http.StatusOK, status)
	var list []store.Summary
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list, 1)
	assert.Equal(t, resp.Bundle.ID, list[0].ID)

	status, env = get(t, ts, "/api/bundles/"+resp.Bundle.ID)
	require.Equal(t, http.StatusOK, status)
	var got codegen.Bundle
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, resp.Bundle.Paths(), got.Paths())

	status, _ = get(t, ts, "/api/bundles/nope")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestValidate(t *testing.T) {
	_, ts := newTestServer(t, Options{})

	status, env := post(t, ts, "/api/validate", `{"document": {"version": "1.2", "ui": {"root": {"id": "root", "type": "ul", "list": {"emptyNodeId": "gone"}}}}}`)
	require.Equal(t, http.StatusOK, status)

	var res compiler.Result
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.True(t, res.HasError)
	assert.Equal(t, []string{compiler.CodeListEmptyNodeNotFound}, res.Codes())
}

func TestRouteMatch(t *testing.T) {
	_, ts := newTestServer(t, Options{})
	manifest := `{"version": "1", "root": {"id": "root", "layoutDocId": "shell", "children": [
		{"id": "users", "segment": "users/:id", "pageDocId": "user"},
		{"id": "home", "index": true, "pageDocId": "home"}
	]}}`

	status, env := post(t, ts, "/api/routes/match", `{"manifest": `+manifest+`, "path": "/users/42?tab=1"}`)
	require.Equal(t, http.StatusOK, status)
	var resp routeMatchResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	assert.True(t, resp.Matched)
	assert.Equal(t, []string{"root", "users"}, resp.Routes)
	assert.Equal(t, map[string]string{"id": "42"}, resp.Params)
	assert.Equal(t, "user", resp.Page)
	assert.Equal(t, []string{"shell"}, resp.Layouts)

	_, env = post(t, ts, "/api/routes/match", `{"manifest": `+manifest+`, "path": "/nowhere"}`)
	resp = routeMatchResponse{}
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	assert.False(t, resp.Matched)

	status, _ = post(t, ts, "/api/routes/match", `{"path": "/"}`)
	assert.Equal(t, http.StatusNotFound, status)
}

func iconRegistry(loader adapter.Loader) *adapter.Registry {
	icons := adapter.NewIconRegistry(nil)
	icons.Register("lucide", loader)
	return adapter.NewReactRegistry(nil).WithIcons(icons)
}

func TestEnsureIcons(t *testing.T) {
	reg := iconRegistry(func(context.Context) (adapter.IconSet, error) {
		return adapter.IconSet{Source: "lucide-react", Icons: map[string]string{"heart": "Heart"}}, nil
	})
	_, ts := newTestServer(t, Options{Registry: reg})

	status, env := get(t, ts, "/api/icons")
	require.Equal(t, http.StatusOK, status)
	var states []adapter.ProviderEvent
	require.NoError(t, json.Unmarshal(env.Data, &states))
	assert.Equal(t, []adapter.ProviderEvent{{Provider: "lucide", State: adapter.StateIdle}}, states)

	status, env = post(t, ts, "/api/icons/lucide/ensure", ``)
	require.Equal(t, http.StatusOK, status)
	var ev adapter.ProviderEvent
	require.NoError(t, json.Unmarshal(env.Data, &ev))
	assert.Equal(t, adapter.StateReady, ev.State)

	status, _ = post(t, ts, "/api/icons/feather/ensure", ``)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestEnsureIcons_LoadFailure(t *testing.T) {
	reg := iconRegistry(func(context.Context) (adapter.IconSet, error) {
		return adapter.IconSet{}, errors.New("offline")
	})
	_, ts := newTestServer(t, Options{Registry: reg})

	status, env := post(t, ts, "/api/icons/lucide/ensure", ``)
	assert.Equal(t, http.StatusBadGateway, status)
	assert.Equal(t, errProviderFailed, env.Error.Code)
	assert.Contains(t, env.Error.Message, "offline")
}

func TestIconSocket_StreamsProviderEvents(t *testing.T) {
	release := make(chan struct{})
	reg := iconRegistry(func(context.Context) (adapter.IconSet, error) {
		<-release
		return adapter.IconSet{Source: "lucide-react"}, nil
	})
	s, ts := newTestServer(t, Options{Registry: reg})

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/icons"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	read := func() adapter.ProviderEvent {
		t.Helper()
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)
		var ev adapter.ProviderEvent
		require.NoError(t, json.Unmarshal(data, &ev))
		return ev
	}

	assert.Equal(t, adapter.ProviderEvent{Provider: "lucide", State: adapter.StateIdle}, read())
	require.Eventually(t, func() bool { return s.hub.count() == 1 }, time.Second, 10*time.Millisecond)

	done := make(chan struct{})
	go func() {
		defer close(done)
		resp, err := http.Post(ts.URL+"/api/icons/lucide/ensure", "application/json", bytes.NewReader(nil))
		if err == nil {
			resp.Body.Close()
		}
	}()

	assert.Equal(t, adapter.StateLoading, read().State)
	close(release)
	assert.Equal(t, adapter.StateReady, read().State)
	<-done
}

func TestIconSocket_RegistersBeforeSnapshot(t *testing.T) {
	h := newHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
	registered := make(chan int, 1)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.serve(w, r, func() []adapter.ProviderEvent {
			// Runs under h.mu.
			registered <- len(h.clients)
			return []adapter.ProviderEvent{{Provider: "lucide", State: adapter.StateIdle}}
		})
	}))
	t.Cleanup(func() {
		h.close()
		ts.Close()
	})

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	select {
	case n := <-registered:
		assert.Equal(t, 1, n)
	case <-time.After(2 * time.Second):
		t.Fatal("snapshot was never taken")
	}

	h.broadcast(adapter.ProviderEvent{Provider: "lucide", State: adapter.StateLoading})

	var states []adapter.ProviderState
	for range 2 {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)
		var ev adapter.ProviderEvent
		require.NoError(t, json.Unmarshal(data, &ev))
		states = append(states, ev.State)
	}
	assert.Equal(t, []adapter.ProviderState{adapter.StateIdle, adapter.StateLoading}, states)
}

func TestClose_DisconnectsClients(t *testing.T) {
	s, ts := newTestServer(t, Options{})

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/icons"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return s.hub.count() == 1 }, time.Second, 10*time.Millisecond)

	s.Close()

	assert.Equal(t, 0, s.hub.count())
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = conn.ReadMessage()
	assert.Error(t, err)
}
