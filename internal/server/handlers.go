package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/roach88/mirc/internal/adapter"
	"github.com/roach88/mirc/internal/codegen"
	"github.com/roach88/mirc/internal/compiler"
	"github.com/roach88/mirc/internal/mir"
	"github.com/roach88/mirc/internal/render"
	"github.com/roach88/mirc/internal/route"
	"github.com/roach88/mirc/internal/store"
)

// Response is the envelope every endpoint returns.
type Response struct {
	Status string    `json:"status"`
	Data   any       `json:"data,omitempty"`
	Error  *APIError `json:"error,omitempty"`
}

// APIError is the error payload of a failed request.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

const (
	errBadRequest      = "BAD_REQUEST"
	errInvalidDocument = "INVALID_DOCUMENT"
	errNotFound        = "NOT_FOUND"
	errProviderFailed  = "PROVIDER_FAILED"
	errInternal        = "INTERNAL"
)

func writeJSON(w http.ResponseWriter, status int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.Encode(resp)
}

func writeOK(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, Response{Status: "ok", Data: data})
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, Response{Status: "error", Error: &APIError{Code: code, Message: msg}})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, errBadRequest, fmt.Sprintf("decode request: %v", err))
		return false
	}
	return true
}

// rawDocument parses a request document without migrating it.
func rawDocument(data json.RawMessage) (map[string]any, error) {
	if len(bytes.TrimSpace(data)) == 0 || bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil, errors.New("document is required")
	}
	return mir.Parse(data, mir.FormatJSON)
}

// document parses, migrates and decodes a request document.
func document(data json.RawMessage) (*mir.Document, error) {
	raw, err := rawDocument(data)
	if err != nil {
		return nil, err
	}
	migrated, _ := mir.Migrate(raw)
	return mir.FromRaw(migrated)
}

type renderRequest struct {
	Document         json.RawMessage `json:"document"`
	Params           map[string]any  `json:"params,omitempty"`
	State            map[string]any  `json:"state,omitempty"`
	Data             any             `json:"data,omitempty"`
	CurrentPath      string          `json:"currentPath,omitempty"`
	Preview          *bool           `json:"preview,omitempty"`
	RequireSelection *bool           `json:"requireSelection,omitempty"`
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	var req renderRequest
	if !decodeBody(w, r, &req) {
		return
	}
	doc, err := document(req.Document)
	if err != nil {
		writeError(w, http.StatusBadRequest, errInvalidDocument, err.Error())
		return
	}

	opts := s.opts.Render
	if req.Preview != nil {
		opts.Preview = *req.Preview
	}
	if req.RequireSelection != nil {
		opts.RequireSelection = *req.RequireSelection
	}

	view := render.New(s.opts.Registry, opts).Render(doc, render.Input{
		Params:      req.Params,
		State:       req.State,
		Data:        req.Data,
		CurrentPath: req.CurrentPath,
	})
	writeOK(w, view)
}

type compileRequest struct {
	Document      json.RawMessage `json:"document"`
	Type          string          `json:"type,omitempty"`
	ComponentName string          `json:"componentName,omitempty"`
	Archive       bool            `json:"archive,omitempty"`
}

type compileResponse struct {
	Bundle   *codegen.Bundle `json:"bundle"`
	Archived bool            `json:"archived"`
}

func (s *Server) handleCompile(w http.ResponseWriter, r *http.Request) {
	var req compileRequest
	if !decodeBody(w, r, &req) {
		return
	}
	doc, err := document(req.Document)
	if err != nil {
		writeError(w, http.StatusBadRequest, errInvalidDocument, err.Error())
		return
	}

	opts := s.opts.Codegen
	if req.Type != "" {
		typ, err := codegen.ParseBundleType(req.Type)
		if err != nil {
			writeError(w, http.StatusBadRequest, errBadRequest, err.Error())
			return
		}
		opts.Type = typ
	}
	if req.ComponentName != "" {
		opts.ComponentName = req.ComponentName
	}

	bundle := codegen.New(opts).Generate(doc)
	resp := compileResponse{Bundle: bundle}

	if req.Archive {
		if s.opts.Archive == nil {
			writeError(w, http.StatusNotFound, errNotFound, "bundle archive is not configured")
			return
		}
		if _, err := s.opts.Archive.PutBundle(r.Context(), bundle); err != nil {
			s.logger.Error("archive bundle", "id", bundle.ID, "error", err)
			writeError(w, http.StatusInternalServerError, errInternal, err.Error())
			return
		}
		resp.Archived = true
	}
	writeOK(w, resp)
}

type validateRequest struct {
	Document json.RawMessage `json:"document"`
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	raw, err := rawDocument(req.Document)
	if err != nil {
		writeError(w, http.StatusBadRequest, errInvalidDocument, err.Error())
		return
	}
	writeOK(w, compiler.Validate(raw))
}

type routeMatchRequest struct {
	Manifest json.RawMessage `json:"manifest,omitempty"`
	Path     string          `json:"path"`
	Prefix   bool            `json:"prefix,omitempty"`
}

type routeMatchResponse struct {
	route.Outcome
	Diagnostics []mir.Diagnostic `json:"diagnostics,omitempty"`
}

func (s *Server) handleRouteMatch(w http.ResponseWriter, r *http.Request) {
	var req routeMatchRequest
	if !decodeBody(w, r, &req) {
		return
	}

	manifest := s.opts.Manifest
	if len(req.Manifest) > 0 {
		m, err := route.DecodeManifest(req.Manifest, mir.FormatJSON)
		if err != nil {
			writeError(w, http.StatusBadRequest, errBadRequest, err.Error())
			return
		}
		manifest = m
	}
	if manifest == nil || manifest.Root == nil {
		writeError(w, http.StatusNotFound, errNotFound, "no route manifest")
		return
	}

	resp := routeMatchResponse{
		Outcome:     manifest.Resolve(req.Path, req.Prefix),
		Diagnostics: manifest.Check(),
	}
	writeOK(w, resp)
}

func (s *Server) iconEvents() []adapter.ProviderEvent {
	icons := s.opts.Registry.Icons()
	if icons == nil {
		return []adapter.ProviderEvent{}
	}
	out := []adapter.ProviderEvent{}
	for _, id := range icons.Providers() {
		state, _ := icons.State(id)
		out = append(out, adapter.ProviderEvent{Provider: id, State: state})
	}
	return out
}

func (s *Server) handleIcons(w http.ResponseWriter, r *http.Request) {
	writeOK(w, s.iconEvents())
}

func (s *Server) handleEnsureIcons(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "provider")
	icons := s.opts.Registry.Icons()
	if icons == nil {
		writeError(w, http.StatusNotFound, errNotFound, fmt.Sprintf("icon provider %q is not registered", id))
		return
	}
	if _, ok := icons.State(id); !ok {
		writeError(w, http.StatusNotFound, errNotFound, fmt.Sprintf("icon provider %q is not registered", id))
		return
	}

	if err := icons.Ensure(r.Context(), id); err != nil {
		writeError(w, http.StatusBadGateway, errProviderFailed, err.Error())
		return
	}
	state, _ := icons.State(id)
	writeOK(w, adapter.ProviderEvent{Provider: id, State: state})
}

func (s *Server) handleListBundles(w http.ResponseWriter, r *http.Request) {
	if s.opts.Archive == nil {
		writeError(w, http.StatusNotFound, errNotFound, "bundle archive is not configured")
		return
	}
	list, err := s.opts.Archive.ListBundles(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, errInternal, err.Error())
		return
	}
	writeOK(w, list)
}

func (s *Server) handleGetBundle(w http.ResponseWriter, r *http.Request) {
	if s.opts.Archive == nil {
		writeError(w, http.StatusNotFound, errNotFound, "bundle archive is not configured")
		return
	}
	b, err := s.opts.Archive.GetBundle(r.Context(), chi.URLParam(r, "id"))
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, errNotFound, err.Error())
	case err != nil:
		writeError(w, http.StatusInternalServerError, errInternal, err.Error())
	default:
		writeOK(w, b)
	}
}

func (s *Server) handleIconSocket(w http.ResponseWriter, r *http.Request) {
	s.hub.serve(w, r, s.iconEvents)
}
