package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/roach88/mirc/internal/adapter"
	"github.com/roach88/mirc/internal/codegen"
	"github.com/roach88/mirc/internal/render"
	"github.com/roach88/mirc/internal/route"
	"github.com/roach88/mirc/internal/store"
)

// maxBodyBytes bounds request documents.
const maxBodyBytes = 8 << 20

// Options configures a Server.
type Options struct {
	// Registry resolves component tags. Nil means the React registry.
	Registry *adapter.Registry
	// Render holds defaults for /api/render. Manifest and Pages are taken
	// from the fields below.
	Render render.Options
	// Codegen holds defaults for /api/compile.
	Codegen codegen.Options
	// Manifest is used by /api/routes/match and Route nodes when a request
	// carries none.
	Manifest *route.Manifest
	Pages    render.PageSource
	// Archive, when set, stores compiled bundles on request.
	Archive *store.Store
	Logger  *slog.Logger
}

// Server is the preview HTTP service.
type Server struct {
	opts   Options
	logger *slog.Logger
	router chi.Router
	hub    *hub

	unsubscribe func()
}

// New builds a Server and subscribes it to icon provider events.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Registry == nil {
		opts.Registry = adapter.NewReactRegistry(nil).WithIcons(adapter.NewIconRegistry(logger))
	}
	opts.Render.Manifest = opts.Manifest
	opts.Render.Pages = opts.Pages
	opts.Render.Logger = logger
	if opts.Codegen.Type == "" {
		opts.Codegen.Type = codegen.BundleProject
	}
	opts.Codegen.Registry = opts.Registry
	opts.Codegen.Logger = logger

	s := &Server{
		opts:   opts,
		logger: logger,
		hub:    newHub(logger),
	}
	if icons := opts.Registry.Icons(); icons != nil {
		s.unsubscribe = icons.Subscribe(s.hub.broadcast)
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Route("/api", func(r chi.Router) {
		r.Post("/render", s.handleRender)
		r.Post("/compile", s.handleCompile)
		r.Post("/validate", s.handleValidate)
		r.Post("/routes/match", s.handleRouteMatch)
		r.Get("/icons", s.handleIcons)
		r.Post("/icons/{provider}/ensure", s.handleEnsureIcons)
		r.Get("/bundles", s.handleListBundles)
		r.Get("/bundles/{id}", s.handleGetBundle)
	})
	r.Get("/ws/icons", s.handleIconSocket)

	return r
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close stops broadcasting icon events and disconnects websocket clients.
func (s *Server) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
	s.hub.close()
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("preview server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve %s: %w", addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.logger.Info("preview server stopped")
	return nil
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
