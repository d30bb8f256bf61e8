package cli

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/mirc/internal/adapter"
	"github.com/roach88/mirc/internal/config"
	"github.com/roach88/mirc/internal/mir"
	"github.com/roach88/mirc/internal/render"
	"github.com/roach88/mirc/internal/route"
	"github.com/roach88/mirc/internal/store"
)

// env is what every command shares once flags are parsed.
type env struct {
	cfg      *config.Config
	logger   *slog.Logger
	registry *adapter.Registry
}

// loadEnv reads the configuration and builds the logger and adapter registry.
func (o *RootOptions) loadEnv(cmd *cobra.Command) (*env, error) {
	return o.loadEnvLevel(cmd, slog.LevelWarn)
}

// loadEnvLevel is loadEnv with a minimum log level for non-verbose runs.
func (o *RootOptions) loadEnvLevel(cmd *cobra.Command, level slog.Level) (*env, error) {
	cfg, err := config.Load(o.Config)
	if err != nil {
		return nil, err
	}
	logger := newLogger(cmd.ErrOrStderr(), o.Verbose, level)
	return &env{
		cfg:      cfg,
		logger:   logger,
		registry: cfg.Registry(logger),
	}, nil
}

// newLogger logs to w at level, or at debug level when verbose.
func newLogger(w io.Writer, verbose bool, level slog.Level) *slog.Logger {
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// isDocumentFile reports whether path has a document extension.
func isDocumentFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}

// loadPages reads every document in dir keyed by file name without
// extension. An empty dir yields no pages.
func loadPages(dir string) (render.PageMap, error) {
	pages := render.PageMap{}
	if dir == "" {
		return pages, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read pages directory: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || !isDocumentFile(e.Name()) {
			continue
		}
		doc, err := mir.LoadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		id := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		pages[id] = doc
	}
	return pages, nil
}

// loadManifest reads an optional route manifest.
func loadManifest(path string) (*route.Manifest, error) {
	if path == "" {
		return nil, nil
	}
	return route.LoadManifest(path)
}

// readInput reads an optional render input file (params, state, data,
// currentPath) in JSON or YAML.
func readInput(path string) (render.Input, error) {
	var in render.Input
	if path == "" {
		return in, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return in, fmt.Errorf("read input: %w", err)
	}
	raw, err := mir.Parse(data, mir.FormatFromPath(path))
	if err != nil {
		return in, fmt.Errorf("%s: %w", path, err)
	}
	in.Params, _ = raw["params"].(map[string]any)
	in.State, _ = raw["state"].(map[string]any)
	in.Data = raw["data"]
	in.CurrentPath, _ = raw["currentPath"].(string)
	return in, nil
}

// openArchive opens the configured bundle archive, creating its directory.
func (e *env) openArchive() (*store.Store, error) {
	path := e.cfg.Resolve(e.cfg.Archive.Path)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create archive directory: %w", err)
	}
	return store.Open(path, store.WithLogger(e.logger))
}

// loadErrCode picks the envelope code for a failed file load.
func loadErrCode(err error) string {
	if errors.Is(err, fs.ErrNotExist) {
		return ErrCodeNotFound
	}
	return ErrCodeDecode
}
