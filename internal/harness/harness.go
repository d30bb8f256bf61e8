package harness

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/mirc/internal/adapter"
	"github.com/roach88/mirc/internal/codegen"
	"github.com/roach88/mirc/internal/compiler"
	"github.com/roach88/mirc/internal/mir"
	"github.com/roach88/mirc/internal/render"
	"github.com/roach88/mirc/internal/route"
)

// Harness is the scenario execution engine.
type Harness struct {
	registry *adapter.Registry
	logger   *slog.Logger
}

// Option configures a Harness.
type Option func(*Harness)

// WithRegistry sets the adapter registry, e.g. one carrying project
// adapters from mirc.yaml.
func WithRegistry(r *adapter.Registry) Option {
	return func(h *Harness) { h.registry = r }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(h *Harness) {
		if l != nil {
			h.logger = l
		}
	}
}

// New creates a Harness.
func New(opts ...Option) *Harness {
	h := &Harness{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.registry == nil {
		h.registry = adapter.NewReactRegistry(nil)
	}
	return h
}

// Run executes a scenario with a default Harness.
func Run(scenario *Scenario) (*Result, error) {
	return New().Run(scenario)
}

// Run executes a scenario and evaluates its assertions.
//
// Errors are returned for scenarios that cannot run (missing or undecodable
// files). Assertion failures are reported in the Result.
func (h *Harness) Run(s *Scenario) (*Result, error) {
	result := NewResult(s.Name)

	var err error
	switch s.Mode {
	case ModeRender:
		err = h.runRender(s, result)
	case ModeCompile:
		err = h.runCompile(s, result)
	case ModeValidate:
		err = h.runValidate(s, result)
	case ModeRoute:
		err = h.runRoute(s, result)
	default:
		err = fmt.Errorf("unknown mode %q", s.Mode)
	}
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", s.Name, err)
	}

	for _, msg := range EvaluateAssertions(result, s.Assertions) {
		result.AddError(msg)
	}

	h.logger.Debug("scenario finished",
		"name", s.Name,
		"mode", s.Mode,
		"pass", result.Pass,
		"diagnostics", len(result.Diagnostics))
	return result, nil
}

// RunAll executes scenarios in order. It stops at the first scenario that
// cannot run.
func (h *Harness) RunAll(scenarios []*Scenario) ([]*Result, error) {
	results := make([]*Result, 0, len(scenarios))
	for _, s := range scenarios {
		r, err := h.Run(s)
		if err != nil {
			return results, err
		}
		results = append(results, r)
	}
	return results, nil
}

// rawDocument loads the scenario document without migrating it.
func (s *Scenario) rawDocument() (map[string]any, error) {
	if s.Document == "" {
		// Re-parse so YAML integers and maps follow the JSON value model.
		data, err := yaml.Marshal(s.Doc)
		if err != nil {
			return nil, fmt.Errorf("marshal inline doc: %w", err)
		}
		return mir.Parse(data, mir.FormatYAML)
	}
	path := s.resolve(s.Document)
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	raw, err := mir.Parse(data, mir.FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return raw, nil
}

func (s *Scenario) document() (*mir.Document, error) {
	raw, err := s.rawDocument()
	if err != nil {
		return nil, err
	}
	migrated, _ := mir.Migrate(raw)
	return mir.FromRaw(migrated)
}

func (s *Scenario) manifest() (*route.Manifest, error) {
	if s.Manifest == "" {
		return nil, nil
	}
	return route.LoadManifest(s.resolve(s.Manifest))
}

func (s *Scenario) pages() (render.PageMap, error) {
	pages := render.PageMap{}
	for id, path := range s.Pages {
		doc, err := mir.LoadFile(s.resolve(path))
		if err != nil {
			return nil, err
		}
		pages[id] = doc
	}
	return pages, nil
}

func (h *Harness) runRender(s *Scenario, result *Result) error {
	doc, err := s.document()
	if err != nil {
		return err
	}
	manifest, err := s.manifest()
	if err != nil {
		return err
	}
	pages, err := s.pages()
	if err != nil {
		return err
	}

	view := render.New(h.registry, render.Options{
		Preview:          s.Input.Preview,
		RequireSelection: s.Input.RequireSelection,
		CurrentPath:      s.Input.CurrentPath,
		Manifest:         manifest,
		Pages:            pages,
		Logger:           h.logger,
	}).Render(doc, render.Input{
		Params: s.Input.Params,
		State:  s.Input.State,
		Data:   s.Input.Data,
	})
	result.View = view
	result.Diagnostics = view.Diagnostics
	return nil
}

func (h *Harness) runCompile(s *Scenario, result *Result) error {
	doc, err := s.document()
	if err != nil {
		return err
	}
	typ := codegen.BundleProject
	if s.Compile.Type != "" {
		if typ, err = codegen.ParseBundleType(s.Compile.Type); err != nil {
			return err
		}
	}

	bundle := codegen.New(codegen.Options{
		Type:          typ,
		ComponentName: s.Compile.ComponentName,
		Registry:      h.registry,
		Logger:        h.logger,
	}).Generate(doc)
	result.Bundle = bundle
	result.Diagnostics = bundle.Diagnostics
	return nil
}

func (h *Harness) runValidate(s *Scenario, result *Result) error {
	raw, err := s.rawDocument()
	if err != nil {
		return err
	}
	res := compiler.Validate(raw)
	result.Validation = res
	result.Diagnostics = res.Diagnostics
	return nil
}

func (h *Harness) runRoute(s *Scenario, result *Result) error {
	m, err := s.manifest()
	if err != nil {
		return err
	}
	result.Diagnostics = m.Check()

	out := m.Resolve(s.Route.Path, s.Route.Prefix)
	result.Route = &out
	return nil
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}
