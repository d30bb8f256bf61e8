package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"
)

// Modes.
const (
	ModeRender   = "render"
	ModeCompile  = "compile"
	ModeValidate = "validate"
	ModeRoute    = "route"
)

// Scenario defines a conformance test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Mode selects the pipeline: render, compile, validate or route.
	Mode string `yaml:"mode"`

	// Document is a document file path, relative to the scenario file.
	Document string `yaml:"document,omitempty"`

	// Doc is an inline document, used when Document is empty.
	Doc map[string]any `yaml:"doc,omitempty"`

	// Manifest is a route manifest file, relative to the scenario file.
	Manifest string `yaml:"manifest,omitempty"`

	// Pages maps document ids referenced by the manifest to files.
	Pages map[string]string `yaml:"pages,omitempty"`

	Input   Input       `yaml:"input,omitempty"`
	Compile CompileStep `yaml:"compile,omitempty"`
	Route   RouteStep   `yaml:"route,omitempty"`

	// Assertions validate the mode's output.
	Assertions []Assertion `yaml:"assertions"`

	// Dir is the directory relative paths resolve against.
	Dir string `yaml:"-"`
}

// Input is the live state for render scenarios.
type Input struct {
	Params           map[string]any `yaml:"params,omitempty"`
	State            map[string]any `yaml:"state,omitempty"`
	Data             any            `yaml:"data,omitempty"`
	CurrentPath      string         `yaml:"current_path,omitempty"`
	Preview          bool           `yaml:"preview,omitempty"`
	RequireSelection bool           `yaml:"require_selection,omitempty"`
}

// CompileStep configures compile scenarios.
type CompileStep struct {
	Type          string `yaml:"type,omitempty"`
	ComponentName string `yaml:"component_name,omitempty"`
}

// RouteStep configures route scenarios.
type RouteStep struct {
	Path   string `yaml:"path"`
	Prefix bool   `yaml:"prefix,omitempty"`
}

// Assertion validates a scenario's output.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Codes are diagnostic or issue codes (diagnostic_codes, issue_codes).
	Codes []string `yaml:"codes,omitempty"`

	// Code is a single diagnostic code (has_diagnostic).
	Code string `yaml:"code,omitempty"`

	// Valid is the expected validity (valid).
	Valid *bool `yaml:"valid,omitempty"`

	// Keys are expected view keys in pre-order (rendered_keys).
	Keys []string `yaml:"keys,omitempty"`

	// Key selects a view node (node).
	Key string `yaml:"key,omitempty"`

	// Expect is a subset of the selected node's JSON form (node).
	Expect map[string]any `yaml:"expect,omitempty"`

	// Files are expected bundle paths (bundle_files).
	Files []string `yaml:"files,omitempty"`

	// File and Contains select a bundle file and text it must contain
	// (file_contains).
	File     string `yaml:"file,omitempty"`
	Contains string `yaml:"contains,omitempty"`

	// Matched, Routes, Params and Page describe the expected route match
	// (route_match). Matched defaults to true.
	Matched *bool             `yaml:"matched,omitempty"`
	Routes  []string          `yaml:"routes,omitempty"`
	Params  map[string]string `yaml:"params,omitempty"`
	Page    string            `yaml:"page,omitempty"`
}

// Assertion type constants.
const (
	AssertDiagnosticCodes = "diagnostic_codes"
	AssertHasDiagnostic   = "has_diagnostic"
	AssertIssueCodes      = "issue_codes"
	AssertValid           = "valid"
	AssertRenderedKeys    = "rendered_keys"
	AssertNode            = "node"
	AssertBundleFiles     = "bundle_files"
	AssertFileContains    = "file_contains"
	AssertRouteMatch      = "route_match"
)

// assertionModes lists the modes each assertion type applies to.
var assertionModes = map[string][]string{
	AssertDiagnosticCodes: {ModeRender, ModeCompile, ModeValidate, ModeRoute},
	AssertHasDiagnostic:   {ModeRender, ModeCompile, ModeValidate, ModeRoute},
	AssertIssueCodes:      {ModeValidate},
	AssertValid:           {ModeValidate},
	AssertRenderedKeys:    {ModeRender},
	AssertNode:            {ModeRender},
	AssertBundleFiles:     {ModeCompile},
	AssertFileContains:    {ModeCompile},
	AssertRouteMatch:      {ModeRoute},
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "assertion:" vs "assertions:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	scenario.Dir = filepath.Dir(path)

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario %s: %w", path, err)
	}

	return &scenario, nil
}

// LoadDir loads every *.yaml and *.yml scenario in dir, sorted by file name.
func LoadDir(dir string) ([]*Scenario, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario dir: %w", err)
	}

	var scenarios []*Scenario
	for _, e := range entries {
		ext := filepath.Ext(e.Name())
		if e.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		s, err := LoadScenario(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// resolve makes a scenario-relative path absolute.
func (s *Scenario) resolve(path string) string {
	if path == "" || filepath.IsAbs(path) || s.Dir == "" {
		return path
	}
	return filepath.Join(s.Dir, path)
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	switch s.Mode {
	case ModeRender, ModeCompile, ModeValidate:
		if s.Document == "" && s.Doc == nil {
			return fmt.Errorf("%s mode needs document or doc", s.Mode)
		}
	case ModeRoute:
		if s.Manifest == "" {
			return fmt.Errorf("route mode needs manifest")
		}
	case "":
		return fmt.Errorf("mode is required")
	default:
		return fmt.Errorf("unknown mode %q", s.Mode)
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for _, p := range append([]string{s.Document, s.Manifest}, mapValues(s.Pages)...) {
		if p == "" {
			continue
		}
		if _, err := os.Stat(s.resolve(p)); os.IsNotExist(err) {
			return fmt.Errorf("file not found: %s", p)
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, s.Mode, &a); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, mode string, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}
	modes, ok := assertionModes[a.Type]
	if !ok {
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	if !slices.Contains(modes, mode) {
		return fmt.Errorf("assertions[%d]: %s does not apply to %s mode", index, a.Type, mode)
	}

	switch a.Type {
	case AssertHasDiagnostic:
		if a.Code == "" {
			return fmt.Errorf("assertions[%d]: code is required for has_diagnostic", index)
		}
	case AssertValid:
		if a.Valid == nil {
			return fmt.Errorf("assertions[%d]: valid is required for valid", index)
		}
	case AssertNode:
		if a.Key == "" {
			return fmt.Errorf("assertions[%d]: key is required for node", index)
		}
	case AssertFileContains:
		if a.File == "" || a.Contains == "" {
			return fmt.Errorf("assertions[%d]: file and contains are required for file_contains", index)
		}
	}
	return nil
}

func mapValues(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	slices.Sort(out)
	return out
}
