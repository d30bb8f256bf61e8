package harness

import (
	"encoding/json"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/roach88/mirc/internal/mir"
	"github.com/roach88/mirc/internal/render"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
	// Diagnostics gives context for the failure.
	Diagnostics []mir.Diagnostic
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Diagnostics) > 0 {
		fmt.Fprintf(&buf, "\nDiagnostics:\n")
		for i, d := range e.Diagnostics {
			fmt.Fprintf(&buf, "  [%d] %s\n", i+1, d)
		}
	}

	return buf.String()
}

// EvaluateAssertions runs every assertion against a result and returns the
// failure messages.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluate(result, a); err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

func evaluate(r *Result, a Assertion) error {
	fail := func(expected, actual string) error {
		return &AssertionError{Type: a.Type, Expected: expected, Actual: actual, Diagnostics: r.Diagnostics}
	}

	switch a.Type {
	case AssertDiagnosticCodes:
		want := distinctSorted(a.Codes)
		got := distinctSorted(mir.Codes(r.Diagnostics))
		if !slices.Equal(want, got) {
			return fail(fmt.Sprintf("codes %v", want), fmt.Sprintf("codes %v", got))
		}

	case AssertHasDiagnostic:
		if !slices.Contains(mir.Codes(r.Diagnostics), a.Code) {
			return fail("diagnostic "+a.Code, fmt.Sprintf("codes %v", distinctSorted(mir.Codes(r.Diagnostics))))
		}

	case AssertIssueCodes:
		if r.Validation == nil {
			return fail("validation output", "none")
		}
		got := r.Validation.Codes()
		if !slices.Equal(a.Codes, got) {
			return fail(fmt.Sprintf("issues %v", a.Codes), fmt.Sprintf("issues %v", got))
		}

	case AssertValid:
		if r.Validation == nil {
			return fail("validation output", "none")
		}
		if valid := !r.Validation.HasError; valid != *a.Valid {
			return fail(fmt.Sprintf("valid=%t", *a.Valid), fmt.Sprintf("valid=%t issues %v", valid, r.Validation.Codes()))
		}

	case AssertRenderedKeys:
		if r.View == nil {
			return fail("view output", "none")
		}
		got := viewKeys(r.View.Root)
		if !slices.Equal(a.Keys, got) {
			return fail(fmt.Sprintf("keys %v", a.Keys), fmt.Sprintf("keys %v", got))
		}

	case AssertNode:
		if r.View == nil {
			return fail("view output", "none")
		}
		n, ok := r.View.Lookup(a.Key)
		if !ok {
			return fail("node "+a.Key, fmt.Sprintf("keys %v", viewKeys(r.View.Root)))
		}
		actual, err := nodeMap(n)
		if err != nil {
			return err
		}
		if !matchSubset(actual, a.Expect) {
			return fail(fmt.Sprintf("node %s with %v", a.Key, a.Expect), fmt.Sprintf("%v", actual))
		}

	case AssertBundleFiles:
		if r.Bundle == nil {
			return fail("bundle output", "none")
		}
		want := distinctSorted(a.Files)
		got := distinctSorted(r.Bundle.Paths())
		if !slices.Equal(want, got) {
			return fail(fmt.Sprintf("files %v", want), fmt.Sprintf("files %v", got))
		}

	case AssertFileContains:
		if r.Bundle == nil {
			return fail("bundle output", "none")
		}
		f, ok := r.Bundle.File(a.File)
		if !ok {
			return fail("file "+a.File, fmt.Sprintf("files %v", r.Bundle.Paths()))
		}
		if !strings.Contains(f.Content, a.Contains) {
			return fail(fmt.Sprintf("%s containing %q", a.File, a.Contains), f.Content)
		}

	case AssertRouteMatch:
		if r.Route == nil {
			return fail("route output", "none")
		}
		wantMatched := a.Matched == nil || *a.Matched
		if r.Route.Matched != wantMatched {
			return fail(fmt.Sprintf("matched=%t", wantMatched), fmt.Sprintf("matched=%t", r.Route.Matched))
		}
		if a.Routes != nil && !slices.Equal(a.Routes, r.Route.Routes) {
			return fail(fmt.Sprintf("routes %v", a.Routes), fmt.Sprintf("routes %v", r.Route.Routes))
		}
		for k, v := range a.Params {
			if got, ok := r.Route.Params[k]; !ok || got != v {
				return fail(fmt.Sprintf("param %s=%q", k, v), fmt.Sprintf("params %v", r.Route.Params))
			}
		}
		if a.Page != "" && a.Page != r.Route.Page {
			return fail("page "+a.Page, "page "+r.Route.Page)
		}

	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}

// viewKeys lists view keys in pre-order.
func viewKeys(n *render.ViewNode) []string {
	var keys []string
	var walk func(*render.ViewNode)
	walk = func(n *render.ViewNode) {
		if n == nil {
			return
		}
		keys = append(keys, n.Key)
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(n)
	return keys
}

// nodeMap returns the JSON form of a node without its children.
func nodeMap(n *render.ViewNode) (map[string]any, error) {
	shallow := *n
	shallow.Children = nil
	data, err := json.Marshal(&shallow)
	if err != nil {
		return nil, fmt.Errorf("marshal node %s: %w", n.Key, err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal node %s: %w", n.Key, err)
	}
	return m, nil
}

// matchSubset reports whether every key in expected matches actual.
// Nested maps are compared as subsets too.
func matchSubset(actual, expected map[string]any) bool {
	for k, want := range expected {
		got, ok := actual[k]
		if !ok {
			return false
		}
		wantMap, wok := want.(map[string]any)
		gotMap, gok := got.(map[string]any)
		if wok && gok {
			if !matchSubset(gotMap, wantMap) {
				return false
			}
			continue
		}
		if !reflect.DeepEqual(normalize(got), normalize(want)) {
			return false
		}
	}
	return true
}

// normalize maps YAML integers onto the JSON number model.
func normalize(v any) any {
	switch x := v.(type) {
	case int:
		return float64(x)
	case int64:
		return float64(x)
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = normalize(e)
		}
		return out
	}
	return v
}

func distinctSorted(in []string) []string {
	out := slices.Clone(in)
	slices.Sort(out)
	out = slices.Compact(out)
	if out == nil {
		out = []string{}
	}
	return out
}
