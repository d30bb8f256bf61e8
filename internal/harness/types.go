package harness

import (
	"github.com/roach88/mirc/internal/codegen"
	"github.com/roach88/mirc/internal/compiler"
	"github.com/roach88/mirc/internal/mir"
	"github.com/roach88/mirc/internal/render"
	"github.com/roach88/mirc/internal/route"
)

// RouteOutput is the outcome of a route scenario.
type RouteOutput = route.Outcome

// Result is the outcome of a test scenario execution.
type Result struct {
	// Name is the scenario name.
	Name string `json:"name"`

	// Pass indicates overall test success.
	Pass bool `json:"pass"`

	// Errors contains assertion failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Diagnostics are every diagnostic the mode produced.
	Diagnostics []mir.Diagnostic `json:"diagnostics,omitempty"`

	// Exactly one of the following is set, per mode.
	View       *render.View     `json:"view,omitempty"`
	Bundle     *codegen.Bundle  `json:"bundle,omitempty"`
	Validation *compiler.Result `json:"validation,omitempty"`
	Route      *RouteOutput     `json:"route,omitempty"`
}

// NewResult creates a new passing result.
func NewResult(name string) *Result {
	return &Result{
		Name:   name,
		Pass:   true,
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Output returns the mode's output value.
func (r *Result) Output() any {
	switch {
	case r.View != nil:
		return r.View
	case r.Bundle != nil:
		return r.Bundle
	case r.Validation != nil:
		return r.Validation
	case r.Route != nil:
		return r.Route
	}
	return nil
}
