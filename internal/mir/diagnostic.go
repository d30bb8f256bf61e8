package mir

import "fmt"

// Severity of a diagnostic.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Source names the pipeline stage that produced a diagnostic.
type Source string

const (
	SourceDocument    Source = "document"
	SourceCanonicalIR Source = "canonical-ir"
	SourceAdapter     Source = "adapter"
	SourceCodegen     Source = "codegen"
)

// Diagnostic is an ephemeral, per-pass report. Diagnostics are never
// serialized with the document.
type Diagnostic struct {
	Code       string   `json:"code"`
	Severity   Severity `json:"severity"`
	Source     Source   `json:"source"`
	Message    string   `json:"message"`
	Path       string   `json:"path"`
	Suggestion string   `json:"suggestion,omitempty"`
}

func (d Diagnostic) String() string {
	if d.Path != "" {
		return fmt.Sprintf("[%s] %s %s: %s", d.Code, d.Severity, d.Path, d.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", d.Code, d.Severity, d.Message)
}

// HasErrors reports whether any diagnostic has error severity.
func HasErrors(diags []Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Codes returns the diagnostic codes in order. Handy in tests.
func Codes(diags []Diagnostic) []string {
	codes := make([]string, len(diags))
	for i, d := range diags {
		codes[i] = d.Code
	}
	return codes
}
