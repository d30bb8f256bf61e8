package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/roach88/mirc/internal/compiler"
	"github.com/roach88/mirc/internal/mir"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Validation failure (invalid documents, failed scenarios, no route match)
	ExitCommandError = 2 // Command error (missing files, unreadable config, etc.)
)

// Error codes reported in the CLIResponse envelope.
const (
	ErrCodeGeneric       = "E000"
	ErrCodeNotFound      = "E001"
	ErrCodeDecode        = "E002"
	ErrCodeConfig        = "E003"
	ErrCodeWriteFailed   = "E004"
	ErrCodeArchive       = "E005"
	ErrCodeInvalidOption = "E006"
	ErrCodeDiagnostics   = "E007"
	ErrCodeInvalid       = "E008"
	ErrCodeNoMatch       = "E009"
	ErrCodeScenarios     = "E010"
)

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for verbose/diagnostic output (defaults to Writer)
	Verbose   bool
	NoColor   bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string    `json:"status"`          // "ok" or "error"
	Data   any       `json:"data,omitempty"`  // success payload
	Error  *CLIError `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`              // "E001", "E002", etc.
	Message string `json:"message"`           // human-readable message
	Details any    `json:"details,omitempty"` // additional context
}

// IsJSON reports whether output is JSON.
func (f *OutputFormatter) IsJSON() bool {
	return f.Format == "json"
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data any) error {
	if f.IsJSON() {
		return f.encode(CLIResponse{Status: "ok", Data: data})
	}

	fmt.Fprintln(f.Writer, data)
	return nil
}

// Failure outputs a payload that describes a failed check. JSON output keeps
// the payload under data so callers see the full result.
func (f *OutputFormatter) Failure(code, message string, data any) error {
	if f.IsJSON() {
		return f.encode(CLIResponse{
			Status: "error",
			Data:   data,
			Error:  &CLIError{Code: code, Message: message},
		})
	}
	f.color(color.FgRed, color.Bold).Fprintf(f.Writer, "✗ %s\n", message)
	return nil
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.IsJSON() {
		return f.encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	f.color(color.FgRed, color.Bold).Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// Fail prints an error and returns an ExitError carrying exitCode.
func (f *OutputFormatter) Fail(exitCode int, code, message string, err error) error {
	if err != nil {
		_ = f.Error(code, fmt.Sprintf("%s: %v", message, err), nil)
		return WrapExitError(exitCode, message, err)
	}
	_ = f.Error(code, message, nil)
	return NewExitError(exitCode, message)
}

// OK prints a green check line in text mode.
func (f *OutputFormatter) OK(format string, args ...any) {
	f.color(color.FgGreen).Fprintf(f.Writer, "✓ "+format+"\n", args...)
}

// VerboseLog outputs a message only if verbose mode is enabled.
// Uses ErrWriter if set, otherwise falls back to Writer.
// When format is JSON, verbose logs go to ErrWriter to avoid corrupting JSON output.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter returns the appropriate writer for diagnostic output.
// Returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}

// Diagnostics prints diagnostics, errors in red and warnings in yellow.
func (f *OutputFormatter) Diagnostics(diags []mir.Diagnostic) {
	for _, d := range diags {
		c := f.severityColor(d.Severity)
		c.Fprintf(f.Writer, "  %s %s", d.Severity, d.Code)
		if d.Path != "" {
			fmt.Fprintf(f.Writer, " %s", d.Path)
		}
		fmt.Fprintf(f.Writer, ": %s\n", d.Message)
		if d.Suggestion != "" {
			f.color(color.FgHiBlack).Fprintf(f.Writer, "    → %s\n", d.Suggestion)
		}
	}
}

// Issues prints validator issues.
func (f *OutputFormatter) Issues(issues []compiler.Issue) {
	for _, is := range issues {
		f.severityColor(is.Severity).Fprintf(f.Writer, "  %s", is.Code)
		fmt.Fprintf(f.Writer, " %s: %s\n", is.Path, is.Message)
		if is.Suggestion != "" {
			f.color(color.FgHiBlack).Fprintf(f.Writer, "    → %s\n", is.Suggestion)
		}
	}
}

func (f *OutputFormatter) severityColor(s mir.Severity) *color.Color {
	switch s {
	case mir.SeverityError:
		return f.color(color.FgRed)
	case mir.SeverityWarning:
		return f.color(color.FgYellow)
	default:
		return f.color(color.FgCyan)
	}
}

func (f *OutputFormatter) color(attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	if f.NoColor {
		c.DisableColor()
	}
	return c
}

func (f *OutputFormatter) encode(v any) error {
	enc := json.NewEncoder(f.Writer)
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
