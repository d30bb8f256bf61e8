package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mirc/internal/compiler"
	"github.com/roach88/mirc/internal/mir"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, formatter.Success(map[string]string{"result": "success"}))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.NotNil(t, resp.Data)
	assert.Nil(t, resp.Error)
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, formatter.Error(ErrCodeNotFound, "document not found", map[string]string{"path": "a.json"}))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeNotFound, resp.Error.Code)
	assert.Equal(t, "document not found", resp.Error.Message)
	assert.NotNil(t, resp.Error.Details)
}

func TestOutputFormatter_JSONFailureKeepsPayload(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, formatter.Failure(ErrCodeInvalid, "validation failed", map[string]bool{"valid": false}))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, map[string]any{"valid": false}, resp.Data)
	assert.Equal(t, ErrCodeInvalid, resp.Error.Code)
}

func TestOutputFormatter_JSONDoesNotEscapeHTML(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, formatter.Success("<div>"))
	assert.Contains(t, buf.String(), `"<div>"`)
}

func TestOutputFormatter_Text(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf, NoColor: true}

	require.NoError(t, formatter.Success("All documents valid"))
	require.NoError(t, formatter.Error(ErrCodeDecode, "bad document", "line 3"))
	formatter.OK("done %d", 2)

	assert.Equal(t, "All documents valid\nError [E002]: bad document\n✓ done 2\n", buf.String())
}

func TestOutputFormatter_TextErrorDetailsWhenVerbose(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf, NoColor: true, Verbose: true}

	require.NoError(t, formatter.Error(ErrCodeDecode, "bad document", "line 3"))
	assert.Contains(t, buf.String(), "Details: line 3")
}

func TestOutputFormatter_Fail(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf, NoColor: true}

	cause := errors.New("boom")
	err := formatter.Fail(ExitCommandError, ErrCodeArchive, "opening archive", cause)

	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, buf.String(), "Error [E005]: opening archive: boom")
}

func TestOutputFormatter_Diagnostics(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf, NoColor: true}

	formatter.Diagnostics([]mir.Diagnostic{
		{Code: "A", Severity: mir.SeverityError, Path: "ui.root", Message: "broken", Suggestion: "fix it"},
		{Code: "B", Severity: mir.SeverityWarning, Message: "odd"},
	})

	assert.Equal(t, "  error A ui.root: broken\n    → fix it\n  warning B: odd\n", buf.String())
}

func TestOutputFormatter_Issues(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf, NoColor: true}

	formatter.Issues([]compiler.Issue{{
		Code:     compiler.CodeNodeIDRequired,
		Severity: mir.SeverityError,
		Path:     "ui.root.id",
		Message:  "node id is required",
	}})

	assert.Equal(t, "  MIR_NODE_ID_REQUIRED ui.root.id: node id is required\n", buf.String())
}

func TestOutputFormatter_VerboseLog(t *testing.T) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}

	quiet := &OutputFormatter{Writer: out, ErrWriter: errOut}
	quiet.VerboseLog("hidden")
	assert.Empty(t, errOut.String())

	loud := &OutputFormatter{Writer: out, ErrWriter: errOut, Verbose: true}
	loud.VerboseLog("shown %d", 1)
	assert.Equal(t, "shown 1\n", errOut.String())
	assert.Empty(t, out.String())
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "bad")))
	assert.Equal(t, ExitFailure, GetExitCode(fmt.Errorf("wrapped: %w", NewExitError(ExitFailure, "x"))))
}

func TestExitError(t *testing.T) {
	assert.Equal(t, "bad", NewExitError(ExitCommandError, "bad").Error())

	cause := errors.New("cause")
	err := WrapExitError(ExitFailure, "outer", cause)
	assert.Equal(t, "outer: cause", err.Error())
	assert.ErrorIs(t, err, cause)
}
