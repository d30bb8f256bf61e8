package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const harnessScenarios = "../harness/testdata/scenarios"

// routeScenarioDir writes a single route scenario and its manifest.
func routeScenarioDir(t *testing.T, page string) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, dir, "routes.json", usersManifest)
	writeFile(t, dir, "route_home.yaml", `name: route_home
description: "Index route selects the home page"
mode: route
manifest: routes.json
route:
  path: /
assertions:
  - type: route_match
    routes: [root, home]
    page: `+page+`
`)
	return dir
}

func TestTestCommand_RunsScenarioDir(t *testing.T) {
	out, err := execute(t, "--format", "json", "test", harnessScenarios)
	require.NoError(t, err, out)

	var result TestResult
	env := decodeEnvelope(t, out, &result)
	assert.Equal(t, "ok", env.Status)
	assert.Equal(t, 0, result.Failed)
	assert.Equal(t, result.Total, result.Passed)
	assert.GreaterOrEqual(t, result.Total, 6)

	// Results keep directory order regardless of parallelism.
	var names []string
	for _, s := range result.Scenarios {
		names = append(names, s.Name)
	}
	assert.IsIncreasing(t, names)
}

func TestTestCommand_Filter(t *testing.T) {
	out, err := execute(t, "--format", "json", "test", harnessScenarios, "--filter", "route_*", "-p", "1")
	require.NoError(t, err)

	var result TestResult
	decodeEnvelope(t, out, &result)
	require.Equal(t, 1, result.Total)
	assert.Equal(t, "route_user", result.Scenarios[0].Name)
	assert.Equal(t, "route", result.Scenarios[0].Mode)
}

func TestTestCommand_NoScenarios(t *testing.T) {
	out, err := execute(t, "test", harnessScenarios, "--filter", "nothing_*")
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found")

	out, err = execute(t, "--format", "json", "test", t.TempDir())
	require.NoError(t, err)
	var result TestResult
	decodeEnvelope(t, out, &result)
	assert.Equal(t, 0, result.Total)
	assert.NotNil(t, result.Scenarios)
}

func TestTestCommand_FailingScenario(t *testing.T) {
	dir := routeScenarioDir(t, "wrong-page")

	out, err := execute(t, "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ route_home")
	assert.Contains(t, out, "Test Summary: 0 passed, 1 failed, 1 total")
}

func TestTestCommand_Golden(t *testing.T) {
	dir := routeScenarioDir(t, "home")
	golden := filepath.Join(dir, "golden", "route_home.golden")

	out, err := execute(t, "test", dir, "--update")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ route_home (golden updated)")
	require.FileExists(t, golden)

	out, err = execute(t, "--format", "json", "test", dir)
	require.NoError(t, err)
	var result TestResult
	decodeEnvelope(t, out, &result)
	assert.Equal(t, "match", result.Scenarios[0].Golden)

	require.NoError(t, os.WriteFile(golden, []byte(`{"scenario":"stale"}`), 0o644))
	out, err = execute(t, "test", dir)
	require.Error(t, err)
	assert.Contains(t, out, "does not match golden file")
}

func TestTestCommand_CommandErrors(t *testing.T) {
	_, err := execute(t, "test", "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "scenarios directory not found")

	_, err = execute(t, "test", harnessScenarios, "--filter", "[")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	dir := t.TempDir()
	writeFile(t, dir, "broken.yaml", "name: broken\nmode: render\n")
	_, err = execute(t, "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTestCommand_MissingArgs(t *testing.T) {
	_, err := execute(t, "test")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}
