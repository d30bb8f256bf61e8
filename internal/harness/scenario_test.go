package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "doc.json"), []byte(`{"ui":{"root":{"id":"root","type":"div"}}}`), 0o644))
	path := filepath.Join(dir, "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadScenario_Valid(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/route_user.yaml")
	require.NoError(t, err)

	assert.Equal(t, "route_user", s.Name)
	assert.Equal(t, ModeRoute, s.Mode)
	assert.Equal(t, "/users/42", s.Route.Path)
	assert.Equal(t, filepath.Join("testdata", "scenarios"), s.Dir)
	require.Len(t, s.Assertions, 2)
	assert.Equal(t, map[string]string{"id": "42"}, s.Assertions[0].Params)
}

func TestLoadScenario_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errMsg  string
	}{
		{
			name:    "unknown field",
			content: "name: a\ndescription: b\nmode: render\ndocument: doc.json\nassertion: []\n",
			errMsg:  "failed to parse YAML",
		},
		{
			name:    "missing name",
			content: "description: b\nmode: render\ndocument: doc.json\nassertions: [{type: diagnostic_codes}]\n",
			errMsg:  "name is required",
		},
		{
			name:    "missing description",
			content: "name: a\nmode: render\ndocument: doc.json\nassertions: [{type: diagnostic_codes}]\n",
			errMsg:  "description is required",
		},
		{
			name:    "missing mode",
			content: "name: a\ndescription: b\ndocument: doc.json\nassertions: [{type: diagnostic_codes}]\n",
			errMsg:  "mode is required",
		},
		{
			name:    "unknown mode",
			content: "name: a\ndescription: b\nmode: deploy\nassertions: [{type: diagnostic_codes}]\n",
			errMsg:  "unknown mode",
		},
		{
			name:    "render without document",
			content: "name: a\ndescription: b\nmode: render\nassertions: [{type: diagnostic_codes}]\n",
			errMsg:  "needs document or doc",
		},
		{
			name:    "route without manifest",
			content: "name: a\ndescription: b\nmode: route\nassertions: [{type: route_match}]\n",
			errMsg:  "needs manifest",
		},
		{
			name:    "no assertions",
			content: "name: a\ndescription: b\nmode: render\ndocument: doc.json\n",
			errMsg:  "assertions list is required",
		},
		{
			name:    "missing document file",
			content: "name: a\ndescription: b\nmode: render\ndocument: nope.json\nassertions: [{type: diagnostic_codes}]\n",
			errMsg:  "file not found",
		},
		{
			name:    "unknown assertion",
			content: "name: a\ndescription: b\nmode: render\ndocument: doc.json\nassertions: [{type: trace_count}]\n",
			errMsg:  "unknown assertion type",
		},
		{
			name:    "assertion for another mode",
			content: "name: a\ndescription: b\nmode: render\ndocument: doc.json\nassertions: [{type: bundle_files}]\n",
			errMsg:  "does not apply to render mode",
		},
		{
			name:    "node without key",
			content: "name: a\ndescription: b\nmode: render\ndocument: doc.json\nassertions: [{type: node}]\n",
			errMsg:  "key is required",
		},
		{
			name:    "valid without value",
			content: "name: a\ndescription: b\nmode: validate\ndocument: doc.json\nassertions: [{type: valid}]\n",
			errMsg:  "valid is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadScenario(writeScenario(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadDir(t *testing.T) {
	scenarios, err := LoadDir("testdata/scenarios")
	require.NoError(t, err)

	var names []string
	for _, s := range scenarios {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{
		"compile_card",
		"render_card",
		"render_card_empty",
		"render_routes",
		"route_user",
		"validate_broken",
	}, names)
}
