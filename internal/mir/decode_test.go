package mir

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
version: "1.2"
ui:
  root:
    id: root
    type: div
    props:
      count: 3
      title: { $param: title }
    children:
      - id: label
        type: span
        text: { $state: greeting }
logic:
  props:
    title: { type: string }
  state:
    greeting: { initial: hi }
`

func TestDecode_YAMLNormalizesNumbers(t *testing.T) {
	doc, err := Decode([]byte(sampleYAML), FormatYAML)
	require.NoError(t, err)

	require.NotNil(t, doc.UI.Root)
	assert.Equal(t, "root", doc.UI.Root.ID)
	assert.Equal(t, 3.0, doc.UI.Root.Props["count"])
	assert.True(t, IsRef(doc.UI.Root.Props["title"]))
	require.Len(t, doc.UI.Root.Children, 1)
	assert.Equal(t, "label", doc.UI.Root.Children[0].ID)
	assert.Equal(t, "hi", doc.Logic.State["greeting"].Initial)
}

func TestDecode_JSONMatchesYAML(t *testing.T) {
	jsonDoc := `{"version":"1.2","ui":{"root":{"id":"root","type":"div","props":{"count":3}}}}`
	doc, err := Decode([]byte(jsonDoc), FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, 3.0, doc.UI.Root.Props["count"])
}

func TestDecode_RejectsGarbage(t *testing.T) {
	_, err := Decode([]byte("{not json"), FormatJSON)
	assert.Error(t, err)

	_, err = Decode([]byte("null"), FormatJSON)
	assert.Error(t, err)
}

func TestLoadFile_PicksFormatFromExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "page.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o644))

	doc, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, CurrentVersion, doc.Version)
}

func TestLoadFile_MissingFile(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestDecode_MistypedFieldsAreReportedNotFatal(t *testing.T) {
	data := `{
		"version": "1.2",
		"ui": {"root": {"id": "root", "type": "div", "children": [
			{"id": 3, "type": "span", "style": "color:red", "props": {"title": "ok"}},
			{"id": "list", "type": "ul", "children": {}},
			{"id": "tail", "type": true, "events": []}
		]}}
	}`

	doc, err := Decode([]byte(data), FormatJSON)
	require.NoError(t, err)
	require.NotNil(t, doc.UI.Root)

	kids := doc.UI.Root.Children
	require.Len(t, kids, 3)
	assert.Equal(t, "3", kids[0].ID)
	assert.Nil(t, kids[0].Style)
	assert.Equal(t, "ok", kids[0].Props["title"])
	assert.Empty(t, kids[1].Children)
	assert.Equal(t, "true", kids[2].Type)
	assert.Nil(t, kids[2].Events)

	got := map[string]string{}
	for _, d := range doc.DecodeDiagnostics() {
		assert.Equal(t, SourceDocument, d.Source)
		assert.Equal(t, SeverityWarning, d.Severity)
		got[d.Path] = d.Code
	}
	assert.Equal(t, map[string]string{
		"ui.root.children[0].id":       CodeNodeFieldInvalid,
		"ui.root.children[0].style":    CodeNodeFieldInvalid,
		"ui.root.children[1].children": CodeNodeFieldInvalid,
		"ui.root.children[2].type":     CodeNodeFieldInvalid,
		"ui.root.children[2].events":   CodeNodeFieldInvalid,
	}, got)
}

func TestDecode_WellTypedDocumentHasNoDecodeDiagnostics(t *testing.T) {
	doc, err := Decode([]byte(sampleYAML), FormatYAML)
	require.NoError(t, err)
	assert.Empty(t, doc.DecodeDiagnostics())
}

func TestDecode_NonObjectRootIsDropped(t *testing.T) {
	doc, err := Decode([]byte(`{"version":"1.2","ui":{"root":[1,2]}}`), FormatJSON)
	require.NoError(t, err)
	assert.Nil(t, doc.UI.Root)
	assert.Equal(t, []string{CodeDocumentFieldInvalid}, Codes(doc.DecodeDiagnostics()))
}
