package mir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format is a document encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the format from a file extension. Anything that is not
// .yaml/.yml is treated as JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Parse decodes a document into its raw map form without migrating it.
// YAML scalars are normalized to the JSON value model (numbers become float64).
func Parse(data []byte, format Format) (map[string]any, error) {
	var raw map[string]any
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parse yaml document: %w", err)
		}
		norm, _ := normalizeYAML(raw).(map[string]any)
		raw = norm
	default:
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parse json document: %w", err)
		}
	}
	if raw == nil {
		return nil, fmt.Errorf("document is empty")
	}
	return raw, nil
}

// FromRaw converts a raw (already migrated) document into the typed model.
// Mistyped fields do not fail the decode: they are coerced or dropped and
// reported through DecodeDiagnostics. The error is reserved for input that
// is not a JSON value model at all.
func FromRaw(raw map[string]any) (*Document, error) {
	if raw == nil {
		return nil, fmt.Errorf("document is empty")
	}
	data, err := MarshalJSON(raw)
	if err != nil {
		return nil, fmt.Errorf("encode raw document: %w", err)
	}
	var plain map[string]any
	if err := json.Unmarshal(data, &plain); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	l := &lenient{}
	doc := l.document(plain)
	doc.decodeDiags = l.diags
	return doc, nil
}

// Decode parses, migrates and converts a document in one step.
func Decode(data []byte, format Format) (*Document, error) {
	raw, err := Parse(data, format)
	if err != nil {
		return nil, err
	}
	migrated, _ := Migrate(raw)
	return FromRaw(migrated)
}

// LoadFile reads and decodes a document file.
func LoadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read document %s: %w", path, err)
	}
	doc, err := Decode(data, FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// MarshalJSON encodes v without HTML escaping.
func MarshalJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// normalizeYAML maps yaml.v3 decode output onto the JSON value model.
func normalizeYAML(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			out[k] = normalizeYAML(elem)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			out[fmt.Sprint(k)] = normalizeYAML(elem)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = normalizeYAML(elem)
		}
		return out
	case int:
		return float64(val)
	case int64:
		return float64(val)
	case uint64:
		return float64(val)
	default:
		return v
	}
}
