package store

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/zeebo/blake3"

	"github.com/roach88/mirc/internal/mir"
)

// Digest returns the hex BLAKE3-256 digest of file content.
func Digest(content []byte) string {
	sum := blake3.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// marshalDiagnostics converts diagnostics to JSON TEXT. A nil slice is
// stored as "[]".
func marshalDiagnostics(diags []mir.Diagnostic) (string, error) {
	if diags == nil {
		diags = []mir.Diagnostic{}
	}
	data, err := mir.MarshalJSON(diags)
	if err != nil {
		return "", fmt.Errorf("marshal diagnostics: %w", err)
	}
	return string(data), nil
}

func unmarshalDiagnostics(text string) ([]mir.Diagnostic, error) {
	var diags []mir.Diagnostic
	if err := json.Unmarshal([]byte(text), &diags); err != nil {
		return nil, fmt.Errorf("unmarshal diagnostics: %w", err)
	}
	if len(diags) == 0 {
		return nil, nil
	}
	return diags, nil
}
