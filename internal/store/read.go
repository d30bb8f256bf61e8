package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/mirc/internal/codegen"
)

// ErrDigestMismatch is returned when stored file content no longer matches
// its recorded digest.
var ErrDigestMismatch = errors.New("file digest mismatch")

// Summary describes an archived bundle without its file contents.
type Summary struct {
	ID            string             `json:"id"`
	Seq           int64              `json:"seq"`
	Type          codegen.BundleType `json:"type"`
	EntryFilePath string             `json:"entryFilePath"`
	FileCount     int                `json:"fileCount"`
}

// FileDigest pairs a bundle file path with its stored digest.
type FileDigest struct {
	Path   string `json:"path"`
	Digest string `json:"digest"`
}

// GetBundle loads a bundle and verifies every file against its digest.
// Files are returned ordered by path.
func (s *Store) GetBundle(ctx context.Context, id string) (*codegen.Bundle, error) {
	var (
		b     codegen.Bundle
		typ   string
		diags string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, type, entry_file_path, diagnostics
		FROM bundles
		WHERE id = ?
	`, id).Scan(&b.ID, &typ, &b.EntryFilePath, &diags)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get bundle %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get bundle: %w", err)
	}
	b.Type = codegen.BundleType(typ)

	if b.Diagnostics, err = unmarshalDiagnostics(diags); err != nil {
		return nil, fmt.Errorf("get bundle: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT path, language, content, digest
		FROM bundle_files
		WHERE bundle_id = ?
		ORDER BY path COLLATE BINARY ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("query files: %w", err)
	}
	defer rows.Close()

	b.Files = []codegen.File{}
	for rows.Next() {
		var (
			f       codegen.File
			content []byte
			digest  string
		)
		if err := rows.Scan(&f.Path, &f.Language, &content, &digest); err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		if Digest(content) != digest {
			return nil, fmt.Errorf("get bundle %s: %s: %w", id, f.Path, ErrDigestMismatch)
		}
		f.Content = string(content)
		b.Files = append(b.Files, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate files: %w", err)
	}

	return &b, nil
}

// ListBundles returns archived bundles in insertion order.
// Returns an empty slice (not nil) when the archive is empty.
func (s *Store) ListBundles(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT b.id, b.seq, b.type, b.entry_file_path, COUNT(f.path)
		FROM bundles b
		LEFT JOIN bundle_files f ON f.bundle_id = b.id
		GROUP BY b.id
		ORDER BY b.seq ASC, b.id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query bundles: %w", err)
	}
	defer rows.Close()

	out := []Summary{}
	for rows.Next() {
		var (
			sum Summary
			typ string
		)
		if err := rows.Scan(&sum.ID, &sum.Seq, &typ, &sum.EntryFilePath, &sum.FileCount); err != nil {
			return nil, fmt.Errorf("scan bundle: %w", err)
		}
		sum.Type = codegen.BundleType(typ)
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bundles: %w", err)
	}
	return out, nil
}

// Digests returns the stored digest of every file in a bundle, ordered by
// path.
func (s *Store) Digests(ctx context.Context, id string) ([]FileDigest, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT path, digest
		FROM bundle_files
		WHERE bundle_id = ?
		ORDER BY path COLLATE BINARY ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("query digests: %w", err)
	}
	defer rows.Close()

	out := []FileDigest{}
	for rows.Next() {
		var d FileDigest
		if err := rows.Scan(&d.Path, &d.Digest); err != nil {
			return nil, fmt.Errorf("scan digest: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate digests: %w", err)
	}
	return out, nil
}
