package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/mirc/internal/codegen"
)

// ErrNotFound is returned when a bundle id is not in the archive.
var ErrNotFound = errors.New("bundle not found")

// PutBundle archives a bundle and its files in one transaction.
// Uses ON CONFLICT(id) DO NOTHING for idempotency: bundle ids are derived
// from the document fingerprint, so a second write of the same bundle is
// silently ignored. It reports whether a new row was written.
func (s *Store) PutBundle(ctx context.Context, b *codegen.Bundle) (bool, error) {
	if b == nil || b.ID == "" {
		return false, fmt.Errorf("put bundle: bundle id is required")
	}

	diags, err := marshalDiagnostics(b.Diagnostics)
	if err != nil {
		return false, fmt.Errorf("put bundle: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("put bundle: begin: %w", err)
	}
	defer tx.Rollback()

	var seq int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM bundles`).Scan(&seq); err != nil {
		return false, fmt.Errorf("put bundle: next seq: %w", err)
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO bundles (id, seq, type, entry_file_path, diagnostics)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, b.ID, seq, string(b.Type), b.EntryFilePath, diags)
	if err != nil {
		return false, fmt.Errorf("put bundle: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("put bundle: %w", err)
	}
	if n == 0 {
		s.logger.Debug("bundle already archived", "id", b.ID)
		return false, nil
	}

	if err := insertFiles(ctx, tx, b.ID, b.Files); err != nil {
		return false, fmt.Errorf("put bundle: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("put bundle: commit: %w", err)
	}

	s.logger.Info("bundle archived", "id", b.ID, "type", b.Type, "files", len(b.Files), "seq", seq)
	return true, nil
}

func insertFiles(ctx context.Context, tx *sql.Tx, bundleID string, files []codegen.File) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO bundle_files (bundle_id, path, language, content, digest)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare files: %w", err)
	}
	defer stmt.Close()

	for _, f := range files {
		content := []byte(f.Content)
		if _, err := stmt.ExecContext(ctx, bundleID, f.Path, f.Language, content, Digest(content)); err != nil {
			return fmt.Errorf("insert file %s: %w", f.Path, err)
		}
	}
	return nil
}

// DeleteBundle removes a bundle and its files.
func (s *Store) DeleteBundle(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM bundles WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete bundle: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete bundle: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("delete bundle %s: %w", id, ErrNotFound)
	}
	return nil
}
