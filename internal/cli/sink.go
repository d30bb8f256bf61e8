package cli

import (
	"archive/tar"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ulikunitz/xz"

	"github.com/roach88/mirc/internal/codegen"
)

// isArchivePath reports whether out names a .tar.xz archive.
func isArchivePath(out string) bool {
	return strings.HasSuffix(out, ".tar.xz") || strings.HasSuffix(out, ".txz")
}

// writeBundle writes b to out: a .tar.xz archive or a directory.
func writeBundle(b *codegen.Bundle, out string) error {
	for _, f := range b.Files {
		if !filepath.IsLocal(f.Path) {
			return fmt.Errorf("bundle file %q escapes the output root", f.Path)
		}
	}
	if isArchivePath(out) {
		return writeTarXZ(b, out)
	}
	return writeDir(b, out)
}

func writeDir(b *codegen.Bundle, dir string) error {
	for _, f := range b.Files {
		path := filepath.Join(dir, filepath.FromSlash(f.Path))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("create directory for %s: %w", f.Path, err)
		}
		if err := os.WriteFile(path, []byte(f.Content), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", f.Path, err)
		}
	}
	return nil
}

func writeTarXZ(b *codegen.Bundle, path string) (err error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create archive directory: %w", err)
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}
	defer closeInto(file, &err)

	xzw, err := xz.NewWriter(file)
	if err != nil {
		return fmt.Errorf("create xz writer: %w", err)
	}
	defer closeInto(xzw, &err)

	tw := tar.NewWriter(xzw)
	defer closeInto(tw, &err)

	for _, f := range b.Files {
		header := &tar.Header{
			Name:     f.Path,
			Mode:     0o644,
			Size:     int64(len(f.Content)),
			Typeflag: tar.TypeReg,
		}
		if err := tw.WriteHeader(header); err != nil {
			return fmt.Errorf("write header %s: %w", f.Path, err)
		}
		if _, err := io.WriteString(tw, f.Content); err != nil {
			return fmt.Errorf("write %s: %w", f.Path, err)
		}
	}
	return nil
}

// closeInto closes c and keeps the first error.
func closeInto(c io.Closer, err *error) {
	if cerr := c.Close(); cerr != nil && *err == nil {
		*err = cerr
	}
}
