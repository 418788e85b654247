// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package bundle

import (
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/spf13/afero"
)

// storedExts are already compressed and are written without deflate.
var storedExts = map[string]bool{
	".png": true, ".jpg": true, ".gif": true, ".webp": true, ".pdf": true,
}

// WriteZip writes the bundle's files to w as a zip archive, in order.
func WriteZip(w io.Writer, b *Bundle) error {
	zw := zip.NewWriter(w)
	modified := b.Manifest.ExportedAt
	if modified.IsZero() {
		modified = time.Now()
	}
	for _, f := range b.Files {
		method := zip.Deflate
		if storedExts[strings.ToLower(path.Ext(f.Name))] {
			method = zip.Store
		}
		fw, err := zw.CreateHeader(&zip.FileHeader{
			Name:     f.Name,
			Method:   method,
			Modified: modified,
		})
		if err != nil {
			return fmt.Errorf("adding %s: %w", f.Name, err)
		}
		if _, err := fw.Write(f.Data); err != nil {
			return fmt.Errorf("writing %s: %w", f.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finishing archive: %w", err)
	}
	return nil
}

// Save writes the bundle archive into dir on fs and returns its path. The
// archive is written to a temporary file and renamed into place.
func Save(fs afero.Fs, dir string, b *Bundle) (string, error) {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating directory %s: %w", dir, err)
	}
	dest := filepath.Join(dir, b.Name())

	tmp, err := afero.TempFile(fs, dir, ".bundle-*.tmp")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	writeErr := WriteZip(tmp, b)
	closeErr := tmp.Close()
	if writeErr != nil {
		fs.Remove(tmpPath)
		return "", writeErr
	}
	if closeErr != nil {
		fs.Remove(tmpPath)
		return "", fmt.Errorf("closing temp file: %w", closeErr)
	}
	if err := fs.Rename(tmpPath, dest); err != nil {
		fs.Remove(tmpPath)
		return "", fmt.Errorf("renaming temp file: %w", err)
	}
	return dest, nil
}

// SanitizeFilename maps every character other than an ASCII letter or
// digit to an underscore and lowercases the result.
func SanitizeFilename(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
