// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package typst runs the Typst compiler over an in-memory project. A
// Workspace holds the virtual filesystem (source, images, fonts); an Engine
// turns it into PDF bytes.
package typst

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path"

	"github.com/spf13/afero"
)

// EntryPath is where the document source is registered.
const EntryPath = "/main.typ"

// FontDir holds fonts registered with AddFont.
const FontDir = "/.fonts"

// ErrNotFont is returned by AddFont for data without a known font signature.
var ErrNotFont = errors.New("unrecognised font data")

// fontSignatures maps leading magic bytes to a file extension.
var fontSignatures = []struct {
	magic []byte
	ext   string
}{
	{[]byte{0x00, 0x01, 0x00, 0x00}, ".ttf"},
	{[]byte("true"), ".ttf"},
	{[]byte("OTTO"), ".otf"},
	{[]byte("ttcf"), ".ttc"},
}

// Workspace is a virtual project filesystem.
type Workspace struct {
	fs    afero.Fs
	fonts int
}

// NewWorkspace returns an empty in-memory workspace.
func NewWorkspace() *Workspace {
	return &Workspace{fs: afero.NewMemMapFs()}
}

// MapShadow places data at the virtual path p.
func (w *Workspace) MapShadow(p string, data []byte) error {
	clean := path.Clean("/" + p)
	if err := w.fs.MkdirAll(path.Dir(clean), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", path.Dir(clean), err)
	}
	if err := afero.WriteFile(w.fs, clean, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", clean, err)
	}
	return nil
}

// AddSource registers Typst source text at p.
func (w *Workspace) AddSource(p, source string) error {
	return w.MapShadow(p, []byte(source))
}

// AddFont registers a TrueType/OpenType font. Data without a font
// signature is rejected with ErrNotFont.
func (w *Workspace) AddFont(data []byte) error {
	ext := ""
	for _, sig := range fontSignatures {
		if bytes.HasPrefix(data, sig.magic) {
			ext = sig.ext
			break
		}
	}
	if ext == "" {
		return ErrNotFont
	}
	w.fonts++
	return w.MapShadow(fmt.Sprintf("%s/custom_%d%s", FontDir, w.fonts, ext), data)
}

// HasFonts reports whether any font was registered.
func (w *Workspace) HasFonts() bool {
	return w.fonts > 0
}

// ReadFile returns the contents of a virtual file.
func (w *Workspace) ReadFile(p string) ([]byte, error) {
	return afero.ReadFile(w.fs, path.Clean("/"+p))
}

// Materialize copies the workspace into the host directory dir.
func (w *Workspace) Materialize(dir string) error {
	dst := afero.NewBasePathFs(afero.NewOsFs(), dir)
	return afero.Walk(w.fs, "/", func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return dst.MkdirAll(p, 0o755)
		}
		data, err := w.ReadFile(p)
		if err != nil {
			return fmt.Errorf("reading %s: %w", p, err)
		}
		if err := afero.WriteFile(dst, p, data, 0o644); err != nil {
			return fmt.Errorf("materialising %s: %w", p, err)
		}
		return nil
	})
}
