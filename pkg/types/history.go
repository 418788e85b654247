// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// ExportRecord describes one completed export run.
type ExportRecord struct {
	ID         string    `json:"id" yaml:"id"`
	Title      string    `json:"title" yaml:"title"`
	ExportedAt time.Time `json:"exported_at" yaml:"exported_at"`

	// BundlePath is the archive written for the run.
	BundlePath string `json:"bundle_path" yaml:"bundle_path"`

	Messages int `json:"messages" yaml:"messages"`
	Assets   int `json:"assets" yaml:"assets"`
	Resolved int `json:"resolved" yaml:"resolved"`

	// Compiled reports whether the bundle carries a PDF.
	Compiled bool `json:"compiled" yaml:"compiled"`

	// CompileError is the diagnostic written instead of the PDF.
	CompileError string `json:"compile_error,omitempty" yaml:"compile_error,omitempty"`
}
