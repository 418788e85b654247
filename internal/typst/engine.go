// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package typst

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Engine compiles a Workspace to PDF.
type Engine interface {
	// Name identifies the engine in logs.
	Name() string

	// Init prepares the engine using loader (a binary path or image name).
	// It is safe to call before every compile; work is done once.
	Init(ctx context.Context, loader string) error

	// Compile compiles the entry file of ws and returns the PDF bytes.
	Compile(ctx context.Context, ws *Workspace, entry string) ([]byte, error)
}

// CompileError is a failure reported by the compiler itself, as opposed to
// a failure to run it.
type CompileError struct {
	// Message is the first diagnostic line.
	Message string
	// Diagnostics is the full compiler output.
	Diagnostics string
}

func (e *CompileError) Error() string { return e.Message }

// newCompileError builds a CompileError from compiler stderr.
func newCompileError(stderr string, runErr error) *CompileError {
	out := strings.TrimSpace(stderr)
	if out == "" {
		return &CompileError{Message: fmt.Sprintf("typst compile failed: %v", runErr)}
	}
	first, _, _ := strings.Cut(out, "\n")
	return &CompileError{Message: strings.TrimSpace(first), Diagnostics: out}
}

// job is a materialised workspace on the host filesystem.
type job struct {
	dir string
}

const outputName = "out.pdf"

func newJob(ws *Workspace) (*job, error) {
	dir, err := os.MkdirTemp("", "chatbundle-typst-*")
	if err != nil {
		return nil, fmt.Errorf("creating job directory: %w", err)
	}
	if err := ws.Materialize(dir); err != nil {
		os.RemoveAll(dir)
		return nil, fmt.Errorf("materialising workspace: %w", err)
	}
	return &job{dir: dir}, nil
}

// compileArgs returns the typst CLI arguments with root as the project
// root as seen by the compiler process.
func compileArgs(root, entry string, fonts bool) []string {
	args := []string{"compile", "--root", root}
	if fonts {
		args = append(args, "--font-path", filepath.Join(root, FontDir))
	}
	return append(args, filepath.Join(root, entry), filepath.Join(root, outputName))
}

func (j *job) output() ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(j.dir, outputName))
	if err != nil {
		return nil, fmt.Errorf("reading compiled output: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("compiler produced empty output")
	}
	return data, nil
}

func (j *job) cleanup() {
	os.RemoveAll(j.dir)
}
