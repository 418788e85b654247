// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package typst

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/pdiddy/chatbundle/internal/container"
)

// DefaultBinary is the compiler looked up on PATH when no loader is given.
const DefaultBinary = "typst"

// CLIEngine runs a local typst binary.
type CLIEngine struct {
	exec container.Executor

	mu  sync.Mutex
	bin string // resolved binary; empty until Init succeeds
}

// NewCLIEngine creates an engine that runs processes through exec.
func NewCLIEngine(exec container.Executor) *CLIEngine {
	if exec == nil {
		exec = container.DefaultExecutor()
	}
	return &CLIEngine{exec: exec}
}

// Name implements Engine.
func (e *CLIEngine) Name() string { return "cli" }

// Init resolves loader on PATH and checks that it runs. A successful Init
// is remembered; a failed one is retried on the next call.
func (e *CLIEngine) Init(ctx context.Context, loader string) error {
	if loader == "" {
		loader = DefaultBinary
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.bin != "" {
		return nil
	}

	bin, err := e.exec.LookPath(loader)
	if err != nil {
		return fmt.Errorf("typst binary %q not found: %w", loader, err)
	}
	if err := e.exec.RunSilent(ctx, bin, "--version"); err != nil {
		return fmt.Errorf("typst binary %q not runnable: %w", bin, err)
	}
	e.bin = bin
	return nil
}

// Compile implements Engine.
func (e *CLIEngine) Compile(ctx context.Context, ws *Workspace, entry string) ([]byte, error) {
	e.mu.Lock()
	bin := e.bin
	e.mu.Unlock()
	if bin == "" {
		return nil, fmt.Errorf("cli engine not initialised")
	}

	j, err := newJob(ws)
	if err != nil {
		return nil, err
	}
	defer j.cleanup()

	var stderr bytes.Buffer
	err = e.exec.Run(ctx, container.Command{
		Name:   bin,
		Args:   compileArgs(j.dir, entry, ws.HasFonts()),
		Dir:    j.dir,
		Stderr: &stderr,
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, newCompileError(stderr.String(), err)
	}
	return j.output()
}
