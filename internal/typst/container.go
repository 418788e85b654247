// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package typst

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/pdiddy/chatbundle/internal/container"
)

// DefaultImage is the compiler image used by the container engine.
const DefaultImage = "ghcr.io/typst/typst:latest"

const containerRoot = "/work"

// ContainerEngine runs the typst image under docker or podman with the
// workspace mounted at /work and networking disabled.
type ContainerEngine struct {
	detect func(ctx context.Context) (container.Runtime, error)

	mu    sync.Mutex
	rt    container.Runtime
	image string
}

// NewContainerEngine creates an engine that picks a runtime with detect.
// A nil detect uses container.DetectRuntime.
func NewContainerEngine(detect func(ctx context.Context) (container.Runtime, error)) *ContainerEngine {
	if detect == nil {
		detect = container.DetectRuntime
	}
	return &ContainerEngine{detect: detect}
}

// Name implements Engine.
func (e *ContainerEngine) Name() string { return "container" }

// Init detects a runtime and verifies that the image loader is present.
func (e *ContainerEngine) Init(ctx context.Context, loader string) error {
	if loader == "" {
		loader = DefaultImage
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.rt != nil && e.image == loader {
		return nil
	}

	rt, err := e.detect(ctx)
	if err != nil {
		return err
	}
	if err := rt.ImageExists(ctx, loader); err != nil {
		return fmt.Errorf("typst image not available in %s: %w", rt.Name(), err)
	}
	e.rt = rt
	e.image = loader
	return nil
}

// Compile implements Engine.
func (e *ContainerEngine) Compile(ctx context.Context, ws *Workspace, entry string) ([]byte, error) {
	e.mu.Lock()
	rt, image := e.rt, e.image
	e.mu.Unlock()
	if rt == nil {
		return nil, fmt.Errorf("container engine not initialised")
	}

	j, err := newJob(ws)
	if err != nil {
		return nil, err
	}
	defer j.cleanup()

	var stderr bytes.Buffer
	err = rt.Run(ctx, container.RunOptions{
		Image:   image,
		Args:    compileArgs(containerRoot, entry, ws.HasFonts()),
		Mounts:  []container.Mount{{Source: j.dir, Target: containerRoot}},
		Workdir: containerRoot,
		Stderr:  &stderr,
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, newCompileError(stderr.String(), err)
	}
	return j.output()
}
