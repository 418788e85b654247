// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package typst

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/chatbundle/internal/container"
)

// fakeExecutor stands in for the typst binary. On Run it writes pdf to the
// output path named by the last argument, or fails with stderr.
type fakeExecutor struct {
	mu       sync.Mutex
	lookErr  error
	silent   []string
	runs     []container.Command
	pdf      []byte
	stderr   string
	runErr   error
	seenMain string
}

func (f *fakeExecutor) LookPath(file string) (string, error) {
	if f.lookErr != nil {
		return "", f.lookErr
	}
	return "/usr/bin/" + file, nil
}

func (f *fakeExecutor) RunSilent(_ context.Context, name string, args ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.silent = append(f.silent, name+" "+strings.Join(args, " "))
	return nil
}

func (f *fakeExecutor) Run(_ context.Context, c container.Command) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs = append(f.runs, c)
	if f.runErr != nil {
		if c.Stderr != nil {
			io.WriteString(c.Stderr, f.stderr)
		}
		return f.runErr
	}
	main := c.Args[len(c.Args)-2]
	src, err := os.ReadFile(main)
	if err != nil {
		return err
	}
	f.seenMain = string(src)
	return os.WriteFile(c.Args[len(c.Args)-1], f.pdf, 0o644)
}

func sampleWorkspace(t *testing.T) *Workspace {
	t.Helper()
	ws := NewWorkspace()
	require.NoError(t, ws.AddSource(EntryPath, "= Title"))
	return ws
}

func TestCLIEngine_InitOnce(t *testing.T) {
	fe := &fakeExecutor{}
	e := NewCLIEngine(fe)

	require.NoError(t, e.Init(context.Background(), ""))
	require.NoError(t, e.Init(context.Background(), ""))
	assert.Equal(t, []string{"/usr/bin/typst --version"}, fe.silent)
	assert.Equal(t, "cli", e.Name())
}

func TestCLIEngine_InitMissingBinary(t *testing.T) {
	fe := &fakeExecutor{lookErr: errors.New("not found")}
	e := NewCLIEngine(fe)

	err := e.Init(context.Background(), "typst")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestCLIEngine_CompileBeforeInit(t *testing.T) {
	e := NewCLIEngine(&fakeExecutor{})
	_, err := e.Compile(context.Background(), sampleWorkspace(t), EntryPath)
	assert.Error(t, err)
}

func TestCLIEngine_Compile(t *testing.T) {
	fe := &fakeExecutor{pdf: []byte("%PDF-1.7")}
	e := NewCLIEngine(fe)
	require.NoError(t, e.Init(context.Background(), ""))

	pdf, err := e.Compile(context.Background(), sampleWorkspace(t), EntryPath)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.7"), pdf)
	assert.Equal(t, "= Title", fe.seenMain)

	require.Len(t, fe.runs, 1)
	dir := fe.runs[0].Dir
	assert.Equal(t, "/usr/bin/typst", fe.runs[0].Name)
	assert.NotContains(t, fe.runs[0].Args, "--font-path")
	_, statErr := os.Stat(dir)
	assert.True(t, os.IsNotExist(statErr), "job directory should be removed")
}

func TestCLIEngine_CompileWithFonts(t *testing.T) {
	fe := &fakeExecutor{pdf: []byte("%PDF")}
	e := NewCLIEngine(fe)
	require.NoError(t, e.Init(context.Background(), ""))

	ws := sampleWorkspace(t)
	require.NoError(t, ws.AddFont([]byte("OTTO font")))
	_, err := e.Compile(context.Background(), ws, EntryPath)
	require.NoError(t, err)

	args := fe.runs[0].Args
	assert.Contains(t, args, "--font-path")
	assert.Equal(t, filepath.Join(fe.runs[0].Dir, ".fonts"), args[4])
}

func TestCLIEngine_CompileError(t *testing.T) {
	fe := &fakeExecutor{
		runErr: errors.New("exit status 1"),
		stderr: "error: expected expression\n  at main.typ:1:2",
	}
	e := NewCLIEngine(fe)
	require.NoError(t, e.Init(context.Background(), ""))

	_, err := e.Compile(context.Background(), sampleWorkspace(t), EntryPath)
	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "error: expected expression", ce.Message)
	assert.Contains(t, ce.Diagnostics, "main.typ:1:2")
}

// fakeRuntime records container runs and writes the output into the
// mounted host directory.
type fakeRuntime struct {
	imageErr error
	runs     []container.RunOptions
	pdf      []byte
}

func (f *fakeRuntime) Name() string { return "docker" }
func (f *fakeRuntime) Available(context.Context) bool { return true }
func (f *fakeRuntime) ImageExists(context.Context, string) error { return f.imageErr }

func (f *fakeRuntime) Run(_ context.Context, opts container.RunOptions) error {
	f.runs = append(f.runs, opts)
	if len(opts.Mounts) != 1 {
		return fmt.Errorf("expected one mount, got %d", len(opts.Mounts))
	}
	return os.WriteFile(filepath.Join(opts.Mounts[0].Source, outputName), f.pdf, 0o644)
}

func TestContainerEngine_Compile(t *testing.T) {
	rt := &fakeRuntime{pdf: []byte("%PDF-c")}
	detects := 0
	e := NewContainerEngine(func(context.Context) (container.Runtime, error) {
		detects++
		return rt, nil
	})

	require.NoError(t, e.Init(context.Background(), "typst:test"))
	require.NoError(t, e.Init(context.Background(), "typst:test"))
	assert.Equal(t, 1, detects)

	pdf, err := e.Compile(context.Background(), sampleWorkspace(t), EntryPath)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-c"), pdf)

	require.Len(t, rt.runs, 1)
	opts := rt.runs[0]
	assert.Equal(t, "typst:test", opts.Image)
	assert.Equal(t, "/work", opts.Mounts[0].Target)
	assert.False(t, opts.Network)
	assert.Equal(t, []string{"compile", "--root", "/work", "/work/main.typ", "/work/out.pdf"}, opts.Args)
}

func TestContainerEngine_InitErrors(t *testing.T) {
	e := NewContainerEngine(func(context.Context) (container.Runtime, error) {
		return nil, errors.New("no runtime")
	})
	assert.Error(t, e.Init(context.Background(), ""))

	e = NewContainerEngine(func(context.Context) (container.Runtime, error) {
		return &fakeRuntime{imageErr: errors.New("missing")}, nil
	})
	err := e.Init(context.Background(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "docker")
}
