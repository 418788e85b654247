// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package relay

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/sourcegraph/conc"

	"github.com/pdiddy/chatbundle/internal/typst"
)

// panicError carries a recovered panic and the stack where it happened.
type panicError struct {
	value any
	stack []byte
}

func (p *panicError) Error() string { return fmt.Sprintf("panic: %v", p.value) }

// RunSandbox serves compile commands arriving on port until the port is
// closed or ctx ends. It signals readiness once at start and compiles each
// command on its own goroutine.
func RunSandbox(ctx context.Context, port *Port, engine typst.Engine, log *slog.Logger) error {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	log = log.With("component", "relay-sandbox", "engine", engine.Name())

	ctx, cancel := context.WithCancel(ctx)
	var wg conc.WaitGroup
	defer func() {
		cancel()
		wg.Wait()
	}()

	if err := port.Post(ctx, marshal(Result{Action: ActionReady})); err != nil {
		return fmt.Errorf("signalling readiness: %w", err)
	}

	for {
		select {
		case msg := <-port.C():
			var cmd Command
			if err := json.Unmarshal(msg, &cmd); err != nil {
				log.Warn("dropping malformed command", "err", err)
				continue
			}
			if cmd.Action != ActionCompile {
				log.Warn("dropping command", "action", cmd.Action)
				continue
			}
			wg.Go(func() {
				res := Result{Action: ActionResult, ID: cmd.ID}
				pdf, err := compile(ctx, engine, cmd, log)
				if err != nil {
					log.Warn("compile failed", "id", cmd.ID, "err", err)
					res.Error = describe(err)
				} else {
					log.Debug("compile finished", "id", cmd.ID, "bytes", len(pdf))
					res.Success = true
					res.Data = base64.StdEncoding.EncodeToString(pdf)
				}
				if err := port.Post(ctx, marshal(res)); err != nil {
					log.Debug("posting result", "id", cmd.ID, "err", err)
				}
			})
		case <-port.Done():
			return nil
		case <-ctx.Done():
			port.Close()
			return ctx.Err()
		}
	}
}

func compile(ctx context.Context, engine typst.Engine, cmd Command, log *slog.Logger) (pdf []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &panicError{value: r, stack: debug.Stack()}
		}
	}()

	if err := engine.Init(ctx, cmd.LoaderURL); err != nil {
		return nil, fmt.Errorf("initialising %s engine: %w", engine.Name(), err)
	}

	ws := typst.NewWorkspace()
	if cmd.Font != "" {
		if err := addFont(ws, cmd.Font); err != nil {
			log.Warn("custom font ignored", "id", cmd.ID, "err", err)
		}
	}
	for p, enc := range cmd.Assets {
		data, err := base64.StdEncoding.DecodeString(enc)
		if err != nil {
			log.Warn("asset skipped", "id", cmd.ID, "path", p, "err", err)
			continue
		}
		if err := ws.MapShadow(p, data); err != nil {
			log.Warn("asset skipped", "id", cmd.ID, "path", p, "err", err)
		}
	}
	if err := ws.AddSource(typst.EntryPath, cmd.Source); err != nil {
		return nil, err
	}
	return engine.Compile(ctx, ws, typst.EntryPath)
}

func addFont(ws *typst.Workspace, enc string) error {
	data, err := base64.StdEncoding.DecodeString(enc)
	if err != nil {
		return fmt.Errorf("decoding font: %w", err)
	}
	return ws.AddFont(data)
}

// describe renders err as a message line followed by its trace, if any.
func describe(err error) string {
	var ce *typst.CompileError
	if errors.As(err, &ce) && ce.Diagnostics != "" {
		return ce.Message + "\n" + ce.Diagnostics
	}
	var pe *panicError
	if errors.As(err, &pe) {
		return pe.Error() + "\n" + string(pe.stack)
	}
	return err.Error()
}
