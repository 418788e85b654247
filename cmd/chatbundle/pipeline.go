// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/spf13/afero"

	"github.com/pdiddy/chatbundle/internal/assets"
	"github.com/pdiddy/chatbundle/internal/bundle"
	"github.com/pdiddy/chatbundle/internal/history"
	"github.com/pdiddy/chatbundle/internal/relay"
	"github.com/pdiddy/chatbundle/internal/secrets"
	"github.com/pdiddy/chatbundle/internal/typst"
	"github.com/pdiddy/chatbundle/pkg/types"
)

// pipeline wires the exporter to its resolver, compiler and history.
type pipeline struct {
	cfg      types.Config
	fs       afero.Fs
	exporter *bundle.Exporter
	relay    *relay.Controller
	history  *history.Store
	log      *slog.Logger
	out      io.Writer
}

func newPipeline(cfg types.Config, withHistory bool, log *slog.Logger, out io.Writer) (*pipeline, error) {
	headers, err := secrets.LoadHeaders(cfg.Resolve.HeadersDir, log)
	if err != nil {
		return nil, err
	}
	if names := secrets.Names(headers); len(names) > 0 {
		log.Info("loaded request headers", "names", names)
	}

	client := &http.Client{Timeout: cfg.HTTP.Timeout}
	resolver := assets.NewResolver(client, cfg.HTTP, cfg.Resolve,
		assets.WithHeaders(headers), assets.WithLogger(log))

	p := &pipeline{cfg: cfg, fs: afero.NewOsFs(), log: log, out: out}
	opts := []bundle.Option{
		bundle.WithFs(p.fs),
		bundle.WithLogger(log),
		bundle.WithProgress(out),
		bundle.WithFont(cfg.Compile.FontPath),
	}

	if !cfg.Compile.Disabled {
		engine, loader, err := newEngine(cfg.Compile)
		if err != nil {
			return nil, err
		}
		p.relay = relay.NewController(relay.LocalHost(engine, log),
			relay.WithTimeout(cfg.Compile.Timeout),
			relay.WithLoader(loader),
			relay.WithLogger(log))
		opts = append(opts, bundle.WithCompiler(p.relay))
	}
	p.exporter = bundle.NewExporter(resolver, cfg.Render, opts...)

	if withHistory {
		store, err := history.Open(cfg.History)
		if err != nil {
			p.Close()
			return nil, err
		}
		p.history = store
	}
	return p, nil
}

// newEngine returns the compiler engine and the loader to hand it.
func newEngine(cfg types.CompileConfig) (typst.Engine, string, error) {
	switch cfg.Engine {
	case types.EngineCLI, "":
		return typst.NewCLIEngine(nil), cfg.Loader, nil
	case types.EngineContainer:
		return typst.NewContainerEngine(nil), cfg.Image, nil
	default:
		return nil, "", fmt.Errorf("unknown compile engine %q (want %s or %s)", cfg.Engine, types.EngineCLI, types.EngineContainer)
	}
}

// exportFile exports one conversation file and saves its archive.
func (p *pipeline) exportFile(ctx context.Context, path string) (types.ExportRecord, error) {
	conv, err := bundle.LoadConversation(p.fs, path)
	if err != nil {
		return types.ExportRecord{}, err
	}
	fmt.Fprintf(p.out, "exporting: %s (%d messages)\n", conv.Title, len(conv.Messages))

	b, err := p.exporter.Export(ctx, conv)
	if err != nil {
		return types.ExportRecord{}, fmt.Errorf("exporting %s: %w", path, err)
	}
	dest, err := bundle.Save(p.fs, p.cfg.Export.OutDir, b)
	if err != nil {
		return types.ExportRecord{}, fmt.Errorf("saving %s: %w", b.Name(), err)
	}
	fmt.Fprintf(p.out, "wrote: %s\n", dest)

	rec := types.ExportRecord{
		Title:        conv.Title,
		ExportedAt:   b.Manifest.ExportedAt,
		BundlePath:   dest,
		Messages:     b.Manifest.Messages,
		Assets:       len(b.Manifest.Images),
		Resolved:     b.Manifest.Resolved(),
		Compiled:     b.Manifest.Compiled,
		CompileError: b.Manifest.CompileError,
	}
	if p.history != nil {
		rec, err = p.history.Record(ctx, rec)
		if err != nil {
			p.log.Warn("recording history", "err", err)
		}
	}
	return rec, nil
}

// Close releases the compiler host and history database.
func (p *pipeline) Close() {
	if p.relay != nil {
		p.relay.Close()
	}
	if p.history != nil {
		p.history.Close()
	}
}
