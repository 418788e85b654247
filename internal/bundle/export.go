// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package bundle assembles the export bundle for a conversation: resolved
// images, the Markdown and Typst documents, and the compiled PDF or a
// diagnostic in its place.
package bundle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/afero"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/chatbundle/internal/assets"
	"github.com/pdiddy/chatbundle/internal/relay"
	"github.com/pdiddy/chatbundle/internal/render"
	"github.com/pdiddy/chatbundle/pkg/types"
)

// Bundle file names.
const (
	MarkdownFile = "conversation.md"
	TypstFile    = "conversation.typ"
	PDFFile      = "conversation.pdf"
	ErrorFile    = "typst_error.txt"
	ManifestFile = "manifest.yaml"
)

// errCompileDisabled is reported in place of a PDF when no compiler is set.
var errCompileDisabled = errors.New("compilation disabled")

// AssetResolver turns URLReferences into bytes.
type AssetResolver interface {
	Resolve(ctx context.Context, refs []string, local map[string]string) map[string]types.ResolvedBuffer
}

// Compiler turns Typst source and its assets into a PDF.
type Compiler interface {
	Compile(ctx context.Context, source string, assets map[string][]byte, font []byte) ([]byte, error)
}

// File is one entry of a bundle.
type File struct {
	Name string
	Data []byte
}

// Bundle is an assembled export.
type Bundle struct {
	Title    string
	Files    []File
	Manifest Manifest
}

// Name returns the archive file name for the bundle.
func (b *Bundle) Name() string {
	name := SanitizeFilename(b.Title)
	if name == "" {
		name = "conversation"
	}
	return name + ".zip"
}

// File returns the named entry.
func (b *Bundle) File(name string) ([]byte, bool) {
	for _, f := range b.Files {
		if f.Name == name {
			return f.Data, true
		}
	}
	return nil, false
}

// Manifest summarises a bundle. It is written into the bundle as YAML.
type Manifest struct {
	Title        string          `yaml:"title"`
	Timestamp    string          `yaml:"timestamp"`
	ExportedAt   time.Time       `yaml:"exported_at"`
	Messages     int             `yaml:"messages"`
	Images       []ManifestImage `yaml:"images"`
	Compiled     bool            `yaml:"compiled"`
	CompileError string          `yaml:"compile_error,omitempty"`
}

// ManifestImage describes one referenced image.
type ManifestImage struct {
	URL       string `yaml:"url"`
	File      string `yaml:"file"`
	Resolved  bool   `yaml:"resolved"`
	Local     bool   `yaml:"local,omitempty"`
	MediaType string `yaml:"media_type,omitempty"`
	Bytes     int    `yaml:"bytes,omitempty"`
}

// Resolved counts images whose bytes were obtained.
func (m Manifest) Resolved() int {
	n := 0
	for _, img := range m.Images {
		if img.Resolved {
			n++
		}
	}
	return n
}

// Exporter runs the export pipeline.
type Exporter struct {
	resolver AssetResolver
	compiler Compiler
	render   types.RenderConfig
	fontPath string
	fs       afero.Fs
	log      *slog.Logger
	out      io.Writer
	now      func() time.Time
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithCompiler sets the compiler. Without one the bundle carries a
// diagnostic instead of a PDF.
func WithCompiler(c Compiler) Option {
	return func(e *Exporter) { e.compiler = c }
}

// WithFont registers the font file at path with every compile.
func WithFont(path string) Option {
	return func(e *Exporter) { e.fontPath = path }
}

// WithFs sets the filesystem fonts are read from.
func WithFs(fs afero.Fs) Option {
	return func(e *Exporter) { e.fs = fs }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Exporter) {
		if l != nil {
			e.log = l
		}
	}
}

// WithProgress sets where human-readable progress lines are written.
func WithProgress(w io.Writer) Option {
	return func(e *Exporter) {
		if w != nil {
			e.out = w
		}
	}
}

// NewExporter creates an Exporter that resolves images with resolver and
// typesets with cfg.
func NewExporter(resolver AssetResolver, cfg types.RenderConfig, opts ...Option) *Exporter {
	e := &Exporter{
		resolver: resolver,
		render:   cfg,
		fs:       afero.NewOsFs(),
		log:      slog.New(slog.DiscardHandler),
		out:      io.Discard,
		now:      time.Now,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Export builds the bundle for conv. Image and compile failures are
// recorded in the bundle; only a cancelled ctx aborts the export.
func (e *Exporter) Export(ctx context.Context, conv *types.ConversationExport) (*Bundle, error) {
	names := render.AssignNames(conv)
	urls := names.URLs()

	resolved := e.resolver.Resolve(ctx, urls, conv.LocalPayloads())
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := names.ApplyExtensions(assets.Extensions(resolved)); err != nil {
		return nil, err
	}

	b := &Bundle{
		Title: conv.Title,
		Manifest: Manifest{
			Title:      conv.Title,
			Timestamp:  conv.Timestamp,
			ExportedAt: e.now().UTC(),
			Messages:   len(conv.Messages),
		},
	}

	var images []File
	compileAssets := make(map[string][]byte)
	for _, url := range urls {
		rec, _ := names.Record(url)
		img := ManifestImage{URL: url, File: render.ImageDir + "/" + rec.Filename()}
		buf, ok := resolved[url]
		if ok {
			img.Resolved = true
			img.Local = buf.Local
			img.MediaType = buf.MediaType
			img.Bytes = len(buf.Bytes)
			images = append(images, File{Name: img.File, Data: buf.Bytes})
			vp, _ := names.VirtualPath(url)
			compileAssets[vp] = buf.Bytes
			fmt.Fprintf(e.out, "resolved: %s -> %s\n", assets.ShortRef(url), img.File)
		} else {
			fmt.Fprintf(e.out, "failed:   %s\n", assets.ShortRef(url))
		}
		b.Manifest.Images = append(b.Manifest.Images, img)
	}

	r := render.New(conv, names, e.render)
	source := r.Typst()
	b.Files = append(b.Files,
		File{Name: MarkdownFile, Data: []byte(r.Markdown())},
		File{Name: TypstFile, Data: []byte(source)},
	)
	b.Files = append(b.Files, images...)

	pdf, err := e.compile(ctx, source, compileAssets)
	switch {
	case err == nil:
		b.Manifest.Compiled = true
		b.Files = append(b.Files, File{Name: PDFFile, Data: pdf})
		fmt.Fprintf(e.out, "compiled: %s (%d bytes)\n", PDFFile, len(pdf))
	case ctx.Err() != nil:
		return nil, ctx.Err()
	default:
		b.Manifest.CompileError = err.Error()
		b.Files = append(b.Files, File{Name: ErrorFile, Data: []byte(diagnostic(err))})
		e.log.Warn("compile failed", "title", conv.Title, "err", err)
		fmt.Fprintf(e.out, "failed:   %s (%v)\n", PDFFile, err)
	}

	manifest, err := yaml.Marshal(&b.Manifest)
	if err != nil {
		return nil, fmt.Errorf("encoding manifest: %w", err)
	}
	b.Files = append(b.Files, File{Name: ManifestFile, Data: manifest})

	fmt.Fprintf(e.out, "\nExport summary: %d of %d images resolved, pdf: %t\n",
		b.Manifest.Resolved(), names.Len(), b.Manifest.Compiled)
	return b, nil
}

func (e *Exporter) compile(ctx context.Context, source string, compileAssets map[string][]byte) ([]byte, error) {
	if e.compiler == nil {
		return nil, errCompileDisabled
	}
	return e.compiler.Compile(ctx, source, compileAssets, e.readFont())
}

// readFont returns the configured font, or nil if none is set or it cannot
// be read.
func (e *Exporter) readFont() []byte {
	if e.fontPath == "" {
		return nil
	}
	data, err := afero.ReadFile(e.fs, e.fontPath)
	if err != nil {
		e.log.Warn("font unavailable, compiling without it", "path", e.fontPath, "err", err)
		return nil
	}
	return data
}

// diagnostic is the text written in place of the PDF: the error message,
// then its trace.
func diagnostic(err error) string {
	var re *relay.Error
	trace := ""
	if errors.As(err, &re) {
		trace = re.Trace
	}
	return err.Error() + "\n" + trace
}

