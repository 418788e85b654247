// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package render turns a conversation export into Markdown and Typst
// documents. Image references are rewritten to bundle filenames taken from
// a FilenameTable.
package render

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/pdiddy/chatbundle/pkg/types"
)

//go:embed preamble.typ
var preamble string

// Defaults for RenderConfig fields left empty.
const (
	DefaultFont       = "NanumGothic"
	DefaultLang       = "ko"
	DefaultPaper      = "a4"
	DefaultImageWidth = "80%"
)

// Renderer produces both document notations for one conversation.
type Renderer struct {
	conv  *types.ConversationExport
	names *FilenameTable
	cfg   types.RenderConfig
}

// New creates a Renderer. names must come from AssignNames on the same
// conversation.
func New(conv *types.ConversationExport, names *FilenameTable, cfg types.RenderConfig) *Renderer {
	if cfg.Font == "" {
		cfg.Font = DefaultFont
	}
	if cfg.Lang == "" {
		cfg.Lang = DefaultLang
	}
	if cfg.Paper == "" {
		cfg.Paper = DefaultPaper
	}
	if cfg.ImageWidth == "" {
		cfg.ImageWidth = DefaultImageWidth
	}
	return &Renderer{conv: conv, names: names, cfg: cfg}
}

// Markdown renders the conversation as Markdown. Content passes through
// unescaped.
func (r *Renderer) Markdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", r.conv.Title)
	fmt.Fprintf(&b, "*Exported: %s*\n\n---\n\n", r.conv.Timestamp)

	for _, msg := range r.conv.Messages {
		fmt.Fprintf(&b, "### %s\n\n", msg.Role.Label())
		if msg.Content != "" {
			fmt.Fprintf(&b, "%s\n\n", msg.Content)
		}
		for _, u := range msg.Images {
			name, ok := r.names.FilenameFor(u)
			if !ok {
				continue
			}
			fmt.Fprintf(&b, "![Image](%s/%s)\n\n", ImageDir, name)
		}
		b.WriteString("---\n\n")
	}
	return b.String()
}

// Typst renders the conversation as a Typst source document. Only images
// with resolved bytes are placed in the grid.
func (r *Renderer) Typst() string {
	var b strings.Builder
	b.WriteString(strings.NewReplacer(
		"{{paper}}", typstString(r.cfg.Paper),
		"{{font}}", typstString(r.cfg.Font),
		"{{lang}}", typstString(r.cfg.Lang),
	).Replace(preamble))

	fmt.Fprintf(&b, "\n#align(center, text(17pt, weight: \"bold\")[%s])\n", EscapeTypst(r.conv.Title))
	fmt.Fprintf(&b, "#align(center, text(10pt, style: \"italic\")[Exported: %s])\n", EscapeTypst(r.conv.Timestamp))
	b.WriteString("#v(1cm)\n\n")

	for _, msg := range r.conv.Messages {
		block := "model_block"
		if msg.Role == types.RoleUser {
			block = "user_block"
		}
		fmt.Fprintf(&b, "#%s[\n*%s*:\n\n%s\n", block, msg.Role.Label(), FormatTypstContent(msg.Content))
		r.writeImageGrid(&b, msg.Images)
		b.WriteString("]\n#v(0.5cm)\n")
	}
	return b.String()
}

func (r *Renderer) writeImageGrid(b *strings.Builder, images []string) {
	var paths []string
	for _, u := range images {
		if !r.names.Available(u) {
			continue
		}
		if p, ok := r.names.VirtualPath(u); ok {
			paths = append(paths, p)
		}
	}
	if len(paths) == 0 {
		return
	}
	b.WriteString("\n#grid(columns: (1fr), gutter: 1em,\n")
	for _, p := range paths {
		fmt.Fprintf(b, "  image(%s, width: %s),\n", typstString(p), r.cfg.ImageWidth)
	}
	b.WriteString(")\n")
}
