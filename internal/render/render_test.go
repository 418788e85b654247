// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/chatbundle/pkg/types"
)

func TestMarkdown(t *testing.T) {
	conv := sampleConversation()
	names := AssignNames(conv)
	require.NoError(t, names.ApplyExtensions(map[string]string{"https://img/a": "jpg"}))

	md := New(conv, names, types.RenderConfig{}).Markdown()

	assert.True(t, strings.HasPrefix(md, "# Trip plan\n\n*Exported: 2026-10-17 09:30*\n\n---\n\n"))
	assert.Equal(t, 2, strings.Count(md, "### User\n\n"))
	assert.Equal(t, 1, strings.Count(md, "### Model\n\n"))
	assert.Contains(t, md, "Where should we go?\n\n")
	assert.Equal(t, 2, strings.Count(md, "![Image](images/image_1.jpg)"), "duplicate reference renders twice")
	assert.Contains(t, md, "![Image](images/image_3.png)")
	assert.Equal(t, 4, strings.Count(md, "---\n\n"), "header rule plus one per message")
}

func TestMarkdown_ContentIsNotEscaped(t *testing.T) {
	conv := &types.ConversationExport{
		Title: "T",
		Messages: []types.Message{
			{Role: types.RoleModel, Content: "**bold** and `code_with_underscores` $x$"},
		},
	}
	md := New(conv, AssignNames(conv), types.RenderConfig{}).Markdown()
	assert.Contains(t, md, "**bold** and `code_with_underscores` $x$")
}

func TestTypst_Structure(t *testing.T) {
	conv := sampleConversation()
	conv.Title = "Plan #1 [draft]"
	names := AssignNames(conv)
	require.NoError(t, names.ApplyExtensions(map[string]string{
		"https://img/a": "jpg",
		"https://img/b": "webp",
	}))

	typ := New(conv, names, types.RenderConfig{Font: "Noto Sans"}).Typst()

	assert.Contains(t, typ, `font: "Noto Sans"`)
	assert.Contains(t, typ, `paper: "a4"`)
	assert.Contains(t, typ, `lang: "ko"`)
	assert.Contains(t, typ, "#let user_block(body)")
	assert.Contains(t, typ, "#let model_block(body)")
	assert.Contains(t, typ, `[Plan \#1 \[draft\]]`)
	assert.Contains(t, typ, "#user_block[\n*User*:\n\nWhere should we go?\n")
	assert.Contains(t, typ, "#model_block[\n*Model*:\n\nTry the coast.\n")
	assert.Equal(t, 3, strings.Count(typ, "]\n#v(0.5cm)\n"))

	assert.Contains(t, typ, `image("/images/image_1.jpg", width: 80%)`)
	assert.Contains(t, typ, `image("/images/image_2.webp", width: 80%)`)
	assert.NotContains(t, typ, "image_3", "unresolved assets stay out of the grid")
	assert.Equal(t, 2, strings.Count(typ, "#grid(columns: (1fr), gutter: 1em,"))
}

func TestTypst_NoImagesNoGrid(t *testing.T) {
	conv := &types.ConversationExport{
		Title:    "Hello",
		Messages: []types.Message{{Role: types.RoleUser, Content: "Hello"}},
	}
	typ := New(conv, AssignNames(conv), types.RenderConfig{}).Typst()
	assert.NotContains(t, typ, "#grid(")
	assert.Contains(t, typ, `font: "NanumGothic"`)
}

func TestTypst_FormatsContent(t *testing.T) {
	conv := &types.ConversationExport{
		Title: "Math",
		Messages: []types.Message{
			{Role: types.RoleModel, Content: "Area is $\\pi r^2$\nso **large**"},
		},
	}
	typ := New(conv, AssignNames(conv), types.RenderConfig{ImageWidth: "50%"}).Typst()
	assert.Contains(t, typ, "Area is $pi r^2$ \\\nso *large*")
}
