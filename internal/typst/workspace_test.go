// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package typst

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkspace_MapShadowAndRead(t *testing.T) {
	ws := NewWorkspace()
	require.NoError(t, ws.MapShadow("/images/image_1.png", []byte("png")))
	require.NoError(t, ws.AddSource(EntryPath, "= Hello"))

	got, err := ws.ReadFile("images/image_1.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("png"), got)

	src, err := ws.ReadFile(EntryPath)
	require.NoError(t, err)
	assert.Equal(t, "= Hello", string(src))
}

func TestWorkspace_MapShadowOverwrites(t *testing.T) {
	ws := NewWorkspace()
	require.NoError(t, ws.MapShadow("/a.txt", []byte("one")))
	require.NoError(t, ws.MapShadow("/a.txt", []byte("two")))

	got, err := ws.ReadFile("/a.txt")
	require.NoError(t, err)
	assert.Equal(t, "two", string(got))
}

func TestWorkspace_AddFont(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		wantErr bool
		wantExt string
	}{
		{"truetype", []byte{0x00, 0x01, 0x00, 0x00, 0xAA}, false, ".ttf"},
		{"opentype", []byte("OTTO...."), false, ".otf"},
		{"collection", []byte("ttcf...."), false, ".ttc"},
		{"garbage", []byte("not a font"), true, ""},
		{"empty", nil, true, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ws := NewWorkspace()
			err := ws.AddFont(tt.data)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrNotFont)
				assert.False(t, ws.HasFonts())
				return
			}
			require.NoError(t, err)
			assert.True(t, ws.HasFonts())
			got, err := ws.ReadFile(FontDir + "/custom_1" + tt.wantExt)
			require.NoError(t, err)
			assert.Equal(t, tt.data, got)
		})
	}
}

func TestWorkspace_Materialize(t *testing.T) {
	ws := NewWorkspace()
	require.NoError(t, ws.AddSource(EntryPath, "#image(\"/images/image_1.png\")"))
	require.NoError(t, ws.MapShadow("/images/image_1.png", []byte{1, 2, 3}))

	dir := t.TempDir()
	require.NoError(t, ws.Materialize(dir))

	src, err := os.ReadFile(filepath.Join(dir, "main.typ"))
	require.NoError(t, err)
	assert.Contains(t, string(src), "image_1.png")

	img, err := os.ReadFile(filepath.Join(dir, "images", "image_1.png"))
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, img)
}

func TestCompileArgs(t *testing.T) {
	assert.Equal(t,
		[]string{"compile", "--root", "/work", "/work/main.typ", "/work/out.pdf"},
		compileArgs("/work", EntryPath, false))
	assert.Equal(t,
		[]string{"compile", "--root", "/work", "--font-path", "/work/.fonts", "/work/main.typ", "/work/out.pdf"},
		compileArgs("/work", EntryPath, true))
}

func TestNewCompileError(t *testing.T) {
	ce := newCompileError("error: unknown variable: foo\n  ┌─ main.typ:3:1\n", assert.AnError)
	assert.Equal(t, "error: unknown variable: foo", ce.Message)
	assert.Contains(t, ce.Diagnostics, "main.typ:3:1")

	ce = newCompileError("  ", assert.AnError)
	assert.Contains(t, ce.Message, "typst compile failed")
	assert.Empty(t, ce.Diagnostics)
}
