// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/chatbundle/pkg/types"
)

func sampleConversation() *types.ConversationExport {
	return &types.ConversationExport{
		Title:     "Trip plan",
		Timestamp: "2026-10-17 09:30",
		Messages: []types.Message{
			{Role: types.RoleUser, Content: "Where should we go?", Images: []string{"https://img/a", "https://img/b", "https://img/a"}},
			{Role: types.RoleModel, Content: "Try the coast.", Images: []string{"https://img/c", "https://img/b"}},
			{Role: types.RoleUser, Content: "Thanks"},
		},
	}
}

func TestAssignNames_FirstSeenOrder(t *testing.T) {
	names := AssignNames(sampleConversation())

	assert.Equal(t, []string{"https://img/a", "https://img/b", "https://img/c"}, names.URLs())
	assert.Equal(t, 3, names.Len())

	tests := []struct {
		url  string
		want string
	}{
		{"https://img/a", "image_1.png"},
		{"https://img/b", "image_2.png"},
		{"https://img/c", "image_3.png"},
	}
	for _, tt := range tests {
		got, ok := names.FilenameFor(tt.url)
		require.True(t, ok, tt.url)
		assert.Equal(t, tt.want, got)
	}
}

func TestAssignNames_DistinctBaseNames(t *testing.T) {
	names := AssignNames(sampleConversation())
	seen := map[string]string{}
	for _, u := range names.URLs() {
		rec, ok := names.Record(u)
		require.True(t, ok)
		if other, dup := seen[rec.BaseName]; dup {
			t.Fatalf("base name %s assigned to both %s and %s", rec.BaseName, other, u)
		}
		seen[rec.BaseName] = u
	}
}

func TestFilenameFor_UnknownURL(t *testing.T) {
	names := AssignNames(sampleConversation())
	_, ok := names.FilenameFor("https://img/never-seen")
	assert.False(t, ok)
	_, ok = names.VirtualPath("https://img/never-seen")
	assert.False(t, ok)
	assert.False(t, names.Available("https://img/never-seen"))
}

func TestApplyExtensions(t *testing.T) {
	names := AssignNames(sampleConversation())
	assert.True(t, names.Available("https://img/c"), "every name is available before resolution")

	err := names.ApplyExtensions(map[string]string{
		"https://img/a":       "jpg",
		"https://img/b":       "webp",
		"https://img/unknown": "gif",
	})
	require.NoError(t, err)

	a, _ := names.FilenameFor("https://img/a")
	b, _ := names.FilenameFor("https://img/b")
	c, _ := names.FilenameFor("https://img/c")
	assert.Equal(t, "image_1.jpg", a)
	assert.Equal(t, "image_2.webp", b)
	assert.Equal(t, "image_3.png", c)

	assert.True(t, names.Available("https://img/a"))
	assert.False(t, names.Available("https://img/c"))

	vp, ok := names.VirtualPath("https://img/b")
	require.True(t, ok)
	assert.Equal(t, "/images/image_2.webp", vp)

	assert.ErrorIs(t, names.ApplyExtensions(map[string]string{"https://img/c": "gif"}), ErrExtensionsApplied)
	c, _ = names.FilenameFor("https://img/c")
	assert.Equal(t, "image_3.png", c)
}

func TestAssignNames_NoImages(t *testing.T) {
	names := AssignNames(&types.ConversationExport{Messages: []types.Message{{Role: types.RoleUser, Content: "hi"}}})
	assert.Zero(t, names.Len())
	assert.Empty(t, names.URLs())
}
