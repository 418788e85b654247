// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"errors"
	"fmt"
	"path"

	"github.com/pdiddy/chatbundle/pkg/types"
)

// ImageDir is the bundle directory holding image files. Typst sources
// reference it from the virtual root as /images/<file>.
const ImageDir = "images"

// ErrExtensionsApplied is returned when ApplyExtensions is called more than once.
var ErrExtensionsApplied = errors.New("extensions already applied")

// FilenameTable maps each URLReference to its bundle filename.
type FilenameTable struct {
	records  map[string]*types.AssetRecord
	order    []string
	resolved map[string]bool
	applied  bool
}

// AssignNames walks messages in order, then each message's images in
// order, naming every new URLReference image_<N> with N counting from 1.
// Repeated references keep their first name.
func AssignNames(conv *types.ConversationExport) *FilenameTable {
	t := &FilenameTable{
		records:  make(map[string]*types.AssetRecord),
		resolved: make(map[string]bool),
	}
	for _, u := range conv.ImageURLs() {
		t.order = append(t.order, u)
		t.records[u] = &types.AssetRecord{
			BaseName:  fmt.Sprintf("image_%d", len(t.order)),
			Extension: types.DefaultExtension,
		}
	}
	return t
}

// ApplyExtensions records the resolver's extension for each URL it
// resolved. URLs the table never saw are ignored. The table accepts
// exactly one call.
func (t *FilenameTable) ApplyExtensions(exts map[string]string) error {
	if t.applied {
		return ErrExtensionsApplied
	}
	t.applied = true
	for u, ext := range exts {
		rec, ok := t.records[u]
		if !ok {
			continue
		}
		if ext != "" {
			rec.Extension = ext
		}
		t.resolved[u] = true
	}
	return nil
}

// FilenameFor returns the filename for url, or false if AssignNames never
// saw it.
func (t *FilenameTable) FilenameFor(url string) (string, bool) {
	rec, ok := t.records[url]
	if !ok {
		return "", false
	}
	return rec.Filename(), true
}

// Record returns a copy of the AssetRecord for url.
func (t *FilenameTable) Record(url string) (types.AssetRecord, bool) {
	rec, ok := t.records[url]
	if !ok {
		return types.AssetRecord{}, false
	}
	return *rec, true
}

// Available reports whether url has bytes to embed. Before extensions are
// applied every named URL counts as available.
func (t *FilenameTable) Available(url string) bool {
	if _, ok := t.records[url]; !ok {
		return false
	}
	return !t.applied || t.resolved[url]
}

// URLs returns the named URLReferences in assignment order.
func (t *FilenameTable) URLs() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// Len returns the number of distinct URLReferences.
func (t *FilenameTable) Len() int {
	return len(t.order)
}

// VirtualPath returns the compiler filesystem path for url, e.g.
// "/images/image_1.png".
func (t *FilenameTable) VirtualPath(url string) (string, bool) {
	name, ok := t.FilenameFor(url)
	if !ok {
		return "", false
	}
	return path.Join("/", ImageDir, name), true
}
