// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package bundle

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/chatbundle/pkg/types"
)

// LoadConversation reads a captured conversation from path on fs. Files
// ending in .json are decoded as JSON, anything else as YAML.
func LoadConversation(fs afero.Fs, path string) (*types.ConversationExport, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("reading conversation: %w", err)
	}
	conv, err := ParseConversation(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return conv, nil
}

// ParseConversation decodes data according to ext (".json", ".yaml",
// ".yml") and normalises message roles.
func ParseConversation(data []byte, ext string) (*types.ConversationExport, error) {
	var conv types.ConversationExport
	switch strings.ToLower(ext) {
	case ".json":
		if err := json.Unmarshal(data, &conv); err != nil {
			return nil, err
		}
	default:
		if err := yaml.Unmarshal(data, &conv); err != nil {
			return nil, err
		}
	}
	for i := range conv.Messages {
		conv.Messages[i].Role = types.NormalizeRole(string(conv.Messages[i].Role))
	}
	return &conv, nil
}
