// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "strings"

// Role identifies who authored a conversation turn.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Label returns the heading used for the role in rendered documents.
func (r Role) Label() string {
	if r == RoleUser {
		return "User"
	}
	return "Model"
}

// NormalizeRole maps captured role strings onto the two known roles.
// Anything that is not "user" is treated as model output.
func NormalizeRole(s string) Role {
	if strings.EqualFold(strings.TrimSpace(s), string(RoleUser)) {
		return RoleUser
	}
	return RoleModel
}

// LocalPayload carries image bytes captured alongside the conversation,
// encoded as a data URL ("data:image/png;base64,...").
type LocalPayload struct {
	// URL is the URLReference the payload stands in for.
	URL string `json:"url" yaml:"url"`

	// Data is the inline-encoded payload.
	Data string `json:"data" yaml:"data"`
}

// Message is one turn of a conversation.
type Message struct {
	// Role is the author of the turn: user or model.
	Role Role `json:"role" yaml:"role"`

	// Content is the turn text. It may be empty for image-only turns.
	Content string `json:"content" yaml:"content"`

	// Images lists URLReferences in display order. Duplicates are allowed
	// within and across messages.
	Images []string `json:"images,omitempty" yaml:"images,omitempty"`

	// LocalPayloads holds captured bytes for some of the Images.
	LocalPayloads []LocalPayload `json:"local_payloads,omitempty" yaml:"local_payloads,omitempty"`
}

// ConversationExport is the immutable input to the export pipeline.
type ConversationExport struct {
	// Title is the conversation title.
	Title string `json:"title" yaml:"title"`

	// Timestamp is the export time as captured, shown verbatim.
	Timestamp string `json:"timestamp" yaml:"timestamp"`

	// Messages lists the turns in order.
	Messages []Message `json:"messages" yaml:"messages"`
}

// ImageURLs returns every distinct URLReference in first-seen order.
func (c *ConversationExport) ImageURLs() []string {
	seen := make(map[string]bool)
	var urls []string
	for _, m := range c.Messages {
		for _, u := range m.Images {
			if seen[u] {
				continue
			}
			seen[u] = true
			urls = append(urls, u)
		}
	}
	return urls
}

// LocalPayloads flattens the captured payloads of all messages into a
// map keyed by URLReference. A later payload for the same URL wins.
func (c *ConversationExport) LocalPayloads() map[string]string {
	out := make(map[string]string)
	for _, m := range c.Messages {
		for _, p := range m.LocalPayloads {
			out[p.URL] = p.Data
		}
	}
	return out
}
