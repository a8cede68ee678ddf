// Package types holds the OpenAI-compatible wire types the relay works
// with. Request bodies travel through Payload untouched; the typed views
// here exist for token estimation and stream observation.
package types

import (
	"bytes"
	"encoding/json"
)

// Message roles in the chat completion format.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Content part types.
const (
	ContentTypeText     = "text"
	ContentTypeImageURL = "image_url"
)

// Message is a single chat message. Content is polymorphic on the wire:
// a plain string or an array of typed parts for multimodal input.
type Message struct {
	Role    string  `json:"role"`
	Content Content `json:"content,omitempty"`
	Name    string  `json:"name,omitempty"`
}

// Content holds either plain text or multimodal parts, whichever form
// the caller sent.
type Content struct {
	Text  string
	Parts []ContentPart
}

// ContentPart is one element of multimodal content.
type ContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

// ImageURL references an image in multimodal content.
type ImageURL struct {
	URL    string `json:"url"`
	Detail string `json:"detail,omitempty"` // "auto", "low", "high"
}

// MarshalJSON writes the content back in the form it was received:
// an array when parts are present, a string otherwise.
func (c Content) MarshalJSON() ([]byte, error) {
	if len(c.Parts) > 0 {
		return json.Marshal(c.Parts)
	}
	return json.Marshal(c.Text)
}

// UnmarshalJSON accepts both content forms. Null and anything else
// decode to empty content; the relay never rejects a request over a
// field it only reads for estimates.
func (c *Content) UnmarshalJSON(data []byte) error {
	c.Text = ""
	c.Parts = nil

	switch trimmed := bytes.TrimSpace(data); {
	case len(trimmed) == 0:
		return nil
	case trimmed[0] == '"':
		return json.Unmarshal(trimmed, &c.Text)
	case trimmed[0] == '[':
		return json.Unmarshal(trimmed, &c.Parts)
	default:
		return nil
	}
}

// NewTextMessage builds a plain text message.
func NewTextMessage(role, text string) Message {
	return Message{Role: role, Content: Content{Text: text}}
}

// NewImageMessage builds a multimodal message with a text part and an
// image part.
func NewImageMessage(role, text, imageURL string) Message {
	return Message{
		Role: role,
		Content: Content{
			Parts: []ContentPart{
				{Type: ContentTypeText, Text: text},
				{Type: ContentTypeImageURL, ImageURL: &ImageURL{URL: imageURL}},
			},
		},
	}
}
