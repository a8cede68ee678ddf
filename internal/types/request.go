package types

import "encoding/json"

// ChatCompletionRequest is the typed view of a chat completion request.
// The relay forwards bodies through Payload untouched; this type exists
// for token estimation and request logging, so it only names the fields
// those paths read. Optional fields use pointers to distinguish unset
// from zero.
type ChatCompletionRequest struct {
	// Required fields
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`

	// Sampling parameters
	Temperature         *float64 `json:"temperature,omitempty"` // 0-2, default 1
	TopP                *float64 `json:"top_p,omitempty"`       // 0-1, default 1
	N                   *int     `json:"n,omitempty"`           // Number of completions
	MaxTokens           *int     `json:"max_tokens,omitempty"`  // Deprecated: use max_completion_tokens
	MaxCompletionTokens *int     `json:"max_completion_tokens,omitempty"`
	PresencePenalty     *float64 `json:"presence_penalty,omitempty"`  // -2 to 2, default 0
	FrequencyPenalty    *float64 `json:"frequency_penalty,omitempty"` // -2 to 2, default 0

	// Stopping conditions
	Stop Stop `json:"stop,omitempty"` // String or array of up to 4 strings

	// Streaming
	Stream        bool           `json:"stream,omitempty"`
	StreamOptions *StreamOptions `json:"stream_options,omitempty"`

	// Advanced options
	Seed *int   `json:"seed,omitempty"` // For deterministic outputs
	User string `json:"user,omitempty"` // End-user identifier
}

// StreamOptions controls streaming behavior.
type StreamOptions struct {
	IncludeUsage bool `json:"include_usage,omitempty"` // Include usage in final chunk
}

// Stop represents stop sequences that can be a string or array.
type Stop struct {
	Values []string
}

// MarshalJSON writes a single stop sequence as a bare string and
// several as an array, mirroring the wire format.
func (s Stop) MarshalJSON() ([]byte, error) {
	switch len(s.Values) {
	case 0:
		return []byte("null"), nil
	case 1:
		return json.Marshal(s.Values[0])
	default:
		return json.Marshal(s.Values)
	}
}

// UnmarshalJSON accepts both the string and the array form.
func (s *Stop) UnmarshalJSON(data []byte) error {
	s.Values = nil
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		s.Values = []string{single}
		return nil
	}
	return json.Unmarshal(data, &s.Values)
}

// IsStreaming returns true if this is a streaming request.
func (r *ChatCompletionRequest) IsStreaming() bool {
	return r.Stream
}

// GetMaxTokens returns the effective max tokens limit.
func (r *ChatCompletionRequest) GetMaxTokens() int {
	if r.MaxCompletionTokens != nil {
		return *r.MaxCompletionTokens
	}
	if r.MaxTokens != nil {
		return *r.MaxTokens
	}
	return 0 // No limit specified
}
