// Package tokenizer estimates prompt token counts for relayed requests.
// Estimates are advisory; when the upstream stream reports real usage
// figures those win.
package tokenizer

import (
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"github.com/tooniez/openrouter-relay/internal/types"
)

// Tokenizer counts tokens for chat completion requests.
type Tokenizer interface {
	// CountTokens counts tokens in a text string for a given model.
	CountTokens(text string, model string) (int, error)

	// CountMessages counts tokens for a slice of messages, including
	// per-message formatting overhead.
	CountMessages(messages []types.Message, model string) (int, error)

	// CountRequest counts total prompt tokens for a full request.
	CountRequest(req *types.ChatCompletionRequest) (int, error)
}

// Encoding names used by tiktoken.
const (
	EncodingCL100kBase = "cl100k_base" // GPT-4, GPT-3.5-turbo and the default
	EncodingO200kBase  = "o200k_base"  // GPT-4o and newer OpenAI models
)

// o200kPrefixes lists the model families that use o200k_base. Everything
// else, OpenAI or not, falls back to cl100k_base, which is close enough
// for an estimate.
var o200kPrefixes = []string{"gpt-4o", "gpt-5", "chatgpt", "o1", "o3"}

// TiktokenTokenizer implements Tokenizer using tiktoken-go. Loaded
// encodings are cached; only two distinct encodings exist, so the cache
// stays tiny.
type TiktokenTokenizer struct {
	mu    sync.Mutex
	cache map[string]*tiktoken.Tiktoken
}

// New creates a new TiktokenTokenizer.
func New() *TiktokenTokenizer {
	return &TiktokenTokenizer{cache: make(map[string]*tiktoken.Tiktoken)}
}

// CountTokens counts tokens in a text string for a given model.
func (t *TiktokenTokenizer) CountTokens(text string, model string) (int, error) {
	enc, err := t.getEncoding(model)
	if err != nil {
		return 0, err
	}
	return len(enc.Encode(text, nil, nil)), nil
}

// getEncoding loads the encoding for a model, reusing a cached one when
// available. tiktoken fetches vocabulary data on first load, so the
// cache also keeps that off the request path after warmup.
func (t *TiktokenTokenizer) getEncoding(model string) (*tiktoken.Tiktoken, error) {
	name := t.resolveEncoding(model)

	t.mu.Lock()
	defer t.mu.Unlock()

	if enc, ok := t.cache[name]; ok {
		return enc, nil
	}

	enc, err := tiktoken.GetEncoding(name)
	if err != nil {
		return nil, err
	}
	t.cache[name] = enc
	return enc, nil
}

// resolveEncoding maps a model slug to its tiktoken encoding. OpenRouter
// slugs carry a vendor prefix (openai/gpt-4o), which is stripped before
// matching.
func (t *TiktokenTokenizer) resolveEncoding(model string) string {
	slug := strings.ToLower(model)
	if idx := strings.IndexByte(slug, '/'); idx >= 0 {
		slug = slug[idx+1:]
	}

	for _, prefix := range o200kPrefixes {
		if strings.HasPrefix(slug, prefix) {
			return EncodingO200kBase
		}
	}
	return EncodingCL100kBase
}
