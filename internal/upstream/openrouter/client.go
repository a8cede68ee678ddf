// Package openrouter implements the OpenRouter upstream client and the
// SSE relay for its streaming responses.
package openrouter

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	chatCompletionsPath = "/chat/completions"
	modelsPath          = "/models"
)

// transport is shared by all clients. Compression must stay off so
// streamed chunks reach the relay as the upstream flushes them.
var transport = &http.Transport{
	DisableCompression:  true,
	MaxIdleConns:        100,
	MaxIdleConnsPerHost: 10,
	IdleConnTimeout:     120 * time.Second,
}

// Config carries the fixed upstream settings.
type Config struct {
	// APIKey is the bearer credential attached to every call. May be
	// empty at construction; HasCredential gates relay requests.
	APIKey string

	// BaseURL is the API root, e.g. https://openrouter.ai/api/v1
	BaseURL string

	// Referer is the HTTP-Referer attribution value used when the
	// inbound request carries no Origin of its own
	Referer string

	// Title is the X-Title attribution header
	Title string
}

// Client calls the OpenRouter API.
type Client struct {
	apiKey  string
	baseURL string
	referer string
	title   string
	httpc   *http.Client
}

// New creates a new OpenRouter client. No client-level timeout is set;
// completions stream for minutes and are bounded by request context.
func New(cfg Config) *Client {
	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		referer: cfg.Referer,
		title:   cfg.Title,
		httpc:   &http.Client{Transport: transport},
	}
}

// HasCredential reports whether an API key is configured.
func (c *Client) HasCredential() bool {
	return c.apiKey != ""
}

// CreateChatCompletion posts a prepared body to the chat completions
// endpoint. A non-empty origin overrides the configured referer. The
// caller owns the response body.
func (c *Client) CreateChatCompletion(ctx context.Context, body []byte, origin string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+chatCompletionsPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build chat completion request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	c.setAttribution(req, origin)

	return c.httpc.Do(req)
}

// ListModels fetches the model catalog. The catalog endpoint works
// without a credential, so the header is only attached when present.
func (c *Client) ListModels(ctx context.Context) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+modelsPath, nil)
	if err != nil {
		return nil, fmt.Errorf("build models request: %w", err)
	}

	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	c.setAttribution(req, "")

	return c.httpc.Do(req)
}

// setAttribution adds the OpenRouter app attribution headers.
func (c *Client) setAttribution(req *http.Request, origin string) {
	referer := c.referer
	if origin != "" {
		referer = origin
	}
	req.Header.Set("HTTP-Referer", referer)
	req.Header.Set("X-Title", c.title)
}
