package relay

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tooniez/openrouter-relay/internal/storage"
	"github.com/tooniez/openrouter-relay/internal/upstream/openrouter"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// scriptedUpstream is a fake OpenRouter endpoint that records what the relay
// sends and answers with a scripted response.
type scriptedUpstream struct {
	server  *httptest.Server
	calls   atomic.Int32
	mu      sync.Mutex
	reqBody []byte
	reqHdr  http.Header
}

func newScriptedUpstream(t *testing.T, respond http.HandlerFunc) *scriptedUpstream {
	t.Helper()
	u := &scriptedUpstream{}
	u.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		u.mu.Lock()
		u.reqBody = body
		u.reqHdr = r.Header.Clone()
		u.mu.Unlock()
		u.calls.Add(1)
		if respond != nil {
			respond(w, r)
		}
	}))
	t.Cleanup(u.server.Close)
	return u
}

func (u *scriptedUpstream) lastBody() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return string(u.reqBody)
}

func (u *scriptedUpstream) lastHeader(key string) string {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.reqHdr == nil {
		return ""
	}
	return u.reqHdr.Get(key)
}

func newRelayHandlers(u *scriptedUpstream) *Handlers {
	client := openrouter.New(openrouter.Config{
		APIKey:  "test-key",
		BaseURL: u.server.URL,
		Referer: "http://localhost:8080",
		Title:   "OpenRouter Relay",
	})
	return New(client, nil, nil, "openai/gpt-4o-mini", discardLogger())
}

// sseRespond answers with the given payloads framed as SSE data lines.
func sseRespond(payloads ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		for _, p := range payloads {
			_, _ = io.WriteString(w, "data: "+p+"\n\n")
		}
	}
}

// readRecorder counts Read calls on a request body.
type readRecorder struct {
	io.Reader
	reads int
}

func (r *readRecorder) Read(p []byte) (int, error) {
	r.reads++
	return r.Reader.Read(p)
}

func TestChatCompletionsMethodNotAllowed(t *testing.T) {
	upstream := newScriptedUpstream(t, nil)
	h := newRelayHandlers(upstream)

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete, http.MethodPatch} {
		t.Run(method, func(t *testing.T) {
			body := &readRecorder{Reader: strings.NewReader(`{"messages":[]}`)}
			req := httptest.NewRequest(method, "/v1/chat/completions", body)
			rec := httptest.NewRecorder()

			h.ChatCompletions(rec, req)

			if rec.Code != http.StatusMethodNotAllowed {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
			}
			if body.reads > 0 {
				t.Error("request body was read before the method check")
			}
		})
	}

	if got := upstream.calls.Load(); got != 0 {
		t.Errorf("upstream calls = %d, want 0", got)
	}
}

func TestChatCompletionsNoCredential(t *testing.T) {
	upstream := newScriptedUpstream(t, nil)
	client := openrouter.New(openrouter.Config{BaseURL: upstream.server.URL})
	h := New(client, nil, nil, "openai/gpt-4o-mini", discardLogger())

	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", strings.NewReader(`{"messages":[]}`))
	rec := httptest.NewRecorder()

	h.ChatCompletions(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	if got := upstream.calls.Load(); got != 0 {
		t.Errorf("upstream calls = %d, want 0", got)
	}
}

func TestChatCompletionsInvalidBody(t *testing.T) {
	upstream := newScriptedUpstream(t, nil)
	h := newRelayHandlers(upstream)

	cases := []struct {
		name string
		body string
	}{
		{"empty", ""},
		{"not json", "hello there"},
		{"truncated", `{"messages":`},
		{"array", `[1,2,3]`},
		{"bare string", `"hi"`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", strings.NewReader(tc.body))
			rec := httptest.NewRecorder()

			h.ChatCompletions(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
			}
		})
	}

	if got := upstream.calls.Load(); got != 0 {
		t.Errorf("upstream calls = %d, want 0", got)
	}
}

func TestChatCompletionsPayloadRewrite(t *testing.T) {
	cases := []struct {
		name     string
		body     string
		wantBody string
	}{
		{
			name:     "model defaulted",
			body:     `{"messages":[{"role":"user","content":"hi"}]}`,
			wantBody: `{"messages":[{"role":"user","content":"hi"}],"model":"openai/gpt-4o-mini","stream":true}`,
		},
		{
			name:     "model preserved",
			body:     `{"model":"anthropic/claude-3.5-sonnet","messages":[]}`,
			wantBody: `{"model":"anthropic/claude-3.5-sonnet","messages":[],"stream":true}`,
		},
		{
			name:     "empty model replaced in place",
			body:     `{"model":"","messages":[]}`,
			wantBody: `{"model":"openai/gpt-4o-mini","messages":[],"stream":true}`,
		},
		{
			name:     "stream false forced true in place",
			body:     `{"stream":false,"model":"x","messages":[]}`,
			wantBody: `{"stream":true,"model":"x","messages":[]}`,
		},
		{
			name:     "unknown fields ride through verbatim",
			body:     `{"model":"x","temperature":0.50,"metadata":{"b":2,"a":1},"messages":[]}`,
			wantBody: `{"model":"x","temperature":0.50,"metadata":{"b":2,"a":1},"messages":[],"stream":true}`,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			upstream := newScriptedUpstream(t, sseRespond())
			h := newRelayHandlers(upstream)

			req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", strings.NewReader(tc.body))
			rec := httptest.NewRecorder()

			h.ChatCompletions(rec, req)

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
			}
			if got := upstream.lastBody(); got != tc.wantBody {
				t.Errorf("outbound body = %s, want %s", got, tc.wantBody)
			}
		})
	}
}

func TestChatCompletionsAttributionHeaders(t *testing.T) {
	upstream := newScriptedUpstream(t, sseRespond())
	h := newRelayHandlers(upstream)

	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", strings.NewReader(`{"messages":[]}`))
	req.Header.Set("Origin", "https://app.example.com")
	rec := httptest.NewRecorder()

	h.ChatCompletions(rec, req)

	if got := upstream.lastHeader("Authorization"); got != "Bearer test-key" {
		t.Errorf("Authorization = %q, want %q", got, "Bearer test-key")
	}
	if got := upstream.lastHeader("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type = %q, want %q", got, "application/json")
	}
	if got := upstream.lastHeader("HTTP-Referer"); got != "https://app.example.com" {
		t.Errorf("HTTP-Referer = %q, want inbound origin", got)
	}
	if got := upstream.lastHeader("X-Title"); got != "OpenRouter Relay" {
		t.Errorf("X-Title = %q, want %q", got, "OpenRouter Relay")
	}
}

func TestChatCompletionsUpstreamErrorRelayed(t *testing.T) {
	cases := []struct {
		name        string
		status      int
		contentType string
		body        string
	}{
		{"rate limited", http.StatusTooManyRequests, "text/plain", "rate limited"},
		{"auth error", http.StatusUnauthorized, "application/json", `{"error":{"message":"bad key","type":"authentication_error"}}`},
		{"server error", http.StatusInternalServerError, "text/plain", "upstream exploded"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			upstream := newScriptedUpstream(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", tc.contentType)
				w.WriteHeader(tc.status)
				_, _ = io.WriteString(w, tc.body)
			})
			h := newRelayHandlers(upstream)

			req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", strings.NewReader(`{"messages":[]}`))
			rec := httptest.NewRecorder()

			h.ChatCompletions(rec, req)

			if rec.Code != tc.status {
				t.Errorf("status = %d, want %d", rec.Code, tc.status)
			}
			if !strings.Contains(rec.Body.String(), tc.body) {
				t.Errorf("body = %q, want it to contain %q", rec.Body.String(), tc.body)
			}
		})
	}
}

func TestChatCompletionsUpstreamUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := openrouter.New(openrouter.Config{APIKey: "test-key", BaseURL: server.URL})
	h := New(client, nil, nil, "openai/gpt-4o-mini", discardLogger())

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"messages":[]}`))
	rec := httptest.NewRecorder()

	h.ChatCompletions(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
}

func TestChatCompletionsRelaysSSE(t *testing.T) {
	upstream := newScriptedUpstream(t, sseRespond(`{"id":1}`, "[DONE]", `{"id":2}`))
	h := newRelayHandlers(upstream)

	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", strings.NewReader(`{"messages":[]}`))
	rec := httptest.NewRecorder()

	h.ChatCompletions(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if got := rec.Header().Get("Content-Type"); got != "text/event-stream" {
		t.Errorf("Content-Type = %q, want %q", got, "text/event-stream")
	}
	if got := rec.Header().Get("Cache-Control"); got != "no-cache" {
		t.Errorf("Cache-Control = %q, want %q", got, "no-cache")
	}
	if got := rec.Header().Get("Connection"); got != "keep-alive" {
		t.Errorf("Connection = %q, want %q", got, "keep-alive")
	}
	if !rec.Flushed {
		t.Error("response was never flushed")
	}

	want := "data: {\"id\":1}\n\ndata: {\"id\":2}\n\n"
	if got := rec.Body.String(); got != want {
		t.Errorf("relayed body = %q, want %q", got, want)
	}
}

func TestChatCompletionsDropsMalformedLines(t *testing.T) {
	upstream := newScriptedUpstream(t, sseRespond(`{"id":1}`, "not-json", `{"id":2}`))
	h := newRelayHandlers(upstream)

	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", strings.NewReader(`{"messages":[]}`))
	rec := httptest.NewRecorder()

	h.ChatCompletions(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	want := "data: {\"id\":1}\n\ndata: {\"id\":2}\n\n"
	if got := rec.Body.String(); got != want {
		t.Errorf("relayed body = %q, want %q", got, want)
	}
}

func TestLogRequestWritesStorage(t *testing.T) {
	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "relay.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStorage() error = %v", err)
	}
	defer store.Close()

	client := openrouter.New(openrouter.Config{APIKey: "test-key"})
	h := New(client, store, nil, "openai/gpt-4o-mini", discardLogger())

	h.logRequest("req_123", relayResult{
		statusCode:       http.StatusOK,
		model:            "openai/gpt-4o-mini",
		promptTokens:     10,
		completionTokens: 20,
		streaming:        true,
		duration:         1500 * time.Millisecond,
	})

	logs, err := store.GetRequestLogs(storage.LogFilter{})
	if err != nil {
		t.Fatalf("GetRequestLogs() error = %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("len(logs) = %d, want 1", len(logs))
	}
	entry := logs[0]
	if entry.RequestID != "req_123" {
		t.Errorf("RequestID = %q, want %q", entry.RequestID, "req_123")
	}
	if entry.Provider != "openrouter" {
		t.Errorf("Provider = %q, want %q", entry.Provider, "openrouter")
	}
	if entry.TotalTokens != 30 {
		t.Errorf("TotalTokens = %d, want 30", entry.TotalTokens)
	}
	if !entry.IsStreaming {
		t.Error("IsStreaming = false, want true")
	}
	if entry.DurationMs != 1500 {
		t.Errorf("DurationMs = %d, want 1500", entry.DurationMs)
	}

	stats, err := store.GetUsageStats(storage.StatsFilter{})
	if err != nil {
		t.Fatalf("GetUsageStats() error = %v", err)
	}
	if stats.TotalRequests != 1 {
		t.Errorf("TotalRequests = %d, want 1", stats.TotalRequests)
	}
	if stats.TotalTokens != 30 {
		t.Errorf("TotalTokens = %d, want 30", stats.TotalTokens)
	}
	if stats.ErrorCount != 0 {
		t.Errorf("ErrorCount = %d, want 0", stats.ErrorCount)
	}
}

func TestLogRequestNilStorage(t *testing.T) {
	client := openrouter.New(openrouter.Config{APIKey: "test-key"})
	h := New(client, nil, nil, "openai/gpt-4o-mini", discardLogger())

	// Must not panic with logging disabled.
	h.logRequest("req_123", relayResult{statusCode: http.StatusOK})
}
