// Package relay implements the chat-completion relay endpoint.
//
// A request body is buffered once and parsed into the ordered passthrough
// payload, which is rewritten (model defaulted, stream forced on) and
// forwarded to OpenRouter. The upstream SSE stream is re-framed event by
// event and piped back to the caller as it arrives.
package relay

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/tooniez/openrouter-relay/internal/storage"
	"github.com/tooniez/openrouter-relay/internal/tokenizer"
	"github.com/tooniez/openrouter-relay/internal/transport/http/middleware"
	"github.com/tooniez/openrouter-relay/internal/types"
	"github.com/tooniez/openrouter-relay/internal/upstream/openrouter"
)

// tokenCountTimeout is the maximum time to wait for token counting before
// the request log is written without a local estimate.
const tokenCountTimeout = 100 * time.Millisecond

// copyBufSize is the read size used when pumping relayed events to the client.
const copyBufSize = 32 * 1024

// Handlers holds the dependencies for the relay endpoint.
type Handlers struct {
	Client       *openrouter.Client
	Storage      storage.Storage
	Tokenizer    tokenizer.Tokenizer
	DefaultModel string
	Logger       *slog.Logger
}

// New creates a new instance of relay handlers. Storage and Tokenizer may be
// nil; the relay then runs without request logging or local token estimates.
func New(client *openrouter.Client, store storage.Storage, tok tokenizer.Tokenizer, defaultModel string, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		Client:       client,
		Storage:      store,
		Tokenizer:    tok,
		DefaultModel: defaultModel,
		Logger:       logger,
	}
}

// ChatCompletions forwards a chat-completion request to OpenRouter and relays
// the SSE response. Token counting runs in parallel with the upstream call so
// it never delays the first forwarded event.
func (h *Handlers) ChatCompletions(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()

	// The router only binds POST here, but the handler stands on its own.
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	requestID := middleware.GetRequestID(r.Context())
	if requestID == "" {
		requestID = uuid.New().String()
	}

	if !h.Client.HasCredential() {
		h.Logger.Error("rejecting relay request: no OpenRouter API key configured, set OPENROUTER_API_KEY",
			"request_id", requestID)
		http.Error(w, "No credential configured", http.StatusUnauthorized)
		return
	}

	bodyBytes, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}
	r.Body.Close()

	var payload types.Payload
	if err := json.Unmarshal(bodyBytes, &payload); err != nil {
		http.Error(w, "Invalid request format", http.StatusBadRequest)
		return
	}

	// Typed overlay for token counting. The payload itself carries every
	// field through untouched.
	var req types.ChatCompletionRequest
	_ = json.Unmarshal(bodyBytes, &req)

	model, _ := payload.GetString("model")
	if model == "" {
		model = h.DefaultModel
	}
	_ = payload.Set("model", model)
	_ = payload.Set("stream", true)

	// Bodies go to an API, not into HTML; keep the caller's bytes unescaped.
	var outBuf bytes.Buffer
	enc := json.NewEncoder(&outBuf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(&payload); err != nil {
		h.Logger.Error("failed to encode outbound payload", "request_id", requestID, "error", err)
		http.Error(w, "Failed to process request body", http.StatusInternalServerError)
		return
	}
	outBody := bytes.TrimSuffix(outBuf.Bytes(), []byte("\n"))

	// Count prompt tokens in the background so the upstream call starts
	// immediately.
	tokensChan := make(chan int, 1)
	go func() {
		defer close(tokensChan)
		if h.Tokenizer != nil {
			if tokens, err := h.Tokenizer.CountRequest(&req); err == nil {
				tokensChan <- tokens
			}
		}
	}()

	resp, err := h.Client.CreateChatCompletion(r.Context(), outBody, r.Header.Get("Origin"))
	if err != nil {
		h.Logger.Error("upstream request failed", "request_id", requestID, "model", model, "error", err)
		http.Error(w, "Failed to reach upstream", http.StatusInternalServerError)
		go h.logRequest(requestID, relayResult{
			statusCode:   http.StatusInternalServerError,
			model:        model,
			errorMessage: err.Error(),
			duration:     time.Since(startTime),
		})
		return
	}
	if resp.Body == nil {
		h.Logger.Error("upstream response has no body", "request_id", requestID, "model", model)
		http.Error(w, "Upstream returned no body", http.StatusInternalServerError)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		h.relayUpstreamError(w, resp, requestID, model, startTime)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		h.Logger.Error("response writer does not support flushing", "request_id", requestID)
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	proc := openrouter.NewStreamProcessor(h.Logger.With("request_id", requestID))
	events := proc.Relay(resp.Body)

	var streamErr error
	buf := make([]byte, copyBufSize)
	for {
		n, rerr := events.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				streamErr = werr
				break
			}
			flusher.Flush()
		}
		if rerr != nil {
			if rerr != io.EOF {
				streamErr = rerr
			}
			break
		}
	}
	// Closing the reader unblocks the producer when the client went away;
	// only then is it safe to wait for it.
	events.Close()
	proc.Wait()

	if streamErr != nil {
		h.Logger.Warn("stream aborted", "request_id", requestID, "model", model,
			"events", proc.Events(), "error", streamErr)
	} else {
		h.Logger.Debug("stream complete", "request_id", requestID, "model", proc.Model(),
			"events", proc.Events(), "finish_reason", proc.FinishReason())
	}

	res := relayResult{
		statusCode: resp.StatusCode,
		model:      model,
		streaming:  true,
		duration:   time.Since(startTime),
	}
	if m := proc.Model(); m != "" {
		res.model = m
	}
	if streamErr != nil {
		res.errorMessage = streamErr.Error()
	}
	if usage := proc.Usage(); usage != nil {
		res.promptTokens = usage.PromptTokens
		res.completionTokens = usage.CompletionTokens
		res.totalTokens = usage.TotalTokens
	}

	// Give the local estimate a short grace period. Upstream usage figures
	// win whenever the stream carried them.
	if res.promptTokens == 0 {
		select {
		case tokens, ok := <-tokensChan:
			if ok {
				res.promptTokens = tokens
			}
		case <-time.After(tokenCountTimeout):
		}
	}

	go h.logRequest(requestID, res)
}

// relayUpstreamError forwards a non-success upstream response to the client
// with the same status code and the raw upstream body. No retry is attempted.
func (h *Handlers) relayUpstreamError(w http.ResponseWriter, resp *http.Response, requestID, model string, startTime time.Time) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		h.Logger.Error("failed to read upstream error body",
			"request_id", requestID, "status", resp.StatusCode, "error", err)
		http.Error(w, "Failed to read upstream response", http.StatusInternalServerError)
		return
	}

	h.Logger.Error("upstream returned error", "request_id", requestID, "model", model,
		"status", resp.StatusCode, "body", string(body))

	errorMessage := string(body)
	var apiErr types.APIError
	if jerr := json.Unmarshal(body, &apiErr); jerr == nil && apiErr.Error.Message != "" {
		errorMessage = apiErr.Error.Message
	}

	if ct := resp.Header.Get("Content-Type"); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.WriteHeader(resp.StatusCode)
	_, _ = w.Write(body)

	go h.logRequest(requestID, relayResult{
		statusCode:   resp.StatusCode,
		model:        model,
		errorMessage: errorMessage,
		duration:     time.Since(startTime),
	})
}
