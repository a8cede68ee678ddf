package relay

import (
	"time"

	"github.com/google/uuid"
	"github.com/tooniez/openrouter-relay/internal/storage"
)

// relayResult captures the outcome of one relayed request for logging.
type relayResult struct {
	statusCode       int
	model            string
	promptTokens     int
	completionTokens int
	totalTokens      int
	errorMessage     string
	streaming        bool
	duration         time.Duration
}

// logRequest writes the request log entry and the daily usage aggregate.
// Runs on its own goroutine; storage errors are dropped in this async context.
func (h *Handlers) logRequest(requestID string, res relayResult) {
	if h.Storage == nil {
		return
	}

	total := res.totalTokens
	if total == 0 {
		total = res.promptTokens + res.completionTokens
	}

	entry := &storage.RequestLog{
		ID:               uuid.New().String(),
		RequestID:        requestID,
		Model:            res.model,
		Provider:         "openrouter",
		PromptTokens:     res.promptTokens,
		CompletionTokens: res.completionTokens,
		TotalTokens:      total,
		IsStreaming:      res.streaming,
		StatusCode:       res.statusCode,
		ErrorMessage:     res.errorMessage,
		DurationMs:       res.duration.Milliseconds(),
		CreatedAt:        time.Now(),
	}
	_ = h.Storage.LogRequest(entry)

	errorCount := 0
	if res.statusCode >= 400 || res.errorMessage != "" {
		errorCount = 1
	}

	usage := &storage.DailyUsage{
		Date:             time.Now().Format("2006-01-02"),
		Model:            res.model,
		RequestCount:     1,
		PromptTokens:     res.promptTokens,
		CompletionTokens: res.completionTokens,
		TotalTokens:      total,
		ErrorCount:       errorCount,
	}
	_ = h.Storage.UpdateDailyUsage(usage)
}
