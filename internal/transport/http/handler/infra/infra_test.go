package infra

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/tooniez/openrouter-relay/internal/storage"
	"github.com/tooniez/openrouter-relay/internal/upstream/openrouter"
)

func TestRootStatus(t *testing.T) {
	h := New(nil, nil, nil, time.Now())

	rec := httptest.NewRecorder()
	h.RootStatus(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if body["name"] != "openrouter-relay" {
		t.Errorf("name = %v, want openrouter-relay", body["name"])
	}
	if body["status"] != "running" {
		t.Errorf("status = %v, want running", body["status"])
	}
}

func TestHealthCheck(t *testing.T) {
	h := New(nil, nil, nil, time.Now().Add(-time.Minute))

	rec := httptest.NewRecorder()
	h.HealthCheck(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if body["status"] != "active" {
		t.Errorf("status = %q, want active", body["status"])
	}
	if body["uptime"] == "" {
		t.Error("uptime missing from health response")
	}
}

func TestListModelsCaching(t *testing.T) {
	var calls atomic.Int32
	catalog := `{"data":[{"id":"openai/gpt-4o-mini"},{"id":"anthropic/claude-3.5-sonnet"}]}`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, catalog)
	}))
	t.Cleanup(server.Close)

	cache, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: 1000,
		MaxCost:     1 << 20,
		BufferItems: 64,
	})
	if err != nil {
		t.Fatalf("NewCache() error = %v", err)
	}
	defer cache.Close()

	client := openrouter.New(openrouter.Config{APIKey: "test-key", BaseURL: server.URL})
	h := New(client, nil, cache, time.Now())

	rec := httptest.NewRecorder()
	h.ListModels(rec, httptest.NewRequest(http.MethodGet, "/v1/models", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if got := rec.Header().Get("X-Cache"); got != "MISS" {
		t.Errorf("X-Cache = %q, want MISS", got)
	}
	if rec.Body.String() != catalog {
		t.Errorf("body = %q, want %q", rec.Body.String(), catalog)
	}

	// Ristretto applies sets asynchronously.
	cache.Wait()

	rec = httptest.NewRecorder()
	h.ListModels(rec, httptest.NewRequest(http.MethodGet, "/v1/models", nil))

	if got := rec.Header().Get("X-Cache"); got != "HIT" {
		t.Errorf("X-Cache = %q, want HIT", got)
	}
	if rec.Body.String() != catalog {
		t.Errorf("cached body = %q, want %q", rec.Body.String(), catalog)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("upstream calls = %d, want 1", got)
	}
}

func TestListModelsUpstreamErrorForwarded(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = io.WriteString(w, "upstream down")
	}))
	t.Cleanup(server.Close)

	client := openrouter.New(openrouter.Config{APIKey: "test-key", BaseURL: server.URL})
	h := New(client, nil, nil, time.Now())

	rec := httptest.NewRecorder()
	h.ListModels(rec, httptest.NewRequest(http.MethodGet, "/v1/models", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
	if rec.Body.String() != "upstream down" {
		t.Errorf("body = %q, want %q", rec.Body.String(), "upstream down")
	}
}

func TestUsageEndpoints(t *testing.T) {
	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "relay.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStorage() error = %v", err)
	}
	defer store.Close()

	today := time.Now().Format("2006-01-02")
	if err := store.LogRequest(&storage.RequestLog{
		RequestID:        "req_1",
		Model:            "openai/gpt-4o-mini",
		Provider:         "openrouter",
		PromptTokens:     5,
		CompletionTokens: 7,
		TotalTokens:      12,
		IsStreaming:      true,
		StatusCode:       http.StatusOK,
	}); err != nil {
		t.Fatalf("LogRequest() error = %v", err)
	}
	if err := store.UpdateDailyUsage(&storage.DailyUsage{
		Date:             today,
		Model:            "openai/gpt-4o-mini",
		RequestCount:     1,
		PromptTokens:     5,
		CompletionTokens: 7,
		TotalTokens:      12,
	}); err != nil {
		t.Fatalf("UpdateDailyUsage() error = %v", err)
	}

	h := New(nil, store, nil, time.Now())

	t.Run("stats", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.GetUsageStats(rec, httptest.NewRequest(http.MethodGet, "/api/usage", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
		}
		var stats storage.UsageStats
		if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
			t.Fatalf("invalid JSON response: %v", err)
		}
		if stats.TotalRequests != 1 {
			t.Errorf("TotalRequests = %d, want 1", stats.TotalRequests)
		}
		if stats.TotalTokens != 12 {
			t.Errorf("TotalTokens = %d, want 12", stats.TotalTokens)
		}
	})

	t.Run("daily", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.GetDailyUsage(rec, httptest.NewRequest(http.MethodGet, "/api/usage/daily", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
		}
		var body struct {
			DailyUsage []*storage.DailyUsage `json:"daily_usage"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("invalid JSON response: %v", err)
		}
		if len(body.DailyUsage) != 1 {
			t.Fatalf("len(daily_usage) = %d, want 1", len(body.DailyUsage))
		}
		if body.DailyUsage[0].Date != today {
			t.Errorf("date = %q, want %q", body.DailyUsage[0].Date, today)
		}
	})

	t.Run("logs", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.GetRequestLogs(rec, httptest.NewRequest(http.MethodGet, "/api/logs?model=openai/gpt-4o-mini", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
		}
		var body struct {
			Logs  []*storage.RequestLog `json:"logs"`
			Limit int                   `json:"limit"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("invalid JSON response: %v", err)
		}
		if len(body.Logs) != 1 {
			t.Fatalf("len(logs) = %d, want 1", len(body.Logs))
		}
		if body.Logs[0].RequestID != "req_1" {
			t.Errorf("RequestID = %q, want req_1", body.Logs[0].RequestID)
		}
		if body.Limit != 50 {
			t.Errorf("limit = %d, want default 50", body.Limit)
		}
	})
}

func TestUsageEndpointsWithoutStorage(t *testing.T) {
	h := New(nil, nil, nil, time.Now())

	endpoints := map[string]http.HandlerFunc{
		"stats": h.GetUsageStats,
		"daily": h.GetDailyUsage,
		"logs":  h.GetRequestLogs,
	}

	for name, endpoint := range endpoints {
		t.Run(name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			endpoint(rec, httptest.NewRequest(http.MethodGet, "/", nil))

			if rec.Code != http.StatusServiceUnavailable {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
			}
		})
	}
}
