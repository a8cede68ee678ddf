package openrouter

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"log/slog"

	"github.com/tooniez/openrouter-relay/internal/types"
)

// Scanner limits for a single SSE line. A line over the max aborts the
// stream rather than silently truncating an event.
const (
	scanBufSize = 64 * 1024
	scanBufMax  = 256 * 1024
)

// StreamProcessor re-frames upstream SSE data lines into a clean event
// stream and collects stream metadata along the way.
//
// Relay starts a producer goroutine that scans the upstream body and
// writes one "data: <json>\n\n" frame per valid event into a pipe; the
// caller consumes the read end. Lines without the data prefix, the
// [DONE] sentinel, and malformed payloads are dropped. Events are
// re-encoded with json.Compact, which validates the JSON while keeping
// key order and value bytes intact.
type StreamProcessor struct {
	logger *slog.Logger

	// Written by the producer goroutine; read after Wait returns.
	usage        *types.Usage
	finishReason string
	model        string
	events       int

	done chan struct{}
}

// NewStreamProcessor creates a new SSE stream processor.
func NewStreamProcessor(logger *slog.Logger) *StreamProcessor {
	if logger == nil {
		logger = slog.Default()
	}
	return &StreamProcessor{
		logger: logger,
		done:   make(chan struct{}),
	}
}

// Relay starts the background copy and returns the read end of the
// re-framed event stream. The reader yields io.EOF when the upstream
// body ends cleanly and the scan error otherwise. Closing the reader
// stops the producer on its next write.
func (p *StreamProcessor) Relay(upstream io.Reader) io.ReadCloser {
	pr, pw := io.Pipe()

	go func() {
		defer close(p.done)
		if err := p.process(upstream, pw); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.Close()
	}()

	return pr
}

// process scans upstream lines and writes re-framed events to w.
func (p *StreamProcessor) process(r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	// Set a larger buffer for potentially large chunks
	buf := make([]byte, scanBufSize)
	scanner.Buffer(buf, scanBufMax)

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())

		// Skip empty lines, comments and non-data fields
		if !bytes.HasPrefix(line, []byte(types.SSEPrefix)) {
			continue
		}
		data := bytes.TrimPrefix(line, []byte(types.SSEPrefix))

		// The sentinel is not an event; the relay ends when the
		// upstream connection closes.
		if bytes.Equal(data, []byte(types.SSEDone)) {
			continue
		}

		var compact bytes.Buffer
		if err := json.Compact(&compact, data); err != nil {
			p.logger.Warn("dropping malformed stream line", "error", err)
			continue
		}

		if _, err := w.Write(types.FormatSSE(compact.Bytes())); err != nil {
			return err
		}
		p.events++
		p.observe(compact.Bytes())
	}

	return scanner.Err()
}

// observe extracts metadata from a forwarded event.
func (p *StreamProcessor) observe(data []byte) {
	var chunk types.ChatCompletionChunk
	if err := json.Unmarshal(data, &chunk); err != nil {
		return
	}

	// Extract model if not set
	if p.model == "" && chunk.Model != "" {
		p.model = chunk.Model
	}

	// Extract usage from final chunk (if stream_options.include_usage=true)
	if chunk.Usage != nil {
		p.usage = chunk.Usage
	}

	// Extract finish reason
	for _, choice := range chunk.Choices {
		if reason := choice.GetFinishReason(); reason != "" {
			p.finishReason = reason
		}
	}
}

// Wait blocks until the background copy has finished. The metadata
// accessors are only valid after Wait returns.
func (p *StreamProcessor) Wait() {
	<-p.done
}

// Events returns the number of events forwarded.
func (p *StreamProcessor) Events() int {
	return p.events
}

// Usage returns the usage info if provided by upstream.
func (p *StreamProcessor) Usage() *types.Usage {
	return p.usage
}

// FinishReason returns the finish reason observed in the stream.
func (p *StreamProcessor) FinishReason() string {
	return p.finishReason
}

// Model returns the model observed in the stream.
func (p *StreamProcessor) Model() string {
	return p.model
}
