package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/jonathan/showcase-forge/internal/observability"
	"github.com/jonathan/showcase-forge/internal/pipeline"
)

// SSEWriter helps write Server-Sent Events
type SSEWriter struct {
	mu      sync.Mutex
	w       http.ResponseWriter
	flusher http.Flusher
	logger  observability.Logger
	closed  bool
}

// NewSSEWriter creates a new SSE writer
func NewSSEWriter(w http.ResponseWriter, logger observability.Logger) (*SSEWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("streaming not supported")
	}

	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	return &SSEWriter{w: w, flusher: flusher, logger: logger}, nil
}

// WriteEvent sends an SSE event. After the first write failure (usually a
// disconnected client) further events are dropped.
func (s *SSEWriter) WriteEvent(event string, data any) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("stream closed")
	}

	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", event, jsonData); err != nil {
		s.closed = true
		return err
	}
	s.flusher.Flush()
	return nil
}

// ProgressEvent is the payload of a "progress" event
type ProgressEvent struct {
	Percent int                     `json:"percent"`
	Message string                  `json:"message"`
	Partial *pipeline.PartialResult `json:"partial,omitempty"`
}

// OnProgress implements pipeline.ProgressSink by streaming "progress" events
func (s *SSEWriter) OnProgress(percent int, message string, snapshot *pipeline.PartialResult) {
	if err := s.WriteEvent("progress", ProgressEvent{Percent: percent, Message: message, Partial: snapshot}); err != nil {
		s.logger.Debug().Err(err).Msg("dropping progress event")
	}
}

// WriteError sends an error event
func (s *SSEWriter) WriteError(message string) {
	s.WriteEvent("error", map[string]string{"error": message}) //nolint:errcheck
}

// WriteComplete sends a completion event
func (s *SSEWriter) WriteComplete(resp PipelineResponse) {
	s.WriteEvent("complete", resp) //nolint:errcheck
}

var _ pipeline.ProgressSink = (*SSEWriter)(nil)
