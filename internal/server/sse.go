package server

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
)

// SSEWriter helps write Server-Sent Events
type SSEWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// NewSSEWriter creates a new SSE writer
func NewSSEWriter(w http.ResponseWriter) (*SSEWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("streaming not supported")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	return &SSEWriter{w: w, flusher: flusher}, nil
}

// WriteEvent sends an SSE event
func (s *SSEWriter) WriteEvent(event string, data any) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", event, jsonData); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// WriteStatus sends a progress message
func (s *SSEWriter) WriteStatus(message string) {
	s.writeOrLog("status", map[string]string{"message": message})
}

// WriteError sends an error event
func (s *SSEWriter) WriteError(message string) {
	s.writeOrLog("error", map[string]string{"error": message})
}

// WriteComplete sends a completion event
func (s *SSEWriter) WriteComplete(sessionID, status string) {
	s.writeOrLog("complete", map[string]string{
		"session_id": sessionID,
		"status":     status,
	})
}

func (s *SSEWriter) writeOrLog(event string, data any) {
	if err := s.WriteEvent(event, data); err != nil {
		log.Printf("[sse] failed to write %s event: %v", event, err)
	}
}
