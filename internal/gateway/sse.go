// ABOUTME: Server-sent events writer emitting data-only JSON frames
// ABOUTME: Defines the stream frame types for turn delivery

package gateway

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// streamFrame is one SSE frame of the turn delivery protocol. Type is
// always set; the other fields depend on the frame type.
type streamFrame struct {
	Type       string          `json:"type"`
	Content    string          `json:"content,omitempty"`
	Partial    *bool           `json:"partial,omitempty"`
	ToolName   string          `json:"tool_name,omitempty"`
	ToolInput  json.RawMessage `json:"tool_input,omitempty"`
	ToolOutput json.RawMessage `json:"tool_output,omitempty"`
}

func thinkingFrame(content string) streamFrame {
	return streamFrame{Type: "thinking", Content: content}
}

func contentFrame(content string, partial bool) streamFrame {
	return streamFrame{Type: "content", Content: content, Partial: &partial}
}

func toolCallFrame(name string, input, output json.RawMessage) streamFrame {
	return streamFrame{Type: "tool_call", ToolName: name, ToolInput: input, ToolOutput: output}
}

func doneFrame() streamFrame {
	return streamFrame{Type: "done"}
}

func errorFrame(content string) streamFrame {
	return streamFrame{Type: "error", Content: content}
}

// sseWriter writes data-only SSE frames and flushes after each one
type sseWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// newSSEWriter sets the SSE headers and returns a writer. Fails if the
// underlying ResponseWriter does not support flushing.
func newSSEWriter(w http.ResponseWriter) (*sseWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("response writer does not support streaming")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	return &sseWriter{w: w, flusher: flusher}, nil
}

// send writes one frame. Returns an error once the client is gone.
func (s *sseWriter) send(f streamFrame) error {
	data, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("marshaling frame: %w", err)
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", data); err != nil {
		return fmt.Errorf("writing frame: %w", err)
	}
	s.flusher.Flush()
	return nil
}
