// ABOUTME: Streaming turn operation parsing the gateway's SSE frames
// ABOUTME: Wraps POST /threads/{id}/messages/stream

package client

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Stream event types delivered by StreamMessage.
const (
	EventThinking = "thinking"
	EventContent  = "content"
	EventToolCall = "tool_call"
	EventDone     = "done"
	EventError    = "error"
)

// StreamEvent is one parsed SSE frame from a streaming turn.
type StreamEvent struct {
	Type       string          `json:"type"`
	Content    string          `json:"content,omitempty"`
	Partial    *bool           `json:"partial,omitempty"`
	ToolName   string          `json:"tool_name,omitempty"`
	ToolInput  json.RawMessage `json:"tool_input,omitempty"`
	ToolOutput json.RawMessage `json:"tool_output,omitempty"`
}

// StreamMessage runs a turn and invokes fn for every frame the gateway
// emits, in order. It returns when the stream ends or fn returns an error;
// a callback error aborts reading but the gateway finishes the turn on its
// side regardless.
func (c *Client) StreamMessage(ctx context.Context, threadID, message string, fn func(StreamEvent) error) error {
	data, err := json.Marshal(map[string]string{"message": message})
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	path := "/threads/" + url.PathEscape(threadID) + "/messages/stream"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.responseError(resp)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		payload, ok := strings.CutPrefix(scanner.Text(), "data: ")
		if !ok {
			continue
		}

		var ev StreamEvent
		if err := json.Unmarshal([]byte(payload), &ev); err != nil {
			return fmt.Errorf("parsing stream frame: %w", err)
		}
		if err := fn(ev); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading stream: %w", err)
	}
	return nil
}
