// ABOUTME: Message history and synchronous turn operations
// ABOUTME: Wraps GET and POST /threads/{id}/messages

package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
)

// ToolCall is one tool invocation attached to an assistant message.
type ToolCall struct {
	ID         string          `json:"id"`
	ToolName   string          `json:"tool_name"`
	ToolInput  json.RawMessage `json:"tool_input"`
	ToolOutput json.RawMessage `json:"tool_output,omitempty"`
	Status     string          `json:"status"`
}

// Message is one message in a thread's history.
type Message struct {
	ID        string     `json:"id"`
	ThreadID  string     `json:"thread_id"`
	Role      string     `json:"role"`
	Content   string     `json:"content"`
	CreatedAt string     `json:"created_at"`
	ToolCalls []ToolCall `json:"tool_calls"`
}

// AssistantReply is the assistant side of a completed turn.
type AssistantReply struct {
	ID        string     `json:"id"`
	Role      string     `json:"role"`
	Content   string     `json:"content"`
	ToolCalls []ToolCall `json:"tool_calls"`
}

// ListMessages returns a thread's full history in conversation order.
func (c *Client) ListMessages(ctx context.Context, threadID string) ([]Message, error) {
	var out struct {
		Messages []Message `json:"messages"`
	}
	path := "/threads/" + url.PathEscape(threadID) + "/messages"
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Messages, nil
}

// SendMessage runs a full turn and returns the assistant's reply once the
// turn completes. For incremental delivery use StreamMessage.
func (c *Client) SendMessage(ctx context.Context, threadID, message string) (*AssistantReply, error) {
	body := map[string]string{"message": message}
	path := "/threads/" + url.PathEscape(threadID) + "/messages"

	var reply AssistantReply
	if err := c.doJSON(ctx, http.MethodPost, path, body, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}
