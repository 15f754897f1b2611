// ABOUTME: Thread lifecycle operations for the gateway API
// ABOUTME: Wraps POST/GET /threads and DELETE /threads/{id}

package client

import (
	"context"
	"net/http"
	"net/url"
)

// Thread is one conversation thread.
type Thread struct {
	ID        string `json:"id"`
	AgentID   string `json:"agent_id"`
	Title     string `json:"title"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// CreateThread starts a new thread with the given agent. An empty title
// gets the gateway's default.
func (c *Client) CreateThread(ctx context.Context, agentID, title string) (*Thread, error) {
	body := map[string]string{"agent_id": agentID}
	if title != "" {
		body["title"] = title
	}

	var thread Thread
	if err := c.doJSON(ctx, http.MethodPost, "/threads", body, &thread); err != nil {
		return nil, err
	}
	return &thread, nil
}

// ListThreads returns threads that have at least one message, most recently
// active first. A non-empty agentID filters to that agent's threads.
func (c *Client) ListThreads(ctx context.Context, agentID string) ([]Thread, error) {
	path := "/threads"
	if agentID != "" {
		path += "?agent_id=" + url.QueryEscape(agentID)
	}

	var out struct {
		Threads []Thread `json:"threads"`
	}
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Threads, nil
}

// DeleteThread removes a thread and all of its messages.
func (c *Client) DeleteThread(ctx context.Context, threadID string) error {
	return c.doJSON(ctx, http.MethodDelete, "/threads/"+url.PathEscape(threadID), nil, nil)
}
