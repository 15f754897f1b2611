// ABOUTME: Agent listing and health check operations
// ABOUTME: Wraps GET /agents and GET /health

package client

import (
	"context"
	"net/http"
)

// AgentTool describes one tool an agent exposes.
type AgentTool struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Agent describes one registered agent.
type Agent struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Tools       []AgentTool `json:"tools"`
}

// ListAgents returns the agents registered on the gateway.
func (c *Client) ListAgents(ctx context.Context) ([]Agent, error) {
	var out struct {
		Agents []Agent `json:"agents"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/agents", nil, &out); err != nil {
		return nil, err
	}
	return out.Agents, nil
}

// Health reports whether the gateway and its database are reachable.
func (c *Client) Health(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodGet, "/health", nil, nil)
}
