// ABOUTME: Agent interface and shared types for parlor agents
// ABOUTME: Defines Tool descriptors, invocation results, and tool use records

package agent

import (
	"context"
	"errors"
	"fmt"
)

// ErrUnknownTool is returned by ExecuteTool for tool IDs the agent does not have
var ErrUnknownTool = errors.New("unknown tool")

// Tool describes one capability an agent exposes
type Tool struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Schema      map[string]any `json:"schema"`
}

// ToolUse records a single tool invocation made while producing a response.
// Err is set instead of Output when the tool failed; a failed tool never
// fails the whole turn.
type ToolUse struct {
	ToolID string
	Name   string
	Input  map[string]any
	Output map[string]any
	Err    string
}

// Result is the outcome of one agent invocation
type Result struct {
	Content  string
	ToolUses []ToolUse
}

// Agent is a conversational agent with optional tools
type Agent interface {
	ID() string
	Name() string
	Description() string
	Tools() []Tool

	// Invoke produces a complete response to the user message
	Invoke(ctx context.Context, message string) (*Result, error)

	// StreamInvoke produces the same response as Invoke, delivering text
	// incrementally through fn. The returned Content equals the
	// concatenated deltas. A non-nil error from fn aborts the invocation.
	StreamInvoke(ctx context.Context, message string, fn func(delta string) error) (*Result, error)

	// ExecuteTool runs one of the agent's tools directly. Returns
	// ErrUnknownTool for tool IDs the agent does not expose.
	ExecuteTool(ctx context.Context, toolID string, input map[string]any) (map[string]any, error)
}

// streamWhole adapts a synchronous invocation to the streaming contract by
// delivering the full content as a single delta.
func streamWhole(res *Result, err error, fn func(delta string) error) (*Result, error) {
	if err != nil {
		return nil, err
	}
	if res.Content != "" {
		if err := fn(res.Content); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// findTool returns the tool with the given ID, or an ErrUnknownTool error
func findTool(tools []Tool, toolID string) (Tool, error) {
	for _, t := range tools {
		if t.ID == toolID {
			return t, nil
		}
	}
	return Tool{}, fmt.Errorf("%w: %s", ErrUnknownTool, toolID)
}
