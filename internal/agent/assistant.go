// ABOUTME: General assistant agent backed by an optional completion provider
// ABOUTME: Parses TOOL_CALL directives from model output and resolves them inline

package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/parlorlabs/parlor/internal/provider"
)

const (
	GeneralAssistantID = "general-assistant"

	toolTextGeneration = "text_generation"
	toolExplanation    = "explanation"

	toolCallMarker = "TOOL_CALL:"
)

// GeneralAssistant answers open-ended questions. With a provider configured
// it delegates to the hosted model and honors TOOL_CALL directives in the
// model output; without one it falls back to built-in responses.
type GeneralAssistant struct {
	provider provider.Client
	logger   *slog.Logger
	tools    []Tool
}

var _ Agent = (*GeneralAssistant)(nil)

// NewGeneralAssistant creates the general assistant. A nil provider client
// enables the built-in response mode.
func NewGeneralAssistant(p provider.Client) *GeneralAssistant {
	return &GeneralAssistant{
		provider: p,
		logger:   slog.Default().With("component", "agent", "agent_id", GeneralAssistantID),
		tools: []Tool{
			{
				ID:          toolTextGeneration,
				Name:        "Text Generation",
				Description: "Generates helpful responses to user questions and requests",
				Schema: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"user_input": map[string]any{
							"type":        "string",
							"description": "The user's question or request",
						},
						"context": map[string]any{
							"type":        "string",
							"description": "Additional context for the response",
						},
					},
					"required": []string{"user_input"},
				},
			},
			{
				ID:          toolExplanation,
				Name:        "Explanation",
				Description: "Provides detailed explanations on various topics",
				Schema: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"topic": map[string]any{
							"type":        "string",
							"description": "The topic to explain",
						},
						"detail_level": map[string]any{
							"type":        "string",
							"description": "Level of detail (basic, intermediate, advanced)",
							"enum":        []string{"basic", "intermediate", "advanced"},
						},
					},
					"required": []string{"topic"},
				},
			},
		},
	}
}

func (a *GeneralAssistant) ID() string   { return GeneralAssistantID }
func (a *GeneralAssistant) Name() string { return "General Assistant" }
func (a *GeneralAssistant) Description() string {
	return "A helpful AI assistant that can answer questions, help with tasks, and have conversations on a wide range of topics"
}
func (a *GeneralAssistant) Tools() []Tool { return a.tools }

func (a *GeneralAssistant) systemPrompt() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "You are %s, %s\n\nAvailable tools:\n", a.Name(), a.Description())
	for _, t := range a.tools {
		fmt.Fprintf(&sb, "- %s: %s\n", t.Name, t.Description)
	}
	sb.WriteString("\nWhen you need to use a tool, respond with: ")
	sb.WriteString(toolCallMarker)
	sb.WriteString(`{"tool_id": "tool_id", "input": {}}`)
	sb.WriteString("\n\nAlways be helpful and provide accurate information.")
	return sb.String()
}

// Invoke produces a response, delegating to the provider when configured
func (a *GeneralAssistant) Invoke(ctx context.Context, message string) (*Result, error) {
	if a.provider == nil {
		return a.builtinResponse(message), nil
	}

	content, err := a.provider.Complete(ctx, a.systemPrompt(), []provider.Message{
		{Role: "user", Content: message},
	})
	if err != nil {
		return nil, fmt.Errorf("completing message: %w", err)
	}

	directive, ok := extractToolCall(content)
	if !ok {
		return &Result{Content: content}, nil
	}
	return a.resolveToolCall(ctx, message, content, directive)
}

// StreamInvoke streams provider deltas when configured, otherwise delivers
// the built-in response as a single delta.
func (a *GeneralAssistant) StreamInvoke(ctx context.Context, message string, fn func(delta string) error) (*Result, error) {
	if a.provider == nil {
		return streamWhole(a.builtinResponse(message), nil, fn)
	}

	content, err := a.provider.Stream(ctx, a.systemPrompt(), []provider.Message{
		{Role: "user", Content: message},
	}, fn)
	if err != nil {
		return nil, fmt.Errorf("streaming message: %w", err)
	}

	directive, ok := extractToolCall(content)
	if !ok {
		return &Result{Content: content}, nil
	}

	// The directive already streamed to the caller; resolve the tool and
	// append the follow-up text as one more delta so the content stays
	// consistent with the deltas.
	res, err := a.resolveToolCall(ctx, message, content, directive)
	if err != nil {
		return nil, err
	}
	if extra, found := strings.CutPrefix(res.Content, content); found && extra != "" {
		if err := fn(extra); err != nil {
			return nil, err
		}
		return res, nil
	}
	res.Content = content
	return res, nil
}

// ExecuteTool runs one of the built-in tools directly
func (a *GeneralAssistant) ExecuteTool(ctx context.Context, toolID string, input map[string]any) (map[string]any, error) {
	switch toolID {
	case toolTextGeneration:
		userInput, _ := input["user_input"].(string)
		return map[string]any{
			"response": fmt.Sprintf("I'll help you with that. Let me think about your request: %q", userInput),
			"type":     "text_response",
		}, nil
	case toolExplanation:
		topic, _ := input["topic"].(string)
		level, _ := input["detail_level"].(string)
		if level == "" {
			level = "intermediate"
		}
		return map[string]any{
			"explanation":  fmt.Sprintf("Here's a %s explanation of %s:", level, topic),
			"detail_level": level,
			"type":         "explanation",
		}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, toolID)
	}
}

// toolCallDirective is the JSON payload following a TOOL_CALL marker
type toolCallDirective struct {
	ToolID string         `json:"tool_id"`
	Input  map[string]any `json:"input"`
}

// resolveToolCall executes the requested tool and asks the provider for a
// follow-up response incorporating the result. Tool failures are recorded
// on the result instead of failing the invocation.
func (a *GeneralAssistant) resolveToolCall(ctx context.Context, message, content string, directive toolCallDirective) (*Result, error) {
	toolName := directive.ToolID
	if t, err := findTool(a.tools, directive.ToolID); err == nil {
		toolName = t.Name
	}

	output, err := a.ExecuteTool(ctx, directive.ToolID, directive.Input)
	if err != nil {
		a.logger.Warn("tool execution failed", "tool_id", directive.ToolID, "error", err)
		return &Result{
			Content: strings.TrimSpace(strings.Replace(content, toolCallMarker, "", 1)),
			ToolUses: []ToolUse{{
				ToolID: directive.ToolID,
				Name:   toolName,
				Input:  directive.Input,
				Err:    err.Error(),
			}},
		}, nil
	}

	outputJSON, _ := json.Marshal(output)
	followUp, err := a.provider.Complete(ctx, a.systemPrompt(), []provider.Message{
		{Role: "user", Content: message},
		{Role: "assistant", Content: content},
		{Role: "user", Content: fmt.Sprintf("Tool result: %s. Please provide a natural response based on this result.", outputJSON)},
	})
	if err != nil {
		return nil, fmt.Errorf("completing tool follow-up: %w", err)
	}

	return &Result{
		Content: content + "\n\n" + followUp,
		ToolUses: []ToolUse{{
			ToolID: directive.ToolID,
			Name:   toolName,
			Input:  directive.Input,
			Output: output,
		}},
	}, nil
}

// extractToolCall finds a TOOL_CALL directive in model output. The JSON
// object is extracted by brace counting since the model may append prose
// after it.
func extractToolCall(content string) (toolCallDirective, bool) {
	idx := strings.Index(content, toolCallMarker)
	if idx < 0 {
		return toolCallDirective{}, false
	}

	rest := content[idx+len(toolCallMarker):]
	var jsonStr strings.Builder
	depth := 0
	started := false
	for _, ch := range rest {
		if ch == '{' {
			started = true
			depth++
		}
		if started {
			jsonStr.WriteRune(ch)
		}
		if ch == '}' {
			depth--
			if depth == 0 && started {
				break
			}
		}
	}

	var directive toolCallDirective
	if err := json.Unmarshal([]byte(jsonStr.String()), &directive); err != nil || directive.ToolID == "" {
		return toolCallDirective{}, false
	}
	return directive, true
}

// builtinResponse is the no-provider fallback. Responses are deterministic
// so the agent remains usable in local development and tests.
func (a *GeneralAssistant) builtinResponse(message string) *Result {
	lower := strings.ToLower(strings.TrimSpace(message))

	switch {
	case lower == "":
		return &Result{Content: "I'm here to help! Ask me anything and I'll do my best to assist."}
	case strings.HasPrefix(lower, "hello") || strings.HasPrefix(lower, "hi") || strings.HasPrefix(lower, "hey"):
		return &Result{Content: "Hello! I'm your General Assistant. I can answer questions, help with tasks, and have conversations on a wide range of topics. What can I help you with today?"}
	case strings.Contains(lower, "help"):
		return &Result{Content: "I can answer questions, provide explanations, and help with writing, analysis, and problem-solving. Just tell me what you need!"}
	case strings.Contains(lower, "thank"):
		return &Result{Content: "You're welcome! Let me know if there's anything else I can help with."}
	default:
		return &Result{Content: fmt.Sprintf("That's an interesting question about %q. I don't have a hosted model configured right now, but I'm happy to help however I can. Could you tell me more about what you're looking for?", strings.TrimSpace(message))}
	}
}
