// ABOUTME: Anthropic messages backend for the provider Client interface
// ABOUTME: Streams text deltas and accumulates the final message server-side

package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	aoption "github.com/anthropics/anthropic-sdk-go/option"
)

const (
	defaultAnthropicModel     = "claude-3-5-haiku-latest"
	defaultAnthropicMaxTokens = 1024
)

// AnthropicClient implements Client over the Anthropic messages API
type AnthropicClient struct {
	client anthropic.Client
	model  string
}

var _ Client = (*AnthropicClient)(nil)

// NewAnthropicClient builds an Anthropic-backed provider. An empty baseURL
// uses the public API; an empty model falls back to a small default.
func NewAnthropicClient(apiKey, baseURL, model string) *AnthropicClient {
	opts := []aoption.RequestOption{aoption.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, aoption.WithBaseURL(baseURL))
	}
	if model == "" {
		model = defaultAnthropicModel
	}
	return &AnthropicClient{client: anthropic.NewClient(opts...), model: model}
}

func (c *AnthropicClient) params(system string, msgs []Message) anthropic.MessageNewParams {
	messages := make([]anthropic.MessageParam, 0, len(msgs))
	for _, m := range msgs {
		block := anthropic.NewTextBlock(m.Content)
		if m.Role == "assistant" {
			messages = append(messages, anthropic.NewAssistantMessage(block))
		} else {
			messages = append(messages, anthropic.NewUserMessage(block))
		}
	}
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: defaultAnthropicMaxTokens,
		Messages:  messages,
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	return params
}

// Complete returns the full completion for the given conversation
func (c *AnthropicClient) Complete(ctx context.Context, system string, msgs []Message) (string, error) {
	msg, err := c.client.Messages.New(ctx, c.params(system, msgs))
	if err != nil {
		return "", fmt.Errorf("anthropic completion: %w", err)
	}
	var sb strings.Builder
	for _, block := range msg.Content {
		if text, ok := block.AsAny().(anthropic.TextBlock); ok {
			sb.WriteString(text.Text)
		}
	}
	return sb.String(), nil
}

// Stream invokes fn for each text delta and returns the full completion
func (c *AnthropicClient) Stream(ctx context.Context, system string, msgs []Message, fn func(delta string) error) (string, error) {
	stream := c.client.Messages.NewStreaming(ctx, c.params(system, msgs))
	defer stream.Close()

	msg := anthropic.Message{}
	var sb strings.Builder
	for stream.Next() {
		event := stream.Current()
		if err := msg.Accumulate(event); err != nil {
			return "", fmt.Errorf("anthropic stream: %w", err)
		}
		if delta, ok := event.AsAny().(anthropic.ContentBlockDeltaEvent); ok {
			if text, ok := delta.Delta.AsAny().(anthropic.TextDelta); ok && text.Text != "" {
				sb.WriteString(text.Text)
				if err := fn(text.Text); err != nil {
					return "", err
				}
			}
		}
	}
	if err := stream.Err(); err != nil {
		return "", fmt.Errorf("anthropic stream: %w", err)
	}
	return sb.String(), nil
}
