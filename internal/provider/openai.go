// ABOUTME: OpenAI chat-completions backend for the provider Client interface
// ABOUTME: Streams deltas through the SDK's ChatCompletionAccumulator

package provider

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const defaultOpenAIModel = "gpt-4o-mini"

// OpenAIClient implements Client over the OpenAI chat completions API
type OpenAIClient struct {
	client openai.Client
	model  string
}

var _ Client = (*OpenAIClient)(nil)

// NewOpenAIClient builds an OpenAI-backed provider. An empty baseURL uses
// the public API; an empty model falls back to a small default.
func NewOpenAIClient(apiKey, baseURL, model string) *OpenAIClient {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if model == "" {
		model = defaultOpenAIModel
	}
	return &OpenAIClient{client: openai.NewClient(opts...), model: model}
}

func (c *OpenAIClient) params(system string, msgs []Message) openai.ChatCompletionNewParams {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs)+1)
	if system != "" {
		messages = append(messages, openai.SystemMessage(system))
	}
	for _, m := range msgs {
		if m.Role == "assistant" {
			messages = append(messages, openai.AssistantMessage(m.Content))
		} else {
			messages = append(messages, openai.UserMessage(m.Content))
		}
	}
	return openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(c.model),
		Messages: messages,
	}
}

// Complete returns the full completion for the given conversation
func (c *OpenAIClient) Complete(ctx context.Context, system string, msgs []Message) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, c.params(system, msgs))
	if err != nil {
		return "", fmt.Errorf("openai completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai completion: empty response")
	}
	return resp.Choices[0].Message.Content, nil
}

// Stream invokes fn for each text delta and returns the full completion
func (c *OpenAIClient) Stream(ctx context.Context, system string, msgs []Message, fn func(delta string) error) (string, error) {
	stream := c.client.Chat.Completions.NewStreaming(ctx, c.params(system, msgs))
	defer stream.Close()

	acc := openai.ChatCompletionAccumulator{}
	for stream.Next() {
		chunk := stream.Current()
		acc.AddChunk(chunk)
		for _, choice := range chunk.Choices {
			if choice.Delta.Content == "" {
				continue
			}
			if err := fn(choice.Delta.Content); err != nil {
				return "", err
			}
		}
	}
	if err := stream.Err(); err != nil {
		return "", fmt.Errorf("openai stream: %w", err)
	}
	if len(acc.Choices) == 0 {
		return "", fmt.Errorf("openai stream: empty response")
	}
	return acc.Choices[0].Message.Content, nil
}
