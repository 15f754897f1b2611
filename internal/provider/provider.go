// ABOUTME: Completion provider abstraction over hosted LLM APIs
// ABOUTME: Defines the Client interface plus a config-driven factory

// Package provider adapts hosted completion APIs (OpenAI, Anthropic) to a
// single small interface the agents consume. Providers are optional: when
// none is configured the factory returns nil and agents fall back to their
// built-in responses.
package provider

import (
	"context"
	"fmt"

	"github.com/parlorlabs/parlor/internal/config"
)

// Message is one turn of conversation context sent to a provider
type Message struct {
	Role    string // "user" or "assistant"
	Content string
}

// Client produces completions from a hosted model
type Client interface {
	// Complete returns the full completion for the given conversation
	Complete(ctx context.Context, system string, msgs []Message) (string, error)

	// Stream invokes fn for each text delta and returns the full
	// completion. The returned text equals the concatenated deltas.
	// A non-nil error from fn aborts the stream.
	Stream(ctx context.Context, system string, msgs []Message, fn func(delta string) error) (string, error)
}

// New builds a Client from config. A "none" or empty kind returns (nil, nil);
// callers must treat a nil Client as "no provider configured".
func New(cfg config.ProviderConfig) (Client, error) {
	switch cfg.Kind {
	case "", "none":
		return nil, nil
	case "openai":
		return NewOpenAIClient(cfg.APIKey, cfg.BaseURL, cfg.Model), nil
	case "anthropic":
		return NewAnthropicClient(cfg.APIKey, cfg.BaseURL, cfg.Model), nil
	default:
		return nil, fmt.Errorf("unknown provider kind %q", cfg.Kind)
	}
}
