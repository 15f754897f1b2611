// ABOUTME: Turn execution shared by the sync and streaming message endpoints
// ABOUTME: Persists both sides of a turn, resolves tool calls, and emits frames

package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/parlorlabs/parlor/internal/agent"
	"github.com/parlorlabs/parlor/internal/store"
)

const thinkingMessage = "Processing your request..."

// threadLocks serializes turns per thread. Turns for different threads run
// in parallel; a second turn for the same thread queues behind the first.
type threadLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newThreadLocks() *threadLocks {
	return &threadLocks{locks: make(map[string]*sync.Mutex)}
}

// acquire locks the given thread and returns the unlock function
func (l *threadLocks) acquire(threadID string) func() {
	l.mu.Lock()
	m, ok := l.locks[threadID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[threadID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}

// frameSink delivers frames to a streaming client. A nil sink (sync turns)
// drops all frames. Once a send fails the client is treated as gone and
// subsequent frames are dropped, but the turn itself keeps running.
type frameSink struct {
	send   func(streamFrame) error
	logger *slog.Logger
	gone   bool
}

func (s *frameSink) emit(f streamFrame) {
	if s == nil || s.send == nil || s.gone {
		return
	}
	if err := s.send(f); err != nil {
		s.logger.Debug("client disconnected mid-stream", "error", err)
		s.gone = true
	}
}

// turnOutcome is everything a completed turn persisted
type turnOutcome struct {
	assistant *store.Message
	toolCalls []*store.ToolCall
}

// runTurn processes one user message end to end: persist the user side,
// invoke the agent, deliver content frames, persist the assistant side,
// then resolve and persist tool calls. The user message is never rolled
// back once persisted, even if a later step fails.
func (g *Gateway) runTurn(ctx context.Context, thread *store.Thread, ag agent.Agent, userContent string, sink *frameSink) (*turnOutcome, error) {
	unlock := g.locks.acquire(thread.ID)
	defer unlock()

	if _, err := g.store.AppendMessage(ctx, thread.ID, store.RoleUser, userContent); err != nil {
		return nil, fmt.Errorf("persisting user message: %w", err)
	}

	sink.emit(thinkingFrame(thinkingMessage))

	res, err := ag.Invoke(ctx, userContent)
	if err != nil {
		return nil, fmt.Errorf("invoking agent %s: %w", ag.ID(), err)
	}

	g.streamContent(ctx, res.Content, sink)

	assistant, err := g.store.AppendMessage(ctx, thread.ID, store.RoleAssistant, res.Content)
	if err != nil {
		return nil, fmt.Errorf("persisting assistant message: %w", err)
	}

	outcome := &turnOutcome{assistant: assistant}
	for _, tu := range res.ToolUses {
		tc, err := g.resolveToolUse(ctx, assistant.ID, tu, sink)
		if err != nil {
			return nil, err
		}
		outcome.toolCalls = append(outcome.toolCalls, tc)
	}

	sink.emit(doneFrame())
	return outcome, nil
}

// streamContent delivers the response text as cumulative word-boundary
// chunks. Every chunk extends the previous one and the last chunk is the
// exact final text.
func (g *Gateway) streamContent(ctx context.Context, content string, sink *frameSink) {
	if sink == nil || sink.send == nil {
		return
	}

	words := strings.Split(content, " ")
	for i := range words {
		chunk := strings.Join(words[:i+1], " ")
		sink.emit(contentFrame(chunk, i < len(words)-1))
		if i < len(words)-1 && g.cfg.Streaming.ChunkDelay > 0 {
			select {
			case <-time.After(g.cfg.Streaming.ChunkDelay):
			case <-ctx.Done():
				return
			}
		}
	}
}

// resolveToolUse persists one tool invocation through its full lifecycle
// and emits its frame. Tool failures are recorded as a failed tool call
// with the error folded into the output; they never fail the turn.
func (g *Gateway) resolveToolUse(ctx context.Context, messageID string, tu agent.ToolUse, sink *frameSink) (*store.ToolCall, error) {
	input := marshalJSON(tu.Input)

	tc, err := g.store.AddToolCall(ctx, messageID, tu.Name, input)
	if err != nil {
		return nil, fmt.Errorf("persisting tool call: %w", err)
	}

	var output json.RawMessage
	status := store.ToolCallCompleted
	if tu.Err != "" {
		status = store.ToolCallFailed
		output = marshalJSON(map[string]any{
			"error":   "Tool execution failed",
			"message": tu.Err,
		})
	} else {
		output = marshalJSON(tu.Output)
	}

	if err := g.store.CompleteToolCall(ctx, tc.ID, output, status); err != nil {
		return nil, fmt.Errorf("completing tool call: %w", err)
	}
	tc.Output = output
	tc.Status = status

	sink.emit(toolCallFrame(tu.Name, input, output))
	return tc, nil
}

// flattenMessage normalizes a request message into plain text. Strings pass
// through; multimodal part arrays keep their text parts and note attached
// images; anything else is stored as its JSON form.
func flattenMessage(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var parts []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}
	if err := json.Unmarshal(raw, &parts); err == nil {
		var texts []string
		images := 0
		for _, p := range parts {
			switch p.Type {
			case "text":
				texts = append(texts, p.Text)
			case "image_url":
				images++
			}
		}
		content := strings.Join(texts, " ")
		if images > 0 {
			content += fmt.Sprintf(" [%d image(s) attached]", images)
		}
		return content
	}

	return string(raw)
}

func marshalJSON(v map[string]any) json.RawMessage {
	if v == nil {
		return json.RawMessage(`{}`)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage(`{}`)
	}
	return data
}
