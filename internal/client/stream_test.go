// ABOUTME: Tests for the SDK's SSE stream parsing
// ABOUTME: Covers frame ordering, callback errors, and pre-stream failures

package client

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStreamServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return New(server.URL)
}

func writeSSE(t *testing.T, w http.ResponseWriter, frames ...string) {
	t.Helper()
	w.Header().Set("Content-Type", "text/event-stream")
	flusher, ok := w.(http.Flusher)
	require.True(t, ok)
	for _, f := range frames {
		fmt.Fprintf(w, "data: %s\n\n", f)
		flusher.Flush()
	}
}

func TestStreamMessage(t *testing.T) {
	c := newStreamServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/threads/t1/messages/stream", r.URL.Path)
		writeSSE(t, w,
			`{"type":"thinking","content":"Processing your request..."}`,
			`{"type":"content","content":"The","partial":true}`,
			`{"type":"content","content":"The answer","partial":true}`,
			`{"type":"content","content":"The answer is 42","partial":false}`,
			`{"type":"tool_call","tool_name":"Calculator","tool_input":{"expression":"40+2"},"tool_output":{"result":"42"}}`,
			`{"type":"done"}`,
		)
	})

	var events []StreamEvent
	err := c.StreamMessage(context.Background(), "t1", "question", func(ev StreamEvent) error {
		events = append(events, ev)
		return nil
	})
	require.NoError(t, err)

	require.Len(t, events, 6)
	assert.Equal(t, EventThinking, events[0].Type)
	assert.Equal(t, EventContent, events[1].Type)
	assert.Equal(t, "The", events[1].Content)
	require.NotNil(t, events[1].Partial)
	assert.True(t, *events[1].Partial)

	final := events[3]
	assert.Equal(t, "The answer is 42", final.Content)
	require.NotNil(t, final.Partial)
	assert.False(t, *final.Partial)

	assert.Equal(t, EventToolCall, events[4].Type)
	assert.Equal(t, "Calculator", events[4].ToolName)
	assert.JSONEq(t, `{"result":"42"}`, string(events[4].ToolOutput))

	assert.Equal(t, EventDone, events[5].Type)
}

func TestStreamMessage_ErrorFrame(t *testing.T) {
	c := newStreamServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeSSE(t, w,
			`{"type":"thinking","content":"Processing your request..."}`,
			`{"type":"error","content":"Something went wrong"}`,
		)
	})

	var last StreamEvent
	err := c.StreamMessage(context.Background(), "t1", "question", func(ev StreamEvent) error {
		last = ev
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, EventError, last.Type)
	assert.Equal(t, "Something went wrong", last.Content)
}

func TestStreamMessage_CallbackErrorStopsReading(t *testing.T) {
	c := newStreamServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeSSE(t, w,
			`{"type":"thinking","content":"Processing your request..."}`,
			`{"type":"content","content":"hello","partial":false}`,
			`{"type":"done"}`,
		)
	})

	calls := 0
	err := c.StreamMessage(context.Background(), "t1", "question", func(ev StreamEvent) error {
		calls++
		return fmt.Errorf("stop now")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stop now")
	assert.Equal(t, 1, calls)
}

func TestStreamMessage_NotFoundBeforeStream(t *testing.T) {
	c := newStreamServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error":"Thread not found"}`)
	})

	err := c.StreamMessage(context.Background(), "missing", "hi", func(StreamEvent) error {
		t.Fatal("callback should not run")
		return nil
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStreamMessage_IgnoresNonDataLines(t *testing.T) {
	c := newStreamServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, ": keepalive comment\n\n")
		fmt.Fprint(w, "data: {\"type\":\"done\"}\n\n")
	})

	var types []string
	err := c.StreamMessage(context.Background(), "t1", "hi", func(ev StreamEvent) error {
		types = append(types, ev.Type)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{EventDone}, types)
}
