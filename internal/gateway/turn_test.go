// ABOUTME: Unit tests for turn helpers: message flattening, per-thread
// ABOUTME: locking, frame sink disconnect handling, and SSE frame encoding

package gateway

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlattenMessage(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"plain string", `"hello world"`, "hello world"},
		{"empty string", `""`, ""},
		{
			"text parts joined",
			`[{"type":"text","text":"first"},{"type":"text","text":"second"}]`,
			"first second",
		},
		{
			"single image",
			`[{"type":"text","text":"look"},{"type":"image_url","image_url":{"url":"data:x"}}]`,
			"look [1 image(s) attached]",
		},
		{
			"images only",
			`[{"type":"image_url"},{"type":"image_url"}]`,
			" [2 image(s) attached]",
		},
		{"unknown shape kept as JSON", `{"foo":1}`, `{"foo":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, flattenMessage(json.RawMessage(tt.raw)))
		})
	}
}

func TestThreadLocks_SerializesSameThread(t *testing.T) {
	locks := newThreadLocks()

	unlock := locks.acquire("thread-1")

	acquired := make(chan struct{})
	go func() {
		u := locks.acquire("thread-1")
		close(acquired)
		u()
	}()

	select {
	case <-acquired:
		t.Fatal("second acquire should block while the first holds the lock")
	case <-time.After(50 * time.Millisecond):
	}

	unlock()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second acquire never proceeded after unlock")
	}
}

func TestThreadLocks_IndependentThreads(t *testing.T) {
	locks := newThreadLocks()

	unlock := locks.acquire("thread-1")
	defer unlock()

	done := make(chan struct{})
	go func() {
		u := locks.acquire("thread-2")
		u()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("different thread should not block")
	}
}

func TestThreadLocks_Concurrent(t *testing.T) {
	locks := newThreadLocks()

	var mu sync.Mutex
	counts := map[string]int{}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		threadID := fmt.Sprintf("thread-%d", i%4)
		go func() {
			defer wg.Done()
			unlock := locks.acquire(threadID)
			defer unlock()
			mu.Lock()
			counts[threadID]++
			mu.Unlock()
		}()
	}
	wg.Wait()

	total := 0
	for _, n := range counts {
		total += n
	}
	assert.Equal(t, 20, total)
}

func TestFrameSink_NilDropsFrames(t *testing.T) {
	var sink *frameSink
	// Must not panic
	sink.emit(doneFrame())
}

func TestFrameSink_DropsAfterSendFailure(t *testing.T) {
	sent := 0
	sink := &frameSink{
		send: func(streamFrame) error {
			sent++
			return fmt.Errorf("broken pipe")
		},
		logger: slog.Default(),
	}

	sink.emit(thinkingFrame(thinkingMessage))
	sink.emit(contentFrame("hello", false))
	sink.emit(doneFrame())

	assert.Equal(t, 1, sent, "frames after the first failure are dropped")
	assert.True(t, sink.gone)
}

func TestStreamFrameEncoding(t *testing.T) {
	data, err := json.Marshal(contentFrame("The answer", true))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"content","content":"The answer","partial":true}`, string(data))

	data, err = json.Marshal(contentFrame("The answer is 42", false))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"content","content":"The answer is 42","partial":false}`, string(data))

	data, err = json.Marshal(doneFrame())
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"done"}`, string(data))

	data, err = json.Marshal(toolCallFrame("Calculator", json.RawMessage(`{"expression":"2+2"}`), json.RawMessage(`{"result":"4"}`)))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"tool_call","tool_name":"Calculator","tool_input":{"expression":"2+2"},"tool_output":{"result":"4"}}`, string(data))
}

func TestMarshalJSON(t *testing.T) {
	assert.Equal(t, json.RawMessage(`{}`), marshalJSON(nil))

	out := marshalJSON(map[string]any{"result": "346"})
	assert.JSONEq(t, `{"result":"346"}`, string(out))
}
