// ABOUTME: Tests for the SQLite store implementation
// ABOUTME: Runs the shared store contract suite against a temp database

package store

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "parlor.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStoreContract(t *testing.T) {
	runStoreContract(t, func(t *testing.T) Store { return newTestStore(t) })
}

func TestSQLiteStoreCreatesParentDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "parlor.db")
	s, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Ping(context.Background()))
}

func TestSQLiteStoreReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "parlor.db")
	ctx := context.Background()

	s, err := NewSQLiteStore(path)
	require.NoError(t, err)
	thread, err := s.CreateThread(ctx, "math-assistant", "Homework")
	require.NoError(t, err)
	_, err = s.AppendMessage(ctx, thread.ID, RoleUser, "hello")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	// Schema creation must be idempotent and data must survive reopen
	s2, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer s2.Close()

	got, err := s2.GetThread(ctx, thread.ID)
	require.NoError(t, err)
	assert.Equal(t, "Homework", got.Title)

	msgs, err := s2.ListMessages(ctx, thread.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "hello", msgs[0].Content)
}

// runStoreContract exercises the Store interface behaviors shared by all
// backends. Each subtest gets a fresh store.
func runStoreContract(t *testing.T, open func(t *testing.T) Store) {
	ctx := context.Background()

	t.Run("create thread defaults title", func(t *testing.T) {
		s := open(t)
		thread, err := s.CreateThread(ctx, "general-assistant", "")
		require.NoError(t, err)
		assert.Equal(t, DefaultThreadTitle, thread.Title)
		assert.Equal(t, "general-assistant", thread.AgentID)
		assert.NotEmpty(t, thread.ID)
		assert.False(t, thread.CreatedAt.IsZero())
	})

	t.Run("get thread not found", func(t *testing.T) {
		s := open(t)
		_, err := s.GetThread(ctx, "does-not-exist")
		assert.ErrorIs(t, err, ErrThreadNotFound)
	})

	t.Run("list threads hides empty and orders by activity", func(t *testing.T) {
		s := open(t)
		empty, err := s.CreateThread(ctx, "math-assistant", "Empty")
		require.NoError(t, err)

		first, err := s.CreateThread(ctx, "math-assistant", "First")
		require.NoError(t, err)
		second, err := s.CreateThread(ctx, "web-researcher", "Second")
		require.NoError(t, err)

		_, err = s.AppendMessage(ctx, first.ID, RoleUser, "one")
		require.NoError(t, err)
		time.Sleep(5 * time.Millisecond)
		_, err = s.AppendMessage(ctx, second.ID, RoleUser, "two")
		require.NoError(t, err)

		threads, err := s.ListThreads(ctx, "")
		require.NoError(t, err)
		require.Len(t, threads, 2)
		assert.Equal(t, second.ID, threads[0].ID)
		assert.Equal(t, first.ID, threads[1].ID)
		for _, th := range threads {
			assert.NotEqual(t, empty.ID, th.ID)
		}

		// Appending to the older thread moves it to the front
		time.Sleep(5 * time.Millisecond)
		_, err = s.AppendMessage(ctx, first.ID, RoleAssistant, "reply")
		require.NoError(t, err)
		threads, err = s.ListThreads(ctx, "")
		require.NoError(t, err)
		assert.Equal(t, first.ID, threads[0].ID)

		// Agent filter
		mathOnly, err := s.ListThreads(ctx, "math-assistant")
		require.NoError(t, err)
		require.Len(t, mathOnly, 1)
		assert.Equal(t, first.ID, mathOnly[0].ID)
	})

	t.Run("delete thread cascades", func(t *testing.T) {
		s := open(t)
		thread, err := s.CreateThread(ctx, "math-assistant", "")
		require.NoError(t, err)
		msg, err := s.AppendMessage(ctx, thread.ID, RoleAssistant, "346")
		require.NoError(t, err)
		tc, err := s.AddToolCall(ctx, msg.ID, "Calculator", json.RawMessage(`{"expression":"15*23+7"}`))
		require.NoError(t, err)

		require.NoError(t, s.DeleteThread(ctx, thread.ID))

		_, err = s.GetThread(ctx, thread.ID)
		assert.ErrorIs(t, err, ErrThreadNotFound)
		_, err = s.ListMessages(ctx, thread.ID)
		assert.ErrorIs(t, err, ErrThreadNotFound)
		err = s.CompleteToolCall(ctx, tc.ID, nil, ToolCallCompleted)
		assert.ErrorIs(t, err, ErrToolCallNotFound)

		assert.ErrorIs(t, s.DeleteThread(ctx, thread.ID), ErrThreadNotFound)
	})

	t.Run("append message bumps thread timestamp", func(t *testing.T) {
		s := open(t)
		thread, err := s.CreateThread(ctx, "general-assistant", "")
		require.NoError(t, err)

		time.Sleep(5 * time.Millisecond)
		msg, err := s.AppendMessage(ctx, thread.ID, RoleUser, "hello")
		require.NoError(t, err)
		assert.Equal(t, RoleUser, msg.Role)

		got, err := s.GetThread(ctx, thread.ID)
		require.NoError(t, err)
		assert.True(t, got.UpdatedAt.After(got.CreatedAt), "updated_at should advance past created_at")
	})

	t.Run("append message to missing thread", func(t *testing.T) {
		s := open(t)
		_, err := s.AppendMessage(ctx, "nope", RoleUser, "hello")
		assert.ErrorIs(t, err, ErrThreadNotFound)
	})

	t.Run("list messages preserves insertion order", func(t *testing.T) {
		s := open(t)
		thread, err := s.CreateThread(ctx, "general-assistant", "")
		require.NoError(t, err)

		contents := []string{"first", "second", "third", "fourth"}
		for _, c := range contents {
			_, err := s.AppendMessage(ctx, thread.ID, RoleUser, c)
			require.NoError(t, err)
		}

		msgs, err := s.ListMessages(ctx, thread.ID)
		require.NoError(t, err)
		require.Len(t, msgs, len(contents))
		for i, c := range contents {
			assert.Equal(t, c, msgs[i].Content)
		}
	})

	t.Run("tool call lifecycle", func(t *testing.T) {
		s := open(t)
		thread, err := s.CreateThread(ctx, "math-assistant", "")
		require.NoError(t, err)
		msg, err := s.AppendMessage(ctx, thread.ID, RoleAssistant, "The answer is 346.")
		require.NoError(t, err)

		input := json.RawMessage(`{"expression":"15 * 23 + 7"}`)
		tc, err := s.AddToolCall(ctx, msg.ID, "Calculator", input)
		require.NoError(t, err)
		assert.Equal(t, ToolCallPending, tc.Status)
		assert.Nil(t, tc.CompletedAt)

		output := json.RawMessage(`{"result":346}`)
		require.NoError(t, s.CompleteToolCall(ctx, tc.ID, output, ToolCallCompleted))

		msgs, err := s.ListMessages(ctx, thread.ID)
		require.NoError(t, err)
		require.Len(t, msgs, 1)
		require.Len(t, msgs[0].ToolCalls, 1)
		got := msgs[0].ToolCalls[0]
		assert.Equal(t, "Calculator", got.ToolName)
		assert.Equal(t, ToolCallCompleted, got.Status)
		assert.JSONEq(t, string(input), string(got.Input))
		assert.JSONEq(t, string(output), string(got.Output))
		require.NotNil(t, got.CompletedAt)

		// Terminal statuses never transition again
		err = s.CompleteToolCall(ctx, tc.ID, json.RawMessage(`{"result":0}`), ToolCallFailed)
		assert.ErrorIs(t, err, ErrToolCallFinal)
	})

	t.Run("tool call failed status", func(t *testing.T) {
		s := open(t)
		thread, err := s.CreateThread(ctx, "web-researcher", "")
		require.NoError(t, err)
		msg, err := s.AppendMessage(ctx, thread.ID, RoleAssistant, "results")
		require.NoError(t, err)

		tc, err := s.AddToolCall(ctx, msg.ID, "WebSearch", json.RawMessage(`{"query":"golang"}`))
		require.NoError(t, err)
		require.NoError(t, s.CompleteToolCall(ctx, tc.ID, json.RawMessage(`{"error":"timeout"}`), ToolCallFailed))

		msgs, err := s.ListMessages(ctx, thread.ID)
		require.NoError(t, err)
		assert.Equal(t, ToolCallFailed, msgs[0].ToolCalls[0].Status)
	})

	t.Run("add tool call to missing message", func(t *testing.T) {
		s := open(t)
		_, err := s.AddToolCall(ctx, "nope", "Calculator", nil)
		assert.ErrorIs(t, err, ErrMessageNotFound)
	})

	t.Run("complete missing tool call", func(t *testing.T) {
		s := open(t)
		err := s.CompleteToolCall(ctx, "nope", nil, ToolCallCompleted)
		assert.ErrorIs(t, err, ErrToolCallNotFound)
	})

	t.Run("complete rejects non-terminal status", func(t *testing.T) {
		s := open(t)
		thread, err := s.CreateThread(ctx, "math-assistant", "")
		require.NoError(t, err)
		msg, err := s.AppendMessage(ctx, thread.ID, RoleAssistant, "x")
		require.NoError(t, err)
		tc, err := s.AddToolCall(ctx, msg.ID, "Calculator", nil)
		require.NoError(t, err)

		err = s.CompleteToolCall(ctx, tc.ID, nil, ToolCallPending)
		assert.Error(t, err)
	})
}
