// ABOUTME: Store interface and data types for parlor persistence
// ABOUTME: Defines Thread, Message, ToolCall structs and the Store interface

package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrThreadNotFound is returned when a requested thread does not exist
var ErrThreadNotFound = errors.New("thread not found")

// ErrMessageNotFound is returned when a requested message does not exist
var ErrMessageNotFound = errors.New("message not found")

// ErrToolCallNotFound is returned when a requested tool call does not exist
var ErrToolCallNotFound = errors.New("tool call not found")

// ErrToolCallFinal is returned when completing a tool call that already
// reached a terminal status
var ErrToolCallFinal = errors.New("tool call already finalized")

// Message roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Tool call statuses. Pending is the only non-terminal status.
const (
	ToolCallPending   = "pending"
	ToolCallCompleted = "completed"
	ToolCallFailed    = "failed"
)

// DefaultThreadTitle is used when a thread is created without a title
const DefaultThreadTitle = "New Chat"

// Thread represents a conversation between a user and a single agent
type Thread struct {
	ID        string
	AgentID   string
	Title     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Message is a single user or assistant message within a thread
type Message struct {
	ID        string
	ThreadID  string
	Role      string
	Content   string
	CreatedAt time.Time

	// ToolCalls holds the tool invocations attached to this message.
	// Populated by ListMessages; nil for user messages.
	ToolCalls []*ToolCall
}

// ToolCall records one tool invocation made while producing an assistant message
type ToolCall struct {
	ID          string
	MessageID   string
	ToolName    string
	Input       json.RawMessage
	Output      json.RawMessage
	Status      string
	CreatedAt   time.Time
	CompletedAt *time.Time
}

// Store is the persistence interface for threads, messages, and tool calls
type Store interface {
	// CreateThread creates a new thread bound to an agent. An empty title
	// falls back to DefaultThreadTitle.
	CreateThread(ctx context.Context, agentID, title string) (*Thread, error)

	// GetThread returns a thread by ID, or ErrThreadNotFound
	GetThread(ctx context.Context, id string) (*Thread, error)

	// ListThreads returns threads ordered by most recently updated first.
	// Threads with no messages are excluded. A non-empty agentID limits
	// results to that agent.
	ListThreads(ctx context.Context, agentID string) ([]*Thread, error)

	// DeleteThread removes a thread and all of its messages and tool calls.
	// Returns ErrThreadNotFound if the thread does not exist.
	DeleteThread(ctx context.Context, id string) error

	// AppendMessage appends a message to a thread and bumps the thread's
	// updated_at in the same transaction. Returns ErrThreadNotFound if the
	// thread does not exist.
	AppendMessage(ctx context.Context, threadID, role, content string) (*Message, error)

	// ListMessages returns a thread's messages in insertion order with
	// tool calls attached. Returns ErrThreadNotFound if the thread does
	// not exist.
	ListMessages(ctx context.Context, threadID string) ([]*Message, error)

	// AddToolCall records a pending tool call against a message. Returns
	// ErrMessageNotFound if the message does not exist.
	AddToolCall(ctx context.Context, messageID, toolName string, input json.RawMessage) (*ToolCall, error)

	// CompleteToolCall moves a pending tool call to a terminal status with
	// its output. Returns ErrToolCallNotFound if the tool call does not
	// exist and ErrToolCallFinal if it already reached a terminal status.
	CompleteToolCall(ctx context.Context, id string, output json.RawMessage, status string) error

	// Ping verifies the backing database is reachable
	Ping(ctx context.Context) error

	// Close releases the underlying database resources
	Close() error
}
