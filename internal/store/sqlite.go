// ABOUTME: SQLite implementation of the Store interface using modernc.org/sqlite
// ABOUTME: Provides thread/message/tool-call persistence with automatic schema creation

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new SQLite store at the given path.
// The schema is automatically created if it doesn't exist.
// Parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Cascading deletes depend on foreign key enforcement
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{db: db, logger: logger}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("sqlite store opened", "path", path)
	return s, nil
}

func (s *SQLiteStore) createSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS threads (
		id TEXT PRIMARY KEY,
		agent_id TEXT NOT NULL,
		title TEXT NOT NULL DEFAULT 'New Chat',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_threads_agent ON threads(agent_id);
	CREATE INDEX IF NOT EXISTS idx_threads_updated ON threads(updated_at DESC);

	CREATE TABLE IF NOT EXISTS messages (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		thread_id TEXT NOT NULL REFERENCES threads(id) ON DELETE CASCADE,
		role TEXT NOT NULL CHECK (role IN ('user', 'assistant')),
		content TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_messages_thread ON messages(thread_id, seq);

	CREATE TABLE IF NOT EXISTS tool_calls (
		id TEXT PRIMARY KEY,
		message_id TEXT NOT NULL REFERENCES messages(id) ON DELETE CASCADE,
		tool_name TEXT NOT NULL,
		tool_input TEXT NOT NULL,
		tool_output TEXT,
		status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'completed', 'failed')),
		created_at TEXT NOT NULL,
		completed_at TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_tool_calls_message ON tool_calls(message_id);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return err
	}
	return nil
}

// CreateThread creates a new thread bound to an agent
func (s *SQLiteStore) CreateThread(ctx context.Context, agentID, title string) (*Thread, error) {
	if title == "" {
		title = DefaultThreadTitle
	}
	now := time.Now().UTC()
	thread := &Thread{
		ID:        uuid.New().String(),
		AgentID:   agentID,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO threads (id, agent_id, title, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		thread.ID, thread.AgentID, thread.Title,
		now.Format(time.RFC3339Nano), now.Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("inserting thread: %w", err)
	}

	s.logger.Debug("thread created", "thread_id", thread.ID, "agent_id", agentID)
	return thread, nil
}

// GetThread returns a thread by ID
func (s *SQLiteStore) GetThread(ctx context.Context, id string) (*Thread, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, agent_id, title, created_at, updated_at FROM threads WHERE id = ?`, id)
	return scanThread(row)
}

// ListThreads returns threads with at least one message, newest activity first
func (s *SQLiteStore) ListThreads(ctx context.Context, agentID string) ([]*Thread, error) {
	query := `
		SELECT t.id, t.agent_id, t.title, t.created_at, t.updated_at
		FROM threads t
		WHERE EXISTS (SELECT 1 FROM messages m WHERE m.thread_id = t.id)`
	args := []any{}
	if agentID != "" {
		query += ` AND t.agent_id = ?`
		args = append(args, agentID)
	}
	query += ` ORDER BY t.updated_at DESC, t.id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying threads: %w", err)
	}
	defer rows.Close()

	var threads []*Thread
	for rows.Next() {
		t, err := scanThread(rows)
		if err != nil {
			return nil, err
		}
		threads = append(threads, t)
	}
	return threads, rows.Err()
}

// DeleteThread removes a thread; messages and tool calls cascade
func (s *SQLiteStore) DeleteThread(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM threads WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting thread: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete result: %w", err)
	}
	if n == 0 {
		return ErrThreadNotFound
	}
	s.logger.Debug("thread deleted", "thread_id", id)
	return nil
}

// AppendMessage inserts a message and bumps the thread timestamp atomically
func (s *SQLiteStore) AppendMessage(ctx context.Context, threadID, role, content string) (*Message, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM threads WHERE id = ?`, threadID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrThreadNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("checking thread: %w", err)
	}

	now := time.Now().UTC()
	msg := &Message{
		ID:        uuid.New().String(),
		ThreadID:  threadID,
		Role:      role,
		Content:   content,
		CreatedAt: now,
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO messages (id, thread_id, role, content, created_at) VALUES (?, ?, ?, ?, ?)`,
		msg.ID, msg.ThreadID, msg.Role, msg.Content, now.Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("inserting message: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE threads SET updated_at = ? WHERE id = ?`,
		now.Format(time.RFC3339Nano), threadID)
	if err != nil {
		return nil, fmt.Errorf("updating thread timestamp: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing message: %w", err)
	}
	return msg, nil
}

// ListMessages returns a thread's messages in insertion order with tool calls attached
func (s *SQLiteStore) ListMessages(ctx context.Context, threadID string) ([]*Message, error) {
	if _, err := s.GetThread(ctx, threadID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, thread_id, role, content, created_at FROM messages
		 WHERE thread_id = ? ORDER BY seq`, threadID)
	if err != nil {
		return nil, fmt.Errorf("querying messages: %w", err)
	}
	defer rows.Close()

	var messages []*Message
	byID := make(map[string]*Message)
	for rows.Next() {
		var m Message
		var createdAt string
		if err := rows.Scan(&m.ID, &m.ThreadID, &m.Role, &m.Content, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		m.CreatedAt, err = parseTime(createdAt)
		if err != nil {
			return nil, err
		}
		messages = append(messages, &m)
		byID[m.ID] = &m
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	tcRows, err := s.db.QueryContext(ctx,
		`SELECT tc.id, tc.message_id, tc.tool_name, tc.tool_input, tc.tool_output,
		        tc.status, tc.created_at, tc.completed_at
		 FROM tool_calls tc
		 JOIN messages m ON m.id = tc.message_id
		 WHERE m.thread_id = ?
		 ORDER BY tc.created_at, tc.id`, threadID)
	if err != nil {
		return nil, fmt.Errorf("querying tool calls: %w", err)
	}
	defer tcRows.Close()

	for tcRows.Next() {
		tc, err := scanToolCall(tcRows)
		if err != nil {
			return nil, err
		}
		if m, ok := byID[tc.MessageID]; ok {
			m.ToolCalls = append(m.ToolCalls, tc)
		}
	}
	return messages, tcRows.Err()
}

// AddToolCall records a pending tool call against a message
func (s *SQLiteStore) AddToolCall(ctx context.Context, messageID, toolName string, input json.RawMessage) (*ToolCall, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM messages WHERE id = ?`, messageID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMessageNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("checking message: %w", err)
	}

	if len(input) == 0 {
		input = json.RawMessage(`{}`)
	}
	now := time.Now().UTC()
	tc := &ToolCall{
		ID:        uuid.New().String(),
		MessageID: messageID,
		ToolName:  toolName,
		Input:     input,
		Status:    ToolCallPending,
		CreatedAt: now,
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO tool_calls (id, message_id, tool_name, tool_input, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		tc.ID, tc.MessageID, tc.ToolName, string(input), tc.Status, now.Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("inserting tool call: %w", err)
	}
	return tc, nil
}

// CompleteToolCall moves a pending tool call to a terminal status
func (s *SQLiteStore) CompleteToolCall(ctx context.Context, id string, output json.RawMessage, status string) error {
	if status != ToolCallCompleted && status != ToolCallFailed {
		return fmt.Errorf("invalid terminal status %q", status)
	}
	if len(output) == 0 {
		output = json.RawMessage(`{}`)
	}

	now := time.Now().UTC()
	result, err := s.db.ExecContext(ctx,
		`UPDATE tool_calls SET tool_output = ?, status = ?, completed_at = ?
		 WHERE id = ? AND status = 'pending'`,
		string(output), status, now.Format(time.RFC3339Nano), id)
	if err != nil {
		return fmt.Errorf("updating tool call: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update result: %w", err)
	}
	if n == 0 {
		// Distinguish missing from already-finalized
		var existing int
		err := s.db.QueryRowContext(ctx, `SELECT 1 FROM tool_calls WHERE id = ?`, id).Scan(&existing)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrToolCallNotFound
		}
		if err != nil {
			return fmt.Errorf("checking tool call: %w", err)
		}
		return ErrToolCallFinal
	}
	return nil
}

// Ping verifies the database is reachable
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// scanner abstracts sql.Row and sql.Rows for the shared scan helpers
type scanner interface {
	Scan(dest ...any) error
}

func scanThread(row scanner) (*Thread, error) {
	var t Thread
	var createdAt, updatedAt string
	err := row.Scan(&t.ID, &t.AgentID, &t.Title, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrThreadNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning thread: %w", err)
	}
	if t.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if t.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

func scanToolCall(row scanner) (*ToolCall, error) {
	var tc ToolCall
	var input string
	var output, completedAt sql.NullString
	var createdAt string
	err := row.Scan(&tc.ID, &tc.MessageID, &tc.ToolName, &input, &output,
		&tc.Status, &createdAt, &completedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrToolCallNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning tool call: %w", err)
	}
	tc.Input = json.RawMessage(input)
	if output.Valid {
		tc.Output = json.RawMessage(output.String)
	}
	if tc.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if completedAt.Valid {
		t, err := parseTime(completedAt.String)
		if err != nil {
			return nil, err
		}
		tc.CompletedAt = &t
	}
	return &tc, nil
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing timestamp %q: %w", s, err)
	}
	return t, nil
}
