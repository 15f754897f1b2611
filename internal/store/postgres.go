// ABOUTME: PostgreSQL implementation of the Store interface using pgx
// ABOUTME: Runs embedded schema migrations on startup via golang-migrate

package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-migrate/migrate/v4"
	pgxmigrate "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// PostgresStore implements the Store interface using PostgreSQL
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore connects to PostgreSQL and applies pending migrations
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	logger := slog.Default().With("component", "store")

	if err := migratePostgres(dsn); err != nil {
		return nil, fmt.Errorf("migrating database: %w", err)
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	logger.Info("postgres store opened")
	return &PostgresStore{pool: pool, logger: logger}, nil
}

// migratePostgres applies the embedded migrations over a short-lived
// database/sql connection; the pgx pool is opened afterwards.
func migratePostgres(dsn string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("opening migration connection: %w", err)
	}
	defer db.Close()

	driver, err := pgxmigrate.WithInstance(db, &pgxmigrate.Config{})
	if err != nil {
		return fmt.Errorf("creating migrate driver: %w", err)
	}
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("creating migration source: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "pgx", driver)
	if err != nil {
		return fmt.Errorf("creating migrate instance: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("applying migrations: %w", err)
	}
	return nil
}

// CreateThread creates a new thread bound to an agent
func (s *PostgresStore) CreateThread(ctx context.Context, agentID, title string) (*Thread, error) {
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

	_, err := s.pool.Exec(ctx,
		`INSERT INTO threads (id, agent_id, title, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		thread.ID, thread.AgentID, thread.Title, now, now)
	if err != nil {
		return nil, fmt.Errorf("inserting thread: %w", err)
	}

	s.logger.Debug("thread created", "thread_id", thread.ID, "agent_id", agentID)
	return thread, nil
}

// GetThread returns a thread by ID
func (s *PostgresStore) GetThread(ctx context.Context, id string) (*Thread, error) {
	var t Thread
	err := s.pool.QueryRow(ctx,
		`SELECT id, agent_id, title, created_at, updated_at FROM threads WHERE id = $1`, id).
		Scan(&t.ID, &t.AgentID, &t.Title, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrThreadNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying thread: %w", err)
	}
	return &t, nil
}

// ListThreads returns threads with at least one message, newest activity first
func (s *PostgresStore) ListThreads(ctx context.Context, agentID string) ([]*Thread, error) {
	query := `
		SELECT t.id, t.agent_id, t.title, t.created_at, t.updated_at
		FROM threads t
		WHERE EXISTS (SELECT 1 FROM messages m WHERE m.thread_id = t.id)`
	args := []any{}
	if agentID != "" {
		query += ` AND t.agent_id = $1`
		args = append(args, agentID)
	}
	query += ` ORDER BY t.updated_at DESC, t.id`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying threads: %w", err)
	}
	defer rows.Close()

	var threads []*Thread
	for rows.Next() {
		var t Thread
		if err := rows.Scan(&t.ID, &t.AgentID, &t.Title, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning thread: %w", err)
		}
		threads = append(threads, &t)
	}
	return threads, rows.Err()
}

// DeleteThread removes a thread; messages and tool calls cascade
func (s *PostgresStore) DeleteThread(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM threads WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting thread: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrThreadNotFound
	}
	s.logger.Debug("thread deleted", "thread_id", id)
	return nil
}

// AppendMessage inserts a message and bumps the thread timestamp atomically
func (s *PostgresStore) AppendMessage(ctx context.Context, threadID, role, content string) (*Message, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var exists int
	err = tx.QueryRow(ctx, `SELECT 1 FROM threads WHERE id = $1`, threadID).Scan(&exists)
	if errors.Is(err, pgx.ErrNoRows) {
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

	_, err = tx.Exec(ctx,
		`INSERT INTO messages (id, thread_id, role, content, created_at) VALUES ($1, $2, $3, $4, $5)`,
		msg.ID, msg.ThreadID, msg.Role, msg.Content, now)
	if err != nil {
		return nil, fmt.Errorf("inserting message: %w", err)
	}

	_, err = tx.Exec(ctx, `UPDATE threads SET updated_at = $1 WHERE id = $2`, now, threadID)
	if err != nil {
		return nil, fmt.Errorf("updating thread timestamp: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing message: %w", err)
	}
	return msg, nil
}

// ListMessages returns a thread's messages in insertion order with tool calls attached
func (s *PostgresStore) ListMessages(ctx context.Context, threadID string) ([]*Message, error) {
	if _, err := s.GetThread(ctx, threadID); err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, thread_id, role, content, created_at FROM messages
		 WHERE thread_id = $1 ORDER BY seq`, threadID)
	if err != nil {
		return nil, fmt.Errorf("querying messages: %w", err)
	}
	defer rows.Close()

	var messages []*Message
	byID := make(map[string]*Message)
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.ThreadID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		messages = append(messages, &m)
		byID[m.ID] = &m
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	tcRows, err := s.pool.Query(ctx,
		`SELECT tc.id, tc.message_id, tc.tool_name, tc.tool_input, tc.tool_output,
		        tc.status, tc.created_at, tc.completed_at
		 FROM tool_calls tc
		 JOIN messages m ON m.id = tc.message_id
		 WHERE m.thread_id = $1
		 ORDER BY tc.created_at, tc.id`, threadID)
	if err != nil {
		return nil, fmt.Errorf("querying tool calls: %w", err)
	}
	defer tcRows.Close()

	for tcRows.Next() {
		var tc ToolCall
		var output []byte
		if err := tcRows.Scan(&tc.ID, &tc.MessageID, &tc.ToolName, &tc.Input, &output,
			&tc.Status, &tc.CreatedAt, &tc.CompletedAt); err != nil {
			return nil, fmt.Errorf("scanning tool call: %w", err)
		}
		if output != nil {
			tc.Output = json.RawMessage(output)
		}
		if m, ok := byID[tc.MessageID]; ok {
			m.ToolCalls = append(m.ToolCalls, &tc)
		}
	}
	return messages, tcRows.Err()
}

// AddToolCall records a pending tool call against a message
func (s *PostgresStore) AddToolCall(ctx context.Context, messageID, toolName string, input json.RawMessage) (*ToolCall, error) {
	var exists int
	err := s.pool.QueryRow(ctx, `SELECT 1 FROM messages WHERE id = $1`, messageID).Scan(&exists)
	if errors.Is(err, pgx.ErrNoRows) {
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

	_, err = s.pool.Exec(ctx,
		`INSERT INTO tool_calls (id, message_id, tool_name, tool_input, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		tc.ID, tc.MessageID, tc.ToolName, []byte(input), tc.Status, now)
	if err != nil {
		return nil, fmt.Errorf("inserting tool call: %w", err)
	}
	return tc, nil
}

// CompleteToolCall moves a pending tool call to a terminal status
func (s *PostgresStore) CompleteToolCall(ctx context.Context, id string, output json.RawMessage, status string) error {
	if status != ToolCallCompleted && status != ToolCallFailed {
		return fmt.Errorf("invalid terminal status %q", status)
	}
	if len(output) == 0 {
		output = json.RawMessage(`{}`)
	}

	now := time.Now().UTC()
	tag, err := s.pool.Exec(ctx,
		`UPDATE tool_calls SET tool_output = $1, status = $2, completed_at = $3
		 WHERE id = $4 AND status = 'pending'`,
		[]byte(output), status, now, id)
	if err != nil {
		return fmt.Errorf("updating tool call: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var existing int
		err := s.pool.QueryRow(ctx, `SELECT 1 FROM tool_calls WHERE id = $1`, id).Scan(&existing)
		if errors.Is(err, pgx.ErrNoRows) {
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
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close closes the connection pool
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
