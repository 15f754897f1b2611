// ABOUTME: HTTP handlers and JSON response shapes for the gateway API
// ABOUTME: Thread CRUD, message history, and the sync/stream turn endpoints

package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/parlorlabs/parlor/internal/agent"
	"github.com/parlorlabs/parlor/internal/store"
)

type agentToolJSON struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type agentJSON struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Tools       []agentToolJSON `json:"tools"`
}

type threadJSON struct {
	ID        string `json:"id"`
	AgentID   string `json:"agent_id"`
	Title     string `json:"title"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type toolCallJSON struct {
	ID         string          `json:"id"`
	ToolName   string          `json:"tool_name"`
	ToolInput  json.RawMessage `json:"tool_input"`
	ToolOutput json.RawMessage `json:"tool_output,omitempty"`
	Status     string          `json:"status"`
}

type messageJSON struct {
	ID        string         `json:"id"`
	ThreadID  string         `json:"thread_id"`
	Role      string         `json:"role"`
	Content   string         `json:"content"`
	CreatedAt string         `json:"created_at"`
	ToolCalls []toolCallJSON `json:"tool_calls"`
}

type createThreadRequest struct {
	AgentID string `json:"agent_id"`
	Title   string `json:"title"`
}

type sendMessageRequest struct {
	// Message is a plain string or a multimodal part array
	Message json.RawMessage `json:"message"`
}

type sendMessageResponse struct {
	ID        string         `json:"id"`
	Role      string         `json:"role"`
	Content   string         `json:"content"`
	ToolCalls []toolCallJSON `json:"tool_calls"`
}

func threadToJSON(t *store.Thread) threadJSON {
	return threadJSON{
		ID:        t.ID,
		AgentID:   t.AgentID,
		Title:     t.Title,
		CreatedAt: t.CreatedAt.Format(time.RFC3339),
		UpdatedAt: t.UpdatedAt.Format(time.RFC3339),
	}
}

func toolCallToJSON(tc *store.ToolCall) toolCallJSON {
	return toolCallJSON{
		ID:         tc.ID,
		ToolName:   tc.ToolName,
		ToolInput:  tc.Input,
		ToolOutput: tc.Output,
		Status:     tc.Status,
	}
}

func messageToJSON(m *store.Message) messageJSON {
	out := messageJSON{
		ID:        m.ID,
		ThreadID:  m.ThreadID,
		Role:      m.Role,
		Content:   m.Content,
		CreatedAt: m.CreatedAt.Format(time.RFC3339),
		ToolCalls: []toolCallJSON{},
	}
	for _, tc := range m.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, toolCallToJSON(tc))
	}
	return out
}

// handleAgents serves GET /agents
func (g *Gateway) handleAgents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		g.sendJSONError(w, http.StatusNotFound, "Not found")
		return
	}

	agents := []agentJSON{}
	for _, a := range g.registry.List() {
		entry := agentJSON{
			ID:          a.ID(),
			Name:        a.Name(),
			Description: a.Description(),
			Tools:       []agentToolJSON{},
		}
		for _, t := range a.Tools() {
			entry.Tools = append(entry.Tools, agentToolJSON{Name: t.Name, Description: t.Description})
		}
		agents = append(agents, entry)
	}

	g.sendJSON(w, http.StatusOK, map[string]any{"agents": agents})
}

// handleThreads serves GET and POST /threads
func (g *Gateway) handleThreads(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		g.handleListThreads(w, r)
	case http.MethodPost:
		g.handleCreateThread(w, r)
	default:
		g.sendJSONError(w, http.StatusNotFound, "Not found")
	}
}

func (g *Gateway) handleListThreads(w http.ResponseWriter, r *http.Request) {
	agentID := r.URL.Query().Get("agent_id")

	threads, err := g.store.ListThreads(r.Context(), agentID)
	if err != nil {
		g.logger.Error("listing threads", "error", err)
		g.sendJSONError(w, http.StatusInternalServerError, "Failed to get threads")
		return
	}

	out := []threadJSON{}
	for _, t := range threads {
		out = append(out, threadToJSON(t))
	}
	g.sendJSON(w, http.StatusOK, map[string]any{"threads": out})
}

func (g *Gateway) handleCreateThread(w http.ResponseWriter, r *http.Request) {
	var req createThreadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		g.sendJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if _, ok := g.registry.Get(req.AgentID); req.AgentID == "" || !ok {
		g.sendJSONError(w, http.StatusBadRequest, "Invalid agent_id")
		return
	}

	thread, err := g.store.CreateThread(r.Context(), req.AgentID, req.Title)
	if err != nil {
		g.logger.Error("creating thread", "error", err)
		g.sendJSONError(w, http.StatusInternalServerError, "Failed to create thread")
		return
	}

	g.sendJSON(w, http.StatusCreated, threadToJSON(thread))
}

// handleThreadSubroutes dispatches /threads/{id}... paths
func (g *Gateway) handleThreadSubroutes(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/threads/")
	parts := strings.Split(strings.TrimSuffix(rest, "/"), "/")

	switch {
	case len(parts) == 1 && parts[0] != "" && r.Method == http.MethodDelete:
		g.handleDeleteThread(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "messages" && r.Method == http.MethodGet:
		g.handleListMessages(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "messages" && r.Method == http.MethodPost:
		g.handleSendMessage(w, r, parts[0])
	case len(parts) == 3 && parts[1] == "messages" && parts[2] == "stream" && r.Method == http.MethodPost:
		g.handleStreamMessage(w, r, parts[0])
	default:
		g.sendJSONError(w, http.StatusNotFound, "Not found")
	}
}

func (g *Gateway) handleDeleteThread(w http.ResponseWriter, r *http.Request, threadID string) {
	err := g.store.DeleteThread(r.Context(), threadID)
	if errors.Is(err, store.ErrThreadNotFound) {
		g.sendJSONError(w, http.StatusNotFound, "Thread not found")
		return
	}
	if err != nil {
		g.logger.Error("deleting thread", "thread_id", threadID, "error", err)
		g.sendJSONError(w, http.StatusInternalServerError, "Failed to delete thread")
		return
	}
	g.sendJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (g *Gateway) handleListMessages(w http.ResponseWriter, r *http.Request, threadID string) {
	messages, err := g.store.ListMessages(r.Context(), threadID)
	if errors.Is(err, store.ErrThreadNotFound) {
		g.sendJSONError(w, http.StatusNotFound, "Thread not found")
		return
	}
	if err != nil {
		g.logger.Error("listing messages", "thread_id", threadID, "error", err)
		g.sendJSONError(w, http.StatusInternalServerError, "Failed to get messages")
		return
	}

	out := []messageJSON{}
	for _, m := range messages {
		out = append(out, messageToJSON(m))
	}
	g.sendJSON(w, http.StatusOK, map[string]any{"messages": out})
}

// resolveTurnTarget validates the thread and its agent for a turn request
func (g *Gateway) resolveTurnTarget(ctx context.Context, w http.ResponseWriter, threadID string) (*store.Thread, agent.Agent, bool) {
	thread, err := g.store.GetThread(ctx, threadID)
	if errors.Is(err, store.ErrThreadNotFound) {
		g.sendJSONError(w, http.StatusNotFound, "Thread not found")
		return nil, nil, false
	}
	if err != nil {
		g.logger.Error("getting thread", "thread_id", threadID, "error", err)
		g.sendJSONError(w, http.StatusInternalServerError, "Internal server error")
		return nil, nil, false
	}

	ag, ok := g.registry.Get(thread.AgentID)
	if !ok {
		g.sendJSONError(w, http.StatusBadRequest, "Agent not found")
		return nil, nil, false
	}
	return thread, ag, true
}

// handleSendMessage serves POST /threads/{id}/messages: a full turn with
// the assistant response returned synchronously.
func (g *Gateway) handleSendMessage(w http.ResponseWriter, r *http.Request, threadID string) {
	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Message) == 0 {
		g.sendJSONError(w, http.StatusBadRequest, "Thread ID and message required")
		return
	}

	thread, ag, ok := g.resolveTurnTarget(r.Context(), w, threadID)
	if !ok {
		return
	}

	// The turn finishes even if the client goes away
	ctx := context.WithoutCancel(r.Context())
	outcome, err := g.runTurn(ctx, thread, ag, flattenMessage(req.Message), nil)
	if err != nil {
		g.logger.Error("turn failed", "thread_id", threadID, "error", err)
		g.sendJSONError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	resp := sendMessageResponse{
		ID:        outcome.assistant.ID,
		Role:      store.RoleAssistant,
		Content:   outcome.assistant.Content,
		ToolCalls: []toolCallJSON{},
	}
	for _, tc := range outcome.toolCalls {
		resp.ToolCalls = append(resp.ToolCalls, toolCallToJSON(tc))
	}
	g.sendJSON(w, http.StatusOK, resp)
}

// handleStreamMessage serves POST /threads/{id}/messages/stream: a full
// turn delivered as SSE frames. Validation failures are plain JSON errors;
// anything after the stream starts is reported as an error frame.
func (g *Gateway) handleStreamMessage(w http.ResponseWriter, r *http.Request, threadID string) {
	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Message) == 0 {
		g.sendJSONError(w, http.StatusBadRequest, "Thread ID and message required")
		return
	}

	thread, ag, ok := g.resolveTurnTarget(r.Context(), w, threadID)
	if !ok {
		return
	}

	sse, err := newSSEWriter(w)
	if err != nil {
		g.sendJSONError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	sink := &frameSink{send: sse.send, logger: g.logger}

	// The turn finishes and persists even if the client goes away
	ctx := context.WithoutCancel(r.Context())
	if _, err := g.runTurn(ctx, thread, ag, flattenMessage(req.Message), sink); err != nil {
		g.logger.Error("turn failed", "thread_id", threadID, "error", err)
		sink.emit(errorFrame("Something went wrong"))
	}
}

// handleHealth serves GET /health
func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		g.sendJSONError(w, http.StatusNotFound, "Not found")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	if err := g.store.Ping(ctx); err != nil {
		g.logger.Error("health check failed", "error", err)
		g.sendJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "unhealthy", "database": "unreachable"})
		return
	}
	g.sendJSON(w, http.StatusOK, map[string]any{"status": "ok", "database": "ok"})
}

func (g *Gateway) sendJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		g.logger.Error("encoding response", "error", err)
	}
}

func (g *Gateway) sendJSONError(w http.ResponseWriter, status int, message string) {
	g.sendJSON(w, status, map[string]string{"error": message})
}
