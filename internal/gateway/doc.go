// Package gateway implements the HTTP surface of parlord: the agent
// catalog, thread and message CRUD, and turn processing with SSE delivery.
//
// # Endpoints
//
//	GET    /agents                        agent catalog
//	GET    /threads?agent_id=...          threads with at least one message
//	POST   /threads                       create a thread
//	DELETE /threads/{id}                  delete a thread and its history
//	GET    /threads/{id}/messages         full message history
//	POST   /threads/{id}/messages         synchronous turn
//	POST   /threads/{id}/messages/stream  streaming turn (SSE)
//	GET    /health                        liveness and store reachability
//
// # Streaming protocol
//
// The streaming endpoint emits data-only SSE frames, each a JSON object
// with a "type" field: thinking, content, tool_call, done, or error.
// Content frames carry the cumulative text so far with a partial flag;
// each frame's text extends the previous one, and the final frame
// (partial=false) is exactly the persisted assistant message.
//
// Turns for the same thread are serialized; turns for different threads
// run in parallel. A client disconnect does not abort a turn in flight:
// the response and tool calls are still persisted.
package gateway
