// Package client is the Go SDK for the parlor gateway HTTP API.
//
// # Overview
//
// This package wraps the gateway's REST endpoints and its SSE streaming
// turn protocol behind a typed client. It is used by the parlord CLI
// subcommands and is suitable for any Go program that talks to a gateway.
//
// # Operations
//
//   - ListAgents: Returns the registered agents and their tools
//   - CreateThread: Starts a new conversation thread with an agent
//   - ListThreads: Lists threads that have at least one message
//   - DeleteThread: Removes a thread and its history
//   - ListMessages: Retrieves a thread's full message history
//   - SendMessage: Runs a turn and returns the assistant message
//   - StreamMessage: Runs a turn, delivering SSE frames via callback
//   - Health: Checks gateway and database health
//
// # Streaming
//
// StreamMessage parses the gateway's data-only SSE frames and invokes the
// callback once per frame, in order:
//
//   - thinking: Turn accepted, agent is working
//   - content: Cumulative response text (partial until the last chunk)
//   - tool_call: A tool the agent used, with input and output
//   - done: Turn complete
//   - error: Turn failed after the stream started
//
// # Usage
//
//	c := client.New("http://localhost:8080")
//	thread, err := c.CreateThread(ctx, "math-assistant", "")
//	if err != nil { ... }
//	err = c.StreamMessage(ctx, thread.ID, "What is 2+2?", func(ev client.StreamEvent) error {
//		if ev.Type == client.EventContent {
//			fmt.Print("\r" + ev.Content)
//		}
//		return nil
//	})
package client
