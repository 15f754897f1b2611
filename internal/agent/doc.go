// Package agent defines the Agent interface, the in-process agent registry,
// and the three built-in agents: a math assistant, a web researcher, and a
// general assistant. The first two are rule-based and fully deterministic;
// the general assistant consults a completion provider when one is
// configured and falls back to built-in responses otherwise.
package agent
