// Package store provides persistence for conversation threads, messages,
// and tool call records. Two backends implement the Store interface: a
// SQLite store for single-node deployments and a PostgreSQL store for
// shared deployments. Both enforce the same contract: cascading deletes,
// atomic thread-timestamp bumps on message append, and terminal tool call
// statuses that never transition again once set.
package store
