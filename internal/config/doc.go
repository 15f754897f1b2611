// Package config handles configuration loading for parlord.
//
// # Overview
//
// Configuration is loaded from YAML files with environment variable expansion.
// The package provides validation and sensible defaults.
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	provider:
//	  api_key: "${OPENAI_API_KEY}"
//
// Syntax: ${VAR_NAME}
//
// # Configuration Sections
//
// Server settings:
//
//	server:
//	  http_addr: "0.0.0.0:8080"
//
// Database (sqlite or postgres):
//
//	database:
//	  driver: sqlite
//	  path: "/var/lib/parlor/parlor.db"
//
//	database:
//	  driver: postgres
//	  dsn: "postgres://parlor@localhost:5432/parlor"
//
// Completion provider (optional; agents fall back to built-in responses
// when kind is "none"):
//
//	provider:
//	  kind: openai        # none, openai, anthropic
//	  api_key: "${OPENAI_API_KEY}"
//	  model: "gpt-4o-mini"
//
// Streaming:
//
//	streaming:
//	  chunk_delay: "100ms"
//
// Logging:
//
//	logging:
//	  level: "info"    # debug, info, warn, error
//	  format: "color"  # color, text, json
//
// # Usage
//
//	cfg, err := config.Load("/etc/parlor/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
