// Package api provides the HTTP surface over the scribe orchestrator.
package api

import (
	"time"

	"github.com/papercomputeco/scribe/api/mcp"
)

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8081")
	ListenAddr string

	// RequestTimeout bounds one orchestration call, repair round-trip
	// included. Zero means no limit beyond the client's.
	RequestTimeout time.Duration

	// BodyLimit is the maximum request body size in bytes. Images arrive
	// base64-encoded, so this is larger than fiber's default.
	BodyLimit int

	// MCP, when set, is served at /mcp next to the REST routes.
	MCP *mcp.Server
}

// DefaultBodyLimit allows roughly 15 MiB images after base64 expansion.
const DefaultBodyLimit = 20 * 1024 * 1024
