// Package logging provides structured, stdout-safe logging for mydocs-mcp.
//
// The protocol engine (internal/protocol) uses stdout exclusively for
// JSON-RPC frames; this package ensures every other code path — the
// store, the watcher, the CLI — logs to stderr and/or a rotating file
// instead, never to stdout.
package logging
