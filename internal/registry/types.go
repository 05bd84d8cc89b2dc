// Package registry implements the tool registry (C3): it holds tool
// descriptors, validates invocation arguments against a JSON-Schema
// subset, and dispatches tools/call with a per-invocation deadline.
package registry

import "context"

// Handler is the function a tool descriptor dispatches to. args has
// already been validated and defaulted against the descriptor's Schema.
type Handler func(ctx context.Context, args map[string]any) (any, error)

// Descriptor is a single registered tool: its wire identity, its
// argument contract, and the handler that implements it.
type Descriptor struct {
	Name        string
	Description string
	Schema      Schema
	Handler     Handler
}

// ToolSpec is the exact payload shape returned by List, matching MCP's
// tools/list entries.
type ToolSpec struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Schema      Schema `json:"inputSchema"`
}

// ToolError is the {code, message} shape carried on a failed ToolResult.
type ToolError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ToolResult is the outcome of a single tools/call invocation.
type ToolResult struct {
	Success    bool       `json:"success"`
	Data       any        `json:"data,omitempty"`
	Error      *ToolError `json:"error,omitempty"`
	DurationMs int64      `json:"duration_ms"`
}
