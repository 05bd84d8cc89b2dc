package registry

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	coreerrors "github.com/mydocs-mcp/mydocs-mcp/internal/errors"
)

// DefaultInvocationTimeout bounds a single tools/call when the caller
// does not already carry a deadline.
const DefaultInvocationTimeout = 30 * time.Second

// Registry holds tool descriptors and dispatches invocations. Registration
// order is preserved for List so tools/list output is stable across calls.
type Registry struct {
	mu      sync.RWMutex
	order   []string
	tools   map[string]Descriptor
	logger  *slog.Logger
	timeout time.Duration
	nextInv uint64
}

// Option configures a Registry at construction time.
type Option func(*Registry)

// WithLogger attaches a structured logger for invocation-level logging.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) { r.logger = logger }
}

// WithTimeout overrides the default per-invocation deadline.
func WithTimeout(d time.Duration) Option {
	return func(r *Registry) { r.timeout = d }
}

// New creates an empty Registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		tools:   make(map[string]Descriptor),
		logger:  slog.Default(),
		timeout: DefaultInvocationTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a tool descriptor. It rejects duplicate names.
func (r *Registry) Register(d Descriptor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if d.Name == "" {
		return coreerrors.New(coreerrors.CodeInvalidParams, "tool name must not be empty", nil)
	}
	if _, exists := r.tools[d.Name]; exists {
		return coreerrors.New(coreerrors.CodeInvalidParams,
			fmt.Sprintf("tool %q is already registered", d.Name), nil)
	}
	if d.Handler == nil {
		return coreerrors.New(coreerrors.CodeInvalidParams,
			fmt.Sprintf("tool %q has no handler", d.Name), nil)
	}

	r.tools[d.Name] = d
	r.order = append(r.order, d.Name)
	return nil
}

// List returns the registered tools in registration order, the exact
// payload shape for MCP's tools/list.
func (r *Registry) List() []ToolSpec {
	r.mu.RLock()
	defer r.mu.RUnlock()

	specs := make([]ToolSpec, 0, len(r.order))
	for _, name := range r.order {
		d := r.tools[name]
		specs = append(specs, ToolSpec{
			Name:        d.Name,
			Description: d.Description,
			Schema:      d.Schema,
		})
	}
	return specs
}

// Invoke validates arguments against the tool's schema, runs its handler
// under a per-invocation deadline, and returns a ToolResult. It never
// returns a Go error: all failure is reported inside ToolResult.Error so
// callers (the protocol engine) can always serialize a response.
func (r *Registry) Invoke(ctx context.Context, name string, arguments map[string]any) ToolResult {
	start := time.Now()

	r.mu.RLock()
	d, ok := r.tools[name]
	r.mu.RUnlock()

	invID := r.nextInvocationID()

	if !ok {
		return toolErrorResult(coreerrors.New(coreerrors.CodeToolNotFound,
			fmt.Sprintf("tool %q not found", name), nil), start)
	}

	validated, err := d.Schema.Validate(arguments)
	if err != nil {
		r.logInvocation(invID, name, time.Since(start), err)
		return toolErrorResult(err, start)
	}

	callCtx := ctx
	var cancel context.CancelFunc
	if _, hasDeadline := ctx.Deadline(); !hasDeadline && r.timeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	data, err := r.runHandler(callCtx, d, validated)
	duration := time.Since(start)
	r.logInvocation(invID, name, duration, err)

	if err != nil {
		if callCtx.Err() == context.DeadlineExceeded {
			err = coreerrors.New(coreerrors.CodeToolTimeout,
				fmt.Sprintf("tool %q exceeded its deadline", name), err)
		}
		return toolErrorResult(err, start)
	}

	return ToolResult{
		Success:    true,
		Data:       data,
		DurationMs: duration.Milliseconds(),
	}
}

// runHandler invokes the handler, recovering a panic into an internal
// error so a misbehaving tool cannot take the server down.
func (r *Registry) runHandler(ctx context.Context, d Descriptor, args map[string]any) (result any, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = coreerrors.New(coreerrors.CodeInternal,
				fmt.Sprintf("tool %q panicked: %v", d.Name, p), nil)
		}
	}()
	return d.Handler(ctx, args)
}

func (r *Registry) nextInvocationID() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextInv++
	return r.nextInv
}

func (r *Registry) logInvocation(invID uint64, name string, duration time.Duration, err error) {
	if r.logger == nil {
		return
	}
	attrs := []any{
		slog.Uint64("invocation_id", invID),
		slog.String("tool", name),
		slog.Duration("duration", duration),
	}
	if err != nil {
		attrs = append(attrs, slog.Any("error", coreerrors.FormatForLog(err)))
		r.logger.Error("tool invocation failed", attrs...)
		return
	}
	r.logger.Debug("tool invocation succeeded", attrs...)
}

func toolErrorResult(err error, start time.Time) ToolResult {
	data := coreerrors.ToRPCData(err)
	message := err.Error()
	if ce, ok := err.(*coreerrors.CoreError); ok {
		message = ce.Message
	}
	return ToolResult{
		Success:    false,
		Error:      &ToolError{Code: data.Code, Message: message},
		DurationMs: time.Since(start).Milliseconds(),
	}
}
