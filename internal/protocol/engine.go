package protocol

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/mydocs-mcp/mydocs-mcp/internal/registry"
	"github.com/mydocs-mcp/mydocs-mcp/pkg/version"
)

// DefaultShutdownDeadline bounds how long Run waits for in-flight
// requests to finish draining after stdin reaches EOF (§6 default:
// shutdown_deadline_seconds = 5).
const DefaultShutdownDeadline = 5 * time.Second

// maxRequestLine bounds a single incoming frame. Request params are small
// (file paths, queries); this only guards against a misbehaving client.
const maxRequestLine = 4 << 20

var nullID = json.RawMessage("null")

// Options configures an Engine.
type Options struct {
	// ShutdownDeadline bounds how long Run waits for in-flight tools/call
	// invocations to finish once stdin reaches EOF. Zero uses
	// DefaultShutdownDeadline.
	ShutdownDeadline time.Duration
}

// Engine is the protocol engine (C6): it owns the stdin read loop, dispatches
// requests to the tool registry, and serializes writes to stdout so
// concurrently completing handlers never interleave partial JSON frames.
//
// Per spec.md §5, a single reader task parses incoming frames and each
// request runs as its own task, so a slow tool never blocks the next read;
// responses are emitted in completion order, which is fine because
// JSON-RPC ids, not stream position, identify a response's request.
type Engine struct {
	reg    *registry.Registry
	in     io.Reader
	out    io.Writer
	logger *slog.Logger

	shutdownDeadline time.Duration
	onShutdown       func(context.Context) error

	writeMu       sync.Mutex
	fatalWriteErr error

	readyMu sync.Mutex
	ready   bool

	wg sync.WaitGroup
}

// NewEngine builds an Engine dispatching to reg, reading requests from in
// and writing responses to out.
func NewEngine(reg *registry.Registry, in io.Reader, out io.Writer, logger *slog.Logger, opts Options) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	deadline := opts.ShutdownDeadline
	if deadline <= 0 {
		deadline = DefaultShutdownDeadline
	}
	return &Engine{
		reg:              reg,
		in:               in,
		out:              out,
		logger:           logger,
		shutdownDeadline: deadline,
	}
}

// OnShutdown registers a hook run once after stdin EOF and request
// draining, before Run returns. The composition root uses this to stop
// the watcher and close the store without the protocol engine importing
// either (keeping the Store ← Parsers ← Tools ← {Registry, Watcher} ←
// Protocol dependency graph a strict DAG, per spec.md §9).
func (e *Engine) OnShutdown(fn func(context.Context) error) {
	e.onShutdown = fn
}

// Ready reports whether initialize has been handled yet.
func (e *Engine) Ready() bool {
	e.readyMu.Lock()
	defer e.readyMu.Unlock()
	return e.ready
}

func (e *Engine) markReady() {
	e.readyMu.Lock()
	e.ready = true
	e.readyMu.Unlock()
}

// Run reads line-delimited JSON-RPC requests from in until EOF or ctx is
// canceled, dispatching each as an independent goroutine. On EOF it drains
// in-flight requests within the shutdown deadline, runs the shutdown hook,
// and returns nil for a clean exit or a non-nil error if a fatal write to
// stdout ever failed (§4.6: "Fatal engine errors (I/O on stdout failing)
// exit non-zero").
func (e *Engine) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan []byte)
	scanErrCh := make(chan error, 1)

	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(e.in)
		scanner.Buffer(make([]byte, 0, 64*1024), maxRequestLine)
		for scanner.Scan() {
			line := append([]byte(nil), scanner.Bytes()...)
			select {
			case lines <- line:
			case <-runCtx.Done():
				return
			}
		}
		scanErrCh <- scanner.Err()
	}()

readLoop:
	for {
		select {
		case line, ok := <-lines:
			if !ok {
				break readLoop
			}
			if len(bytes.TrimSpace(line)) == 0 {
				continue
			}
			e.wg.Add(1)
			go e.handleLine(runCtx, line)
		case <-runCtx.Done():
			break readLoop
		}
	}

	var scanErr error
	select {
	case scanErr = <-scanErrCh:
	default:
	}

	e.drain()

	if e.onShutdown != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), e.shutdownDeadline)
		if err := e.onShutdown(shutdownCtx); err != nil {
			e.logger.Error("shutdown hook failed", slog.String("error", err.Error()))
		}
		shutdownCancel()
	}

	e.writeMu.Lock()
	writeErr := e.fatalWriteErr
	e.writeMu.Unlock()
	if writeErr != nil {
		return writeErr
	}
	return scanErr
}

// drain waits for all in-flight handleLine goroutines to finish, up to
// the shutdown deadline, then gives up and lets Run return anyway — a
// wedged tool invocation must not block process exit forever.
func (e *Engine) drain() {
	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(e.shutdownDeadline):
		e.logger.Warn("shutdown deadline exceeded with requests still in flight")
	}
}

// handleLine parses one wire frame and, unless it was a notification,
// writes its response.
func (e *Engine) handleLine(ctx context.Context, line []byte) {
	defer e.wg.Done()

	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		e.writeResponse(Response{
			JSONRPC: "2.0",
			ID:      nullID,
			Error:   &Error{Code: CodeParseError, Message: "parse error: " + err.Error()},
		})
		return
	}

	if req.JSONRPC != "2.0" || req.Method == "" {
		if !req.IsNotification() {
			e.writeResponse(Response{
				JSONRPC: "2.0",
				ID:      req.ID,
				Error:   &Error{Code: CodeInvalidRequest, Message: "invalid request: missing jsonrpc or method"},
			})
		}
		return
	}

	resp := e.dispatch(ctx, req)
	if req.IsNotification() {
		return
	}
	resp.ID = req.ID
	e.writeResponse(resp)
}

// dispatch routes one request to its method handler. ID is left unset;
// handleLine fills it in so every method body here stays id-agnostic.
func (e *Engine) dispatch(ctx context.Context, req Request) Response {
	switch req.Method {
	case "initialize":
		return e.handleInitialize()
	case "tools/list":
		return e.handleToolsList()
	case "tools/call":
		return e.handleToolsCall(ctx, req)
	case "ping":
		return Response{JSONRPC: "2.0", Result: struct{}{}}
	default:
		return Response{
			JSONRPC: "2.0",
			Error:   &Error{Code: CodeMethodNotFound, Message: fmt.Sprintf("method %q not found", req.Method)},
		}
	}
}

func (e *Engine) handleInitialize() Response {
	e.markReady()
	return Response{
		JSONRPC: "2.0",
		Result: initializeResult{
			ProtocolVersion: ProtocolVersion,
			ServerInfo:      serverInfo{Name: "mydocsmcp", Version: version.Short()},
			Capabilities:    serverCapabilities{Tools: toolsCapability{ListChanged: false}},
		},
	}
}

func (e *Engine) handleToolsList() Response {
	return Response{
		JSONRPC: "2.0",
		Result:  toolsListResult{Tools: e.reg.List()},
	}
}

func (e *Engine) handleToolsCall(ctx context.Context, req Request) Response {
	if !e.Ready() {
		e.logger.Warn("tools/call received before initialize")
	}

	var params toolCallParams
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return Response{
				JSONRPC: "2.0",
				Error:   &Error{Code: CodeInvalidParams, Message: "invalid params: " + err.Error()},
			}
		}
	}
	if params.Name == "" {
		return Response{
			JSONRPC: "2.0",
			Error:   &Error{Code: CodeInvalidParams, Message: "params.name is required"},
		}
	}

	result := e.reg.Invoke(ctx, params.Name, params.Arguments)
	if !result.Success {
		return Response{JSONRPC: "2.0", Error: toolErrorToRPC(result.Error)}
	}

	text, err := json.Marshal(result.Data)
	if err != nil {
		return Response{
			JSONRPC: "2.0",
			Error:   &Error{Code: CodeInternalError, Message: "failed to serialize tool result"},
		}
	}

	return Response{
		JSONRPC: "2.0",
		Result: toolCallResult{
			Content: []toolCallContent{{Type: "text", Text: string(text)}},
		},
	}
}

// writeResponse serializes resp as a single line and writes it to stdout
// under the write lock. A write failure is fatal (§4.6): it's recorded and
// surfaced once Run returns, rather than panicking a handler goroutine.
func (e *Engine) writeResponse(resp Response) {
	if resp.ID == nil {
		resp.ID = nullID
	}

	data, err := json.Marshal(resp)
	if err != nil {
		e.logger.Error("failed to marshal response", slog.String("error", err.Error()))
		return
	}
	data = append(data, '\n')

	e.writeMu.Lock()
	defer e.writeMu.Unlock()
	if e.fatalWriteErr != nil {
		return
	}
	if _, err := e.out.Write(data); err != nil {
		e.fatalWriteErr = fmt.Errorf("stdout write failed: %w", err)
	}
}
