package watcher

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/mydocs-mcp/mydocs-mcp/internal/tools"
)

// State is a position in the watcher's lifecycle.
type State int

const (
	StateStopped State = iota
	StateStarting
	StateRunning
	StateDraining
)

func (s State) String() string {
	switch s {
	case StateStopped:
		return "STOPPED"
	case StateStarting:
		return "STARTING"
	case StateRunning:
		return "RUNNING"
	case StateDraining:
		return "DRAINING"
	default:
		return "UNKNOWN"
	}
}

// DefaultConcurrency bounds the indexing worker pool (spec.md §5's
// concurrency model: concurrency ≤ N, default 4).
const DefaultConcurrency = 4

// EngineConfig configures the Engine.
type EngineConfig struct {
	Roots       []string
	Options     Options
	Concurrency int
}

// Engine owns one HybridWatcher per configured root, fans debounced
// batches out to a bounded worker pool, and keeps the document store in
// sync by invoking the indexDocument tool handler directly (for
// created/modified) or the store's delete/rename operations (for
// deleted/moved, neither of which is an exposed MCP tool).
type Engine struct {
	deps        tools.Deps
	roots       []string
	opts        Options
	concurrency int
	logger      *slog.Logger

	mu        sync.Mutex
	state     State
	watchers  []*HybridWatcher
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	processed atomic.Uint64
	failed    atomic.Uint64
}

// handlerFunc mirrors registry.Handler's shape; kept local so the engine
// doesn't need to import the registry package just to spell the type.
type handlerFunc = func(ctx context.Context, args map[string]any) (any, error)

// NewEngine builds an Engine over the given roots and store/parser deps.
func NewEngine(cfg EngineConfig, deps tools.Deps, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Engine{
		deps:        deps,
		roots:       cfg.Roots,
		opts:        cfg.Options.WithDefaults(),
		concurrency: concurrency,
		logger:      logger,
		state:       StateStopped,
	}
}

// State reports the engine's current lifecycle position.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Processed returns the number of file events successfully acted on.
func (e *Engine) Processed() uint64 { return e.processed.Load() }

// Failed returns the number of file events whose action failed; the
// engine logs and counts these rather than stopping (spec.md §4.5
// failure isolation).
func (e *Engine) Failed() uint64 { return e.failed.Load() }

// Start launches one HybridWatcher per root and a bounded pool of
// workers draining their debounced batches. It returns once all
// watchers have been started; watching continues in the background
// until ctx is canceled or Stop is called.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.state != StateStopped {
		e.mu.Unlock()
		return nil
	}
	e.state = StateStarting
	e.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)

	e.mu.Lock()
	e.cancel = cancel
	e.watchers = make([]*HybridWatcher, 0, len(e.roots))
	e.mu.Unlock()

	for _, root := range e.roots {
		hw, err := NewHybridWatcher(e.opts)
		if err != nil {
			cancel()
			return err
		}

		e.mu.Lock()
		e.watchers = append(e.watchers, hw)
		e.mu.Unlock()

		e.wg.Add(1)
		go e.runRoot(runCtx, root, hw)
	}

	e.mu.Lock()
	e.state = StateRunning
	e.mu.Unlock()
	return nil
}

// runRoot starts a single root's watcher and drains its batches into the
// worker pool until the context is canceled or the watcher's channels
// close. A fatal watcher error triggers a drain-and-rescan cycle.
func (e *Engine) runRoot(ctx context.Context, root string, hw *HybridWatcher) {
	defer e.wg.Done()

	startErrCh := make(chan error, 1)
	go func() { startErrCh <- hw.Start(ctx, root) }()

	for {
		select {
		case <-ctx.Done():
			return

		case batch, ok := <-hw.Events():
			if !ok {
				return
			}
			e.dispatchBatch(ctx, root, batch)

		case err, ok := <-hw.Errors():
			if !ok {
				return
			}
			e.logger.Warn("watcher error, rescanning root",
				slog.String("root", root),
				slog.String("error", err.Error()))
			e.rescan(ctx, root, hw)

		case err := <-startErrCh:
			if err != nil && ctx.Err() == nil {
				e.logger.Error("watcher failed to start",
					slog.String("root", root),
					slog.String("error", err.Error()))
			}
			return
		}
	}
}

// rescan moves the engine through Draining and back to Starting when the
// underlying OS watch handle is lost, replacing the root's HybridWatcher
// with a fresh one that re-registers every directory under the root.
// Files already on disk are not re-queued, so changes made while the
// handle was lost are not indexed until those files change again.
func (e *Engine) rescan(ctx context.Context, root string, hw *HybridWatcher) {
	e.mu.Lock()
	e.state = StateDraining
	e.mu.Unlock()

	_ = hw.Stop()

	fresh, err := NewHybridWatcher(e.opts)
	if err != nil {
		e.logger.Error("failed to rebuild watcher after OS-handle loss",
			slog.String("root", root), slog.String("error", err.Error()))
		return
	}

	e.mu.Lock()
	for i, w := range e.watchers {
		if w == hw {
			e.watchers[i] = fresh
		}
	}
	e.state = StateStarting
	e.mu.Unlock()

	e.wg.Add(1)
	go e.runRoot(ctx, root, fresh)

	e.mu.Lock()
	e.state = StateRunning
	e.mu.Unlock()
}

// dispatchBatch pairs up delete+create events that look like a move,
// then runs the resulting actions through a concurrency-bounded
// errgroup, mirroring the teacher's semaphore-gated parallel search.
func (e *Engine) dispatchBatch(ctx context.Context, root string, batch []FileEvent) {
	actions := pairMoves(batch)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)

	for _, action := range actions {
		action := action
		g.Go(func() error {
			if err := e.applyAction(gctx, root, action); err != nil {
				e.failed.Add(1)
				e.logger.Error("watcher action failed",
					slog.String("root", root),
					slog.String("path", action.Path),
					slog.String("op", action.Operation.String()),
					slog.String("error", err.Error()))
				return nil // error boundary: never abort the batch
			}
			e.processed.Add(1)
			return nil
		})
	}
	_ = g.Wait()
}

// applyAction performs the store/index side effect for one coalesced
// event. created/modified reindex through the same indexDocument
// handler the MCP tool set exposes; deleted and moved touch the store
// directly since neither deleteDocument nor renameDocument is a
// registered tool.
func (e *Engine) applyAction(ctx context.Context, root string, ev FileEvent) error {
	switch ev.Operation {
	case OpCreated, OpModified:
		handler := e.indexHandler()
		_, err := handler(ctx, map[string]any{
			"file_path":     filepath.Join(root, ev.Path),
			"force_reindex": false,
		})
		return err

	case OpDeleted:
		_, err := e.deps.Store.DeleteDocument(ctx, filepath.Join(root, ev.Path))
		return err

	case OpMoved:
		_, _, err := e.deps.Store.RenameDocument(ctx, filepath.Join(root, ev.OldPath), filepath.Join(root, ev.Path))
		return err

	default:
		return nil
	}
}

func (e *Engine) indexHandler() handlerFunc {
	return tools.IndexDocumentDescriptor(e.deps).Handler
}

// pairMoves best-effort pairs a deletion with a creation of the same
// extension in the same debounced batch into a single OpMoved event.
// Even the teacher's indexer treats raw OS rename notifications as an
// unsolved pairing problem (delete+create, handled independently); this
// does the pairing one layer up, at the batch the debouncer already
// assembled, and falls back to spec.md's documented rule (treat as
// deleted) when no plausible partner exists.
func pairMoves(batch []FileEvent) []FileEvent {
	var deletes, creates, rest []FileEvent
	for _, ev := range batch {
		switch ev.Operation {
		case OpDeleted:
			deletes = append(deletes, ev)
		case OpCreated:
			creates = append(creates, ev)
		default:
			rest = append(rest, ev)
		}
	}

	usedCreates := make([]bool, len(creates))
	var out []FileEvent

	for _, del := range deletes {
		paired := -1
		for i, cr := range creates {
			if usedCreates[i] {
				continue
			}
			if filepath.Ext(cr.Path) == filepath.Ext(del.Path) && cr.Path != del.Path {
				paired = i
				break
			}
		}
		if paired >= 0 {
			cr := creates[paired]
			usedCreates[paired] = true
			out = append(out, FileEvent{
				Path:      cr.Path,
				OldPath:   del.Path,
				Operation: OpMoved,
				IsDir:     cr.IsDir,
				Timestamp: cr.Timestamp,
			})
			continue
		}
		out = append(out, del)
	}

	for i, cr := range creates {
		if !usedCreates[i] {
			out = append(out, cr)
		}
	}

	out = append(out, rest...)
	return out
}

// Stop signals every root watcher to stop and waits for their
// goroutines to exit.
func (e *Engine) Stop() {
	e.mu.Lock()
	if e.state == StateStopped {
		e.mu.Unlock()
		return
	}
	cancel := e.cancel
	watchers := e.watchers
	e.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	for _, hw := range watchers {
		_ = hw.Stop()
	}
	e.wg.Wait()

	e.mu.Lock()
	e.state = StateStopped
	e.mu.Unlock()
}
