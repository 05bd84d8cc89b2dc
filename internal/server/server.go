package server

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/mydocs-mcp/mydocs-mcp/internal/config"
	"github.com/mydocs-mcp/mydocs-mcp/internal/parser"
	"github.com/mydocs-mcp/mydocs-mcp/internal/protocol"
	"github.com/mydocs-mcp/mydocs-mcp/internal/registry"
	"github.com/mydocs-mcp/mydocs-mcp/internal/store"
	"github.com/mydocs-mcp/mydocs-mcp/internal/tools"
	"github.com/mydocs-mcp/mydocs-mcp/internal/watcher"
)

// Server owns the wired-together store, tool registry, watcher, and
// protocol engine for a single configuration. Construct with New, then
// call Serve once.
type Server struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   store.Store
	parsers *parser.Registry
	reg     *registry.Registry
	watcher *watcher.Engine
}

// New builds a Server from cfg: it opens the document store, assembles
// the parser and tool registries, and constructs (but does not start)
// the filesystem watcher if cfg.WatchEnabled.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}

	st, err := store.Open(cfg.DatabasePath, store.DefaultOptions())
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	parsers := parser.NewDefaultRegistry()

	deps := tools.Deps{
		Store:            st,
		Parsers:          parsers,
		DocumentRoot:     cfg.DocumentRoot,
		MaxDocumentBytes: cfg.MaxDocumentBytes,
	}

	reg := registry.New(
		registry.WithLogger(logger),
		registry.WithTimeout(time.Duration(cfg.ToolTimeoutSeconds)*time.Second),
	)
	if err := tools.RegisterAll(reg, deps); err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("register tools: %w", err)
	}

	var watchEngine *watcher.Engine
	if cfg.WatchEnabled {
		watchEngine = watcher.NewEngine(watcher.EngineConfig{
			Roots: []string{cfg.DocumentRoot},
			Options: watcher.Options{
				DebounceWindow: time.Duration(cfg.WatchDebounceMS) * time.Millisecond,
				Extensions:     cfg.DocumentExtensions,
				MaxFileBytes:   cfg.MaxDocumentBytes,
			},
		}, deps, logger)
	}

	return &Server{
		cfg:     cfg,
		logger:  logger,
		store:   st,
		parsers: parsers,
		reg:     reg,
		watcher: watchEngine,
	}, nil
}

// Registry exposes the wired tool registry, e.g. for CLI subcommands
// that invoke a tool directly without going through the protocol engine.
func (s *Server) Registry() *registry.Registry { return s.reg }

// Store exposes the wired document store for CLI subcommands (stats,
// index) that read or write it outside a tools/call round trip.
func (s *Server) Store() store.Store { return s.store }

// Serve starts the watcher (if enabled) and runs the protocol engine
// over in/out until EOF or ctx is canceled, then stops the watcher and
// closes the store before returning. This is the only place Server
// reaches into Watcher and Store directly — everything downstream of
// the protocol engine only ever sees the OnShutdown hook (spec.md §9's
// Store ← Parsers ← Tools ← {Registry, Watcher} ← Protocol DAG).
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	if s.watcher != nil {
		if err := s.watcher.Start(ctx); err != nil {
			s.logger.Error("watcher failed to start, continuing without it",
				slog.String("error", err.Error()))
			s.watcher = nil
		}
	}

	eng := protocol.NewEngine(s.reg, in, out, s.logger, protocol.Options{
		ShutdownDeadline: time.Duration(s.cfg.ShutdownDeadlineSeconds) * time.Second,
	})
	eng.OnShutdown(func(_ context.Context) error {
		if s.watcher != nil {
			s.watcher.Stop()
		}
		return s.store.Close()
	})

	return eng.Run(ctx)
}
