// Package server is the composition root: it wires the document store
// (C1), parser registry (C2), tool registry (C3), built-in tool set (C4),
// filesystem watcher (C5), and protocol engine (C6) into a single running
// server, following the dependency graph spec.md §9 fixes as a DAG:
//
//	Store ← Parsers ← Tools ← {Registry, Watcher} ← Protocol
//
// Nothing downstream of Protocol ever imports Watcher or Store directly;
// Server wires the watcher's side effects into the protocol engine's
// OnShutdown hook instead, so the DAG stays acyclic.
package server
