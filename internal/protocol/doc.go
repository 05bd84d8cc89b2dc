// Package protocol implements the JSON-RPC 2.0 engine (C6): it reads
// line-delimited requests from stdin, dispatches tools/list and tools/call
// to the tool registry (C3), and writes responses to stdout through a
// serialized writer so concurrent handlers never interleave partial
// frames.
//
// Usage:
//
//	eng := protocol.NewEngine(reg, os.Stdin, os.Stdout, logger, protocol.Options{})
//	eng.OnShutdown(func(ctx context.Context) error {
//	    watcherEngine.Stop()
//	    return store.Close()
//	})
//	if err := eng.Run(ctx); err != nil {
//	    os.Exit(1)
//	}
package protocol
