// Package main provides the entry point for the mydocsmcp CLI.
package main

import (
	"os"

	"github.com/mydocs-mcp/mydocs-mcp/cmd/mydocsmcp/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
