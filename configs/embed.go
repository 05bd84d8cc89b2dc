// Package configs provides embedded configuration templates for mydocsmcp.
//
// Templates are embedded at build time using Go's //go:embed directive so
// they ship with every distribution (source builds, binary releases).
//
// Template files:
//   - user-config.example.yaml: machine-level settings (~/.config/mydocsmcp/config.yaml)
//   - project-config.example.yaml: per-project settings (.mydocsmcp.yaml)
//
// Configuration hierarchy (see internal/config/config.go Load()):
//  1. Hardcoded defaults (internal/config/config.go NewConfig())
//  2. User config (~/.config/mydocsmcp/config.yaml)
//  3. Project config (.mydocsmcp.yaml)
//  4. Environment variables (MYDOCSMCP_*)
package configs

import _ "embed"

// UserConfigTemplate is the template written by `mydocsmcp config init` to
// ~/.config/mydocsmcp/config.yaml. Holds machine-wide defaults shared across
// every document root the server is ever pointed at.
//
//go:embed user-config.example.yaml
var UserConfigTemplate string

// ProjectConfigTemplate is the template for .mydocsmcp.yaml at a document
// root. Holds per-root overrides such as which extensions to index and
// watch behavior. No subcommand writes it out.
//
//go:embed project-config.example.yaml
var ProjectConfigTemplate string
