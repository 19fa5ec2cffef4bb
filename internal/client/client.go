// Package client defines the adapter contract between the canonical model
// and each target tool's native configuration schema.
//
// A target client is modeled as a capability set, not a class hierarchy:
// concrete adapters implement the Client interface (and optionally
// DirectoryScoped) and register themselves in a Registry. Core packages —
// merge, filter, diff, discovery, cleanup — depend only on these interfaces,
// so adding another tool touches no reconciliation logic.
package client

import (
	"github.com/jander99/overture-sub000/internal/config"
)

// Paths holds the native config file locations for one client.
// Project is empty for clients without a project-scoped file.
type Paths struct {
	User    string
	Project string
}

// All returns the non-empty paths, user first.
func (p Paths) All() []string {
	out := make([]string, 0, 2)
	if p.User != "" {
		out = append(out, p.User)
	}
	if p.Project != "" {
		out = append(out, p.Project)
	}
	return out
}

// Client is the adapter contract for one target tool.
//
// Implementations must be safe for concurrent use; the reconciliation engine
// fans translation and diffing out across clients.
type Client interface {
	// Name returns the client identifier (claude-code, cursor, codex).
	Name() string

	// DisplayName returns the human-facing tool name.
	DisplayName() string

	// RootKey returns the top-level key holding server definitions in the
	// native schema (e.g. "mcpServers", "mcp_servers").
	RootKey() string

	// ConfigPaths resolves the native config file locations for a platform.
	// projectRoot may be empty when no project is in scope.
	ConfigPaths(platform, projectRoot string) Paths

	// ReadConfig reads a native config snapshot from path.
	// A missing file yields an empty snapshot, not an error, so callers
	// can diff against "nothing yet". Parse failures return a
	// *errors.LoadError with position information when derivable.
	ReadConfig(path string) (*NativeConfig, error)

	// WriteConfig writes a native config snapshot to path atomically,
	// preserving any non-server payload captured in the snapshot.
	WriteConfig(path string, cfg *NativeConfig) error

	// FromDeclaration translates a canonical declaration into the native
	// server shape, applying platform command/args overrides and the
	// client's transport naming.
	FromDeclaration(name string, decl *config.ServerDecl, platform string) (*NativeServer, error)

	// SupportsTransport reports whether the client understands a canonical
	// transport value (stdio, http, sse).
	SupportsTransport(transport string) bool

	// NeedsEnvExpansion reports whether ${VAR} placeholders must be
	// resolved before writing, because the tool performs no expansion of
	// its own.
	NeedsEnvExpansion() bool

	// Installed reports whether the tool appears present on this machine.
	// Detection quality varies per tool; sync never requires it.
	Installed() bool
}

// DirectoryScoped is implemented by clients whose native store contains
// directory-keyed override sections in addition to the global server map
// (one file mapping project paths to their own server maps).
type DirectoryScoped interface {
	// ReadDirectoryScopes returns the per-directory override sections of
	// the file at path, keyed by absolute project directory.
	ReadDirectoryScopes(path string) (map[string]*NativeConfig, error)

	// WriteDirectoryScope replaces one directory's override section,
	// leaving the global section and all other directories untouched.
	// A nil cfg removes the section.
	WriteDirectoryScope(path, dir string, cfg *NativeConfig) error
}
