// Package cursor adapts the canonical model to Cursor's mcp.json files.
//
// Cursor reads a user-level ~/.cursor/mcp.json and a project-level
// .cursor/mcp.json, both flat JSON documents with servers under
// "mcpServers".
package cursor

import (
	"path/filepath"

	"github.com/jander99/overture-sub000/internal/client"
	"github.com/jander99/overture-sub000/internal/config"
	"github.com/jander99/overture-sub000/internal/errors"
	"github.com/jander99/overture-sub000/internal/paths"
	"github.com/jander99/overture-sub000/pkg/fileutil"
)

// Name is the client identifier.
const Name = "cursor"

const rootKey = "mcpServers"

// Client implements the adapter contract for Cursor.
type Client struct {
	home string
}

// New creates a Cursor adapter.
func New() *Client {
	return &Client{home: paths.Home()}
}

// NewWithHome creates an adapter rooted at a specific home directory.
// Test hook.
func NewWithHome(home string) *Client {
	return &Client{home: home}
}

func (c *Client) Name() string        { return Name }
func (c *Client) DisplayName() string { return "Cursor" }
func (c *Client) RootKey() string     { return rootKey }

// ConfigPaths returns ~/.cursor/mcp.json and <projectRoot>/.cursor/mcp.json.
func (c *Client) ConfigPaths(_, projectRoot string) client.Paths {
	p := client.Paths{}
	if c.home != "" {
		p.User = filepath.Join(c.home, ".cursor", "mcp.json")
	}
	if projectRoot != "" {
		p.Project = filepath.Join(projectRoot, ".cursor", "mcp.json")
	}
	return p
}

func (c *Client) ReadConfig(path string) (*client.NativeConfig, error) {
	return client.ReadJSONFile(path, rootKey)
}

func (c *Client) WriteConfig(path string, cfg *client.NativeConfig) error {
	return client.WriteJSONFile(path, rootKey, cfg)
}

// FromDeclaration translates a canonical declaration. Cursor's transport
// vocabulary diverges for remote transports: canonical http becomes
// "streamableHttp", and stdio entries carry no type tag at all.
func (c *Client) FromDeclaration(name string, decl *config.ServerDecl, platform string) (*client.NativeServer, error) {
	if decl == nil {
		return nil, errors.New("declaration is nil")
	}
	command := decl.EffectiveCommand(platform)
	if command == "" {
		return nil, errors.Newf("server %s has no command for platform %s", name, platform)
	}

	srv := &client.NativeServer{
		Command: command,
		Args:    append([]string(nil), decl.EffectiveArgs(platform)...),
	}
	switch decl.EffectiveTransport() {
	case config.TransportHTTP:
		srv.Type = "streamableHttp"
	case config.TransportSSE:
		srv.Type = "sse"
	}
	if len(decl.Env) > 0 {
		srv.Env = make(map[string]string, len(decl.Env))
		for k, v := range decl.Env {
			srv.Env[k] = v
		}
	}
	return srv, nil
}

// SupportsTransport reports support for stdio, http, and sse.
func (c *Client) SupportsTransport(transport string) bool {
	switch transport {
	case config.TransportStdio, config.TransportHTTP, config.TransportSSE:
		return true
	}
	return false
}

// NeedsEnvExpansion is true: Cursor does not expand ${VAR} references, so
// placeholders must be resolved before writing.
func (c *Client) NeedsEnvExpansion() bool { return true }

// Installed reports whether ~/.cursor exists.
func (c *Client) Installed() bool {
	return c.home != "" && fileutil.DirExists(filepath.Join(c.home, ".cursor"))
}
