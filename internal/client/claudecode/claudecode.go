// Package claudecode adapts the canonical model to Claude Code's native
// configuration.
//
// Claude Code keeps a project-shareable .mcp.json at the project root and a
// user-level ~/.claude.json. The user-level file doubles as a store of
// directory-scoped overrides: top-level keys that are absolute paths map a
// project directory to its own {"mcpServers": ...} section alongside the
// global one.
package claudecode

import (
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/jander99/overture-sub000/internal/client"
	"github.com/jander99/overture-sub000/internal/config"
	"github.com/jander99/overture-sub000/internal/errors"
	"github.com/jander99/overture-sub000/internal/paths"
	"github.com/jander99/overture-sub000/pkg/fileutil"
)

// Name is the client identifier.
const Name = "claude-code"

// rootKey is the top-level key holding server definitions.
const rootKey = "mcpServers"

// Client implements the adapter contract for Claude Code.
type Client struct {
	home string
}

// New creates a Claude Code adapter.
func New() *Client {
	return &Client{home: paths.Home()}
}

// NewWithHome creates an adapter rooted at a specific home directory.
// Test hook.
func NewWithHome(home string) *Client {
	return &Client{home: home}
}

// Name returns the client identifier.
func (c *Client) Name() string { return Name }

// DisplayName returns the human-facing tool name.
func (c *Client) DisplayName() string { return "Claude Code" }

// RootKey returns the native server-section key.
func (c *Client) RootKey() string { return rootKey }

// ConfigPaths returns ~/.claude.json and <projectRoot>/.mcp.json.
func (c *Client) ConfigPaths(_, projectRoot string) client.Paths {
	p := client.Paths{}
	if c.home != "" {
		p.User = filepath.Join(c.home, ".claude.json")
	}
	if projectRoot != "" {
		p.Project = filepath.Join(projectRoot, ".mcp.json")
	}
	return p
}

// ReadConfig reads the global server section of the file at path.
// Directory-scoped sections are preserved in Extra and exposed separately
// via ReadDirectoryScopes.
func (c *Client) ReadConfig(path string) (*client.NativeConfig, error) {
	return client.ReadJSONFile(path, rootKey)
}

// WriteConfig writes the global server section back, restoring everything
// else verbatim.
func (c *Client) WriteConfig(path string, cfg *client.NativeConfig) error {
	return client.WriteJSONFile(path, rootKey, cfg)
}

// FromDeclaration translates a canonical declaration.
// Claude Code's transport vocabulary matches the canonical one.
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
		Type:    decl.EffectiveTransport(),
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

// NeedsEnvExpansion is false: Claude Code expands ${VAR} references itself,
// so placeholders pass through and secrets stay out of the file.
func (c *Client) NeedsEnvExpansion() bool { return false }

// Installed reports whether the claude binary or its config is present.
func (c *Client) Installed() bool {
	if _, err := exec.LookPath("claude"); err == nil {
		return true
	}
	return c.home != "" && fileutil.FileExists(filepath.Join(c.home, ".claude.json"))
}

// ReadDirectoryScopes returns the directory-keyed override sections of the
// user-level file: every top-level key that is an absolute path, parsed as
// its own server section.
func (c *Client) ReadDirectoryScopes(path string) (map[string]*client.NativeConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]*client.NativeConfig{}, nil
		}
		return nil, &errors.LoadError{Path: path, Err: err}
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &errors.LoadError{Path: path, Err: err}
	}

	scopes := make(map[string]*client.NativeConfig)
	for key, section := range raw {
		if !isDirectoryKey(key) {
			continue
		}
		cfg, err := client.ParseJSON(path, section, rootKey)
		if err != nil {
			return nil, errors.Wrapf(err, "directory section %s", key)
		}
		scopes[key] = cfg
	}
	return scopes, nil
}

// WriteDirectoryScope replaces one directory's override section in the
// user-level file, leaving everything else untouched. A nil cfg removes
// the section.
func (c *Client) WriteDirectoryScope(path, dir string, cfg *client.NativeConfig) error {
	raw := make(map[string]json.RawMessage)
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return &errors.LoadError{Path: path, Err: err}
		}
	} else if err := json.Unmarshal(data, &raw); err != nil {
		return &errors.LoadError{Path: path, Err: err}
	}

	if cfg == nil {
		delete(raw, dir)
	} else {
		section := make(map[string]any, len(cfg.Extra)+1)
		for k, v := range cfg.Extra {
			var val any
			if err := json.Unmarshal(v, &val); err != nil {
				return errors.Wrapf(err, "preserved field %s", k)
			}
			section[k] = val
		}
		section[rootKey] = cfg.Servers
		encoded, err := json.Marshal(section)
		if err != nil {
			return errors.Wrapf(err, "encoding directory section %s", dir)
		}
		raw[dir] = encoded
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "creating directory for %s", path)
	}
	return errors.Wrapf(fileutil.AtomicWriteJSON(path, raw), "writing %s", path)
}

// isDirectoryKey reports whether a top-level key names a project directory
// (unix absolute path or windows drive path).
func isDirectoryKey(key string) bool {
	if strings.HasPrefix(key, "/") {
		return true
	}
	// Windows drive letter, e.g. C:\work\repo
	if len(key) >= 3 && key[1] == ':' && (key[2] == '\\' || key[2] == '/') {
		return true
	}
	return false
}
