// Package codex adapts the canonical model to Codex's config.toml.
//
// Codex keeps a single user-level ~/.codex/config.toml with servers as
// [mcp_servers.NAME] tables next to unrelated tool settings. It only runs
// stdio servers.
package codex

import (
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/jander99/overture-sub000/internal/client"
	"github.com/jander99/overture-sub000/internal/config"
	"github.com/jander99/overture-sub000/internal/errors"
	"github.com/jander99/overture-sub000/internal/paths"
	"github.com/jander99/overture-sub000/pkg/fileutil"
)

// Name is the client identifier.
const Name = "codex"

const rootKey = "mcp_servers"

// Client implements the adapter contract for Codex.
type Client struct {
	home string
}

// New creates a Codex adapter.
func New() *Client {
	return &Client{home: paths.Home()}
}

// NewWithHome creates an adapter rooted at a specific home directory.
// Test hook.
func NewWithHome(home string) *Client {
	return &Client{home: home}
}

func (c *Client) Name() string        { return Name }
func (c *Client) DisplayName() string { return "Codex" }
func (c *Client) RootKey() string     { return rootKey }

// ConfigPaths returns ~/.codex/config.toml. Codex has no project-scoped
// config file.
func (c *Client) ConfigPaths(_, _ string) client.Paths {
	p := client.Paths{}
	if c.home != "" {
		p.User = filepath.Join(c.home, ".codex", "config.toml")
	}
	return p
}

// tomlServer is the native server table shape.
type tomlServer struct {
	Command string            `toml:"command,omitempty"`
	Args    []string          `toml:"args,omitempty"`
	Env     map[string]string `toml:"env,omitempty"`
}

// ReadConfig reads config.toml, extracting the mcp_servers tables and
// preserving every other top-level entry in Extra (re-encoded as JSON so
// the snapshot shape stays uniform across clients).
func (c *Client) ReadConfig(path string) (*client.NativeConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return client.NewNativeConfig(), nil
		}
		return nil, &errors.LoadError{Path: path, Err: err}
	}

	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		le := &errors.LoadError{Path: path, Err: err}
		var decodeErr *toml.DecodeError
		if errors.As(err, &decodeErr) {
			le.Line, le.Column = decodeErr.Position()
		}
		return nil, le
	}

	cfg := client.NewNativeConfig()
	if serversRaw, ok := raw[rootKey]; ok {
		var servers map[string]tomlServer
		if err := remarshal(serversRaw, &servers); err != nil {
			return nil, &errors.LoadError{Path: path, Err: err}
		}
		for name, srv := range servers {
			cfg.Servers[name] = &client.NativeServer{
				Command: srv.Command,
				Args:    srv.Args,
				Env:     srv.Env,
			}
		}
		delete(raw, rootKey)
	}
	if len(raw) > 0 {
		cfg.Extra = make(map[string]json.RawMessage, len(raw))
		for k, v := range raw {
			encoded, err := json.Marshal(v)
			if err != nil {
				return nil, errors.Wrapf(err, "preserving field %s", k)
			}
			cfg.Extra[k] = encoded
		}
	}
	return cfg, nil
}

// WriteConfig writes config.toml back with the snapshot's servers under
// mcp_servers and all preserved top-level entries restored.
func (c *Client) WriteConfig(path string, cfg *client.NativeConfig) error {
	if cfg == nil {
		return errors.New("config is nil")
	}

	out := make(map[string]any, len(cfg.Extra)+1)
	for k, v := range cfg.Extra {
		var val any
		if err := json.Unmarshal(v, &val); err != nil {
			return errors.Wrapf(err, "preserved field %s", k)
		}
		out[k] = val
	}
	servers := make(map[string]tomlServer, len(cfg.Servers))
	for name, srv := range cfg.Servers {
		servers[name] = tomlServer{Command: srv.Command, Args: srv.Args, Env: srv.Env}
	}
	out[rootKey] = servers

	data, err := toml.Marshal(out)
	if err != nil {
		return errors.Wrapf(err, "encoding %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "creating directory for %s", path)
	}
	return errors.Wrapf(fileutil.AtomicWriteFile(path, data, 0o644), "writing %s", path)
}

// FromDeclaration translates a canonical declaration. Codex tables carry no
// transport tag; only stdio declarations reach this point.
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
	if len(decl.Env) > 0 {
		srv.Env = make(map[string]string, len(decl.Env))
		for k, v := range decl.Env {
			srv.Env[k] = v
		}
	}
	return srv, nil
}

// SupportsTransport reports support for stdio only.
func (c *Client) SupportsTransport(transport string) bool {
	return transport == config.TransportStdio
}

// NeedsEnvExpansion is true: Codex does not expand ${VAR} references.
func (c *Client) NeedsEnvExpansion() bool { return true }

// Installed reports whether the codex binary or its config dir is present.
func (c *Client) Installed() bool {
	if _, err := exec.LookPath("codex"); err == nil {
		return true
	}
	return c.home != "" && fileutil.DirExists(filepath.Join(c.home, ".codex"))
}

// remarshal converts a decoded TOML subtree into a typed value.
func remarshal(in, out any) error {
	data, err := toml.Marshal(in)
	if err != nil {
		return err
	}
	return toml.Unmarshal(data, out)
}
