package claudecode

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jander99/overture-sub000/internal/client"
	"github.com/jander99/overture-sub000/internal/config"
)

func TestConfigPaths(t *testing.T) {
	c := NewWithHome("/home/alice")
	p := c.ConfigPaths("linux", "/work/repo")
	assert.Equal(t, filepath.Join("/home/alice", ".claude.json"), p.User)
	assert.Equal(t, filepath.Join("/work/repo", ".mcp.json"), p.Project)

	p = c.ConfigPaths("linux", "")
	assert.Empty(t, p.Project)
}

func TestReadConfigMissingFile(t *testing.T) {
	c := New()
	cfg, err := c.ReadConfig(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	assert.Empty(t, cfg.Servers)
}

func TestRoundTripPreservesUnknownPayload(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".claude.json")
	original := `{
  "theme": "dark",
  "mcpServers": {
    "github": {
      "command": "npx",
      "args": ["-y", "@modelcontextprotocol/server-github"],
      "timeout": 30000
    }
  }
}`
	require.NoError(t, os.WriteFile(path, []byte(original), 0o644))

	c := New()
	cfg, err := c.ReadConfig(path)
	require.NoError(t, err)
	require.Contains(t, cfg.Servers, "github")
	assert.Equal(t, "npx", cfg.Servers["github"].Command)

	cfg.Servers["filesystem"] = &client.NativeServer{Command: "fs-server"}
	require.NoError(t, c.WriteConfig(path, cfg))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var out map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Contains(t, out, "theme", "non-server payload must survive a write")

	reread, err := c.ReadConfig(path)
	require.NoError(t, err)
	require.Contains(t, reread.Servers, "github")
	assert.Contains(t, reread.Servers["github"].Extra, "timeout",
		"unknown server fields must survive a round-trip")
}

func TestFromDeclaration(t *testing.T) {
	c := New()
	decl := &config.ServerDecl{
		Command:   "uvx",
		Args:      []string{"mcp-server-git"},
		Env:       map[string]string{"GIT_TOKEN": "${GIT_TOKEN}"},
		Transport: config.TransportSSE,
	}

	srv, err := c.FromDeclaration("git", decl, "linux")
	require.NoError(t, err)
	assert.Equal(t, "uvx", srv.Command)
	assert.Equal(t, []string{"mcp-server-git"}, srv.Args)
	assert.Equal(t, "sse", srv.Type)
	assert.Equal(t, "${GIT_TOKEN}", srv.Env["GIT_TOKEN"])
}

func TestFromDeclarationPlatformOverride(t *testing.T) {
	c := New()
	decl := &config.ServerDecl{
		Command: "npx",
		Platforms: &config.PlatformSelector{
			CommandOverrides: map[string]string{"windows": "npx.cmd"},
		},
	}

	srv, err := c.FromDeclaration("github", decl, "windows")
	require.NoError(t, err)
	assert.Equal(t, "npx.cmd", srv.Command)
}

func TestSupportsTransport(t *testing.T) {
	c := New()
	assert.True(t, c.SupportsTransport(config.TransportStdio))
	assert.True(t, c.SupportsTransport(config.TransportHTTP))
	assert.True(t, c.SupportsTransport(config.TransportSSE))
	assert.False(t, c.SupportsTransport("websocket"))
}

func TestDirectoryScopes(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".claude.json")
	original := `{
  "theme": "dark",
  "mcpServers": {"global": {"command": "g"}},
  "/work/repo": {
    "mcpServers": {"local": {"command": "l"}},
    "allowedTools": ["bash"]
  }
}`
	require.NoError(t, os.WriteFile(path, []byte(original), 0o644))

	c := New()
	scopes, err := c.ReadDirectoryScopes(path)
	require.NoError(t, err)
	require.Contains(t, scopes, "/work/repo")
	assert.Contains(t, scopes["/work/repo"].Servers, "local")

	// The global section must not leak into scopes.
	assert.Len(t, scopes, 1)

	scope := scopes["/work/repo"]
	scope.Servers["extra"] = &client.NativeServer{Command: "e"}
	require.NoError(t, c.WriteDirectoryScope(path, "/work/repo", scope))

	scopes, err = c.ReadDirectoryScopes(path)
	require.NoError(t, err)
	assert.Contains(t, scopes["/work/repo"].Servers, "extra")
	assert.Contains(t, scopes["/work/repo"].Extra, "allowedTools")

	global, err := c.ReadConfig(path)
	require.NoError(t, err)
	assert.Contains(t, global.Servers, "global")

	require.NoError(t, c.WriteDirectoryScope(path, "/work/repo", nil))
	scopes, err = c.ReadDirectoryScopes(path)
	require.NoError(t, err)
	assert.Empty(t, scopes)
}

func TestDirectoryScopesMissingFile(t *testing.T) {
	c := New()
	scopes, err := c.ReadDirectoryScopes(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	assert.Empty(t, scopes)
}

func TestIsDirectoryKey(t *testing.T) {
	assert.True(t, isDirectoryKey("/work/repo"))
	assert.True(t, isDirectoryKey(`C:\work\repo`))
	assert.False(t, isDirectoryKey("mcpServers"))
	assert.False(t, isDirectoryKey("theme"))
}
