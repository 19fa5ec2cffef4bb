package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jander99/overture-sub000/internal/errors"
)

func decl(command string, args ...string) *ServerDecl {
	return &ServerDecl{Command: command, Args: args}
}

func TestMergeNilInputs(t *testing.T) {
	_, err := Merge(nil, nil)
	require.ErrorIs(t, err, errors.ErrNoConfig)

	g := &DeclaredConfig{Version: "1.0", MCP: map[string]*ServerDecl{"fs": decl("npx")}}
	p := &DeclaredConfig{Version: "1.1", MCP: map[string]*ServerDecl{"py": decl("uvx")}}

	got, err := Merge(g, nil)
	require.NoError(t, err)
	assert.Equal(t, g, got)

	got, err = Merge(nil, p)
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestMergeWholeEntryOverride(t *testing.T) {
	g := &DeclaredConfig{
		Version: "1.0",
		MCP: map[string]*ServerDecl{
			"filesystem": {Command: "npx", Args: []string{"-y", "server-fs"}, Transport: TransportStdio},
			"github":     {Command: "npx", Env: map[string]string{"GITHUB_TOKEN": "${GITHUB_TOKEN}"}},
		},
	}
	p := &DeclaredConfig{
		MCP: map[string]*ServerDecl{
			"filesystem":  {Command: "deno", Transport: TransportHTTP},
			"python-repl": {Command: "uvx", Args: []string{"mcp-python"}},
		},
	}

	got, err := Merge(g, p)
	require.NoError(t, err)

	// Union of keys.
	assert.Len(t, got.MCP, 3)

	// Key in both resolves entirely to the project definition: the global
	// entry's args must not bleed through.
	assert.Equal(t, p.MCP["filesystem"], got.MCP["filesystem"])
	assert.Empty(t, got.MCP["filesystem"].Args)
	assert.Equal(t, TransportHTTP, got.MCP["filesystem"].Transport)

	assert.Equal(t, p.MCP["python-repl"], got.MCP["python-repl"])
	assert.Equal(t, g.MCP["github"], got.MCP["github"])

	// Version: project absent, global wins.
	assert.Equal(t, "1.0", got.Version)
}

func TestMergeVersionProjectWins(t *testing.T) {
	g := &DeclaredConfig{Version: "1.0", MCP: map[string]*ServerDecl{}}
	p := &DeclaredConfig{Version: "2.0", MCP: map[string]*ServerDecl{}}

	got, err := Merge(g, p)
	require.NoError(t, err)
	assert.Equal(t, "2.0", got.Version)
}

func TestMergeClientsAndSyncKeyByKey(t *testing.T) {
	off := false
	on := true
	g := &DeclaredConfig{
		Clients: map[string]*ClientSettings{
			"claude-code": {Enabled: &on},
			"cursor":      {Enabled: &on},
		},
		Sync: &SyncOptions{Backup: &on, MergeStrategy: "replace"},
		MCP:  map[string]*ServerDecl{},
	}
	p := &DeclaredConfig{
		Clients: map[string]*ClientSettings{
			"cursor": {Enabled: &off},
			"codex":  {},
		},
		Sync: &SyncOptions{Backup: &off},
		MCP:  map[string]*ServerDecl{},
	}

	got, err := Merge(g, p)
	require.NoError(t, err)

	assert.True(t, got.Clients["claude-code"].IsEnabled())
	assert.False(t, got.Clients["cursor"].IsEnabled())
	assert.Contains(t, got.Clients, "codex")

	assert.False(t, got.Sync.BackupEnabled())
	assert.Equal(t, "replace", got.Sync.MergeStrategy)
}

func TestMergeDoesNotMutateInputs(t *testing.T) {
	g := &DeclaredConfig{MCP: map[string]*ServerDecl{"fs": decl("npx", "a")}}
	p := &DeclaredConfig{MCP: map[string]*ServerDecl{"fs": decl("deno")}}

	got, err := Merge(g, p)
	require.NoError(t, err)

	got.MCP["fs"].Command = "mutated"
	got.MCP["new"] = decl("x")

	assert.Equal(t, "npx", g.MCP["fs"].Command)
	assert.Equal(t, "deno", p.MCP["fs"].Command)
	assert.NotContains(t, p.MCP, "new")
}

func TestForClientOverrides(t *testing.T) {
	d := &ServerDecl{
		Command: "npx",
		Args:    []string{"-y", "server"},
		Env:     map[string]string{"A": "1"},
		Clients: &ClientSelector{
			Overrides: map[string]*ServerOverride{
				"codex": {Command: "bunx", Env: map[string]string{"B": "2"}},
			},
		},
	}

	plain := d.ForClient("cursor")
	assert.Equal(t, "npx", plain.Command)

	ov := d.ForClient("codex")
	assert.Equal(t, "bunx", ov.Command)
	assert.Equal(t, []string{"-y", "server"}, ov.Args)
	assert.Equal(t, map[string]string{"A": "1", "B": "2"}, ov.Env)

	// Receiver untouched.
	assert.Equal(t, "npx", d.Command)
	assert.Equal(t, map[string]string{"A": "1"}, d.Env)
}

func TestEffectivePlatformOverrides(t *testing.T) {
	d := &ServerDecl{
		Command: "npx",
		Args:    []string{"-y", "server"},
		Platforms: &PlatformSelector{
			CommandOverrides: map[string]string{"windows": "npx.cmd"},
			ArgsOverrides:    map[string][]string{"wsl": {"--wsl", "server"}},
		},
	}

	assert.Equal(t, "npx.cmd", d.EffectiveCommand("windows"))
	assert.Equal(t, "npx", d.EffectiveCommand("linux"))
	assert.Equal(t, []string{"--wsl", "server"}, d.EffectiveArgs("wsl"))
	assert.Equal(t, []string{"-y", "server"}, d.EffectiveArgs("darwin"))
}
