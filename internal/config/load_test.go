package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jander99/overture-sub000/internal/errors"
)

const validYAML = `version: "1.0"
project:
  name: demo
mcp:
  filesystem:
    command: npx
    args: ["-y", "@modelcontextprotocol/server-filesystem", "."]
    transport: stdio
  github:
    command: npx
    args: ["-y", "@modelcontextprotocol/server-github"]
    env:
      GITHUB_TOKEN: "${GITHUB_TOKEN}"
    clients:
      exclude: [codex]
sync:
  backup: true
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "overture.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadValid(t *testing.T) {
	cfg, err := Load(writeConfig(t, validYAML))
	require.NoError(t, err)

	assert.Equal(t, "1.0", cfg.Version)
	assert.Equal(t, "demo", cfg.Project.Name)
	require.Contains(t, cfg.MCP, "github")
	assert.Equal(t, "${GITHUB_TOKEN}", cfg.MCP["github"].Env["GITHUB_TOKEN"])
	assert.Equal(t, []string{"codex"}, cfg.MCP["github"].Clients.Exclude)
	assert.True(t, cfg.Sync.BackupEnabled())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.ErrorIs(t, err, errors.ErrNotFound)

	cfg, err := LoadOptional(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Nil(t, cfg)
}

func TestLoadParseErrorHasPosition(t *testing.T) {
	_, err := Load(writeConfig(t, "version: \"1.0\"\nmcp:\n  bad: [unclosed\n"))
	require.Error(t, err)

	var le *errors.LoadError
	require.ErrorAs(t, err, &le)
	assert.Greater(t, le.Line, 0, "line should be 1-indexed and set")
}

func TestLoadDeprecatedScopeField(t *testing.T) {
	_, err := Load(writeConfig(t, `version: "1.0"
mcp:
  github:
    command: npx
    scope: global
`))
	require.Error(t, err)

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	require.NotEmpty(t, ve.Issues)

	first := ve.Issues[0]
	assert.Equal(t, CodeDeprecatedField, first.Code)
	assert.Equal(t, []string{"mcp", "github", "scope"}, first.Path)
	assert.Contains(t, first.Message, "scope")
	assert.NotEmpty(t, first.Suggestion)
}

func TestLoadDeprecatedScopeOrderedFirst(t *testing.T) {
	// Even with other schema errors present, the deprecated-field issue
	// leads so the migration message is what the user sees first.
	_, err := Load(writeConfig(t, `version: "1.0"
bogus: true
mcp:
  github:
    command: npx
    scope: project
`))
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	require.GreaterOrEqual(t, len(ve.Issues), 2)
	assert.Equal(t, CodeDeprecatedField, ve.Issues[0].Code)
}

func TestLoadUnknownFields(t *testing.T) {
	_, err := Load(writeConfig(t, `version: "1.0"
mcp:
  fs:
    command: npx
    comand: typo
`))
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	require.Len(t, ve.Issues, 1)
	assert.Equal(t, CodeUnknownField, ve.Issues[0].Code)
	assert.Equal(t, []string{"mcp", "fs", "comand"}, ve.Issues[0].Path)
}

func TestLoadExcludeIncludeConflict(t *testing.T) {
	_, err := Load(writeConfig(t, `version: "1.0"
mcp:
  fs:
    command: npx
    clients:
      exclude: [cursor]
      include: [claude-code]
`))
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)

	found := false
	for _, issue := range ve.Issues {
		if issue.Code == CodeConflictingFields {
			found = true
			assert.Equal(t, []string{"mcp", "fs", "clients"}, issue.Path)
		}
	}
	assert.True(t, found, "expected a conflicting_fields issue")
}

func TestLoadMissingCommand(t *testing.T) {
	_, err := Load(writeConfig(t, `version: "1.0"
mcp:
  fs:
    args: ["x"]
`))
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	require.Len(t, ve.Issues, 1)
	assert.Equal(t, CodeMissingField, ve.Issues[0].Code)
	assert.Equal(t, []string{"mcp", "fs", "command"}, ve.Issues[0].Path)
}

func TestLoadInvalidTransport(t *testing.T) {
	_, err := Load(writeConfig(t, `version: "1.0"
mcp:
  fs:
    command: npx
    transport: websocket
`))
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	require.Len(t, ve.Issues, 1)
	assert.Equal(t, CodeInvalidValue, ve.Issues[0].Code)
}

func TestLoadRequiresMCPSection(t *testing.T) {
	_, err := Load(writeConfig(t, "version: \"1.0\"\n"))
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	require.Len(t, ve.Issues, 1)
	assert.Equal(t, []string{"mcp"}, ve.Issues[0].Path)

	// An explicitly empty map satisfies the requirement.
	cfg, err := Load(writeConfig(t, "version: \"1.0\"\nmcp: {}\n"))
	require.NoError(t, err)
	assert.Empty(t, cfg.MCP)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	g, err := Load(writeConfig(t, validYAML))
	require.NoError(t, err)
	p := &DeclaredConfig{
		Version: "1.0",
		MCP: map[string]*ServerDecl{
			"filesystem":  {Command: "deno", Transport: TransportHTTP},
			"python-repl": {Command: "uvx", Args: []string{"mcp-python"}},
		},
	}

	merged, err := Merge(g, p)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "merged.yaml")
	require.NoError(t, Save(path, merged))

	reloaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, merged.MCP, reloaded.MCP)
}
