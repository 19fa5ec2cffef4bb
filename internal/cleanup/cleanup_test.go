package cleanup

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jander99/overture-sub000/internal/backup"
	"github.com/jander99/overture-sub000/internal/client"
	"github.com/jander99/overture-sub000/internal/client/claudecode"
	"github.com/jander99/overture-sub000/internal/errors"
	"github.com/jander99/overture-sub000/internal/lock"
	"github.com/jander99/overture-sub000/internal/logging"
)

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
}

// fixture sets up a claude-code store with one directory scope for a
// project that declares "github", plus one undeclared server.
func fixture(t *testing.T) (home, project string, eng *Engine) {
	t.Helper()
	home = t.TempDir()
	project = t.TempDir()

	writeFile(t, filepath.Join(project, "overture.yaml"), `version: 1
mcp:
  github:
    command: npx
`)
	writeFile(t, filepath.Join(home, ".claude.json"), `{
  "theme": "dark",
  "mcpServers": {"global-srv": {"command": "g"}},
  "`+project+`": {
    "mcpServers": {
      "github": {"command": "npx"},
      "scratch": {"command": "python"}
    }
  }
}`)

	reg := client.NewRegistry()
	require.NoError(t, reg.Register(claudecode.NewWithHome(home)))
	backups := backup.NewManager(backup.WithDir(filepath.Join(home, "backups")))
	eng = NewEngine(reg, backups, "linux", logging.NewDiscard())
	return home, project, eng
}

func TestFindTargets(t *testing.T) {
	_, project, eng := fixture(t)

	targets, err := eng.FindTargets(nil)
	require.NoError(t, err)
	require.Len(t, targets, 1)

	target := targets[0]
	assert.Equal(t, "claude-code", target.Client)
	assert.Equal(t, project, target.Directory)
	assert.Equal(t, []string{"github"}, target.McpsToRemove)
	assert.Equal(t, []string{"scratch"}, target.McpsToPreserve)
}

func TestFindTargetsSkipsDirsWithoutProjectConfig(t *testing.T) {
	home := t.TempDir()
	orphan := t.TempDir() // no overture.yaml here

	writeFile(t, filepath.Join(home, ".claude.json"), `{
  "`+orphan+`": {"mcpServers": {"github": {"command": "npx"}}}
}`)

	reg := client.NewRegistry()
	require.NoError(t, reg.Register(claudecode.NewWithHome(home)))
	eng := NewEngine(reg, backup.NewManager(backup.WithDir(t.TempDir())), "linux", logging.NewDiscard())

	targets, err := eng.FindTargets(nil)
	require.NoError(t, err)
	assert.Empty(t, targets)
}

func TestExecuteRemovesManagedPreservesRest(t *testing.T) {
	home, project, eng := fixture(t)

	targets, err := eng.FindTargets(nil)
	require.NoError(t, err)

	result, err := eng.Execute(context.Background(), targets, false)
	require.NoError(t, err)
	assert.Equal(t, 1, result.DirectoriesCleaned)
	assert.Equal(t, 1, result.McpsRemoved)
	assert.Equal(t, 1, result.McpsPreserved)
	assert.Len(t, result.BackupPaths, 1)

	c := claudecode.NewWithHome(home)
	storePath := filepath.Join(home, ".claude.json")
	scopes, err := c.ReadDirectoryScopes(storePath)
	require.NoError(t, err)
	require.Contains(t, scopes, project)
	assert.NotContains(t, scopes[project].Servers, "github")
	assert.Contains(t, scopes[project].Servers, "scratch")

	// Global section and unrelated payload stay intact.
	global, err := c.ReadConfig(storePath)
	require.NoError(t, err)
	assert.Contains(t, global.Servers, "global-srv")
	assert.Contains(t, global.Extra, "theme")
}

func TestExecuteDryRunParity(t *testing.T) {
	home, _, eng := fixture(t)
	storePath := filepath.Join(home, ".claude.json")
	before, err := os.ReadFile(storePath)
	require.NoError(t, err)

	targets, err := eng.FindTargets(nil)
	require.NoError(t, err)

	dry, err := eng.Execute(context.Background(), targets, true)
	require.NoError(t, err)

	after, err := os.ReadFile(storePath)
	require.NoError(t, err)
	assert.Equal(t, before, after, "dry-run must not write")
	assert.Empty(t, dry.BackupPaths)

	wet, err := eng.Execute(context.Background(), targets, false)
	require.NoError(t, err)
	assert.Equal(t, dry.DirectoriesCleaned, wet.DirectoriesCleaned)
	assert.Equal(t, dry.McpsRemoved, wet.McpsRemoved)
	assert.Equal(t, dry.McpsPreserved, wet.McpsPreserved)
}

func TestExecuteBlockedByHeldLock(t *testing.T) {
	home, _, eng := fixture(t)
	storePath := filepath.Join(home, ".claude.json")
	before, err := os.ReadFile(storePath)
	require.NoError(t, err)

	held, err := lock.Acquire(context.Background(), storePath+".lock", "sync")
	require.NoError(t, err)
	defer held.Release()

	targets, err := eng.FindTargets(nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	_, err = eng.Execute(ctx, targets, false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrLockUnavailable))

	after, err := os.ReadFile(storePath)
	require.NoError(t, err)
	assert.Equal(t, before, after, "a locked store must not be touched")
}

func TestExecuteReleasesLock(t *testing.T) {
	home, _, eng := fixture(t)
	storePath := filepath.Join(home, ".claude.json")

	targets, err := eng.FindTargets(nil)
	require.NoError(t, err)
	_, err = eng.Execute(context.Background(), targets, false)
	require.NoError(t, err)

	_, err = os.Stat(storePath + ".lock")
	assert.True(t, os.IsNotExist(err))
}

func TestExecuteDropsEmptiedSection(t *testing.T) {
	home := t.TempDir()
	project := t.TempDir()

	writeFile(t, filepath.Join(project, "overture.yaml"), `version: 1
mcp:
  github:
    command: npx
`)
	writeFile(t, filepath.Join(home, ".claude.json"), `{
  "`+project+`": {"mcpServers": {"github": {"command": "npx"}}}
}`)

	reg := client.NewRegistry()
	require.NoError(t, reg.Register(claudecode.NewWithHome(home)))
	eng := NewEngine(reg, backup.NewManager(backup.WithDir(t.TempDir())), "linux", logging.NewDiscard())

	targets, err := eng.FindTargets(nil)
	require.NoError(t, err)
	_, err = eng.Execute(context.Background(), targets, false)
	require.NoError(t, err)

	scopes, err := claudecode.NewWithHome(home).ReadDirectoryScopes(filepath.Join(home, ".claude.json"))
	require.NoError(t, err)
	assert.NotContains(t, scopes, project)
}
