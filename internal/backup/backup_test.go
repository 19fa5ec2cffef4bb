package backup

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jander99/overture-sub000/internal/errors"
)

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
}

func TestSnapshotAndRestore(t *testing.T) {
	work := t.TempDir()
	target := filepath.Join(work, ".cursor", "mcp.json")
	writeFile(t, target, `{"mcpServers":{}}`)

	m := NewManager(WithDir(filepath.Join(work, "backups")), WithToolVersion("test"))

	manifest, err := m.Snapshot("cursor", []string{target})
	require.NoError(t, err)
	require.Len(t, manifest.Files, 1)
	assert.Equal(t, target, manifest.Files[0].OriginalPath)
	assert.NotEmpty(t, manifest.Files[0].SHA256)
	assert.Equal(t, "test", manifest.ToolVersion)

	// Clobber the file, then restore.
	writeFile(t, target, "garbage")
	require.NoError(t, m.Restore("cursor", manifest.ID))

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, `{"mcpServers":{}}`, string(data))

	info, err := os.Stat(target)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestSnapshotSkipsMissingPaths(t *testing.T) {
	work := t.TempDir()
	target := filepath.Join(work, "config.toml")
	writeFile(t, target, "model = \"o3\"\n")

	m := NewManager(WithDir(filepath.Join(work, "backups")))
	manifest, err := m.Snapshot("codex", []string{
		filepath.Join(work, "absent.json"),
		target,
	})
	require.NoError(t, err)
	assert.Len(t, manifest.Files, 1)
}

func TestSnapshotNothingToCopy(t *testing.T) {
	work := t.TempDir()
	m := NewManager(WithDir(filepath.Join(work, "backups")))

	_, err := m.Snapshot("cursor", []string{filepath.Join(work, "absent.json")})
	assert.True(t, errors.Is(err, ErrNoBackups))
}

func TestListNewestFirstAndPrune(t *testing.T) {
	work := t.TempDir()
	target := filepath.Join(work, "mcp.json")
	writeFile(t, target, "{}")

	m := NewManager(WithDir(filepath.Join(work, "backups")), WithRetention(2))

	// Snapshot IDs have second granularity; stamp distinct IDs directly.
	ids := []string{"20260829T100000", "20260829T110000", "20260829T120000"}
	for _, id := range ids {
		manifest, err := m.Snapshot("cursor", []string{target})
		require.NoError(t, err)
		old := m.backupDir("cursor", manifest.ID)
		require.NoError(t, os.Rename(old, m.backupDir("cursor", id)))
	}

	manifests, err := m.List("cursor")
	require.NoError(t, err)
	require.Len(t, manifests, 3)

	require.NoError(t, m.Prune("cursor"))
	manifests, err = m.List("cursor")
	require.NoError(t, err)
	assert.Len(t, manifests, 2)
}

func TestRestoreDetectsCorruption(t *testing.T) {
	work := t.TempDir()
	target := filepath.Join(work, "mcp.json")
	writeFile(t, target, "{}")

	m := NewManager(WithDir(filepath.Join(work, "backups")))
	manifest, err := m.Snapshot("cursor", []string{target})
	require.NoError(t, err)

	stored := filepath.Join(m.backupDir("cursor", manifest.ID), manifest.Files[0].RelPath)
	writeFile(t, stored, "tampered")

	err = m.Restore("cursor", manifest.ID)
	assert.True(t, errors.Is(err, ErrCorrupted))
}

func TestListNoBackups(t *testing.T) {
	m := NewManager(WithDir(filepath.Join(t.TempDir(), "backups")))
	_, err := m.List("cursor")
	assert.True(t, errors.Is(err, ErrNoBackups))
}

func TestGetUnknownID(t *testing.T) {
	m := NewManager(WithDir(filepath.Join(t.TempDir(), "backups")))
	_, err := m.Get("cursor", "20260101T000000")
	assert.True(t, errors.Is(err, ErrNoBackups))
}
