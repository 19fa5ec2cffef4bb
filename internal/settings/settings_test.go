package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Viper state is process-global, so the defaults case runs before any test
// that points it at an explicit file.
func TestLoadDefaultsWithoutFile(t *testing.T) {
	s, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 1, s.Version)
	assert.Equal(t, "text", s.LogFormat)
	assert.Equal(t, 10, s.BackupRetain)
	assert.NotEmpty(t, s.BackupDir)
}

func TestLoadExplicitFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"log_format: json\nbackup_retain: 3\nbackup_dir: /tmp/overture-backups\n"), 0o644))

	s, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "json", s.LogFormat)
	assert.Equal(t, 3, s.BackupRetain)
	assert.Equal(t, "/tmp/overture-backups", s.BackupDir)
	assert.Equal(t, 1, s.Version, "unset keys fall back to defaults")
}

func TestLoadExplicitFileMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}
