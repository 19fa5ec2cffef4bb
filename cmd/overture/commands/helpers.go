package commands

import (
	"os"
	"path/filepath"

	cmdmeta "github.com/jander99/overture-sub000/cmd"
	"github.com/jander99/overture-sub000/internal/backup"
	"github.com/jander99/overture-sub000/internal/client"
	"github.com/jander99/overture-sub000/internal/client/claudecode"
	"github.com/jander99/overture-sub000/internal/client/codex"
	"github.com/jander99/overture-sub000/internal/client/cursor"
	"github.com/jander99/overture-sub000/internal/config"
	"github.com/jander99/overture-sub000/internal/errors"
	"github.com/jander99/overture-sub000/internal/paths"
	"github.com/jander99/overture-sub000/internal/settings"
)

// buildRegistry registers the built-in client adapters.
func buildRegistry() (*client.Registry, error) {
	reg := client.NewRegistry()
	for _, c := range []client.Client{claudecode.New(), cursor.New(), codex.New()} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// currentPlatform resolves the platform, honoring the --platform override.
func currentPlatform() string {
	if platformFlag != "" {
		return platformFlag
	}
	return paths.Current()
}

// projectRoot resolves the project directory, honoring --project.
func projectRoot() (string, error) {
	if projectFlag != "" {
		abs, err := filepath.Abs(projectFlag)
		if err != nil {
			return "", errors.Wrapf(err, "resolving --project %s", projectFlag)
		}
		return abs, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", errors.Wrap(err, "resolving working directory")
	}
	return wd, nil
}

// loadMerged loads the user and project configs and merges them.
// A missing user config is fine; a missing project config is fine; both
// missing is ErrNoConfig.
func loadMerged() (*config.DeclaredConfig, string, error) {
	root, err := projectRoot()
	if err != nil {
		return nil, "", err
	}

	userPath := paths.UserConfigPath()
	user, err := config.LoadOptional(userPath)
	if err != nil {
		return nil, "", err
	}

	project, err := config.LoadOptional(paths.ProjectConfigPath(root))
	if err != nil {
		return nil, "", err
	}

	merged, err := config.Merge(user, project)
	if err != nil {
		if errors.Is(err, errors.ErrNoConfig) {
			return nil, "", errors.NewUserError(err,
				"create "+userPath+" or a project overture.yaml first")
		}
		return nil, "", err
	}
	return merged, root, nil
}

// newBackupManager builds the backup manager from tool settings.
func newBackupManager() *backup.Manager {
	opts := []backup.Option{backup.WithToolVersion(cmdmeta.Version)}
	if s, err := settings.Load(""); err == nil {
		if s.BackupDir != "" {
			opts = append(opts, backup.WithDir(s.BackupDir))
		}
		opts = append(opts, backup.WithRetention(s.BackupRetain))
	}
	return backup.NewManager(opts...)
}

// managedNames returns the server names the merged config declares.
func managedNames(merged *config.DeclaredConfig) map[string]struct{} {
	names := make(map[string]struct{}, len(merged.MCP))
	for name := range merged.MCP {
		names[name] = struct{}{}
	}
	return names
}
