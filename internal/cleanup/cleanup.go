// Package cleanup removes directory-scoped native entries that the
// declarative model now manages, leaving everything else in place.
//
// A directory qualifies only when it carries its own project-level
// declarative config and its native override section duplicates names that
// config manages. Affected files are backed up before mutation; dry-run
// computes the identical result without touching disk.
package cleanup

import (
	"context"
	"log/slog"
	"slices"

	"github.com/jander99/overture-sub000/internal/backup"
	"github.com/jander99/overture-sub000/internal/client"
	"github.com/jander99/overture-sub000/internal/config"
	"github.com/jander99/overture-sub000/internal/errors"
	"github.com/jander99/overture-sub000/internal/lock"
	"github.com/jander99/overture-sub000/internal/paths"
)

// Target is one directory-scoped section eligible for cleanup.
type Target struct {
	// Client is the owning client identifier.
	Client string

	// Path is the native file holding the section.
	Path string

	// Directory is the override directory key.
	Directory string

	// McpsToRemove are managed names to delete from the section.
	McpsToRemove []string

	// McpsToPreserve are unmanaged names that must stay untouched.
	McpsToPreserve []string
}

// Result aggregates one cleanup run.
type Result struct {
	DirectoriesCleaned int
	McpsRemoved        int
	McpsPreserved      int

	// BackupPaths lists the backups taken before mutation, empty on dry-run.
	BackupPaths []string
}

// Engine finds and executes cleanup targets.
type Engine struct {
	registry *client.Registry
	backups  *backup.Manager
	platform string
	logger   *slog.Logger
}

// NewEngine creates a cleanup Engine.
func NewEngine(reg *client.Registry, backups *backup.Manager, platform string, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{registry: reg, backups: backups, platform: platform, logger: logger}
}

// FindTargets walks directory-scoped clients and returns every override
// section that duplicates names managed by that directory's own declarative
// config. global is the user-level declared config merged under each
// directory's project config to decide management.
func (e *Engine) FindTargets(global *config.DeclaredConfig) ([]Target, error) {
	var targets []Target

	for _, c := range e.registry.All() {
		ds, ok := c.(client.DirectoryScoped)
		if !ok {
			continue
		}
		path := c.ConfigPaths(e.platform, "").User
		if path == "" {
			continue
		}

		scopes, err := ds.ReadDirectoryScopes(path)
		if err != nil {
			return nil, errors.Wrapf(err, "reading directory scopes for %s", c.Name())
		}

		dirs := make([]string, 0, len(scopes))
		for dir := range scopes {
			dirs = append(dirs, dir)
		}
		slices.Sort(dirs)

		for _, dir := range dirs {
			managed, err := managedNames(global, dir)
			if err != nil {
				return nil, err
			}
			if managed == nil {
				// No project-level declarative config; not a candidate.
				continue
			}

			target := Target{Client: c.Name(), Path: path, Directory: dir}
			for _, name := range scopes[dir].Names() {
				if _, ok := managed[name]; ok {
					target.McpsToRemove = append(target.McpsToRemove, name)
				} else {
					target.McpsToPreserve = append(target.McpsToPreserve, name)
				}
			}
			if len(target.McpsToRemove) > 0 {
				targets = append(targets, target)
			}
		}
	}
	return targets, nil
}

// managedNames loads the directory's own declarative config, merges the
// global one beneath it, and returns the managed server names. Returns nil
// when the directory has no declarative config.
func managedNames(global *config.DeclaredConfig, dir string) (map[string]struct{}, error) {
	projectPath := paths.ProjectConfigPath(dir)
	project, err := config.LoadOptional(projectPath)
	if err != nil {
		return nil, errors.Wrapf(err, "loading project config in %s", dir)
	}
	if project == nil {
		return nil, nil
	}

	merged, err := config.Merge(global, project)
	if err != nil {
		return nil, errors.Wrapf(err, "merging config for %s", dir)
	}

	names := make(map[string]struct{}, len(merged.MCP))
	for name := range merged.MCP {
		names[name] = struct{}{}
	}
	return names, nil
}

// Execute applies the targets. With dryRun the same counts are computed and
// returned, but no backups are taken and no file is written.
func (e *Engine) Execute(ctx context.Context, targets []Target, dryRun bool) (*Result, error) {
	result := &Result{}

	for _, target := range targets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		result.DirectoriesCleaned++
		result.McpsRemoved += len(target.McpsToRemove)
		result.McpsPreserved += len(target.McpsToPreserve)
		if dryRun {
			continue
		}

		c, err := e.registry.Get(target.Client)
		if err != nil {
			return nil, err
		}
		ds, ok := c.(client.DirectoryScoped)
		if !ok {
			return nil, errors.Newf("client %s is not directory scoped", target.Client)
		}

		if err := e.cleanTarget(ctx, ds, target, result); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// cleanTarget backs up and rewrites one section under the same per-path
// lock sync uses, so a concurrent sync of the same file cannot interleave.
func (e *Engine) cleanTarget(ctx context.Context, ds client.DirectoryScoped, target Target, result *Result) error {
	l, err := lock.Acquire(ctx, target.Path+".lock", "cleanup")
	if err != nil {
		return errors.Wrapf(err, "locking %s", target.Path)
	}
	defer l.Release()

	manifest, err := e.backups.Snapshot(target.Client, []string{target.Path})
	if err != nil {
		return errors.Wrapf(err, "backing up %s", target.Path)
	}
	result.BackupPaths = append(result.BackupPaths, manifest.ID)

	scopes, err := ds.ReadDirectoryScopes(target.Path)
	if err != nil {
		return errors.Wrapf(err, "re-reading %s", target.Path)
	}
	section, ok := scopes[target.Directory]
	if !ok {
		return nil
	}

	for _, name := range target.McpsToRemove {
		delete(section.Servers, name)
	}

	// An emptied section with no preserved payload is dropped entirely.
	if len(section.Servers) == 0 && len(section.Extra) == 0 {
		section = nil
	}
	if err := ds.WriteDirectoryScope(target.Path, target.Directory, section); err != nil {
		return errors.Wrapf(err, "writing %s", target.Path)
	}

	e.logger.Info("cleaned directory scope",
		"client", target.Client,
		"directory", target.Directory,
		"removed", len(target.McpsToRemove),
		"preserved", len(target.McpsToPreserve))
	return nil
}
