// Package plugin installs declared tool plugins by shelling out to each
// target tool's own plugin command.
//
// Installs run strictly sequentially: the tools' plugin CLIs mutate shared
// state under their own config directories, and concurrent invocations are
// not safe.
package plugin

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	"github.com/jander99/overture-sub000/internal/errors"
	"github.com/jander99/overture-sub000/internal/runner"
)

// InstallResult records the outcome of one plugin install.
type InstallResult struct {
	Plugin  string
	Source  string
	Skipped bool
	Err     error
}

// Installer installs plugins via an external command runner.
type Installer struct {
	runner runner.Runner
	logger *slog.Logger
}

// NewInstaller creates an Installer.
func NewInstaller(r runner.Runner, logger *slog.Logger) *Installer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Installer{runner: r, logger: logger}
}

// InstallAll installs every declared plugin in lexicographic order, one at
// a time. Failures do not stop the remaining installs; the returned results
// hold one entry per plugin, and the error aggregates any failures.
func (i *Installer) InstallAll(ctx context.Context, plugins map[string]string) ([]InstallResult, error) {
	names := make([]string, 0, len(plugins))
	for name := range plugins {
		names = append(names, name)
	}
	slices.Sort(names)

	results := make([]InstallResult, 0, len(names))
	var failed []string
	for _, name := range names {
		result := i.install(ctx, name, plugins[name])
		results = append(results, result)
		if result.Err != nil {
			failed = append(failed, name)
		}
	}

	if len(failed) > 0 {
		return results, errors.Newf("plugin install failed for %s", strings.Join(failed, ", "))
	}
	return results, nil
}

// install runs one plugin install via `claude plugin install <source>`.
func (i *Installer) install(ctx context.Context, name, source string) InstallResult {
	result := InstallResult{Plugin: name, Source: source}

	if err := ctx.Err(); err != nil {
		result.Err = err
		return result
	}

	i.logger.Debug("installing plugin", "plugin", name, "source", source)
	run, err := i.runner.Run(ctx, "claude", "plugin", "install", source)
	if err != nil {
		result.Err = errors.Wrapf(err, "installing plugin %s", name)
		return result
	}
	if run.ExitCode != 0 {
		if strings.Contains(run.Stderr, "already installed") {
			result.Skipped = true
			i.logger.Debug("plugin already installed", "plugin", name)
			return result
		}
		result.Err = errors.Newf("installing plugin %s: exit %d: %s",
			name, run.ExitCode, strings.TrimSpace(run.Stderr))
		return result
	}

	i.logger.Info("installed plugin", "plugin", name)
	return result
}
