// Package sync reconciles the merged declarative config against every
// registered client's native files.
//
// Per client: filter applicable servers, translate them to the native
// shape, diff against what is on disk, and only when something changed take
// a backup, acquire the scope lock, fold the managed entries into the
// native snapshot, and write atomically. Translation and diffing fan out
// across clients; one client's failure never blocks another's write.
package sync

import (
	"context"
	"log/slog"
	"path/filepath"
	gosync "sync"
	"time"

	"github.com/jander99/overture-sub000/internal/backup"
	"github.com/jander99/overture-sub000/internal/client"
	"github.com/jander99/overture-sub000/internal/config"
	"github.com/jander99/overture-sub000/internal/diff"
	"github.com/jander99/overture-sub000/internal/errors"
	"github.com/jander99/overture-sub000/internal/expand"
	"github.com/jander99/overture-sub000/internal/filter"
	"github.com/jander99/overture-sub000/internal/lock"
)

// Options controls one sync run.
type Options struct {
	// DryRun computes and reports diffs without writing.
	DryRun bool

	// Clients restricts the run to these client names. Empty means all.
	Clients []string

	// Timeout bounds lock acquisition per client. Zero means a default.
	Timeout time.Duration

	// Scope selects which config file each client targets: "user" or
	// "project". Project falls back to the user path for clients without
	// a project file.
	Scope string
}

// DefaultLockTimeout bounds how long a sync waits on a contended lock.
const DefaultLockTimeout = 10 * time.Second

// ClientResult is one client's outcome.
type ClientResult struct {
	// Client is the client identifier.
	Client string

	// Path is the native file the run targeted.
	Path string

	// Filter summarizes which declared servers applied.
	Filter *filter.Summary

	// Diff is the computed change set, present even on dry-run.
	Diff *diff.Result

	// Written reports whether the file was rewritten.
	Written bool

	// BackupID identifies the pre-write backup, when one was taken.
	BackupID string

	// Err is the client's failure, if any.
	Err error
}

// Report aggregates a sync run.
type Report struct {
	Results []ClientResult
	DryRun  bool
}

// Changed reports whether any client had pending changes.
func (r *Report) Changed() bool {
	for _, res := range r.Results {
		if res.Diff != nil && res.Diff.HasChanges() {
			return true
		}
	}
	return false
}

// Err returns nil when every client succeeded, otherwise a
// PartialSyncError listing the failures.
func (r *Report) Err() error {
	var failures []*errors.OperationError
	for _, res := range r.Results {
		if res.Err == nil {
			continue
		}
		var opErr *errors.OperationError
		if errors.As(res.Err, &opErr) {
			failures = append(failures, opErr)
		} else {
			failures = append(failures, &errors.OperationError{
				Client: res.Client, Step: "sync", Err: res.Err,
			})
		}
	}
	if len(failures) == 0 {
		return nil
	}
	return &errors.PartialSyncError{Failures: failures}
}

// Engine orchestrates reconciliation.
type Engine struct {
	registry    *client.Registry
	backups     *backup.Manager
	platform    string
	projectRoot string
	lockDir     string
	env         expand.Lookup
	logger      *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithEnv replaces the environment lookup used for placeholder expansion.
func WithEnv(lookup expand.Lookup) EngineOption {
	return func(e *Engine) {
		if lookup != nil {
			e.env = lookup
		}
	}
}

// WithLockDir sets where scope lock files live.
func WithLockDir(dir string) EngineOption {
	return func(e *Engine) { e.lockDir = dir }
}

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEngine creates a sync Engine.
func NewEngine(reg *client.Registry, backups *backup.Manager, platform, projectRoot string, opts ...EngineOption) *Engine {
	e := &Engine{
		registry:    reg,
		backups:     backups,
		platform:    platform,
		projectRoot: projectRoot,
		env:         expand.OSLookup,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// plan is the read-only phase output for one client.
type plan struct {
	client   client.Client
	path     string
	desired  map[string]*client.NativeServer
	existing *client.NativeConfig
	summary  *filter.Summary
	diff     *diff.Result
	err      error
}

// Sync reconciles the merged config. The returned report carries one entry
// per targeted client; call Report.Err for the aggregate failure.
func (e *Engine) Sync(ctx context.Context, merged *config.DeclaredConfig, opts Options) (*Report, error) {
	if merged == nil {
		return nil, errors.ErrNoConfig
	}

	targets, err := e.targets(merged, opts)
	if err != nil {
		return nil, err
	}

	// Phase 1: translate and diff, fanned out. Read-only, so clients
	// proceed independently.
	plans := make([]*plan, len(targets))
	var wg gosync.WaitGroup
	for i, c := range targets {
		wg.Add(1)
		go func(i int, c client.Client) {
			defer wg.Done()
			plans[i] = e.plan(c, merged, opts)
		}(i, c)
	}
	wg.Wait()

	// Phase 2: apply sequentially. Writes are cheap next to translation,
	// and serial application keeps backup/lock interleaving simple.
	report := &Report{DryRun: opts.DryRun}
	for _, p := range plans {
		result := ClientResult{Client: p.client.Name(), Path: p.path, Filter: p.summary, Diff: p.diff}
		if err := ctx.Err(); err != nil {
			result.Err = err
			report.Results = append(report.Results, result)
			continue
		}
		if p.err != nil {
			result.Err = p.err
			report.Results = append(report.Results, result)
			continue
		}
		if opts.DryRun || !p.diff.HasChanges() {
			report.Results = append(report.Results, result)
			continue
		}
		e.apply(ctx, p, &result, opts)
		report.Results = append(report.Results, result)
	}
	return report, nil
}

// targets resolves which clients this run covers.
func (e *Engine) targets(merged *config.DeclaredConfig, opts Options) ([]client.Client, error) {
	if len(opts.Clients) == 0 {
		var out []client.Client
		for _, c := range e.registry.All() {
			settings := merged.Clients[c.Name()]
			if settings != nil && !settings.IsEnabled() {
				continue
			}
			out = append(out, c)
		}
		return out, nil
	}

	out := make([]client.Client, 0, len(opts.Clients))
	for _, name := range opts.Clients {
		c, err := e.registry.Get(name)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// plan runs the read-only phase for one client.
func (e *Engine) plan(c client.Client, merged *config.DeclaredConfig, opts Options) *plan {
	p := &plan{client: c, path: e.targetPath(c, opts)}
	if p.path == "" {
		p.err = &errors.OperationError{Client: c.Name(), Step: "resolve-path",
			Err: errors.New("no config path for this platform")}
		return p
	}

	applicable, summary := filter.ForClient(merged.MCP, c, e.platform)
	p.summary = summary

	p.desired = make(map[string]*client.NativeServer, len(applicable))
	for name, decl := range applicable {
		srv, err := c.FromDeclaration(name, decl.ForClient(c.Name()), e.platform)
		if err != nil {
			p.err = &errors.OperationError{Client: c.Name(), Step: "translate", Err: err}
			return p
		}
		if c.NeedsEnvExpansion() {
			if err := e.expandEnv(srv); err != nil {
				p.err = &errors.OperationError{Client: c.Name(), Step: "expand-env",
					Err: errors.Wrapf(err, "server %s", name)}
				return p
			}
		}
		p.desired[name] = srv
	}

	existing, err := c.ReadConfig(p.path)
	if err != nil {
		p.err = &errors.OperationError{Client: c.Name(), Step: "read", Err: err}
		return p
	}
	p.existing = existing
	p.diff = diff.Compare(managedView(existing, p.desired), desiredView(p.desired))
	return p
}

// expandEnv resolves ${VAR} placeholders in a translated server's env.
func (e *Engine) expandEnv(srv *client.NativeServer) error {
	if len(srv.Env) == 0 {
		return nil
	}
	expanded, err := expand.ExpandAll(srv.Env, e.env)
	if err != nil {
		return err
	}
	srv.Env = expanded
	return nil
}

// managedView restricts an existing snapshot to the names sync manages, so
// unmanaged servers never show up as removals.
func managedView(existing *client.NativeConfig, desired map[string]*client.NativeServer) *client.NativeConfig {
	view := client.NewNativeConfig()
	for name, srv := range existing.Servers {
		if _, ok := desired[name]; ok {
			view.Servers[name] = srv
		}
	}
	return view
}

func desiredView(desired map[string]*client.NativeServer) *client.NativeConfig {
	view := client.NewNativeConfig()
	for name, srv := range desired {
		view.Servers[name] = srv
	}
	return view
}

// apply performs backup, lock, merge, and write for one client.
func (e *Engine) apply(ctx context.Context, p *plan, result *ClientResult, opts Options) {
	name := p.client.Name()

	manifest, err := e.backups.Snapshot(name, []string{p.path})
	if err != nil && !errors.Is(err, backup.ErrNoBackups) {
		result.Err = &errors.OperationError{Client: name, Step: "backup", Err: err}
		return
	}
	if manifest != nil {
		result.BackupID = manifest.ID
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultLockTimeout
	}
	lockCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	l, err := lock.Acquire(lockCtx, e.lockPath(p.path), "sync")
	if err != nil {
		result.Err = &errors.OperationError{Client: name, Step: "lock", Err: err}
		return
	}
	defer l.Release()

	// Fold managed entries into the snapshot; unmanaged servers and Extra
	// payload ride along untouched.
	next := p.existing.Clone()
	for srvName, srv := range p.desired {
		next.Servers[srvName] = srv
	}

	if err := p.client.WriteConfig(p.path, next); err != nil {
		result.Err = &errors.OperationError{Client: name, Step: "write", Err: err}
		return
	}
	result.Written = true

	if err := e.backups.Prune(name); err != nil {
		e.logger.Warn("backup prune failed", "client", name, "error", err)
	}
	e.logger.Info("synced client", "client", name, "path", p.path, "changes", p.diff.String())
}

// targetPath picks the file a client run writes to.
func (e *Engine) targetPath(c client.Client, opts Options) string {
	paths := c.ConfigPaths(e.platform, e.projectRoot)
	if opts.Scope == "project" && paths.Project != "" {
		return paths.Project
	}
	return paths.User
}

// lockPath places the lock next to the guarded file's scope, grouped under
// a single lock directory when one is configured.
func (e *Engine) lockPath(target string) string {
	if e.lockDir == "" {
		return target + ".lock"
	}
	return filepath.Join(e.lockDir, filepath.Base(target)+".lock")
}
