// Package discovery scans the native config files of every registered
// client, classifies what it finds, and folds unmanaged servers back into
// the declarative model without re-embedding secrets.
//
// A scan walks each client's global and project files plus any
// directory-scoped override sections, builds DiscoveredMcp records, groups
// name conflicts across sources, and rewrites credential-looking env values
// to ${NAME} placeholders. Records live only for the duration of a scan;
// import promotes a selection of them into the declared config.
package discovery

import (
	"context"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"

	"github.com/jander99/overture-sub000/internal/client"
	"github.com/jander99/overture-sub000/internal/config"
	"github.com/jander99/overture-sub000/internal/errors"
	"github.com/jander99/overture-sub000/internal/expand"
	"github.com/jander99/overture-sub000/pkg/fileutil"
)

// Scan status per config location.
const (
	StatusNotFound   = "not-found"
	StatusParseError = "parse-error"
	StatusValid      = "valid"
)

// Location kinds for a discovered server's origin.
const (
	LocationGlobal    = "global"
	LocationProject   = "project"
	LocationDirectory = "directory-override"
)

// Suggested declaration scopes.
const (
	ScopeGlobal  = "global"
	ScopeProject = "project"
)

// Source identifies where a server definition was found.
type Source struct {
	// Client is the client identifier.
	Client string `json:"client"`

	// Location is a human-readable origin like "cursor (user)".
	Location string `json:"location"`

	// LocationType is global, project, or directory-override.
	LocationType string `json:"locationType"`

	// Path is the absolute file path.
	Path string `json:"path"`

	// Directory is the override directory for directory-override entries.
	Directory string `json:"directory,omitempty"`
}

// DiscoveredMcp is one server found on disk, normalized to canonical
// transport naming and with secrets already converted to placeholders.
type DiscoveredMcp struct {
	Name      string            `json:"name"`
	Command   string            `json:"command"`
	Args      []string          `json:"args,omitempty"`
	Env       map[string]string `json:"env,omitempty"`
	Transport string            `json:"transport"`
	Source    Source            `json:"source"`

	// SuggestedScope is project only when the entry came from the
	// invocation's own project root; everything else suggests global so
	// another project's override never leaks into this one.
	SuggestedScope string `json:"suggestedScope"`

	// OriginalEnv holds the pre-conversion values for audit.
	OriginalEnv map[string]string `json:"originalEnv,omitempty"`

	// EnvVarsToSet names the variables the user must export after import.
	EnvVarsToSet []string `json:"envVarsToSet,omitempty"`
}

// PathScan is the status of one scanned location.
type PathScan struct {
	Path    string `json:"path"`
	Status  string `json:"status"`
	Error   string `json:"error,omitempty"`
	Servers int    `json:"servers"`
}

// ClientScan is one client's scan state.
type ClientScan struct {
	Client string     `json:"client"`
	Paths  []PathScan `json:"paths"`
}

// ConflictRecord groups a name discovered with materially different
// definitions from two or more sources.
type ConflictRecord struct {
	Name    string          `json:"name"`
	Entries []DiscoveredMcp `json:"entries"`
}

// Summary aggregates scan counts.
type Summary struct {
	ClientsScanned int `json:"clientsScanned"`
	ServersFound   int `json:"serversFound"`
	Conflicts      int `json:"conflicts"`
}

// Report is a full discovery scan result.
type Report struct {
	Clients    []ClientScan    `json:"clients"`
	Discovered []DiscoveredMcp `json:"discovered"`
	Conflicts  []ConflictRecord `json:"conflicts"`
	Summary    Summary         `json:"summary"`
}

// Detector reports whether an env value looks like a literal credential.
type Detector func(name, value string) bool

// secretNameSuffixes are the name patterns the default detector treats as
// credentials.
var secretNameSuffixes = []string{"_TOKEN", "_KEY", "_SECRET", "_PASSWORD"}

// DefaultDetector flags non-empty, non-placeholder values whose variable
// name matches a credential pattern.
func DefaultDetector(name, value string) bool {
	if value == "" || expand.IsPlaceholder(value) {
		return false
	}
	upper := strings.ToUpper(name)
	for _, suffix := range secretNameSuffixes {
		if strings.HasSuffix(upper, suffix) {
			return true
		}
	}
	return false
}

// Scanner discovers servers across registered clients.
type Scanner struct {
	registry    *client.Registry
	detector    Detector
	platform    string
	projectRoot string
	logger      *slog.Logger
}

// ScannerOption configures a Scanner.
type ScannerOption func(*Scanner)

// WithDetector replaces the secret detector.
func WithDetector(d Detector) ScannerOption {
	return func(s *Scanner) {
		if d != nil {
			s.detector = d
		}
	}
}

// WithLogger sets the scan logger.
func WithLogger(logger *slog.Logger) ScannerOption {
	return func(s *Scanner) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewScanner creates a Scanner for a platform and project root.
func NewScanner(reg *client.Registry, platform, projectRoot string, opts ...ScannerOption) *Scanner {
	s := &Scanner{
		registry:    reg,
		detector:    DefaultDetector,
		platform:    platform,
		projectRoot: projectRoot,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan walks every registered client's config locations. One client's read
// or parse failure is recorded in its ClientScan and never aborts the scan.
func (s *Scanner) Scan(ctx context.Context) (*Report, error) {
	report := &Report{}

	for _, c := range s.registry.All() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		scan := ClientScan{Client: c.Name()}
		paths := c.ConfigPaths(s.platform, s.projectRoot)

		if paths.User != "" {
			scan.Paths = append(scan.Paths,
				s.scanPath(report, c, paths.User, LocationGlobal, ""))
		}
		if paths.Project != "" {
			scan.Paths = append(scan.Paths,
				s.scanPath(report, c, paths.Project, LocationProject, ""))
		}
		if ds, ok := c.(client.DirectoryScoped); ok && paths.User != "" {
			s.scanDirectoryScopes(report, &scan, c, ds, paths.User)
		}

		report.Clients = append(report.Clients, scan)
		report.Summary.ClientsScanned++
	}

	report.Conflicts = findConflicts(report.Discovered)
	report.Summary.ServersFound = len(report.Discovered)
	report.Summary.Conflicts = len(report.Conflicts)
	return report, nil
}

// scanPath reads one native file and appends its servers to the report.
func (s *Scanner) scanPath(report *Report, c client.Client, path, locationType, dir string) PathScan {
	ps := PathScan{Path: path, Status: StatusNotFound}

	cfg, err := c.ReadConfig(path)
	if err != nil {
		ps.Status = StatusParseError
		ps.Error = err.Error()
		s.logger.Warn("skipping unreadable config",
			"client", c.Name(), "path", path, "error", err)
		return ps
	}
	if len(cfg.Servers) == 0 {
		// An existing file with no servers is still a valid config.
		if fileutil.FileExists(path) {
			ps.Status = StatusValid
		}
		return ps
	}

	ps.Status = StatusValid
	ps.Servers = len(cfg.Servers)
	for _, name := range cfg.Names() {
		report.Discovered = append(report.Discovered,
			s.record(name, cfg.Servers[name], c, path, locationType, dir))
	}
	return ps
}

// scanDirectoryScopes walks the directory-keyed override sections of a
// single-store client.
func (s *Scanner) scanDirectoryScopes(report *Report, scan *ClientScan, c client.Client, ds client.DirectoryScoped, path string) {
	scopes, err := ds.ReadDirectoryScopes(path)
	if err != nil {
		scan.Paths = append(scan.Paths, PathScan{
			Path:   path,
			Status: StatusParseError,
			Error:  err.Error(),
		})
		s.logger.Warn("skipping unreadable directory scopes",
			"client", c.Name(), "path", path, "error", err)
		return
	}

	dirs := make([]string, 0, len(scopes))
	for dir := range scopes {
		dirs = append(dirs, dir)
	}
	slices.Sort(dirs)

	for _, dir := range dirs {
		cfg := scopes[dir]
		for _, name := range cfg.Names() {
			report.Discovered = append(report.Discovered,
				s.record(name, cfg.Servers[name], c, path, LocationDirectory, dir))
		}
	}
}

// record builds a DiscoveredMcp with secret conversion applied.
func (s *Scanner) record(name string, srv *client.NativeServer, c client.Client, path, locationType, dir string) DiscoveredMcp {
	d := DiscoveredMcp{
		Name:      name,
		Command:   srv.Command,
		Args:      append([]string(nil), srv.Args...),
		Transport: canonicalTransport(srv.Type),
		Source: Source{
			Client:       c.Name(),
			Location:     locationLabel(c, locationType, dir),
			LocationType: locationType,
			Path:         path,
			Directory:    dir,
		},
		SuggestedScope: s.suggestScope(locationType, dir),
	}

	if len(srv.Env) > 0 {
		d.Env = make(map[string]string, len(srv.Env))
		for k, v := range srv.Env {
			if s.detector(k, v) {
				if d.OriginalEnv == nil {
					d.OriginalEnv = make(map[string]string)
				}
				d.OriginalEnv[k] = v
				d.Env[k] = expand.Placeholder(k)
				d.EnvVarsToSet = append(d.EnvVarsToSet, k)
			} else {
				d.Env[k] = v
			}
		}
		slices.Sort(d.EnvVarsToSet)
	}
	return d
}

// suggestScope maps a location to the scope an import should target.
// Directory overrides suggest project only for the invocation's own root.
func (s *Scanner) suggestScope(locationType, dir string) string {
	switch locationType {
	case LocationProject:
		return ScopeProject
	case LocationDirectory:
		if s.projectRoot != "" && filepath.Clean(dir) == filepath.Clean(s.projectRoot) {
			return ScopeProject
		}
	}
	return ScopeGlobal
}

func locationLabel(c client.Client, locationType, dir string) string {
	switch locationType {
	case LocationProject:
		return c.DisplayName() + " (project)"
	case LocationDirectory:
		return c.DisplayName() + " (" + dir + ")"
	default:
		return c.DisplayName() + " (user)"
	}
}

// canonicalTransport maps a native transport tag back to the canonical
// vocabulary. Unknown tags fall back to stdio, the only transport every
// client supports.
func canonicalTransport(nativeType string) string {
	switch nativeType {
	case "", "stdio":
		return config.TransportStdio
	case "sse":
		return config.TransportSSE
	case "http", "streamableHttp", "streamable-http":
		return config.TransportHTTP
	}
	return config.TransportStdio
}

// findConflicts groups discovered entries by name and returns one record
// per name whose sources materially disagree.
func findConflicts(discovered []DiscoveredMcp) []ConflictRecord {
	byName := make(map[string][]DiscoveredMcp)
	for _, d := range discovered {
		byName[d.Name] = append(byName[d.Name], d)
	}

	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	slices.Sort(names)

	var conflicts []ConflictRecord
	for _, name := range names {
		entries := byName[name]
		if len(entries) < 2 {
			continue
		}
		// Placeholder tolerance makes the comparison non-transitive: a
		// placeholder entry agrees with every literal, yet two different
		// literals still disagree with each other. Every pair must be
		// checked so a placeholder scanning first cannot mask that.
		conflicting := false
		for i := 0; i < len(entries) && !conflicting; i++ {
			for j := i + 1; j < len(entries); j++ {
				if materiallyDifferent(&entries[i], &entries[j]) {
					conflicting = true
					break
				}
			}
		}
		if conflicting {
			conflicts = append(conflicts, ConflictRecord{Name: name, Entries: entries})
		}
	}
	return conflicts
}

// materiallyDifferent reports whether two discoveries of the same name
// disagree on command, args, or non-placeholder env values. A literal next
// to its own placeholder form is not a disagreement.
func materiallyDifferent(a, b *DiscoveredMcp) bool {
	if a.Command != b.Command {
		return true
	}
	if !slices.Equal(a.Args, b.Args) {
		return true
	}
	keys := make(map[string]struct{}, len(a.Env)+len(b.Env))
	for k := range a.Env {
		keys[k] = struct{}{}
	}
	for k := range b.Env {
		keys[k] = struct{}{}
	}
	for k := range keys {
		av, bv := a.Env[k], b.Env[k]
		if av == bv {
			continue
		}
		if expand.IsPlaceholder(av) || expand.IsPlaceholder(bv) {
			continue
		}
		return true
	}
	return false
}

// Importable returns the discoveries that are safe to promote: not already
// managed, not conflicting, deduplicated by name in scan order.
func Importable(report *Report, managed map[string]struct{}) []DiscoveredMcp {
	conflicting := make(map[string]struct{}, len(report.Conflicts))
	for _, c := range report.Conflicts {
		conflicting[c.Name] = struct{}{}
	}

	seen := make(map[string]struct{})
	var out []DiscoveredMcp
	for _, d := range report.Discovered {
		if _, ok := managed[d.Name]; ok {
			continue
		}
		if _, ok := conflicting[d.Name]; ok {
			continue
		}
		if _, ok := seen[d.Name]; ok {
			continue
		}
		seen[d.Name] = struct{}{}
		out = append(out, d)
	}
	return out
}

// Import appends a selection of discoveries to the declared config.
// Names already declared are skipped; the config is mutated in place.
func Import(cfg *config.DeclaredConfig, selection []DiscoveredMcp) error {
	if cfg == nil {
		return errors.New("config is nil")
	}
	if cfg.MCP == nil {
		cfg.MCP = make(map[string]*config.ServerDecl)
	}

	for _, d := range selection {
		if _, exists := cfg.MCP[d.Name]; exists {
			continue
		}
		decl := &config.ServerDecl{
			Command: d.Command,
			Args:    append([]string(nil), d.Args...),
		}
		if len(d.Env) > 0 {
			decl.Env = make(map[string]string, len(d.Env))
			for k, v := range d.Env {
				decl.Env[k] = v
			}
		}
		if d.Transport != config.TransportStdio {
			decl.Transport = d.Transport
		}
		cfg.MCP[d.Name] = decl
	}
	return nil
}
