// Package detect performs a read-only scan of the machine: which client
// tools are present, which native config files exist, and how their server
// entries relate to the declared configuration.
//
// Nothing here mutates state; the scan is safe to run at any time and backs
// the detect command's report.
package detect

import (
	"context"
	"log/slog"
	"os/exec"
	"slices"

	"github.com/jander99/overture-sub000/internal/client"
	"github.com/jander99/overture-sub000/pkg/fileutil"
)

// Binary reports whether an executable is on PATH.
func Binary(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

// PathStatus describes one native config file location.
type PathStatus struct {
	// Path is the file location.
	Path string `json:"path"`

	// Exists reports whether the file is present.
	Exists bool `json:"exists"`

	// Servers are the server names found, lexicographic.
	Servers []string `json:"servers,omitempty"`

	// ParseError holds the parse failure message, if any.
	ParseError string `json:"parseError,omitempty"`
}

// ClientStatus describes one client tool.
type ClientStatus struct {
	// Client is the client identifier.
	Client string `json:"client"`

	// DisplayName is the human-facing tool name.
	DisplayName string `json:"displayName"`

	// Installed reports whether the tool appears present.
	Installed bool `json:"installed"`

	// Paths holds the status of each config location, user first.
	Paths []PathStatus `json:"paths"`
}

// Summary aggregates scan counts.
type Summary struct {
	ClientsScanned  int `json:"clientsScanned"`
	DistinctServers int `json:"distinctServers"`
	Managed         int `json:"managed"`
	Unmanaged       int `json:"unmanaged"`
	Conflicting     int `json:"conflicting"`
	ParseErrors     int `json:"parseErrors"`
}

// Report is the full scan result.
type Report struct {
	Clients []ClientStatus `json:"clients"`
	Summary Summary        `json:"summary"`
}

// Scanner walks registered clients and inspects their native files.
type Scanner struct {
	registry *client.Registry
	logger   *slog.Logger
}

// NewScanner creates a Scanner.
func NewScanner(reg *client.Registry, logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{registry: reg, logger: logger}
}

// Scan inspects every registered client's config locations.
//
// declared is the set of server names the declarative config manages; it
// splits found servers into managed and unmanaged. A server counts as
// conflicting when two locations define it with different commands.
func (s *Scanner) Scan(ctx context.Context, platform, projectRoot string, declared map[string]struct{}) (*Report, error) {
	report := &Report{}

	// name -> set of commands seen across all locations
	commands := make(map[string]map[string]struct{})

	for _, c := range s.registry.All() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		status := ClientStatus{
			Client:      c.Name(),
			DisplayName: c.DisplayName(),
			Installed:   c.Installed(),
		}

		for _, path := range c.ConfigPaths(platform, projectRoot).All() {
			ps := PathStatus{Path: path}

			cfg, err := c.ReadConfig(path)
			if err != nil {
				ps.ParseError = err.Error()
				report.Summary.ParseErrors++
				s.logger.Warn("unreadable client config", "client", c.Name(), "path", path, "error", err)
				status.Paths = append(status.Paths, ps)
				continue
			}

			names := cfg.Names()
			// ReadConfig yields an empty snapshot for missing files.
			ps.Exists = len(names) > 0 || fileutil.FileExists(path)
			ps.Servers = names
			for _, name := range names {
				if commands[name] == nil {
					commands[name] = make(map[string]struct{})
				}
				commands[name][cfg.Servers[name].Command] = struct{}{}
			}
			status.Paths = append(status.Paths, ps)
		}

		report.Clients = append(report.Clients, status)
		report.Summary.ClientsScanned++
	}

	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	slices.Sort(names)

	report.Summary.DistinctServers = len(names)
	for _, name := range names {
		if _, ok := declared[name]; ok {
			report.Summary.Managed++
		} else {
			report.Summary.Unmanaged++
		}
		if len(commands[name]) > 1 {
			report.Summary.Conflicting++
		}
	}

	return report, nil
}

