// Package config defines the canonical declarative configuration model and
// its load, validate, and merge operations.
//
// The canonical config is the single source of truth overture is authorized
// to mutate for managed entries. It is YAML with a closed schema: unknown
// fields are validation errors, not silently dropped, so typos surface with
// exact paths instead of producing partially-applied configs.
package config

// Transport values for MCP server communication.
const (
	// TransportStdio indicates local process communication via stdin/stdout.
	TransportStdio = "stdio"
	// TransportHTTP indicates remote communication via streamable HTTP.
	TransportHTTP = "http"
	// TransportSSE indicates remote communication via Server-Sent Events.
	TransportSSE = "sse"
)

// Transports returns the valid transport values in deterministic order.
func Transports() []string {
	return []string{TransportStdio, TransportHTTP, TransportSSE}
}

// ValidTransport returns true for a recognized transport value.
// The empty string is valid and defaults to stdio.
func ValidTransport(t string) bool {
	switch t {
	case "", TransportStdio, TransportHTTP, TransportSSE:
		return true
	}
	return false
}

// DeclaredConfig is the canonical declarative schema, loaded from a user- or
// project-scoped overture.yaml.
type DeclaredConfig struct {
	// Version is a "major.minor" schema version string.
	Version string `yaml:"version,omitempty"`

	// Project carries optional project metadata.
	Project *ProjectMeta `yaml:"project,omitempty"`

	// Plugins maps plugin names to marketplace sources.
	Plugins map[string]string `yaml:"plugins,omitempty"`

	// Clients holds per-target enable flags and settings overrides.
	Clients map[string]*ClientSettings `yaml:"clients,omitempty"`

	// MCP maps server names to their declarations. Keys are unique,
	// stable identifiers; map order carries no meaning.
	MCP map[string]*ServerDecl `yaml:"mcp,omitempty"`

	// Sync holds synchronization options.
	Sync *SyncOptions `yaml:"sync,omitempty"`
}

// ProjectMeta describes the project a config belongs to.
type ProjectMeta struct {
	Name        string `yaml:"name,omitempty"`
	Description string `yaml:"description,omitempty"`
}

// ClientSettings holds per-target-client configuration.
type ClientSettings struct {
	// Enabled disables a client entirely when false. Nil means enabled.
	Enabled *bool `yaml:"enabled,omitempty"`

	// Settings carries client-specific options passed through to the adapter.
	Settings map[string]string `yaml:"settings,omitempty"`
}

// IsEnabled reports whether the client participates in sync.
func (c *ClientSettings) IsEnabled() bool {
	return c == nil || c.Enabled == nil || *c.Enabled
}

// SyncOptions configures the reconciliation behavior.
type SyncOptions struct {
	// Backup controls whether native files are snapshotted before writes.
	// Nil means true.
	Backup *bool `yaml:"backup,omitempty"`

	// MergeStrategy is reserved; "replace" is the only supported value.
	MergeStrategy string `yaml:"mergeStrategy,omitempty"`

	// AutoDetect controls whether sync targets all installed clients when
	// none are named explicitly. Nil means true.
	AutoDetect *bool `yaml:"autoDetect,omitempty"`
}

// BackupEnabled reports whether pre-write backups are on.
func (s *SyncOptions) BackupEnabled() bool {
	return s == nil || s.Backup == nil || *s.Backup
}

// AutoDetectEnabled reports whether installed-client auto-detection is on.
func (s *SyncOptions) AutoDetectEnabled() bool {
	return s == nil || s.AutoDetect == nil || *s.AutoDetect
}

// ServerDecl declares one MCP server in the canonical model.
type ServerDecl struct {
	// Command is the executable to launch. Required.
	Command string `yaml:"command"`

	// Args are ordered command-line arguments.
	Args []string `yaml:"args,omitempty"`

	// Env maps variable names to values; values may contain ${VAR}
	// placeholder syntax resolved at translation time.
	Env map[string]string `yaml:"env,omitempty"`

	// Transport is stdio, http, or sse. Empty defaults to stdio.
	Transport string `yaml:"transport,omitempty"`

	// Version optionally pins a server version.
	Version string `yaml:"version,omitempty"`

	// Enabled disables the server everywhere when false. Nil means enabled.
	Enabled *bool `yaml:"enabled,omitempty"`

	// Description is free-form documentation.
	Description string `yaml:"description,omitempty"`

	// Clients selects which target clients receive this server.
	Clients *ClientSelector `yaml:"clients,omitempty"`

	// Platforms restricts and overrides per OS platform.
	Platforms *PlatformSelector `yaml:"platforms,omitempty"`

	// Metadata is free-form descriptive data.
	Metadata *Metadata `yaml:"metadata,omitempty"`
}

// IsEnabled reports whether the declaration is active.
func (d *ServerDecl) IsEnabled() bool {
	return d.Enabled == nil || *d.Enabled
}

// EffectiveTransport returns the declared transport, defaulting to stdio.
func (d *ServerDecl) EffectiveTransport() string {
	if d.Transport == "" {
		return TransportStdio
	}
	return d.Transport
}

// EffectiveCommand returns the command for a platform, honoring
// platforms.commandOverrides.
func (d *ServerDecl) EffectiveCommand(platform string) string {
	if d.Platforms != nil {
		if cmd, ok := d.Platforms.CommandOverrides[platform]; ok && cmd != "" {
			return cmd
		}
	}
	return d.Command
}

// EffectiveArgs returns the args for a platform, honoring
// platforms.argsOverrides.
func (d *ServerDecl) EffectiveArgs(platform string) []string {
	if d.Platforms != nil {
		if args, ok := d.Platforms.ArgsOverrides[platform]; ok {
			return args
		}
	}
	return d.Args
}

// ForClient returns a copy of the declaration with any per-client field
// overrides applied. The receiver is never mutated.
func (d *ServerDecl) ForClient(client string) *ServerDecl {
	out := d.Clone()
	if d.Clients == nil {
		return out
	}
	ov, ok := d.Clients.Overrides[client]
	if !ok || ov == nil {
		return out
	}
	if ov.Command != "" {
		out.Command = ov.Command
	}
	if ov.Args != nil {
		out.Args = append([]string(nil), ov.Args...)
	}
	for k, v := range ov.Env {
		if out.Env == nil {
			out.Env = make(map[string]string)
		}
		out.Env[k] = v
	}
	return out
}

// Clone returns a deep copy of the declaration.
func (d *ServerDecl) Clone() *ServerDecl {
	if d == nil {
		return nil
	}
	out := *d
	out.Args = append([]string(nil), d.Args...)
	if d.Env != nil {
		out.Env = make(map[string]string, len(d.Env))
		for k, v := range d.Env {
			out.Env[k] = v
		}
	}
	if d.Enabled != nil {
		v := *d.Enabled
		out.Enabled = &v
	}
	if d.Clients != nil {
		c := *d.Clients
		c.Exclude = append([]string(nil), d.Clients.Exclude...)
		c.Include = append([]string(nil), d.Clients.Include...)
		if d.Clients.Overrides != nil {
			c.Overrides = make(map[string]*ServerOverride, len(d.Clients.Overrides))
			for k, v := range d.Clients.Overrides {
				c.Overrides[k] = v
			}
		}
		out.Clients = &c
	}
	if d.Platforms != nil {
		p := *d.Platforms
		p.Exclude = append([]string(nil), d.Platforms.Exclude...)
		out.Platforms = &p
	}
	if d.Metadata != nil {
		m := *d.Metadata
		m.Tags = append([]string(nil), d.Metadata.Tags...)
		out.Metadata = &m
	}
	return &out
}

// ClientSelector scopes a server declaration to target clients.
// Exclude and Include are mutually exclusive; validation rejects configs
// setting both.
type ClientSelector struct {
	Exclude   []string                   `yaml:"exclude,omitempty"`
	Include   []string                   `yaml:"include,omitempty"`
	Overrides map[string]*ServerOverride `yaml:"overrides,omitempty"`
}

// ServerOverride carries per-client field overrides for a declaration.
type ServerOverride struct {
	Command string            `yaml:"command,omitempty"`
	Args    []string          `yaml:"args,omitempty"`
	Env     map[string]string `yaml:"env,omitempty"`
}

// PlatformSelector scopes a server declaration to OS platforms.
type PlatformSelector struct {
	Exclude          []string            `yaml:"exclude,omitempty"`
	CommandOverrides map[string]string   `yaml:"commandOverrides,omitempty"`
	ArgsOverrides    map[string][]string `yaml:"argsOverrides,omitempty"`
}

// Metadata is free-form descriptive data about a server.
type Metadata struct {
	Description string   `yaml:"description,omitempty"`
	Homepage    string   `yaml:"homepage,omitempty"`
	Tags        []string `yaml:"tags,omitempty"`
}
