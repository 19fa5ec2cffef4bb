package config

import (
	"github.com/jander99/overture-sub000/internal/errors"
)

// Merge combines a global and a project config into the effective model.
//
// Rules:
//   - Merge(nil, nil) fails with errors.ErrNoConfig.
//   - With a single input, that input is the result.
//   - mcp keys present in both resolve entirely to the project's definition;
//     there is no field-level merging within one server entry.
//   - clients and sync merge key-by-key with project entries winning.
//   - version is the project's when set, otherwise the global's.
//
// Inputs are never mutated; the result shares no mutable state with them.
func Merge(global, project *DeclaredConfig) (*DeclaredConfig, error) {
	if global == nil && project == nil {
		return nil, errors.ErrNoConfig
	}
	if project == nil {
		return global.clone(), nil
	}
	if global == nil {
		return project.clone(), nil
	}

	out := global.clone()

	if project.Version != "" {
		out.Version = project.Version
	}
	if project.Project != nil {
		p := *project.Project
		out.Project = &p
	}

	for name, src := range project.Plugins {
		if out.Plugins == nil {
			out.Plugins = make(map[string]string)
		}
		out.Plugins[name] = src
	}

	for name, cs := range project.Clients {
		if out.Clients == nil {
			out.Clients = make(map[string]*ClientSettings)
		}
		out.Clients[name] = cloneClientSettings(cs)
	}

	// Whole-entry override: a project server replaces the global one outright.
	for name, decl := range project.MCP {
		if out.MCP == nil {
			out.MCP = make(map[string]*ServerDecl)
		}
		out.MCP[name] = decl.Clone()
	}

	if project.Sync != nil {
		out.Sync = mergeSync(out.Sync, project.Sync)
	}

	return out, nil
}

func mergeSync(global, project *SyncOptions) *SyncOptions {
	if global == nil {
		s := *project
		return &s
	}
	out := *global
	if project.Backup != nil {
		v := *project.Backup
		out.Backup = &v
	}
	if project.MergeStrategy != "" {
		out.MergeStrategy = project.MergeStrategy
	}
	if project.AutoDetect != nil {
		v := *project.AutoDetect
		out.AutoDetect = &v
	}
	return &out
}

func cloneClientSettings(cs *ClientSettings) *ClientSettings {
	if cs == nil {
		return nil
	}
	out := *cs
	if cs.Enabled != nil {
		v := *cs.Enabled
		out.Enabled = &v
	}
	if cs.Settings != nil {
		out.Settings = make(map[string]string, len(cs.Settings))
		for k, v := range cs.Settings {
			out.Settings[k] = v
		}
	}
	return &out
}

// clone deep-copies a DeclaredConfig.
func (c *DeclaredConfig) clone() *DeclaredConfig {
	if c == nil {
		return nil
	}
	out := &DeclaredConfig{Version: c.Version}
	if c.Project != nil {
		p := *c.Project
		out.Project = &p
	}
	if c.Plugins != nil {
		out.Plugins = make(map[string]string, len(c.Plugins))
		for k, v := range c.Plugins {
			out.Plugins[k] = v
		}
	}
	if c.Clients != nil {
		out.Clients = make(map[string]*ClientSettings, len(c.Clients))
		for k, v := range c.Clients {
			out.Clients[k] = cloneClientSettings(v)
		}
	}
	if c.MCP != nil {
		out.MCP = make(map[string]*ServerDecl, len(c.MCP))
		for k, v := range c.MCP {
			out.MCP[k] = v.Clone()
		}
	}
	if c.Sync != nil {
		s := *c.Sync
		if c.Sync.Backup != nil {
			b := *c.Sync.Backup
			s.Backup = &b
		}
		if c.Sync.AutoDetect != nil {
			a := *c.Sync.AutoDetect
			s.AutoDetect = &a
		}
		out.Sync = &s
	}
	return out
}
