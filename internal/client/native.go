package client

import (
	"encoding/json"
	"slices"
)

// NativeServer is one server entry in a client's native schema, normalized
// enough for diffing while preserving unknown payload for round-trips.
type NativeServer struct {
	// Command is the executable for local servers.
	Command string `json:"command,omitempty"`

	// Args are ordered command-line arguments.
	Args []string `json:"args,omitempty"`

	// Env maps environment variable names to values.
	Env map[string]string `json:"env,omitempty"`

	// Type is the client's transport tag in its own vocabulary
	// (cursor says "streamableHttp" where the canonical model says "http").
	Type string `json:"type,omitempty"`

	// URL is the endpoint for remote transports.
	URL string `json:"url,omitempty"`

	// Extra holds fields outside the modeled schema. They are written
	// back verbatim so a sync never destroys third-party state.
	Extra map[string]json.RawMessage `json:"-"`
}

// Clone returns a deep copy of the server entry.
func (s *NativeServer) Clone() *NativeServer {
	if s == nil {
		return nil
	}
	out := *s
	out.Args = append([]string(nil), s.Args...)
	if s.Env != nil {
		out.Env = make(map[string]string, len(s.Env))
		for k, v := range s.Env {
			out.Env[k] = v
		}
	}
	if s.Extra != nil {
		out.Extra = make(map[string]json.RawMessage, len(s.Extra))
		for k, v := range s.Extra {
			out.Extra[k] = slices.Clone(v)
		}
	}
	return &out
}

// knownServerFields are the keys modeled by NativeServer; everything else
// lands in Extra.
var knownServerFields = map[string]struct{}{
	"command": {}, "args": {}, "env": {}, "type": {}, "url": {},
}

// MarshalJSON includes Extra fields alongside the modeled ones.
func (s *NativeServer) MarshalJSON() ([]byte, error) {
	result := make(map[string]any, len(s.Extra)+5)

	for k, v := range s.Extra {
		var val any
		if err := json.Unmarshal(v, &val); err != nil {
			return nil, err
		}
		result[k] = val
	}

	if s.Command != "" {
		result["command"] = s.Command
	}
	if len(s.Args) > 0 {
		result["args"] = s.Args
	}
	if len(s.Env) > 0 {
		result["env"] = s.Env
	}
	if s.Type != "" {
		result["type"] = s.Type
	}
	if s.URL != "" {
		result["url"] = s.URL
	}

	return json.Marshal(result)
}

// UnmarshalJSON captures unmodeled fields into Extra.
func (s *NativeServer) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	if v, ok := raw["command"]; ok {
		if err := json.Unmarshal(v, &s.Command); err != nil {
			return err
		}
	}
	if v, ok := raw["args"]; ok {
		if err := json.Unmarshal(v, &s.Args); err != nil {
			return err
		}
	}
	if v, ok := raw["env"]; ok {
		if err := json.Unmarshal(v, &s.Env); err != nil {
			return err
		}
	}
	if v, ok := raw["type"]; ok {
		if err := json.Unmarshal(v, &s.Type); err != nil {
			return err
		}
	}
	if v, ok := raw["url"]; ok {
		if err := json.Unmarshal(v, &s.URL); err != nil {
			return err
		}
	}

	for k := range knownServerFields {
		delete(raw, k)
	}
	if len(raw) > 0 {
		s.Extra = raw
	}

	return nil
}

// NativeConfig is a snapshot of one native file's server section plus the
// rest of its payload.
type NativeConfig struct {
	// Servers maps server names to their native definitions.
	Servers map[string]*NativeServer

	// Extra holds top-level payload outside the server root key, written
	// back verbatim.
	Extra map[string]json.RawMessage
}

// NewNativeConfig creates an empty snapshot with an initialized server map.
func NewNativeConfig() *NativeConfig {
	return &NativeConfig{Servers: make(map[string]*NativeServer)}
}

// Clone returns a deep copy of the snapshot.
func (c *NativeConfig) Clone() *NativeConfig {
	if c == nil {
		return nil
	}
	out := NewNativeConfig()
	for name, srv := range c.Servers {
		out.Servers[name] = srv.Clone()
	}
	if c.Extra != nil {
		out.Extra = make(map[string]json.RawMessage, len(c.Extra))
		for k, v := range c.Extra {
			out.Extra[k] = slices.Clone(v)
		}
	}
	return out
}

// Names returns the server names in lexicographic order.
func (c *NativeConfig) Names() []string {
	names := make([]string, 0, len(c.Servers))
	for name := range c.Servers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
