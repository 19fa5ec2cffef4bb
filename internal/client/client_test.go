package client

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jander99/overture-sub000/internal/config"
	"github.com/jander99/overture-sub000/internal/errors"
)

func TestNativeServerUnknownFields(t *testing.T) {
	data := []byte(`{"command":"npx","args":["-y"],"timeout":30000,"trust":true}`)

	var srv NativeServer
	require.NoError(t, json.Unmarshal(data, &srv))
	assert.Equal(t, "npx", srv.Command)
	assert.Contains(t, srv.Extra, "timeout")
	assert.Contains(t, srv.Extra, "trust")

	out, err := json.Marshal(&srv)
	require.NoError(t, err)

	var round map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(out, &round))
	assert.Contains(t, round, "timeout")
	assert.Contains(t, round, "trust")
	assert.Contains(t, round, "command")
}

func TestNativeServerClone(t *testing.T) {
	srv := &NativeServer{
		Command: "npx",
		Args:    []string{"a"},
		Env:     map[string]string{"K": "v"},
		Extra:   map[string]json.RawMessage{"x": json.RawMessage(`1`)},
	}
	clone := srv.Clone()
	clone.Args[0] = "b"
	clone.Env["K"] = "w"
	assert.Equal(t, "a", srv.Args[0])
	assert.Equal(t, "v", srv.Env["K"])
}

func TestParseJSONPosition(t *testing.T) {
	_, err := ParseJSON("cfg.json", []byte("{\n  \"mcpServers\": {,}\n}"), "mcpServers")
	require.Error(t, err)

	var le *errors.LoadError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, "cfg.json", le.Path)
	assert.Equal(t, 2, le.Line)
}

type stubClient struct {
	name string
}

func (s *stubClient) Name() string                       { return s.name }
func (s *stubClient) DisplayName() string                { return s.name }
func (s *stubClient) RootKey() string                    { return "mcpServers" }
func (s *stubClient) ConfigPaths(_, _ string) Paths      { return Paths{} }
func (s *stubClient) ReadConfig(string) (*NativeConfig, error) {
	return NewNativeConfig(), nil
}
func (s *stubClient) WriteConfig(string, *NativeConfig) error { return nil }
func (s *stubClient) FromDeclaration(name string, _ *config.ServerDecl, _ string) (*NativeServer, error) {
	return &NativeServer{Command: name}, nil
}
func (s *stubClient) SupportsTransport(string) bool { return true }
func (s *stubClient) NeedsEnvExpansion() bool       { return false }
func (s *stubClient) Installed() bool               { return true }

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(&stubClient{name: "cursor"}))
	require.NoError(t, reg.Register(&stubClient{name: "claude-code"}))

	err := reg.Register(&stubClient{name: "cursor"})
	assert.True(t, errors.Is(err, ErrAlreadyRegistered))

	assert.Equal(t, []string{"claude-code", "cursor"}, reg.Names())

	_, err = reg.Get("codex")
	assert.True(t, errors.Is(err, ErrUnknownClient))

	c, err := reg.Get("cursor")
	require.NoError(t, err)
	assert.Equal(t, "cursor", c.Name())
}
