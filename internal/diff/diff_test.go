package diff

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jander99/overture-sub000/internal/client"
)

func snapshot(servers map[string]*client.NativeServer) *client.NativeConfig {
	cfg := client.NewNativeConfig()
	for name, srv := range servers {
		cfg.Servers[name] = srv
	}
	return cfg
}

func TestCompareIdentical(t *testing.T) {
	cfg := snapshot(map[string]*client.NativeServer{
		"github": {Command: "npx", Args: []string{"-y"}},
	})

	result := Compare(cfg, cfg.Clone())
	assert.False(t, result.HasChanges())
	assert.Equal(t, []string{"github"}, result.Unchanged)
}

func TestCompareNilSides(t *testing.T) {
	cfg := snapshot(map[string]*client.NativeServer{"a": {Command: "x"}})

	result := Compare(nil, cfg)
	assert.Equal(t, []string{"a"}, result.Added)

	result = Compare(cfg, nil)
	assert.Equal(t, []string{"a"}, result.Removed)

	result = Compare(nil, nil)
	assert.False(t, result.HasChanges())
}

func TestCompareAddedRemovedOrdering(t *testing.T) {
	old := snapshot(map[string]*client.NativeServer{
		"zeta":  {Command: "z"},
		"alpha": {Command: "a"},
	})
	new := snapshot(map[string]*client.NativeServer{
		"beta":  {Command: "b"},
		"alpha": {Command: "a"},
	})

	result := Compare(old, new)
	assert.Equal(t, []string{"beta"}, result.Added)
	assert.Equal(t, []string{"zeta"}, result.Removed)
	assert.Equal(t, []string{"alpha"}, result.Unchanged)
}

func TestCompareModifiedFields(t *testing.T) {
	old := snapshot(map[string]*client.NativeServer{
		"srv": {
			Command: "npx",
			Args:    []string{"-y", "pkg"},
			Env:     map[string]string{"TOKEN": "a"},
			Type:    "stdio",
		},
	})
	new := snapshot(map[string]*client.NativeServer{
		"srv": {
			Command: "uvx",
			Args:    []string{"-y", "pkg"},
			Env:     map[string]string{"TOKEN": "b"},
			Type:    "sse",
			URL:     "https://example.com/mcp",
		},
	})

	result := Compare(old, new)
	require.Len(t, result.Modified, 1)
	mod := result.Modified[0]
	assert.Equal(t, "srv", mod.Name)

	byField := make(map[string]FieldChange)
	for _, f := range mod.Fields {
		byField[f.Field] = f
	}
	assert.NotContains(t, byField, "args")
	assert.Equal(t, "npx", byField["command"].Old)
	assert.Equal(t, "uvx", byField["command"].New)
	assert.Equal(t, "TOKEN=a", byField["env"].Old)
	assert.Equal(t, "TOKEN=b", byField["env"].New)
	assert.Equal(t, "stdio", byField["type"].Old)
	assert.Equal(t, "https://example.com/mcp", byField["url"].New)
}

func TestCompareIgnoresExtra(t *testing.T) {
	old := snapshot(map[string]*client.NativeServer{"srv": {Command: "x"}})
	new := old.Clone()
	new.Servers["srv"].Extra = map[string]json.RawMessage{"timeout": json.RawMessage(`30000`)}

	// Extra is unmanaged payload; it must not register as a modification.
	result := Compare(old, new)
	assert.False(t, result.HasChanges())
}

func TestResultString(t *testing.T) {
	old := snapshot(map[string]*client.NativeServer{"a": {Command: "1"}, "b": {Command: "2"}})
	new := snapshot(map[string]*client.NativeServer{"b": {Command: "3"}, "c": {Command: "4"}})

	result := Compare(old, new)
	assert.Equal(t, "+1 -1 ~1", result.String())
}
