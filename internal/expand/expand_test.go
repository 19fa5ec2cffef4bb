package expand

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpand(t *testing.T) {
	env := MapLookup(map[string]string{
		"HOME":  "/home/dev",
		"TOKEN": "abc123",
		"PORT":  "8080",
		"REF":   "${TOKEN}",
		"DEEP":  "${REF}",
	})

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain text", "no placeholders here", "no placeholders here"},
		{"simple", "${HOME}/bin", "/home/dev/bin"},
		{"two placeholders", "${HOME}:${PORT}", "/home/dev:8080"},
		{"unset without default kept verbatim", "${MISSING}/x", "${MISSING}/x"},
		{"default used when unset", "${MISSING:-fallback}", "fallback"},
		{"default ignored when set", "${PORT:-9090}", "8080"},
		{"nested placeholder in default", "${MISSING:-${TOKEN}}", "abc123"},
		{"value containing placeholder", "${REF}", "abc123"},
		{"two levels of indirection", "${DEEP}", "abc123"},
		{"dollar without brace", "cost is $5", "cost is $5"},
		{"unterminated placeholder literal", "${OOPS", "${OOPS"},
		{"invalid name literal", "${1BAD}", "${1BAD}"},
		{"empty default", "${MISSING:-}", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Expand(tt.input, env)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExpandCycle(t *testing.T) {
	env := MapLookup(map[string]string{
		"A": "${B}",
		"B": "${A}",
		"S": "${S}",
	})

	_, err := Expand("${A}", env)
	require.ErrorIs(t, err, ErrCycle)

	_, err = Expand("${S}", env)
	require.ErrorIs(t, err, ErrCycle)
}

func TestExpandDepthBound(t *testing.T) {
	// A chain longer than maxDepth with distinct names trips the bound
	// rather than looping.
	m := map[string]string{}
	names := []string{"V0", "V1", "V2", "V3", "V4", "V5", "V6", "V7", "V8", "V9", "V10", "V11"}
	for i := 0; i < len(names)-1; i++ {
		m[names[i]] = "${" + names[i+1] + "}"
	}
	m[names[len(names)-1]] = "end"

	_, err := Expand("${V0}", MapLookup(m))
	require.ErrorIs(t, err, ErrTooDeep)
}

func TestExpandAll(t *testing.T) {
	env := map[string]string{
		"API_URL": "${HOST:-localhost}:${PORT}",
		"STATIC":  "value",
	}

	out, err := ExpandAll(env, MapLookup(map[string]string{"PORT": "9000"}))
	require.NoError(t, err)
	assert.Equal(t, "localhost:9000", out["API_URL"])
	assert.Equal(t, "value", out["STATIC"])

	// Input map untouched.
	assert.Equal(t, "${HOST:-localhost}:${PORT}", env["API_URL"])
}

func TestPlaceholderName(t *testing.T) {
	name, ok := PlaceholderName("${GITHUB_TOKEN}")
	require.True(t, ok)
	assert.Equal(t, "GITHUB_TOKEN", name)

	for _, v := range []string{"", "plain", "${}", "${A} suffix", "prefix ${A}", "${A:-d}"} {
		_, ok := PlaceholderName(v)
		assert.False(t, ok, "value %q", v)
	}
}

func TestIsPlaceholderRoundTrip(t *testing.T) {
	assert.True(t, IsPlaceholder(Placeholder("MY_VAR")))
}
