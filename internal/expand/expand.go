// Package expand resolves ${VAR} and ${VAR:-default} placeholders in
// configuration values.
package expand

import (
	"os"
	"strings"

	"github.com/jander99/overture-sub000/internal/errors"
)

// maxDepth bounds recursive expansion of values that themselves contain
// placeholders.
const maxDepth = 10

// Sentinel errors for expansion failures.
var (
	// ErrCycle indicates a placeholder resolves, directly or indirectly,
	// back to itself.
	ErrCycle = errors.New("placeholder cycle detected")

	// ErrTooDeep indicates placeholder nesting exceeded the recursion bound.
	ErrTooDeep = errors.New("placeholder nesting too deep")
)

// Lookup resolves a variable name to its value.
// The boolean reports whether the variable is set.
type Lookup func(name string) (string, bool)

// OSLookup resolves variables from the process environment.
func OSLookup(name string) (string, bool) {
	return os.LookupEnv(name)
}

// MapLookup returns a Lookup backed by a map.
func MapLookup(m map[string]string) Lookup {
	return func(name string) (string, bool) {
		v, ok := m[name]
		return v, ok
	}
}

// Expand resolves all placeholders in s using lookup.
//
// Supported syntax:
//   - ${VAR}          — replaced with the variable's value
//   - ${VAR:-default} — replaced with the value, or default when unset
//
// An unset ${VAR} without a default is left verbatim so callers can decide
// how severe a missing variable is. Resolved values are themselves expanded,
// bounded by a recursion limit; self-reference returns ErrCycle naming the
// variable chain.
func Expand(s string, lookup Lookup) (string, error) {
	return expand(s, lookup, nil, 0)
}

// ExpandAll expands every value of env, returning a new map.
// The input map is never mutated.
func ExpandAll(env map[string]string, lookup Lookup) (map[string]string, error) {
	if env == nil {
		return nil, nil
	}
	out := make(map[string]string, len(env))
	for k, v := range env {
		expanded, err := Expand(v, lookup)
		if err != nil {
			return nil, errors.Wrapf(err, "expanding %s", k)
		}
		out[k] = expanded
	}
	return out, nil
}

// IsPlaceholder reports whether the entire value is a single ${NAME}
// reference with no default and no surrounding text.
func IsPlaceholder(v string) bool {
	_, ok := PlaceholderName(v)
	return ok
}

// PlaceholderName extracts NAME from a value that is exactly "${NAME}".
func PlaceholderName(v string) (string, bool) {
	if len(v) < 4 || !strings.HasPrefix(v, "${") || !strings.HasSuffix(v, "}") {
		return "", false
	}
	name := v[2 : len(v)-1]
	if !validName(name) {
		return "", false
	}
	return name, true
}

// Placeholder builds a "${NAME}" reference for the given variable name.
func Placeholder(name string) string {
	return "${" + name + "}"
}

func expand(s string, lookup Lookup, stack []string, depth int) (string, error) {
	if depth > maxDepth {
		return "", errors.Wrapf(ErrTooDeep, "chain %s", strings.Join(stack, " -> "))
	}

	var b strings.Builder
	for i := 0; i < len(s); {
		if s[i] != '$' || i+1 >= len(s) || s[i+1] != '{' {
			b.WriteByte(s[i])
			i++
			continue
		}

		end := matchBrace(s, i+2)
		if end < 0 {
			// Unterminated ${...}: emit literally.
			b.WriteString(s[i:])
			break
		}

		inner := s[i+2 : end]
		name, def, hasDefault := cutDefault(inner)
		if !validName(name) {
			b.WriteString(s[i : end+1])
			i = end + 1
			continue
		}

		if val, ok := lookup(name); ok {
			for _, active := range stack {
				if active == name {
					return "", errors.Wrapf(ErrCycle, "chain %s -> %s",
						strings.Join(stack, " -> "), name)
				}
			}
			resolved, err := expand(val, lookup, append(stack, name), depth+1)
			if err != nil {
				return "", err
			}
			b.WriteString(resolved)
		} else if hasDefault {
			resolved, err := expand(def, lookup, stack, depth+1)
			if err != nil {
				return "", err
			}
			b.WriteString(resolved)
		} else {
			// Unset and no default: keep the reference as written.
			b.WriteString(s[i : end+1])
		}
		i = end + 1
	}

	return b.String(), nil
}

// matchBrace returns the index of the '}' closing the placeholder whose body
// starts at from, honoring nested ${...} inside a default value.
// Returns -1 when unterminated.
func matchBrace(s string, from int) int {
	level := 1
	for i := from; i < len(s); i++ {
		switch {
		case s[i] == '$' && i+1 < len(s) && s[i+1] == '{':
			level++
			i++
		case s[i] == '}':
			level--
			if level == 0 {
				return i
			}
		}
	}
	return -1
}

// cutDefault splits "NAME:-default" into its parts.
func cutDefault(inner string) (name, def string, hasDefault bool) {
	if idx := strings.Index(inner, ":-"); idx >= 0 {
		return inner[:idx], inner[idx+2:], true
	}
	return inner, "", false
}

func validName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_', r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
