// Package diff computes field-level differences between two native config
// snapshots. Results drive both sync planning and the dry-run report, so a
// plan and its execution always agree.
package diff

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/jander99/overture-sub000/internal/client"
)

// FieldChange records one field's old and new rendering.
type FieldChange struct {
	Field string
	Old   string
	New   string
}

// Modified is a server present on both sides with differing fields.
type Modified struct {
	Name   string
	Fields []FieldChange
}

// Result is the comparison of two snapshots. All slices are ordered
// lexicographically by server name so output is deterministic.
type Result struct {
	Added     []string
	Removed   []string
	Unchanged []string
	Modified  []Modified
}

// HasChanges reports whether applying the new snapshot would alter the old.
func (r *Result) HasChanges() bool {
	return len(r.Added) > 0 || len(r.Removed) > 0 || len(r.Modified) > 0
}

// Counts returns added, removed, and modified totals.
func (r *Result) Counts() (added, removed, modified int) {
	return len(r.Added), len(r.Removed), len(r.Modified)
}

// String renders a one-line summary like "+2 -1 ~3".
func (r *Result) String() string {
	a, d, m := r.Counts()
	return fmt.Sprintf("+%d -%d ~%d", a, d, m)
}

// Compare diffs two snapshots. Either side may be nil, which reads as an
// empty snapshot.
func Compare(old, new *client.NativeConfig) *Result {
	oldServers := servers(old)
	newServers := servers(new)

	result := &Result{}
	for _, name := range sortedNames(oldServers, newServers) {
		oldSrv, inOld := oldServers[name]
		newSrv, inNew := newServers[name]
		switch {
		case !inOld:
			result.Added = append(result.Added, name)
		case !inNew:
			result.Removed = append(result.Removed, name)
		default:
			if fields := compareServers(oldSrv, newSrv); len(fields) > 0 {
				result.Modified = append(result.Modified, Modified{Name: name, Fields: fields})
			} else {
				result.Unchanged = append(result.Unchanged, name)
			}
		}
	}
	return result
}

func servers(cfg *client.NativeConfig) map[string]*client.NativeServer {
	if cfg == nil {
		return nil
	}
	return cfg.Servers
}

func sortedNames(a, b map[string]*client.NativeServer) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	for name := range a {
		seen[name] = struct{}{}
	}
	for name := range b {
		seen[name] = struct{}{}
	}
	names := slices.Collect(maps.Keys(seen))
	slices.Sort(names)
	return names
}

// compareServers returns the changed fields in a fixed order. Unknown
// payload in Extra is never compared; it belongs to the client, not to the
// managed definition.
func compareServers(old, new *client.NativeServer) []FieldChange {
	var fields []FieldChange

	if old.Command != new.Command {
		fields = append(fields, FieldChange{Field: "command", Old: old.Command, New: new.Command})
	}
	if !slices.Equal(old.Args, new.Args) {
		fields = append(fields, FieldChange{
			Field: "args",
			Old:   renderArgs(old.Args),
			New:   renderArgs(new.Args),
		})
	}
	if !maps.Equal(old.Env, new.Env) {
		fields = append(fields, FieldChange{
			Field: "env",
			Old:   renderEnv(old.Env),
			New:   renderEnv(new.Env),
		})
	}
	if old.Type != new.Type {
		fields = append(fields, FieldChange{Field: "type", Old: old.Type, New: new.Type})
	}
	if old.URL != new.URL {
		fields = append(fields, FieldChange{Field: "url", Old: old.URL, New: new.URL})
	}
	return fields
}

func renderArgs(args []string) string {
	return strings.Join(args, " ")
}

func renderEnv(env map[string]string) string {
	keys := slices.Collect(maps.Keys(env))
	slices.Sort(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+env[k])
	}
	return strings.Join(parts, " ")
}
