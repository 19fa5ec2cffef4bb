package config

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Issue codes for programmatic handling of validation failures.
const (
	// CodeDeprecatedField marks syntax that predates a breaking change,
	// reported before generic schema errors.
	CodeDeprecatedField = "deprecated_field"
	// CodeUnknownField marks a field outside the closed schema.
	CodeUnknownField = "unknown_field"
	// CodeMissingField marks a required field that is absent or empty.
	CodeMissingField = "missing_field"
	// CodeInvalidValue marks a field with an out-of-range value.
	CodeInvalidValue = "invalid_value"
	// CodeConflictingFields marks mutually exclusive fields set together.
	CodeConflictingFields = "conflicting_fields"
)

// Issue is a single validation problem with the exact config path.
type Issue struct {
	// Path locates the offending node, e.g. ["mcp", "github", "scope"].
	Path []string
	// Message describes the problem.
	Message string
	// Suggestion tells the user how to fix it.
	Suggestion string
	// Code identifies the problem kind programmatically.
	Code string
}

func (i Issue) Error() string {
	msg := strings.Join(i.Path, ".") + ": " + i.Message
	if i.Suggestion != "" {
		msg += " (" + i.Suggestion + ")"
	}
	return msg
}

// ValidationError aggregates all issues found in one config file.
// Deprecated-field issues sort before everything else so migration guidance
// is the first thing the user reads.
type ValidationError struct {
	File   string
	Issues []Issue
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 1 {
		return fmt.Sprintf("%s: %s", e.File, e.Issues[0].Error())
	}
	return fmt.Sprintf("%s: %d validation issues, first: %s",
		e.File, len(e.Issues), e.Issues[0].Error())
}

// allowed key sets for the closed schema, per mapping.
var (
	topLevelKeys = keySet("version", "project", "plugins", "clients", "mcp", "sync")
	projectKeys  = keySet("name", "description")
	clientKeys   = keySet("enabled", "settings")
	syncKeys     = keySet("backup", "mergeStrategy", "autoDetect")
	serverKeys   = keySet("command", "args", "env", "transport", "version",
		"enabled", "description", "clients", "platforms", "metadata")
	selectorKeys = keySet("exclude", "include", "overrides")
	overrideKeys = keySet("command", "args", "env")
	platformKeys = keySet("exclude", "commandOverrides", "argsOverrides")
	metadataKeys = keySet("description", "homepage", "tags")
)

func keySet(keys ...string) map[string]struct{} {
	s := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		s[k] = struct{}{}
	}
	return s
}

// Validate checks a parsed YAML document against the canonical schema.
// Returns nil when the document is valid.
func Validate(root *yaml.Node) []Issue {
	doc := unwrapDocument(root)
	if doc == nil {
		return []Issue{{
			Message:    "config is empty",
			Suggestion: "declare at least a version and an mcp section",
			Code:       CodeMissingField,
		}}
	}

	var deprecated, rest []Issue
	add := func(issues ...Issue) {
		for _, i := range issues {
			if i.Code == CodeDeprecatedField {
				deprecated = append(deprecated, i)
			} else {
				rest = append(rest, i)
			}
		}
	}

	add(checkKeys(doc, nil, topLevelKeys, nil)...)

	sawMCP := false
	forEachEntry(doc, func(key string, val *yaml.Node) {
		switch key {
		case "project":
			add(checkKeys(val, []string{"project"}, projectKeys, nil)...)
		case "clients":
			forEachEntry(val, func(name string, cv *yaml.Node) {
				add(checkKeys(cv, []string{"clients", name}, clientKeys, nil)...)
			})
		case "sync":
			add(checkKeys(val, []string{"sync"}, syncKeys, nil)...)
		case "mcp":
			sawMCP = true
			forEachEntry(val, func(name string, sv *yaml.Node) {
				add(validateServer(name, sv)...)
			})
		}
	})

	if !sawMCP {
		add(Issue{
			Path:       []string{"mcp"},
			Message:    "mcp section is required",
			Suggestion: "add 'mcp: {}' if this file declares no servers",
			Code:       CodeMissingField,
		})
	}

	return append(deprecated, rest...)
}

// validateServer checks one mcp entry's mapping.
func validateServer(name string, node *yaml.Node) []Issue {
	path := []string{"mcp", name}
	var issues []Issue

	// The deprecated scope field gets a migration-oriented message naming
	// the exact path, never a generic unknown-field error.
	special := map[string]func(key string) Issue{
		"scope": func(string) Issue {
			return Issue{
				Path: append(append([]string{}, path...), "scope"),
				Message: "the 'scope' field was removed: scope is now implicit " +
					"from which config file declares the server",
				Suggestion: "move this entry to the user config for global scope " +
					"or to the project overture.yaml for project scope, then delete 'scope'",
				Code: CodeDeprecatedField,
			}
		},
	}
	issues = append(issues, checkKeys(node, path, serverKeys, special)...)

	var hasCommand bool
	var exclude, include bool
	forEachEntry(node, func(key string, val *yaml.Node) {
		switch key {
		case "command":
			hasCommand = val.Value != ""
		case "transport":
			if !ValidTransport(val.Value) {
				issues = append(issues, Issue{
					Path:       append(append([]string{}, path...), "transport"),
					Message:    fmt.Sprintf("invalid transport %q", val.Value),
					Suggestion: "use one of: " + strings.Join(Transports(), ", "),
					Code:       CodeInvalidValue,
				})
			}
		case "clients":
			issues = append(issues, checkKeys(val,
				append(append([]string{}, path...), "clients"), selectorKeys, nil)...)
			forEachEntry(val, func(sk string, sv *yaml.Node) {
				switch sk {
				case "exclude":
					exclude = true
				case "include":
					include = true
				case "overrides":
					forEachEntry(sv, func(client string, ov *yaml.Node) {
						issues = append(issues, checkKeys(ov,
							append(append([]string{}, path...), "clients", "overrides", client),
							overrideKeys, nil)...)
					})
				}
			})
		case "platforms":
			issues = append(issues, checkKeys(val,
				append(append([]string{}, path...), "platforms"), platformKeys, nil)...)
		case "metadata":
			issues = append(issues, checkKeys(val,
				append(append([]string{}, path...), "metadata"), metadataKeys, nil)...)
		}
	})

	if !hasCommand {
		issues = append(issues, Issue{
			Path:       append(append([]string{}, path...), "command"),
			Message:    "command is required",
			Suggestion: "set the executable that launches this server",
			Code:       CodeMissingField,
		})
	}
	if exclude && include {
		issues = append(issues, Issue{
			Path:       append(append([]string{}, path...), "clients"),
			Message:    "exclude and include are mutually exclusive",
			Suggestion: "keep whichever list is shorter and drop the other",
			Code:       CodeConflictingFields,
		})
	}

	return issues
}

// checkKeys reports unknown keys in a mapping node against the allowed set.
// Keys present in special are reported via their custom issue constructor.
func checkKeys(node *yaml.Node, path []string, allowed map[string]struct{},
	special map[string]func(key string) Issue) []Issue {

	var issues []Issue
	forEachEntry(node, func(key string, _ *yaml.Node) {
		if fn, ok := special[key]; ok {
			issues = append(issues, fn(key))
			return
		}
		if _, ok := allowed[key]; !ok {
			issues = append(issues, Issue{
				Path:       append(append([]string{}, path...), key),
				Message:    fmt.Sprintf("unknown field %q", key),
				Suggestion: "remove it or check the spelling",
				Code:       CodeUnknownField,
			})
		}
	})
	return issues
}

// forEachEntry iterates the key/value pairs of a mapping node.
// Non-mapping nodes are ignored; type mismatches surface during decoding.
func forEachEntry(node *yaml.Node, fn func(key string, val *yaml.Node)) {
	if node == nil || node.Kind != yaml.MappingNode {
		return
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		fn(node.Content[i].Value, node.Content[i+1])
	}
}

func unwrapDocument(root *yaml.Node) *yaml.Node {
	if root == nil {
		return nil
	}
	if root.Kind == yaml.DocumentNode {
		if len(root.Content) == 0 {
			return nil
		}
		root = root.Content[0]
	}
	if root.Kind != yaml.MappingNode {
		return nil
	}
	return root
}
