// Package filter decides, per target client, which declared MCP servers
// apply. The decision order is fixed and short-circuiting: platform
// exclusions first, then client exclusions, then transport support.
package filter

import (
	"fmt"
	"slices"
	"strings"

	"github.com/jander99/overture-sub000/internal/config"
)

// Capabilities is the subset of the client adapter contract the filter
// needs. Keeping it narrow lets tests use a literal instead of an adapter.
type Capabilities interface {
	Name() string
	SupportsTransport(transport string) bool
}

// Reason categories for exclusion, used by Summary counting.
const (
	ReasonPlatform  = "platform"
	ReasonClient    = "client"
	ReasonTransport = "transport"
	ReasonDisabled  = "disabled"
)

// Decision is the outcome of evaluating one declaration for one client.
type Decision struct {
	// Included reports whether the server applies to the client.
	Included bool
	// Reason categorizes an exclusion (platform, client, transport,
	// disabled). Empty when included.
	Reason string
	// Detail is a human-readable explanation of the exclusion.
	Detail string
}

// Decide evaluates a declaration against a target client and platform.
// The first matching rule wins:
//  1. declaration disabled
//  2. platforms.exclude contains the platform
//  3. clients.exclude contains the client, or clients.include omits it
//  4. the client does not support the declared transport
func Decide(decl *config.ServerDecl, client Capabilities, platform string) Decision {
	if !decl.IsEnabled() {
		return Decision{Reason: ReasonDisabled, Detail: "declaration is disabled"}
	}

	if decl.Platforms != nil && slices.Contains(decl.Platforms.Exclude, platform) {
		return Decision{
			Reason: ReasonPlatform,
			Detail: fmt.Sprintf("excluded on platform %s", platform),
		}
	}

	if decl.Clients != nil {
		if slices.Contains(decl.Clients.Exclude, client.Name()) {
			return Decision{
				Reason: ReasonClient,
				Detail: fmt.Sprintf("excluded for client %s", client.Name()),
			}
		}
		if len(decl.Clients.Include) > 0 && !slices.Contains(decl.Clients.Include, client.Name()) {
			return Decision{
				Reason: ReasonClient,
				Detail: fmt.Sprintf("include list omits client %s", client.Name()),
			}
		}
	}

	transport := decl.EffectiveTransport()
	if !client.SupportsTransport(transport) {
		return Decision{
			Reason: ReasonTransport,
			Detail: fmt.Sprintf("client %s does not support transport %s", client.Name(), transport),
		}
	}

	return Decision{Included: true}
}

// Summary reports why servers were or were not selected for a client.
// Operators rely on this to understand why a server did not appear for a
// given tool, so it is part of the filter's contract, not debug output.
type Summary struct {
	Client      string
	Platform    string
	Total       int
	Included    int
	ByPlatform  int
	ByClient    int
	ByTransport int
	ByDisabled  int

	// Excluded maps server names to their exclusion detail.
	Excluded map[string]Decision
}

// String renders the summary on one line for diagnostics.
func (s *Summary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s): %d/%d included", s.Client, s.Platform, s.Included, s.Total)
	if s.ByPlatform > 0 {
		fmt.Fprintf(&b, ", %d excluded by platform", s.ByPlatform)
	}
	if s.ByClient > 0 {
		fmt.Fprintf(&b, ", %d excluded by client", s.ByClient)
	}
	if s.ByTransport > 0 {
		fmt.Fprintf(&b, ", %d excluded by transport", s.ByTransport)
	}
	if s.ByDisabled > 0 {
		fmt.Fprintf(&b, ", %d disabled", s.ByDisabled)
	}
	return b.String()
}

// ForClient applies Decide to every declaration and returns the included
// subset under its original keys, plus the summary.
func ForClient(decls map[string]*config.ServerDecl, client Capabilities, platform string) (map[string]*config.ServerDecl, *Summary) {
	included := make(map[string]*config.ServerDecl, len(decls))
	summary := &Summary{
		Client:   client.Name(),
		Platform: platform,
		Total:    len(decls),
		Excluded: make(map[string]Decision),
	}

	for name, decl := range decls {
		d := Decide(decl, client, platform)
		if d.Included {
			included[name] = decl
			summary.Included++
			continue
		}
		summary.Excluded[name] = d
		switch d.Reason {
		case ReasonPlatform:
			summary.ByPlatform++
		case ReasonClient:
			summary.ByClient++
		case ReasonTransport:
			summary.ByTransport++
		case ReasonDisabled:
			summary.ByDisabled++
		}
	}

	return included, summary
}
