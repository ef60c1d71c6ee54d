// Package derive implements the derived-attribute registry (C6, part
// 2): a named, config-time-resolved computation over a directory entry
// that produces a SCIM attribute value not drawn directly from that
// entry's own attributes.
package derive

import (
	"context"
	"fmt"

	"github.com/dirscim/gateway/ldap"
	"github.com/dirscim/gateway/object"
)

// Attribute computes a derived SCIM attribute for entry. searchBaseDN is
// the search base of the resource entry belongs to; GroupMembers ignores
// it and searches its own GroupSearchBase. A nil result with a nil error
// means the attribute does not apply to entry.
type Attribute interface {
	// Compute derives the attribute, or returns (nil, nil) if it does not apply.
	Compute(ctx context.Context, entry *ldap.Entry, directory ldap.DirectoryClient, searchBaseDN string) (*object.SCIMAttribute, error)
	// LDAPAttributeTypes lists the LDAP attribute types this computation
	// reads off entry, so the resource mapper can request them on the
	// primary search.
	LDAPAttributeTypes() []string
}

// Registry is the closed, named table of derived attributes available
// to configuration. Like transform.Registry, lookups happen once at
// config.Load time; an unknown name fails configuration load, never a
// request.
type Registry struct {
	byName map[string]Attribute
}

// NewRegistry returns an empty Registry. Unlike transform.Registry,
// built-ins are not pre-populated here: both GroupMembers and
// GeneratedID need per-resource parameters (a group search base, an
// attribute name), so config.Load constructs and registers them by name
// while compiling each resource.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Attribute)}
}

// Register adds or replaces the named derivation.
func (r *Registry) Register(name string, a Attribute) {
	r.byName[name] = a
}

// Lookup resolves name against the registry.
func (r *Registry) Lookup(name string) (Attribute, error) {
	a, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("derive: unregistered derivation %q", name)
	}
	return a, nil
}
