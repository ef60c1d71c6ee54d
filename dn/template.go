// Package dn builds the distinguished name of a new LDAP entry from a
// configured template, and applies configured fixed-attribute policies
// to the staged entry (C6, part 1).
package dn

import (
	"fmt"
	"strings"

	"github.com/dirscim/gateway/ldap"
	"github.com/dirscim/gateway/spec"
)

// Template is a DN string with "{ldapAttributeType}" placeholders, each
// naming an LDAP attribute type the resource mapper has already written
// into the staged entry. Parsed once at config.Load time.
type Template struct {
	raw          string
	placeholders []string // parsed left-to-right, may repeat
}

// Parse compiles raw into a Template. It does not validate that the
// named placeholders exist on the resource; that is discovered the
// first time Build runs against a staged entry missing one.
func Parse(raw string) *Template {
	t := &Template{raw: raw}
	rest := raw
	for {
		start := strings.IndexByte(rest, '{')
		if start < 0 {
			break
		}
		end := strings.IndexByte(rest[start:], '}')
		if end < 0 {
			break
		}
		t.placeholders = append(t.placeholders, rest[start+1:start+end])
		rest = rest[start+end+1:]
	}
	return t
}

// Build substitutes every "{L}" placeholder with the first value of
// attribute L on staged, returning the resulting DN. It raises
// spec.ErrInvalidResource if a placeholder names an attribute absent
// (or empty) on staged.
func (t *Template) Build(staged *ldap.Entry) (string, error) {
	out := t.raw
	for _, placeholder := range t.placeholders {
		values := staged.Attribute(placeholder)
		if len(values) == 0 || values[0] == "" {
			return "", fmt.Errorf("%w: DN template placeholder %q is unbound", spec.ErrInvalidResource, placeholder)
		}
		out = strings.Replace(out, "{"+placeholder+"}", values[0], 1)
	}
	return out, nil
}
