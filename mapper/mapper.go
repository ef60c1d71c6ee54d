// Package mapper implements the attribute mappers (C5): the per-attribute
// translation between a SCIM attribute and the one or more LDAP attribute
// types backing it. A resource's set of mappers is assembled by
// config.Load from its configuration document; the resource package
// composes them into a whole-entry mapping.
package mapper

import (
	"fmt"

	"github.com/dirscim/gateway/filter/expr"
	"github.com/dirscim/gateway/ldap"
	"github.com/dirscim/gateway/object"
	"github.com/dirscim/gateway/spec"
)

// Mapper translates a single SCIM attribute to and from the LDAP
// attribute type(s) that back it. ToLDAPFilter returns ("", nil) — not
// an error — when leaf cannot be translated to an LDAP assertion; the
// resource package treats that as "this leaf must be evaluated in
// memory after the search returns."
type Mapper interface {
	// Attribute returns the SCIM attribute descriptor this mapper serves.
	Attribute() *spec.AttributeDescriptor
	// LDAPAttributeTypes returns every LDAP attribute type this mapper
	// reads or writes, for building search attribute lists and for
	// restricting toLdapModifications diffs to mapper-owned types.
	LDAPAttributeTypes() []string
	// ToLDAP writes this mapper's attribute, read out of obj, into out.
	// A no-op if the attribute is absent from obj.
	ToLDAP(obj *object.SCIMObject, out *ldap.Entry) error
	// ToSCIM builds this mapper's attribute by reading entry. Returns a
	// nil attribute, not an error, if nothing backs it.
	ToSCIM(entry *ldap.Entry) (*object.SCIMAttribute, error)
	// ToLDAPFilter translates a single filter leaf whose path resolves to
	// this mapper into an LDAP filter fragment such as "(mail=bob*)".
	ToLDAPFilter(leaf *expr.Expression) (string, error)
	// ToLDAPSortAttribute returns the LDAP attribute type to sort on for
	// subName (empty for the attribute itself), and whether sorting on it
	// is supported at all.
	ToLDAPSortAttribute(subName string) (string, bool)
}

// compareOp renders the filter operator table shared by
// Simple and Plural: EQ, CO, SW and PR map directly; GT/GE widen to >=
// and LT/LE widen to <=, per the server-side filtering limitation that
// LDAP has no native ordering comparison finer than >= and <=.
func compareOp(ldapAttr string, op expr.Op, value string) (string, error) {
	switch op {
	case expr.Eq:
		return fmt.Sprintf("(%s=%s)", ldapAttr, value), nil
	case expr.Co:
		return fmt.Sprintf("(%s=*%s*)", ldapAttr, value), nil
	case expr.Sw:
		return fmt.Sprintf("(%s=%s*)", ldapAttr, value), nil
	case expr.Pr:
		return fmt.Sprintf("(%s=*)", ldapAttr), nil
	case expr.Gt, expr.Ge:
		return fmt.Sprintf("(%s>=%s)", ldapAttr, value), nil
	case expr.Lt, expr.Le:
		return fmt.Sprintf("(%s<=%s)", ldapAttr, value), nil
	default:
		return "", fmt.Errorf("%w: unsupported filter operator %q", spec.ErrInvalidFilter, op)
	}
}

// orFragments combines one or more non-empty LDAP filter fragments with
// an OR, or returns the lone fragment unwrapped. Empty fragments are
// skipped; an entirely empty input yields "".
func orFragments(fragments []string) string {
	var nonEmpty []string
	for _, f := range fragments {
		if f != "" {
			nonEmpty = append(nonEmpty, f)
		}
	}
	switch len(nonEmpty) {
	case 0:
		return ""
	case 1:
		return nonEmpty[0]
	default:
		out := "(|"
		for _, f := range nonEmpty {
			out += f
		}
		return out + ")"
	}
}
