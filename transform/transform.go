// Package transform implements the named, closed table of value
// transformations (C4): typed conversions between LDAP octet strings and
// SCIM simple values. Transformations are registered once at
// config.Load time under a short name; an unknown name fails
// configuration load, never a request (the named-registry replacement
// for the source's dynamic class loading, see spec.md §9).
package transform

import (
	"github.com/dirscim/gateway/object"
	"github.com/dirscim/gateway/spec"
)

// Transformer converts between a LDAP attribute's wire bytes and a SCIM
// SimpleValue, with respect to the target descriptor's data type.
// Implementations must be total over well-formed input and raise
// spec.ErrInvalidAttributeValue on ill-formed data.
type Transformer interface {
	// ToLDAPValue encodes a SCIM simple value as LDAP attribute bytes.
	ToLDAPValue(d *spec.AttributeDescriptor, v object.SimpleValue) ([]byte, error)
	// ToSCIMValue decodes LDAP attribute bytes into a SCIM simple value
	// of d's data type.
	ToSCIMValue(d *spec.AttributeDescriptor, raw []byte) (object.SimpleValue, error)
	// ToLDAPFilterValue rewrites a raw SCIM filter literal into its LDAP
	// filter assertion-value encoding (e.g. generalizedTime literal ->
	// LDAP generalized time string).
	ToLDAPFilterValue(rawFilterLiteral string) (string, error)
}
