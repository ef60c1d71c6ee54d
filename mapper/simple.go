package mapper

import (
	"fmt"
	"strings"

	"github.com/dirscim/gateway/filter/expr"
	"github.com/dirscim/gateway/ldap"
	"github.com/dirscim/gateway/object"
	"github.com/dirscim/gateway/spec"
	"github.com/dirscim/gateway/transform"
)

// Simple maps a singular, non-complex SCIM attribute to exactly one
// LDAP attribute type, through a named Transformer.
type Simple struct {
	Descriptor    *spec.AttributeDescriptor
	LDAPAttribute string
	Transform     transform.Transformer
}

var _ Mapper = (*Simple)(nil)

func (s *Simple) Attribute() *spec.AttributeDescriptor { return s.Descriptor }

func (s *Simple) LDAPAttributeTypes() []string { return []string{s.LDAPAttribute} }

func (s *Simple) ToLDAP(obj *object.SCIMObject, out *ldap.Entry) error {
	attr := obj.Attribute(s.Descriptor.Schema(), s.Descriptor.Name())
	if attr == nil || !attr.Present() {
		return nil
	}
	return s.toLDAPFromValue(attr.Value(), out)
}

func (s *Simple) toLDAPFromValue(value object.SCIMAttributeValue, out *ldap.Entry) error {
	if !value.IsSimple() {
		return fmt.Errorf("%w: %s.%s expects a simple value", spec.ErrInvalidResource, s.Descriptor.Schema(), s.Descriptor.Name())
	}
	raw, err := s.Transform.ToLDAPValue(s.Descriptor, value.Simple())
	if err != nil {
		return err
	}
	out.Set(s.LDAPAttribute, string(raw))
	return nil
}

func (s *Simple) ToSCIM(entry *ldap.Entry) (*object.SCIMAttribute, error) {
	values := entry.Attribute(s.LDAPAttribute)
	if len(values) == 0 {
		return nil, nil
	}
	v, err := s.Transform.ToSCIMValue(s.Descriptor, []byte(values[0]))
	if err != nil {
		return nil, err
	}
	return object.NewSingularAttribute(s.Descriptor, object.SimpleAttributeValue(v)), nil
}

func (s *Simple) ToLDAPFilter(leaf *expr.Expression) (string, error) {
	if leaf.Op == expr.Pr {
		return compareOp(s.LDAPAttribute, leaf.Op, "")
	}
	rewritten, err := s.Transform.ToLDAPFilterValue(leaf.Value)
	if err != nil {
		return "", err
	}
	return compareOp(s.LDAPAttribute, leaf.Op, ldapEscape(rewritten))
}

func (s *Simple) ToLDAPSortAttribute(subName string) (string, bool) {
	if subName != "" {
		return "", false
	}
	return s.LDAPAttribute, true
}

// normalizeTag lower-cases a plural type tag for map lookups.
func normalizeTag(tag string) string { return strings.ToLower(strings.TrimSpace(tag)) }
