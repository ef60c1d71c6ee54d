package mapper

import (
	"fmt"
	"strings"

	"github.com/dirscim/gateway/filter/expr"
	"github.com/dirscim/gateway/ldap"
	"github.com/dirscim/gateway/object"
	"github.com/dirscim/gateway/spec"
)

// Complex maps a singular complex SCIM attribute (e.g. "name") onto a
// set of LDAP attribute types, one per sub-attribute. A Complex value is
// present iff at least one of its sub-attributes is present.
type Complex struct {
	Descriptor *spec.AttributeDescriptor
	// SubMappers holds one Simple mapper per mapped sub-attribute, keyed
	// lower-case by sub-attribute name. SubOrder fixes their ToSCIM
	// iteration order for deterministic output.
	SubMappers map[string]*Simple
	SubOrder   []string
}

var _ Mapper = (*Complex)(nil)

func (c *Complex) Attribute() *spec.AttributeDescriptor { return c.Descriptor }

func (c *Complex) LDAPAttributeTypes() []string {
	var out []string
	for _, name := range c.SubOrder {
		out = append(out, c.SubMappers[name].LDAPAttribute)
	}
	return out
}

func (c *Complex) ToLDAP(obj *object.SCIMObject, out *ldap.Entry) error {
	attr := obj.Attribute(c.Descriptor.Schema(), c.Descriptor.Name())
	if attr == nil || !attr.Present() {
		return nil
	}
	value := attr.Value()
	for _, subName := range c.SubOrder {
		sub := value.Get(subName)
		if sub == nil || !sub.Present() {
			continue
		}
		if err := c.SubMappers[subName].toLDAPFromValue(sub.Value(), out); err != nil {
			return err
		}
	}
	return nil
}

func (c *Complex) ToSCIM(entry *ldap.Entry) (*object.SCIMAttribute, error) {
	value := object.NewComplexAttributeValue()
	present := false
	for _, subName := range c.SubOrder {
		sub, err := c.SubMappers[subName].ToSCIM(entry)
		if err != nil {
			return nil, err
		}
		if sub == nil {
			continue
		}
		value.Set(subName, sub)
		present = true
	}
	if !present {
		return nil, nil
	}
	return object.NewSingularAttribute(c.Descriptor, value), nil
}

// SubMapper returns the mapped sub-attribute's mapper, or nil if subName
// is not mapped.
func (c *Complex) SubMapper(subName string) *Simple {
	return c.SubMappers[strings.ToLower(subName)]
}

func (c *Complex) ToLDAPFilter(leaf *expr.Expression) (string, error) {
	if leaf.SubName == "" {
		return "", fmt.Errorf("%w: %s requires a sub-attribute in filters", spec.ErrInvalidFilter, c.Descriptor.Name())
	}
	sub := c.SubMapper(leaf.SubName)
	if sub == nil {
		return "", nil
	}
	return sub.ToLDAPFilter(leaf)
}

func (c *Complex) ToLDAPSortAttribute(subName string) (string, bool) {
	sub := c.SubMapper(subName)
	if sub == nil {
		return "", false
	}
	return sub.ToLDAPSortAttribute("")
}
