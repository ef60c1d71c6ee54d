package mapper

import (
	"fmt"

	"github.com/dirscim/gateway/filter/expr"
	"github.com/dirscim/gateway/ldap"
	"github.com/dirscim/gateway/object"
	"github.com/dirscim/gateway/spec"
	"github.com/dirscim/gateway/transform"
)

// Plural maps a multi-valued SCIM attribute (e.g. "emails") onto the
// directory in one of two ways: a canonicalized set of LDAP attribute
// types, one per recognized pluralType tag (e.g. "work" -> mail, "home"
// -> homeMail), or a single multi-valued LDAP attribute where every
// stored value becomes one plural element. Exactly one of
// CanonicalByType or MultiValuedLDAPAttribute is populated.
type Plural struct {
	Descriptor      *spec.AttributeDescriptor
	ValueDescriptor *spec.AttributeDescriptor
	TypeDescriptor  *spec.AttributeDescriptor
	ValueTransform  transform.Transformer

	// Canonical mode.
	CanonicalByType map[string]string // tag (lower-case) -> LDAP attribute
	TypeOrder       []string          // stable iteration order of CanonicalByType's keys

	// Multi-valued mode, used when CanonicalByType is empty.
	MultiValuedLDAPAttribute string
}

var _ Mapper = (*Plural)(nil)

func (p *Plural) Attribute() *spec.AttributeDescriptor { return p.Descriptor }

func (p *Plural) canonical() bool { return len(p.CanonicalByType) > 0 }

// backingAttributes lists every LDAP attribute type this mapper can read
// or write, in stable order.
func (p *Plural) backingAttributes() []string {
	if p.canonical() {
		out := make([]string, 0, len(p.TypeOrder))
		for _, tag := range p.TypeOrder {
			out = append(out, p.CanonicalByType[tag])
		}
		return out
	}
	return []string{p.MultiValuedLDAPAttribute}
}

func (p *Plural) LDAPAttributeTypes() []string { return p.backingAttributes() }

func (p *Plural) ToLDAP(obj *object.SCIMObject, out *ldap.Entry) error {
	attr := obj.Attribute(p.Descriptor.Schema(), p.Descriptor.Name())
	if attr == nil || !attr.Present() {
		return nil
	}

	if p.canonical() {
		byAttr := make(map[string][]string)
		for _, elem := range attr.Values() {
			tagAttr := elem.Get("type")
			if tagAttr == nil {
				continue
			}
			tag := normalizeTag(tagAttr.Value().Simple().String())
			ldapAttr, ok := p.CanonicalByType[tag]
			if !ok {
				continue
			}
			valueAttr := elem.Get("value")
			if valueAttr == nil || !valueAttr.Present() {
				continue
			}
			raw, err := p.ValueTransform.ToLDAPValue(p.ValueDescriptor, valueAttr.Value().Simple())
			if err != nil {
				return err
			}
			byAttr[ldapAttr] = append(byAttr[ldapAttr], string(raw))
		}
		for ldapAttr, values := range byAttr {
			out.Set(ldapAttr, values...)
		}
		return nil
	}

	var values []string
	for _, elem := range attr.Values() {
		valueAttr := elem.Get("value")
		if valueAttr == nil || !valueAttr.Present() {
			continue
		}
		raw, err := p.ValueTransform.ToLDAPValue(p.ValueDescriptor, valueAttr.Value().Simple())
		if err != nil {
			return err
		}
		values = append(values, string(raw))
	}
	if len(values) > 0 {
		out.Set(p.MultiValuedLDAPAttribute, values...)
	}
	return nil
}

func (p *Plural) ToSCIM(entry *ldap.Entry) (*object.SCIMAttribute, error) {
	var elements []object.SCIMAttributeValue

	if p.canonical() {
		for _, tag := range p.TypeOrder {
			ldapAttr := p.CanonicalByType[tag]
			for _, raw := range entry.Attribute(ldapAttr) {
				v, err := p.ValueTransform.ToSCIMValue(p.ValueDescriptor, []byte(raw))
				if err != nil {
					return nil, err
				}
				elem := object.NewComplexAttributeValue()
				elem.Set("value", object.NewSingularAttribute(p.ValueDescriptor, object.SimpleAttributeValue(v)))
				if p.TypeDescriptor != nil {
					elem.Set("type", object.NewSingularAttribute(p.TypeDescriptor, object.SimpleAttributeValue(object.StringValue(tag))))
				}
				elements = append(elements, elem)
			}
		}
	} else {
		for _, raw := range entry.Attribute(p.MultiValuedLDAPAttribute) {
			v, err := p.ValueTransform.ToSCIMValue(p.ValueDescriptor, []byte(raw))
			if err != nil {
				return nil, err
			}
			elem := object.NewComplexAttributeValue()
			elem.Set("value", object.NewSingularAttribute(p.ValueDescriptor, object.SimpleAttributeValue(v)))
			elements = append(elements, elem)
		}
	}

	if len(elements) == 0 {
		return nil, nil
	}
	return object.NewPluralAttribute(p.Descriptor, elements), nil
}

func (p *Plural) ToLDAPFilter(leaf *expr.Expression) (string, error) {
	if leaf.SubName == "" {
		return "", fmt.Errorf("%w: %s requires a sub-attribute in filters", spec.ErrInvalidFilter, p.Descriptor.Name())
	}

	switch normalizeTag(leaf.SubName) {
	case "value":
		if leaf.Op == expr.Pr {
			var fragments []string
			for _, attr := range p.backingAttributes() {
				f, err := compareOp(attr, expr.Pr, "")
				if err != nil {
					return "", err
				}
				fragments = append(fragments, f)
			}
			return orFragments(fragments), nil
		}
		rewritten, err := p.ValueTransform.ToLDAPFilterValue(leaf.Value)
		if err != nil {
			return "", err
		}
		escaped := ldapEscape(rewritten)
		var fragments []string
		for _, attr := range p.backingAttributes() {
			f, err := compareOp(attr, leaf.Op, escaped)
			if err != nil {
				return "", err
			}
			fragments = append(fragments, f)
		}
		return orFragments(fragments), nil

	case "type":
		if !p.canonical() || leaf.Op != expr.Eq {
			return "", nil
		}
		ldapAttr, ok := p.CanonicalByType[normalizeTag(leaf.Value)]
		if !ok {
			return "", nil
		}
		return compareOp(ldapAttr, expr.Pr, "")

	default:
		return "", nil
	}
}

func (p *Plural) ToLDAPSortAttribute(string) (string, bool) {
	return "", false
}
