package object

import "github.com/dirscim/gateway/spec"

// SCIMAttribute pairs an AttributeDescriptor with its values. A singular
// attribute carries exactly one SCIMAttributeValue; a plural attribute
// carries an ordered sequence. Ordering of plural values is preserved
// but not semantically significant to equality.
type SCIMAttribute struct {
	descriptor *spec.AttributeDescriptor
	values     []SCIMAttributeValue
}

// NewSingularAttribute builds a SCIMAttribute carrying exactly one value.
func NewSingularAttribute(d *spec.AttributeDescriptor, value SCIMAttributeValue) *SCIMAttribute {
	return &SCIMAttribute{descriptor: d, values: []SCIMAttributeValue{value}}
}

// NewPluralAttribute builds a SCIMAttribute carrying an ordered sequence
// of values.
func NewPluralAttribute(d *spec.AttributeDescriptor, values []SCIMAttributeValue) *SCIMAttribute {
	return &SCIMAttribute{descriptor: d, values: values}
}

// Descriptor returns the attribute's descriptor.
func (a *SCIMAttribute) Descriptor() *spec.AttributeDescriptor {
	return a.descriptor
}

// Present reports whether this attribute carries at least one value.
func (a *SCIMAttribute) Present() bool {
	return len(a.values) > 0
}

// Value returns the single value of a singular attribute. It panics if
// the attribute is plural; callers should use Values for plural attributes.
func (a *SCIMAttribute) Value() SCIMAttributeValue {
	if a.descriptor.Plural() {
		panic("object: Value called on a plural attribute")
	}
	if len(a.values) == 0 {
		return SCIMAttributeValue{}
	}
	return a.values[0]
}

// Values returns the ordered sequence of values of a plural attribute.
func (a *SCIMAttribute) Values() []SCIMAttributeValue {
	return a.values
}

// CountValues returns the number of values present.
func (a *SCIMAttribute) CountValues() int {
	return len(a.values)
}

// ForEachValue invokes callback for every value, in order.
func (a *SCIMAttribute) ForEachValue(callback func(index int, value SCIMAttributeValue)) {
	for i, v := range a.values {
		callback(i, v)
	}
}
