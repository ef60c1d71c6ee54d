package object

import "strings"

// SCIMAttributeValue is either a SimpleValue or a mapping from
// sub-attribute name to SCIMAttribute. The complex form is used both for
// singular complex attributes and for each element of a plural complex
// attribute, where by convention it carries the "value" sub-attribute and
// optionally "type", "primary", "display", "operation".
type SCIMAttributeValue struct {
	simple   SimpleValue
	isSimple bool
	complex  map[string]*SCIMAttribute // keyed lower-case
	order    []string                  // declared order of complex keys, for deterministic output
}

// SimpleAttributeValue wraps a SimpleValue as a SCIMAttributeValue.
func SimpleAttributeValue(v SimpleValue) SCIMAttributeValue {
	return SCIMAttributeValue{simple: v, isSimple: true}
}

// NewComplexAttributeValue builds an empty complex SCIMAttributeValue.
func NewComplexAttributeValue() SCIMAttributeValue {
	return SCIMAttributeValue{complex: make(map[string]*SCIMAttribute)}
}

// IsSimple reports whether this value wraps a SimpleValue rather than a
// complex sub-attribute map.
func (v SCIMAttributeValue) IsSimple() bool {
	return v.isSimple
}

// Simple returns the wrapped SimpleValue; callers must check IsSimple first.
func (v SCIMAttributeValue) Simple() SimpleValue {
	return v.simple
}

// Set stores attr under sub-attribute name name (case-insensitive),
// replacing any prior value, and records first-seen insertion order.
func (v *SCIMAttributeValue) Set(name string, attr *SCIMAttribute) {
	if v.complex == nil {
		v.complex = make(map[string]*SCIMAttribute)
	}
	key := strings.ToLower(name)
	if _, exists := v.complex[key]; !exists {
		v.order = append(v.order, key)
	}
	v.complex[key] = attr
}

// Get returns the sub-attribute named name (case-insensitive), or nil.
func (v SCIMAttributeValue) Get(name string) *SCIMAttribute {
	if v.complex == nil {
		return nil
	}
	return v.complex[strings.ToLower(name)]
}

// ForEachSubAttribute invokes callback for every sub-attribute, in
// insertion order.
func (v SCIMAttributeValue) ForEachSubAttribute(callback func(name string, attr *SCIMAttribute)) {
	for _, key := range v.order {
		callback(key, v.complex[key])
	}
}

// CountSubAttributes returns the number of sub-attributes present.
func (v SCIMAttributeValue) CountSubAttributes() int {
	return len(v.complex)
}
