package object

import "strings"

type objectKey struct {
	schema string // lower-cased
	name   string // lower-cased
}

// SCIMObject is a mapping from (schema URN, attribute name) to
// SCIMAttribute, keyed case-insensitively on both the URN and the name.
// It is built by a codec (from an incoming payload) or by a resource
// mapper (from an LDAP entry); it is mutated only during construction
// and is request-scoped: never shared across requests, never retained
// past the response that was built from it.
type SCIMObject struct {
	attrs   map[objectKey]*SCIMAttribute
	order   []objectKey
	schemas []string // first-seen order of schema URNs present
}

// NewSCIMObject builds an empty SCIMObject.
func NewSCIMObject() *SCIMObject {
	return &SCIMObject{attrs: make(map[objectKey]*SCIMAttribute)}
}

func key(schema, name string) objectKey {
	return objectKey{schema: strings.ToLower(schema), name: strings.ToLower(name)}
}

// AddAttribute inserts attr, keyed by its descriptor's (schema, name).
// Any existing attribute under the same key is replaced, per the data
// model's "add replaces" invariant.
func (o *SCIMObject) AddAttribute(attr *SCIMAttribute) {
	d := attr.Descriptor()
	k := key(d.Schema(), d.Name())
	if _, exists := o.attrs[k]; !exists {
		o.order = append(o.order, k)
	}
	o.attrs[k] = attr
	o.noteSchema(d.Schema())
}

func (o *SCIMObject) noteSchema(schema string) {
	if schema == "" {
		return
	}
	for _, s := range o.schemas {
		if strings.EqualFold(s, schema) {
			return
		}
	}
	o.schemas = append(o.schemas, schema)
}

// Attribute returns the attribute keyed by (schema, name), or nil if absent.
func (o *SCIMObject) Attribute(schema, name string) *SCIMAttribute {
	return o.attrs[key(schema, name)]
}

// RemoveAttribute deletes the attribute keyed by (schema, name), if present.
func (o *SCIMObject) RemoveAttribute(schema, name string) {
	k := key(schema, name)
	if _, exists := o.attrs[k]; !exists {
		return
	}
	delete(o.attrs, k)
	for i, ok := range o.order {
		if ok == k {
			o.order = append(o.order[:i], o.order[i+1:]...)
			break
		}
	}
	for _, other := range o.order {
		if other.schema == k.schema {
			return
		}
	}
	for i, s := range o.schemas {
		if strings.ToLower(s) == k.schema {
			o.schemas = append(o.schemas[:i], o.schemas[i+1:]...)
			break
		}
	}
}

// ForEachAttribute invokes callback for every attribute belonging to
// schema (case-insensitive), in insertion order. Pass an empty schema to
// enumerate every attribute regardless of schema.
func (o *SCIMObject) ForEachAttribute(schema string, callback func(attr *SCIMAttribute)) {
	for _, k := range o.order {
		if schema != "" && k.schema != strings.ToLower(schema) {
			continue
		}
		callback(o.attrs[k])
	}
}

// CountAttributes returns the total number of attributes stored,
// across all schemas.
func (o *SCIMObject) CountAttributes() int {
	return len(o.attrs)
}

// Schemas returns every schema URN present, in first-seen order.
func (o *SCIMObject) Schemas() []string {
	out := make([]string, len(o.schemas))
	copy(out, o.schemas)
	return out
}
