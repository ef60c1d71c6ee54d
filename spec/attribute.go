package spec

import "strings"

// AttributeDescriptor is immutable metadata describing a single SCIM
// attribute. It is built once by config.Load and shared, read-only,
// across every request that touches the resource it belongs to.
//
// Access to the fields is via accessor methods only, following the
// project's convention of never exposing mutable internal state. This
// leaves room to change the internal representation without breaking
// callers.
type AttributeDescriptor struct {
	schema        string
	name          string
	dataType      DataType
	cardinality   Cardinality
	readOnly      bool
	required      bool
	caseExact     bool
	description   string
	subAttributes []*AttributeDescriptor
	pluralTypes   []string
}

// AttributeDescriptorArgs collects the fields used to build an
// AttributeDescriptor. config.Load is the only caller expected to
// populate this directly.
type AttributeDescriptorArgs struct {
	Schema        string
	Name          string
	DataType      string
	Cardinality   string
	ReadOnly      bool
	Required      bool
	CaseExact     bool
	Description   string
	SubAttributes []*AttributeDescriptor
	PluralTypes   []string
}

// NewAttributeDescriptor builds an AttributeDescriptor from config-loaded
// arguments. It panics on a malformed data type or cardinality name,
// which only ever originates in a configuration document, never in
// request data.
func NewAttributeDescriptor(args AttributeDescriptorArgs) *AttributeDescriptor {
	d := &AttributeDescriptor{
		schema:        args.Schema,
		name:          args.Name,
		dataType:      mustParseDataType(args.DataType),
		cardinality:   mustParseCardinality(args.Cardinality),
		readOnly:      args.ReadOnly,
		required:      args.Required,
		caseExact:     args.CaseExact,
		description:   args.Description,
		subAttributes: args.SubAttributes,
		pluralTypes:   args.PluralTypes,
	}
	return d
}

// Schema returns the schema URN this attribute belongs to.
func (d *AttributeDescriptor) Schema() string {
	return d.schema
}

// Name returns the attribute's name.
func (d *AttributeDescriptor) Name() string {
	return d.name
}

// DataType returns the attribute's data type.
func (d *AttributeDescriptor) DataType() DataType {
	return d.dataType
}

// Cardinality returns whether the attribute is singular or plural.
func (d *AttributeDescriptor) Cardinality() Cardinality {
	return d.cardinality
}

// Plural returns true if this attribute is multi-valued.
func (d *AttributeDescriptor) Plural() bool {
	return d.cardinality == CardinalityPlural
}

// ReadOnly returns true if the attribute may never be set by a client.
func (d *AttributeDescriptor) ReadOnly() bool {
	return d.readOnly
}

// Required returns true if the attribute must be present on create.
func (d *AttributeDescriptor) Required() bool {
	return d.required
}

// CaseExact returns true if string comparisons against this attribute's
// value are byte-exact rather than case-folded. Meaningful only for
// STRING (and, by inheritance, BINARY) attributes.
func (d *AttributeDescriptor) CaseExact() bool {
	return d.caseExact
}

// Description returns the human-readable description of the attribute.
func (d *AttributeDescriptor) Description() string {
	return d.description
}

// ForEachSubAttribute invokes callback for every sub-attribute, in
// declared order.
func (d *AttributeDescriptor) ForEachSubAttribute(callback func(sub *AttributeDescriptor)) {
	for _, sub := range d.subAttributes {
		callback(sub)
	}
}

// SubAttribute returns the sub-attribute matching name case-insensitively,
// or nil if none matches.
func (d *AttributeDescriptor) SubAttribute(name string) *AttributeDescriptor {
	for _, sub := range d.subAttributes {
		if strings.EqualFold(sub.name, name) {
			return sub
		}
	}
	return nil
}

// CountSubAttributes returns the number of declared sub-attributes.
func (d *AttributeDescriptor) CountSubAttributes() int {
	return len(d.subAttributes)
}

// PluralType returns true if tag is among the recognized pluralType tags
// for this attribute (e.g. "work", "home" for emails).
func (d *AttributeDescriptor) PluralType(tag string) bool {
	for _, t := range d.pluralTypes {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// ForEachPluralType invokes callback for every recognized pluralType tag.
func (d *AttributeDescriptor) ForEachPluralType(callback func(tag string)) {
	for _, t := range d.pluralTypes {
		callback(t)
	}
}

// SchemaEqual reports whether two schema URNs are the same schema,
// compared case-insensitively as the data model requires.
func SchemaEqual(a, b string) bool {
	return strings.EqualFold(a, b)
}
