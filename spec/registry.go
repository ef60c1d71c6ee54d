package spec

import "strings"

// ResourceDescriptor pairs a schema URN with the top-level attribute
// descriptors defined for a resource (e.g. User, Group).
type ResourceDescriptor struct {
	endpoint   string
	schemaURN  string
	attributes []*AttributeDescriptor
}

// NewResourceDescriptor builds a ResourceDescriptor. config.Load is the
// only expected caller.
func NewResourceDescriptor(endpoint, schemaURN string, attributes []*AttributeDescriptor) *ResourceDescriptor {
	return &ResourceDescriptor{endpoint: endpoint, schemaURN: schemaURN, attributes: attributes}
}

// Endpoint returns the SCIM endpoint name this resource is served under
// (e.g. "Users").
func (r *ResourceDescriptor) Endpoint() string {
	return r.endpoint
}

// SchemaURN returns the resource's core schema URN.
func (r *ResourceDescriptor) SchemaURN() string {
	return r.schemaURN
}

// ForEachAttribute invokes callback for every top-level attribute
// descriptor of this resource.
func (r *ResourceDescriptor) ForEachAttribute(callback func(d *AttributeDescriptor)) {
	for _, d := range r.attributes {
		callback(d)
	}
}

// Attribute returns the top-level descriptor named name, or nil.
func (r *ResourceDescriptor) Attribute(name string) *AttributeDescriptor {
	for _, d := range r.attributes {
		if strings.EqualFold(d.name, name) {
			return d
		}
	}
	return nil
}

// Registry is the immutable, process-wide descriptor and resource
// catalog built once by config.Load. It is safe for concurrent use by
// any number of request handlers, per the concurrency model: the
// catalog is loaded once at startup and never mutated thereafter.
type Registry struct {
	descriptors map[string]*AttributeDescriptor // key: schema|name, lower-cased
	resources   map[string]*ResourceDescriptor  // key: endpoint, lower-cased
}

// NewRegistry builds an empty Registry. config.Load populates it via
// AddDescriptor/AddResource while compiling a configuration document.
func NewRegistry() *Registry {
	return &Registry{
		descriptors: make(map[string]*AttributeDescriptor),
		resources:   make(map[string]*ResourceDescriptor),
	}
}

func descriptorKey(schema, name string) string {
	return strings.ToLower(schema) + "|" + strings.ToLower(name)
}

// AddDescriptor registers a top-level attribute descriptor under its
// (schema, name) key.
func (r *Registry) AddDescriptor(d *AttributeDescriptor) {
	r.descriptors[descriptorKey(d.schema, d.name)] = d
}

// AddResource registers a resource descriptor under its endpoint name.
func (r *Registry) AddResource(rd *ResourceDescriptor) {
	r.resources[strings.ToLower(rd.endpoint)] = rd
}

// Descriptor returns the top-level descriptor for (schema, name), or nil
// if not found. An empty schema matches name in whichever schema defines
// it; if more than one schema does, the result is nil.
func (r *Registry) Descriptor(schema, name string) *AttributeDescriptor {
	if schema != "" {
		return r.descriptors[descriptorKey(schema, name)]
	}
	var found *AttributeDescriptor
	for _, d := range r.descriptors {
		if strings.EqualFold(d.name, name) {
			if found != nil {
				return nil
			}
			found = d
		}
	}
	return found
}

// SubDescriptor returns the sub-attribute of parent matching name
// case-insensitively, or nil.
func (r *Registry) SubDescriptor(parent *AttributeDescriptor, name string) *AttributeDescriptor {
	if parent == nil {
		return nil
	}
	return parent.SubAttribute(name)
}

// Resource returns the ResourceDescriptor registered under endpointName,
// or nil if not found.
func (r *Registry) Resource(endpointName string) *ResourceDescriptor {
	return r.resources[strings.ToLower(endpointName)]
}

// ForEachResource invokes callback for every registered resource.
func (r *Registry) ForEachResource(callback func(rd *ResourceDescriptor)) {
	for _, rd := range r.resources {
		callback(rd)
	}
}
