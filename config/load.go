package config

import (
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dirscim/gateway/derive"
	"github.com/dirscim/gateway/dn"
	"github.com/dirscim/gateway/ldap"
	"github.com/dirscim/gateway/mapper"
	"github.com/dirscim/gateway/resource"
	"github.com/dirscim/gateway/spec"
	"github.com/dirscim/gateway/transform"
)

// Document is the compiled result of Load: the descriptor/resource
// catalog, one resource.Mapper per configured resource (keyed by
// lower-cased endpoint name), and the service provider's capabilities.
type Document struct {
	Registry              *spec.Registry
	Resources             map[string]*resource.Mapper
	ServiceProviderConfig spec.ServiceProviderConfig
}

// Load parses r as a mapping configuration document (spec.md §6) and
// compiles it into a Document. It fails on the first unknown transform
// or derivation name, malformed shape, or structurally invalid
// document — configuration is loaded once at startup and is never
// expected to fail at request time.
func Load(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("config: reading document: %w", err)
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("config: parsing document: %w", err)
	}

	b := &builder{
		registry:    spec.NewRegistry(),
		transforms:  transform.NewRegistry(),
		derivations: derive.NewRegistry(),
		mappers:     make(map[string]*resource.Mapper),
	}

	for _, rr := range doc.Resources {
		if err := b.buildResource(rr); err != nil {
			return nil, err
		}
	}

	spConfig := spec.DefaultServiceProviderConfig()
	if doc.ServiceProviderConfig != nil {
		c := doc.ServiceProviderConfig
		if c.FilterSupported != nil {
			spConfig.FilterSupported = *c.FilterSupported
		}
		if c.SortSupported != nil {
			spConfig.SortSupported = *c.SortSupported
		}
		if c.PatchSupported != nil {
			spConfig.PatchSupported = *c.PatchSupported
		}
		if c.MaxResults > 0 {
			spConfig.MaxResults = c.MaxResults
		}
	}
	spConfig.ChangePasswordSupported = b.sawBCryptMapping

	return &Document{
		Registry:              b.registry,
		Resources:             b.mappers,
		ServiceProviderConfig: spConfig,
	}, nil
}

// builder accumulates the registries being compiled across every
// resource in the document.
type builder struct {
	registry         *spec.Registry
	transforms       *transform.Registry
	derivations      *derive.Registry
	mappers          map[string]*resource.Mapper
	sawBCryptMapping bool
}

func (b *builder) buildResource(rr rawResource) error {
	if rr.Name == "" || rr.Endpoint == "" || rr.Schema == "" {
		return fmt.Errorf("config: resource definition requires name, endpoint and schema")
	}

	scope, err := parseScope(rr.LDAPSearch.Scope)
	if err != nil {
		return fmt.Errorf("config: resource %q: %w", rr.Name, err)
	}
	if rr.LDAPAdd.DNTemplate == "" {
		return fmt.Errorf("config: resource %q: ldapAdd.dnTemplate is required", rr.Name)
	}

	var (
		descriptors []*spec.AttributeDescriptor
		mappers     []mapper.Mapper
		derived     []derive.Attribute
	)

	for _, ra := range rr.Attributes {
		d, m, da, err := b.buildAttribute(rr, ra)
		if err != nil {
			return fmt.Errorf("config: resource %q: %w", rr.Name, err)
		}
		descriptors = append(descriptors, d)
		if m != nil {
			mappers = append(mappers, m)
		}
		if da != nil {
			derived = append(derived, da)
		}
	}

	if err := requireMappedID(rr, descriptors, mappers); err != nil {
		return err
	}

	resourceDescriptor := spec.NewResourceDescriptor(rr.Endpoint, rr.Schema, descriptors)
	b.registry.AddResource(resourceDescriptor)

	var fixed []dn.FixedAttribute
	for _, rf := range rr.LDAPAdd.FixedAttributes {
		policy, err := parseConflictPolicy(rf.OnConflict)
		if err != nil {
			return fmt.Errorf("config: resource %q: fixed attribute %q: %w", rr.Name, rf.LDAPAttribute, err)
		}
		fixed = append(fixed, dn.FixedAttribute{
			LDAPAttribute: rf.LDAPAttribute,
			Values:        []string(rf.FixedValue),
			OnConflict:    policy,
		})
	}

	m := &resource.Mapper{
		ResourceName: rr.Name,
		EndpointName: rr.Endpoint,
		SchemaURN:    rr.Schema,
		SearchBaseDN: rr.LDAPSearch.BaseDN,
		SearchScope:  scope,
		SearchFilter: rr.LDAPSearch.Filter,
		DNTemplate:   dn.Parse(rr.LDAPAdd.DNTemplate),
		Fixed:        fixed,
		Mappers:      mappers,
		Derived:      derived,
	}
	m.Compile()
	b.mappers[strings.ToLower(rr.Endpoint)] = m
	return nil
}

// requireMappedID enforces that every resource's "id" attribute resolves
// to a plain mapper.Mapper, not a derivation: resource.Service.idLookup
// must search for the SCIM id by a real, stored LDAP attribute, and a
// GeneratedID derivation with no SourceAttribute (the DN-hash fallback)
// produces a value with nothing to search on. A GeneratedID derivation
// with a SourceAttribute set is a plain simple mapping in disguise, so
// this restriction costs nothing in practice — configure "id" with
// `simple` mapping to the searchable attribute (commonly entryUUID or
// uid) directly instead.
func requireMappedID(rr rawResource, descriptors []*spec.AttributeDescriptor, mappers []mapper.Mapper) error {
	for _, ra := range rr.Attributes {
		if !strings.EqualFold(ra.Name, "id") {
			continue
		}
		if ra.Derivation != nil {
			return fmt.Errorf("config: resource %q: \"id\" must be a simple mapping to a searchable LDAP attribute, not a derivation", rr.Name)
		}
		for _, m := range mappers {
			d := m.Attribute()
			if strings.EqualFold(d.Name(), "id") {
				return nil
			}
		}
	}
	return fmt.Errorf("config: resource %q: no \"id\" attribute configured", rr.Name)
}

func (b *builder) buildAttribute(rr rawResource, ra rawAttribute) (*spec.AttributeDescriptor, mapper.Mapper, derive.Attribute, error) {
	if ra.Name == "" {
		return nil, nil, nil, fmt.Errorf("attribute definition missing name")
	}
	schema := ra.Schema
	if schema == "" {
		schema = rr.Schema
	}

	shapeCount := 0
	for _, present := range []bool{ra.Simple != nil, ra.Complex != nil, ra.SimplePlural != nil, ra.ComplexPlural != nil} {
		if present {
			shapeCount++
		}
	}
	if shapeCount != 1 {
		return nil, nil, nil, fmt.Errorf("attribute %q must declare exactly one of simple/complex/simplePlural/complexPlural", ra.Name)
	}

	switch {
	case ra.Simple != nil:
		return b.buildSimple(schema, ra)
	case ra.Complex != nil:
		return b.buildComplex(schema, ra)
	case ra.SimplePlural != nil:
		return b.buildPlural(schema, ra, ra.SimplePlural)
	default:
		return b.buildPlural(schema, ra, ra.ComplexPlural)
	}
}

func (b *builder) buildSimple(schema string, ra rawAttribute) (*spec.AttributeDescriptor, mapper.Mapper, derive.Attribute, error) {
	d := spec.NewAttributeDescriptor(spec.AttributeDescriptorArgs{
		Schema:      schema,
		Name:        ra.Name,
		DataType:    ra.Simple.DataType,
		Cardinality: "singular",
		ReadOnly:    ra.ReadOnly,
		Required:    ra.Required,
		CaseExact:   ra.Simple.CaseExact,
		Description: ra.Description,
	})
	b.registry.AddDescriptor(d)

	if ra.Derivation != nil {
		da, err := b.buildDerivation(d, nil, ra.Derivation)
		if err != nil {
			return nil, nil, nil, err
		}
		return d, nil, da, nil
	}

	tf, err := b.transforms.Lookup(transformName(ra.Simple.Mapping.Transform))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("attribute %q: %w", ra.Name, err)
	}
	if ra.Simple.Mapping.Transform == "bcrypt" {
		b.sawBCryptMapping = true
	}
	if ra.Simple.Mapping.LDAPAttribute == "" {
		return nil, nil, nil, fmt.Errorf("attribute %q: mapping.ldapAttribute is required", ra.Name)
	}
	return d, &mapper.Simple{Descriptor: d, LDAPAttribute: ra.Simple.Mapping.LDAPAttribute, Transform: tf}, nil, nil
}

func (b *builder) buildComplex(schema string, ra rawAttribute) (*spec.AttributeDescriptor, mapper.Mapper, derive.Attribute, error) {
	var subDescriptors []*spec.AttributeDescriptor
	subOrder := make([]string, 0, len(ra.Complex.SubAttributes))
	subMappers := make(map[string]*mapper.Simple, len(ra.Complex.SubAttributes))

	for _, rs := range ra.Complex.SubAttributes {
		sd := spec.NewAttributeDescriptor(spec.AttributeDescriptorArgs{
			Schema:      schema,
			Name:        rs.Name,
			DataType:    rs.DataType,
			Cardinality: "singular",
			CaseExact:   rs.CaseExact,
		})
		subDescriptors = append(subDescriptors, sd)

		rm, mapped := ra.Complex.Mapping[rs.Name]
		if !mapped {
			continue
		}
		tf, err := b.transforms.Lookup(transformName(rm.Transform))
		if err != nil {
			return nil, nil, nil, fmt.Errorf("attribute %q.%s: %w", ra.Name, rs.Name, err)
		}
		key := strings.ToLower(rs.Name)
		subOrder = append(subOrder, key)
		subMappers[key] = &mapper.Simple{Descriptor: sd, LDAPAttribute: rm.LDAPAttribute, Transform: tf}
	}

	d := spec.NewAttributeDescriptor(spec.AttributeDescriptorArgs{
		Schema:        schema,
		Name:          ra.Name,
		DataType:      "complex",
		Cardinality:   "singular",
		ReadOnly:      ra.ReadOnly,
		Required:      ra.Required,
		Description:   ra.Description,
		SubAttributes: subDescriptors,
	})
	b.registry.AddDescriptor(d)

	if ra.Derivation != nil {
		da, err := b.buildDerivation(d, subDescriptors, ra.Derivation)
		if err != nil {
			return nil, nil, nil, err
		}
		return d, nil, da, nil
	}

	return d, &mapper.Complex{Descriptor: d, SubMappers: subMappers, SubOrder: subOrder}, nil, nil
}

// defaultPluralSubAttributes is the conventional SCIM sub-attribute set
// for a plural attribute whose elements are a single typed value
// (emails, phoneNumbers, ims, photos): value, type, primary, display.
func defaultPluralSubAttributes(schema, valueDataType string, caseExact bool) []rawSubAttribute {
	return []rawSubAttribute{
		{Name: "value", DataType: valueDataType, CaseExact: caseExact},
		{Name: "type", DataType: "string"},
		{Name: "primary", DataType: "boolean"},
		{Name: "display", DataType: "string"},
	}
}

func (b *builder) buildPlural(schema string, ra rawAttribute, shape *rawPluralShape) (*spec.AttributeDescriptor, mapper.Mapper, derive.Attribute, error) {
	subs := shape.SubAttributes
	if len(subs) == 0 {
		subs = defaultPluralSubAttributes(schema, shape.DataType, shape.CaseExact)
	}

	var subDescriptors []*spec.AttributeDescriptor
	var valueDescriptor, typeDescriptor *spec.AttributeDescriptor
	for _, rs := range subs {
		sd := spec.NewAttributeDescriptor(spec.AttributeDescriptorArgs{
			Schema:      schema,
			Name:        rs.Name,
			DataType:    rs.DataType,
			Cardinality: "singular",
			CaseExact:   rs.CaseExact,
		})
		subDescriptors = append(subDescriptors, sd)
		switch strings.ToLower(rs.Name) {
		case "value":
			valueDescriptor = sd
		case "type":
			typeDescriptor = sd
		}
	}
	if valueDescriptor == nil {
		return nil, nil, nil, fmt.Errorf("attribute %q: plural shape requires a \"value\" sub-attribute", ra.Name)
	}

	d := spec.NewAttributeDescriptor(spec.AttributeDescriptorArgs{
		Schema:        schema,
		Name:          ra.Name,
		DataType:      "complex",
		Cardinality:   "plural",
		ReadOnly:      ra.ReadOnly,
		Required:      ra.Required,
		Description:   ra.Description,
		SubAttributes: subDescriptors,
		PluralTypes:   []string(shape.PluralTypes),
	})
	b.registry.AddDescriptor(d)

	if ra.Derivation != nil {
		da, err := b.buildDerivation(d, subDescriptors, ra.Derivation)
		if err != nil {
			return nil, nil, nil, err
		}
		return d, nil, da, nil
	}

	tf, err := b.transforms.Lookup(transformName(shape.Mapping.Transform))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("attribute %q: %w", ra.Name, err)
	}

	pm := &mapper.Plural{
		Descriptor:      d,
		ValueDescriptor: valueDescriptor,
		TypeDescriptor:  typeDescriptor,
		ValueTransform:  tf,
	}
	if len(shape.Mapping.CanonicalByType) > 0 {
		pm.CanonicalByType = make(map[string]string, len(shape.Mapping.CanonicalByType))
		for tag, attr := range shape.Mapping.CanonicalByType {
			pm.CanonicalByType[strings.ToLower(tag)] = attr
		}
		for _, tag := range shape.PluralTypes {
			key := strings.ToLower(tag)
			if _, ok := pm.CanonicalByType[key]; ok {
				pm.TypeOrder = append(pm.TypeOrder, key)
			}
		}
		for key := range pm.CanonicalByType {
			if !containsString(pm.TypeOrder, key) {
				pm.TypeOrder = append(pm.TypeOrder, key)
			}
		}
	} else {
		if shape.Mapping.MultiValuedLDAPAttribute == "" {
			return nil, nil, nil, fmt.Errorf("attribute %q: mapping requires canonicalByType or multiValuedLDAPAttribute", ra.Name)
		}
		pm.MultiValuedLDAPAttribute = shape.Mapping.MultiValuedLDAPAttribute
	}

	return d, pm, nil, nil
}

func containsString(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}

func (b *builder) buildDerivation(d *spec.AttributeDescriptor, subDescriptors []*spec.AttributeDescriptor, rd *rawDerivation) (derive.Attribute, error) {
	switch rd.Name {
	case "generatedId":
		da := &derive.GeneratedID{Descriptor: d, SourceAttribute: rd.Params["sourceAttribute"]}
		b.derivations.Register(rd.Name, da)
		return da, nil

	case "groupMembers":
		valueDescriptor := findSubAttribute(subDescriptors, "value")
		if valueDescriptor == nil {
			return nil, fmt.Errorf("derivation %q requires a \"value\" sub-attribute on %q", rd.Name, d.Name())
		}
		memberAttr := rd.Params["memberAttribute"]
		groupBase := rd.Params["groupSearchBase"]
		if memberAttr == "" || groupBase == "" {
			return nil, fmt.Errorf("derivation %q on %q requires params.memberAttribute and params.groupSearchBase", rd.Name, d.Name())
		}
		da := &derive.GroupMembers{
			Descriptor:        d,
			ValueDescriptor:   valueDescriptor,
			DisplayAttribute:  rd.Params["displayAttribute"],
			DisplayDescriptor: findSubAttribute(subDescriptors, "display"),
			GroupSearchBase:   groupBase,
			GroupFilter:       rd.Params["groupFilter"],
			MemberAttribute:   memberAttr,
		}
		b.derivations.Register(rd.Name, da)
		return da, nil

	default:
		return nil, fmt.Errorf("attribute %q: unknown derivation %q", d.Name(), rd.Name)
	}
}

func findSubAttribute(subs []*spec.AttributeDescriptor, name string) *spec.AttributeDescriptor {
	for _, s := range subs {
		if strings.EqualFold(s.Name(), name) {
			return s
		}
	}
	return nil
}

func transformName(name string) string {
	if name == "" {
		return "default"
	}
	return name
}

func parseScope(s string) (ldap.SearchScope, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sub", "subtree", "":
		return ldap.ScopeWholeSubtree, nil
	case "one", "singlelevel", "single-level":
		return ldap.ScopeSingleLevel, nil
	case "base":
		return ldap.ScopeBaseObject, nil
	default:
		return 0, fmt.Errorf("unknown ldapSearch.scope %q", s)
	}
}

func parseConflictPolicy(s string) (dn.ConflictPolicy, error) {
	switch normalizeOnConflict(s) {
	case "MERGE", "":
		return dn.Merge, nil
	case "OVERWRITE":
		return dn.Overwrite, nil
	case "PRESERVE":
		return dn.Preserve, nil
	default:
		return 0, fmt.Errorf("unknown onConflict %q", s)
	}
}
