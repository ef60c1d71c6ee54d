package resource

import (
	"context"
	"testing"
	"time"

	"github.com/dirscim/gateway/derive"
	"github.com/dirscim/gateway/dn"
	"github.com/dirscim/gateway/ldap"
	"github.com/dirscim/gateway/mapper"
	"github.com/dirscim/gateway/object"
	"github.com/dirscim/gateway/spec"
	"github.com/dirscim/gateway/transform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const userCoreSchema = "urn:scim:schemas:core:1.0"

// lastModifiedDerive is a test-only derive.Attribute standing in for a
// config-resolved derivation of "meta.lastModified" from the directory's
// modifyTimestamp, so the partial-filter re-check path has something to
// exercise that no Mapper entry can translate to LDAP.
type lastModifiedDerive struct {
	metaDescriptor         *spec.AttributeDescriptor
	lastModifiedDescriptor *spec.AttributeDescriptor
	ldapAttr               string
}

func (d *lastModifiedDerive) LDAPAttributeTypes() []string { return []string{d.ldapAttr} }

func (d *lastModifiedDerive) Compute(_ context.Context, entry *ldap.Entry, _ ldap.DirectoryClient, _ string) (*object.SCIMAttribute, error) {
	raw := entry.First(d.ldapAttr)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	meta := object.NewComplexAttributeValue()
	meta.Set("lastModified", object.NewSingularAttribute(d.lastModifiedDescriptor, object.SimpleAttributeValue(object.DateTimeValue(t))))
	return object.NewSingularAttribute(d.metaDescriptor, meta), nil
}

var _ derive.Attribute = (*lastModifiedDerive)(nil)

// userMapperFixture builds a small but realistic Users resource mapper:
// id/userName backed by "uid", name.{familyName,givenName} backed by
// sn/givenName, a multi-valued "emails" backed by "mail", a fixed
// objectClass=inetOrgPerson so created entries match the search filter,
// and a lastModifiedDerive standing in for a derived "meta.lastModified".
func userMapperFixture() (*Mapper, *spec.Registry) {
	registry := spec.NewRegistry()

	idDesc := spec.NewAttributeDescriptor(spec.AttributeDescriptorArgs{Schema: userCoreSchema, Name: "id", DataType: "string"})
	userNameDesc := spec.NewAttributeDescriptor(spec.AttributeDescriptorArgs{Schema: userCoreSchema, Name: "userName", DataType: "string", Required: true})
	familyNameDesc := spec.NewAttributeDescriptor(spec.AttributeDescriptorArgs{Schema: userCoreSchema, Name: "familyName", DataType: "string"})
	givenNameDesc := spec.NewAttributeDescriptor(spec.AttributeDescriptorArgs{Schema: userCoreSchema, Name: "givenName", DataType: "string"})
	nameDesc := spec.NewAttributeDescriptor(spec.AttributeDescriptorArgs{
		Schema: userCoreSchema, Name: "name", DataType: "complex",
		SubAttributes: []*spec.AttributeDescriptor{familyNameDesc, givenNameDesc},
	})
	emailValueDesc := spec.NewAttributeDescriptor(spec.AttributeDescriptorArgs{Schema: userCoreSchema, Name: "value", DataType: "string"})
	emailsDesc := spec.NewAttributeDescriptor(spec.AttributeDescriptorArgs{
		Schema: userCoreSchema, Name: "emails", DataType: "complex", Cardinality: "plural",
		SubAttributes: []*spec.AttributeDescriptor{emailValueDesc},
	})
	lastModifiedDesc := spec.NewAttributeDescriptor(spec.AttributeDescriptorArgs{Schema: userCoreSchema, Name: "lastModified", DataType: "datetime"})
	metaDesc := spec.NewAttributeDescriptor(spec.AttributeDescriptorArgs{
		Schema: userCoreSchema, Name: "meta", DataType: "complex",
		SubAttributes: []*spec.AttributeDescriptor{lastModifiedDesc},
	})
	registry.AddDescriptor(metaDesc)

	idMapper := &mapper.Simple{Descriptor: idDesc, LDAPAttribute: "uid", Transform: transform.Default{}}
	userNameMapper := &mapper.Simple{Descriptor: userNameDesc, LDAPAttribute: "uid", Transform: transform.Default{}}
	nameMapper := &mapper.Complex{
		Descriptor: nameDesc,
		SubMappers: map[string]*mapper.Simple{
			"familyname": {Descriptor: familyNameDesc, LDAPAttribute: "sn", Transform: transform.Default{}},
			"givenname":  {Descriptor: givenNameDesc, LDAPAttribute: "givenName", Transform: transform.Default{}},
		},
		SubOrder: []string{"familyname", "givenname"},
	}
	emailsMapper := &mapper.Plural{
		Descriptor: emailsDesc, ValueDescriptor: emailValueDesc, ValueTransform: transform.Default{},
		MultiValuedLDAPAttribute: "mail",
	}

	m := &Mapper{
		ResourceName: "User",
		EndpointName: "Users",
		SchemaURN:    userCoreSchema,
		SearchBaseDN: "ou=People,dc=example,dc=com",
		SearchScope:  ldap.ScopeWholeSubtree,
		SearchFilter: "(objectClass=inetOrgPerson)",
		DNTemplate:   dn.Parse("uid={uid},ou=People,dc=example,dc=com"),
		Mappers:      []mapper.Mapper{idMapper, userNameMapper, nameMapper, emailsMapper},
		Fixed: []dn.FixedAttribute{
			{LDAPAttribute: "objectClass", Values: []string{"inetOrgPerson"}, OnConflict: dn.Merge},
		},
		Derived: []derive.Attribute{&lastModifiedDerive{
			metaDescriptor: metaDesc, lastModifiedDescriptor: lastModifiedDesc, ldapAttr: "modifyTimestamp",
		}},
	}
	m.Compile()
	return m, registry
}

// TestToLDAPFilterTranslatesCombinedFilter is the literal S3 scenario:
// an AND of a userName EQ and an emails.value CO translates fully to
// LDAP, AND-ed with the resource's configured search filter.
func TestToLDAPFilterTranslatesCombinedFilter(t *testing.T) {
	m, _ := userMapperFixture()

	ldapFilter, tree, partial, err := m.ToLDAPFilter(`userName eq "bjensen" and emails.value co "example"`)
	require.NoError(t, err)
	require.NotNil(t, tree)
	assert.False(t, partial)
	assert.Equal(t, "(&(objectClass=inetOrgPerson)(&(uid=bjensen)(mail=*example*)))", ldapFilter)
}

// TestToLDAPFilterWidensOnUntranslatablePath is the S4 scenario: a filter
// over a path with no backing Mapper (only a derived attribute) cannot be
// expressed in LDAP at all, so ToLDAPFilter falls back to the resource's
// bare search filter and reports partial=true so the caller re-checks in
// memory.
func TestToLDAPFilterWidensOnUntranslatablePath(t *testing.T) {
	m, _ := userMapperFixture()

	ldapFilter, tree, partial, err := m.ToLDAPFilter(userCoreSchema + `:meta.lastModified gt "2020-01-01T00:00:00Z"`)
	require.NoError(t, err)
	require.NotNil(t, tree)
	assert.True(t, partial)
	assert.Equal(t, m.SearchFilter, ldapFilter)
}

// TestToLDAPFilterEmptyScimFilterIsBareSearchFilter covers the no-filter path.
func TestToLDAPFilterEmptyScimFilterIsBareSearchFilter(t *testing.T) {
	m, _ := userMapperFixture()
	ldapFilter, tree, partial, err := m.ToLDAPFilter("")
	require.NoError(t, err)
	assert.Nil(t, tree)
	assert.False(t, partial)
	assert.Equal(t, m.SearchFilter, ldapFilter)
}

func TestToLDAPAttributeTypesAlwaysIncludesObjectClass(t *testing.T) {
	m, _ := userMapperFixture()
	types := m.ToLDAPAttributeTypes(object.AllAttributes())
	assert.Contains(t, types, "objectClass")
	assert.Contains(t, types, "uid")
	assert.Contains(t, types, "mail")
}

func TestToLDAPAttributeTypesNarrowsToRequestedQuery(t *testing.T) {
	m, _ := userMapperFixture()
	var query object.QueryAttributes
	query.Add(userCoreSchema, "userName", "")

	types := m.ToLDAPAttributeTypes(query)
	assert.Contains(t, types, "uid")
	assert.NotContains(t, types, "mail")
	// Derived attributes are not gated by the requested query.
	assert.Contains(t, types, "modifyTimestamp")
}

func TestToLDAPEntryFailsWhenRequiredAttributeAbsent(t *testing.T) {
	m, _ := userMapperFixture()
	obj := object.NewSCIMObject()

	_, err := m.ToLDAPEntry(obj)
	assert.ErrorIs(t, err, spec.ErrInvalidResource)
}

// TestToLDAPModificationsMinimalDiff is the literal S6 scenario: replacing
// an entry whose "mail" is stale with a target built from a single new
// email produces exactly one REPLACE modification.
func TestToLDAPModificationsMinimalDiff(t *testing.T) {
	m, _ := userMapperFixture()

	current := &ldap.Entry{DN: "uid=bjensen,ou=People,dc=example,dc=com", Attributes: map[string][]string{
		"uid": {"bjensen"}, "sn": {"Jensen"}, "mail": {"old@example.com"},
	}}

	scim := object.NewSCIMObject()
	userNameDesc := spec.NewAttributeDescriptor(spec.AttributeDescriptorArgs{Schema: userCoreSchema, Name: "userName", DataType: "string"})
	scim.AddAttribute(object.NewSingularAttribute(userNameDesc, object.SimpleAttributeValue(object.StringValue("bjensen"))))
	familyNameDesc := spec.NewAttributeDescriptor(spec.AttributeDescriptorArgs{Schema: userCoreSchema, Name: "familyName", DataType: "string"})
	nameDesc := spec.NewAttributeDescriptor(spec.AttributeDescriptorArgs{Schema: userCoreSchema, Name: "name", DataType: "complex", SubAttributes: []*spec.AttributeDescriptor{familyNameDesc}})
	nameValue := object.NewComplexAttributeValue()
	nameValue.Set("familyname", object.NewSingularAttribute(familyNameDesc, object.SimpleAttributeValue(object.StringValue("Jensen"))))
	scim.AddAttribute(object.NewSingularAttribute(nameDesc, nameValue))

	emailValueDesc := spec.NewAttributeDescriptor(spec.AttributeDescriptorArgs{Schema: userCoreSchema, Name: "value", DataType: "string"})
	emailsDesc := spec.NewAttributeDescriptor(spec.AttributeDescriptorArgs{Schema: userCoreSchema, Name: "emails", DataType: "complex", Cardinality: "plural", SubAttributes: []*spec.AttributeDescriptor{emailValueDesc}})
	elem := object.NewComplexAttributeValue()
	elem.Set("value", object.NewSingularAttribute(emailValueDesc, object.SimpleAttributeValue(object.StringValue("new@example.com"))))
	scim.AddAttribute(object.NewPluralAttribute(emailsDesc, []object.SCIMAttributeValue{elem}))

	target, err := m.ToLDAPEntry(scim)
	require.NoError(t, err)

	mods := m.ToLDAPModifications(current, target)
	require.Len(t, mods, 1)
	assert.Equal(t, ldap.ModReplace, mods[0].Op)
	assert.Equal(t, "mail", mods[0].AttrType)
	assert.Equal(t, []string{"new@example.com"}, mods[0].Values)
}

func TestVersionPrefersModifyTimestamp(t *testing.T) {
	m, _ := userMapperFixture()
	entry := &ldap.Entry{Attributes: map[string][]string{"modifyTimestamp": {"20200601000000Z"}, "uid": {"bjensen"}}}
	assert.Equal(t, "20200601000000Z", m.Version(entry))
}

func TestVersionFallsBackToHashWhenTimestampAbsent(t *testing.T) {
	m, _ := userMapperFixture()
	entryA := &ldap.Entry{Attributes: map[string][]string{"uid": {"bjensen"}, "mail": {"a@example.com"}}}
	entryB := &ldap.Entry{Attributes: map[string][]string{"uid": {"bjensen"}, "mail": {"b@example.com"}}}

	va, vb := m.Version(entryA), m.Version(entryB)
	assert.NotEmpty(t, va)
	assert.NotEqual(t, va, vb)
	assert.Equal(t, va, m.Version(entryA))
}
