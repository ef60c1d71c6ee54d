package xml

import (
	"sort"
	"testing"
	"time"

	"github.com/dirscim/gateway/codec"
	"github.com/dirscim/gateway/object"
	"github.com/dirscim/gateway/spec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	coreSchema = "urn:scim:schemas:core:1.0"
	entSchema  = "urn:scim:schemas:extension:enterprise:1.0"
)

// userResource mirrors codec/json's fixture: id, userName,
// name.{familyName,givenName}, emails[], active, a binary photoHash and
// datetime createdAt on the core schema, plus an enterprise-extension
// employeeNumber.
func userResource() (*spec.ResourceDescriptor, *spec.Registry) {
	registry := spec.NewRegistry()

	id := spec.NewAttributeDescriptor(spec.AttributeDescriptorArgs{Schema: coreSchema, Name: "id", DataType: "string"})
	userName := spec.NewAttributeDescriptor(spec.AttributeDescriptorArgs{Schema: coreSchema, Name: "userName", DataType: "string"})
	familyName := spec.NewAttributeDescriptor(spec.AttributeDescriptorArgs{Schema: coreSchema, Name: "familyName", DataType: "string"})
	givenName := spec.NewAttributeDescriptor(spec.AttributeDescriptorArgs{Schema: coreSchema, Name: "givenName", DataType: "string"})
	name := spec.NewAttributeDescriptor(spec.AttributeDescriptorArgs{
		Schema: coreSchema, Name: "name", DataType: "complex",
		SubAttributes: []*spec.AttributeDescriptor{familyName, givenName},
	})
	value := spec.NewAttributeDescriptor(spec.AttributeDescriptorArgs{Schema: coreSchema, Name: "value", DataType: "string"})
	typ := spec.NewAttributeDescriptor(spec.AttributeDescriptorArgs{Schema: coreSchema, Name: "type", DataType: "string"})
	primary := spec.NewAttributeDescriptor(spec.AttributeDescriptorArgs{Schema: coreSchema, Name: "primary", DataType: "boolean"})
	emails := spec.NewAttributeDescriptor(spec.AttributeDescriptorArgs{
		Schema: coreSchema, Name: "emails", DataType: "complex", Cardinality: "plural",
		SubAttributes: []*spec.AttributeDescriptor{value, typ, primary},
		PluralTypes:   []string{"work", "home"},
	})
	active := spec.NewAttributeDescriptor(spec.AttributeDescriptorArgs{Schema: coreSchema, Name: "active", DataType: "boolean"})
	photoHash := spec.NewAttributeDescriptor(spec.AttributeDescriptorArgs{Schema: coreSchema, Name: "photoHash", DataType: "binary"})
	createdAt := spec.NewAttributeDescriptor(spec.AttributeDescriptorArgs{Schema: coreSchema, Name: "createdAt", DataType: "datetime"})

	employeeNumber := spec.NewAttributeDescriptor(spec.AttributeDescriptorArgs{Schema: entSchema, Name: "employeeNumber", DataType: "string"})
	registry.AddDescriptor(employeeNumber)

	resource := spec.NewResourceDescriptor("Users", coreSchema, []*spec.AttributeDescriptor{
		id, userName, name, emails, active, photoHash, createdAt,
	})
	registry.AddResource(resource)
	return resource, registry
}

func fullUser() *object.SCIMObject {
	resource, _ := userResource()
	obj := object.NewSCIMObject()

	obj.AddAttribute(object.NewSingularAttribute(resource.Attribute("id"), object.SimpleAttributeValue(object.StringValue("bjensen"))))
	obj.AddAttribute(object.NewSingularAttribute(resource.Attribute("userName"), object.SimpleAttributeValue(object.StringValue("bjensen"))))

	name := resource.Attribute("name")
	nameValue := object.NewComplexAttributeValue()
	nameValue.Set("familyName", object.NewSingularAttribute(name.SubAttribute("familyName"), object.SimpleAttributeValue(object.StringValue("Jensen"))))
	nameValue.Set("givenName", object.NewSingularAttribute(name.SubAttribute("givenName"), object.SimpleAttributeValue(object.StringValue("Barbara"))))
	obj.AddAttribute(object.NewSingularAttribute(name, nameValue))

	emails := resource.Attribute("emails")
	work := object.NewComplexAttributeValue()
	work.Set("value", object.NewSingularAttribute(emails.SubAttribute("value"), object.SimpleAttributeValue(object.StringValue("bjensen@example.com"))))
	work.Set("type", object.NewSingularAttribute(emails.SubAttribute("type"), object.SimpleAttributeValue(object.StringValue("work"))))
	work.Set("primary", object.NewSingularAttribute(emails.SubAttribute("primary"), object.SimpleAttributeValue(object.BooleanValue(true))))
	home := object.NewComplexAttributeValue()
	home.Set("value", object.NewSingularAttribute(emails.SubAttribute("value"), object.SimpleAttributeValue(object.StringValue("babs@home.org"))))
	home.Set("type", object.NewSingularAttribute(emails.SubAttribute("type"), object.SimpleAttributeValue(object.StringValue("home"))))
	obj.AddAttribute(object.NewPluralAttribute(emails, []object.SCIMAttributeValue{work, home}))

	obj.AddAttribute(object.NewSingularAttribute(resource.Attribute("active"), object.SimpleAttributeValue(object.BooleanValue(true))))
	obj.AddAttribute(object.NewSingularAttribute(resource.Attribute("photoHash"), object.SimpleAttributeValue(object.BinaryValue([]byte{0xde, 0xad, 0xbe, 0xef}))))
	obj.AddAttribute(object.NewSingularAttribute(resource.Attribute("createdAt"),
		object.SimpleAttributeValue(object.DateTimeValue(time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)))))

	empDesc := spec.NewAttributeDescriptor(spec.AttributeDescriptorArgs{Schema: entSchema, Name: "employeeNumber", DataType: "string"})
	obj.AddAttribute(object.NewSingularAttribute(empDesc, object.SimpleAttributeValue(object.StringValue("701984"))))

	return obj
}

// canonicalObject flattens obj into a schema|name-keyed map whose plural
// attributes are sorted into a stable order, so two objects that differ
// only in attribute or plural-element order compare equal -- the
// "equalsIgnoringPluralOrder" testable property.
func canonicalObject(obj *object.SCIMObject) map[string]interface{} {
	out := make(map[string]interface{})
	for _, s := range obj.Schemas() {
		obj.ForEachAttribute(s, func(attr *object.SCIMAttribute) {
			d := attr.Descriptor()
			out[d.Schema()+"|"+d.Name()] = canonicalAttribute(attr)
		})
	}
	return out
}

type keyedValue struct {
	sortKey string
	value   interface{}
}

func canonicalAttribute(attr *object.SCIMAttribute) interface{} {
	if attr.Descriptor().Plural() {
		var elems []keyedValue
		attr.ForEachValue(func(i int, v object.SCIMAttributeValue) {
			cv := canonicalValue(v)
			elems = append(elems, keyedValue{sortKey: fmtInterface(cv), value: cv})
		})
		sort.Slice(elems, func(i, j int) bool { return elems[i].sortKey < elems[j].sortKey })
		vals := make([]interface{}, len(elems))
		for i, e := range elems {
			vals[i] = e.value
		}
		return vals
	}
	return canonicalValue(attr.Value())
}

func canonicalValue(v object.SCIMAttributeValue) interface{} {
	if v.IsSimple() {
		return canonicalSimple(v.Simple())
	}
	m := make(map[string]interface{})
	v.ForEachSubAttribute(func(name string, sub *object.SCIMAttribute) {
		m[name] = canonicalAttribute(sub)
	})
	return m
}

func canonicalSimple(v object.SimpleValue) interface{} {
	if v.Kind() == spec.DataTypeBinary {
		return string(v.Binary())
	}
	return v.String()
}

func fmtInterface(v interface{}) string {
	switch tv := v.(type) {
	case string:
		return tv
	case map[string]interface{}:
		keys := make([]string, 0, len(tv))
		for k := range tv {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := ""
		for _, k := range keys {
			out += k + "=" + fmtInterface(tv[k]) + ";"
		}
		return out
	default:
		return ""
	}
}

func TestSerializeParseRoundTrip(t *testing.T) {
	resource, registry := userResource()
	obj := fullUser()

	data, err := Serialize(obj, "User", coreSchema)
	require.NoError(t, err)

	parsed, err := Parse(data, resource, registry)
	require.NoError(t, err)

	assert.Equal(t, canonicalObject(obj), canonicalObject(parsed))
}

// TestS2PostUserXML is the literal spec.md S2 scenario: the payload
// parses to a SCIMObject carrying userName "alice" and name.familyName
// "Doe", the two attributes the configured DN template and mapping
// would use to build the LDAP add.
func TestS2PostUserXML(t *testing.T) {
	resource, registry := userResource()
	payload := `<User xmlns="urn:scim:schemas:core:1.0"><userName>alice</userName><name><familyName>Doe</familyName></name></User>`

	obj, err := Parse([]byte(payload), resource, registry)
	require.NoError(t, err)

	userName := obj.Attribute(coreSchema, "userName")
	require.NotNil(t, userName)
	assert.Equal(t, "alice", userName.Value().Simple().String())

	name := obj.Attribute(coreSchema, "name")
	require.NotNil(t, name)
	familyName := name.Value().Get("familyName")
	require.NotNil(t, familyName)
	assert.Equal(t, "Doe", familyName.Value().Simple().String())
}

func TestSerializeSchemasOrderMainFirst(t *testing.T) {
	obj := fullUser()
	data, err := Serialize(obj, "User", coreSchema)
	require.NoError(t, err)

	s := string(data)
	assert.Contains(t, s, `<User xmlns="urn:scim:schemas:core:1.0">`)
	assert.Contains(t, s, `<employeeNumber xmlns="urn:scim:schemas:extension:enterprise:1.0">701984</employeeNumber>`)
}

func TestSerializePluralWrapperAndElementNames(t *testing.T) {
	obj := fullUser()
	data, err := Serialize(obj, "User", coreSchema)
	require.NoError(t, err)

	s := string(data)
	assert.Contains(t, s, "<emails>")
	assert.Contains(t, s, "</emails>")
	assert.Contains(t, s, "<email>")
	assert.Contains(t, s, "<value>bjensen@example.com</value>")
}

func TestParseIgnoresUnknownElements(t *testing.T) {
	resource, registry := userResource()
	payload := `<User xmlns="urn:scim:schemas:core:1.0"><userName>bjensen</userName><notAnAttribute>ignored</notAnAttribute></User>`
	obj, err := Parse([]byte(payload), resource, registry)
	require.NoError(t, err)
	assert.Equal(t, 1, obj.CountAttributes())
}

func TestParseRejectsMalformedXML(t *testing.T) {
	resource, registry := userResource()
	_, err := Parse([]byte(`<User><foo></bar></User>`), resource, registry)
	assert.ErrorIs(t, err, spec.ErrInvalidResource)
}

func TestListEnvelopeRoundTrip(t *testing.T) {
	resource, registry := userResource()
	list := codec.ListEnvelope{
		TotalResults: 2,
		StartIndex:   1,
		Resources:    []*object.SCIMObject{fullUser(), fullUser()},
	}

	data, err := SerializeList(list, "User", coreSchema)
	require.NoError(t, err)

	got, err := ParseList(data, resource, registry)
	require.NoError(t, err)
	assert.Equal(t, 2, got.TotalResults)
	assert.Equal(t, 1, got.StartIndex)
	require.Len(t, got.Resources, 2)
	assert.Equal(t, canonicalObject(list.Resources[0]), canonicalObject(got.Resources[0]))
}

func TestListEnvelopeDefaultsWhenAbsent(t *testing.T) {
	resource, registry := userResource()
	payload := `<ListResponse><Resources><User xmlns="urn:scim:schemas:core:1.0"><userName>bjensen</userName></User></Resources></ListResponse>`
	got, err := ParseList([]byte(payload), resource, registry)
	require.NoError(t, err)
	assert.Equal(t, 1, got.TotalResults)
	assert.Equal(t, 1, got.StartIndex)
}

// TestS5ErrorRoundTripXML is the literal spec.md S5 scenario: the
// <Error> document parses to the expected status/detail and
// re-serializes to the identical XML.
func TestS5ErrorRoundTripXML(t *testing.T) {
	payload := `<Error><code>404</code><description>User not found</description></Error>`

	got, err := ParseError([]byte(payload))
	require.NoError(t, err)
	assert.Equal(t, codec.Error{Status: 404, Detail: "User not found"}, got)

	reserialized := SerializeError(got)
	assert.Equal(t, payload, string(reserialized))
}

func TestParseErrorRejectsMalformed(t *testing.T) {
	_, err := ParseError([]byte(`<Error`))
	assert.ErrorIs(t, err, spec.ErrInvalidResource)
}
