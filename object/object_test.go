package object

import (
	"testing"

	"github.com/dirscim/gateway/spec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func descriptor(schema, name, dataType string) *spec.AttributeDescriptor {
	return spec.NewAttributeDescriptor(spec.AttributeDescriptorArgs{
		Schema: schema, Name: name, DataType: dataType,
	})
}

func TestSCIMObjectAddReplacesSameKey(t *testing.T) {
	obj := NewSCIMObject()
	d := descriptor("urn:scim:schemas:core:1.0", "userName", "string")

	obj.AddAttribute(NewSingularAttribute(d, SimpleAttributeValue(StringValue("bjensen"))))
	obj.AddAttribute(NewSingularAttribute(d, SimpleAttributeValue(StringValue("bjensen2"))))

	require.Equal(t, 1, obj.CountAttributes())
	got := obj.Attribute("URN:SCIM:SCHEMAS:CORE:1.0", "USERNAME")
	require.NotNil(t, got)
	assert.Equal(t, "bjensen2", got.Value().Simple().String())
}

func TestSCIMObjectSchemasPresent(t *testing.T) {
	obj := NewSCIMObject()
	obj.AddAttribute(NewSingularAttribute(
		descriptor("urn:scim:schemas:core:1.0", "userName", "string"),
		SimpleAttributeValue(StringValue("bjensen"))))
	obj.AddAttribute(NewSingularAttribute(
		descriptor("urn:scim:schemas:extension:enterprise:1.0", "employeeNumber", "string"),
		SimpleAttributeValue(StringValue("701984"))))

	assert.Equal(t, []string{
		"urn:scim:schemas:core:1.0",
		"urn:scim:schemas:extension:enterprise:1.0",
	}, obj.Schemas())
}

func TestSCIMObjectRemoveAttribute(t *testing.T) {
	obj := NewSCIMObject()
	d := descriptor("urn:scim:schemas:core:1.0", "userName", "string")
	obj.AddAttribute(NewSingularAttribute(d, SimpleAttributeValue(StringValue("bjensen"))))

	obj.RemoveAttribute("urn:scim:schemas:core:1.0", "userName")
	assert.Equal(t, 0, obj.CountAttributes())
	assert.Nil(t, obj.Attribute("urn:scim:schemas:core:1.0", "userName"))
}

func TestQueryAttributesRequested(t *testing.T) {
	var q QueryAttributes
	assert.True(t, q.IsAll())
	assert.True(t, q.Requested("urn:x", "userName", ""))

	q.Add("urn:x", "name", "")
	assert.False(t, q.IsAll())
	assert.True(t, q.Requested("urn:x", "name", "familyName"))
	assert.False(t, q.Requested("urn:x", "userName", ""))
}
