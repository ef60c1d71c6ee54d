package spec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryDescriptorLookup(t *testing.T) {
	reg := NewRegistry()
	userName := NewAttributeDescriptor(AttributeDescriptorArgs{
		Schema: "urn:scim:schemas:core:1.0", Name: "userName", DataType: "string",
	})
	reg.AddDescriptor(userName)

	found := reg.Descriptor("URN:SCIM:SCHEMAS:CORE:1.0", "USERNAME")
	require.NotNil(t, found)
	assert.Same(t, userName, found)

	assert.Nil(t, reg.Descriptor("urn:scim:schemas:core:1.0", "missing"))
}

func TestRegistryResourceLookup(t *testing.T) {
	reg := NewRegistry()
	rd := NewResourceDescriptor("Users", "urn:scim:schemas:core:1.0", nil)
	reg.AddResource(rd)

	assert.Same(t, rd, reg.Resource("users"))
	assert.Nil(t, reg.Resource("Groups"))
}
