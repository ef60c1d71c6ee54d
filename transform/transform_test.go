package transform

import (
	"testing"
	"time"

	"github.com/dirscim/gateway/object"
	"github.com/dirscim/gateway/spec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryBuiltins(t *testing.T) {
	reg := NewRegistry()
	for _, name := range []string{"default", "generalizedTime", "postalAddress", "telephoneNumber", "bcrypt"} {
		tr, err := reg.Lookup(name)
		require.NoError(t, err, name)
		assert.NotNil(t, tr)
	}

	_, err := reg.Lookup("not-registered")
	assert.Error(t, err)
}

func TestDefaultRoundTripsString(t *testing.T) {
	d := spec.NewAttributeDescriptor(spec.AttributeDescriptorArgs{Name: "userName", DataType: "string"})
	tr := Default{}

	raw, err := tr.ToLDAPValue(d, object.StringValue("bjensen"))
	require.NoError(t, err)
	assert.Equal(t, "bjensen", string(raw))

	v, err := tr.ToSCIMValue(d, raw)
	require.NoError(t, err)
	assert.Equal(t, "bjensen", v.String())
}

func TestDefaultRoundTripsInteger(t *testing.T) {
	d := spec.NewAttributeDescriptor(spec.AttributeDescriptorArgs{Name: "age", DataType: "integer"})
	tr := Default{}

	raw, err := tr.ToLDAPValue(d, object.IntegerValue(42))
	require.NoError(t, err)

	v, err := tr.ToSCIMValue(d, raw)
	require.NoError(t, err)
	assert.Equal(t, int64(42), v.Int())
}

func TestDefaultRejectsMalformedInteger(t *testing.T) {
	d := spec.NewAttributeDescriptor(spec.AttributeDescriptorArgs{Name: "age", DataType: "integer"})
	_, err := Default{}.ToSCIMValue(d, []byte("not-a-number"))
	assert.ErrorIs(t, err, spec.ErrInvalidAttributeValue)
}

func TestGeneralizedTimeRoundTrip(t *testing.T) {
	d := spec.NewAttributeDescriptor(spec.AttributeDescriptorArgs{Name: "lastModified", DataType: "datetime"})
	tr := GeneralizedTime{}
	want := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)

	raw, err := tr.ToLDAPValue(d, object.DateTimeValue(want))
	require.NoError(t, err)
	assert.Equal(t, "20200102030405.000Z", string(raw))

	v, err := tr.ToSCIMValue(d, raw)
	require.NoError(t, err)
	assert.True(t, want.Equal(v.Time()))
}

func TestGeneralizedTimeAcceptsDirectoryFractionLengths(t *testing.T) {
	d := spec.NewAttributeDescriptor(spec.AttributeDescriptorArgs{Name: "lastModified", DataType: "datetime"})
	tr := GeneralizedTime{}
	want := time.Date(2020, 1, 2, 3, 4, 5, 500000000, time.UTC)

	// A directory is free to store fewer (or more) fractional digits than
	// this package's own ToLDAPValue emits (always 3); RFC 4517 allows up
	// to six, and dirsyn.RFC4517.GeneralizedTime parses all of them.
	v, err := tr.ToSCIMValue(d, []byte("20200102030405.5Z"))
	require.NoError(t, err)
	assert.True(t, want.Equal(v.Time()))
}

func TestGeneralizedTimeRejectsMalformed(t *testing.T) {
	d := spec.NewAttributeDescriptor(spec.AttributeDescriptorArgs{Name: "lastModified", DataType: "datetime"})
	_, err := GeneralizedTime{}.ToSCIMValue(d, []byte("not-a-time"))
	assert.ErrorIs(t, err, spec.ErrInvalidAttributeValue)
}

func TestPostalAddressRoundTrip(t *testing.T) {
	d := spec.NewAttributeDescriptor(spec.AttributeDescriptorArgs{Name: "address", DataType: "string"})
	tr := PostalAddress{}

	raw, err := tr.ToLDAPValue(d, object.StringValue("1 Main St\nAnytown"))
	require.NoError(t, err)
	assert.Equal(t, "1 Main St$Anytown", string(raw))

	v, err := tr.ToSCIMValue(d, raw)
	require.NoError(t, err)
	assert.Equal(t, "1 Main St\nAnytown", v.String())
}

func TestTelephoneNumberAddsPlusPrefix(t *testing.T) {
	d := spec.NewAttributeDescriptor(spec.AttributeDescriptorArgs{Name: "phoneNumber", DataType: "string"})
	tr := TelephoneNumber{}

	raw, err := tr.ToLDAPValue(d, object.StringValue("1 555 123 4567"))
	require.NoError(t, err)
	assert.Equal(t, "+1 555 123 4567", string(raw))
}

func TestBCryptNeverReversesHash(t *testing.T) {
	d := spec.NewAttributeDescriptor(spec.AttributeDescriptorArgs{Name: "password", DataType: "string"})
	tr := BCrypt{}

	raw, err := tr.ToLDAPValue(d, object.StringValue("s3cr3t"))
	require.NoError(t, err)
	assert.NotEqual(t, "s3cr3t", string(raw))

	v, err := tr.ToSCIMValue(d, raw)
	require.NoError(t, err)
	assert.Equal(t, bcryptOpaquePlaceholder, v.String())
}
