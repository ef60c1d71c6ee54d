package transform

import (
	"fmt"
	"strings"

	"github.com/JesseCoretta/go-dirsyn"
	"github.com/dirscim/gateway/object"
	"github.com/dirscim/gateway/spec"
)

// PostalAddress maps a SCIM multi-line address string to LDAP's
// PostalAddress syntax (RFC 4517 §3.3.28), where "\n" separates lines on
// the SCIM side and "$" separates them on the LDAP side.
type PostalAddress struct{}

func (PostalAddress) ToLDAPValue(d *spec.AttributeDescriptor, v object.SimpleValue) ([]byte, error) {
	lines := strings.Split(v.String(), "\n")
	var rfc4517 dirsyn.RFC4517
	pa, err := rfc4517.PostalAddress(strings.Join(lines, "$"))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid postal address for %q: %v", spec.ErrInvalidAttributeValue, d.Name(), err)
	}
	return []byte(pa.String()), nil
}

func (PostalAddress) ToSCIMValue(d *spec.AttributeDescriptor, raw []byte) (object.SimpleValue, error) {
	var rfc4517 dirsyn.RFC4517
	pa, err := rfc4517.PostalAddress(string(raw))
	if err != nil {
		return object.SimpleValue{}, fmt.Errorf("%w: invalid postal address for %q: %v", spec.ErrInvalidAttributeValue, d.Name(), err)
	}
	return object.StringValue(strings.Join(pa, "\n")), nil
}

func (PostalAddress) ToLDAPFilterValue(rawFilterLiteral string) (string, error) {
	return strings.Join(strings.Split(rawFilterLiteral, "\n"), "$"), nil
}
