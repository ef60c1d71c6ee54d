package transform

import (
	"fmt"
	"strings"

	"github.com/JesseCoretta/go-dirsyn"
	"github.com/dirscim/gateway/object"
	"github.com/dirscim/gateway/spec"
)

// TelephoneNumber maps a SCIM phone-number string to LDAP's
// TelephoneNumber syntax (RFC 4517 §3.3.31), which requires a leading
// "+" E.163/E.123-style prefix.
type TelephoneNumber struct{}

func (TelephoneNumber) ToLDAPValue(d *spec.AttributeDescriptor, v object.SimpleValue) ([]byte, error) {
	raw := v.String()
	if !strings.HasPrefix(raw, "+") {
		raw = "+" + raw
	}
	var rfc4517 dirsyn.RFC4517
	tn, err := rfc4517.TelephoneNumber(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid telephone number for %q: %v", spec.ErrInvalidAttributeValue, d.Name(), err)
	}
	return []byte(tn.String()), nil
}

func (TelephoneNumber) ToSCIMValue(d *spec.AttributeDescriptor, raw []byte) (object.SimpleValue, error) {
	s := string(raw)
	if !strings.HasPrefix(s, "+") {
		s = "+" + s
	}
	var rfc4517 dirsyn.RFC4517
	tn, err := rfc4517.TelephoneNumber(s)
	if err != nil {
		return object.SimpleValue{}, fmt.Errorf("%w: invalid telephone number for %q: %v", spec.ErrInvalidAttributeValue, d.Name(), err)
	}
	return object.StringValue(tn.String()), nil
}

func (TelephoneNumber) ToLDAPFilterValue(rawFilterLiteral string) (string, error) {
	if !strings.HasPrefix(rawFilterLiteral, "+") {
		return "+" + rawFilterLiteral, nil
	}
	return rawFilterLiteral, nil
}
