package transform

import (
	"fmt"
	"time"

	"github.com/JesseCoretta/go-dirsyn"
	"github.com/dirscim/gateway/object"
	"github.com/dirscim/gateway/spec"
)

// GeneralizedTime round-trips ISO-8601 UTC datetimes to LDAP's
// generalized-time encoding (RFC 4517 §3.3.13), using dirsyn.RFC4517 to
// validate the LDAP-side syntax.
type GeneralizedTime struct{}

const generalizedTimeLayout = "20060102150405.000Z"

func (GeneralizedTime) ToLDAPValue(d *spec.AttributeDescriptor, v object.SimpleValue) ([]byte, error) {
	if v.Kind() != spec.DataTypeDateTime {
		return nil, fmt.Errorf("%w: %q is not a datetime value", spec.ErrInvalidAttributeValue, d.Name())
	}
	return []byte(v.Time().UTC().Format(generalizedTimeLayout)), nil
}

func (GeneralizedTime) ToSCIMValue(d *spec.AttributeDescriptor, raw []byte) (object.SimpleValue, error) {
	var rfc4517 dirsyn.RFC4517
	gt, err := rfc4517.GeneralizedTime(string(raw))
	if err != nil {
		return object.SimpleValue{}, fmt.Errorf("%w: invalid generalized time for %q: %v", spec.ErrInvalidAttributeValue, d.Name(), err)
	}
	return object.DateTimeValue(time.Time(gt).UTC()), nil
}

func (GeneralizedTime) ToLDAPFilterValue(rawFilterLiteral string) (string, error) {
	t, err := time.Parse(time.RFC3339, rawFilterLiteral)
	if err != nil {
		return "", fmt.Errorf("%w: invalid datetime filter literal %q: %v", spec.ErrInvalidFilter, rawFilterLiteral, err)
	}
	return t.UTC().Format(generalizedTimeLayout), nil
}
