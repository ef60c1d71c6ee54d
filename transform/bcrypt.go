package transform

import (
	"fmt"

	"github.com/dirscim/gateway/object"
	"github.com/dirscim/gateway/spec"
	"golang.org/x/crypto/bcrypt"
)

// BCrypt is a one-way transform for password-shaped attributes: SCIM
// plaintext is hashed with bcrypt before being written to LDAP, and the
// digest is never reversed on read — ToSCIMValue always reports the
// attribute present but opaque, the way the teacher's BCrypt filter
// hashes on write and never attempts to recover plaintext.
type BCrypt struct {
	// Cost is the bcrypt work factor; zero means bcrypt.DefaultCost.
	Cost int
}

const bcryptOpaquePlaceholder = "{bcrypt}"

func (b BCrypt) ToLDAPValue(d *spec.AttributeDescriptor, v object.SimpleValue) ([]byte, error) {
	cost := b.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(v.String()), cost)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to hash attribute %q: %v", spec.ErrServerError, d.Name(), err)
	}
	return hashed, nil
}

func (BCrypt) ToSCIMValue(d *spec.AttributeDescriptor, raw []byte) (object.SimpleValue, error) {
	if len(raw) == 0 {
		return object.SimpleValue{}, nil
	}
	return object.StringValue(bcryptOpaquePlaceholder), nil
}

func (BCrypt) ToLDAPFilterValue(rawFilterLiteral string) (string, error) {
	return "", fmt.Errorf("%w: bcrypt-transformed attributes do not support filtering", spec.ErrInvalidFilter)
}
