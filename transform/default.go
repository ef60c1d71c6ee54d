package transform

import (
	"encoding/base64"
	"fmt"
	"strconv"

	"github.com/dirscim/gateway/object"
	"github.com/dirscim/gateway/spec"
)

// Default passes strings through verbatim, parses booleans/integers
// according to the descriptor's data type, and base64-encodes/decodes
// binary values.
type Default struct{}

func (Default) ToLDAPValue(d *spec.AttributeDescriptor, v object.SimpleValue) ([]byte, error) {
	if d.DataType() == spec.DataTypeBinary {
		return []byte(base64.StdEncoding.EncodeToString(v.Binary())), nil
	}
	return []byte(v.String()), nil
}

func (Default) ToSCIMValue(d *spec.AttributeDescriptor, raw []byte) (object.SimpleValue, error) {
	s := string(raw)
	switch d.DataType() {
	case spec.DataTypeBinary:
		decoded, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return object.SimpleValue{}, fmt.Errorf("%w: invalid base64 value for %q: %v", spec.ErrInvalidAttributeValue, d.Name(), err)
		}
		return object.BinaryValue(decoded), nil
	case spec.DataTypeBoolean:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return object.SimpleValue{}, fmt.Errorf("%w: invalid boolean value for %q: %v", spec.ErrInvalidAttributeValue, d.Name(), err)
		}
		return object.BooleanValue(b), nil
	case spec.DataTypeInteger:
		i, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return object.SimpleValue{}, fmt.Errorf("%w: invalid integer value for %q: %v", spec.ErrInvalidAttributeValue, d.Name(), err)
		}
		return object.IntegerValue(i), nil
	default:
		return object.StringValue(s), nil
	}
}

func (Default) ToLDAPFilterValue(rawFilterLiteral string) (string, error) {
	return rawFilterLiteral, nil
}
