package object

import (
	"strconv"
	"time"

	"github.com/dirscim/gateway/spec"
)

// SimpleValue is a tagged union carrying exactly one SCIM simple value:
// string, boolean, integer, datetime or binary. The string form is the
// canonical over-the-wire encoding for every non-binary type.
type SimpleValue struct {
	kind   spec.DataType
	str    string
	bo     bool
	i      int64
	t      time.Time
	binary []byte
}

// StringValue wraps s as a STRING SimpleValue.
func StringValue(s string) SimpleValue {
	return SimpleValue{kind: spec.DataTypeString, str: s}
}

// BooleanValue wraps b as a BOOLEAN SimpleValue.
func BooleanValue(b bool) SimpleValue {
	return SimpleValue{kind: spec.DataTypeBoolean, bo: b}
}

// IntegerValue wraps i as an INTEGER SimpleValue.
func IntegerValue(i int64) SimpleValue {
	return SimpleValue{kind: spec.DataTypeInteger, i: i}
}

// DateTimeValue wraps t (converted to UTC) as a DATETIME SimpleValue.
func DateTimeValue(t time.Time) SimpleValue {
	return SimpleValue{kind: spec.DataTypeDateTime, t: t.UTC()}
}

// BinaryValue wraps b as a BINARY SimpleValue.
func BinaryValue(b []byte) SimpleValue {
	return SimpleValue{kind: spec.DataTypeBinary, binary: b}
}

// Kind returns the data type this value carries.
func (v SimpleValue) Kind() spec.DataType {
	return v.kind
}

// String returns the value's canonical over-the-wire string encoding.
// For DATETIME this is RFC3339 UTC; for BINARY it is unused (callers
// should use Binary() directly) and returns an empty string.
func (v SimpleValue) String() string {
	switch v.kind {
	case spec.DataTypeString:
		return v.str
	case spec.DataTypeBoolean:
		if v.bo {
			return "true"
		}
		return "false"
	case spec.DataTypeInteger:
		return strconv.FormatInt(v.i, 10)
	case spec.DataTypeDateTime:
		return v.t.UTC().Format(time.RFC3339Nano)
	default:
		return ""
	}
}

// Bool returns the boolean value; callers must check Kind() first.
func (v SimpleValue) Bool() bool { return v.bo }

// Int returns the integer value; callers must check Kind() first.
func (v SimpleValue) Int() int64 { return v.i }

// Time returns the datetime value in UTC; callers must check Kind() first.
func (v SimpleValue) Time() time.Time { return v.t }

// Binary returns the binary value; callers must check Kind() first.
func (v SimpleValue) Binary() []byte { return v.binary }
