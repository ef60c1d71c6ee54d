// Package json implements the JSON wire codec (C8) over object.SCIMObject,
// hand-rolled in the same spirit as the teacher's pkg/v2/json package:
// attribute order, datetime formatting and schema placement are
// descriptor-driven decisions a generic reflection marshaler can't make,
// so the writer walks the object directly instead of calling
// encoding/json.Marshal on a struct.
package json

import (
	"bytes"
	"encoding/base64"
	"fmt"

	"github.com/dirscim/gateway/object"
	"github.com/dirscim/gateway/spec"
)

// Serialize renders obj as a single JSON resource document: a top-level
// "schemas" array, one key per mainSchema top-level attribute, and one
// nested object per extension schema present on obj, keyed by URN, per
// spec.md §4.7.
func Serialize(obj *object.SCIMObject, mainSchema string) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	writeKey(&buf, "schemas")
	buf.WriteByte('[')
	for i, s := range schemaOrder(obj, mainSchema) {
		if i > 0 {
			buf.WriteByte(',')
		}
		writeJSONString(&buf, s)
	}
	buf.WriteByte(']')

	var writeErr error
	obj.ForEachAttribute(mainSchema, func(attr *object.SCIMAttribute) {
		if writeErr != nil {
			return
		}
		buf.WriteByte(',')
		writeErr = writeAttribute(&buf, attr)
	})
	if writeErr != nil {
		return nil, writeErr
	}

	for _, s := range schemaOrder(obj, mainSchema) {
		if spec.SchemaEqual(s, mainSchema) {
			continue
		}
		buf.WriteByte(',')
		writeKey(&buf, s)
		buf.WriteByte('{')
		first := true
		obj.ForEachAttribute(s, func(attr *object.SCIMAttribute) {
			if writeErr != nil {
				return
			}
			if !first {
				buf.WriteByte(',')
			}
			first = false
			writeErr = writeAttribute(&buf, attr)
		})
		if writeErr != nil {
			return nil, writeErr
		}
		buf.WriteByte('}')
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// schemaOrder puts mainSchema first (even if not first-seen) followed
// by every other schema present, in first-seen order.
func schemaOrder(obj *object.SCIMObject, mainSchema string) []string {
	out := []string{mainSchema}
	for _, s := range obj.Schemas() {
		if spec.SchemaEqual(s, mainSchema) {
			continue
		}
		out = append(out, s)
	}
	return out
}

func writeAttribute(buf *bytes.Buffer, attr *object.SCIMAttribute) error {
	d := attr.Descriptor()
	writeKey(buf, d.Name())
	if d.Plural() {
		buf.WriteByte('[')
		var err error
		attr.ForEachValue(func(i int, v object.SCIMAttributeValue) {
			if err != nil {
				return
			}
			if i > 0 {
				buf.WriteByte(',')
			}
			err = writeValue(buf, d, v)
		})
		buf.WriteByte(']')
		return err
	}
	return writeValue(buf, d, attr.Value())
}

func writeValue(buf *bytes.Buffer, d *spec.AttributeDescriptor, v object.SCIMAttributeValue) error {
	if v.IsSimple() {
		return writeSimple(buf, d.DataType(), v.Simple())
	}
	return writeComplex(buf, d, v)
}

func writeComplex(buf *bytes.Buffer, d *spec.AttributeDescriptor, v object.SCIMAttributeValue) error {
	buf.WriteByte('{')
	first := true
	var err error
	d.ForEachSubAttribute(func(sub *spec.AttributeDescriptor) {
		if err != nil {
			return
		}
		subAttr := v.Get(sub.Name())
		if subAttr == nil || !subAttr.Present() {
			return
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false
		writeKey(buf, sub.Name())
		err = writeSimple(buf, sub.DataType(), subAttr.Value().Simple())
	})
	buf.WriteByte('}')
	return err
}

func writeSimple(buf *bytes.Buffer, t spec.DataType, v object.SimpleValue) error {
	switch t {
	case spec.DataTypeBoolean:
		if v.Bool() {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case spec.DataTypeInteger:
		fmt.Fprintf(buf, "%d", v.Int())
	case spec.DataTypeBinary:
		writeJSONString(buf, base64.StdEncoding.EncodeToString(v.Binary()))
	case spec.DataTypeString, spec.DataTypeDateTime:
		writeJSONString(buf, v.String())
	default:
		return fmt.Errorf("%w: unsupported data type for JSON serialization", spec.ErrServerError)
	}
	return nil
}

func writeKey(buf *bytes.Buffer, name string) {
	writeJSONString(buf, name)
	buf.WriteByte(':')
}

// writeJSONString escapes s per RFC 8259 and writes it as a quoted JSON
// string. Only the mandatory escapes are applied; printable runes above
// U+001F pass through verbatim (UTF-8 is valid JSON text).
func writeJSONString(buf *bytes.Buffer, s string) {
	buf.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			buf.WriteString(`\"`)
		case '\\':
			buf.WriteString(`\\`)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		default:
			if r < 0x20 {
				fmt.Fprintf(buf, `\u%04x`, r)
			} else {
				buf.WriteRune(r)
			}
		}
	}
	buf.WriteByte('"')
}
