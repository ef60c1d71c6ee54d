// Package xml implements the XML wire codec (C8) over object.SCIMObject.
// Like codec/json it hand-rolls the writer instead of driving
// encoding/xml's struct-tag marshaler, for the same reason: attribute
// order and schema placement are descriptor-driven decisions a generic
// marshaler cannot make. encoding/xml.EscapeText supplies character
// escaping — the one piece of the stdlib XML package the writer uses —
// and the reader (deserialize.go) walks an encoding/xml.Decoder token
// stream; no XML library of any kind appears anywhere in the example
// pack.
package xml

import (
	"bytes"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/dirscim/gateway/object"
	"github.com/dirscim/gateway/spec"
)

// Serialize renders obj as an XML document: the root element's local
// name is resourceName, its namespace mainSchema; singular attributes
// become child elements, complex attributes nest their sub-attributes,
// plural attributes emit a wrapper element with one child per element,
// and extension-schema attributes carry their own schema URN as an
// explicit xmlns, per spec.md §4.7.
func Serialize(obj *object.SCIMObject, resourceName, mainSchema string) ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<%s xmlns=%s>`, resourceName, quoteAttr(mainSchema))

	var err error
	obj.ForEachAttribute(mainSchema, func(attr *object.SCIMAttribute) {
		if err == nil {
			err = writeElement(&buf, attr, "")
		}
	})
	if err != nil {
		return nil, err
	}

	for _, s := range obj.Schemas() {
		if spec.SchemaEqual(s, mainSchema) {
			continue
		}
		obj.ForEachAttribute(s, func(attr *object.SCIMAttribute) {
			if err == nil {
				err = writeElement(&buf, attr, s)
			}
		})
		if err != nil {
			return nil, err
		}
	}

	fmt.Fprintf(&buf, `</%s>`, resourceName)
	return buf.Bytes(), nil
}

func writeElement(buf *bytes.Buffer, attr *object.SCIMAttribute, ns string) error {
	d := attr.Descriptor()
	openTag(buf, d.Name(), ns)

	if d.Plural() {
		child := singularize(d.Name())
		var err error
		attr.ForEachValue(func(i int, v object.SCIMAttributeValue) {
			if err != nil {
				return
			}
			openTag(buf, child, "")
			err = writeValue(buf, d, v)
			closeTag(buf, child)
		})
		if err != nil {
			return err
		}
	} else if err := writeValue(buf, d, attr.Value()); err != nil {
		return err
	}

	closeTag(buf, d.Name())
	return nil
}

func writeValue(buf *bytes.Buffer, d *spec.AttributeDescriptor, v object.SCIMAttributeValue) error {
	if v.IsSimple() {
		return writeText(buf, d.DataType(), v.Simple())
	}

	var err error
	// Fixed sub-attribute order per spec.md §9's Open Question decision:
	// value, type, primary, display, operation.
	for _, name := range []string{"value", "type", "primary", "display", "operation"} {
		if err != nil {
			break
		}
		sub := d.SubAttribute(name)
		if sub == nil {
			continue
		}
		subAttr := v.Get(name)
		if subAttr == nil || !subAttr.Present() {
			continue
		}
		openTag(buf, sub.Name(), "")
		err = writeText(buf, sub.DataType(), subAttr.Value().Simple())
		closeTag(buf, sub.Name())
	}
	if err != nil {
		return err
	}

	// Any remaining sub-attribute not on the fixed plural list (e.g. a
	// plain complex attribute's own sub-attributes) follows descriptor order.
	d.ForEachSubAttribute(func(sub *spec.AttributeDescriptor) {
		if err != nil {
			return
		}
		switch strings.ToLower(sub.Name()) {
		case "value", "type", "primary", "display", "operation":
			return
		}
		subAttr := v.Get(sub.Name())
		if subAttr == nil || !subAttr.Present() {
			return
		}
		openTag(buf, sub.Name(), "")
		err = writeText(buf, sub.DataType(), subAttr.Value().Simple())
		closeTag(buf, sub.Name())
	})
	return err
}

func writeText(buf *bytes.Buffer, t spec.DataType, v object.SimpleValue) error {
	switch t {
	case spec.DataTypeBinary:
		return xml.EscapeText(buf, []byte(base64.StdEncoding.EncodeToString(v.Binary())))
	default:
		return xml.EscapeText(buf, []byte(v.String()))
	}
}

func openTag(buf *bytes.Buffer, name, ns string) {
	if ns == "" {
		fmt.Fprintf(buf, `<%s>`, name)
		return
	}
	fmt.Fprintf(buf, `<%s xmlns=%s>`, name, quoteAttr(ns))
}

func closeTag(buf *bytes.Buffer, name string) {
	fmt.Fprintf(buf, `</%s>`, name)
}

func quoteAttr(s string) string {
	var b bytes.Buffer
	b.WriteByte('"')
	_ = xml.EscapeText(&b, []byte(s))
	b.WriteByte('"')
	return b.String()
}

// singularize derives a plural wrapper's per-element tag name from the
// attribute name (e.g. "emails" -> "email", "addresses" -> "address").
// This engine's own convention, not dictated by any schema document.
func singularize(name string) string {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, "sses"):
		return name[:len(name)-2]
	case strings.HasSuffix(lower, "s"):
		return name[:len(name)-1]
	default:
		return name
	}
}
