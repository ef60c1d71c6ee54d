package xml

import (
	"bytes"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/dirscim/gateway/object"
	"github.com/dirscim/gateway/spec"
)

// node is a minimal parsed-element tree; Parse walks it against the
// resource descriptor instead of handing the document to an
// encoding/xml struct-tag Unmarshal, for the same descriptor-driven
// typing reason codec/json avoids it on the write side.
type node struct {
	space, local string
	text         string
	children     []*node
}

func parseTree(data []byte) (*node, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	var root *node
	var stack []*node
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			n := &node{space: t.Name.Space, local: t.Name.Local}
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, n)
			} else {
				root = n
			}
			stack = append(stack, n)
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].text += string(t)
			}
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		}
	}
	if root == nil {
		return nil, fmt.Errorf("%w: empty XML document", spec.ErrInvalidResource)
	}
	return root, nil
}

// Parse builds a SCIMObject from an XML resource document. Every child
// element of the root is resolved against resource's attributes when
// its namespace matches mainSchema, or against registry's
// extension-schema descriptors otherwise; unresolved elements are
// silently ignored, per spec.md §4.7.
func Parse(data []byte, resource *spec.ResourceDescriptor, registry *spec.Registry) (*object.SCIMObject, error) {
	root, err := parseTree(data)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed XML: %v", spec.ErrInvalidResource, err)
	}
	return parseFromNode(root, resource, registry)
}

// parseFromNode builds a SCIMObject from an already-parsed element
// tree rooted at the resource element itself, shared by Parse and
// ParseList (which has already located each resource's root node).
func parseFromNode(root *node, resource *spec.ResourceDescriptor, registry *spec.Registry) (*object.SCIMObject, error) {
	mainSchema := resource.SchemaURN()
	obj := object.NewSCIMObject()
	for _, child := range root.children {
		var d *spec.AttributeDescriptor
		if child.space == "" || spec.SchemaEqual(child.space, mainSchema) {
			d = resource.Attribute(child.local)
		} else {
			d = registry.Descriptor(child.space, child.local)
		}
		if d == nil {
			continue
		}
		if err := parseElement(obj, d, child); err != nil {
			return nil, err
		}
	}
	return obj, nil
}

func parseElement(obj *object.SCIMObject, d *spec.AttributeDescriptor, n *node) error {
	if d.Plural() {
		var values []object.SCIMAttributeValue
		for _, elem := range n.children {
			v, err := nodeToValue(d, elem)
			if err != nil {
				return err
			}
			values = append(values, v)
		}
		obj.AddAttribute(object.NewPluralAttribute(d, values))
		return nil
	}
	v, err := nodeToValue(d, n)
	if err != nil {
		return err
	}
	obj.AddAttribute(object.NewSingularAttribute(d, v))
	return nil
}

func nodeToValue(d *spec.AttributeDescriptor, n *node) (object.SCIMAttributeValue, error) {
	if d.DataType() != spec.DataTypeComplex {
		simple, err := parseSimpleText(d, n.text)
		if err != nil {
			return object.SCIMAttributeValue{}, err
		}
		return object.SimpleAttributeValue(simple), nil
	}

	cv := object.NewComplexAttributeValue()
	for _, child := range n.children {
		sub := d.SubAttribute(child.local)
		if sub == nil {
			continue
		}
		simple, err := parseSimpleText(sub, child.text)
		if err != nil {
			return object.SCIMAttributeValue{}, err
		}
		cv.Set(sub.Name(), object.NewSingularAttribute(sub, object.SimpleAttributeValue(simple)))
	}
	return cv, nil
}

func parseSimpleText(d *spec.AttributeDescriptor, text string) (object.SimpleValue, error) {
	switch d.DataType() {
	case spec.DataTypeString:
		return object.StringValue(text), nil
	case spec.DataTypeBoolean:
		switch {
		case strings.EqualFold(text, "true"):
			return object.BooleanValue(true), nil
		case strings.EqualFold(text, "false"):
			return object.BooleanValue(false), nil
		default:
			return object.SimpleValue{}, fmt.Errorf("%w: %s.%s: invalid boolean %q", spec.ErrInvalidAttributeValue, d.Schema(), d.Name(), text)
		}
	case spec.DataTypeInteger:
		i, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return object.SimpleValue{}, fmt.Errorf("%w: %s.%s: invalid integer %q", spec.ErrInvalidAttributeValue, d.Schema(), d.Name(), text)
		}
		return object.IntegerValue(i), nil
	case spec.DataTypeDateTime:
		t, err := time.Parse(time.RFC3339Nano, text)
		if err != nil {
			return object.SimpleValue{}, fmt.Errorf("%w: %s.%s: invalid datetime %q", spec.ErrInvalidAttributeValue, d.Schema(), d.Name(), text)
		}
		return object.DateTimeValue(t), nil
	case spec.DataTypeBinary:
		raw, err := base64.StdEncoding.DecodeString(text)
		if err != nil {
			return object.SimpleValue{}, fmt.Errorf("%w: %s.%s: invalid base64 %q", spec.ErrInvalidAttributeValue, d.Schema(), d.Name(), text)
		}
		return object.BinaryValue(raw), nil
	default:
		return object.SimpleValue{}, fmt.Errorf("%w: %s.%s has an unsupported data type for parsing", spec.ErrInvalidAttributeValue, d.Schema(), d.Name())
	}
}
