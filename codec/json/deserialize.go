package json

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dirscim/gateway/object"
	"github.com/dirscim/gateway/spec"
)

// Parse builds a SCIMObject from a JSON resource document, resolving
// every key against resource's top-level attributes (for the document's
// main schema) or, for a nested object keyed by a schema URN, against
// registry's extension-schema descriptors. Unknown keys are silently
// ignored, per spec.md §4.7. encoding/json supplies only the low-level
// tokenization (an untyped map); every value is then re-typed against
// its descriptor by hand, exactly as a hand-written scanner would, since
// a generic struct-tag unmarshal cannot know a field's SCIM data type.
func Parse(data []byte, resource *spec.ResourceDescriptor, registry *spec.Registry) (*object.SCIMObject, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: malformed JSON: %v", spec.ErrInvalidResource, err)
	}

	obj := object.NewSCIMObject()
	for key, val := range raw {
		if strings.EqualFold(key, "schemas") {
			continue
		}
		if strings.Contains(key, ":") {
			if err := parseExtension(obj, registry, key, val); err != nil {
				return nil, err
			}
			continue
		}
		d := resource.Attribute(key)
		if d == nil {
			continue
		}
		if err := parseAttribute(obj, d, val); err != nil {
			return nil, err
		}
	}
	return obj, nil
}

func parseExtension(obj *object.SCIMObject, registry *spec.Registry, urn string, val interface{}) error {
	nested, ok := val.(map[string]interface{})
	if !ok {
		return fmt.Errorf("%w: extension schema %q must be a JSON object", spec.ErrInvalidResource, urn)
	}
	for key, v := range nested {
		d := registry.Descriptor(urn, key)
		if d == nil {
			continue
		}
		if err := parseAttribute(obj, d, v); err != nil {
			return err
		}
	}
	return nil
}

func parseAttribute(obj *object.SCIMObject, d *spec.AttributeDescriptor, val interface{}) error {
	if val == nil {
		return nil
	}
	if d.Plural() {
		arr, ok := val.([]interface{})
		if !ok {
			return fmt.Errorf("%w: %s.%s expects a JSON array", spec.ErrInvalidResource, d.Schema(), d.Name())
		}
		var values []object.SCIMAttributeValue
		for _, elem := range arr {
			v, err := parseValue(d, elem)
			if err != nil {
				return err
			}
			values = append(values, v)
		}
		obj.AddAttribute(object.NewPluralAttribute(d, values))
		return nil
	}
	v, err := parseValue(d, val)
	if err != nil {
		return err
	}
	obj.AddAttribute(object.NewSingularAttribute(d, v))
	return nil
}

func parseValue(d *spec.AttributeDescriptor, val interface{}) (object.SCIMAttributeValue, error) {
	if d.DataType() == spec.DataTypeComplex {
		nested, ok := val.(map[string]interface{})
		if !ok {
			return object.SCIMAttributeValue{}, fmt.Errorf("%w: %s.%s expects a JSON object", spec.ErrInvalidResource, d.Schema(), d.Name())
		}
		cv := object.NewComplexAttributeValue()
		for key, sv := range nested {
			sub := d.SubAttribute(key)
			if sub == nil {
				continue
			}
			simple, err := parseSimple(sub, sv)
			if err != nil {
				return object.SCIMAttributeValue{}, err
			}
			cv.Set(sub.Name(), object.NewSingularAttribute(sub, object.SimpleAttributeValue(simple)))
		}
		return cv, nil
	}
	simple, err := parseSimple(d, val)
	if err != nil {
		return object.SCIMAttributeValue{}, err
	}
	return object.SimpleAttributeValue(simple), nil
}

func parseSimple(d *spec.AttributeDescriptor, val interface{}) (object.SimpleValue, error) {
	switch d.DataType() {
	case spec.DataTypeString:
		s, ok := val.(string)
		if !ok {
			return object.SimpleValue{}, fmt.Errorf("%w: %s.%s expects a JSON string", spec.ErrInvalidAttributeValue, d.Schema(), d.Name())
		}
		return object.StringValue(s), nil
	case spec.DataTypeBoolean:
		b, ok := val.(bool)
		if !ok {
			return object.SimpleValue{}, fmt.Errorf("%w: %s.%s expects a JSON boolean", spec.ErrInvalidAttributeValue, d.Schema(), d.Name())
		}
		return object.BooleanValue(b), nil
	case spec.DataTypeInteger:
		switch n := val.(type) {
		case float64:
			return object.IntegerValue(int64(n)), nil
		case json.Number:
			i, err := n.Int64()
			if err != nil {
				return object.SimpleValue{}, fmt.Errorf("%w: %s.%s: %v", spec.ErrInvalidAttributeValue, d.Schema(), d.Name(), err)
			}
			return object.IntegerValue(i), nil
		case string:
			i, err := strconv.ParseInt(n, 10, 64)
			if err != nil {
				return object.SimpleValue{}, fmt.Errorf("%w: %s.%s: %v", spec.ErrInvalidAttributeValue, d.Schema(), d.Name(), err)
			}
			return object.IntegerValue(i), nil
		default:
			return object.SimpleValue{}, fmt.Errorf("%w: %s.%s expects a JSON number", spec.ErrInvalidAttributeValue, d.Schema(), d.Name())
		}
	case spec.DataTypeDateTime:
		s, ok := val.(string)
		if !ok {
			return object.SimpleValue{}, fmt.Errorf("%w: %s.%s expects an ISO-8601 string", spec.ErrInvalidAttributeValue, d.Schema(), d.Name())
		}
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return object.SimpleValue{}, fmt.Errorf("%w: %s.%s: invalid datetime %q: %v", spec.ErrInvalidAttributeValue, d.Schema(), d.Name(), s, err)
		}
		return object.DateTimeValue(t), nil
	case spec.DataTypeBinary:
		s, ok := val.(string)
		if !ok {
			return object.SimpleValue{}, fmt.Errorf("%w: %s.%s expects a base64 string", spec.ErrInvalidAttributeValue, d.Schema(), d.Name())
		}
		raw, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return object.SimpleValue{}, fmt.Errorf("%w: %s.%s: invalid base64: %v", spec.ErrInvalidAttributeValue, d.Schema(), d.Name(), err)
		}
		return object.BinaryValue(raw), nil
	default:
		return object.SimpleValue{}, fmt.Errorf("%w: %s.%s has an unsupported data type for parsing", spec.ErrInvalidAttributeValue, d.Schema(), d.Name())
	}
}
