package json

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/dirscim/gateway/codec"
	"github.com/dirscim/gateway/spec"
)

// SerializeList renders a query result as a SCIM list-response JSON
// document: totalResults, startIndex, and an ordered Resources array,
// per spec.md §4.7.
func SerializeList(list codec.ListEnvelope, mainSchema string) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	fmt.Fprintf(&buf, `"totalResults":%d,"startIndex":%d,"Resources":[`, list.TotalResults, list.StartIndex)
	for i, res := range list.Resources {
		if i > 0 {
			buf.WriteByte(',')
		}
		body, err := Serialize(res, mainSchema)
		if err != nil {
			return nil, err
		}
		buf.Write(body)
	}
	buf.WriteString("]}")
	return buf.Bytes(), nil
}

// ParseList parses a SCIM list-response document, defaulting
// TotalResults to len(Resources) and StartIndex to 1 when either is
// absent, per spec.md §4.7.
func ParseList(data []byte, resource *spec.ResourceDescriptor, registry *spec.Registry) (codec.ListEnvelope, error) {
	var raw struct {
		TotalResults *int              `json:"totalResults"`
		StartIndex   *int              `json:"startIndex"`
		Resources    []json.RawMessage `json:"Resources"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return codec.ListEnvelope{}, fmt.Errorf("%w: malformed list envelope: %v", spec.ErrInvalidResource, err)
	}

	list := codec.ListEnvelope{}
	for _, body := range raw.Resources {
		res, err := Parse(body, resource, registry)
		if err != nil {
			return codec.ListEnvelope{}, err
		}
		list.Resources = append(list.Resources, res)
	}

	if raw.TotalResults != nil {
		list.TotalResults = *raw.TotalResults
	} else {
		list.TotalResults = len(list.Resources)
	}
	if raw.StartIndex != nil {
		list.StartIndex = *raw.StartIndex
	} else {
		list.StartIndex = 1
	}
	return list, nil
}
