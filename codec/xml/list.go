package xml

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/dirscim/gateway/codec"
	"github.com/dirscim/gateway/spec"
)

// SerializeList renders a query result as a <ListResponse> document
// wrapping totalResults, startIndex and one resource element per result.
func SerializeList(list codec.ListEnvelope, resourceName, mainSchema string) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("<ListResponse>")
	fmt.Fprintf(&buf, "<totalResults>%d</totalResults>", list.TotalResults)
	fmt.Fprintf(&buf, "<startIndex>%d</startIndex>", list.StartIndex)
	buf.WriteString("<Resources>")
	for _, res := range list.Resources {
		body, err := Serialize(res, resourceName, mainSchema)
		if err != nil {
			return nil, err
		}
		buf.Write(body)
	}
	buf.WriteString("</Resources></ListResponse>")
	return buf.Bytes(), nil
}

// ParseList parses a <ListResponse> document, defaulting TotalResults to
// len(Resources) and StartIndex to 1 when either is absent, per
// spec.md §4.7.
func ParseList(data []byte, resource *spec.ResourceDescriptor, registry *spec.Registry) (codec.ListEnvelope, error) {
	root, err := parseTree(data)
	if err != nil {
		return codec.ListEnvelope{}, fmt.Errorf("%w: malformed list envelope: %v", spec.ErrInvalidResource, err)
	}

	list := codec.ListEnvelope{}
	haveTotal, haveStart := false, false

	for _, child := range root.children {
		switch child.local {
		case "totalResults":
			if n, err := strconv.Atoi(child.text); err == nil {
				list.TotalResults = n
				haveTotal = true
			}
		case "startIndex":
			if n, err := strconv.Atoi(child.text); err == nil {
				list.StartIndex = n
				haveStart = true
			}
		case "Resources":
			for _, resNode := range child.children {
				res, err := parseFromNode(resNode, resource, registry)
				if err != nil {
					return codec.ListEnvelope{}, err
				}
				list.Resources = append(list.Resources, res)
			}
		}
	}

	if !haveTotal {
		list.TotalResults = len(list.Resources)
	}
	if !haveStart {
		list.StartIndex = 1
	}
	return list, nil
}
