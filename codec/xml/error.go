package xml

import (
	"bytes"
	"encoding/xml"
	"fmt"

	"github.com/dirscim/gateway/codec"
	"github.com/dirscim/gateway/spec"
)

// SerializeError renders e as <Error><code>...</code><description>...
// </description></Error>, per spec.md §4.7.
func SerializeError(e codec.Error) []byte {
	var buf bytes.Buffer
	buf.WriteString("<Error><code>")
	fmt.Fprintf(&buf, "%d", e.Status)
	buf.WriteString("</code><description>")
	_ = xml.EscapeText(&buf, []byte(e.Detail))
	buf.WriteString("</description></Error>")
	return buf.Bytes()
}

// ParseError parses a <Error><code/><description/></Error> document.
func ParseError(data []byte) (codec.Error, error) {
	root, err := parseTree(data)
	if err != nil {
		return codec.Error{}, fmt.Errorf("%w: malformed error document: %v", spec.ErrInvalidResource, err)
	}
	var e codec.Error
	for _, child := range root.children {
		switch child.local {
		case "code":
			fmt.Sscanf(child.text, "%d", &e.Status)
		case "description":
			e.Detail = child.text
		}
	}
	return e, nil
}
