package json

import (
	"encoding/json"
	"fmt"

	"github.com/dirscim/gateway/codec"
	"github.com/dirscim/gateway/spec"
)

// SerializeError renders e as {"status":<int>,"detail":"..."}.
func SerializeError(e codec.Error) []byte {
	var buf []byte
	buf = append(buf, '{')
	buf = append(buf, []byte(fmt.Sprintf(`"status":%d,"detail":`, e.Status))...)
	quoted, _ := json.Marshal(e.Detail)
	buf = append(buf, quoted...)
	buf = append(buf, '}')
	return buf
}

// ParseError parses a JSON error document into a codec.Error.
func ParseError(data []byte) (codec.Error, error) {
	var raw struct {
		Status int    `json:"status"`
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return codec.Error{}, fmt.Errorf("%w: malformed error document: %v", spec.ErrInvalidResource, err)
	}
	return codec.Error{Status: raw.Status, Detail: raw.Detail}, nil
}
