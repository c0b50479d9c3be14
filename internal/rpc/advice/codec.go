package advice

import (
	"bytes"
	"encoding/json"

	"github.com/bufbuild/connect-go"
)

// Codec carries plain Go structs as JSON; the messages have no protobuf form.
type Codec struct{}

func (Codec) Name() string {
	return "json"
}

func (Codec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

// Unmarshal treats an empty body as an empty message.
func (Codec) Unmarshal(data []byte, v any) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}

var _ connect.Codec = Codec{}
