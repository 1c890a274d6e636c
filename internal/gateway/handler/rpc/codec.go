package rpc

import (
	"encoding/json"

	"polyglotshift/internal/util/jsonutil"
)

// JSONCodec lets connect carry plain Go structs as application/json. The
// conversion service has no protobuf messages.
type JSONCodec struct{}

func (JSONCodec) Name() string { return "json" }

func (JSONCodec) Marshal(v any) ([]byte, error) { return jsonutil.MarshalNoEscape(v) }

func (JSONCodec) Unmarshal(b []byte, v any) error { return json.Unmarshal(b, v) }
