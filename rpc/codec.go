package rpc

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

// jsonCodec marshals gRPC messages as JSON instead of protobuf wire bytes.
// WatchEvent and the anonymous watch-request struct aren't proto.Message
// implementations (there is no protoc-generated code here, per
// ServiceDesc's doc comment), so the default proto codec can't carry them;
// registering under the "json" name and requesting it via
// grpc.CallContentSubtype("json") is the standard way gRPC-Go supports a
// non-protobuf payload without forking the framing/flow-control machinery.
type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

func (jsonCodec) Name() string { return codecName }

const codecName = "json"

func init() {
	encoding.RegisterCodec(jsonCodec{})
}
