package cache

import (
	"github.com/bytedance/sonic"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	codecMsgpack = "msgpack"
	codecJSON    = "json"
)

// DefaultCodec returns the codec used when none is configured.
func DefaultCodec() Codec {
	return NewMsgpackCodec()
}

type msgpackCodec struct{}

// NewMsgpackCodec returns a Codec backed by msgpack. Exported struct fields
// round-trip by name, so the decoded value matches the encoded one.
func NewMsgpackCodec() Codec {
	return msgpackCodec{}
}

func (msgpackCodec) Marshal(v any) ([]byte, error) {
	return msgpack.Marshal(v)
}

func (msgpackCodec) Unmarshal(data []byte, v any) error {
	return msgpack.Unmarshal(data, v)
}

func (msgpackCodec) Name() string { return codecMsgpack }

type jsonCodec struct {
	api sonic.API
}

// NewJSONCodec returns a Codec that writes standard-compatible JSON.
// Useful when entries in a shared store are read by other services.
func NewJSONCodec() Codec {
	return jsonCodec{api: sonic.ConfigStd}
}

func (c jsonCodec) Marshal(v any) ([]byte, error) {
	return c.api.Marshal(v)
}

func (c jsonCodec) Unmarshal(data []byte, v any) error {
	return c.api.Unmarshal(data, v)
}

func (jsonCodec) Name() string { return codecJSON }

// CodecByName resolves a codec from its configured name. Unknown names
// fall back to DefaultCodec.
func CodecByName(name string) Codec {
	switch name {
	case codecJSON:
		return NewJSONCodec()
	default:
		return DefaultCodec()
	}
}
