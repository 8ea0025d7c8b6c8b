package cache

import (
	"bytes"

	"github.com/vmihailenco/msgpack/v5"
)

// Codec turns cached values into payloads and back.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

// MsgpackCodec encodes values with msgpack. Decoding into interface values
// yields int64 for every integer and float64 for every float, so field maps
// read back from the cache compare equal regardless of the width they were
// written with.
type MsgpackCodec struct{}

// Marshal encodes v.
func (MsgpackCodec) Marshal(v any) ([]byte, error) {
	return msgpack.Marshal(v)
}

// Unmarshal decodes data into v.
func (MsgpackCodec) Unmarshal(data []byte, v any) error {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.UseLooseInterfaceDecoding(true)
	return dec.Decode(v)
}
