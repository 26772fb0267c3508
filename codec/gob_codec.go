package codec

import (
	"bytes"
	"encoding/gob"
)

// GobCodec encodes an argument tuple as a gob stream: a tuple length
// followed by each element in order. Gob is Go-only but compact and
// handles nested structs and maps without tags.
type GobCodec struct{}

func (c *GobCodec) EncodeArgs(args ...any) ([]byte, error) {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	if err := enc.Encode(len(args)); err != nil {
		return nil, err
	}
	for _, arg := range args {
		if err := enc.Encode(arg); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func (c *GobCodec) DecodeArgs(data []byte, into []any) error {
	dec := gob.NewDecoder(bytes.NewReader(data))
	var n int
	if err := dec.Decode(&n); err != nil {
		return err
	}
	if n != len(into) {
		return tupleSizeError(len(into), n)
	}
	for _, dst := range into {
		if err := dec.Decode(dst); err != nil {
			return err
		}
	}
	return nil
}

func (c *GobCodec) Type() CodecType {
	return CodecTypeGob
}
