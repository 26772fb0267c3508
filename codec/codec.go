// Package codec serializes argument tuples into opaque payload bytes.
//
// The core hands a codec the exact ordered argument values of a declared
// signature and gets back a payload it never inspects. On the receiving
// side the codec reconstructs the tuple into typed destinations derived
// from the same signature. A payload that does not match the expected
// shape is an error, the one fatal condition in the dispatch path.
package codec

import "fmt"

type CodecType byte

const (
	CodecTypeJSON CodecType = 0
	CodecTypeGob  CodecType = 1
)

type Codec interface {
	// EncodeArgs packs an ordered argument tuple into payload bytes.
	EncodeArgs(args ...any) ([]byte, error)

	// DecodeArgs unpacks a payload into typed destinations, one pointer per
	// tuple element. The destinations must match the shape the payload was
	// encoded with; a mismatch is an error.
	DecodeArgs(data []byte, into []any) error

	Type() CodecType // 0=JSON, 1=Gob
}

func GetCodec(codecType CodecType) Codec {
	if codecType == CodecTypeJSON {
		return &JSONCodec{}
	}

	return &GobCodec{}
}

func tupleSizeError(want, got int) error {
	return fmt.Errorf("codec: payload holds %d elements, expected %d", got, want)
}
