// Package protocol implements the binary frame used to move packets over a
// byte stream.
//
// The core itself mandates no framing; that is a transport concern. The
// frame uses a fixed 18-byte header followed by the opaque payload. The
// receiver reads the header first to learn the payload length, then reads
// exactly that many bytes, which avoids TCP's sticky packet problem.
//
// Frame format:
//
//	0      3  4  5  6        8       10       14        18
//	┌──────┬──┬──┬──┬────────┬────────┬────────┬────────┬─────────────────┐
//	│magic │v │ct│fk│instance│function│ callId │ payLen │   payload ...    │
//	│ wrp  │01│  │  │ uint16 │ uint16 │ uint32 │ uint32 │  payLen bytes    │
//	└──────┴──┴──┴──┴────────┴────────┴────────┴────────┴─────────────────┘
package protocol

import (
	"encoding/binary"
	"fmt"
	"io"

	"wirerpc/codec"
	"wirerpc/message"
)

// Magic number bytes: "wrp". Used to quickly reject non-protocol
// connections (e.g., HTTP clients hitting the wrong port).
const (
	MagicNumber byte = 0x77 // 'w'
	MagicByte2  byte = 0x72 // 'r'
	MagicByte3  byte = 0x70 // 'p'
	Version     byte = 0x01
	HeaderSize  int  = 18 // 3 (magic) + 1 (version) + 1 (codec) + 1 (kind) + 2 + 2 + 4 + 4
)

// Frame kinds. Call and Response map directly onto message.Kind; Heartbeat
// exists only at the frame level to keep idle connections alive and never
// reaches the dispatcher.
const (
	FrameCall      byte = 0
	FrameResponse  byte = 1
	FrameHeartbeat byte = 2
)

// Encode writes one complete frame (header + payload) to w.
// The caller must serialize writes if multiple goroutines share the same
// writer, otherwise frames will interleave and corrupt the stream.
func Encode(w io.Writer, codecType codec.CodecType, pkt *message.Packet) error {
	buf := make([]byte, HeaderSize)
	copy(buf[0:3], []byte{MagicNumber, MagicByte2, MagicByte3})
	buf[3] = Version
	buf[4] = byte(codecType)
	buf[5] = byte(pkt.Kind)
	binary.BigEndian.PutUint16(buf[6:8], pkt.InstanceID)
	binary.BigEndian.PutUint16(buf[8:10], pkt.FunctionID)
	binary.BigEndian.PutUint32(buf[10:14], pkt.CallID)
	binary.BigEndian.PutUint32(buf[14:18], uint32(len(pkt.Payload)))

	if _, err := w.Write(buf); err != nil {
		return err
	}
	if _, err := w.Write(pkt.Payload); err != nil {
		return err
	}
	return nil
}

// EncodeHeartbeat writes an empty heartbeat frame to w.
func EncodeHeartbeat(w io.Writer) error {
	buf := make([]byte, HeaderSize)
	copy(buf[0:3], []byte{MagicNumber, MagicByte2, MagicByte3})
	buf[3] = Version
	buf[5] = FrameHeartbeat
	_, err := w.Write(buf)
	return err
}

// Decode reads one complete frame from r. It validates the magic number,
// version, codec type, and frame kind. A heartbeat frame yields a nil
// packet. io.ReadFull guarantees exactly N bytes are read, preventing
// partial reads.
func Decode(r io.Reader) (codec.CodecType, *message.Packet, error) {
	headerBuf := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, headerBuf); err != nil {
		return 0, nil, err
	}

	if headerBuf[0] != MagicNumber || headerBuf[1] != MagicByte2 || headerBuf[2] != MagicByte3 {
		return 0, nil, fmt.Errorf("invalid magic number: %x", headerBuf[0:3])
	}
	if headerBuf[3] != Version {
		return 0, nil, fmt.Errorf("unsupported version: %d", headerBuf[3])
	}

	kind := headerBuf[5]
	if kind == FrameHeartbeat {
		return 0, nil, nil
	}
	if kind != FrameCall && kind != FrameResponse {
		return 0, nil, fmt.Errorf("unsupported frame kind: %d", kind)
	}

	codecType := headerBuf[4]
	if codecType != byte(codec.CodecTypeJSON) && codecType != byte(codec.CodecTypeGob) {
		return 0, nil, fmt.Errorf("unsupported codec type: %d", codecType)
	}

	payloadLen := binary.BigEndian.Uint32(headerBuf[14:18])
	payload := make([]byte, payloadLen)
	if _, err := io.ReadFull(r, payload); err != nil {
		return 0, nil, err
	}

	return codec.CodecType(codecType), &message.Packet{
		InstanceID: binary.BigEndian.Uint16(headerBuf[6:8]),
		FunctionID: binary.BigEndian.Uint16(headerBuf[8:10]),
		CallID:     binary.BigEndian.Uint32(headerBuf[10:14]),
		Kind:       message.Kind(kind),
		Payload:    payload,
	}, nil
}
