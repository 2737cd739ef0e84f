// Package protocol defines the binary frame header mini-rpc puts in front of
// every JSON body on the wire.
//
// Frame layout, all fields little-endian:
//
//	0        4        8  9      12       16       20       24                32
//	┌────────┬────────┬──┬──────┬────────┬────────┬────────┬──────────────────┐
//	│ magic  │version │ty│ pad3 │msg_id  │bodyLen │checksum│     timestamp     │
//	│  u32   │  u32   │u8│      │  u32   │  u32   │  u32   │        u64        │
//	└────────┴────────┴──┴──────┴────────┴────────┴────────┴──────────────────┘
//
// The header size is fixed at 32 bytes and identical for every peer; the
// padding bytes after the type byte are always zero on encode and ignored on
// decode.
package protocol

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Magic identifies a mini-rpc frame. Any other value is a protocol violation.
const Magic uint32 = 0x12345678

// Version is the only wire version this package speaks.
const Version uint32 = 1

// HeaderSize is the fixed on-wire header length in bytes.
const HeaderSize = 32

// MessageType discriminates the four frame kinds mini-rpc exchanges.
type MessageType byte

const (
	MessageRequest      MessageType = 1
	MessageResponse     MessageType = 2
	MessageNotification MessageType = 3
	MessageHeartbeat    MessageType = 4
)

func (t MessageType) String() string {
	switch t {
	case MessageRequest:
		return "REQUEST"
	case MessageResponse:
		return "RESPONSE"
	case MessageNotification:
		return "NOTIFICATION"
	case MessageHeartbeat:
		return "HEARTBEAT"
	default:
		return fmt.Sprintf("MessageType(%d)", byte(t))
	}
}

// Header is the fixed 32-byte frame header.
type Header struct {
	Type      MessageType
	MessageID uint32 // 0 reserved for notifications
	BodyLen   uint32
	Checksum  uint32
	Timestamp uint64 // seconds since epoch at send time, advisory only
}

// Checksum is the body's integrity token: a deterministic rolling hash,
// h ← h*31 + b (mod 2^32), matching peer-for-peer regardless of platform.
func Checksum(body []byte) uint32 {
	var h uint32
	for _, b := range body {
		h = h*31 + uint32(b)
	}
	return h
}

// Encode writes the header followed by body to w as one frame.
func Encode(w io.Writer, h *Header, body []byte) error {
	buf := make([]byte, HeaderSize+len(body))

	binary.LittleEndian.PutUint32(buf[0:4], Magic)
	binary.LittleEndian.PutUint32(buf[4:8], Version)
	buf[8] = byte(h.Type)
	// buf[9:12] left zero: explicit padding, stable across peers
	binary.LittleEndian.PutUint32(buf[12:16], h.MessageID)
	binary.LittleEndian.PutUint32(buf[16:20], uint32(len(body)))
	binary.LittleEndian.PutUint32(buf[20:24], Checksum(body))
	binary.LittleEndian.PutUint64(buf[24:32], h.Timestamp)
	copy(buf[HeaderSize:], body)

	_, err := w.Write(buf)
	return err
}

// DecodeHeader parses a HeaderSize-byte buffer into a Header. It does not
// validate magic/version/checksum; callers needing validated decode should
// use Decode or a FrameReader, which apply the full checks in §4.1.
func DecodeHeader(buf []byte) (Header, error) {
	if len(buf) < HeaderSize {
		return Header{}, fmt.Errorf("protocol: short header: %d bytes", len(buf))
	}
	return Header{
		Type:      MessageType(buf[8]),
		MessageID: binary.LittleEndian.Uint32(buf[12:16]),
		BodyLen:   binary.LittleEndian.Uint32(buf[16:20]),
		Checksum:  binary.LittleEndian.Uint32(buf[20:24]),
		Timestamp: binary.LittleEndian.Uint64(buf[24:32]),
	}, nil
}

// rawMagic and rawVersion read the first 8 bytes of a header buffer without
// requiring a full Header value, used by Decode/FrameReader to validate
// before trusting BodyLen.
func rawMagic(buf []byte) uint32   { return binary.LittleEndian.Uint32(buf[0:4]) }
func rawVersion(buf []byte) uint32 { return binary.LittleEndian.Uint32(buf[4:8]) }

// Decode validates and parses a single complete frame: exactly
// HeaderSize+bodyLen bytes, magic correct, checksum matching. It is the
// non-streaming counterpart to FrameReader, useful in tests and for decoding
// a buffer already known to hold one whole frame.
func Decode(buf []byte) (Header, []byte, error) {
	if len(buf) < HeaderSize {
		return Header{}, nil, fmt.Errorf("protocol: short buffer: %d bytes", len(buf))
	}
	if rawMagic(buf) != Magic {
		return Header{}, nil, fmt.Errorf("protocol: bad magic: %#x", rawMagic(buf))
	}
	if rawVersion(buf) != Version {
		return Header{}, nil, fmt.Errorf("protocol: unsupported version: %d", rawVersion(buf))
	}
	h, err := DecodeHeader(buf[:HeaderSize])
	if err != nil {
		return Header{}, nil, err
	}
	if uint32(len(buf)) != HeaderSize+h.BodyLen {
		return Header{}, nil, fmt.Errorf("protocol: length mismatch: have %d want %d", len(buf), HeaderSize+h.BodyLen)
	}
	body := buf[HeaderSize:]
	if Checksum(body) != h.Checksum {
		return Header{}, nil, fmt.Errorf("protocol: checksum mismatch")
	}
	return h, body, nil
}
