package protocol

import (
	"bufio"
	"fmt"
	"io"
)

// FrameReader accumulates bytes from a stream until a complete frame is
// available, then hands back the validated header and body. Unlike a
// single-shot Decode call, it tolerates arbitrarily fragmented reads: a
// caller that only has 3 bytes of the header gets io.ErrUnexpectedEOF-free
// blocking until the rest arrives.
type FrameReader struct {
	r *bufio.Reader
}

// NewFrameReader wraps r for frame-at-a-time reading.
func NewFrameReader(r io.Reader) *FrameReader {
	return &FrameReader{r: bufio.NewReaderSize(r, 4096)}
}

// ReadFrame blocks until one full frame has arrived, then validates and
// returns it. Read failures come from io.ReadFull: io.EOF when the stream
// ends before the first byte of the header or of the body,
// io.ErrUnexpectedEOF when it ends partway through either, and any other
// connection error unchanged. Magic, version and checksum failures return a
// "protocol:" error instead.
func (fr *FrameReader) ReadFrame() (Header, []byte, error) {
	headerBuf := make([]byte, HeaderSize)
	if _, err := io.ReadFull(fr.r, headerBuf); err != nil {
		return Header{}, nil, err
	}

	if rawMagic(headerBuf) != Magic {
		return Header{}, nil, fmt.Errorf("protocol: bad magic: %#x", rawMagic(headerBuf))
	}
	if rawVersion(headerBuf) != Version {
		return Header{}, nil, fmt.Errorf("protocol: unsupported version: %d", rawVersion(headerBuf))
	}

	h, err := DecodeHeader(headerBuf)
	if err != nil {
		return Header{}, nil, err
	}

	body := make([]byte, h.BodyLen)
	if h.BodyLen > 0 {
		if _, err := io.ReadFull(fr.r, body); err != nil {
			return Header{}, nil, err
		}
	}

	if Checksum(body) != h.Checksum {
		return Header{}, nil, fmt.Errorf("protocol: checksum mismatch")
	}

	return h, body, nil
}
