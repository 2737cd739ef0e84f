// Package codec ties the protocol frame layer to the message body layer:
// it is the concrete implementation of §4.1's Codec component, encoding a
// typed message into a full wire frame and decoding the body of a frame back
// into a typed message. Magic, version and checksum are validated earlier,
// by protocol.Decode or protocol.FrameReader.
package codec

import (
	"fmt"
	"io"
	"time"

	"github.com/Jashshor/mini-rpc/message"
	"github.com/Jashshor/mini-rpc/protocol"
)

// EncodeRequest writes req as a REQUEST frame (or NOTIFICATION if
// req.MessageID is 0) to w.
func EncodeRequest(w io.Writer, req *message.Request) error {
	body, err := req.EncodeBody()
	if err != nil {
		return fmt.Errorf("codec: encode request: %w", err)
	}
	msgType := protocol.MessageRequest
	if req.MessageID == 0 {
		msgType = protocol.MessageNotification
	}
	return protocol.Encode(w, &protocol.Header{
		Type:      msgType,
		MessageID: req.MessageID,
		Timestamp: uint64(time.Now().Unix()),
	}, body)
}

// EncodeResponse writes resp as a RESPONSE frame to w.
func EncodeResponse(w io.Writer, resp *message.Response) error {
	body, err := resp.EncodeBody()
	if err != nil {
		return fmt.Errorf("codec: encode response: %w", err)
	}
	return protocol.Encode(w, &protocol.Header{
		Type:      protocol.MessageResponse,
		MessageID: resp.MessageID,
		Timestamp: uint64(time.Now().Unix()),
	}, body)
}

// EncodeHeartbeat writes a zero-body heartbeat frame to w.
func EncodeHeartbeat(w io.Writer) error {
	return protocol.Encode(w, &protocol.Header{
		Type:      protocol.MessageHeartbeat,
		Timestamp: uint64(time.Now().Unix()),
	}, nil)
}

// DecodeRequest parses a frame's header+body into a Request, taking the
// request's MessageID from the header. Callers inspect h.Type themselves to
// distinguish REQUEST from NOTIFICATION.
func DecodeRequest(h protocol.Header, body []byte) (*message.Request, error) {
	req, err := message.DecodeRequestBody(body)
	if err != nil {
		return nil, err
	}
	req.MessageID = h.MessageID
	return req, nil
}

// DecodeResponse parses a frame's body into a Response.
func DecodeResponse(body []byte) (*message.Response, error) {
	return message.DecodeResponseBody(body)
}
