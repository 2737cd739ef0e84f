package server

import (
	"net"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Jashshor/mini-rpc/codec"
	"github.com/Jashshor/mini-rpc/message"
	"github.com/Jashshor/mini-rpc/protocol"
)

func protocolReadFrame(conn net.Conn) (protocol.Header, []byte, error) {
	return protocol.NewFrameReader(conn).ReadFrame()
}

func TestServerEchoesRequest(t *testing.T) {
	svr := New(zap.NewNop())
	svr.Register("echo", func(params string) (string, error) {
		return params, nil
	})

	go svr.Serve("tcp", ":18881")
	defer svr.Shutdown(time.Second)
	time.Sleep(100 * time.Millisecond)

	conn, err := net.Dial("tcp", ":18881")
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	req := &message.Request{MessageID: 42, Method: "echo", Params: "hello"}
	if err := codec.EncodeRequest(conn, req); err != nil {
		t.Fatal(err)
	}

	h, body, err := protocolReadFrame(conn)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := codec.DecodeResponse(body)
	if err != nil {
		t.Fatal(err)
	}
	if h.MessageID != 42 {
		t.Fatalf("expect message id 42, got %d", h.MessageID)
	}
	// "hello" is not JSON, so it travels as the JSON string "hello" and the
	// echoed result keeps those quotes.
	if !resp.Success() || resp.Result != `"hello"` {
		t.Fatalf("expect successful echo, got %+v", resp)
	}
}

func TestServerMethodNotFound(t *testing.T) {
	svr := New(zap.NewNop())

	go svr.Serve("tcp", ":18882")
	defer svr.Shutdown(time.Second)
	time.Sleep(100 * time.Millisecond)

	conn, err := net.Dial("tcp", ":18882")
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	req := &message.Request{MessageID: 1, Method: "missing", Params: ""}
	if err := codec.EncodeRequest(conn, req); err != nil {
		t.Fatal(err)
	}

	_, body, err := protocolReadFrame(conn)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := codec.DecodeResponse(body)
	if err != nil {
		t.Fatal(err)
	}
	if resp.Success() {
		t.Fatalf("expect error response, got success %+v", resp)
	}
	if resp.Err.Code != message.MethodNotFound {
		t.Fatalf("expect MethodNotFound, got %s", resp.Err.Code)
	}
}

func TestServerMissingMethodReturnsInvalidRequest(t *testing.T) {
	svr := New(zap.NewNop())

	go svr.Serve("tcp", ":18884")
	defer svr.Shutdown(time.Second)
	time.Sleep(100 * time.Millisecond)

	conn, err := net.Dial("tcp", ":18884")
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	// Well-formed JSON, but no "method" field: INVALID_REQUEST, not
	// PARSE_ERROR, and the frame header's message id must be preserved.
	body := []byte(`{"jsonrpc":"2.0","id":7}`)
	if err := protocol.Encode(conn, &protocol.Header{Type: protocol.MessageRequest, MessageID: 7}, body); err != nil {
		t.Fatal(err)
	}

	_, respBody, err := protocolReadFrame(conn)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := codec.DecodeResponse(respBody)
	if err != nil {
		t.Fatal(err)
	}
	if resp.Success() {
		t.Fatalf("expect error response, got success %+v", resp)
	}
	if resp.Err.Code != message.InvalidRequest {
		t.Fatalf("expect InvalidRequest, got %s", resp.Err.Code)
	}
	if resp.MessageID != 7 {
		t.Fatalf("expect message id 7 preserved from frame header, got %d", resp.MessageID)
	}
}

func TestServerMalformedBodyReturnsParseError(t *testing.T) {
	svr := New(zap.NewNop())

	go svr.Serve("tcp", ":18885")
	defer svr.Shutdown(time.Second)
	time.Sleep(100 * time.Millisecond)

	conn, err := net.Dial("tcp", ":18885")
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	body := []byte(`not valid json at all`)
	if err := protocol.Encode(conn, &protocol.Header{Type: protocol.MessageRequest, MessageID: 3}, body); err != nil {
		t.Fatal(err)
	}

	_, respBody, err := protocolReadFrame(conn)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := codec.DecodeResponse(respBody)
	if err != nil {
		t.Fatal(err)
	}
	if resp.Success() {
		t.Fatalf("expect error response, got success %+v", resp)
	}
	if resp.Err.Code != message.ParseError {
		t.Fatalf("expect ParseError, got %s", resp.Err.Code)
	}
	if resp.MessageID != 3 {
		t.Fatalf("expect message id 3 preserved from frame header, got %d", resp.MessageID)
	}
}

func TestServerNotificationGetsNoResponse(t *testing.T) {
	svr := New(zap.NewNop())
	called := make(chan struct{}, 1)
	svr.Register("fire", func(params string) (string, error) {
		called <- struct{}{}
		return "", nil
	})

	go svr.Serve("tcp", ":18883")
	defer svr.Shutdown(time.Second)
	time.Sleep(100 * time.Millisecond)

	conn, err := net.Dial("tcp", ":18883")
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	req := &message.Request{MessageID: 0, Method: "fire", Params: ""}
	if err := codec.EncodeRequest(conn, req); err != nil {
		t.Fatal(err)
	}

	select {
	case <-called:
	case <-time.After(time.Second):
		t.Fatal("notification handler was never invoked")
	}

	conn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	if _, _, err := protocolReadFrame(conn); err == nil {
		t.Fatal("expect no response frame for a notification")
	}
}
