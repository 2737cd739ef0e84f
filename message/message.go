// Package message defines the JSON-RPC-shaped request/response values
// carried in a mini-rpc frame body, and the error taxonomy peers exchange
// when a call fails.
package message

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMissingMethod distinguishes a well-formed request body that lacks a
// "method" field (wire code INVALID_REQUEST) from a body that failed to
// parse as JSON at all (wire code PARSE_ERROR).
var ErrMissingMethod = errors.New("message: missing method")

// ErrorCode is the closed enumeration of wire-level failure classes. Values
// are frozen per the protocol; peers must preserve unknown negative codes
// verbatim rather than coercing them to one of the named constants.
type ErrorCode int32

const (
	Success          ErrorCode = 0
	InvalidRequest   ErrorCode = -1
	MethodNotFound   ErrorCode = -2
	InvalidParams    ErrorCode = -3
	InternalError    ErrorCode = -4
	ParseError       ErrorCode = -5
	TimeoutError     ErrorCode = -6
	NetworkError     ErrorCode = -7
	SerializeError   ErrorCode = -8
	DeserializeError ErrorCode = -9
	CustomError      ErrorCode = -100
)

func (c ErrorCode) String() string {
	switch c {
	case Success:
		return "SUCCESS"
	case InvalidRequest:
		return "INVALID_REQUEST"
	case MethodNotFound:
		return "METHOD_NOT_FOUND"
	case InvalidParams:
		return "INVALID_PARAMS"
	case InternalError:
		return "INTERNAL_ERROR"
	case ParseError:
		return "PARSE_ERROR"
	case TimeoutError:
		return "TIMEOUT_ERROR"
	case NetworkError:
		return "NETWORK_ERROR"
	case SerializeError:
		return "SERIALIZE_ERROR"
	case DeserializeError:
		return "DESERIALIZE_ERROR"
	case CustomError:
		return "CUSTOM_ERROR"
	default:
		return fmt.Sprintf("ErrorCode(%d)", int32(c))
	}
}

// RPCError is the wire shape of a failed response's "error" member.
type RPCError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Request is the body of a REQUEST or NOTIFICATION frame. MessageID is 0
// for notifications. TimeoutMs records the caller's timeout; EncodeBody does
// not write it into the wire body, and timeouts are enforced only by the
// local call.
type Request struct {
	MessageID uint32
	Method    string
	Params    string // caller-supplied text, JSON or plain
	TimeoutMs uint32
}

type wireRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	ID      uint32          `json:"id"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// EncodeBody renders the request as the jsonrpc-2.0-shaped JSON wire body.
func (r *Request) EncodeBody() ([]byte, error) {
	w := wireRequest{
		JSONRPC: "2.0",
		Method:  r.Method,
		ID:      r.MessageID,
	}
	if r.Params != "" {
		w.Params = embed(r.Params)
	}
	return json.Marshal(w)
}

// DecodeRequestBody parses a wire body into a Request. A well-formed body
// without a non-empty "method" field returns ErrMissingMethod (wire code
// INVALID_REQUEST); a body that is not valid JSON returns a different error
// (wire code PARSE_ERROR).
func DecodeRequestBody(body []byte) (*Request, error) {
	var w wireRequest
	if err := json.Unmarshal(body, &w); err != nil {
		return nil, fmt.Errorf("message: invalid JSON body: %w", err)
	}
	if w.Method == "" {
		return nil, ErrMissingMethod
	}
	req := &Request{
		MessageID: w.ID,
		Method:    w.Method,
	}
	if len(w.Params) > 0 {
		req.Params = unembed(w.Params)
	}
	return req, nil
}

// Response is the body of a RESPONSE frame: exactly one of Result or Err is
// populated, never both, never neither.
type Response struct {
	MessageID uint32
	Result    string // populated on success
	Err       *RPCError
}

type wireResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint32          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// Success reports whether the response carries a result rather than an
// error.
func (r *Response) Success() bool {
	return r.Err == nil
}

// NewSuccess builds a successful Response carrying result as its payload.
func NewSuccess(messageID uint32, result string) *Response {
	return &Response{MessageID: messageID, Result: result}
}

// NewError builds a failed Response with the given code and message.
func NewError(messageID uint32, code ErrorCode, msg string) *Response {
	return &Response{MessageID: messageID, Err: &RPCError{Code: code, Message: msg}}
}

// EncodeBody renders the response as the jsonrpc-2.0-shaped JSON wire body.
func (r *Response) EncodeBody() ([]byte, error) {
	w := wireResponse{JSONRPC: "2.0", ID: r.MessageID}
	if r.Err != nil {
		w.Error = r.Err
	} else {
		w.Result = embed(r.Result)
	}
	return json.Marshal(w)
}

// DecodeResponseBody parses a wire body into a Response. It requires
// exactly one of "result" or "error" to be present; a body with neither is
// rejected (§9 Open Question 3).
func DecodeResponseBody(body []byte) (*Response, error) {
	var w wireResponse
	if err := json.Unmarshal(body, &w); err != nil {
		return nil, fmt.Errorf("message: invalid JSON body: %w", err)
	}
	hasResult := len(w.Result) > 0
	hasError := w.Error != nil
	if hasResult == hasError {
		return nil, fmt.Errorf("message: response must carry exactly one of result or error")
	}
	resp := &Response{MessageID: w.ID}
	if hasError {
		resp.Err = w.Error
	} else {
		resp.Result = unembed(w.Result)
	}
	return resp, nil
}

// embed implements the params/result embedding rule: if text parses as
// JSON, the parsed value is embedded directly; otherwise text is embedded
// as a JSON string.
func embed(text string) json.RawMessage {
	if json.Valid([]byte(text)) {
		return json.RawMessage(text)
	}
	quoted, err := json.Marshal(text)
	if err != nil {
		return json.RawMessage(`""`)
	}
	return json.RawMessage(quoted)
}

// unembed returns the embedded JSON value as its raw text. For text that was
// already valid JSON this gives back what the caller embedded; a plain string
// that embed quoted comes back as a JSON string, quotes included, because
// JSON strings are not unquoted here — callers decide whether to Unmarshal a
// string payload further.
func unembed(raw json.RawMessage) string {
	return string(raw)
}
