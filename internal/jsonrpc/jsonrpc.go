// Package jsonrpc implements the small slice of JSON-RPC 2.0 that the
// Moonraker websocket and MQTT APIs speak.
package jsonrpc

import (
	"encoding/json"
	"fmt"
	"sync/atomic"
)

var nextID int64

// NewID returns a process-unique request id.
func NewID() int64 {
	return atomic.AddInt64(&nextID, 1)
}

// Request is a JSON-RPC 2.0 request.
type Request struct {
	Version string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
	ID      int64  `json:"id"`
}

// NewRequest builds a request with a fresh id.
func NewRequest(method string, params any) Request {
	return Request{
		Version: "2.0",
		Method:  method,
		Params:  params,
		ID:      NewID(),
	}
}

// Response is a JSON-RPC 2.0 response. Notifications carry a method and
// no id; Matches ignores them.
type Response struct {
	Version string          `json:"jsonrpc"`
	Method  string          `json:"method,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
	ID      *int64          `json:"id,omitempty"`
}

// Error is a JSON-RPC 2.0 error object.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("jsonrpc error %d: %s", e.Code, e.Message)
}

// Matches reports whether the response answers the given request.
func (r *Response) Matches(req Request) bool {
	return r.ID != nil && *r.ID == req.ID
}

// Decode parses a raw frame into a Response.
func Decode(data []byte) (*Response, error) {
	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("decode jsonrpc frame: %w", err)
	}
	return &resp, nil
}

// Unwrap returns the result payload or the remote error.
func (r *Response) Unwrap() (json.RawMessage, error) {
	if r.Error != nil {
		return nil, r.Error
	}
	return r.Result, nil
}
