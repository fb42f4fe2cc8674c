// Package mcp implements the MCP websocket server: a persistent duplex
// connection carrying JSON-RPC style request/response envelopes for git and
// pull-request bookkeeping operations.
package mcp

import "encoding/json"

// ProtocolVersion is the fixed envelope version constant.
const ProtocolVersion = "2.0"

// Request is the wire envelope for one call. The id is an opaque
// correlation token: it is never interpreted, only echoed back.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

// Response is the wire envelope for one reply. Exactly one of Result and
// Error is populated. The id is copied from the request, or null when the
// request itself could not be parsed.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  interface{}     `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// Error is the structured error carried in a response.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func successResponse(id json.RawMessage, result interface{}) *Response {
	return &Response{JSONRPC: ProtocolVersion, ID: id, Result: result}
}

func errorResponse(id json.RawMessage, rpcErr *Error) *Response {
	return &Response{JSONRPC: ProtocolVersion, ID: id, Error: rpcErr}
}
