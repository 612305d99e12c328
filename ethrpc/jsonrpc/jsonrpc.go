package jsonrpc

import (
	"encoding/json"
	"fmt"
)

// Version is the only JSONRPC protocol version spoken by the provider.
const Version = "2.0"

// Message is either a JSONRPC request or response.
type Message struct {
	Version string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Method  string          `json:"method,omitempty"`
	Params  []any           `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// NewRequest returns a new JSONRPC request Message.
func NewRequest(id uint64, method string, params []any) Message {
	return Message{
		Version: Version,
		ID:      id,
		Method:  method,
		Params:  params,
	}
}

// NewResponse returns a new JSONRPC response Message carrying result.
func NewResponse(id uint64, result json.RawMessage) Message {
	return Message{
		Version: Version,
		ID:      id,
		Result:  result,
	}
}

// Error is a JSONRPC error returned from the node.
type Error struct {
	Code    int             `json:"code,omitempty"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Error implements the error interface.
func (e Error) Error() string {
	if len(e.Data) > 0 {
		return fmt.Sprintf("jsonrpc error %d: %s (data: %s)", e.Code, e.Message, string(e.Data))
	}
	return fmt.Sprintf("jsonrpc error %d: %s", e.Code, e.Message)
}
