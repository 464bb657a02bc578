package mcp

import (
	"errors"
	"fmt"
)

// JSON-RPC error codes. The numeric values are part of the client
// contract and must not change.
const (
	CodeParseError     = -32700
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

// Error is a dispatch-level error carrying a JSON-RPC error code. Errors
// without a code are normalized to CodeInternalError at the top level.
type Error struct {
	Code    int
	Message string
	Data    any
}

func (e *Error) Error() string {
	return e.Message
}

// Errorf builds an Error with a formatted message.
func Errorf(code int, format string, v ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, v...)}
}

// toJSONRPCError converts any error into a JSON-RPC error object. Typed
// dispatch errors keep their code; everything else, including upstream
// failures, becomes an internal error carrying the error's message.
func toJSONRPCError(err error) *JSONRPCError {
	var dispatchErr *Error
	if errors.As(err, &dispatchErr) {
		return &JSONRPCError{
			Code:    dispatchErr.Code,
			Message: dispatchErr.Message,
			Data:    dispatchErr.Data,
		}
	}
	return &JSONRPCError{
		Code:    CodeInternalError,
		Message: err.Error(),
	}
}
