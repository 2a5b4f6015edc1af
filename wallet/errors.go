package wallet

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors - transport
var (
	ErrUnauthorized       = errors.New("wallet: session token rejected")
	ErrServiceUnavailable = errors.New("wallet: service unavailable")
)

// Sentinel errors - commands
var (
	ErrUnknownCommand = errors.New("wallet: unknown command payload")
	ErrEmptyCommand   = errors.New("wallet: command envelope is empty")
)

// JSON-RPC error codes used by the wallet service.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603

	// CodeApplicationError covers command-level rejections, for example
	// an order cancellation for an unknown order.
	CodeApplicationError = 1000
)

// Error is a JSON-RPC error returned by the wallet service.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    string `json:"data,omitempty"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Data != "" {
		return fmt.Sprintf("wallet service error %d: %s (%s)", e.Code, e.Message, e.Data)
	}
	return fmt.Sprintf("wallet service error %d: %s", e.Code, e.Message)
}

// IsInvalidParams reports whether the service rejected the request shape.
func (e *Error) IsInvalidParams() bool {
	return e.Code == CodeInvalidParams
}

// IsApplicationError reports whether the command itself was rejected.
func (e *Error) IsApplicationError() bool {
	return e.Code == CodeApplicationError
}

// HTTPError is a non-RPC HTTP failure, typically authentication.
type HTTPError struct {
	StatusCode int
	Body       string
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("wallet service HTTP %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("wallet service HTTP %d", e.StatusCode)
}

// Is implements the errors.Is interface for HTTP status code mapping.
func (e *HTTPError) Is(target error) bool {
	switch e.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return errors.Is(target, ErrUnauthorized)
	case http.StatusServiceUnavailable:
		return errors.Is(target, ErrServiceUnavailable)
	default:
		return false
	}
}

// parseError converts an HTTP error response into a typed error. The
// service emits JSON-RPC envelopes even for some transport failures, so
// try that shape first and fall back to the raw body.
func parseError(statusCode int, body []byte) error {
	var envelope rpcResponse
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error != nil {
		return envelope.Error
	}
	return &HTTPError{StatusCode: statusCode, Body: string(body)}
}

// IsServiceError reports whether err is a wallet service RPC error.
func IsServiceError(err error) bool {
	var e *Error
	return errors.As(err, &e)
}
