package client

import (
	"fmt"
)

// ErrorClass represents a classification of page fetch failures.
type ErrorClass string

const (
	// ErrorClassTransport covers connectivity failures and non-success
	// HTTP statuses.
	ErrorClassTransport ErrorClass = "transport"

	// ErrorClassProtocol covers well-formed HTTP responses lacking the
	// expected data shape (bad credential, exhausted quota, malformed
	// payload).
	ErrorClassProtocol ErrorClass = "protocol"
)

// TransportError reports a network or HTTP-status failure on a page
// request. A single TransportError terminates the enclosing pagination run;
// there is no retry.
type TransportError struct {
	StatusCode int // 0 for connection-level failures
	Err        error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("transport error (status %d)", e.StatusCode)
	}
	return fmt.Sprintf("transport error: %v", e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// ProtocolError reports a response that arrived but did not carry the
// expected records container. Typical causes are an invalid API key, an
// exceeded quota, or malformed JSON.
type ProtocolError struct {
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("protocol error: %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("protocol error: %s", e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *ProtocolError) Unwrap() error {
	return e.Err
}

// Classify returns the error class of a fetch error for metrics and
// logging, or "" for nil or foreign errors.
func Classify(err error) ErrorClass {
	switch err.(type) {
	case *TransportError:
		return ErrorClassTransport
	case *ProtocolError:
		return ErrorClassProtocol
	default:
		return ""
	}
}
