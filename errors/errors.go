package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType represents the category of error
type ErrorType int

const (
	ErrorNone ErrorType = iota
	ErrorTransport
	ErrorProtocol
	ErrorInvalidArgument
	ErrorMemory
)

func (t ErrorType) String() string {
	switch t {
	case ErrorNone:
		return "none"
	case ErrorTransport:
		return "transport"
	case ErrorProtocol:
		return "protocol"
	case ErrorInvalidArgument:
		return "invalid argument"
	case ErrorMemory:
		return "memory"
	default:
		return fmt.Sprintf("unknown(%d)", int(t))
	}
}

// TransportError represents transport-layer specific errors
type TransportError int

const (
	TransportErrorNone TransportError = iota
	TransportErrorSocketCreateFailure
	TransportErrorSocketConnectFailure
	TransportErrorSocketReadFailure
	TransportErrorSocketWriteFailure
	TransportErrorConnectionClosed
	TransportErrorDnsFailure
	TransportErrorTlsFailure
	TransportErrorIoUringInit
	TransportErrorIoUringSubmit
)

func (e TransportError) String() string {
	switch e {
	case TransportErrorNone:
		return "none"
	case TransportErrorSocketCreateFailure:
		return "socket creation failed"
	case TransportErrorSocketConnectFailure:
		return "socket connection failed"
	case TransportErrorSocketReadFailure:
		return "socket read failed"
	case TransportErrorSocketWriteFailure:
		return "socket write failed"
	case TransportErrorConnectionClosed:
		return "connection closed"
	case TransportErrorDnsFailure:
		return "DNS lookup failed"
	case TransportErrorTlsFailure:
		return "TLS negotiation failed"
	case TransportErrorIoUringInit:
		return "io_uring initialization failed"
	case TransportErrorIoUringSubmit:
		return "io_uring submission failed"
	default:
		return fmt.Sprintf("unknown transport error %d", int(e))
	}
}

// ProtocolError represents protocol-layer specific errors
type ProtocolError int

const (
	ProtocolErrorNone ProtocolError = iota
	ProtocolErrorInvalidStatusLine
	ProtocolErrorInvalidHeader
	ProtocolErrorInvalidChunkedEncoding
	ProtocolErrorMessageTooLarge
	ProtocolErrorInvalidRequest
)

func (e ProtocolError) String() string {
	switch e {
	case ProtocolErrorNone:
		return "none"
	case ProtocolErrorInvalidStatusLine:
		return "invalid status line"
	case ProtocolErrorInvalidHeader:
		return "invalid header"
	case ProtocolErrorInvalidChunkedEncoding:
		return "invalid chunked encoding"
	case ProtocolErrorMessageTooLarge:
		return "message too large"
	case ProtocolErrorInvalidRequest:
		return "invalid request"
	default:
		return fmt.Sprintf("unknown protocol error %d", int(e))
	}
}

// HttpError is the main error type for the HTTP client
type HttpError struct {
	Type          ErrorType
	TransportErr  TransportError
	ProtocolErr   ProtocolError
	Message       string
	UnderlyingErr error
}

// Error implements the error interface
func (e *HttpError) Error() string {
	if e == nil {
		return "no error"
	}

	var typeStr string
	switch e.Type {
	case ErrorTransport:
		typeStr = fmt.Sprintf("Transport error (%s)", e.TransportErr)
	case ErrorProtocol:
		typeStr = fmt.Sprintf("Protocol error (%s)", e.ProtocolErr)
	case ErrorInvalidArgument:
		typeStr = "Invalid argument"
	case ErrorMemory:
		typeStr = "Memory error"
	default:
		typeStr = "Unknown error"
	}

	if e.Message != "" {
		typeStr = fmt.Sprintf("%s: %s", typeStr, e.Message)
	}

	if e.UnderlyingErr != nil {
		return fmt.Sprintf("%s (caused by: %v)", typeStr, e.UnderlyingErr)
	}

	return typeStr
}

// Unwrap returns the underlying error for error chain support
func (e *HttpError) Unwrap() error {
	return e.UnderlyingErr
}

// NewTransportError creates a new transport error
func NewTransportError(err TransportError, message string, underlying error) *HttpError {
	return &HttpError{
		Type:          ErrorTransport,
		TransportErr:  err,
		Message:       message,
		UnderlyingErr: underlying,
	}
}

// NewProtocolError creates a new protocol error
func NewProtocolError(err ProtocolError, message string) *HttpError {
	return &HttpError{
		Type:        ErrorProtocol,
		ProtocolErr: err,
		Message:     message,
	}
}

// NewInvalidArgumentError creates a new invalid argument error
func NewInvalidArgumentError(message string) *HttpError {
	return &HttpError{
		Type:    ErrorInvalidArgument,
		Message: message,
	}
}

// NewMemoryError creates an error for an allocation that was refused
func NewMemoryError(message string) *HttpError {
	return &HttpError{
		Type:    ErrorMemory,
		Message: message,
	}
}

// IsTransport reports whether err carries the given transport error kind.
func IsTransport(err error, kind TransportError) bool {
	var he *HttpError
	return stderrors.As(err, &he) && he.Type == ErrorTransport && he.TransportErr == kind
}

// IsProtocol reports whether err carries the given protocol error kind.
func IsProtocol(err error, kind ProtocolError) bool {
	var he *HttpError
	return stderrors.As(err, &he) && he.Type == ErrorProtocol && he.ProtocolErr == kind
}

// TypeOf returns the category of err, or ErrorNone if err is not an *HttpError.
func TypeOf(err error) ErrorType {
	var he *HttpError
	if stderrors.As(err, &he) {
		return he.Type
	}
	return ErrorNone
}

// Unwrap returns the error wrapped by err, if any.
func Unwrap(err error) error {
	return stderrors.Unwrap(err)
}
