package thread

import (
	"errors"
	"fmt"
)

// Error is a stack error code. It implements error so stack operations can
// return it directly; nil means success.
type Error uint8

// Stack error codes. Values follow the stack's numbering.
const (
	ErrorFailed          Error = 1
	ErrorDrop            Error = 2
	ErrorNoBufs          Error = 3
	ErrorNoRoute         Error = 4
	ErrorBusy            Error = 5
	ErrorParse           Error = 6
	ErrorInvalidArgs     Error = 7
	ErrorSecurity        Error = 8
	ErrorAbort           Error = 11
	ErrorNotImplemented  Error = 12
	ErrorInvalidState    Error = 13
	ErrorNoAck           Error = 14
	ErrorDetached        Error = 16
	ErrorNotFound        Error = 23
	ErrorAlready         Error = 24
	ErrorResponseTimeout Error = 28
)

// Error implements error.
func (e Error) Error() string {
	return "thread: " + e.String()
}

// String returns the stack's name for the code.
func (e Error) String() string {
	switch e {
	case 0:
		return "OK"
	case ErrorFailed:
		return "Failed"
	case ErrorDrop:
		return "Drop"
	case ErrorNoBufs:
		return "NoBufs"
	case ErrorNoRoute:
		return "NoRoute"
	case ErrorBusy:
		return "Busy"
	case ErrorParse:
		return "Parse"
	case ErrorInvalidArgs:
		return "InvalidArgs"
	case ErrorSecurity:
		return "Security"
	case ErrorAbort:
		return "Abort"
	case ErrorNotImplemented:
		return "NotImplemented"
	case ErrorInvalidState:
		return "InvalidState"
	case ErrorNoAck:
		return "NoAck"
	case ErrorDetached:
		return "Detached"
	case ErrorNotFound:
		return "NotFound"
	case ErrorAlready:
		return "Already"
	case ErrorResponseTimeout:
		return "ResponseTimeout"
	default:
		return fmt.Sprintf("Error(%d)", uint8(e))
	}
}

// ErrorString renders err the way the stack prints results: "OK" for nil,
// the code name for stack errors, and the plain message otherwise.
func ErrorString(err error) string {
	if err == nil {
		return "OK"
	}
	var te Error
	if errors.As(err, &te) {
		return te.String()
	}
	return err.Error()
}

// IsAlready reports whether err is the stack's "already" condition, which the
// base station treats as benign when repeating an idempotent start.
func IsAlready(err error) bool {
	return errors.Is(err, ErrorAlready)
}
