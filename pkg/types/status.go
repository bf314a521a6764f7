package types

import (
	"errors"
	"fmt"
)

// ErrorCode is the result category of a robot call.
type ErrorCode int32

const (
	ErrorCodeOK              ErrorCode = 0
	ErrorCodeServiceNotReady ErrorCode = 1
	ErrorCodeTimeout         ErrorCode = 2
	ErrorCodeInternalError   ErrorCode = 3
	ErrorCodeServiceError    ErrorCode = 4
)

var errorCodeNames = enumTable[ErrorCode]{
	ErrorCodeOK:              "OK",
	ErrorCodeServiceNotReady: "SERVICE_NOT_READY",
	ErrorCodeTimeout:         "TIMEOUT",
	ErrorCodeInternalError:   "INTERNAL_ERROR",
	ErrorCodeServiceError:    "SERVICE_ERROR",
}

func (c ErrorCode) String() string { return errorCodeNames.name(c) }

// ParseErrorCode parses a code name such as "TIMEOUT".
func ParseErrorCode(s string) (ErrorCode, error) { return errorCodeNames.parse("error code", s) }

// Status is returned by every mutating robot call.
type Status struct {
	Code    ErrorCode `json:"code" yaml:"code"`
	Message string    `json:"message" yaml:"message"`
}

// OK reports whether the call succeeded.
func (s Status) OK() bool { return s.Code == ErrorCodeOK }

// StatusOK is the success status.
func StatusOK() Status { return Status{Code: ErrorCodeOK} }

// NewStatus builds a status from a code and message.
func NewStatus(code ErrorCode, message string) Status {
	return Status{Code: code, Message: message}
}

// Err returns nil for OK, otherwise the status as a *StatusError.
func (s Status) Err() error {
	if s.OK() {
		return nil
	}
	return &StatusError{Code: s.Code, Message: s.Message}
}

// StatusError is a non-OK Status carried as an error.
type StatusError struct {
	Code    ErrorCode
	Message string
}

// Errorf builds a *StatusError with a formatted message.
func Errorf(code ErrorCode, format string, args ...interface{}) error {
	return &StatusError{Code: code, Message: fmt.Sprintf(format, args...)}
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return e.Code.String()
	}
	return e.Code.String() + ": " + e.Message
}

// Is matches any *StatusError with the same code.
func (e *StatusError) Is(target error) bool {
	t, ok := target.(*StatusError)
	return ok && t.Code == e.Code
}

// Status converts the error back into a Status.
func (e *StatusError) Status() Status {
	return Status{Code: e.Code, Message: e.Message}
}

// StatusOf maps err to a Status: nil is OK, a *StatusError keeps its code,
// anything else is INTERNAL_ERROR.
func StatusOf(err error) Status {
	if err == nil {
		return StatusOK()
	}
	var se *StatusError
	if errors.As(err, &se) {
		return Status{Code: se.Code, Message: se.Message}
	}
	return Status{Code: ErrorCodeInternalError, Message: err.Error()}
}
