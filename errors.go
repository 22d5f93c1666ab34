// Package forgekit implements the cooperative task runtime, resource tracker,
// and Hailstorm binary package writer that together form the core concurrency
// and resource subsystem of the toolkit.
package forgekit

import (
	"errors"
	"fmt"
	"syscall"
)

// Error is a structured error carrying the operation that failed, a high-level
// category, and an optional wrapped cause.
type Error struct {
	Op    string    // operation that failed, e.g. "Tracker.LoadResource"
	Code  ErrorCode // high-level error category
	Errno syscall.Errno
	Msg   string
	Inner error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = string(e.Code)
	}
	if e.Op != "" {
		return fmt.Sprintf("forgekit: %s: %s", e.Op, msg)
	}
	return fmt.Sprintf("forgekit: %s", msg)
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Inner
}

// Is compares by error code so sentinel comparisons work across wrapping.
func (e *Error) Is(target error) bool {
	if target == nil {
		return false
	}
	if te, ok := target.(*Error); ok {
		return e.Code == te.Code
	}
	return false
}

// ErrorCode is a high-level error category. The set is drawn from the
// platform/config/resource error kinds of the underlying task runtime and
// resource tracker.
type ErrorCode string

const (
	CodePlatformAlreadyInitialized   ErrorCode = "platform already initialized"
	CodePlatformFeatureNotAvailable  ErrorCode = "platform feature not available"
	CodeInvalidArgument              ErrorCode = "invalid argument"
	CodeResourceLoadNeeded           ErrorCode = "resource load needed"
	CodeFailedToFindValidProvider    ErrorCode = "failed to find valid resource provider"
	CodeFailedToFindValidWriter      ErrorCode = "failed to find valid resource writer"
	CodeResourceNotFound             ErrorCode = "resource not found"
	CodeResourceInvalid              ErrorCode = "resource invalid"
	CodeConfigKeyNotFound            ErrorCode = "config key not found"
	CodeConfigValueTypeMissmatch     ErrorCode = "config value type missmatch"
	CodeConfigIndexOutOfBounds       ErrorCode = "config index out of bounds"
	CodeConfigIsInvalid              ErrorCode = "config is invalid"
	CodeIOError                      ErrorCode = "I/O error"
	CodeTimeout                      ErrorCode = "timeout"
	CodeFail                         ErrorCode = "fail"
)

// NewError creates a new structured error.
func NewError(op string, code ErrorCode, msg string) *Error {
	return &Error{Op: op, Code: code, Msg: msg}
}

// NewErrorWithErrno creates a new structured error carrying a kernel errno.
func NewErrorWithErrno(op string, code ErrorCode, errno syscall.Errno) *Error {
	return &Error{Op: op, Code: code, Errno: errno, Msg: errno.Error()}
}

// WrapError wraps an existing error with forgekit context, preserving code
// and errno when the inner error is already structured.
func WrapError(op string, inner error) *Error {
	if inner == nil {
		return nil
	}

	if fe, ok := inner.(*Error); ok {
		return &Error{Op: op, Code: fe.Code, Errno: fe.Errno, Msg: fe.Msg, Inner: fe.Inner}
	}

	if errno, ok := inner.(syscall.Errno); ok {
		return &Error{Op: op, Code: mapErrnoToCode(errno), Errno: errno, Msg: errno.Error(), Inner: inner}
	}

	return &Error{Op: op, Code: CodeIOError, Msg: inner.Error(), Inner: inner}
}

func mapErrnoToCode(errno syscall.Errno) ErrorCode {
	switch errno {
	case syscall.ENOENT:
		return CodeResourceNotFound
	case syscall.EINVAL, syscall.E2BIG:
		return CodeInvalidArgument
	case syscall.ENOSYS, syscall.EOPNOTSUPP:
		return CodePlatformFeatureNotAvailable
	case syscall.ETIMEDOUT:
		return CodeTimeout
	default:
		return CodeIOError
	}
}

// IsCode checks whether err (or anything it wraps) is a *Error with the given code.
func IsCode(err error, code ErrorCode) bool {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Code == code
	}
	return false
}
