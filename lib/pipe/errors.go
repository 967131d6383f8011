// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package pipe

import (
	"errors"
	"fmt"
	"syscall"
)

// Kind classifies an Error.
type Kind int

const (
	KindIO Kind = iota
	KindCreationFailed
	KindBadDescriptor
	KindUnsupported
	KindWouldBlock
	KindInvalidArgument
)

func (k Kind) String() string {
	switch k {
	case KindCreationFailed:
		return "creation failed"
	case KindBadDescriptor:
		return "bad descriptor"
	case KindUnsupported:
		return "unsupported"
	case KindWouldBlock:
		return "would block"
	case KindInvalidArgument:
		return "invalid argument"
	default:
		return "i/o error"
	}
}

var (
	// ErrCreationFailed matches errors returned when the OS could not
	// allocate a pipe.
	ErrCreationFailed = &Error{Kind: KindCreationFailed}

	// ErrBadDescriptor matches errors from operations on a closed end, or on
	// an end whose mode does not permit the operation.
	ErrBadDescriptor = &Error{Kind: KindBadDescriptor}

	// ErrUnsupported matches errors from mode operations on handles that are
	// not pipes, on platforms where the mode is a pipe property.
	ErrUnsupported = &Error{Kind: KindUnsupported}

	// ErrWouldBlock matches the control-flow signal returned by a
	// non-blocking end that has no data or space right now. It is never
	// reported as ErrIO.
	ErrWouldBlock = &Error{Kind: KindWouldBlock}

	// ErrIO matches failures of the underlying read, write, close or dup.
	ErrIO = &Error{Kind: KindIO}

	// ErrInvalidArgument matches bad arguments such as an unknown read
	// format or a negative byte count.
	ErrInvalidArgument = &Error{Kind: KindInvalidArgument}
)

// Error is the error type returned by every fallible operation in this
// package. Use errors.Is against the Err* sentinels to test the Kind.
type Error struct {
	Kind Kind

	// Op is the operation that failed, e.g. "read" or "set_nonblocking".
	Op string

	// Err is the underlying OS error, if any.
	Err error
}

func newError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func (e *Error) Error() string {
	switch {
	case e.Op == "" && e.Err == nil:
		return "pipe: " + e.Kind.String()
	case e.Err == nil:
		return fmt.Sprintf("pipe %s: %s", e.Op, e.Kind)
	case e.Op == "":
		return fmt.Sprintf("pipe: %s: %v", e.Kind, e.Err)
	default:
		return fmt.Sprintf("pipe %s: %s: %v", e.Op, e.Kind, e.Err)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same Kind. This lets the
// package sentinels match any error of their kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Code returns the platform error code (errno on POSIX, the Win32 error on
// Windows) carried by the error, or 0 if there is none.
func (e *Error) Code() int {
	var errno syscall.Errno
	if errors.As(e.Err, &errno) {
		return int(errno)
	}
	return 0
}

// IsWouldBlock reports whether err is a would-block signal.
func IsWouldBlock(err error) bool {
	return errors.Is(err, ErrWouldBlock)
}
