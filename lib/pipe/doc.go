// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package pipe provides anonymous pipes with one behavior over POSIX file
// descriptors and Windows handles.
//
// Create returns a connected read End and write End. Both are non-inheritable
// by child processes from the moment Create returns. Each End can be switched
// between blocking and non-blocking mode at any time; a non-blocking End never
// suspends the caller and reports ErrWouldBlock instead, which is always
// distinguishable from a real I/O failure or from io.EOF.
//
// Operations are synchronous. An End serializes access to its own state but
// not to the byte stream: concurrent writers on the same End interleave in an
// undefined order, and coordinating them is the caller's job. There is no
// timeout or cancellation; bounded waits are built by polling a non-blocking
// End with a backoff.
//
// Closing an End twice is a no-op. Every other operation on a closed End fails
// with ErrBadDescriptor.
package pipe
