// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package pipe

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/hashicorp/go-multierror"
)

// Stream is a buffered byte stream over a duplicate of an End's handle. It
// is independent of the End: closing either leaves the other usable.
//
// On POSIX the non-blocking flag belongs to the open file description that
// both handles share, so SetNonblocking on the End is visible through the
// Stream. If the End was already non-blocking when AsStream ran, the Go
// runtime poller waits for readiness and the Stream blocks. If the End is
// switched afterwards, Stream reads and writes fail with ErrWouldBlock like
// the End's own do. A bufio.Writer keeps the first error it sees, so after a
// would-block write the Stream only reports that error.
type Stream struct {
	file *os.File
	mode Mode

	r *bufio.Reader
	w *bufio.Writer

	closeOnce sync.Once
	closeErr  error
}

// AsStream duplicates the End's handle and wraps the copy in a buffered
// stream. The caller owns the Stream and must close it.
func (e *End) AsStream() (*Stream, error) {
	e.lock.Lock()
	defer e.lock.Unlock()

	if e.closed {
		return nil, newError(KindBadDescriptor, "as_stream", nil)
	}

	dup, err := dupHandle(e.h)
	if err != nil {
		return nil, classify("as_stream", err)
	}

	s := &Stream{
		file: os.NewFile(dup, fmt.Sprintf("|%s", e.mode)),
		mode: e.mode,
	}
	if e.mode.CanRead() {
		s.r = bufio.NewReaderSize(streamFile{s.file}, ChunkSize)
	}
	if e.mode.CanWrite() {
		s.w = bufio.NewWriterSize(streamFile{s.file}, ChunkSize)
	}

	e.logger.Trace("duplicated pipe end as stream", "mode", e.mode, "name", s.file.Name())
	return s, nil
}

// streamFile classifies errors from the duplicate handle before the bufio
// layers see them.
type streamFile struct {
	f *os.File
}

func (sf streamFile) Read(p []byte) (int, error) {
	n, err := sf.f.Read(p)
	return n, streamError("read", err)
}

func (sf streamFile) Write(p []byte) (int, error) {
	n, err := sf.f.Write(p)
	return n, streamError("write", err)
}

func streamError(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case err == io.EOF:
		return io.EOF
	case isStreamWouldBlock(op, err):
		return newError(KindWouldBlock, op, err)
	default:
		return classify(op, err)
	}
}

// File returns the underlying file. Writes made directly to it bypass the
// Stream's buffer.
func (s *Stream) File() *os.File {
	return s.file
}

// Mode returns the direction inherited from the End.
func (s *Stream) Mode() Mode {
	return s.mode
}

// Reader returns the buffered reader, or nil for a write-only stream.
func (s *Stream) Reader() *bufio.Reader {
	return s.r
}

// Writer returns the buffered writer, or nil for a read-only stream.
func (s *Stream) Writer() *bufio.Writer {
	return s.w
}

func (s *Stream) Read(p []byte) (int, error) {
	if s.r == nil {
		return 0, newError(KindBadDescriptor, "read", errNotReadable)
	}
	return s.r.Read(p)
}

// ReadString reads until the first occurrence of delim, like
// bufio.Reader.ReadString.
func (s *Stream) ReadString(delim byte) (string, error) {
	if s.r == nil {
		return "", newError(KindBadDescriptor, "read", errNotReadable)
	}
	return s.r.ReadString(delim)
}

func (s *Stream) Write(p []byte) (int, error) {
	if s.w == nil {
		return 0, newError(KindBadDescriptor, "write", errNotWritable)
	}
	return s.w.Write(p)
}

// Flush writes any buffered data to the pipe.
func (s *Stream) Flush() error {
	if s.w == nil {
		return nil
	}
	return s.w.Flush()
}

// Close flushes buffered writes and closes the duplicate handle. It is safe
// to call more than once; later calls return the first result.
func (s *Stream) Close() error {
	s.closeOnce.Do(func() {
		var mErr *multierror.Error
		if s.w != nil {
			if err := s.w.Flush(); err != nil {
				mErr = multierror.Append(mErr, fmt.Errorf("failed to flush stream: %w", err))
			}
		}
		if err := s.file.Close(); err != nil {
			mErr = multierror.Append(mErr, fmt.Errorf("failed to close stream: %w", err))
		}
		s.closeErr = mErr.ErrorOrNil()
	})
	return s.closeErr
}
