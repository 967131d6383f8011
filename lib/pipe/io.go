// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package pipe

import (
	"errors"
	"io"
	"slices"

	metrics "github.com/hashicorp/go-metrics/compat"
)

// ChunkSize is the read size used by ReadAll and the buffer size of streams
// returned by AsStream. It is the same on every platform.
const ChunkSize = 4096

var (
	_ io.ReadWriteCloser = (*End)(nil)
)

// readOnce performs a single bounded read. The result is data (n > 0),
// io.EOF, a *wouldBlockError, or an OS error.
func readOnce(h handle, p []byte, nonblocking bool) (int, error) {
	n, err := readHandle(h, p, nonblocking)
	if n > 0 {
		metrics.IncrCounter([]string{"pipe", "bytes_read"}, float32(n))
	}
	var wb *wouldBlockError
	if errors.As(err, &wb) {
		metrics.IncrCounter([]string{"pipe", "would_block"}, 1)
	}
	return n, err
}

// writeFull writes p until it is exhausted or the OS stops accepting bytes.
func writeFull(h handle, p []byte, nonblocking bool) (int, error) {
	var written int
	for written < len(p) {
		n, err := writeHandle(h, p[written:], nonblocking)
		if n > 0 {
			written += n
			metrics.IncrCounter([]string{"pipe", "bytes_written"}, float32(n))
		}
		if err != nil {
			var wb *wouldBlockError
			if errors.As(err, &wb) {
				metrics.IncrCounter([]string{"pipe", "would_block"}, 1)
			}
			return written, err
		}
		if n == 0 {
			// no progress and no error; report it rather than spin
			return written, &wouldBlockError{}
		}
	}
	return written, nil
}

// ReadExact issues one read for up to n bytes and returns what was
// available, which may be fewer than n. It does not retry short reads.
//
// At end-of-stream it returns io.EOF. A non-blocking End with no data
// returns ErrWouldBlock.
func (e *End) ReadExact(n int) ([]byte, error) {
	if n < 0 {
		return nil, newError(KindInvalidArgument, "read", errors.New("negative byte count"))
	}
	h, nonblocking, err := e.readable("read")
	if err != nil {
		return nil, err
	}
	defer e.release()
	if n == 0 {
		return []byte{}, nil
	}

	buf := make([]byte, n)
	got, err := readOnce(h, buf, nonblocking)
	if err != nil {
		return nil, classify("read", err)
	}
	return buf[:got], nil
}

// ReadLine reads up to and including the next line feed. If chop is true the
// line feed is left out of the result.
//
// Bytes are read one at a time so nothing after the line feed is consumed.
// At end-of-stream the partial line is returned with a nil error, or io.EOF
// if there was nothing left. If a non-blocking End runs dry mid-line the
// bytes read so far are returned together with ErrWouldBlock; they have been
// consumed from the pipe and the caller must keep them.
func (e *End) ReadLine(chop bool) ([]byte, error) {
	h, nonblocking, err := e.readable("read_line")
	if err != nil {
		return nil, err
	}
	defer e.release()

	line := make([]byte, 0, 128)
	var c [1]byte
	for {
		_, err := readOnce(h, c[:], nonblocking)
		switch {
		case err == io.EOF:
			if len(line) == 0 {
				return nil, io.EOF
			}
			return line, nil
		case err != nil:
			if len(line) == 0 {
				return nil, classify("read_line", err)
			}
			return line, classify("read_line", err)
		}

		if c[0] == '\n' {
			if !chop {
				line = append(line, '\n')
			}
			return line, nil
		}
		line = append(line, c[0])
	}
}

// ReadAll reads ChunkSize bytes at a time until a read comes back short,
// which means the writer closed or the pipe has no more buffered data, and
// returns everything read.
//
// If nothing was read, io.EOF or ErrWouldBlock tells the two cases apart. A
// would-block after some data has been read is not an error.
func (e *End) ReadAll() ([]byte, error) {
	h, nonblocking, err := e.readable("read_all")
	if err != nil {
		return nil, err
	}
	defer e.release()

	buf := make([]byte, 0, ChunkSize)
	for {
		buf = slices.Grow(buf, ChunkSize)
		n, err := readOnce(h, buf[len(buf):len(buf)+ChunkSize], nonblocking)
		buf = buf[:len(buf)+n]

		var wb *wouldBlockError
		switch {
		case err == io.EOF, errors.As(err, &wb):
			if len(buf) == 0 {
				return nil, classify("read_all", err)
			}
			return buf, nil
		case err != nil:
			if len(buf) == 0 {
				return nil, classify("read_all", err)
			}
			return buf, classify("read_all", err)
		}

		if n < ChunkSize {
			return buf, nil
		}
	}
}

// ReadFormat reads according to f. See ParseFormat.
func (e *End) ReadFormat(f Format) ([]byte, error) {
	switch f.kind {
	case formatExact:
		return e.ReadExact(f.n)
	case formatLine:
		return e.ReadLine(f.chop)
	case formatAll:
		return e.ReadAll()
	default:
		return nil, newError(KindInvalidArgument, "read", errInvalidFormat)
	}
}

// WriteBuffers writes each buffer in full, in order. It returns true only if
// every buffer was written completely.
//
// If a non-blocking End runs out of space it stops and returns false with a
// nil error; some bytes of the current buffer may already have been written.
// Any other failure is returned as an error.
func (e *End) WriteBuffers(bufs ...[]byte) (bool, error) {
	h, nonblocking, err := e.writable("write")
	if err != nil {
		return false, err
	}
	defer e.release()

	for _, b := range bufs {
		if _, err := writeFull(h, b, nonblocking); err != nil {
			var wb *wouldBlockError
			if errors.As(err, &wb) {
				return false, nil
			}
			return false, classify("write", err)
		}
	}
	return true, nil
}

// Write implements io.Writer. On a non-blocking End that runs out of space it
// returns the count written so far and ErrWouldBlock.
func (e *End) Write(p []byte) (int, error) {
	h, nonblocking, err := e.writable("write")
	if err != nil {
		return 0, err
	}
	defer e.release()
	n, err := writeFull(h, p, nonblocking)
	return n, classify("write", err)
}

// Read implements io.Reader with a single read.
func (e *End) Read(p []byte) (int, error) {
	h, nonblocking, err := e.readable("read")
	if err != nil {
		return 0, err
	}
	defer e.release()
	if len(p) == 0 {
		return 0, nil
	}
	n, err := readOnce(h, p, nonblocking)
	return n, classify("read", err)
}
