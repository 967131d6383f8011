// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package pipe

import (
	"errors"
	"fmt"
	"io"
	"runtime"
	"sync"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
)

// Mode is the direction an End was opened for. It never changes.
type Mode int

const (
	ModeRead Mode = iota + 1
	ModeWrite
	ModeReadWrite
)

func (m Mode) String() string {
	switch m {
	case ModeRead:
		return "r"
	case ModeWrite:
		return "w"
	case ModeReadWrite:
		return "r+"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

func (m Mode) valid() bool {
	return m >= ModeRead && m <= ModeReadWrite
}

// CanRead reports whether reads are permitted in this mode.
func (m Mode) CanRead() bool {
	return m == ModeRead || m == ModeReadWrite
}

// CanWrite reports whether writes are permitted in this mode.
func (m Mode) CanWrite() bool {
	return m == ModeWrite || m == ModeReadWrite
}

var (
	errNotReadable = errors.New("end is not open for reading")
	errNotWritable = errors.New("end is not open for writing")
	errNotPipe     = errors.New("handle is not a pipe")
)

// wouldBlockError marks a platform result meaning "no data or space right
// now". err is the OS error behind it, if there was one.
type wouldBlockError struct {
	err error
}

func (w *wouldBlockError) Error() string {
	if w.err == nil {
		return "operation would block"
	}
	return w.err.Error()
}

func (w *wouldBlockError) Unwrap() error {
	return w.err
}

// classify maps a platform error onto the package taxonomy. io.EOF is passed
// through untouched.
func classify(op string, err error) error {
	var wb *wouldBlockError
	var pe *Error
	switch {
	case err == nil:
		return nil
	case errors.As(err, &pe):
		return pe
	case err == io.EOF:
		return io.EOF
	case errors.As(err, &wb):
		return newError(KindWouldBlock, op, wb.err)
	case errors.Is(err, errNotPipe):
		return newError(KindUnsupported, op, err)
	case errors.Is(err, errNotReadable), errors.Is(err, errNotWritable):
		return newError(KindBadDescriptor, op, err)
	case isBadDescriptor(err):
		return newError(KindBadDescriptor, op, err)
	default:
		return newError(KindIO, op, err)
	}
}

// descriptorPair holds the two handles produced by a single pipe creation:
// index 0 is the read end, index 1 the write end.
type descriptorPair [2]handle

// End is one side of an anonymous pipe. It owns its handle exclusively.
type End struct {
	mode   Mode
	logger hclog.Logger

	lock        sync.Mutex
	h           handle
	nonblocking bool
	closed      bool

	// refs counts operations using h outside the lock. While it is non-zero
	// a Close only marks the End closed and the last release closes h.
	refs         int
	closePending bool
}

// Create allocates a new pipe and returns its read and write ends. Both ends
// are non-inheritable. If cfg is nil DefaultConfig is used.
//
// On failure no handle is leaked.
func Create(cfg *Config) (r, w *End, err error) {
	logger := cfg.logger().Named("pipe")

	pair, err := newPipe()
	if err != nil {
		return nil, nil, newError(KindCreationFailed, "create", err)
	}

	r = newEnd(pair[0], ModeRead, logger)
	w = newEnd(pair[1], ModeWrite, logger)

	if cfg != nil {
		if err = setInitialMode(r, w, cfg); err != nil {
			var mErr *multierror.Error
			mErr = multierror.Append(mErr, err)
			if cerr := r.Close(); cerr != nil {
				mErr = multierror.Append(mErr, cerr)
			}
			if cerr := w.Close(); cerr != nil {
				mErr = multierror.Append(mErr, cerr)
			}
			return nil, nil, newError(KindCreationFailed, "create", mErr.ErrorOrNil())
		}
	}

	logger.Trace("created pipe", "read", pair[0], "write", pair[1],
		"read_nonblocking", r.nonblocking, "write_nonblocking", w.nonblocking)
	return r, w, nil
}

func setInitialMode(r, w *End, cfg *Config) error {
	if cfg.ReadNonblocking {
		if err := r.SetNonblocking(true); err != nil {
			return err
		}
	}
	if cfg.WriteNonblocking {
		if err := w.SetNonblocking(true); err != nil {
			return err
		}
	}
	return nil
}

// NewEnd adopts a raw OS handle, such as a descriptor inherited from a parent
// process. Ownership passes to the returned End; the handle must not be used
// or closed elsewhere afterwards.
func NewEnd(h uintptr, mode Mode, logger hclog.Logger) (*End, error) {
	if !mode.valid() {
		return nil, newError(KindInvalidArgument, "new_end", fmt.Errorf("invalid mode %v", mode))
	}
	raw := toHandle(h)
	if raw == invalidHandle {
		return nil, newError(KindBadDescriptor, "new_end", nil)
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	e := newEnd(raw, mode, logger.Named("pipe"))

	// Seed the cache; a handle the OS rejects is reported here rather than
	// on first use.
	if _, err := e.Nonblocking(); err != nil && !errors.Is(err, ErrUnsupported) {
		e.disown()
		return nil, err
	}
	return e, nil
}

func newEnd(h handle, mode Mode, logger hclog.Logger) *End {
	e := &End{
		mode:   mode,
		logger: logger,
		h:      h,
	}
	runtime.SetFinalizer(e, (*End).finalize)
	return e
}

// disown forgets the handle without closing it.
func (e *End) disown() {
	e.lock.Lock()
	defer e.lock.Unlock()
	e.closed = true
	e.h = invalidHandle
	runtime.SetFinalizer(e, nil)
}

// finalize is the safety net for ends that were never closed. There is no
// caller to report to, so failures are only logged.
func (e *End) finalize() {
	if err := e.Close(); err != nil {
		e.logger.Warn("failed to close unreferenced pipe end", "mode", e.mode, "error", err)
		return
	}
	e.logger.Trace("closed unreferenced pipe end", "mode", e.mode)
}

// Mode returns the direction the End was opened for.
func (e *End) Mode() Mode {
	return e.mode
}

// Closed reports whether Close has succeeded on this End.
func (e *End) Closed() bool {
	e.lock.Lock()
	defer e.lock.Unlock()
	return e.closed
}

func (e *End) String() string {
	e.lock.Lock()
	defer e.lock.Unlock()
	if e.closed {
		return fmt.Sprintf("pipe(%s, closed)", e.mode)
	}
	return fmt.Sprintf("pipe(%s, %v)", e.mode, e.h)
}

// Close releases the handle. Closing an already closed End is a no-op that
// returns nil. If the OS close fails the End stays open so Close can be
// retried.
//
// If another goroutine is still reading or writing, the End is marked closed
// at once and the handle is released when that operation returns. A failure
// of that deferred close is logged.
func (e *End) Close() error {
	e.lock.Lock()
	defer e.lock.Unlock()

	if e.closed {
		return nil
	}
	if e.refs > 0 {
		e.closed = true
		e.closePending = true
		runtime.SetFinalizer(e, nil)
		e.logger.Trace("deferring close until in-flight operation returns", "mode", e.mode)
		return nil
	}
	if err := closeHandle(e.h); err != nil {
		return classify("close", err)
	}

	e.closed = true
	e.h = invalidHandle
	runtime.SetFinalizer(e, nil)
	return nil
}

// acquire returns the handle and cached mode for an operation, or
// ErrBadDescriptor if the End is closed. On success the caller holds a
// reference and must call release when it no longer uses the handle.
func (e *End) acquire(op string) (handle, bool, error) {
	e.lock.Lock()
	defer e.lock.Unlock()
	if e.closed {
		return invalidHandle, false, newError(KindBadDescriptor, op, nil)
	}
	e.refs++
	return e.h, e.nonblocking, nil
}

// release drops a reference taken by acquire. It also keeps e reachable
// until the operation is done, so the finalizer cannot run underneath it.
func (e *End) release() {
	e.lock.Lock()
	defer e.lock.Unlock()

	e.refs--
	if e.refs > 0 || !e.closePending {
		return
	}
	e.closePending = false
	if err := closeHandle(e.h); err != nil {
		e.logger.Warn("failed to close pipe end", "mode", e.mode, "error", err)
	}
	e.h = invalidHandle
}

func (e *End) readable(op string) (handle, bool, error) {
	if !e.mode.CanRead() {
		return invalidHandle, false, classify(op, errNotReadable)
	}
	return e.acquire(op)
}

func (e *End) writable(op string) (handle, bool, error) {
	if !e.mode.CanWrite() {
		return invalidHandle, false, classify(op, errNotWritable)
	}
	return e.acquire(op)
}

// Nonblocking queries the OS for the current mode of the End and refreshes
// the cached value. On Windows a handle that is not a pipe reports false.
func (e *End) Nonblocking() (bool, error) {
	e.lock.Lock()
	defer e.lock.Unlock()

	if e.closed {
		return false, newError(KindBadDescriptor, "nonblocking", nil)
	}
	nb, err := getNonblocking(e.h)
	if err != nil {
		return false, classify("nonblocking", err)
	}
	e.nonblocking = nb
	return nb, nil
}

// SetNonblocking switches the End between blocking and non-blocking mode. If
// the OS already reports the desired mode no change is issued.
func (e *End) SetNonblocking(nonblocking bool) error {
	e.lock.Lock()
	defer e.lock.Unlock()

	if e.closed {
		return newError(KindBadDescriptor, "set_nonblocking", nil)
	}
	if err := checkModeSupported(e.h); err != nil {
		return classify("set_nonblocking", err)
	}

	current, err := getNonblocking(e.h)
	if err != nil {
		return classify("set_nonblocking", err)
	}
	if current == nonblocking {
		e.nonblocking = current
		return nil
	}

	if err := setNonblocking(e.h, nonblocking); err != nil {
		return classify("set_nonblocking", err)
	}
	e.nonblocking = nonblocking
	e.logger.Trace("changed pipe mode", "mode", e.mode, "nonblocking", nonblocking)
	return nil
}

// Inheritable reports whether the handle would be inherited by child
// processes. Ends returned by Create are never inheritable.
func (e *End) Inheritable() (bool, error) {
	h, _, err := e.acquire("inheritable")
	if err != nil {
		return false, err
	}
	defer e.release()
	inherit, err := isInheritable(h)
	if err != nil {
		return false, classify("inheritable", err)
	}
	return inherit, nil
}

// Capacity returns the size in bytes of the kernel buffer behind the End.
// It is not available on every platform; see ErrUnsupported.
func (e *End) Capacity() (int, error) {
	h, _, err := e.acquire("capacity")
	if err != nil {
		return 0, err
	}
	defer e.release()
	n, err := capacity(h, e.mode)
	if err != nil {
		return 0, classify("capacity", err)
	}
	return n, nil
}
