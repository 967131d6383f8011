// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

//go:build linux || darwin || freebsd || netbsd || openbsd

package pipe

import (
	"errors"
	"io"
	"os"
	"syscall"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sys/unix"
)

// handle is a POSIX file descriptor.
type handle int

const invalidHandle handle = -1

func toHandle(fd uintptr) handle {
	if int(fd) < 0 {
		return invalidHandle
	}
	return handle(fd)
}

// Seams for fault injection in tests.
var (
	sysPipe        = unix.Pipe
	sysCloseOnExec = closeOnExec
)

func closeOnExec(fd int) error {
	flags, err := unix.FcntlInt(uintptr(fd), unix.F_GETFD, 0)
	if err != nil {
		return err
	}
	if flags&unix.FD_CLOEXEC != 0 {
		return nil
	}
	_, err = unix.FcntlInt(uintptr(fd), unix.F_SETFD, flags|unix.FD_CLOEXEC)
	return err
}

// newPipe creates the pipe and marks both descriptors close-on-exec while
// holding the fork lock, so a concurrent exec cannot inherit them.
func newPipe() (descriptorPair, error) {
	var p [2]int

	syscall.ForkLock.RLock()
	defer syscall.ForkLock.RUnlock()

	if err := sysPipe(p[:]); err != nil {
		return descriptorPair{invalidHandle, invalidHandle}, os.NewSyscallError("pipe", err)
	}

	for _, fd := range p {
		if err := sysCloseOnExec(fd); err != nil {
			var mErr *multierror.Error
			mErr = multierror.Append(mErr, os.NewSyscallError("fcntl", err))
			for _, fd := range p {
				if cerr := unix.Close(fd); cerr != nil {
					mErr = multierror.Append(mErr, os.NewSyscallError("close", cerr))
				}
			}
			return descriptorPair{invalidHandle, invalidHandle}, mErr.ErrorOrNil()
		}
	}

	return descriptorPair{handle(p[0]), handle(p[1])}, nil
}

func closeHandle(h handle) error {
	err := unix.Close(int(h))
	// Linux releases the descriptor even when close is interrupted; retrying
	// could close a descriptor reused by another goroutine.
	if err == nil || err == unix.EINTR {
		return nil
	}
	return os.NewSyscallError("close", err)
}

func isBadDescriptor(err error) bool {
	return errors.Is(err, unix.EBADF)
}

func isAgain(err error) bool {
	return err == unix.EAGAIN || err == unix.EWOULDBLOCK
}

// isStreamWouldBlock matches EAGAIN as reported through an *os.File.
func isStreamWouldBlock(_ string, err error) bool {
	return errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EWOULDBLOCK)
}

func readHandle(h handle, p []byte, _ bool) (int, error) {
	for {
		n, err := unix.Read(int(h), p)
		switch {
		case err == unix.EINTR:
			continue
		case isAgain(err):
			return 0, &wouldBlockError{err: os.NewSyscallError("read", err)}
		case err != nil:
			return 0, os.NewSyscallError("read", err)
		case n == 0 && len(p) > 0:
			return 0, io.EOF
		}
		return n, nil
	}
}

func writeHandle(h handle, p []byte, _ bool) (int, error) {
	for {
		n, err := unix.Write(int(h), p)
		switch {
		case err == unix.EINTR:
			continue
		case isAgain(err):
			return 0, &wouldBlockError{err: os.NewSyscallError("write", err)}
		case err != nil:
			return 0, os.NewSyscallError("write", err)
		}
		return n, nil
	}
}

// checkModeSupported always succeeds: O_NONBLOCK applies to any descriptor.
func checkModeSupported(handle) error {
	return nil
}

func getNonblocking(h handle) (bool, error) {
	flags, err := unix.FcntlInt(uintptr(h), unix.F_GETFL, 0)
	if err != nil {
		return false, os.NewSyscallError("fcntl", err)
	}
	return flags&unix.O_NONBLOCK != 0, nil
}

func setNonblocking(h handle, nonblocking bool) error {
	flags, err := unix.FcntlInt(uintptr(h), unix.F_GETFL, 0)
	if err != nil {
		return os.NewSyscallError("fcntl", err)
	}
	if nonblocking {
		flags |= unix.O_NONBLOCK
	} else {
		flags &^= unix.O_NONBLOCK
	}
	if _, err := unix.FcntlInt(uintptr(h), unix.F_SETFL, flags); err != nil {
		return os.NewSyscallError("fcntl", err)
	}
	return nil
}

func isInheritable(h handle) (bool, error) {
	flags, err := unix.FcntlInt(uintptr(h), unix.F_GETFD, 0)
	if err != nil {
		return false, os.NewSyscallError("fcntl", err)
	}
	return flags&unix.FD_CLOEXEC == 0, nil
}

// dupHandle returns a new close-on-exec descriptor for the same open file
// description.
func dupHandle(h handle) (uintptr, error) {
	fd, err := unix.FcntlInt(uintptr(h), unix.F_DUPFD_CLOEXEC, 0)
	if err != nil {
		return 0, os.NewSyscallError("fcntl", err)
	}
	return uintptr(fd), nil
}
