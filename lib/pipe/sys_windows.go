// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

//go:build windows

package pipe

import (
	"errors"
	"io"
	"os"
	"unsafe"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sys/windows"
)

// handle is a Windows kernel HANDLE.
type handle windows.Handle

const invalidHandle = handle(windows.InvalidHandle)

// Pipe mode bits for Get/SetNamedPipeHandleState.
const (
	pipeReadmodeByte = 0x00000000
	pipeWait         = 0x00000000
	pipeNowait       = 0x00000001
)

func toHandle(h uintptr) handle {
	if h == 0 || windows.Handle(h) == windows.InvalidHandle {
		return invalidHandle
	}
	return handle(h)
}

// Seams for fault injection in tests.
var (
	sysCreatePipe   = windows.CreatePipe
	sysClearInherit = clearInherit
)

// x/sys/windows binds SetHandleInformation but not its getter.
var (
	modkernel32              = windows.NewLazySystemDLL("kernel32.dll")
	procGetHandleInformation = modkernel32.NewProc("GetHandleInformation")
)

func getHandleInformation(h windows.Handle, flags *uint32) error {
	r1, _, err := procGetHandleInformation.Call(uintptr(h), uintptr(unsafe.Pointer(flags)))
	if r1 == 0 {
		return err
	}
	return nil
}

func clearInherit(h windows.Handle) error {
	return windows.SetHandleInformation(h, windows.HANDLE_FLAG_INHERIT, 0)
}

// newPipe creates an anonymous pipe. Handles from CreatePipe with nil
// security attributes are not inheritable, but the flag is cleared
// explicitly in case the process default differs.
func newPipe() (descriptorPair, error) {
	var r, w windows.Handle
	if err := sysCreatePipe(&r, &w, nil, 0); err != nil {
		return descriptorPair{invalidHandle, invalidHandle}, os.NewSyscallError("CreatePipe", err)
	}

	for _, h := range []windows.Handle{r, w} {
		if err := sysClearInherit(h); err != nil {
			var mErr *multierror.Error
			mErr = multierror.Append(mErr, os.NewSyscallError("SetHandleInformation", err))
			for _, h := range []windows.Handle{r, w} {
				if cerr := windows.CloseHandle(h); cerr != nil {
					mErr = multierror.Append(mErr, os.NewSyscallError("CloseHandle", cerr))
				}
			}
			return descriptorPair{invalidHandle, invalidHandle}, mErr.ErrorOrNil()
		}
	}

	return descriptorPair{handle(r), handle(w)}, nil
}

func closeHandle(h handle) error {
	if err := windows.CloseHandle(windows.Handle(h)); err != nil {
		return os.NewSyscallError("CloseHandle", err)
	}
	return nil
}

func isBadDescriptor(err error) bool {
	return errors.Is(err, windows.ERROR_INVALID_HANDLE)
}

// isStreamWouldBlock matches an empty PIPE_NOWAIT read as reported through
// an *os.File. On a write ERROR_NO_DATA means the read end is closed.
func isStreamWouldBlock(op string, err error) bool {
	return op == "read" && errors.Is(err, windows.ERROR_NO_DATA)
}

func readHandle(h handle, p []byte, nonblocking bool) (int, error) {
	var done uint32
	err := windows.ReadFile(windows.Handle(h), p, &done, nil)
	switch {
	case err == windows.ERROR_BROKEN_PIPE:
		// The write end is closed.
		return 0, io.EOF
	case err == windows.ERROR_NO_DATA && nonblocking:
		return 0, &wouldBlockError{err: os.NewSyscallError("ReadFile", err)}
	case err != nil:
		return 0, os.NewSyscallError("ReadFile", err)
	case done == 0 && len(p) > 0:
		if nonblocking {
			return 0, &wouldBlockError{}
		}
		return 0, io.EOF
	}
	return int(done), nil
}

func writeHandle(h handle, p []byte, nonblocking bool) (int, error) {
	var done uint32
	err := windows.WriteFile(windows.Handle(h), p, &done, nil)
	switch {
	case err == windows.ERROR_IO_PENDING && nonblocking:
		return int(done), &wouldBlockError{err: os.NewSyscallError("WriteFile", err)}
	case err != nil:
		// ERROR_NO_DATA here means the read end is closed.
		return int(done), os.NewSyscallError("WriteFile", err)
	case done == 0 && len(p) > 0 && nonblocking:
		// A PIPE_NOWAIT write into a full buffer succeeds with no progress.
		return 0, &wouldBlockError{}
	}
	return int(done), nil
}

func isPipe(h handle) (bool, error) {
	t, err := windows.GetFileType(windows.Handle(h))
	if err != nil {
		return false, os.NewSyscallError("GetFileType", err)
	}
	return t == windows.FILE_TYPE_PIPE, nil
}

// checkModeSupported fails for handles that are not pipes; PIPE_NOWAIT is a
// pipe property.
func checkModeSupported(h handle) error {
	ok, err := isPipe(h)
	if err != nil {
		return err
	}
	if !ok {
		return errNotPipe
	}
	return nil
}

func getNonblocking(h handle) (bool, error) {
	ok, err := isPipe(h)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	var state uint32
	if err := windows.GetNamedPipeHandleState(windows.Handle(h), &state, nil, nil, nil, nil, 0); err != nil {
		return false, os.NewSyscallError("GetNamedPipeHandleState", err)
	}
	return state&pipeNowait != 0, nil
}

func setNonblocking(h handle, nonblocking bool) error {
	state := uint32(pipeReadmodeByte | pipeWait)
	if nonblocking {
		state = pipeReadmodeByte | pipeNowait
	}
	if err := windows.SetNamedPipeHandleState(windows.Handle(h), &state, nil, nil); err != nil {
		return os.NewSyscallError("SetNamedPipeHandleState", err)
	}
	return nil
}

func isInheritable(h handle) (bool, error) {
	var flags uint32
	if err := getHandleInformation(windows.Handle(h), &flags); err != nil {
		return false, os.NewSyscallError("GetHandleInformation", err)
	}
	return flags&windows.HANDLE_FLAG_INHERIT != 0, nil
}

// dupHandle returns a new non-inheritable handle to the same pipe.
func dupHandle(h handle) (uintptr, error) {
	var dup windows.Handle
	proc := windows.CurrentProcess()
	err := windows.DuplicateHandle(proc, windows.Handle(h), proc, &dup, 0, false, windows.DUPLICATE_SAME_ACCESS)
	if err != nil {
		return 0, os.NewSyscallError("DuplicateHandle", err)
	}
	return uintptr(dup), nil
}

// capacity reports the inbound buffer for the read end and the outbound
// buffer for the write end.
func capacity(h handle, mode Mode) (int, error) {
	var out, in uint32
	if err := windows.GetNamedPipeInfo(windows.Handle(h), nil, &out, &in, nil); err != nil {
		return 0, os.NewSyscallError("GetNamedPipeInfo", err)
	}
	if mode == ModeWrite {
		return int(out), nil
	}
	return int(in), nil
}
