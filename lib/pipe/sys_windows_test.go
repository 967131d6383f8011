// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

//go:build windows

package pipe

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-anonpipe/ci"
	"github.com/shoenig/test/must"
	"golang.org/x/sys/windows"
)

func TestCreate_NotInheritable(t *testing.T) {
	ci.Parallel(t)

	r, w := testPipe(t, nil)
	for _, end := range []*End{r, w} {
		inherit, err := end.Inheritable()
		must.NoError(t, err)
		must.False(t, inherit)
	}
}

func TestInheritable_ReportsFlag(t *testing.T) {
	ci.Parallel(t)

	r, _ := testPipe(t, nil)

	err := windows.SetHandleInformation(windows.Handle(r.h), windows.HANDLE_FLAG_INHERIT, windows.HANDLE_FLAG_INHERIT)
	must.NoError(t, err)

	inherit, err := r.Inheritable()
	must.NoError(t, err)
	must.True(t, inherit)

	must.NoError(t, sysClearInherit(windows.Handle(r.h)))
	inherit, err = r.Inheritable()
	must.NoError(t, err)
	must.False(t, inherit)
}

func TestStream_EmptyNowaitRead(t *testing.T) {
	ci.Parallel(t)

	r, _ := testPipe(t, nil)
	s, err := r.AsStream()
	must.NoError(t, err)
	t.Cleanup(func() { must.NoError(t, s.Close()) })

	// PIPE_NOWAIT is set on the duplicate itself
	must.NoError(t, setNonblocking(toHandle(s.File().Fd()), true))

	_, err = s.Read(make([]byte, 8))
	must.ErrorIs(t, err, ErrWouldBlock)
}

// fileEnd adopts a duplicate of a regular file's handle.
func fileEnd(t *testing.T) *End {
	t.Helper()

	f, err := os.Create(filepath.Join(t.TempDir(), "not-a-pipe"))
	must.NoError(t, err)
	defer f.Close()

	dup, err := dupHandle(handle(f.Fd()))
	must.NoError(t, err)

	e, err := NewEnd(dup, ModeWrite, nil)
	must.NoError(t, err)
	t.Cleanup(func() { must.NoError(t, e.Close()) })
	return e
}

func TestNonblocking_NotAPipe(t *testing.T) {
	ci.Parallel(t)

	e := fileEnd(t)

	nb, err := e.Nonblocking()
	must.NoError(t, err)
	must.False(t, nb)

	err = e.SetNonblocking(true)
	must.ErrorIs(t, err, ErrUnsupported)
	err = e.SetNonblocking(false)
	must.ErrorIs(t, err, ErrUnsupported)
}

func TestCreate_ClearInheritFailureLeaksNothing(t *testing.T) {
	for _, failOn := range []int{1, 2} {
		var handles []windows.Handle
		calls := 0

		origCreate, origClear := sysCreatePipe, sysClearInherit
		sysCreatePipe = func(r, w *windows.Handle, sa *windows.SecurityAttributes, size uint32) error {
			err := origCreate(r, w, sa, size)
			handles = append(handles, *r, *w)
			return err
		}
		sysClearInherit = func(h windows.Handle) error {
			calls++
			if calls == failOn {
				return windows.ERROR_ACCESS_DENIED
			}
			return origClear(h)
		}

		r, w, err := Create(nil)

		sysCreatePipe, sysClearInherit = origCreate, origClear

		must.Nil(t, r)
		must.Nil(t, w)
		must.ErrorIs(t, err, ErrCreationFailed)
		must.SliceLen(t, 2, handles)
		for _, h := range handles {
			var flags uint32
			err := getHandleInformation(h, &flags)
			must.ErrorIs(t, err, windows.ERROR_INVALID_HANDLE,
				must.Sprintf("handle %v leaked when failing clear %d", h, failOn))
		}
	}
}

func TestCapacity(t *testing.T) {
	ci.Parallel(t)

	r, w := testPipe(t, nil)

	rc, err := r.Capacity()
	must.NoError(t, err)
	must.Positive(t, rc)

	wc, err := w.Capacity()
	must.NoError(t, err)
	must.Positive(t, wc)
}
