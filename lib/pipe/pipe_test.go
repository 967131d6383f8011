// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package pipe

import (
	"bytes"
	"errors"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/hashicorp/go-anonpipe/ci"
	"github.com/hashicorp/go-anonpipe/helper/testlog"
	"github.com/shoenig/test/must"
)

func TestMode_String(t *testing.T) {
	ci.Parallel(t)

	must.Eq(t, "r", ModeRead.String())
	must.Eq(t, "w", ModeWrite.String())
	must.Eq(t, "r+", ModeReadWrite.String())
	must.Eq(t, "Mode(9)", Mode(9).String())

	must.True(t, ModeReadWrite.CanRead())
	must.True(t, ModeReadWrite.CanWrite())
	must.False(t, ModeRead.CanWrite())
	must.False(t, ModeWrite.CanRead())
}

func TestCreate(t *testing.T) {
	ci.Parallel(t)

	r, w := testPipe(t, nil)

	must.Eq(t, ModeRead, r.Mode())
	must.Eq(t, ModeWrite, w.Mode())
	must.False(t, r.Closed())
	must.False(t, w.Closed())

	for _, end := range []*End{r, w} {
		inherit, err := end.Inheritable()
		must.NoError(t, err)
		must.False(t, inherit, must.Sprintf("%s is inheritable", end))

		nb, err := end.Nonblocking()
		must.NoError(t, err)
		must.False(t, nb)
	}
}

func TestCreate_NilConfig(t *testing.T) {
	ci.Parallel(t)

	r, w, err := Create(nil)
	must.NoError(t, err)
	must.NoError(t, r.Close())
	must.NoError(t, w.Close())
}

func TestCreate_NonblockingConfig(t *testing.T) {
	ci.Parallel(t)

	cases := []struct {
		name  string
		cfg   *Config
		expRd bool
		expWr bool
	}{
		{name: "default", cfg: DefaultConfig()},
		{name: "read", cfg: &Config{ReadNonblocking: true}, expRd: true},
		{name: "write", cfg: &Config{WriteNonblocking: true}, expWr: true},
		{name: "both", cfg: &Config{ReadNonblocking: true, WriteNonblocking: true}, expRd: true, expWr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r, w := testPipe(t, tc.cfg)

			nb, err := r.Nonblocking()
			must.NoError(t, err)
			must.Eq(t, tc.expRd, nb)

			nb, err = w.Nonblocking()
			must.NoError(t, err)
			must.Eq(t, tc.expWr, nb)
		})
	}
}

func TestEnd_CloseTwice(t *testing.T) {
	ci.Parallel(t)

	r, w := testPipe(t, nil)

	must.NoError(t, r.Close())
	must.True(t, r.Closed())
	must.NoError(t, r.Close())
	must.True(t, r.Closed())

	must.NoError(t, w.Close())
	must.NoError(t, w.Close())
	must.StrContains(t, w.String(), "closed")
}

func TestEnd_OperationsAfterClose(t *testing.T) {
	ci.Parallel(t)

	r, w := testPipe(t, nil)
	must.NoError(t, r.Close())
	must.NoError(t, w.Close())

	isBadDescriptor := func(t *testing.T, err error) {
		t.Helper()
		must.ErrorIs(t, err, ErrBadDescriptor)
		must.False(t, errors.Is(err, ErrIO))
	}

	_, err := r.ReadExact(1)
	isBadDescriptor(t, err)
	_, err = r.ReadLine(true)
	isBadDescriptor(t, err)
	_, err = r.ReadAll()
	isBadDescriptor(t, err)
	_, err = r.Read(make([]byte, 1))
	isBadDescriptor(t, err)
	_, err = r.ReadFormat(All())
	isBadDescriptor(t, err)

	_, err = w.WriteBuffers([]byte("x"))
	isBadDescriptor(t, err)
	_, err = w.Write([]byte("x"))
	isBadDescriptor(t, err)

	for _, end := range []*End{r, w} {
		_, err = end.Nonblocking()
		isBadDescriptor(t, err)
		isBadDescriptor(t, end.SetNonblocking(true))
		_, err = end.AsStream()
		isBadDescriptor(t, err)
		_, err = end.Capacity()
		isBadDescriptor(t, err)
		_, err = end.Inheritable()
		isBadDescriptor(t, err)
	}
}

func TestEnd_WrongDirection(t *testing.T) {
	ci.Parallel(t)

	r, w := testPipe(t, nil)

	_, err := w.ReadExact(1)
	must.ErrorIs(t, err, ErrBadDescriptor)
	_, err = w.ReadAll()
	must.ErrorIs(t, err, ErrBadDescriptor)

	_, err = r.WriteBuffers([]byte("x"))
	must.ErrorIs(t, err, ErrBadDescriptor)
	_, err = r.Write([]byte("x"))
	must.ErrorIs(t, err, ErrBadDescriptor)
}

func TestEnd_Finalize(t *testing.T) {
	ci.Parallel(t)

	r, w, err := Create(&Config{Logger: testlog.HCLogger(t)})
	must.NoError(t, err)

	r.finalize()
	must.True(t, r.Closed())

	// the write end sees the reader go away
	_, err = w.WriteBuffers([]byte("x"))
	must.ErrorIs(t, err, ErrIO)

	w.finalize()
	must.True(t, w.Closed())
}

// waitInFlight blocks until an operation on e holds its handle.
func waitInFlight(t *testing.T, e *End) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		e.lock.Lock()
		refs := e.refs
		e.lock.Unlock()
		if refs > 0 {
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for operation to start")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestEnd_CloseDuringRead(t *testing.T) {
	ci.Parallel(t)

	r, w := testPipe(t, nil)

	type result struct {
		b   []byte
		err error
	}
	done := make(chan result, 1)
	go func() {
		b, err := r.ReadExact(5)
		done <- result{b, err}
	}()
	waitInFlight(t, r)

	must.NoError(t, r.Close())
	must.True(t, r.Closed())
	_, err := r.ReadExact(1)
	must.ErrorIs(t, err, ErrBadDescriptor)

	// the pending read still owns a valid handle
	writeString(t, w, "hello")
	res := <-done
	must.NoError(t, res.err)
	must.Eq(t, "hello", string(res.b))

	// and the handle went away when it returned
	r.lock.Lock()
	h := r.h
	r.lock.Unlock()
	must.Eq(t, invalidHandle, h)

	_, err = w.WriteBuffers([]byte("x"))
	must.ErrorIs(t, err, ErrIO)
}

func TestEnd_ReadAllKeepsEndAlive(t *testing.T) {
	ci.Parallel(t)
	ci.SkipUnlessOS(t, "linux")

	payload := append(bytes.Repeat([]byte("x"), 5*ChunkSize), "tail"...)

	for i := 0; i < 3; i++ {
		r, w, err := Create(nil)
		must.NoError(t, err)

		stop := make(chan struct{})
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
					runtime.GC()
					time.Sleep(time.Millisecond)
				}
			}
		}()
		go func() {
			defer wg.Done()
			defer w.Close()
			for off := 0; off < len(payload); off += ChunkSize {
				_, _ = w.WriteBuffers(payload[off:min(off+ChunkSize, len(payload))])
				time.Sleep(20 * time.Millisecond)
			}
		}()

		// r is unreachable once ReadAll starts; only the call keeps it alive.
		got, err := r.ReadAll()
		close(stop)
		wg.Wait()

		must.NoError(t, err)
		must.Eq(t, len(payload), len(got))
		must.True(t, bytes.Equal(payload, got))
	}
}

func TestNewEnd_InvalidArguments(t *testing.T) {
	ci.Parallel(t)

	_, err := NewEnd(0, Mode(0), nil)
	must.ErrorIs(t, err, ErrInvalidArgument)

	_, err = NewEnd(^uintptr(0), ModeRead, nil)
	must.ErrorIs(t, err, ErrBadDescriptor)
}
