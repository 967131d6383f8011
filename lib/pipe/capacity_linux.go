// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

//go:build linux

package pipe

import (
	"os"

	"golang.org/x/sys/unix"
)

func capacity(h handle, _ Mode) (int, error) {
	n, err := unix.FcntlInt(uintptr(h), unix.F_GETPIPE_SZ, 0)
	if err != nil {
		return 0, os.NewSyscallError("fcntl", err)
	}
	return n, nil
}
