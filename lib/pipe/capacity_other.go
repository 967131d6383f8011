// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

//go:build darwin || freebsd || netbsd || openbsd

package pipe

import (
	"fmt"
	"runtime"
)

func capacity(handle, Mode) (int, error) {
	return 0, newError(KindUnsupported, "capacity",
		fmt.Errorf("pipe capacity is not reported on %s", runtime.GOOS))
}
