// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

//go:build windows

package pipe

import (
	"github.com/hashicorp/go-anonpipe/helper/subproc"
)

// inheritProbeMain is not used on Windows, where inheritance is checked with
// GetHandleInformation.
func inheritProbeMain() int {
	subproc.Print("inherit probe is not supported on windows")
	return subproc.ExitFailure
}
