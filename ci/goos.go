// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package ci

import "runtime"

// runtimeGOOS is a variable so the skip helpers can be exercised in tests.
var runtimeGOOS = runtime.GOOS
