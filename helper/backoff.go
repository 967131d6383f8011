// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package helper

import (
	"math/rand/v2"
	"time"
)

// Backoff returns how long to wait before the given attempt, counting from
// zero. The base delay doubles on each attempt until it reaches limit, and
// up to a tenth of the result is added as jitter.
//
// A limit below base is raised to base.
func Backoff(base, limit time.Duration, attempt int) time.Duration {
	if base <= 0 {
		return 0
	}
	if limit < base {
		limit = base
	}

	wait := base
	for i := 0; i < attempt && wait < limit; i++ {
		wait *= 2
	}
	if wait > limit {
		wait = limit
	}

	return wait + RandomStagger(wait/10)
}

// RandomStagger returns a random duration in [0, d). It returns 0 when d is
// not positive.
func RandomStagger(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return rand.N(d)
}
