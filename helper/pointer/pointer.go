// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package pointer provides helper functions related to Go pointers.
package pointer

// Of returns a pointer to a.
func Of[A any](a A) *A {
	return &a
}

// Value returns the value p points to, or def if p is nil.
func Value[A any](p *A, def A) A {
	if p == nil {
		return def
	}
	return *p
}
