// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package subproc provides helper utilities for executing the current binary
// as a child process of itself.
//
// The main entrypoint is the Do function, in which the given MainFunc will be
// executed as a sub-process if the first argument matches the subcommand.
//
// Context can be used to create a context.Context object with a given timeout,
// and is expected to be used in conjunction with SetExpiration which uses the
// context's termination to forcefully terminate the child process if it has not
// exited by itself.
package subproc
