// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package testlog creates loggers backed by testing.T to ease logging in
// tests.
package testlog

import (
	"io"
	"os"
	"sync"
	"testing"

	"github.com/hashicorp/go-hclog"
)

// Logger is the methods of testing.T (or testing.B) needed by the test
// logger.
type Logger interface {
	Logf(format string, args ...interface{})
}

// Writer implements io.Writer on top of a Logger. Writes made after Stop
// are dropped, since testing.T panics when logged to after the test ends and
// pipe finalizers may log at any time.
type Writer struct {
	t Logger

	lock    sync.Mutex
	stopped bool
}

// NewWriter returns a Writer for t.
func NewWriter(t Logger) *Writer {
	return &Writer{t: t}
}

// Write to an underlying Logger. Never returns an error.
func (w *Writer) Write(p []byte) (n int, err error) {
	w.lock.Lock()
	defer w.lock.Unlock()
	if !w.stopped {
		w.t.Logf("%s", p)
	}
	return len(p), nil
}

// Stop discards all further writes.
func (w *Writer) Stop() {
	w.lock.Lock()
	defer w.lock.Unlock()
	w.stopped = true
}

// HCLogger returns a new test hc-logger.
//
// Default log level is TRACE. Set ANONPIPE_TEST_LOG_LEVEL for custom log
// level. Output stops when the test finishes.
func HCLogger(t testing.TB) hclog.InterceptLogger {
	w := NewWriter(t)
	t.Cleanup(w.Stop)
	return HCLoggerWriter(w)
}

// HCLoggerWriter returns a test hc-logger writing to out.
func HCLoggerWriter(out io.Writer) hclog.InterceptLogger {
	level := hclog.Trace
	if env := os.Getenv("ANONPIPE_TEST_LOG_LEVEL"); env != "" {
		level = hclog.LevelFromString(env)
	}
	opts := &hclog.LoggerOptions{
		Level:           level,
		Output:          out,
		IncludeLocation: true,
	}
	return hclog.NewInterceptLogger(opts)
}
