// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package pipe

import (
	"testing"

	"github.com/hashicorp/go-anonpipe/helper/testlog"
	"github.com/shoenig/test/must"
)

// inheritProbeSubcommand is the first argument that makes the test binary
// act as the child of an inheritance test.
const inheritProbeSubcommand = "inherit-probe"

// testPipe creates a pipe that is closed when the test ends.
func testPipe(t *testing.T, cfg *Config) (*End, *End) {
	t.Helper()

	if cfg == nil {
		cfg = DefaultConfig()
	}
	cfg = cfg.Copy()
	cfg.Logger = testlog.HCLogger(t)

	r, w, err := Create(cfg)
	must.NoError(t, err)
	t.Cleanup(func() {
		must.NoError(t, r.Close())
		must.NoError(t, w.Close())
	})
	return r, w
}

// writeString writes s in blocking mode and fails the test on a short write.
func writeString(t *testing.T, w *End, s string) {
	t.Helper()
	ok, err := w.WriteBuffers([]byte(s))
	must.NoError(t, err)
	must.True(t, ok)
}
