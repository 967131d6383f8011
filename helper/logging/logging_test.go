// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package logging

import (
	"bytes"
	"testing"

	"github.com/hashicorp/cli"
	"github.com/hashicorp/go-anonpipe/ci"
	"github.com/hashicorp/go-hclog"
	"github.com/shoenig/test/must"
)

func TestHcLogUI(t *testing.T) {
	ci.Parallel(t)

	var _ cli.Ui = (*HcLogUI)(nil)

	var buf bytes.Buffer
	ui := &HcLogUI{Log: hclog.New(&hclog.LoggerOptions{
		Name:   "test",
		Level:  hclog.Info,
		Output: &buf,
	})}

	ui.Output("first record")
	ui.Warn("careful")
	ui.Error("broken")

	out := buf.String()
	must.StrContains(t, out, "[INFO]  test: first record")
	must.StrContains(t, out, "[WARN]  test: careful")
	must.StrContains(t, out, "[ERROR] test: broken")

	_, err := ui.Ask("name?")
	must.ErrorIs(t, err, errNotInteractive)
	_, err = ui.AskSecret("token?")
	must.ErrorIs(t, err, errNotInteractive)
}
