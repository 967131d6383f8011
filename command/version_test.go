// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package command

import (
	"testing"

	"github.com/hashicorp/cli"
	"github.com/hashicorp/go-anonpipe/ci"
	"github.com/hashicorp/go-anonpipe/version"
	"github.com/shoenig/test/must"
)

func TestVersionCommand_implements(t *testing.T) {
	ci.Parallel(t)
	var _ cli.Command = &VersionCommand{}
}

func TestVersionCommand_Run(t *testing.T) {
	ci.Parallel(t)

	ui := cli.NewMockUi()
	cmd := &VersionCommand{
		Version: &version.VersionInfo{Version: "1.0.0", Revision: "deadbeef"},
		Ui:      ui,
	}

	must.Zero(t, cmd.Run(nil))
	must.Eq(t, "anonpipe v1.0.0\nRevision deadbeef\n", ui.OutputWriter.String())
}

func TestCommands(t *testing.T) {
	ci.Parallel(t)

	commands := Commands(&Meta{Ui: cli.NewMockUi()})
	for _, name := range []string{"probe", "relay", "version"} {
		factory, ok := commands[name]
		must.True(t, ok, must.Sprintf("missing command %q", name))
		cmd, err := factory()
		must.NoError(t, err)
		must.NotEq(t, "", cmd.Synopsis())
		must.StrContains(t, cmd.Help(), "anonpipe "+name)
	}
}
