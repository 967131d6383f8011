// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package command

import (
	"github.com/hashicorp/cli"
	"github.com/hashicorp/go-anonpipe/version"
)

// Commands returns the mapping of CLI commands for anonpipe. The meta
// parameter lets you set meta options for all commands.
func Commands(metaPtr *Meta) map[string]cli.CommandFactory {
	if metaPtr == nil {
		metaPtr = new(Meta)
	}

	meta := *metaPtr
	if meta.Ui == nil {
		meta.SetupUi(nil)
	}

	return map[string]cli.CommandFactory{
		"probe": func() (cli.Command, error) {
			return &ProbeCommand{
				Meta: meta,
			}, nil
		},
		"relay": func() (cli.Command, error) {
			return &RelayCommand{
				Meta: meta,
			}, nil
		},
		"version": func() (cli.Command, error) {
			return &VersionCommand{
				Version: version.GetVersion(),
				Ui:      meta.Ui,
			}, nil
		},
	}
}
