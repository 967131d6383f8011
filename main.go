// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/hashicorp/cli"
	"github.com/hashicorp/go-anonpipe/command"
	"github.com/hashicorp/go-anonpipe/version"
)

func main() {
	os.Exit(Run(os.Args[1:]))
}

// Run executes the CLI with args and returns the exit status.
func Run(args []string) int {
	// Handle -v shorthand
	for _, arg := range args {
		if arg == "--" {
			break
		}

		if arg == "-v" || arg == "-version" || arg == "--version" {
			args = []string{"version"}
			break
		}
	}

	meta := new(command.Meta)
	meta.SetupUi(args)

	commands := command.Commands(meta)
	cli := &cli.CLI{
		Name:                       "anonpipe",
		Version:                    version.GetVersion().FullVersionNumber(false),
		Args:                       args,
		Commands:                   commands,
		Autocomplete:               true,
		AutocompleteNoDefaultFlags: true,
		HelpFunc:                   helpFunc(commands),
		HelpWriter:                 os.Stdout,
	}

	exitCode, err := cli.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error executing CLI: %s\n", err.Error())
		return 1
	}

	return exitCode
}

// helpFunc lists every command with its synopsis.
func helpFunc(commands map[string]cli.CommandFactory) cli.HelpFunc {
	return func(map[string]cli.CommandFactory) string {
		var b strings.Builder
		b.WriteString("Usage: anonpipe [-version] [-help] [-autocomplete-(un)install] <command> [args]\n\n")
		b.WriteString("Available commands are:\n")

		names := make([]string, 0, len(commands))
		maxLen := 0
		for name := range commands {
			names = append(names, name)
			maxLen = max(maxLen, len(name))
		}
		sort.Strings(names)

		for _, name := range names {
			cmd, err := commands[name]()
			if err != nil {
				panic(fmt.Sprintf("failed to load %q command: %s", name, err))
			}
			fmt.Fprintf(&b, "    %s    %s\n", name+strings.Repeat(" ", maxLen-len(name)), cmd.Synopsis())
		}
		return b.String()
	}
}
