// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package command

import (
	"flag"
	"os"
	"strings"

	"github.com/hashicorp/cli"
	"github.com/hashicorp/go-hclog"
	colorable "github.com/mattn/go-colorable"
	"github.com/mitchellh/colorstring"
	"github.com/posener/complete"
	"golang.org/x/term"
)

const (
	// EnvAnonpipeCLINoColor is an env var that toggles colored UI output.
	EnvAnonpipeCLINoColor = `ANONPIPE_CLI_NO_COLOR`

	// EnvAnonpipeCLIForceColor is an env var that forces colored UI output.
	EnvAnonpipeCLIForceColor = `ANONPIPE_CLI_FORCE_COLOR`

	// EnvAnonpipeLogLevel sets the default log level.
	EnvAnonpipeLogLevel = `ANONPIPE_LOG_LEVEL`
)

// Meta contains the meta-options and functionality that every anonpipe
// command inherits.
type Meta struct {
	Ui cli.Ui

	// Whether to not-colorize output
	noColor bool

	// Whether to force colorized output
	forceColor bool

	// logLevel is the level of the logger returned by Logger.
	logLevel string
}

// FlagSet returns a FlagSet with the common flags that every command
// implements.
func (m *Meta) FlagSet(n string) *flag.FlagSet {
	f := flag.NewFlagSet(n, flag.ContinueOnError)

	f.BoolVar(&m.noColor, "no-color", false, "")
	f.BoolVar(&m.forceColor, "force-color", false, "")
	f.StringVar(&m.logLevel, "log-level", os.Getenv(EnvAnonpipeLogLevel), "")

	f.SetOutput(&uiErrorWriter{ui: m.Ui})

	return f
}

// AutocompleteFlags returns the completions for the common flags.
func (m *Meta) AutocompleteFlags() complete.Flags {
	return complete.Flags{
		"-no-color":    complete.PredictNothing,
		"-force-color": complete.PredictNothing,
		"-log-level":   complete.PredictSet("trace", "debug", "info", "warn", "error"),
	}
}

// Logger returns a logger that writes through the command's Ui at the level
// chosen with -log-level. Warnings are the default.
func (m *Meta) Logger(name string) hclog.Logger {
	level := hclog.LevelFromString(m.logLevel)
	if level == hclog.NoLevel {
		level = hclog.Warn
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:   name,
		Level:  level,
		Output: &cli.UiWriter{Ui: m.Ui},
	})
}

// Colorize returns a colorizer that is only enabled for a colored Ui.
func (m *Meta) Colorize() *colorstring.Colorize {
	_, coloredUi := m.Ui.(*cli.ColoredUi)

	return &colorstring.Colorize{
		Colors:  colorstring.DefaultColors,
		Disable: !coloredUi,
		Reset:   true,
	}
}

// SetupUi builds the Ui for the process, coloring it when stdout is a
// terminal unless disabled by flag or environment.
func (m *Meta) SetupUi(args []string) {
	noColor := os.Getenv(EnvAnonpipeCLINoColor) != ""
	forceColor := os.Getenv(EnvAnonpipeCLIForceColor) != ""

	for _, arg := range args {
		// Check if color is set
		if arg == "-no-color" || arg == "--no-color" {
			noColor = true
		} else if arg == "-force-color" || arg == "--force-color" {
			forceColor = true
		}
	}

	m.Ui = &cli.BasicUi{
		Reader:      os.Stdin,
		Writer:      colorable.NewColorableStdout(),
		ErrorWriter: colorable.NewColorableStderr(),
	}

	// Only use colored UI if not disabled and stdout is a tty or colors are
	// forced.
	isTerminal := term.IsTerminal(int(os.Stdout.Fd()))
	useColor := !noColor && (isTerminal || forceColor)
	if useColor {
		m.Ui = &cli.ColoredUi{
			ErrorColor: cli.UiColorRed,
			WarnColor:  cli.UiColorYellow,
			InfoColor:  cli.UiColorGreen,
			Ui:         m.Ui,
		}
	}
}

// generalOptionsUsage returns the help string for the global options.
func generalOptionsUsage() string {
	helpText := `
  -log-level=<level>
    Log level for diagnostics written to stderr: trace, debug, info, warn or
    error. Overrides the ANONPIPE_LOG_LEVEL environment variable if set.
    Default = warn

  -no-color
    Disables colored command output. Alternatively, ANONPIPE_CLI_NO_COLOR may
    be set. This option takes precedence over -force-color.

  -force-color
    Forces colored command output. This can be used in cases where the usual
    terminal detection fails. Alternatively, ANONPIPE_CLI_FORCE_COLOR may be
    set. This option has no effect if -no-color is also used.
`
	return strings.TrimSpace(helpText)
}
