// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package command

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/hashicorp/go-anonpipe/helper/pointer"
	"github.com/hashicorp/go-anonpipe/lib/pipe"
	"github.com/posener/complete"
)

type ProbeCommand struct {
	Meta

	nonblocking bool
	json        bool
}

// endReport describes one end of the probed pipe.
type endReport struct {
	Mode        string `json:"mode"`
	Nonblocking bool   `json:"nonblocking"`
	Inheritable bool   `json:"inheritable"`

	// Capacity is nil where the platform does not report it.
	Capacity *int `json:"capacity"`
}

func (c *ProbeCommand) Help() string {
	helpText := `
Usage: anonpipe probe [options]

  Create an anonymous pipe and report what the platform says about each end:
  its direction, whether it is non-blocking, whether a child process would
  inherit it, and the size of its kernel buffer. The pipe is closed before the
  command exits.

General Options:

  ` + generalOptionsUsage() + `

Probe Options:

  -nonblocking
    Switch both ends to non-blocking mode before reporting.

  -json
    Output the report in JSON format.
`
	return strings.TrimSpace(helpText)
}

func (c *ProbeCommand) Synopsis() string {
	return "Report the properties of a new anonymous pipe"
}

func (c *ProbeCommand) AutocompleteFlags() complete.Flags {
	return mergeAutocompleteFlags(c.Meta.AutocompleteFlags(),
		complete.Flags{
			"-nonblocking": complete.PredictNothing,
			"-json":        complete.PredictNothing,
		})
}

func (c *ProbeCommand) AutocompleteArgs() complete.Predictor {
	return complete.PredictNothing
}

func (c *ProbeCommand) Name() string { return "probe" }

func (c *ProbeCommand) Run(args []string) int {
	flags := c.Meta.FlagSet(c.Name())
	flags.Usage = func() { c.Ui.Output(c.Help()) }
	flags.BoolVar(&c.nonblocking, "nonblocking", false, "")
	flags.BoolVar(&c.json, "json", false, "")

	if err := flags.Parse(args); err != nil {
		return 1
	}

	if len(flags.Args()) != 0 {
		c.Ui.Error("This command takes no arguments")
		c.Ui.Error(commandErrorText(c))
		return 1
	}

	cfg := pipe.DefaultConfig()
	cfg.Logger = c.Meta.Logger("anonpipe")
	cfg.ReadNonblocking = c.nonblocking
	cfg.WriteNonblocking = c.nonblocking

	r, w, err := pipe.Create(cfg)
	if err != nil {
		c.Ui.Error(fmt.Sprintf("Error creating pipe: %s", err))
		return 1
	}
	defer r.Close()
	defer w.Close()

	reports := make([]*endReport, 0, 2)
	for _, end := range []*pipe.End{r, w} {
		report, err := probeEnd(end)
		if err != nil {
			c.Ui.Error(fmt.Sprintf("Error probing %s end: %s", end.Mode(), err))
			return 1
		}
		reports = append(reports, report)
	}

	if c.json {
		out, err := formatJSON(map[string]*endReport{
			"read":  reports[0],
			"write": reports[1],
		})
		if err != nil {
			c.Ui.Error(err.Error())
			return 1
		}
		c.Ui.Output(out)
		return 0
	}

	rows := make([]string, 0, len(reports)+1)
	rows = append(rows, "End|Nonblocking|Inheritable|Capacity")
	for _, report := range reports {
		capacity := "unsupported"
		if n := pointer.Value(report.Capacity, -1); n >= 0 {
			capacity = humanize.IBytes(uint64(n))
		}
		rows = append(rows, fmt.Sprintf("%s|%t|%t|%s",
			report.Mode, report.Nonblocking, report.Inheritable, capacity))
	}
	c.Ui.Output(formatList(rows))
	return 0
}

func probeEnd(end *pipe.End) (*endReport, error) {
	nonblocking, err := end.Nonblocking()
	if err != nil {
		return nil, err
	}
	inheritable, err := end.Inheritable()
	if err != nil {
		return nil, err
	}

	report := &endReport{
		Mode:        end.Mode().String(),
		Nonblocking: nonblocking,
		Inheritable: inheritable,
	}

	n, err := end.Capacity()
	switch {
	case err == nil:
		report.Capacity = pointer.Of(n)
	case !errors.Is(err, pipe.ErrUnsupported):
		return nil, err
	}
	return report, nil
}
