// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package command

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"slices"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/hashicorp/cli"
	"github.com/hashicorp/go-anonpipe/helper"
	"github.com/hashicorp/go-anonpipe/helper/logging"
	"github.com/hashicorp/go-anonpipe/lib/pipe"
	"github.com/hashicorp/go-hclog"
	metrics "github.com/hashicorp/go-metrics/compat"
	"github.com/posener/complete"
)

type RelayCommand struct {
	Meta

	// Below this point is where CLI flag options are stored.
	configPath string
	flagConfig RelayConfig
}

func (c *RelayCommand) Help() string {
	helpText := `
Usage: anonpipe relay [options] -- <command> [<args>...]

  Run a command with the write end of an anonymous pipe as its standard
  output, and print what it writes as records read from the read end. By
  default the read end is non-blocking and polled with exponential backoff.
  The relay exits with the exit code of the command.

General Options:

  ` + generalOptionsUsage() + `

Relay Options:

  -config=<path>
    Load settings from an HCL file. Flags given on the command line override
    the file.

  -format=<selector>
    How to split the output into records: "l" for lines without the line
    feed, "L" for lines including it, "a" for everything available, or a
    byte count. Records other than "l" are printed quoted. Default = l

  -blocking
    Read with blocking calls instead of polling.

  -poll-interval=<duration>
    Wait after the first empty poll. Default = 10ms

  -max-poll-interval=<duration>
    Upper bound of the wait between polls. Default = 500ms

  -metrics
    Print pipe counters after the command exits.

  -log-records
    Emit each record as a log line.
`
	return strings.TrimSpace(helpText)
}

func (c *RelayCommand) Synopsis() string {
	return "Run a command and relay its output through an anonymous pipe"
}

func (c *RelayCommand) AutocompleteFlags() complete.Flags {
	return mergeAutocompleteFlags(c.Meta.AutocompleteFlags(),
		complete.Flags{
			"-config":            complete.PredictFiles("*.hcl"),
			"-format":            complete.PredictSet("l", "L", "a"),
			"-blocking":          complete.PredictNothing,
			"-poll-interval":     complete.PredictAnything,
			"-max-poll-interval": complete.PredictAnything,
			"-metrics":           complete.PredictNothing,
			"-log-records":       complete.PredictNothing,
		})
}

func (c *RelayCommand) AutocompleteArgs() complete.Predictor {
	return complete.PredictFiles("*")
}

func (c *RelayCommand) Name() string { return "relay" }

func (c *RelayCommand) Run(args []string) int {
	defaults := DefaultRelayConfig()

	flags := c.Meta.FlagSet(c.Name())
	flags.Usage = func() { c.Ui.Output(c.Help()) }
	flags.StringVar(&c.configPath, "config", "", "")
	flags.StringVar(&c.flagConfig.Format, "format", defaults.Format, "")
	flags.BoolVar(&c.flagConfig.Blocking, "blocking", false, "")
	flags.DurationVar(&c.flagConfig.PollInterval, "poll-interval", defaults.PollInterval, "")
	flags.DurationVar(&c.flagConfig.MaxPollInterval, "max-poll-interval", defaults.MaxPollInterval, "")
	flags.BoolVar(&c.flagConfig.Metrics, "metrics", false, "")
	flags.BoolVar(&c.flagConfig.LogRecords, "log-records", false, "")

	if err := flags.Parse(args); err != nil {
		return 1
	}

	args = flags.Args()
	if len(args) == 0 {
		c.Ui.Error("This command requires a command to run")
		c.Ui.Error(commandErrorText(c))
		return 1
	}

	config := defaults
	if c.configPath != "" {
		var err error
		if config, err = LoadRelayConfig(c.configPath); err != nil {
			c.Ui.Error(fmt.Sprintf("Error loading configuration: %s", err))
			return 1
		}
	}
	config.Merge(&c.flagConfig, flags)

	format, err := config.Validate()
	if err != nil {
		c.Ui.Error(fmt.Sprintf("Invalid configuration: %s", err))
		return 1
	}

	logger := c.Meta.Logger("anonpipe.relay")

	var sink *metrics.InmemSink
	if config.Metrics {
		sink = metrics.NewInmemSink(time.Minute, time.Minute)
		metricsConf := metrics.DefaultConfig("anonpipe")
		metricsConf.EnableHostname = false
		metricsConf.EnableRuntimeMetrics = false
		if _, err := metrics.NewGlobal(metricsConf, sink); err != nil {
			c.Ui.Error(fmt.Sprintf("Error setting up metrics: %s", err))
			return 1
		}
	}

	pipeConfig := pipe.DefaultConfig()
	pipeConfig.Logger = logger
	pipeConfig.ReadNonblocking = !config.Blocking

	r, w, err := pipe.Create(pipeConfig)
	if err != nil {
		c.Ui.Error(fmt.Sprintf("Error creating pipe: %s", err))
		return 1
	}
	defer r.Close()
	defer w.Close()

	cmd, err := c.startChild(args, w)
	if err != nil {
		c.Ui.Error(fmt.Sprintf("Error starting command: %s", err))
		return 1
	}
	logger.Debug("started command", "path", cmd.Path, "pid", cmd.Process.Pid)

	doneCh := make(chan struct{})
	defer close(doneCh)
	go forwardInterrupt(cmd, doneCh, logger)

	out := c.Ui
	if config.LogRecords {
		out = &logging.HcLogUI{Log: hclog.New(&hclog.LoggerOptions{
			Name:   "anonpipe.relay.child",
			Level:  hclog.Info,
			Output: &cli.UiWriter{Ui: c.Ui},
		})}
	}

	emit := func(record []byte) {
		if format == pipe.Line(true) {
			out.Output(string(record))
			return
		}
		out.Output(strconv.Quote(string(record)))
	}

	records, relayErr := relay(r, format, config, emit)
	waitErr := cmd.Wait()

	code := 0
	var exitErr *exec.ExitError
	switch {
	case errors.As(waitErr, &exitErr):
		code = exitErr.ExitCode()
	case waitErr != nil:
		c.Ui.Error(fmt.Sprintf("Error waiting for command: %s", waitErr))
		return 1
	}

	if relayErr != nil {
		c.Ui.Error(fmt.Sprintf("Error reading from pipe: %s", relayErr))
		return 1
	}

	if sink != nil {
		c.Ui.Output(formatKV(metricRows(sink)))
	}

	c.Ui.Info(c.Colorize().Color(fmt.Sprintf(
		"[bold]Relayed %d records; command exited with code %d", records, code)))
	return code
}

// startChild runs args with a duplicate of w as its standard output. w is
// closed once the child has started so the read end sees end-of-stream when
// the child exits.
func (c *RelayCommand) startChild(args []string, w *pipe.End) (*exec.Cmd, error) {
	stream, err := w.AsStream()
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	cmd := exec.Command(args[0], args[1:]...)
	cmd.Stdout = stream.File()
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return nil, err
	}

	if err := w.Close(); err != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return nil, err
	}
	return cmd, nil
}

// forwardInterrupt kills the child if the relay is interrupted.
func forwardInterrupt(cmd *exec.Cmd, doneCh <-chan struct{}, logger hclog.Logger) {
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(signalCh)

	select {
	case sig := <-signalCh:
		logger.Info("stopping command", "signal", sig)
		if err := cmd.Process.Kill(); err != nil {
			logger.Warn("failed to stop command", "error", err)
		}
	case <-doneCh:
	}
}

// relay reads records from r until end-of-stream and passes each to emit.
// Bytes read before a would-block are kept and completed by later reads.
func relay(r *pipe.End, format pipe.Format, config *RelayConfig, emit func([]byte)) (int, error) {
	var pending []byte
	records, attempt := 0, 0

	for {
		b, err := r.ReadFormat(format)
		pending = append(pending, b...)

		switch {
		case pipe.IsWouldBlock(err):
			time.Sleep(helper.Backoff(config.PollInterval, config.MaxPollInterval, attempt))
			attempt++
			continue
		case err == io.EOF:
			if len(pending) > 0 {
				emit(pending)
				records++
			}
			return records, nil
		case err != nil:
			return records, err
		}

		attempt = 0
		emit(pending)
		records++
		pending = nil
	}
}

// metricRows renders the counters collected by sink as key/value rows.
func metricRows(sink *metrics.InmemSink) []string {
	totals := map[string]float64{}
	for _, interval := range sink.Data() {
		interval.RLock()
		for _, sample := range interval.Counters {
			totals[sample.Name] += sample.Sum
		}
		interval.RUnlock()
	}

	names := make([]string, 0, len(totals))
	for name := range totals {
		names = append(names, name)
	}
	slices.Sort(names)

	rows := make([]string, 0, len(names))
	for _, name := range names {
		value := humanize.Comma(int64(totals[name]))
		if strings.Contains(name, "bytes") {
			value = humanize.IBytes(uint64(totals[name]))
		}
		rows = append(rows, fmt.Sprintf("%s|%s", name, value))
	}
	return rows
}
