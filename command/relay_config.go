// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package command

import (
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/hashicorp/go-anonpipe/helper/hcl"
	"github.com/hashicorp/go-anonpipe/lib/pipe"
	"github.com/hashicorp/go-multierror"
)

// RelayConfig holds the settings of the relay command. It can be loaded from
// an HCL file and individual fields overridden by flags.
type RelayConfig struct {
	// Format is the read selector applied to the child's output, see
	// pipe.ParseFormat.
	Format string `hcl:"format,optional"`

	// Blocking reads from the pipe instead of polling it.
	Blocking bool `hcl:"blocking,optional"`

	// PollInterval is the first wait after a read that would block. The
	// wait doubles on each further empty poll up to MaxPollInterval.
	PollInterval    time.Duration `hcl:"poll_interval,optional"`
	MaxPollInterval time.Duration `hcl:"max_poll_interval,optional"`

	// Metrics prints pipe counters when the child exits.
	Metrics bool `hcl:"metrics,optional"`

	// LogRecords emits each record as a log line instead of plain output.
	LogRecords bool `hcl:"log_records,optional"`
}

// DefaultRelayConfig returns the settings used when neither a file nor a
// flag sets a value.
func DefaultRelayConfig() *RelayConfig {
	return &RelayConfig{
		Format:          "l",
		PollInterval:    10 * time.Millisecond,
		MaxPollInterval: 500 * time.Millisecond,
	}
}

// LoadRelayConfig decodes the file at path over the defaults.
func LoadRelayConfig(path string) (*RelayConfig, error) {
	c := DefaultRelayConfig()
	if err := hcl.NewParser().ParseFile(path, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Merge copies the fields of o whose flags were set on the command line.
func (c *RelayConfig) Merge(o *RelayConfig, flags *flag.FlagSet) {
	flags.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "format":
			c.Format = o.Format
		case "blocking":
			c.Blocking = o.Blocking
		case "poll-interval":
			c.PollInterval = o.PollInterval
		case "max-poll-interval":
			c.MaxPollInterval = o.MaxPollInterval
		case "metrics":
			c.Metrics = o.Metrics
		case "log-records":
			c.LogRecords = o.LogRecords
		}
	})
}

// Validate checks the settings and returns the parsed read format.
func (c *RelayConfig) Validate() (pipe.Format, error) {
	var mErr *multierror.Error

	f, err := pipe.ParseFormat(c.Format)
	if err != nil {
		mErr = multierror.Append(mErr, fmt.Errorf("format: %w", err))
	} else if f == pipe.Exact(0) {
		mErr = multierror.Append(mErr, errors.New("format: byte count must be positive"))
	}

	if !c.Blocking {
		if c.PollInterval <= 0 {
			mErr = multierror.Append(mErr, errors.New("poll_interval must be positive"))
		}
		if c.MaxPollInterval < c.PollInterval {
			mErr = multierror.Append(mErr, errors.New("max_poll_interval must not be less than poll_interval"))
		}
	}

	return f, mErr.ErrorOrNil()
}
