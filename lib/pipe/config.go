// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package pipe

import (
	"github.com/hashicorp/go-hclog"
)

// Config is used to tune a pipe at creation.
type Config struct {
	// Logger receives trace messages about pipe lifecycle and warnings from
	// the finalizer. Defaults to a null logger.
	Logger hclog.Logger

	// ReadNonblocking puts the read end in non-blocking mode before Create
	// returns.
	ReadNonblocking bool

	// WriteNonblocking puts the write end in non-blocking mode before Create
	// returns.
	WriteNonblocking bool
}

// DefaultConfig returns a Config with a null logger and both ends blocking.
func DefaultConfig() *Config {
	return &Config{
		Logger: hclog.NewNullLogger(),
	}
}

// Copy returns a copy of the config, or nil if c is nil.
func (c *Config) Copy() *Config {
	if c == nil {
		return nil
	}
	nc := *c
	return &nc
}

func (c *Config) logger() hclog.Logger {
	if c == nil || c.Logger == nil {
		return hclog.NewNullLogger()
	}
	return c.Logger
}
