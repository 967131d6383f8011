// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package logging

import (
	"errors"

	"github.com/hashicorp/go-hclog"
)

var errNotInteractive = errors.New("input is not supported by a logging ui")

// HcLogUI is a cli.Ui that sends every message to an hclog.Logger. Output and
// Info are logged at info level. It cannot ask for input.
type HcLogUI struct {
	Log hclog.Logger
}

func (l *HcLogUI) Ask(string) (string, error) {
	return "", errNotInteractive
}

func (l *HcLogUI) AskSecret(string) (string, error) {
	return "", errNotInteractive
}

func (l *HcLogUI) Output(message string) {
	l.Log.Info(message)
}

func (l *HcLogUI) Info(message string) {
	l.Log.Info(message)
}

func (l *HcLogUI) Error(message string) {
	l.Log.Error(message)
}

func (l *HcLogUI) Warn(message string) {
	l.Log.Warn(message)
}
