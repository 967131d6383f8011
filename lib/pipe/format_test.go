// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package pipe

import (
	"testing"

	"github.com/hashicorp/go-anonpipe/ci"
	"github.com/shoenig/test/must"
)

func TestParseFormat(t *testing.T) {
	ci.Parallel(t)

	cases := []struct {
		input  string
		exp    Format
		expErr bool
	}{
		{input: "l", exp: Line(true)},
		{input: "*l", exp: Line(true)},
		{input: "line", exp: Line(true)},
		{input: "L", exp: Line(false)},
		{input: "*L", exp: Line(false)},
		{input: "a", exp: All()},
		{input: "*a", exp: All()},
		{input: "all", exp: All()},
		{input: "10", exp: Exact(10)},
		{input: "0", exp: Exact(0)},
		{input: "-1", expErr: true},
		{input: "x", expErr: true},
		{input: "*n", expErr: true},
		{input: "", expErr: true},
		{input: "*", expErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.input, func(t *testing.T) {
			got, err := ParseFormat(tc.input)
			if tc.expErr {
				must.ErrorIs(t, err, ErrInvalidArgument)
				must.ErrorIs(t, err, errInvalidFormat)
				must.Eq(t, Format{}, got)
				return
			}
			must.NoError(t, err)
			must.Eq(t, tc.exp, got)
		})
	}
}

func TestFormat_String(t *testing.T) {
	ci.Parallel(t)

	must.Eq(t, "l", Line(true).String())
	must.Eq(t, "L", Line(false).String())
	must.Eq(t, "a", All().String())
	must.Eq(t, "42", Exact(42).String())
	must.Eq(t, "invalid", Format{}.String())

	for _, f := range []Format{Line(true), Line(false), All(), Exact(7)} {
		parsed, err := ParseFormat(f.String())
		must.NoError(t, err)
		must.Eq(t, f, parsed)
	}
}
