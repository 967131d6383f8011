// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package pipe

import (
	"errors"
	"fmt"
	"strconv"
)

var errInvalidFormat = errors.New("invalid format")

type formatKind int

const (
	formatInvalid formatKind = iota
	formatExact
	formatLine
	formatAll
)

// Format selects one of the read modes of an End. The zero value is invalid.
type Format struct {
	kind formatKind
	n    int
	chop bool
}

// Exact selects ReadExact(n).
func Exact(n int) Format {
	return Format{kind: formatExact, n: n}
}

// Line selects ReadLine(chop).
func Line(chop bool) Format {
	return Format{kind: formatLine, chop: chop}
}

// All selects ReadAll.
func All() Format {
	return Format{kind: formatAll}
}

// ParseFormat parses a textual read selector:
//
//	"l"  a line without its line feed
//	"L"  a line including its line feed
//	"a"  everything available
//	"N"  up to N bytes, N a non-negative decimal
//
// A leading '*' is accepted and ignored. Only the first letter of the named
// forms is significant, so "line" and "all" work too.
func ParseFormat(s string) (Format, error) {
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 {
			return Format{}, newError(KindInvalidArgument, "parse_format",
				fmt.Errorf("%w: negative byte count %d", errInvalidFormat, n))
		}
		return Exact(n), nil
	}

	p := s
	if len(p) > 0 && p[0] == '*' {
		p = p[1:]
	}
	if len(p) == 0 {
		return Format{}, newError(KindInvalidArgument, "parse_format",
			fmt.Errorf("%w %q", errInvalidFormat, s))
	}

	switch p[0] {
	case 'l':
		return Line(true), nil
	case 'L':
		return Line(false), nil
	case 'a':
		return All(), nil
	default:
		return Format{}, newError(KindInvalidArgument, "parse_format",
			fmt.Errorf("%w %q", errInvalidFormat, s))
	}
}

func (f Format) String() string {
	switch f.kind {
	case formatExact:
		return strconv.Itoa(f.n)
	case formatLine:
		if f.chop {
			return "l"
		}
		return "L"
	case formatAll:
		return "a"
	default:
		return "invalid"
	}
}
