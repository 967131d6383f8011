// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package hcl

import (
	"fmt"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

// DecodeDuration is the decode function for time.Duration types. String
// values are parsed with time.ParseDuration; numbers are taken as
// nanoseconds.
func DecodeDuration(expr hcl.Expression, ctx *hcl.EvalContext, val any) hcl.Diagnostics {
	srcVal, diags := expr.Value(ctx)
	if diags.HasErrors() {
		return diags
	}

	switch srcVal.Type() {
	case cty.String:
		dur, err := time.ParseDuration(srcVal.AsString())
		if err != nil {
			return append(diags, unsuitable(expr, "Unsuitable duration value: %s", err))
		}
		srcVal = cty.NumberIntVal(int64(dur))
	case cty.Number:
	default:
		return append(diags, unsuitable(expr,
			"Unsuitable value: expected a string but found %s", srcVal.Type().FriendlyName()))
	}

	if err := gocty.FromCtyValue(srcVal, val); err != nil {
		diags = append(diags, unsuitable(expr, "Unsuitable value: %s", err))
	}
	return diags
}

func unsuitable(expr hcl.Expression, format string, args ...any) *hcl.Diagnostic {
	return &hcl.Diagnostic{
		Severity: hcl.DiagError,
		Summary:  "Unsuitable value type",
		Detail:   fmt.Sprintf(format, args...),
		Subject:  expr.StartRange().Ptr(),
		Context:  expr.Range().Ptr(),
	}
}
