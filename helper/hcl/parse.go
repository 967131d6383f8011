// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package hcl

import (
	"fmt"
	"os"
	"reflect"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// Parser decodes HCL files into tagged Go structs.
type Parser struct {
	parser  *hclparse.Parser
	decoder *gohcl.Decoder
}

// NewParser returns a new Parser instance which supports decoding time.Duration
// parameters by default.
func NewParser() *Parser {
	decoder := &gohcl.Decoder{}

	dur := time.Duration(0)
	decoder.RegisterExpressionDecoder(reflect.TypeOf(dur), DecodeDuration)
	decoder.RegisterExpressionDecoder(reflect.TypeOf(&dur), DecodeDuration)

	return &Parser{
		decoder: decoder,
		parser:  hclparse.NewParser(),
	}
}

// AddExpressionDecoder registers a custom decoder for values of type t.
func (p *Parser) AddExpressionDecoder(t reflect.Type, fn func(hcl.Expression, *hcl.EvalContext, any) hcl.Diagnostics) {
	p.decoder.RegisterExpressionDecoder(t, fn)
}

// Parse decodes src into dst. filename is only used in diagnostics.
func (p *Parser) Parse(src []byte, dst any, filename string) hcl.Diagnostics {
	hclFile, diags := p.parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return diags
	}
	return p.decoder.DecodeBody(hclFile.Body, nil, dst)
}

// ParseFile reads path and decodes it into dst.
func (p *Parser) ParseFile(path string, dst any) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if diags := p.Parse(src, dst, path); diags.HasErrors() {
		return fmt.Errorf("failed to decode config file %s: %w", path, diags)
	}
	return nil
}
