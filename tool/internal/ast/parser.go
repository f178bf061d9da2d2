// Copyright The Augmentum Authors
// SPDX-License-Identifier: Apache-2.0

// Package ast wraps the dave/dst decorator with the parsing entry points
// and node builders the rewriting pass uses.
package ast

import (
	"go/parser"
	"go/token"
	"os"
	"path/filepath"

	"github.com/dave/dst"
	"github.com/dave/dst/decorator"

	"github.com/augmentum-project/augmentum-go/tool/ex"
	"github.com/augmentum-project/augmentum-go/tool/util"
)

type AstParser struct {
	fset *token.FileSet
	dec  *decorator.Decorator
}

func NewAstParser() *AstParser {
	return &AstParser{
		fset: token.NewFileSet(),
	}
}

// Parse parses one file into a decorated tree.
func (ap *AstParser) Parse(filePath string, mode parser.Mode) (*dst.File, error) {
	util.Assert(ap.fset != nil, "fset is not initialized")

	name := filepath.Base(filePath)
	file, err := os.Open(filePath)
	if err != nil {
		return nil, ex.Errorf(err, "failed to open file %s", filePath)
	}
	defer file.Close()
	astFile, err := parser.ParseFile(ap.fset, name, file, mode)
	if err != nil {
		return nil, ex.Errorf(err, "failed to parse file %s", filePath)
	}
	ap.dec = decorator.NewDecorator(ap.fset)
	dstFile, err := ap.dec.DecorateFile(astFile)
	if err != nil {
		return nil, ex.Errorf(err, "failed to decorate file %s", filePath)
	}
	return dstFile, nil
}

// ParseSource parses complete source code.
func (ap *AstParser) ParseSource(source string) (*dst.File, error) {
	util.Assert(source != "", "empty source")
	ap.dec = decorator.NewDecorator(ap.fset)
	dstRoot, err := ap.dec.Parse(source)
	if err != nil {
		return nil, ex.Error(err)
	}
	return dstRoot, nil
}

// ParseFile parses filePath keeping comments, the mode the pass rewrites
// under so user comments survive the round trip.
func ParseFile(filePath string) (*dst.File, error) {
	return NewAstParser().Parse(filePath, parser.ParseComments)
}
