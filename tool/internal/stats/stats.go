// Copyright The Augmentum Authors
// SPDX-License-Identifier: Apache-2.0

// Package stats collects per-function rewrite decisions and named-struct
// shapes, and appends them to CSV-like sinks.
package stats

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/dave/dst"

	"github.com/augmentum-project/augmentum-go/tool/ex"
	"github.com/augmentum-project/augmentum-go/tool/internal/ast"
)

const (
	funStatsFileName         = "function_stats.csv"
	namedStructStatsFileName = "named_struct_stats.csv"

	statsDelim = ";"
)

var funStatsHeader = strings.Join([]string{
	"MODULE", "FNAME", "FNAMED", "ICOUNT", "PCOUNT", "FUNCTIONTY", "CAN_INSTR", "SHOULD_INSTR",
}, statsDelim)

var namedStructStatsHeader = strings.Join([]string{
	"MODULE", "STRUCT_NAME", "TYPE", "IR_NAME", "EXTRA",
}, statsDelim)

// FunctionData is one function's record.
type FunctionData struct {
	ModuleName       string
	FunctionName     string
	ReadableName     string
	InstructionCount int
	ParameterCount   int
	TypeSerialised   string
	CanInstr         string
	ShouldInstr      string
}

// NamedStructData is one named struct's record.
type NamedStructData struct {
	ModuleName     string
	StructName     string
	SerialisedType string
	IRName         string
	Extra          string
}

// InstrumentationStats caches decisions for one pass run. In reduced mode
// only the decision tags are kept; full mode additionally serialises types
// and counts instructions, which is what --dry-run sweeps are for.
type InstrumentationStats struct {
	mu         sync.Mutex
	full       bool
	functions  map[string]FunctionData
	structs    map[string]NamedStructData
	serialiser *TypeSerialiser
}

func New() *InstrumentationStats {
	return &InstrumentationStats{
		functions:  make(map[string]FunctionData),
		structs:    make(map[string]NamedStructData),
		serialiser: NewTypeSerialiser(),
	}
}

func (s *InstrumentationStats) CollectFullStats() { s.full = true }
func (s *InstrumentationStats) CollectReducedStats() { s.full = false }

// RecordFunctionStats records one function once; later sightings of the
// same symbol are ignored. Must be called before the declaration is
// rewritten so the instruction count reflects the original body.
func (s *InstrumentationStats) RecordFunctionStats(module string, decl *dst.FuncDecl, resolver TypeResolver, canTag, shouldTag string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	symbol := module + "." + decl.Name.Name
	if _, seen := s.functions[symbol]; seen {
		return
	}
	if s.full {
		s.functions[symbol] = FunctionData{
			ModuleName:       module,
			FunctionName:     symbol,
			ReadableName:     ast.FuncDeclString(decl),
			InstructionCount: countStatements(decl),
			ParameterCount:   countParams(decl),
			TypeSerialised:   s.serialiser.SerialiseFunc(module, resolver, decl),
			CanInstr:         canTag,
			ShouldInstr:      shouldTag,
		}
		return
	}
	s.functions[symbol] = FunctionData{
		ModuleName:       module,
		FunctionName:     symbol,
		ReadableName:     "NA",
		InstructionCount: -1,
		ParameterCount:   -1,
		TypeSerialised:   "NA",
		CanInstr:         canTag,
		ShouldInstr:      shouldTag,
	}
}

// RecordNamedStructStats snapshots every named struct the serialiser has
// seen so far.
func (s *InstrumentationStats) RecordNamedStructStats(module string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for marker, entry := range s.serialiser.namedStructs {
		if _, seen := s.structs[marker]; seen {
			continue
		}
		s.structs[marker] = NamedStructData{
			ModuleName:     module,
			StructName:     entry.goName,
			SerialisedType: entry.layout,
			IRName:         marker,
			Extra:          entry.extra,
		}
	}
}

func countStatements(decl *dst.FuncDecl) int {
	if decl.Body == nil {
		return 0
	}
	count := 0
	dst.Inspect(decl.Body, func(node dst.Node) bool {
		if _, ok := node.(dst.Stmt); ok {
			count++
		}
		return true
	})
	return count
}

func countParams(decl *dst.FuncDecl) int {
	n := 0
	for _, field := range decl.Type.Params.List {
		n += max(len(field.Names), 1)
	}
	return n
}

// escapeAndDelim double-quotes a field, replacing embedded quotes with
// apostrophes, and appends the delimiter unless the field closes the row.
func escapeAndDelim(s string, delim bool) string {
	escaped := strings.ReplaceAll(s, "\"", "'")
	quoted := "\"" + escaped + "\""
	if delim {
		return quoted + statsDelim
	}
	return quoted
}

func intField(v int) string {
	if v < 0 {
		return "NA"
	}
	return strconv.Itoa(v)
}

// EmitStatistics appends both sinks under outDir, prefixed. A header is
// written only when a sink is empty. An unwritable path is an error for the
// caller to log; it must not abort the pass.
func (s *InstrumentationStats) EmitStatistics(outDir, prefix string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(outDir); err != nil {
		return ex.Wrapf(err, "statistics output path invalid: %s", outDir)
	}

	funPath := filepath.Join(outDir, prefix+"_"+funStatsFileName)
	err := appendStats(funPath, funStatsHeader, func(sb *strings.Builder) {
		for _, entry := range s.functions {
			sb.WriteString(escapeAndDelim(entry.ModuleName, true))
			sb.WriteString(escapeAndDelim(entry.FunctionName, true))
			sb.WriteString(escapeAndDelim(entry.ReadableName, true))
			sb.WriteString(escapeAndDelim(intField(entry.InstructionCount), true))
			sb.WriteString(escapeAndDelim(intField(entry.ParameterCount), true))
			sb.WriteString(escapeAndDelim(entry.TypeSerialised, true))
			sb.WriteString(escapeAndDelim(entry.CanInstr, true))
			sb.WriteString(escapeAndDelim(entry.ShouldInstr, false))
			sb.WriteString("\n")
		}
	})
	if err != nil {
		return err
	}

	structPath := filepath.Join(outDir, prefix+"_"+namedStructStatsFileName)
	return appendStats(structPath, namedStructStatsHeader, func(sb *strings.Builder) {
		for _, entry := range s.structs {
			sb.WriteString(escapeAndDelim(entry.ModuleName, true))
			sb.WriteString(escapeAndDelim(entry.StructName, true))
			sb.WriteString(escapeAndDelim(entry.SerialisedType, true))
			sb.WriteString(escapeAndDelim(entry.IRName, true))
			sb.WriteString(escapeAndDelim(entry.Extra, false))
			sb.WriteString("\n")
		}
	})
}

func appendStats(path, header string, write func(*strings.Builder)) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return ex.Wrapf(err, "failed to open statistics file %s", path)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return ex.Wrapf(err, "failed to stat statistics file %s", path)
	}
	var sb strings.Builder
	if info.Size() == 0 {
		sb.WriteString(header)
		sb.WriteString("\n")
	}
	write(&sb)
	if _, err := file.WriteString(sb.String()); err != nil {
		return ex.Wrapf(err, "failed to write statistics file %s", path)
	}
	return nil
}
