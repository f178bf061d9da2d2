// Copyright The Augmentum Authors
// SPDX-License-Identifier: Apache-2.0

package predicate

import (
	"bufio"
	"os"
	"strings"

	"github.com/augmentum-project/augmentum-go/tool/ex"
)

const targetDelimiter = ";"

// Targeted answers set membership over an explicit allow-list parsed from a
// two-column record file: module path, then symbol, separated by ";". The
// first line is a header and is skipped.
type Targeted struct {
	modules   map[string]struct{}
	functions map[string]struct{}
}

// NewTargeted parses the target file. A missing file is an error; the
// caller decided to restrict instrumentation, so an empty predicate would
// silently disable it.
func NewTargeted(path string) (*Targeted, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, ex.Wrapf(err, "failed to open target functions file %s", path)
	}
	defer file.Close()

	t := &Targeted{
		modules:   make(map[string]struct{}),
		functions: make(map[string]struct{}),
	}
	scanner := bufio.NewScanner(file)
	header := true
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if header {
			header = false
			continue
		}
		if line == "" {
			continue
		}
		fields := strings.Split(line, targetDelimiter)
		if len(fields) > 0 && fields[0] != "" {
			t.modules[unquoteField(fields[0])] = struct{}{}
		}
		if len(fields) > 1 && fields[1] != "" {
			t.functions[unquoteField(fields[1])] = struct{}{}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, ex.Wrapf(err, "failed to read target functions file %s", path)
	}
	return t, nil
}

func unquoteField(s string) string {
	return strings.Trim(s, "\"")
}

func (t *Targeted) Module(m ModuleInfo) bool {
	_, ok := t.modules[m.Path]
	return ok
}

func (t *Targeted) Function(f FuncInfo) bool {
	if _, ok := t.functions[f.Symbol]; ok {
		return true
	}
	_, ok := t.functions[f.Name]
	return ok
}

func (t *Targeted) DecisionInfo(m ModuleInfo, f FuncInfo) string {
	if !t.Module(m) {
		return DecisionNotModule
	}
	if t.Function(f) {
		return DecisionInstrument
	}
	return "not_targeted"
}
