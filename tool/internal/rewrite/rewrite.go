// Copyright The Augmentum Authors
// SPDX-License-Identifier: Apache-2.0

package rewrite

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/dave/dst"
	"github.com/dave/dst/decorator"
	"golang.org/x/mod/modfile"
	"golang.org/x/sync/errgroup"
	"golang.org/x/tools/imports"

	"github.com/augmentum-project/augmentum-go/tool/ex"
	"github.com/augmentum-project/augmentum-go/tool/internal/ast"
	"github.com/augmentum-project/augmentum-go/tool/internal/predicate"
	"github.com/augmentum-project/augmentum-go/tool/internal/stats"
	"github.com/augmentum-project/augmentum-go/tool/util"
)

// RuntimeImportPath is where generated code finds the runtime's internal ABI.
const RuntimeImportPath = "github.com/augmentum-project/augmentum-go/sdk/augmentum"

const runtimePkgName = "augmentum"

// Eligibility tags. A function must be a definition, non-variadic and,
// because the dispatch slot is a plain function-typed var, neither a method
// nor generic nor multi-valued.
const (
	CanInstrument     = "instrument"
	CanNotDecl        = "not_decl"
	CanNotVarargs     = "not_varargs"
	CanNotMethod      = "not_method"
	CanNotGeneric     = "not_generic"
	CanNotMultiReturn = "not_multi_return"
)

func canBeInstrumented(decl *dst.FuncDecl) string {
	if decl.Body == nil {
		return CanNotDecl
	}
	if ast.HasReceiver(decl) {
		return CanNotMethod
	}
	if decl.Type.TypeParams != nil && len(decl.Type.TypeParams.List) > 0 {
		return CanNotGeneric
	}
	for _, param := range decl.Type.Params.List {
		if ast.IsEllipsis(param.Type) {
			return CanNotVarargs
		}
	}
	if decl.Type.Results != nil && countFields(decl.Type.Results) > 1 {
		return CanNotMultiReturn
	}
	return CanInstrument
}

func countFields(list *dst.FieldList) int {
	n := 0
	for _, field := range list.List {
		n += max(len(field.Names), 1)
	}
	return n
}

// Options configure one rewriting run over a package.
type Options struct {
	// ModulePath identifies the instrumented package; extension points
	// register under it. Derived from go.mod when empty.
	ModulePath string
	// RuntimePackage overrides the runtime import path, for tests.
	RuntimePackage string
	// Predicate decides which eligible functions are actually rewritten.
	// Defaults to predicate.Always.
	Predicate predicate.ShouldInstrument
	// Stats, when non-nil, records rewrite decisions and struct shapes.
	Stats *stats.InstrumentationStats
	// DryRun collects full statistics and performs no transformation.
	DryRun bool
	// EmitDir receives the transformed sources. Defaults to the
	// transformed directory under the build temp dir.
	EmitDir string
}

// Summary reports what one run did.
type Summary struct {
	Module      string
	Files       int
	Functions   int
	Transformed int
	OutDir      string
}

// Rewriter transforms the functions of a single package.
type Rewriter struct {
	opts  Options
	types *typeIndex
}

// New returns a Rewriter for a package whose type declarations are found in
// roots.
func New(opts Options, roots ...*dst.File) *Rewriter {
	if opts.Predicate == nil {
		opts.Predicate = predicate.Always{}
	}
	if opts.RuntimePackage == "" {
		opts.RuntimePackage = RuntimeImportPath
	}
	types := newTypeIndex(opts.ModulePath)
	for _, root := range roots {
		types.addFile(root)
	}
	return &Rewriter{opts: opts, types: types}
}

// RewriteFile instruments every eligible function declared in root and
// returns how many function declarations it saw and how many were
// transformed. The caller owns emission.
func (r *Rewriter) RewriteFile(ctx context.Context, root *dst.File) (int, int) {
	logger := util.LoggerFromContext(ctx)
	module := predicate.ModuleInfo{Path: r.opts.ModulePath}
	if !r.opts.Predicate.Module(module) {
		return 0, 0
	}
	// Snapshot the declarations: transforming appends to root.Decls and
	// generated functions must not be revisited.
	snapshot := make([]dst.Decl, len(root.Decls))
	copy(snapshot, root.Decls)

	seen, transformed := 0, 0
	for _, decl := range snapshot {
		fnDecl, ok := decl.(*dst.FuncDecl)
		if !ok {
			continue
		}
		seen++
		canTag := canBeInstrumented(fnDecl)
		info := predicate.FuncInfo{
			Module: r.opts.ModulePath,
			Name:   fnDecl.Name.Name,
			Symbol: r.opts.ModulePath + "." + fnDecl.Name.Name,
			Decl:   fnDecl,
		}
		if r.opts.DryRun {
			shouldTag := r.opts.Predicate.DecisionInfo(module, info)
			r.recordFunction(fnDecl, canTag, shouldTag)
			continue
		}
		if canTag != CanInstrument || !r.opts.Predicate.Function(info) {
			logger.Debug("skipping function", "function", info.Symbol, "can", canTag)
			continue
		}
		// Record before transforming; the entry body is about to shrink
		// to the dispatch call.
		r.recordFunction(fnDecl, canTag, r.opts.Predicate.DecisionInfo(module, info))
		fr := &funcRewriter{rw: r, root: root, decl: fnDecl}
		fr.transform()
		transformed++
		logger.Debug("instrumented function", "function", info.Symbol)
	}
	if transformed > 0 {
		ensureImport(root, "", "unsafe")
		ensureImport(root, "", r.opts.RuntimePackage)
	}
	return seen, transformed
}

func (r *Rewriter) recordFunction(decl *dst.FuncDecl, canTag, shouldTag string) {
	if r.opts.Stats == nil {
		return
	}
	r.opts.Stats.RecordFunctionStats(r.opts.ModulePath, decl, r.types, canTag, shouldTag)
}

// ensureImport adds an import unless the file already has it. Duplicated
// blocks are harmless; the emitter runs the result through goimports.
func ensureImport(root *dst.File, alias, path string) {
	for _, decl := range root.Decls {
		genDecl, ok := decl.(*dst.GenDecl)
		if !ok {
			continue
		}
		for _, spec := range genDecl.Specs {
			importSpec, ok := spec.(*dst.ImportSpec)
			if !ok {
				continue
			}
			if importSpec.Path.Value == "\""+path+"\"" {
				return
			}
		}
	}
	root.Decls = append([]dst.Decl{ast.ImportDecl(alias, path)}, root.Decls...)
}

// RewriteDir runs the pass over every non-test Go file of a package
// directory: parse all files, index the package's type declarations,
// transform each file, then write the transformed sources out.
func RewriteDir(ctx context.Context, dir string, opts Options) (*Summary, error) {
	logger := util.LoggerFromContext(ctx)
	if opts.ModulePath == "" {
		opts.ModulePath = resolveModulePath(dir)
	}

	all, err := util.ListFiles(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, file := range all {
		if util.IsGoFile(file) && !util.IsGoTestFile(file) {
			files = append(files, file)
		}
	}
	if len(files) == 0 {
		return nil, ex.Newf("no Go files in %s", dir)
	}

	roots := make([]*dst.File, len(files))
	group, groupCtx := errgroup.WithContext(ctx)
	for i, file := range files {
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			root, err := ast.ParseFile(file)
			if err != nil {
				return err
			}
			roots[i] = root
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	rewriter := New(opts, roots...)
	summary := &Summary{Module: opts.ModulePath, Files: len(files)}
	for _, root := range roots {
		seen, transformed := rewriter.RewriteFile(ctx, root)
		summary.Functions += seen
		summary.Transformed += transformed
	}
	if opts.Stats != nil {
		opts.Stats.RecordNamedStructStats(opts.ModulePath)
	}
	if opts.DryRun || summary.Transformed == 0 {
		return summary, nil
	}

	outDir := opts.EmitDir
	if outDir == "" {
		outDir = util.GetBuildTemp("transformed")
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, ex.Wrapf(err, "failed to create output dir %s", outDir)
	}
	emitGroup, emitCtx := errgroup.WithContext(ctx)
	for i, root := range roots {
		outPath := filepath.Join(outDir, filepath.Base(files[i]))
		emitGroup.Go(func() error {
			if err := emitCtx.Err(); err != nil {
				return err
			}
			return emitFile(outPath, root)
		})
	}
	if err := emitGroup.Wait(); err != nil {
		return nil, err
	}
	summary.OutDir = outDir
	logger.Info("rewrote package",
		"module", summary.Module, "functions", summary.Functions,
		"transformed", summary.Transformed, "out", outDir)
	return summary, nil
}

// emitFile prints the transformed tree and runs it through goimports so the
// injected import declarations end up merged and sorted.
func emitFile(outPath string, root *dst.File) error {
	var buf bytes.Buffer
	restorer := decorator.NewRestorer()
	if err := restorer.Fprint(&buf, root); err != nil {
		return ex.Wrapf(err, "failed to print %s", outPath)
	}
	formatted, err := imports.Process(outPath, buf.Bytes(), nil)
	if err != nil {
		// Emit unformatted rather than losing the transformation.
		formatted = buf.Bytes()
	}
	if err := os.WriteFile(outPath, formatted, 0o644); err != nil {
		return ex.Wrapf(err, "failed to write %s", outPath)
	}
	return nil
}

// resolveModulePath derives the package's import path from the nearest
// go.mod. Falls back to the directory path when the package lives outside a
// module.
func resolveModulePath(dir string) string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return filepath.ToSlash(dir)
	}
	for probe := abs; ; {
		gomod := filepath.Join(probe, "go.mod")
		if data, err := os.ReadFile(gomod); err == nil {
			if mod := modfile.ModulePath(data); mod != "" {
				rel, err := filepath.Rel(probe, abs)
				if err != nil || rel == "." {
					return mod
				}
				return mod + "/" + filepath.ToSlash(rel)
			}
		}
		parent := filepath.Dir(probe)
		if parent == probe {
			break
		}
		probe = parent
	}
	return filepath.ToSlash(strings.TrimPrefix(abs, string(filepath.Separator)))
}
