// Copyright The Augmentum Authors
// SPDX-License-Identifier: Apache-2.0

// Package pkgload expands package patterns into the directories the pass
// rewrites, using the go/packages API.
package pkgload

import (
	"context"
	"os"
	"path/filepath"

	"golang.org/x/tools/go/packages"

	"github.com/augmentum-project/augmentum-go/tool/ex"
)

// Target is one package the pass will process.
type Target struct {
	ImportPath string
	Dir        string
}

// LoadPackages wraps packages.Load with context.
func LoadPackages(ctx context.Context, mode packages.LoadMode, patterns ...string) ([]*packages.Package, error) {
	cfg := &packages.Config{
		Mode:    mode,
		Context: ctx,
	}
	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		return nil, ex.Wrapf(err, "loading packages %v", patterns)
	}
	return pkgs, nil
}

// ExpandPatterns resolves package patterns ("./...", import paths, or plain
// directories) to targets. A pattern that is already a directory on disk
// bypasses the loader so the tool also works outside module roots.
func ExpandPatterns(ctx context.Context, patterns ...string) ([]Target, error) {
	var targets []Target
	var loaderPatterns []string
	for _, pattern := range patterns {
		if isDir(pattern) {
			abs, err := filepath.Abs(pattern)
			if err != nil {
				return nil, ex.Wrap(err)
			}
			targets = append(targets, Target{Dir: abs})
			continue
		}
		loaderPatterns = append(loaderPatterns, pattern)
	}
	if len(loaderPatterns) == 0 {
		return targets, nil
	}

	pkgs, err := LoadPackages(ctx, packages.NeedName|packages.NeedFiles, loaderPatterns...)
	if err != nil {
		return nil, err
	}
	for _, pkg := range pkgs {
		if len(pkg.Errors) > 0 {
			return nil, ex.Newf("loading package %q: %v", pkg.PkgPath, pkg.Errors[0])
		}
		if len(pkg.GoFiles) == 0 {
			continue
		}
		targets = append(targets, Target{
			ImportPath: pkg.PkgPath,
			Dir:        filepath.Dir(pkg.GoFiles[0]),
		})
	}
	return targets, nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
