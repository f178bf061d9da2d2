// Copyright The Augmentum Authors
// SPDX-License-Identifier: Apache-2.0

package util

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/augmentum-project/augmentum-go/tool/ex"
)

func IsGoFile(path string) bool {
	return strings.HasSuffix(strings.ToLower(path), ".go")
}

func IsGoTestFile(path string) bool {
	return strings.HasSuffix(strings.ToLower(path), "_test.go")
}

func IsYamlFile(path string) bool {
	return strings.HasSuffix(strings.ToLower(path), ".yaml") ||
		strings.HasSuffix(strings.ToLower(path), ".yml")
}

// ListFiles returns the full paths of the regular files directly under dir.
func ListFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, ex.Wrapf(err, "failed to list files in %s", dir)
	}
	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	return files, nil
}

// PathExists reports whether path names an existing file or directory.
func PathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
