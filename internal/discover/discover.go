// Package discover locates Python source files under a scan root,
// honoring the exclusion matcher and the recursive flag.
package discover

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hoard-dev/hoard/internal/ignore"
)

// PythonFiles returns the Python source files under root, as absolute
// paths in deterministic sorted order. When recursive is false only the
// top level of root is considered. Excluded directories are pruned
// without descending; unreadable entries are skipped rather than
// aborting the walk.
func PythonFiles(root string, recursive bool, matcher *ignore.Matcher) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("scan root: %w", err)
	}
	if !info.IsDir() {
		if isPythonFile(root) {
			abs, err := filepath.Abs(root)
			if err != nil {
				return nil, err
			}
			return []string{abs}, nil
		}
		return nil, fmt.Errorf("scan root %s is not a directory or Python file", root)
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	var files []string
	walkErr := filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Permission errors and vanished entries are skipped,
			// except on the root itself.
			if path == absRoot {
				return err
			}
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		rel, relErr := filepath.Rel(absRoot, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if path == absRoot {
				return nil
			}
			if !recursive || matcher.ShouldIgnore(rel, true) {
				return fs.SkipDir
			}
			return nil
		}

		if !isPythonFile(path) {
			return nil
		}
		if matcher.ShouldIgnore(rel, false) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}

	sort.Strings(files)
	return files, nil
}

func isPythonFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".py" || ext == ".pyw"
}
