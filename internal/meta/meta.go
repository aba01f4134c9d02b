// Package meta derives the searchable attributes stored alongside a
// catalog entry: test detection, path-derived tags, and provenance paths.
package meta

import (
	"path/filepath"
	"sort"
	"strings"
)

// Directories that carry no categorization signal.
var noiseDirs = map[string]bool{
	"src": true, "lib": true, "utils": true, "common": true, "shared": true,
	"core": true, "base": true, "main": true, "app": true, "code": true,
	"source": true, "python": true, "py": true,
}

var stopWords = map[string]bool{
	"the": true, "and": true, "or": true, "a": true, "an": true, "is": true,
	"to": true, "of": true, "in": true, "for": true, "on": true, "with": true,
	"at": true, "by": true, "as": true, "this": true, "that": true, "it": true,
	"from": true, "not": true, "all": true, "new": true, "old": true,
}

// IsTest reports whether a callable looks like test code, by name
// convention or by living under a test directory.
func IsTest(name, relPath string) bool {
	if strings.HasPrefix(name, "test_") || strings.HasSuffix(name, "_test") {
		return true
	}
	for _, part := range strings.Split(filepath.ToSlash(relPath), "/") {
		if part == "test" || part == "tests" {
			return true
		}
	}
	return false
}

// Tags derives categorization tags from the path components of relPath:
// lower-cased segments minus noise directories, stop words, and hidden
// entries, deduplicated and sorted.
func Tags(relPath string) []string {
	parts := strings.Split(filepath.ToSlash(relPath), "/")
	seen := make(map[string]bool, len(parts))
	tags := make([]string, 0, len(parts))
	for _, part := range parts {
		tag := strings.ToLower(strings.Trim(part, "_"))
		tag = strings.TrimSuffix(tag, ".py")
		tag = strings.TrimSuffix(tag, ".pyw")
		if tag == "" || strings.HasPrefix(tag, ".") {
			continue
		}
		if noiseDirs[tag] || stopWords[tag] || seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// RelPath returns path relative to root with forward slashes, falling
// back to the input when it does not sit under root.
func RelPath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}
