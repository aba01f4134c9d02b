// Package ignore filters scan paths against exclusion patterns before
// they reach the extractor. Defaults cover build, version-control, and
// dependency-cache directories; user patterns are appended on top.
package ignore

import (
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultPatterns are always excluded.
var DefaultPatterns = []string{
	"__pycache__",
	".git",
	"venv",
	".venv",
	"node_modules",
	".pytest_cache",
	"build",
	"dist",
	".vscode",
	".vs",
}

// Matcher applies default and user-provided exclusion patterns to
// slash-separated paths relative to the scan root.
type Matcher struct {
	patterns []string
}

// NewMatcher builds a matcher from user patterns appended to the
// defaults. Blank lines and comments are dropped.
func NewMatcher(userPatterns []string) *Matcher {
	all := make([]string, 0, len(DefaultPatterns)+len(userPatterns))
	for _, p := range append(append([]string{}, DefaultPatterns...), userPatterns...) {
		p = strings.TrimSpace(p)
		if p == "" || strings.HasPrefix(p, "#") {
			continue
		}
		p = strings.TrimSuffix(p, "/")
		p = normalizePath(p)
		if p != "" {
			all = append(all, p)
		}
	}
	return &Matcher{patterns: all}
}

// Patterns returns the effective pattern list in match order.
func (m *Matcher) Patterns() []string {
	return append([]string{}, m.patterns...)
}

// ShouldIgnore reports whether relPath is excluded. Directories are
// matched too so the walker can skip whole subtrees.
func (m *Matcher) ShouldIgnore(relPath string, isDir bool) bool {
	relPath = normalizePath(relPath)
	if relPath == "" || relPath == "." {
		return false
	}
	for _, pattern := range m.patterns {
		if matchPattern(pattern, relPath) {
			return true
		}
	}
	return false
}

// matchPattern applies one pattern. Bare names match any path segment;
// glob patterns match the full relative path, the basename, and any
// path suffix, mirroring gitignore-style behavior.
func matchPattern(pattern, relPath string) bool {
	if !strings.ContainsAny(pattern, "*?[{") && !strings.Contains(pattern, "/") {
		for _, segment := range strings.Split(relPath, "/") {
			if segment == pattern {
				return true
			}
		}
		return false
	}

	if ok, err := doublestar.Match(pattern, relPath); err == nil && ok {
		return true
	}
	if !strings.Contains(pattern, "/") {
		if ok, err := doublestar.Match(pattern, path.Base(relPath)); err == nil && ok {
			return true
		}
	}
	if ok, err := doublestar.Match("**/"+pattern, relPath); err == nil && ok {
		return true
	}
	return false
}

func normalizePath(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	p = strings.TrimPrefix(p, "./")
	p = strings.TrimPrefix(p, "/")
	return p
}
