package pyextract

import "fmt"

// Kind classifies a qualifying top-level definition.
type Kind int

const (
	KindFunction Kind = iota
	KindAsyncFunction
	KindGeneratorFunction
	KindClass
)

func (k Kind) String() string {
	switch k {
	case KindFunction:
		return "function"
	case KindAsyncFunction:
		return "async_function"
	case KindGeneratorFunction:
		return "generator_function"
	case KindClass:
		return "class"
	default:
		return "unknown"
	}
}

// Record is the normalized representation of one qualifying callable:
// a module-level function or class whose first body statement is a
// non-empty docstring.
type Record struct {
	Kind       Kind
	Name       string
	Signature  string // e.g. "def read_json(path: str) -> dict:"
	Docstring  string // dedented, surrounding quotes removed
	BodySource string // verbatim span including decorators and body
	Path       string // provenance only, never part of identity
	StartLine  int
	EndLine    int
}

// SkipReason explains why a considered definition was rejected.
type SkipReason string

const (
	SkipNotStandalone SkipReason = "not_standalone"
	SkipNoDocstring   SkipReason = "no_docstring"
)

// Skip records one rejected definition.
type Skip struct {
	Name   string
	Reason SkipReason
	Line   int
}

// FileResult holds every accepted record and every rejection for one file.
type FileResult struct {
	Path    string
	Records []Record
	Skips   []Skip
}

// ParseError marks a file the grammar could not parse. It aborts
// extraction for that file only.
type ParseError struct {
	Path string
	Line int
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("syntax error in %s: line %d", e.Path, e.Line)
	}
	return fmt.Sprintf("syntax error in %s", e.Path)
}
