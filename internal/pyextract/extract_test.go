package pyextract

import (
	"errors"
	"strings"
	"testing"
)

func extract(t *testing.T, src string) *FileResult {
	t.Helper()
	result, err := New().Extract("test.py", []byte(src))
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	return result
}

func findRecord(t *testing.T, result *FileResult, name string) Record {
	t.Helper()
	for _, rec := range result.Records {
		if rec.Name == name {
			return rec
		}
	}
	t.Fatalf("record %q not found in %+v", name, result.Records)
	return Record{}
}

func findSkip(t *testing.T, result *FileResult, name string) Skip {
	t.Helper()
	for _, skip := range result.Skips {
		if skip.Name == name {
			return skip
		}
	}
	t.Fatalf("skip %q not found in %+v", name, result.Skips)
	return Skip{}
}

func TestExtractDocumentedFunction(t *testing.T) {
	src := `import json


def read_json(path: str) -> dict:
    """Read a JSON file.

    Returns the decoded object.
    """
    with open(path) as f:
        return json.load(f)
`
	result := extract(t, src)
	if len(result.Records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(result.Records))
	}

	rec := result.Records[0]
	if rec.Kind != KindFunction {
		t.Fatalf("expected function kind, got %s", rec.Kind)
	}
	if rec.Name != "read_json" {
		t.Fatalf("expected read_json, got %s", rec.Name)
	}
	if rec.Signature != "def read_json(path: str) -> dict:" {
		t.Fatalf("unexpected signature: %q", rec.Signature)
	}
	want := "Read a JSON file.\n\nReturns the decoded object."
	if rec.Docstring != want {
		t.Fatalf("unexpected docstring: %q", rec.Docstring)
	}
	if rec.StartLine != 4 {
		t.Fatalf("expected start line 4, got %d", rec.StartLine)
	}
	if !strings.HasPrefix(rec.BodySource, "def read_json") {
		t.Fatalf("body must start at the def: %q", rec.BodySource)
	}
	if !strings.Contains(rec.BodySource, "json.load(f)") {
		t.Fatalf("body must include the full span: %q", rec.BodySource)
	}
}

func TestExtractKinds(t *testing.T) {
	src := `def plain():
    """Plain."""
    return 1


async def fetch(url):
    """Fetch."""
    return url


def stream(n):
    """Stream."""
    for i in range(n):
        yield i


async def aio_stream(n):
    """Async stream."""
    yield n


class Parser:
    """Parse."""

    def run(self):
        return None
`
	result := extract(t, src)

	cases := []struct {
		name string
		kind Kind
	}{
		{name: "plain", kind: KindFunction},
		{name: "fetch", kind: KindAsyncFunction},
		{name: "stream", kind: KindGeneratorFunction},
		{name: "aio_stream", kind: KindAsyncFunction},
		{name: "Parser", kind: KindClass},
	}
	for _, tc := range cases {
		if rec := findRecord(t, result, tc.name); rec.Kind != tc.kind {
			t.Fatalf("%s: expected kind %s, got %s", tc.name, tc.kind, rec.Kind)
		}
	}

	if rec := findRecord(t, result, "Parser"); rec.Signature != "class Parser:" {
		t.Fatalf("unexpected class signature: %q", rec.Signature)
	}
	if rec := findRecord(t, result, "fetch"); rec.Signature != "async def fetch(url):" {
		t.Fatalf("unexpected async signature: %q", rec.Signature)
	}
}

func TestClassSignatureWithBases(t *testing.T) {
	src := `class JSONParser(BaseParser, Mixin):
    """Parse JSON."""
    pass
`
	rec := findRecord(t, extract(t, src), "JSONParser")
	if rec.Signature != "class JSONParser(BaseParser, Mixin):" {
		t.Fatalf("unexpected signature: %q", rec.Signature)
	}
}

func TestStandaloneFilter(t *testing.T) {
	src := `class Owner:
    """Owner."""

    def method(self):
        """Documented but not standalone."""
        return 1


def outer():
    """Outer."""

    def inner():
        """Nested."""
        return 2

    return inner


square = lambda x: x * x

if True:
    def conditional():
        """Defined under a conditional."""
        return 3
`
	result := extract(t, src)

	for _, name := range []string{"method", "inner", "square", "conditional"} {
		skip := findSkip(t, result, name)
		if skip.Reason != SkipNotStandalone {
			t.Fatalf("%s: expected not_standalone, got %s", name, skip.Reason)
		}
	}

	if len(result.Records) != 2 {
		t.Fatalf("expected Owner and outer only, got %+v", result.Records)
	}
	findRecord(t, result, "Owner")
	findRecord(t, result, "outer")
}

func TestDocstringGate(t *testing.T) {
	src := `def no_doc():
    return 1


def comment_only():
    # not a docstring
    return 2


def blank_doc():
    """   """
    return 3


def late_doc():
    x = 1
    """Too late."""
    return x


def fstring_doc():
    f"""Formatted {late_doc}."""
    return 4


def fstring_plain():
    f"Formatted but still not a constant."
    return 5
`
	result := extract(t, src)

	if len(result.Records) != 0 {
		t.Fatalf("expected no records, got %+v", result.Records)
	}
	for _, name := range []string{"no_doc", "comment_only", "blank_doc", "late_doc", "fstring_doc", "fstring_plain"} {
		skip := findSkip(t, result, name)
		if skip.Reason != SkipNoDocstring {
			t.Fatalf("%s: expected no_docstring, got %s", name, skip.Reason)
		}
	}
}

func TestDocstringForms(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "single quotes",
			src:  "def f():\n    'Short.'\n    return 1\n",
			want: "Short.",
		},
		{
			name: "double quotes",
			src:  "def f():\n    \"Short.\"\n    return 1\n",
			want: "Short.",
		},
		{
			name: "raw prefix",
			src:  "def f():\n    r\"\"\"Raw \\d+ pattern.\"\"\"\n    return 1\n",
			want: "Raw \\d+ pattern.",
		},
		{
			name: "indented block dedents",
			src:  "def f():\n    \"\"\"Head.\n\n    Detail line.\n    \"\"\"\n    return 1\n",
			want: "Head.\n\nDetail line.",
		},
		{
			name: "nested indent kept relative",
			src:  "def f():\n    \"\"\"Top.\n\n    Items:\n        - one\n    \"\"\"\n    return 1\n",
			want: "Top.\n\nItems:\n    - one",
		},
		{
			name: "concatenated constants",
			src:  "def f():\n    \"Part one. \" \"Part two.\"\n    return 1\n",
			want: "Part one. Part two.",
		},
		{
			name: "parenthesized concatenation",
			src:  "def f():\n    (\"Part one. \"\n     \"Part two.\")\n    return 1\n",
			want: "Part one. Part two.",
		},
	}

	for _, tc := range cases {
		result := extract(t, tc.src)
		if len(result.Records) != 1 {
			t.Fatalf("%s: expected 1 record, got %+v", tc.name, result)
		}
		if got := result.Records[0].Docstring; got != tc.want {
			t.Fatalf("%s: expected %q, got %q", tc.name, tc.want, got)
		}
	}
}

func TestDecoratedDefinition(t *testing.T) {
	src := `import functools


@functools.cache
def memoized(n):
    """Cache results."""
    return n * n
`
	result := extract(t, src)
	rec := findRecord(t, result, "memoized")

	if !strings.HasPrefix(rec.BodySource, "@functools.cache") {
		t.Fatalf("span must include decorators: %q", rec.BodySource)
	}
	if rec.StartLine != 4 {
		t.Fatalf("expected start at decorator line 4, got %d", rec.StartLine)
	}
	if rec.Signature != "def memoized(n):" {
		t.Fatalf("unexpected signature: %q", rec.Signature)
	}
}

func TestNestedGeneratorDoesNotLeak(t *testing.T) {
	src := `def wrapper(n):
    """Wraps a generator."""

    def gen():
        yield n

    return gen
`
	rec := findRecord(t, extract(t, src), "wrapper")
	if rec.Kind != KindFunction {
		t.Fatalf("nested yield must not make the outer function a generator, got %s", rec.Kind)
	}
}

func TestParseError(t *testing.T) {
	_, err := New().Extract("broken.py", []byte("def broken(:\n    pass\n"))
	if err == nil {
		t.Fatal("expected parse error")
	}
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected *ParseError, got %T", err)
	}
	if parseErr.Path != "broken.py" {
		t.Fatalf("expected path in error, got %s", parseErr.Path)
	}
}

func TestEmptyFile(t *testing.T) {
	result := extract(t, "")
	if len(result.Records) != 0 || len(result.Skips) != 0 {
		t.Fatalf("expected empty result, got %+v", result)
	}

	result = extract(t, "   \n\n  \n")
	if len(result.Records) != 0 || len(result.Skips) != 0 {
		t.Fatalf("expected empty result for whitespace file, got %+v", result)
	}
}
