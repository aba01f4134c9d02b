package pyextract

import (
	"context"
	"os"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// Extractor turns Python source text into callable records. It wraps the
// tree-sitter Python grammar; parse failures surface as *ParseError.
type Extractor struct {
	parser *sitter.Parser
}

// New creates an Extractor. Not safe for concurrent use; create one per
// goroutine when parallelizing across files.
func New() *Extractor {
	p := sitter.NewParser()
	p.SetLanguage(python.GetLanguage())
	return &Extractor{parser: p}
}

// ExtractFile reads and extracts a single source file.
func (e *Extractor) ExtractFile(path string) (*FileResult, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return e.Extract(path, src)
}

// Extract walks the syntax tree of src and returns one Record per
// module-level definition with a docstring, plus one Skip per definition
// that was considered and rejected. Empty files yield an empty result.
func (e *Extractor) Extract(path string, src []byte) (*FileResult, error) {
	result := &FileResult{Path: path}
	if len(strings.TrimSpace(string(src))) == 0 {
		return result, nil
	}

	tree, err := e.parser.ParseCtx(context.Background(), nil, src)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, &ParseError{Path: path, Line: firstErrorLine(root)}
	}

	e.walk(root, src, result)
	return result, nil
}

func (e *Extractor) walk(node *sitter.Node, src []byte, result *FileResult) {
	switch node.Type() {
	case "function_definition", "class_definition":
		if isModuleLevel(node) {
			e.classify(node, src, result)
		} else {
			result.Skips = append(result.Skips, Skip{
				Name:   definitionName(node, src),
				Reason: SkipNotStandalone,
				Line:   line(node),
			})
		}
	case "expression_statement":
		// Module-level `name = lambda ...` is never standalone.
		if isModuleLevel(node) {
			if name, ok := lambdaAssignment(node, src); ok {
				result.Skips = append(result.Skips, Skip{
					Name:   name,
					Reason: SkipNotStandalone,
					Line:   line(node),
				})
			}
		}
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		e.walk(node.Child(i), src, result)
	}
}

// classify turns one module-level definition into a Record or a Skip.
// For decorated definitions the body span starts at the first decorator
// while the docstring check looks inside the inner definition.
func (e *Extractor) classify(def *sitter.Node, src []byte, result *FileResult) {
	span := def
	if p := def.Parent(); p != nil && p.Type() == "decorated_definition" {
		span = p
	}

	name := definitionName(def, src)
	doc, ok := docstring(def, src)
	if !ok {
		result.Skips = append(result.Skips, Skip{
			Name:   name,
			Reason: SkipNoDocstring,
			Line:   line(span),
		})
		return
	}

	var kind Kind
	var sig string
	if def.Type() == "class_definition" {
		kind = KindClass
		sig = buildClassSignature(def, src)
	} else {
		switch {
		case isAsync(def):
			kind = KindAsyncFunction
		case containsYield(def.ChildByFieldName("body")):
			kind = KindGeneratorFunction
		default:
			kind = KindFunction
		}
		sig = buildFunctionSignature(def, src, isAsync(def))
	}

	result.Records = append(result.Records, Record{
		Kind:       kind,
		Name:       name,
		Signature:  sig,
		Docstring:  doc,
		BodySource: span.Content(src),
		Path:       result.Path,
		StartLine:  line(span),
		EndLine:    int(span.EndPoint().Row) + 1,
	})
}

// isModuleLevel reports whether the definition's lexical parent is the
// module itself. Decorated definitions look through their wrapper node.
// Anything nested in a function, class, or conditional body is rejected.
func isModuleLevel(node *sitter.Node) bool {
	parent := node.Parent()
	if parent != nil && parent.Type() == "decorated_definition" {
		parent = parent.Parent()
	}
	return parent != nil && parent.Type() == "module"
}

func isAsync(def *sitter.Node) bool {
	for i := 0; i < int(def.ChildCount()); i++ {
		child := def.Child(i)
		if child.Type() == "async" {
			return true
		}
		if child.Type() == "def" {
			break
		}
	}
	return false
}

// containsYield scans a function body for yield expressions without
// descending into nested scopes: a nested generator does not make the
// outer function one.
func containsYield(body *sitter.Node) bool {
	if body == nil {
		return false
	}
	for i := 0; i < int(body.ChildCount()); i++ {
		child := body.Child(i)
		switch child.Type() {
		case "function_definition", "class_definition", "lambda":
			continue
		case "yield":
			return true
		}
		if containsYield(child) {
			return true
		}
	}
	return false
}

func definitionName(def *sitter.Node, src []byte) string {
	if nameNode := def.ChildByFieldName("name"); nameNode != nil {
		return nameNode.Content(src)
	}
	return ""
}

// lambdaAssignment matches `name = lambda ...` statements and returns the
// assigned name.
func lambdaAssignment(stmt *sitter.Node, src []byte) (string, bool) {
	if stmt.ChildCount() == 0 {
		return "", false
	}
	assign := stmt.Child(0)
	if assign.Type() != "assignment" {
		return "", false
	}
	right := assign.ChildByFieldName("right")
	if right == nil || right.Type() != "lambda" {
		return "", false
	}
	left := assign.ChildByFieldName("left")
	if left == nil || left.Type() != "identifier" {
		return "<lambda>", true
	}
	return left.Content(src), true
}

// docstring returns the cleaned contents of the definition's leading
// string constant. ok is false when the first statement is not a string
// constant or the string is empty or whitespace-only.
func docstring(def *sitter.Node, src []byte) (string, bool) {
	body := def.ChildByFieldName("body")
	if body == nil || body.NamedChildCount() == 0 {
		return "", false
	}
	first := body.NamedChild(0)
	if first.Type() != "expression_statement" || first.ChildCount() == 0 {
		return "", false
	}
	raw, ok := docstringLiteral(first.Child(0), src)
	if !ok {
		return "", false
	}
	doc := cleandoc(raw)
	if strings.TrimSpace(doc) == "" {
		return "", false
	}
	return doc, true
}

// docstringLiteral returns the unquoted text of a docstring expression.
// Plain and implicitly concatenated string constants qualify, matching
// the interpreter's constant-only rule; f-strings are runtime
// expressions, not docstrings.
func docstringLiteral(expr *sitter.Node, src []byte) (string, bool) {
	switch expr.Type() {
	case "string":
		if isFString(expr, src) {
			return "", false
		}
		return stripQuotes(expr.Content(src)), true
	case "concatenated_string":
		var parts strings.Builder
		for i := 0; i < int(expr.NamedChildCount()); i++ {
			part := expr.NamedChild(i)
			if part.Type() != "string" || isFString(part, src) {
				return "", false
			}
			parts.WriteString(stripQuotes(part.Content(src)))
		}
		return parts.String(), true
	case "parenthesized_expression":
		if expr.NamedChildCount() == 1 {
			return docstringLiteral(expr.NamedChild(0), src)
		}
	}
	return "", false
}

// isFString inspects the literal's prefix letters, so f-strings without
// any interpolation are still rejected.
func isFString(node *sitter.Node, src []byte) bool {
	for _, c := range node.Content(src) {
		switch c {
		case 'f', 'F':
			return true
		case '"', '\'':
			return false
		}
	}
	return false
}

// stripQuotes removes a string literal's prefix letters and quotes.
func stripQuotes(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimLeft(s, "rRbBuU")
	for _, q := range []string{`"""`, `'''`} {
		if strings.HasPrefix(s, q) && strings.HasSuffix(s, q) && len(s) >= 2*len(q) {
			return s[3 : len(s)-3]
		}
	}
	for _, q := range []string{`"`, `'`} {
		if strings.HasPrefix(s, q) && strings.HasSuffix(s, q) && len(s) >= 2 {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// cleandoc normalizes docstring text the way the interpreter presents
// __doc__: the first line sits flush against the opening quotes, so the
// dedent margin is computed from the second line onward, and surrounding
// blank lines (including whitespace-only ones) are dropped.
func cleandoc(s string) string {
	lines := strings.Split(s, "\n")
	lines[0] = strings.TrimLeft(lines[0], " \t")

	margin := ""
	found := false
	for _, ln := range lines[1:] {
		if strings.TrimSpace(ln) == "" {
			continue
		}
		indent := ln[:len(ln)-len(strings.TrimLeft(ln, " \t"))]
		if !found {
			margin = indent
			found = true
			continue
		}
		for !strings.HasPrefix(ln, margin) {
			margin = margin[:len(margin)-1]
		}
	}
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "" {
			lines[i] = ""
			continue
		}
		lines[i] = strings.TrimPrefix(lines[i], margin)
	}

	start, end := 0, len(lines)
	for start < end && lines[start] == "" {
		start++
	}
	for end > start && lines[end-1] == "" {
		end--
	}
	return strings.Join(lines[start:end], "\n")
}

func buildFunctionSignature(def *sitter.Node, src []byte, async bool) string {
	sig := "def"
	if async {
		sig = "async def"
	}
	if nameNode := def.ChildByFieldName("name"); nameNode != nil {
		sig += " " + nameNode.Content(src)
	}
	if paramsNode := def.ChildByFieldName("parameters"); paramsNode != nil {
		sig += paramsNode.Content(src)
	}
	if returnNode := def.ChildByFieldName("return_type"); returnNode != nil {
		sig += " -> " + returnNode.Content(src)
	}
	return sig + ":"
}

func buildClassSignature(def *sitter.Node, src []byte) string {
	sig := "class"
	if nameNode := def.ChildByFieldName("name"); nameNode != nil {
		sig += " " + nameNode.Content(src)
	}
	if superclassNode := def.ChildByFieldName("superclasses"); superclassNode != nil {
		sig += superclassNode.Content(src)
	}
	return sig + ":"
}

func line(node *sitter.Node) int {
	return int(node.StartPoint().Row) + 1
}

func firstErrorLine(root *sitter.Node) int {
	found := 0
	var visit func(n *sitter.Node) bool
	visit = func(n *sitter.Node) bool {
		if n.Type() == "ERROR" || n.IsMissing() {
			found = line(n)
			return true
		}
		if !n.HasError() {
			return false
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			if visit(n.Child(i)) {
				return true
			}
		}
		return false
	}
	visit(root)
	return found
}
