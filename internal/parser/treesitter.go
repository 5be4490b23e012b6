package parser

import (
	"fmt"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// Engine parses source with tree-sitter grammars resolved through a
// GrammarLoader, normalizing raw node kinds to the canonical NodeType enum.
type Engine struct {
	grammars *GrammarLoader
}

// NewEngine returns an Engine backed by loader.
func NewEngine(loader *GrammarLoader) *Engine {
	return &Engine{grammars: loader}
}

// Parse parses source with the grammar for language. A grammar load
// failure is returned as an error, never a panic — the caller demotes the
// file to fallback chunking (spec.md §4.2).
func (e *Engine) Parse(source []byte, language string) (*Tree, error) {
	lang, err := e.grammars.Load(language)
	if err != nil {
		return nil, err
	}

	p := sitter.NewParser()
	defer p.Close()
	if err := p.SetLanguage(lang); err != nil {
		return nil, fmt.Errorf("failed to set language %s: %w", language, err)
	}

	tree := p.Parse(source, nil)
	if tree == nil {
		return nil, fmt.Errorf("tree-sitter returned no parse tree for language %s", language)
	}
	defer tree.Close()

	root := tree.RootNode()
	lines := strings.Split(string(source), "\n")

	out := &Tree{Language: language, Source: source}
	for i := 0; i < int(root.ChildCount()); i++ {
		child := root.Child(uint(i))
		if child == nil {
			continue
		}
		kind := child.Kind()

		switch {
		case kindImport[kind]:
			out.ImportLines = append(out.ImportLines, nodeText(child, source))
			continue
		case kindTopLevelValue[kind] && spansMultipleLines(child):
			out.TopLevelValueLines = append(out.TopLevelValueLines, nodeText(child, source))
			continue
		}

		node := classifyNode(child, source, lines, nil)
		if node != nil {
			out.Nodes = append(out.Nodes, node)
		}
	}

	return out, nil
}

// classifyNode normalizes one raw node, recursing into a class/struct/impl
// body to emit one child ParsedNode per method. scope is the dotted-path
// prefix inherited from the enclosing declaration, if any.
func classifyNode(n *sitter.Node, source []byte, lines []string, scope []string) *ParsedNode {
	kind := n.Kind()

	if kind == "export_statement" {
		// Unwrap and normalize the exported declaration itself; the export
		// marker is reflected via isExported in C9, not as its own node.
		for i := 0; i < int(n.ChildCount()); i++ {
			inner := classifyNode(n.Child(uint(i)), source, lines, scope)
			if inner != nil {
				return inner
			}
		}
		return nil
	}

	canonical := classifyTopLevel(kind)
	if canonical == "" {
		return nil
	}

	name := nodeName(n, source)
	fullScope := append(append([]string{}, scope...), name)
	node := &ParsedNode{
		Type:        canonical,
		Name:        name,
		StartLine:   int(n.StartPosition().Row) + 1,
		EndLine:     int(n.EndPosition().Row) + 1,
		StartColumn: int(n.StartPosition().Column),
		EndColumn:   int(n.EndPosition().Column),
		Text:        nodeText(n, source),
		Docstring:   leadingDocstring(n, source, lines),
		Scope:       fullScope,
	}

	if isClassLike(kind) {
		node.Children = extractMethods(n, source, lines, fullScope)
	}

	return node
}

// extractMethods walks a class/struct/impl body and returns one NodeMethod
// ParsedNode per function-like member.
func extractMethods(classNode *sitter.Node, source []byte, lines []string, scope []string) []*ParsedNode {
	body := findChildByType(classNode, "class_body")
	if body == nil {
		body = findChildByType(classNode, "declaration_list") // rust impl_item
	}
	if body == nil {
		body = findChildByType(classNode, "body")
	}
	if body == nil {
		body = classNode
	}

	var methods []*ParsedNode
	for i := 0; i < int(body.ChildCount()); i++ {
		member := body.Child(uint(i))
		if member == nil || !isFunctionLike(member.Kind()) {
			continue
		}
		name := nodeName(member, source)
		methodScope := append(append([]string{}, scope...), name)
		methods = append(methods, &ParsedNode{
			Type:        NodeMethod,
			Name:        name,
			StartLine:   int(member.StartPosition().Row) + 1,
			EndLine:     int(member.EndPosition().Row) + 1,
			StartColumn: int(member.StartPosition().Column),
			EndColumn:   int(member.EndPosition().Column),
			Text:        nodeText(member, source),
			Docstring:   leadingDocstring(member, source, lines),
			Scope:       methodScope,
		})
	}
	return methods
}

// nodeName returns the node's "name" field text, or "" if it has none
// (anonymous declarations, e.g. a default-exported class expression).
func nodeName(n *sitter.Node, source []byte) string {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return ""
	}
	return nodeText(nameNode, source)
}

// leadingDocstring captures the comment block immediately preceding n, or
// for Python-style languages, the first statement of n's body if it is a
// bare string expression.
func leadingDocstring(n *sitter.Node, source []byte, lines []string) string {
	prev := n.PrevSibling()
	if prev != nil && (prev.Kind() == "comment" || prev.Kind() == "line_comment" || prev.Kind() == "block_comment") {
		if adjacentLines(prev, n) {
			return nodeText(prev, source)
		}
	}

	body := findChildByType(n, "block")
	if body == nil {
		return ""
	}
	if first := body.Child(0); first != nil {
		for i := 0; i < int(body.ChildCount()); i++ {
			stmt := body.Child(uint(i))
			if stmt.Kind() == "expression_statement" {
				if str := findChildByType(stmt, "string"); str != nil {
					return nodeText(str, source)
				}
				break
			}
		}
		_ = first
	}
	return ""
}

func adjacentLines(a, b *sitter.Node) bool {
	return int(b.StartPosition().Row)-int(a.EndPosition().Row) <= 1
}

func spansMultipleLines(n *sitter.Node) bool {
	return n.EndPosition().Row > n.StartPosition().Row
}

func nodeText(n *sitter.Node, source []byte) string {
	if n == nil {
		return ""
	}
	return string(source[n.StartByte():n.EndByte()])
}

func findChildByType(n *sitter.Node, kind string) *sitter.Node {
	if n == nil {
		return nil
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(uint(i))
		if child != nil && child.Kind() == kind {
			return child
		}
	}
	return nil
}
