package parser

import (
	"go/ast"
	"go/parser"
	"go/token"
	"strings"
)

// ParseGo parses Go source natively with go/parser+go/ast instead of a
// tree-sitter grammar: the standard library already gives an exact,
// dependency-free AST for the one language the engine itself is written
// in, so there is no external grammar artifact to load or fail on.
func ParseGo(source []byte) (*Tree, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "", source, parser.ParseComments)
	if err != nil {
		return nil, err
	}

	lines := strings.Split(string(source), "\n")
	out := &Tree{Language: "go", Source: source}

	for _, imp := range file.Imports {
		start := fset.Position(imp.Pos()).Line
		end := fset.Position(imp.End()).Line
		out.ImportLines = append(out.ImportLines, extractLines(lines, start, end))
	}

	methodsByReceiver := map[string][]*ParsedNode{}

	ast.Inspect(file, func(n ast.Node) bool {
		switch decl := n.(type) {
		case *ast.GenDecl:
			handleGoGenDecl(decl, fset, lines, out)
			return false
		case *ast.FuncDecl:
			node := goFuncToNode(decl, fset, lines)
			if recv := goReceiverType(decl); recv != "" {
				node.Type = NodeMethod
				node.Scope = []string{recv, node.Name}
				methodsByReceiver[recv] = append(methodsByReceiver[recv], node)
			} else {
				out.Nodes = append(out.Nodes, node)
			}
			return false
		}
		return true
	})

	// Attach methods to their receiver type's chunk when one was declared
	// in the same file; otherwise emit them as top-level functions.
	for _, node := range out.Nodes {
		if node.Type == NodeClass || node.Type == NodeTypeAlias {
			if methods, ok := methodsByReceiver[node.Name]; ok {
				node.Children = append(node.Children, methods...)
				delete(methodsByReceiver, node.Name)
			}
		}
	}
	for _, orphanMethods := range methodsByReceiver {
		for _, m := range orphanMethods {
			m.Type = NodeMethod
			out.Nodes = append(out.Nodes, m)
		}
	}

	return out, nil
}

func handleGoGenDecl(decl *ast.GenDecl, fset *token.FileSet, lines []string, out *Tree) {
	for _, spec := range decl.Specs {
		switch s := spec.(type) {
		case *ast.TypeSpec:
			start := fset.Position(decl.Pos()).Line
			end := fset.Position(decl.End()).Line
			nodeType := NodeTypeAlias
			if _, isStruct := s.Type.(*ast.StructType); isStruct {
				nodeType = NodeClass
			}
			if _, isInterface := s.Type.(*ast.InterfaceType); isInterface {
				nodeType = NodeInterface
			}
			out.Nodes = append(out.Nodes, &ParsedNode{
				Type:      nodeType,
				Name:      s.Name.Name,
				StartLine: start,
				EndLine:   end,
				Text:      extractLines(lines, start, end),
				Docstring: commentText(decl.Doc),
				Scope:     []string{s.Name.Name},
			})
		case *ast.ValueSpec:
			start := fset.Position(decl.Pos()).Line
			end := fset.Position(decl.End()).Line
			if end > start {
				out.TopLevelValueLines = append(out.TopLevelValueLines, extractLines(lines, start, end))
			}
		}
	}
}

func goFuncToNode(decl *ast.FuncDecl, fset *token.FileSet, lines []string) *ParsedNode {
	start := fset.Position(decl.Pos()).Line
	end := fset.Position(decl.End()).Line
	return &ParsedNode{
		Type:      NodeFunction,
		Name:      decl.Name.Name,
		StartLine: start,
		EndLine:   end,
		Text:      extractLines(lines, start, end),
		Docstring: commentText(decl.Doc),
		Scope:     []string{decl.Name.Name},
	}
}

// goReceiverType returns the base type name of decl's receiver, or "" for
// a plain function.
func goReceiverType(decl *ast.FuncDecl) string {
	if decl.Recv == nil || len(decl.Recv.List) == 0 {
		return ""
	}
	expr := decl.Recv.List[0].Type
	if star, ok := expr.(*ast.StarExpr); ok {
		expr = star.X
	}
	if ident, ok := expr.(*ast.Ident); ok {
		return ident.Name
	}
	return ""
}

func commentText(group *ast.CommentGroup) string {
	if group == nil {
		return ""
	}
	return strings.TrimSpace(group.Text())
}

// extractLines returns source lines startLine..endLine inclusive (1-based).
func extractLines(lines []string, startLine, endLine int) string {
	if startLine < 1 || startLine > len(lines) {
		return ""
	}
	start := startLine - 1
	end := endLine
	if end > len(lines) {
		end = len(lines)
	}
	return strings.Join(lines[start:end], "\n")
}
