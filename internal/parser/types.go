package parser

// NodeType is the canonical, language-agnostic node classification (spec
// data model §3). Per-language raw tree-sitter node kinds are normalized
// into this enum.
type NodeType string

const (
	NodeFunction  NodeType = "function"
	NodeMethod    NodeType = "method"
	NodeClass     NodeType = "class"
	NodeInterface NodeType = "interface"
	NodeTypeAlias NodeType = "type"
	NodeEnum      NodeType = "enum"
	NodeModule    NodeType = "module"
	NodeExport    NodeType = "export"
	NodeBlock     NodeType = "block"
	NodeFileCtx   NodeType = "file_context"
)

// ParsedNode is one structural node extracted from a file's parse tree.
type ParsedNode struct {
	Type        NodeType
	Name        string // empty for anonymous/block/file_context
	StartLine   int    // 1-based, inclusive
	EndLine     int    // 1-based, inclusive
	StartColumn int
	EndColumn   int
	Text        string
	Children    []*ParsedNode
	Docstring   string
	Scope       []string // dotted path from file to this declaration
}

// Tree wraps a parsed file: the language it was parsed with and the flat
// list of top-level structural nodes extractNodes produced.
type Tree struct {
	Language string
	Nodes    []*ParsedNode
	Source   []byte

	// ImportLines and TopLevelValueLines hold the exact source text of
	// import statements and multi-line top-level const/let/var
	// declarations respectively, consumed by the chunker's file-context
	// enrichment (spec.md §4.3 step 4).
	ImportLines        []string
	TopLevelValueLines []string
}
