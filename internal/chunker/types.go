// Package chunker implements the semantic chunker (spec component C3): it
// produces a file's chunk set along AST boundaries when a parse is
// available, falling back to deterministic line windows otherwise.
package chunker

import (
	"time"

	"github.com/jardhel/seu-claude/internal/parser"
)

// Type mirrors parser.NodeType; re-exported here because it is part of the
// Chunk's own public contract (spec.md §3), independent of how C2 produced it.
type Type = parser.NodeType

const (
	TypeFunction  = parser.NodeFunction
	TypeMethod    = parser.NodeMethod
	TypeClass     = parser.NodeClass
	TypeInterface = parser.NodeInterface
	TypeAlias     = parser.NodeTypeAlias
	TypeEnum      = parser.NodeEnum
	TypeModule    = parser.NodeModule
	TypeExport    = parser.NodeExport
	TypeBlock     = parser.NodeBlock
	TypeFileCtx   = parser.NodeFileCtx
)

// Chunk is the atomic unit of indexing (spec.md §3).
type Chunk struct {
	ID           string // 16 hex chars
	FilePath     string
	RelativePath string
	Language     string
	Type         Type
	Name         string // "" for anonymous/block/file_context
	Scope        string // dotted path, e.g. "pkg/a.ts:MyClass:method"
	StartLine    int
	EndLine      int
	Code         string
	IndexText    string // defaults to Code; enriched with file context
	Docstring    string
	TokenEstimate int
	Vector        []float32
	LastUpdated   time.Time
}
