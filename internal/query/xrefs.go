package query

import (
	"strings"

	"github.com/jardhel/seu-claude/internal/errs"
	"github.com/jardhel/seu-claude/internal/xref"
)

// XrefResult is one materialized cross-reference hit.
type XrefResult struct {
	ChunkID      string
	RelativePath string
	Name         string
	StartLine    int
	EndLine      int
	Direction    xref.Direction
}

// SearchXrefs delegates to C8 and resolves each hit's chunk id back to
// human-readable fields (spec.md §4.11's find_xrefs).
func (e *Engine) SearchXrefs(name string, direction xref.Direction, maxResults int) ([]XrefResult, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errs.Validation("symbol name is empty")
	}
	if direction == "" {
		direction = xref.DirectionBoth
	}

	hits := e.deps.XrefGraph.Search(name, direction)
	out := make([]XrefResult, 0, len(hits))
	for _, h := range hits {
		chunk, found, err := e.deps.VectorStore.GetByID(h.ChunkID)
		if err != nil {
			return nil, err
		}
		if !found {
			continue
		}
		out = append(out, XrefResult{
			ChunkID: h.ChunkID, RelativePath: chunk.RelativePath, Name: chunk.Name,
			StartLine: chunk.StartLine, EndLine: chunk.EndLine, Direction: h.Direction,
		})
		if maxResults > 0 && len(out) >= maxResults {
			break
		}
	}
	return out, nil
}
