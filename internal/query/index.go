package query

import (
	"context"

	"github.com/jardhel/seu-claude/internal/pipeline"
)

// IndexCodebase runs one indexing pass via C10 (spec.md §6's
// index_codebase). force reclassifies every discovered file as modified.
func (e *Engine) IndexCodebase(ctx context.Context, force bool) (*pipeline.Result, error) {
	return e.deps.Pipeline.Run(ctx, force)
}
