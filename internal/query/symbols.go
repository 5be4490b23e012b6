package query

import (
	"strings"

	"github.com/jardhel/seu-claude/internal/chunker"
	"github.com/jardhel/seu-claude/internal/errs"
	"github.com/jardhel/seu-claude/internal/symbols"
)

// defaultSymbolLimit and defaultSymbolThreshold mirror C7's own defaults,
// applied here so callers that omit them get spec.md's documented behavior.
const (
	defaultSymbolLimit     = 20
	defaultSymbolThreshold = 0.3
)

// SearchSymbols delegates to C7 (spec.md §4.11's find_symbol).
func (e *Engine) SearchSymbols(pattern string, limit int, threshold float64, types ...chunker.Type) ([]symbols.Match, error) {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return nil, errs.Validation("pattern is empty")
	}
	if limit <= 0 {
		limit = defaultSymbolLimit
	}
	if threshold <= 0 {
		threshold = defaultSymbolThreshold
	}
	return e.deps.SymbolIndex.SearchWithThreshold(pattern, limit, threshold, types...), nil
}
