package rank

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TEST PLAN
// 1. A recently-committed, exported entry-point chunk outranks an old,
//    unexported, non-entry-point one with equal fused scores.
// 2. Unknown commit time scores recency neutrally (0.5), not as stale.
// 3. A future commit time scores as maximally fresh (1.0) rather than
//    penalized or erroring.
// 4. isExported recognizes Go, Rust, Python, and JS/TS conventions, probing
//    both the symbol name and its source code.
// 5. isEntryPoint recognizes conventional basenames case-insensitively.
// 6. FactorWeights normalizes to sum to 1 regardless of input scale.

func TestReranker_FavorsFreshExportedEntryPoint(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	r := NewReranker(DefaultFactorWeights(), 60)

	fresh := Candidate{
		Fused:          Fused{ChunkID: "fresh", SemanticScore: 0.5, KeywordScore: 0.5},
		RelativePath:   "cmd/server/main.go",
		Name:           "Run",
		Code:           "func Run() {}",
		LastCommitTime: now.Add(-24 * time.Hour),
	}
	stale := Candidate{
		Fused:          Fused{ChunkID: "stale", SemanticScore: 0.5, KeywordScore: 0.5},
		RelativePath:   "internal/util/helper.go",
		Name:           "run",
		Code:           "func run() {}",
		LastCommitTime: now.Add(-365 * 24 * time.Hour),
	}

	ranked := r.Rerank([]Candidate{stale, fresh}, now)
	require.Len(t, ranked, 2)
	assert.Equal(t, "fresh", ranked[0].ChunkID)
}

func TestGitRecencyScore_UnknownIsNeutral(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 0.5, gitRecencyScore(time.Time{}, time.Now(), 60))
}

func TestGitRecencyScore_FutureIsMaxFresh(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	future := now.Add(48 * time.Hour)
	assert.Equal(t, 1.0, gitRecencyScore(future, now, 60))
}

func TestIsExported_RecognizesConventions(t *testing.T) {
	t.Parallel()
	assert.True(t, isExported("ParseConfig", "func ParseConfig() {}"))
	assert.True(t, isExported("run", "pub fn run() {}"))
	assert.True(t, isExported("hello", "export function hello() {}"))
	assert.True(t, isExported("run", "def run():\n    pass\n\n__all__ = ['run']"))
	assert.False(t, isExported("parseConfig", "func parseConfig() {}"))
}

func TestIsEntryPoint_CaseInsensitive(t *testing.T) {
	t.Parallel()
	assert.True(t, isEntryPoint("cmd/Main.go"))
	assert.True(t, isEntryPoint("src/INDEX.ts"))
	assert.False(t, isEntryPoint("internal/util/helper.go"))
}

func TestFactorWeights_Normalizes(t *testing.T) {
	t.Parallel()
	r := NewReranker(FactorWeights{Semantic: 5, Keyword: 2, Recency: 1, Exported: 1, EntryPoint: 1}, 60)
	sum := r.weights.Semantic + r.weights.Keyword + r.weights.Recency + r.weights.Exported + r.weights.EntryPoint
	assert.InDelta(t, 1.0, sum, 1e-9)
}
