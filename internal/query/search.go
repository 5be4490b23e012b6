package query

import (
	"context"
	"time"

	"github.com/gobwas/glob"

	"github.com/jardhel/seu-claude/internal/chunker"
	"github.com/jardhel/seu-claude/internal/corefs"
	"github.com/jardhel/seu-claude/internal/embedder"
	"github.com/jardhel/seu-claude/internal/errs"
	"github.com/jardhel/seu-claude/internal/rank"
)

// Mode selects which backend(s) a search draws candidates from.
type Mode string

const (
	ModeSemantic Mode = "semantic"
	ModeKeyword  Mode = "keyword"
	ModeHybrid   Mode = "hybrid"
)

// FusionMode selects how candidates from multiple backends are combined.
type FusionMode string

const (
	FusionWeighted FusionMode = "weighted"
	FusionRRF      FusionMode = "rrf"
)

// SearchRequest is search_codebase's input (spec.md §6/§4.11).
type SearchRequest struct {
	Query      string
	Limit      int
	Filters    Filters
	Mode       Mode
	UseRanking bool
	FusionMode FusionMode
}

// NewSearchRequest returns a request with spec.md §4.11's defaults: hybrid
// mode, RRF fusion, ranking on, limit 10.
func NewSearchRequest(query string) SearchRequest {
	return SearchRequest{Query: query, Limit: 10, Mode: ModeHybrid, UseRanking: true, FusionMode: FusionRRF}
}

// Result is one materialized, human-readable search hit (spec.md §4.11
// step 5).
type Result struct {
	ChunkID      string
	RelativePath string
	StartLine    int
	EndLine      int
	Type         chunker.Type
	Name         string
	Language     string
	Code         string
	Score        float64
}

// Search runs spec.md §4.11's search algorithm: validate, retrieve from
// one or both backends, fuse, optionally re-rank, materialize.
func (e *Engine) Search(ctx context.Context, req SearchRequest) ([]Result, error) {
	q, err := corefs.ValidateQuery(req.Query)
	if err != nil {
		return nil, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 10
	}
	fetchK := limit * 2

	mode := req.Mode
	if mode == "" {
		mode = ModeHybrid
	}
	fusionMode := req.FusionMode
	if fusionMode == "" {
		fusionMode = FusionRRF
	}

	chunkByID := make(map[string]chunker.Chunk)
	var semantic, keywordHits []rank.SourceResult

	if mode == ModeSemantic || mode == ModeHybrid {
		vec, err := e.embedQuery(ctx, q)
		if err != nil {
			return nil, err
		}
		hits, err := e.deps.VectorStore.Search(vec, fetchK)
		if err != nil {
			return nil, err
		}
		for _, h := range hits {
			semantic = append(semantic, rank.SourceResult{ChunkID: h.Chunk.ID, Score: h.Score})
			chunkByID[h.Chunk.ID] = h.Chunk
		}
	}

	if mode == ModeKeyword || mode == ModeHybrid {
		hits, err := e.deps.KeywordIndex.Search(ctx, q, fetchK)
		if err != nil {
			return nil, err
		}
		for _, h := range hits {
			keywordHits = append(keywordHits, rank.SourceResult{ChunkID: h.ID, Score: h.Score})
		}
	}

	var fused []rank.Fused
	if fusionMode == FusionWeighted {
		fused = e.deps.Fuser.FuseWeighted(semantic, keywordHits, rank.DefaultSemanticWeight)
	} else {
		fused = e.deps.Fuser.Fuse(semantic, keywordHits, rank.DefaultWeights())
	}

	candidates := make([]rank.Candidate, 0, len(fused))
	for _, fr := range fused {
		chunk, ok := chunkByID[fr.ChunkID]
		if !ok {
			c, found, err := e.deps.VectorStore.GetByID(fr.ChunkID)
			if err != nil {
				return nil, err
			}
			if !found {
				continue
			}
			chunk = c
			chunkByID[fr.ChunkID] = c
		}
		if !matchesFilters(chunk, req.Filters) {
			continue
		}
		lastCommit, _ := e.deps.GitOps.LastCommitTime(e.deps.RootDir, chunk.RelativePath)
		candidates = append(candidates, rank.Candidate{
			Fused: fr, RelativePath: chunk.RelativePath, Name: chunk.Name, Code: chunk.Code, LastCommitTime: lastCommit,
		})
	}

	results := make([]Result, 0, limit)
	if req.UseRanking {
		ranked := e.deps.Reranker.Rerank(candidates, time.Now())
		for _, r := range ranked {
			if len(results) >= limit {
				break
			}
			results = append(results, materializeResult(chunkByID[r.ChunkID], r.FinalScore))
		}
	} else {
		for _, c := range candidates {
			if len(results) >= limit {
				break
			}
			results = append(results, materializeResult(chunkByID[c.ChunkID], c.FusedScore))
		}
	}
	return results, nil
}

func (e *Engine) embedQuery(ctx context.Context, q string) ([]float32, error) {
	vecs, err := e.deps.Embedder.EmbedBatch(ctx, []string{q}, embedder.ModeQuery)
	if err != nil {
		return nil, errs.Embedding("failed to embed query", err)
	}
	if len(vecs) != 1 {
		return nil, errs.Embedding("embedder returned an unexpected vector count for the query", nil)
	}
	return vecs[0], nil
}

func materializeResult(c chunker.Chunk, score float64) Result {
	return Result{
		ChunkID: c.ID, RelativePath: c.RelativePath, StartLine: c.StartLine, EndLine: c.EndLine,
		Type: c.Type, Name: c.Name, Language: c.Language, Code: c.Code, Score: score,
	}
}

// matchesFilters applies Filters over a candidate's materialized chunk.
// Filtering happens post-fetch against the over-fetched candidate set
// (fetchK = 2*limit) rather than pushed down into C5's SQL, matching
// SPEC_FULL.md §4's note on includePaths/excludePaths glob matching.
func matchesFilters(c chunker.Chunk, f Filters) bool {
	if f.isZero() {
		return true
	}
	if f.Type != "" && c.Type != f.Type {
		return false
	}
	if f.Language != "" && c.Language != f.Language {
		return false
	}
	if len(f.IncludePaths) > 0 {
		matched := false
		for _, pattern := range f.IncludePaths {
			if g, err := glob.Compile(pattern, '/'); err == nil && g.Match(c.RelativePath) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	for _, pattern := range f.ExcludePaths {
		if g, err := glob.Compile(pattern, '/'); err == nil && g.Match(c.RelativePath) {
			return false
		}
	}
	return true
}
