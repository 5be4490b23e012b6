// Package rank implements the hybrid fuser and multi-factor re-ranker
// (spec component C9): combining semantic and keyword result lists into
// one ranking, then optionally adjusting it with recency/exported/
// entry-point signals.
package rank

import "sort"

// DefaultRRFConstant is the standard RRF smoothing constant (k=60),
// empirically validated across hybrid-search deployments.
const DefaultRRFConstant = 60

// Weights controls each source's contribution to the fused score.
type Weights struct {
	Semantic float64
	Keyword  float64
}

// DefaultWeights favors semantic matches, the spec's default hybrid mix.
func DefaultWeights() Weights { return Weights{Semantic: 0.7, Keyword: 0.3} }

// SourceResult is one ranked hit from a single retrieval source (C5 or C6).
type SourceResult struct {
	ChunkID string
	Score   float64
}

// Fused is one chunk's result after fusing both sources.
type Fused struct {
	ChunkID       string
	FusedScore    float64
	SemanticScore float64
	SemanticRank  int // 1-indexed; 0 if absent from the semantic list
	KeywordScore  float64
	KeywordRank   int // 1-indexed; 0 if absent from the keyword list
	InBothLists   bool
}

// Fuser combines semantic and keyword result lists via Reciprocal Rank
// Fusion: score(d) = Σ weight_i / (k + rank_i).
type Fuser struct {
	K int
}

// NewFuser returns a Fuser using the standard smoothing constant.
func NewFuser() *Fuser { return &Fuser{K: DefaultRRFConstant} }

// Fuse merges semantic and keyword rankings. Documents absent from one
// list are scored there at missingRank = max(len(semantic), len(keyword)) + 1,
// so partial presence never beats true double-presence at comparable ranks.
func (f *Fuser) Fuse(semantic, keyword []SourceResult, weights Weights) []Fused {
	if len(semantic) == 0 && len(keyword) == 0 {
		return nil
	}

	k := f.K
	if k <= 0 {
		k = DefaultRRFConstant
	}

	byID := make(map[string]*Fused, len(semantic)+len(keyword))
	get := func(id string) *Fused {
		if r, ok := byID[id]; ok {
			return r
		}
		r := &Fused{ChunkID: id}
		byID[id] = r
		return r
	}

	for rank, r := range semantic {
		fr := get(r.ChunkID)
		fr.SemanticScore = r.Score
		fr.SemanticRank = rank + 1
		fr.FusedScore += weights.Semantic / float64(k+rank+1)
	}
	for rank, r := range keyword {
		fr := get(r.ChunkID)
		fr.KeywordScore = r.Score
		fr.KeywordRank = rank + 1
		fr.FusedScore += weights.Keyword / float64(k+rank+1)
		if fr.SemanticRank > 0 {
			fr.InBothLists = true
		}
	}

	missingRank := len(semantic)
	if len(keyword) > missingRank {
		missingRank = len(keyword)
	}
	missingRank++
	for _, r := range byID {
		if r.SemanticRank == 0 && r.KeywordRank > 0 {
			r.FusedScore += weights.Semantic / float64(k+missingRank)
		}
		if r.KeywordRank == 0 && r.SemanticRank > 0 {
			r.FusedScore += weights.Keyword / float64(k+missingRank)
		}
	}

	out := make([]Fused, 0, len(byID))
	for _, r := range byID {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return compare(out[i], out[j]) })
	normalize(out)
	return out
}

// compare orders by fused score desc, then both-lists presence, then
// semantic score desc, then chunk id asc (deterministic tie-break).
func compare(a, b Fused) bool {
	if a.FusedScore != b.FusedScore {
		return a.FusedScore > b.FusedScore
	}
	if a.InBothLists != b.InBothLists {
		return a.InBothLists
	}
	if a.SemanticScore != b.SemanticScore {
		return a.SemanticScore > b.SemanticScore
	}
	return a.ChunkID < b.ChunkID
}

func normalize(results []Fused) {
	if len(results) == 0 {
		return
	}
	maxScore := results[0].FusedScore
	if maxScore == 0 {
		return
	}
	for i := range results {
		results[i].FusedScore /= maxScore
	}
}

// DefaultSemanticWeight is FuseWeighted's default split between the two
// min-max-normalized source lists.
const DefaultSemanticWeight = 0.7

// FuseWeighted implements spec.md §4.9's other fusion mode: min-max
// normalize each list to [0,1] independently, then combine as
// combined = w*semantic + (1-w)*keyword. An id absent from a list
// contributes 0 for that side. Unlike Fuse's RRF path, the combined score
// is already bounded in [0,1] by construction, so no post-hoc
// renormalization is applied.
func (f *Fuser) FuseWeighted(semantic, keyword []SourceResult, semanticWeight float64) []Fused {
	if len(semantic) == 0 && len(keyword) == 0 {
		return nil
	}
	w := clamp01(semanticWeight)

	normS := minMaxNormalizeScores(semantic)
	normK := minMaxNormalizeScores(keyword)
	semRank := rankByID(semantic)
	kwRank := rankByID(keyword)

	byID := make(map[string]*Fused, len(semantic)+len(keyword))
	get := func(id string) *Fused {
		if r, ok := byID[id]; ok {
			return r
		}
		r := &Fused{ChunkID: id}
		byID[id] = r
		return r
	}
	for _, r := range semantic {
		fr := get(r.ChunkID)
		fr.SemanticScore = r.Score
		fr.SemanticRank = semRank[r.ChunkID]
	}
	for _, r := range keyword {
		fr := get(r.ChunkID)
		fr.KeywordScore = r.Score
		fr.KeywordRank = kwRank[r.ChunkID]
		if fr.SemanticRank > 0 {
			fr.InBothLists = true
		}
	}
	for id, fr := range byID {
		fr.FusedScore = w*normS[id] + (1-w)*normK[id]
	}

	out := make([]Fused, 0, len(byID))
	for _, r := range byID {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return compare(out[i], out[j]) })
	return out
}

// minMaxNormalizeScores rescales results' raw scores into [0,1]. A list
// where every score ties (including a single-element list) normalizes to
// 1 for all members, treating "no spread" as "all maximally relevant"
// rather than collapsing everything to 0.
func minMaxNormalizeScores(results []SourceResult) map[string]float64 {
	out := make(map[string]float64, len(results))
	if len(results) == 0 {
		return out
	}
	min, max := results[0].Score, results[0].Score
	for _, r := range results {
		if r.Score < min {
			min = r.Score
		}
		if r.Score > max {
			max = r.Score
		}
	}
	span := max - min
	for _, r := range results {
		if span == 0 {
			out[r.ChunkID] = 1
			continue
		}
		out[r.ChunkID] = (r.Score - min) / span
	}
	return out
}

func rankByID(results []SourceResult) map[string]int {
	out := make(map[string]int, len(results))
	for i, r := range results {
		out[r.ChunkID] = i + 1
	}
	return out
}
