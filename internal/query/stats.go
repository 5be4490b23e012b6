package query

// Stats is get_stats' output (spec.md §6: "counts per language, totals,
// sizes").
type Stats struct {
	TotalChunks      int
	Dimensions       int
	ChunksByLanguage map[string]int
	KeywordDocCount  uint64
	SymbolCount      int
}

// GetStats aggregates counters across C5-C7.
func (e *Engine) GetStats() (*Stats, error) {
	vsStats, err := e.deps.VectorStore.Stats()
	if err != nil {
		return nil, err
	}
	langs, err := e.deps.VectorStore.LanguageCounts()
	if err != nil {
		return nil, err
	}
	docCount, err := e.deps.KeywordIndex.DocCount()
	if err != nil {
		return nil, err
	}

	return &Stats{
		TotalChunks:      vsStats.TotalChunks,
		Dimensions:       vsStats.Dimensions,
		ChunksByLanguage: langs,
		KeywordDocCount:  docCount,
		SymbolCount:      e.deps.SymbolIndex.Count(),
	}, nil
}
