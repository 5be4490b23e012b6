package config

// Config represents the complete seu-claude engine configuration.
// It can be loaded from .seu-claude/config.yml with environment variable
// overrides.
type Config struct {
	ProjectRoot string `yaml:"project_root" mapstructure:"project_root"`
	DataDir     string `yaml:"data_dir" mapstructure:"data_dir"`

	EmbeddingModel      string  `yaml:"embedding_model" mapstructure:"embedding_model"`
	EmbeddingDimensions int     `yaml:"embedding_dimensions" mapstructure:"embedding_dimensions"`
	MaxChunkTokens      int     `yaml:"max_chunk_tokens" mapstructure:"max_chunk_tokens"`
	MinChunkLines       int     `yaml:"min_chunk_lines" mapstructure:"min_chunk_lines"`
	ChunkOverlapRatio   float64 `yaml:"chunk_overlap_ratio" mapstructure:"chunk_overlap_ratio"`
	ChunkGroundingLines int     `yaml:"chunk_grounding_lines" mapstructure:"chunk_grounding_lines"`

	SupportedLanguages []string `yaml:"supported_languages" mapstructure:"supported_languages"`
	IgnorePatterns     []string `yaml:"ignore_patterns" mapstructure:"ignore_patterns"`

	// LanguagesDir holds external tree-sitter grammar shared objects
	// (<lang>.so), loaded lazily and on demand by the parser.
	LanguagesDir string `yaml:"languages_dir" mapstructure:"languages_dir"`

	// MaxFileBytes drops candidate files larger than this from the crawl.
	MaxFileBytes int64 `yaml:"max_file_bytes" mapstructure:"max_file_bytes"`

	// RecencyHalfLifeDays is the exponential-decay half-life (in days) used
	// by the re-ranker's recency factor.
	RecencyHalfLifeDays float64 `yaml:"recency_half_life_days" mapstructure:"recency_half_life_days"`

	// BM25K1 and BM25B tune C6's keyword index (term-frequency saturation
	// and document-length normalization, respectively).
	BM25K1 float64 `yaml:"bm25_k1" mapstructure:"bm25_k1"`
	BM25B  float64 `yaml:"bm25_b" mapstructure:"bm25_b"`
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		DataDir:             ".seu-claude",
		EmbeddingModel:      "bge-small-en-v1.5",
		EmbeddingDimensions: 384,
		MaxChunkTokens:      512,
		MinChunkLines:       5,
		ChunkOverlapRatio:   0.25,
		ChunkGroundingLines: 2,
		SupportedLanguages: []string{
			"go", "python", "javascript", "typescript",
			"java", "c", "cpp", "ruby", "php", "rust",
		},
		IgnorePatterns: []string{
			"node_modules/**",
			".git/**",
			"dist/**",
			"build/**",
			"vendor/**",
			"target/**",
			"__pycache__/**",
			"*.min.js",
			"*.lock",
		},
		LanguagesDir:        ".seu-claude/grammars",
		MaxFileBytes:        1 << 20,
		RecencyHalfLifeDays: 60,
		BM25K1:              1.2,
		BM25B:               0.75,
	}
}
