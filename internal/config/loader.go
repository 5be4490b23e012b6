package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Loader provides configuration loading capabilities.
type Loader interface {
	// Load loads configuration from file and environment variables.
	// Priority: defaults → config file → environment variables (env wins).
	Load() (*Config, error)
}

type loader struct {
	rootDir string
}

// NewLoader creates a new configuration loader for the given project root.
func NewLoader(rootDir string) Loader {
	return &loader{rootDir: rootDir}
}

// Load loads configuration with the following priority (highest to lowest):
// 1. Environment variables (SEU_CLAUDE_*, plus the four spec-named vars)
// 2. Config file (.seu-claude/config.yml or .seu-claude/config.yaml)
// 3. Default values
func (l *loader) Load() (*Config, error) {
	v := viper.New()

	configDir := filepath.Join(l.rootDir, ".seu-claude")
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)

	v.SetEnvPrefix("SEU_CLAUDE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.BindEnv("project_root")
	v.BindEnv("data_dir")
	v.BindEnv("embedding_model")
	v.BindEnv("embedding_dimensions")
	v.BindEnv("max_chunk_tokens")
	v.BindEnv("min_chunk_lines")
	v.BindEnv("chunk_overlap_ratio")
	v.BindEnv("chunk_grounding_lines")
	v.BindEnv("supported_languages")
	v.BindEnv("ignore_patterns")
	v.BindEnv("languages_dir")
	v.BindEnv("max_file_bytes")
	v.BindEnv("recency_half_life_days")
	v.BindEnv("bm25_k1")
	v.BindEnv("bm25_b")

	setDefaults(v)
	v.SetDefault("project_root", l.rootDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// The spec's four environment variables take priority over both the
	// config file and the generic SEU_CLAUDE_* bindings above, since they
	// are addressed by name rather than by key path.
	if root := os.Getenv("PROJECT_ROOT"); root != "" {
		cfg.ProjectRoot = root
	}
	if dataDir := os.Getenv("SEU_CLAUDE_DATA_DIR"); dataDir != "" {
		cfg.DataDir = dataDir
	}
	if model := os.Getenv("SEU_CLAUDE_MODEL"); model != "" {
		cfg.EmbeddingModel = model
	}
	if dim := os.Getenv("SEU_CLAUDE_DIM"); dim != "" {
		if parsed, err := strconv.Atoi(dim); err == nil {
			cfg.EmbeddingDimensions = parsed
		}
	}

	if cfg.ProjectRoot == "" {
		cfg.ProjectRoot = l.rootDir
	}
	if !filepath.IsAbs(cfg.DataDir) {
		cfg.DataDir = filepath.Join(cfg.ProjectRoot, cfg.DataDir)
	}
	if !filepath.IsAbs(cfg.LanguagesDir) {
		cfg.LanguagesDir = filepath.Join(cfg.ProjectRoot, cfg.LanguagesDir)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setDefaults configures viper with default values.
func setDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("data_dir", defaults.DataDir)
	v.SetDefault("embedding_model", defaults.EmbeddingModel)
	v.SetDefault("embedding_dimensions", defaults.EmbeddingDimensions)
	v.SetDefault("max_chunk_tokens", defaults.MaxChunkTokens)
	v.SetDefault("min_chunk_lines", defaults.MinChunkLines)
	v.SetDefault("chunk_overlap_ratio", defaults.ChunkOverlapRatio)
	v.SetDefault("chunk_grounding_lines", defaults.ChunkGroundingLines)
	v.SetDefault("supported_languages", defaults.SupportedLanguages)
	v.SetDefault("ignore_patterns", defaults.IgnorePatterns)
	v.SetDefault("languages_dir", defaults.LanguagesDir)
	v.SetDefault("max_file_bytes", defaults.MaxFileBytes)
	v.SetDefault("recency_half_life_days", defaults.RecencyHalfLifeDays)
	v.SetDefault("bm25_k1", defaults.BM25K1)
	v.SetDefault("bm25_b", defaults.BM25B)
}

// LoadConfig is a convenience function that creates a loader and loads
// config using the current working directory as the project root.
func LoadConfig() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	return NewLoader(wd).Load()
}

// LoadConfigFromDir loads configuration rooted at a specific directory.
func LoadConfigFromDir(rootDir string) (*Config, error) {
	return NewLoader(rootDir).Load()
}
