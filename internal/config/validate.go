package config

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyProjectRoot indicates a missing project root.
	ErrEmptyProjectRoot = errors.New("empty project root")

	// ErrEmptyModel indicates a missing embedding model id.
	ErrEmptyModel = errors.New("empty embedding model")

	// ErrInvalidDimensions indicates invalid embedding dimensions.
	ErrInvalidDimensions = errors.New("invalid embedding dimensions")

	// ErrInvalidChunkSize indicates an invalid chunk token bound.
	ErrInvalidChunkSize = errors.New("invalid max chunk tokens")

	// ErrInvalidMinChunkLines indicates an invalid minimum chunk size.
	ErrInvalidMinChunkLines = errors.New("invalid min chunk lines")

	// ErrInvalidOverlapRatio indicates an overlap ratio outside [0, 1).
	ErrInvalidOverlapRatio = errors.New("invalid chunk overlap ratio")

	// ErrInvalidGroundingLines indicates a negative grounding-line count.
	ErrInvalidGroundingLines = errors.New("invalid chunk grounding lines")

	// ErrEmptyLanguages indicates no supported languages were configured.
	ErrEmptyLanguages = errors.New("empty supported languages")

	// ErrInvalidHalfLife indicates a non-positive recency half-life.
	ErrInvalidHalfLife = errors.New("invalid recency half life")

	// ErrInvalidBM25K1 indicates a negative BM25 k1 parameter.
	ErrInvalidBM25K1 = errors.New("invalid bm25 k1")

	// ErrInvalidBM25B indicates a BM25 b parameter outside [0, 1].
	ErrInvalidBM25B = errors.New("invalid bm25 b")
)

// Validate checks that the configuration is valid and complete. All
// violations are collected and reported together rather than failing fast.
func Validate(cfg *Config) error {
	var errs []error

	if strings.TrimSpace(cfg.ProjectRoot) == "" {
		errs = append(errs, ErrEmptyProjectRoot)
	}
	if strings.TrimSpace(cfg.EmbeddingModel) == "" {
		errs = append(errs, ErrEmptyModel)
	}
	if cfg.EmbeddingDimensions <= 0 {
		errs = append(errs, fmt.Errorf("%w: must be positive, got %d", ErrInvalidDimensions, cfg.EmbeddingDimensions))
	}
	if cfg.MaxChunkTokens <= 0 {
		errs = append(errs, fmt.Errorf("%w: must be positive, got %d", ErrInvalidChunkSize, cfg.MaxChunkTokens))
	}
	if cfg.MinChunkLines < 0 {
		errs = append(errs, fmt.Errorf("%w: cannot be negative, got %d", ErrInvalidMinChunkLines, cfg.MinChunkLines))
	}
	if cfg.ChunkOverlapRatio < 0 || cfg.ChunkOverlapRatio >= 1 {
		errs = append(errs, fmt.Errorf("%w: must be in [0, 1), got %f", ErrInvalidOverlapRatio, cfg.ChunkOverlapRatio))
	}
	if cfg.ChunkGroundingLines < 0 {
		errs = append(errs, fmt.Errorf("%w: cannot be negative, got %d", ErrInvalidGroundingLines, cfg.ChunkGroundingLines))
	}
	if len(cfg.SupportedLanguages) == 0 {
		errs = append(errs, ErrEmptyLanguages)
	}
	if cfg.RecencyHalfLifeDays <= 0 {
		errs = append(errs, fmt.Errorf("%w: must be positive, got %f", ErrInvalidHalfLife, cfg.RecencyHalfLifeDays))
	}
	if cfg.BM25K1 < 0 {
		errs = append(errs, fmt.Errorf("%w: cannot be negative, got %f", ErrInvalidBM25K1, cfg.BM25K1))
	}
	if cfg.BM25B < 0 || cfg.BM25B > 1 {
		errs = append(errs, fmt.Errorf("%w: must be in [0, 1], got %f", ErrInvalidBM25B, cfg.BM25B))
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}
	return nil
}

// joinErrors combines multiple errors into a single error with clear formatting.
func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}

	var msgs []string
	for _, err := range errs {
		msgs = append(msgs, err.Error())
	}
	return fmt.Errorf("validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}
