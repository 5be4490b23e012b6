package embedder

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/jardhel/seu-claude/internal/config"
	"github.com/jardhel/seu-claude/internal/errs"
)

// knownModels maps a config.EmbeddingModel name to its native (untruncated)
// output dimension. Adding a model means adding one entry here.
var knownModels = map[string]int{
	"nomic-embed-text-v1.5": 768,
	"bge-small-en-v1.5":     384,
	"mock":                  0, // dimension-agnostic
}

// NewFromConfig builds the Provider named by cfg.EmbeddingModel, downloading
// its artifacts into dataDir/models/<model> on first use. Loading fails
// fast: an unknown model name or dimension mismatch is an error here, not a
// lazily-surfaced failure on the first embed call.
func NewFromConfig(ctx context.Context, cfg *config.Config) (Provider, error) {
	if cfg.EmbeddingModel == "mock" {
		return NewMockProvider(cfg.EmbeddingDimensions), nil
	}

	nativeDim, ok := knownModels[cfg.EmbeddingModel]
	if !ok {
		return nil, errs.Config(fmt.Sprintf("unknown embedding model %q", cfg.EmbeddingModel), nil)
	}
	if cfg.EmbeddingDimensions > nativeDim {
		return nil, errs.Config(fmt.Sprintf("embeddingDimensions %d exceeds model %q native dimension %d", cfg.EmbeddingDimensions, cfg.EmbeddingModel, nativeDim), nil)
	}

	modelDir := filepath.Join(cfg.DataDir, "models", cfg.EmbeddingModel)
	if !ModelExists(modelDir) {
		if err := NewDownloader().EnsureModel(ctx, cfg.EmbeddingModel, modelDir, nil); err != nil {
			return nil, err
		}
	}

	return New(Config{
		ModelDir:  modelDir,
		NativeDim: nativeDim,
		OutputDim: cfg.EmbeddingDimensions,
	})
}
