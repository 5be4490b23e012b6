// Package embedder implements the embedding component (spec component C4):
// it turns chunk/query text into L2-normalized vectors of the configured
// dimensionality, via a local ONNX model loaded through onnxruntime_go and
// daulet/tokenizers.
package embedder

import "context"

// Mode selects the asymmetric-retrieval prefix applied before embedding.
type Mode string

const (
	// ModeDocument is used for chunk text being written to the store.
	ModeDocument Mode = "document"
	// ModeQuery is used for a user's search query.
	ModeQuery Mode = "query"
)

const (
	documentPrefix = "search_document: "
	queryPrefix    = "search_query: "
)

// Provider embeds text into vectors. Implementations must return vectors
// already L2-normalized to unit length and truncated/padded to Dimensions().
type Provider interface {
	// EmbedBatch embeds a batch of texts, applying mode's asymmetric prefix.
	EmbedBatch(ctx context.Context, texts []string, mode Mode) ([][]float32, error)

	// Dimensions reports the vector width this provider produces (after any
	// Matryoshka truncation), matching config.EmbeddingDimensions.
	Dimensions() int

	// Close releases the underlying ONNX session and tokenizer.
	Close() error
}
