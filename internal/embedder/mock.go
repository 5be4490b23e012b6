package embedder

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"sync"
)

// MockProvider generates deterministic, hash-derived embeddings so tests can
// exercise the pipeline without an ONNX model on disk.
type MockProvider struct {
	mu         sync.Mutex
	dimensions int
	closed     bool
	embedErr   error
}

// NewMockProvider returns a mock embedding provider of the given dimension.
func NewMockProvider(dimensions int) *MockProvider {
	return &MockProvider{dimensions: dimensions}
}

// SetEmbedError configures EmbedBatch to fail, for error-path tests.
func (p *MockProvider) SetEmbedError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.embedErr = err
}

// EmbedBatch hashes each (mode-prefixed) text into a deterministic,
// L2-normalized vector.
func (p *MockProvider) EmbedBatch(ctx context.Context, texts []string, mode Mode) ([][]float32, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.embedErr != nil {
		return nil, p.embedErr
	}

	prefix := documentPrefix
	if mode == ModeQuery {
		prefix = queryPrefix
	}

	out := make([][]float32, len(texts))
	for i, text := range texts {
		hash := sha256.Sum256([]byte(prefix + text))
		vec := make([]float32, p.dimensions)
		for j := 0; j < p.dimensions; j++ {
			offset := (j * 4) % len(hash)
			val := binary.BigEndian.Uint32(hash[offset : offset+4])
			vec[j] = (float32(val)/float32(1<<32))*2.0 - 1.0
		}
		l2Normalize(vec)
		out[i] = vec
	}
	return out, nil
}

// Dimensions returns the configured mock dimensionality.
func (p *MockProvider) Dimensions() int { return p.dimensions }

// Close marks the provider closed; mock holds no real resources.
func (p *MockProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

// Closed reports whether Close has been called.
func (p *MockProvider) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}
