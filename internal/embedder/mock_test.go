package embedder

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TEST PLAN
// 1. Same text and mode produce the same vector across calls (determinism).
// 2. Document and query prefixes produce different vectors for equal text.
// 3. Vectors are L2-normalized.
// 4. SetEmbedError causes EmbedBatch to fail.
// 5. Close marks the provider closed.

func TestMockProvider_Deterministic(t *testing.T) {
	t.Parallel()

	p := NewMockProvider(16)
	ctx := context.Background()

	v1, err := p.EmbedBatch(ctx, []string{"func Foo() {}"}, ModeDocument)
	require.NoError(t, err)
	v2, err := p.EmbedBatch(ctx, []string{"func Foo() {}"}, ModeDocument)
	require.NoError(t, err)

	assert.Equal(t, v1, v2)
}

func TestMockProvider_ModeAffectsVector(t *testing.T) {
	t.Parallel()

	p := NewMockProvider(16)
	ctx := context.Background()

	docVec, err := p.EmbedBatch(ctx, []string{"same text"}, ModeDocument)
	require.NoError(t, err)
	queryVec, err := p.EmbedBatch(ctx, []string{"same text"}, ModeQuery)
	require.NoError(t, err)

	assert.NotEqual(t, docVec[0], queryVec[0])
}

func TestMockProvider_L2Normalized(t *testing.T) {
	t.Parallel()

	p := NewMockProvider(32)
	vecs, err := p.EmbedBatch(context.Background(), []string{"hello world"}, ModeDocument)
	require.NoError(t, err)

	var sumSq float64
	for _, x := range vecs[0] {
		sumSq += float64(x) * float64(x)
	}
	assert.InDelta(t, 1.0, sumSq, 1e-4)
}

func TestMockProvider_EmbedError(t *testing.T) {
	t.Parallel()

	p := NewMockProvider(8)
	p.SetEmbedError(assert.AnError)

	_, err := p.EmbedBatch(context.Background(), []string{"x"}, ModeDocument)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestMockProvider_Close(t *testing.T) {
	t.Parallel()

	p := NewMockProvider(8)
	assert.False(t, p.Closed())
	require.NoError(t, p.Close())
	assert.True(t, p.Closed())
}
