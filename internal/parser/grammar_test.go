package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TEST PLAN
// 1. Loading a language with no .so artifact present fails closed (error,
//    no panic) rather than crashing.
// 2. A failed language is remembered and not retried.

func TestGrammarLoader_MissingArtifactFailsClosed(t *testing.T) {
	t.Parallel()

	loader := NewGrammarLoader(t.TempDir())
	lang, err := loader.Load("nonexistent-language")

	require.Error(t, err)
	assert.Nil(t, lang)
}

func TestGrammarLoader_RemembersFailure(t *testing.T) {
	t.Parallel()

	loader := NewGrammarLoader(t.TempDir())
	_, firstErr := loader.Load("nonexistent-language")
	require.Error(t, firstErr)

	_, secondErr := loader.Load("nonexistent-language")
	require.Error(t, secondErr)
	assert.Contains(t, secondErr.Error(), "previously failed")
}
