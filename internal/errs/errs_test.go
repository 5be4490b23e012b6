package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TEST PLAN
// 1. Each constructor sets the expected Code.
// 2. Error() includes the wrapped cause when present.
// 3. Is() matches through a fmt.Errorf %w wrapper.
// 4. Is() returns false for a plain error or a mismatched code.

func TestConstructors_SetCode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, CodeConfig, Config("bad dim", nil).Code)
	assert.Equal(t, CodeIO, IO("unreadable", nil).Code)
	assert.Equal(t, CodeParse, Parse("bad syntax", nil).Code)
	assert.Equal(t, CodeEmbedding, Embedding("init failed", nil).Code)
	assert.Equal(t, CodeStore, Store("dim mismatch", nil).Code)
	assert.Equal(t, CodeValidation, Validation("query too long").Code)
	assert.Equal(t, CodeNotFound, NotFoundf("symbol %q", "Foo").Code)
}

func TestError_IncludesCause(t *testing.T) {
	t.Parallel()

	cause := errors.New("disk full")
	err := IO("write failed", cause)
	assert.Contains(t, err.Error(), "disk full")
	assert.Contains(t, err.Error(), "write failed")
}

func TestIs_MatchesThroughWrap(t *testing.T) {
	t.Parallel()

	base := Store("dim mismatch", nil)
	wrapped := fmt.Errorf("pipeline: %w", base)

	assert.True(t, Is(wrapped, CodeStore))
	assert.False(t, Is(wrapped, CodeConfig))
}

func TestIs_PlainError(t *testing.T) {
	t.Parallel()
	assert.False(t, Is(errors.New("plain"), CodeIO))
}
