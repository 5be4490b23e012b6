package keyword

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TEST PLAN
// 1. camelCase identifiers split into lowercase subwords.
// 2. snake_case identifiers split on underscore, then camelCase within parts.
// 3. Acronym runs ("HTTPHandler") split before the trailing capitalized word.
// 4. Tokens shorter than 2 characters are dropped.
// 5. Non-identifier punctuation is treated as a separator.

func TestTokenize_CamelCase(t *testing.T) {
	t.Parallel()
	assert.Equal(t, []string{"get", "user", "by", "id"}, Tokenize("getUserById"))
}

func TestTokenize_SnakeCase(t *testing.T) {
	t.Parallel()
	assert.Equal(t, []string{"parse", "http", "request"}, Tokenize("parse_http_request"))
}

func TestTokenize_AcronymRun(t *testing.T) {
	t.Parallel()
	assert.Equal(t, []string{"http", "handler"}, Tokenize("HTTPHandler"))
}

func TestTokenize_DropsShortTokens(t *testing.T) {
	t.Parallel()
	tokens := Tokenize("a.b.Foo()")
	assert.NotContains(t, tokens, "a")
	assert.NotContains(t, tokens, "b")
	assert.Contains(t, tokens, "foo")
}

func TestTokenize_PunctuationSeparates(t *testing.T) {
	t.Parallel()
	assert.Equal(t, []string{"foo", "bar"}, Tokenize("foo.bar"))
}
