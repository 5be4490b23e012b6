package keyword

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TEST PLAN
// 1. Upsert then Search finds a document by an exact identifier token.
// 2. Search matches a camelCase query against a snake_case chunk (and the
//    reverse), since both tokenize to the same subwords.
// 3. DeleteByFile removes only that file's documents.
// 4. Search on an empty/whitespace query returns no results, not an error.
// 5. Mismatched slice lengths to Upsert is an error.
// 6. RemoveDocument, Clear, Size, and GetStats behave per spec §4.6.
// 7. Serialize then Deserialize into a fresh Index restores search results.
// 8. WithK1/WithB override the default BM25 parameters.

func TestIndex_UpsertAndSearch(t *testing.T) {
	t.Parallel()

	idx, err := Open("")
	require.NoError(t, err)
	defer idx.Close()

	require.NoError(t, idx.Upsert(
		[]string{"c1"}, []string{"func getUserById(id int) User {}"}, []string{"a.go"},
	))

	results, err := idx.Search(context.Background(), "user", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "c1", results[0].ID)
}

func TestIndex_CrossCaseMatch(t *testing.T) {
	t.Parallel()

	idx, err := Open("")
	require.NoError(t, err)
	defer idx.Close()

	require.NoError(t, idx.Upsert(
		[]string{"c1"}, []string{"def parse_http_request(): pass"}, []string{"a.py"},
	))

	results, err := idx.Search(context.Background(), "parseHTTPRequest", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
}

func TestIndex_DeleteByFile(t *testing.T) {
	t.Parallel()

	idx, err := Open("")
	require.NoError(t, err)
	defer idx.Close()

	require.NoError(t, idx.Upsert(
		[]string{"c1", "c2"},
		[]string{"func Alpha() {}", "func Beta() {}"},
		[]string{"a.go", "b.go"},
	))
	require.NoError(t, idx.DeleteByFile("a.go"))

	count, err := idx.DocCount()
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestIndex_EmptyQueryReturnsNoResults(t *testing.T) {
	t.Parallel()

	idx, err := Open("")
	require.NoError(t, err)
	defer idx.Close()

	results, err := idx.Search(context.Background(), "   ", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestIndex_UpsertMismatchedLengthsErrors(t *testing.T) {
	t.Parallel()

	idx, err := Open("")
	require.NoError(t, err)
	defer idx.Close()

	err = idx.Upsert([]string{"c1"}, []string{"a", "b"}, []string{"x.go"})
	assert.Error(t, err)
}

func TestIndex_OpenOnDisk(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bm25.json")
	idx, err := Open(path)
	require.NoError(t, err)
	defer idx.Close()

	require.NoError(t, idx.Upsert([]string{"c1"}, []string{"func Foo() {}"}, []string{"a.go"}))
	count, err := idx.DocCount()
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestIndex_RemoveDocumentClearSizeStats(t *testing.T) {
	t.Parallel()

	idx, err := Open("")
	require.NoError(t, err)
	defer idx.Close()

	require.NoError(t, idx.Upsert(
		[]string{"c1", "c2"},
		[]string{"func Alpha() {}", "func Beta() {}"},
		[]string{"a.go", "b.go"},
	))
	assert.Equal(t, 2, idx.Size())

	require.NoError(t, idx.RemoveDocument("c1"))
	assert.Equal(t, 1, idx.Size())

	stats := idx.GetStats()
	assert.Equal(t, 1, stats.DocCount)
	assert.Equal(t, defaultK1, stats.K1)
	assert.Equal(t, defaultB, stats.B)

	idx.Clear()
	assert.Equal(t, 0, idx.Size())
}

func TestIndex_SerializeDeserializeRoundTrip(t *testing.T) {
	t.Parallel()

	idx, err := Open("")
	require.NoError(t, err)
	defer idx.Close()

	require.NoError(t, idx.Upsert(
		[]string{"c1"}, []string{"func getUserById(id int) User {}"}, []string{"a.go"},
	))

	path := filepath.Join(t.TempDir(), "bm25.json")
	require.NoError(t, idx.Serialize(path))

	restored, err := Open("")
	require.NoError(t, err)
	defer restored.Close()

	require.NoError(t, restored.Deserialize(path))
	results, err := restored.Search(context.Background(), "user", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "c1", results[0].ID)
}

func TestIndex_DeserializeMissingFileIsNotError(t *testing.T) {
	t.Parallel()

	idx, err := Open("")
	require.NoError(t, err)
	defer idx.Close()

	require.NoError(t, idx.Deserialize(filepath.Join(t.TempDir(), "missing.json")))
	assert.Equal(t, 0, idx.Size())
}

func TestIndex_ConfigurableK1AndB(t *testing.T) {
	t.Parallel()

	idx, err := Open("", WithK1(2.0), WithB(0.5))
	require.NoError(t, err)
	defer idx.Close()

	stats := idx.GetStats()
	assert.Equal(t, 2.0, stats.K1)
	assert.Equal(t, 0.5, stats.B)
}
