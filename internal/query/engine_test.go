package query

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jardhel/seu-claude/internal/chunker"
	"github.com/jardhel/seu-claude/internal/crawler"
	"github.com/jardhel/seu-claude/internal/embedder"
	"github.com/jardhel/seu-claude/internal/git"
	"github.com/jardhel/seu-claude/internal/keyword"
	"github.com/jardhel/seu-claude/internal/parser"
	"github.com/jardhel/seu-claude/internal/pipeline"
	"github.com/jardhel/seu-claude/internal/symbols"
	"github.com/jardhel/seu-claude/internal/vectorstore"
	"github.com/jardhel/seu-claude/internal/xref"
)

// TEST PLAN
// 1. Hybrid search over an indexed tree returns a materialized result for
//    the defining chunk.
// 2. read_semantic_context by symbol name centers the widened span on the
//    matched chunk and lists the file's other chunks.
// 3. find_xrefs surfaces a caller through C8's call graph.
// 4. find_symbol tolerates a typo within the fuzzy threshold.
// 5. get_stats reflects what was just indexed.
// 6. index_codebase delegates straight to C10.

const fixtureSource = `package a

func Hello() string {
	return World()
}

func World() string {
	return "world"
}
`

func newEngineHarness(t *testing.T) (*Engine, string) {
	t.Helper()

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.go"), []byte(fixtureSource), 0o644))

	dataDir := t.TempDir()
	vs, err := vectorstore.Open(filepath.Join(t.TempDir(), "store.db"), 8)
	require.NoError(t, err)
	kw, err := keyword.Open("")
	require.NoError(t, err)
	sym := symbols.NewIndex()
	gr := xref.NewGraph()
	emb := embedder.NewMockProvider(8)

	c, err := crawler.New(root, []string{"go"}, nil, 1<<20)
	require.NoError(t, err)
	cd := crawler.NewChangeDetector(c)

	p := pipeline.New(pipeline.Deps{
		RootDir:        root,
		DataDir:        dataDir,
		ChangeDetector: cd,
		Parser:         parser.NewDispatcher(nil),
		ChunkerConfig:  chunker.Config{MaxChunkTokens: 512, MinChunkLines: 2, ChunkOverlapRatio: 0.25},
		Embedder:       emb,
		VectorStore:    vs,
		KeywordIndex:   kw,
		SymbolIndex:    sym,
		XrefGraph:      gr,
	})

	result, err := p.Run(context.Background(), false)
	require.NoError(t, err)
	require.True(t, result.Success)
	require.Greater(t, result.ChunksCreated, 0)

	e := New(Deps{
		RootDir:      root,
		VectorStore:  vs,
		KeywordIndex: kw,
		SymbolIndex:  sym,
		XrefGraph:    gr,
		Embedder:     emb,
		Pipeline:     p,
		GitOps:       git.NewMockGitOps(),
	})

	t.Cleanup(func() {
		vs.Close()
		kw.Close()
		e.Close()
	})

	return e, root
}

func TestEngine_SearchHybridFindsDefiningChunk(t *testing.T) {
	t.Parallel()

	e, _ := newEngineHarness(t)

	results, err := e.Search(context.Background(), NewSearchRequest("World"))
	require.NoError(t, err)
	require.NotEmpty(t, results)

	var found bool
	for _, r := range results {
		if r.Name == "World" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestEngine_SearchRejectsEmptyQuery(t *testing.T) {
	t.Parallel()

	e, _ := newEngineHarness(t)
	_, err := e.Search(context.Background(), NewSearchRequest("   "))
	require.Error(t, err)
}

func TestEngine_ReadSemanticContextBySymbol(t *testing.T) {
	t.Parallel()

	e, _ := newEngineHarness(t)

	result, err := e.ReadSemanticContext(ContextRequest{FilePath: "a.go", Symbol: "World", ContextLines: 1})
	require.NoError(t, err)
	assert.Contains(t, result.Code, "world")
	assert.Equal(t, "a.go", result.RelativePath)
}

func TestEngine_ReadSemanticContextMissingFile(t *testing.T) {
	t.Parallel()

	e, _ := newEngineHarness(t)
	_, err := e.ReadSemanticContext(ContextRequest{FilePath: "missing.go"})
	require.Error(t, err)
}

func TestEngine_ReadSemanticContextCacheInvalidatesOnModify(t *testing.T) {
	t.Parallel()

	e, root := newEngineHarness(t)

	first, err := e.ReadSemanticContext(ContextRequest{FilePath: "a.go"})
	require.NoError(t, err)
	assert.Contains(t, first.Code, "world")

	future := time.Now().Add(time.Hour)
	newContent := "package a\n\nfunc Hello() string {\n\treturn World()\n}\n\nfunc World() string {\n\treturn \"galaxy\"\n}\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.go"), []byte(newContent), 0o644))
	require.NoError(t, os.Chtimes(filepath.Join(root, "a.go"), future, future))

	second, err := e.ReadSemanticContext(ContextRequest{FilePath: "a.go"})
	require.NoError(t, err)
	assert.Contains(t, second.Code, "galaxy")
	assert.NotContains(t, second.Code, "\"world\"")
}

func TestEngine_SearchXrefsFindsCaller(t *testing.T) {
	t.Parallel()

	e, _ := newEngineHarness(t)

	hits, err := e.SearchXrefs("World", xref.DirectionCallers, 0)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, "Hello", hits[0].Name)
}

func TestEngine_SearchSymbolsToleratesTypo(t *testing.T) {
	t.Parallel()

	e, _ := newEngineHarness(t)

	hits, err := e.SearchSymbols("Worl", 0, 0)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, "World", hits[0].Symbol.Name)
}

func TestEngine_GetStatsReflectsIndexedChunks(t *testing.T) {
	t.Parallel()

	e, _ := newEngineHarness(t)

	stats, err := e.GetStats()
	require.NoError(t, err)
	assert.Greater(t, stats.TotalChunks, 0)
	assert.Equal(t, stats.TotalChunks, stats.ChunksByLanguage["go"])
	assert.Equal(t, 2, stats.SymbolCount)
}

func TestEngine_IndexCodebaseDelegatesToPipeline(t *testing.T) {
	t.Parallel()

	e, root := newEngineHarness(t)

	require.NoError(t, os.WriteFile(filepath.Join(root, "b.go"), []byte("package a\n\nfunc Another() int { return 1 }\n"), 0o644))

	result, err := e.IndexCodebase(context.Background(), false)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 1, result.FilesProcessed)
}
