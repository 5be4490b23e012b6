package pipeline

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
	"github.com/jardhel/seu-claude/internal/keyword"
	"github.com/jardhel/seu-claude/internal/parser"
	"github.com/jardhel/seu-claude/internal/symbols"
	"github.com/jardhel/seu-claude/internal/vectorstore"
	"github.com/jardhel/seu-claude/internal/xref"
)

// TEST PLAN
// 1. Indexing a fresh tree with one Go file processes it and creates chunks
//    (scenario 1, incremental skip - first half).
// 2. Re-running with no changes on disk processes zero files and skips all.
// 3. Deleting the file and re-running reports it deleted and removes its
//    vector/keyword entries (scenario 2, delete propagation).
// 4. Modifying a file's content re-processes exactly that file.
// 5. A fresh process (new in-memory symbol/xref/keyword indices over the
//    same data directory) recovers prior results from disk without
//    reprocessing any file.

func newHarnessWithDataDir(t *testing.T, rootDir, dataDir string) (*Pipeline, *vectorstore.Store, *keyword.Index, *symbols.Index, *xref.Graph) {
	t.Helper()

	vs, err := vectorstore.Open(filepath.Join(t.TempDir(), "store.db"), 8)
	require.NoError(t, err)
	kw, err := keyword.Open("")
	require.NoError(t, err)
	sym := symbols.NewIndex()
	gr := xref.NewGraph()

	c, err := crawler.New(rootDir, []string{"go"}, nil, 1<<20)
	require.NoError(t, err)
	cd := crawler.NewChangeDetector(c)

	p := New(Deps{
		RootDir:        rootDir,
		DataDir:        dataDir,
		ChangeDetector: cd,
		Parser:         parser.NewDispatcher(nil),
		ChunkerConfig:  chunker.Config{MaxChunkTokens: 512, MinChunkLines: 2, ChunkOverlapRatio: 0.25},
		Embedder:       embedder.NewMockProvider(8),
		VectorStore:    vs,
		KeywordIndex:   kw,
		SymbolIndex:    sym,
		XrefGraph:      gr,
	})

	t.Cleanup(func() {
		vs.Close()
		kw.Close()
	})

	return p, vs, kw, sym, gr
}

func newHarness(t *testing.T, rootDir string) (*Pipeline, *vectorstore.Store, *keyword.Index) {
	t.Helper()
	p, vs, kw, _, _ := newHarnessWithDataDir(t, rootDir, t.TempDir())
	return p, vs, kw
}

func TestPipeline_FreshRunIndexesNewFile(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.go"), []byte("package a\n\nfunc Hello() string {\n\treturn \"world\"\n}\n"), 0o644))

	p, vs, _ := newHarness(t, root)

	result, err := p.Run(context.Background(), false)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 1, result.FilesProcessed)
	assert.Equal(t, 0, result.FilesUpdated)
	assert.Zero(t, result.FilesSkipped)
	assert.Greater(t, result.ChunksCreated, 0)
	assert.Equal(t, 1, result.Languages["go"])

	stats, err := vs.Stats()
	require.NoError(t, err)
	assert.Equal(t, result.ChunksCreated, stats.TotalChunks)
}

func TestPipeline_SecondRunWithNoChangesSkipsEverything(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.go"), []byte("package a\n\nfunc Hello() string {\n\treturn \"world\"\n}\n"), 0o644))

	p, _, _ := newHarness(t, root)

	first, err := p.Run(context.Background(), false)
	require.NoError(t, err)
	require.Equal(t, 1, first.FilesProcessed)

	second, err := p.Run(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 0, second.FilesProcessed)
	assert.Equal(t, 1, second.FilesSkipped)
}

func TestPipeline_DeletePropagatesToStores(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	filePath := filepath.Join(root, "a.go")
	require.NoError(t, os.WriteFile(filePath, []byte("package a\n\nfunc Hello() string {\n\treturn \"world\"\n}\n"), 0o644))

	p, vs, kw := newHarness(t, root)

	_, err := p.Run(context.Background(), false)
	require.NoError(t, err)

	require.NoError(t, os.Remove(filePath))

	result, err := p.Run(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 1, result.FilesDeleted)

	remaining, err := vs.GetByFile("a.go")
	require.NoError(t, err)
	assert.Empty(t, remaining)

	count, err := kw.DocCount()
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestPipeline_ModifiedFileIsReprocessed(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	filePath := filepath.Join(root, "a.go")
	require.NoError(t, os.WriteFile(filePath, []byte("package a\n\nfunc Hello() string {\n\treturn \"world\"\n}\n"), 0o644))

	p, _, _ := newHarness(t, root)

	_, err := p.Run(context.Background(), false)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filePath, []byte("package a\n\nfunc Hello() string {\n\treturn \"there, world\"\n}\n"), 0o644))
	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(filePath, future, future))

	result, err := p.Run(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 1, result.FilesProcessed)
	assert.Equal(t, 1, result.FilesUpdated)
}

func TestPipeline_RestartRecoversSymbolAndXrefState(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	dataDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.go"), []byte(
		"package a\n\nfunc Hello() string {\n\treturn World()\n}\n\nfunc World() string {\n\treturn \"world\"\n}\n",
	), 0o644))

	p1, _, _, sym1, gr1 := newHarnessWithDataDir(t, root, dataDir)
	_, err := p1.Run(context.Background(), false)
	require.NoError(t, err)
	require.NotZero(t, sym1.Count())
	require.NotEmpty(t, gr1.Search("World", xref.DirectionCallers))

	p2, _, _, sym2, gr2 := newHarnessWithDataDir(t, root, dataDir)
	require.Zero(t, sym2.Count(), "fresh index should start empty before Run")

	result, err := p2.Run(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 0, result.FilesProcessed)
	assert.Equal(t, 1, result.FilesSkipped)

	assert.Equal(t, sym1.Count(), sym2.Count())
	assert.NotEmpty(t, sym2.Search("Hello", 10))
	assert.NotEmpty(t, gr2.Search("World", xref.DirectionCallers))
}
