// Package query implements the query orchestration facade (spec component
// C11): the single entry point (`Engine`) a frontend calls for indexing and
// every read operation, built on top of C5-C9's already-indexed state.
package query

import (
	"time"

	"github.com/maypok86/otter"

	"github.com/jardhel/seu-claude/internal/chunker"
	"github.com/jardhel/seu-claude/internal/embedder"
	"github.com/jardhel/seu-claude/internal/git"
	"github.com/jardhel/seu-claude/internal/keyword"
	"github.com/jardhel/seu-claude/internal/pipeline"
	"github.com/jardhel/seu-claude/internal/rank"
	"github.com/jardhel/seu-claude/internal/symbols"
	"github.com/jardhel/seu-claude/internal/vectorstore"
	"github.com/jardhel/seu-claude/internal/xref"
)

// fileCacheWeightLimit bounds ReadSemanticContext's file-line cache, the
// same weight-based budget the teacher's graph searcher applies to its own
// context-injection cache.
const fileCacheWeightLimit = 50 * 1024 * 1024

// Deps wires the Engine to the components it orchestrates. Every field is
// required except GitOps, which defaults to a real git.Operations.
type Deps struct {
	RootDir string

	VectorStore  *vectorstore.Store
	KeywordIndex *keyword.Index
	SymbolIndex  *symbols.Index
	XrefGraph    *xref.Graph
	Embedder     embedder.Provider
	Pipeline     *pipeline.Pipeline
	GitOps       git.Operations

	Fuser    *rank.Fuser
	Reranker *rank.Reranker
}

// cachedFile is one ReadSemanticContext file cache entry: the file's lines
// plus the mtime they were read at, so a later call can tell whether the
// file changed on disk and the cached split must be discarded.
type cachedFile struct {
	lines   []string
	modTime time.Time
}

// Engine is the query orchestration facade (spec component C11): one Go
// method per row of spec.md §6's tool table.
type Engine struct {
	deps         Deps
	fileCache    otter.Cache[string, cachedFile]
	cacheEnabled bool
}

// New returns an Engine over deps, defaulting GitOps/Fuser/Reranker to
// their standard constructions when left unset.
func New(deps Deps) *Engine {
	if deps.GitOps == nil {
		deps.GitOps = git.NewOperations()
	}
	if deps.Fuser == nil {
		deps.Fuser = rank.NewFuser()
	}
	if deps.Reranker == nil {
		deps.Reranker = rank.NewReranker(rank.DefaultFactorWeights(), 0)
	}

	e := &Engine{deps: deps}
	cache, err := otter.MustBuilder[string, cachedFile](fileCacheWeightLimit).
		Cost(func(key string, v cachedFile) uint32 { return uint32(len(v.lines) * 100) }).
		Build()
	if err == nil {
		e.fileCache = cache
		e.cacheEnabled = true
	}
	return e
}

// Close releases the Engine's file-line cache. It does not close any of
// Deps' components, which the caller still owns.
func (e *Engine) Close() {
	if e.cacheEnabled {
		e.fileCache.Close()
	}
}

// Filters narrows a search to a chunk type, a language, and/or path globs,
// matching spec.md §6's search_codebase scope shape.
type Filters struct {
	Type         chunker.Type
	Language     string
	IncludePaths []string
	ExcludePaths []string
}

func (f Filters) isZero() bool {
	return f.Type == "" && f.Language == "" && len(f.IncludePaths) == 0 && len(f.ExcludePaths) == 0
}
