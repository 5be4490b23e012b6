// Package pipeline implements the indexing pipeline (spec component C10):
// it drives the crawl → parse → chunk → embed → write cycle and rebuilds
// C6/C7/C8's per-file entries, following the same processor/progress-
// reporter shape as the teacher's internal/indexer package.
package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"time"

	"github.com/jardhel/seu-claude/internal/chunker"
	"github.com/jardhel/seu-claude/internal/crawler"
	"github.com/jardhel/seu-claude/internal/embedder"
	"github.com/jardhel/seu-claude/internal/errs"
	"github.com/jardhel/seu-claude/internal/keyword"
	"github.com/jardhel/seu-claude/internal/parser"
	"github.com/jardhel/seu-claude/internal/symbols"
	"github.com/jardhel/seu-claude/internal/vectorstore"
	"github.com/jardhel/seu-claude/internal/xref"
)

// Result is the object returned to the caller after a run (spec.md §4.10).
type Result struct {
	Success        bool
	FilesProcessed int
	FilesSkipped   int
	FilesUpdated   int
	FilesDeleted   int
	ChunksCreated  int
	Languages      map[string]int
	DurationMs     int64
	Error          string
}

// Deps wires the pipeline to its upstream/downstream components. All
// fields are required except Progress, which defaults to a no-op.
type Deps struct {
	RootDir string
	DataDir string

	ChangeDetector *crawler.ChangeDetector
	Parser         parser.Parser
	ChunkerConfig  chunker.Config
	Embedder       embedder.Provider
	VectorStore    *vectorstore.Store
	KeywordIndex   *keyword.Index
	SymbolIndex    *symbols.Index
	XrefGraph      *xref.Graph

	Progress ProgressReporter
}

// Pipeline drives one indexing run end to end.
type Pipeline struct {
	deps Deps
}

// New returns a Pipeline over deps, defaulting Progress to a no-op.
func New(deps Deps) *Pipeline {
	if deps.Progress == nil {
		deps.Progress = NoOpProgressReporter{}
	}
	return &Pipeline{deps: deps}
}

// fileWork is one changed file's chunks, carried between the pipeline's
// phases until it is written out.
type fileWork struct {
	record crawler.FileRecord
	chunks []chunker.Chunk
	hash   string
}

// Run executes one incremental indexing pass (spec.md §4.10's six-step
// algorithm). force reclassifies every discovered file as modified,
// ignoring mtime/size/hash.
func (p *Pipeline) Run(ctx context.Context, force bool) (*Result, error) {
	start := time.Now()
	result := &Result{Languages: map[string]int{}}

	statePath := crawler.StatePath(p.deps.DataDir)
	prevState, err := crawler.LoadState(statePath)
	if err != nil {
		return p.fail(result, start, err)
	}

	symbolsPath := symbols.StatePath(p.deps.DataDir)
	if err := p.deps.SymbolIndex.Deserialize(symbolsPath); err != nil {
		return p.fail(result, start, err)
	}
	xrefsPath := xref.StatePath(p.deps.DataDir)
	if err := p.deps.XrefGraph.Deserialize(xrefsPath); err != nil {
		return p.fail(result, start, err)
	}
	bm25Path := keyword.StatePath(p.deps.DataDir)
	if err := p.deps.KeywordIndex.Deserialize(bm25Path); err != nil {
		return p.fail(result, start, err)
	}

	p.deps.Progress.OnProgress(Event{Phase: PhaseCrawling, Message: "discovering files"})
	changes, err := p.deps.ChangeDetector.DetectChanges(prevState, force)
	if err != nil {
		return p.fail(result, start, errs.IO("failed to detect changes", err))
	}
	p.deps.Progress.OnProgress(Event{
		Phase: PhaseCrawling,
		Total: len(changes.Added) + len(changes.Modified) + len(changes.Unchanged),
		Message: "crawl complete",
	})

	if err := ctx.Err(); err != nil {
		return p.fail(result, start, err)
	}

	changed := append(append([]crawler.FileRecord{}, changes.Added...), changes.Modified...)
	modifiedSet := make(map[string]bool, len(changes.Modified))
	for _, rec := range changes.Modified {
		modifiedSet[rec.RelativePath] = true
	}

	works, err := p.parseAndChunk(ctx, changed)
	if err != nil {
		return p.fail(result, start, err)
	}

	if err := p.embedAll(ctx, works); err != nil {
		return p.fail(result, start, err)
	}

	if err := p.writeWorks(works, modifiedSet, result); err != nil {
		return p.fail(result, start, err)
	}

	for _, relPath := range changes.Deleted {
		if err := p.deps.VectorStore.DeleteByFile(relPath); err != nil {
			return p.fail(result, start, errs.Store("failed to delete stale vector entries", err))
		}
		if err := p.deps.KeywordIndex.DeleteByFile(relPath); err != nil {
			return p.fail(result, start, errs.Store("failed to delete stale keyword entries", err))
		}
		p.deps.SymbolIndex.DeleteByFile(relPath)
		p.deps.XrefGraph.DeleteByFile(relPath)
		result.FilesDeleted++
	}

	result.FilesSkipped = len(changes.Unchanged)

	newState := buildNewState(prevState, changes, works)
	if err := crawler.SaveState(statePath, newState); err != nil {
		return p.fail(result, start, err)
	}
	if err := p.deps.SymbolIndex.Serialize(symbolsPath); err != nil {
		return p.fail(result, start, err)
	}
	if err := p.deps.XrefGraph.Serialize(xrefsPath); err != nil {
		return p.fail(result, start, err)
	}
	if err := p.deps.KeywordIndex.Serialize(bm25Path); err != nil {
		return p.fail(result, start, err)
	}

	p.deps.Progress.OnProgress(Event{Phase: PhaseDone, Message: "indexing complete"})
	result.Success = true
	result.DurationMs = time.Since(start).Milliseconds()
	return result, nil
}

func (p *Pipeline) fail(result *Result, start time.Time, err error) (*Result, error) {
	result.Success = false
	result.Error = err.Error()
	result.DurationMs = time.Since(start).Milliseconds()
	return result, err
}

// parseAndChunk reads, parses, and chunks every changed file. A per-file
// read/parse failure is logged and the file is skipped (its prior index
// entries, if any, are left untouched) rather than aborting the run.
func (p *Pipeline) parseAndChunk(ctx context.Context, changed []crawler.FileRecord) ([]*fileWork, error) {
	p.deps.Progress.OnProgress(Event{Phase: PhaseParsing, Total: len(changed)})

	works := make([]*fileWork, 0, len(changed))
	now := time.Now()

	for i, rec := range changed {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		source, err := os.ReadFile(rec.FilePath)
		if err != nil {
			continue
		}

		var chunks []chunker.Chunk
		tree, parseErr := p.deps.Parser.Parse(source, rec.Language)
		if parseErr != nil || tree == nil {
			chunks = chunker.FromLineWindows(source, p.deps.ChunkerConfig, rec.FilePath, rec.RelativePath, rec.Language, now)
		} else {
			chunks = chunker.FromAST(tree, p.deps.ChunkerConfig, rec.FilePath, rec.RelativePath, rec.Language, now)
		}

		sum := sha256.Sum256(source)
		works = append(works, &fileWork{record: rec, chunks: chunks, hash: hex.EncodeToString(sum[:])})

		p.deps.Progress.OnProgress(Event{Phase: PhaseParsing, Processed: i + 1, Total: len(changed), Message: rec.RelativePath})
	}

	p.deps.Progress.OnProgress(Event{Phase: PhaseChunking, Total: len(works), Processed: len(works)})
	return works, nil
}

// embedAll batches every changed file's chunk text through the embedder in
// one call, the same phase-batched shape as the teacher's embedChunks. An
// embedder failure is fatal: it aborts the whole run.
func (p *Pipeline) embedAll(ctx context.Context, works []*fileWork) error {
	var texts []string
	for _, w := range works {
		for _, c := range w.chunks {
			texts = append(texts, c.IndexText)
		}
	}
	if len(texts) == 0 {
		return nil
	}

	p.deps.Progress.OnProgress(Event{Phase: PhaseEmbedding, Total: len(texts)})

	vectors, err := p.deps.Embedder.EmbedBatch(ctx, texts, embedder.ModeDocument)
	if err != nil {
		return errs.Embedding("failed to embed chunks", err)
	}
	if len(vectors) != len(texts) {
		return errs.Embedding("embedder returned a mismatched vector count", nil)
	}

	idx := 0
	for _, w := range works {
		for i := range w.chunks {
			w.chunks[i].Vector = vectors[idx]
			idx++
		}
	}

	p.deps.Progress.OnProgress(Event{Phase: PhaseEmbedding, Total: len(texts), Processed: len(texts)})
	return nil
}

// writeWorks rebuilds each changed file's entries in C5-C8 (delete-then-
// insert, since chunk ids are content-derived and a modified file's old
// chunks would otherwise survive under stale ids) and tallies result.
func (p *Pipeline) writeWorks(works []*fileWork, modifiedSet map[string]bool, result *Result) error {
	p.deps.Progress.OnProgress(Event{Phase: PhaseWriting, Total: len(works)})

	for i, w := range works {
		relPath := w.record.RelativePath

		if err := p.deps.VectorStore.DeleteByFile(relPath); err != nil {
			return errs.Store("failed to clear stale vector entries", err)
		}
		if err := p.deps.KeywordIndex.DeleteByFile(relPath); err != nil {
			return errs.Store("failed to clear stale keyword entries", err)
		}
		p.deps.SymbolIndex.DeleteByFile(relPath)
		p.deps.XrefGraph.DeleteByFile(relPath)

		if len(w.chunks) > 0 {
			if err := p.deps.VectorStore.Upsert(w.chunks); err != nil {
				return errs.Store("failed to upsert chunks", err)
			}

			ids := make([]string, len(w.chunks))
			texts := make([]string, len(w.chunks))
			relPaths := make([]string, len(w.chunks))
			var syms []symbols.Symbol
			var defs []xref.Definition
			var calls []xref.CallSite
			for j, c := range w.chunks {
				ids[j] = c.ID
				texts[j] = c.IndexText
				relPaths[j] = relPath
				if c.Name == "" {
					continue
				}
				syms = append(syms, symbols.Symbol{
					ChunkID: c.ID, Name: c.Name, Type: c.Type, RelativePath: relPath,
					Scope: c.Scope, StartLine: c.StartLine,
				})
				defs = append(defs, xref.Definition{
					Name: c.Name, ChunkID: c.ID, RelativePath: relPath,
					StartLine: c.StartLine, EndLine: c.EndLine,
				})
			}
			for _, c := range w.chunks {
				calls = append(calls, xref.ExtractCallSites(c.ID, c.Code, c.StartLine)...)
			}

			if err := p.deps.KeywordIndex.Upsert(ids, texts, relPaths); err != nil {
				return errs.Store("failed to upsert keyword entries", err)
			}
			p.deps.SymbolIndex.Upsert(relPath, syms)
			p.deps.XrefGraph.IndexFile(relPath, defs, calls)
		}

		result.FilesProcessed++
		if modifiedSet[relPath] {
			result.FilesUpdated++
		}
		result.ChunksCreated += len(w.chunks)
		result.Languages[w.record.Language] += 1

		p.deps.Progress.OnProgress(Event{Phase: PhaseWriting, Processed: i + 1, Total: len(works), Message: relPath})
	}
	return nil
}

// buildNewState carries forward unchanged entries, drops deleted ones, and
// records fresh (mtime, size, hash) for every successfully processed file.
// Files that failed to read keep no entry, so they are retried next run.
func buildNewState(prevState map[string]crawler.FileState, changes *crawler.ChangeSet, works []*fileWork) map[string]crawler.FileState {
	newState := make(map[string]crawler.FileState, len(prevState))

	for _, rec := range changes.Unchanged {
		if s, ok := prevState[rec.RelativePath]; ok {
			newState[rec.RelativePath] = s
		} else {
			newState[rec.RelativePath] = crawler.FileState{ModTime: rec.ModTime, Size: rec.Size}
		}
	}
	for _, w := range works {
		newState[w.record.RelativePath] = crawler.FileState{
			ModTime: w.record.ModTime,
			Size:    w.record.Size,
			Hash:    w.hash,
		}
	}

	return newState
}
