package query

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jardhel/seu-claude/internal/chunker"
	"github.com/jardhel/seu-claude/internal/corefs"
	"github.com/jardhel/seu-claude/internal/errs"
)

// ContextRequest is read_semantic_context's input (spec.md §4.11).
type ContextRequest struct {
	FilePath     string
	Symbol       string
	StartLine    int
	EndLine      int
	ContextLines int
}

// ChunkSummary describes one same-file chunk's position, without its code.
type ChunkSummary struct {
	Name      string
	Type      chunker.Type
	Scope     string
	StartLine int
	EndLine   int
}

// ContextResult is read_semantic_context's output (spec.md §6).
type ContextResult struct {
	RelativePath string
	StartLine    int
	EndLine      int
	Code         string
	OtherChunks  []ChunkSummary
}

// ReadSemanticContext opens the file from disk and returns the requested
// span widened by ContextLines, plus every other chunk already indexed for
// that file. When Symbol is set, the span centers on the chunk whose name
// matches it instead of the explicit StartLine/EndLine.
func (e *Engine) ReadSemanticContext(req ContextRequest) (*ContextResult, error) {
	abs, err := corefs.ValidatePath(e.deps.RootDir, req.FilePath)
	if err != nil {
		return nil, err
	}

	lines, err := e.readLines(abs, req.FilePath)
	if err != nil {
		return nil, err
	}

	relPath := req.FilePath
	if rel, err := filepath.Rel(e.deps.RootDir, abs); err == nil {
		relPath = filepath.ToSlash(rel)
	}

	totalLines := len(lines)

	fileChunks, err := e.deps.VectorStore.GetByFile(relPath)
	if err != nil {
		return nil, err
	}

	startLine, endLine := req.StartLine, req.EndLine
	var matched *chunker.Chunk
	if req.Symbol != "" {
		for i := range fileChunks {
			if fileChunks[i].Name == req.Symbol {
				matched = &fileChunks[i]
				break
			}
		}
		if matched == nil {
			return nil, errs.NotFoundf("symbol %q not found in %q", req.Symbol, req.FilePath)
		}
		startLine, endLine = matched.StartLine, matched.EndLine
	}
	if startLine <= 0 {
		startLine = 1
	}
	if endLine <= 0 || endLine > totalLines {
		endLine = totalLines
	}

	widenedStart := startLine - req.ContextLines
	if widenedStart < 1 {
		widenedStart = 1
	}
	widenedEnd := endLine + req.ContextLines
	if widenedEnd > totalLines {
		widenedEnd = totalLines
	}
	if widenedEnd < widenedStart {
		widenedEnd = widenedStart
	}

	code := strings.Join(lines[widenedStart-1:widenedEnd], "\n")

	other := make([]ChunkSummary, 0, len(fileChunks))
	for _, c := range fileChunks {
		if matched != nil && c.ID == matched.ID {
			continue
		}
		other = append(other, ChunkSummary{Name: c.Name, Type: c.Type, Scope: c.Scope, StartLine: c.StartLine, EndLine: c.EndLine})
	}

	return &ContextResult{RelativePath: relPath, StartLine: widenedStart, EndLine: widenedEnd, Code: code, OtherChunks: other}, nil
}

// readLines returns abs's content split into lines, reusing a cached split
// keyed by cacheKey as long as the file's mtime hasn't moved on since it was
// cached. Caching is a pure performance optimization over re-reading and
// re-splitting a hot file on every context request; a cache miss or a
// disabled cache falls back to reading straight from disk.
func (e *Engine) readLines(abs, cacheKey string) ([]string, error) {
	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errs.NotFoundf("file %q not found", cacheKey)
		}
		return nil, errs.IO(fmt.Sprintf("failed to stat %q", cacheKey), err)
	}

	if e.cacheEnabled {
		if cached, ok := e.fileCache.Get(cacheKey); ok && cached.modTime.Equal(info.ModTime()) {
			return cached.lines, nil
		}
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, errs.IO(fmt.Sprintf("failed to read %q", cacheKey), err)
	}
	lines := strings.Split(string(data), "\n")

	if e.cacheEnabled {
		e.fileCache.Set(cacheKey, cachedFile{lines: lines, modTime: info.ModTime()})
	}
	return lines, nil
}
