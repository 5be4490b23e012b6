package chunker

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/jardhel/seu-claude/internal/parser"
)

// Config is the chunking-relevant subset of the engine configuration.
type Config struct {
	MaxChunkTokens    int
	MinChunkLines     int
	ChunkOverlapRatio float64
}

// FromAST builds the chunk set for one file from an already-parsed Tree
// (spec.md §4.3 AST path). now stamps LastUpdated on every chunk.
func FromAST(tree *parser.Tree, cfg Config, filePath, relativePath, language string, now time.Time) []Chunk {
	var chunks []Chunk

	fileContext := buildFileContext(tree)
	if fileContext != "" {
		chunks = append(chunks, Chunk{
			ID:            computeID(relativePath, 0, 0, fileContext),
			FilePath:      filePath,
			RelativePath:  relativePath,
			Language:      language,
			Type:          TypeFileCtx,
			Scope:         relativePath,
			StartLine:     1,
			EndLine:       1,
			Code:          fileContext,
			IndexText:     fileContext,
			TokenEstimate: estimateTokens(fileContext),
			LastUpdated:   now,
		})
	}

	for _, node := range tree.Nodes {
		chunks = append(chunks, emitNode(node, cfg, filePath, relativePath, language, fileContext, now)...)
	}

	return chunks
}

// emitNode emits one chunk for a top-level declaration (splitting it if
// oversized), plus one per method when node is class-like.
func emitNode(node *parser.ParsedNode, cfg Config, filePath, relativePath, language, fileContext string, now time.Time) []Chunk {
	var out []Chunk

	scope := strings.Join(append([]string{relativePath}, node.Scope...), ":")

	code := node.Text
	if node.Type == TypeClass && len(node.Children) > 0 {
		code = classHeaderText(node)
	}

	out = append(out, splitIfOversized(Chunk{
		ID:            "", // assigned by splitIfOversized per sub-chunk
		FilePath:      filePath,
		RelativePath:  relativePath,
		Language:      language,
		Type:          node.Type,
		Name:          node.Name,
		Scope:         scope,
		StartLine:     node.StartLine,
		EndLine:       node.EndLine,
		Code:          code,
		Docstring:     node.Docstring,
		TokenEstimate: estimateTokens(code),
		LastUpdated:   now,
	}, cfg, fileContext)...)

	for _, child := range node.Children {
		childScope := strings.Join(append([]string{relativePath}, child.Scope...), ":")
		out = append(out, splitIfOversized(Chunk{
			FilePath:      filePath,
			RelativePath:  relativePath,
			Language:      language,
			Type:          child.Type,
			Name:          child.Name,
			Scope:         childScope,
			StartLine:     child.StartLine,
			EndLine:       child.EndLine,
			Code:          child.Text,
			Docstring:     child.Docstring,
			TokenEstimate: estimateTokens(child.Text),
			LastUpdated:   now,
		}, cfg, fileContext)...)
	}

	return out
}

// classHeaderText approximates a class's "header": its own declaration up
// to (but not including) its first method, plus field declarations.
func classHeaderText(node *parser.ParsedNode) string {
	if len(node.Children) == 0 {
		return node.Text
	}
	lines := strings.Split(node.Text, "\n")
	firstMethodOffset := node.Children[0].StartLine - node.StartLine
	if firstMethodOffset <= 0 || firstMethodOffset > len(lines) {
		return node.Text
	}
	return strings.Join(lines[:firstMethodOffset], "\n")
}

// splitIfOversized applies spec.md §4.3 step 3 (large-chunk splitting) and
// assigns each resulting chunk its id and indexText.
func splitIfOversized(base Chunk, cfg Config, fileContext string) []Chunk {
	if base.TokenEstimate <= cfg.MaxChunkTokens {
		finalize(&base, fileContext)
		return []Chunk{base}
	}

	lines := strings.Split(base.Code, "\n")
	avgLen := avgLineLen(lines)
	linesPerChunk := maxInt(1, cfg.MaxChunkTokens*4/avgLen)
	overlapTokens := int(math.Floor(float64(cfg.MaxChunkTokens) * cfg.ChunkOverlapRatio))
	overlapLineCount := minInt(linesPerChunk-1, overlapLines(overlapTokens, avgLen))
	step := maxInt(1, linesPerChunk-overlapLineCount)

	var parts []Chunk
	partNum := 0
	for start := 0; start < len(lines); start += step {
		end := minInt(len(lines), start+linesPerChunk)
		partNum++
		code := strings.Join(lines[start:end], "\n")

		part := base
		part.Name = fmt.Sprintf("%s_part%d", base.Name, partNum)
		part.StartLine = base.StartLine + start
		part.EndLine = base.StartLine + end - 1
		part.Code = code
		part.TokenEstimate = estimateTokens(code)
		if partNum > 1 {
			part.Docstring = ""
		}
		finalize(&part, fileContext)
		parts = append(parts, part)

		if end == len(lines) {
			break
		}
	}
	return parts
}

func finalize(c *Chunk, fileContext string) {
	c.ID = computeID(c.RelativePath, c.StartLine, c.EndLine, c.Code)
	if fileContext != "" && c.Type != TypeFileCtx {
		c.IndexText = fileContext + "\n\n" + c.Code
	} else {
		c.IndexText = c.Code
	}
}

// buildFileContext concatenates import statements and multi-line top-level
// value declarations (spec.md §4.3 step 4).
func buildFileContext(tree *parser.Tree) string {
	var parts []string
	parts = append(parts, tree.ImportLines...)
	parts = append(parts, tree.TopLevelValueLines...)
	return strings.Join(parts, "\n")
}

func estimateTokens(s string) int {
	return len(s) / 4
}

func avgLineLen(lines []string) int {
	if len(lines) == 0 {
		return 1
	}
	total := 0
	for _, l := range lines {
		total += len(l) + 1
	}
	avg := total / len(lines)
	if avg < 1 {
		avg = 1
	}
	return avg
}

func overlapLines(overlapTokens, avgBytesPerLine int) int {
	if avgBytesPerLine <= 0 {
		return 0
	}
	lines := (overlapTokens * 4) / avgBytesPerLine
	if lines < 1 {
		return 1
	}
	return lines
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
