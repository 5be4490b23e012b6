package chunker

import (
	"math"
	"strings"
	"time"
)

// FromLineWindows produces the fallback chunk set (spec.md §4.3 fallback
// path): type=block chunks by sliding a line-aligned window over the
// source, used when the AST is unavailable (no grammar artifact, or C2
// failed closed).
func FromLineWindows(source []byte, cfg Config, filePath, relativePath, language string, now time.Time) []Chunk {
	text := string(source)
	if strings.TrimSpace(text) == "" {
		return nil
	}

	lines := strings.Split(text, "\n")
	avgLen := avgLineLen(lines)
	linesPerChunk := maxInt(1, cfg.MaxChunkTokens*4/avgLen)
	overlapTokens := int(math.Floor(float64(cfg.MaxChunkTokens) * cfg.ChunkOverlapRatio))
	overlapLineCount := minInt(linesPerChunk-1, overlapLines(overlapTokens, avgLen))
	step := maxInt(1, linesPerChunk-overlapLineCount)

	type window struct {
		start, end int // 0-based, end exclusive
	}
	var windows []window
	for start := 0; start < len(lines); start += step {
		end := minInt(len(lines), start+linesPerChunk)
		windows = append(windows, window{start, end})
		if end == len(lines) {
			break
		}
	}

	// Coalesce windows shorter than MinChunkLines with the next one.
	var merged []window
	for i := 0; i < len(windows); i++ {
		w := windows[i]
		for w.end-w.start < cfg.MinChunkLines && i+1 < len(windows) {
			i++
			w.end = windows[i].end
		}
		merged = append(merged, w)
	}

	var chunks []Chunk
	for _, w := range merged {
		code := strings.Join(lines[w.start:w.end], "\n")
		if strings.TrimSpace(code) == "" || isCommentOnly(code) {
			continue
		}
		startLine := w.start + 1
		endLine := w.end
		chunks = append(chunks, Chunk{
			ID:            computeID(relativePath, startLine, endLine, code),
			FilePath:      filePath,
			RelativePath:  relativePath,
			Language:      language,
			Type:          TypeBlock,
			Scope:         relativePath,
			StartLine:     startLine,
			EndLine:       endLine,
			Code:          code,
			IndexText:     code,
			TokenEstimate: estimateTokens(code),
			LastUpdated:   now,
		})
	}
	return chunks
}

// isCommentOnly reports whether every non-blank line of code begins with a
// common line-comment marker. It is a best-effort, language-agnostic
// heuristic: comments-only regions are dropped (spec.md §4.3 edge cases).
func isCommentOnly(code string) bool {
	markers := []string{"//", "#", "--", "*", "/*"}
	for _, line := range strings.Split(code, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		isComment := false
		for _, m := range markers {
			if strings.HasPrefix(trimmed, m) {
				isComment = true
				break
			}
		}
		if !isComment {
			return false
		}
	}
	return true
}
