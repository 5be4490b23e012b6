// Package symbols implements the fuzzy symbol index (spec component C7):
// an in-memory index of every named chunk, searchable by approximate
// string match against its name.
//
// No third-party fuzzy-matching library in the example pack targets plain
// Go identifier strings without pulling in a full search engine; edit
// distance against an in-memory symbol table is a handful of lines and a
// dependency would add an abstraction this package doesn't need. See
// DESIGN.md for the full justification.
package symbols

import (
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/jardhel/seu-claude/internal/chunker"
	"github.com/jardhel/seu-claude/internal/errs"
	"github.com/jardhel/seu-claude/internal/keyword"
)

// Symbol is one named, indexed chunk.
type Symbol struct {
	ChunkID      string
	Name         string
	Type         chunker.Type
	RelativePath string
	Scope        string
	StartLine    int
}

// Index is an in-memory name -> Symbol index, rebuilt incrementally as
// files are (re)indexed.
type Index struct {
	mu      sync.RWMutex
	byFile  map[string][]Symbol
	symbols []Symbol
}

// NewIndex returns an empty symbol index.
func NewIndex() *Index {
	return &Index{byFile: make(map[string][]Symbol)}
}

// Upsert replaces relativePath's symbol set.
func (idx *Index) Upsert(relativePath string, syms []Symbol) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.byFile[relativePath] = syms
	idx.rebuild()
}

// DeleteByFile removes relativePath's symbol set.
func (idx *Index) DeleteByFile(relativePath string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	delete(idx.byFile, relativePath)
	idx.rebuild()
}

// Count returns the total number of indexed symbols.
func (idx *Index) Count() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.symbols)
}

// StatePath returns the default fuzzy-index.json path under dataDir (spec
// §6's persisted state file for C7).
func StatePath(dataDir string) string {
	return filepath.Join(dataDir, "fuzzy-index.json")
}

// Serialize writes the index's per-file symbol table to path so it
// survives a process restart.
func (idx *Index) Serialize(path string) error {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errs.IO("failed to create data dir", err)
	}
	data, err := json.MarshalIndent(idx.byFile, "", "  ")
	if err != nil {
		return errs.IO("failed to marshal fuzzy-index.json", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errs.IO("failed to write fuzzy-index.json", err)
	}
	return nil
}

// Deserialize loads a previously serialized symbol table from path,
// replacing the index's current contents. A missing file is not an
// error: it leaves the index empty, matching a first-ever run.
func (idx *Index) Deserialize(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errs.IO("failed to read fuzzy-index.json", err)
	}
	byFile := map[string][]Symbol{}
	if err := json.Unmarshal(data, &byFile); err != nil {
		return errs.IO("failed to parse fuzzy-index.json", err)
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.byFile = byFile
	idx.rebuild()
	return nil
}

func (idx *Index) rebuild() {
	all := make([]Symbol, 0, len(idx.byFile)*4)
	for _, syms := range idx.byFile {
		all = append(all, syms...)
	}
	idx.symbols = all
}

// Match is one fuzzy search hit.
type Match struct {
	Symbol Symbol
	Score  float64 // in [0,1], 1 = exact match
}

// defaultThreshold is the minimum score a match must reach to be returned.
const defaultThreshold = 0.3

// Search returns symbols whose name approximately matches query, scored by
// normalized edit distance and sorted by descending score then name.
func (idx *Index) Search(query string, topK int) []Match {
	return idx.SearchWithThreshold(query, topK, defaultThreshold)
}

// SearchWithThreshold is Search with an explicit minimum score, optionally
// restricted to the given set of chunk types (empty means "match all").
func (idx *Index) SearchWithThreshold(query string, topK int, threshold float64, types ...chunker.Type) []Match {
	query = normalize(query)
	if query == "" || topK <= 0 {
		return nil
	}

	var typeFilter map[chunker.Type]bool
	if len(types) > 0 {
		typeFilter = make(map[chunker.Type]bool, len(types))
		for _, t := range types {
			typeFilter[t] = true
		}
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	matches := make([]Match, 0, len(idx.symbols))
	for _, sym := range idx.symbols {
		if typeFilter != nil && !typeFilter[sym.Type] {
			continue
		}
		name := normalize(sym.Name)
		if name == "" {
			continue
		}
		score := similarity(query, name)
		if score >= threshold {
			matches = append(matches, Match{Symbol: sym, Score: score})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].Symbol.Name < matches[j].Symbol.Name
	})
	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches
}

// normalize canonicalizes a name the same way spec.md §4.7 requires:
// lowercase words split on camelCase/PascalCase/snake_case/SCREAMING_CASE
// and alphanumeric boundaries, joined by single spaces. Reuses the
// keyword package's identifier splitter so both components agree on word
// boundaries.
func normalize(s string) string {
	var words []string
	for _, word := range identifierPattern.FindAllString(s, -1) {
		for _, part := range keyword.SplitIdentifier(word) {
			if part != "" {
				words = append(words, strings.ToLower(part))
			}
		}
	}
	return strings.Join(words, " ")
}

var identifierPattern = regexp.MustCompile(`[a-zA-Z0-9]+`)

// similarity scores a and b in [0,1] via normalized Levenshtein distance:
// 1 - editDistance / max(len(a), len(b)).
func similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	if maxLen == 0 {
		return 1
	}
	dist := levenshtein(a, b)
	return 1 - float64(dist)/float64(maxLen)
}

// levenshtein computes classic single-character-edit distance between a
// and b using a two-row dynamic-programming table.
func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			del := prev[j] + 1
			ins := curr[j-1] + 1
			sub := prev[j-1] + cost
			curr[j] = min3(del, ins, sub)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}
