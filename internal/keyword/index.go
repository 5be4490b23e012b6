// Package keyword implements the BM25 keyword index (spec component C6):
// a self-contained Okapi BM25 inverted index over each chunk's indexText,
// tokenized with code-aware rules (camelCase/snake_case splitting) rather
// than natural-language tokenization. k1 and b are configurable per spec
// §4.6; see DESIGN.md for why this is hand-rolled rather than built on a
// third-party search engine.
package keyword

import (
	"context"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/jardhel/seu-claude/internal/errs"
)

// defaultK1 and defaultB are Okapi BM25's conventional defaults (spec §4.6).
const (
	defaultK1 = 1.2
	defaultB  = 0.75
)

// stopWords is built once from the package's shared stop-word list and
// applied regardless of Open's path argument.
var stopWords = buildStopWordSet(DefaultStopWords)

// Option configures an Index's BM25 parameters at Open time.
type Option func(*options)

type options struct {
	k1, b float64
}

// WithK1 overrides BM25's term-frequency saturation parameter (default 1.2).
func WithK1(k1 float64) Option {
	return func(o *options) { o.k1 = k1 }
}

// WithB overrides BM25's document-length normalization parameter (default
// 0.75, in [0,1]).
func WithB(b float64) Option {
	return func(o *options) { o.b = b }
}

// docEntry is one indexed document's term frequencies and length.
type docEntry struct {
	RelativePath string         `json:"relative_path"`
	Terms        map[string]int `json:"terms"`
	Length       int            `json:"length"`
}

// Index is the BM25 keyword index (spec §5 C6), keyed by chunk id.
type Index struct {
	mu sync.RWMutex

	k1, b float64

	docs     map[string]*docEntry       // doc id -> entry
	postings map[string]map[string]int // term -> doc id -> term frequency
	totalLen int
}

// Open creates a BM25 index. path names where Serialize/Deserialize
// persist it (spec §6's bm25.json); an empty path just means no default
// path has been chosen, as in tests that only need an in-memory index for
// the process lifetime. k1/b default to 1.2/0.75 and can be overridden
// with WithK1/WithB.
func Open(path string, opts ...Option) (*Index, error) {
	cfg := options{k1: defaultK1, b: defaultB}
	for _, opt := range opts {
		opt(&cfg)
	}
	_ = path
	return &Index{
		k1:       cfg.k1,
		b:        cfg.b,
		docs:     make(map[string]*docEntry),
		postings: make(map[string]map[string]int),
	}, nil
}

// Close releases the index. There is nothing to release for an in-memory
// inverted index; it exists to keep parity with the other C5-C9 stores'
// lifecycle.
func (idx *Index) Close() error {
	return nil
}

// Upsert indexes or replaces the keyword document for each (id, text,
// relativePath) triple. Matches the vector store's id keying (spec §3
// invariant 4: C5 and C6 are id-consistent).
func (idx *Index) Upsert(ids, texts, relativePaths []string) error {
	if len(ids) == 0 {
		return nil
	}
	if len(ids) != len(texts) || len(ids) != len(relativePaths) {
		return errs.Store("keyword upsert: mismatched slice lengths", nil)
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	for i, id := range ids {
		idx.removeDocLocked(id)

		terms := make(map[string]int)
		tokens := analyze(texts[i])
		for _, t := range tokens {
			terms[t]++
		}

		entry := &docEntry{RelativePath: relativePaths[i], Terms: terms, Length: len(tokens)}
		idx.docs[id] = entry
		idx.totalLen += entry.Length
		for term, freq := range terms {
			bucket := idx.postings[term]
			if bucket == nil {
				bucket = make(map[string]int)
				idx.postings[term] = bucket
			}
			bucket[id] = freq
		}
	}
	return nil
}

// DeleteByFile removes every document whose relativePath matches.
func (idx *Index) DeleteByFile(relativePath string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	var toRemove []string
	for id, entry := range idx.docs {
		if entry.RelativePath == relativePath {
			toRemove = append(toRemove, id)
		}
	}
	for _, id := range toRemove {
		idx.removeDocLocked(id)
	}
	return nil
}

// RemoveDocument removes a single document by id (spec §4.6's
// removeDocument operation). Removing an id that isn't indexed is a no-op.
func (idx *Index) RemoveDocument(id string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.removeDocLocked(id)
	return nil
}

// removeDocLocked retracts id's contribution to the postings lists and
// total length. Callers must hold idx.mu for writing.
func (idx *Index) removeDocLocked(id string) {
	entry, ok := idx.docs[id]
	if !ok {
		return
	}
	for term := range entry.Terms {
		bucket := idx.postings[term]
		delete(bucket, id)
		if len(bucket) == 0 {
			delete(idx.postings, term)
		}
	}
	idx.totalLen -= entry.Length
	delete(idx.docs, id)
}

// Clear removes every document, resetting the index to empty (spec §4.6's
// clear operation).
func (idx *Index) Clear() {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.docs = make(map[string]*docEntry)
	idx.postings = make(map[string]map[string]int)
	idx.totalLen = 0
}

// Size reports how many documents are currently indexed (spec §4.6's size
// operation).
func (idx *Index) Size() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.docs)
}

// Stats summarizes the index's current BM25 statistics (spec §4.6's
// getStats operation).
type Stats struct {
	DocCount     int
	UniqueTerms  int
	AvgDocLength float64
	K1           float64
	B            float64
}

// GetStats returns the index's current size and BM25 parameters.
func (idx *Index) GetStats() Stats {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	var avgdl float64
	if len(idx.docs) > 0 {
		avgdl = float64(idx.totalLen) / float64(len(idx.docs))
	}
	return Stats{
		DocCount:     len(idx.docs),
		UniqueTerms:  len(idx.postings),
		AvgDocLength: avgdl,
		K1:           idx.k1,
		B:            idx.b,
	}
}

// Result pairs a chunk id with its BM25 score, highest first.
type Result struct {
	ID    string
	Score float64
}

// Search scores every document containing at least one query term with
// Okapi BM25 and returns the topK highest-scoring chunk ids.
func (idx *Index) Search(ctx context.Context, query string, topK int) ([]Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	n := len(idx.docs)
	if n == 0 {
		return nil, nil
	}
	avgdl := 1.0
	if idx.totalLen > 0 {
		avgdl = float64(idx.totalLen) / float64(n)
	}

	seen := make(map[string]bool)
	scores := make(map[string]float64)
	for _, term := range analyze(query) {
		if seen[term] {
			continue
		}
		seen[term] = true

		bucket := idx.postings[term]
		df := len(bucket)
		if df == 0 {
			continue
		}
		idf := math.Log((float64(n)-float64(df)+0.5)/(float64(df)+0.5) + 1)

		for id, tf := range bucket {
			dl := idx.docs[id].Length
			denom := float64(tf) + idx.k1*(1-idx.b+idx.b*float64(dl)/avgdl)
			scores[id] += idf * (float64(tf) * (idx.k1 + 1)) / denom
		}
	}
	if len(scores) == 0 {
		return nil, nil
	}

	out := make([]Result, 0, len(scores))
	for id, score := range scores {
		out = append(out, Result{ID: id, Score: score})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > topK {
		out = out[:topK]
	}
	return out, nil
}

// DocCount reports how many documents are currently indexed.
func (idx *Index) DocCount() (uint64, error) {
	return uint64(idx.Size()), nil
}

// StatePath returns the default bm25.json path under dataDir (spec §6's
// persisted state file for C6).
func StatePath(dataDir string) string {
	return filepath.Join(dataDir, "bm25.json")
}

// persistedIndex is the on-disk shape of an Index: its documents plus the
// BM25 parameters it was built with, kept for inspection (Deserialize does
// not override the Index's already-configured k1/b with these).
type persistedIndex struct {
	K1   float64             `json:"k1"`
	B    float64             `json:"b"`
	Docs map[string]docEntry `json:"docs"`
}

// Serialize writes every indexed document to path (spec §4.6's serialize
// operation) so the index survives a process restart.
func (idx *Index) Serialize(path string) error {
	idx.mu.RLock()
	p := persistedIndex{K1: idx.k1, B: idx.b, Docs: make(map[string]docEntry, len(idx.docs))}
	for id, entry := range idx.docs {
		p.Docs[id] = *entry
	}
	idx.mu.RUnlock()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errs.IO("failed to create data dir", err)
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return errs.IO("failed to marshal bm25.json", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errs.IO("failed to write bm25.json", err)
	}
	return nil
}

// Deserialize loads a previously serialized index from path, replacing
// the index's current documents (spec §4.6's deserialize operation). A
// missing file is not an error: it leaves the index empty, matching a
// first-ever run.
func (idx *Index) Deserialize(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errs.IO("failed to read bm25.json", err)
	}
	p := persistedIndex{}
	if err := json.Unmarshal(data, &p); err != nil {
		return errs.IO("failed to parse bm25.json", err)
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.docs = make(map[string]*docEntry, len(p.Docs))
	idx.postings = make(map[string]map[string]int)
	idx.totalLen = 0
	for id, entry := range p.Docs {
		e := entry
		idx.docs[id] = &e
		idx.totalLen += e.Length
		for term, freq := range e.Terms {
			bucket := idx.postings[term]
			if bucket == nil {
				bucket = make(map[string]int)
				idx.postings[term] = bucket
			}
			bucket[id] = freq
		}
	}
	return nil
}

// analyze tokenizes text with the package's code-aware splitter and drops
// stop words.
func analyze(text string) []string {
	tokens := Tokenize(text)
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if _, stop := stopWords[strings.ToLower(t)]; !stop {
			out = append(out, t)
		}
	}
	return out
}
