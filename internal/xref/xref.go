// Package xref implements the cross-reference / call graph component
// (spec component C8): it tracks which chunk defines which symbol and
// which symbols each chunk's code appears to call, and answers
// callers/callees/both queries over that graph.
package xref

import (
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/dominikbraun/graph"

	"github.com/jardhel/seu-claude/internal/errs"
)

// Definition is one named chunk's declaration site.
type Definition struct {
	Name         string
	ChunkID      string
	RelativePath string
	StartLine    int
	EndLine      int
}

// CallSite is one apparent call from a defining chunk to a callee name.
type CallSite struct {
	FromChunkID string
	Callee      string
	Line        int
}

// callExprPattern matches `name(` or `recv.name(` occurrences, the same
// regex-based approach the teacher's own extractor falls back to for
// selector-expression calls it cannot type-check.
var callExprPattern = regexp.MustCompile(`(?:\b|\.)([A-Za-z_][A-Za-z0-9_]*)\s*\(`)

// builtinNames are excluded from call-site extraction: control-flow
// keywords and ubiquitous builtins that would otherwise dominate every
// node's callee list without carrying navigational value.
var builtinNames = map[string]bool{
	"if": true, "for": true, "switch": true, "while": true, "return": true,
	"len": true, "cap": true, "make": true, "new": true, "append": true,
	"print": true, "println": true, "panic": true, "recover": true,
	"int": true, "string": true, "bool": true, "float64": true, "error": true,
}

// Graph is the cross-reference index (spec §5 C8).
type Graph struct {
	mu sync.RWMutex

	// byFile tracks which definitions/call sites a file contributed, so
	// DeleteByFile can retract exactly those contributions.
	defsByFile  map[string][]Definition
	callsByFile map[string][]CallSite

	defByName map[string][]Definition // name -> every chunk defining it
	g         graph.Graph[string, string]
	callers   map[string][]string // callee name -> caller chunk ids
	callees   map[string][]string // caller chunk id -> callee names
}

// NewGraph returns an empty cross-reference graph.
func NewGraph() *Graph {
	return &Graph{
		defsByFile:  make(map[string][]Definition),
		callsByFile: make(map[string][]CallSite),
		defByName:   make(map[string][]Definition),
		g:           graph.New(graph.StringHash, graph.Directed()),
		callers:     make(map[string][]string),
		callees:     make(map[string][]string),
	}
}

// ExtractCallSites scans code for apparent function/method calls. It is
// used while indexing a chunk, ahead of IndexFile.
func ExtractCallSites(chunkID, code string, baseLine int) []CallSite {
	matches := callExprPattern.FindAllStringSubmatchIndex(code, -1)
	var sites []CallSite
	for _, m := range matches {
		name := code[m[2]:m[3]]
		if builtinNames[name] {
			continue
		}
		line := baseLine + strings.Count(code[:m[0]], "\n")
		sites = append(sites, CallSite{FromChunkID: chunkID, Callee: name, Line: line})
	}
	return sites
}

// IndexFile replaces relativePath's contribution to the graph: its
// definitions and call sites. Call this after DeleteByFile for re-indexed
// files, matching the other C5-C8 components' replace-on-reindex semantics.
func (gr *Graph) IndexFile(relativePath string, defs []Definition, calls []CallSite) {
	gr.mu.Lock()
	defer gr.mu.Unlock()

	gr.deleteByFileLocked(relativePath)

	gr.defsByFile[relativePath] = defs
	gr.callsByFile[relativePath] = calls

	for _, d := range defs {
		gr.defByName[d.Name] = append(gr.defByName[d.Name], d)
		_ = gr.g.AddVertex(d.ChunkID)
	}
	for _, c := range calls {
		_ = gr.g.AddVertex(c.FromChunkID)
		for _, d := range gr.defByName[c.Callee] {
			_ = gr.g.AddVertex(d.ChunkID)
			_ = gr.g.AddEdge(c.FromChunkID, d.ChunkID)
			gr.callers[d.ChunkID] = append(gr.callers[d.ChunkID], c.FromChunkID)
			gr.callees[c.FromChunkID] = append(gr.callees[c.FromChunkID], d.ChunkID)
		}
	}
}

// DeleteByFile retracts relativePath's definitions and call sites.
func (gr *Graph) DeleteByFile(relativePath string) {
	gr.mu.Lock()
	defer gr.mu.Unlock()
	gr.deleteByFileLocked(relativePath)
}

func (gr *Graph) deleteByFileLocked(relativePath string) {
	for _, d := range gr.defsByFile[relativePath] {
		gr.defByName[d.Name] = removeDef(gr.defByName[d.Name], d.ChunkID)
		_ = gr.g.RemoveVertex(d.ChunkID)
		delete(gr.callers, d.ChunkID)
	}
	for _, c := range gr.callsByFile[relativePath] {
		_ = gr.g.RemoveVertex(c.FromChunkID)
		delete(gr.callees, c.FromChunkID)
	}
	delete(gr.defsByFile, relativePath)
	delete(gr.callsByFile, relativePath)
}

func removeDef(defs []Definition, chunkID string) []Definition {
	out := defs[:0]
	for _, d := range defs {
		if d.ChunkID != chunkID {
			out = append(out, d)
		}
	}
	return out
}

// Direction selects which edge direction SearchXrefs follows.
type Direction string

const (
	DirectionCallers Direction = "callers"
	DirectionCallees Direction = "callees"
	DirectionBoth    Direction = "both"
)

// Hit is one xref query result: a chunk id related to the queried symbol.
type Hit struct {
	ChunkID   string
	Direction Direction
}

// Search returns chunk ids that call (callers), are called by (callees),
// or either (both) the named symbol's defining chunks.
func (gr *Graph) Search(name string, direction Direction) []Hit {
	gr.mu.RLock()
	defer gr.mu.RUnlock()

	seen := make(map[string]Direction)
	for _, d := range gr.defByName[name] {
		if direction == DirectionCallers || direction == DirectionBoth {
			for _, callerID := range gr.callers[d.ChunkID] {
				seen[callerID] = mergeDirection(seen[callerID], DirectionCallers)
			}
		}
		if direction == DirectionCallees || direction == DirectionBoth {
			for _, calleeID := range gr.callees[d.ChunkID] {
				seen[calleeID] = mergeDirection(seen[calleeID], DirectionCallees)
			}
		}
	}

	hits := make([]Hit, 0, len(seen))
	for id, dir := range seen {
		hits = append(hits, Hit{ChunkID: id, Direction: dir})
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].ChunkID < hits[j].ChunkID })
	return hits
}

func mergeDirection(existing, next Direction) Direction {
	if existing == "" || existing == next {
		return next
	}
	return DirectionBoth
}

// StatePath returns the default xrefs.json path under dataDir (spec §6's
// persisted state file for C8).
func StatePath(dataDir string) string {
	return filepath.Join(dataDir, "xrefs.json")
}

// persistedGraph is the on-disk shape: just the per-file source
// contributions. Every derived structure (defByName, the graph itself,
// callers/callees) is reconstructed from these by replaying IndexFile.
type persistedGraph struct {
	DefsByFile  map[string][]Definition `json:"defs_by_file"`
	CallsByFile map[string][]CallSite   `json:"calls_by_file"`
}

// Serialize writes the graph's per-file definitions and call sites to
// path so it survives a process restart.
func (gr *Graph) Serialize(path string) error {
	gr.mu.RLock()
	p := persistedGraph{DefsByFile: gr.defsByFile, CallsByFile: gr.callsByFile}
	gr.mu.RUnlock()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errs.IO("failed to create data dir", err)
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return errs.IO("failed to marshal xrefs.json", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errs.IO("failed to write xrefs.json", err)
	}
	return nil
}

// Deserialize loads a previously serialized graph from path, replacing
// the graph's current contents. A missing file is not an error: it
// leaves the graph empty, matching a first-ever run. Derived structures
// (defByName, the dependency graph, callers/callees) are rebuilt by
// replaying IndexFile for every persisted file.
func (gr *Graph) Deserialize(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errs.IO("failed to read xrefs.json", err)
	}
	p := persistedGraph{}
	if err := json.Unmarshal(data, &p); err != nil {
		return errs.IO("failed to parse xrefs.json", err)
	}

	gr.mu.Lock()
	gr.defsByFile = make(map[string][]Definition)
	gr.callsByFile = make(map[string][]CallSite)
	gr.defByName = make(map[string][]Definition)
	gr.g = graph.New(graph.StringHash, graph.Directed())
	gr.callers = make(map[string][]string)
	gr.callees = make(map[string][]string)
	gr.mu.Unlock()

	for relativePath, defs := range p.DefsByFile {
		gr.IndexFile(relativePath, defs, p.CallsByFile[relativePath])
	}
	for relativePath, calls := range p.CallsByFile {
		if _, ok := p.DefsByFile[relativePath]; ok {
			continue
		}
		gr.IndexFile(relativePath, nil, calls)
	}
	return nil
}

// isMethodCall reports whether a regex match captured a selector call
// (recv.Method()) rather than a bare function call (Function()).
func isMethodCall(code string, matchStart int) bool {
	return matchStart > 0 && code[matchStart-1] == '.'
}
