package xref

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TEST PLAN
// 1. ExtractCallSites finds a call and skips builtin/control-flow names.
// 2. IndexFile wires a caller's call site to the callee's defining chunk.
// 3. Search(callers) and Search(callees) return the expected opposite ends.
// 4. DeleteByFile retracts a file's definitions and call sites.
// 5. Re-IndexFile for the same path replaces rather than duplicates edges.
// 6. Serialize then Deserialize into a fresh Graph restores caller/callee edges.
// 7. Deserialize of a missing file is not an error and leaves the graph empty.

func TestExtractCallSites_SkipsBuiltins(t *testing.T) {
	t.Parallel()

	sites := ExtractCallSites("c1", "if len(items) > 0 { DoWork(items) }", 10)
	var names []string
	for _, s := range sites {
		names = append(names, s.Callee)
	}
	assert.NotContains(t, names, "if")
	assert.NotContains(t, names, "len")
	assert.Contains(t, names, "DoWork")
}

func TestGraph_CallersAndCallees(t *testing.T) {
	t.Parallel()

	gr := NewGraph()
	gr.IndexFile("callee.go", []Definition{{Name: "DoWork", ChunkID: "callee-chunk", RelativePath: "callee.go"}}, nil)
	gr.IndexFile("caller.go", nil, []CallSite{{FromChunkID: "caller-chunk", Callee: "DoWork", Line: 5}})

	callers := gr.Search("DoWork", DirectionCallers)
	require.Len(t, callers, 1)
	assert.Equal(t, "caller-chunk", callers[0].ChunkID)

	callees := gr.Search("DoWork", DirectionCallees)
	assert.Empty(t, callees, "DoWork's own chunk has no outgoing calls indexed")
}

func TestGraph_DeleteByFileRetractsContributions(t *testing.T) {
	t.Parallel()

	gr := NewGraph()
	gr.IndexFile("callee.go", []Definition{{Name: "DoWork", ChunkID: "callee-chunk", RelativePath: "callee.go"}}, nil)
	gr.IndexFile("caller.go", nil, []CallSite{{FromChunkID: "caller-chunk", Callee: "DoWork", Line: 5}})

	gr.DeleteByFile("caller.go")

	callers := gr.Search("DoWork", DirectionCallers)
	assert.Empty(t, callers)
}

func TestGraph_ReindexReplacesNotDuplicates(t *testing.T) {
	t.Parallel()

	gr := NewGraph()
	gr.IndexFile("callee.go", []Definition{{Name: "DoWork", ChunkID: "callee-chunk", RelativePath: "callee.go"}}, nil)

	gr.IndexFile("caller.go", nil, []CallSite{{FromChunkID: "caller-chunk", Callee: "DoWork", Line: 5}})
	gr.IndexFile("caller.go", nil, []CallSite{{FromChunkID: "caller-chunk", Callee: "DoWork", Line: 5}})

	callers := gr.Search("DoWork", DirectionCallers)
	require.Len(t, callers, 1)
}

func TestGraph_SerializeDeserializeRoundTrip(t *testing.T) {
	t.Parallel()

	gr := NewGraph()
	gr.IndexFile("callee.go", []Definition{{Name: "DoWork", ChunkID: "callee-chunk", RelativePath: "callee.go"}}, nil)
	gr.IndexFile("caller.go", nil, []CallSite{{FromChunkID: "caller-chunk", Callee: "DoWork", Line: 5}})

	path := filepath.Join(t.TempDir(), "xrefs.json")
	require.NoError(t, gr.Serialize(path))

	restored := NewGraph()
	require.NoError(t, restored.Deserialize(path))

	callers := restored.Search("DoWork", DirectionCallers)
	require.Len(t, callers, 1)
	assert.Equal(t, "caller-chunk", callers[0].ChunkID)
}

func TestGraph_DeserializeMissingFileIsNotError(t *testing.T) {
	t.Parallel()

	gr := NewGraph()
	require.NoError(t, gr.Deserialize(filepath.Join(t.TempDir(), "missing.json")))
	assert.Empty(t, gr.Search("anything", DirectionBoth))
}
