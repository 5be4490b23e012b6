package crawler

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TEST PLAN
// 1. Discover yields supported-language files and skips unsupported extensions.
// 2. Ignore patterns (including the directory+/** trick) are honored.
// 3. Files over maxFileBytes are dropped.
// 4. Binary files are dropped.

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestDiscover_FiltersByLanguage(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeFile(t, root, "main.go", "package main\n")
	writeFile(t, root, "README.md", "# hi\n")

	c, err := New(root, []string{"go"}, nil, 1<<20)
	require.NoError(t, err)

	records, err := c.Discover()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "main.go", records[0].RelativePath)
	assert.Equal(t, "go", records[0].Language)
}

func TestDiscover_IgnoresDirectoryPattern(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeFile(t, root, "node_modules/pkg/index.js", "module.exports = {}\n")
	writeFile(t, root, "src/app.js", "console.log('hi')\n")

	c, err := New(root, []string{"javascript"}, []string{"node_modules/**"}, 1<<20)
	require.NoError(t, err)

	records, err := c.Discover()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "src/app.js", records[0].RelativePath)
}

func TestDiscover_DropsOversizedFiles(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	big := make([]byte, 100)
	for i := range big {
		big[i] = 'a'
	}
	writeFile(t, root, "big.go", string(big))

	c, err := New(root, []string{"go"}, nil, 10)
	require.NoError(t, err)

	records, err := c.Discover()
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestDiscover_DropsBinaryFiles(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeFile(t, root, "bin.go", "package main\x00binary")

	c, err := New(root, []string{"go"}, nil, 1<<20)
	require.NoError(t, err)

	records, err := c.Discover()
	require.NoError(t, err)
	assert.Empty(t, records)
}
