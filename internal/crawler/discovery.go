package crawler

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/gobwas/glob"
)

// Crawler walks a project root and yields candidate files, honoring
// supportedLanguages and ignorePatterns (spec.md §4.1). The crawl itself is
// sequential; downstream stages may process its output in parallel.
type Crawler struct {
	rootDir            string
	supportedLanguages map[string]bool
	ignorePatterns     []glob.Glob
	maxFileBytes       int64
}

// New compiles ignorePatterns (POSIX glob, "/" separator) and restricts
// detected languages to supportedLanguages.
func New(rootDir string, supportedLanguages, ignorePatterns []string, maxFileBytes int64) (*Crawler, error) {
	c := &Crawler{
		rootDir:            rootDir,
		supportedLanguages: make(map[string]bool, len(supportedLanguages)),
		maxFileBytes:       maxFileBytes,
	}
	for _, lang := range supportedLanguages {
		c.supportedLanguages[lang] = true
	}
	for _, pattern := range ignorePatterns {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, err
		}
		c.ignorePatterns = append(c.ignorePatterns, g)
	}
	return c, nil
}

// Discover walks rootDir and returns every candidate file whose language is
// supported, is not ignored, is not binary, and does not exceed
// maxFileBytes.
func (c *Crawler) Discover() ([]FileRecord, error) {
	var records []FileRecord

	err := filepath.Walk(c.rootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		relPath, err := filepath.Rel(c.rootDir, path)
		if err != nil {
			return err
		}
		relPath = filepath.ToSlash(relPath)

		if c.shouldIgnore(relPath) {
			return nil
		}

		lang := DetectLanguage(path)
		if lang == "" || !c.supportedLanguages[lang] {
			return nil
		}

		if info.Size() > c.maxFileBytes {
			return nil
		}

		if isBinary, err := isBinaryFile(path); err != nil || isBinary {
			return nil
		}

		records = append(records, FileRecord{
			FilePath:     path,
			RelativePath: relPath,
			Language:     lang,
			ModTime:      info.ModTime(),
			Size:         info.Size(),
		})
		return nil
	})

	return records, err
}

// shouldIgnore reports whether relPath matches any ignore pattern, also
// checking the "directory + /**" form so a bare directory name like
// "node_modules" matches a "node_modules/**" pattern.
func (c *Crawler) shouldIgnore(relPath string) bool {
	if c.matchesAny(relPath) {
		return true
	}
	return c.matchesAny(relPath + "/**")
}

func (c *Crawler) matchesAny(path string) bool {
	for _, pattern := range c.ignorePatterns {
		if pattern.Match(path) {
			return true
		}
	}
	return false
}

// isBinaryFile reports whether the first 8KB of path contains a NUL byte,
// a cheap, standard binary-content heuristic.
func isBinaryFile(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	buf := make([]byte, 8192)
	n, err := f.Read(buf)
	if err != nil && n == 0 {
		return false, nil
	}
	return bytes.IndexByte(buf[:n], 0) >= 0, nil
}
