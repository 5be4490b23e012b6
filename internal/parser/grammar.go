package parser

import (
	"fmt"
	"path/filepath"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
	sitter "github.com/tree-sitter/go-tree-sitter"
)

// GrammarLoader resolves tree-sitter grammars from external, lazily-loaded
// shared objects under languagesDir/<lang>.so, per spec.md §4.2. A missing
// artifact or a symbol-resolution failure fails closed: the caller demotes
// the file to fallback chunking rather than crashing the pipeline.
type GrammarLoader struct {
	languagesDir string

	mu       sync.Mutex
	cache    map[string]*sitter.Language
	failed   map[string]bool
	handles  map[string]uintptr
}

// NewGrammarLoader returns a loader resolving <lang>.so files under dir.
func NewGrammarLoader(dir string) *GrammarLoader {
	return &GrammarLoader{
		languagesDir: dir,
		cache:        make(map[string]*sitter.Language),
		failed:       make(map[string]bool),
		handles:      make(map[string]uintptr),
	}
}

// Load returns the cached *sitter.Language for lang, opening and resolving
// its grammar artifact on first use. A previously failed language is not
// retried within the loader's lifetime (fail closed, stays closed).
func (l *GrammarLoader) Load(lang string) (*sitter.Language, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if cached, ok := l.cache[lang]; ok {
		return cached, nil
	}
	if l.failed[lang] {
		return nil, fmt.Errorf("grammar %q previously failed to load", lang)
	}

	soPath := filepath.Join(l.languagesDir, lang+".so")
	handle, err := purego.Dlopen(soPath, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		l.failed[lang] = true
		return nil, fmt.Errorf("failed to open grammar artifact %s: %w", soPath, err)
	}

	symbol := "tree_sitter_" + lang
	var languageFunc func() uintptr
	if regErr := registerSymbol(handle, symbol, &languageFunc); regErr != nil {
		l.failed[lang] = true
		return nil, fmt.Errorf("grammar artifact %s missing symbol %s: %w", soPath, symbol, regErr)
	}

	ptr := languageFunc()
	if ptr == 0 {
		l.failed[lang] = true
		return nil, fmt.Errorf("grammar artifact %s returned a null language pointer", soPath)
	}

	lng := sitter.NewLanguage(unsafe.Pointer(ptr))
	l.cache[lang] = lng
	l.handles[lang] = handle
	return lng, nil
}

// registerSymbol wraps purego.RegisterLibFunc, recovering from the panic
// purego raises when a symbol cannot be resolved so missing/incompatible
// artifacts fail closed instead of crashing the process.
func registerSymbol(handle uintptr, symbol string, fptr *func() uintptr) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("symbol %s: %v", symbol, r)
		}
	}()
	purego.RegisterLibFunc(fptr, handle, symbol)
	return nil
}

// Close releases every opened grammar handle.
func (l *GrammarLoader) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for lang, handle := range l.handles {
		purego.Dlclose(handle)
		delete(l.handles, lang)
	}
	l.cache = make(map[string]*sitter.Language)
}
