// Package corefs validates path and query inputs at the system boundary,
// per spec.md §7: no null bytes, no ".." traversal, and resolution within
// projectRoot when one is configured.
package corefs

import (
	"path/filepath"
	"strings"

	"github.com/jardhel/seu-claude/internal/errs"
)

// MaxQueryLen is the maximum accepted length of a search query string.
const MaxQueryLen = 10000

// ValidatePath checks a caller-supplied path for null bytes and ".."
// traversal components, then (when root is non-empty) verifies the
// resolved absolute path falls within root. It returns the cleaned
// absolute path on success.
func ValidatePath(root, path string) (string, error) {
	if strings.ContainsRune(path, 0) {
		return "", errs.Validation("path contains a null byte")
	}
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == ".." {
			return "", errs.Validation("path contains a traversal component")
		}
	}

	abs := path
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(root, path)
	}
	abs = filepath.Clean(abs)

	if root != "" {
		absRoot, err := filepath.Abs(filepath.Clean(root))
		if err != nil {
			return "", errs.IO("failed to resolve project root", err)
		}
		rel, err := filepath.Rel(absRoot, abs)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return "", errs.Validation("path resolves outside projectRoot")
		}
	}

	return abs, nil
}

// ValidateQuery checks a search query string: non-empty after trimming and
// within MaxQueryLen.
func ValidateQuery(query string) (string, error) {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return "", errs.Validation("query is empty")
	}
	if len(query) > MaxQueryLen {
		return "", errs.Validation("query exceeds maximum length")
	}
	return trimmed, nil
}
