package crawler

import (
	"path/filepath"
	"strings"
)

// extensionLanguage maps a lowercased file extension to a language name.
// Only the extension is consulted; spec.md §4.1 requires detection "by
// extension map only".
var extensionLanguage = map[string]string{
	".go":    "go",
	".ts":    "typescript",
	".tsx":   "typescript",
	".js":    "javascript",
	".jsx":   "javascript",
	".mjs":   "javascript",
	".py":    "python",
	".rs":    "rust",
	".c":     "c",
	".h":     "c",
	".cpp":   "cpp",
	".cc":    "cpp",
	".hpp":   "cpp",
	".php":   "php",
	".rb":    "ruby",
	".java":  "java",
}

// DetectLanguage returns the language for filePath, or "" if its extension
// is not recognized.
func DetectLanguage(filePath string) string {
	ext := strings.ToLower(filepath.Ext(filePath))
	return extensionLanguage[ext]
}
