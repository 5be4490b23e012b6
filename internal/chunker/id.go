package chunker

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
)

// computeID derives a chunk's stable id: the first 64 bits of a SHA-256
// hash over (relativePath, startLine, endLine, normalized code), hex
// encoded to 16 characters. Re-indexing unchanged content at the same
// location reproduces the same id (spec.md §3 invariant 1).
func computeID(relativePath string, startLine, endLine int, code string) string {
	h := sha256.New()
	h.Write([]byte(relativePath))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(startLine)))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(endLine)))
	h.Write([]byte{0})
	h.Write([]byte(normalizeCode(code)))
	sum := h.Sum(nil)
	return hex.EncodeToString(sum[:8])
}

// normalizeCode strips trailing whitespace from each line and surrounding
// blank lines, so immaterial formatting drift (trailing spaces, a
// trailing newline added by an editor) does not change a chunk's id.
func normalizeCode(code string) string {
	lines := strings.Split(code, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t\r")
	}
	return strings.Trim(strings.Join(lines, "\n"), "\n")
}
