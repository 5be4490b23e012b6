package keyword

import (
	"regexp"
	"strings"
	"unicode"
)

var tokenRegex = regexp.MustCompile(`[a-zA-Z0-9_]+`)

// Tokenize splits code text into lowercased subword tokens, expanding
// camelCase and snake_case identifiers so "getUserById" matches a query of
// "user".
func Tokenize(text string) []string {
	var tokens []string
	for _, word := range tokenRegex.FindAllString(text, -1) {
		for _, t := range SplitIdentifier(word) {
			lower := strings.ToLower(t)
			if len(lower) >= 2 {
				tokens = append(tokens, lower)
			}
		}
	}
	return tokens
}

// SplitIdentifier splits one already-delimited word into its camelCase/
// snake_case parts, e.g. "getUserById" -> [get User Id], "get_user" ->
// [get user]. Shared with the symbols package's name normalizer so both
// components treat identifier boundaries identically.
func SplitIdentifier(token string) []string {
	if strings.Contains(token, "_") {
		var result []string
		for _, part := range strings.Split(token, "_") {
			if part != "" {
				result = append(result, splitCamelCase(part)...)
			}
		}
		return result
	}
	return splitCamelCase(token)
}

// splitCamelCase splits camelCase/PascalCase identifiers, keeping runs of
// uppercase letters (acronyms) together: "parseHTTPRequest" -> [parse HTTP Request].
func splitCamelCase(s string) []string {
	if s == "" {
		return nil
	}
	var result []string
	var current strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			prevLower := unicode.IsLower(runes[i-1])
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if prevLower || nextLower {
				if current.Len() > 0 {
					result = append(result, current.String())
					current.Reset()
				}
			}
		}
		current.WriteRune(r)
	}
	if current.Len() > 0 {
		result = append(result, current.String())
	}
	return result
}

// DefaultStopWords are dropped from the index since they carry no
// discriminative signal for code search.
var DefaultStopWords = []string{
	"the", "a", "an", "is", "are", "was", "were", "be", "been", "being",
	"of", "to", "in", "on", "at", "for", "with", "this", "that",
}

func buildStopWordSet(words []string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[strings.ToLower(w)] = struct{}{}
	}
	return m
}
