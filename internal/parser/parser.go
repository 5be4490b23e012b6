package parser

// Parser is the spec's C2 contract: parse(source, language) → Tree | None.
// A nil, non-error-carrying Tree means the caller should fall back to the
// chunker's line-window path; an error carries the reason for logging.
type Parser interface {
	Parse(source []byte, language string) (*Tree, error)
}

// Dispatcher routes Go source to the native go/parser path and every other
// supported language to the tree-sitter Engine.
type Dispatcher struct {
	treeSitter *Engine
}

// NewDispatcher wraps an Engine for non-Go languages.
func NewDispatcher(engine *Engine) *Dispatcher {
	return &Dispatcher{treeSitter: engine}
}

// Parse implements Parser.
func (d *Dispatcher) Parse(source []byte, language string) (*Tree, error) {
	if language == "go" {
		return ParseGo(source)
	}
	return d.treeSitter.Parse(source, language)
}
