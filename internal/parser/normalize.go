package parser

// kindClass is the set of raw tree-sitter node kinds, across the supported
// grammars, that introduce a class-like body (spec.md §4.2's
// node-type-normalization example). Functions declared inside one of these
// bodies are methods rather than functions.
var kindClass = map[string]bool{
	"class_declaration":     true, // javascript, typescript, java, php
	"class_definition":      true, // python
	"struct_item":           true, // rust (methods live in a separate impl_item)
	"impl_item":             true, // rust
	"interface_declaration": true, // java, typescript
	"class":                 true, // ruby
	"module":                true, // ruby namespace, treated like a class body
}

// kindInterface is the subset of kindClass that normalizes to NodeInterface
// instead of NodeClass.
var kindInterface = map[string]bool{
	"interface_declaration": true,
}

// kindFunction covers raw kinds that normalize to NodeFunction at top level
// (or NodeMethod inside a class-like body).
var kindFunction = map[string]bool{
	"function_declaration":    true, // go, javascript, typescript, php
	"function_definition":     true, // python, c, cpp
	"function_item":           true, // rust
	"method_declaration":      true, // java, typescript, go (method sets)
	"method_definition":       true, // javascript, typescript, php
	"method":                  true, // ruby
	"singleton_method":        true, // ruby
	"arrow_function":          true, // javascript/typescript, only when assigned (handled by caller)
	"lexical_declaration":     true, // javascript/typescript `const f = () => {}` (handled by caller)
}

// kindEnum covers raw kinds that normalize to NodeEnum.
var kindEnum = map[string]bool{
	"enum_declaration": true, // java, typescript
	"enum_item":        true, // rust
}

// kindTypeAlias covers raw kinds that normalize to NodeTypeAlias.
var kindTypeAlias = map[string]bool{
	"type_alias_declaration": true, // typescript
	"type_item":              true, // rust
	"typedef_declaration":    true, // c/cpp
}

// kindExport covers raw kinds that wrap a declaration in an export marker
// (normalized to NodeExport only when the wrapped declaration itself isn't
// already one of the above — see extractTopLevel).
var kindExport = map[string]bool{
	"export_statement": true, // javascript, typescript
}

// kindImport covers raw kinds contributing to file-context enrichment
// rather than to a standalone chunk.
var kindImport = map[string]bool{
	"import_statement":      true,
	"import_declaration":    true, // java
	"import_from_statement": true, // python
	"use_declaration":       true, // rust
	"preproc_include":       true, // c/cpp
}

// kindTopLevelValue covers raw kinds for top-level const/let/var-style
// declarations, consulted by the chunker's file-context enrichment.
var kindTopLevelValue = map[string]bool{
	"lexical_declaration":   true, // javascript/typescript const/let
	"variable_declaration":  true, // javascript, go
	"const_declaration":     true, // go
}

// isClassLike reports whether kind opens a class/struct/impl body.
func isClassLike(kind string) bool { return kindClass[kind] }

// isFunctionLike reports whether kind is a function/method declaration.
func isFunctionLike(kind string) bool { return kindFunction[kind] }

// classifyTopLevel normalizes a raw top-level node kind to a canonical
// NodeType, or "" if the kind does not correspond to a chunk-worthy
// declaration on its own (e.g. an import or a bare expression statement).
func classifyTopLevel(kind string) NodeType {
	switch {
	case kindInterface[kind]:
		return NodeInterface
	case kindClass[kind]:
		return NodeClass
	case kindEnum[kind]:
		return NodeEnum
	case kindTypeAlias[kind]:
		return NodeTypeAlias
	case kindFunction[kind]:
		return NodeFunction
	case kindExport[kind]:
		return NodeExport
	default:
		return ""
	}
}
