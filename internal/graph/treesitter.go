//go:build cgo

package graph

import (
	"sync"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	tree_sitter_rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

// NewSymbolCounter returns the best counter available in this build.
func NewSymbolCounter() SymbolCounter {
	return NewTreeSitterCounter()
}

// nodeKinds maps AST node kinds to the declaration they represent.
type nodeKinds struct {
	functions map[string]bool
	classes   map[string]bool
	// classParent restricts class kinds to nodes under this parent kind
	// (Go struct and interface types only count inside a type_spec).
	classParent string
	// arrowParent counts arrow functions bound to a declarator.
	arrowParent string
}

var treeSitterKinds = map[Language]nodeKinds{
	LangGo: {
		functions:   map[string]bool{"function_declaration": true, "method_declaration": true},
		classes:     map[string]bool{"struct_type": true, "interface_type": true},
		classParent: "type_spec",
	},
	LangPython: {
		functions: map[string]bool{"function_definition": true},
		classes:   map[string]bool{"class_definition": true},
	},
	LangTypeScript: {
		functions: map[string]bool{
			"function_declaration": true, "generator_function_declaration": true, "method_definition": true,
		},
		classes: map[string]bool{
			"class_declaration": true, "abstract_class_declaration": true, "interface_declaration": true,
		},
		arrowParent: "variable_declarator",
	},
	LangRust: {
		functions: map[string]bool{"function_item": true},
		classes:   map[string]bool{"struct_item": true, "enum_item": true, "trait_item": true, "union_item": true},
	},
}

// TreeSitterCounter counts declarations by walking tree-sitter ASTs for Go,
// Python, TypeScript and Rust. Other languages, and sources the grammar
// cannot parse, are delegated to RegexCounter.
// A new tree-sitter parser is created per Count call, so concurrent use is
// safe.
type TreeSitterCounter struct {
	languages map[Language]*tree_sitter.Language
	fallback  RegexCounter
}

var (
	treeSitterOnce      sync.Once
	treeSitterLanguages map[Language]*tree_sitter.Language
)

// NewTreeSitterCounter creates a TreeSitterCounter with the Go, TypeScript,
// Python and Rust grammars registered.
func NewTreeSitterCounter() *TreeSitterCounter {
	treeSitterOnce.Do(func() {
		treeSitterLanguages = map[Language]*tree_sitter.Language{
			LangGo:         tree_sitter.NewLanguage(tree_sitter_go.Language()),
			LangTypeScript: tree_sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript()),
			LangPython:     tree_sitter.NewLanguage(tree_sitter_python.Language()),
			LangRust:       tree_sitter.NewLanguage(tree_sitter_rust.Language()),
		}
	})
	return &TreeSitterCounter{languages: treeSitterLanguages}
}

// Name returns "tree-sitter".
func (c *TreeSitterCounter) Name() string { return "tree-sitter" }

// Count parses source with the grammar for lang and counts declaration nodes.
func (c *TreeSitterCounter) Count(lang Language, source []byte) SymbolCounts {
	tsLang, ok := c.languages[lang]
	if !ok {
		return c.fallback.Count(lang, source)
	}

	parser := tree_sitter.NewParser()
	defer parser.Close()

	if err := parser.SetLanguage(tsLang); err != nil {
		return c.fallback.Count(lang, source)
	}

	tree := parser.Parse(source, nil)
	if tree == nil {
		return c.fallback.Count(lang, source)
	}
	defer tree.Close()

	kinds := treeSitterKinds[lang]
	var counts SymbolCounts

	cursor := tree.RootNode().Walk()
	defer cursor.Close()
	walkDeclarations(cursor, kinds, &counts)
	return counts
}

func walkDeclarations(cursor *tree_sitter.TreeCursor, kinds nodeKinds, counts *SymbolCounts) {
	node := cursor.Node()
	kind := node.Kind()

	switch {
	case kinds.functions[kind]:
		counts.Functions++
	case kind == "arrow_function" && kinds.arrowParent != "":
		if p := node.Parent(); p != nil && p.Kind() == kinds.arrowParent {
			counts.Functions++
		}
	case kinds.classes[kind]:
		if kinds.classParent == "" {
			counts.Classes++
		} else if p := node.Parent(); p != nil && p.Kind() == kinds.classParent {
			counts.Classes++
		}
	}

	if cursor.GotoFirstChild() {
		walkDeclarations(cursor, kinds, counts)
		for cursor.GotoNextSibling() {
			walkDeclarations(cursor, kinds, counts)
		}
		cursor.GotoParent()
	}
}
