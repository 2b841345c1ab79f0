//go:build !cgo

package graph

// NewSymbolCounter returns the best counter available in this build.
// Without cgo the tree-sitter grammars are unavailable.
func NewSymbolCounter() SymbolCounter {
	return RegexCounter{}
}
