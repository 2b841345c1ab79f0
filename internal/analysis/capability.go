package analysis

import "github.com/dusk-indust/archmap/internal/graph"

// Capability describes which analysis backends the running binary carries.
type Capability int

const (
	// CapBasic counts symbols with regex tables and keeps graphs in memory.
	CapBasic Capability = iota

	// CapFull counts symbols with tree-sitter grammars and can persist
	// graphs to disk.
	CapFull
)

func (c Capability) String() string {
	switch c {
	case CapBasic:
		return "basic"
	case CapFull:
		return "full"
	default:
		return "unknown"
	}
}

// DetectCapability reports the capability level of a symbol counter.
// Tree-sitter and the persistent store share the cgo build, so the
// counter alone decides.
func DetectCapability(counter graph.SymbolCounter) Capability {
	if counter.Name() == (graph.RegexCounter{}).Name() {
		return CapBasic
	}
	return CapFull
}
