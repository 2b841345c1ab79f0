package graph

// SymbolCounts holds the number of function-like and class-like
// declarations found in one file.
type SymbolCounts struct {
	Functions int `json:"functions"`
	Classes   int `json:"classes"`
}

// SymbolCounter counts declarations in a single source file.
// Implementations: RegexCounter (always), TreeSitterCounter (cgo builds).
type SymbolCounter interface {
	Count(lang Language, source []byte) SymbolCounts
	Name() string
}

var _ SymbolCounter = RegexCounter{}

// RegexCounter counts declarations with the per-language pattern table.
// Languages without patterns count as zero.
type RegexCounter struct{}

// Name returns "regex".
func (RegexCounter) Name() string { return "regex" }

// Count matches every function and class pattern of lang against source.
func (RegexCounter) Count(lang Language, source []byte) SymbolCounts {
	def, ok := languageTable[lang]
	if !ok {
		return SymbolCounts{}
	}
	var c SymbolCounts
	for _, re := range def.functions {
		c.Functions += len(re.FindAllIndex(source, -1))
	}
	for _, re := range def.classes {
		c.Classes += len(re.FindAllIndex(source, -1))
	}
	if def.groupedClasses != nil {
		c.Classes += def.groupedClasses(source)
	}
	return c
}
