package graph

import (
	"path"
	"regexp"
	"slices"
	"strings"
)

// refPattern extracts references from file text. When split is set, the
// first capture group holds a list (e.g. a Go import block) that split breaks
// into individual references.
type refPattern struct {
	re    *regexp.Regexp
	split func(string) []string
}

// languageDef is the read-only per-language extraction configuration.
// Adding a language means adding an entry to languageTable.
type languageDef struct {
	extensions []string
	imports    []refPattern
	functions  []*regexp.Regexp
	classes    []*regexp.Regexp
	// groupedClasses counts class-like declarations that only make sense
	// in the context of an enclosing block.
	groupedClasses func(source []byte) int
	// probe lists suffixes tried when resolving a reference to a file.
	probe []string
	// index lists directory entry files tried by the directory-index fallback.
	index []string
}

var (
	goImportSpec  = regexp.MustCompile(`(?m)^\s*(?:[\w.]+\s+)?"([^"]+)"`)
	pyImportAlias = regexp.MustCompile(`\s+as\s+\w+$`)
)

func splitGoBlock(block string) []string {
	var out []string
	for _, m := range goImportSpec.FindAllStringSubmatch(block, -1) {
		out = append(out, m[1])
	}
	return out
}

var (
	goTypeGroup = regexp.MustCompile(`^type\s*\(\s*(?://.*)?$`)
	goTypeSpec  = regexp.MustCompile(`^\s*\w+(?:\[[^\]]*\])?\s+(?:struct|interface)\s*\{`)
)

// countGoTypeGroups counts the struct and interface specs of grouped
// `type ( ... )` declarations. Only specs at the group's own brace depth
// count, so fields of anonymous struct type do not.
func countGoTypeGroups(source []byte) int {
	n, inGroup, depth := 0, false, 0
	for _, line := range strings.Split(string(source), "\n") {
		switch {
		case !inGroup:
			inGroup, depth = goTypeGroup.MatchString(line), 0
		case depth == 0 && strings.HasPrefix(strings.TrimSpace(line), ")"):
			inGroup = false
		default:
			if depth == 0 && goTypeSpec.MatchString(line) {
				n++
			}
			depth += strings.Count(line, "{") - strings.Count(line, "}")
		}
	}
	return n
}

func splitPyList(list string) []string {
	var out []string
	for _, part := range strings.Split(list, ",") {
		part = pyImportAlias.ReplaceAllString(strings.TrimSpace(part), "")
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

var jsImports = []refPattern{
	{re: regexp.MustCompile(`(?m)\bimport\s+[^'";]*?\s+from\s+['"]([^'"]+)['"]`)},
	{re: regexp.MustCompile(`(?m)\bexport\s+[^'";]*?\s+from\s+['"]([^'"]+)['"]`)},
	{re: regexp.MustCompile(`(?m)^\s*import\s+['"]([^'"]+)['"]`)},
	{re: regexp.MustCompile(`\brequire\s*\(\s*['"]([^'"]+)['"]\s*\)`)},
	{re: regexp.MustCompile(`\bimport\s*\(\s*['"]([^'"]+)['"]\s*\)`)},
}

var jsFunctions = []*regexp.Regexp{
	regexp.MustCompile(`(?m)^\s*(?:export\s+)?(?:default\s+)?(?:async\s+)?function\s*\*?\s*\w*\s*\(`),
	regexp.MustCompile(`(?m)^\s*(?:export\s+)?(?:const|let|var)\s+\w+\s*=\s*(?:async\s+)?(?:\([^)]*\)|\w+)\s*=>`),
}

var jsClasses = []*regexp.Regexp{
	regexp.MustCompile(`(?m)^\s*(?:export\s+)?(?:default\s+)?(?:abstract\s+)?class\s+\w+`),
}

var cIncludes = []refPattern{
	{re: regexp.MustCompile(`(?m)^\s*#\s*include\s*[<"]([^>"]+)[>"]`)},
}

var cFunctions = []*regexp.Regexp{
	regexp.MustCompile(`(?m)^[A-Za-z_][\w\s\*&:<>,]*?\b\w+\s*\([^;{}]*\)\s*(?:const\s*)?\{`),
}

var languageTable = map[Language]languageDef{
	LangPython: {
		extensions: []string{".py", ".pyx"},
		imports: []refPattern{
			{re: regexp.MustCompile(`(?m)^\s*import\s+([\w.]+(?:\s+as\s+\w+)?(?:\s*,\s*[\w.]+(?:\s+as\s+\w+)?)*)`), split: splitPyList},
			{re: regexp.MustCompile(`(?m)^\s*from\s+(\.*[\w.]*)\s+import\b`)},
		},
		functions: []*regexp.Regexp{regexp.MustCompile(`(?m)^\s*(?:async\s+)?def\s+\w+\s*\(`)},
		classes:   []*regexp.Regexp{regexp.MustCompile(`(?m)^\s*class\s+\w+`)},
		probe:     []string{".py", ".pyx"},
		index:     []string{"__init__.py"},
	},
	LangJavaScript: {
		extensions: []string{".js", ".jsx", ".mjs", ".cjs"},
		imports:    jsImports,
		functions:  jsFunctions,
		classes:    jsClasses,
		probe:      []string{".js", ".jsx", ".mjs", ".cjs", ".ts", ".tsx"},
		index:      []string{"index.js", "index.jsx", "index.ts", "index.tsx"},
	},
	LangTypeScript: {
		extensions: []string{".ts", ".tsx", ".mts", ".cts"},
		imports:    jsImports,
		functions:  jsFunctions,
		classes: append([]*regexp.Regexp{
			regexp.MustCompile(`(?m)^\s*(?:export\s+)?interface\s+\w+`),
		}, jsClasses...),
		probe: []string{".ts", ".tsx", ".d.ts", ".js", ".jsx"},
		index: []string{"index.ts", "index.tsx", "index.js", "index.jsx"},
	},
	LangGo: {
		extensions: []string{".go"},
		imports: []refPattern{
			{re: regexp.MustCompile(`(?m)^\s*import\s+(?:[\w.]+\s+)?"([^"]+)"`)},
			{re: regexp.MustCompile(`(?s)\bimport\s*\(([^)]*)\)`), split: splitGoBlock},
		},
		functions:      []*regexp.Regexp{regexp.MustCompile(`(?m)^func\s+(?:\([^)]*\)\s*)?\w+`)},
		classes:        []*regexp.Regexp{regexp.MustCompile(`(?m)^type\s+\w+(?:\[[^\]\n]*\])?\s+(?:struct|interface)\s*\{`)},
		groupedClasses: countGoTypeGroups,
		probe:          []string{".go"},
		index:          []string{"main.go"},
	},
	LangJava: {
		extensions: []string{".java"},
		imports: []refPattern{
			{re: regexp.MustCompile(`(?m)^\s*import\s+(?:static\s+)?([\w.]+(?:\.\*)?)\s*;`)},
		},
		functions: []*regexp.Regexp{regexp.MustCompile(`(?m)^\s*(?:(?:public|protected|private|static|final|abstract|synchronized|native)\s+)+[\w<>\[\],\s]+\s+\w+\s*\([^)]*\)\s*(?:throws\s+[\w.,\s]+)?\{`)},
		classes:   []*regexp.Regexp{regexp.MustCompile(`(?m)^\s*(?:(?:public|protected|private|static|final|abstract|sealed)\s+)*(?:class|interface|enum|record)\s+\w+`)},
		probe:     []string{".java"},
	},
	LangKotlin: {
		extensions: []string{".kt", ".kts"},
		imports: []refPattern{
			{re: regexp.MustCompile(`(?m)^\s*import\s+([\w.]+(?:\.\*)?)`)},
		},
		functions: []*regexp.Regexp{regexp.MustCompile(`(?m)^\s*(?:[\w]+\s+)*fun\s+(?:<[^>]*>\s*)?[\w.]+\s*\(`)},
		classes:   []*regexp.Regexp{regexp.MustCompile(`(?m)^\s*(?:[\w]+\s+)*(?:class|interface|object)\s+\w+`)},
		probe:     []string{".kt", ".kts"},
	},
	LangRust: {
		extensions: []string{".rs"},
		imports: []refPattern{
			{re: regexp.MustCompile(`(?m)^\s*(?:pub(?:\([^)]*\))?\s+)?use\s+([^;{]+?)(?:::\{[^}]*\})?\s*;`)},
			{re: regexp.MustCompile(`(?m)^\s*(?:pub(?:\([^)]*\))?\s+)?mod\s+(\w+)\s*;`)},
			{re: regexp.MustCompile(`(?m)^\s*extern\s+crate\s+(\w+)`)},
		},
		functions: []*regexp.Regexp{regexp.MustCompile(`(?m)^\s*(?:pub(?:\([^)]*\))?\s+)?(?:const\s+)?(?:async\s+)?(?:unsafe\s+)?fn\s+\w+`)},
		classes:   []*regexp.Regexp{regexp.MustCompile(`(?m)^\s*(?:pub(?:\([^)]*\))?\s+)?(?:struct|enum|trait|union)\s+\w+`)},
		probe:     []string{".rs"},
		index:     []string{"mod.rs", "lib.rs"},
	},
	LangC: {
		extensions: []string{".c", ".h"},
		imports:    cIncludes,
		functions:  cFunctions,
		classes:    []*regexp.Regexp{regexp.MustCompile(`(?m)^\s*(?:typedef\s+)?struct\s+\w+\s*\{`)},
		probe:      []string{".h", ".c"},
	},
	LangCpp: {
		extensions: []string{".cpp", ".cc", ".cxx", ".hpp", ".hh", ".hxx"},
		imports:    cIncludes,
		functions:  cFunctions,
		classes:    []*regexp.Regexp{regexp.MustCompile(`(?m)^\s*(?:template\s*<[^>]*>\s*)?(?:class|struct)\s+\w+[^;]*\{`)},
		probe:      []string{".hpp", ".h", ".hh", ".cpp", ".cc"},
	},
	LangCSharp: {
		extensions: []string{".cs"},
		imports: []refPattern{
			{re: regexp.MustCompile(`(?m)^\s*using\s+(?:static\s+)?([\w.]+)\s*;`)},
		},
		functions: []*regexp.Regexp{regexp.MustCompile(`(?m)^\s*(?:(?:public|protected|private|internal|static|virtual|override|async|abstract|sealed)\s+)+[\w<>\[\],?\s]+\s+\w+\s*\([^)]*\)`)},
		classes:   []*regexp.Regexp{regexp.MustCompile(`(?m)^\s*(?:(?:public|protected|private|internal|static|abstract|sealed|partial)\s+)*(?:class|interface|struct|enum|record)\s+\w+`)},
		probe:     []string{".cs"},
	},
	LangRuby: {
		extensions: []string{".rb"},
		imports: []refPattern{
			{re: regexp.MustCompile(`(?m)^\s*require(?:_relative)?\s*\(?\s*['"]([^'"]+)['"]`)},
		},
		functions: []*regexp.Regexp{regexp.MustCompile(`(?m)^\s*def\s+[\w.?!]+`)},
		classes:   []*regexp.Regexp{regexp.MustCompile(`(?m)^\s*(?:class|module)\s+[A-Z]\w*`)},
		probe:     []string{".rb"},
	},
	LangPHP: {
		extensions: []string{".php"},
		imports: []refPattern{
			{re: regexp.MustCompile(`(?m)\b(?:require|include)(?:_once)?\s*\(?\s*['"]([^'"]+)['"]`)},
			{re: regexp.MustCompile(`(?m)^\s*use\s+([\w\\]+)\s*;`)},
		},
		functions: []*regexp.Regexp{regexp.MustCompile(`(?m)^\s*(?:(?:public|protected|private|static|abstract|final)\s+)*function\s+\w+`)},
		classes:   []*regexp.Regexp{regexp.MustCompile(`(?m)^\s*(?:(?:abstract|final)\s+)?(?:class|interface|trait)\s+\w+`)},
		probe:     []string{".php"},
		index:     []string{"index.php"},
	},
	LangSQL:      {extensions: []string{".sql"}},
	LangJSON:     {extensions: []string{".json"}},
	LangYAML:     {extensions: []string{".yml", ".yaml"}},
	LangTOML:     {extensions: []string{".toml"}},
	LangMarkdown: {extensions: []string{".md", ".rst"}},
}

// extToLanguage is derived from languageTable once at start-up.
var extToLanguage = func() map[string]Language {
	m := make(map[string]Language)
	for lang, def := range languageTable {
		for _, ext := range def.extensions {
			m[ext] = lang
		}
	}
	return m
}()

// DetectLanguage infers a file's language from its extension.
func DetectLanguage(p string) Language {
	if lang, ok := extToLanguage[strings.ToLower(path.Ext(p))]; ok {
		return lang
	}
	return LangUnknown
}

// SupportedLanguages returns the languages that have reference patterns,
// sorted by name.
func SupportedLanguages() []Language {
	var out []Language
	for lang, def := range languageTable {
		if len(def.imports) > 0 {
			out = append(out, lang)
		}
	}
	slices.Sort(out)
	return out
}
