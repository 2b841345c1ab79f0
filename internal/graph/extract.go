package graph

import (
	"path"
	"sort"
	"strings"
)

// ExtractReferences returns the raw import/include references found in
// content, ordered by their first occurrence. Unknown languages yield nil.
func ExtractReferences(lang Language, content []byte) []string {
	def, ok := languageTable[lang]
	if !ok || len(def.imports) == 0 {
		return nil
	}

	type hit struct {
		offset int
		ref    string
	}
	text := string(content)
	var hits []hit

	for _, p := range def.imports {
		for _, loc := range p.re.FindAllStringSubmatchIndex(text, -1) {
			if len(loc) < 4 || loc[2] < 0 {
				continue
			}
			raw := text[loc[2]:loc[3]]
			if p.split == nil {
				hits = append(hits, hit{offset: loc[2], ref: strings.TrimSpace(raw)})
				continue
			}
			// Items of a list share the list's offset; the stable sort below
			// keeps them in textual order.
			for _, item := range p.split(raw) {
				hits = append(hits, hit{offset: loc[2], ref: item})
			}
		}
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].offset < hits[j].offset })

	seen := make(map[string]bool, len(hits))
	refs := make([]string, 0, len(hits))
	for _, h := range hits {
		if h.ref == "" || seen[h.ref] {
			continue
		}
		seen[h.ref] = true
		refs = append(refs, h.ref)
	}
	return refs
}

// configExtensions mark files that are configuration by format alone.
var configExtensions = map[string]bool{
	".json": true, ".yaml": true, ".yml": true, ".toml": true, ".ini": true,
	".cfg": true, ".conf": true, ".env": true, ".properties": true,
}

// keyFiles are well-known build, packaging and tooling files.
var keyFiles = map[string]bool{
	"package.json": true, "requirements.txt": true, "setup.py": true, "setup.cfg": true,
	"dockerfile": true, "docker-compose.yml": true, "docker-compose.yaml": true,
	"makefile": true, "rakefile": true, "cmakelists.txt": true, "pom.xml": true,
	"build.gradle": true, "build.gradle.kts": true, "go.mod": true, "go.sum": true,
	"cargo.toml": true, "tsconfig.json": true, "webpack.config.js": true,
	"procfile": true, "tox.ini": true, "pytest.ini": true, "pyproject.toml": true,
	".env": true, ".env.example": true, ".eslintrc": true, ".prettierrc": true,
	"gemfile": true, "composer.json": true, "manage.py": true,
}

var configWords = []string{"config", "settings", "setup"}

// IsConfigPath reports whether a repository path names a configuration file.
func IsConfigPath(p string) bool {
	base := strings.ToLower(path.Base(p))
	if keyFiles[base] || configExtensions[path.Ext(base)] {
		return true
	}
	stem := strings.TrimSuffix(base, path.Ext(base))
	for _, w := range configWords {
		if strings.Contains(stem, w) {
			return true
		}
	}
	return false
}

var testDirs = map[string]bool{"test": true, "tests": true, "__tests__": true, "spec": true, "testdata": true}

// IsTestPath reports whether a repository path follows a test naming
// convention.
func IsTestPath(p string) bool {
	base := path.Base(p)
	lower := strings.ToLower(base)
	stem := strings.TrimSuffix(base, path.Ext(base))
	lowerStem := strings.ToLower(stem)

	switch {
	case strings.HasPrefix(lowerStem, "test_"), strings.HasPrefix(lowerStem, "test-"),
		strings.HasSuffix(lowerStem, "_test"), strings.HasSuffix(lowerStem, "-test"),
		strings.Contains(lower, ".test."), strings.Contains(lower, ".spec."),
		strings.HasSuffix(lowerStem, "_spec"),
		lower == "conftest.py":
		return true
	case strings.HasSuffix(stem, "Test"), strings.HasSuffix(stem, "Tests"), strings.HasSuffix(stem, "Spec"):
		return true
	}

	for _, seg := range strings.Split(path.Dir(p), "/") {
		if testDirs[strings.ToLower(seg)] {
			return true
		}
	}
	return false
}

// DirectoryDepth returns the number of directories above a repository path.
func DirectoryDepth(p string) int {
	return strings.Count(strings.Trim(p, "/"), "/")
}

// NewFileRecord builds the immutable record for one file from its path,
// size, extracted references and symbol counts.
func NewFileRecord(p string, size int64, refs []string, counts SymbolCounts) FileRecord {
	return FileRecord{
		Path:           p,
		Language:       DetectLanguage(p),
		SizeBytes:      size,
		DirectoryDepth: DirectoryDepth(p),
		ImportCount:    len(refs),
		FunctionCount:  counts.Functions,
		ClassCount:     counts.Classes,
		IsTest:         IsTestPath(p),
		IsConfig:       IsConfigPath(p),
	}
}
