package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type resolveCase struct {
	name   string
	source string
	raw    string
	want   string // "" means unresolved
}

func runResolveCases(t *testing.T, r *Resolver, lang Language, cases []resolveCase) {
	t.Helper()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := r.Resolve(tc.source, lang, tc.raw)
			assert.Equal(t, tc.source, e.Source)
			if tc.want == "" {
				assert.False(t, e.Resolved, "expected %q to stay external, got %q", tc.raw, e.Target)
				assert.Equal(t, tc.raw, e.Target, "unresolved edges keep the raw reference")
				return
			}
			assert.True(t, e.Resolved, "expected %q to resolve", tc.raw)
			assert.Equal(t, tc.want, e.Target)
		})
	}
}

// --- TypeScript / JavaScript ---

func TestResolve_TypeScript(t *testing.T) {
	r := NewResolver([]string{
		"src/index.ts",
		"src/service.ts",
		"src/util.ts",
		"src/types.ts",
		"src/sub/handler.ts",
		"src/components/index.ts",
	})

	runResolveCases(t, r, LangTypeScript, []resolveCase{
		{"dot-slash exact", "src/index.ts", "./service", "src/service.ts"},
		{"parent directory", "src/sub/handler.ts", "../types", "src/types.ts"},
		{"extension swapped", "src/index.ts", "./util.js", "src/util.ts"},
		{"directory index", "src/index.ts", "./components", "src/components/index.ts"},
		{"case-insensitive fallback", "src/index.ts", "./Service", "src/service.ts"},
		{"alias to src", "src/sub/handler.ts", "@/types", "src/types.ts"},
		{"missing relative", "src/index.ts", "./nonexistent", ""},
		{"bare package", "src/index.ts", "react", ""},
		{"escapes the repository", "src/index.ts", "../../outside", ""},
	})
}

func TestResolve_Workspaces(t *testing.T) {
	logger, ok := ParseWorkspaceManifest("packages/logger/package.json",
		[]byte(`{"name": "@acme/logger", "main": "src/index.ts"}`))
	require.True(t, ok)
	db, ok := ParseWorkspaceManifest("packages/db/package.json",
		[]byte(`{"name": "@acme/db", "exports": {".": "./src/index.ts", "./queries": {"import": "./src/queries.ts"}}}`))
	require.True(t, ok)

	r := NewResolver([]string{
		"apps/web/main.ts",
		"packages/logger/src/index.ts",
		"packages/logger/src/format.ts",
		"packages/db/src/index.ts",
		"packages/db/src/queries.ts",
	}, WithWorkspace(logger), WithWorkspace(db))

	runResolveCases(t, r, LangTypeScript, []resolveCase{
		{"package main", "apps/web/main.ts", "@acme/logger", "packages/logger/src/index.ts"},
		{"package subpath file", "apps/web/main.ts", "@acme/logger/src/format", "packages/logger/src/format.ts"},
		{"exports default", "apps/web/main.ts", "@acme/db", "packages/db/src/index.ts"},
		{"exports subpath", "apps/web/main.ts", "@acme/db/queries", "packages/db/src/queries.ts"},
		{"unknown scope", "apps/web/main.ts", "@other/pkg", ""},
	})
}

func TestParseWorkspaceManifest_RequiresName(t *testing.T) {
	_, ok := ParseWorkspaceManifest("package.json", []byte(`{"private": true}`))
	assert.False(t, ok)
	_, ok = ParseWorkspaceManifest("package.json", []byte(`not json`))
	assert.False(t, ok)
}

// --- Go ---

func TestResolve_Go(t *testing.T) {
	r := NewResolver([]string{
		"cmd/app/main.go",
		"internal/store/a_test.go",
		"internal/store/store.go",
		"internal/store/tx.go",
	}, WithGoModule("github.com/acme/app"))

	runResolveCases(t, r, LangGo, []resolveCase{
		{"package entry is main.go", "internal/store/store.go", "github.com/acme/app/cmd/app", "cmd/app/main.go"},
		{"first non-test file", "cmd/app/main.go", "github.com/acme/app/internal/store", "internal/store/store.go"},
		{"standard library", "cmd/app/main.go", "fmt", ""},
		{"other module", "cmd/app/main.go", "github.com/acme/application/x", ""},
	})
}

func TestResolve_GoWithoutModule(t *testing.T) {
	r := NewResolver([]string{"internal/store/store.go"})
	e := r.Resolve("main.go", LangGo, "github.com/acme/app/internal/store")
	assert.False(t, e.Resolved)
}

// --- Python ---

func TestResolve_Python(t *testing.T) {
	r := NewResolver([]string{
		"main.py",
		"app/__init__.py",
		"app/models.py",
		"app/views.py",
		"app/utils.py",
		"app/sub/handlers.py",
	})

	runResolveCases(t, r, LangPython, []resolveCase{
		{"relative module", "app/views.py", ".models", "app/models.py"},
		{"parent relative", "app/sub/handlers.py", "..utils", "app/utils.py"},
		{"bare dot is the package", "app/views.py", ".", "app/__init__.py"},
		{"absolute dotted", "main.py", "app.models", "app/models.py"},
		{"package import", "main.py", "app", "app/__init__.py"},
		{"sibling script", "app/views.py", "utils", "app/utils.py"},
		{"third party", "main.py", "requests", ""},
	})
}

// --- Rust ---

func TestResolve_Rust(t *testing.T) {
	r := NewResolver([]string{
		"src/main.rs",
		"src/models.rs",
		"src/config.rs",
		"src/handlers/mod.rs",
		"src/api/handlers.rs",
		"src/api/util.rs",
		"src/store.rs",
		"src/store/db.rs",
	})

	runResolveCases(t, r, LangRust, []resolveCase{
		{"crate item path", "src/main.rs", "crate::models::User", "src/models.rs"},
		{"crate module directory", "src/main.rs", "crate::handlers", "src/handlers/mod.rs"},
		{"mod declaration in main", "src/main.rs", "config", "src/config.rs"},
		{"mod declaration in a module file", "src/store.rs", "db", "src/store/db.rs"},
		{"super path", "src/api/handlers.rs", "super::util", "src/api/util.rs"},
		{"external crate", "src/main.rs", "std::io", ""},
	})
}

// --- Other languages ---

func TestResolve_JavaAndC(t *testing.T) {
	r := NewResolver([]string{
		"src/main/java/com/acme/model/User.java",
		"src/main/java/com/acme/App.java",
		"src/main.c",
		"src/util.h",
		"include/foo.h",
	})

	runResolveCases(t, r, LangJava, []resolveCase{
		{"source root", "src/main/java/com/acme/App.java", "com.acme.model.User", "src/main/java/com/acme/model/User.java"},
		{"jdk class", "src/main/java/com/acme/App.java", "java.util.List", ""},
	})
	runResolveCases(t, r, LangC, []resolveCase{
		{"source relative include", "src/main.c", "util.h", "src/util.h"},
		{"include directory", "src/main.c", "foo.h", "include/foo.h"},
		{"system header", "src/main.c", "stdio.h", ""},
	})
}

func TestResolveAll_Deduplicates(t *testing.T) {
	r := NewResolver([]string{"src/a.ts", "src/b.ts"})
	edges := r.ResolveAll("src/b.ts", LangTypeScript, []string{"./a", "./a.ts", "lodash", "lodash"})
	assert.Equal(t, []DependencyEdge{
		{Source: "src/b.ts", Target: "src/a.ts", Resolved: true},
		{Source: "src/b.ts", Target: "lodash", Resolved: false},
	}, edges)
}

func TestResolve_UnknownLanguage(t *testing.T) {
	r := NewResolver([]string{"docs/a.md", "docs/b.md"})
	e := r.Resolve("docs/a.md", LangMarkdown, "./b.md")
	assert.True(t, e.Resolved)
	assert.Equal(t, "docs/b.md", e.Target)
}
