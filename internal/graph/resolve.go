package graph

import (
	"encoding/json"
	"path"
	"sort"
	"strings"
)

// Resolver maps raw import specifiers onto repository-relative file paths.
// It is built once per analysis from the set of known paths plus any
// workspace metadata (Go module path, npm workspace packages) the caller
// discovered. Resolution never touches the filesystem.
type Resolver struct {
	fileSet    map[string]bool
	lowerIndex map[string]string
	dirIndex   map[string][]string
	goModule   string
	workspaces map[string]*workspacePackage
	pending    []WorkspaceManifest
}

// workspacePackage holds the resolved entry points of one npm workspace.
type workspacePackage struct {
	dir            string
	mainFile       string
	subpathExports map[string]string // "./queries" -> "packages/db/src/queries.ts"
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithGoModule sets the module path declared in the repository's go.mod.
// Go imports under it resolve to package directories in the repository.
func WithGoModule(module string) ResolverOption {
	return func(r *Resolver) { r.goModule = strings.TrimSuffix(module, "/") }
}

// WithWorkspace registers an npm/bun workspace package so bare imports of
// its name resolve into the repository.
func WithWorkspace(m WorkspaceManifest) ResolverOption {
	return func(r *Resolver) { r.pending = append(r.pending, m) }
}

// NewResolver builds a Resolver over the given repository-relative paths.
func NewResolver(paths []string, opts ...ResolverOption) *Resolver {
	sorted := append([]string(nil), paths...)
	sort.Strings(sorted)

	r := &Resolver{
		fileSet:    make(map[string]bool, len(sorted)),
		lowerIndex: make(map[string]string, len(sorted)),
		dirIndex:   make(map[string][]string),
		workspaces: make(map[string]*workspacePackage),
	}
	for _, f := range sorted {
		r.fileSet[f] = true
		if _, dup := r.lowerIndex[strings.ToLower(f)]; !dup {
			r.lowerIndex[strings.ToLower(f)] = f
		}
		dir := path.Dir(f)
		r.dirIndex[dir] = append(r.dirIndex[dir], f)
	}

	for _, opt := range opts {
		opt(r)
	}
	for _, m := range r.pending {
		r.loadWorkspace(m)
	}
	r.pending = nil
	return r
}

// Resolve turns one raw reference found in source into a dependency edge.
// A reference matched to a known file yields a resolved edge to that path;
// anything else yields an unresolved edge whose target is the raw string.
func (r *Resolver) Resolve(source string, lang Language, raw string) DependencyEdge {
	if target, ok := r.lookup(source, lang, raw); ok {
		return DependencyEdge{Source: source, Target: target, Resolved: true}
	}
	return DependencyEdge{Source: source, Target: raw, Resolved: false}
}

// ResolveAll resolves every reference of one source file, dropping
// duplicate edges while keeping reference order.
func (r *Resolver) ResolveAll(source string, lang Language, refs []string) []DependencyEdge {
	out := make([]DependencyEdge, 0, len(refs))
	seen := make(map[DependencyEdge]bool, len(refs))
	for _, raw := range refs {
		e := r.Resolve(source, lang, raw)
		if seen[e] {
			continue
		}
		seen[e] = true
		out = append(out, e)
	}
	return out
}

func (r *Resolver) lookup(source string, lang Language, raw string) (string, bool) {
	if ws, ok := r.resolveWorkspace(lang, raw); ok {
		return ws, true
	}

	def := languageTable[lang]
	bases := r.candidates(source, lang, raw)

	// (a) exact match, bare or with a language extension.
	for _, base := range bases {
		if p, ok := r.probeFile(base, def.probe, false); ok {
			return p, true
		}
	}
	// (b) the reference names a directory: use its entry file.
	for _, base := range bases {
		if p, ok := r.probeIndex(base, lang, def.index, false); ok {
			return p, true
		}
	}
	// (c) same probes, ignoring case.
	for _, base := range bases {
		if p, ok := r.probeFile(base, def.probe, true); ok {
			return p, true
		}
		if p, ok := r.probeIndex(base, lang, def.index, true); ok {
			return p, true
		}
	}
	return "", false
}

// --- Candidate generation ---

var (
	jvmSourceRoots  = []string{"", "src/main/java", "src/main/kotlin", "src/test/java", "src/test/kotlin", "src", "app/src/main/java"}
	phpSourceRoots  = []string{"", "src", "app", "lib"}
	rubySourceRoots = []string{"", "lib", "app"}
	cIncludeRoots   = []string{"", "include", "src"}
)

// candidates returns the repository-relative base paths a reference may
// denote, most specific first. Paths escaping the repository are dropped.
func (r *Resolver) candidates(source string, lang Language, raw string) []string {
	dir := path.Dir(source)
	var out []string
	add := func(p string) {
		p = path.Clean(p)
		if p == ".." || strings.HasPrefix(p, "../") || strings.HasPrefix(p, "/") {
			return
		}
		out = append(out, p)
	}

	relative := strings.HasPrefix(raw, "./") || strings.HasPrefix(raw, "../")

	switch lang {
	case LangJavaScript, LangTypeScript:
		if relative {
			add(path.Join(dir, raw))
			break
		}
		if rest, ok := strings.CutPrefix(raw, "@/"); ok {
			add(path.Join("src", rest))
		}
		if strings.HasPrefix(raw, "/") {
			add(strings.TrimPrefix(raw, "/"))
			break
		}
		add(raw)
		add(path.Join("src", raw))

	case LangPython:
		if strings.HasPrefix(raw, ".") {
			add(pythonRelative(dir, raw))
			break
		}
		rel := strings.ReplaceAll(raw, ".", "/")
		add(rel)
		add(path.Join("src", rel))
		add(path.Join(dir, rel))

	case LangGo:
		if r.goModule == "" {
			break
		}
		if raw == r.goModule {
			add(".")
		} else if rest, ok := strings.CutPrefix(raw, r.goModule+"/"); ok {
			add(rest)
		}

	case LangRust:
		out = append(out, rustCandidates(source, raw)...)

	case LangJava, LangKotlin, LangCSharp:
		rel := strings.ReplaceAll(strings.TrimSuffix(raw, ".*"), ".", "/")
		for _, root := range jvmSourceRoots {
			add(path.Join(root, rel))
		}

	case LangC, LangCpp:
		add(path.Join(dir, raw))
		for _, root := range cIncludeRoots {
			add(path.Join(root, raw))
		}

	case LangRuby:
		add(path.Join(dir, raw))
		for _, root := range rubySourceRoots {
			add(path.Join(root, raw))
		}

	case LangPHP:
		if strings.Contains(raw, `\`) {
			rel := strings.ReplaceAll(strings.Trim(raw, `\`), `\`, "/")
			for _, root := range phpSourceRoots {
				add(path.Join(root, rel))
			}
			break
		}
		add(path.Join(dir, raw))
		add(raw)

	default:
		if relative {
			add(path.Join(dir, raw))
		}
	}
	return out
}

// pythonRelative resolves a leading-dot import against the importing file's
// package. One dot is the current package, each further dot one level up.
func pythonRelative(dir, raw string) string {
	dots := len(raw) - len(strings.TrimLeft(raw, "."))
	base := dir
	for i := 1; i < dots; i++ {
		base = path.Dir(base)
	}
	module := raw[dots:]
	if module == "" {
		return base
	}
	return path.Join(base, strings.ReplaceAll(module, ".", "/"))
}

// rustCandidates handles crate::, self:: and super:: paths plus bare
// `mod name;` declarations. A use path may end in an item rather than a
// module, so every shorter prefix is tried too.
func rustCandidates(source, raw string) []string {
	var roots []string
	var modulePath string

	switch {
	case strings.HasPrefix(raw, "crate::"):
		modulePath = strings.TrimPrefix(raw, "crate::")
		roots = []string{"src", "."}
		if crate := findCrateRoot(source); crate != "" && crate != "src" {
			roots = append([]string{crate}, roots...)
		}
	case strings.HasPrefix(raw, "self::"):
		modulePath = strings.TrimPrefix(raw, "self::")
		roots = []string{rustModuleDir(source)}
	case strings.HasPrefix(raw, "super::"):
		modulePath = strings.TrimPrefix(raw, "super::")
		roots = []string{path.Dir(rustModuleDir(source))}
	case !strings.Contains(raw, "::"):
		// `mod name;` declares a child module of the current one.
		return []string{path.Join(rustModuleDir(source), raw)}
	default:
		return nil // external crate
	}

	segments := strings.Split(modulePath, "::")
	var out []string
	for n := len(segments); n > 0; n-- {
		rel := strings.Join(segments[:n], "/")
		for _, root := range roots {
			out = append(out, path.Clean(path.Join(root, rel)))
		}
	}
	return out
}

// rustModuleDir is the directory holding a file's child modules: the file's
// own directory for mod.rs/lib.rs/main.rs, otherwise a directory named after
// the file.
func rustModuleDir(source string) string {
	switch path.Base(source) {
	case "mod.rs", "lib.rs", "main.rs":
		return path.Dir(source)
	}
	return strings.TrimSuffix(source, ".rs")
}

// findCrateRoot walks up from a file path to the nearest "src" directory,
// the conventional Rust crate source root.
func findCrateRoot(filePath string) string {
	dir := path.Dir(filePath)
	for dir != "." && dir != "/" && dir != "" {
		if path.Base(dir) == "src" {
			return dir
		}
		dir = path.Dir(dir)
	}
	return ""
}

// --- Probing ---

func (r *Resolver) exact(p string) (string, bool) {
	return p, r.fileSet[p]
}

func (r *Resolver) folded(p string) (string, bool) {
	hit, ok := r.lowerIndex[strings.ToLower(p)]
	return hit, ok
}

// probeFile checks base itself, then base with each extension appended.
// A base already carrying one of the extensions is also probed with the
// extension swapped, so "./util.js" finds "util.ts".
func (r *Resolver) probeFile(base string, exts []string, fold bool) (string, bool) {
	match := r.exact
	if fold {
		match = r.folded
	}
	if p, ok := match(base); ok {
		return p, true
	}
	stem := base
	for _, ext := range exts {
		if strings.HasSuffix(base, ext) {
			stem = strings.TrimSuffix(base, ext)
			break
		}
	}
	for _, ext := range exts {
		if p, ok := match(stem + ext); ok {
			return p, true
		}
	}
	return "", false
}

// probeIndex treats base as a directory and looks for its entry file. Go
// packages have no fixed entry file, so the first non-test .go file stands
// in when main.go is absent.
func (r *Resolver) probeIndex(base string, lang Language, index []string, fold bool) (string, bool) {
	match := r.exact
	if fold {
		match = r.folded
	}
	for _, name := range index {
		if p, ok := match(path.Join(base, name)); ok {
			return p, true
		}
	}
	if lang != LangGo {
		return "", false
	}
	files, ok := r.dirIndex[base]
	if !ok && fold {
		files = r.foldedDir(base)
	}
	for _, f := range files {
		if strings.HasSuffix(f, ".go") && !strings.HasSuffix(f, "_test.go") {
			return f, true
		}
	}
	return "", false
}

// foldedDir returns the files of the lexically first directory whose name
// matches dir ignoring case.
func (r *Resolver) foldedDir(dir string) []string {
	var best string
	for d := range r.dirIndex {
		if strings.EqualFold(d, dir) && (best == "" || d < best) {
			best = d
		}
	}
	return r.dirIndex[best]
}

// --- Workspaces ---

// WorkspaceManifest is the subset of a workspace package.json the resolver
// needs. Dir is the repository-relative directory holding the manifest.
type WorkspaceManifest struct {
	Dir     string          `json:"-"`
	Name    string          `json:"name"`
	Main    string          `json:"main"`
	Exports json.RawMessage `json:"exports"`
}

// ParseWorkspaceManifest decodes a package.json found at manifestPath.
// Manifests without a name cannot be imported and report false.
func ParseWorkspaceManifest(manifestPath string, content []byte) (WorkspaceManifest, bool) {
	var m WorkspaceManifest
	if err := json.Unmarshal(content, &m); err != nil || m.Name == "" {
		return WorkspaceManifest{}, false
	}
	m.Dir = path.Dir(manifestPath)
	return m, true
}

var jsProbe = []string{".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs"}

func (r *Resolver) loadWorkspace(m WorkspaceManifest) {
	if m.Dir == "." {
		return // the root package is the repository itself
	}
	ws := &workspacePackage{dir: m.Dir, subpathExports: make(map[string]string)}
	r.parseExports(ws, m.Exports)

	if ws.mainFile == "" && m.Main != "" {
		if p, ok := r.probeFile(path.Join(m.Dir, m.Main), jsProbe, false); ok {
			ws.mainFile = p
		}
	}
	if ws.mainFile == "" {
		for _, try := range []string{path.Join(m.Dir, "src", "index"), path.Join(m.Dir, "index")} {
			if p, ok := r.probeFile(try, jsProbe, false); ok {
				ws.mainFile = p
				break
			}
		}
	}
	r.workspaces[m.Name] = ws
}

func (r *Resolver) parseExports(ws *workspacePackage, raw json.RawMessage) {
	if len(raw) == 0 {
		return
	}

	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		if p, ok := r.probeFile(path.Join(ws.dir, str), jsProbe, false); ok {
			ws.mainFile = p
		}
		return
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return
	}
	for key, val := range obj {
		target := resolveExportValue(val)
		if target == "" {
			continue
		}
		p, ok := r.probeFile(path.Join(ws.dir, target), jsProbe, false)
		if !ok {
			continue
		}
		if key == "." {
			ws.mainFile = p
		} else {
			ws.subpathExports[key] = p
		}
	}
}

// resolveExportValue extracts a file path from an export value, which is
// either a string or a conditional object keyed by import/default/require.
func resolveExportValue(raw json.RawMessage) string {
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return str
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return ""
	}
	for _, key := range []string{"import", "default", "require"} {
		if v, ok := obj[key]; ok {
			return resolveExportValue(v)
		}
	}
	return ""
}

// resolveWorkspace maps "@scope/pkg", "pkg" and their subpaths onto
// registered workspace packages.
func (r *Resolver) resolveWorkspace(lang Language, raw string) (string, bool) {
	if lang != LangJavaScript && lang != LangTypeScript || len(r.workspaces) == 0 {
		return "", false
	}
	if ws, ok := r.workspaces[raw]; ok {
		return ws.mainFile, ws.mainFile != ""
	}

	// "@scope/pkg/sub/path" splits after the second slash, "pkg/sub" after
	// the first.
	split := strings.Index(raw, "/")
	if strings.HasPrefix(raw, "@") && split != -1 {
		next := strings.Index(raw[split+1:], "/")
		if next == -1 {
			return "", false
		}
		split += 1 + next
	}
	if split == -1 {
		return "", false
	}
	ws, ok := r.workspaces[raw[:split]]
	if !ok {
		return "", false
	}
	subpath := "./" + raw[split+1:]
	if target, ok := ws.subpathExports[subpath]; ok {
		return target, true
	}
	if p, ok := r.probeFile(path.Join(ws.dir, subpath), jsProbe, false); ok {
		return p, true
	}
	return r.probeIndex(path.Join(ws.dir, subpath), LangTypeScript, languageTable[LangTypeScript].index, false)
}
