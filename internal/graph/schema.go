package graph

// --- Enums ---

// Language identifies the source language of a file, inferred from its
// extension or well-known file name.
type Language string

const (
	LangPython     Language = "python"
	LangJavaScript Language = "javascript"
	LangTypeScript Language = "typescript"
	LangGo         Language = "go"
	LangJava       Language = "java"
	LangKotlin     Language = "kotlin"
	LangRust       Language = "rust"
	LangC          Language = "c"
	LangCpp        Language = "cpp"
	LangCSharp     Language = "csharp"
	LangRuby       Language = "ruby"
	LangPHP        Language = "php"
	LangSQL        Language = "sql"
	LangJSON       Language = "json"
	LangYAML       Language = "yaml"
	LangTOML       Language = "toml"
	LangMarkdown   Language = "markdown"
	LangUnknown    Language = "unknown"
)

// Direction controls dependency traversal direction.
type Direction string

const (
	DirectionUpstream   Direction = "upstream"   // what depends on this?
	DirectionDownstream Direction = "downstream" // what does this depend on?
)

// --- Models ---

// FileRecord is the per-file structural summary produced during extraction.
// It is created once and never mutated afterwards.
type FileRecord struct {
	Path           string   `json:"path"`
	Language       Language `json:"language"`
	SizeBytes      int64    `json:"size_bytes"`
	DirectoryDepth int      `json:"directory_depth"`
	ImportCount    int      `json:"import_count"`
	FunctionCount  int      `json:"function_count"`
	ClassCount     int      `json:"class_count"`
	IsTest         bool     `json:"is_test"`
	IsConfig       bool     `json:"is_config"`
}

// DependencyEdge is a directed reference from one file to another file
// (Resolved) or to a raw external name (not Resolved).
type DependencyEdge struct {
	Source   string `json:"source"`
	Target   string `json:"target"`
	Resolved bool   `json:"resolved"`
}

// NodeDegree is a node together with its edge counts.
type NodeDegree struct {
	Path      string `json:"path"`
	InDegree  int    `json:"in_degree"`
	OutDegree int    `json:"out_degree"`
	Degree    int    `json:"degree"`
}

// Metrics are the structural properties derived from a DependencyGraph.
type Metrics struct {
	TotalNodes    int          `json:"total_nodes"`
	TotalEdges    int          `json:"total_edges"`
	Density       float64      `json:"density"`
	MostConnected []NodeDegree `json:"most_connected"`
	HotSpots      []string     `json:"hot_spots"`
	Cycles        [][]string   `json:"cycles"`
	Components    int          `json:"components"`
	IsolatedNodes int          `json:"isolated_nodes"`
}

// DependencyGraph is the directed file graph of a single analysis. Nodes
// include every file, even those with no edges. Edges are resolved only;
// unresolved references are kept separately in External.
type DependencyGraph struct {
	Nodes    []string         `json:"nodes"`
	Edges    []DependencyEdge `json:"edges"`
	External []DependencyEdge `json:"external"`
	Metrics  Metrics          `json:"metrics"`
}

// ClusterNode is a labelled group of files as persisted in a Store.
// Cohesion is the share of the members' dependency edges that stay inside
// the cluster.
type ClusterNode struct {
	ID       int      `json:"id"`
	Label    string   `json:"label"`
	Members  []string `json:"members"`
	Cohesion float64  `json:"cohesion"`
}

// GraphStats summarizes the contents of a Store.
type GraphStats struct {
	FileCount    int `json:"fileCount"`
	EdgeCount    int `json:"edgeCount"`
	ClusterCount int `json:"clusterCount"`
}

// DependencyChain is an ordered sequence of files forming a dependency path.
type DependencyChain struct {
	Nodes []string `json:"nodes"`
	Depth int      `json:"depth"`
}
