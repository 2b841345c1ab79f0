package mcptools

import (
	"github.com/dusk-indust/archmap/internal/analysis"
	"github.com/dusk-indust/archmap/internal/graph"
)

// --- MCP Tool Input/Output Types ---
// The MCP Go SDK derives each tool's JSON schema from these struct tags.
// Every tool except analyze_repository reads the cached report of RepoPath,
// falling back to the report saved under the repository's output dir.

// AnalyzeRepositoryInput is the input for the analyze_repository MCP tool.
type AnalyzeRepositoryInput struct {
	RepoPath    string   `json:"repoPath" jsonschema:"the absolute path to the repository to analyze"`
	K           int      `json:"k,omitempty" jsonschema:"number of clusters (default: configured k)"`
	Method      string   `json:"method,omitempty" jsonschema:"clustering method: auto, centroid or heuristic"`
	ExcludeDirs []string `json:"excludeDirs,omitempty" jsonschema:"extra directory names to skip (e.g. generated)"`
	Save        bool     `json:"save,omitempty" jsonschema:"write the report to the repository's output dir"`
}

// AnalyzeRepositoryOutput is the result of the analyze_repository MCP tool.
type AnalyzeRepositoryOutput struct {
	ReportID     string                 `json:"reportId"`
	Capability   string                 `json:"capability"`
	Stats        graph.GraphStats       `json:"stats"`
	External     int                    `json:"external"`
	Cycles       int                    `json:"cycles"`
	HotSpots     []string               `json:"hotSpots"`
	Languages    map[graph.Language]int `json:"languages"`
	Method       string                 `json:"method"`
	Summary      string                 `json:"summary"`
	Diagnostics  []analysis.Diagnostic  `json:"diagnostics"`
	ModeSwitches []analysis.ModeSwitch  `json:"modeSwitches"`
	SavedTo      string                 `json:"savedTo,omitempty"`
}

// RepoInput is the input of the tools that only need a repository.
type RepoInput struct {
	RepoPath string `json:"repoPath" jsonschema:"the absolute path of an analyzed repository"`
}

// GetHotSpotsOutput is the result of the get_hot_spots MCP tool.
type GetHotSpotsOutput struct {
	HotSpots      []graph.NodeDegree `json:"hotSpots"`
	MostConnected []graph.NodeDegree `json:"mostConnected"`
}

// GetCyclesOutput is the result of the get_cycles MCP tool.
type GetCyclesOutput struct {
	Cycles [][]string `json:"cycles"`
	Total  int        `json:"total"`
}

// GetClustersOutput is the result of the get_clusters MCP tool.
type GetClustersOutput struct {
	Method   string              `json:"method"`
	Summary  string              `json:"summary"`
	Clusters []graph.ClusterNode `json:"clusters"`
}

// GetDependenciesInput is the input for the get_dependencies MCP tool.
type GetDependenciesInput struct {
	RepoPath  string `json:"repoPath" jsonschema:"the absolute path of an analyzed repository"`
	Path      string `json:"path" jsonschema:"repository-relative file path"`
	Direction string `json:"direction,omitempty" jsonschema:"downstream (what the file imports) or upstream (what imports it). Default: downstream"`
	MaxDepth  int    `json:"maxDepth,omitempty" jsonschema:"maximum traversal depth (default: 5)"`
}

// GetDependenciesOutput is the result of the get_dependencies MCP tool.
type GetDependenciesOutput struct {
	Chains []graph.DependencyChain `json:"chains"`
}

// AssessImpactInput is the input for the assess_impact MCP tool.
type AssessImpactInput struct {
	RepoPath     string   `json:"repoPath" jsonschema:"the absolute path of an analyzed repository"`
	ChangedFiles []string `json:"changedFiles" jsonschema:"repository-relative paths of the files that will be modified"`
}

// AssessImpactOutput is the result of the assess_impact MCP tool.
type AssessImpactOutput struct {
	Impact graph.ImpactResult `json:"impact"`
}

// ExternalDependency is one unresolved reference and the files using it.
type ExternalDependency struct {
	Name       string   `json:"name"`
	ImportedBy []string `json:"importedBy"`
}

// GetExternalDependenciesOutput is the result of the
// get_external_dependencies MCP tool.
type GetExternalDependenciesOutput struct {
	Dependencies []ExternalDependency `json:"dependencies"`
}
