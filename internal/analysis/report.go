package analysis

import (
	"context"
	"time"

	"github.com/dusk-indust/archmap/internal/cluster"
	"github.com/dusk-indust/archmap/internal/graph"
)

// DiagnosticKind classifies why a file was skipped or cut short.
type DiagnosticKind string

const (
	DiagUnreadable  DiagnosticKind = "unreadable"
	DiagUndecodable DiagnosticKind = "undecodable"
	DiagTruncated   DiagnosticKind = "truncated"
)

// Diagnostic is a non-fatal problem with one input file. Unreadable and
// undecodable files are left out of the analysis; truncated files are
// analyzed from their prefix.
type Diagnostic struct {
	Path    string         `json:"path"`
	Kind    DiagnosticKind `json:"kind"`
	Message string         `json:"message"`
}

// ModeSwitch records a component running on its fallback backend.
type ModeSwitch struct {
	Component string `json:"component"`
	From      string `json:"from"`
	To        string `json:"to"`
	Reason    string `json:"reason"`
}

// Report is the complete, acyclic result of one analysis run.
type Report struct {
	ID           string                 `json:"id"`
	Root         string                 `json:"root"`
	GeneratedAt  time.Time              `json:"generated_at"`
	Capability   string                 `json:"capability"`
	Files        []graph.FileRecord     `json:"files"`
	Languages    map[graph.Language]int `json:"languages"`
	Graph        graph.DependencyGraph  `json:"graph"`
	Clustering   cluster.Result         `json:"clustering"`
	Diagnostics  []Diagnostic           `json:"diagnostics"`
	ModeSwitches []ModeSwitch           `json:"mode_switches"`
}

// File returns the record for path, or false when it was not analyzed.
func (r *Report) File(path string) (graph.FileRecord, bool) {
	for _, f := range r.Files {
		if f.Path == path {
			return f, true
		}
	}
	return graph.FileRecord{}, false
}

// countLanguages tallies files per detected language, leaving out unknown.
func countLanguages(files []graph.FileRecord) map[graph.Language]int {
	counts := make(map[graph.Language]int)
	for _, f := range files {
		if f.Language != graph.LangUnknown {
			counts[f.Language]++
		}
	}
	return counts
}

// Clusters returns the report's clusters with their cohesion, ordered by id.
func (r *Report) Clusters() []graph.ClusterNode {
	return r.Clustering.Nodes(r.Graph)
}

// Populate writes the report's files, resolved edges and clusters into
// store.
func (r *Report) Populate(ctx context.Context, store graph.Store) error {
	return graph.Populate(ctx, store, r.Files, r.Graph, r.Clusters())
}
