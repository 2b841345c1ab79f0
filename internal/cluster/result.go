package cluster

import (
	"sort"

	"github.com/dusk-indust/archmap/internal/graph"
)

// Method names reported in Result.Method.
const (
	MethodCentroid  = "centroid"
	MethodHeuristic = "heuristic"
)

// Result is the partition of one file batch into labelled clusters.
// Every input path appears in exactly one cluster; ids run 0..len-1.
type Result struct {
	Clusters map[int][]string `json:"clusters"`
	Patterns map[int]string   `json:"patterns"`
	Method   string           `json:"method"`
	Summary  string           `json:"summary"`
}

// emptyResult is the result for a batch without files.
func emptyResult(method string) Result {
	r := Result{Clusters: map[int][]string{}, Patterns: map[int]string{}, Method: method}
	r.Summary = Summarize(r)
	return r
}

// newResult labels the given groups and renders the summary. Groups must
// already be in id order with sorted members. labels may pre-assign a label
// per group; empty entries are decided by Label.
func newResult(method string, groups [][]graph.FileRecord, labels []string) Result {
	r := Result{
		Clusters: make(map[int][]string, len(groups)),
		Patterns: make(map[int]string, len(groups)),
		Method:   method,
	}
	for id, members := range groups {
		paths := make([]string, len(members))
		for i, f := range members {
			paths[i] = f.Path
		}
		r.Clusters[id] = paths
		if id < len(labels) && labels[id] != "" {
			r.Patterns[id] = labels[id]
		} else {
			r.Patterns[id] = Label(Stats(members), len(groups))
		}
	}
	r.Summary = Summarize(r)
	return r
}

// IDs returns the cluster ids in ascending order.
func (r Result) IDs() []int {
	ids := make([]int, 0, len(r.Clusters))
	for id := range r.Clusters {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Nodes converts the result into store-ready cluster nodes, ordered by id,
// scoring each cluster's cohesion against g.
func (r Result) Nodes(g graph.DependencyGraph) []graph.ClusterNode {
	nodes := make([]graph.ClusterNode, 0, len(r.Clusters))
	for _, id := range r.IDs() {
		members := r.Clusters[id]
		nodes = append(nodes, graph.ClusterNode{
			ID:       id,
			Label:    r.Patterns[id],
			Members:  members,
			Cohesion: graph.Cohesion(members, g),
		})
	}
	return nodes
}

// sortedByPath returns a copy of files ordered by path.
func sortedByPath(files []graph.FileRecord) []graph.FileRecord {
	out := append([]graph.FileRecord(nil), files...)
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// clampK bounds k to [1, n].
func clampK(k, n int) int {
	return max(1, min(k, n))
}
