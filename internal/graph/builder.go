package graph

import (
	"fmt"
	"math"
	"sort"
)

// HotSpotMode selects how the hot-spot degree threshold is derived.
type HotSpotMode string

const (
	// HotSpotPercentile uses the nearest-rank percentile of the degree
	// distribution as the threshold.
	HotSpotPercentile HotSpotMode = "percentile"
	// HotSpotFixed uses a constant degree threshold.
	HotSpotFixed HotSpotMode = "fixed"
)

// HotSpotPolicy decides which nodes count as hot spots. A node is a hot
// spot when its degree is strictly greater than the threshold and above 0.
type HotSpotPolicy struct {
	Mode       HotSpotMode `json:"mode" mapstructure:"mode" yaml:"mode"`
	Percentile float64     `json:"percentile" mapstructure:"percentile" yaml:"percentile"`
	Threshold  int         `json:"threshold" mapstructure:"threshold" yaml:"threshold"`
}

// Validate checks the policy for unusable values.
func (p HotSpotPolicy) Validate() error {
	switch p.Mode {
	case HotSpotPercentile:
		if p.Percentile <= 0 || p.Percentile > 100 {
			return fmt.Errorf("hot spot percentile %v out of range (0,100]", p.Percentile)
		}
	case HotSpotFixed:
		if p.Threshold < 0 {
			return fmt.Errorf("hot spot threshold %d must not be negative", p.Threshold)
		}
	default:
		return fmt.Errorf("unknown hot spot mode %q", p.Mode)
	}
	return nil
}

// threshold returns the degree a node must exceed. degrees must be sorted
// ascending.
func (p HotSpotPolicy) threshold(degrees []int) int {
	if p.Mode == HotSpotFixed {
		return p.Threshold
	}
	if len(degrees) == 0 {
		return 0
	}
	rank := int(math.Ceil(p.Percentile / 100 * float64(len(degrees))))
	rank = max(1, min(rank, len(degrees)))
	return degrees[rank-1]
}

// BuildOptions bound the metric computations of Build.
type BuildOptions struct {
	TopK          int
	HotSpots      HotSpotPolicy
	MaxCycleDepth int
	MaxCycles     int
}

// DefaultBuildOptions returns the defaults: top 10 most connected, p90
// hot spots, cycles up to 12 nodes long and at most 100 of them.
func DefaultBuildOptions() BuildOptions {
	return BuildOptions{
		TopK:          10,
		HotSpots:      HotSpotPolicy{Mode: HotSpotPercentile, Percentile: 90},
		MaxCycleDepth: 12,
		MaxCycles:     100,
	}
}

// Build assembles the dependency graph of one analysis.
//
// Every file becomes a node. Resolved edges whose endpoints are both nodes
// are kept; any other resolved edge is dropped. Unresolved edges from known
// files are kept apart in External. Duplicates are removed and every slice
// is sorted, so the result only depends on its input sets.
func Build(files []FileRecord, edges []DependencyEdge, opts BuildOptions) DependencyGraph {
	nodeSet := make(map[string]bool, len(files))
	nodes := make([]string, 0, len(files))
	for _, f := range files {
		if nodeSet[f.Path] {
			continue
		}
		nodeSet[f.Path] = true
		nodes = append(nodes, f.Path)
	}
	sort.Strings(nodes)

	resolved := []DependencyEdge{}
	external := []DependencyEdge{}
	seen := make(map[DependencyEdge]bool, len(edges))
	for _, e := range edges {
		if seen[e] || !nodeSet[e.Source] {
			continue
		}
		seen[e] = true
		switch {
		case !e.Resolved:
			external = append(external, e)
		case nodeSet[e.Target]:
			resolved = append(resolved, e)
		}
	}
	sortEdges(resolved)
	sortEdges(external)

	g := DependencyGraph{Nodes: nodes, Edges: resolved, External: external}
	g.Metrics = computeMetrics(g, opts)
	return g
}

func sortEdges(edges []DependencyEdge) {
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Source != edges[j].Source {
			return edges[i].Source < edges[j].Source
		}
		return edges[i].Target < edges[j].Target
	})
}

func computeMetrics(g DependencyGraph, opts BuildOptions) Metrics {
	n, e := len(g.Nodes), len(g.Edges)
	m := Metrics{
		TotalNodes:    n,
		TotalEdges:    e,
		MostConnected: []NodeDegree{},
		HotSpots:      []string{},
	}
	if n >= 2 {
		m.Density = float64(e) / float64(n*(n-1))
	}

	ranked := Degrees(g)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Degree != ranked[j].Degree {
			return ranked[i].Degree > ranked[j].Degree
		}
		return ranked[i].Path < ranked[j].Path
	})

	topK := opts.TopK
	if topK <= 0 || topK > len(ranked) {
		topK = len(ranked)
	}
	m.MostConnected = append(m.MostConnected, ranked[:topK]...)

	dist := make([]int, len(ranked))
	for i, d := range ranked {
		dist[i] = d.Degree
	}
	sort.Ints(dist)
	limit := opts.HotSpots.threshold(dist)
	for _, d := range ranked {
		if d.Degree > limit && d.Degree > 0 {
			m.HotSpots = append(m.HotSpots, d.Path)
		}
	}

	m.Cycles = FindCycles(g.Nodes, g.Edges, opts.MaxCycleDepth, opts.MaxCycles)

	m.Components = len(ConnectedComponents(g))
	for _, d := range ranked {
		if d.Degree == 0 {
			m.IsolatedNodes++
		}
	}
	return m
}

// Degrees returns in, out and combined degree for every node, in node
// order. A self-edge counts once in each direction.
func Degrees(g DependencyGraph) []NodeDegree {
	in := make(map[string]int, len(g.Nodes))
	out := make(map[string]int, len(g.Nodes))
	for _, e := range g.Edges {
		out[e.Source]++
		in[e.Target]++
	}
	degrees := make([]NodeDegree, len(g.Nodes))
	for i, n := range g.Nodes {
		degrees[i] = NodeDegree{Path: n, InDegree: in[n], OutDegree: out[n], Degree: in[n] + out[n]}
	}
	return degrees
}
