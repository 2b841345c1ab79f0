package graph

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func records(paths ...string) []FileRecord {
	out := make([]FileRecord, len(paths))
	for i, p := range paths {
		out[i] = NewFileRecord(p, 0, nil, SymbolCounts{})
	}
	return out
}

func edge(src, dst string) DependencyEdge {
	return DependencyEdge{Source: src, Target: dst, Resolved: true}
}

func TestBuild_Empty(t *testing.T) {
	g := Build(nil, nil, DefaultBuildOptions())

	assert.Equal(t, 0, g.Metrics.TotalNodes)
	assert.Equal(t, 0, g.Metrics.TotalEdges)
	assert.Equal(t, 0.0, g.Metrics.Density)
	assert.NotNil(t, g.Metrics.HotSpots)
	assert.Empty(t, g.Metrics.HotSpots)
	assert.NotNil(t, g.Metrics.Cycles)
	assert.Empty(t, g.Metrics.Cycles)
	assert.NotNil(t, g.Nodes)
	assert.NotNil(t, g.Edges)
}

func TestBuild_Density(t *testing.T) {
	one := Build(records("a.py"), nil, DefaultBuildOptions())
	assert.Equal(t, 0.0, one.Metrics.Density)

	two := Build(records("a.py", "b.py"), []DependencyEdge{edge("a.py", "b.py")}, DefaultBuildOptions())
	assert.Equal(t, 0.5, two.Metrics.Density)
}

func TestBuild_TwoNodeCycleAndIsolatedNode(t *testing.T) {
	g := Build(records("a", "b", "c"), []DependencyEdge{edge("a", "b"), edge("b", "a")}, DefaultBuildOptions())

	assert.Equal(t, [][]string{{"a", "b"}}, g.Metrics.Cycles)
	for _, d := range Degrees(g) {
		if d.Path == "c" {
			assert.Equal(t, 0, d.Degree)
		}
	}
	assert.Equal(t, 1, g.Metrics.IsolatedNodes)
	assert.Equal(t, 2, g.Metrics.Components)
}

func TestBuild_DropsMalformedAndDuplicateEdges(t *testing.T) {
	g := Build(records("a", "b"), []DependencyEdge{
		edge("a", "b"),
		edge("a", "b"),
		edge("a", "ghost"),
		edge("ghost", "b"),
		{Source: "a", Target: "numpy"},
		{Source: "a", Target: "numpy"},
		{Source: "ghost", Target: "os"},
	}, DefaultBuildOptions())

	assert.Equal(t, []DependencyEdge{edge("a", "b")}, g.Edges)
	assert.Equal(t, []DependencyEdge{{Source: "a", Target: "numpy"}}, g.External)
	assert.Equal(t, 1, g.Metrics.TotalEdges)
}

func TestBuild_SelfEdge(t *testing.T) {
	g := Build(records("a", "b"), []DependencyEdge{edge("a", "a")}, DefaultBuildOptions())

	assert.Equal(t, 1, g.Metrics.TotalEdges)
	assert.Equal(t, [][]string{{"a"}}, g.Metrics.Cycles)
	assert.Equal(t, 1, g.Metrics.IsolatedNodes)
}

func TestBuild_MostConnectedTiesByPath(t *testing.T) {
	g := Build(records("d", "c", "b", "a"), []DependencyEdge{
		edge("a", "b"), edge("c", "d"), edge("a", "c"),
	}, BuildOptions{TopK: 3, HotSpots: HotSpotPolicy{Mode: HotSpotFixed}, MaxCycleDepth: 12, MaxCycles: 100})

	require.Len(t, g.Metrics.MostConnected, 3)
	assert.Equal(t, NodeDegree{Path: "a", InDegree: 0, OutDegree: 2, Degree: 2}, g.Metrics.MostConnected[0])
	assert.Equal(t, "c", g.Metrics.MostConnected[1].Path)
	assert.Equal(t, "b", g.Metrics.MostConnected[2].Path)
}

func star(leaves int) ([]FileRecord, []DependencyEdge) {
	paths := []string{"hub"}
	var edges []DependencyEdge
	for i := 0; i < leaves; i++ {
		leaf := fmt.Sprintf("leaf%02d", i)
		paths = append(paths, leaf)
		edges = append(edges, edge("hub", leaf))
	}
	return records(paths...), edges
}

func TestBuild_HotSpotsPercentile(t *testing.T) {
	files, edges := star(10)
	g := Build(files, edges, DefaultBuildOptions())
	assert.Equal(t, []string{"hub"}, g.Metrics.HotSpots)
}

func TestBuild_HotSpotsFixed(t *testing.T) {
	files, edges := star(3)
	opts := DefaultBuildOptions()
	opts.HotSpots = HotSpotPolicy{Mode: HotSpotFixed, Threshold: 0}
	g := Build(files, edges, opts)
	assert.Equal(t, []string{"hub", "leaf00", "leaf01", "leaf02"}, g.Metrics.HotSpots)

	opts.HotSpots.Threshold = 3
	g = Build(files, edges, opts)
	assert.Empty(t, g.Metrics.HotSpots)
}

func TestBuild_HotSpotsNeverZeroDegree(t *testing.T) {
	opts := DefaultBuildOptions()
	opts.HotSpots = HotSpotPolicy{Mode: HotSpotFixed, Threshold: -1}
	g := Build(records("a", "b"), nil, opts)
	assert.Empty(t, g.Metrics.HotSpots)
}

func TestHotSpotPolicy_Validate(t *testing.T) {
	assert.NoError(t, DefaultBuildOptions().HotSpots.Validate())
	assert.NoError(t, HotSpotPolicy{Mode: HotSpotFixed, Threshold: 4}.Validate())
	assert.Error(t, HotSpotPolicy{Mode: HotSpotPercentile, Percentile: 0}.Validate())
	assert.Error(t, HotSpotPolicy{Mode: HotSpotPercentile, Percentile: 120}.Validate())
	assert.Error(t, HotSpotPolicy{Mode: HotSpotFixed, Threshold: -2}.Validate())
	assert.Error(t, HotSpotPolicy{Mode: "median"}.Validate())
}

func TestBuild_OrderIndependent(t *testing.T) {
	edges := []DependencyEdge{edge("a", "b"), edge("b", "c"), edge("c", "a"), {Source: "b", Target: "os"}}
	reversed := []DependencyEdge{edges[3], edges[2], edges[1], edges[0]}

	g1 := Build(records("a", "b", "c"), edges, DefaultBuildOptions())
	g2 := Build(records("c", "b", "a"), reversed, DefaultBuildOptions())
	assert.Equal(t, g1, g2)
}
