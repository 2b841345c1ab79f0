package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// Shared Store contract, run against every implementation.
// ---------------------------------------------------------------------------

// diamond: a imports b and c, both import d.
func diamondAnalysis() ([]FileRecord, DependencyGraph, []ClusterNode) {
	files := []FileRecord{
		NewFileRecord("src/a.py", 100, []string{"b", "c"}, SymbolCounts{Functions: 3}),
		NewFileRecord("src/b.py", 80, []string{"d"}, SymbolCounts{Functions: 1}),
		NewFileRecord("src/c.py", 60, []string{"d"}, SymbolCounts{Classes: 1}),
		NewFileRecord("src/d.py", 40, nil, SymbolCounts{}),
		NewFileRecord("tests/test_a.py", 20, []string{"a"}, SymbolCounts{Functions: 2}),
	}
	edges := []DependencyEdge{
		{Source: "src/a.py", Target: "src/b.py", Resolved: true},
		{Source: "src/a.py", Target: "src/c.py", Resolved: true},
		{Source: "src/b.py", Target: "src/d.py", Resolved: true},
		{Source: "src/c.py", Target: "src/d.py", Resolved: true},
		{Source: "tests/test_a.py", Target: "src/a.py", Resolved: true},
		{Source: "src/a.py", Target: "requests", Resolved: false},
	}
	g := Build(files, edges, DefaultBuildOptions())
	clusters := []ClusterNode{
		{ID: 0, Label: "Core Logic", Members: []string{"src/a.py", "src/b.py", "src/c.py", "src/d.py"}, Cohesion: 0.8},
		{ID: 1, Label: "Testing & Validation", Members: []string{"tests/test_a.py"}},
	}
	return files, g, clusters
}

func populated(t *testing.T, newStore func(t *testing.T) Store) Store {
	t.Helper()
	s := newStore(t)
	files, g, clusters := diamondAnalysis()
	require.NoError(t, Populate(context.Background(), s, files, g, clusters))
	return s
}

func chainEnds(chains []DependencyChain) []string {
	out := make([]string, 0, len(chains))
	for _, c := range chains {
		out = append(out, c.Nodes[len(c.Nodes)-1])
	}
	return out
}

func runStoreContract(t *testing.T, newStore func(t *testing.T) Store) {
	ctx := context.Background()

	t.Run("FileRoundTrip", func(t *testing.T) {
		s := populated(t, newStore)
		got, err := s.GetFile(ctx, "tests/test_a.py")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, LangPython, got.Language)
		assert.True(t, got.IsTest)
		assert.Equal(t, 2, got.FunctionCount)
		assert.Equal(t, int64(20), got.SizeBytes)
		assert.Equal(t, 1, got.DirectoryDepth)
	})

	t.Run("GetFileNotFound", func(t *testing.T) {
		s := populated(t, newStore)
		got, err := s.GetFile(ctx, "missing.py")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("QueryFiles", func(t *testing.T) {
		s := populated(t, newStore)
		got, err := s.QueryFiles(ctx, "SRC/", 2)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "src/a.py", got[0].Path)
		assert.Equal(t, "src/b.py", got[1].Path)
	})

	t.Run("EdgesOnlyResolved", func(t *testing.T) {
		s := populated(t, newStore)
		edges, err := s.GetAllEdges(ctx)
		require.NoError(t, err)
		assert.Len(t, edges, 5)
		for _, e := range edges {
			assert.True(t, e.Resolved)
		}
		assert.Error(t, s.AddEdge(ctx, DependencyEdge{Source: "src/a.py", Target: "os"}))
	})

	t.Run("DownstreamFollowsImports", func(t *testing.T) {
		s := populated(t, newStore)
		chains, err := s.GetDependencies(ctx, "src/a.py", DirectionDownstream, 0)
		require.NoError(t, err)
		assert.Equal(t, []string{"src/b.py", "src/c.py", "src/d.py"}, chainEnds(chains))
		assert.Equal(t, []string{"src/a.py", "src/b.py", "src/d.py"}, chains[2].Nodes)
		assert.Equal(t, 2, chains[2].Depth)
	})

	t.Run("UpstreamFollowsImporters", func(t *testing.T) {
		s := populated(t, newStore)
		chains, err := s.GetDependencies(ctx, "src/d.py", DirectionUpstream, 1)
		require.NoError(t, err)
		assert.Equal(t, []string{"src/b.py", "src/c.py"}, chainEnds(chains))
	})

	t.Run("AssessImpact", func(t *testing.T) {
		s := populated(t, newStore)
		res, err := s.AssessImpact(ctx, []string{"src/d.py"})
		require.NoError(t, err)
		assert.Equal(t, []string{"src/b.py", "src/c.py"}, res.DirectlyAffected)
		assert.Equal(t, []string{"src/a.py", "src/b.py", "src/c.py", "tests/test_a.py"}, res.TransitivelyAffected)
		assert.InDelta(t, 0.8, res.RiskScore, 1e-9)
	})

	t.Run("AssessImpactLeaf", func(t *testing.T) {
		s := populated(t, newStore)
		res, err := s.AssessImpact(ctx, []string{"tests/test_a.py"})
		require.NoError(t, err)
		assert.Empty(t, res.DirectlyAffected)
		assert.Empty(t, res.TransitivelyAffected)
		assert.Zero(t, res.RiskScore)
	})

	t.Run("Clusters", func(t *testing.T) {
		s := populated(t, newStore)
		clusters, err := s.GetClusters(ctx)
		require.NoError(t, err)
		require.Len(t, clusters, 2)
		assert.Equal(t, "Core Logic", clusters[0].Label)
		assert.Equal(t, []string{"src/a.py", "src/b.py", "src/c.py", "src/d.py"}, clusters[0].Members)
		assert.InDelta(t, 0.8, clusters[0].Cohesion, 1e-9)
		assert.Equal(t, 1, clusters[1].ID)
		assert.Zero(t, clusters[1].Cohesion)
	})

	t.Run("Stats", func(t *testing.T) {
		s := populated(t, newStore)
		stats, err := s.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, GraphStats{FileCount: 5, EdgeCount: 5, ClusterCount: 2}, *stats)
	})
}

func TestMemStore(t *testing.T) {
	runStoreContract(t, func(t *testing.T) Store {
		t.Helper()
		s := NewMemStore()
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestMemStore_UnknownDirection(t *testing.T) {
	s := NewMemStore()
	_, err := s.GetDependencies(context.Background(), "a", Direction("sideways"), 1)
	assert.Error(t, err)
}

func TestMemStore_DuplicateEdgeIgnored(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	e := DependencyEdge{Source: "a", Target: "b", Resolved: true}
	require.NoError(t, s.AddEdge(ctx, e))
	require.NoError(t, s.AddEdge(ctx, e))

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.EdgeCount)
}
