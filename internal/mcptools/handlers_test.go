package mcptools

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/archmap/internal/analysis"
	"github.com/dusk-indust/archmap/internal/config"
	"github.com/dusk-indust/archmap/internal/export"
	"github.com/dusk-indust/archmap/internal/graph"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

const (
	ordersPy  = "app/services/orders.py"
	billingPy = "app/services/billing.py"
)

// fixtureAbsPath returns the absolute path to the py_project test fixture.
// Tests run from internal/mcptools/, so the relative path is
// ../../testdata/fixtures/py_project.
func fixtureAbsPath(t *testing.T) string {
	t.Helper()
	abs, err := filepath.Abs("../../testdata/fixtures/py_project")
	require.NoError(t, err)
	return abs
}

// newTestService builds a Service over cfg that counts symbols with the
// regex counter, so results do not depend on cgo.
func newTestService(t *testing.T, cfg *config.Config) *Service {
	t.Helper()
	if cfg == nil {
		cfg = config.Default()
	}
	logger, _ := test.NewNullLogger()
	svc, err := NewService(cfg, logger, analysis.WithSymbolCounter(graph.RegexCounter{}))
	require.NoError(t, err)
	return svc
}

// analyzed returns a service that has already analyzed the fixture.
func analyzed(t *testing.T) (*Service, string) {
	t.Helper()
	svc := newTestService(t, nil)
	root := fixtureAbsPath(t)
	_, _, err := svc.AnalyzeRepository(context.Background(), nil, AnalyzeRepositoryInput{RepoPath: root})
	require.NoError(t, err)
	return svc, root
}

// writeRepo creates a two-file python repository in a temp dir.
func writeRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"a.py": "import b\n\ndef run():\n    return b.value()\n",
		"b.py": "import json\n\ndef value():\n    return json.dumps({})\n",
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

// ---------------------------------------------------------------------------
// analyze_repository
// ---------------------------------------------------------------------------

func TestAnalyzeRepository(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	_, out, err := svc.AnalyzeRepository(ctx, nil, AnalyzeRepositoryInput{RepoPath: fixtureAbsPath(t)})
	require.NoError(t, err)

	assert.NotEmpty(t, out.ReportID)
	assert.Equal(t, "basic", out.Capability)
	assert.Equal(t, 12, out.Stats.FileCount)
	assert.Greater(t, out.Stats.EdgeCount, 0)
	assert.Positive(t, out.Stats.ClusterCount)
	assert.Equal(t, []string{ordersPy}, out.HotSpots)
	assert.Equal(t, 1, out.Cycles)
	assert.Equal(t, 10, out.Languages[graph.LangPython])
	assert.NotEmpty(t, out.Summary)
	assert.Empty(t, out.SavedTo)

	require.NotEmpty(t, out.ModeSwitches)
	assert.Equal(t, "symbols", out.ModeSwitches[0].Component)
}

func TestAnalyzeRepository_Overrides(t *testing.T) {
	svc := newTestService(t, nil)

	_, out, err := svc.AnalyzeRepository(context.Background(), nil, AnalyzeRepositoryInput{
		RepoPath:    fixtureAbsPath(t),
		K:           2,
		Method:      "Heuristic",
		ExcludeDirs: []string{"tests"},
	})
	require.NoError(t, err)
	assert.Equal(t, "heuristic", out.Method)
	assert.Equal(t, 11, out.Stats.FileCount)
	assert.LessOrEqual(t, out.Stats.ClusterCount, 2)
}

func TestAnalyzeRepository_InvalidInput(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()
	file := filepath.Join(fixtureAbsPath(t), "requirements.txt")

	tests := []struct {
		name  string
		input AnalyzeRepositoryInput
	}{
		{"empty path", AnalyzeRepositoryInput{}},
		{"missing dir", AnalyzeRepositoryInput{RepoPath: filepath.Join(t.TempDir(), "missing")}},
		{"not a dir", AnalyzeRepositoryInput{RepoPath: file}},
		{"bad method", AnalyzeRepositoryInput{RepoPath: fixtureAbsPath(t), Method: "spectral"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := svc.AnalyzeRepository(ctx, nil, tc.input)
			assert.Error(t, err)
		})
	}
}

func TestAnalyzeRepository_SaveAndReload(t *testing.T) {
	for _, compress := range []bool{false, true} {
		cfg := config.Default()
		cfg.Output.Compress = compress
		dir := writeRepo(t)
		ctx := context.Background()

		svc := newTestService(t, cfg)
		_, out, err := svc.AnalyzeRepository(ctx, nil, AnalyzeRepositoryInput{RepoPath: dir, Save: true})
		require.NoError(t, err)

		name := export.ReportFile
		if compress {
			name = export.CompressedReportFile
		}
		assert.Equal(t, filepath.Join(dir, ".archmap", name), out.SavedTo)
		assert.FileExists(t, out.SavedTo)

		// A fresh service has an empty cache and reads the saved report.
		fresh := newTestService(t, cfg)
		_, deps, err := fresh.GetDependencies(ctx, nil, GetDependenciesInput{RepoPath: dir, Path: "a.py"})
		require.NoError(t, err)
		require.Len(t, deps.Chains, 1)
		assert.Equal(t, []string{"a.py", "b.py"}, deps.Chains[0].Nodes)
	}
}

func TestLookup_NotAnalyzed(t *testing.T) {
	svc := newTestService(t, nil)

	_, _, err := svc.GetCycles(context.Background(), nil, RepoInput{RepoPath: t.TempDir()})
	assert.ErrorIs(t, err, ErrNotAnalyzed)

	_, _, err = svc.GetCycles(context.Background(), nil, RepoInput{})
	assert.Error(t, err)
}

func TestLookup_EvictsLeastRecent(t *testing.T) {
	cfg := config.Default()
	cfg.MCP.CacheSize = 1
	svc := newTestService(t, cfg)
	ctx := context.Background()

	first, second := writeRepo(t), writeRepo(t)
	for _, dir := range []string{first, second} {
		_, _, err := svc.AnalyzeRepository(ctx, nil, AnalyzeRepositoryInput{RepoPath: dir})
		require.NoError(t, err)
	}
	assert.Equal(t, 1, svc.cache.Len())

	_, _, err := svc.GetCycles(ctx, nil, RepoInput{RepoPath: second})
	assert.NoError(t, err)
	_, _, err = svc.GetCycles(ctx, nil, RepoInput{RepoPath: first})
	assert.ErrorIs(t, err, ErrNotAnalyzed)
}

func TestNewService_InvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.MCP.CacheSize = 0
	logger, _ := test.NewNullLogger()
	_, err := NewService(cfg, logger)
	assert.Error(t, err)
}

// ---------------------------------------------------------------------------
// Query tools
// ---------------------------------------------------------------------------

func TestGetHotSpots(t *testing.T) {
	svc, root := analyzed(t)

	_, out, err := svc.GetHotSpots(context.Background(), nil, RepoInput{RepoPath: root})
	require.NoError(t, err)

	require.Len(t, out.HotSpots, 1)
	assert.Equal(t, graph.NodeDegree{Path: ordersPy, InDegree: 3, OutDegree: 3, Degree: 6}, out.HotSpots[0])
	require.NotEmpty(t, out.MostConnected)
	assert.Equal(t, ordersPy, out.MostConnected[0].Path)
}

func TestGetCycles(t *testing.T) {
	svc, root := analyzed(t)

	_, out, err := svc.GetCycles(context.Background(), nil, RepoInput{RepoPath: root})
	require.NoError(t, err)
	assert.Equal(t, 1, out.Total)
	assert.Equal(t, [][]string{{billingPy, ordersPy}}, out.Cycles)
}

func TestGetClusters(t *testing.T) {
	svc, root := analyzed(t)

	_, out, err := svc.GetClusters(context.Background(), nil, RepoInput{RepoPath: root})
	require.NoError(t, err)
	assert.NotEmpty(t, out.Method)
	assert.NotEmpty(t, out.Summary)

	e, ok := svc.cache.Get(root)
	require.True(t, ok)

	seen := make(map[string]bool)
	for i, c := range out.Clusters {
		assert.Equal(t, i, c.ID)
		assert.NotEmpty(t, c.Label)
		assert.InDelta(t, graph.Cohesion(c.Members, e.report.Graph), c.Cohesion, 1e-9)
		assert.GreaterOrEqual(t, c.Cohesion, 0.0)
		assert.LessOrEqual(t, c.Cohesion, 1.0)
		for _, m := range c.Members {
			assert.False(t, seen[m], "%s is in more than one cluster", m)
			seen[m] = true
		}
	}
	assert.Len(t, seen, 12)
}

func TestGetDependencies(t *testing.T) {
	svc, root := analyzed(t)
	ctx := context.Background()

	_, down, err := svc.GetDependencies(ctx, nil, GetDependenciesInput{RepoPath: root, Path: ordersPy, MaxDepth: 1})
	require.NoError(t, err)
	var targets []string
	for _, c := range down.Chains {
		assert.Equal(t, 1, c.Depth)
		targets = append(targets, c.Nodes[1])
	}
	assert.Equal(t, []string{"app/models.py", billingPy, "app/utils/helpers.py"}, targets)

	_, up, err := svc.GetDependencies(ctx, nil, GetDependenciesInput{RepoPath: root, Path: ordersPy, Direction: "UPSTREAM"})
	require.NoError(t, err)
	var importers []string
	for _, c := range up.Chains {
		importers = append(importers, c.Nodes[len(c.Nodes)-1])
	}
	assert.ElementsMatch(t, []string{"app/api/routes.py", billingPy, "tests/test_orders.py"}, importers)
}

func TestGetDependencies_InvalidInput(t *testing.T) {
	svc, root := analyzed(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		input GetDependenciesInput
	}{
		{"missing path", GetDependenciesInput{RepoPath: root}},
		{"bad direction", GetDependenciesInput{RepoPath: root, Path: ordersPy, Direction: "sideways"}},
		{"unknown file", GetDependenciesInput{RepoPath: root, Path: "app/nope.py"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := svc.GetDependencies(ctx, nil, tc.input)
			assert.Error(t, err)
		})
	}
}

func TestAssessImpact(t *testing.T) {
	svc, root := analyzed(t)
	ctx := context.Background()

	_, out, err := svc.AssessImpact(ctx, nil, AssessImpactInput{RepoPath: root, ChangedFiles: []string{"app/models.py"}})
	require.NoError(t, err)
	assert.Equal(t, []string{ordersPy}, out.Impact.DirectlyAffected)
	assert.Equal(t, []string{"app/api/routes.py", billingPy, ordersPy, "tests/test_orders.py"}, out.Impact.TransitivelyAffected)
	assert.InDelta(t, 4.0/12.0, out.Impact.RiskScore, 1e-9)

	_, _, err = svc.AssessImpact(ctx, nil, AssessImpactInput{RepoPath: root})
	assert.Error(t, err)
}

func TestGetExternalDependencies(t *testing.T) {
	svc, root := analyzed(t)

	_, out, err := svc.GetExternalDependencies(context.Background(), nil, RepoInput{RepoPath: root})
	require.NoError(t, err)

	byName := make(map[string][]string)
	for _, d := range out.Dependencies {
		byName[d.Name] = d.ImportedBy
	}
	assert.Equal(t, []string{"app/api/routes.py"}, byName["flask"])
	assert.Equal(t, []string{"app/settings.py"}, byName["os"])
	assert.Equal(t, []string{"app/models.py"}, byName["dataclasses"])
}
