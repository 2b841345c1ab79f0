package mcptools

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/dusk-indust/archmap/internal/analysis"
	"github.com/dusk-indust/archmap/internal/cluster"
	"github.com/dusk-indust/archmap/internal/config"
	"github.com/dusk-indust/archmap/internal/export"
	"github.com/dusk-indust/archmap/internal/graph"
)

// defaultMaxDepth bounds get_dependencies when no depth is given.
const defaultMaxDepth = 5

// ErrNotAnalyzed is returned when a tool needs a report that was neither
// produced in this session nor saved on disk.
var ErrNotAnalyzed = errors.New("repository has not been analyzed; call analyze_repository first")

// Service holds the configuration and report cache used by MCP tool
// handlers. It is safe for concurrent use.
type Service struct {
	cfg   *config.Config
	log   logrus.FieldLogger
	popts []analysis.PipelineOption
	cache *lru.Cache[string, *entry]
}

// entry is a cached report together with a store populated from it.
type entry struct {
	report *analysis.Report
	store  graph.Store
}

// NewService creates a Service. popts are applied to every pipeline the
// service builds, after its own logger option.
func NewService(cfg *config.Config, log logrus.FieldLogger, popts ...analysis.PipelineOption) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cache, err := lru.New[string, *entry](cfg.MCP.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("report cache: %w", err)
	}
	return &Service{cfg: cfg, log: log, popts: popts, cache: cache}, nil
}

// AnalyzeRepository runs the analysis pipeline over a repository, caches
// the report and optionally saves it.
func (s *Service) AnalyzeRepository(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AnalyzeRepositoryInput,
) (*mcp.CallToolResult, AnalyzeRepositoryOutput, error) {
	root, err := repoRoot(input.RepoPath)
	if err != nil {
		return nil, AnalyzeRepositoryOutput{}, err
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, AnalyzeRepositoryOutput{}, fmt.Errorf("cannot access repoPath: %w", err)
	}
	if !info.IsDir() {
		return nil, AnalyzeRepositoryOutput{}, fmt.Errorf("repoPath is not a directory: %s", root)
	}

	opts := s.cfg.AnalysisOptions()
	if input.K > 0 {
		opts.K = input.K
	}
	if input.Method != "" {
		opts.Clustering.Method = cluster.Method(strings.ToLower(input.Method))
	}
	walk := s.cfg.WalkOptions()
	walk.ExcludeDirs = append(walk.ExcludeDirs, input.ExcludeDirs...)

	log := s.log.WithField("repo", root)
	popts := append([]analysis.PipelineOption{analysis.WithLogger(log)}, s.popts...)
	pipeline, err := analysis.NewPipeline(opts, popts...)
	if err != nil {
		return nil, AnalyzeRepositoryOutput{}, err
	}
	report, err := pipeline.RunDir(ctx, root, walk)
	if err != nil {
		return nil, AnalyzeRepositoryOutput{}, fmt.Errorf("analyze: %w", err)
	}

	e, err := newEntry(ctx, report)
	if err != nil {
		return nil, AnalyzeRepositoryOutput{}, err
	}
	s.cache.Add(root, e)

	out := AnalyzeRepositoryOutput{
		ReportID:     report.ID,
		Capability:   report.Capability,
		External:     len(report.Graph.External),
		Cycles:       len(report.Graph.Metrics.Cycles),
		HotSpots:     report.Graph.Metrics.HotSpots,
		Languages:    report.Languages,
		Method:       report.Clustering.Method,
		Summary:      report.Clustering.Summary,
		Diagnostics:  report.Diagnostics,
		ModeSwitches: report.ModeSwitches,
	}
	stats, err := e.store.Stats(ctx)
	if err != nil {
		return nil, AnalyzeRepositoryOutput{}, fmt.Errorf("stats: %w", err)
	}
	out.Stats = *stats

	if input.Save {
		saved, err := export.WriteReportFile(filepath.Join(root, s.cfg.Output.Dir), report, s.cfg.Output.Compress)
		if err != nil {
			return nil, AnalyzeRepositoryOutput{}, fmt.Errorf("save report: %w", err)
		}
		out.SavedTo = saved
	}
	return nil, out, nil
}

// GetHotSpots returns the hot spots of a repository with their degrees,
// plus the most connected files.
func (s *Service) GetHotSpots(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RepoInput,
) (*mcp.CallToolResult, GetHotSpotsOutput, error) {
	e, err := s.lookup(ctx, input.RepoPath)
	if err != nil {
		return nil, GetHotSpotsOutput{}, err
	}
	m := e.report.Graph.Metrics

	byPath := make(map[string]graph.NodeDegree, len(m.MostConnected))
	for _, d := range graph.Degrees(e.report.Graph) {
		byPath[d.Path] = d
	}
	hot := make([]graph.NodeDegree, 0, len(m.HotSpots))
	for _, p := range m.HotSpots {
		hot = append(hot, byPath[p])
	}
	return nil, GetHotSpotsOutput{HotSpots: hot, MostConnected: m.MostConnected}, nil
}

// GetCycles returns the dependency cycles of a repository.
func (s *Service) GetCycles(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RepoInput,
) (*mcp.CallToolResult, GetCyclesOutput, error) {
	e, err := s.lookup(ctx, input.RepoPath)
	if err != nil {
		return nil, GetCyclesOutput{}, err
	}
	cycles := e.report.Graph.Metrics.Cycles
	if cycles == nil {
		cycles = [][]string{}
	}
	return nil, GetCyclesOutput{Cycles: cycles, Total: len(cycles)}, nil
}

// GetClusters returns the labelled clusters of a repository.
func (s *Service) GetClusters(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RepoInput,
) (*mcp.CallToolResult, GetClustersOutput, error) {
	e, err := s.lookup(ctx, input.RepoPath)
	if err != nil {
		return nil, GetClustersOutput{}, err
	}
	clusters, err := e.store.GetClusters(ctx)
	if err != nil {
		return nil, GetClustersOutput{}, fmt.Errorf("get clusters: %w", err)
	}
	return nil, GetClustersOutput{
		Method:   e.report.Clustering.Method,
		Summary:  e.report.Clustering.Summary,
		Clusters: clusters,
	}, nil
}

// GetDependencies traverses the dependency graph from one file.
func (s *Service) GetDependencies(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GetDependenciesInput,
) (*mcp.CallToolResult, GetDependenciesOutput, error) {
	if input.Path == "" {
		return nil, GetDependenciesOutput{}, fmt.Errorf("path is required")
	}

	var direction graph.Direction
	switch strings.ToLower(input.Direction) {
	case "", string(graph.DirectionDownstream):
		direction = graph.DirectionDownstream
	case string(graph.DirectionUpstream):
		direction = graph.DirectionUpstream
	default:
		return nil, GetDependenciesOutput{}, fmt.Errorf("direction must be upstream or downstream, got %q", input.Direction)
	}

	maxDepth := input.MaxDepth
	if maxDepth <= 0 {
		maxDepth = defaultMaxDepth
	}

	e, err := s.lookup(ctx, input.RepoPath)
	if err != nil {
		return nil, GetDependenciesOutput{}, err
	}
	f, err := e.store.GetFile(ctx, input.Path)
	if err != nil {
		return nil, GetDependenciesOutput{}, fmt.Errorf("get file: %w", err)
	}
	if f == nil {
		return nil, GetDependenciesOutput{}, fmt.Errorf("file not in analysis: %s", input.Path)
	}

	chains, err := e.store.GetDependencies(ctx, input.Path, direction, maxDepth)
	if err != nil {
		return nil, GetDependenciesOutput{}, fmt.Errorf("get dependencies: %w", err)
	}
	return nil, GetDependenciesOutput{Chains: chains}, nil
}

// AssessImpact computes the blast radius of modifying a set of files.
func (s *Service) AssessImpact(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AssessImpactInput,
) (*mcp.CallToolResult, AssessImpactOutput, error) {
	if len(input.ChangedFiles) == 0 {
		return nil, AssessImpactOutput{}, fmt.Errorf("changedFiles is required")
	}

	e, err := s.lookup(ctx, input.RepoPath)
	if err != nil {
		return nil, AssessImpactOutput{}, err
	}
	impact, err := e.store.AssessImpact(ctx, input.ChangedFiles)
	if err != nil {
		return nil, AssessImpactOutput{}, fmt.Errorf("assess impact: %w", err)
	}
	return nil, AssessImpactOutput{Impact: *impact}, nil
}

// GetExternalDependencies lists the references that did not resolve to a
// repository file, most used first.
func (s *Service) GetExternalDependencies(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RepoInput,
) (*mcp.CallToolResult, GetExternalDependenciesOutput, error) {
	e, err := s.lookup(ctx, input.RepoPath)
	if err != nil {
		return nil, GetExternalDependenciesOutput{}, err
	}

	users := make(map[string][]string)
	for _, edge := range e.report.Graph.External {
		users[edge.Target] = append(users[edge.Target], edge.Source)
	}
	deps := make([]ExternalDependency, 0, len(users))
	for name, sources := range users {
		sort.Strings(sources)
		deps = append(deps, ExternalDependency{Name: name, ImportedBy: sources})
	}
	sort.Slice(deps, func(i, j int) bool {
		if len(deps[i].ImportedBy) != len(deps[j].ImportedBy) {
			return len(deps[i].ImportedBy) > len(deps[j].ImportedBy)
		}
		return deps[i].Name < deps[j].Name
	})
	return nil, GetExternalDependenciesOutput{Dependencies: deps}, nil
}

// lookup returns the cached entry for a repository, loading the saved
// report when the cache has none.
func (s *Service) lookup(ctx context.Context, repoPath string) (*entry, error) {
	root, err := repoRoot(repoPath)
	if err != nil {
		return nil, err
	}
	if e, ok := s.cache.Get(root); ok {
		return e, nil
	}

	var report analysis.Report
	if err := export.ReadReportFile(filepath.Join(root, s.cfg.Output.Dir), &report); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", root, ErrNotAnalyzed)
		}
		return nil, fmt.Errorf("load report: %w", err)
	}
	e, err := newEntry(ctx, &report)
	if err != nil {
		return nil, err
	}
	s.cache.Add(root, e)
	s.log.WithFields(logrus.Fields{"repo": root, "report": report.ID}).Debug("loaded saved report")
	return e, nil
}

func newEntry(ctx context.Context, report *analysis.Report) (*entry, error) {
	store := graph.NewMemStore()
	if err := report.Populate(ctx, store); err != nil {
		return nil, fmt.Errorf("populate store: %w", err)
	}
	return &entry{report: report, store: store}, nil
}

func repoRoot(repoPath string) (string, error) {
	if repoPath == "" {
		return "", fmt.Errorf("repoPath is required")
	}
	root, err := filepath.Abs(repoPath)
	if err != nil {
		return "", fmt.Errorf("resolve repoPath: %w", err)
	}
	return root, nil
}
