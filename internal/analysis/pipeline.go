package analysis

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/dusk-indust/archmap/internal/cluster"
	"github.com/dusk-indust/archmap/internal/graph"
	"github.com/dusk-indust/archmap/internal/source"
)

// Pipeline turns a batch of repository files into a Report: extraction fans
// out per file, then resolution, graph building and clustering run once
// over the joined results.
type Pipeline struct {
	opts       Options
	counter    graph.SymbolCounter
	log        logrus.FieldLogger
	onProgress func(ProgressEvent)
	now        func() time.Time
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithLogger sets the logger. The default is the logrus standard logger.
func WithLogger(log logrus.FieldLogger) PipelineOption {
	return func(p *Pipeline) { p.log = log }
}

// WithSymbolCounter replaces the build's default symbol counter.
func WithSymbolCounter(c graph.SymbolCounter) PipelineOption {
	return func(p *Pipeline) { p.counter = c }
}

// WithProgress registers a progress callback. It is called from extraction
// goroutines and must be safe for concurrent use.
func WithProgress(fn func(ProgressEvent)) PipelineOption {
	return func(p *Pipeline) { p.onProgress = fn }
}

// WithClock sets the time source for Report.GeneratedAt.
func WithClock(now func() time.Time) PipelineOption {
	return func(p *Pipeline) { p.now = now }
}

// NewPipeline validates opts and builds a Pipeline.
func NewPipeline(opts Options, popts ...PipelineOption) (*Pipeline, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("analysis options: %w", err)
	}
	p := &Pipeline{
		opts:    opts,
		counter: graph.NewSymbolCounter(),
		log:     logrus.StandardLogger(),
		now:     time.Now,
	}
	for _, o := range popts {
		o(p)
	}
	return p, nil
}

// Capability reports the backend level the pipeline runs with.
func (p *Pipeline) Capability() Capability {
	return DetectCapability(p.counter)
}

// RunDir walks root and analyzes the files found.
func (p *Pipeline) RunDir(ctx context.Context, root string, walk source.WalkOptions) (*Report, error) {
	files, err := source.Walk(root, walk)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	return p.Run(ctx, root, files)
}

// Run analyzes files. Problems with individual files become diagnostics;
// the only error is cancellation of ctx.
func (p *Pipeline) Run(ctx context.Context, root string, files []source.File) (*Report, error) {
	files = uniqueByPath(files)
	log := p.log.WithField("root", root)
	log.WithField("files", len(files)).Debug("analysis started")

	// Extraction fan-out; results land at their input index.
	p.emit(ProgressEvent{Phase: PhaseExtract, Status: ProgressWorking, Message: fmt.Sprintf("%d files", len(files))})
	results := make([]extraction, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Workers)
	for i, f := range files {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = p.extract(f)
			if results[i].record == nil {
				p.emit(ProgressEvent{Phase: PhaseExtract, Path: f.Path, Status: ProgressFailed, Message: results[i].diags[0].Message})
			} else {
				p.emit(ProgressEvent{Phase: PhaseExtract, Path: f.Path, Status: ProgressComplete})
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("extract: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("extract: %w", err)
	}

	report := &Report{
		ID:           uuid.NewString(),
		Root:         root,
		GeneratedAt:  p.now().UTC(),
		Capability:   p.Capability().String(),
		Files:        []graph.FileRecord{},
		Diagnostics:  []Diagnostic{},
		ModeSwitches: []ModeSwitch{},
	}
	if p.Capability() == CapBasic {
		p.modeSwitch(report, log, ModeSwitch{
			Component: "symbols",
			From:      "tree-sitter",
			To:        p.counter.Name(),
			Reason:    "tree-sitter grammars unavailable in this build",
		})
	}

	var refs [][]string
	var resolverOpts []graph.ResolverOption
	for _, x := range results {
		for _, d := range x.diags {
			log.WithFields(logrus.Fields{"path": d.Path, "kind": d.Kind}).Warn(d.Message)
		}
		report.Diagnostics = append(report.Diagnostics, x.diags...)
		if x.record == nil {
			continue
		}
		report.Files = append(report.Files, *x.record)
		refs = append(refs, x.refs)
		if x.goModule != "" && x.record.Path == "go.mod" {
			resolverOpts = append(resolverOpts, graph.WithGoModule(x.goModule))
		}
		if x.workspace != nil {
			resolverOpts = append(resolverOpts, graph.WithWorkspace(*x.workspace))
		}
	}
	p.emit(ProgressEvent{Phase: PhaseExtract, Status: ProgressComplete, Message: fmt.Sprintf("%d analyzed, %d diagnostics", len(report.Files), len(report.Diagnostics))})

	p.emit(ProgressEvent{Phase: PhaseResolve, Status: ProgressWorking})
	paths := make([]string, len(report.Files))
	for i, f := range report.Files {
		paths[i] = f.Path
	}
	resolver := graph.NewResolver(paths, resolverOpts...)
	var edges []graph.DependencyEdge
	for i, f := range report.Files {
		edges = append(edges, resolver.ResolveAll(f.Path, f.Language, refs[i])...)
	}
	p.emit(ProgressEvent{Phase: PhaseResolve, Status: ProgressComplete, Message: fmt.Sprintf("%d references", len(edges))})

	p.emit(ProgressEvent{Phase: PhaseGraph, Status: ProgressWorking})
	report.Graph = graph.Build(report.Files, edges, p.opts.buildOptions())
	p.emit(ProgressEvent{Phase: PhaseGraph, Status: ProgressComplete, Message: fmt.Sprintf("%d nodes, %d edges", report.Graph.Metrics.TotalNodes, report.Graph.Metrics.TotalEdges)})

	p.emit(ProgressEvent{Phase: PhaseCluster, Status: ProgressWorking})
	strategy, reason := cluster.Select(report.Files, p.opts.K, p.opts.Clustering)
	if reason != "" && len(report.Files) > 0 {
		p.modeSwitch(report, log, ModeSwitch{
			Component: "clustering",
			From:      cluster.MethodCentroid,
			To:        strategy.Name(),
			Reason:    reason,
		})
	}
	report.Clustering = strategy.Cluster(report.Files, p.opts.K)
	p.emit(ProgressEvent{Phase: PhaseCluster, Status: ProgressComplete, Message: report.Clustering.Summary})

	report.Languages = countLanguages(report.Files)

	log.WithFields(logrus.Fields{
		"files":       len(report.Files),
		"edges":       report.Graph.Metrics.TotalEdges,
		"external":    len(report.Graph.External),
		"cycles":      len(report.Graph.Metrics.Cycles),
		"clusters":    len(report.Clustering.Clusters),
		"method":      report.Clustering.Method,
		"diagnostics": len(report.Diagnostics),
	}).Info("analysis complete")
	return report, nil
}

func (p *Pipeline) modeSwitch(r *Report, log logrus.FieldLogger, s ModeSwitch) {
	r.ModeSwitches = append(r.ModeSwitches, s)
	log.WithFields(logrus.Fields{
		"component": s.Component,
		"from":      s.From,
		"to":        s.To,
	}).Infof("mode switch: %s", s.Reason)
}

func (p *Pipeline) emit(ev ProgressEvent) {
	if p.onProgress != nil {
		p.onProgress(ev)
	}
}

// uniqueByPath returns files sorted by path, keeping the first of any
// duplicate path.
func uniqueByPath(files []source.File) []source.File {
	out := make([]source.File, 0, len(files))
	seen := make(map[string]bool, len(files))
	for _, f := range files {
		if seen[f.Path] {
			continue
		}
		seen[f.Path] = true
		out = append(out, f)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}
