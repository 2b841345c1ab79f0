package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dusk-indust/archmap/internal/analysis"
	"github.com/dusk-indust/archmap/internal/export"
	"github.com/dusk-indust/archmap/internal/graph"
)

// graphDir is the persisted graph directory inside the output dir.
const graphDir = "graph"

type analyzeFlags struct {
	K         int
	Method    string
	Compress  bool
	NoPersist bool
	JSON      bool
	Progress  bool
	Examples  int
}

func newAnalyzeCmd(g *globalFlags) *cobra.Command {
	var flags analyzeFlags

	cmd := &cobra.Command{
		Use:   "analyze [repo]",
		Short: "Analyze a repository and save the report",
		Long: `Analyze walks the repository (default: the current directory), builds
its dependency graph and clusters, prints an architecture summary and saves
the report to the output dir (default: .archmap).

Examples:
  archmap analyze
  archmap analyze ./service -k 6
  archmap analyze --method heuristic --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, repoArg(args), g, flags)
		},
	}

	cmd.Flags().IntVarP(&flags.K, "clusters", "k", 0, "number of clusters (default: configured k)")
	cmd.Flags().StringVar(&flags.Method, "method", "", "clustering method: auto, centroid or heuristic")
	cmd.Flags().BoolVar(&flags.Compress, "compress", false, "save the report zstd-compressed")
	cmd.Flags().BoolVar(&flags.NoPersist, "no-persist", false, "skip writing the graph database")
	cmd.Flags().BoolVar(&flags.JSON, "json", false, "print the report as JSON instead of the summary")
	cmd.Flags().BoolVar(&flags.Progress, "progress", false, "print phase progress to stderr")
	cmd.Flags().IntVar(&flags.Examples, "examples", 3, "example files shown per cluster")
	return cmd
}

func runAnalyze(cmd *cobra.Command, root string, g *globalFlags, flags analyzeFlags) error {
	e, err := setup(root, g)
	if err != nil {
		return err
	}
	defer e.Close()

	if cmd.Flags().Changed("clusters") {
		e.cfg.Analysis.K = flags.K
	}
	if flags.Method != "" {
		e.cfg.Analysis.Method = flags.Method
	}
	if flags.Compress {
		e.cfg.Output.Compress = true
	}
	if flags.NoPersist {
		e.cfg.Output.Persist = false
	}
	if err := e.cfg.Validate(); err != nil {
		return err
	}

	ctx := cmd.Context()
	popts := []analysis.PipelineOption{analysis.WithLogger(e.log)}
	if flags.Progress {
		reporter := analysis.NewProgressReporter()
		done := make(chan struct{})
		go func() {
			defer close(done)
			for ev := range reporter.Subscribe() {
				if ev.Path == "" {
					fmt.Fprintln(cmd.ErrOrStderr(), analysis.FormatProgress(ev))
				}
			}
		}()
		// The pipeline has stopped emitting once RunDir returns.
		defer func() {
			reporter.Close()
			<-done
		}()
		popts = append(popts, analysis.WithProgress(reporter.Emit))
	}

	pipeline, err := analysis.NewPipeline(e.cfg.AnalysisOptions(), popts...)
	if err != nil {
		return err
	}
	report, err := pipeline.RunDir(ctx, root, e.cfg.WalkOptions())
	if err != nil {
		return err
	}

	outDir := filepath.Join(root, e.cfg.Output.Dir)
	saved, err := export.WriteReportFile(outDir, report, e.cfg.Output.Compress)
	if err != nil {
		return err
	}
	e.log.WithField("path", saved).Debug("report saved")

	if e.cfg.Output.Persist {
		err := persist(ctx, report, filepath.Join(outDir, graphDir))
		switch {
		case errors.Is(err, graph.ErrNoPersistentStore):
			e.log.WithError(err).Warn("graph database not written")
		case err != nil:
			return err
		}
	}

	out := cmd.OutOrStdout()
	if flags.JSON {
		return export.WriteJSON(out, report, false)
	}
	renderSummary(out, report, flags.Examples)
	fmt.Fprintln(out, dimStyle.Render("Report saved to "+saved))
	return nil
}

// persist writes the report into a fresh on-disk graph database at dir.
func persist(ctx context.Context, report *analysis.Report, dir string) error {
	store, err := graph.OpenPersistentStore(dir)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := report.Populate(ctx, store); err != nil {
		return fmt.Errorf("persist graph: %w", err)
	}
	return nil
}

// loadReport reads the report saved by an earlier analyze run.
func loadReport(e *env) (*analysis.Report, error) {
	dir := filepath.Join(e.root, e.cfg.Output.Dir)
	var report analysis.Report
	if err := export.ReadReportFile(dir, &report); err != nil {
		return nil, fmt.Errorf("%w\nRun 'archmap analyze' first to build the report", err)
	}
	return &report, nil
}

// openStore returns a store over a saved report: the persisted graph
// database when one can be opened, otherwise an in-memory store filled from
// the report.
func openStore(ctx context.Context, e *env, report *analysis.Report) (graph.Store, error) {
	if e.cfg.Output.Persist {
		dir := filepath.Join(e.root, e.cfg.Output.Dir, graphDir)
		store, err := graph.LoadPersistentStore(dir)
		if err == nil {
			return store, nil
		}
		e.log.WithError(err).Debug("using in-memory graph")
	}

	store := graph.NewMemStore()
	if err := report.Populate(ctx, store); err != nil {
		return nil, fmt.Errorf("load graph: %w", err)
	}
	return store, nil
}
