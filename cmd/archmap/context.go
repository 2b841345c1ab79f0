package main

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dusk-indust/archmap/internal/graph"
)

const (
	contextMatches = 10
	contextShown   = 8
)

func newContextCmd(g *globalFlags) *cobra.Command {
	var repo string

	cmd := &cobra.Command{
		Use:   "context <pattern>",
		Short: "Print graph context for files matching a pattern",
		Long: `Context prints markdown describing the files whose path contains pattern:
their dependencies, importers and cluster. It reads the saved analysis and
prints nothing when the repository has not been analyzed, so it can run from
editor or agent hooks.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runContext(cmd, repo, args[0], g)
		},
	}

	cmd.Flags().StringVar(&repo, "repo", ".", "path to the analyzed repository")
	return cmd
}

func runContext(cmd *cobra.Command, repo, pattern string, g *globalFlags) error {
	if pattern == "" {
		return nil
	}
	e, err := setup(repo, g)
	if err != nil {
		return err
	}
	defer e.Close()

	report, err := loadReport(e)
	if err != nil {
		e.log.WithError(err).Debug("no analysis, printing nothing")
		return nil
	}
	ctx := cmd.Context()
	store, err := openStore(ctx, e, report)
	if err != nil {
		return nil
	}
	defer store.Close()

	files, err := store.QueryFiles(ctx, pattern, contextMatches)
	if err != nil || len(files) == 0 {
		return nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## Graph Context for %q\n\n", pattern)

	sb.WriteString("**Files found:**\n")
	for _, f := range files {
		fmt.Fprintf(&sb, "- `%s` (%s, %d imports, %d functions, %d classes)", f.Path, f.Language, f.ImportCount, f.FunctionCount, f.ClassCount)
		if slices.Contains(report.Graph.Metrics.HotSpots, f.Path) {
			sb.WriteString(" hot spot")
		}
		sb.WriteString("\n")
	}

	primary := files[0].Path
	if downstream, err := store.GetDependencies(ctx, primary, graph.DirectionDownstream, 2); err == nil && len(downstream) > 0 {
		fmt.Fprintf(&sb, "\n**Dependencies (`%s` imports):**\n", primary)
		writeChainEnds(&sb, downstream)
	}
	if upstream, err := store.GetDependencies(ctx, primary, graph.DirectionUpstream, 2); err == nil && len(upstream) > 0 {
		fmt.Fprintf(&sb, "\n**Dependents (%d files use `%s`):**\n", len(upstream), primary)
		writeChainEnds(&sb, upstream)
	}

	if clusters, err := store.GetClusters(ctx); err == nil {
		for _, c := range clusters {
			if slices.Contains(c.Members, primary) {
				fmt.Fprintf(&sb, "\n**Cluster:** %s (%d files)\n", c.Label, len(c.Members))
				break
			}
		}
	}

	fmt.Fprint(cmd.OutOrStdout(), sb.String())
	return nil
}

// writeChainEnds lists the last file of each chain, up to contextShown.
func writeChainEnds(sb *strings.Builder, chains []graph.DependencyChain) {
	for i, chain := range chains {
		if i == contextShown {
			fmt.Fprintf(sb, "- ... (%d more)\n", len(chains)-contextShown)
			break
		}
		fmt.Fprintf(sb, "- `%s`\n", chain.Nodes[len(chain.Nodes)-1])
	}
}
