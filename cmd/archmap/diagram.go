package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dusk-indust/archmap/internal/export"
)

func newDiagramCmd(g *globalFlags) *cobra.Command {
	var (
		output string
		noHot  bool
	)

	cmd := &cobra.Command{
		Use:   "diagram [repo]",
		Short: "Render the saved analysis as a Mermaid diagram",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(repoArg(args), g)
			if err != nil {
				return err
			}
			defer e.Close()

			report, err := loadReport(e)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			store, err := openStore(ctx, e, report)
			if err != nil {
				return err
			}
			defer store.Close()

			var opts export.MermaidOptions
			if !noHot {
				opts.HotSpots = report.Graph.Metrics.HotSpots
			}
			mermaid, err := export.GenerateMermaid(ctx, store, opts)
			if err != nil {
				return err
			}

			if output == "" {
				fmt.Fprint(cmd.OutOrStdout(), mermaid)
				return nil
			}
			if err := os.WriteFile(output, []byte(mermaid), 0o644); err != nil {
				return fmt.Errorf("write diagram: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Diagram written to "+output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write the diagram to a file instead of stdout")
	cmd.Flags().BoolVar(&noHot, "no-hot", false, "do not highlight hot spots")
	return cmd
}
