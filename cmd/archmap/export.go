package main

import (
	"github.com/spf13/cobra"

	"github.com/dusk-indust/archmap/internal/export"
)

func newExportCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "export [repo]",
		Short: "Print the saved report as JSON",
		Long: `Export prints the report saved by the last analyze run as indented JSON,
decompressing it when it was saved with --compress.`,
		Args: cobra.MaximumNArgs(1),
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
			return export.WriteJSON(cmd.OutOrStdout(), report, false)
		},
	}
}
