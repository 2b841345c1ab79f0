package main

import (
	"github.com/spf13/cobra"

	"github.com/dusk-indust/archmap/internal/mcptools"
)

func newServeMCPCmd(g *globalFlags) *cobra.Command {
	var (
		addr  string
		stdio bool
	)

	cmd := &cobra.Command{
		Use:   "serve-mcp [config-dir]",
		Short: "Serve the analysis tools over the Model Context Protocol",
		Long: `Serve-mcp exposes analyze_repository, get_hot_spots, get_cycles,
get_clusters, get_dependencies, assess_impact and get_external_dependencies
as MCP tools, over streamable HTTP (default) or stdio.

Configuration is read from config-dir (default: the current directory).`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(repoArg(args), g)
			if err != nil {
				return err
			}
			defer e.Close()

			svc, err := mcptools.NewService(e.cfg, e.log)
			if err != nil {
				return err
			}
			if stdio {
				e.log.Info("serving MCP on stdio")
				return mcptools.RunMCPServerStdio(cmd.Context(), svc)
			}
			if addr == "" {
				addr = e.cfg.MCP.Addr
			}
			e.log.WithField("addr", addr).Info("serving MCP over HTTP")
			return mcptools.RunMCPServer(cmd.Context(), svc, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address (default: configured mcp.addr)")
	cmd.Flags().BoolVar(&stdio, "stdio", false, "serve on stdin/stdout instead of HTTP")
	return cmd
}
