// Command archmap analyzes a source repository's file-level architecture:
// its dependency graph, hot spots, cycles and architectural clusters.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/dusk-indust/archmap/internal/config"
	"github.com/dusk-indust/archmap/internal/graph"
	"github.com/dusk-indust/archmap/internal/logging"
	"github.com/dusk-indust/archmap/internal/mcptools"
)

// version is set by goreleaser at build time.
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	LogLevel  string
	LogFormat string
}

func newRootCmd() *cobra.Command {
	var flags globalFlags

	cmd := &cobra.Command{
		Use:   "archmap",
		Short: "Map the file-level architecture of a repository",
		Long: `archmap extracts per-file structure from a repository, resolves imports
into a dependency graph, finds hot spots and cycles, and groups files into
labelled architectural clusters.

Settings are read from archmap.yml in the repository root and ARCHMAP_*
environment variables; flags override both.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	mcptools.Version = version

	cmd.PersistentFlags().StringVar(&flags.LogLevel, "log-level", "", "log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&flags.LogFormat, "log-format", "", "log format (text, json)")

	cmd.AddCommand(
		newAnalyzeCmd(&flags),
		newDiagramCmd(&flags),
		newContextCmd(&flags),
		newExportCmd(&flags),
		newServeMCPCmd(&flags),
		newInitCmd(),
		newVersionCmd(),
	)
	return cmd
}

// env is the per-invocation configuration and logger of a command.
type env struct {
	root   string
	cfg    *config.Config
	log    *logrus.Logger
	closer func() error
}

// setup loads the configuration of the repository at root and builds the
// logger, applying the global flag overrides.
func setup(root string, flags *globalFlags) (*env, error) {
	cfg, err := config.Load(root)
	if err != nil {
		return nil, err
	}
	if flags.LogLevel != "" {
		cfg.Logging.Level = flags.LogLevel
	}
	if flags.LogFormat != "" {
		cfg.Logging.Format = flags.LogFormat
	}

	out, closer, err := logging.Output(cfg.Logging.Output)
	if err != nil {
		return nil, err
	}
	return &env{
		root:   root,
		cfg:    cfg,
		log:    logging.New(cfg.Logging.Level, cfg.Logging.Format, out),
		closer: closer,
	}, nil
}

func (e *env) Close() {
	if err := e.closer(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: close log output: %v\n", err)
	}
}

// repoArg returns the optional repository argument, defaulting to ".".
func repoArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "."
}

func newVersionCmd() *cobra.Command {
	var languages bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the archmap version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, version)
			if languages {
				var names []string
				for _, l := range graph.SupportedLanguages() {
					names = append(names, string(l))
				}
				fmt.Fprintln(out, "languages: "+strings.Join(names, ", "))
			}
		},
	}
	cmd.Flags().BoolVar(&languages, "languages", false, "also list the languages whose imports are resolved")
	return cmd
}
