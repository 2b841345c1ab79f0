package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dusk-indust/archmap/internal/config"
)

// mcpConfig represents the structure of a .mcp.json file.
type mcpConfig struct {
	MCPServers map[string]json.RawMessage `json:"mcpServers"`
}

// archmapMCPEntry is the MCP server configuration for the archmap binary.
var archmapMCPEntry = json.RawMessage(`{
  "type": "stdio",
  "command": "archmap",
  "args": ["serve-mcp", "--stdio"]
}`)

func newInitCmd() *cobra.Command {
	var force, withMCP bool

	cmd := &cobra.Command{
		Use:   "init [repo]",
		Short: "Write a default archmap.yml (and optionally .mcp.json)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd.OutOrStdout(), repoArg(args), force, withMCP)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing files")
	cmd.Flags().BoolVar(&withMCP, "mcp", false, "register the archmap MCP server in .mcp.json")
	return cmd
}

// runInit writes the default configuration and, when asked, the MCP
// server entry into the target repository.
func runInit(w io.Writer, root string, force, withMCP bool) error {
	abs, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("resolving repository root: %w", err)
	}

	cfgPath := filepath.Join(abs, config.FileName+".yml")
	if _, err := os.Stat(cfgPath); err == nil && !force {
		fmt.Fprintf(w, "  skipped %s (exists, use --force to overwrite)\n", dotRelative(abs, cfgPath))
	} else {
		if force {
			if err := os.Remove(cfgPath); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("removing %s: %w", cfgPath, err)
			}
		}
		written, err := config.WriteDefault(abs)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "  created %s\n", dotRelative(abs, written))
	}

	if withMCP {
		if err := mergeMCPConfig(w, filepath.Join(abs, ".mcp.json"), force); err != nil {
			return err
		}
	}
	return nil
}

// mergeMCPConfig creates or merges the archmap entry into .mcp.json.
func mergeMCPConfig(w io.Writer, mcpPath string, force bool) error {
	var cfg mcpConfig

	data, err := os.ReadFile(mcpPath)
	if err == nil {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return fmt.Errorf("parsing %s: %w", mcpPath, err)
		}
	}

	if cfg.MCPServers == nil {
		cfg.MCPServers = make(map[string]json.RawMessage)
	}

	if _, exists := cfg.MCPServers["archmap"]; exists && !force {
		fmt.Fprintln(w, "  skipped .mcp.json archmap entry (exists, use --force to overwrite)")
		return nil
	}

	cfg.MCPServers["archmap"] = archmapMCPEntry

	out, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling .mcp.json: %w", err)
	}

	if err := os.WriteFile(mcpPath, append(out, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", mcpPath, err)
	}

	action := "created"
	if data != nil {
		action = "updated"
	}
	fmt.Fprintf(w, "  %s .mcp.json with archmap MCP server\n", action)
	return nil
}

// dotRelative returns a display path relative to the repository root,
// prefixed with "./".
func dotRelative(base, path string) string {
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return path
	}
	return "./" + rel
}
