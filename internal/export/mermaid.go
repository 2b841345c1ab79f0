package export

import (
	"context"
	"fmt"
	"strings"

	"github.com/dusk-indust/archmap/internal/graph"
)

// MermaidOptions tune the generated diagram.
type MermaidOptions struct {
	// HotSpots are highlighted with the "hot" class.
	HotSpots []string
}

// GenerateMermaid produces a Mermaid graph TD diagram from a graph store.
// Each cluster becomes a subgraph titled by its label and the members'
// common directory; files outside any cluster are emitted on their own.
// Resolved imports become arrows.
func GenerateMermaid(ctx context.Context, store graph.Store, opts MermaidOptions) (string, error) {
	clusters, err := store.GetClusters(ctx)
	if err != nil {
		return "", fmt.Errorf("get clusters: %w", err)
	}
	edges, err := store.GetAllEdges(ctx)
	if err != nil {
		return "", fmt.Errorf("get edges: %w", err)
	}
	files, err := store.QueryFiles(ctx, "", 0)
	if err != nil {
		return "", fmt.Errorf("query files: %w", err)
	}

	// Node ids are assigned in emission order, so equal stores give equal
	// diagrams.
	nodeIDs := make(map[string]string)
	getID := func(path string) string {
		if id, ok := nodeIDs[path]; ok {
			return id
		}
		id := fmt.Sprintf("N%d", len(nodeIDs))
		nodeIDs[path] = id
		return id
	}

	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, c := range clusters {
		if len(c.Members) == 0 {
			continue
		}
		title := c.Label
		if dir := strings.TrimSuffix(graph.CommonDir(c.Members), "/"); dir != "" {
			title = fmt.Sprintf("%s (%s)", c.Label, dir)
		}
		fmt.Fprintf(&sb, "  subgraph C%d[\"%s\"]\n", c.ID, escapeLabel(title))
		for _, member := range c.Members {
			fmt.Fprintf(&sb, "    %s[\"%s\"]\n", getID(member), escapeLabel(shortPath(member)))
		}
		sb.WriteString("  end\n")
	}

	for _, f := range files {
		if _, ok := nodeIDs[f.Path]; ok {
			continue
		}
		fmt.Fprintf(&sb, "  %s[\"%s\"]\n", getID(f.Path), escapeLabel(shortPath(f.Path)))
	}

	for _, e := range edges {
		fmt.Fprintf(&sb, "  %s --> %s\n", getID(e.Source), getID(e.Target))
	}

	var hot []string
	for _, p := range opts.HotSpots {
		if id, ok := nodeIDs[p]; ok {
			hot = append(hot, id)
		}
	}
	if len(hot) > 0 {
		sb.WriteString("  classDef hot fill:#f96,stroke:#c30\n")
		fmt.Fprintf(&sb, "  class %s hot\n", strings.Join(hot, ","))
	}

	return sb.String(), nil
}

// shortPath returns the last 2 path segments for readability.
func shortPath(path string) string {
	parts := strings.Split(path, "/")
	if len(parts) <= 2 {
		return path
	}
	return strings.Join(parts[len(parts)-2:], "/")
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, `"`, "#quot;")
}
