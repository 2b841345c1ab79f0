package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dusk-indust/archmap/internal/analysis"
	"github.com/dusk-indust/archmap/internal/cluster"
	"github.com/dusk-indust/archmap/internal/graph"
)

var (
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("cyan")).Bold(true)
	headingStyle = lipgloss.NewStyle().Bold(true)
	hotStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("red")).Bold(true)
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("yellow"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// renderSummary prints the human-readable architecture summary of a report.
func renderSummary(w io.Writer, r *analysis.Report, examples int) {
	m := r.Graph.Metrics

	fmt.Fprintln(w, titleStyle.Render("Architecture of "+r.Root))
	fmt.Fprintf(w, "%d files, %d dependencies, %d external references, %d components (%d isolated)\n",
		m.TotalNodes, m.TotalEdges, len(r.Graph.External), m.Components, m.IsolatedNodes)
	if langs := formatLanguages(r.Languages); langs != "" {
		fmt.Fprintln(w, dimStyle.Render("Languages: "+langs))
	}
	fmt.Fprintln(w)

	if len(m.HotSpots) > 0 {
		fmt.Fprintln(w, headingStyle.Render(fmt.Sprintf("Hot spots (%d)", len(m.HotSpots))))
		for _, p := range m.HotSpots {
			fmt.Fprintln(w, "  "+hotStyle.Render(p))
		}
		fmt.Fprintln(w)
	}

	if len(m.Cycles) > 0 {
		fmt.Fprintln(w, headingStyle.Render(fmt.Sprintf("Dependency cycles (%d)", len(m.Cycles))))
		for _, c := range m.Cycles {
			fmt.Fprintln(w, "  "+formatCycle(c))
		}
		fmt.Fprintln(w)
	}

	fmt.Fprint(w, cluster.ArchitectureSummary(r.Clustering, examples))
	fmt.Fprintln(w, r.Clustering.Summary)
	if clusters := r.Clusters(); len(clusters) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, headingStyle.Render("Cluster cohesion"))
		for _, c := range clusters {
			fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf("  %d %s: %.2f", c.ID, c.Label, c.Cohesion)))
		}
	}

	for _, s := range r.ModeSwitches {
		fmt.Fprintln(w, warnStyle.Render(fmt.Sprintf("fallback: %s %s -> %s (%s)", s.Component, s.From, s.To, s.Reason)))
	}
	if len(r.Diagnostics) > 0 {
		fmt.Fprintln(w, warnStyle.Render(fmt.Sprintf("%d files skipped or truncated", len(r.Diagnostics))))
		for _, d := range r.Diagnostics {
			fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf("  %s: %s", d.Path, d.Kind)))
		}
	}
}

// formatLanguages renders per-language counts, most files first.
func formatLanguages(counts map[graph.Language]int) string {
	langs := make([]graph.Language, 0, len(counts))
	for l := range counts {
		langs = append(langs, l)
	}
	sort.Slice(langs, func(i, j int) bool {
		if counts[langs[i]] != counts[langs[j]] {
			return counts[langs[i]] > counts[langs[j]]
		}
		return langs[i] < langs[j]
	})
	parts := make([]string, len(langs))
	for i, l := range langs {
		parts[i] = fmt.Sprintf("%s %d", l, counts[l])
	}
	return strings.Join(parts, ", ")
}

// formatCycle renders a cycle closed back onto its first file.
func formatCycle(cycle []string) string {
	if len(cycle) == 0 {
		return ""
	}
	return strings.Join(append(append([]string(nil), cycle...), cycle[0]), " -> ")
}
