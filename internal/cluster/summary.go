package cluster

import (
	"fmt"
	"sort"
	"strings"
)

// EmptySummary is the summary of a batch without files.
const EmptySummary = "No source files were found to analyze."

// PatternCount is the number of files carrying one label.
type PatternCount struct {
	Label string `json:"label"`
	Files int    `json:"files"`
}

// PatternCounts aggregates member counts per label, ordered by count
// descending then label ascending.
func PatternCounts(r Result) []PatternCount {
	byLabel := make(map[string]int)
	for id, members := range r.Clusters {
		byLabel[r.Patterns[id]] += len(members)
	}
	counts := make([]PatternCount, 0, len(byLabel))
	for label, n := range byLabel {
		counts = append(counts, PatternCount{Label: label, Files: n})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Files != counts[j].Files {
			return counts[i].Files > counts[j].Files
		}
		return counts[i].Label < counts[j].Label
	})
	return counts
}

// Summarize renders the result as one sentence, e.g.
// "Identified 2 architectural patterns across 5 files: Core Logic (3 files)
// and Testing & Validation (2 files)."
func Summarize(r Result) string {
	counts := PatternCounts(r)
	total := 0
	for _, c := range counts {
		total += c.Files
	}
	if total == 0 {
		return EmptySummary
	}

	parts := make([]string, len(counts))
	for i, c := range counts {
		parts[i] = fmt.Sprintf("%s (%s)", c.Label, plural(c.Files, "file"))
	}
	list := parts[0]
	if len(parts) > 1 {
		list = strings.Join(parts[:len(parts)-1], ", ") + " and " + parts[len(parts)-1]
	}
	return fmt.Sprintf("Identified %s across %s: %s.",
		plural(len(counts), "architectural pattern"), plural(total, "file"), list)
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

// ArchitectureSummary renders one block per cluster with up to examples
// member paths, followed by "... and N more" when members were left out.
func ArchitectureSummary(r Result, examples int) string {
	if len(r.Clusters) == 0 {
		return EmptySummary + "\n"
	}
	var b strings.Builder
	b.WriteString("Identified architectural patterns:\n\n")
	for _, id := range r.IDs() {
		members := r.Clusters[id]
		fmt.Fprintf(&b, "[%s]\n", r.Patterns[id])
		fmt.Fprintf(&b, "  Files: %d\n", len(members))
		if len(members) > 0 && examples > 0 {
			b.WriteString("  Examples:\n")
			for _, m := range members[:min(examples, len(members))] {
				fmt.Fprintf(&b, "    - %s\n", m)
			}
			if len(members) > examples {
				fmt.Fprintf(&b, "    ... and %d more\n", len(members)-examples)
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}
