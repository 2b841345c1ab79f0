package cluster

import (
	"path"
	"strings"

	"github.com/dusk-indust/archmap/internal/graph"
)

// Heuristic buckets files by their flags and naming conventions without
// any distance computation. It is fully deterministic.
type Heuristic struct{}

// Name returns "heuristic".
func (Heuristic) Name() string { return MethodHeuristic }

// bucket is one rule of the heuristic, tried in table order.
type bucket struct {
	label string
	match func(graph.FileRecord) bool
}

var utilityWords = []string{"util", "helper", "common"}

var heuristicBuckets = []bucket{
	{label: LabelConfig, match: func(f graph.FileRecord) bool { return f.IsConfig }},
	{label: LabelTesting, match: func(f graph.FileRecord) bool { return f.IsTest }},
	{label: LabelUtility, match: isUtility},
	{label: LabelCore, match: func(graph.FileRecord) bool { return true }},
}

// isUtility reports small shallow files and files named like helpers.
func isUtility(f graph.FileRecord) bool {
	if f.FunctionCount+f.ClassCount <= 2 && f.DirectoryDepth <= 1 {
		return true
	}
	base := strings.ToLower(path.Base(f.Path))
	for _, w := range utilityWords {
		if strings.Contains(base, w) {
			return true
		}
	}
	return false
}

// Cluster assigns each file to the first matching bucket. Empty buckets are
// dropped; when more than k remain the trailing ones fold into the k-th,
// which is then labelled from its members' statistics.
func (Heuristic) Cluster(files []graph.FileRecord, k int) Result {
	if len(files) == 0 {
		return emptyResult(MethodHeuristic)
	}
	k = clampK(k, len(files))

	members := make([][]graph.FileRecord, len(heuristicBuckets))
	for _, f := range sortedByPath(files) {
		for i, b := range heuristicBuckets {
			if b.match(f) {
				members[i] = append(members[i], f)
				break
			}
		}
	}

	var groups [][]graph.FileRecord
	var labels []string
	for i, m := range members {
		if len(m) > 0 {
			groups = append(groups, m)
			labels = append(labels, heuristicBuckets[i].label)
		}
	}

	if len(groups) > k {
		var folded []graph.FileRecord
		for _, g := range groups[k-1:] {
			folded = append(folded, g...)
		}
		groups = append(groups[:k-1], sortedByPath(folded))
		labels = append(labels[:k-1], "")
	}
	return newResult(MethodHeuristic, groups, labels)
}
