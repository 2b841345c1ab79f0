package graph

import (
	"slices"
	"sort"
	"strings"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// cycleSearchBudget caps the number of DFS expansions of one FindCycles
// call, independent of the depth and count limits.
const cycleSearchBudget = 200_000

// FindCycles enumerates elementary dependency cycles.
//
// Only nodes inside a strongly connected component with more than one
// member can lie on a multi-node cycle, so the DFS runs inside those
// components only. From each start node (lexical order) the search visits
// lexically greater nodes and records a cycle whenever it returns to the
// start, so every cycle begins at its smallest node. Cycles longer than
// maxDepth are not explored; the search stops after maxCycles cycles or
// cycleSearchBudget expansions. A self-edge is a single-node cycle.
func FindCycles(nodes []string, edges []DependencyEdge, maxDepth, maxCycles int) [][]string {
	cycles := [][]string{}
	if maxDepth < 1 || maxCycles < 1 || len(nodes) == 0 {
		return cycles
	}

	sorted := append([]string(nil), nodes...)
	sort.Strings(sorted)
	ids := make(map[string]int64, len(sorted))
	g := simple.NewDirectedGraph()
	for i, n := range sorted {
		ids[n] = int64(i)
		g.AddNode(simple.Node(i))
	}

	selfLoop := make(map[string]bool)
	succ := make(map[string][]string)
	for _, e := range edges {
		from, okFrom := ids[e.Source]
		to, okTo := ids[e.Target]
		if !okFrom || !okTo {
			continue
		}
		if from == to {
			selfLoop[e.Source] = true
			continue
		}
		if !g.HasEdgeFromTo(from, to) {
			g.SetEdge(simple.Edge{F: simple.Node(from), T: simple.Node(to)})
			succ[e.Source] = append(succ[e.Source], e.Target)
		}
	}

	component := make(map[string]int)
	for i, scc := range topo.TarjanSCC(g) {
		if len(scc) < 2 {
			continue
		}
		for _, n := range scc {
			component[sorted[n.ID()]] = i
		}
	}
	for _, targets := range succ {
		sort.Strings(targets)
	}

	s := &cycleSearch{
		succ:      succ,
		component: component,
		maxDepth:  maxDepth,
		maxCycles: maxCycles,
		budget:    cycleSearchBudget,
		seen:      make(map[string]bool),
		onPath:    make(map[string]bool),
	}
	for _, start := range sorted {
		if selfLoop[start] {
			s.record([]string{start})
		}
		if _, ok := component[start]; ok {
			s.start = start
			s.dfs(start, []string{start})
		}
		if s.done() {
			break
		}
	}
	return append(cycles, s.cycles...)
}

type cycleSearch struct {
	succ      map[string][]string
	component map[string]int
	maxDepth  int
	maxCycles int
	budget    int

	start  string
	onPath map[string]bool
	seen   map[string]bool
	cycles [][]string
}

func (s *cycleSearch) done() bool {
	return len(s.cycles) >= s.maxCycles || s.budget <= 0
}

// record stores a cycle unless one with the same node set was already seen.
func (s *cycleSearch) record(cycle []string) {
	if s.done() {
		return
	}
	key := append([]string(nil), cycle...)
	sort.Strings(key)
	k := strings.Join(key, "\x00")
	if s.seen[k] {
		return
	}
	s.seen[k] = true
	s.cycles = append(s.cycles, slices.Clone(cycle))
}

func (s *cycleSearch) dfs(node string, path []string) {
	s.budget--
	s.onPath[node] = true
	defer delete(s.onPath, node)

	comp := s.component[s.start]
	for _, next := range s.succ[node] {
		if s.done() {
			return
		}
		if c, ok := s.component[next]; !ok || c != comp {
			continue
		}
		switch {
		case next == s.start:
			s.record(path)
		case next > s.start && !s.onPath[next] && len(path) < s.maxDepth:
			s.dfs(next, append(path, next))
		}
	}
}
