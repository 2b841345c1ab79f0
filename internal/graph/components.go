package graph

import (
	"sort"
	"strings"
)

// adjacency is an undirected view of the resolved edges, keyed by node.
type adjacency map[string]map[string]bool

func undirected(nodes []string, edges []DependencyEdge) adjacency {
	adj := make(adjacency, len(nodes))
	for _, n := range nodes {
		adj[n] = make(map[string]bool)
	}
	for _, e := range edges {
		if e.Source == e.Target {
			continue
		}
		adj[e.Source][e.Target] = true
		adj[e.Target][e.Source] = true
	}
	return adj
}

// ConnectedComponents returns the weakly connected components of the graph,
// each sorted, ordered by their smallest member. Singletons are included.
func ConnectedComponents(g DependencyGraph) [][]string {
	adj := undirected(g.Nodes, g.Edges)
	visited := make(map[string]bool, len(g.Nodes))
	var out [][]string
	for _, n := range g.Nodes {
		if visited[n] {
			continue
		}
		component := bfsComponent(n, adj, visited)
		sort.Strings(component)
		out = append(out, component)
	}
	return out
}

// bfsComponent performs BFS from start and returns all reachable nodes,
// marking them visited as it goes.
func bfsComponent(start string, adj adjacency, visited map[string]bool) []string {
	var component []string
	queue := []string{start}
	visited[start] = true

	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		component = append(component, node)
		for neighbor := range adj[node] {
			if !visited[neighbor] {
				visited[neighbor] = true
				queue = append(queue, neighbor)
			}
		}
	}
	return component
}

// Cohesion is internal_edges / (internal_edges + boundary_edges) for a set
// of members, counting each undirected pair once. Sets with no edges score 0.
func Cohesion(members []string, g DependencyGraph) float64 {
	adj := undirected(g.Nodes, g.Edges)
	memberSet := make(map[string]bool, len(members))
	for _, m := range members {
		memberSet[m] = true
	}

	internal, boundary := 0, 0
	for _, m := range members {
		for neighbor := range adj[m] {
			switch {
			case !memberSet[neighbor]:
				boundary++
			case m < neighbor:
				internal++
			}
		}
	}
	if internal+boundary == 0 {
		return 0
	}
	return float64(internal) / float64(internal+boundary)
}

// CommonDir returns the longest common directory prefix of paths, with a
// trailing slash, or "" when they share none.
func CommonDir(paths []string) string {
	if len(paths) == 0 {
		return ""
	}
	prefix := paths[0]
	if i := strings.LastIndex(prefix, "/"); i >= 0 {
		prefix = prefix[:i+1]
	} else {
		return ""
	}
	for _, p := range paths[1:] {
		for !strings.HasPrefix(p, prefix) {
			trimmed := strings.TrimSuffix(prefix, "/")
			idx := strings.LastIndex(trimmed, "/")
			if idx < 0 {
				return ""
			}
			prefix = trimmed[:idx+1]
		}
	}
	return prefix
}
