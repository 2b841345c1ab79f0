package graph

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
)

// DefaultTraversalDepth bounds GetDependencies when no depth is given.
const DefaultTraversalDepth = 10

// ErrNoPersistentStore is returned when the binary was built without cgo
// and the KuzuDB driver is unavailable.
var ErrNoPersistentStore = errors.New("persistent graph store requires a cgo build")

// Store persists one analysis and answers traversal queries over it.
// Implementations: KuzuStore (cgo builds), MemStore (always available).
type Store interface {
	io.Closer

	// Schema setup, called once before any data is inserted.
	InitSchema(ctx context.Context) error

	// Write operations. AddEdge only accepts resolved file-to-file edges.
	AddFile(ctx context.Context, file FileRecord) error
	AddEdge(ctx context.Context, edge DependencyEdge) error
	AddCluster(ctx context.Context, cluster ClusterNode) error

	// Read operations.
	GetFile(ctx context.Context, path string) (*FileRecord, error)
	QueryFiles(ctx context.Context, query string, limit int) ([]FileRecord, error)
	GetClusters(ctx context.Context) ([]ClusterNode, error)
	GetAllEdges(ctx context.Context) ([]DependencyEdge, error)

	// Graph traversal.
	GetDependencies(ctx context.Context, path string, direction Direction, maxDepth int) ([]DependencyChain, error)
	AssessImpact(ctx context.Context, changedFiles []string) (*ImpactResult, error)

	Stats(ctx context.Context) (*GraphStats, error)
}

// ImpactResult is the blast radius of a change: the files importing a
// changed file directly, and everything importing those transitively.
type ImpactResult struct {
	DirectlyAffected     []string `json:"directly_affected"`
	TransitivelyAffected []string `json:"transitively_affected"`
	RiskScore            float64  `json:"risk_score"`
}

// Populate writes an analysis into store: every file, every resolved edge
// and the labelled clusters.
func Populate(ctx context.Context, store Store, files []FileRecord, g DependencyGraph, clusters []ClusterNode) error {
	if err := store.InitSchema(ctx); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	for _, f := range files {
		if err := store.AddFile(ctx, f); err != nil {
			return fmt.Errorf("add file %s: %w", f.Path, err)
		}
	}
	for _, e := range g.Edges {
		if err := store.AddEdge(ctx, e); err != nil {
			return fmt.Errorf("add edge %s -> %s: %w", e.Source, e.Target, err)
		}
	}
	for _, c := range clusters {
		if err := store.AddCluster(ctx, c); err != nil {
			return fmt.Errorf("add cluster %d: %w", c.ID, err)
		}
	}
	return nil
}

// traverse runs a breadth-first walk from start, one DependencyChain per
// newly reached node. neighbors must return a deterministic order.
func traverse(start string, maxDepth int, neighbors func(string) ([]string, error)) ([]DependencyChain, error) {
	if maxDepth <= 0 {
		maxDepth = DefaultTraversalDepth
	}

	type bfsEntry struct {
		id   string
		path []string
	}

	visited := map[string]bool{start: true}
	queue := []bfsEntry{{id: start, path: []string{start}}}
	chains := []DependencyChain{}

	for depth := 0; depth < maxDepth && len(queue) > 0; depth++ {
		var nextQueue []bfsEntry
		for _, entry := range queue {
			nbs, err := neighbors(entry.id)
			if err != nil {
				return nil, err
			}
			for _, nb := range nbs {
				if visited[nb] {
					continue
				}
				visited[nb] = true
				newPath := make([]string, len(entry.path), len(entry.path)+1)
				copy(newPath, entry.path)
				newPath = append(newPath, nb)
				chains = append(chains, DependencyChain{Nodes: newPath, Depth: len(newPath) - 1})
				nextQueue = append(nextQueue, bfsEntry{id: nb, path: newPath})
			}
		}
		queue = nextQueue
	}
	return chains, nil
}

// impact expands the importers of changedFiles until no new file appears.
func impact(changedFiles []string, totalFiles int, importers func(string) ([]string, error)) (*ImpactResult, error) {
	changed := make(map[string]bool, len(changedFiles))
	for _, f := range changedFiles {
		changed[f] = true
	}

	direct := make(map[string]bool)
	for _, f := range changedFiles {
		srcs, err := importers(f)
		if err != nil {
			return nil, err
		}
		for _, s := range srcs {
			if !changed[s] {
				direct[s] = true
			}
		}
	}

	all := make(map[string]bool, len(direct))
	frontier := make([]string, 0, len(direct))
	for f := range direct {
		all[f] = true
		frontier = append(frontier, f)
	}
	for len(frontier) > 0 {
		var next []string
		for _, f := range frontier {
			srcs, err := importers(f)
			if err != nil {
				return nil, err
			}
			for _, s := range srcs {
				if !changed[s] && !all[s] {
					all[s] = true
					next = append(next, s)
				}
			}
		}
		frontier = next
	}

	risk := 0.0
	if totalFiles > 0 {
		risk = math.Min(1.0, float64(len(all))/float64(totalFiles))
	}
	return &ImpactResult{
		DirectlyAffected:     sortedKeys(direct),
		TransitivelyAffected: sortedKeys(all),
		RiskScore:            risk,
	}, nil
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
