package graph

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Compile-time assertion: *MemStore satisfies Store.
var _ Store = (*MemStore)(nil)

// MemStore implements Store using Go maps. Thread-safe via sync.RWMutex.
type MemStore struct {
	mu       sync.RWMutex
	files    map[string]FileRecord
	out      map[string][]string // source -> sorted targets
	in       map[string][]string // target -> sorted sources
	edges    map[DependencyEdge]bool
	clusters []ClusterNode
}

// NewMemStore returns an initialized MemStore ready for use.
func NewMemStore() *MemStore {
	return &MemStore{
		files: make(map[string]FileRecord),
		out:   make(map[string][]string),
		in:    make(map[string][]string),
		edges: make(map[DependencyEdge]bool),
	}
}

// InitSchema is a no-op for the in-memory store.
func (m *MemStore) InitSchema(_ context.Context) error {
	return nil
}

// AddFile stores a file record keyed by its path.
func (m *MemStore) AddFile(_ context.Context, file FileRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[file.Path] = file
	return nil
}

// AddEdge records a resolved edge. Duplicates are ignored.
func (m *MemStore) AddEdge(_ context.Context, edge DependencyEdge) error {
	if !edge.Resolved {
		return fmt.Errorf("memstore: edge %s -> %s is not resolved", edge.Source, edge.Target)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.edges[edge] {
		return nil
	}
	m.edges[edge] = true
	m.out[edge.Source] = insertSorted(m.out[edge.Source], edge.Target)
	m.in[edge.Target] = insertSorted(m.in[edge.Target], edge.Source)
	return nil
}

func insertSorted(list []string, v string) []string {
	i := sort.SearchStrings(list, v)
	list = append(list, "")
	copy(list[i+1:], list[i:])
	list[i] = v
	return list
}

// AddCluster stores a cluster, replacing any earlier one with the same id.
func (m *MemStore) AddCluster(_ context.Context, cluster ClusterNode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, c := range m.clusters {
		if c.ID == cluster.ID {
			m.clusters[i] = cluster
			return nil
		}
	}
	m.clusters = append(m.clusters, cluster)
	sort.Slice(m.clusters, func(i, j int) bool { return m.clusters[i].ID < m.clusters[j].ID })
	return nil
}

// GetFile returns the record for the given path, or nil if not found.
func (m *MemStore) GetFile(_ context.Context, path string) (*FileRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := m.files[path]
	if !ok {
		return nil, nil
	}
	return &f, nil
}

// QueryFiles returns files whose path contains query (case-insensitive),
// sorted by path, up to limit results. A limit <= 0 returns all matches.
func (m *MemStore) QueryFiles(_ context.Context, query string, limit int) ([]FileRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	lowerQuery := strings.ToLower(query)
	results := []FileRecord{}
	for _, f := range m.files {
		if strings.Contains(strings.ToLower(f.Path), lowerQuery) {
			results = append(results, f)
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Path < results[j].Path })
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// GetDependencies walks edges from path breadth-first, up to maxDepth hops.
// Downstream follows what path imports; upstream follows its importers.
func (m *MemStore) GetDependencies(_ context.Context, path string, direction Direction, maxDepth int) ([]DependencyChain, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return traverse(path, maxDepth, func(id string) ([]string, error) {
		return m.neighbors(id, direction)
	})
}

// neighbors returns the nodes one hop away from id along direction.
func (m *MemStore) neighbors(id string, direction Direction) ([]string, error) {
	switch direction {
	case DirectionDownstream:
		return m.out[id], nil
	case DirectionUpstream:
		return m.in[id], nil
	default:
		return nil, fmt.Errorf("memstore: unknown direction: %s", direction)
	}
}

// AssessImpact computes the blast radius of changing the given files.
func (m *MemStore) AssessImpact(_ context.Context, changedFiles []string) (*ImpactResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return impact(changedFiles, len(m.files), func(id string) ([]string, error) {
		return m.in[id], nil
	})
}

// GetClusters returns all stored clusters ordered by id.
func (m *MemStore) GetClusters(_ context.Context) ([]ClusterNode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]ClusterNode, len(m.clusters))
	copy(out, m.clusters)
	return out, nil
}

// GetAllEdges returns every stored edge sorted by source then target.
func (m *MemStore) GetAllEdges(_ context.Context) ([]DependencyEdge, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]DependencyEdge, 0, len(m.edges))
	for e := range m.edges {
		out = append(out, e)
	}
	sortEdges(out)
	return out, nil
}

// Stats returns file, edge and cluster counts.
func (m *MemStore) Stats(_ context.Context) (*GraphStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return &GraphStats{
		FileCount:    len(m.files),
		EdgeCount:    len(m.edges),
		ClusterCount: len(m.clusters),
	}, nil
}

// Close is a no-op for the in-memory store.
func (m *MemStore) Close() error {
	return nil
}
