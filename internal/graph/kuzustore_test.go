//go:build cgo

package graph

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestStore creates a fresh in-memory KuzuStore.
// It registers a cleanup function to close the store when the test finishes.
func newTestStore(t *testing.T) Store {
	t.Helper()
	s, err := NewKuzuStore()
	require.NoError(t, err, "NewKuzuStore should not fail")
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestKuzuStore(t *testing.T) {
	runStoreContract(t, newTestStore)
}

func TestKuzuStore_InitSchemaIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.InitSchema(ctx))
	require.NoError(t, s.InitSchema(ctx))
}

func TestOpenPersistentStore_Reopens(t *testing.T) {
	dir := filepath.Join(t.TempDir(), ".archmap", "graph")
	ctx := context.Background()
	files, g, clusters := diamondAnalysis()

	s, err := OpenPersistentStore(dir)
	require.NoError(t, err)
	require.NoError(t, Populate(ctx, s, files, g, clusters))
	require.NoError(t, s.Close())

	// A second analysis starts from an empty database.
	s, err = OpenPersistentStore(dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, Populate(ctx, s, files, g, clusters))

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, stats.FileCount)
}

func TestLoadPersistentStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "graph")
	ctx := context.Background()
	files, g, clusters := diamondAnalysis()

	_, err := LoadPersistentStore(dir)
	assert.Error(t, err, "nothing persisted yet")

	s, err := OpenPersistentStore(dir)
	require.NoError(t, err)
	require.NoError(t, Populate(ctx, s, files, g, clusters))
	require.NoError(t, s.Close())

	loaded, err := LoadPersistentStore(dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = loaded.Close() })

	edges, err := loaded.GetAllEdges(ctx)
	require.NoError(t, err)
	assert.Equal(t, g.Edges, edges)
}
