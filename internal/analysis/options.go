package analysis

import (
	"fmt"
	"runtime"

	"github.com/dusk-indust/archmap/internal/cluster"
	"github.com/dusk-indust/archmap/internal/graph"
)

// DefaultMaxFileBytes is the read ceiling per file.
const DefaultMaxFileBytes = 1 << 20

// DefaultK is the default number of clusters.
const DefaultK = 4

// Options are the tunable parameters of one analysis run.
type Options struct {
	// K is the requested number of clusters.
	K int
	// HotSpots decides the hot-spot threshold.
	HotSpots graph.HotSpotPolicy
	// MaxFileBytes caps how much of a file is read; longer files are
	// truncated and reported.
	MaxFileBytes int64
	// MaxCycleDepth and MaxCycles bound cycle enumeration.
	MaxCycleDepth int
	MaxCycles     int
	// TopK is the length of the most-connected list.
	TopK int
	// Clustering selects and tunes the clustering strategy.
	Clustering cluster.Options
	// Workers limits concurrent file extraction.
	Workers int
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	b := graph.DefaultBuildOptions()
	return Options{
		K:             DefaultK,
		HotSpots:      b.HotSpots,
		MaxFileBytes:  DefaultMaxFileBytes,
		MaxCycleDepth: b.MaxCycleDepth,
		MaxCycles:     b.MaxCycles,
		TopK:          b.TopK,
		Clustering:    cluster.DefaultOptions(),
		Workers:       runtime.GOMAXPROCS(0),
	}
}

// Validate reports the first unusable option.
func (o Options) Validate() error {
	if o.K < 1 {
		return fmt.Errorf("k must be at least 1, got %d", o.K)
	}
	if o.MaxFileBytes < 1 {
		return fmt.Errorf("max file bytes must be positive, got %d", o.MaxFileBytes)
	}
	if o.MaxCycleDepth < 1 || o.MaxCycles < 0 {
		return fmt.Errorf("cycle bounds must be positive, got depth %d and count %d", o.MaxCycleDepth, o.MaxCycles)
	}
	if o.TopK < 0 {
		return fmt.Errorf("top k must not be negative, got %d", o.TopK)
	}
	if o.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", o.Workers)
	}
	if err := o.HotSpots.Validate(); err != nil {
		return fmt.Errorf("hot spots: %w", err)
	}
	if err := o.Clustering.Validate(); err != nil {
		return fmt.Errorf("clustering: %w", err)
	}
	return nil
}

func (o Options) buildOptions() graph.BuildOptions {
	return graph.BuildOptions{
		TopK:          o.TopK,
		HotSpots:      o.HotSpots,
		MaxCycleDepth: o.MaxCycleDepth,
		MaxCycles:     o.MaxCycles,
	}
}
