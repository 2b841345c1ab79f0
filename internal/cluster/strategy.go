package cluster

import (
	"fmt"

	"github.com/dusk-indust/archmap/internal/graph"
)

// Strategy partitions files into at most k labelled clusters.
// Implementations: Centroid, Heuristic.
type Strategy interface {
	Name() string
	Cluster(files []graph.FileRecord, k int) Result
}

// Compile-time interface checks.
var (
	_ Strategy = Centroid{}
	_ Strategy = Heuristic{}
)

// Method selects which strategy Select may choose.
type Method string

const (
	MethodAuto          Method = "auto"
	MethodOnlyCentroid  Method = "centroid"
	MethodOnlyHeuristic Method = "heuristic"
)

// Options configure strategy selection and the centroid strategy.
type Options struct {
	Method        Method
	Seed          uint64
	MaxIterations int
}

// DefaultOptions returns auto selection, seed 42 and 100 iterations.
func DefaultOptions() Options {
	return Options{Method: MethodAuto, Seed: DefaultSeed, MaxIterations: DefaultMaxIterations}
}

// Validate checks the options for unknown methods or bad bounds.
func (o Options) Validate() error {
	switch o.Method {
	case MethodAuto, MethodOnlyCentroid, MethodOnlyHeuristic:
	default:
		return fmt.Errorf("unknown clustering method %q", o.Method)
	}
	if o.MaxIterations < 1 {
		return fmt.Errorf("max iterations must be positive, got %d", o.MaxIterations)
	}
	return nil
}

// Select picks the strategy for a batch. The heuristic is chosen when the
// centroid strategy is disabled by configuration, when k exceeds the number
// of files, or when the feature matrix has fewer than two distinct vectors.
// MethodOnlyCentroid always yields the centroid strategy, which clamps k
// itself. reason is empty when the centroid strategy is used and otherwise
// says why it was not.
func Select(files []graph.FileRecord, k int, opts Options) (s Strategy, reason string) {
	centroid := Centroid{Seed: opts.Seed, MaxIterations: opts.MaxIterations}
	switch opts.Method {
	case MethodOnlyHeuristic:
		return Heuristic{}, "centroid clustering disabled by configuration"
	case MethodOnlyCentroid:
		return centroid, ""
	}
	if k > len(files) {
		return Heuristic{}, fmt.Sprintf("requested %d clusters for %d files", k, len(files))
	}
	vectors := make([]FeatureVector, len(files))
	for i, f := range files {
		vectors[i] = Features(f)
	}
	if d := distinctVectors(vectors); d < 2 {
		return Heuristic{}, fmt.Sprintf("feature matrix is degenerate (%d distinct vectors)", d)
	}
	return centroid, ""
}
