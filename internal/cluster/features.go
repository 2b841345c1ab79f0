package cluster

import "github.com/dusk-indust/archmap/internal/graph"

// Feature positions within a FeatureVector.
const (
	FeatureImports = iota
	FeatureFunctions
	FeatureClasses
	FeatureSize
	FeatureTest
	FeatureConfig

	FeatureCount
)

// FeatureVector is the fixed-length structural description of one file:
// import count, function count, class count, size in bytes, is_test and
// is_config (as 0 or 1).
type FeatureVector [FeatureCount]float64

// Features converts a file record into its feature vector.
func Features(f graph.FileRecord) FeatureVector {
	return FeatureVector{
		FeatureImports:   float64(f.ImportCount),
		FeatureFunctions: float64(f.FunctionCount),
		FeatureClasses:   float64(f.ClassCount),
		FeatureSize:      float64(f.SizeBytes),
		FeatureTest:      boolFeature(f.IsTest),
		FeatureConfig:    boolFeature(f.IsConfig),
	}
}

func boolFeature(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// Normalize rescales every feature to [0,1] by min-max over the batch.
// A feature that is constant across the batch becomes 0.
func Normalize(vs []FeatureVector) []FeatureVector {
	out := make([]FeatureVector, len(vs))
	if len(vs) == 0 {
		return out
	}
	lo, hi := vs[0], vs[0]
	for _, v := range vs[1:] {
		for i := range v {
			lo[i] = min(lo[i], v[i])
			hi[i] = max(hi[i], v[i])
		}
	}
	for n, v := range vs {
		for i := range v {
			if span := hi[i] - lo[i]; span > 0 {
				out[n][i] = (v[i] - lo[i]) / span
			}
		}
	}
	return out
}

// distinctVectors counts the different vectors in vs.
func distinctVectors(vs []FeatureVector) int {
	seen := make(map[FeatureVector]bool, len(vs))
	for _, v := range vs {
		seen[v] = true
	}
	return len(seen)
}
