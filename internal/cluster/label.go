package cluster

import (
	"gonum.org/v1/gonum/stat"

	"github.com/dusk-indust/archmap/internal/graph"
)

// Architectural archetypes assigned to clusters.
const (
	LabelConfig  = "Configuration & Setup"
	LabelTesting = "Testing & Validation"
	LabelUtility = "Utilities & Helpers"
	LabelCore    = "Core Logic"
	LabelMixed   = "Mixed"
)

// Labeler thresholds.
const (
	// Majority is the flag share a cluster must exceed to take the
	// configuration or testing label.
	Majority = 0.5
	// LowComplexity is the mean functions+classes per file below which a
	// cluster reads as utilities.
	LowComplexity = 3.0
	// MixedFloor is the lowest flag share treated as a competing signal.
	MixedFloor = 0.25
	// canonicalK is the cluster count the archetype set is designed for.
	canonicalK = 4
)

// ClusterStats are the aggregate features of one cluster's members.
type ClusterStats struct {
	Size           int           `json:"size"`
	Mean           FeatureVector `json:"mean"`
	TestShare      float64       `json:"test_share"`
	ConfigShare    float64       `json:"config_share"`
	MeanComplexity float64       `json:"mean_complexity"`
}

// Stats aggregates the raw features of members.
func Stats(members []graph.FileRecord) ClusterStats {
	s := ClusterStats{Size: len(members)}
	if len(members) == 0 {
		return s
	}
	vectors := make([]FeatureVector, len(members))
	complexity := make([]float64, len(members))
	for n, f := range members {
		vectors[n] = Features(f)
		complexity[n] = float64(f.FunctionCount + f.ClassCount)
	}
	column := make([]float64, len(members))
	for i := range FeatureCount {
		for n, v := range vectors {
			column[n] = v[i]
		}
		s.Mean[i] = stat.Mean(column, nil)
	}
	s.TestShare = s.Mean[FeatureTest]
	s.ConfigShare = s.Mean[FeatureConfig]
	s.MeanComplexity = stat.Mean(complexity, nil)
	return s
}

// Label assigns exactly one archetype to a cluster, given the number of
// clusters k in the partition. Flag majorities win first. Outside the
// canonical four-way partition a cluster whose strongest flag share is
// notable but not a majority is labelled Mixed. Otherwise complexity
// separates utilities from core logic.
func Label(s ClusterStats, k int) string {
	switch {
	case s.ConfigShare > Majority:
		return LabelConfig
	case s.TestShare > Majority:
		return LabelTesting
	}
	if k != canonicalK {
		if share := max(s.ConfigShare, s.TestShare); share >= MixedFloor && share <= Majority {
			return LabelMixed
		}
	}
	if s.MeanComplexity < LowComplexity {
		return LabelUtility
	}
	return LabelCore
}
