package cluster

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"

	"github.com/dusk-indust/archmap/internal/graph"
)

// Centroid strategy defaults.
const (
	DefaultSeed          uint64 = 42
	DefaultMaxIterations        = 100
)

// Centroid is k-means over min-max normalized features with k-means++
// seeding from a PCG source. Identical input and seed give identical
// partitions: files are ordered by path first and cluster ids follow the
// order of each cluster's first member.
type Centroid struct {
	Seed          uint64
	MaxIterations int
}

// Name returns "centroid".
func (Centroid) Name() string { return MethodCentroid }

// Cluster partitions files into at most k clusters. k is clamped to the
// number of files and to the number of distinct feature vectors.
func (c Centroid) Cluster(files []graph.FileRecord, k int) Result {
	if len(files) == 0 {
		return emptyResult(MethodCentroid)
	}
	sorted := sortedByPath(files)

	raw := make([]FeatureVector, len(sorted))
	for i, f := range sorted {
		raw[i] = Features(f)
	}
	normalized := Normalize(raw)
	points := make([][]float64, len(normalized))
	for i := range normalized {
		points[i] = normalized[i][:]
	}

	k = clampK(k, len(sorted))
	k = min(k, distinctVectors(normalized))

	maxIter := c.MaxIterations
	if maxIter <= 0 {
		maxIter = DefaultMaxIterations
	}
	rng := rand.New(rand.NewPCG(c.Seed, c.Seed))
	assign := kmeans(points, seedCentroids(points, k, rng), maxIter)

	// Renumber so ids follow the first member in path order.
	ids := make(map[int]int, k)
	var groups [][]graph.FileRecord
	for i, a := range assign {
		id, ok := ids[a]
		if !ok {
			id = len(groups)
			ids[a] = id
			groups = append(groups, nil)
		}
		groups[id] = append(groups[id], sorted[i])
	}
	return newResult(MethodCentroid, groups, nil)
}

// seedCentroids picks k initial centroids with k-means++: the first point
// uniformly, each further one with probability proportional to its squared
// distance from the nearest chosen centroid.
func seedCentroids(points [][]float64, k int, rng *rand.Rand) [][]float64 {
	centroids := [][]float64{clone(points[rng.IntN(len(points))])}
	nearest := make([]float64, len(points))
	for len(centroids) < k {
		total := 0.0
		for i, p := range points {
			d := math.Inf(1)
			for _, c := range centroids {
				d = min(d, floats.Distance(p, c, 2))
			}
			nearest[i] = d * d
			total += nearest[i]
		}
		if total == 0 {
			break
		}
		target := rng.Float64() * total
		pick := len(points) - 1
		for i, w := range nearest {
			if target < w {
				pick = i
				break
			}
			target -= w
		}
		centroids = append(centroids, clone(points[pick]))
	}
	return centroids
}

// kmeans runs Lloyd iterations until the assignment is stable or maxIter
// is reached, returning the centroid index of every point.
func kmeans(points, centroids [][]float64, maxIter int) []int {
	assign := make([]int, len(points))
	for i := range assign {
		assign[i] = -1
	}
	dim := len(points[0])

	for iter := 0; iter < maxIter; iter++ {
		changed := false
		for i, p := range points {
			best := nearestCentroid(p, centroids)
			if best != assign[i] {
				assign[i] = best
				changed = true
			}
		}
		if !changed {
			break
		}

		sums := make([][]float64, len(centroids))
		counts := make([]int, len(centroids))
		for j := range sums {
			sums[j] = make([]float64, dim)
		}
		for i, p := range points {
			floats.Add(sums[assign[i]], p)
			counts[assign[i]]++
		}
		// Reseed empty clusters with the point farthest from its own
		// centroid before averaging the others.
		reseeded := make([]bool, len(centroids))
		for j := range centroids {
			if counts[j] > 0 {
				continue
			}
			far := farthestPoint(points, centroids, assign, counts)
			counts[assign[far]]--
			floats.Sub(sums[assign[far]], points[far])
			assign[far] = j
			counts[j] = 1
			centroids[j] = clone(points[far])
			reseeded[j] = true
		}
		for j := range centroids {
			if reseeded[j] {
				continue
			}
			floats.Scale(1/float64(counts[j]), sums[j])
			centroids[j] = sums[j]
		}
	}
	return assign
}

func nearestCentroid(p []float64, centroids [][]float64) int {
	best, bestDist := 0, math.Inf(1)
	for j, c := range centroids {
		if d := floats.Distance(p, c, 2); d < bestDist {
			best, bestDist = j, d
		}
	}
	return best
}

// farthestPoint returns the point with the largest distance to its
// assigned centroid among clusters that can spare a member.
func farthestPoint(points, centroids [][]float64, assign, counts []int) int {
	far, farDist := -1, -1.0
	for i, p := range points {
		if counts[assign[i]] < 2 {
			continue
		}
		if d := floats.Distance(p, centroids[assign[i]], 2); d > farDist {
			far, farDist = i, d
		}
	}
	if far < 0 {
		return 0
	}
	return far
}

func clone(v []float64) []float64 {
	return append([]float64(nil), v...)
}
