package ml

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/drakos74/impulse/internal/buffer"
	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/floats"
)

var (
	// ErrNoData is returned when learning on an empty data set.
	ErrNoData = errors.New("no data")
	// ErrNoModel is returned when predicting before learning.
	ErrNoModel = errors.New("no model present")
)

// KMeans is a seeded k-means model.
// Centroids are initialised with k-means++ and refined with at most the configured number of iterations.
type KMeans struct {
	k          int
	iterations int
	seed       int64
	dim        int
	centroids  [][]float64
	guesses    []int
	converged  bool
	run        int
}

// NewKMeans creates a new k-means model for k clusters.
func NewKMeans(k int, iterations int, seed int64) *KMeans {
	return &KMeans{
		k:          k,
		iterations: iterations,
		seed:       seed,
	}
}

// Learn fits the model on the given data.
// The number of clusters is capped at the number of distinct points.
func (k *KMeans) Learn(data [][]float64) error {
	if len(data) == 0 {
		return ErrNoData
	}
	if k.k < 1 {
		return fmt.Errorf("invalid number of clusters: %d", k.k)
	}
	dim := len(data[0])
	for i, x := range data {
		if len(x) != dim {
			return fmt.Errorf("inconsistent dimensions at %d: %d vs %d", i, len(x), dim)
		}
	}
	k.dim = dim

	rnd := rand.New(rand.NewSource(k.seed))
	k.centroids = k.seedCentroids(rnd, data)
	k.guesses = make([]int, len(data))
	for i := range k.guesses {
		k.guesses[i] = -1
	}

	k.converged = false
	k.run = 0
	for k.run < k.iterations {
		k.run++
		changed := 0
		for i, x := range data {
			g := nearest(k.centroids, x)
			if g != k.guesses[i] {
				k.guesses[i] = g
				changed++
			}
		}
		k.update(data)
		if changed == 0 {
			k.converged = true
			break
		}
	}

	log.Debug().
		Int("k", len(k.centroids)).
		Int("points", len(data)).
		Int("iterations", k.run).
		Bool("converged", k.converged).
		Msg("k-means fitted")
	return nil
}

// seedCentroids picks the initial centroids with k-means++.
func (k *KMeans) seedCentroids(rnd *rand.Rand, data [][]float64) [][]float64 {
	centroids := make([][]float64, 0, k.k)
	centroids = append(centroids, clone(data[rnd.Intn(len(data))]))
	d2 := make([]float64, len(data))
	for len(centroids) < k.k {
		for i, x := range data {
			d := floats.Distance(x, centroids[nearest(centroids, x)], 2)
			d2[i] = d * d
		}
		total := floats.Sum(d2)
		if total == 0 {
			// every point already sits on a centroid
			break
		}
		target := rnd.Float64() * total
		next := len(data) - 1
		var cumsum float64
		for i, d := range d2 {
			cumsum += d
			if d > 0 && cumsum >= target {
				next = i
				break
			}
		}
		centroids = append(centroids, clone(data[next]))
	}
	return centroids
}

// update moves every centroid to the mean of its points.
// Empty clusters keep their previous centroid.
func (k *KMeans) update(data [][]float64) {
	sums := make([][]float64, len(k.centroids))
	counts := make([]int, len(k.centroids))
	for c := range sums {
		sums[c] = make([]float64, k.dim)
	}
	for i, x := range data {
		g := k.guesses[i]
		floats.Add(sums[g], x)
		counts[g]++
	}
	for c := range k.centroids {
		if counts[c] == 0 {
			continue
		}
		floats.Scale(1/float64(counts[c]), sums[c])
		k.centroids[c] = sums[c]
	}
}

// Predict returns the index of the nearest centroid.
// Ties are broken in favour of the lowest index.
func (k *KMeans) Predict(x []float64) (int, error) {
	if len(k.centroids) == 0 {
		return 0, ErrNoModel
	}
	if len(x) != k.dim {
		return 0, fmt.Errorf("inconsistent dimensions: %d vs %d", len(x), k.dim)
	}
	return nearest(k.centroids, x), nil
}

// Guesses returns the cluster of every point of the last training set.
func (k *KMeans) Guesses() []int {
	return k.guesses
}

// Centroids returns a copy of the fitted centroids.
func (k *KMeans) Centroids() [][]float64 {
	cc := make([][]float64, len(k.centroids))
	for i, c := range k.centroids {
		cc[i] = clone(c)
	}
	return cc
}

// Converged reports if the last fit reached a stable assignment.
func (k *KMeans) Converged() bool {
	return k.converged
}

// Iterations returns the number of iterations of the last fit.
func (k *KMeans) Iterations() int {
	return k.run
}

// Stats groups the given results by the cluster of the corresponding training point.
func (k *KMeans) Stats(results []float64) (map[int]*buffer.Stats, error) {
	if len(results) != len(k.guesses) {
		return nil, fmt.Errorf("could not align results with data [ %d | %d ]", len(results), len(k.guesses))
	}
	stats := make(map[int]*buffer.Stats, len(k.centroids))
	for c := range k.centroids {
		stats[c] = buffer.NewStats()
	}
	for i, g := range k.guesses {
		stats[g].Push(results[i])
	}
	return stats, nil
}

func nearest(centroids [][]float64, x []float64) int {
	best := 0
	bestDistance := floats.Distance(x, centroids[0], 2)
	for c := 1; c < len(centroids); c++ {
		if d := floats.Distance(x, centroids[c], 2); d < bestDistance {
			best = c
			bestDistance = d
		}
	}
	return best
}

func clone(x []float64) []float64 {
	c := make([]float64, len(x))
	copy(c, x)
	return c
}
