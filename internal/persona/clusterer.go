package persona

import (
	"math/rand"
	"sort"

	"github.com/drakos74/impulse/internal/math/ml"
	"github.com/drakos74/impulse/internal/model"
	"github.com/drakos74/impulse/internal/score"
	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/floats"
)

// Cluster is a fitted persona.
type Cluster struct {
	ID             int               `json:"cluster_id"`
	Label          string            `json:"label"`
	Interpretation string            `json:"interpretation"`
	Centroid       model.Vector      `json:"centroid"`
	Dominant       []model.Component `json:"dominant"`
	Size           int               `json:"size"`
	AvgScore       float64           `json:"avg_score"`
}

// Model is the outcome of a clustering fit.
// Cluster ids are only meaningful within the same model.
type Model struct {
	Clusters   []Cluster    `json:"clusters"`
	Mean       model.Vector `json:"mean"`
	Degenerate bool         `json:"degenerate"`
	Sampled    int          `json:"sampled"`
	Iterations int          `json:"iterations"`
	Config     Config       `json:"config"`
}

// Clusterer groups normalized feature vectors into personas.
type Clusterer struct {
	cfg      Config
	composer *score.Composer
}

// New creates a new clusterer.
// The composer orders the clusters, so that cluster 0 has the lowest composite centroid.
func New(cfg Config, composer *score.Composer) *Clusterer {
	return &Clusterer{
		cfg:      cfg,
		composer: composer,
	}
}

// Fit fits the personas on the normalized vectors of all users of a dataset.
// A population without any variance results in a single Unclassified persona.
func (c *Clusterer) Fit(vectors []model.Vector) *Model {
	m := &Model{
		Config: c.cfg,
	}
	if len(vectors) == 0 || !varies(vectors) {
		return c.degenerate(m, vectors)
	}

	data := c.sample(vectors)
	m.Sampled = len(data)
	points := make([][]float64, len(data))
	composite := make([]float64, len(data))
	for i, v := range data {
		points[i] = v.Slice()
		composite[i] = float64(c.composer.Value(v))
		for _, cc := range model.Components {
			m.Mean[cc] += v.Get(cc) / float64(len(data))
		}
	}

	kmeans := ml.NewKMeans(c.cfg.Clusters, c.cfg.MaxIterations, c.cfg.Seed)
	if err := kmeans.Learn(points); err != nil {
		log.Error().Err(err).Int("points", len(points)).Msg("could not fit personas")
		return c.degenerate(m, vectors)
	}
	m.Iterations = kmeans.Iterations()
	stats, err := kmeans.Stats(composite)
	if err != nil {
		log.Error().Err(err).Msg("could not collect persona stats")
		return c.degenerate(m, vectors)
	}

	centroids := kmeans.Centroids()
	order := make([]int, len(centroids))
	for i := range order {
		order[i] = i
	}
	value := func(i int) float64 {
		return floats.Sum(c.composer.Contributions(model.VectorOf(centroids[i])).Slice())
	}
	sort.SliceStable(order, func(i, j int) bool {
		return value(order[i]) < value(order[j])
	})

	m.Clusters = make([]Cluster, len(order))
	taken := make(map[string]bool, len(order))
	for id, i := range order {
		centroid := model.VectorOf(centroids[i])
		dims := dominant(centroid, m.Mean)
		l := unique(dims, taken)
		taken[l] = true
		m.Clusters[id] = Cluster{
			ID:             id,
			Label:          l,
			Interpretation: interpretation(dims, centroid, m.Mean),
			Centroid:       centroid,
			Dominant:       dims,
			Size:           stats[i].Count(),
			AvgScore:       stats[i].Avg(),
		}
	}

	log.Info().
		Int("users", len(vectors)).
		Int("sampled", m.Sampled).
		Int("clusters", len(m.Clusters)).
		Int("iterations", m.Iterations).
		Bool("converged", kmeans.Converged()).
		Msg("fitted personas")
	return m
}

func (c *Clusterer) degenerate(m *Model, vectors []model.Vector) *Model {
	var centroid model.Vector
	if len(vectors) > 0 {
		centroid = vectors[0]
	}
	m.Degenerate = true
	m.Mean = centroid
	m.Clusters = []Cluster{{
		ID:             0,
		Label:          model.Unclassified,
		Interpretation: unclassifiedInterpretation,
		Centroid:       centroid,
		Dominant:       []model.Component{},
		Size:           len(vectors),
		AvgScore:       float64(c.composer.Value(centroid)),
	}}
	log.Warn().Int("users", len(vectors)).Msg("no variance in the population, falling back to a single persona")
	return m
}

// sample returns a seeded sample of the population if it is above the configured fit size.
func (c *Clusterer) sample(vectors []model.Vector) []model.Vector {
	if len(vectors) <= c.cfg.MaxFitUsers {
		return vectors
	}
	rnd := rand.New(rand.NewSource(c.cfg.Seed))
	idx := rnd.Perm(len(vectors))[:c.cfg.MaxFitUsers]
	sort.Ints(idx)
	sample := make([]model.Vector, len(idx))
	for i, j := range idx {
		sample[i] = vectors[j]
	}
	return sample
}

func varies(vectors []model.Vector) bool {
	for _, v := range vectors[1:] {
		if v != vectors[0] {
			return true
		}
	}
	return false
}

// Assign returns the id of the nearest persona.
// Ties go to the lowest id.
func (m *Model) Assign(v model.Vector) int {
	best := 0
	var bestDistance float64
	for i, cl := range m.Clusters {
		var d float64
		for _, c := range model.Components {
			diff := v.Get(c) - cl.Centroid.Get(c)
			d += diff * diff
		}
		if i == 0 || d < bestDistance {
			best = i
			bestDistance = d
		}
	}
	return best
}

// Persona assigns the user to a persona.
func (m *Model) Persona(v model.Vector, keyStats map[string]float64) model.Persona {
	id := m.Assign(v)
	cl := m.Clusters[id]
	return model.Persona{
		ClusterID:      cl.ID,
		Label:          cl.Label,
		Interpretation: cl.Interpretation,
		KeyStats:       keyStats,
	}
}
