package persona

import (
	"math/rand"
	"testing"

	"github.com/drakos74/impulse/internal/model"
	"github.com/drakos74/impulse/internal/score"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClusterer(t *testing.T, cfg Config) *Clusterer {
	composer, err := score.NewComposer(score.DefaultWeights)
	require.NoError(t, err)
	return New(cfg, composer)
}

func groups(n int) []model.Vector {
	vectors := make([]model.Vector, 0, 3*n)
	for i := 0; i < n; i++ {
		j := float64(i) * 0.001
		vectors = append(vectors,
			model.Vector{j, j, 0, 0, j},
			model.Vector{0, 0.9 + j, 0, 0.8 - j, 0.1},
			model.Vector{0.05, 0, 0.9 - j, 0, 0.1 + j},
		)
	}
	return vectors
}

func TestClusterer_Fit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Clusters = 3
	c := newClusterer(t, cfg)

	vectors := groups(10)
	m := c.Fit(vectors)

	require.Len(t, m.Clusters, 3)
	assert.False(t, m.Degenerate)
	assert.Equal(t, 30, m.Sampled)

	// ordered by ascending composite score
	assert.Equal(t, steady, m.Clusters[0].Label)
	assert.Equal(t, "End-of-month splurger", m.Clusters[1].Label)
	assert.Equal(t, "Late-night / burst spender", m.Clusters[2].Label)
	for i, cl := range m.Clusters {
		assert.Equal(t, i, cl.ID)
		assert.Equal(t, 10, cl.Size)
		assert.NotEmpty(t, cl.Interpretation)
	}
	assert.Equal(t, []model.Component{model.EOM}, m.Clusters[1].Dominant)
	assert.Contains(t, m.Clusters[2].Interpretation, "burst buying")

	for i, v := range vectors {
		assert.Equal(t, i%3, []int{0, 2, 1}[m.Assign(v)], "user %d", i)
	}
}

func TestClusterer_Deterministic(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	vectors := make([]model.Vector, 200)
	for i := range vectors {
		for _, c := range model.Components {
			vectors[i][c] = rnd.Float64()
		}
	}

	c := newClusterer(t, DefaultConfig())
	m1 := c.Fit(vectors)
	m2 := c.Fit(vectors)

	assert.Equal(t, m1, m2)
	require.Len(t, m1.Clusters, DefaultClusters)
	for _, v := range vectors {
		assert.Equal(t, m1.Assign(v), m2.Assign(v))
	}
}

func TestClusterer_UniqueLabels(t *testing.T) {
	type test struct {
		seed     int64
		users    int
		clusters int
	}

	tests := map[string]test{
		"default":      {seed: 1, users: 400, clusters: DefaultClusters},
		"other-seed":   {seed: 7, users: 400, clusters: DefaultClusters},
		"max-clusters": {seed: 3, users: 600, clusters: MaxClusters},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			rnd := rand.New(rand.NewSource(tt.seed))
			vectors := make([]model.Vector, tt.users)
			for i := range vectors {
				for _, c := range model.Components {
					vectors[i][c] = rnd.Float64()
				}
			}
			cfg := DefaultConfig()
			cfg.Clusters = tt.clusters
			m := newClusterer(t, cfg).Fit(vectors)

			require.Len(t, m.Clusters, tt.clusters)
			labels := make(map[string]int)
			for _, cl := range m.Clusters {
				labels[cl.Label]++
			}
			assert.Len(t, labels, len(m.Clusters), "%v", labels)
		})
	}
}

func TestClusterer_Degenerate(t *testing.T) {
	type test struct {
		vectors []model.Vector
		size    int
	}

	tests := map[string]test{
		"identical": {
			vectors: []model.Vector{
				{0.1, 0.2, 0.3, 0.4, 0.5},
				{0.1, 0.2, 0.3, 0.4, 0.5},
				{0.1, 0.2, 0.3, 0.4, 0.5},
				{0.1, 0.2, 0.3, 0.4, 0.5},
			},
			size: 4,
		},
		"all-zero": {
			vectors: make([]model.Vector, 20),
			size:    20,
		},
		"empty": {
			size: 0,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			c := newClusterer(t, DefaultConfig())
			m := c.Fit(tt.vectors)
			assert.True(t, m.Degenerate)
			require.Len(t, m.Clusters, 1)
			assert.Equal(t, model.Unclassified, m.Clusters[0].Label)
			assert.Equal(t, tt.size, m.Clusters[0].Size)
			for _, v := range tt.vectors {
				assert.Equal(t, 0, m.Assign(v))
			}
			p := m.Persona(model.Vector{}, map[string]float64{"tx_count": 2})
			assert.Equal(t, model.Unclassified, p.Label)
			assert.Equal(t, 0, p.ClusterID)
			assert.Equal(t, 2.0, p.KeyStats["tx_count"])
		})
	}
}

func TestClusterer_Sample(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Clusters = 3
	cfg.MaxFitUsers = 12
	c := newClusterer(t, cfg)

	m := c.Fit(groups(10))
	assert.Equal(t, 12, m.Sampled)
	var size int
	for _, cl := range m.Clusters {
		size += cl.Size
	}
	assert.Equal(t, 12, size)
	assert.Equal(t, m, c.Fit(groups(10)))
}

func TestModel_AssignTies(t *testing.T) {
	m := &Model{
		Clusters: []Cluster{
			{ID: 0, Centroid: model.Vector{0, 0, 0, 0, 0}},
			{ID: 1, Centroid: model.Vector{1, 0, 0, 0, 0}},
			{ID: 2, Centroid: model.Vector{1, 0, 0, 0, 0}},
		},
	}

	assert.Equal(t, 0, m.Assign(model.Vector{0.5, 0, 0, 0, 0}))
	assert.Equal(t, 1, m.Assign(model.Vector{0.9, 0, 0, 0, 0}))
}

func TestConfig_Validate(t *testing.T) {
	type test struct {
		cfg func(c *Config)
		err bool
	}

	tests := map[string]test{
		"default": {
			cfg: func(c *Config) {},
		},
		"no-clusters": {
			cfg: func(c *Config) { c.Clusters = 0 },
			err: true,
		},
		"too-many-clusters": {
			cfg: func(c *Config) { c.Clusters = MaxClusters + 1 },
			err: true,
		},
		"no-iterations": {
			cfg: func(c *Config) { c.MaxIterations = 0 },
			err: true,
		},
		"no-fit-users": {
			cfg: func(c *Config) { c.MaxFitUsers = 0 },
			err: true,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.cfg(&cfg)
			err := cfg.Validate()
			if tt.err {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
