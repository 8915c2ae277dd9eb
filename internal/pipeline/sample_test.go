package pipeline

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/drakos74/impulse/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func population() []model.User {
	sizes := map[model.Band]int{
		model.Low:      10,
		model.Medium:   6,
		model.High:     3,
		model.Critical: 1,
	}
	users := make([]model.User, 0)
	for _, b := range model.Bands {
		for i := 0; i < sizes[b]; i++ {
			users = append(users, model.User{
				CardID: fmt.Sprintf("%s_%02d", b, i),
				Band:   b,
			})
		}
	}
	return users
}

func TestSample(t *testing.T) {
	type test struct {
		n     int
		size  int
		bands map[model.Band]int
	}

	tests := map[string]test{
		"none": {
			n:     0,
			size:  0,
			bands: map[model.Band]int{},
		},
		"proportional": {
			n:    8,
			size: 8,
			bands: map[model.Band]int{
				model.Low:      4,
				model.Medium:   2,
				model.High:     1,
				model.Critical: 1,
			},
		},
		"fewer-than-bands": {
			n:    3,
			size: 3,
			bands: map[model.Band]int{
				model.Low:    1,
				model.Medium: 1,
				model.High:   1,
			},
		},
		"all": {
			n:    50,
			size: 20,
			bands: map[model.Band]int{
				model.Low:      10,
				model.Medium:   6,
				model.High:     3,
				model.Critical: 1,
			},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			sample := Sample(population(), tt.n, 42)
			require.Len(t, sample, tt.size)
			bands := make(map[model.Band]int)
			for i, u := range sample {
				bands[u.Band]++
				if i > 0 {
					assert.Less(t, sample[i-1].CardID, u.CardID)
				}
			}
			assert.Equal(t, tt.bands, bands)
		})
	}
}

func TestSample_Deterministic(t *testing.T) {
	users := population()
	sample := Sample(users, 7, 42)
	assert.Equal(t, sample, Sample(users, 7, 42))

	shuffled := population()
	rand.New(rand.NewSource(1)).Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	assert.Equal(t, sample, Sample(shuffled, 7, 42))
	assert.Equal(t, population(), users)
}

func TestSample_TopUp(t *testing.T) {
	users := []model.User{
		{CardID: "a", Band: model.Low},
		{CardID: "b", Band: model.Low},
		{CardID: "c", Band: model.Low},
		{CardID: "d", Band: model.Critical},
		{CardID: "e", Band: model.Critical},
	}
	sample := Sample(users, 4, 7)
	require.Len(t, sample, 4)
	bands := make(map[model.Band]int)
	for _, u := range sample {
		bands[u.Band]++
	}
	assert.GreaterOrEqual(t, bands[model.Low], 2)
	assert.GreaterOrEqual(t, bands[model.Critical], 1)
}
