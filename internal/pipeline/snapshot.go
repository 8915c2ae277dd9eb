package pipeline

import (
	"github.com/drakos74/impulse/internal/persona"
	"github.com/drakos74/impulse/internal/score"
)

// Snapshot holds the fitted parameters of a training run.
type Snapshot struct {
	DatasetID  string            `json:"dataset_id"`
	Users      int               `json:"users"`
	Normalizer *score.Normalizer `json:"normalizer"`
	Weights    score.Weights     `json:"weights"`
	Personas   *persona.Model    `json:"personas"`
}

// Model returns the snapshot of the fitted parameters.
func (r *Result) Model() Snapshot {
	return Snapshot{
		DatasetID:  r.datasetID,
		Users:      len(r.cards),
		Normalizer: r.normalizer,
		Weights:    r.composer.Weights(),
		Personas:   r.personas,
	}
}
