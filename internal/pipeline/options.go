package pipeline

import (
	"fmt"
	"runtime"

	"github.com/drakos74/impulse/internal/persona"
	"github.com/drakos74/impulse/internal/score"
)

// Options configures a training run.
type Options struct {
	Weights score.Weights  `json:"weights"`
	Persona persona.Config `json:"persona"`
	Workers int            `json:"workers"`
}

// DefaultOptions returns the default training options.
func DefaultOptions() Options {
	return Options{
		Weights: score.DefaultWeights,
		Persona: persona.DefaultConfig(),
		Workers: runtime.GOMAXPROCS(0),
	}
}

// Validate checks the options before a run.
func (o Options) Validate() error {
	if err := o.Weights.Validate(); err != nil {
		return err
	}
	if err := o.Persona.Validate(); err != nil {
		return fmt.Errorf("invalid persona config: %w", err)
	}
	return nil
}
