package score

import (
	"errors"
	"fmt"
	"math"

	coinmath "github.com/drakos74/impulse/internal/math"
	"github.com/drakos74/impulse/internal/model"
)

// ErrInvalidWeights is returned for weight configurations that do not sum up to 1.
var ErrInvalidWeights = errors.New("invalid weights")

const tolerance = 1e-9

// Weights holds the weight of every component in the composite score.
type Weights model.Vector

// DefaultWeights are the weights of the impulse score.
var DefaultWeights = Weights{0.25, 0.25, 0.20, 0.15, 0.15}

// WeightsFromMap builds the weights from a map keyed by component name.
// Every component must be present exactly once.
func WeightsFromMap(m map[string]float64) (Weights, error) {
	var w Weights
	for k, f := range m {
		c, ok := model.ParseComponent(k)
		if !ok {
			return w, fmt.Errorf("unknown component '%s': %w", k, ErrInvalidWeights)
		}
		w[c] = f
	}
	for _, c := range model.Components {
		if _, ok := m[c.String()]; !ok {
			return w, fmt.Errorf("missing component '%s': %w", c, ErrInvalidWeights)
		}
	}
	return w, w.Validate()
}

// Get returns the weight of the component.
func (w Weights) Get(c model.Component) float64 {
	return w[c]
}

// Sum returns the sum of all weights.
func (w Weights) Sum() float64 {
	var s float64
	for _, f := range w {
		s += f
	}
	return s
}

// Validate checks that the weights are non-negative and sum up to 1.
func (w Weights) Validate() error {
	for _, c := range model.Components {
		f := w.Get(c)
		if math.IsNaN(f) || f < 0 {
			return fmt.Errorf("weight for '%s' is %v: %w", c, f, ErrInvalidWeights)
		}
	}
	if s := w.Sum(); math.Abs(s-1) > tolerance {
		return fmt.Errorf("weights sum up to %v: %w", s, ErrInvalidWeights)
	}
	return nil
}

// MarshalJSON encodes the weights keyed by component name.
func (w Weights) MarshalJSON() ([]byte, error) {
	return model.Vector(w).MarshalJSON()
}

// UnmarshalJSON decodes the weights from an object keyed by component name.
func (w *Weights) UnmarshalJSON(b []byte) error {
	var v model.Vector
	if err := v.UnmarshalJSON(b); err != nil {
		return err
	}
	*w = Weights(v)
	return nil
}

// Composer computes the composite impulse score from normalized features.
type Composer struct {
	weights Weights
}

// NewComposer creates a new composer for the given weights.
func NewComposer(weights Weights) (*Composer, error) {
	if err := weights.Validate(); err != nil {
		return nil, err
	}
	return &Composer{weights: weights}, nil
}

// Weights returns the weights of the composer.
func (c *Composer) Weights() Weights {
	return c.weights
}

// Contributions returns the weighted contribution of every component.
func (c *Composer) Contributions(normalized model.Vector) model.Vector {
	var v model.Vector
	for _, cc := range model.Components {
		v[cc] = c.weights.Get(cc) * coinmath.Clip(normalized.Get(cc))
	}
	return v
}

// Value returns the composite score in [0,100].
func (c *Composer) Value(normalized model.Vector) int {
	var sum float64
	for _, f := range c.Contributions(normalized) {
		sum += f
	}
	value := int(math.Round(100 * sum))
	if value < 0 {
		return 0
	}
	if value > 100 {
		return 100
	}
	return value
}

// Score computes the risk score of a user.
func (c *Composer) Score(cardID string, normalized model.Vector) model.RiskScore {
	value := c.Value(normalized)
	var breakdown model.Vector
	for _, cc := range model.Components {
		breakdown[cc] = coinmath.Clip(normalized.Get(cc))
	}
	return model.RiskScore{
		CardID:    cardID,
		Value:     value,
		Band:      model.BandOf(value),
		Breakdown: breakdown,
	}
}
