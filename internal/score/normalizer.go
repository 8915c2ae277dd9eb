package score

import (
	coinmath "github.com/drakos74/impulse/internal/math"
	"github.com/drakos74/impulse/internal/model"
)

const (
	// AnchorPercentile is the dataset percentile that maps to a normalized value of 1.
	AnchorPercentile = 0.95
	// EvidencePercentile is the dataset percentile a raw value must exceed to be cited as evidence.
	EvidencePercentile = 0.75
)

// Normalizer scales raw features into [0,1] against dataset wide percentile anchors.
type Normalizer struct {
	Anchors    model.Vector `json:"anchors"`
	Thresholds model.Vector `json:"thresholds"`
}

// Fit computes the anchors and evidence thresholds over the raw vectors of all users of a dataset.
func Fit(raw []model.Vector) *Normalizer {
	n := &Normalizer{}
	values := make([]float64, len(raw))
	for _, c := range model.Components {
		for i, v := range raw {
			values[i] = coinmath.Finite(v.Get(c))
		}
		n.Anchors[c] = coinmath.Percentile(values, AnchorPercentile)
		n.Thresholds[c] = coinmath.Percentile(values, EvidencePercentile)
	}
	return n
}

// Normalize scales a single raw value of the given component.
// The result is 0 when the anchor is 0.
func (n *Normalizer) Normalize(c model.Component, raw float64) float64 {
	anchor := n.Anchors.Get(c)
	if anchor <= 0 || raw <= 0 {
		return 0
	}
	return coinmath.Clip(raw / anchor)
}

// Apply scales a raw vector into a normalized one.
func (n *Normalizer) Apply(raw model.Vector) model.Vector {
	var v model.Vector
	for _, c := range model.Components {
		v[c] = n.Normalize(c, raw.Get(c))
	}
	return v
}

// Exceeds checks if the raw value of the component is above the dataset evidence threshold.
func (n *Normalizer) Exceeds(c model.Component, raw float64) bool {
	return raw > 0 && raw > n.Thresholds.Get(c)
}
