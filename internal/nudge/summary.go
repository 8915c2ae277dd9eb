package nudge

import "github.com/drakos74/impulse/internal/model"

// NewSummary builds the only payload that is ever shared with a generator.
func NewSummary(r model.AnalyzeResult) model.Summary {
	metrics := make(map[string]float64, model.NumComponents+len(r.Profile.KeyStats))
	for k, v := range r.Breakdown.Map() {
		metrics[k] = v
	}
	for k, v := range r.Profile.KeyStats {
		if _, ok := metrics[k]; !ok {
			metrics[k] = v
		}
	}
	drivers := make([]string, len(r.TopDrivers))
	copy(drivers, r.TopDrivers)
	return model.Summary{
		Score:      r.Score,
		Band:       r.Band,
		Profile:    r.Profile.Label,
		TopDrivers: drivers,
		Metrics:    metrics,
	}
}
