package explain

import (
	"fmt"
	"sort"

	"github.com/drakos74/impulse/internal/features"
	coinmath "github.com/drakos74/impulse/internal/math"
	"github.com/drakos74/impulse/internal/model"
	"github.com/drakos74/impulse/internal/score"
	cointime "github.com/drakos74/impulse/internal/time"
)

const (
	// Materiality is the fraction of its weight a component must contribute to count as a driver.
	Materiality = 0.2
	// MaxEvidence is the maximum number of evidence statements.
	MaxEvidence = 5
)

// Explainer explains the score of a user against the fitted dataset state.
type Explainer struct {
	composer   *score.Composer
	normalizer *score.Normalizer
}

// New creates a new explainer.
func New(composer *score.Composer, normalizer *score.Normalizer) *Explainer {
	return &Explainer{
		composer:   composer,
		normalizer: normalizer,
	}
}

// Explain builds the full analysis of a user.
func (e *Explainer) Explain(ex features.Extraction, normalized model.Vector, persona model.Persona) model.AnalyzeResult {
	s := e.composer.Score(ex.CardID, normalized)
	return model.AnalyzeResult{
		CardID:      ex.CardID,
		Score:       s.Value,
		Band:        s.Band,
		Breakdown:   s.Breakdown,
		TopDrivers:  Labels(e.TopDrivers(normalized)),
		Profile:     persona,
		ChartSeries: ChartSeries(ex.Aggregates),
		Evidence:    e.Evidence(ex),
	}
}

// TopDrivers ranks the material components by their weighted contribution.
// Ties keep the component order.
func (e *Explainer) TopDrivers(normalized model.Vector) []model.Component {
	contributions := e.composer.Contributions(normalized)
	weights := e.composer.Weights()
	drivers := make([]model.Component, 0, model.NumComponents)
	for _, c := range model.Components {
		contribution := contributions.Get(c)
		if contribution > 0 && contribution >= Materiality*weights.Get(c) {
			drivers = append(drivers, c)
		}
	}
	sort.SliceStable(drivers, func(i, j int) bool {
		return contributions.Get(drivers[i]) > contributions.Get(drivers[j])
	})
	return drivers
}

// Labels maps the components to their human readable labels.
func Labels(cc []model.Component) []string {
	labels := make([]string, len(cc))
	for i, c := range cc {
		labels[i] = c.Label()
	}
	return labels
}

// Evidence lists the statistics behind every component that stands out against the dataset.
func (e *Explainer) Evidence(ex features.Extraction) []string {
	evidence := make([]string, 0, MaxEvidence)
	for _, c := range model.Components {
		if len(evidence) == MaxEvidence {
			break
		}
		if !e.normalizer.Exceeds(c, ex.Raw.Get(c)) {
			continue
		}
		evidence = append(evidence, statement(c, ex.Stats))
	}
	return evidence
}

func statement(c model.Component, s features.Stats) string {
	switch c {
	case model.Spike:
		return fmt.Sprintf("Daily spend or transaction count peaked at %s robust deviations above the usual level, with %d spike day(s).",
			coinmath.Format(s.PeakZ), s.SpikeDays)
	case model.Burst:
		return fmt.Sprintf("Largest 2-hour window had %d transactions (%d within 30 minutes), %s of gaps were under 30 minutes.",
			s.Long, s.Short, coinmath.Percent(s.QuickGapShare))
	case model.EOM:
		return fmt.Sprintf("%s of spend and %s of transactions fell in the last %d days of the month, against about %s for an even spread.",
			coinmath.Percent(s.EOMSpendShare), coinmath.Percent(s.EOMCountShare),
			int(cointime.EOMDays), coinmath.Percent(cointime.EOMDays/cointime.AvgMonthDays))
	case model.Timing:
		return fmt.Sprintf("%s of transactions occurred late at night (22:00-04:59) and %s on weekends.",
			coinmath.Percent(s.NightShare), coinmath.Percent(s.WeekendShare))
	case model.Category:
		return fmt.Sprintf("Spending was concentrated in few categories (%s in %s, across %d categories).",
			coinmath.Percent(s.TopShare), s.TopCategory, s.Categories)
	}
	return ""
}
