package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/drakos74/impulse/internal/concurrent"
	"github.com/drakos74/impulse/internal/explain"
	"github.com/drakos74/impulse/internal/features"
	"github.com/drakos74/impulse/internal/model"
	"github.com/drakos74/impulse/internal/persona"
	"github.com/drakos74/impulse/internal/provider"
	"github.com/drakos74/impulse/internal/score"
	"github.com/rs/zerolog/log"
)

const progressStep = 10_000

// user is the fitted state of a single card.
type user struct {
	extraction features.Extraction
	normalized model.Vector
	score      model.RiskScore
	cluster    int
}

// Result is the immutable outcome of training a dataset.
type Result struct {
	datasetID  string
	cards      []string
	users      map[string]*user
	normalizer *score.Normalizer
	composer   *score.Composer
	personas   *persona.Model
	explainer  *explain.Explainer
	options    Options
	duration   time.Duration
}

// Train extracts, normalizes, scores and clusters all users of the dataset.
func Train(ctx context.Context, d *provider.Dataset, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	composer, err := score.NewComposer(opts.Weights)
	if err != nil {
		return nil, err
	}
	start := time.Now()

	extractor := features.NewExtractor()
	extractions := make([]features.Extraction, len(d.Cards))
	progress := concurrent.NewCounter(nil)
	err = concurrent.Each(ctx, len(d.Cards), opts.Workers, func(i int) {
		card := d.Cards[i]
		extractions[i] = extractor.Extract(card, d.Transactions[card])
		if n := progress.Track(); n%progressStep == 0 {
			log.Debug().Str("dataset", d.ID).Int("users", n).Int("total", len(d.Cards)).Msg("extracted features")
		}
	})
	if err != nil {
		return nil, fmt.Errorf("could not extract features for '%s': %w", d.ID, err)
	}

	raw := make([]model.Vector, len(extractions))
	for i, ex := range extractions {
		raw[i] = ex.Raw
	}
	normalizer := score.Fit(raw)

	normalized := make([]model.Vector, len(raw))
	for i, r := range raw {
		normalized[i] = normalizer.Apply(r)
	}
	personas := persona.New(opts.Persona, composer).Fit(normalized)

	r := &Result{
		datasetID:  d.ID,
		cards:      d.Cards,
		users:      make(map[string]*user, len(d.Cards)),
		normalizer: normalizer,
		composer:   composer,
		personas:   personas,
		explainer:  explain.New(composer, normalizer),
		options:    opts,
	}
	for i, card := range d.Cards {
		r.users[card] = &user{
			extraction: extractions[i],
			normalized: normalized[i],
			score:      composer.Score(card, normalized[i]),
			cluster:    personas.Assign(normalized[i]),
		}
	}
	r.duration = time.Since(start)

	log.Info().
		Str("dataset", d.ID).
		Int("users", len(d.Cards)).
		Int("rows", d.Rows).
		Int("personas", len(personas.Clusters)).
		Bool("degenerate", personas.Degenerate).
		Dur("duration", r.duration).
		Msg("trained dataset")
	return r, nil
}

// DatasetID is the id of the trained dataset.
func (r *Result) DatasetID() string {
	return r.datasetID
}

// Duration is the time the training took.
func (r *Result) Duration() time.Duration {
	return r.duration
}

// Size is the number of users of the result.
func (r *Result) Size() int {
	return len(r.cards)
}

// Analyze explains the score of a single user.
func (r *Result) Analyze(cardID string) (model.AnalyzeResult, error) {
	u, ok := r.users[cardID]
	if !ok {
		return model.AnalyzeResult{}, fmt.Errorf("card '%s' in dataset '%s': %w", cardID, r.datasetID, model.ErrUnknownCard)
	}
	return r.explainer.Explain(u.extraction, u.normalized, r.persona(u)), nil
}

// Score returns the risk score of a single user.
func (r *Result) Score(cardID string) (model.RiskScore, error) {
	u, ok := r.users[cardID]
	if !ok {
		return model.RiskScore{}, fmt.Errorf("card '%s' in dataset '%s': %w", cardID, r.datasetID, model.ErrUnknownCard)
	}
	return u.score, nil
}

func (r *Result) persona(u *user) model.Persona {
	keyStats := u.normalized.Map()
	keyStats["tx_count"] = float64(u.extraction.Stats.TxCount)
	keyStats["total_spend"] = u.extraction.Stats.TotalSpend
	return r.personas.Persona(u.normalized, keyStats)
}

// Users lists the users of the dataset, sorted by card id.
func (r *Result) Users() []model.User {
	users := make([]model.User, len(r.cards))
	for i, card := range r.cards {
		u := r.users[card]
		users[i] = model.User{
			CardID:    card,
			TxCount:   u.extraction.Stats.TxCount,
			DateRange: u.extraction.Range,
			Score:     u.score.Value,
			Band:      u.score.Band,
		}
	}
	return users
}

// Personas lists the fitted personas.
func (r *Result) Personas() []persona.Cluster {
	return r.personas.Clusters
}
