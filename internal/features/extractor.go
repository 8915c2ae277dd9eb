package features

import (
	"math"
	"time"

	coinmath "github.com/drakos74/impulse/internal/math"
	"github.com/drakos74/impulse/internal/model"
	cointime "github.com/drakos74/impulse/internal/time"
)

const (
	// MinObservations is the number of transactions below which all features are neutral.
	MinObservations = 3
	// SpikeThreshold is the robust z-score above which a day counts as a spike.
	SpikeThreshold = 2.0
)

var hourEntropyMax = math.Log2(24)

// Stats are the statistics behind the raw features, cited by the evidence.
type Stats struct {
	TxCount       int     `json:"tx_count"`
	TotalSpend    float64 `json:"total_spend"`
	ActiveDays    int     `json:"active_days"`
	SpikeDays     int     `json:"spike_days"`
	PeakZ         float64 `json:"peak_z"`
	Short         int     `json:"max_tx_in_30min"`
	Long          int     `json:"max_tx_in_2h"`
	QuickGapShare float64 `json:"burst_ratio_30min"`
	EOMSpendShare float64 `json:"eom_spend_share"`
	EOMCountShare float64 `json:"eom_count_share"`
	HourEntropy   float64 `json:"hour_entropy"`
	NightShare    float64 `json:"late_night_ratio"`
	WeekendShare  float64 `json:"weekend_ratio"`
	Categories    int     `json:"category_diversity"`
	TopCategory   string  `json:"top_category"`
	TopShare      float64 `json:"category_concentration"`
}

// Extraction is the outcome of the feature extraction for one user.
type Extraction struct {
	CardID     string          `json:"card_id"`
	Raw        model.Vector    `json:"raw"`
	Stats      Stats           `json:"stats"`
	Aggregates Aggregates      `json:"aggregates"`
	Range      model.DateRange `json:"date_range"`
}

// Extractor turns the transactions of a user into a raw feature vector.
type Extractor struct {
	MinObservations int
	ShortWindow     time.Duration
	LongWindow      time.Duration
}

// NewExtractor creates a new extractor with the default configuration.
func NewExtractor() *Extractor {
	return &Extractor{
		MinObservations: MinObservations,
		ShortWindow:     30 * time.Minute,
		LongWindow:      2 * time.Hour,
	}
}

// Extract computes the features of a single user.
// Transactions are expected in chronological order.
// Users with fewer than MinObservations transactions get a neutral (zero) vector,
// their aggregates are still populated.
func (e *Extractor) Extract(cardID string, txs []model.Transaction) Extraction {
	ex := Extraction{
		CardID: cardID,
	}
	agg := e.aggregate(txs)
	ex.Aggregates = agg
	ex.Stats = e.stats(agg)
	if len(txs) > 0 {
		ex.Range = model.NewDateRange(txs[0].Time, txs[len(txs)-1].Time)
	}

	if len(txs) < e.MinObservations {
		return ex
	}

	ex.Raw[model.Spike] = e.spike(agg)
	ex.Raw[model.Burst] = burst(agg)
	ex.Raw[model.EOM] = eom(ex.Stats)
	ex.Raw[model.Timing] = timing(ex.Stats)
	ex.Raw[model.Category] = category(agg)

	for i, v := range ex.Raw {
		v = coinmath.Finite(v)
		if v < 0 {
			v = 0
		}
		ex.Raw[i] = v
	}
	return ex
}

func (e *Extractor) stats(agg Aggregates) Stats {
	n := agg.Total.Count()
	s := Stats{
		TxCount:    n,
		TotalSpend: agg.Total.Sum(),
		ActiveDays: len(agg.Days),
		Short:      agg.Short,
		Long:       agg.Long,
		Categories: len(agg.Categories),
	}
	for _, d := range agg.Days {
		z := math.Max(d.SpendZ, d.CountZ)
		if z > SpikeThreshold {
			s.SpikeDays++
		}
		if z > s.PeakZ {
			s.PeakZ = z
		}
	}
	s.QuickGapShare = coinmath.Ratio(float64(agg.QuickGaps), float64(agg.Gaps))
	s.EOMSpendShare = coinmath.Ratio(agg.EOMSpend, agg.Total.Sum())
	s.EOMCountShare = coinmath.Ratio(float64(agg.EOMCount), float64(n))
	hours := make([]float64, len(agg.Hours))
	for h, c := range agg.Hours {
		hours[h] = float64(c)
	}
	s.HourEntropy = coinmath.Entropy(hours)
	s.NightShare = coinmath.Ratio(float64(agg.Night), float64(n))
	s.WeekendShare = coinmath.Ratio(float64(agg.Weekend), float64(n))

	shares := coinmath.Shares(agg.CategoryWeights())
	for i, c := range agg.Categories {
		if shares[i] > s.TopShare {
			s.TopShare = shares[i]
			s.TopCategory = c.Key
		}
	}
	return s
}

// spike is the largest positive robust deviation of daily spend or count from the user's own baseline.
func (e *Extractor) spike(agg Aggregates) float64 {
	if len(agg.Days) < e.MinObservations {
		return 0
	}
	var peak float64
	for _, d := range agg.Days {
		peak = math.Max(peak, math.Max(d.SpendZ, d.CountZ))
	}
	return peak
}

// burst grows with the density of the densest short and long windows.
func burst(agg Aggregates) float64 {
	if agg.Short == 0 {
		return 0
	}
	return float64(agg.Short-1) + float64(agg.Long-1)/2
}

// eom is the end-of-month share over the share expected from a uniform spender.
func eom(s Stats) float64 {
	expected := cointime.EOMDays / cointime.AvgMonthDays
	return math.Max(s.EOMSpendShare, s.EOMCountShare) / expected
}

// timing combines the concentration of the hour histogram with the night and weekend shares.
func timing(s Stats) float64 {
	concentration := 1 - s.HourEntropy/hourEntropyMax
	return 0.5*coinmath.Clip(concentration) + 0.3*s.NightShare + 0.2*s.WeekendShare
}

// category is the herfindahl index of the category shares.
func category(agg Aggregates) float64 {
	return coinmath.Herfindahl(agg.CategoryWeights())
}
