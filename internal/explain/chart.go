package explain

import (
	"sort"

	"github.com/drakos74/impulse/internal/features"
	coinmath "github.com/drakos74/impulse/internal/math"
	"github.com/drakos74/impulse/internal/model"
)

// ChartSeries turns the aggregates of a user into chart ready series.
func ChartSeries(agg features.Aggregates) model.ChartSeries {
	series := model.ChartSeries{
		DailySpend: make([]model.DailyPoint, len(agg.Days)),
		Hourly:     make([]model.HourCount, len(agg.Hours)),
		Categories: make([]model.CategoryShare, len(agg.Categories)),
		EOM: model.EOMComparison{
			Last5Days:   agg.EOMSpend,
			RestOfMonth: agg.RestSpend,
		},
	}

	for i, d := range agg.Days {
		series.DailySpend[i] = model.DailyPoint{
			Date:    d.Date,
			Value:   d.Spend,
			IsSpike: d.SpendZ > features.SpikeThreshold,
		}
	}

	for h, c := range agg.Hours {
		series.Hourly[h] = model.HourCount{
			Hour:  h,
			Count: c,
		}
	}

	shares := coinmath.Shares(agg.CategoryWeights())
	for i, c := range agg.Categories {
		series.Categories[i] = model.CategoryShare{
			Category: c.Key,
			Share:    shares[i],
		}
	}
	sort.SliceStable(series.Categories, func(i, j int) bool {
		if series.Categories[i].Share == series.Categories[j].Share {
			return series.Categories[i].Category < series.Categories[j].Category
		}
		return series.Categories[i].Share > series.Categories[j].Share
	})

	return series
}
