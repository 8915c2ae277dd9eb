package features

import (
	"math"
	"sort"
	"time"

	"github.com/drakos74/impulse/internal/buffer"
	coinmath "github.com/drakos74/impulse/internal/math"
	"github.com/drakos74/impulse/internal/model"
	cointime "github.com/drakos74/impulse/internal/time"
)

// Day is the activity of one calendar day.
type Day struct {
	Date   string  `json:"date"`
	Spend  float64 `json:"spend"`
	Count  int     `json:"count"`
	SpendZ float64 `json:"spend_z"`
	CountZ float64 `json:"count_z"`
}

// CategorySpend is the activity within one category.
type CategorySpend struct {
	Key   string  `json:"key"`
	Spend float64 `json:"spend"`
	Count int     `json:"count"`
}

// Aggregates are the per-user aggregates every feature is derived from.
type Aggregates struct {
	Days       []Day           `json:"days"`
	Hours      [24]int         `json:"hours"`
	Categories []CategorySpend `json:"categories"`
	EOMSpend   float64         `json:"eom_spend"`
	RestSpend  float64         `json:"rest_spend"`
	EOMCount   int             `json:"eom_count"`
	RestCount  int             `json:"rest_count"`
	Night      int             `json:"night"`
	Weekend    int             `json:"weekend"`
	Short      int             `json:"short_window"`
	Long       int             `json:"long_window"`
	QuickGaps  int             `json:"quick_gaps"`
	Gaps       int             `json:"gaps"`
	Total      *buffer.Stats   `json:"-"`
}

// amount is the absolute spend of a transaction, 0 if not a number.
func amount(tx model.Transaction) float64 {
	return math.Abs(coinmath.Finite(tx.Amount))
}

func (e *Extractor) aggregate(txs []model.Transaction) Aggregates {
	agg := Aggregates{
		Total: buffer.NewStats(),
	}

	days := make(map[int64]*Day)
	categories := make(map[string]*CategorySpend)
	short := buffer.NewWindow(e.ShortWindow)
	long := buffer.NewWindow(e.LongWindow)
	dayHash := cointime.NewHash(cointime.Day)

	var last time.Time
	for i, tx := range txs {
		a := amount(tx)
		agg.Total.Push(a)

		d := dayHash.Do(tx.Time)
		if _, ok := days[d]; !ok {
			days[d] = &Day{Date: dayHash.Undo(d).Format(model.DateFormat)}
		}
		days[d].Spend += a
		days[d].Count++

		agg.Hours[tx.Time.UTC().Hour()]++

		key := tx.CategoryKey()
		if _, ok := categories[key]; !ok {
			categories[key] = &CategorySpend{Key: key}
		}
		categories[key].Spend += a
		categories[key].Count++

		if cointime.IsEOM(tx.Time) {
			agg.EOMSpend += a
			agg.EOMCount++
		} else {
			agg.RestSpend += a
			agg.RestCount++
		}
		if cointime.IsNight(tx.Time) {
			agg.Night++
		}
		if cointime.IsWeekend(tx.Time) {
			agg.Weekend++
		}

		short.Push(tx.Time)
		long.Push(tx.Time)
		if i > 0 {
			agg.Gaps++
			if gap := tx.Time.Sub(last); gap >= 0 && gap <= e.ShortWindow {
				agg.QuickGaps++
			}
		}
		last = tx.Time
	}
	agg.Short = short.Max()
	agg.Long = long.Max()

	keys := make([]int64, 0, len(days))
	for k := range days {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	agg.Days = make([]Day, len(keys))
	spend := make([]float64, len(keys))
	count := make([]float64, len(keys))
	for i, k := range keys {
		agg.Days[i] = *days[k]
		spend[i] = agg.Days[i].Spend
		count[i] = float64(agg.Days[i].Count)
	}
	spendZ := coinmath.RobustZ(spend)
	countZ := coinmath.RobustZ(count)
	for i := range agg.Days {
		agg.Days[i].SpendZ = spendZ[i]
		agg.Days[i].CountZ = countZ[i]
	}

	agg.Categories = make([]CategorySpend, 0, len(categories))
	for _, c := range categories {
		agg.Categories = append(agg.Categories, *c)
	}
	sort.Slice(agg.Categories, func(i, j int) bool {
		return agg.Categories[i].Key < agg.Categories[j].Key
	})

	return agg
}

// CategoryWeights returns the spend per category, or the count if there is no spend at all.
func (agg Aggregates) CategoryWeights() []float64 {
	ww := make([]float64, len(agg.Categories))
	bySpend := agg.Total.Sum() > 0
	for i, c := range agg.Categories {
		if bySpend {
			ww[i] = c.Spend
		} else {
			ww[i] = float64(c.Count)
		}
	}
	return ww
}
