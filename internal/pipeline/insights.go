package pipeline

import (
	"math"
	"sort"

	"github.com/drakos74/impulse/internal/buffer"
	"github.com/drakos74/impulse/internal/model"
)

// Insights aggregates the scores and personas of all users.
func (r *Result) Insights() model.Insights {
	insights := model.Insights{
		Users:         len(r.cards),
		BandCounts:    make(map[model.Band]int, len(model.Bands)),
		ClusterCounts: make(map[string]int),
	}
	for _, b := range model.Bands {
		insights.BandCounts[b] = 0
	}
	for _, cl := range r.personas.Clusters {
		insights.ClusterCounts[cl.Label] = 0
	}

	stats := buffer.NewStats()
	scores := make([]int, len(r.cards))
	for i, card := range r.cards {
		u := r.users[card]
		scores[i] = u.score.Value
		stats.Push(float64(u.score.Value))
		insights.BandCounts[u.score.Band]++
		insights.ClusterCounts[r.personas.Clusters[u.cluster].Label]++
	}
	insights.MeanScore = math.Round(100*stats.Avg()) / 100

	sort.Ints(scores)
	insights.P50 = nearestRank(scores, 0.50)
	insights.P75 = nearestRank(scores, 0.75)
	insights.P90 = nearestRank(scores, 0.90)
	return insights
}

// nearestRank returns the smallest value with at least p of the sorted values at or below it.
func nearestRank(sorted []int, p float64) int {
	if len(sorted) == 0 {
		return 0
	}
	rank := int(math.Ceil(p * float64(len(sorted))))
	if rank < 1 {
		rank = 1
	}
	return sorted[rank-1]
}
