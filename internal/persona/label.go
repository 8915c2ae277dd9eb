package persona

import (
	"fmt"
	"sort"
	"strings"

	coinmath "github.com/drakos74/impulse/internal/math"
	"github.com/drakos74/impulse/internal/model"
)

// dominance is the margin by which a centroid must exceed the population mean for a dimension to dominate.
const dominance = 0.05

const steady = "Steady spender"

var single = map[model.Component]string{
	model.Spike:    "Spike spender",
	model.Burst:    "Impulse burst buyer",
	model.EOM:      "End-of-month splurger",
	model.Timing:   "Late-night spender",
	model.Category: "Category-loyal spender",
}

type pair struct {
	a, b model.Component
}

var pairs = map[pair]string{
	{model.Burst, model.Timing}: "Late-night / burst spender",
	{model.Spike, model.Burst}:  "Spike / burst spender",
	{model.Spike, model.EOM}:    "Payday splurger",
}

// dominant returns the dimensions where the centroid exceeds the mean, by descending excess.
func dominant(centroid, mean model.Vector) []model.Component {
	dims := make([]model.Component, 0)
	for _, c := range model.Components {
		if centroid.Get(c)-mean.Get(c) > dominance {
			dims = append(dims, c)
		}
	}
	sort.SliceStable(dims, func(i, j int) bool {
		return centroid.Get(dims[i])-mean.Get(dims[i]) > centroid.Get(dims[j])-mean.Get(dims[j])
	})
	return dims
}

func label(dims []model.Component) string {
	if len(dims) == 0 {
		return steady
	}
	if len(dims) > 1 {
		a, b := dims[0], dims[1]
		if a > b {
			a, b = b, a
		}
		if l, ok := pairs[pair{a, b}]; ok {
			return l
		}
	}
	return single[dims[0]]
}

// unique returns the label of the dimensions that is not taken yet within the same fit.
// A taken label is qualified with the secondary dimensions, and numbered as a last resort.
func unique(dims []model.Component, taken map[string]bool) string {
	l := label(dims)
	if !taken[l] {
		return l
	}
	if len(dims) > 1 {
		names := make([]string, len(dims)-1)
		for i, c := range dims[1:] {
			names[i] = c.String()
		}
		qualified := fmt.Sprintf("%s (%s)", l, strings.Join(names, ", "))
		if !taken[qualified] {
			return qualified
		}
	}
	for n := 2; ; n++ {
		numbered := fmt.Sprintf("%s %d", l, n)
		if !taken[numbered] {
			return numbered
		}
	}
}

func interpretation(dims []model.Component, centroid, mean model.Vector) string {
	if len(dims) == 0 {
		return "No indicator stands out from the population average; spending is relatively steady across time and categories."
	}
	if len(dims) > 2 {
		dims = dims[:2]
	}
	parts := make([]string, len(dims))
	for i, c := range dims {
		parts[i] = fmt.Sprintf("%s (%s vs %s on average)",
			strings.ToLower(c.Label()),
			coinmath.Format(centroid.Get(c)),
			coinmath.Format(mean.Get(c)))
	}
	return fmt.Sprintf("Stands out on %s.", strings.Join(parts, " and "))
}

const unclassifiedInterpretation = "All users share the same behavioural pattern, no distinct personas could be formed."
