package math

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const (
	// madScale makes the median absolute deviation consistent with the standard deviation of a normal distribution.
	madScale = 1.4826
	// meanAbsScale makes the mean absolute deviation consistent with the standard deviation of a normal distribution.
	meanAbsScale = 1.2533
)

func sorted(xx []float64) []float64 {
	s := make([]float64, len(xx))
	copy(s, xx)
	sort.Float64s(s)
	return s
}

// Percentile returns the empirical p-quantile (p in [0,1]) of the values.
// An empty set returns 0.
func Percentile(xx []float64, p float64) float64 {
	if len(xx) == 0 {
		return 0
	}
	if p < 0 {
		p = 0
	}
	if p > 1 {
		p = 1
	}
	return stat.Quantile(p, stat.Empirical, sorted(xx), nil)
}

// Median returns the median of the values, averaging the middle pair for even sets.
func Median(xx []float64) float64 {
	n := len(xx)
	if n == 0 {
		return 0
	}
	s := sorted(xx)
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}

// MAD returns the median absolute deviation around the given center.
func MAD(xx []float64, center float64) float64 {
	dev := make([]float64, len(xx))
	for i, x := range xx {
		dev[i] = math.Abs(x - center)
	}
	return Median(dev)
}

// Spread returns a robust estimate of the spread of the values around the center.
// It uses the scaled MAD and falls back to the scaled mean absolute deviation
// when more than half of the values sit on the center.
func Spread(xx []float64, center float64) float64 {
	if len(xx) == 0 {
		return 0
	}
	if mad := MAD(xx, center); mad > 0 {
		return madScale * mad
	}
	dev := make([]float64, len(xx))
	for i, x := range xx {
		dev[i] = math.Abs(x - center)
	}
	return meanAbsScale * floats.Sum(dev) / float64(len(dev))
}

// RobustZ returns the robust z-score of every value, 0 everywhere if there is no spread.
func RobustZ(xx []float64) []float64 {
	zz := make([]float64, len(xx))
	center := Median(xx)
	spread := Spread(xx, center)
	if spread == 0 {
		return zz
	}
	for i, x := range xx {
		zz[i] = Finite((x - center) / spread)
	}
	return zz
}

// Shares normalises the weights into shares that sum to 1.
// Negative weights count as 0, an all zero input returns all zero shares.
func Shares(ww []float64) []float64 {
	ss := make([]float64, len(ww))
	var total float64
	for i, w := range ww {
		if w > 0 {
			ss[i] = w
			total += w
		}
	}
	if total == 0 {
		return ss
	}
	floats.Scale(1/total, ss)
	return ss
}

// Entropy returns the shannon entropy in bits of the distribution defined by the given weights.
func Entropy(ww []float64) float64 {
	p := Shares(ww)
	if floats.Sum(p) == 0 {
		return 0
	}
	return Finite(stat.Entropy(p) / math.Ln2)
}

// Herfindahl returns the sum of squared shares of the given weights.
// It is 1 when a single weight holds everything and 1/n for n equal weights.
func Herfindahl(ww []float64) float64 {
	p := Shares(ww)
	return Finite(floats.Dot(p, p))
}
