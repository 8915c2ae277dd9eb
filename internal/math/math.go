package math

import (
	"math"
	"strconv"
)

// Format formats a float based on the given precision
func Format(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}

// Percent formats a ratio as a rounded percentage.
func Percent(f float64) string {
	return strconv.Itoa(int(math.Round(100*f))) + "%"
}

// Finite replaces NaN and infinite values with 0.
func Finite(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// Clip clips the value to the [0,1] range.
func Clip(f float64) float64 {
	f = Finite(f)
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// Ratio divides a by b and returns 0 if the division is not defined.
func Ratio(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return Finite(a / b)
}
