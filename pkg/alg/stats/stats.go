// Package stats provides the column statistics used by stratifiers and topic
// summaries. Every function skips NaN values, which stand for blank or
// unparsable cells.
package stats

import (
	"math"
	"slices"
)

// Well-known percentile thresholds.
const (
	PercentileMedian = 0.5
)

// Valid returns the non-NaN values of values. The input is not modified.
func Valid(values []float64) []float64 {
	out := make([]float64, 0, len(values))

	for _, v := range values {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}

	return out
}

// Sum returns the sum of the non-NaN values.
func Sum(values []float64) float64 {
	var sum float64

	for _, v := range values {
		if !math.IsNaN(v) {
			sum += v
		}
	}

	return sum
}

// Mean returns the arithmetic mean of the non-NaN values.
// Returns NaN when there are none.
func Mean(values []float64) float64 {
	valid := Valid(values)
	if len(valid) == 0 {
		return math.NaN()
	}

	return Sum(valid) / float64(len(valid))
}

// Percentile returns the p-th percentile of the non-NaN values using linear
// interpolation. p must be in [0, 1]. Returns NaN when there are no values.
func Percentile(values []float64, p float64) float64 {
	sorted := Valid(values)

	count := len(sorted)
	if count == 0 {
		return math.NaN()
	}

	slices.Sort(sorted)

	idx := p * float64(count-1)
	lower := int(math.Floor(idx))
	upper := int(math.Ceil(idx))

	if lower == upper || upper >= count {
		return sorted[lower]
	}

	frac := idx - float64(lower)

	return sorted[lower]*(1-frac) + sorted[upper]*frac
}

// Median returns the 50th percentile of the non-NaN values.
func Median(values []float64) float64 {
	return Percentile(values, PercentileMedian)
}
