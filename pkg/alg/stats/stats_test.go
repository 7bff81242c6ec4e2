package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValid_DropsNaN(t *testing.T) {
	t.Parallel()

	got := Valid([]float64{1, math.NaN(), 3})
	assert.Equal(t, []float64{1, 3}, got)
}

func TestSum(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 6.0, Sum([]float64{1, 2, math.NaN(), 3}), 0.0001)
	assert.InDelta(t, 0.0, Sum(nil), 0.0001)
}

func TestMean(t *testing.T) {
	t.Parallel()

	t.Run("skips_nan", func(t *testing.T) {
		t.Parallel()

		got := Mean([]float64{2, math.NaN(), 4})
		assert.InDelta(t, 3.0, got, 0.0001)
	})

	t.Run("empty_is_nan", func(t *testing.T) {
		t.Parallel()

		assert.True(t, math.IsNaN(Mean(nil)))
		assert.True(t, math.IsNaN(Mean([]float64{math.NaN()})))
	})
}

func TestMedian(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		values   []float64
		expected float64
	}{
		{name: "odd_count", values: []float64{5, 1, 3}, expected: 3},
		{name: "even_count_interpolates", values: []float64{4, 1, 3, 2}, expected: 2.5},
		{name: "single", values: []float64{7}, expected: 7},
		{name: "nan_skipped", values: []float64{math.NaN(), 10, 20}, expected: 15},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.InDelta(t, tt.expected, Median(tt.values), 0.0001)
		})
	}
}

func TestMedian_DoesNotModifyInput(t *testing.T) {
	t.Parallel()

	values := []float64{3, 1, 2}
	_ = Median(values)

	assert.Equal(t, []float64{3, 1, 2}, values)
}

func TestPercentile_Bounds(t *testing.T) {
	t.Parallel()

	values := []float64{10, 20, 30, 40}

	assert.InDelta(t, 10.0, Percentile(values, 0), 0.0001)
	assert.InDelta(t, 40.0, Percentile(values, 1), 0.0001)
	assert.True(t, math.IsNaN(Percentile(nil, 0.5)))
}
