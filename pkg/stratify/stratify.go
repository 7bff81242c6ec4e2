// Package stratify derives binary stratifier columns from numeric columns.
package stratify

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/Sumatoshi-tech/adlens/pkg/alg/stats"
	"github.com/Sumatoshi-tech/adlens/pkg/dataset"
)

// ErrLengthMismatch is returned when source and target column lists differ
// in length.
var ErrLengthMismatch = errors.New("stratify: column lists differ in length")

// Stratifier cell values.
const (
	High = "1"
	Low  = "0"
)

// Make returns a copy of ds with column newCol set to High where strat is
// greater than thresh and Low elsewhere. A nil thresh uses the median of the
// parsable values of strat. Blank cells are Low.
func Make(ds *dataset.Dataset, strat, newCol string, thresh *float64) (*dataset.Dataset, error) {
	out := ds.Clone()

	if err := apply(out, strat, newCol, thresh); err != nil {
		return nil, err
	}

	return out, nil
}

// MakeMany applies Make to each strats[i], newCols[i] pair on one copy.
func MakeMany(ds *dataset.Dataset, strats, newCols []string, thresh *float64) (*dataset.Dataset, error) {
	if len(strats) != len(newCols) {
		return nil, fmt.Errorf("%w: %d stratifiers, %d new columns", ErrLengthMismatch, len(strats), len(newCols))
	}

	out := ds.Clone()

	for i := range strats {
		if err := apply(out, strats[i], newCols[i], thresh); err != nil {
			return nil, err
		}
	}

	return out, nil
}

// Threshold returns thresh, or the median of values when thresh is nil.
func Threshold(values []float64, thresh *float64) float64 {
	if thresh != nil {
		return *thresh
	}

	return stats.Median(values)
}

// FormatThreshold renders a threshold for logs and reports.
func FormatThreshold(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func apply(ds *dataset.Dataset, strat, newCol string, thresh *float64) error {
	name, err := ds.ResolveColumn(strat)
	if err != nil {
		return err
	}

	values, err := ds.Floats(name)
	if err != nil {
		return err
	}

	cut := Threshold(values, thresh)
	cells := make([]string, len(values))

	for i, v := range values {
		cells[i] = Low
		if v > cut {
			cells[i] = High
		}
	}

	return ds.SetColumn(newCol, cells)
}
