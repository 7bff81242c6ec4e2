package stratify

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/adlens/pkg/dataset"
)

func listings(t *testing.T) *dataset.Dataset {
	t.Helper()

	ds, err := dataset.New("price", "sqft")
	require.NoError(t, err)

	for _, row := range [][]string{
		{"1200", "500"},
		{"1800", "900"},
		{"2500", ""},
		{"950", "450"},
	} {
		require.NoError(t, ds.Append(row...))
	}

	return ds
}

func column(t *testing.T, ds *dataset.Dataset, name string) []string {
	t.Helper()

	col, err := ds.Column(name)
	require.NoError(t, err)

	return col
}

// --- Make Tests ---.

func TestMake_Median(t *testing.T) {
	t.Parallel()

	ds := listings(t)

	out, err := Make(ds, "price", "high_price", nil)
	require.NoError(t, err)

	// Median of 950, 1200, 1800, 2500 is 1500.
	assert.Equal(t, []string{Low, High, High, Low}, column(t, out, "high_price"))
	assert.False(t, ds.HasColumn("high_price"))
}

func TestMake_ExplicitThreshold(t *testing.T) {
	t.Parallel()

	thresh := 1800.0

	out, err := Make(listings(t), "PRICE", "high_price", &thresh)
	require.NoError(t, err)

	assert.Equal(t, []string{Low, Low, High, Low}, column(t, out, "high_price"))
}

func TestMake_BlankIsLow(t *testing.T) {
	t.Parallel()

	out, err := Make(listings(t), "sqft", "big", nil)
	require.NoError(t, err)

	// Median of 450, 500, 900 is 500.
	assert.Equal(t, []string{Low, High, Low, Low}, column(t, out, "big"))
}

func TestMake_UnknownColumn(t *testing.T) {
	t.Parallel()

	_, err := Make(listings(t), "rent", "high_rent", nil)

	require.ErrorIs(t, err, dataset.ErrUnknownColumn)
}

// --- MakeMany Tests ---.

func TestMakeMany(t *testing.T) {
	t.Parallel()

	out, err := MakeMany(listings(t), []string{"price", "sqft"}, []string{"high_price", "big"}, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{Low, High, High, Low}, column(t, out, "high_price"))
	assert.Equal(t, []string{Low, High, Low, Low}, column(t, out, "big"))
}

func TestMakeMany_LengthMismatch(t *testing.T) {
	t.Parallel()

	_, err := MakeMany(listings(t), []string{"price", "sqft"}, []string{"high_price"}, nil)

	require.ErrorIs(t, err, ErrLengthMismatch)
}

func TestThreshold(t *testing.T) {
	t.Parallel()

	v := 0.25

	assert.InDelta(t, 0.25, Threshold([]float64{1, 2}, &v), 1e-12)
	assert.InDelta(t, 2.0, Threshold([]float64{1, math.NaN(), 2, 3}, nil), 1e-12)
	assert.Equal(t, "1500", FormatThreshold(1500))
}
