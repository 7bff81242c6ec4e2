package minhash

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/adlens/pkg/alg/shingle"
)

// Test constants for MinHash tests.
const (
	// testSeeds is the default number of hash functions used in tests.
	testSeeds = 100

	// testLargeSeeds is the fingerprint length for convergence tests.
	testLargeSeeds = 1024

	// testOverlapSetSize is the number of shingles per set in overlap tests.
	testOverlapSetSize = 1000

	// testOverlapShift makes the two overlap sets share half their members.
	testOverlapShift = 500

	// testDisjointThreshold is the maximum expected estimate for disjoint sets.
	testDisjointThreshold = 0.05
)

func syntheticSet(prefix string, from, to int) shingle.Set {
	set := make(shingle.Set, to-from)
	for i := from; i < to; i++ {
		set[fmt.Sprintf("%s-%d", prefix, i)] = struct{}{}
	}

	return set
}

// --- Constructor Tests ---.

func TestNewHasher_Valid(t *testing.T) {
	t.Parallel()

	h, err := NewHasher(testSeeds, shingle.DefaultSize, DefaultHashBytes)

	require.NoError(t, err)
	assert.Equal(t, testSeeds, h.Seeds())
	assert.Equal(t, shingle.DefaultSize, h.CharNgram())
	assert.Equal(t, DefaultHashBytes, h.HashBytes())
}

func TestNewHasher_InvalidParams(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		seeds     int
		ngram     int
		hashBytes int
		want      error
	}{
		{"zero seeds", 0, 5, 4, ErrZeroSeeds},
		{"negative seeds", -3, 5, 4, ErrZeroSeeds},
		{"zero ngram", 100, 0, 4, ErrInvalidNgram},
		{"too many seeds", MaxSeeds + 1, 5, 4, ErrTooManySeeds},
		{"huge seeds", 1 << 60, 5, 4, ErrTooManySeeds},
		{"ngram above max", 100, MaxCharNgram + 1, 4, ErrInvalidNgram},
		{"zero width", 100, 5, 0, ErrInvalidHashWidth},
		{"wide width", 100, 5, 9, ErrInvalidHashWidth},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h, err := NewHasher(tt.seeds, tt.ngram, tt.hashBytes)

			require.ErrorIs(t, err, tt.want)
			assert.Nil(t, h)
		})
	}
}

// --- Fingerprint Tests ---.

func TestFingerprint_Length(t *testing.T) {
	t.Parallel()

	h, err := NewHasher(testSeeds, shingle.DefaultSize, DefaultHashBytes)
	require.NoError(t, err)

	assert.Len(t, h.Fingerprint("spacious two bedroom"), testSeeds)
}

func TestFingerprint_Deterministic(t *testing.T) {
	t.Parallel()

	text := "cozy studio, utilities included, close to light rail"

	h1, err := NewHasher(testSeeds, shingle.DefaultSize, DefaultHashBytes)
	require.NoError(t, err)

	h2, err := NewHasher(testSeeds, shingle.DefaultSize, DefaultHashBytes)
	require.NoError(t, err)

	assert.Equal(t, h1.Fingerprint(text), h1.Fingerprint(text))
	assert.Equal(t, h1.Fingerprint(text), h2.Fingerprint(text))
}

func TestFingerprint_RespectsHashWidth(t *testing.T) {
	t.Parallel()

	h, err := NewHasher(testSeeds, shingle.DefaultSize, 2)
	require.NoError(t, err)

	for _, v := range h.Fingerprint("one bedroom with a view of the lake") {
		assert.LessOrEqual(t, v, uint64(math.MaxUint16))
	}
}

func TestFingerprint_EmptyTextIsDegenerate(t *testing.T) {
	t.Parallel()

	h, err := NewHasher(testSeeds, shingle.DefaultSize, DefaultHashBytes)
	require.NoError(t, err)

	for _, v := range h.Fingerprint("tiny") {
		assert.Equal(t, uint64(math.MaxUint32), v)
	}
}

func TestFingerprint_MatchesFingerprintSet(t *testing.T) {
	t.Parallel()

	h, err := NewHasher(testSeeds, shingle.DefaultSize, DefaultHashBytes)
	require.NoError(t, err)

	text := "newly renovated kitchen"

	assert.Equal(t, h.Fingerprint(text), h.FingerprintSet(shingle.Shingles(text, shingle.DefaultSize)))
}

// --- Estimate Tests ---.

func TestEstimate_IdenticalTextsAlwaysOne(t *testing.T) {
	t.Parallel()

	for _, seeds := range []int{1, 16, testSeeds, testLargeSeeds} {
		h, err := NewHasher(seeds, shingle.DefaultSize, DefaultHashBytes)
		require.NoError(t, err)

		text := "the quick brown fox jumps over the lazy dog"

		est, err := Estimate(h.Fingerprint(text), h.Fingerprint(text))
		require.NoError(t, err)
		assert.InDelta(t, 1.0, est, 1e-12, "seeds=%d", seeds)
	}
}

func TestEstimate_ConvergesToJaccard(t *testing.T) {
	t.Parallel()

	a := syntheticSet("tok", 0, testOverlapSetSize)
	b := syntheticSet("tok", testOverlapShift, testOverlapShift+testOverlapSetSize)
	want := shingle.Jaccard(a, b)

	require.InDelta(t, 1.0/3.0, want, 1e-9)

	h, err := NewHasher(testLargeSeeds, shingle.DefaultSize, 8)
	require.NoError(t, err)

	est, err := Estimate(h.FingerprintSet(a), h.FingerprintSet(b))
	require.NoError(t, err)
	assert.InDelta(t, want, est, 0.02)
}

func TestEstimate_DisjointSetsNearZero(t *testing.T) {
	t.Parallel()

	a := syntheticSet("tok", 0, testOverlapSetSize)
	c := syntheticSet("other", 0, testOverlapSetSize)

	h, err := NewHasher(testLargeSeeds, shingle.DefaultSize, 8)
	require.NoError(t, err)

	est, err := Estimate(h.FingerprintSet(a), h.FingerprintSet(c))
	require.NoError(t, err)
	assert.Less(t, est, testDisjointThreshold)
}

func TestEstimate_SizeMismatch(t *testing.T) {
	t.Parallel()

	_, err := Estimate(Fingerprint{1, 2}, Fingerprint{1})

	require.ErrorIs(t, err, ErrSizeMismatch)
}

func TestEstimate_EmptyFingerprints(t *testing.T) {
	t.Parallel()

	est, err := Estimate(Fingerprint{}, Fingerprint{})

	require.NoError(t, err)
	assert.InDelta(t, 0.0, est, 1e-12)
}

func TestFingerprint_Band(t *testing.T) {
	t.Parallel()

	fp := Fingerprint{0, 1, 2, 3, 4, 5}

	assert.Equal(t, []uint64{2, 3}, fp.Band(1, 2))
	assert.Equal(t, []uint64{3, 4, 5}, fp.Band(1, 3))
}
