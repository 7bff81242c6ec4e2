package hashutil

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWidthMask(t *testing.T) {
	t.Parallel()

	assert.Equal(t, uint64(0xff), WidthMask(1))
	assert.Equal(t, uint64(math.MaxUint32), WidthMask(4))
	assert.Equal(t, uint64(math.MaxUint64), WidthMask(8))
}

func TestGenerateSeeds_Deterministic(t *testing.T) {
	t.Parallel()

	a := GenerateSeeds(16, Splitmix64)
	b := GenerateSeeds(16, Splitmix64)

	assert.Equal(t, a, b)
	assert.Len(t, a, 16)
}

func TestGenerateSeeds_Distinct(t *testing.T) {
	t.Parallel()

	seeds := GenerateSeeds(256, Splitmix64)
	seen := make(map[uint64]bool, len(seeds))

	for _, s := range seeds {
		assert.False(t, seen[s], "duplicate seed %x", s)
		seen[s] = true
	}
}

func TestMixHash_SeedChangesOutput(t *testing.T) {
	t.Parallel()

	base := FNV64a([]byte("quick"))

	assert.NotEqual(t, MixHash(base, 1), MixHash(base, 2))
	assert.Equal(t, MixHash(base, 7), MixHash(base, 7))
}

func TestFNV64aUints_PrefixSeparates(t *testing.T) {
	t.Parallel()

	values := []uint64{1, 2, 3}

	assert.NotEqual(t, FNV64aUints(0, values), FNV64aUints(1, values))
	assert.Equal(t, FNV64aUints(3, values), FNV64aUints(3, values))
}
