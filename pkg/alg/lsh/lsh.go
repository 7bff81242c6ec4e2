// Package lsh provides a banded Locality-Sensitive Hashing index over MinHash
// fingerprints and the candidate pair generator that reads it.
//
// Each fingerprint is split into numBands contiguous bands of seeds/numBands
// values. A document lands in one bucket per band, keyed by the band position
// and a hash of the band values. Requiring a whole band to match makes each
// band selective; using several bands lets near-duplicates match on any one
// of them. Two documents with Jaccard similarity s share at least one bucket
// with probability 1 - (1 - s^rows)^bands.
//
// The index is built once per deduplication run and is not safe for
// concurrent mutation.
package lsh

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"github.com/Sumatoshi-tech/adlens/pkg/alg/internal/hashutil"
	"github.com/Sumatoshi-tech/adlens/pkg/alg/minhash"
)

var (
	// ErrInvalidParams is returned when numBands is not positive.
	ErrInvalidParams = errors.New("lsh: numBands must be positive")

	// ErrBandsNotDivisor is returned when the fingerprint length is not a
	// multiple of the number of bands.
	ErrBandsNotDivisor = errors.New("lsh: seeds has to be a multiple of bands")

	// ErrSizeMismatch is returned when a fingerprint does not have the
	// length the index was built for.
	ErrSizeMismatch = errors.New("lsh: fingerprint size does not match seeds")
)

// Hasher is the part of the MinHash engine the index depends on.
type Hasher interface {
	Seeds() int
}

// Bucket holds the ids of documents sharing one band value. Ids appear in
// insertion order; an id added twice appears twice.
type Bucket []int

// Index is a banded LSH index keyed by document position.
type Index struct {
	numBands int
	rows     int
	bins     []map[uint64]Bucket
	docs     int
}

// New creates an index with numBands bands for fingerprints produced by
// hasher. It fails when hasher.Seeds() is not a multiple of numBands.
func New(numBands int, hasher Hasher) (*Index, error) {
	if numBands <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidParams, numBands)
	}

	seeds := hasher.Seeds()
	if seeds%numBands != 0 {
		return nil, fmt.Errorf("%w: %d %% %d != 0", ErrBandsNotDivisor, seeds, numBands)
	}

	bins := make([]map[uint64]Bucket, numBands)
	for i := range bins {
		bins[i] = make(map[uint64]Bucket)
	}

	return &Index{
		numBands: numBands,
		rows:     seeds / numBands,
		bins:     bins,
	}, nil
}

// AddFingerprint inserts docID into one bucket per band of fp.
func (idx *Index) AddFingerprint(fp minhash.Fingerprint, docID int) error {
	if len(fp) != idx.numBands*idx.rows {
		return fmt.Errorf("%w: got %d, want %d", ErrSizeMismatch, len(fp), idx.numBands*idx.rows)
	}

	for b, h := range idx.bandHashes(fp) {
		idx.bins[b][h] = append(idx.bins[b][h], docID)
	}

	idx.docs++

	return nil
}

// bandHashes computes the FNV-1a hash of each band, prefixed by the band
// index so equal values at different positions do not collide.
func (idx *Index) bandHashes(fp minhash.Fingerprint) []uint64 {
	hashes := make([]uint64, idx.numBands)

	for b := range idx.numBands {
		hashes[b] = hashutil.FNV64aUints(uint64(b), fp.Band(b, idx.rows))
	}

	return hashes
}

// Pair is an unordered pair of document ids, normalized so A < B.
type Pair struct {
	A int `json:"a" yaml:"a"`
	B int `json:"b" yaml:"b"`
}

// NewPair returns the normalized pair of a and b.
func NewPair(a, b int) Pair {
	if a > b {
		a, b = b, a
	}

	return Pair{A: a, B: b}
}

// CandidatePairs emits every unordered pair of ids sharing a bucket, across
// all bands, exactly once. Self pairs from duplicate insertions are skipped.
//
// Output size grows with the square of bucket sizes; many documents with the
// same band values (empty texts, boilerplate) produce one large bucket.
func CandidatePairs(idx *Index) []Pair {
	pairs := make(map[Pair]struct{})

	for _, bin := range idx.bins {
		for _, bucket := range bin {
			if len(bucket) < 2 {
				continue
			}

			for i := range len(bucket) - 1 {
				for j := i + 1; j < len(bucket); j++ {
					if bucket[i] == bucket[j] {
						continue
					}

					pairs[NewPair(bucket[i], bucket[j])] = struct{}{}
				}
			}
		}
	}

	out := make([]Pair, 0, len(pairs))
	for p := range pairs {
		out = append(out, p)
	}

	slices.SortFunc(out, func(x, y Pair) int {
		if c := cmp.Compare(x.A, y.A); c != 0 {
			return c
		}

		return cmp.Compare(x.B, y.B)
	})

	return out
}
