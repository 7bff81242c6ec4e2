package dedup

import (
	"fmt"
	"slices"

	"github.com/Sumatoshi-tech/adlens/pkg/alg/lsh"
	"github.com/Sumatoshi-tech/adlens/pkg/alg/minhash"
	"github.com/Sumatoshi-tech/adlens/pkg/alg/shingle"
)

// Similarity is one confirmed candidate pair. Confirm and Compare fill A and
// B with positions in the compared texts, A < B. In a Result they are row
// IDs with the chronologically earlier row in A, so A may exceed B.
type Similarity struct {
	A               int     `json:"a"                yaml:"a"`
	B               int     `json:"b"                yaml:"b"`
	Jaccard         float64 `json:"jaccard"          yaml:"jaccard"`
	MinHashEstimate float64 `json:"minhash_estimate" yaml:"minhash_estimate"`
}

// Candidates indexes every text and returns the LSH candidate pairs.
// Document ids are positions in texts.
func Candidates(texts []string, hasher *minhash.Hasher, bands int) ([]lsh.Pair, error) {
	idx, err := lsh.New(bands, hasher)
	if err != nil {
		return nil, err
	}

	for i, text := range texts {
		if err = idx.AddFingerprint(hasher.Fingerprint(text), i); err != nil {
			return nil, fmt.Errorf("index document %d: %w", i, err)
		}
	}

	return lsh.CandidatePairs(idx), nil
}

// Confirm computes the exact Jaccard similarity and the MinHash estimate of
// every pair. No pair is discarded.
func Confirm(texts []string, pairs []lsh.Pair, hasher *minhash.Hasher) ([]Similarity, error) {
	sims := make([]Similarity, 0, len(pairs))

	for _, p := range pairs {
		if p.A < 0 || p.B >= len(texts) || p.A > p.B {
			return nil, fmt.Errorf("pair (%d, %d) out of range for %d documents", p.A, p.B, len(texts))
		}

		sim, err := Compare(texts[p.A], texts[p.B], hasher)
		if err != nil {
			return nil, err
		}

		sim.A, sim.B = p.A, p.B
		sims = append(sims, sim)
	}

	return sims, nil
}

// Compare returns the Jaccard similarity and MinHash estimate of two texts.
// The positions of the returned record are zero.
func Compare(a, b string, hasher *minhash.Hasher) (Similarity, error) {
	setA := shingle.Shingles(a, hasher.CharNgram())
	setB := shingle.Shingles(b, hasher.CharNgram())

	estimate, err := minhash.Estimate(hasher.FingerprintSet(setA), hasher.FingerprintSet(setB))
	if err != nil {
		return Similarity{}, err
	}

	return Similarity{
		Jaccard:         shingle.Jaccard(setA, setB),
		MinHashEstimate: estimate,
	}, nil
}

// Resolve returns the sorted set of positions to drop: for every record with
// Jaccard >= threshold, the larger of its two positions.
func Resolve(sims []Similarity, threshold float64) []int {
	seen := make(map[int]struct{})

	for _, s := range sims {
		if s.Jaccard >= threshold {
			seen[max(s.A, s.B)] = struct{}{}
		}
	}

	drop := make([]int, 0, len(seen))
	for pos := range seen {
		drop = append(drop, pos)
	}

	slices.Sort(drop)

	return drop
}
