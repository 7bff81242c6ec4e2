// Package minhash provides MinHash fingerprints for Jaccard similarity
// estimation over character shingle sets.
//
// A fingerprint holds, for each of k independent hash functions, the minimum
// hash value over all shingles of a text. The probability that two texts
// agree at one position equals the Jaccard similarity of their shingle sets,
// so the fraction of equal positions is an unbiased estimate of it that costs
// O(k) to compute.
//
// Hash functions share one FNV-1a base hash per shingle, varied by
// per-function seeds mixed through a splitmix64 finalizer, and truncated to
// the configured width in bytes.
package minhash

import (
	"errors"
	"fmt"

	"github.com/Sumatoshi-tech/adlens/pkg/alg/internal/hashutil"
	"github.com/Sumatoshi-tech/adlens/pkg/alg/shingle"
)

// Default engine parameters.
const (
	DefaultSeeds     = 100
	DefaultHashBytes = 4
)

// Parameter bounds. Seeds are allocated per hasher and per fingerprint.
const (
	MaxSeeds     = 1 << 14
	MaxCharNgram = 1 << 10
)

var (
	// ErrZeroSeeds is returned when the number of seeds is not positive.
	ErrZeroSeeds = errors.New("minhash: seeds must be positive")

	// ErrTooManySeeds is returned when the number of seeds exceeds MaxSeeds.
	ErrTooManySeeds = errors.New("minhash: seeds exceed the maximum")

	// ErrInvalidNgram is returned when the shingle length is outside 1..MaxCharNgram.
	ErrInvalidNgram = errors.New("minhash: char_ngram out of range")

	// ErrInvalidHashWidth is returned when the hash width is outside 1..8 bytes.
	ErrInvalidHashWidth = errors.New("minhash: hash width must be between 1 and 8 bytes")

	// ErrSizeMismatch is returned when comparing fingerprints of different sizes.
	ErrSizeMismatch = errors.New("minhash: fingerprint sizes do not match")
)

// Fingerprint is the sequence of per-function minimum hash values of a set.
type Fingerprint []uint64

// Hasher computes fingerprints. It is immutable after construction and safe
// for concurrent use.
type Hasher struct {
	seeds     []uint64
	charNgram int
	hashBytes int
	mask      uint64
}

// NewHasher creates a Hasher with the given number of hash functions,
// shingle length and hash width in bytes.
func NewHasher(seeds, charNgram, hashBytes int) (*Hasher, error) {
	if seeds <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrZeroSeeds, seeds)
	}

	if seeds > MaxSeeds {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManySeeds, seeds, MaxSeeds)
	}

	if charNgram <= 0 || charNgram > MaxCharNgram {
		return nil, fmt.Errorf("%w: %d (want 1..%d)", ErrInvalidNgram, charNgram, MaxCharNgram)
	}

	if hashBytes < hashutil.MinWidthBytes || hashBytes > hashutil.MaxWidthBytes {
		return nil, fmt.Errorf("%w: %d", ErrInvalidHashWidth, hashBytes)
	}

	return &Hasher{
		seeds:     hashutil.GenerateSeeds(seeds, hashutil.Splitmix64),
		charNgram: charNgram,
		hashBytes: hashBytes,
		mask:      hashutil.WidthMask(hashBytes),
	}, nil
}

// Seeds returns the fingerprint length.
func (h *Hasher) Seeds() int {
	return len(h.seeds)
}

// CharNgram returns the shingle length used by Fingerprint.
func (h *Hasher) CharNgram() int {
	return h.charNgram
}

// HashBytes returns the hash width in bytes.
func (h *Hasher) HashBytes() int {
	return h.hashBytes
}

// Fingerprint shingles text with the hasher's shingle length and returns its
// fingerprint.
func (h *Hasher) Fingerprint(text string) Fingerprint {
	return h.FingerprintSet(shingle.Shingles(text, h.charNgram))
}

// FingerprintSet returns the fingerprint of an already computed shingle set.
// An empty set yields a fingerprint of all-ones values for the hash width.
func (h *Hasher) FingerprintSet(set shingle.Set) Fingerprint {
	fp := make(Fingerprint, len(h.seeds))
	for i := range fp {
		fp[i] = h.mask
	}

	for sh := range set {
		base := hashutil.FNV64a([]byte(sh))

		for i, seed := range h.seeds {
			v := hashutil.MixHash(base, seed) & h.mask
			if v < fp[i] {
				fp[i] = v
			}
		}
	}

	return fp
}

// Estimate returns the fraction of positions where a and b agree.
func Estimate(a, b Fingerprint) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d != %d", ErrSizeMismatch, len(a), len(b))
	}

	if len(a) == 0 {
		return 0, nil
	}

	matches := 0

	for i := range a {
		if a[i] == b[i] {
			matches++
		}
	}

	return float64(matches) / float64(len(a)), nil
}

// Band returns the values of band b when the fingerprint is split into
// equal bands of rows values each. The returned slice aliases fp.
func (fp Fingerprint) Band(b, rows int) []uint64 {
	return fp[b*rows : (b+1)*rows]
}
