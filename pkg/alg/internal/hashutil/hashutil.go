// Package hashutil provides the hash primitives shared by the MinHash engine
// and the LSH index: the FNV-1a base hash, splitmix64 seed generation and
// mixing, and hash-width truncation.
//
// Mixing uses the splitmix64 finalizer by Vigna (2014), which gives
// full-avalanche mixing across all 64 bits, so truncating the result to a
// narrower width keeps the low bytes uniformly distributed.
package hashutil

import (
	"encoding/binary"
	"hash/fnv"
)

// Splitmix64 constants from the splitmix64 finalizer by Vigna (2014).
const (
	// BaseSeed is the starting seed for deterministic seed generation.
	BaseSeed = 0x517cc1b727220a95

	// MixShift1 is the first right-shift in the splitmix64 finalizer.
	MixShift1 = 30

	// MixMul1 is the first multiplier in the splitmix64 finalizer.
	MixMul1 = 0xbf58476d1ce4e5b9

	// MixShift2 is the second right-shift in the splitmix64 finalizer.
	MixShift2 = 27

	// MixMul2 is the second multiplier in the splitmix64 finalizer.
	MixMul2 = 0x94d049bb133111eb

	// MixShift3 is the third right-shift in the splitmix64 finalizer.
	MixShift3 = 31

	// splitmix64Increment is the golden-ratio-derived increment
	// used in the Splitmix64 state-advance function.
	splitmix64Increment = 0x9e3779b97f4a7c15
)

// Hash width bounds in bytes.
const (
	MinWidthBytes = 1
	MaxWidthBytes = 8

	bitsPerByte = 8
)

// Splitmix64 advances the state by the golden-ratio increment and returns the
// finalized new state.
func Splitmix64(state uint64) uint64 {
	return finalize(state + splitmix64Increment)
}

// MixHash derives the seed-specific variant of a base shingle hash.
func MixHash(base, seed uint64) uint64 {
	return finalize(base ^ seed)
}

func finalize(z uint64) uint64 {
	z = (z ^ (z >> MixShift1)) * MixMul1
	z = (z ^ (z >> MixShift2)) * MixMul2

	return z ^ (z >> MixShift3)
}

// FNV64a computes a 64-bit FNV-1a hash of the given data.
func FNV64a(data []byte) uint64 {
	h := fnv.New64a()
	_, _ = h.Write(data)

	return h.Sum64()
}

// FNV64aUints hashes a prefix followed by the big-endian encoding of values.
// The prefix separates otherwise identical value runs (the LSH band index).
func FNV64aUints(prefix uint64, values []uint64) uint64 {
	h := fnv.New64a()
	buf := make([]byte, bitsPerByte)

	binary.BigEndian.PutUint64(buf, prefix)
	_, _ = h.Write(buf)

	for _, v := range values {
		binary.BigEndian.PutUint64(buf, v)
		_, _ = h.Write(buf)
	}

	return h.Sum64()
}

// GenerateSeeds creates n deterministic seeds from BaseSeed using advance.
func GenerateSeeds(n int, advance func(uint64) uint64) []uint64 {
	seeds := make([]uint64, n)
	state := uint64(BaseSeed)

	for i := range n {
		state = advance(state)
		seeds[i] = state
	}

	return seeds
}

// WidthMask returns the all-ones value for a hash of widthBytes bytes.
// Callers validate widthBytes against MinWidthBytes and MaxWidthBytes.
func WidthMask(widthBytes int) uint64 {
	if widthBytes >= MaxWidthBytes {
		return ^uint64(0)
	}

	return (uint64(1) << (uint(widthBytes) * bitsPerByte)) - 1
}
