// Package shingle turns text into sets of overlapping fixed-length character
// substrings and compares those sets by Jaccard similarity.
package shingle

// DefaultSize is the default shingle length in characters.
const DefaultSize = 5

// Set is a set of shingles.
type Set map[string]struct{}

// Shingles returns the set of k-character substrings of text starting at
// offsets 0 through len(text)-k-1. The upper bound is exclusive, so a text
// of exactly k characters yields an empty set, as does any shorter text.
// Length is counted in runes.
func Shingles(text string, k int) Set {
	if k <= 0 {
		return Set{}
	}

	runes := []rune(text)

	count := len(runes) - k
	if count <= 0 {
		return Set{}
	}

	set := make(Set, count)

	for head := range count {
		set[string(runes[head:head+k])] = struct{}{}
	}

	return set
}

// Len returns the number of shingles.
func (s Set) Len() int {
	return len(s)
}

// Contains reports whether the shingle is in the set.
func (s Set) Contains(shingle string) bool {
	_, ok := s[shingle]

	return ok
}

// Jaccard returns |a ∩ b| / |a ∪ b|. Two empty sets have similarity 0.
func Jaccard(a, b Set) float64 {
	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}

	intersection := 0

	for sh := range small {
		if _, ok := large[sh]; ok {
			intersection++
		}
	}

	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}

	return float64(intersection) / float64(union)
}
