// Package corpus builds bag-of-words corpora and token dictionaries from
// cleaned listing text.
package corpus

import (
	"cmp"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/Sumatoshi-tech/adlens/pkg/persist"
)

// ErrUnknownID is returned when a token id is not in the dictionary.
var ErrUnknownID = errors.New("corpus: unknown token id")

// DictionaryBasename is the file basename used by SaveDictionary.
const DictionaryBasename = "dictionary"

// BowEntry is one token count in a bag-of-words vector.
type BowEntry struct {
	ID    int `json:"id"`
	Count int `json:"count"`
}

// Dictionary maps tokens to dense integer ids and tracks document
// frequencies.
type Dictionary struct {
	tokenToID map[string]int
	idToToken []string
	dfs       []int
	numDocs   int
	numPos    int
}

// NewDictionary returns an empty dictionary.
func NewDictionary() *Dictionary {
	return &Dictionary{tokenToID: make(map[string]int)}
}

// Add records one document. Tokens not yet known get ids in lexical order.
func (d *Dictionary) Add(tokens []string) {
	counts := countTokens(tokens)

	var missing []string

	for tok := range counts {
		if _, ok := d.tokenToID[tok]; !ok {
			missing = append(missing, tok)
		}
	}

	slices.Sort(missing)

	for _, tok := range missing {
		d.tokenToID[tok] = len(d.idToToken)
		d.idToToken = append(d.idToToken, tok)
		d.dfs = append(d.dfs, 0)
	}

	for tok := range counts {
		d.dfs[d.tokenToID[tok]]++
	}

	d.numDocs++
	d.numPos += len(tokens)
}

// DocToBow converts tokens to a bag-of-words sorted by id. Unknown tokens
// are dropped.
func (d *Dictionary) DocToBow(tokens []string) []BowEntry {
	counts := countTokens(tokens)
	bow := make([]BowEntry, 0, len(counts))

	for tok, n := range counts {
		if id, ok := d.tokenToID[tok]; ok {
			bow = append(bow, BowEntry{ID: id, Count: n})
		}
	}

	slices.SortFunc(bow, func(a, b BowEntry) int { return cmp.Compare(a.ID, b.ID) })

	return bow
}

// FilterTokens removes the given ids and compacts the rest, preserving
// their relative order.
func (d *Dictionary) FilterTokens(ids []int) {
	bad := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		bad[id] = struct{}{}
	}

	tokens := make([]string, 0, len(d.idToToken))
	dfs := make([]int, 0, len(d.dfs))

	for id, tok := range d.idToToken {
		if _, drop := bad[id]; drop {
			continue
		}

		tokens = append(tokens, tok)
		dfs = append(dfs, d.dfs[id])
	}

	d.rebuild(tokens, dfs)
}

// Token returns the token for id.
func (d *Dictionary) Token(id int) (string, error) {
	if id < 0 || id >= len(d.idToToken) {
		return "", fmt.Errorf("%w: %d", ErrUnknownID, id)
	}

	return d.idToToken[id], nil
}

// ID returns the id for tok.
func (d *Dictionary) ID(tok string) (int, bool) {
	id, ok := d.tokenToID[tok]

	return id, ok
}

// Len returns the number of tokens.
func (d *Dictionary) Len() int { return len(d.idToToken) }

// NumDocs returns the number of documents added.
func (d *Dictionary) NumDocs() int { return d.numDocs }

// NumPos returns the total number of tokens added, repeats included.
func (d *Dictionary) NumPos() int { return d.numPos }

// DocFreq returns the number of documents containing id.
func (d *Dictionary) DocFreq(id int) int {
	if id < 0 || id >= len(d.dfs) {
		return 0
	}

	return d.dfs[id]
}

// Tokens returns all tokens ordered by id.
func (d *Dictionary) Tokens() []string { return slices.Clone(d.idToToken) }

func (d *Dictionary) rebuild(tokens []string, dfs []int) {
	d.idToToken = tokens
	d.dfs = dfs
	d.tokenToID = make(map[string]int, len(tokens))

	for id, tok := range tokens {
		d.tokenToID[tok] = id
	}
}

func countTokens(tokens []string) map[string]int {
	counts := make(map[string]int, len(tokens))
	for _, tok := range tokens {
		counts[tok]++
	}

	return counts
}

// dictionaryState is the persisted form of a Dictionary.
type dictionaryState struct {
	Tokens   []string `json:"tokens"`
	DocFreqs []int    `json:"doc_freqs"`
	NumDocs  int      `json:"num_docs"`
	NumPos   int      `json:"num_pos"`
}

// SaveDictionary writes d to dir with codec.
func SaveDictionary(dir string, codec persist.Codec, d *Dictionary) error {
	state := dictionaryState{
		Tokens:   d.idToToken,
		DocFreqs: d.dfs,
		NumDocs:  d.numDocs,
		NumPos:   d.numPos,
	}

	return persist.SaveState(dir, DictionaryBasename, codec, &state)
}

// LoadDictionary reads a dictionary saved by SaveDictionary.
func LoadDictionary(dir string, codec persist.Codec) (*Dictionary, error) {
	var state dictionaryState

	if err := persist.LoadState(dir, DictionaryBasename, codec, &state); err != nil {
		return nil, err
	}

	if len(state.Tokens) != len(state.DocFreqs) {
		return nil, fmt.Errorf("corpus: dictionary has %d tokens and %d frequencies",
			len(state.Tokens), len(state.DocFreqs))
	}

	d := NewDictionary()
	d.rebuild(state.Tokens, state.DocFreqs)
	d.numDocs = state.NumDocs
	d.numPos = state.NumPos

	return d, nil
}

// frequencies returns token document frequencies keyed by token.
func (d *Dictionary) frequencies() map[string]int {
	out := make(map[string]int, len(d.idToToken))
	for id, tok := range d.idToToken {
		out[tok] = d.dfs[id]
	}

	return out
}

// TopTokens returns up to n tokens ordered by document frequency
// descending, ties lexical.
func (d *Dictionary) TopTokens(n int) []string {
	freqs := d.frequencies()
	tokens := slices.Collect(maps.Keys(freqs))

	slices.SortFunc(tokens, func(a, b string) int {
		if c := cmp.Compare(freqs[b], freqs[a]); c != 0 {
			return c
		}

		return cmp.Compare(a, b)
	})

	if n >= 0 && n < len(tokens) {
		tokens = tokens[:n]
	}

	return tokens
}
