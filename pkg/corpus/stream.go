package corpus

import (
	"bufio"
	"fmt"
	"iter"
	"os"
	"strings"

	"github.com/Sumatoshi-tech/adlens/pkg/persist"
)

// CorpusBasename is the file basename used by SaveCorpus.
const CorpusBasename = "corpus"

// maxLineBytes bounds a single document line.
const maxLineBytes = 16 << 20

// StreamCorpus reads a one-document-per-line file without holding it in
// memory. Lines are lowercased and split on whitespace.
type StreamCorpus struct {
	path string
	dict *Dictionary
}

// NewStreamCorpus opens a stream over path. A nil dict is built with
// PrepareDictionary.
func NewStreamCorpus(path string, dict *Dictionary) (*StreamCorpus, error) {
	s := &StreamCorpus{path: path, dict: dict}

	if dict == nil {
		var err error

		if s.dict, err = PrepareDictionary(path); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Dictionary returns the dictionary the stream encodes with.
func (s *StreamCorpus) Dictionary() *Dictionary { return s.dict }

// All yields the bag-of-words of each line. A read error is yielded once,
// and iteration stops.
func (s *StreamCorpus) All() iter.Seq2[[]BowEntry, error] {
	return func(yield func([]BowEntry, error) bool) {
		for tokens, err := range lines(s.path) {
			if err != nil {
				yield(nil, err)

				return
			}

			if !yield(s.dict.DocToBow(tokens), nil) {
				return
			}
		}
	}
}

// Collect reads the whole stream into a Corpus.
func (s *StreamCorpus) Collect() (Corpus, error) {
	var out Corpus

	for bow, err := range s.All() {
		if err != nil {
			return nil, err
		}

		out = append(out, bow)
	}

	return out, nil
}

// PrepareDictionary builds a dictionary from the lines of path, then removes
// English stopwords and tokens found in only one document.
func PrepareDictionary(path string) (*Dictionary, error) {
	dict := NewDictionary()

	for tokens, err := range lines(path) {
		if err != nil {
			return nil, err
		}

		dict.Add(tokens)
	}

	var drop []int

	for _, w := range englishStopwords {
		if id, ok := dict.ID(w); ok {
			drop = append(drop, id)
		}
	}

	for id := range dict.Len() {
		if dict.DocFreq(id) == 1 {
			drop = append(drop, id)
		}
	}

	dict.FilterTokens(drop)

	return dict, nil
}

func lines(path string) iter.Seq2[[]string, error] {
	return func(yield func([]string, error) bool) {
		f, err := os.Open(path)
		if err != nil {
			yield(nil, fmt.Errorf("open %s: %w", path, err))

			return
		}
		defer f.Close()

		scanner := bufio.NewScanner(f)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

		for scanner.Scan() {
			if !yield(strings.Fields(strings.ToLower(scanner.Text())), nil) {
				return
			}
		}

		if err = scanner.Err(); err != nil {
			yield(nil, fmt.Errorf("read %s: %w", path, err))
		}
	}
}

// SaveCorpus writes c to dir with codec.
func SaveCorpus(dir string, codec persist.Codec, c Corpus) error {
	return persist.SaveState(dir, CorpusBasename, codec, c)
}

// LoadCorpus reads a corpus saved by SaveCorpus.
func LoadCorpus(dir string, codec persist.Codec) (Corpus, error) {
	var c Corpus

	if err := persist.LoadState(dir, CorpusBasename, codec, &c); err != nil {
		return nil, err
	}

	return c, nil
}
