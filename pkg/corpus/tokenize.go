package corpus

import (
	"cmp"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// MinTokenLength is the shortest token, in runes, kept by Tokenize.
const MinTokenLength = 4

// Corpus is a list of bag-of-words documents.
type Corpus [][]BowEntry

// Tokenizer lowercases documents, removes stopwords and drops short tokens.
type Tokenizer struct {
	stop  *regexp.Regexp
	lower cases.Caser
}

// NewTokenizer compiles stopwords into a word-bounded pattern. Stopwords may
// span several words. Longer stopwords are tried first.
func NewTokenizer(stopwords []string) (*Tokenizer, error) {
	t := &Tokenizer{lower: cases.Lower(language.Und)}

	words := make([]string, 0, len(stopwords))

	for _, w := range stopwords {
		if w = strings.TrimSpace(t.lower.String(w)); w != "" {
			words = append(words, regexp.QuoteMeta(w))
		}
	}

	if len(words) == 0 {
		return t, nil
	}

	slices.SortFunc(words, func(a, b string) int {
		if c := cmp.Compare(len(b), len(a)); c != 0 {
			return c
		}

		return strings.Compare(a, b)
	})
	words = slices.Compact(words)

	re, err := regexp.Compile(`\b(?:` + strings.Join(words, "|") + `)\b\s*`)
	if err != nil {
		return nil, fmt.Errorf("compile stopwords: %w", err)
	}

	t.stop = re

	return t, nil
}

// Tokenize splits doc into kept tokens.
func (t *Tokenizer) Tokenize(doc string) []string {
	doc = t.lower.String(doc)
	if t.stop != nil {
		doc = t.stop.ReplaceAllString(doc, "")
	}

	fields := strings.Fields(doc)
	tokens := fields[:0]

	for _, f := range fields {
		if utf8.RuneCountInString(f) >= MinTokenLength {
			tokens = append(tokens, f)
		}
	}

	return tokens
}

// Tokenize is a one-shot NewTokenizer(stopwords).Tokenize(doc).
func Tokenize(doc string, stopwords []string) ([]string, error) {
	t, err := NewTokenizer(stopwords)
	if err != nil {
		return nil, err
	}

	return t.Tokenize(doc), nil
}

// Build tokenizes documents, builds a dictionary over all of them and
// returns their bag-of-words vectors. A nil stopwords uses the built-in
// English list.
func Build(documents, stopwords []string) (Corpus, *Dictionary, error) {
	if stopwords == nil {
		stopwords = englishStopwords
	}

	t, err := NewTokenizer(stopwords)
	if err != nil {
		return nil, nil, err
	}

	texts := make([][]string, len(documents))
	dict := NewDictionary()

	for i, doc := range documents {
		texts[i] = t.Tokenize(doc)
		dict.Add(texts[i])
	}

	corpus := make(Corpus, len(texts))
	for i, text := range texts {
		corpus[i] = dict.DocToBow(text)
	}

	return corpus, dict, nil
}
