package corpus

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/adlens/pkg/persist"
)

func sampleDictionary() *Dictionary {
	d := NewDictionary()
	d.Add([]string{"studio", "parking", "studio"})
	d.Add([]string{"balcony", "parking"})

	return d
}

// --- Dictionary Tests ---.

func TestDictionary_Add(t *testing.T) {
	t.Parallel()

	d := sampleDictionary()

	assert.Equal(t, []string{"parking", "studio", "balcony"}, d.Tokens())
	assert.Equal(t, 2, d.DocFreq(0))
	assert.Equal(t, 1, d.DocFreq(1))
	assert.Equal(t, 1, d.DocFreq(2))
	assert.Equal(t, 0, d.DocFreq(99))
	assert.Equal(t, 2, d.NumDocs())
	assert.Equal(t, 5, d.NumPos())
}

func TestDictionary_DocToBow(t *testing.T) {
	t.Parallel()

	bow := sampleDictionary().DocToBow([]string{"studio", "studio", "unknown", "parking"})

	assert.Equal(t, []BowEntry{{ID: 0, Count: 1}, {ID: 1, Count: 2}}, bow)
}

func TestDictionary_FilterTokens(t *testing.T) {
	t.Parallel()

	d := sampleDictionary()
	d.FilterTokens([]int{1})

	assert.Equal(t, 2, d.Len())

	tok, err := d.Token(1)
	require.NoError(t, err)
	assert.Equal(t, "balcony", tok)
	assert.Equal(t, 1, d.DocFreq(1))

	_, ok := d.ID("studio")
	assert.False(t, ok)

	_, err = d.Token(2)
	require.ErrorIs(t, err, ErrUnknownID)
}

func TestDictionary_TopTokens(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"parking", "balcony"}, sampleDictionary().TopTokens(2))
	assert.Len(t, sampleDictionary().TopTokens(-1), 3)
}

func TestDictionary_SaveLoad(t *testing.T) {
	t.Parallel()

	for _, name := range []string{persist.CodecJSON, persist.CodecGob, persist.CodecLZ4} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			codec, err := persist.CodecByName(name)
			require.NoError(t, err)

			dir := t.TempDir()
			require.NoError(t, SaveDictionary(dir, codec, sampleDictionary()))

			loaded, err := LoadDictionary(dir, codec)
			require.NoError(t, err)

			assert.Equal(t, sampleDictionary().Tokens(), loaded.Tokens())
			assert.Equal(t, 2, loaded.DocFreq(0))
			assert.Equal(t, 2, loaded.NumDocs())

			id, ok := loaded.ID("balcony")
			assert.True(t, ok)
			assert.Equal(t, 2, id)
		})
	}
}

// --- Tokenize Tests ---.

func TestTokenize(t *testing.T) {
	t.Parallel()

	tokens, err := Tokenize("The cozy STUDIO is near the light rail station, theater", []string{"the", "light rail"})
	require.NoError(t, err)

	assert.Equal(t, []string{"cozy", "studio", "near", "station,", "theater"}, tokens)
}

func TestTokenize_CountsRunes(t *testing.T) {
	t.Parallel()

	tokens, err := Tokenize("café bar über", nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"café", "über"}, tokens)
}

func TestTokenize_RegexMetaIsLiteral(t *testing.T) {
	t.Parallel()

	tokens, err := Tokenize("call 2.5 bath today", []string{"bath."})
	require.NoError(t, err)

	assert.Equal(t, []string{"call", "bath", "today"}, tokens)
}

func TestBuild(t *testing.T) {
	t.Parallel()

	corpus, dict, err := Build([]string{
		"Sunny studio with parking",
		"Parking garage and sunny deck",
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"parking", "studio", "sunny", "deck", "garage"}, dict.Tokens())
	assert.Equal(t, Corpus{
		{{ID: 0, Count: 1}, {ID: 1, Count: 1}, {ID: 2, Count: 1}},
		{{ID: 0, Count: 1}, {ID: 2, Count: 1}, {ID: 3, Count: 1}, {ID: 4, Count: 1}},
	}, corpus)
}

// --- StreamCorpus Tests ---.

func writeDocs(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "docs.txt")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	return path
}

func TestPrepareDictionary(t *testing.T) {
	t.Parallel()

	path := writeDocs(t, "The studio has parking\nstudio near parking\nunique words here\n")

	dict, err := PrepareDictionary(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"parking", "studio"}, dict.Tokens())
}

func TestStreamCorpus_Collect(t *testing.T) {
	t.Parallel()

	path := writeDocs(t, "The studio has parking\nstudio near parking\nunique words here\n")

	stream, err := NewStreamCorpus(path, nil)
	require.NoError(t, err)

	corpus, err := stream.Collect()
	require.NoError(t, err)

	both := []BowEntry{{ID: 0, Count: 1}, {ID: 1, Count: 1}}
	assert.Equal(t, Corpus{both, both, {}}, corpus)
}

func TestStreamCorpus_EarlyStop(t *testing.T) {
	t.Parallel()

	path := writeDocs(t, "studio parking\nstudio parking\nstudio parking\n")

	stream, err := NewStreamCorpus(path, sampleDictionary())
	require.NoError(t, err)

	seen := 0

	for bow, err := range stream.All() {
		require.NoError(t, err)
		assert.Len(t, bow, 2)

		seen++
		if seen == 2 {
			break
		}
	}

	assert.Equal(t, 2, seen)
}

func TestStreamCorpus_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := NewStreamCorpus(filepath.Join(t.TempDir(), "absent.txt"), nil)

	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestCorpus_SaveLoad(t *testing.T) {
	t.Parallel()

	corpus, _, err := Build([]string{"Sunny studio with parking"}, nil)
	require.NoError(t, err)

	dir := t.TempDir()
	codec := persist.NewLZ4Codec(persist.NewGobCodec())

	require.NoError(t, SaveCorpus(dir, codec, corpus))

	loaded, err := LoadCorpus(dir, codec)
	require.NoError(t, err)
	assert.Equal(t, corpus, loaded)
}
