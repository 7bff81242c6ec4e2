package persist

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testState mirrors the shape of a saved dictionary.
type testState struct {
	Tokens   []string       `json:"tokens"`
	DocFreqs map[string]int `json:"doc_freqs"`
	NumDocs  int            `json:"num_docs"`
}

func sampleState() testState {
	return testState{
		Tokens:   []string{"balcony", "parking", "studio"},
		DocFreqs: map[string]int{"balcony": 2, "parking": 5, "studio": 1},
		NumDocs:  7,
	}
}

func allCodecs() map[string]Codec {
	return map[string]Codec{
		CodecJSON: NewJSONCodec(),
		CodecGob:  NewGobCodec(),
		CodecLZ4:  NewLZ4Codec(NewGobCodec()),
		"lz4json": NewLZ4Codec(NewJSONCodec()),
	}
}

// --- Codec Tests ---.

func TestCodecs_RoundTrip(t *testing.T) {
	t.Parallel()

	for name, codec := range allCodecs() {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer

			require.NoError(t, codec.Encode(&buf, sampleState()))

			var decoded testState

			require.NoError(t, codec.Decode(&buf, &decoded))
			assert.Equal(t, sampleState(), decoded)
		})
	}
}

func TestCodecs_Extension(t *testing.T) {
	t.Parallel()

	assert.Equal(t, ".json", NewJSONCodec().Extension())
	assert.Equal(t, ".gob", NewGobCodec().Extension())
	assert.Equal(t, ".gob.lz4", NewLZ4Codec(NewGobCodec()).Extension())
}

func TestCodecByName(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"json", "GOB", "lz4"} {
		codec, err := CodecByName(name)
		require.NoError(t, err)
		assert.NotNil(t, codec)
	}

	_, err := CodecByName("zstd")
	require.ErrorIs(t, err, ErrUnknownCodec)
}

func TestJSONCodec_CompactNoIndent(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	require.NoError(t, (&JSONCodec{}).Encode(&buf, sampleState()))

	// Compact JSON has at most one trailing newline (from json.Encoder).
	assert.LessOrEqual(t, strings.Count(buf.String(), "\n"), 1)
}

func TestJSONCodec_PrettyPrint(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	require.NoError(t, NewJSONCodec().Encode(&buf, sampleState()))

	assert.Contains(t, buf.String(), defaultIndent)
}

func TestCodecs_DecodeError(t *testing.T) {
	t.Parallel()

	var decoded testState

	err := NewJSONCodec().Decode(strings.NewReader("not valid json{{{"), &decoded)
	require.ErrorContains(t, err, "json decode")

	err = NewGobCodec().Decode(strings.NewReader("not gob data"), &decoded)
	require.ErrorContains(t, err, "gob decode")

	err = NewLZ4Codec(NewGobCodec()).Decode(strings.NewReader("not an lz4 frame"), &decoded)
	require.Error(t, err)
}

func TestCodecs_EncodeError(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	// Channels cannot be JSON-encoded.
	require.ErrorContains(t, NewJSONCodec().Encode(&buf, make(chan int)), "json encode")

	// Functions cannot be gob-encoded.
	require.ErrorContains(t, NewGobCodec().Encode(&buf, func() {}), "gob encode")
	require.ErrorContains(t, NewLZ4Codec(NewGobCodec()).Encode(&buf, func() {}), "gob encode")
}

func TestLZ4Codec_Compresses(t *testing.T) {
	t.Parallel()

	state := testState{Tokens: make([]string, 2000)}
	for i := range state.Tokens {
		state.Tokens[i] = "two bedroom apartment near light rail"
	}

	var plain, packed bytes.Buffer

	require.NoError(t, NewGobCodec().Encode(&plain, state))
	require.NoError(t, NewLZ4Codec(NewGobCodec()).Encode(&packed, state))

	assert.Less(t, packed.Len(), plain.Len()/10)
}

// --- File Tests ---.

func TestSaveState_LoadState(t *testing.T) {
	t.Parallel()

	for name, codec := range allCodecs() {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()

			require.NoError(t, SaveState(dir, "dictionary", codec, sampleState()))

			_, err := os.Stat(filepath.Join(dir, "dictionary"+codec.Extension()))
			require.NoError(t, err)

			var loaded testState

			require.NoError(t, LoadState(dir, "dictionary", codec, &loaded))
			assert.Equal(t, sampleState(), loaded)
		})
	}
}

func TestLoadFile_NotFound(t *testing.T) {
	t.Parallel()

	var state testState

	err := LoadFile(filepath.Join(t.TempDir(), "absent.json"), NewJSONCodec(), &state)

	require.ErrorIs(t, err, os.ErrNotExist)
	assert.Contains(t, err.Error(), "open")
}

func TestSaveFile_InvalidDirectory(t *testing.T) {
	t.Parallel()

	err := SaveFile("/nonexistent/path/that/does/not/exist/x.json", NewJSONCodec(), sampleState())

	require.ErrorContains(t, err, "create")
}

func TestSaveFile_EncodeError(t *testing.T) {
	t.Parallel()

	err := SaveFile(filepath.Join(t.TempDir(), "bad.json"), NewJSONCodec(), make(chan int))

	require.ErrorContains(t, err, "encode")
}

func TestLoadFile_DecodeError(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "corrupt.json")
	require.NoError(t, os.WriteFile(path, []byte("not json{{{"), 0o600))

	var state testState

	require.ErrorContains(t, LoadFile(path, NewJSONCodec(), &state), "decode")
}
