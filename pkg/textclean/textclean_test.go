package textclean

import (
	"bytes"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- CleanText Tests ---.

func TestCleanText_Full(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "boilerplate_urls_digits_punct",
			input:    "Great place!!! Call 555-1234, visit www.example.com now $$$ " + Boilerplate,
			expected: "Great place !!!_ Call visit #URL now $$__",
		},
		{
			name:     "http_url",
			input:    "see http://foo.bar/x?id=3 ok",
			expected: "see #URL ok",
		},
		{
			name:     "leading_commas",
			input:    ",,hello there",
			expected: "hello there",
		},
		{
			name:     "unicode_letters_kept",
			input:    "Café 2br!",
			expected: "Café br !___",
		},
		{
			name:     "mixed_run",
			input:    "cheap$! really!!!!!",
			expected: "cheap $___ !___ really !!!!_",
		},
		{
			name:     "line_breaks_separate_words",
			input:    "two\nlines\tjoined",
			expected: "two lines joined",
		},
		{
			name:     "empty",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, CleanText(tt.input, DefaultOptions()))
		})
	}
}

func TestCleanText_KeepPunct(t *testing.T) {
	t.Parallel()

	got := CleanText("wow, 3 beds!", Options{})

	assert.Equal(t, "wow, beds!", got)
}

func TestCleanText_BodyMode(t *testing.T) {
	t.Parallel()

	got := CleanText(",Nice,,, unit\nwith  view 2br "+Boilerplate, Options{BodyMode: true, CleanPunct: true})

	assert.Equal(t, "Nice, unit with view 2br", got)
}

func TestCleanAll(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"a !___", "b"}, CleanAll([]string{"a!", "b"}, DefaultOptions()))
}

func TestPunctToken(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"!":      "!___",
		"!!":     "!!__",
		"!!!":    "!!!_",
		"!!!!":   "!!!!_",
		"!!!!!!": "!!!!_",
		"$":      "$___",
		"$$$":    "$$__",
		"":       "",
	}

	for run, want := range tests {
		assert.Equal(t, want, PunctToken(run), run)
	}
}

// --- Neighborhood Tests ---.

func TestNeighborhoodList(t *testing.T) {
	t.Parallel()

	values := []string{
		"Ballard",
		"ballard, WA",
		"BALLARD",
		"Capitol Hill / Downtown",
		"(Fremont)",
		"fremont",
		"Unit 5",
		"capitol hill",
		"",
		"a-b",
		"downtown",
		"queen anne",
		"this neighborhood name is far too long",
		"this neighborhood name is far too long",
	}

	got := NeighborhoodList(values, DefaultMinCount)

	assert.Equal(t, []string{"ballard", "capitol hill", "downtown", "fremont"}, got)
}

func TestNeighborhoodList_MinCount(t *testing.T) {
	t.Parallel()

	got := NeighborhoodList([]string{"ravenna", "ravenna", "wallingford"}, 1)

	assert.Equal(t, []string{"ravenna", "wallingford"}, got)
}

func TestNeighborhoodList_CountsCharacters(t *testing.T) {
	t.Parallel()

	values := []string{
		"świętokrzyskie północne",
		"świętokrzyskie północne",
		"çaé",
		"çaé",
	}

	got := NeighborhoodList(values, DefaultMinCount)

	assert.Equal(t, []string{"świętokrzyskie północne"}, got)
}

func TestStripNeighborhoods(t *testing.T) {
	t.Parallel()

	texts := []string{"Lovely unit in Capitol Hill near downtown", "quiet"}

	got, err := StripNeighborhoods(texts, []string{"capitol hill", "downtown"}, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"Lovely unit in #HOOD near #HOOD ", "quiet"}, got)
	assert.Equal(t, "Lovely unit in Capitol Hill near downtown", texts[0])
}

func TestStripNeighborhoods_NameMatchingToken(t *testing.T) {
	t.Parallel()

	got, err := StripNeighborhoods([]string{"capitol hill"}, []string{"capitol hill", "hood"}, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{" #HOOD "}, got)
}

func TestStripNeighborhoods_RegexMetaIsLiteral(t *testing.T) {
	t.Parallel()

	got, err := StripNeighborhoods([]string{"near u.district and uxdistrict"}, []string{"u.district"}, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"near #HOOD and uxdistrict"}, got)
}

func TestPrepForLDA_LogsProgress(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	logger := slog.New(slog.NewTextHandler(&buf, nil))

	got, err := PrepForLDA([]string{"Studio in Ballard!! 2 blocks to bus"}, []string{"ballard"}, logger)
	require.NoError(t, err)

	assert.Equal(t, []string{"Studio in #HOOD !!__ blocks to bus"}, got)
	assert.Contains(t, buf.String(), "replaced neighborhoods")
}

// --- Line File Tests ---.

func TestReadLines_SkipsBlank(t *testing.T) {
	t.Parallel()

	lines, err := ReadLines(strings.NewReader("ballard\n\n  fremont \n"))
	require.NoError(t, err)

	assert.Equal(t, []string{"ballard", "fremont"}, lines)
}

func TestSaveLines_LoadLines(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "hoods.txt")

	require.NoError(t, SaveLines(path, []string{"ballard", "capitol hill"}))

	lines, err := LoadLines(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"ballard", "capitol hill"}, lines)

	_, err = LoadLines(filepath.Join(t.TempDir(), "absent.txt"))
	require.Error(t, err)
}
