package textclean

import (
	"bufio"
	"cmp"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Neighborhood name bounds, in bytes, and the default repeat requirement.
const (
	MinHoodLength   = 4
	MaxHoodLength   = 24
	DefaultMinCount = 2

	// progressEvery is how many names StripNeighborhoods handles between
	// progress records.
	progressEvery = 100
)

var (
	hoodParens   = regexp.MustCompile(`[()]`)
	hoodState    = regexp.MustCompile(`, ?wa$`)
	hoodHasDigit = regexp.MustCompile(`\d`)
	hoodSplit    = regexp.MustCompile(`[,/\-&#|]`)
)

// hoodMark stands in for HoodToken while names are replaced, so a later name
// can never match inside an earlier replacement.
const hoodMark = "\x00"

// NeighborhoodList derives neighborhood names from raw neighborhood cells.
// Cells are lowercased, stripped of parentheses and a trailing ", wa", and
// dropped if they contain a digit. The rest are split on , / - & # and |.
// Names of MinHoodLength to MaxHoodLength characters seen at least minCount times
// are returned, most frequent first, ties alphabetical.
func NeighborhoodList(values []string, minCount int) []string {
	lower := cases.Lower(language.Und)
	counts := make(map[string]int)

	for _, raw := range values {
		v := lower.String(hoodParens.ReplaceAllString(raw, ""))
		v = hoodState.ReplaceAllString(v, "")

		if v == "" || hoodHasDigit.MatchString(v) {
			continue
		}

		for _, part := range hoodSplit.Split(v, -1) {
			name := strings.TrimSpace(part)
			if n := utf8.RuneCountInString(name); n >= MinHoodLength && n <= MaxHoodLength {
				counts[name]++
			}
		}
	}

	names := make([]string, 0, len(counts))

	for name, n := range counts {
		if n >= minCount {
			names = append(names, name)
		}
	}

	slices.SortFunc(names, func(a, b string) int {
		if c := cmp.Compare(counts[b], counts[a]); c != 0 {
			return c
		}

		return strings.Compare(a, b)
	})

	return names
}

// StripNeighborhoods replaces every case-insensitive occurrence of each
// name, with an optional space on either side, by " #HOOD ". Names are
// applied in order. Progress is logged every 100 names.
func StripNeighborhoods(texts, names []string, logger *slog.Logger) ([]string, error) {
	out := slices.Clone(texts)

	for i, name := range names {
		if name == "" {
			continue
		}

		re, err := regexp.Compile(`(?i) ?` + regexp.QuoteMeta(name) + ` ?`)
		if err != nil {
			return nil, fmt.Errorf("compile neighborhood %q: %w", name, err)
		}

		for j := range out {
			out[j] = re.ReplaceAllLiteralString(out[j], hoodMark)
		}

		if i%progressEvery == 0 && logger != nil {
			logger.Info("replaced neighborhoods", "count", i)
		}
	}

	for j := range out {
		out[j] = strings.ReplaceAll(out[j], hoodMark, " "+HoodToken+" ")
	}

	return out, nil
}

// PrepForLDA cleans texts with the default options and masks neighborhoods.
func PrepForLDA(texts, names []string, logger *slog.Logger) ([]string, error) {
	if logger != nil {
		logger.Info("cleaning urls and multiple commas", "texts", len(texts))
	}

	cleaned := CleanAll(texts, DefaultOptions())

	if logger != nil {
		logger.Info("cleaning neighborhoods", "names", len(names))
	}

	return StripNeighborhoods(cleaned, names, logger)
}

// ReadLines reads one entry per line, skipping blank lines.
func ReadLines(r io.Reader) ([]string, error) {
	var lines []string

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read lines: %w", err)
	}

	return lines, nil
}

// LoadLines reads the line file at path.
func LoadLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	return ReadLines(f)
}

// WriteLines writes lines joined by newlines.
func WriteLines(w io.Writer, lines []string) error {
	if _, err := io.WriteString(w, strings.Join(lines, "\n")); err != nil {
		return fmt.Errorf("write lines: %w", err)
	}

	return nil
}

// SaveLines writes lines to the file at path.
func SaveLines(path string, lines []string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	if err = WriteLines(f, lines); err != nil {
		f.Close()

		return err
	}

	if err = f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}

	return nil
}
