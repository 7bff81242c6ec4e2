package dedup

import (
	"fmt"
	"strings"

	"github.com/Sumatoshi-tech/adlens/pkg/dataset"
)

// keySeparator joins composite keys. Cells never contain it after CSV
// parsing of listing data.
const keySeparator = "\x1f"

func (p *Pipeline) runPrefix(ds *dataset.Dataset) (*Result, error) {
	texts, err := textColumn(ds, p.opts.TextColumn)
	if err != nil {
		return nil, err
	}

	keys := make([]string, len(texts))
	for i, text := range texts {
		keys[i] = Prefix(text, p.opts.PrefixLength)
	}

	return &Result{
		Method:    MethodPrefix,
		Documents: ds.Len(),
		Dropped:   dropRepeatedKeys(ds.IDs(), keys),
	}, nil
}

func (p *Pipeline) runLatLon(ds *dataset.Dataset) (*Result, error) {
	columns := make([][]string, 0, len(LatLonColumns))

	var missing []string

	for _, name := range LatLonColumns {
		col, err := ds.Column(name)
		if err != nil {
			missing = append(missing, name)

			continue
		}

		columns = append(columns, col)
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}

	keys := make([]string, ds.Len())
	parts := make([]string, len(columns))

	for i := range keys {
		for c, col := range columns {
			parts[c] = col[i]
		}

		keys[i] = strings.Join(parts, keySeparator)
	}

	return &Result{
		Method:    MethodLatLon,
		Documents: ds.Len(),
		Dropped:   dropRepeatedKeys(ds.IDs(), keys),
	}, nil
}

// Prefix returns the first n runes of text.
func Prefix(text string, n int) string {
	count := 0

	for i := range text {
		if count == n {
			return text[:i]
		}

		count++
	}

	return text
}

// dropRepeatedKeys keeps the first row of every key in dataset order and
// returns the IDs of the rest.
func dropRepeatedKeys(ids []int, keys []string) []int {
	seen := make(map[string]struct{}, len(keys))
	dropped := []int{}

	for i, key := range keys {
		if _, dup := seen[key]; dup {
			dropped = append(dropped, ids[i])

			continue
		}

		seen[key] = struct{}{}
	}

	return dropped
}
