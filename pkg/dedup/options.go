// Package dedup finds and drops near-duplicate listings. The default method
// shingles each text, fingerprints it with MinHash, collects candidate pairs
// from a banded LSH index, confirms them with exact Jaccard similarity, and
// drops the later document of every confirmed pair.
package dedup

import (
	"errors"
	"fmt"

	"github.com/Sumatoshi-tech/adlens/pkg/alg/lsh"
	"github.com/Sumatoshi-tech/adlens/pkg/alg/minhash"
	"github.com/Sumatoshi-tech/adlens/pkg/alg/shingle"
)

var (
	// ErrUnknownMethod is returned for a method name that is not lsh, prefix or latlon.
	ErrUnknownMethod = errors.New("dedup: unknown method")

	// ErrMissingColumns is returned when the dataset lacks a required column.
	ErrMissingColumns = errors.New("dedup: missing columns")

	// ErrInvalidThreshold is returned for a threshold outside (0, 1].
	ErrInvalidThreshold = errors.New("dedup: threshold must be in (0, 1]")

	// ErrInvalidPrefixLength is returned for a non-positive prefix length.
	ErrInvalidPrefixLength = errors.New("dedup: prefix length must be positive")
)

// Method selects how duplicates are detected.
type Method string

const (
	// MethodLSH confirms MinHash LSH candidates with Jaccard similarity.
	MethodLSH Method = "lsh"
	// MethodPrefix drops rows whose text starts like an earlier row's.
	MethodPrefix Method = "prefix"
	// MethodLatLon drops rows repeating an earlier latitude, longitude and price.
	MethodLatLon Method = "latlon"
)

// ParseMethod maps a method name to a Method.
func ParseMethod(name string) (Method, error) {
	switch m := Method(name); m {
	case MethodLSH, MethodPrefix, MethodLatLon:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMethod, name)
	}
}

// Column names read from listing datasets.
const (
	DefaultTextColumn = "body_text"

	ColumnYear      = "scraped_year"
	ColumnMonth     = "scraped_month"
	ColumnDay       = "scraped_day"
	ColumnLatitude  = "latitude"
	ColumnLongitude = "longitude"
	ColumnPrice     = "price"
)

// Defaults for Options.
const (
	DefaultBands        = 5
	DefaultThreshold    = 0.90
	DefaultPrefixLength = 100
)

// DateKeyGroups lists the chronological sort keys in order of preference.
var DateKeyGroups = [][]string{
	{ColumnYear, ColumnMonth, ColumnDay},
	{ColumnMonth, ColumnDay},
}

// LatLonColumns are the columns compared by MethodLatLon.
var LatLonColumns = []string{ColumnLatitude, ColumnLongitude, ColumnPrice}

// Options configures a dedup run.
type Options struct {
	Method       Method  `json:"method"`
	TextColumn   string  `json:"text_column"`
	CharNgram    int     `json:"char_ngram"`
	Seeds        int     `json:"seeds"`
	Bands        int     `json:"bands"`
	HashBytes    int     `json:"hash_width_bytes"`
	Threshold    float64 `json:"similarity_threshold"`
	PrefixLength int     `json:"prefix_length"`
}

// DefaultOptions returns the LSH configuration used when nothing is overridden.
func DefaultOptions() Options {
	return Options{
		Method:       MethodLSH,
		TextColumn:   DefaultTextColumn,
		CharNgram:    shingle.DefaultSize,
		Seeds:        minhash.DefaultSeeds,
		Bands:        DefaultBands,
		HashBytes:    minhash.DefaultHashBytes,
		Threshold:    DefaultThreshold,
		PrefixLength: DefaultPrefixLength,
	}
}

// Validate checks the options that apply to the selected method.
func (o Options) Validate() error {
	if _, err := ParseMethod(string(o.Method)); err != nil {
		return err
	}

	switch o.Method {
	case MethodLSH:
		if err := ValidateThreshold(o.Threshold); err != nil {
			return err
		}

		hasher, err := o.NewHasher()
		if err != nil {
			return err
		}

		if _, err = lsh.New(o.Bands, hasher); err != nil {
			return err
		}
	case MethodPrefix:
		if o.PrefixLength <= 0 {
			return fmt.Errorf("%w: got %d", ErrInvalidPrefixLength, o.PrefixLength)
		}
	case MethodLatLon:
	}

	return nil
}

// ValidateThreshold checks that threshold is in (0, 1].
func ValidateThreshold(threshold float64) error {
	if !(threshold > 0 && threshold <= 1) {
		return fmt.Errorf("%w: got %v", ErrInvalidThreshold, threshold)
	}

	return nil
}

// NewHasher builds the MinHash hasher described by the options.
func (o Options) NewHasher() (*minhash.Hasher, error) {
	return minhash.NewHasher(o.Seeds, o.CharNgram, o.HashBytes)
}

// Override returns o with every non-zero field of over applied.
func (o Options) Override(over Options) Options {
	if over.Method != "" {
		o.Method = over.Method
	}

	if over.TextColumn != "" {
		o.TextColumn = over.TextColumn
	}

	if over.CharNgram != 0 {
		o.CharNgram = over.CharNgram
	}

	if over.Seeds != 0 {
		o.Seeds = over.Seeds
	}

	if over.Bands != 0 {
		o.Bands = over.Bands
	}

	if over.HashBytes != 0 {
		o.HashBytes = over.HashBytes
	}

	if over.Threshold != 0 {
		o.Threshold = over.Threshold
	}

	if over.PrefixLength != 0 {
		o.PrefixLength = over.PrefixLength
	}

	return o
}
