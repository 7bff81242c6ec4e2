package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/adlens/pkg/dataset"
	"github.com/Sumatoshi-tech/adlens/pkg/dedup"
	"github.com/Sumatoshi-tech/adlens/pkg/observability"
	"github.com/Sumatoshi-tech/adlens/pkg/report"
)

const (
	dedupCmdUse   = "dedup <listings.csv>"
	dedupCmdShort = "Drop near-duplicate listings from a CSV"
	dedupCmdLong  = `Detect near-duplicate listings and write the deduplicated CSV.

Methods:
  lsh     MinHash LSH candidates confirmed by character shingle Jaccard (default)
  prefix  drop rows whose text starts like an earlier row's
  latlon  drop rows repeating an earlier latitude, longitude and price

Rows are ordered by scraped_year, scraped_month, scraped_day when present,
so the earliest listing of every duplicate group survives.`
)

// DedupCommand holds flags for the dedup command.
type DedupCommand struct {
	globals *Globals

	output      string
	reportPath  string
	format      string
	indexColumn string
	diff        bool
	color       bool
	maxPairs    int

	overrides dedup.Options
}

// NewDedupCommand creates the dedup command.
func NewDedupCommand(g *Globals) *cobra.Command {
	dc := &DedupCommand{globals: g}

	cmd := &cobra.Command{
		Use:   dedupCmdUse,
		Short: dedupCmdShort,
		Long:  dedupCmdLong,
		Args:  cobra.ExactArgs(1),
		RunE:  dc.run,
	}

	flags := cmd.Flags()
	flags.StringVarP(&dc.output, "output", "o", "", "write the deduplicated CSV here")
	flags.StringVar(&dc.reportPath, "report", "-", "write the run report here (- for stdout)")
	flags.StringVarP(&dc.format, "format", "f", string(report.FormatText), "report format: text, json or yaml")
	flags.StringVar(&dc.indexColumn, "index-column", "", "take row ids from this CSV column")
	flags.BoolVar(&dc.diff, "diff", false, "print a character diff of each confirmed pair")
	flags.BoolVar(&dc.color, "color", false, "colorize text reports")
	flags.IntVar(&dc.maxPairs, "max-pairs", report.DefaultMaxPairs, "pairs listed in text reports (negative for all)")

	flags.StringVar((*string)(&dc.overrides.Method), "method", "", "dedup method: lsh, prefix or latlon")
	flags.StringVar(&dc.overrides.TextColumn, "text-column", "", "column holding the listing text")
	flags.IntVar(&dc.overrides.CharNgram, "char-ngram", 0, "shingle size in characters")
	flags.IntVar(&dc.overrides.Seeds, "seeds", 0, "number of MinHash seeds")
	flags.IntVar(&dc.overrides.Bands, "bands", 0, "number of LSH bands")
	flags.IntVar(&dc.overrides.HashBytes, "hash-width", 0, "MinHash value width in bytes")
	flags.Float64Var(&dc.overrides.Threshold, "threshold", 0, "Jaccard similarity marking a duplicate")
	flags.IntVar(&dc.overrides.PrefixLength, "prefix-length", 0, "characters compared by the prefix method")

	return cmd
}

func (dc *DedupCommand) run(cmd *cobra.Command, args []string) error {
	format, err := report.ParseFormat(dc.format)
	if err != nil {
		return err
	}

	return withSession(cmd, dc.globals, observability.ModeCLI, func(s *session) error {
		opts := s.cfg.DedupOptions().Override(dc.overrides)

		pipeline, err := dedup.NewPipeline(opts)
		if err != nil {
			return err
		}

		pipeline.Logger = s.logger()
		pipeline.Tracer = s.providers.Tracer
		pipeline.Metrics = s.pipeline

		ds, err := dataset.LoadCSV(args[0], dc.readOptions()...)
		if err != nil {
			return err
		}

		texts, err := textsByID(ds, pipeline.Options())
		if err != nil {
			return err
		}

		res, err := pipeline.Dedup(cmd.Context(), ds)
		if err != nil {
			return err
		}

		if dc.output != "" {
			if err = ds.SaveCSV(dc.output); err != nil {
				return err
			}

			s.logger().InfoContext(cmd.Context(), "deduplicated listings written",
				"path", dc.output, "rows", ds.Len())
		}

		w, closeFn, err := createOutput(cmd, dc.reportPath)
		if err != nil {
			return err
		}

		err = report.WriteDedup(w, res, texts, report.Options{
			Format:   format,
			Color:    dc.color,
			Diff:     dc.diff,
			MaxPairs: dc.maxPairs,
		})

		return errors.Join(err, closeFn())
	})
}

func (dc *DedupCommand) readOptions() []dataset.ReadOption {
	if dc.indexColumn == "" {
		return nil
	}

	return []dataset.ReadOption{dataset.WithIndexColumn(dc.indexColumn)}
}

// textsByID captures the texts for pair diffs before rows are removed.
// Methods without a text column yield nil.
func textsByID(ds *dataset.Dataset, opts dedup.Options) (map[int]string, error) {
	if opts.Method == dedup.MethodLatLon {
		return nil, nil
	}

	values, err := ds.Column(opts.TextColumn)
	if errors.Is(err, dataset.ErrUnknownColumn) {
		return nil, fmt.Errorf("%w: text column %q", dedup.ErrMissingColumns, opts.TextColumn)
	}

	if err != nil {
		return nil, err
	}

	ids := ds.IDs()
	texts := make(map[int]string, len(ids))

	for i, id := range ids {
		texts[id] = values[i]
	}

	return texts, nil
}
