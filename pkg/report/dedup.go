package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/Sumatoshi-tech/adlens/pkg/dedup"
)

// WriteDedup renders r in opts.Format. texts maps row ids to their text and
// is only used for diffs; it may be nil. HTML is not supported for dedup
// results.
func WriteDedup(w io.Writer, r *dedup.Result, texts map[int]string, opts Options) error {
	switch opts.Format {
	case FormatText, "":
		return writeDedupText(w, r, texts, opts)
	case FormatJSON:
		return writeJSON(w, r)
	case FormatYAML:
		return writeYAML(w, r)
	default:
		return fmt.Errorf("%w: %q for dedup results", ErrUnknownFormat, opts.Format)
	}
}

func writeDedupText(w io.Writer, r *dedup.Result, texts map[int]string, opts Options) error {
	var b strings.Builder

	opts.paint(color.Bold).Fprintf(&b, "Dedup (%s) run %s\n", r.Method, r.RunID)

	if len(r.Ordering) > 0 {
		fmt.Fprintf(&b, "Ordered by: %s\n", strings.Join(r.Ordering, ", "))
	} else if r.Method == dedup.MethodLSH {
		opts.paint(color.FgYellow).Fprintln(&b, "Ordered by: row index (no date columns)")
	}

	fmt.Fprintf(&b, "Documents:  %s\n", humanize.Comma(int64(r.Documents)))

	if r.Method == dedup.MethodLSH {
		fmt.Fprintf(&b, "Candidates: %s\n", humanize.Comma(int64(r.Candidates)))
		fmt.Fprintf(&b, "Confirmed:  %s\n", humanize.Comma(int64(r.Confirmed)))
	}

	dropColor := opts.paint(color.FgGreen)
	if len(r.Dropped) > 0 {
		dropColor = opts.paint(color.FgRed)
	}

	dropColor.Fprintf(&b, "Dropped:    %s (%s kept)\n",
		humanize.Comma(int64(len(r.Dropped))), humanize.Comma(int64(len(r.Kept))))

	if len(r.Similarities) > 0 {
		shown := opts.maxPairs(len(r.Similarities))

		tbl := newTable()
		tbl.AppendHeader(table.Row{"A", "B", "Jaccard", "MinHash"})

		for _, s := range r.Similarities[:shown] {
			tbl.AppendRow(table.Row{s.A, s.B, formatFloat(s.Jaccard), formatFloat(s.MinHashEstimate)})
		}

		if shown < len(r.Similarities) {
			tbl.AppendFooter(table.Row{fmt.Sprintf("%d of %d pairs", shown, len(r.Similarities))})
		}

		b.WriteString("\n")
		b.WriteString(tbl.Render())
		b.WriteString("\n")

		if opts.Diff && texts != nil {
			writeDiffs(&b, r.Similarities[:shown], texts, opts)
		}
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("write dedup report: %w", err)
	}

	return nil
}

func writeDiffs(b *strings.Builder, sims []dedup.Similarity, texts map[int]string, opts Options) {
	dmp := diffmatchpatch.New()

	for _, s := range sims {
		a, okA := texts[s.A]
		c, okB := texts[s.B]

		if !okA || !okB {
			continue
		}

		diffs := dmp.DiffCleanupSemantic(dmp.DiffMain(a, c, false))

		fmt.Fprintf(b, "\n--- %d vs %d (jaccard %s)\n", s.A, s.B, formatFloat(s.Jaccard))

		if opts.Color {
			b.WriteString(dmp.DiffPrettyText(diffs))
		} else {
			b.WriteString(PlainDiff(diffs))
		}

		b.WriteString("\n")
	}
}

// PlainDiff renders diffs without colors: deletions as [-text-] and
// insertions as {+text+}.
func PlainDiff(diffs []diffmatchpatch.Diff) string {
	var b strings.Builder

	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			b.WriteString("[-" + d.Text + "-]")
		case diffmatchpatch.DiffInsert:
			b.WriteString("{+" + d.Text + "+}")
		case diffmatchpatch.DiffEqual:
			b.WriteString(d.Text)
		}
	}

	return b.String()
}
