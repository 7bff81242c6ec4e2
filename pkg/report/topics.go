package report

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/Sumatoshi-tech/adlens/pkg/topics"
)

// Chart dimensions.
const (
	chartWidth  = "1200px"
	chartHeight = "500px"
)

// TopicView is one topic row of a JSON topic summary.
type TopicView struct {
	Topic      int    `json:"topic"`
	Column     string `json:"column"`
	Keywords   string `json:"keywords,omitempty"`
	All        Float  `json:"all"`
	High       Float  `json:"high"`
	Low        Float  `json:"low"`
	Difference Float  `json:"difference"`
	Proportion Float  `json:"proportion"`
}

// SummaryView is the JSON document written by WriteSummary.
type SummaryView struct {
	Stratifier string             `json:"stratifier"`
	Method     topics.Method      `json:"method"`
	Threshold  float64            `json:"threshold"`
	Documents  int                `json:"documents"`
	Topics     []TopicView        `json:"topics"`
	Comparison *topics.Comparison `json:"comparison,omitempty"`
}

// WriteSummary renders a topic summary in opts.Format. keywords is indexed
// by topic id and may be nil.
func WriteSummary(w io.Writer, s *topics.Summary, keywords []string, opts Options) error {
	switch opts.Format {
	case FormatText, "":
		return writeSummaryText(w, s, keywords, opts)
	case FormatJSON:
		return writeJSON(w, newSummaryView(s, keywords))
	case FormatYAML:
		return writeYAML(w, struct {
			topics.Summary `yaml:",inline"`
			Comparison     topics.Comparison `yaml:"comparison"`
		}{*s, s.Compare()})
	case FormatHTML:
		return writeSummaryHTML(w, s)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, opts.Format)
	}
}

func newSummaryView(s *topics.Summary, keywords []string) SummaryView {
	cmp := s.Compare()
	view := SummaryView{
		Stratifier: s.Stratifier,
		Method:     s.Method,
		Threshold:  s.Threshold,
		Documents:  s.Documents,
		Topics:     make([]TopicView, len(s.Topics)),
		Comparison: &cmp,
	}

	for i, t := range s.Topics {
		view.Topics[i] = TopicView{
			Topic:      t.Topic,
			Column:     t.Column,
			Keywords:   keyword(keywords, t.Topic),
			All:        Float(t.All),
			High:       Float(t.High),
			Low:        Float(t.Low),
			Difference: Float(t.Difference),
			Proportion: Float(t.Proportion),
		}
	}

	return view
}

func keyword(keywords []string, topic int) string {
	if topic < 0 || topic >= len(keywords) {
		return ""
	}

	return keywords[topic]
}

func writeSummaryText(w io.Writer, s *topics.Summary, keywords []string, opts Options) error {
	var b strings.Builder

	opts.paint(color.Bold).Fprintf(&b, "Topics by %s (%s, threshold %g) over %s documents\n\n",
		s.Stratifier, s.Method, s.Threshold, humanize.Comma(int64(s.Documents)))

	tbl := newTable()

	header := table.Row{"Topic", "All", "High", "Low", "Difference", "Proportion"}
	if keywords != nil {
		header = append(header, "Keywords")
	}

	tbl.AppendHeader(header)

	for _, r := range s.Ranked(topics.AggregateDifference) {
		t := s.Topics[r.Topic]
		row := table.Row{
			t.Topic, formatFloat(t.All), formatFloat(t.High), formatFloat(t.Low),
			formatFloat(t.Difference), formatFloat(t.Proportion),
		}

		if keywords != nil {
			row = append(row, keyword(keywords, t.Topic))
		}

		tbl.AppendRow(row)
	}

	b.WriteString(tbl.Render())
	b.WriteString("\n")

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("write topic report: %w", err)
	}

	return nil
}

func writeSummaryHTML(w io.Writer, s *topics.Summary) error {
	labels := make([]string, len(s.Topics))
	high := make([]opts.BarData, len(s.Topics))
	low := make([]opts.BarData, len(s.Topics))

	for i, t := range s.Topics {
		labels[i] = strconv.Itoa(t.Topic)
		high[i] = opts.BarData{Value: chartValue(t.High)}
		low[i] = opts.BarData{Value: chartValue(t.Low)}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: "adlens topics",
			Width:     chartWidth,
			Height:    chartHeight,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Topic prevalence by " + s.Stratifier,
			Subtitle: fmt.Sprintf("%s of binarized weights, threshold %g", s.Method, s.Threshold),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)

	bar.SetXAxis(labels).
		AddSeries("high "+s.Stratifier, high).
		AddSeries("low "+s.Stratifier, low)

	page := components.NewPage()
	page.PageTitle = "adlens topics"
	page.AddCharts(bar)

	if err := page.Render(w); err != nil {
		return fmt.Errorf("render topic chart: %w", err)
	}

	return nil
}

// chartValue maps non-finite aggregates to zero for plotting.
func chartValue(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}

	return v
}
