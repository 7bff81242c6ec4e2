package commands

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/adlens/pkg/dataset"
	"github.com/Sumatoshi-tech/adlens/pkg/observability"
	"github.com/Sumatoshi-tech/adlens/pkg/report"
	"github.com/Sumatoshi-tech/adlens/pkg/topics"
)

const keywordsPerTopic = 5

var (
	// ErrNoTopicCount is returned when neither --model nor --topics is given.
	ErrNoTopicCount = errors.New("topic count is unknown (use --model or --topics)")
	// ErrNoModel is returned when a command needs topic keywords without --model.
	ErrNoModel = errors.New("topic model is required (use --model)")
)

// topicsFlags are shared by the topics subcommands.
type topicsFlags struct {
	globals *Globals

	strat     string
	modelPath string
	nTopics   int
	columns   []string
	threshold float64
	method    string
}

func (tf *topicsFlags) bind(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVarP(&tf.strat, "strat", "s", "", "binary stratifier column (1 high, 0 low)")
	flags.StringVarP(&tf.modelPath, "model", "m", "", "topic model JSON export")
	flags.IntVarP(&tf.nTopics, "topics", "n", 0, "number of topics (default from --model)")
	flags.StringSliceVar(&tf.columns, "topic-columns", nil, "topic weight columns (default 0..n-1)")
	flags.Float64Var(&tf.threshold, "threshold", 0, "weight below which a topic is absent (default topics.threshold)")
	flags.StringVar(&tf.method, "method", "", "aggregation: mean or sum (default topics.method)")

	_ = cmd.MarkFlagRequired("strat")
}

// topicsRun is the loaded input of one topics subcommand.
type topicsRun struct {
	ds      *dataset.Dataset
	model   *topics.FileModel
	summary *topics.Summary
}

func (tf *topicsFlags) summarize(cmd *cobra.Command, s *session, path string) (*topicsRun, error) {
	run := &topicsRun{}

	if tf.modelPath != "" {
		model, err := topics.LoadModel(tf.modelPath)
		if err != nil {
			return nil, err
		}

		run.model = model
	}

	nTopics := tf.nTopics
	if nTopics <= 0 && run.model != nil {
		nTopics = run.model.NumTopics()
	}

	if nTopics <= 0 && len(tf.columns) == 0 {
		return nil, ErrNoTopicCount
	}

	if len(tf.columns) > 0 {
		nTopics = len(tf.columns)
	}

	method, err := topics.ParseMethod(firstNonEmpty(tf.method, s.cfg.Topics.Method))
	if err != nil {
		return nil, err
	}

	thresh := s.cfg.Topics.Threshold
	if cmd.Flags().Changed("threshold") {
		thresh = tf.threshold
	}

	run.ds, err = dataset.LoadCSV(path)
	if err != nil {
		return nil, err
	}

	run.summary, err = topics.SummarizeOnStratifier(run.ds, nTopics, tf.strat, tf.columns, thresh, method)
	if err != nil {
		return nil, err
	}

	s.logger().InfoContext(cmd.Context(), "topics summarized",
		"stratifier", tf.strat, "topics", nTopics, "documents", run.summary.Documents)

	return run, nil
}

// NewTopicsCommand creates the topics command group.
func NewTopicsCommand(g *Globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "topics",
		Short: "Compare topic prevalence across a binary stratifier",
		Long: `Summarize per-document topic weights against a 0/1 stratifier column.

Weights below the threshold count as absent, others as present. Each topic
is aggregated over all documents, the high (1) rows and the low (0) rows.`,
	}

	cmd.AddCommand(newTopicsSummarizeCommand(g))
	cmd.AddCommand(newTopicsCompareCommand(g))
	cmd.AddCommand(newTopicsReportCommand(g))

	return cmd
}

func newTopicsSummarizeCommand(g *Globals) *cobra.Command {
	tf := &topicsFlags{globals: g}

	var (
		format string
		output string
		color  bool
	)

	cmd := &cobra.Command{
		Use:   "summarize <weights.csv>",
		Short: "Print the per-topic summary table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := report.ParseFormat(format)
			if err != nil {
				return err
			}

			return withSession(cmd, g, observability.ModeCLI, func(s *session) error {
				run, err := tf.summarize(cmd, s, args[0])
				if err != nil {
					return err
				}

				var keywords []string
				if run.model != nil {
					keywords = topics.Keywords(run.model, keywordsPerTopic)
				}

				w, closeFn, err := createOutput(cmd, output)
				if err != nil {
					return err
				}

				err = report.WriteSummary(w, run.summary, keywords, report.Options{Format: f, Color: color})

				return errors.Join(err, closeFn())
			})
		},
	}

	tf.bind(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", string(report.FormatText), "output format: text, json, yaml or html")
	cmd.Flags().StringVarP(&output, "output", "o", "-", "write the summary here (- for stdout)")
	cmd.Flags().BoolVar(&color, "color", false, "colorize text output")

	return cmd
}

func newTopicsCompareCommand(g *Globals) *cobra.Command {
	tf := &topicsFlags{globals: g}

	cmd := &cobra.Command{
		Use:   "compare <weights.csv>",
		Short: "Rank topic ids by overall, high and low prevalence",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, g, observability.ModeCLI, func(s *session) error {
				run, err := tf.summarize(cmd, s, args[0])
				if err != nil {
					return err
				}

				return writeComparison(cmd.OutOrStdout(), run.summary.Compare())
			})
		},
	}

	tf.bind(cmd)

	return cmd
}

func writeComparison(w io.Writer, c topics.Comparison) error {
	for _, line := range []struct {
		label string
		ids   []int
	}{
		{"all", c.ByAll},
		{"high", c.ByHigh},
		{"low", c.ByLow},
	} {
		if _, err := fmt.Fprintf(w, "%-5s %v\n", line.label+":", line.ids); err != nil {
			return fmt.Errorf("write comparison: %w", err)
		}
	}

	return nil
}

func newTopicsReportCommand(g *Globals) *cobra.Command {
	tf := &topicsFlags{globals: g}

	var (
		by           string
		textColumn   string
		formatting   string
		sampleTopics int
		sampleTexts  int
	)

	cmd := &cobra.Command{
		Use:   "report <weights.csv>",
		Short: "List ranked topics with sample documents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			aggregate, err := topics.ParseAggregate(by)
			if err != nil {
				return err
			}

			if tf.modelPath == "" {
				return ErrNoModel
			}

			return withSession(cmd, g, observability.ModeCLI, func(s *session) error {
				run, err := tf.summarize(cmd, s, args[0])
				if err != nil {
					return err
				}

				lines, err := topics.FormattedTopicList(run.model, firstNonEmpty(formatting, s.cfg.Topics.Formatting), -1)
				if err != nil {
					return err
				}

				nTopics, nTexts := sampleTopics, sampleTexts
				if !cmd.Flags().Changed("sample-topics") {
					nTopics = s.cfg.Topics.SampleTopics
				}

				if !cmd.Flags().Changed("sample-texts") {
					nTexts = s.cfg.Topics.SampleTexts
				}

				return topics.TextOutput(cmd.OutOrStdout(), run.ds, run.summary.Ranked(aggregate), lines,
					nTopics, nTexts, firstNonEmpty(textColumn, s.cfg.Dedup.TextColumn))
			})
		},
	}

	tf.bind(cmd)

	flags := cmd.Flags()
	flags.StringVar(&by, "by", string(topics.AggregateDifference), "rank by all, high, low, difference or proportion")
	flags.StringVar(&textColumn, "text-column", "", "column holding the sample texts (default dedup.text_column)")
	flags.StringVar(&formatting, "formatting", "", "topic lines: summary or keywords (default topics.formatting)")
	flags.IntVar(&sampleTopics, "sample-topics", topics.DefaultSampleTopics, "ranked topics sampled")
	flags.IntVar(&sampleTexts, "sample-texts", topics.DefaultSampleTexts, "documents shown per sampled topic")

	return cmd
}
