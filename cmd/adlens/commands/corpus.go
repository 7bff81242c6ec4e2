package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/adlens/pkg/corpus"
	"github.com/Sumatoshi-tech/adlens/pkg/dataset"
	"github.com/Sumatoshi-tech/adlens/pkg/observability"
	"github.com/Sumatoshi-tech/adlens/pkg/persist"
	"github.com/Sumatoshi-tech/adlens/pkg/textclean"
)

const (
	corpusTopTokens = 10
	corpusDirPerm   = 0o750
)

// ErrNoOutputDir is returned when the --out-dir flag is not set.
var ErrNoOutputDir = errors.New("output directory is required (use --out-dir)")

// CorpusCommand holds flags for the corpus command.
type CorpusCommand struct {
	globals *Globals

	outDir    string
	column    string
	codec     string
	stopwords string
	stream    bool
}

// NewCorpusCommand creates the corpus command.
func NewCorpusCommand(g *Globals) *cobra.Command {
	cc := &CorpusCommand{globals: g}

	cmd := &cobra.Command{
		Use:   "corpus <listings.csv | documents.txt>",
		Short: "Build and save a token dictionary and bag-of-words corpus",
		Long: `Tokenize documents into a dictionary and bag-of-words corpus.

From a CSV the text column is lowercased, stripped of stopwords and filtered
to tokens of four or more characters. With --stream the input holds one
document per line; the dictionary drops English stopwords and tokens that
occur in a single document.`,
		Args: cobra.ExactArgs(1),
		RunE: cc.run,
	}

	flags := cmd.Flags()
	flags.StringVarP(&cc.outDir, "out-dir", "o", "", "directory for the dictionary and corpus files")
	flags.StringVar(&cc.column, "column", defaultCleanColumn, "CSV column holding the documents")
	flags.StringVar(&cc.codec, "codec", "", "persistence codec: json, gob or lz4 (default corpus.codec)")
	flags.StringVar(&cc.stopwords, "stopwords", "", "stopword list, one per line (default built-in English)")
	flags.BoolVar(&cc.stream, "stream", false, "read one document per line without loading the file")

	return cmd
}

func (cc *CorpusCommand) run(cmd *cobra.Command, args []string) error {
	if cc.outDir == "" {
		return ErrNoOutputDir
	}

	return withSession(cmd, cc.globals, observability.ModeCLI, func(s *session) error {
		codec, err := persist.CodecByName(firstNonEmpty(cc.codec, s.cfg.Corpus.Codec))
		if err != nil {
			return err
		}

		var (
			docs corpus.Corpus
			dict *corpus.Dictionary
		)

		if cc.stream {
			docs, dict, err = cc.streamed(args[0])
		} else {
			docs, dict, err = cc.built(args[0], firstNonEmpty(cc.stopwords, s.cfg.Corpus.StopwordsFile))
		}

		if err != nil {
			return err
		}

		if err = ensureDir(cc.outDir, corpusDirPerm); err != nil {
			return err
		}

		if err = corpus.SaveDictionary(cc.outDir, codec, dict); err != nil {
			return err
		}

		if err = corpus.SaveCorpus(cc.outDir, codec, docs); err != nil {
			return err
		}

		s.logger().InfoContext(cmd.Context(), "corpus saved",
			"dir", cc.outDir, "documents", len(docs), "tokens", dict.Len())

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Documents: %s\n", humanize.Comma(int64(len(docs))))
		fmt.Fprintf(out, "Tokens:    %s\n", humanize.Comma(int64(dict.Len())))
		fmt.Fprintf(out, "Top:       %s\n", strings.Join(dict.TopTokens(corpusTopTokens), ", "))

		return nil
	})
}

func (cc *CorpusCommand) streamed(path string) (corpus.Corpus, *corpus.Dictionary, error) {
	stream, err := corpus.NewStreamCorpus(path, nil)
	if err != nil {
		return nil, nil, err
	}

	docs, err := stream.Collect()
	if err != nil {
		return nil, nil, err
	}

	return docs, stream.Dictionary(), nil
}

func (cc *CorpusCommand) built(path, stopwordsFile string) (corpus.Corpus, *corpus.Dictionary, error) {
	ds, err := dataset.LoadCSV(path)
	if err != nil {
		return nil, nil, err
	}

	texts, err := ds.Column(cc.column)
	if err != nil {
		return nil, nil, err
	}

	var stopwords []string

	if stopwordsFile != "" {
		stopwords, err = textclean.LoadLines(stopwordsFile)
		if err != nil {
			return nil, nil, err
		}
	}

	return corpus.Build(texts, stopwords)
}
