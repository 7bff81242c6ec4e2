package commands

import (
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/adlens/pkg/dataset"
	"github.com/Sumatoshi-tech/adlens/pkg/observability"
	"github.com/Sumatoshi-tech/adlens/pkg/textclean"
)

const (
	cleanCmdUse   = "clean <listings.csv>"
	cleanCmdShort = "Clean listing text for topic modelling"

	defaultCleanColumn = "clean_text"
)

// CleanCommand holds flags for the clean command.
type CleanCommand struct {
	globals *Globals

	output     string
	column     string
	newColumn  string
	hoodsFile  string
	bodyMode   bool
	keepPunct  bool
	noHoodMask bool
}

// NewCleanCommand creates the clean command.
func NewCleanCommand(g *Globals) *cobra.Command {
	cc := &CleanCommand{globals: g}

	cmd := &cobra.Command{
		Use:   cleanCmdUse,
		Short: cleanCmdShort,
		Long: `Strip boilerplate, URLs, digits and punctuation from a text column.

Runs of ! and $ are kept as tokens. With a neighborhood list (--hoods or
clean.hoods_file) every listed name is replaced by #HOOD.`,
		Args: cobra.ExactArgs(1),
		RunE: cc.run,
	}

	flags := cmd.Flags()
	flags.StringVarP(&cc.output, "output", "o", "-", "write the cleaned CSV here (- for stdout)")
	flags.StringVar(&cc.column, "column", "", "column to clean (default dedup.text_column)")
	flags.StringVar(&cc.newColumn, "new-column", defaultCleanColumn, "column receiving the cleaned text")
	flags.StringVar(&cc.hoodsFile, "hoods", "", "neighborhood list, one name per line")
	flags.BoolVar(&cc.bodyMode, "body-mode", false, "only strip boilerplate and join lines")
	flags.BoolVar(&cc.keepPunct, "keep-punct", false, "keep punctuation")
	flags.BoolVar(&cc.noHoodMask, "no-hoods", false, "skip neighborhood masking")

	return cmd
}

func (cc *CleanCommand) run(cmd *cobra.Command, args []string) error {
	return withSession(cmd, cc.globals, observability.ModeCLI, func(s *session) error {
		ds, err := dataset.LoadCSV(args[0])
		if err != nil {
			return err
		}

		column := firstNonEmpty(cc.column, s.cfg.Dedup.TextColumn)

		texts, err := ds.Column(column)
		if err != nil {
			return err
		}

		opts := textclean.Options{
			CleanPunct: s.cfg.Clean.CleanPunct && !cc.keepPunct,
			BodyMode:   s.cfg.Clean.BodyMode || cc.bodyMode,
		}

		cleaned := textclean.CleanAll(texts, opts)

		if hoods := firstNonEmpty(cc.hoodsFile, s.cfg.Clean.HoodsFile); hoods != "" && !cc.noHoodMask {
			names, loadErr := textclean.LoadLines(hoods)
			if loadErr != nil {
				return loadErr
			}

			cleaned, err = textclean.StripNeighborhoods(cleaned, names, s.logger())
			if err != nil {
				return err
			}
		}

		if err = ds.SetColumn(cc.newColumn, cleaned); err != nil {
			return err
		}

		s.logger().InfoContext(cmd.Context(), "cleaned texts", "column", column, "rows", ds.Len())

		return writeDataset(cmd, ds, cc.output)
	})
}

func writeDataset(cmd *cobra.Command, ds *dataset.Dataset, path string) error {
	if path != "" && path != "-" {
		return ds.SaveCSV(path)
	}

	return ds.WriteCSV(cmd.OutOrStdout())
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}

	return ""
}
