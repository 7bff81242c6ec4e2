package commands

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/adlens/pkg/dataset"
	"github.com/Sumatoshi-tech/adlens/pkg/observability"
	"github.com/Sumatoshi-tech/adlens/pkg/textclean"
)

const defaultHoodColumn = "neighborhood"

// HoodsCommand holds flags for the hoods command.
type HoodsCommand struct {
	globals *Globals

	output   string
	column   string
	minCount int
}

// NewHoodsCommand creates the hoods command.
func NewHoodsCommand(g *Globals) *cobra.Command {
	hc := &HoodsCommand{globals: g}

	cmd := &cobra.Command{
		Use:   "hoods <listings.csv>",
		Short: "Derive a neighborhood list from a neighborhood column",
		Args:  cobra.ExactArgs(1),
		RunE:  hc.run,
	}

	flags := cmd.Flags()
	flags.StringVarP(&hc.output, "output", "o", "-", "write the list here (- for stdout)")
	flags.StringVar(&hc.column, "column", defaultHoodColumn, "column holding raw neighborhood names")
	flags.IntVar(&hc.minCount, "min-count", 0, "minimum occurrences of a name (default clean.hood_min_count)")

	return cmd
}

func (hc *HoodsCommand) run(cmd *cobra.Command, args []string) error {
	return withSession(cmd, hc.globals, observability.ModeCLI, func(s *session) error {
		ds, err := dataset.LoadCSV(args[0])
		if err != nil {
			return err
		}

		values, err := ds.Column(hc.column)
		if err != nil {
			return err
		}

		minCount := hc.minCount
		if minCount <= 0 {
			minCount = s.cfg.Clean.HoodMinCount
		}

		names := textclean.NeighborhoodList(values, minCount)

		s.logger().InfoContext(cmd.Context(), "neighborhoods found", "names", len(names), "min_count", minCount)

		w, closeFn, err := createOutput(cmd, hc.output)
		if err != nil {
			return err
		}

		return errors.Join(textclean.WriteLines(w, names), closeFn())
	})
}
