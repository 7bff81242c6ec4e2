package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/adlens/pkg/dataset"
	"github.com/Sumatoshi-tech/adlens/pkg/observability"
	"github.com/Sumatoshi-tech/adlens/pkg/stratify"
)

// ErrNoStratifier is returned when no --column flag is given.
var ErrNoStratifier = errors.New("at least one stratifier column is required (use --column)")

// StratifyCommand holds flags for the stratify command.
type StratifyCommand struct {
	globals *Globals

	output     string
	columns    []string
	newColumns []string
	threshold  float64
}

// NewStratifyCommand creates the stratify command.
func NewStratifyCommand(g *Globals) *cobra.Command {
	sc := &StratifyCommand{globals: g}

	cmd := &cobra.Command{
		Use:   "stratify <listings.csv>",
		Short: "Add binary high/low columns split at a threshold",
		Long: `Add a 0/1 column for each numeric stratifier column.

A row is 1 when its value is greater than the threshold. Without --threshold
the median of each column is used. New columns default to high_<column>.`,
		Args: cobra.ExactArgs(1),
		RunE: sc.run,
	}

	flags := cmd.Flags()
	flags.StringVarP(&sc.output, "output", "o", "-", "write the CSV here (- for stdout)")
	flags.StringSliceVarP(&sc.columns, "column", "c", nil, "numeric column to split (repeatable)")
	flags.StringSliceVar(&sc.newColumns, "new-column", nil, "name of each new column, paired with --column")
	flags.Float64Var(&sc.threshold, "threshold", 0, "split value (default median)")

	return cmd
}

func (sc *StratifyCommand) run(cmd *cobra.Command, args []string) error {
	if len(sc.columns) == 0 {
		return ErrNoStratifier
	}

	newColumns := sc.newColumns
	if len(newColumns) == 0 {
		newColumns = make([]string, len(sc.columns))
		for i, c := range sc.columns {
			newColumns[i] = "high_" + c
		}
	}

	var thresh *float64
	if cmd.Flags().Changed("threshold") {
		thresh = &sc.threshold
	}

	return withSession(cmd, sc.globals, observability.ModeCLI, func(s *session) error {
		ds, err := dataset.LoadCSV(args[0])
		if err != nil {
			return err
		}

		out, err := stratify.MakeMany(ds, sc.columns, newColumns, thresh)
		if err != nil {
			return fmt.Errorf("stratify: %w", err)
		}

		s.logger().InfoContext(cmd.Context(), "stratifiers added", "columns", newColumns, "rows", out.Len())

		return writeDataset(cmd, out, sc.output)
	})
}
