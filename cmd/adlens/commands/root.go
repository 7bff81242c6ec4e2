package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/adlens/pkg/version"
)

// NewRootCommand builds the adlens command tree.
func NewRootCommand() *cobra.Command {
	globals := &Globals{}

	root := &cobra.Command{
		Use:   "adlens",
		Short: "adlens - near-duplicate detection and topic analysis for listings",
		Long: `adlens prepares scraped classified ads for text analysis.

Commands:
  dedup     drop near-duplicate listings
  clean     clean listing text for topic modelling
  hoods     derive a neighborhood list
  corpus    build a token dictionary and bag-of-words corpus
  stratify  add binary high/low columns
  topics    compare topic prevalence across a stratifier
  serve     serve the dedup HTTP API
  mcp       serve dedup tools over MCP`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	globals.Bind(root)

	root.AddCommand(NewDedupCommand(globals))
	root.AddCommand(NewCleanCommand(globals))
	root.AddCommand(NewHoodsCommand(globals))
	root.AddCommand(NewCorpusCommand(globals))
	root.AddCommand(NewStratifyCommand(globals))
	root.AddCommand(NewTopicsCommand(globals))
	root.AddCommand(NewServeCommand(globals))
	root.AddCommand(NewMCPCommand(globals))
	root.AddCommand(newVersionCommand())

	return root
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "adlens %s\n", version.String())
		},
	}
}
