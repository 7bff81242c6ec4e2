package commands

import (
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/adlens/pkg/mcp"
	"github.com/Sumatoshi-tech/adlens/pkg/observability"
)

// NewMCPCommand creates the MCP server command.
func NewMCPCommand(g *Globals) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for AI agent integration",
		Long: `Start a Model Context Protocol (MCP) server on stdio transport.

The MCP server exposes adlens as tools that AI agents can discover and invoke:
  - adlens_dedup: find near-duplicate listings in a batch of documents
  - adlens_similarity: compare two texts by shingle Jaccard and MinHash`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, g, observability.ModeMCP, func(s *session) error {
				srv := mcp.NewServer(mcp.ServerDeps{
					Logger:          s.logger(),
					Metrics:         s.red,
					PipelineMetrics: s.pipeline,
					Tracer:          s.providers.Tracer,
					Dedup:           s.cfg.DedupOptions(),
				})

				return srv.Run(cmd.Context())
			})
		},
	}
}
