package commands

import (
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/adlens/pkg/observability"
	"github.com/Sumatoshi-tech/adlens/pkg/server"
)

// NewServeCommand creates the HTTP server command.
func NewServeCommand(g *Globals) *cobra.Command {
	var (
		host string
		port int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dedup HTTP API",
		Long: `Serve near-duplicate detection over HTTP.

Endpoints:
  POST /v1/dedup       deduplicate a batch of documents
  POST /v1/similarity  compare two texts
  GET  /healthz        liveness and version
  GET  /metrics        Prometheus metrics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, g, observability.ModeServe, func(s *session) error {
				cfg := server.Config{
					Host:            s.cfg.Server.Host,
					Port:            s.cfg.Server.Port,
					ReadTimeout:     s.cfg.Server.ReadTimeout,
					WriteTimeout:    s.cfg.Server.WriteTimeout,
					IdleTimeout:     s.cfg.Server.IdleTimeout,
					ShutdownTimeout: s.cfg.Server.ShutdownTimeout,
					MaxDocuments:    s.cfg.Server.MaxDocuments,
					MaxBodyBytes:    s.cfg.Server.MaxBodyBytes,
					MaxTextBytes:    s.cfg.Server.MaxTextBytes,
					Dedup:           s.cfg.DedupOptions(),
				}

				if cmd.Flags().Changed("host") {
					cfg.Host = host
				}

				if cmd.Flags().Changed("port") {
					cfg.Port = port
				}

				srv := server.New(cfg, server.Deps{
					Logger:          s.logger(),
					Tracer:          s.providers.Tracer,
					RED:             s.red,
					PipelineMetrics: s.pipeline,
					Metrics:         s.prom.Handler(),
				})

				return srv.Run(cmd.Context())
			})
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "listen host (default server.host)")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (default server.port)")

	return cmd
}
