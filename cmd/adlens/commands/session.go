// Package commands implements CLI command handlers for adlens.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/adlens/pkg/config"
	"github.com/Sumatoshi-tech/adlens/pkg/observability"
	"github.com/Sumatoshi-tech/adlens/pkg/version"
)

const logFormatJSON = "json"

// Globals are the persistent flags shared by every command.
type Globals struct {
	ConfigPath  string
	MetricsFile string
	Verbose     bool
	Quiet       bool
}

// Bind registers the persistent flags on root.
func (g *Globals) Bind(root *cobra.Command) {
	flags := root.PersistentFlags()
	flags.StringVar(&g.ConfigPath, "config", "", "config file (default ./adlens.yaml, ./config/adlens.yaml or /etc/adlens/adlens.yaml)")
	flags.StringVar(&g.MetricsFile, "metrics-file", "", "write Prometheus metrics to this textfile on exit")
	flags.BoolVarP(&g.Verbose, "verbose", "v", false, "debug logging")
	flags.BoolVarP(&g.Quiet, "quiet", "q", false, "only log errors")
}

// session is the loaded configuration and telemetry of one command run.
type session struct {
	cfg         *config.Config
	providers   observability.Providers
	prom        *observability.Prometheus
	red         *observability.REDMetrics
	pipeline    *observability.PipelineMetrics
	metricsFile string
}

func (r *session) logger() *slog.Logger {
	return r.providers.Logger
}

// setup loads the configuration and initializes telemetry for mode. Callers
// must call close.
func setup(g *Globals, mode observability.AppMode, logOutput io.Writer) (*session, error) {
	cfg, err := config.LoadConfig(g.ConfigPath)
	if err != nil {
		return nil, err
	}

	obsCfg := observability.DefaultConfig()
	obsCfg.Mode = mode
	obsCfg.ServiceName = cfg.Telemetry.ServiceName
	obsCfg.ServiceVersion = version.Version
	obsCfg.Environment = cfg.Telemetry.Environment
	obsCfg.OTLPEndpoint = cfg.Telemetry.OTLPEndpoint
	obsCfg.OTLPHeaders = observability.ParseOTLPHeaders(cfg.Telemetry.OTLPHeaders)
	obsCfg.OTLPInsecure = cfg.Telemetry.OTLPInsecure
	obsCfg.SampleRatio = cfg.Telemetry.SampleRatio
	obsCfg.LogLevel = observability.ParseLogLevel(cfg.Logging.Level)
	obsCfg.LogJSON = strings.EqualFold(cfg.Logging.Format, logFormatJSON)
	obsCfg.LogOutput = logOutput

	switch {
	case g.Verbose:
		obsCfg.LogLevel = slog.LevelDebug
	case g.Quiet:
		obsCfg.LogLevel = slog.LevelError
	}

	rt := &session{cfg: cfg, metricsFile: g.MetricsFile}

	if g.MetricsFile != "" || mode == observability.ModeServe {
		rt.prom, err = observability.NewPrometheus()
		if err != nil {
			return nil, err
		}

		obsCfg.MetricReaders = append(obsCfg.MetricReaders, rt.prom.Reader())
	}

	rt.providers, err = observability.Init(obsCfg)
	if err != nil {
		return nil, err
	}

	rt.red, err = observability.NewREDMetrics(rt.providers.Meter)
	if err != nil {
		return nil, errors.Join(err, rt.providers.Shutdown(context.Background()))
	}

	rt.pipeline, err = observability.NewPipelineMetrics(rt.providers.Meter)
	if err != nil {
		return nil, errors.Join(err, rt.providers.Shutdown(context.Background()))
	}

	return rt, nil
}

// close writes the metrics textfile, if requested, and flushes telemetry.
func (r *session) close(ctx context.Context) error {
	var errs []error

	if r.metricsFile != "" && r.prom != nil {
		errs = append(errs, r.prom.WriteTextfile(r.metricsFile))
	}

	if err := r.providers.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("observability shutdown: %w", err))
	}

	return errors.Join(errs...)
}

// withSession runs fn with a session for mode and closes it afterwards.
func withSession(cmd *cobra.Command, g *Globals, mode observability.AppMode, fn func(*session) error) (err error) {
	rt, err := setup(g, mode, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	defer func() {
		err = errors.Join(err, rt.close(context.WithoutCancel(cmd.Context())))
	}()

	return fn(rt)
}

// createOutput opens path for writing, or returns stdout for "" and "-".
func createOutput(cmd *cobra.Command, path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create output: %w", err)
	}

	return f, f.Close, nil
}

func ensureDir(dir string, perm os.FileMode) error {
	if err := os.MkdirAll(dir, perm); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}

	return nil
}
