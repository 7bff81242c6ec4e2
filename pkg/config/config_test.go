package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/adlens/pkg/alg/lsh"
	"github.com/Sumatoshi-tech/adlens/pkg/config"
	"github.com/Sumatoshi-tech/adlens/pkg/dedup"
	"github.com/Sumatoshi-tech/adlens/pkg/persist"
	"github.com/Sumatoshi-tech/adlens/pkg/topics"
)

const (
	testPort       = 9000
	testBands      = 10
	testSeeds      = 120
	testMaxDocs    = 777
	testHoodCount  = 3
	testSampleText = 2
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "adlens.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, dedup.DefaultOptions(), cfg.DedupOptions())
	assert.True(t, cfg.Clean.CleanPunct)
	assert.Equal(t, persist.CodecLZ4, cfg.Corpus.Codec)
	assert.InDelta(t, topics.DefaultThreshold, cfg.Topics.Threshold, 1e-12)
	assert.Equal(t, string(topics.MethodMean), cfg.Topics.Method)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, int64(64<<20), cfg.Server.MaxBodyBytes)
	assert.Equal(t, 1<<20, cfg.Server.MaxTextBytes)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "adlens", cfg.Telemetry.ServiceName)
}

func TestLoadConfigFromFile(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
dedup:
  method: prefix
  prefix_length: 40
  seeds: 120
  bands: 10
clean:
  hood_min_count: 3
topics:
  method: sum
  sample_texts: 2
server:
  port: 9000
  read_timeout: 5s
logging:
  format: json
`)

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	opts := cfg.DedupOptions()
	assert.Equal(t, dedup.MethodPrefix, opts.Method)
	assert.Equal(t, 40, opts.PrefixLength)
	assert.Equal(t, testSeeds, opts.Seeds)
	assert.Equal(t, testBands, opts.Bands)
	assert.Equal(t, testHoodCount, cfg.Clean.HoodMinCount)
	assert.Equal(t, "sum", cfg.Topics.Method)
	assert.Equal(t, testSampleText, cfg.Topics.SampleTexts)
	assert.Equal(t, testPort, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	t.Parallel()

	_, err := config.LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))

	require.Error(t, err)
}

func TestLoadConfig_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		want    error
	}{
		{"bands_not_divisor", "dedup:\n  seeds: 100\n  bands: 7\n", lsh.ErrBandsNotDivisor},
		{"threshold", "dedup:\n  similarity_threshold: 1.5\n", dedup.ErrInvalidThreshold},
		{"method", "dedup:\n  method: fuzzy\n", dedup.ErrUnknownMethod},
		{"codec", "corpus:\n  codec: zstd\n", persist.ErrUnknownCodec},
		{"topics_method", "topics:\n  method: median\n", topics.ErrUnknownMethod},
		{"port", "server:\n  port: 70000\n", config.ErrInvalidPort},
		{"max_docs", "server:\n  max_documents: 0\n", config.ErrInvalidMaxDocs},
		{"max_text", "server:\n  max_text_bytes: 0\n", config.ErrInvalidBodyLimit},
		{"log_level", "logging:\n  level: loud\n", config.ErrInvalidLogLevel},
		{"log_format", "logging:\n  format: xml\n", config.ErrInvalidLogFormat},
		{"sample_ratio", "telemetry:\n  sample_ratio: 2\n", config.ErrInvalidSampleRatio},
		{"hood_count", "clean:\n  hood_min_count: 0\n", config.ErrInvalidHoodCount},
		{"sample_size", "topics:\n  sample_topics: -1\n", config.ErrInvalidSampleSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := config.LoadConfig(writeConfig(t, tt.content))
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Setenv("ADLENS_DEDUP_BANDS", "10")
	t.Setenv("ADLENS_SERVER_PORT", "9000")

	cfg, err := config.LoadConfig(writeConfig(t, "dedup:\n  bands: 5\n"))
	require.NoError(t, err)

	assert.Equal(t, testBands, cfg.Dedup.Bands)
	assert.Equal(t, testPort, cfg.Server.Port)
}

func TestLoadConfig_EnvFile(t *testing.T) {
	const key = "ADLENS_SERVER_MAX_DOCUMENTS"

	require.NoError(t, os.Unsetenv(key))
	t.Cleanup(func() { _ = os.Unsetenv(key) })

	envPath := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(envPath, []byte(key+"=777\n"), 0o600))

	cfg, err := config.LoadConfig(writeConfig(t, ""), envPath)
	require.NoError(t, err)

	assert.Equal(t, testMaxDocs, cfg.Server.MaxDocuments)

	_, err = config.LoadConfig(writeConfig(t, ""), filepath.Join(t.TempDir(), "absent.env"))
	require.Error(t, err)
}
