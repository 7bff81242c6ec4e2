// Package config provides configuration loading and validation for adlens.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/Sumatoshi-tech/adlens/pkg/dedup"
	"github.com/Sumatoshi-tech/adlens/pkg/persist"
	"github.com/Sumatoshi-tech/adlens/pkg/topics"
)

// Sentinel validation errors.
var (
	ErrInvalidPort        = errors.New("invalid server port")
	ErrInvalidMaxDocs     = errors.New("server max documents must be positive")
	ErrInvalidBodyLimit   = errors.New("server body and text limits must be positive")
	ErrInvalidLogLevel    = errors.New("invalid log level")
	ErrInvalidLogFormat   = errors.New("log format must be text or json")
	ErrInvalidSampleRatio = errors.New("trace sample ratio must be in [0, 1]")
	ErrInvalidHoodCount   = errors.New("neighborhood min count must be positive")
	ErrInvalidSampleSize  = errors.New("topic sample sizes must not be negative")
)

// Default configuration values.
const (
	defaultPort            = 8080
	defaultHost            = "0.0.0.0"
	defaultMaxDocuments    = 50000
	defaultMaxBodyBytes    = 64 << 20
	defaultMaxTextBytes    = 1 << 20
	defaultHoodMinCount    = 2
	defaultSampleTopics    = 10
	defaultSampleTexts     = 5
	defaultCorpusCodec     = persist.CodecLZ4
	defaultServiceName     = "adlens"
	defaultTopicFormatting = topics.FormattingKeywords
	maxPort                = 65535

	// EnvPrefix prefixes every environment override, e.g. ADLENS_DEDUP_BANDS.
	EnvPrefix = "ADLENS"

	// DefaultEnvFile is loaded when present and no env files are given.
	DefaultEnvFile = ".env"
)

// Config holds all configuration for adlens.
type Config struct {
	Dedup     DedupConfig     `mapstructure:"dedup"`
	Clean     CleanConfig     `mapstructure:"clean"`
	Corpus    CorpusConfig    `mapstructure:"corpus"`
	Topics    TopicsConfig    `mapstructure:"topics"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Server    ServerConfig    `mapstructure:"server"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// DedupConfig holds near-duplicate detection settings.
type DedupConfig struct {
	Method       string  `mapstructure:"method"`
	TextColumn   string  `mapstructure:"text_column"`
	CharNgram    int     `mapstructure:"char_ngram"`
	Seeds        int     `mapstructure:"seeds"`
	Bands        int     `mapstructure:"bands"`
	HashBytes    int     `mapstructure:"hash_width_bytes"`
	Threshold    float64 `mapstructure:"similarity_threshold"`
	PrefixLength int     `mapstructure:"prefix_length"`
}

// CleanConfig holds text cleaning settings.
type CleanConfig struct {
	CleanPunct   bool   `mapstructure:"clean_punct"`
	BodyMode     bool   `mapstructure:"body_mode"`
	HoodsFile    string `mapstructure:"hoods_file"`
	HoodMinCount int    `mapstructure:"hood_min_count"`
}

// CorpusConfig holds corpus building settings.
type CorpusConfig struct {
	Codec         string `mapstructure:"codec"`
	StopwordsFile string `mapstructure:"stopwords_file"`
}

// TopicsConfig holds topic summary settings.
type TopicsConfig struct {
	Threshold    float64 `mapstructure:"threshold"`
	Method       string  `mapstructure:"method"`
	Formatting   string  `mapstructure:"formatting"`
	SampleTopics int     `mapstructure:"sample_topics"`
	SampleTexts  int     `mapstructure:"sample_texts"`
}

// LoggingConfig holds logging-specific configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	Port            int           `mapstructure:"port"`
	MaxDocuments    int           `mapstructure:"max_documents"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes"`
	MaxTextBytes    int           `mapstructure:"max_text_bytes"`
}

// TelemetryConfig holds OpenTelemetry export settings.
type TelemetryConfig struct {
	ServiceName  string  `mapstructure:"service_name"`
	Environment  string  `mapstructure:"environment"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	OTLPHeaders  string  `mapstructure:"otlp_headers"`
	OTLPInsecure bool    `mapstructure:"otlp_insecure"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
}

// LoadConfig loads configuration from file and environment variables.
// Env files are loaded first without overriding variables already set; with
// none given, DefaultEnvFile is loaded if it exists.
func LoadConfig(configPath string, envFiles ...string) (*Config, error) {
	if err := loadEnvFiles(envFiles); err != nil {
		return nil, err
	}

	viperCfg := viper.New()

	setDefaults(viperCfg)

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName("adlens")
		viperCfg.SetConfigType("yaml")
		viperCfg.AddConfigPath(".")
		viperCfg.AddConfigPath("./config")
		viperCfg.AddConfigPath("/etc/adlens")
	}

	viperCfg.SetEnvPrefix(EnvPrefix)
	viperCfg.AutomaticEnv()
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFoundErr) {
			return nil, fmt.Errorf("failed to read config file: %w", readErr)
		}
	}

	var config Config

	unmarshalErr := viperCfg.Unmarshal(&config)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", unmarshalErr)
	}

	validateErr := config.Validate()
	if validateErr != nil {
		return nil, fmt.Errorf("invalid configuration: %w", validateErr)
	}

	return &config, nil
}

func loadEnvFiles(files []string) error {
	if len(files) == 0 {
		if _, err := os.Stat(DefaultEnvFile); err != nil {
			return nil
		}

		files = []string{DefaultEnvFile}
	}

	if err := godotenv.Load(files...); err != nil {
		return fmt.Errorf("failed to load env files: %w", err)
	}

	return nil
}

// setDefaults sets default configuration values.
func setDefaults(viperCfg *viper.Viper) {
	def := dedup.DefaultOptions()

	// Dedup defaults.
	viperCfg.SetDefault("dedup.method", string(def.Method))
	viperCfg.SetDefault("dedup.text_column", def.TextColumn)
	viperCfg.SetDefault("dedup.char_ngram", def.CharNgram)
	viperCfg.SetDefault("dedup.seeds", def.Seeds)
	viperCfg.SetDefault("dedup.bands", def.Bands)
	viperCfg.SetDefault("dedup.hash_width_bytes", def.HashBytes)
	viperCfg.SetDefault("dedup.similarity_threshold", def.Threshold)
	viperCfg.SetDefault("dedup.prefix_length", def.PrefixLength)

	// Clean defaults.
	viperCfg.SetDefault("clean.clean_punct", true)
	viperCfg.SetDefault("clean.body_mode", false)
	viperCfg.SetDefault("clean.hoods_file", "")
	viperCfg.SetDefault("clean.hood_min_count", defaultHoodMinCount)

	// Corpus defaults.
	viperCfg.SetDefault("corpus.codec", defaultCorpusCodec)
	viperCfg.SetDefault("corpus.stopwords_file", "")

	// Topics defaults.
	viperCfg.SetDefault("topics.threshold", topics.DefaultThreshold)
	viperCfg.SetDefault("topics.method", string(topics.MethodMean))
	viperCfg.SetDefault("topics.formatting", defaultTopicFormatting)
	viperCfg.SetDefault("topics.sample_topics", defaultSampleTopics)
	viperCfg.SetDefault("topics.sample_texts", defaultSampleTexts)

	// Logging defaults.
	viperCfg.SetDefault("logging.level", "info")
	viperCfg.SetDefault("logging.format", "text")

	// Server defaults.
	viperCfg.SetDefault("server.port", defaultPort)
	viperCfg.SetDefault("server.host", defaultHost)
	viperCfg.SetDefault("server.read_timeout", "30s")
	viperCfg.SetDefault("server.write_timeout", "60s")
	viperCfg.SetDefault("server.idle_timeout", "120s")
	viperCfg.SetDefault("server.shutdown_timeout", "10s")
	viperCfg.SetDefault("server.max_documents", defaultMaxDocuments)
	viperCfg.SetDefault("server.max_body_bytes", defaultMaxBodyBytes)
	viperCfg.SetDefault("server.max_text_bytes", defaultMaxTextBytes)

	// Telemetry defaults.
	viperCfg.SetDefault("telemetry.service_name", defaultServiceName)
	viperCfg.SetDefault("telemetry.environment", "")
	viperCfg.SetDefault("telemetry.otlp_endpoint", "")
	viperCfg.SetDefault("telemetry.otlp_headers", "")
	viperCfg.SetDefault("telemetry.otlp_insecure", false)
	viperCfg.SetDefault("telemetry.sample_ratio", 1.0)
}

// DedupOptions converts the dedup section to pipeline options.
func (c *Config) DedupOptions() dedup.Options {
	return dedup.Options{
		Method:       dedup.Method(strings.ToLower(c.Dedup.Method)),
		TextColumn:   c.Dedup.TextColumn,
		CharNgram:    c.Dedup.CharNgram,
		Seeds:        c.Dedup.Seeds,
		Bands:        c.Dedup.Bands,
		HashBytes:    c.Dedup.HashBytes,
		Threshold:    c.Dedup.Threshold,
		PrefixLength: c.Dedup.PrefixLength,
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.DedupOptions().Validate(); err != nil {
		return err
	}

	if c.Clean.HoodMinCount <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidHoodCount, c.Clean.HoodMinCount)
	}

	if _, err := persist.CodecByName(c.Corpus.Codec); err != nil {
		return err
	}

	if _, err := topics.ParseMethod(c.Topics.Method); err != nil {
		return err
	}

	if c.Topics.SampleTopics < 0 || c.Topics.SampleTexts < 0 {
		return fmt.Errorf("%w: %d topics, %d texts", ErrInvalidSampleSize, c.Topics.SampleTopics, c.Topics.SampleTexts)
	}

	if err := c.validateLogging(); err != nil {
		return err
	}

	if c.Server.Port <= 0 || c.Server.Port > maxPort {
		return fmt.Errorf("%w: %d", ErrInvalidPort, c.Server.Port)
	}

	if c.Server.MaxDocuments <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidMaxDocs, c.Server.MaxDocuments)
	}

	if c.Server.MaxBodyBytes <= 0 || c.Server.MaxTextBytes <= 0 {
		return fmt.Errorf("%w: body %d, text %d", ErrInvalidBodyLimit, c.Server.MaxBodyBytes, c.Server.MaxTextBytes)
	}

	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("%w: %v", ErrInvalidSampleRatio, c.Telemetry.SampleRatio)
	}

	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.Logging.Level)
	}

	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLogFormat, c.Logging.Format)
	}

	return nil
}
