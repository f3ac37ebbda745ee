package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/INLOpen/nexusjoin/compressors"
	"github.com/INLOpen/nexusjoin/core"
	"github.com/INLOpen/nexusjoin/serde"
	"gopkg.in/yaml.v3"
)

// SchemaConfig holds the combined key schema settings.
type SchemaConfig struct {
	ForeignKeyTopic string `yaml:"foreign_key_topic"`
	PrimaryKeyTopic string `yaml:"primary_key_topic"`
	DefaultKeySerde string `yaml:"default_key_serde"` // serde used when none is configured per key type
}

// StoreConfig holds reverse index store settings.
type StoreConfig struct {
	Compression string `yaml:"compression"` // none, snappy, lz4, zstd
}

// LoggingConfig holds logging-specific configurations.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // e.g., "debug", "info", "warn", "error"
	Output string `yaml:"output"` // e.g., "stdout", "stderr", "file", "none"
	File   string `yaml:"file"`   // Path to the log file, used if output is "file"
}

// TracingConfig holds configuration for distributed tracing.
type TracingConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Endpoint    string `yaml:"endpoint"` // e.g., "localhost:4317" for gRPC OTLP collector
	Protocol    string `yaml:"protocol"` // "grpc" or "http"
	ServiceName string `yaml:"service_name"`
}

// Config is the top-level configuration struct.
type Config struct {
	ApplicationID string        `yaml:"application_id"`
	Schema        SchemaConfig  `yaml:"schema"`
	Store         StoreConfig   `yaml:"store"`
	Logging       LoggingConfig `yaml:"logging"`
	Tracing       TracingConfig `yaml:"tracing"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		ApplicationID: "nexusjoin",
		Schema: SchemaConfig{
			ForeignKeyTopic: "fk-join-subscription-registration-topic",
			PrimaryKeyTopic: "fk-join-subscription-response-topic",
			DefaultKeySerde: "string",
		},
		Store: StoreConfig{
			Compression: "none",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: "stderr",
			File:   "nexusjoin.log",
		},
		Tracing: TracingConfig{
			Enabled:     false,
			Endpoint:    "localhost:4317",
			Protocol:    "grpc",
			ServiceName: "nexusjoin",
		},
	}
}

// Load reads configuration from an io.Reader.
// This is the core logic, separated for testability.
func Load(r io.Reader) (*Config, error) {
	cfg := Default()

	// If the reader is nil, it's like an empty file, return defaults.
	if r == nil {
		return cfg, nil
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read config data: %w", err)
	}
	if len(data) == 0 {
		return cfg, nil
	}

	// Unmarshal YAML into the config struct, overwriting defaults
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfig reads configuration from a YAML file by path.
func LoadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			// If file doesn't exist, return default config by calling Load with a nil reader.
			return Load(nil)
		}
		return nil, fmt.Errorf("failed to open config file %s: %w", path, err)
	}
	defer file.Close()

	return Load(file)
}

// Validate checks every enumerated setting.
func (c *Config) Validate() error {
	var errs []error
	if _, err := core.ParseCompressionType(c.Store.Compression); err != nil {
		errs = append(errs, err)
	}
	if _, err := serde.ByName(c.Schema.DefaultKeySerde); err != nil {
		errs = append(errs, &core.ValidationError{Field: "default_key_serde", Value: c.Schema.DefaultKeySerde, Message: err.Error()})
	}
	if _, err := parseLevel(c.Logging.Level); err != nil {
		errs = append(errs, err)
	}
	switch strings.ToLower(c.Logging.Output) {
	case "stdout", "stderr", "none":
	case "file":
		if c.Logging.File == "" {
			errs = append(errs, &core.ValidationError{Field: "logging.file", Value: "", Message: "log output is 'file' but no file path is specified"})
		}
	default:
		errs = append(errs, &core.ValidationError{Field: "logging.output", Value: c.Logging.Output, Message: "invalid log output"})
	}
	if c.Tracing.Enabled {
		switch strings.ToLower(c.Tracing.Protocol) {
		case "grpc", "http":
		default:
			errs = append(errs, &core.ValidationError{Field: "tracing.protocol", Value: c.Tracing.Protocol, Message: "must be grpc or http"})
		}
	}
	if c.Schema.ForeignKeyTopic == "" {
		errs = append(errs, &core.ValidationError{Field: "schema.foreign_key_topic", Message: "must not be empty"})
	}
	if c.Schema.PrimaryKeyTopic == "" {
		errs = append(errs, &core.ValidationError{Field: "schema.primary_key_topic", Message: "must not be empty"})
	}
	return errors.Join(errs...)
}

// NewCompressor returns the compressor selected by Store.Compression.
func (c *Config) NewCompressor() (core.Compressor, error) {
	return compressors.ByName(c.Store.Compression)
}

// DefaultKeySerde returns the serde selected by Schema.DefaultKeySerde.
func (c *Config) DefaultKeySerde() (serde.Serde[any], error) {
	return serde.ByName(c.Schema.DefaultKeySerde)
}

func parseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, &core.ValidationError{Field: "logging.level", Value: level, Message: "invalid log level"}
	}
}

// NewLogger creates a JSON slog.Logger based on the provided configuration.
// The returned closer is non-nil only when a log file was opened.
func NewLogger(cfg LoggingConfig) (*slog.Logger, io.Closer, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}

	var output io.Writer
	var closer io.Closer
	switch strings.ToLower(cfg.Output) {
	case "stdout":
		output = os.Stdout
	case "stderr":
		output = os.Stderr
	case "file":
		if cfg.File == "" {
			return nil, nil, fmt.Errorf("log output is 'file' but no file path is specified")
		}
		file, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file %s: %w", cfg.File, err)
		}
		output = file
		closer = file
	case "none":
		output = io.Discard
	default:
		return nil, nil, fmt.Errorf("invalid log output: %s", cfg.Output)
	}

	return slog.New(slog.NewJSONHandler(output, &slog.HandlerOptions{Level: level})), closer, nil
}
