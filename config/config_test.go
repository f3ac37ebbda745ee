package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/INLOpen/nexusjoin/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_FromReader(t *testing.T) {
	yamlContent := `
application_id: orders-app
schema:
  foreign_key_topic: "customers-fk"
  default_key_serde: "int64"
store:
  compression: "zstd"
logging:
  level: "debug"
  output: "none"
tracing:
  enabled: true
  protocol: "http"
  endpoint: "collector:4318"
  service_name: "orders"
`
	cfg, err := Load(strings.NewReader(yamlContent))
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "orders-app", cfg.ApplicationID)
	assert.Equal(t, "customers-fk", cfg.Schema.ForeignKeyTopic)
	assert.Equal(t, "int64", cfg.Schema.DefaultKeySerde)
	assert.Equal(t, "zstd", cfg.Store.Compression)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "none", cfg.Logging.Output)
	assert.True(t, cfg.Tracing.Enabled)
	assert.Equal(t, "orders", cfg.Tracing.ServiceName)
	assert.Equal(t, "http", cfg.Tracing.Protocol)
	assert.Equal(t, "collector:4318", cfg.Tracing.Endpoint)

	// Unset fields keep their defaults.
	assert.Equal(t, "fk-join-subscription-response-topic", cfg.Schema.PrimaryKeyTopic)
	assert.Equal(t, "nexusjoin.log", cfg.Logging.File)

	comp, err := cfg.NewCompressor()
	require.NoError(t, err)
	assert.Equal(t, core.CompressionZSTD, comp.Type())

	ks, err := cfg.DefaultKeySerde()
	require.NoError(t, err)
	assert.True(t, ks.Complete())
}

func TestLoad_EmptyReader(t *testing.T) {
	// Test with nil reader
	cfg, err := Load(nil)
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, "nexusjoin", cfg.ApplicationID) // Check a default value

	// Test with empty string reader
	cfg, err = Load(strings.NewReader(""))
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, "string", cfg.Schema.DefaultKeySerde)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_InvalidYAML(t *testing.T) {
	yamlContent := `
schema:
  foreign_key_topic: "x"
  this: is: invalid: yaml
`
	_, err := Load(strings.NewReader(yamlContent))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to unmarshal config yaml")
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"Defaults", func(c *Config) {}, ""},
		{"UnknownCompression", func(c *Config) { c.Store.Compression = "brotli" }, "unknown compression type"},
		{"UnknownSerde", func(c *Config) { c.Schema.DefaultKeySerde = "float" }, "default_key_serde"},
		{"BadLevel", func(c *Config) { c.Logging.Level = "loud" }, "invalid log level"},
		{"BadOutput", func(c *Config) { c.Logging.Output = "syslog" }, "invalid log output"},
		{"FileWithoutPath", func(c *Config) { c.Logging.Output = "file"; c.Logging.File = "" }, "no file path"},
		{"EmptyForeignTopic", func(c *Config) { c.Schema.ForeignKeyTopic = "" }, "schema.foreign_key_topic"},
		{"BadTracingProtocol", func(c *Config) { c.Tracing.Enabled = true; c.Tracing.Protocol = "udp" }, "tracing.protocol"},
		{"DisabledTracingIgnoresProtocol", func(c *Config) { c.Tracing.Protocol = "udp" }, ""},
		{"EmptyPrimaryTopic", func(c *Config) { c.Schema.PrimaryKeyTopic = "" }, "schema.primary_key_topic"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	_, err := Load(strings.NewReader("store:\n  compression: gzip\n"))
	require.Error(t, err)
	assert.True(t, core.IsValidationError(err))
}

// TestLoadConfig_FileIntegration ensures LoadConfig works with the filesystem.
func TestLoadConfig_FileIntegration(t *testing.T) {
	t.Run("FileExists", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(configPath, []byte("application_id: from-file\n"), 0644))

		cfg, err := LoadConfig(configPath)
		require.NoError(t, err)
		require.NotNil(t, cfg)
		assert.Equal(t, "from-file", cfg.ApplicationID)
	})

	t.Run("FileDoesNotExist", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "non_existent_config.yaml")

		cfg, err := LoadConfig(configPath)
		require.NoError(t, err)
		require.NotNil(t, cfg)
		// Should return default value
		assert.Equal(t, "nexusjoin", cfg.ApplicationID)
	})
}

func TestNewLogger(t *testing.T) {
	t.Run("None", func(t *testing.T) {
		logger, closer, err := NewLogger(LoggingConfig{Level: "info", Output: "none"})
		require.NoError(t, err)
		require.NotNil(t, logger)
		assert.Nil(t, closer)
		logger.Info("discarded")
	})

	t.Run("File", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "app.log")
		logger, closer, err := NewLogger(LoggingConfig{Level: "warn", Output: "file", File: path})
		require.NoError(t, err)
		require.NotNil(t, closer)

		logger.Info("below threshold")
		logger.Warn("kept", "key", "value")
		require.NoError(t, closer.Close())

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.NotContains(t, string(data), "below threshold")
		assert.Contains(t, string(data), `"msg":"kept"`)
		assert.Contains(t, string(data), `"key":"value"`)
	})

	t.Run("InvalidLevel", func(t *testing.T) {
		_, _, err := NewLogger(LoggingConfig{Level: "trace", Output: "stdout"})
		require.Error(t, err)
	})

	t.Run("InvalidOutput", func(t *testing.T) {
		_, _, err := NewLogger(LoggingConfig{Level: "info", Output: "kafka"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log output")
	})
}
