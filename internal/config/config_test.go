package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, ModeStdio, cfg.Mode)
	assert.Equal(t, "127.0.0.1", cfg.Host)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "formschema", cfg.ServerName)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, int64(100*1024*1024), cfg.MaxFileSize)
	assert.True(t, cfg.AI.Enabled)
	assert.Equal(t, "gpt-4o-mini", cfg.AI.Model)
	assert.Equal(t, 120*time.Second, cfg.AI.Timeout)
	assert.Equal(t, 15000, cfg.AI.MaxPromptChars)
	assert.Equal(t, 6000, cfg.AI.FewShotMaxChars)

	currentDir, _ := os.Getwd()
	assert.Equal(t, currentDir, cfg.Directory)
	assert.NoError(t, cfg.Validate())
}

func TestConfigValidate(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))

	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"server mode", func(c *Config) { c.Mode = ModeServer }, ""},
		{"invalid mode", func(c *Config) { c.Mode = "http" }, "mode must be"},
		{"port too high", func(c *Config) { c.Mode = ModeServer; c.Port = 70000 }, "port must be"},
		{"port ignored in stdio", func(c *Config) { c.Port = 0 }, ""},
		{"empty directory", func(c *Config) { c.Directory = "" }, "directory cannot be empty"},
		{"directory is a file", func(c *Config) { c.Directory = file }, "is not a directory"},
		{"missing directory", func(c *Config) { c.Directory = filepath.Join(t.TempDir(), "later") }, ""},
		{"zero file size", func(c *Config) { c.MaxFileSize = 0 }, "file size"},
		{"zero concurrency", func(c *Config) { c.Concurrency = 0 }, "concurrency"},
		{"bad log level", func(c *Config) { c.LogLevel = "trace" }, "invalid log level"},
		{"zero timeout", func(c *Config) { c.AI.Timeout = 0 }, "timeout"},
		{"zero retries", func(c *Config) { c.AI.Retries = 0 }, "retries"},
		{"zero prompt budget", func(c *Config) { c.AI.MaxPromptChars = 0 }, "prompt"},
		{"negative few-shot", func(c *Config) { c.AI.FewShotMaxChars = -1 }, "few-shot"},
		{"negative min lines", func(c *Config) { c.Segment.MinLines = -1 }, "min lines"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateDoesNotCreateDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "non-existent", "forms")
	cfg := DefaultConfig()
	cfg.Directory = dir

	require.NoError(t, cfg.Validate())
	_, err := os.Stat(dir)
	assert.True(t, os.IsNotExist(err))
}

func TestConfigLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"bogus": slog.LevelInfo,
	}
	for level, want := range tests {
		cfg := &Config{LogLevel: level}
		assert.Equal(t, want, cfg.Level(), level)
	}
	assert.True(t, (&Config{LogLevel: "debug"}).IsDebug())
	assert.False(t, (&Config{LogLevel: "info"}).IsDebug())
}

func TestNewLoggerHonoursLevel(t *testing.T) {
	var sb strings.Builder
	cfg := &Config{LogLevel: "warn"}
	logger := cfg.NewLogger(&sb)

	logger.Info("hidden")
	logger.Warn("shown", "tier", "basic")

	assert.NotContains(t, sb.String(), "hidden")
	assert.Contains(t, sb.String(), "tier=basic")
}

func TestAIActive(t *testing.T) {
	cfg := DefaultConfig()
	assert.False(t, cfg.AIActive())

	cfg.AI.APIKey = "sk-test"
	assert.True(t, cfg.AIActive())

	cfg.AI.Enabled = false
	assert.False(t, cfg.AIActive())
}

func TestConfigStringHidesKey(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AI.APIKey = "sk-secret"
	s := cfg.String()
	assert.NotContains(t, s, "sk-secret")
	assert.Contains(t, s, "APIKey: set")
}

func TestConfigModes(t *testing.T) {
	cfg := &Config{Mode: ModeServer, Host: "0.0.0.0", Port: 9090}
	assert.True(t, cfg.IsServerMode())
	assert.False(t, cfg.IsStdioMode())
	assert.Equal(t, "0.0.0.0:9090", cfg.Address())

	cfg.Mode = ModeStdio
	assert.True(t, cfg.IsStdioMode())
}
